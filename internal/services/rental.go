package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"rental-system/internal/authz"
	"rental-system/internal/dto"
	"rental-system/internal/entities"
	"rental-system/internal/lifecycle"
	"rental-system/internal/pricing"
	"rental-system/internal/repositories"
	"rental-system/pkg/constants"
	apperrors "rental-system/pkg/errors"
	"rental-system/pkg/service"
	"rental-system/pkg/types"
	"rental-system/pkg/utils"
)

type RentalServiceInterface interface {
	QuotePrice(ctx context.Context, equipmentID uint64, startDate, endDate string) (*dto.QuoteDTO, error)
	Checkout(ctx context.Context, sessionID string, equipmentID uint64, d dto.CheckoutDTO) (*dto.CheckoutResultDTO, error)
	GetRentals(ctx context.Context, filter types.Filter) ([]dto.RentalDTO, uint64, error)
	FindRental(ctx context.Context, id uint64) (*dto.RentalDTO, error)
	FindRentalByNumber(ctx context.Context, number string) (*dto.RentalDTO, error)
	TransitionStatus(ctx context.Context, id uint64, d dto.TransitionRentalStatusDTO) (*dto.RentalDTO, error)
	CancelOwn(ctx context.Context, id uint64, d dto.CancelRentalDTO) (*dto.RentalDTO, error)
	SetPaymentStatus(ctx context.Context, id uint64, d dto.SetPaymentStatusDTO) (*dto.RentalDTO, error)
}

type RentalService struct {
	txManager     repositories.TxManagerInterface
	rentalRepo    repositories.RentalRepositoryInterface
	equipmentRepo repositories.EquipmentRepositoryInterface
	cartRepo      repositories.CartRepositoryInterface
	cacheRepo     repositories.CacheRepositoryInterface
	logger        *zap.Logger
}

func NewRentalService(
	txManager repositories.TxManagerInterface,
	rentalRepo repositories.RentalRepositoryInterface,
	equipmentRepo repositories.EquipmentRepositoryInterface,
	cartRepo repositories.CartRepositoryInterface,
	cacheRepo repositories.CacheRepositoryInterface,
	logger *zap.Logger,
) RentalServiceInterface {
	return &RentalService{
		txManager:     txManager,
		rentalRepo:    rentalRepo,
		equipmentRepo: equipmentRepo,
		cartRepo:      cartRepo,
		cacheRepo:     cacheRepo,
		logger:        logger,
	}
}

// Статусы, занимающие календарь техники. PENDING не блокирует: до
// подтверждения поставщиком даты никому не обещаны.
var blockingRentalStatuses = []string{
	constants.RentalStatusConfirmed,
	constants.RentalStatusInProgress,
}

func formatTimePtr(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.Local().Format("2006-01-02 15:04:05")
	return &s
}

func rentalToDTO(rent *entities.Rental, equipment *entities.Equipment) *dto.RentalDTO {
	out := &dto.RentalDTO{
		ID:            rent.ID,
		RentalNumber:  rent.RentalNumber,
		CustomerEmail: rent.CustomerEmail,
		Equipment:     dto.ShortEquipmentDTO{ID: rent.EquipmentID},

		StartDate: rent.StartDate.Format("2006-01-02"),
		EndDate:   rent.EndDate.Format("2006-01-02"),
		TotalDays: rent.TotalDays,

		DailyRate:    rent.DailyRate,
		Subtotal:     rent.Subtotal,
		DeliveryFee:  rent.DeliveryFee,
		InsuranceFee: rent.InsuranceFee,
		Discount:     rent.Discount,
		Total:        rent.Total,

		DepositAmount: rent.DepositAmount,
		DepositPaid:   rent.DepositPaid,

		DeliveryAddress: rent.DeliveryAddress,
		DeliveryPhone:   rent.DeliveryPhone,

		Status:        rent.Status,
		PaymentStatus: rent.PaymentStatus,

		ConfirmedAt:  formatTimePtr(rent.ConfirmedAt),
		StartedAt:    formatTimePtr(rent.StartedAt),
		CompletedAt:  formatTimePtr(rent.CompletedAt),
		CancelledAt:  formatTimePtr(rent.CancelledAt),
		CancelReason: rent.CancelReason,
	}
	if equipment != nil {
		out.Equipment = dto.ShortEquipmentDTO{
			ID:        equipment.ID,
			Name:      equipment.Name,
			DailyRate: equipment.DailyRate,
		}
	}
	if rent.CreatedAt != nil {
		out.CreatedAt = rent.CreatedAt.Local().Format("2006-01-02 15:04:05")
	}
	if rent.UpdatedAt != nil {
		out.UpdatedAt = rent.UpdatedAt.Local().Format("2006-01-02 15:04:05")
	}
	return out
}

// generateRentalNumber — человекочитаемый номер вида RNT-20250131-4F7A2C1B.
// Уникальность гарантирует ограничение в БД, суффикс из uuid делает
// повтор практически невозможным.
func generateRentalNumber(now time.Time) string {
	suffix := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", ""))[:8]
	return fmt.Sprintf("RNT-%s-%s", now.Format("20060102"), suffix)
}

// QuotePrice — предварительная оценка стоимости по актуальным тарифам.
// Ничего не резервирует и не записывает.
func (s *RentalService) QuotePrice(ctx context.Context, equipmentID uint64, startDate, endDate string) (*dto.QuoteDTO, error) {
	start, err := parseRentalDate(startDate)
	if err != nil {
		return nil, err
	}
	end, err := parseRentalDate(endDate)
	if err != nil {
		return nil, err
	}

	equipment, err := s.equipmentRepo.FindByID(ctx, nil, equipmentID)
	if err != nil {
		return nil, err
	}
	if !equipment.IsBookable() {
		return nil, apperrors.ErrEquipmentUnavailable
	}

	quote, err := pricing.CalculateQuote(rateCardOf(equipment), start, end)
	if err != nil {
		return nil, err
	}

	return &dto.QuoteDTO{
		EquipmentID: equipmentID,
		StartDate:   start.Format("2006-01-02"),
		EndDate:     end.Format("2006-01-02"),
		Quote:       *quote,
		Charges:     pricing.CalculateCharges(quote.Subtotal, 0, 0),
	}, nil
}

// Checkout превращает позицию корзины в аренду. Все шаги идут в одной
// транзакции с блокировкой строки оборудования: повторная проверка
// бронируемости, пересчет котировки по актуальным тарифам, проверка
// пересечений с подтвержденными арендами, вставка записи и удаление
// позиции из корзины. Любой сбой откатывает всё — позиция корзины
// при этом сохраняется.
func (s *RentalService) Checkout(ctx context.Context, sessionID string, equipmentID uint64, d dto.CheckoutDTO) (*dto.CheckoutResultDTO, error) {
	claims, err := utils.GetClaimsFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireRole(claims, authz.RoleCustomer, authz.RoleSupplier, authz.RoleAdmin); err != nil {
		return nil, err
	}

	var newID uint64
	var equipmentName string
	var equipmentDailyRate float64

	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		hold, err := s.cartRepo.FindHold(ctx, tx, sessionID, equipmentID)
		if err != nil {
			return err
		}

		equipment, err := s.equipmentRepo.FindByIDForUpdate(ctx, tx, equipmentID)
		if err != nil {
			return err
		}
		if !equipment.IsBookable() {
			return apperrors.ErrEquipmentUnavailable
		}
		equipmentName = equipment.Name
		equipmentDailyRate = equipment.DailyRate

		overlaps, err := s.rentalRepo.HasOverlapping(ctx, tx, equipmentID, hold.StartDate, hold.EndDate, blockingRentalStatuses)
		if err != nil {
			return err
		}
		if overlaps {
			return apperrors.ErrEquipmentUnavailable
		}

		// Котировка считается заново: тарифы могли измениться после
		// добавления в корзину, фиксируются актуальные.
		quote, err := pricing.CalculateQuote(rateCardOf(equipment), hold.StartDate, hold.EndDate)
		if err != nil {
			return err
		}
		charges := pricing.CalculateCharges(quote.Subtotal, 0, 0)

		rental := entities.Rental{
			RentalNumber:  generateRentalNumber(time.Now()),
			CustomerEmail: claims.Email,
			EquipmentID:   equipmentID,
			StartDate:     hold.StartDate,
			EndDate:       hold.EndDate,
			TotalDays:     quote.TotalDays,

			DailyRate:    quote.EffectiveDailyRate,
			Subtotal:     quote.Subtotal,
			DeliveryFee:  charges.DeliveryFee,
			InsuranceFee: charges.InsuranceFee,
			Discount:     charges.Discount,
			Total:        charges.Total,

			DepositAmount: equipment.DepositAmount,
			DepositPaid:   false,

			DeliveryAddress: d.DeliveryAddress,
			DeliveryPhone:   d.DeliveryPhone,

			Status:        constants.RentalStatusPending,
			PaymentStatus: constants.PaymentStatusPending,
		}

		newID, err = s.rentalRepo.CreateRentalInTx(ctx, tx, rental)
		if err != nil {
			return err
		}

		return s.cartRepo.DeleteHold(ctx, tx, sessionID, equipmentID)
	})
	if err != nil {
		return nil, err
	}

	created, err := s.rentalRepo.FindByID(ctx, nil, newID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("аренда оформлена",
		zap.String("rental_number", created.RentalNumber),
		zap.Uint64("equipment_id", equipmentID),
		zap.String("customer", claims.Email),
	)

	out := rentalToDTO(created, nil)
	out.Equipment = dto.ShortEquipmentDTO{ID: equipmentID, Name: equipmentName, DailyRate: equipmentDailyRate}
	return &dto.CheckoutResultDTO{RentalNumber: created.RentalNumber, Rental: *out}, nil
}

func (s *RentalService) GetRentals(ctx context.Context, filter types.Filter) ([]dto.RentalDTO, uint64, error) {
	claims, err := utils.GetClaimsFromContext(ctx)
	if err != nil {
		return nil, 0, err
	}

	var scope repositories.RentalScope
	switch claims.Role {
	case authz.RoleAdmin:
		// админ видит все аренды без ограничений
	case authz.RoleSupplier:
		scope.OwnerEmail = claims.Email
	default:
		scope.CustomerEmail = claims.Email
	}

	list, total, err := s.rentalRepo.GetRentals(ctx, filter, scope)
	if err != nil {
		return nil, 0, err
	}

	// Имена техники подтягиваются одним проходом по уникальным id.
	equipmentByID := make(map[uint64]*entities.Equipment)
	result := make([]dto.RentalDTO, 0, len(list))
	for _, rent := range list {
		equipment, ok := equipmentByID[rent.EquipmentID]
		if !ok {
			equipment, err = s.equipmentRepo.FindByID(ctx, nil, rent.EquipmentID)
			if err != nil {
				equipment = nil
			}
			equipmentByID[rent.EquipmentID] = equipment
		}
		result = append(result, *rentalToDTO(rent, equipment))
	}
	return result, total, nil
}

func (s *RentalService) FindRental(ctx context.Context, id uint64) (*dto.RentalDTO, error) {
	rent, err := s.rentalRepo.FindByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	return s.presentRental(ctx, rent)
}

// FindRentalByNumber — поиск по человекочитаемому номеру (для поддержки
// и сверки документов). Правила видимости те же, что и при поиске по id.
func (s *RentalService) FindRentalByNumber(ctx context.Context, number string) (*dto.RentalDTO, error) {
	rent, err := s.rentalRepo.FindByNumber(ctx, number)
	if err != nil {
		return nil, err
	}
	return s.presentRental(ctx, rent)
}

func (s *RentalService) presentRental(ctx context.Context, rent *entities.Rental) (*dto.RentalDTO, error) {
	claims, err := utils.GetClaimsFromContext(ctx)
	if err != nil {
		return nil, err
	}

	equipment, eqErr := s.equipmentRepo.FindByID(ctx, nil, rent.EquipmentID)
	if eqErr != nil {
		equipment = nil
	}

	if !s.canSeeRental(claims, rent, equipment) {
		// Чужая аренда неотличима от несуществующей.
		return nil, apperrors.ErrNotFound
	}

	return rentalToDTO(rent, equipment), nil
}

func (s *RentalService) canSeeRental(claims *service.JwtCustomClaim, rent *entities.Rental, equipment *entities.Equipment) bool {
	if authz.IsAdmin(claims) {
		return true
	}
	if rent.CustomerEmail == claims.Email {
		return true
	}
	return equipment != nil && equipment.OwnerEmail == claims.Email
}

// TransitionStatus — переход жизненного цикла, выполняемый поставщиком
// (владельцем техники) или админом. Переход применяется сравнением-с-обменом;
// если статус успел измениться конкурентно, возвращается
// ErrConcurrentModification и никакие побочные эффекты не происходят.
func (s *RentalService) TransitionStatus(ctx context.Context, id uint64, d dto.TransitionRentalStatusDTO) (*dto.RentalDTO, error) {
	claims, err := utils.GetClaimsFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireRole(claims, authz.RoleSupplier, authz.RoleAdmin); err != nil {
		return nil, err
	}

	rent, err := s.rentalRepo.FindByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	equipment, err := s.equipmentRepo.FindByID(ctx, nil, rent.EquipmentID)
	if err != nil {
		return nil, err
	}
	if !authz.IsAdmin(claims) && equipment.OwnerEmail != claims.Email {
		return nil, apperrors.ErrForbidden
	}

	if err := lifecycle.ValidateStatusTransition(rent.Status, d.Status); err != nil {
		return nil, err
	}

	var cancelReason *string
	if d.Status == constants.RentalStatusCancelled {
		reason := strings.TrimSpace(d.CancelReason)
		if reason == "" {
			return nil, apperrors.NewInvalidInputError("причина отмены обязательна")
		}
		cancelReason = &reason
	}

	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		// Подтверждение занимает календарь, поэтому прямо перед ним
		// повторяется проверка пересечений: две PENDING-аренды на одни
		// даты допустимы, но подтвердится только одна.
		if d.Status == constants.RentalStatusConfirmed {
			if _, err := s.equipmentRepo.FindByIDForUpdate(ctx, tx, rent.EquipmentID); err != nil {
				return err
			}
			overlaps, err := s.rentalRepo.HasOverlapping(ctx, tx, rent.EquipmentID, rent.StartDate, rent.EndDate, blockingRentalStatuses)
			if err != nil {
				return err
			}
			if overlaps {
				return apperrors.ErrEquipmentUnavailable
			}
		}

		applied, err := s.rentalRepo.UpdateStatusCAS(ctx, tx, id, rent.Status, d.Status, cancelReason)
		if err != nil {
			return err
		}
		if !applied {
			return apperrors.ErrConcurrentModification
		}

		// Сквозные эффекты на технику идут в той же транзакции:
		// выдача занимает единицу, завершение возвращает ее в парк.
		switch d.Status {
		case constants.RentalStatusInProgress:
			return s.equipmentRepo.SetStatus(ctx, tx, rent.EquipmentID, constants.EquipmentStatusRented)
		case constants.RentalStatusCompleted:
			return s.equipmentRepo.SetStatus(ctx, tx, rent.EquipmentID, constants.EquipmentStatusAvailable)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.cacheRepo.Del(ctx, fmt.Sprintf(constants.CacheKeyEquipment, rent.EquipmentID)); err != nil {
		s.logger.Warn("не удалось сбросить кеш карточки", zap.Uint64("equipment_id", rent.EquipmentID), zap.Error(err))
	}

	s.logger.Info("статус аренды изменен",
		zap.Uint64("rental_id", id),
		zap.String("from", rent.Status),
		zap.String("to", d.Status),
		zap.String("by", claims.Email),
	)

	updated, err := s.rentalRepo.FindByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	return rentalToDTO(updated, equipment), nil
}

// CancelOwn — отмена клиентом своей аренды. Возможна только из PENDING
// или CONFIRMED; причина необязательна.
func (s *RentalService) CancelOwn(ctx context.Context, id uint64, d dto.CancelRentalDTO) (*dto.RentalDTO, error) {
	claims, err := utils.GetClaimsFromContext(ctx)
	if err != nil {
		return nil, err
	}

	rent, err := s.rentalRepo.FindByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if !authz.IsAdmin(claims) && rent.CustomerEmail != claims.Email {
		return nil, apperrors.ErrNotFound
	}

	if !lifecycle.CanBeCancelled(rent.Status) {
		return nil, apperrors.ErrIllegalTransition
	}

	var cancelReason *string
	if reason := strings.TrimSpace(d.Reason); reason != "" {
		cancelReason = &reason
	}

	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		applied, err := s.rentalRepo.UpdateStatusCAS(ctx, tx, id, rent.Status, constants.RentalStatusCancelled, cancelReason)
		if err != nil {
			return err
		}
		if !applied {
			return apperrors.ErrConcurrentModification
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("аренда отменена клиентом",
		zap.Uint64("rental_id", id),
		zap.String("customer", claims.Email),
	)

	updated, err := s.rentalRepo.FindByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	return rentalToDTO(updated, nil), nil
}

// SetPaymentStatus — переход платежной машины, доступен только админу.
// Платежный статус ортогонален жизненному циклу аренды.
func (s *RentalService) SetPaymentStatus(ctx context.Context, id uint64, d dto.SetPaymentStatusDTO) (*dto.RentalDTO, error) {
	claims, err := utils.GetClaimsFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireRole(claims, authz.RoleAdmin); err != nil {
		return nil, err
	}

	rent, err := s.rentalRepo.FindByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}

	if err := lifecycle.ValidatePaymentTransition(rent.PaymentStatus, d.PaymentStatus); err != nil {
		return nil, err
	}

	applied, err := s.rentalRepo.UpdatePaymentStatusCAS(ctx, id, rent.PaymentStatus, d.PaymentStatus)
	if err != nil {
		return nil, err
	}
	if !applied {
		return nil, apperrors.ErrConcurrentModification
	}

	s.logger.Info("статус оплаты изменен",
		zap.Uint64("rental_id", id),
		zap.String("from", rent.PaymentStatus),
		zap.String("to", d.PaymentStatus),
	)

	updated, err := s.rentalRepo.FindByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	return rentalToDTO(updated, nil), nil
}

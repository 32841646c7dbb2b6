package services

import (
	"context"
	"time"

	"go.uber.org/zap"

	"rental-system/internal/dto"
	"rental-system/internal/entities"
	"rental-system/internal/pricing"
	"rental-system/internal/repositories"
	apperrors "rental-system/pkg/errors"
)

type CartServiceInterface interface {
	AddHold(ctx context.Context, sessionID string, d dto.AddToCartDTO) (*dto.CartItemDTO, error)
	RemoveHold(ctx context.Context, sessionID string, equipmentID uint64) error
	ListHolds(ctx context.Context, sessionID string) (*dto.CartDTO, error)
	ClearCart(ctx context.Context, sessionID string) error
}

type CartService struct {
	cartRepo      repositories.CartRepositoryInterface
	equipmentRepo repositories.EquipmentRepositoryInterface
	logger        *zap.Logger
}

func NewCartService(
	cartRepo repositories.CartRepositoryInterface,
	equipmentRepo repositories.EquipmentRepositoryInterface,
	logger *zap.Logger,
) CartServiceInterface {
	return &CartService{
		cartRepo:      cartRepo,
		equipmentRepo: equipmentRepo,
		logger:        logger,
	}
}

func rateCardOf(e *entities.Equipment) pricing.RateCard {
	return pricing.RateCard{
		DailyRate:     e.DailyRate,
		WeeklyRate:    e.WeeklyRate,
		MonthlyRate:   e.MonthlyRate,
		MinRentalDays: e.MinRentalDays,
	}
}

func parseRentalDate(raw string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, apperrors.ErrInvalidDateRange
	}
	return t, nil
}

// AddHold кладет позицию в корзину. Повторное добавление той же техники
// в той же сессии заменяет даты, а не плодит дубликаты.
func (s *CartService) AddHold(ctx context.Context, sessionID string, d dto.AddToCartDTO) (*dto.CartItemDTO, error) {
	startDate, err := parseRentalDate(d.StartDate)
	if err != nil {
		return nil, err
	}
	endDate, err := parseRentalDate(d.EndDate)
	if err != nil {
		return nil, err
	}

	equipment, err := s.equipmentRepo.FindByID(ctx, nil, d.EquipmentID)
	if err != nil {
		return nil, err
	}
	if !equipment.IsBookable() {
		return nil, apperrors.ErrEquipmentUnavailable
	}

	// Считаем котировку до записи: невалидный интервал или срок короче
	// минимального отсекаются прямо здесь.
	quote, err := pricing.CalculateQuote(rateCardOf(equipment), startDate, endDate)
	if err != nil {
		return nil, err
	}

	if err := s.cartRepo.UpsertHold(ctx, entities.CartHold{
		SessionID:   sessionID,
		EquipmentID: d.EquipmentID,
		StartDate:   startDate,
		EndDate:     endDate,
	}); err != nil {
		return nil, err
	}

	s.logger.Info("позиция добавлена в корзину",
		zap.String("session_id", sessionID),
		zap.Uint64("equipment_id", d.EquipmentID),
	)

	return &dto.CartItemDTO{
		Equipment: dto.ShortEquipmentDTO{
			ID:        equipment.ID,
			Name:      equipment.Name,
			DailyRate: equipment.DailyRate,
		},
		StartDate:  startDate.Format("2006-01-02"),
		EndDate:    endDate.Format("2006-01-02"),
		Quote:      quote,
		IsBookable: true,
	}, nil
}

func (s *CartService) RemoveHold(ctx context.Context, sessionID string, equipmentID uint64) error {
	return s.cartRepo.DeleteHold(ctx, nil, sessionID, equipmentID)
}

// ListHolds пересчитывает котировку каждой позиции по актуальным тарифам.
// Позиция, чья техника перестала быть бронируемой, остается в списке,
// но помечается и котировки не получает.
func (s *CartService) ListHolds(ctx context.Context, sessionID string) (*dto.CartDTO, error) {
	holds, err := s.cartRepo.ListHolds(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	items := make([]dto.CartItemDTO, 0, len(holds))
	for _, h := range holds {
		item := dto.CartItemDTO{
			Equipment: dto.ShortEquipmentDTO{
				ID:        h.Equipment.ID,
				Name:      h.Equipment.Name,
				DailyRate: h.Equipment.DailyRate,
			},
			StartDate: h.StartDate.Format("2006-01-02"),
			EndDate:   h.EndDate.Format("2006-01-02"),
		}

		if h.Equipment.IsBookable() {
			quote, qErr := pricing.CalculateQuote(rateCardOf(h.Equipment), h.StartDate, h.EndDate)
			if qErr == nil {
				item.Quote = quote
				item.IsBookable = true
			}
		}

		items = append(items, item)
	}

	return &dto.CartDTO{SessionID: sessionID, Items: items}, nil
}

func (s *CartService) ClearCart(ctx context.Context, sessionID string) error {
	return s.cartRepo.Clear(ctx, sessionID)
}

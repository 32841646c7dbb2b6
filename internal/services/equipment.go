package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"rental-system/internal/authz"
	"rental-system/internal/dto"
	"rental-system/internal/entities"
	"rental-system/internal/repositories"
	"rental-system/pkg/constants"
	apperrors "rental-system/pkg/errors"
	"rental-system/pkg/types"
	"rental-system/pkg/utils"
)

type EquipmentServiceInterface interface {
	GetEquipments(ctx context.Context, filter types.Filter) ([]dto.EquipmentDTO, uint64, error)
	FindEquipment(ctx context.Context, id uint64) (*dto.EquipmentDTO, error)
	CreateEquipment(ctx context.Context, d dto.CreateEquipmentDTO) (*dto.EquipmentDTO, error)
	UpdateEquipment(ctx context.Context, id uint64, d dto.UpdateEquipmentDTO) (*dto.EquipmentDTO, error)
	ApproveEquipment(ctx context.Context, id uint64) (*dto.EquipmentDTO, error)
	RejectEquipment(ctx context.Context, id uint64) (*dto.EquipmentDTO, error)
	SetEquipmentStatus(ctx context.Context, id uint64, d dto.UpdateEquipmentStatusDTO) (*dto.EquipmentDTO, error)
}

type EquipmentService struct {
	equipmentRepo repositories.EquipmentRepositoryInterface
	cacheRepo     repositories.CacheRepositoryInterface
	logger        *zap.Logger
}

func NewEquipmentService(
	equipmentRepo repositories.EquipmentRepositoryInterface,
	cacheRepo repositories.CacheRepositoryInterface,
	logger *zap.Logger,
) EquipmentServiceInterface {
	return &EquipmentService{
		equipmentRepo: equipmentRepo,
		cacheRepo:     cacheRepo,
		logger:        logger,
	}
}

func equipmentToDTO(e *entities.Equipment) *dto.EquipmentDTO {
	out := &dto.EquipmentDTO{
		ID:            e.ID,
		OwnerEmail:    e.OwnerEmail,
		Name:          e.Name,
		Description:   e.Description,
		DailyRate:     e.DailyRate,
		WeeklyRate:    e.WeeklyRate,
		MonthlyRate:   e.MonthlyRate,
		MinRentalDays: e.MinRentalDays,
		DepositAmount: e.DepositAmount,
		Status:        e.Status,
		IsApproved:    e.IsApproved,
		IsBookable:    e.IsBookable(),
	}
	if e.Category != nil {
		out.Category = &dto.ShortCategoryDTO{ID: e.Category.ID, Name: e.Category.Name}
	}
	if e.Brand != nil {
		out.Brand = &dto.ShortBrandDTO{ID: e.Brand.ID, Name: e.Brand.Name}
	}
	if e.CreatedAt != nil {
		out.CreatedAt = e.CreatedAt.Local().Format("2006-01-02 15:04:05")
	}
	if e.UpdatedAt != nil {
		out.UpdatedAt = e.UpdatedAt.Local().Format("2006-01-02 15:04:05")
	}
	return out
}

// GetEquipments: клиенты и анонимные посетители видят только бронируемую
// технику; поставщик — свою (в любом состоянии); админ — всё.
func (s *EquipmentService) GetEquipments(ctx context.Context, filter types.Filter) ([]dto.EquipmentDTO, uint64, error) {
	claims := utils.ClaimsOrNil(ctx)

	onlyBookable := true
	switch {
	case authz.IsAdmin(claims):
		onlyBookable = false
	case claims != nil && claims.Role == authz.RoleSupplier:
		onlyBookable = false
		if filter.Filter == nil {
			filter.Filter = map[string]interface{}{}
		}
		filter.Filter["owner_email"] = claims.Email
	}

	list, total, err := s.equipmentRepo.GetEquipments(ctx, filter, onlyBookable)
	if err != nil {
		return nil, 0, err
	}

	result := make([]dto.EquipmentDTO, 0, len(list))
	for _, e := range list {
		result = append(result, *equipmentToDTO(e))
	}
	return result, total, nil
}

// FindEquipment читает карточку через кеш: промах — поход в БД и запись
// с TTL, попадание — готовый JSON.
func (s *EquipmentService) FindEquipment(ctx context.Context, id uint64) (*dto.EquipmentDTO, error) {
	cacheKey := fmt.Sprintf(constants.CacheKeyEquipment, id)

	if cached, err := s.cacheRepo.Get(ctx, cacheKey); err == nil && cached != "" {
		var out dto.EquipmentDTO
		if err := json.Unmarshal([]byte(cached), &out); err == nil {
			return &out, nil
		}
		// Битое значение в кеше — не повод отдавать ошибку, идем в БД.
		s.logger.Warn("кеш карточки оборудования поврежден", zap.Uint64("id", id))
	}

	e, err := s.equipmentRepo.FindByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}

	out := equipmentToDTO(e)
	if payload, err := json.Marshal(out); err == nil {
		if err := s.cacheRepo.Set(ctx, cacheKey, string(payload), constants.EquipmentCacheTTLSeconds*time.Second); err != nil {
			s.logger.Warn("не удалось записать карточку в кеш", zap.Uint64("id", id), zap.Error(err))
		}
	}
	return out, nil
}

// CreateEquipment: техника появляется неодобренной и недоступной.
// Бронируемой она станет только после решения админа.
func (s *EquipmentService) CreateEquipment(ctx context.Context, d dto.CreateEquipmentDTO) (*dto.EquipmentDTO, error) {
	claims, err := utils.GetClaimsFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireRole(claims, authz.RoleSupplier, authz.RoleAdmin); err != nil {
		return nil, err
	}

	minDays := d.MinRentalDays
	if minDays < 1 {
		minDays = 1
	}

	e := entities.Equipment{
		OwnerEmail:    claims.Email,
		Name:          d.Name,
		Description:   d.Description,
		CategoryID:    d.CategoryID,
		BrandID:       d.BrandID,
		DailyRate:     d.DailyRate,
		WeeklyRate:    d.WeeklyRate,
		MonthlyRate:   d.MonthlyRate,
		MinRentalDays: minDays,
		DepositAmount: d.DepositAmount,
		Status:        constants.EquipmentStatusUnavailable,
		IsApproved:    false,
	}

	newID, err := s.equipmentRepo.Create(ctx, e)
	if err != nil {
		return nil, err
	}

	created, err := s.equipmentRepo.FindByID(ctx, nil, newID)
	if err != nil {
		return nil, err
	}
	return equipmentToDTO(created), nil
}

func (s *EquipmentService) UpdateEquipment(ctx context.Context, id uint64, d dto.UpdateEquipmentDTO) (*dto.EquipmentDTO, error) {
	claims, err := utils.GetClaimsFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireRole(claims, authz.RoleSupplier, authz.RoleAdmin); err != nil {
		return nil, err
	}

	existing, err := s.equipmentRepo.FindByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if !authz.IsAdmin(claims) && existing.OwnerEmail != claims.Email {
		return nil, apperrors.ErrForbidden
	}

	if err := s.equipmentRepo.Update(ctx, id, d); err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)

	updated, err := s.equipmentRepo.FindByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	return equipmentToDTO(updated), nil
}

// ApproveEquipment — админский переход: одобрено и доступно к брони.
func (s *EquipmentService) ApproveEquipment(ctx context.Context, id uint64) (*dto.EquipmentDTO, error) {
	return s.setApproval(ctx, id, true, constants.EquipmentStatusAvailable)
}

// RejectEquipment — отклонение: не одобрено и недоступно.
func (s *EquipmentService) RejectEquipment(ctx context.Context, id uint64) (*dto.EquipmentDTO, error) {
	return s.setApproval(ctx, id, false, constants.EquipmentStatusUnavailable)
}

func (s *EquipmentService) setApproval(ctx context.Context, id uint64, approved bool, status string) (*dto.EquipmentDTO, error) {
	claims, err := utils.GetClaimsFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireRole(claims, authz.RoleAdmin); err != nil {
		return nil, err
	}

	if err := s.equipmentRepo.SetApproval(ctx, id, approved, status); err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)

	updated, err := s.equipmentRepo.FindByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	return equipmentToDTO(updated), nil
}

// SetEquipmentStatus — ручная смена статуса владельцем или админом
// (например, MAINTENANCE). Статус RENTED руками не выставляется.
func (s *EquipmentService) SetEquipmentStatus(ctx context.Context, id uint64, d dto.UpdateEquipmentStatusDTO) (*dto.EquipmentDTO, error) {
	claims, err := utils.GetClaimsFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireRole(claims, authz.RoleSupplier, authz.RoleAdmin); err != nil {
		return nil, err
	}

	existing, err := s.equipmentRepo.FindByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	if !authz.IsAdmin(claims) && existing.OwnerEmail != claims.Email {
		return nil, apperrors.ErrForbidden
	}

	if err := s.equipmentRepo.SetStatus(ctx, nil, id, d.Status); err != nil {
		return nil, err
	}
	s.invalidate(ctx, id)

	updated, err := s.equipmentRepo.FindByID(ctx, nil, id)
	if err != nil {
		return nil, err
	}
	return equipmentToDTO(updated), nil
}

func (s *EquipmentService) invalidate(ctx context.Context, id uint64) {
	if err := s.cacheRepo.Del(ctx, fmt.Sprintf(constants.CacheKeyEquipment, id)); err != nil {
		s.logger.Warn("не удалось сбросить кеш карточки", zap.Uint64("id", id), zap.Error(err))
	}
}

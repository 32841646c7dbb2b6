package services

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"rental-system/internal/dto"
	"rental-system/internal/entities"
	"rental-system/internal/repositories"
	"rental-system/pkg/constants"
	apperrors "rental-system/pkg/errors"
	"rental-system/pkg/utils"
)

// Сколько раз повторять добавление версии при конкурентном редактировании.
const profileAppendAttempts = 3

type ProfileServiceInterface interface {
	CurrentProfile(ctx context.Context) (*dto.ProfileDTO, error)
	UpdateProfile(ctx context.Context, d dto.UpdateProfileDTO) (*dto.ProfileDTO, error)
	GetHistory(ctx context.Context) ([]dto.ProfileDTO, error)
}

type ProfileService struct {
	txManager   repositories.TxManagerInterface
	profileRepo repositories.UserProfileRepositoryInterface
	logger      *zap.Logger
}

func NewProfileService(
	txManager repositories.TxManagerInterface,
	profileRepo repositories.UserProfileRepositoryInterface,
	logger *zap.Logger,
) ProfileServiceInterface {
	return &ProfileService{txManager: txManager, profileRepo: profileRepo, logger: logger}
}

func profileToDTO(p *entities.UserProfile) *dto.ProfileDTO {
	out := &dto.ProfileDTO{
		ID:          p.ID,
		Email:       p.Email,
		Version:     p.Version,
		Status:      p.Status,
		Fio:         p.Fio,
		PhoneNumber: p.PhoneNumber,
		Address:     p.Address,
		Role:        p.Role,
	}
	if p.CreatedAt != nil {
		out.CreatedAt = p.CreatedAt.Local().Format("2006-01-02 15:04:05")
	}
	return out
}

func (s *ProfileService) CurrentProfile(ctx context.Context) (*dto.ProfileDTO, error) {
	claims, err := utils.GetClaimsFromContext(ctx)
	if err != nil {
		return nil, err
	}

	p, err := s.profileRepo.FindCurrentByEmail(ctx, nil, claims.Email)
	if err != nil {
		return nil, err
	}
	return profileToDTO(p), nil
}

// UpdateProfile добавляет новую версию профиля. Непереданные поля
// копируются из текущей версии. Конкурентные правки сериализуются
// уникальностью (email, version): проигравшая вставка перечитывает
// актуальную версию и повторяется.
func (s *ProfileService) UpdateProfile(ctx context.Context, d dto.UpdateProfileDTO) (*dto.ProfileDTO, error) {
	claims, err := utils.GetClaimsFromContext(ctx)
	if err != nil {
		return nil, err
	}

	var appended *entities.UserProfile
	for attempt := 1; attempt <= profileAppendAttempts; attempt++ {
		appended, err = s.tryAppend(ctx, claims.Email, d)
		if err == nil {
			return profileToDTO(appended), nil
		}
		if !errors.Is(err, apperrors.ErrConflict) {
			return nil, err
		}
		s.logger.Debug("конкурентная правка профиля, повтор",
			zap.String("email", claims.Email),
			zap.Int("attempt", attempt),
		)
	}
	return nil, apperrors.ErrConcurrentModification
}

func (s *ProfileService) tryAppend(ctx context.Context, email string, d dto.UpdateProfileDTO) (*entities.UserProfile, error) {
	var next entities.UserProfile

	err := s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		current, err := s.profileRepo.FindCurrentByEmail(ctx, tx, email)
		if err != nil {
			return err
		}

		next = *current
		next.ID = 0
		next.Version = current.Version + 1
		next.Status = constants.ProfileStatusActive
		if d.Fio.Valid {
			next.Fio = d.Fio.String
		}
		if d.PhoneNumber.Valid {
			phone := d.PhoneNumber.String
			next.PhoneNumber = &phone
		}
		if d.Address.Valid {
			address := d.Address.String
			next.Address = &address
		}

		newID, err := s.profileRepo.AppendVersionInTx(ctx, tx, next)
		if err != nil {
			return err
		}
		next.ID = newID

		return s.profileRepo.DemotePriorVersionsInTx(ctx, tx, email, next.Version)
	})
	if err != nil {
		return nil, err
	}
	return &next, nil
}

func (s *ProfileService) GetHistory(ctx context.Context) ([]dto.ProfileDTO, error) {
	claims, err := utils.GetClaimsFromContext(ctx)
	if err != nil {
		return nil, err
	}

	history, err := s.profileRepo.GetHistory(ctx, claims.Email)
	if err != nil {
		return nil, err
	}

	result := make([]dto.ProfileDTO, 0, len(history))
	for _, p := range history {
		result = append(result, *profileToDTO(p))
	}
	return result, nil
}

package services

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"rental-system/internal/authz"
	"rental-system/internal/dto"
	"rental-system/internal/entities"
	"rental-system/internal/repositories"
	"rental-system/pkg/constants"
	apperrors "rental-system/pkg/errors"
	"rental-system/pkg/service"
	"rental-system/pkg/utils"
)

type AuthServiceInterface interface {
	Register(ctx context.Context, d dto.RegisterDTO) (*dto.TokenPairDTO, error)
	Login(ctx context.Context, d dto.LoginDTO) (*dto.TokenPairDTO, error)
	Refresh(ctx context.Context, d dto.RefreshDTO) (*dto.TokenPairDTO, error)
}

type AuthService struct {
	txManager   repositories.TxManagerInterface
	profileRepo repositories.UserProfileRepositoryInterface
	jwtService  service.JWTService
	logger      *zap.Logger
}

func NewAuthService(
	txManager repositories.TxManagerInterface,
	profileRepo repositories.UserProfileRepositoryInterface,
	jwtService service.JWTService,
	logger *zap.Logger,
) AuthServiceInterface {
	return &AuthService{
		txManager:   txManager,
		profileRepo: profileRepo,
		jwtService:  jwtService,
		logger:      logger,
	}
}

func (s *AuthService) tokenPair(p *entities.UserProfile) (*dto.TokenPairDTO, error) {
	accessToken, refreshToken, err := s.jwtService.GenerateTokens(p.ID, p.Email, p.Role)
	if err != nil {
		return nil, err
	}
	return &dto.TokenPairDTO{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.jwtService.GetAccessTokenTTL().Seconds()),
	}, nil
}

// Register создает первую версию профиля с ролью CUSTOMER и сразу выдает
// пару токенов. Повторная регистрация занятого email — ErrConflict.
func (s *AuthService) Register(ctx context.Context, d dto.RegisterDTO) (*dto.TokenPairDTO, error) {
	hashed, err := utils.HashPassword(d.Password)
	if err != nil {
		return nil, err
	}

	profile := entities.UserProfile{
		Email:       d.Email,
		Version:     1,
		Status:      constants.ProfileStatusActive,
		Fio:         d.Fio,
		PhoneNumber: d.PhoneNumber,
		Role:        authz.RoleCustomer,
		Password:    hashed,
	}

	err = s.txManager.RunInTransaction(ctx, func(tx pgx.Tx) error {
		_, err := s.profileRepo.FindCurrentByEmail(ctx, tx, d.Email)
		if err == nil {
			return apperrors.ErrConflict
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			return err
		}

		newID, err := s.profileRepo.AppendVersionInTx(ctx, tx, profile)
		if err != nil {
			return err
		}
		profile.ID = newID
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("зарегистрирован новый пользователь", zap.String("email", d.Email))
	return s.tokenPair(&profile)
}

func (s *AuthService) Login(ctx context.Context, d dto.LoginDTO) (*dto.TokenPairDTO, error) {
	profile, err := s.profileRepo.FindCurrentByEmail(ctx, nil, d.Email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// Не раскрываем, существует ли email.
			return nil, apperrors.ErrUnauthorized
		}
		return nil, err
	}

	if err := utils.ComparePasswords(profile.Password, d.Password); err != nil {
		return nil, apperrors.ErrUnauthorized
	}

	return s.tokenPair(profile)
}

// Refresh принимает refresh-токен и выдает свежую пару. Роль и email
// перечитываются из текущей версии профиля, а не из токена: смена роли
// вступает в силу при первом обновлении.
func (s *AuthService) Refresh(ctx context.Context, d dto.RefreshDTO) (*dto.TokenPairDTO, error) {
	claims, err := s.jwtService.ValidateToken(d.RefreshToken)
	if err != nil {
		return nil, err
	}
	if !claims.IsRefreshToken {
		return nil, apperrors.ErrInvalidToken
	}

	profile, err := s.profileRepo.FindCurrentByEmail(ctx, nil, claims.Email)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.ErrUnauthorized
		}
		return nil, err
	}

	return s.tokenPair(profile)
}

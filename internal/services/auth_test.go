package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"rental-system/internal/authz"
	"rental-system/internal/dto"
	"rental-system/pkg/constants"
	apperrors "rental-system/pkg/errors"
	"rental-system/pkg/service"
)

func newAuthFixture() (AuthServiceInterface, *fakeProfileRepo, service.JWTService) {
	repo := newFakeProfileRepo()
	jwtSvc := service.NewJWTService("test-secret", 15*time.Minute, 24*time.Hour)
	svc := NewAuthService(&fakeTxManager{}, repo, jwtSvc, zap.NewNop())
	return svc, repo, jwtSvc
}

func registerDTO() dto.RegisterDTO {
	return dto.RegisterDTO{
		Email:    "new@test.local",
		Password: "correct-horse",
		Fio:      "Новый Пользователь",
	}
}

func TestRegister(t *testing.T) {
	svc, repo, jwtSvc := newAuthFixture()

	pair, err := svc.Register(context.Background(), registerDTO())
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
	assert.Equal(t, int64(900), pair.ExpiresIn)

	// Создана первая версия профиля с ролью CUSTOMER.
	p, err := repo.FindCurrentByEmail(context.Background(), nil, "new@test.local")
	require.NoError(t, err)
	assert.Equal(t, 1, p.Version)
	assert.Equal(t, authz.RoleCustomer, p.Role)
	assert.Equal(t, constants.ProfileStatusActive, p.Status)
	// Пароль хранится только хешем.
	assert.NotEqual(t, "correct-horse", p.Password)

	claims, err := jwtSvc.ValidateToken(pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "new@test.local", claims.Email)
	assert.Equal(t, authz.RoleCustomer, claims.Role)
	assert.False(t, claims.IsRefreshToken)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	svc, _, _ := newAuthFixture()

	_, err := svc.Register(context.Background(), registerDTO())
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), registerDTO())
	assert.ErrorIs(t, err, apperrors.ErrConflict)
}

func TestLogin(t *testing.T) {
	svc, _, _ := newAuthFixture()
	_, err := svc.Register(context.Background(), registerDTO())
	require.NoError(t, err)

	pair, err := svc.Login(context.Background(), dto.LoginDTO{
		Email:    "new@test.local",
		Password: "correct-horse",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
}

func TestLogin_BadCredentials(t *testing.T) {
	svc, _, _ := newAuthFixture()
	_, err := svc.Register(context.Background(), registerDTO())
	require.NoError(t, err)

	// Неверный пароль и несуществующий email дают один и тот же ответ.
	_, err = svc.Login(context.Background(), dto.LoginDTO{Email: "new@test.local", Password: "wrong"})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)

	_, err = svc.Login(context.Background(), dto.LoginDTO{Email: "ghost@test.local", Password: "wrong"})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func TestRefresh(t *testing.T) {
	svc, repo, jwtSvc := newAuthFixture()
	pair, err := svc.Register(context.Background(), registerDTO())
	require.NoError(t, err)

	// Роль сменилась после выдачи токенов: обновление подхватывает ее
	// из текущей версии профиля.
	p, err := repo.FindCurrentByEmail(context.Background(), nil, "new@test.local")
	require.NoError(t, err)
	next := *p
	next.ID = 0
	next.Version = p.Version + 1
	next.Role = authz.RoleSupplier
	_, err = repo.AppendVersionInTx(context.Background(), nil, next)
	require.NoError(t, err)
	require.NoError(t, repo.DemotePriorVersionsInTx(context.Background(), nil, "new@test.local", next.Version))

	fresh, err := svc.Refresh(context.Background(), dto.RefreshDTO{RefreshToken: pair.RefreshToken})
	require.NoError(t, err)

	claims, err := jwtSvc.ValidateToken(fresh.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, authz.RoleSupplier, claims.Role)
}

func TestRefresh_RejectsAccessToken(t *testing.T) {
	svc, _, _ := newAuthFixture()
	pair, err := svc.Register(context.Background(), registerDTO())
	require.NoError(t, err)

	_, err = svc.Refresh(context.Background(), dto.RefreshDTO{RefreshToken: pair.AccessToken})
	assert.ErrorIs(t, err, apperrors.ErrInvalidToken)
}

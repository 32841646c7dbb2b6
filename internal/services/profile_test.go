package services

import (
	"testing"

	"github.com/aarondl/null/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"rental-system/internal/authz"
	"rental-system/internal/dto"
	"rental-system/internal/entities"
	"rental-system/pkg/constants"
	apperrors "rental-system/pkg/errors"
)

func newProfileFixture() (ProfileServiceInterface, *fakeProfileRepo) {
	repo := newFakeProfileRepo()
	svc := NewProfileService(&fakeTxManager{}, repo, zap.NewNop())
	return svc, repo
}

func seedCustomerProfile(repo *fakeProfileRepo) {
	phone := "+992900000001"
	repo.seed(entities.UserProfile{
		Email:       customerEmail,
		Version:     1,
		Status:      constants.ProfileStatusActive,
		Fio:         "Ахмедов Ахмед",
		PhoneNumber: &phone,
		Role:        authz.RoleCustomer,
	})
}

func TestCurrentProfile(t *testing.T) {
	svc, repo := newProfileFixture()
	seedCustomerProfile(repo)
	ctx := ctxWithClaims(authz.RoleCustomer, customerEmail)

	p, err := svc.CurrentProfile(ctx)
	require.NoError(t, err)
	assert.Equal(t, customerEmail, p.Email)
	assert.Equal(t, 1, p.Version)
	assert.Equal(t, "Ахмедов Ахмед", p.Fio)
}

func TestCurrentProfile_NotFound(t *testing.T) {
	svc, _ := newProfileFixture()
	ctx := ctxWithClaims(authz.RoleCustomer, "ghost@test.local")

	_, err := svc.CurrentProfile(ctx)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestUpdateProfile_CopyForward(t *testing.T) {
	svc, repo := newProfileFixture()
	seedCustomerProfile(repo)
	ctx := ctxWithClaims(authz.RoleCustomer, customerEmail)

	p, err := svc.UpdateProfile(ctx, dto.UpdateProfileDTO{
		Fio: null.StringFrom("Ахмедов А. А."),
	})
	require.NoError(t, err)

	// Непереданные поля переносятся из предыдущей версии.
	assert.Equal(t, 2, p.Version)
	assert.Equal(t, "Ахмедов А. А.", p.Fio)
	require.NotNil(t, p.PhoneNumber)
	assert.Equal(t, "+992900000001", *p.PhoneNumber)
	assert.Equal(t, authz.RoleCustomer, p.Role)

	// Прежняя версия деактивирована, текущей стала новая.
	history, err := svc.GetHistory(ctx)
	require.NoError(t, err)
	require.Len(t, history, 2)
	for _, v := range history {
		if v.Version == 1 {
			assert.Equal(t, constants.ProfileStatusInactive, v.Status)
		} else {
			assert.Equal(t, constants.ProfileStatusActive, v.Status)
		}
	}
}

func TestUpdateProfile_RetriesAfterConflict(t *testing.T) {
	svc, repo := newProfileFixture()
	seedCustomerProfile(repo)
	ctx := ctxWithClaims(authz.RoleCustomer, customerEmail)

	// Первая вставка проигрывает конкуренту, повтор проходит.
	repo.conflictsLeft = 1

	p, err := svc.UpdateProfile(ctx, dto.UpdateProfileDTO{Address: null.StringFrom("Душанбе")})
	require.NoError(t, err)
	assert.Equal(t, 2, p.Version)
	require.NotNil(t, p.Address)
	assert.Equal(t, "Душанбе", *p.Address)
}

func TestUpdateProfile_GivesUpAfterRepeatedConflicts(t *testing.T) {
	svc, repo := newProfileFixture()
	seedCustomerProfile(repo)
	ctx := ctxWithClaims(authz.RoleCustomer, customerEmail)

	repo.conflictsLeft = profileAppendAttempts

	_, err := svc.UpdateProfile(ctx, dto.UpdateProfileDTO{Address: null.StringFrom("Душанбе")})
	assert.ErrorIs(t, err, apperrors.ErrConcurrentModification)
}

func TestGetHistory_OnlyOwnVersions(t *testing.T) {
	svc, repo := newProfileFixture()
	seedCustomerProfile(repo)
	repo.seed(entities.UserProfile{
		Email:   "other@test.local",
		Version: 1,
		Status:  constants.ProfileStatusActive,
		Fio:     "Другой Клиент",
		Role:    authz.RoleCustomer,
	})
	ctx := ctxWithClaims(authz.RoleCustomer, customerEmail)

	history, err := svc.GetHistory(ctx)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, customerEmail, history[0].Email)
}

package services

import (
	"context"
	"fmt"
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
	"rental-system/pkg/types"
)

func newEquipmentFixture() (EquipmentServiceInterface, *fakeEquipmentRepo, *fakeCacheRepo) {
	equipmentRepo := newFakeEquipmentRepo()
	cacheRepo := newFakeCacheRepo()
	svc := NewEquipmentService(equipmentRepo, cacheRepo, zap.NewNop())
	return svc, equipmentRepo, cacheRepo
}

func TestCreateEquipment_StartsUnapproved(t *testing.T) {
	svc, _, _ := newEquipmentFixture()
	ctx := ctxWithClaims(authz.RoleSupplier, "supplier@test.local")

	created, err := svc.CreateEquipment(ctx, dto.CreateEquipmentDTO{
		Name:      "Бульдозер",
		DailyRate: 250,
	})
	require.NoError(t, err)

	assert.Equal(t, "supplier@test.local", created.OwnerEmail)
	assert.Equal(t, constants.EquipmentStatusUnavailable, created.Status)
	assert.False(t, created.IsApproved)
	assert.False(t, created.IsBookable)
	// Нулевой минимум поднимается до одного дня.
	assert.Equal(t, 1, created.MinRentalDays)
}

func TestCreateEquipment_CustomerForbidden(t *testing.T) {
	svc, _, _ := newEquipmentFixture()
	ctx := ctxWithClaims(authz.RoleCustomer, customerEmail)

	_, err := svc.CreateEquipment(ctx, dto.CreateEquipmentDTO{Name: "Кран", DailyRate: 500})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestApproveEquipment_MakesBookable(t *testing.T) {
	svc, _, _ := newEquipmentFixture()
	supplierCtx := ctxWithClaims(authz.RoleSupplier, "supplier@test.local")
	adminCtx := ctxWithClaims(authz.RoleAdmin, "admin@test.local")

	created, err := svc.CreateEquipment(supplierCtx, dto.CreateEquipmentDTO{Name: "Кран", DailyRate: 500})
	require.NoError(t, err)

	// Одобрять может только админ.
	_, err = svc.ApproveEquipment(supplierCtx, created.ID)
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	approved, err := svc.ApproveEquipment(adminCtx, created.ID)
	require.NoError(t, err)
	assert.True(t, approved.IsApproved)
	assert.Equal(t, constants.EquipmentStatusAvailable, approved.Status)
	assert.True(t, approved.IsBookable)

	rejected, err := svc.RejectEquipment(adminCtx, created.ID)
	require.NoError(t, err)
	assert.False(t, rejected.IsApproved)
	assert.False(t, rejected.IsBookable)
}

func TestUpdateEquipment_OwnerOnly(t *testing.T) {
	svc, equipmentRepo, _ := newEquipmentFixture()
	id := bookableEquipment(equipmentRepo, 100)

	_, err := svc.UpdateEquipment(ctxWithClaims(authz.RoleSupplier, "another-supplier@test.local"), id,
		dto.UpdateEquipmentDTO{DailyRate: null.Float64From(120)})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	updated, err := svc.UpdateEquipment(ctxWithClaims(authz.RoleSupplier, "supplier@test.local"), id,
		dto.UpdateEquipmentDTO{DailyRate: null.Float64From(120)})
	require.NoError(t, err)
	assert.InDelta(t, 120.0, updated.DailyRate, 1e-9)

	// Админ правит чужую технику.
	updated, err = svc.UpdateEquipment(ctxWithClaims(authz.RoleAdmin, "admin@test.local"), id,
		dto.UpdateEquipmentDTO{DailyRate: null.Float64From(130)})
	require.NoError(t, err)
	assert.InDelta(t, 130.0, updated.DailyRate, 1e-9)
}

func TestFindEquipment_CachesCard(t *testing.T) {
	svc, equipmentRepo, _ := newEquipmentFixture()
	id := bookableEquipment(equipmentRepo, 100)

	first, err := svc.FindEquipment(context.Background(), id)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, first.DailyRate, 1e-9)

	// Прямое изменение в хранилище не видно, пока карточка в кеше.
	e, _ := equipmentRepo.FindByID(context.Background(), nil, id)
	e.DailyRate = 999
	equipmentRepo.put(*e)

	cached, err := svc.FindEquipment(context.Background(), id)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, cached.DailyRate, 1e-9)
}

func TestUpdateEquipment_InvalidatesCache(t *testing.T) {
	svc, equipmentRepo, _ := newEquipmentFixture()
	id := bookableEquipment(equipmentRepo, 100)
	ctx := ctxWithClaims(authz.RoleSupplier, "supplier@test.local")

	_, err := svc.FindEquipment(context.Background(), id)
	require.NoError(t, err)

	_, err = svc.UpdateEquipment(ctx, id, dto.UpdateEquipmentDTO{DailyRate: null.Float64From(150)})
	require.NoError(t, err)

	fresh, err := svc.FindEquipment(context.Background(), id)
	require.NoError(t, err)
	assert.InDelta(t, 150.0, fresh.DailyRate, 1e-9)
}

func TestFindEquipment_CorruptedCacheFallsBack(t *testing.T) {
	svc, equipmentRepo, cacheRepo := newEquipmentFixture()
	id := bookableEquipment(equipmentRepo, 100)

	require.NoError(t, cacheRepo.Set(context.Background(),
		fmt.Sprintf(constants.CacheKeyEquipment, id), "{broken json", 0))

	out, err := svc.FindEquipment(context.Background(), id)
	require.NoError(t, err)
	assert.InDelta(t, 100.0, out.DailyRate, 1e-9)
}

func TestSetEquipmentStatus_Maintenance(t *testing.T) {
	svc, equipmentRepo, _ := newEquipmentFixture()
	id := bookableEquipment(equipmentRepo, 100)
	ctx := ctxWithClaims(authz.RoleSupplier, "supplier@test.local")

	out, err := svc.SetEquipmentStatus(ctx, id, dto.UpdateEquipmentStatusDTO{Status: constants.EquipmentStatusMaintenance})
	require.NoError(t, err)
	assert.Equal(t, constants.EquipmentStatusMaintenance, out.Status)
	assert.False(t, out.IsBookable)
}

func TestGetEquipments_VisibilityByRole(t *testing.T) {
	svc, equipmentRepo, _ := newEquipmentFixture()
	bookableEquipment(equipmentRepo, 100)
	// Неодобренная единица — видна админу, скрыта от клиентов.
	equipmentRepo.put(entities.Equipment{
		OwnerEmail: "supplier@test.local",
		Name:       "Каток",
		DailyRate:  80,
		Status:     constants.EquipmentStatusUnavailable,
	})

	anon, _, err := svc.GetEquipments(context.Background(), types.Filter{Limit: 20})
	require.NoError(t, err)
	assert.Len(t, anon, 1)

	all, _, err := svc.GetEquipments(ctxWithClaims(authz.RoleAdmin, "admin@test.local"), types.Filter{Limit: 20})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

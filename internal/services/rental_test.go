package services

import (
	"context"
	"strings"
	"testing"
	"time"

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

type rentalFixture struct {
	svc           RentalServiceInterface
	equipmentRepo *fakeEquipmentRepo
	cartRepo      *fakeCartRepo
	rentalRepo    *fakeRentalRepo
	cacheRepo     *fakeCacheRepo
}

func newRentalFixture() *rentalFixture {
	equipmentRepo := newFakeEquipmentRepo()
	cartRepo := newFakeCartRepo(equipmentRepo)
	rentalRepo := newFakeRentalRepo()
	cacheRepo := newFakeCacheRepo()
	svc := NewRentalService(&fakeTxManager{}, rentalRepo, equipmentRepo, cartRepo, cacheRepo, zap.NewNop())
	return &rentalFixture{svc, equipmentRepo, cartRepo, rentalRepo, cacheRepo}
}

func (f *rentalFixture) addHold(t *testing.T, sessionID string, equipmentID uint64, start, end string) {
	t.Helper()
	startDate, err := time.Parse("2006-01-02", start)
	require.NoError(t, err)
	endDate, err := time.Parse("2006-01-02", end)
	require.NoError(t, err)
	require.NoError(t, f.cartRepo.UpsertHold(context.Background(), entities.CartHold{
		SessionID: sessionID, EquipmentID: equipmentID, StartDate: startDate, EndDate: endDate,
	}))
}

const customerEmail = "customer@test.local"

func TestCheckout_Success(t *testing.T) {
	f := newRentalFixture()
	id := bookableEquipment(f.equipmentRepo, 100)
	f.addHold(t, customerEmail, id, "2025-06-01", "2025-06-03")
	ctx := ctxWithClaims(authz.RoleCustomer, customerEmail)

	address := "ул. Рудаки, 1"
	res, err := f.svc.Checkout(ctx, customerEmail, id, dto.CheckoutDTO{DeliveryAddress: &address})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(res.RentalNumber, "RNT-"))
	assert.Equal(t, constants.RentalStatusPending, res.Rental.Status)
	assert.Equal(t, constants.PaymentStatusPending, res.Rental.PaymentStatus)
	assert.Equal(t, 3, res.Rental.TotalDays)
	assert.InDelta(t, 300.0, res.Rental.Subtotal, 1e-9)
	// Страховка — 5% от стоимости аренды.
	assert.InDelta(t, 15.0, res.Rental.InsuranceFee, 1e-9)
	assert.InDelta(t, 315.0, res.Rental.Total, 1e-9)

	// Позиция корзины потреблена.
	_, err = f.cartRepo.FindHold(context.Background(), nil, customerEmail, id)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCheckout_FreezesCurrentRate(t *testing.T) {
	f := newRentalFixture()
	id := bookableEquipment(f.equipmentRepo, 100)
	f.addHold(t, customerEmail, id, "2025-06-01", "2025-06-03")
	ctx := ctxWithClaims(authz.RoleCustomer, customerEmail)

	// Тариф вырос после добавления в корзину: фиксируется актуальный.
	equipment, _ := f.equipmentRepo.FindByID(context.Background(), nil, id)
	equipment.DailyRate = 150
	f.equipmentRepo.put(*equipment)

	res, err := f.svc.Checkout(ctx, customerEmail, id, dto.CheckoutDTO{})
	require.NoError(t, err)
	assert.InDelta(t, 150.0, res.Rental.DailyRate, 1e-9)
	assert.InDelta(t, 450.0, res.Rental.Subtotal, 1e-9)
}

func TestCheckout_UnbookableEquipmentKeepsHold(t *testing.T) {
	f := newRentalFixture()
	id := bookableEquipment(f.equipmentRepo, 100)
	f.addHold(t, customerEmail, id, "2025-06-01", "2025-06-03")
	ctx := ctxWithClaims(authz.RoleCustomer, customerEmail)

	// Техника отозвана с площадки между добавлением в корзину и оформлением.
	require.NoError(t, f.equipmentRepo.SetApproval(context.Background(), id, false, constants.EquipmentStatusUnavailable))

	_, err := f.svc.Checkout(ctx, customerEmail, id, dto.CheckoutDTO{})
	assert.ErrorIs(t, err, apperrors.ErrEquipmentUnavailable)

	// Позиция корзины не тронута: клиент может выбрать другие даты.
	_, err = f.cartRepo.FindHold(context.Background(), nil, customerEmail, id)
	assert.NoError(t, err)
}

func TestCheckout_OverlapWithConfirmedRental(t *testing.T) {
	f := newRentalFixture()
	id := bookableEquipment(f.equipmentRepo, 100)
	ctx := ctxWithClaims(authz.RoleCustomer, customerEmail)

	// Чужая подтвержденная аренда на пересекающиеся даты.
	_, err := f.rentalRepo.CreateRentalInTx(context.Background(), nil, entities.Rental{
		RentalNumber:  "RNT-20250601-OTHER111",
		CustomerEmail: "other@test.local",
		EquipmentID:   id,
		StartDate:     time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC),
		EndDate:       time.Date(2025, time.June, 5, 0, 0, 0, 0, time.UTC),
		Status:        constants.RentalStatusConfirmed,
		PaymentStatus: constants.PaymentStatusPending,
	})
	require.NoError(t, err)

	f.addHold(t, customerEmail, id, "2025-06-01", "2025-06-03")
	_, err = f.svc.Checkout(ctx, customerEmail, id, dto.CheckoutDTO{})
	assert.ErrorIs(t, err, apperrors.ErrEquipmentUnavailable)
}

func TestCheckout_PendingRentalDoesNotBlock(t *testing.T) {
	f := newRentalFixture()
	id := bookableEquipment(f.equipmentRepo, 100)
	ctx := ctxWithClaims(authz.RoleCustomer, customerEmail)

	_, err := f.rentalRepo.CreateRentalInTx(context.Background(), nil, entities.Rental{
		RentalNumber:  "RNT-20250601-OTHER222",
		CustomerEmail: "other@test.local",
		EquipmentID:   id,
		StartDate:     time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC),
		EndDate:       time.Date(2025, time.June, 5, 0, 0, 0, 0, time.UTC),
		Status:        constants.RentalStatusPending,
		PaymentStatus: constants.PaymentStatusPending,
	})
	require.NoError(t, err)

	f.addHold(t, customerEmail, id, "2025-06-01", "2025-06-03")
	_, err = f.svc.Checkout(ctx, customerEmail, id, dto.CheckoutDTO{})
	assert.NoError(t, err)
}

func TestCheckout_WithoutHold(t *testing.T) {
	f := newRentalFixture()
	id := bookableEquipment(f.equipmentRepo, 100)
	ctx := ctxWithClaims(authz.RoleCustomer, customerEmail)

	_, err := f.svc.Checkout(ctx, customerEmail, id, dto.CheckoutDTO{})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCheckout_RequiresAuth(t *testing.T) {
	f := newRentalFixture()
	id := bookableEquipment(f.equipmentRepo, 100)

	_, err := f.svc.Checkout(context.Background(), "sess-anon", id, dto.CheckoutDTO{})
	assert.ErrorIs(t, err, apperrors.ErrUnauthorized)
}

func (f *rentalFixture) checkout(t *testing.T, equipmentID uint64) uint64 {
	t.Helper()
	f.addHold(t, customerEmail, equipmentID, "2025-06-01", "2025-06-03")
	ctx := ctxWithClaims(authz.RoleCustomer, customerEmail)
	res, err := f.svc.Checkout(ctx, customerEmail, equipmentID, dto.CheckoutDTO{})
	require.NoError(t, err)
	return res.Rental.ID
}

func TestTransitionStatus_FullLifecycle(t *testing.T) {
	f := newRentalFixture()
	id := bookableEquipment(f.equipmentRepo, 100)
	rentalID := f.checkout(t, id)
	ctx := ctxWithClaims(authz.RoleSupplier, "supplier@test.local")

	res, err := f.svc.TransitionStatus(ctx, rentalID, dto.TransitionRentalStatusDTO{Status: constants.RentalStatusConfirmed})
	require.NoError(t, err)
	assert.Equal(t, constants.RentalStatusConfirmed, res.Status)
	assert.NotNil(t, res.ConfirmedAt)

	// Выдача занимает технику.
	res, err = f.svc.TransitionStatus(ctx, rentalID, dto.TransitionRentalStatusDTO{Status: constants.RentalStatusInProgress})
	require.NoError(t, err)
	assert.Equal(t, constants.RentalStatusInProgress, res.Status)
	equipment, _ := f.equipmentRepo.FindByID(context.Background(), nil, id)
	assert.Equal(t, constants.EquipmentStatusRented, equipment.Status)

	// Завершение возвращает ее в парк.
	res, err = f.svc.TransitionStatus(ctx, rentalID, dto.TransitionRentalStatusDTO{Status: constants.RentalStatusCompleted})
	require.NoError(t, err)
	assert.Equal(t, constants.RentalStatusCompleted, res.Status)
	equipment, _ = f.equipmentRepo.FindByID(context.Background(), nil, id)
	assert.Equal(t, constants.EquipmentStatusAvailable, equipment.Status)
}

func TestTransitionStatus_SkippingConfirmation(t *testing.T) {
	f := newRentalFixture()
	id := bookableEquipment(f.equipmentRepo, 100)
	rentalID := f.checkout(t, id)
	ctx := ctxWithClaims(authz.RoleSupplier, "supplier@test.local")

	_, err := f.svc.TransitionStatus(ctx, rentalID, dto.TransitionRentalStatusDTO{Status: constants.RentalStatusInProgress})
	assert.ErrorIs(t, err, apperrors.ErrIllegalTransition)
}

func TestTransitionStatus_CancelRequiresReason(t *testing.T) {
	f := newRentalFixture()
	id := bookableEquipment(f.equipmentRepo, 100)
	rentalID := f.checkout(t, id)
	ctx := ctxWithClaims(authz.RoleSupplier, "supplier@test.local")

	_, err := f.svc.TransitionStatus(ctx, rentalID, dto.TransitionRentalStatusDTO{Status: constants.RentalStatusCancelled})
	var invalidInput *apperrors.InvalidInputError
	assert.ErrorAs(t, err, &invalidInput)

	res, err := f.svc.TransitionStatus(ctx, rentalID, dto.TransitionRentalStatusDTO{
		Status:       constants.RentalStatusCancelled,
		CancelReason: "техника сломалась",
	})
	require.NoError(t, err)
	assert.Equal(t, constants.RentalStatusCancelled, res.Status)
	require.NotNil(t, res.CancelReason)
	assert.Equal(t, "техника сломалась", *res.CancelReason)
}

func TestTransitionStatus_ConcurrentLoserFails(t *testing.T) {
	f := newRentalFixture()
	id := bookableEquipment(f.equipmentRepo, 100)
	rentalID := f.checkout(t, id)
	ctx := ctxWithClaims(authz.RoleSupplier, "supplier@test.local")

	// Конкурент успел применить переход первым: CAS не находит строку
	// в ожидаемом статусе.
	f.rentalRepo.failNextCAS = true

	_, err := f.svc.TransitionStatus(ctx, rentalID, dto.TransitionRentalStatusDTO{Status: constants.RentalStatusConfirmed})
	assert.ErrorIs(t, err, apperrors.ErrConcurrentModification)
}

func TestTransitionStatus_ForeignSupplierForbidden(t *testing.T) {
	f := newRentalFixture()
	id := bookableEquipment(f.equipmentRepo, 100)
	rentalID := f.checkout(t, id)
	ctx := ctxWithClaims(authz.RoleSupplier, "another-supplier@test.local")

	_, err := f.svc.TransitionStatus(ctx, rentalID, dto.TransitionRentalStatusDTO{Status: constants.RentalStatusConfirmed})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestTransitionStatus_CustomerForbidden(t *testing.T) {
	f := newRentalFixture()
	id := bookableEquipment(f.equipmentRepo, 100)
	rentalID := f.checkout(t, id)
	ctx := ctxWithClaims(authz.RoleCustomer, customerEmail)

	_, err := f.svc.TransitionStatus(ctx, rentalID, dto.TransitionRentalStatusDTO{Status: constants.RentalStatusConfirmed})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestTransitionStatus_ConfirmBlockedByOverlap(t *testing.T) {
	f := newRentalFixture()
	id := bookableEquipment(f.equipmentRepo, 100)
	rentalID := f.checkout(t, id)
	supplierCtx := ctxWithClaims(authz.RoleSupplier, "supplier@test.local")

	// На те же даты уже подтверждена другая аренда.
	_, err := f.rentalRepo.CreateRentalInTx(context.Background(), nil, entities.Rental{
		RentalNumber:  "RNT-20250601-OTHER333",
		CustomerEmail: "other@test.local",
		EquipmentID:   id,
		StartDate:     time.Date(2025, time.June, 2, 0, 0, 0, 0, time.UTC),
		EndDate:       time.Date(2025, time.June, 4, 0, 0, 0, 0, time.UTC),
		Status:        constants.RentalStatusConfirmed,
		PaymentStatus: constants.PaymentStatusPending,
	})
	require.NoError(t, err)

	_, err = f.svc.TransitionStatus(supplierCtx, rentalID, dto.TransitionRentalStatusDTO{Status: constants.RentalStatusConfirmed})
	assert.ErrorIs(t, err, apperrors.ErrEquipmentUnavailable)
}

func TestCancelOwn(t *testing.T) {
	f := newRentalFixture()
	id := bookableEquipment(f.equipmentRepo, 100)
	rentalID := f.checkout(t, id)
	ctx := ctxWithClaims(authz.RoleCustomer, customerEmail)

	res, err := f.svc.CancelOwn(ctx, rentalID, dto.CancelRentalDTO{})
	require.NoError(t, err)
	assert.Equal(t, constants.RentalStatusCancelled, res.Status)
	assert.Nil(t, res.CancelReason)
}

func TestCancelOwn_ForeignRentalHidden(t *testing.T) {
	f := newRentalFixture()
	id := bookableEquipment(f.equipmentRepo, 100)
	rentalID := f.checkout(t, id)
	ctx := ctxWithClaims(authz.RoleCustomer, "stranger@test.local")

	// Чужая аренда неотличима от несуществующей.
	_, err := f.svc.CancelOwn(ctx, rentalID, dto.CancelRentalDTO{})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCancelOwn_AfterStartForbidden(t *testing.T) {
	f := newRentalFixture()
	id := bookableEquipment(f.equipmentRepo, 100)
	rentalID := f.checkout(t, id)
	supplierCtx := ctxWithClaims(authz.RoleSupplier, "supplier@test.local")
	customerCtx := ctxWithClaims(authz.RoleCustomer, customerEmail)

	_, err := f.svc.TransitionStatus(supplierCtx, rentalID, dto.TransitionRentalStatusDTO{Status: constants.RentalStatusConfirmed})
	require.NoError(t, err)
	_, err = f.svc.TransitionStatus(supplierCtx, rentalID, dto.TransitionRentalStatusDTO{Status: constants.RentalStatusInProgress})
	require.NoError(t, err)

	_, err = f.svc.CancelOwn(customerCtx, rentalID, dto.CancelRentalDTO{Reason: "передумал"})
	assert.ErrorIs(t, err, apperrors.ErrIllegalTransition)
}

func TestSetPaymentStatus(t *testing.T) {
	f := newRentalFixture()
	id := bookableEquipment(f.equipmentRepo, 100)
	rentalID := f.checkout(t, id)
	adminCtx := ctxWithClaims(authz.RoleAdmin, "admin@test.local")

	res, err := f.svc.SetPaymentStatus(adminCtx, rentalID, dto.SetPaymentStatusDTO{PaymentStatus: constants.PaymentStatusPaid})
	require.NoError(t, err)
	assert.Equal(t, constants.PaymentStatusPaid, res.PaymentStatus)
	// Жизненный цикл аренды не затронут.
	assert.Equal(t, constants.RentalStatusPending, res.Status)

	res, err = f.svc.SetPaymentStatus(adminCtx, rentalID, dto.SetPaymentStatusDTO{PaymentStatus: constants.PaymentStatusRefunded})
	require.NoError(t, err)
	assert.Equal(t, constants.PaymentStatusRefunded, res.PaymentStatus)
}

func TestSetPaymentStatus_IllegalAndForbidden(t *testing.T) {
	f := newRentalFixture()
	id := bookableEquipment(f.equipmentRepo, 100)
	rentalID := f.checkout(t, id)
	adminCtx := ctxWithClaims(authz.RoleAdmin, "admin@test.local")

	// PENDING -> REFUNDED запрещен.
	_, err := f.svc.SetPaymentStatus(adminCtx, rentalID, dto.SetPaymentStatusDTO{PaymentStatus: constants.PaymentStatusRefunded})
	assert.ErrorIs(t, err, apperrors.ErrIllegalTransition)

	// Не-админ не управляет оплатой.
	supplierCtx := ctxWithClaims(authz.RoleSupplier, "supplier@test.local")
	_, err = f.svc.SetPaymentStatus(supplierCtx, rentalID, dto.SetPaymentStatusDTO{PaymentStatus: constants.PaymentStatusPaid})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)
}

func TestQuotePrice(t *testing.T) {
	f := newRentalFixture()
	id := bookableEquipment(f.equipmentRepo, 100)

	res, err := f.svc.QuotePrice(context.Background(), id, "2025-06-01", "2025-06-07")
	require.NoError(t, err)
	assert.Equal(t, "weekly", res.Quote.Tier)
	assert.InDelta(t, 600.0, res.Quote.Subtotal, 1e-9)
	assert.InDelta(t, 630.0, res.Charges.Total, 1e-9)
}

func TestGetRentals_CustomerSeesOnlyOwn(t *testing.T) {
	f := newRentalFixture()
	id := bookableEquipment(f.equipmentRepo, 100)
	f.checkout(t, id)

	_, err := f.rentalRepo.CreateRentalInTx(context.Background(), nil, entities.Rental{
		RentalNumber:  "RNT-20250601-OTHER444",
		CustomerEmail: "other@test.local",
		EquipmentID:   id,
		StartDate:     time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC),
		EndDate:       time.Date(2025, time.July, 3, 0, 0, 0, 0, time.UTC),
		Status:        constants.RentalStatusPending,
		PaymentStatus: constants.PaymentStatusPending,
	})
	require.NoError(t, err)

	ctx := ctxWithClaims(authz.RoleCustomer, customerEmail)
	list, total, err := f.svc.GetRentals(ctx, types.Filter{Limit: 20})
	require.NoError(t, err)
	assert.Equal(t, uint64(1), total)
	require.Len(t, list, 1)
	assert.Equal(t, customerEmail, list[0].CustomerEmail)
}

func TestFindRentalByNumber(t *testing.T) {
	f := newRentalFixture()
	id := bookableEquipment(f.equipmentRepo, 100)
	f.addHold(t, customerEmail, id, "2025-06-01", "2025-06-03")
	res, err := f.svc.Checkout(ctxWithClaims(authz.RoleCustomer, customerEmail), customerEmail, id, dto.CheckoutDTO{})
	require.NoError(t, err)

	found, err := f.svc.FindRentalByNumber(ctxWithClaims(authz.RoleCustomer, customerEmail), res.RentalNumber)
	require.NoError(t, err)
	assert.Equal(t, res.Rental.ID, found.ID)

	_, err = f.svc.FindRentalByNumber(ctxWithClaims(authz.RoleCustomer, "stranger@test.local"), res.RentalNumber)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestFindRental_HiddenFromStranger(t *testing.T) {
	f := newRentalFixture()
	id := bookableEquipment(f.equipmentRepo, 100)
	rentalID := f.checkout(t, id)

	_, err := f.svc.FindRental(ctxWithClaims(authz.RoleCustomer, "stranger@test.local"), rentalID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	// Владелец техники и сам клиент аренду видят.
	_, err = f.svc.FindRental(ctxWithClaims(authz.RoleSupplier, "supplier@test.local"), rentalID)
	assert.NoError(t, err)
	_, err = f.svc.FindRental(ctxWithClaims(authz.RoleCustomer, customerEmail), rentalID)
	assert.NoError(t, err)
}

package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"rental-system/internal/authz"
	"rental-system/internal/repositories"
	"rental-system/pkg/constants"
	apperrors "rental-system/pkg/errors"
)

type fakeReportRepo struct {
	items []repositories.ReportItem
}

func (r *fakeReportRepo) GetRentalsReport(ctx context.Context, filter repositories.ReportFilter) ([]repositories.ReportItem, error) {
	return r.items, nil
}

func reportItem(number string) repositories.ReportItem {
	return repositories.ReportItem{
		RentalNumber:  number,
		CustomerEmail: customerEmail,
		EquipmentName: "Экскаватор",
		OwnerEmail:    "supplier@test.local",
		StartDate:     time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC),
		EndDate:       time.Date(2025, time.June, 3, 0, 0, 0, 0, time.UTC),
		TotalDays:     3,
		Subtotal:      300,
		InsuranceFee:  15,
		Total:         315,
		Status:        constants.RentalStatusCompleted,
		PaymentStatus: constants.PaymentStatusPaid,
		CreatedAt:     time.Date(2025, time.May, 20, 10, 0, 0, 0, time.UTC),
	}
}

func TestGetRentalsReport_AdminOnly(t *testing.T) {
	svc := NewReportService(&fakeReportRepo{items: []repositories.ReportItem{reportItem("RNT-1")}}, zap.NewNop())

	_, err := svc.GetRentalsReport(ctxWithClaims(authz.RoleSupplier, "supplier@test.local"), repositories.ReportFilter{})
	assert.ErrorIs(t, err, apperrors.ErrForbidden)

	items, err := svc.GetRentalsReport(ctxWithClaims(authz.RoleAdmin, "admin@test.local"), repositories.ReportFilter{})
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestGetRentalsReportXLSX(t *testing.T) {
	svc := NewReportService(&fakeReportRepo{items: []repositories.ReportItem{reportItem("RNT-1"), reportItem("RNT-2")}}, zap.NewNop())

	f, err := svc.GetRentalsReportXLSX(ctxWithClaims(authz.RoleAdmin, "admin@test.local"), repositories.ReportFilter{})
	require.NoError(t, err)
	defer f.Close()

	number, err := f.GetCellValue("Аренды", "B2")
	require.NoError(t, err)
	assert.Equal(t, "RNT-1", number)

	rows, err := f.GetRows("Аренды")
	require.NoError(t, err)
	// Заголовок и две строки данных.
	assert.Len(t, rows, 3)
}

func TestParseReportFilter(t *testing.T) {
	filter, err := ParseReportFilter("2025-06-01", "2025-06-30", constants.RentalStatusCompleted, "")
	require.NoError(t, err)
	require.NotNil(t, filter.From)
	require.NotNil(t, filter.To)
	assert.Equal(t, time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC), *filter.From)
	// Верхняя граница захватывает весь последний день.
	assert.Equal(t, time.Date(2025, time.June, 30, 23, 59, 59, 999999999, time.UTC), *filter.To)
	assert.Equal(t, constants.RentalStatusCompleted, filter.Status)

	_, err = ParseReportFilter("06/01/2025", "", "", "")
	var invalidInput *apperrors.InvalidInputError
	assert.ErrorAs(t, err, &invalidInput)

	filter, err = ParseReportFilter("", "", "", "")
	require.NoError(t, err)
	assert.Nil(t, filter.From)
	assert.Nil(t, filter.To)
}

package services

import (
	"context"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"rental-system/internal/authz"
	"rental-system/internal/repositories"
	apperrors "rental-system/pkg/errors"
	"rental-system/pkg/utils"
)

type ReportServiceInterface interface {
	GetRentalsReport(ctx context.Context, filter repositories.ReportFilter) ([]repositories.ReportItem, error)
	GetRentalsReportXLSX(ctx context.Context, filter repositories.ReportFilter) (*excelize.File, error)
}

type ReportService struct {
	reportRepo repositories.ReportRepositoryInterface
	logger     *zap.Logger
}

func NewReportService(reportRepo repositories.ReportRepositoryInterface, logger *zap.Logger) ReportServiceInterface {
	return &ReportService{reportRepo: reportRepo, logger: logger}
}

func (s *ReportService) GetRentalsReport(ctx context.Context, filter repositories.ReportFilter) ([]repositories.ReportItem, error) {
	claims, err := utils.GetClaimsFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := authz.RequireRole(claims, authz.RoleAdmin); err != nil {
		return nil, err
	}
	return s.reportRepo.GetRentalsReport(ctx, filter)
}

var reportHeaders = []string{
	"№", "Номер аренды", "Клиент", "Техника", "Поставщик",
	"Начало", "Конец", "Дней", "Сумма", "Страховка", "Итого",
	"Статус", "Оплата", "Причина отмены", "Создана",
}

// GetRentalsReportXLSX собирает отчет в книгу Excel через StreamWriter —
// объем выгрузки заранее неизвестен.
func (s *ReportService) GetRentalsReportXLSX(ctx context.Context, filter repositories.ReportFilter) (*excelize.File, error) {
	items, err := s.GetRentalsReport(ctx, filter)
	if err != nil {
		return nil, err
	}

	const sheet = "Аренды"
	f := excelize.NewFile()
	f.SetSheetName("Sheet1", sheet)

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return nil, fmt.Errorf("ошибка создания StreamWriter: %w", err)
	}

	headerRow := make([]interface{}, len(reportHeaders))
	for i, h := range reportHeaders {
		headerRow[i] = h
	}
	if err := sw.SetRow("A1", headerRow); err != nil {
		return nil, fmt.Errorf("ошибка записи заголовка отчета: %w", err)
	}

	for i, item := range items {
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		row := []interface{}{
			i + 1,
			item.RentalNumber,
			item.CustomerEmail,
			item.EquipmentName,
			item.OwnerEmail,
			item.StartDate.Format("2006-01-02"),
			item.EndDate.Format("2006-01-02"),
			item.TotalDays,
			item.Subtotal,
			item.InsuranceFee,
			item.Total,
			item.Status,
			item.PaymentStatus,
			item.CancelReason,
			item.CreatedAt.Local().Format("2006-01-02 15:04:05"),
		}
		if err := sw.SetRow(cell, row); err != nil {
			return nil, fmt.Errorf("ошибка записи строки отчета: %w", err)
		}
	}

	if err := sw.Flush(); err != nil {
		return nil, fmt.Errorf("ошибка завершения потоковой записи: %w", err)
	}

	s.logger.Info("сформирован отчет по арендам",
		zap.Int("rows", len(items)),
		zap.Time("generated_at", time.Now()),
	)
	return f, nil
}

// ParseReportFilter разбирает параметры периода и срезов из запроса.
func ParseReportFilter(fromRaw, toRaw, status, paymentStatus string) (repositories.ReportFilter, error) {
	var filter repositories.ReportFilter

	if fromRaw != "" {
		from, err := time.Parse("2006-01-02", fromRaw)
		if err != nil {
			return filter, apperrors.NewInvalidInputError("некорректная дата from: %s", fromRaw)
		}
		filter.From = &from
	}
	if toRaw != "" {
		to, err := time.Parse("2006-01-02", toRaw)
		if err != nil {
			return filter, apperrors.NewInvalidInputError("некорректная дата to: %s", toRaw)
		}
		// Включаем весь день "to".
		end := to.Add(24*time.Hour - time.Nanosecond)
		filter.To = &end
	}
	filter.Status = status
	filter.PaymentStatus = paymentStatus
	return filter, nil
}

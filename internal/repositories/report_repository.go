package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"rental-system/pkg/utils"
)

// ReportItem — строка сводного отчета по арендам для выгрузки.
type ReportItem struct {
	RentalNumber  string
	CustomerEmail string
	EquipmentName string
	OwnerEmail    string
	StartDate     time.Time
	EndDate       time.Time
	TotalDays     int
	Subtotal      float64
	InsuranceFee  float64
	Total         float64
	Status        string
	PaymentStatus string
	CancelReason  string
	CreatedAt     time.Time
}

// ReportFilter — период и срезы отчета.
type ReportFilter struct {
	From          *time.Time
	To            *time.Time
	Status        string
	PaymentStatus string
}

type ReportRepositoryInterface interface {
	GetRentalsReport(ctx context.Context, filter ReportFilter) ([]ReportItem, error)
}

type reportRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewReportRepository(storage *pgxpool.Pool, logger *zap.Logger) ReportRepositoryInterface {
	return &reportRepository{storage: storage, logger: logger}
}

func (r *reportRepository) GetRentalsReport(ctx context.Context, filter ReportFilter) ([]ReportItem, error) {
	query := `
		SELECT r.rental_number, r.customer_email, e.name, e.owner_email,
		       r.start_date, r.end_date, r.total_days,
		       r.subtotal, r.insurance_fee, r.total,
		       r.status, r.payment_status, r.cancel_reason, r.created_at
		FROM rentals r
			JOIN equipments e ON e.id = r.equipment_id
		WHERE ($1::timestamptz IS NULL OR r.created_at >= $1)
		  AND ($2::timestamptz IS NULL OR r.created_at <= $2)
		  AND ($3::text = '' OR r.status = $3)
		  AND ($4::text = '' OR r.payment_status = $4)
		ORDER BY r.created_at DESC
	`

	rows, err := r.storage.Query(ctx, query, filter.From, filter.To, filter.Status, filter.PaymentStatus)
	if err != nil {
		return nil, fmt.Errorf("ошибка запроса отчета по арендам: %w", err)
	}
	defer rows.Close()

	items := make([]ReportItem, 0)
	for rows.Next() {
		var item ReportItem
		var cancelReason sql.NullString
		err := rows.Scan(
			&item.RentalNumber, &item.CustomerEmail, &item.EquipmentName, &item.OwnerEmail,
			&item.StartDate, &item.EndDate, &item.TotalDays,
			&item.Subtotal, &item.InsuranceFee, &item.Total,
			&item.Status, &item.PaymentStatus, &cancelReason, &item.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования отчета: %w", err)
		}
		item.CancelReason = utils.NullStringToString(cancelReason)
		items = append(items, item)
	}
	return items, rows.Err()
}

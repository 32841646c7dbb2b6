package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"rental-system/internal/entities"
	apperrors "rental-system/pkg/errors"
	"rental-system/pkg/types"
)

const (
	rentalTable  = "rentals"
	rentalFields = "id, rental_number, customer_email, equipment_id, start_date, end_date, total_days, daily_rate, subtotal, delivery_fee, insurance_fee, discount, total, deposit_amount, deposit_paid, delivery_address, delivery_phone, status, payment_status, confirmed_at, started_at, completed_at, cancelled_at, cancel_reason, created_at, updated_at"
)

var allowedRentalFilters = map[string]string{
	"id":             "id",
	"status":         "status",
	"payment_status": "payment_status",
	"equipment_id":   "equipment_id",
	"customer_email": "customer_email",
}

var allowedRentalSortFields = map[string]bool{
	"id":         true,
	"start_date": true,
	"end_date":   true,
	"total":      true,
	"created_at": true,
	"updated_at": true,
}

// Колонки отметок времени, проставляемых переходами жизненного цикла.
var transitionTimestampColumns = map[string]string{
	"CONFIRMED":   "confirmed_at",
	"IN_PROGRESS": "started_at",
	"COMPLETED":   "completed_at",
	"CANCELLED":   "cancelled_at",
}

type RentalRepositoryInterface interface {
	CreateRentalInTx(ctx context.Context, tx pgx.Tx, rental entities.Rental) (uint64, error)
	FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Rental, error)
	FindByNumber(ctx context.Context, number string) (*entities.Rental, error)
	GetRentals(ctx context.Context, filter types.Filter, scope RentalScope) ([]*entities.Rental, uint64, error)
	// UpdateStatusCAS применяет переход статуса сравнением-с-обменом:
	// UPDATE ... WHERE id = $1 AND status = $from. Возвращает false, если
	// строка уже не в ожидаемом статусе — из двух конкурентных переходов
	// применится ровно один.
	UpdateStatusCAS(ctx context.Context, tx pgx.Tx, id uint64, fromStatus, toStatus string, cancelReason *string) (bool, error)
	UpdatePaymentStatusCAS(ctx context.Context, id uint64, fromStatus, toStatus string) (bool, error)
	// HasOverlapping сообщает, есть ли у оборудования аренда в одном из
	// блокирующих статусов, пересекающая диапазон дат.
	HasOverlapping(ctx context.Context, tx pgx.Tx, equipmentID uint64, startDate, endDate time.Time, blockingStatuses []string) (bool, error)
}

// RentalScope ограничивает выборку арендами, видимыми вызывающему:
// клиент видит свои, поставщик — аренды своей техники, админ — все.
type RentalScope struct {
	CustomerEmail string
	OwnerEmail    string
}

type rentalRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewRentalRepository(storage *pgxpool.Pool, logger *zap.Logger) RentalRepositoryInterface {
	return &rentalRepository{storage: storage, logger: logger}
}

func (r *rentalRepository) getQuerier(tx pgx.Tx) Querier {
	if tx != nil {
		return tx
	}
	return r.storage
}

func scanRentalRow(row pgx.Row) (*entities.Rental, error) {
	var rent entities.Rental
	var deliveryAddress, deliveryPhone, cancelReason sql.NullString
	var confirmedAt, startedAt, completedAt, cancelledAt sql.NullTime

	err := row.Scan(
		&rent.ID, &rent.RentalNumber, &rent.CustomerEmail, &rent.EquipmentID,
		&rent.StartDate, &rent.EndDate, &rent.TotalDays,
		&rent.DailyRate, &rent.Subtotal, &rent.DeliveryFee, &rent.InsuranceFee, &rent.Discount, &rent.Total,
		&rent.DepositAmount, &rent.DepositPaid,
		&deliveryAddress, &deliveryPhone,
		&rent.Status, &rent.PaymentStatus,
		&confirmedAt, &startedAt, &completedAt, &cancelledAt, &cancelReason,
		&rent.CreatedAt, &rent.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования rentals: %w", err)
	}

	if deliveryAddress.Valid {
		rent.DeliveryAddress = &deliveryAddress.String
	}
	if deliveryPhone.Valid {
		rent.DeliveryPhone = &deliveryPhone.String
	}
	if cancelReason.Valid {
		rent.CancelReason = &cancelReason.String
	}
	if confirmedAt.Valid {
		rent.ConfirmedAt = &confirmedAt.Time
	}
	if startedAt.Valid {
		rent.StartedAt = &startedAt.Time
	}
	if completedAt.Valid {
		rent.CompletedAt = &completedAt.Time
	}
	if cancelledAt.Valid {
		rent.CancelledAt = &cancelledAt.Time
	}

	return &rent, nil
}

func (r *rentalRepository) CreateRentalInTx(ctx context.Context, tx pgx.Tx, rental entities.Rental) (uint64, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	query, args, err := psql.Insert(rentalTable).
		Columns("rental_number", "customer_email", "equipment_id", "start_date", "end_date", "total_days",
			"daily_rate", "subtotal", "delivery_fee", "insurance_fee", "discount", "total",
			"deposit_amount", "deposit_paid", "delivery_address", "delivery_phone",
			"status", "payment_status", "created_at", "updated_at").
		Values(rental.RentalNumber, rental.CustomerEmail, rental.EquipmentID, rental.StartDate, rental.EndDate, rental.TotalDays,
			rental.DailyRate, rental.Subtotal, rental.DeliveryFee, rental.InsuranceFee, rental.Discount, rental.Total,
			rental.DepositAmount, rental.DepositPaid, rental.DeliveryAddress, rental.DeliveryPhone,
			rental.Status, rental.PaymentStatus, sq.Expr("NOW()"), sq.Expr("NOW()")).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("ошибка сборки запроса CreateRentalInTx: %w", err)
	}

	var newID uint64
	if err := tx.QueryRow(ctx, query, args...).Scan(&newID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, fmt.Errorf("номер аренды уже занят: %w", apperrors.ErrConflict)
		}
		return 0, fmt.Errorf("ошибка создания rentals: %w", err)
	}
	return newID, nil
}

func (r *rentalRepository) findOne(ctx context.Context, querier Querier, where sq.Eq) (*entities.Rental, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	query, args, err := psql.Select(rentalFields).From(rentalTable).Where(where).ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки SQL для поиска аренды: %w", err)
	}
	return scanRentalRow(querier.QueryRow(ctx, query, args...))
}

func (r *rentalRepository) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Rental, error) {
	return r.findOne(ctx, r.getQuerier(tx), sq.Eq{"id": id})
}

func (r *rentalRepository) FindByNumber(ctx context.Context, number string) (*entities.Rental, error) {
	return r.findOne(ctx, r.storage, sq.Eq{"rental_number": number})
}

func (r *rentalRepository) UpdateStatusCAS(ctx context.Context, tx pgx.Tx, id uint64, fromStatus, toStatus string, cancelReason *string) (bool, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	builder := psql.Update(rentalTable).
		Set("status", toStatus).
		Set("updated_at", sq.Expr("NOW()"))

	if column, ok := transitionTimestampColumns[toStatus]; ok {
		builder = builder.Set(column, sq.Expr("NOW()"))
	}
	if cancelReason != nil {
		builder = builder.Set("cancel_reason", *cancelReason)
	}

	query, args, err := builder.
		Where(sq.Eq{"id": id, "status": fromStatus}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("ошибка сборки запроса UpdateStatusCAS: %w", err)
	}

	result, err := r.getQuerier(tx).Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("ошибка перехода статуса rentals: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

func (r *rentalRepository) UpdatePaymentStatusCAS(ctx context.Context, id uint64, fromStatus, toStatus string) (bool, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	query, args, err := psql.Update(rentalTable).
		Set("payment_status", toStatus).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id, "payment_status": fromStatus}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("ошибка сборки запроса UpdatePaymentStatusCAS: %w", err)
	}

	result, err := r.storage.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("ошибка перехода статуса оплаты rentals: %w", err)
	}
	return result.RowsAffected() == 1, nil
}

func (r *rentalRepository) HasOverlapping(ctx context.Context, tx pgx.Tx, equipmentID uint64, startDate, endDate time.Time, blockingStatuses []string) (bool, error) {
	// Диапазоны дат включительные: [start, end] пересекается с [s, e],
	// когда start <= e и end >= s.
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	query, args, err := psql.Select("COUNT(id)").
		From(rentalTable).
		Where(sq.Eq{"equipment_id": equipmentID, "status": blockingStatuses}).
		Where(sq.LtOrEq{"start_date": endDate}).
		Where(sq.GtOrEq{"end_date": startDate}).
		ToSql()
	if err != nil {
		return false, fmt.Errorf("ошибка сборки запроса HasOverlapping: %w", err)
	}

	var count int
	if err := r.getQuerier(tx).QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return false, fmt.Errorf("ошибка проверки пересечения аренд: %w", err)
	}
	return count > 0, nil
}

func (r *rentalRepository) GetRentals(ctx context.Context, filter types.Filter, scope RentalScope) ([]*entities.Rental, uint64, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	countBuilder := psql.Select("COUNT(r.id)").From(rentalTable + " r")
	listBuilder := psql.Select("r." + strings.ReplaceAll(rentalFields, ", ", ", r.")).From(rentalTable + " r")

	applyWhere := func(b sq.SelectBuilder) sq.SelectBuilder {
		if scope.CustomerEmail != "" {
			b = b.Where(sq.Eq{"r.customer_email": scope.CustomerEmail})
		}
		if scope.OwnerEmail != "" {
			b = b.Where(sq.Expr("r.equipment_id IN (SELECT id FROM equipments WHERE owner_email = ?)", scope.OwnerEmail))
		}
		if filter.Search != "" {
			b = b.Where(sq.ILike{"r.rental_number": "%" + filter.Search + "%"})
		}
		for field, value := range filter.Filter {
			column, ok := allowedRentalFilters[field]
			if !ok {
				continue
			}
			raw := fmt.Sprintf("%v", value)
			if strings.Contains(raw, ",") {
				b = b.Where(sq.Eq{"r." + column: strings.Split(raw, ",")})
			} else {
				b = b.Where(sq.Eq{"r." + column: raw})
			}
		}
		return b
	}

	countBuilder = applyWhere(countBuilder)
	listBuilder = applyWhere(listBuilder)

	countQuery, countArgs, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка сборки COUNT-запроса rentals: %w", err)
	}
	var total uint64
	if err := r.storage.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчета rentals: %w", err)
	}
	if total == 0 {
		return []*entities.Rental{}, 0, nil
	}

	orderBy := "r.created_at DESC"
	for field, direction := range filter.Sort {
		if allowedRentalSortFields[field] {
			orderBy = fmt.Sprintf("r.%s %s", field, strings.ToUpper(direction))
			break
		}
	}

	query, args, err := listBuilder.
		OrderBy(orderBy).
		Limit(uint64(filter.Limit)).
		Offset(uint64(filter.Offset)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка сборки запроса списка rentals: %w", err)
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	list := make([]*entities.Rental, 0)
	for rows.Next() {
		rent, err := scanRentalRow(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, rent)
	}
	return list, total, rows.Err()
}

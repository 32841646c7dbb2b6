package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"rental-system/internal/entities"
	apperrors "rental-system/pkg/errors"
)

const (
	cartHoldTable  = "cart_holds"
	cartHoldFields = "id, session_id, equipment_id, start_date, end_date, created_at, updated_at"
)

type CartRepositoryInterface interface {
	// UpsertHold — атомарная вставка-или-замена по ключу (session_id, equipment_id).
	// Сериализация конкурентных вызовов делается уникальным ключом в БД,
	// а не блокировкой в приложении: корректно при нескольких инстансах сервиса.
	UpsertHold(ctx context.Context, hold entities.CartHold) error
	FindHold(ctx context.Context, tx pgx.Tx, sessionID string, equipmentID uint64) (*entities.CartHold, error)
	ListHolds(ctx context.Context, sessionID string) ([]*entities.CartHold, error)
	DeleteHold(ctx context.Context, tx pgx.Tx, sessionID string, equipmentID uint64) error
	Clear(ctx context.Context, sessionID string) error
}

type cartRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewCartRepository(storage *pgxpool.Pool, logger *zap.Logger) CartRepositoryInterface {
	return &cartRepository{storage: storage, logger: logger}
}

func (r *cartRepository) getQuerier(tx pgx.Tx) Querier {
	if tx != nil {
		return tx
	}
	return r.storage
}

func (r *cartRepository) UpsertHold(ctx context.Context, hold entities.CartHold) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (session_id, equipment_id, start_date, end_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
		ON CONFLICT (session_id, equipment_id)
		DO UPDATE SET start_date = EXCLUDED.start_date, end_date = EXCLUDED.end_date, updated_at = NOW()
	`, cartHoldTable)

	if _, err := r.storage.Exec(ctx, query, hold.SessionID, hold.EquipmentID, hold.StartDate, hold.EndDate); err != nil {
		return fmt.Errorf("ошибка upsert cart_holds: %w", err)
	}
	return nil
}

func (r *cartRepository) FindHold(ctx context.Context, tx pgx.Tx, sessionID string, equipmentID uint64) (*entities.CartHold, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	query, args, err := psql.Select(cartHoldFields).
		From(cartHoldTable).
		Where(sq.Eq{"session_id": sessionID, "equipment_id": equipmentID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки SQL для FindHold: %w", err)
	}

	var h entities.CartHold
	err = r.getQuerier(tx).QueryRow(ctx, query, args...).Scan(
		&h.ID, &h.SessionID, &h.EquipmentID, &h.StartDate, &h.EndDate, &h.CreatedAt, &h.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования cart_holds: %w", err)
	}
	return &h, nil
}

// ListHolds возвращает позиции корзины вместе с текущими тарифами
// оборудования: оценка стоимости в корзине всегда живая.
func (r *cartRepository) ListHolds(ctx context.Context, sessionID string) ([]*entities.CartHold, error) {
	query := fmt.Sprintf(`
		SELECT ch.id, ch.session_id, ch.equipment_id, ch.start_date, ch.end_date, ch.created_at, ch.updated_at,
		       e.id, e.name, e.daily_rate, e.weekly_rate, e.monthly_rate, e.min_rental_days, e.deposit_amount, e.status, e.is_approved
		FROM %s ch
			JOIN equipments e ON e.id = ch.equipment_id
		WHERE ch.session_id = $1
		ORDER BY ch.created_at
	`, cartHoldTable)

	rows, err := r.storage.Query(ctx, query, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	holds := make([]*entities.CartHold, 0)
	for rows.Next() {
		var h entities.CartHold
		var e entities.Equipment
		var weeklyRate, monthlyRate sql.NullFloat64

		err := rows.Scan(
			&h.ID, &h.SessionID, &h.EquipmentID, &h.StartDate, &h.EndDate, &h.CreatedAt, &h.UpdatedAt,
			&e.ID, &e.Name, &e.DailyRate, &weeklyRate, &monthlyRate, &e.MinRentalDays, &e.DepositAmount, &e.Status, &e.IsApproved,
		)
		if err != nil {
			return nil, fmt.Errorf("ошибка сканирования корзины: %w", err)
		}

		if weeklyRate.Valid {
			e.WeeklyRate = &weeklyRate.Float64
		}
		if monthlyRate.Valid {
			e.MonthlyRate = &monthlyRate.Float64
		}
		h.Equipment = &e
		holds = append(holds, &h)
	}
	return holds, rows.Err()
}

func (r *cartRepository) DeleteHold(ctx context.Context, tx pgx.Tx, sessionID string, equipmentID uint64) error {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	query, args, err := psql.Delete(cartHoldTable).
		Where(sq.Eq{"session_id": sessionID, "equipment_id": equipmentID}).
		ToSql()
	if err != nil {
		return fmt.Errorf("ошибка сборки запроса DeleteHold: %w", err)
	}

	result, err := r.getQuerier(tx).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("ошибка удаления из cart_holds: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *cartRepository) Clear(ctx context.Context, sessionID string) error {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	query, args, err := psql.Delete(cartHoldTable).Where(sq.Eq{"session_id": sessionID}).ToSql()
	if err != nil {
		return fmt.Errorf("ошибка сборки запроса Clear: %w", err)
	}

	if _, err := r.storage.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("ошибка очистки корзины: %w", err)
	}
	return nil
}

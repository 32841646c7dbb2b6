package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	sq "github.com/Masterminds/squirrel"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"rental-system/internal/dto"
	"rental-system/internal/entities"
	"rental-system/pkg/constants"
	apperrors "rental-system/pkg/errors"
	"rental-system/pkg/types"
)

const (
	equipmentTable  = "equipments"
	equipmentFields = "id, owner_email, name, description, category_id, brand_id, daily_rate, weekly_rate, monthly_rate, min_rental_days, deposit_amount, status, is_approved, created_at, updated_at"
)

// allowedEquipmentFilters - БЕЛЫЙ СПИСОК для фильтрации (защита от SQL Injection)
var allowedEquipmentFilters = map[string]string{
	"id":          "id",
	"status":      "status",
	"is_approved": "is_approved",
	"category_id": "category_id",
	"brand_id":    "brand_id",
	"owner_email": "owner_email",
}

// allowedEquipmentSortFields - БЕЛЫЙ СПИСОК для сортировки
var allowedEquipmentSortFields = map[string]bool{
	"id":         true,
	"name":       true,
	"daily_rate": true,
	"created_at": true,
	"updated_at": true,
}

type EquipmentRepositoryInterface interface {
	GetEquipments(ctx context.Context, filter types.Filter, onlyBookable bool) ([]*entities.Equipment, uint64, error)
	FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Equipment, error)
	// FindByIDForUpdate блокирует строку на время транзакции (SELECT ... FOR UPDATE).
	FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Equipment, error)
	Create(ctx context.Context, e entities.Equipment) (uint64, error)
	Update(ctx context.Context, id uint64, d dto.UpdateEquipmentDTO) error
	SetApproval(ctx context.Context, id uint64, approved bool, status string) error
	SetStatus(ctx context.Context, tx pgx.Tx, id uint64, status string) error
}

type equipmentRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewEquipmentRepository(storage *pgxpool.Pool, logger *zap.Logger) EquipmentRepositoryInterface {
	return &equipmentRepository{storage: storage, logger: logger}
}

func (r *equipmentRepository) getQuerier(tx pgx.Tx) Querier {
	if tx != nil {
		return tx
	}
	return r.storage
}

func scanEquipmentRow(row pgx.Row) (*entities.Equipment, error) {
	var e entities.Equipment
	var description sql.NullString
	var categoryID, brandID sql.NullInt64
	var weeklyRate, monthlyRate sql.NullFloat64

	err := row.Scan(
		&e.ID, &e.OwnerEmail, &e.Name, &description, &categoryID, &brandID,
		&e.DailyRate, &weeklyRate, &monthlyRate, &e.MinRentalDays, &e.DepositAmount,
		&e.Status, &e.IsApproved, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования equipments: %w", err)
	}

	e.Description = description.String
	if categoryID.Valid {
		v := uint64(categoryID.Int64)
		e.CategoryID = &v
	}
	if brandID.Valid {
		v := uint64(brandID.Int64)
		e.BrandID = &v
	}
	if weeklyRate.Valid {
		e.WeeklyRate = &weeklyRate.Float64
	}
	if monthlyRate.Valid {
		e.MonthlyRate = &monthlyRate.Float64
	}

	return &e, nil
}

func (r *equipmentRepository) findOne(ctx context.Context, querier Querier, id uint64, forUpdate bool) (*entities.Equipment, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	builder := psql.Select(equipmentFields).From(equipmentTable).Where(sq.Eq{"id": id})
	if forUpdate {
		builder = builder.Suffix("FOR UPDATE")
	}
	query, args, err := builder.ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки SQL для поиска оборудования: %w", err)
	}
	return scanEquipmentRow(querier.QueryRow(ctx, query, args...))
}

func (r *equipmentRepository) FindByID(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Equipment, error) {
	return r.findOne(ctx, r.getQuerier(tx), id, false)
}

func (r *equipmentRepository) FindByIDForUpdate(ctx context.Context, tx pgx.Tx, id uint64) (*entities.Equipment, error) {
	return r.findOne(ctx, tx, id, true)
}

func (r *equipmentRepository) Create(ctx context.Context, e entities.Equipment) (uint64, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	query, args, err := psql.Insert(equipmentTable).
		Columns("owner_email", "name", "description", "category_id", "brand_id",
			"daily_rate", "weekly_rate", "monthly_rate", "min_rental_days", "deposit_amount",
			"status", "is_approved", "created_at", "updated_at").
		Values(e.OwnerEmail, e.Name, e.Description, e.CategoryID, e.BrandID,
			e.DailyRate, e.WeeklyRate, e.MonthlyRate, e.MinRentalDays, e.DepositAmount,
			e.Status, e.IsApproved, sq.Expr("NOW()"), sq.Expr("NOW()")).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("ошибка сборки запроса Create: %w", err)
	}

	var newID uint64
	if err := r.storage.QueryRow(ctx, query, args...).Scan(&newID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23503" {
			return 0, apperrors.NewInvalidInputError("Указанная категория или бренд не существуют")
		}
		return 0, fmt.Errorf("ошибка создания equipments: %w", err)
	}
	return newID, nil
}

func (r *equipmentRepository) Update(ctx context.Context, id uint64, d dto.UpdateEquipmentDTO) error {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	builder := psql.Update(equipmentTable).Set("updated_at", sq.Expr("NOW()"))

	if d.Name.Valid {
		builder = builder.Set("name", d.Name.String)
	}
	if d.Description.Valid {
		builder = builder.Set("description", d.Description.String)
	}
	if d.CategoryID.Valid {
		builder = builder.Set("category_id", d.CategoryID.Uint64)
	}
	if d.BrandID.Valid {
		builder = builder.Set("brand_id", d.BrandID.Uint64)
	}
	if d.DailyRate.Valid {
		builder = builder.Set("daily_rate", d.DailyRate.Float64)
	}
	if d.WeeklyRate.Valid {
		builder = builder.Set("weekly_rate", d.WeeklyRate.Float64)
	}
	if d.MonthlyRate.Valid {
		builder = builder.Set("monthly_rate", d.MonthlyRate.Float64)
	}
	if d.MinRentalDays.Valid {
		builder = builder.Set("min_rental_days", d.MinRentalDays.Int)
	}
	if d.DepositAmount.Valid {
		builder = builder.Set("deposit_amount", d.DepositAmount.Float64)
	}

	query, args, err := builder.Where(sq.Eq{"id": id}).ToSql()
	if err != nil {
		return fmt.Errorf("ошибка сборки запроса Update: %w", err)
	}

	result, err := r.storage.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("ошибка обновления equipments: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *equipmentRepository) SetApproval(ctx context.Context, id uint64, approved bool, status string) error {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	query, args, err := psql.Update(equipmentTable).
		Set("is_approved", approved).
		Set("status", status).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("ошибка сборки запроса SetApproval: %w", err)
	}

	result, err := r.storage.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("ошибка смены одобрения equipments: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *equipmentRepository) SetStatus(ctx context.Context, tx pgx.Tx, id uint64, status string) error {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	query, args, err := psql.Update(equipmentTable).
		Set("status", status).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"id": id}).
		ToSql()
	if err != nil {
		return fmt.Errorf("ошибка сборки запроса SetStatus: %w", err)
	}

	result, err := r.getQuerier(tx).Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("ошибка смены статуса equipments: %w", err)
	}
	if result.RowsAffected() == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

func (r *equipmentRepository) GetEquipments(ctx context.Context, filter types.Filter, onlyBookable bool) ([]*entities.Equipment, uint64, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)

	countBuilder := psql.Select("COUNT(id)").From(equipmentTable)
	listBuilder := psql.Select(equipmentFields).From(equipmentTable)

	applyWhere := func(b sq.SelectBuilder) sq.SelectBuilder {
		if onlyBookable {
			b = b.Where(sq.Eq{"is_approved": true, "status": constants.EquipmentStatusAvailable})
		}
		if filter.Search != "" {
			b = b.Where(sq.ILike{"name": "%" + filter.Search + "%"})
		}
		for field, value := range filter.Filter {
			column, ok := allowedEquipmentFilters[field]
			if !ok {
				continue
			}
			raw := fmt.Sprintf("%v", value)
			if strings.Contains(raw, ",") {
				b = b.Where(sq.Eq{column: strings.Split(raw, ",")})
			} else {
				b = b.Where(sq.Eq{column: raw})
			}
		}
		return b
	}

	countBuilder = applyWhere(countBuilder)
	listBuilder = applyWhere(listBuilder)

	countQuery, countArgs, err := countBuilder.ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка сборки COUNT-запроса: %w", err)
	}
	var total uint64
	if err := r.storage.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("ошибка подсчета equipments: %w", err)
	}
	if total == 0 {
		return []*entities.Equipment{}, 0, nil
	}

	orderBy := "id DESC"
	for field, direction := range filter.Sort {
		if allowedEquipmentSortFields[field] {
			orderBy = fmt.Sprintf("%s %s", field, strings.ToUpper(direction))
			break
		}
	}

	query, args, err := listBuilder.
		OrderBy(orderBy).
		Limit(uint64(filter.Limit)).
		Offset(uint64(filter.Offset)).
		ToSql()
	if err != nil {
		return nil, 0, fmt.Errorf("ошибка сборки запроса списка equipments: %w", err)
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	list := make([]*entities.Equipment, 0)
	for rows.Next() {
		e, err := scanEquipmentRow(rows)
		if err != nil {
			return nil, 0, err
		}
		list = append(list, e)
	}
	return list, total, rows.Err()
}

package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"rental-system/internal/entities"
	"rental-system/pkg/constants"
	apperrors "rental-system/pkg/errors"
)

const (
	userProfileTable  = "user_profiles"
	userProfileFields = "id, email, version, status, fio, phone_number, address, role, password, created_at, updated_at"
)

type UserProfileRepositoryInterface interface {
	// FindCurrentByEmail — «текущий» профиль: максимальный version среди
	// ACTIVE-строк. Всегда запрос, никогда закешированное состояние.
	FindCurrentByEmail(ctx context.Context, tx pgx.Tx, email string) (*entities.UserProfile, error)
	// AppendVersionInTx добавляет новую неизменяемую версию. Нарушение
	// уникальности (email, version) возвращается как ErrConflict —
	// вызывающий перечитывает текущую версию и повторяет попытку.
	AppendVersionInTx(ctx context.Context, tx pgx.Tx, profile entities.UserProfile) (uint64, error)
	// DemotePriorVersionsInTx переводит прежние версии email в INACTIVE.
	DemotePriorVersionsInTx(ctx context.Context, tx pgx.Tx, email string, beforeVersion int) error
	GetHistory(ctx context.Context, email string) ([]*entities.UserProfile, error)
}

type userProfileRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewUserProfileRepository(storage *pgxpool.Pool, logger *zap.Logger) UserProfileRepositoryInterface {
	return &userProfileRepository{storage: storage, logger: logger}
}

func (r *userProfileRepository) getQuerier(tx pgx.Tx) Querier {
	if tx != nil {
		return tx
	}
	return r.storage
}

func scanProfileRow(row pgx.Row) (*entities.UserProfile, error) {
	var p entities.UserProfile
	var phoneNumber, address sql.NullString

	err := row.Scan(
		&p.ID, &p.Email, &p.Version, &p.Status, &p.Fio,
		&phoneNumber, &address, &p.Role, &p.Password,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("ошибка сканирования user_profiles: %w", err)
	}

	if phoneNumber.Valid {
		p.PhoneNumber = &phoneNumber.String
	}
	if address.Valid {
		p.Address = &address.String
	}
	return &p, nil
}

func (r *userProfileRepository) FindCurrentByEmail(ctx context.Context, tx pgx.Tx, email string) (*entities.UserProfile, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	query, args, err := psql.Select(userProfileFields).
		From(userProfileTable).
		Where(sq.Eq{"email": email, "status": constants.ProfileStatusActive}).
		OrderBy("version DESC").
		Limit(1).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки SQL для FindCurrentByEmail: %w", err)
	}
	return scanProfileRow(r.getQuerier(tx).QueryRow(ctx, query, args...))
}

func (r *userProfileRepository) AppendVersionInTx(ctx context.Context, tx pgx.Tx, profile entities.UserProfile) (uint64, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	query, args, err := psql.Insert(userProfileTable).
		Columns("email", "version", "status", "fio", "phone_number", "address", "role", "password", "created_at", "updated_at").
		Values(profile.Email, profile.Version, profile.Status, profile.Fio,
			profile.PhoneNumber, profile.Address, profile.Role, profile.Password,
			sq.Expr("NOW()"), sq.Expr("NOW()")).
		Suffix("RETURNING id").
		ToSql()
	if err != nil {
		return 0, fmt.Errorf("ошибка сборки запроса AppendVersionInTx: %w", err)
	}

	var newID uint64
	if err := tx.QueryRow(ctx, query, args...).Scan(&newID); err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, fmt.Errorf("версия профиля уже существует: %w", apperrors.ErrConflict)
		}
		return 0, fmt.Errorf("ошибка добавления версии профиля: %w", err)
	}
	return newID, nil
}

func (r *userProfileRepository) DemotePriorVersionsInTx(ctx context.Context, tx pgx.Tx, email string, beforeVersion int) error {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	query, args, err := psql.Update(userProfileTable).
		Set("status", constants.ProfileStatusInactive).
		Set("updated_at", sq.Expr("NOW()")).
		Where(sq.Eq{"email": email}).
		Where(sq.Lt{"version": beforeVersion}).
		ToSql()
	if err != nil {
		return fmt.Errorf("ошибка сборки запроса DemotePriorVersionsInTx: %w", err)
	}

	if _, err := tx.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("ошибка деактивации прежних версий профиля: %w", err)
	}
	return nil
}

func (r *userProfileRepository) GetHistory(ctx context.Context, email string) ([]*entities.UserProfile, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	query, args, err := psql.Select(userProfileFields).
		From(userProfileTable).
		Where(sq.Eq{"email": email}).
		OrderBy("version ASC").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки запроса GetHistory: %w", err)
	}

	rows, err := r.storage.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := make([]*entities.UserProfile, 0)
	for rows.Next() {
		p, err := scanProfileRow(rows)
		if err != nil {
			return nil, err
		}
		history = append(history, p)
	}
	return history, rows.Err()
}

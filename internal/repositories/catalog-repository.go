package repositories

import (
	"context"
	"fmt"

	sq "github.com/Masterminds/squirrel"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"rental-system/internal/entities"
)

const (
	categoryTable = "categories"
	brandTable    = "brands"
)

// Справочники каталога: категории и марки техники. Заполняются сидером,
// через API только читаются.
type CatalogRepositoryInterface interface {
	GetCategories(ctx context.Context) ([]entities.Category, error)
	GetBrands(ctx context.Context) ([]entities.Brand, error)
}

type catalogRepository struct {
	storage *pgxpool.Pool
	logger  *zap.Logger
}

func NewCatalogRepository(storage *pgxpool.Pool, logger *zap.Logger) CatalogRepositoryInterface {
	return &catalogRepository{storage: storage, logger: logger}
}

func (r *catalogRepository) queryDictionary(ctx context.Context, table string) (pgx.Rows, error) {
	psql := sq.StatementBuilder.PlaceholderFormat(sq.Dollar)
	query, args, err := psql.Select("id, name").From(table).OrderBy("name ASC").ToSql()
	if err != nil {
		return nil, fmt.Errorf("ошибка сборки запроса справочника %s: %w", table, err)
	}
	return r.storage.Query(ctx, query, args...)
}

func (r *catalogRepository) GetCategories(ctx context.Context) ([]entities.Category, error) {
	rows, err := r.queryDictionary(ctx, categoryTable)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []entities.Category
	for rows.Next() {
		var c entities.Category
		if err := rows.Scan(&c.ID, &c.Name); err != nil {
			return nil, fmt.Errorf("ошибка сканирования categories: %w", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

func (r *catalogRepository) GetBrands(ctx context.Context) ([]entities.Brand, error) {
	rows, err := r.queryDictionary(ctx, brandTable)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []entities.Brand
	for rows.Next() {
		var b entities.Brand
		if err := rows.Scan(&b.ID, &b.Name); err != nil {
			return nil, fmt.Errorf("ошибка сканирования brands: %w", err)
		}
		list = append(list, b)
	}
	return list, rows.Err()
}

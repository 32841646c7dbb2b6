package seeders

import (
	"context"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"
)

var categoryNames = []string{
	"Экскаваторы",
	"Бульдозеры",
	"Автокраны",
	"Погрузчики",
	"Катки дорожные",
	"Бетономешалки",
	"Генераторы",
	"Компрессоры",
}

var brandNames = []string{
	"Caterpillar",
	"Komatsu",
	"Hitachi",
	"JCB",
	"Liebherr",
	"XCMG",
	"SANY",
}

func seedCategories(ctx context.Context, db *pgxpool.Pool) error {
	log.Println("  - Наполнение категорий техники...")
	for _, name := range categoryNames {
		_, err := db.Exec(ctx,
			"INSERT INTO categories (name) VALUES ($1) ON CONFLICT (name) DO NOTHING", name)
		if err != nil {
			return fmt.Errorf("не удалось вставить категорию %q: %w", name, err)
		}
	}
	return nil
}

func seedBrands(ctx context.Context, db *pgxpool.Pool) error {
	log.Println("  - Наполнение марок техники...")
	for _, name := range brandNames {
		_, err := db.Exec(ctx,
			"INSERT INTO brands (name) VALUES ($1) ON CONFLICT (name) DO NOTHING", name)
		if err != nil {
			return fmt.Errorf("не удалось вставить марку %q: %w", name, err)
		}
	}
	return nil
}

package seeders

import (
	"context"
	"log"

	"github.com/jackc/pgx/v5/pgxpool"

	"rental-system/pkg/config"
)

// SeedCatalog наполняет справочники категорий и марок техники.
func SeedCatalog(db *pgxpool.Pool) {
	ctx := context.Background()
	log.Println("Запуск наполнения справочников каталога...")

	if err := seedCategories(ctx, db); err != nil {
		log.Fatalf("Ошибка наполнения категорий: %v", err)
	}
	if err := seedBrands(ctx, db); err != nil {
		log.Fatalf("Ошибка наполнения марок: %v", err)
	}
	log.Println("Справочники каталога наполнены.")
}

// SeedAdmin создает администратора из конфигурации.
func SeedAdmin(db *pgxpool.Pool, cfg *config.Config) {
	ctx := context.Background()
	log.Println("Запуск создания администратора...")

	if err := seedAdmin(ctx, db, cfg); err != nil {
		log.Fatalf("Ошибка создания администратора: %v", err)
	}
	log.Println("Администратор настроен.")
}

// SeedDemo наполняет каталог демонстрационной техникой.
func SeedDemo(db *pgxpool.Pool) {
	ctx := context.Background()
	log.Println("Запуск наполнения демо-данными...")

	if err := seedDemoData(ctx, db); err != nil {
		log.Fatalf("Ошибка наполнения демо-данными: %v", err)
	}
	log.Println("Демо-данные загружены.")
}

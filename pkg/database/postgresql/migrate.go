package postgresql

import (
	"database/sql"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

// RunMigrations применяет goose-миграции из каталога migrations.
// goose работает поверх database/sql, поэтому открываем отдельное
// соединение через pgx/stdlib только на время миграций.
func RunMigrations(dsn string, dir string) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		log.Fatalf("Не удалось открыть соединение для миграций: %v", err)
	}
	defer db.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		log.Fatalf("goose: не удалось выбрать диалект: %v", err)
	}

	if err := goose.Up(db, dir); err != nil {
		log.Fatalf("goose: ошибка применения миграций: %v", err)
	}

	log.Println("✅ Миграции применены")
}

package main

import (
	"flag"
	"log"

	"rental-system/pkg/config"
	"rental-system/pkg/database/postgresql"
	"rental-system/seeders"
)

func main() {
	runCatalog := flag.Bool("catalog", false, "Наполнить справочники категорий и марок")
	runAdmin := flag.Bool("admin", false, "Создать администратора из конфигурации")
	runDemo := flag.Bool("demo", false, "Наполнить каталог демо-техникой")
	runAll := flag.Bool("all", false, "Запустить все сидеры")

	flag.Parse()

	if !*runCatalog && !*runAdmin && !*runDemo && !*runAll {
		log.Println("Не выбран ни один сидер для запуска.")
		log.Println("")
		flag.PrintDefaults()
		log.Println("")
		log.Println("Пример: go run ./seeders/cmd/seed -all")
		return
	}

	cfg := config.New()
	log.Println("Используется DSN:", cfg.Postgres.DSN)
	dbPool := postgresql.ConnectDB(cfg.Postgres.DSN)
	defer dbPool.Close()

	if *runCatalog || *runAll {
		seeders.SeedCatalog(dbPool)
	}
	if *runAdmin || *runAll {
		seeders.SeedAdmin(dbPool, cfg)
	}
	if *runDemo || *runAll {
		seeders.SeedDemo(dbPool)
	}

	log.Println("Сидеры завершены.")
}

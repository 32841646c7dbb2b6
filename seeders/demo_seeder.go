package seeders

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"rental-system/internal/authz"
	"rental-system/pkg/constants"
	"rental-system/pkg/utils"
)

const demoSupplierEmail = "supplier@rental-system.local"

type demoEquipment struct {
	name          string
	category      string
	brand         string
	dailyRate     float64
	weeklyRate    float64
	monthlyRate   float64
	minRentalDays int
	deposit       float64
}

var demoEquipments = []demoEquipment{
	{"Экскаватор гусеничный 20т", "Экскаваторы", "Komatsu", 450, 2800, 10500, 1, 2000},
	{"Бульдозер среднего класса", "Бульдозеры", "Caterpillar", 520, 3200, 12000, 2, 2500},
	{"Автокран 25т", "Автокраны", "XCMG", 600, 3800, 0, 1, 3000},
	{"Фронтальный погрузчик", "Погрузчики", "JCB", 300, 1900, 7200, 1, 1200},
	{"Дизельный генератор 100кВт", "Генераторы", "SANY", 100, 600, 2000, 1, 500},
}

// seedDemoData создает демо-поставщика и несколько единиц уже одобренной
// техники, чтобы каталог не был пустым после развертывания.
func seedDemoData(ctx context.Context, db *pgxpool.Pool) error {
	log.Println("  - Создание демо-поставщика и техники...")

	var supplierID uint64
	err := db.QueryRow(ctx,
		"SELECT id FROM user_profiles WHERE email = $1 LIMIT 1", demoSupplierEmail).Scan(&supplierID)
	if errors.Is(err, pgx.ErrNoRows) {
		hashed, hashErr := utils.HashPassword("supplier")
		if hashErr != nil {
			return hashErr
		}
		_, err = db.Exec(ctx, `
			INSERT INTO user_profiles (email, version, status, fio, role, password)
			VALUES ($1, 1, $2, 'Демо-поставщик', $3, $4)`,
			demoSupplierEmail, constants.ProfileStatusActive, authz.RoleSupplier, hashed)
	}
	if err != nil {
		return fmt.Errorf("не удалось создать демо-поставщика: %w", err)
	}

	for _, e := range demoEquipments {
		var exists uint64
		err := db.QueryRow(ctx,
			"SELECT id FROM equipments WHERE name = $1 AND owner_email = $2 LIMIT 1",
			e.name, demoSupplierEmail).Scan(&exists)
		if err == nil {
			continue
		}
		if !errors.Is(err, pgx.ErrNoRows) {
			return fmt.Errorf("ошибка проверки техники %q: %w", e.name, err)
		}

		var weeklyRate, monthlyRate interface{}
		if e.weeklyRate > 0 {
			weeklyRate = e.weeklyRate
		}
		if e.monthlyRate > 0 {
			monthlyRate = e.monthlyRate
		}

		_, err = db.Exec(ctx, `
			INSERT INTO equipments (owner_email, name, category_id, brand_id,
				daily_rate, weekly_rate, monthly_rate, min_rental_days,
				deposit_amount, status, is_approved)
			VALUES ($1, $2,
				(SELECT id FROM categories WHERE name = $3),
				(SELECT id FROM brands WHERE name = $4),
				$5, $6, $7, $8, $9, $10, TRUE)`,
			demoSupplierEmail, e.name, e.category, e.brand,
			e.dailyRate, weeklyRate, monthlyRate, e.minRentalDays,
			e.deposit, constants.EquipmentStatusAvailable)
		if err != nil {
			return fmt.Errorf("не удалось вставить технику %q: %w", e.name, err)
		}
	}
	return nil
}

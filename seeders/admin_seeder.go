package seeders

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"rental-system/internal/authz"
	"rental-system/pkg/config"
	"rental-system/pkg/constants"
	"rental-system/pkg/utils"
)

func seedAdmin(ctx context.Context, db *pgxpool.Pool, cfg *config.Config) error {
	log.Println("  - Создание администратора...")

	var existingID uint64
	err := db.QueryRow(ctx,
		"SELECT id FROM user_profiles WHERE email = $1 LIMIT 1", cfg.Admin.Email).Scan(&existingID)
	if err == nil {
		log.Println("    - Администратор уже существует. Пропускаем.")
		return nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("ошибка проверки существования администратора: %w", err)
	}

	hashed, err := utils.HashPassword(cfg.Admin.Password)
	if err != nil {
		return fmt.Errorf("не удалось захешировать пароль администратора: %w", err)
	}

	_, err = db.Exec(ctx, `
		INSERT INTO user_profiles (email, version, status, fio, role, password)
		VALUES ($1, 1, $2, 'Администратор', $3, $4)`,
		cfg.Admin.Email, constants.ProfileStatusActive, authz.RoleAdmin, hashed)
	if err != nil {
		return fmt.Errorf("не удалось создать администратора: %w", err)
	}

	log.Println("    - Администратор создан:", cfg.Admin.Email)
	return nil
}

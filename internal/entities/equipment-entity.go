package entities

import (
	"rental-system/pkg/constants"
	"rental-system/pkg/types"
)

type Equipment struct {
	ID          uint64 `json:"id"`
	OwnerEmail  string `json:"owner_email"`
	Name        string `json:"name"`
	Description string `json:"description"`

	CategoryID *uint64 `json:"category_id"`
	BrandID    *uint64 `json:"brand_id"`

	DailyRate     float64  `json:"daily_rate"`
	WeeklyRate    *float64 `json:"weekly_rate"`
	MonthlyRate   *float64 `json:"monthly_rate"`
	MinRentalDays int      `json:"min_rental_days"`
	DepositAmount float64  `json:"deposit_amount"`

	Status     string `json:"status"`
	IsApproved bool   `json:"is_approved"`

	types.BaseEntity

	// Поля для связанных данных (не колонки в таблице)
	Category *Category `db:"-"`
	Brand    *Brand    `db:"-"`
}

// IsBookable — ворота доступности: единица техники принимает новые
// брони только будучи одобренной админом и находясь в статусе AVAILABLE.
func (e *Equipment) IsBookable() bool {
	return e.IsApproved && e.Status == constants.EquipmentStatusAvailable
}

package dto

import (
	"github.com/aarondl/null/v8"
)

type CreateEquipmentDTO struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description" validate:"omitempty,max=2000"`

	CategoryID *uint64 `json:"category_id" validate:"omitempty,gt=0"`
	BrandID    *uint64 `json:"brand_id" validate:"omitempty,gt=0"`

	DailyRate     float64  `json:"daily_rate" validate:"required,gt=0"`
	WeeklyRate    *float64 `json:"weekly_rate" validate:"omitempty,gt=0"`
	MonthlyRate   *float64 `json:"monthly_rate" validate:"omitempty,gt=0"`
	MinRentalDays int      `json:"min_rental_days" validate:"omitempty,gte=1"`
	DepositAmount float64  `json:"deposit_amount" validate:"omitempty,gte=0"`
}

type UpdateEquipmentDTO struct {
	Name        null.String `json:"name"`
	Description null.String `json:"description"`

	CategoryID null.Uint64 `json:"category_id"`
	BrandID    null.Uint64 `json:"brand_id"`

	DailyRate     null.Float64 `json:"daily_rate"`
	WeeklyRate    null.Float64 `json:"weekly_rate"`
	MonthlyRate   null.Float64 `json:"monthly_rate"`
	MinRentalDays null.Int     `json:"min_rental_days"`
	DepositAmount null.Float64 `json:"deposit_amount"`
}

// UpdateEquipmentStatusDTO — ручная смена статуса владельцем/админом.
// RENTED сюда не входит: его выставляет только жизненный цикл аренды.
type UpdateEquipmentStatusDTO struct {
	Status string `json:"status" validate:"required,oneof=AVAILABLE MAINTENANCE UNAVAILABLE"`
}

type EquipmentDTO struct {
	ID          uint64 `json:"id"`
	OwnerEmail  string `json:"owner_email"`
	Name        string `json:"name"`
	Description string `json:"description"`

	Category *ShortCategoryDTO `json:"category,omitempty"`
	Brand    *ShortBrandDTO    `json:"brand,omitempty"`

	DailyRate     float64  `json:"daily_rate"`
	WeeklyRate    *float64 `json:"weekly_rate"`
	MonthlyRate   *float64 `json:"monthly_rate"`
	MinRentalDays int      `json:"min_rental_days"`
	DepositAmount float64  `json:"deposit_amount"`

	Status     string `json:"status"`
	IsApproved bool   `json:"is_approved"`
	IsBookable bool   `json:"is_bookable"`

	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

type ShortEquipmentDTO struct {
	ID        uint64  `json:"id"`
	Name      string  `json:"name"`
	DailyRate float64 `json:"daily_rate"`
}

type ShortCategoryDTO struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

type ShortBrandDTO struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

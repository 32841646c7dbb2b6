package dto

import "rental-system/internal/pricing"

type AddToCartDTO struct {
	EquipmentID uint64 `json:"equipment_id" validate:"required,gt=0"`
	StartDate   string `json:"start_date" validate:"required,rental_date"`
	EndDate     string `json:"end_date" validate:"required,rental_date"`
}

// CartItemDTO — позиция корзины с живой оценкой стоимости: даты держатся
// в корзине, а цена пересчитывается по текущим тарифам при каждом чтении.
type CartItemDTO struct {
	Equipment ShortEquipmentDTO `json:"equipment"`
	StartDate string            `json:"start_date"`
	EndDate   string            `json:"end_date"`
	Quote     *pricing.Quote    `json:"quote,omitempty"`
	// Оборудование могло стать недоступным уже после добавления в корзину.
	IsBookable bool `json:"is_bookable"`
}

type CartDTO struct {
	SessionID string        `json:"session_id"`
	Items     []CartItemDTO `json:"items"`
}

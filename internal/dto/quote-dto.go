package dto

import "rental-system/internal/pricing"

// QuoteDTO — оценка стоимости аренды до оформления. Сборы показываются
// справочно: итог фиксируется только при создании аренды.
type QuoteDTO struct {
	EquipmentID uint64          `json:"equipment_id"`
	StartDate   string          `json:"start_date"`
	EndDate     string          `json:"end_date"`
	Quote       pricing.Quote   `json:"quote"`
	Charges     pricing.Charges `json:"charges"`
}

package entities

import (
	"time"

	"rental-system/pkg/types"
)

// Rental — долговременная запись о бронировании, создаваемая из позиции
// корзины при оформлении. Никогда не удаляется: отмена — это смена статуса,
// так что таблица остается полным журналом всех броней.
type Rental struct {
	ID            uint64 `json:"id"`
	RentalNumber  string `json:"rental_number"`
	CustomerEmail string `json:"customer_email"`
	EquipmentID   uint64 `json:"equipment_id"`

	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	TotalDays int       `json:"total_days"`

	// Эффективная ставка за день, зафиксированная на момент бронирования.
	// Может отличаться от текущей daily_rate оборудования.
	DailyRate    float64 `json:"daily_rate"`
	Subtotal     float64 `json:"subtotal"`
	DeliveryFee  float64 `json:"delivery_fee"`
	InsuranceFee float64 `json:"insurance_fee"`
	Discount     float64 `json:"discount"`
	Total        float64 `json:"total"`

	DepositAmount float64 `json:"deposit_amount"`
	DepositPaid   bool    `json:"deposit_paid"`

	DeliveryAddress *string `json:"delivery_address"`
	DeliveryPhone   *string `json:"delivery_phone"`

	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`

	ConfirmedAt  *time.Time `json:"confirmed_at"`
	StartedAt    *time.Time `json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at"`
	CancelledAt  *time.Time `json:"cancelled_at"`
	CancelReason *string    `json:"cancel_reason"`

	types.BaseEntity

	// Связанные данные (не колонки в таблице)
	Equipment *Equipment `db:"-"`
}

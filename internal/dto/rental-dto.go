package dto

type CheckoutDTO struct {
	DeliveryAddress *string `json:"delivery_address" validate:"omitempty,max=500"`
	DeliveryPhone   *string `json:"delivery_phone" validate:"omitempty,e164_TJ"`
}

type TransitionRentalStatusDTO struct {
	Status       string `json:"status" validate:"required,oneof=CONFIRMED IN_PROGRESS COMPLETED CANCELLED"`
	CancelReason string `json:"cancel_reason" validate:"omitempty,max=500"`
}

type CancelRentalDTO struct {
	Reason string `json:"reason" validate:"omitempty,max=500"`
}

type SetPaymentStatusDTO struct {
	PaymentStatus string `json:"payment_status" validate:"required,oneof=PAID FAILED REFUNDED"`
}

type RentalDTO struct {
	ID            uint64 `json:"id"`
	RentalNumber  string `json:"rental_number"`
	CustomerEmail string `json:"customer_email"`

	Equipment ShortEquipmentDTO `json:"equipment"`

	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	TotalDays int    `json:"total_days"`

	DailyRate    float64 `json:"daily_rate"`
	Subtotal     float64 `json:"subtotal"`
	DeliveryFee  float64 `json:"delivery_fee"`
	InsuranceFee float64 `json:"insurance_fee"`
	Discount     float64 `json:"discount"`
	Total        float64 `json:"total"`

	DepositAmount float64 `json:"deposit_amount"`
	DepositPaid   bool    `json:"deposit_paid"`

	DeliveryAddress *string `json:"delivery_address,omitempty"`
	DeliveryPhone   *string `json:"delivery_phone,omitempty"`

	Status        string `json:"status"`
	PaymentStatus string `json:"payment_status"`

	ConfirmedAt  *string `json:"confirmed_at,omitempty"`
	StartedAt    *string `json:"started_at,omitempty"`
	CompletedAt  *string `json:"completed_at,omitempty"`
	CancelledAt  *string `json:"cancelled_at,omitempty"`
	CancelReason *string `json:"cancel_reason,omitempty"`

	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
}

// CheckoutResultDTO — ответ на успешное оформление.
type CheckoutResultDTO struct {
	RentalNumber string    `json:"rental_number"`
	Rental       RentalDTO `json:"rental"`
}

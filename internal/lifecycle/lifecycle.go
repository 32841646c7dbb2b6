package lifecycle

import (
	"rental-system/pkg/constants"
	apperrors "rental-system/pkg/errors"
)

// Машина статусов аренды:
//
//	PENDING -> CONFIRMED -> IN_PROGRESS -> COMPLETED
//	PENDING, CONFIRMED  -> CANCELLED
//
// COMPLETED и CANCELLED — терминальные. Аренда, уже начавшаяся или
// завершенная, отменена быть не может.
var statusTransitions = map[string][]string{
	constants.RentalStatusPending:    {constants.RentalStatusConfirmed, constants.RentalStatusCancelled},
	constants.RentalStatusConfirmed:  {constants.RentalStatusInProgress, constants.RentalStatusCancelled},
	constants.RentalStatusInProgress: {constants.RentalStatusCompleted},
	constants.RentalStatusCompleted:  {},
	constants.RentalStatusCancelled:  {},
}

// Машина статусов оплаты, полностью независимая от жизненного цикла:
//
//	PENDING -> PAID | FAILED
//	PAID    -> REFUNDED
var paymentTransitions = map[string][]string{
	constants.PaymentStatusPending:  {constants.PaymentStatusPaid, constants.PaymentStatusFailed},
	constants.PaymentStatusPaid:     {constants.PaymentStatusRefunded},
	constants.PaymentStatusFailed:   {},
	constants.PaymentStatusRefunded: {},
}

// ValidateStatusTransition проверяет допустимость перехода статуса аренды.
// Недопустимый переход возвращает ErrIllegalTransition, неизвестный
// исходный статус считается недопустимым.
func ValidateStatusTransition(from, to string) error {
	return validate(statusTransitions, from, to)
}

// ValidatePaymentTransition проверяет допустимость перехода статуса оплаты.
func ValidatePaymentTransition(from, to string) error {
	return validate(paymentTransitions, from, to)
}

// IsKnownStatus сообщает, существует ли такой статус аренды вообще.
func IsKnownStatus(status string) bool {
	_, ok := statusTransitions[status]
	return ok
}

// IsKnownPaymentStatus сообщает, существует ли такой статус оплаты.
func IsKnownPaymentStatus(status string) bool {
	_, ok := paymentTransitions[status]
	return ok
}

// CanBeCancelled — отмена (и клиентом, и поставщиком) допустима только
// из PENDING или CONFIRMED.
func CanBeCancelled(status string) bool {
	return ValidateStatusTransition(status, constants.RentalStatusCancelled) == nil
}

func validate(transitions map[string][]string, from, to string) error {
	allowed, ok := transitions[from]
	if !ok {
		return apperrors.ErrIllegalTransition
	}
	for _, next := range allowed {
		if next == to {
			return nil
		}
	}
	return apperrors.ErrIllegalTransition
}

package constants

//============== СТАТУСЫ ОБОРУДОВАНИЯ ==============

const (
	EquipmentStatusAvailable   = "AVAILABLE"
	EquipmentStatusRented      = "RENTED"
	EquipmentStatusMaintenance = "MAINTENANCE"
	EquipmentStatusUnavailable = "UNAVAILABLE"
)

// Статусы, которые владелец/админ может выставить вручную.
// RENTED выставляется только жизненным циклом аренды.
var ManualEquipmentStatuses = []string{
	EquipmentStatusAvailable,
	EquipmentStatusMaintenance,
	EquipmentStatusUnavailable,
}

//============== СТАТУСЫ АРЕНДЫ ==============

const (
	RentalStatusPending    = "PENDING"
	RentalStatusConfirmed  = "CONFIRMED"
	RentalStatusInProgress = "IN_PROGRESS"
	RentalStatusCompleted  = "COMPLETED"
	RentalStatusCancelled  = "CANCELLED"
)

//============== СТАТУСЫ ОПЛАТЫ ==============

// Машина оплаты независима от жизненного цикла аренды:
// завершение аренды никогда не означает, что она оплачена.
const (
	PaymentStatusPending  = "PENDING"
	PaymentStatusPaid     = "PAID"
	PaymentStatusFailed   = "FAILED"
	PaymentStatusRefunded = "REFUNDED"
)

//============== СТАТУСЫ ПРОФИЛЯ ==============

const (
	ProfileStatusActive   = "ACTIVE"
	ProfileStatusInactive = "INACTIVE"
)

//============== CACHE KEYS ==============

// Префиксы для ключей в Redis/кеше.
const (
	// Карточка оборудования. Формат: equipment:<id> -> JSON
	CacheKeyEquipment = "equipment:%d"
)

// Время жизни кешированной карточки оборудования.
const EquipmentCacheTTLSeconds = 300

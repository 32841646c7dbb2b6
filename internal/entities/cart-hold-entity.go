package entities

import (
	"time"

	"rental-system/pkg/types"
)

// CartHold — предварительная, ни к чему не обязывающая бронь единицы
// техники на диапазон дат в рамках одной сессии. Не резервирует инвентарь:
// две сессии могут держать пересекающиеся даты одновременно, конфликт
// разрешается только при оформлении.
type CartHold struct {
	ID          uint64    `json:"id"`
	SessionID   string    `json:"session_id"`
	EquipmentID uint64    `json:"equipment_id"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`

	types.BaseEntity

	// Связанные данные (не колонки в таблице)
	Equipment *Equipment `db:"-"`
}

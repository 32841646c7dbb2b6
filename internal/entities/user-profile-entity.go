package entities

import (
	"rental-system/pkg/types"
)

// UserProfile — одна неизменяемая версия профиля пользователя.
// Каждое редактирование добавляет новую строку со следующим version,
// строки никогда не правятся на месте. «Текущий» профиль для email —
// строка с максимальным version среди ACTIVE.
type UserProfile struct {
	ID      uint64 `json:"id"`
	Email   string `json:"email"`
	Version int    `json:"version"`
	Status  string `json:"status"`

	Fio         string  `json:"fio"`
	PhoneNumber *string `json:"phone_number"`
	Address     *string `json:"address"`
	Role        string  `json:"role"`

	Password string `json:"-"`

	types.BaseEntity
}

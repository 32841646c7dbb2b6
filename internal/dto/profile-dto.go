package dto

import "github.com/aarondl/null/v8"

// UpdateProfileDTO — редактирование профиля. Непереданные поля
// копируются из текущей версии без изменений.
type UpdateProfileDTO struct {
	Fio         null.String `json:"fio"`
	PhoneNumber null.String `json:"phone_number"`
	Address     null.String `json:"address"`
}

type ProfileDTO struct {
	ID          uint64  `json:"id"`
	Email       string  `json:"email"`
	Version     int     `json:"version"`
	Status      string  `json:"status"`
	Fio         string  `json:"fio"`
	PhoneNumber *string `json:"phone_number,omitempty"`
	Address     *string `json:"address,omitempty"`
	Role        string  `json:"role"`
	CreatedAt   string  `json:"created_at"`
}

package entities

import "rental-system/pkg/types"

type Category struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`

	types.BaseEntity
}

type Brand struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`

	types.BaseEntity
}

package models

import "etix/src/types"

type User struct {
	ID    uint   `gorm:"primarykey" json:"id"`
	Email string `gorm:"index" json:"email,omitempty"`
	Name  string `json:"name,omitempty"`
	UID   string `json:"uid,omitempty"`
	Role  string `gorm:"default:'user'" json:"role,omitempty"`

	Purchases []Purchase `json:"purchases,omitempty"`

	types.Timestamps
}

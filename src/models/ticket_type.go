package models

import (
	"etix/src/types"
	"time"
)

// TicketType is the general-admission sale unit. Available is only ever
// mutated through a conditional UPDATE bounded by the current value; the
// live "held" overlay lives in the ledger, not here.
type TicketType struct {
	ID           uint                   `gorm:"primarykey" json:"id"`
	EventID      uint                   `json:"event_id,omitempty"`
	Tier         string                 `json:"tier,omitempty"`
	Status       types.TicketTypeStatus `gorm:"default:'draft'" json:"status,omitempty"`
	Currency     string                 `json:"currency,omitempty"`
	Price        float32                `json:"price"`
	Total        uint                   `json:"total"`
	Available    uint                   `json:"available"`
	PerUserLimit uint                   `json:"per_user_limit,omitempty"`
	SalesStart   *time.Time             `json:"sales_start,omitempty"`
	SalesEnd     *time.Time             `json:"sales_end,omitempty"`

	Event *Event `json:"event,omitempty"`

	types.Timestamps
}

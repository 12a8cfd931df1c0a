package models

import (
	"etix/src/types"
	"time"
)

type Venue struct {
	ID       uint   `gorm:"primarykey" json:"id"`
	Name     string `json:"name,omitempty"`
	City     string `json:"city,omitempty"`
	Capacity uint   `json:"capacity,omitempty"`

	Sections []Section `json:"sections,omitempty"`

	types.Timestamps
}

type Section struct {
	ID      uint   `gorm:"primarykey" json:"id"`
	VenueID uint   `json:"venue_id,omitempty"`
	Name    string `json:"name,omitempty"`

	Seats []Seat `json:"seats,omitempty"`

	types.Timestamps
}

type Seat struct {
	ID        uint   `gorm:"primarykey" json:"id"`
	SectionID uint   `json:"section_id,omitempty"`
	Row       string `json:"row,omitempty"`
	Number    uint   `json:"number,omitempty"`
	Label     string `json:"label,omitempty"`

	types.Timestamps
}

// SeatStatus is the per-event state of one seat. A seat in held state always
// carries HeldUntil; the sweeper reclaims it once the owning hold expires.
type SeatStatus struct {
	ID              uint            `gorm:"primarykey" json:"id"`
	EventID         uint            `gorm:"index:idx_event_seat,unique" json:"event_id,omitempty"`
	SeatID          uint            `gorm:"index:idx_event_seat,unique" json:"seat_id,omitempty"`
	SectionID       uint            `json:"section_id,omitempty"`
	TicketTypeID    *uint           `json:"ticket_type_id,omitempty"`
	State           types.SeatState `gorm:"default:'available'" json:"state,omitempty"`
	HeldUntil       *time.Time      `json:"held_until,omitempty"`
	PurchaseID      *uint           `json:"purchase_id,omitempty"`
	PriceAtPurchase *float32        `json:"price_at_purchase,omitempty"`

	Seat  Seat  `json:"seat,omitempty"`
	Event Event `json:"event,omitempty"`

	types.Timestamps
}

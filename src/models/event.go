package models

import (
	"etix/src/types"
	"time"
)

type Event struct {
	ID            uint                `gorm:"primarykey" json:"id"`
	Title         string              `json:"title,omitempty"`
	Name          string              `json:"name,omitempty"`
	Slug          string              `gorm:"index" json:"slug,omitempty"`
	About         *string             `json:"about,omitempty"`
	Location      string              `json:"location,omitempty"`
	VenueID       *uint               `json:"venue_id,omitempty"`
	DateTime      time.Time           `json:"date_time,omitempty"`
	Deadline      time.Time           `json:"deadline,omitempty"`
	Status        types.EventStatus   `gorm:"default:'draft'" json:"status,omitempty"`
	SelectionMode types.SelectionMode `gorm:"default:'general_admission'" json:"selection_mode,omitempty"`
	OrganizerID   uint                `json:"organizer,omitempty"`
	CreatedBy     uint                `json:"created_by,omitempty"`

	Venue       *Venue       `json:"venue,omitempty"`
	TicketTypes []TicketType `json:"ticket_types,omitempty"`

	types.Timestamps
}

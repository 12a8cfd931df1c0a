package types

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty,omitnil"`
}

type SelectionMode string

const (
	GENERAL_ADMISSION SelectionMode = "general_admission"
	ZONED_ADMISSION   SelectionMode = "zoned_admission"
	RESERVED_SEATING  SelectionMode = "reserved_seating"
)

type EventStatus string

const (
	EVENT_DRAFT        EventStatus = "draft"
	EVENT_REGISTRATION EventStatus = "registration"
	EVENT_OPEN         EventStatus = "open"
	EVENT_CLOSED       EventStatus = "closed"
	EVENT_COMPLETED    EventStatus = "completed"
	EVENT_CANCELED     EventStatus = "canceled"
)

type SeatState string

const (
	SEAT_AVAILABLE SeatState = "available"
	SEAT_HELD      SeatState = "held"
	SEAT_SOLD      SeatState = "sold"
)

type PurchaseStatus string

const (
	PURCHASE_PAID       PurchaseStatus = "paid"
	PURCHASE_CHECKED_IN PurchaseStatus = "checked_in"
	PURCHASE_CANCELED   PurchaseStatus = "canceled"
)

type TicketTypeStatus string

const (
	TICKET_TYPE_DRAFT  TicketTypeStatus = "draft"
	TICKET_TYPE_OPEN   TicketTypeStatus = "open"
	TICKET_TYPE_CLOSED TicketTypeStatus = "closed"
)

type HoldLineItem struct {
	TicketTypeID uint `json:"ticket_type" binding:"required"`
	Qty          uint `json:"qty" binding:"required,min=1"`
}

type CreateHoldRequestBody struct {
	EventID uint           `json:"event" binding:"required"`
	SeatIDs []uint         `json:"seats,omitempty"`
	Items   []HoldLineItem `json:"items,omitempty"`
}

type HoldURIParams struct {
	ID string `uri:"id" binding:"required,uuid"`
}

type CheckoutRequestBody struct {
	HoldID       string `json:"hold_id" binding:"required,uuid"`
	Provider     string `json:"provider,omitempty"`
	PaymentToken string `json:"payment_token" binding:"required"`
}

type CreateEventRequestBody struct {
	Title         string `json:"title" binding:"required"`
	Name          string `json:"name" binding:"required"`
	Description   string `json:"description,omitempty"`
	Location      string `json:"location,omitempty" binding:"required"`
	VenueID       *uint  `json:"venue,omitempty"`
	DateTime      string `json:"date_time" binding:"required,bookabledate" time_format:"2006-01-02 15:04:05 -07:00"`
	Deadline      string `json:"deadline" binding:"required,bookabledate,ltdate=DateTime" time_format:"2006-01-02 15:04:05 -07:00"`
	SelectionMode string `json:"selection_mode" binding:"required,oneof=general_admission zoned_admission reserved_seating"`
}

type CreateTicketTypeRequestBody struct {
	Tier         string  `json:"tier" binding:"required"`
	Currency     string  `json:"currency" binding:"required"`
	Price        float32 `json:"price" binding:"required"`
	EventID      uint    `json:"event" binding:"required"`
	Total        uint    `json:"total" binding:"required,min=1"`
	PerUserLimit uint    `json:"per_user_limit,omitempty"`
	SalesStart   *string `json:"sales_start,omitempty" binding:"omitempty" time_format:"2006-01-02 15:04:05 -07:00"`
	SalesEnd     *string `json:"sales_end,omitempty" binding:"omitempty" time_format:"2006-01-02 15:04:05 -07:00"`
}

type SeatAssignment struct {
	SeatID       uint `json:"seat" binding:"required"`
	SectionID    uint `json:"section" binding:"required"`
	TicketTypeID uint `json:"ticket_type" binding:"required"`
}

type CreateSeatStatusRequestBody struct {
	Seats []SeatAssignment `json:"seats" binding:"required,min=1"`
}

type CreateAdmissionRequestBody struct {
	Code string `json:"code" binding:"required"`
}

type SimpleRequestParams struct {
	ID uint `uri:"id" binding:"required"`
}

type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	UID      string `json:"uid"`
	jwt.RegisteredClaims
}

type APIResponseSeatStatus struct {
	SeatID    uint       `json:"seat_id"`
	SectionID uint       `json:"section_id,omitempty"`
	State     SeatState  `json:"state"`
	HeldUntil *time.Time `json:"held_until,omitempty"`
}

type APIResponseTicketType struct {
	ID        uint    `json:"id"`
	Tier      string  `json:"tier,omitempty"`
	Currency  string  `json:"currency,omitempty"`
	Price     float32 `json:"price,omitempty"`
	Total     uint    `json:"total,omitempty"`
	Available int64   `json:"available"`
}

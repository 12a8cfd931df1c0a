package models

import (
	"etix/src/types"

	"github.com/google/uuid"
)

// Purchase is the durable order. It is created only in the checkout
// finalizer's commit step, after payment succeeded, and is immutable
// afterwards except for status transitions.
type Purchase struct {
	ID          uint                 `gorm:"primarykey" json:"id"`
	ReferenceID uuid.UUID            `gorm:"type:uuid" json:"reference_id"`
	UserID      uint                 `json:"user_id,omitempty"`
	EventID     uint                 `json:"event_id,omitempty"`
	Currency    string               `json:"currency,omitempty"`
	Subtotal    float32              `json:"subtotal"`
	ServiceFee  float32              `json:"service_fee"`
	Total       float32              `json:"total"`
	Provider    string               `json:"provider,omitempty"`
	PaymentTxn  string               `json:"payment_txn,omitempty"`
	Status      types.PurchaseStatus `gorm:"default:'paid'" json:"status,omitempty"`

	Items []PurchaseItem `json:"items,omitempty"`
	User  *User          `json:"user,omitempty"`
	Event *Event         `json:"event,omitempty"`

	types.Timestamps
}

type PurchaseItem struct {
	ID           uint    `gorm:"primarykey" json:"id"`
	PurchaseID   uint    `json:"purchase_id,omitempty"`
	TicketTypeID *uint   `json:"ticket_type_id,omitempty"`
	SeatStatusID *uint   `json:"seat_status_id,omitempty"`
	Qty          uint    `json:"qty"`
	UnitPrice    float32 `json:"unit_price"`
	Subtotal     float32 `json:"subtotal"`

	types.Timestamps
}

// OrphanedCharge records a payment that succeeded while the inventory commit
// failed. There is no automatic refund path; these rows are the input for
// manual reconciliation.
type OrphanedCharge struct {
	ID            uint    `gorm:"primarykey" json:"id"`
	TransactionID string  `json:"transaction_id"`
	Provider      string  `json:"provider,omitempty"`
	HoldID        string  `json:"hold_id,omitempty"`
	UserID        uint    `json:"user_id,omitempty"`
	Amount        float32 `json:"amount"`
	Currency      string  `json:"currency,omitempty"`
	Detail        string  `json:"detail,omitempty"`
	Resolved      bool    `gorm:"default:false" json:"resolved"`

	types.Timestamps
}

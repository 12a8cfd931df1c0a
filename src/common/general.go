package common

import (
	"context"
	"errors"
	"etix/src/db"
	"etix/src/models"
	"etix/src/types"
	"fmt"
	"log"
	"time"

	"gorm.io/gorm"
)

// generalAdmissionStrategy reserves quantities per ticket type. The hot path
// takes no row locks: a held counter in the ledger overlays the durable
// available column, and the check-then-increment is optimistic. The narrow
// race this admits is closed at checkout by the conditional decrement in
// finalize, which is the durable guard against oversell.
type generalAdmissionStrategy struct {
	ledger Ledger
}

func (s *generalAdmissionStrategy) reserve(ctx context.Context, hold *Hold) error {
	gdb := db.GetDb()
	acquired := make([]types.HoldLineItem, 0, len(hold.Items))
	for _, item := range hold.Items {
		var tt models.TicketType
		if err := gdb.
			Where(&models.TicketType{ID: item.TicketTypeID}).
			First(&tt).
			Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				s.rollback(ctx, acquired)
				return fmt.Errorf("%w: unknown ticket type %d", ErrInvalidRequest, item.TicketTypeID)
			}
			s.rollback(ctx, acquired)
			return err
		}
		if err := s.checkSellable(&tt, hold.EventID); err != nil {
			s.rollback(ctx, acquired)
			return err
		}
		if tt.PerUserLimit > 0 {
			if err := checkUserCap(gdb, &tt, hold.UserID, item.Qty); err != nil {
				s.rollback(ctx, acquired)
				return err
			}
		}
		held, err := s.ledger.GetHeld(ctx, tt.ID)
		if err != nil {
			s.rollback(ctx, acquired)
			return err
		}
		if int64(tt.Available)-held < int64(item.Qty) {
			s.rollback(ctx, acquired)
			return fmt.Errorf("%w: insufficient quantity for ticket type %d (%s)", ErrResourcesUnavailable, tt.ID, tt.Tier)
		}
		if _, err := s.ledger.IncrHeld(ctx, tt.ID, int64(item.Qty)); err != nil {
			s.rollback(ctx, acquired)
			return err
		}
		acquired = append(acquired, item)
	}
	return nil
}

func (s *generalAdmissionStrategy) release(ctx context.Context, hold *Hold) error {
	var lastErr error
	for _, item := range hold.Items {
		if _, err := s.ledger.DecrHeld(ctx, item.TicketTypeID, int64(item.Qty)); err != nil {
			log.Printf("Error releasing %d held for ticket type %d: %s\n", item.Qty, item.TicketTypeID, err.Error())
			lastErr = err
		}
	}
	return lastErr
}

func (s *generalAdmissionStrategy) revalidate(ctx context.Context, hold *Hold) error {
	gdb := db.GetDb()
	for _, item := range hold.Items {
		var tt models.TicketType
		if err := gdb.
			Where(&models.TicketType{ID: item.TicketTypeID}).
			First(&tt).
			Error; err != nil {
			return err
		}
		if tt.Available < item.Qty {
			return fmt.Errorf("%w: insufficient quantity for ticket type %d (%s)", ErrResourcesUnavailable, tt.ID, tt.Tier)
		}
	}
	return nil
}

func (s *generalAdmissionStrategy) priceLines(ctx context.Context, hold *Hold) ([]models.PurchaseItem, string, error) {
	gdb := db.GetDb()
	items := make([]models.PurchaseItem, 0, len(hold.Items))
	currency := ""
	for _, item := range hold.Items {
		var tt models.TicketType
		if err := gdb.
			Where(&models.TicketType{ID: item.TicketTypeID}).
			First(&tt).
			Error; err != nil {
			return nil, "", err
		}
		if currency == "" {
			currency = tt.Currency
		}
		ticketTypeID := tt.ID
		items = append(items, models.PurchaseItem{
			TicketTypeID: &ticketTypeID,
			Qty:          item.Qty,
			UnitPrice:    tt.Price,
			Subtotal:     tt.Price * float32(item.Qty),
		})
	}
	return items, currency, nil
}

// finalize performs the durable conditional decrement. A row that cannot
// satisfy "available >= qty" fails the whole transaction; this is the
// backstop for the optimistic reservation in reserve.
func (s *generalAdmissionStrategy) finalize(tx *gorm.DB, hold *Hold, purchase *models.Purchase) error {
	for _, item := range hold.Items {
		res := tx.
			Model(&models.TicketType{}).
			Where("id = ? AND available >= ?", item.TicketTypeID, item.Qty).
			Update("available", gorm.Expr("available - ?", item.Qty))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return fmt.Errorf("%w: insufficient quantity for ticket type %d", ErrResourcesUnavailable, item.TicketTypeID)
		}
	}
	return nil
}

func (s *generalAdmissionStrategy) cleanup(ctx context.Context, hold *Hold) {
	for _, item := range hold.Items {
		if _, err := s.ledger.DecrHeld(ctx, item.TicketTypeID, int64(item.Qty)); err != nil {
			log.Printf("Error releasing %d held for ticket type %d: %s\n", item.Qty, item.TicketTypeID, err.Error())
		}
	}
}

func (s *generalAdmissionStrategy) rollback(ctx context.Context, acquired []types.HoldLineItem) {
	for _, item := range acquired {
		if _, err := s.ledger.DecrHeld(ctx, item.TicketTypeID, int64(item.Qty)); err != nil {
			log.Printf("Error rolling back %d held for ticket type %d: %s\n", item.Qty, item.TicketTypeID, err.Error())
		}
	}
}

func (s *generalAdmissionStrategy) checkSellable(tt *models.TicketType, eventID uint) error {
	if tt.EventID != eventID {
		return fmt.Errorf("%w: ticket type %d does not belong to event %d", ErrInvalidRequest, tt.ID, eventID)
	}
	if tt.Status != types.TICKET_TYPE_OPEN {
		return fmt.Errorf("%w: ticket type %d is not on sale", ErrInvalidRequest, tt.ID)
	}
	now := time.Now()
	if tt.SalesStart != nil && now.Before(*tt.SalesStart) {
		return fmt.Errorf("%w: sales for ticket type %d have not started", ErrInvalidRequest, tt.ID)
	}
	if tt.SalesEnd != nil && now.After(*tt.SalesEnd) {
		return fmt.Errorf("%w: sales for ticket type %d have ended", ErrInvalidRequest, tt.ID)
	}
	return nil
}

// checkUserCap counts quantities the user already purchased for the ticket
// type; quantities merely held elsewhere do not count against the cap.
func checkUserCap(gdb *gorm.DB, tt *models.TicketType, userID, qty uint) error {
	var purchased int64
	if err := gdb.
		Model(&models.PurchaseItem{}).
		Joins("JOIN purchases ON purchases.id = purchase_items.purchase_id").
		Where("purchases.user_id = ? AND purchase_items.ticket_type_id = ?", userID, tt.ID).
		Select("COALESCE(SUM(purchase_items.qty), 0)").
		Scan(&purchased).
		Error; err != nil {
		return err
	}
	if purchased+int64(qty) > int64(tt.PerUserLimit) {
		return fmt.Errorf("%w: per-user limit of %d exceeded for ticket type %d", ErrInvalidRequest, tt.PerUserLimit, tt.ID)
	}
	return nil
}

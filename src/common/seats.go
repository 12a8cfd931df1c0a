package common

import (
	"context"
	"etix/src/db"
	"etix/src/models"
	"etix/src/types"
	"fmt"
	"log"
	"sort"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// seatStrategy reserves specific seats for reserved and zoned seating. All
// requested seat rows are locked in one query so two overlapping requests
// serialize on the same lock set instead of deadlocking row by row.
type seatStrategy struct {
	ledger Ledger
}

func (s *seatStrategy) reserve(ctx context.Context, hold *Hold) error {
	gdb := db.GetDb()
	err := gdb.Transaction(func(tx *gorm.DB) error {
		var seats []models.SeatStatus
		if err := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("event_id = ? AND seat_id IN ?", hold.EventID, hold.SeatIDs).
			Find(&seats).
			Error; err != nil {
			return err
		}
		if len(seats) != len(hold.SeatIDs) {
			return fmt.Errorf("%w: %d of %d requested seats exist for event %d", ErrResourcesUnavailable, len(seats), len(hold.SeatIDs), hold.EventID)
		}
		for _, seat := range seats {
			if seat.State != types.SEAT_AVAILABLE {
				return fmt.Errorf("%w: seat %d is %s", ErrResourcesUnavailable, seat.SeatID, seat.State)
			}
		}
		if err := s.checkSeatCaps(tx, hold, seats); err != nil {
			return err
		}
		heldUntil := hold.ExpiresAt
		if err := tx.
			Model(&models.SeatStatus{}).
			Where("event_id = ? AND seat_id IN ?", hold.EventID, hold.SeatIDs).
			Updates(map[string]any{
				"state":      types.SEAT_HELD,
				"held_until": &heldUntil,
			}).
			Error; err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}
	// The lookup set is an overlay for cheap membership checks. Losing it
	// does not affect correctness, so a failure here is only logged.
	if err := s.ledger.AddHeldSeats(ctx, hold.EventID, hold.SeatIDs); err != nil {
		log.Printf("Error registering held seats for event %d: %s\n", hold.EventID, err.Error())
	}
	return nil
}

// checkSeatCaps applies per-user purchase limits to the ticket types the
// requested seats are priced under.
func (s *seatStrategy) checkSeatCaps(tx *gorm.DB, hold *Hold, seats []models.SeatStatus) error {
	counted := make(map[uint]uint)
	for _, seat := range seats {
		if seat.TicketTypeID == nil {
			continue
		}
		counted[*seat.TicketTypeID]++
	}
	ttIDs := make([]uint, 0, len(counted))
	for id := range counted {
		ttIDs = append(ttIDs, id)
	}
	sort.Slice(ttIDs, func(i, j int) bool { return ttIDs[i] < ttIDs[j] })
	for _, ttID := range ttIDs {
		var tt models.TicketType
		if err := tx.
			Where(&models.TicketType{ID: ttID}).
			First(&tt).
			Error; err != nil {
			return err
		}
		if tt.PerUserLimit == 0 {
			continue
		}
		if err := checkUserCap(tx, &tt, hold.UserID, counted[ttID]); err != nil {
			return err
		}
	}
	return nil
}

func (s *seatStrategy) release(ctx context.Context, hold *Hold) error {
	gdb := db.GetDb()
	err := gdb.Transaction(func(tx *gorm.DB) error {
		return tx.
			Model(&models.SeatStatus{}).
			Where("event_id = ? AND seat_id IN ? AND state = ?", hold.EventID, hold.SeatIDs, types.SEAT_HELD).
			Updates(map[string]any{
				"state":      types.SEAT_AVAILABLE,
				"held_until": nil,
			}).
			Error
	})
	if err != nil {
		return err
	}
	if err := s.ledger.RemoveHeldSeats(ctx, hold.EventID, hold.SeatIDs); err != nil {
		log.Printf("Error clearing held seats for event %d: %s\n", hold.EventID, err.Error())
	}
	return nil
}

func (s *seatStrategy) revalidate(ctx context.Context, hold *Hold) error {
	gdb := db.GetDb()
	var held int64
	if err := gdb.
		Model(&models.SeatStatus{}).
		Where("event_id = ? AND seat_id IN ? AND state = ?", hold.EventID, hold.SeatIDs, types.SEAT_HELD).
		Count(&held).
		Error; err != nil {
		return err
	}
	if held != int64(len(hold.SeatIDs)) {
		return fmt.Errorf("%w: %d of %d seats no longer held", ErrResourcesUnavailable, int64(len(hold.SeatIDs))-held, len(hold.SeatIDs))
	}
	return nil
}

func (s *seatStrategy) priceLines(ctx context.Context, hold *Hold) ([]models.PurchaseItem, string, error) {
	gdb := db.GetDb()
	var seats []models.SeatStatus
	if err := gdb.
		Where("event_id = ? AND seat_id IN ?", hold.EventID, hold.SeatIDs).
		Find(&seats).
		Error; err != nil {
		return nil, "", err
	}
	if len(seats) != len(hold.SeatIDs) {
		return nil, "", fmt.Errorf("%w: seat records missing for event %d", ErrResourcesUnavailable, hold.EventID)
	}
	items := make([]models.PurchaseItem, 0, len(seats))
	currency := ""
	for _, seat := range seats {
		if seat.TicketTypeID == nil {
			return nil, "", fmt.Errorf("seat %d of event %d has no ticket type assigned", seat.SeatID, hold.EventID)
		}
		var tt models.TicketType
		if err := gdb.
			Where(&models.TicketType{ID: *seat.TicketTypeID}).
			First(&tt).
			Error; err != nil {
			return nil, "", err
		}
		if currency == "" {
			currency = tt.Currency
		}
		seatStatusID := seat.ID
		ticketTypeID := tt.ID
		items = append(items, models.PurchaseItem{
			SeatStatusID: &seatStatusID,
			TicketTypeID: &ticketTypeID,
			Qty:          1,
			UnitPrice:    tt.Price,
			Subtotal:     tt.Price,
		})
	}
	return items, currency, nil
}

func (s *seatStrategy) finalize(tx *gorm.DB, hold *Hold, purchase *models.Purchase) error {
	for _, item := range purchase.Items {
		if item.SeatStatusID == nil {
			continue
		}
		res := tx.
			Model(&models.SeatStatus{}).
			Where("id = ? AND state = ?", *item.SeatStatusID, types.SEAT_HELD).
			Updates(map[string]any{
				"state":             types.SEAT_SOLD,
				"held_until":        nil,
				"purchase_id":       purchase.ID,
				"price_at_purchase": item.UnitPrice,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 1 {
			return fmt.Errorf("%w: seat status %d was not in held state", ErrResourcesUnavailable, *item.SeatStatusID)
		}
	}
	return nil
}

func (s *seatStrategy) cleanup(ctx context.Context, hold *Hold) {
	if err := s.ledger.RemoveHeldSeats(ctx, hold.EventID, hold.SeatIDs); err != nil {
		log.Printf("Error clearing held seats for event %d: %s\n", hold.EventID, err.Error())
	}
}

package common

import (
	"context"
	"errors"
	"etix/src/config"
	"etix/src/db"
	"etix/src/models"
	"etix/src/monitoring"
	"etix/src/types"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// reservationStrategy is the per-selection-mode reservation behavior. reserve
// must be all-or-nothing: on error nothing stays acquired. release must be
// safe to run against resources that were already partially reclaimed.
type reservationStrategy interface {
	reserve(ctx context.Context, hold *Hold) error
	release(ctx context.Context, hold *Hold) error
	revalidate(ctx context.Context, hold *Hold) error
	finalize(tx *gorm.DB, hold *Hold, purchase *models.Purchase) error
	priceLines(ctx context.Context, hold *Hold) ([]models.PurchaseItem, string, error)
	cleanup(ctx context.Context, hold *Hold)
}

type HoldService struct {
	ledger     Ledger
	strategies map[types.SelectionMode]reservationStrategy
}

func NewHoldService(l Ledger) *HoldService {
	s := &HoldService{ledger: l}
	s.strategies = map[types.SelectionMode]reservationStrategy{
		types.GENERAL_ADMISSION: &generalAdmissionStrategy{ledger: l},
		types.ZONED_ADMISSION:   &seatStrategy{ledger: l},
		types.RESERVED_SEATING:  &seatStrategy{ledger: l},
	}
	return s
}

func (s *HoldService) strategyFor(mode types.SelectionMode) (reservationStrategy, error) {
	strat, ok := s.strategies[mode]
	if !ok {
		return nil, fmt.Errorf("%w: unknown selection mode %q", ErrInvalidRequest, mode)
	}
	return strat, nil
}

// CreateHold reserves the requested seats or quantities and records the hold
// in the ledger. The reservation step is the exclusion mechanism; the ledger
// entry exists so release and expiry know what to give back.
func (s *HoldService) CreateHold(ctx context.Context, userID uint, body *types.CreateHoldRequestBody) (*Hold, error) {
	var event models.Event
	if err := db.GetDb().
		Where(&models.Event{ID: body.EventID}).
		First(&event).
		Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: unknown event %d", ErrInvalidRequest, body.EventID)
		}
		return nil, err
	}
	if event.Status != types.EVENT_OPEN {
		return nil, fmt.Errorf("%w: event %d is not open for sale", ErrInvalidRequest, event.ID)
	}
	if time.Now().After(event.Deadline) {
		return nil, fmt.Errorf("%w: sales deadline for event %d has passed", ErrInvalidRequest, event.ID)
	}
	if err := validateSelection(&event, body); err != nil {
		return nil, err
	}
	strat, err := s.strategyFor(event.SelectionMode)
	if err != nil {
		return nil, err
	}

	ttl := config.HoldTTL()
	hold := &Hold{
		ID:        uuid.NewString(),
		EventID:   event.ID,
		UserID:    userID,
		Mode:      event.SelectionMode,
		SeatIDs:   body.SeatIDs,
		Items:     body.Items,
		ExpiresAt: time.Now().Add(ttl),
	}
	if err := strat.reserve(ctx, hold); err != nil {
		return nil, err
	}
	if err := s.ledger.PutHold(ctx, hold, ttl); err != nil {
		// The reservation went through but nothing tracks it now. Undo it.
		if rerr := strat.release(ctx, hold); rerr != nil {
			log.Printf("Error rolling back reservation for hold %s: %s\n", hold.ID, rerr.Error())
		}
		return nil, err
	}
	monitoring.HoldsCreated.WithLabelValues(string(hold.Mode)).Inc()
	return hold, nil
}

// GetHold returns the hold only to its owner, and only while it is claimable.
func (s *HoldService) GetHold(ctx context.Context, id string, userID uint) (*Hold, error) {
	hold, err := s.ledger.GetHold(ctx, id)
	if err != nil {
		if errors.Is(err, ErrCorruptHold) {
			return nil, ErrHoldNotFound
		}
		return nil, err
	}
	if hold.UserID != userID {
		return nil, ErrForbidden
	}
	if hold.Expired(time.Now()) {
		return nil, ErrHoldNotFound
	}
	return hold, nil
}

// ReleaseHold frees the hold's resources and removes it from the ledger.
// Deleting the ledger entry first makes the release single-shot: the caller
// that wins the delete performs the release, every other caller sees NotFound.
func (s *HoldService) ReleaseHold(ctx context.Context, id string, userID uint) error {
	hold, err := s.ledger.GetHold(ctx, id)
	if err != nil {
		if errors.Is(err, ErrCorruptHold) {
			return ErrHoldNotFound
		}
		return err
	}
	if hold.UserID != userID {
		return ErrForbidden
	}
	ok, err := s.ledger.DeleteHold(ctx, id)
	if err != nil {
		return err
	}
	if !ok {
		return ErrHoldNotFound
	}
	strat, err := s.strategyFor(hold.Mode)
	if err != nil {
		return err
	}
	if err := strat.release(ctx, hold); err != nil {
		return err
	}
	monitoring.HoldsReleased.WithLabelValues("user").Inc()
	return nil
}

func validateSelection(event *models.Event, body *types.CreateHoldRequestBody) error {
	switch event.SelectionMode {
	case types.GENERAL_ADMISSION:
		if len(body.SeatIDs) > 0 {
			return fmt.Errorf("%w: seat selection not allowed for general admission", ErrInvalidRequest)
		}
		if len(body.Items) == 0 {
			return fmt.Errorf("%w: no line items requested", ErrInvalidRequest)
		}
		seen := make(map[uint]bool)
		for _, item := range body.Items {
			if item.Qty < 1 {
				return fmt.Errorf("%w: quantity must be at least 1", ErrInvalidRequest)
			}
			if seen[item.TicketTypeID] {
				return fmt.Errorf("%w: duplicate ticket type %d", ErrInvalidRequest, item.TicketTypeID)
			}
			seen[item.TicketTypeID] = true
		}
	case types.ZONED_ADMISSION, types.RESERVED_SEATING:
		if len(body.Items) > 0 {
			return fmt.Errorf("%w: line items not allowed for seated events", ErrInvalidRequest)
		}
		if len(body.SeatIDs) == 0 {
			return fmt.Errorf("%w: no seats requested", ErrInvalidRequest)
		}
		seen := make(map[uint]bool)
		for _, id := range body.SeatIDs {
			if seen[id] {
				return fmt.Errorf("%w: duplicate seat %d", ErrInvalidRequest, id)
			}
			seen[id] = true
		}
	default:
		return fmt.Errorf("%w: unknown selection mode %q", ErrInvalidRequest, event.SelectionMode)
	}
	return nil
}

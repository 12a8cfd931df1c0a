package common

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryLedger is a process-local Ledger used in tests and single-node
// deployments without Redis. Entries are kept past expiry until a sweep or
// an explicit delete removes them, matching the grace window of RedisLedger.
type MemoryLedger struct {
	mu    sync.Mutex
	holds map[string][]byte
	held  map[uint]int64
	seats map[uint]map[uint]struct{}
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{
		holds: make(map[string][]byte),
		held:  make(map[uint]int64),
		seats: make(map[uint]map[uint]struct{}),
	}
}

func (l *MemoryLedger) PutHold(ctx context.Context, hold *Hold, ttl time.Duration) error {
	b, err := json.Marshal(hold)
	if err != nil {
		return err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	l.holds[hold.ID] = b
	return nil
}

// PutRawHold stores an entry verbatim, bypassing serialization.
func (l *MemoryLedger) PutRawHold(id string, b []byte) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.holds[id] = b
}

func (l *MemoryLedger) GetHold(ctx context.Context, id string) (*Hold, error) {
	l.mu.Lock()
	b, ok := l.holds[id]
	l.mu.Unlock()
	if !ok {
		return nil, ErrHoldNotFound
	}
	var hold Hold
	if err := json.Unmarshal(b, &hold); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCorruptHold, err.Error())
	}
	return &hold, nil
}

func (l *MemoryLedger) DeleteHold(ctx context.Context, id string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.holds[id]
	delete(l.holds, id)
	return ok, nil
}

func (l *MemoryLedger) ScanHolds(ctx context.Context) ([]string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ids := make([]string, 0, len(l.holds))
	for id := range l.holds {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids, nil
}

func (l *MemoryLedger) IncrHeld(ctx context.Context, ticketTypeID uint, qty int64) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.held[ticketTypeID] += qty
	return l.held[ticketTypeID], nil
}

func (l *MemoryLedger) DecrHeld(ctx context.Context, ticketTypeID uint, qty int64) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := l.held[ticketTypeID] - qty
	if n <= 0 {
		delete(l.held, ticketTypeID)
		return 0, nil
	}
	l.held[ticketTypeID] = n
	return n, nil
}

func (l *MemoryLedger) GetHeld(ctx context.Context, ticketTypeID uint) (int64, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.held[ticketTypeID], nil
}

func (l *MemoryLedger) AddHeldSeats(ctx context.Context, eventID uint, seatIDs []uint) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	set, ok := l.seats[eventID]
	if !ok {
		set = make(map[uint]struct{})
		l.seats[eventID] = set
	}
	for _, id := range seatIDs {
		set[id] = struct{}{}
	}
	return nil
}

func (l *MemoryLedger) RemoveHeldSeats(ctx context.Context, eventID uint, seatIDs []uint) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	set, ok := l.seats[eventID]
	if !ok {
		return nil
	}
	for _, id := range seatIDs {
		delete(set, id)
	}
	if len(set) == 0 {
		delete(l.seats, eventID)
	}
	return nil
}

func (l *MemoryLedger) HeldSeats(ctx context.Context, eventID uint) ([]uint, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	seatIDs := make([]uint, 0, len(l.seats[eventID]))
	for id := range l.seats[eventID] {
		seatIDs = append(seatIDs, id)
	}
	sort.Slice(seatIDs, func(i, j int) bool { return seatIDs[i] < seatIDs[j] })
	return seatIDs, nil
}

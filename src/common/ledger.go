package common

import (
	"context"
	"encoding/json"
	"etix/src/lib"
	"etix/src/types"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Hold is the ledger record of a pending reservation. It never touches the
// relational store: the entry under hold:<id> is the single source of truth
// for whether a hold is still claimable.
type Hold struct {
	ID        string               `json:"id"`
	EventID   uint                 `json:"event"`
	UserID    uint                 `json:"user"`
	Mode      types.SelectionMode  `json:"mode"`
	SeatIDs   []uint               `json:"seats,omitempty"`
	Items     []types.HoldLineItem `json:"items,omitempty"`
	ExpiresAt time.Time            `json:"expires_at"`
}

func (h *Hold) Expired(now time.Time) bool {
	return now.After(h.ExpiresAt)
}

// Ledger tracks hold entries, per-ticket-type held counters and per-event
// held seat sets. Counters never go below zero.
type Ledger interface {
	PutHold(ctx context.Context, hold *Hold, ttl time.Duration) error
	GetHold(ctx context.Context, id string) (*Hold, error)
	DeleteHold(ctx context.Context, id string) (bool, error)
	ScanHolds(ctx context.Context) ([]string, error)
	IncrHeld(ctx context.Context, ticketTypeID uint, qty int64) (int64, error)
	DecrHeld(ctx context.Context, ticketTypeID uint, qty int64) (int64, error)
	GetHeld(ctx context.Context, ticketTypeID uint) (int64, error)
	AddHeldSeats(ctx context.Context, eventID uint, seatIDs []uint) error
	RemoveHeldSeats(ctx context.Context, eventID uint, seatIDs []uint) error
	HeldSeats(ctx context.Context, eventID uint) ([]uint, error)
}

var ledger Ledger

func GetLedger() Ledger {
	if ledger != nil {
		return ledger
	}
	ledger = NewRedisLedger(lib.GetRedisClient())
	return ledger
}

// SetLedger Replace ledger instance with custom implementation
func SetLedger(l Ledger) Ledger {
	ledger = l
	return ledger
}

// holdKeyGrace keeps expired entries around past their logical deadline so
// the sweeper can release what they reserved before Redis drops the key.
const holdKeyGrace = time.Hour

// decrHeldScript decrements a held counter without letting it go negative
// and drops the key once it reaches zero.
const decrHeldScript = `local v = tonumber(redis.call('GET', KEYS[1]) or '0')
local d = tonumber(ARGV[1])
if d > v then d = v end
local n = v - d
if n <= 0 then
  redis.call('DEL', KEYS[1])
  return 0
end
redis.call('SET', KEYS[1], n)
return n`

type RedisLedger struct {
	rdb *redis.Client
}

func NewRedisLedger(rdb *redis.Client) *RedisLedger {
	return &RedisLedger{rdb: rdb}
}

func holdKey(id string) string {
	return fmt.Sprintf("hold:%s", id)
}

func heldCountKey(ticketTypeID uint) string {
	return fmt.Sprintf("ga-held:%d", ticketTypeID)
}

func heldSeatsKey(eventID uint) string {
	return fmt.Sprintf("event-held-seats:%d", eventID)
}

func (l *RedisLedger) PutHold(ctx context.Context, hold *Hold, ttl time.Duration) error {
	b, err := json.Marshal(hold)
	if err != nil {
		return err
	}
	return l.rdb.SetEx(ctx, holdKey(hold.ID), string(b), ttl+holdKeyGrace).Err()
}

func (l *RedisLedger) GetHold(ctx context.Context, id string) (*Hold, error) {
	val, err := l.rdb.Get(ctx, holdKey(id)).Result()
	if err == redis.Nil {
		return nil, ErrHoldNotFound
	}
	if err != nil {
		return nil, err
	}
	var hold Hold
	if err := json.Unmarshal([]byte(val), &hold); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrCorruptHold, err.Error())
	}
	return &hold, nil
}

func (l *RedisLedger) DeleteHold(ctx context.Context, id string) (bool, error) {
	n, err := l.rdb.Del(ctx, holdKey(id)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (l *RedisLedger) ScanHolds(ctx context.Context) ([]string, error) {
	ids := make([]string, 0)
	var cursor uint64
	for {
		keys, next, err := l.rdb.Scan(ctx, cursor, "hold:*", 100).Result()
		if err != nil {
			return nil, err
		}
		for _, key := range keys {
			ids = append(ids, key[len("hold:"):])
		}
		cursor = next
		if cursor == 0 {
			break
		}
	}
	return ids, nil
}

func (l *RedisLedger) IncrHeld(ctx context.Context, ticketTypeID uint, qty int64) (int64, error) {
	return l.rdb.IncrBy(ctx, heldCountKey(ticketTypeID), qty).Result()
}

func (l *RedisLedger) DecrHeld(ctx context.Context, ticketTypeID uint, qty int64) (int64, error) {
	n, err := l.rdb.Eval(ctx, decrHeldScript, []string{heldCountKey(ticketTypeID)}, qty).Int64()
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (l *RedisLedger) GetHeld(ctx context.Context, ticketTypeID uint) (int64, error) {
	n, err := l.rdb.Get(ctx, heldCountKey(ticketTypeID)).Int64()
	if err == redis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (l *RedisLedger) AddHeldSeats(ctx context.Context, eventID uint, seatIDs []uint) error {
	if len(seatIDs) == 0 {
		return nil
	}
	members := make([]any, 0, len(seatIDs))
	for _, id := range seatIDs {
		members = append(members, strconv.FormatUint(uint64(id), 10))
	}
	return l.rdb.SAdd(ctx, heldSeatsKey(eventID), members...).Err()
}

func (l *RedisLedger) RemoveHeldSeats(ctx context.Context, eventID uint, seatIDs []uint) error {
	if len(seatIDs) == 0 {
		return nil
	}
	members := make([]any, 0, len(seatIDs))
	for _, id := range seatIDs {
		members = append(members, strconv.FormatUint(uint64(id), 10))
	}
	return l.rdb.SRem(ctx, heldSeatsKey(eventID), members...).Err()
}

func (l *RedisLedger) HeldSeats(ctx context.Context, eventID uint) ([]uint, error) {
	vals, err := l.rdb.SMembers(ctx, heldSeatsKey(eventID)).Result()
	if err != nil {
		return nil, err
	}
	seatIDs := make([]uint, 0, len(vals))
	for _, val := range vals {
		id, err := strconv.ParseUint(val, 10, 64)
		if err != nil {
			continue
		}
		seatIDs = append(seatIDs, uint(id))
	}
	return seatIDs, nil
}

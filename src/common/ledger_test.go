package common

import (
	"context"
	"encoding/json"
	"etix/src/types"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
)

func TestRedisLedgerHoldRoundTrip(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	l := NewRedisLedger(rdb)
	ctx := context.Background()

	hold := &Hold{
		ID:      "f6a7b3de-14c9-4e0a-9c30-2b7f7e2a9b11",
		EventID: 1,
		UserID:  2,
		Mode:    types.GENERAL_ADMISSION,
		Items: []types.HoldLineItem{
			{TicketTypeID: 3, Qty: 2},
		},
		ExpiresAt: time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	b, err := json.Marshal(hold)
	assert.Nil(t, err)

	mock.ExpectSetEx("hold:"+hold.ID, string(b), 10*time.Minute+holdKeyGrace).SetVal("OK")
	err = l.PutHold(ctx, hold, 10*time.Minute)
	assert.Nil(t, err)

	mock.ExpectGet("hold:" + hold.ID).SetVal(string(b))
	got, err := l.GetHold(ctx, hold.ID)
	assert.Nil(t, err)
	assert.Equal(t, hold.EventID, got.EventID)
	assert.Equal(t, hold.Items, got.Items)
	assert.True(t, hold.ExpiresAt.Equal(got.ExpiresAt))

	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestRedisLedgerGetHoldMissing(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	l := NewRedisLedger(rdb)

	mock.ExpectGet("hold:nope").RedisNil()
	_, err := l.GetHold(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrHoldNotFound)
}

func TestRedisLedgerGetHoldCorrupt(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	l := NewRedisLedger(rdb)

	mock.ExpectGet("hold:bad").SetVal("{not json")
	_, err := l.GetHold(context.Background(), "bad")
	assert.ErrorIs(t, err, ErrCorruptHold)
}

func TestRedisLedgerDeleteHold(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	l := NewRedisLedger(rdb)
	ctx := context.Background()

	mock.ExpectDel("hold:abc").SetVal(1)
	ok, err := l.DeleteHold(ctx, "abc")
	assert.Nil(t, err)
	assert.True(t, ok)

	mock.ExpectDel("hold:abc").SetVal(0)
	ok, err = l.DeleteHold(ctx, "abc")
	assert.Nil(t, err)
	assert.False(t, ok)
}

func TestRedisLedgerScanHolds(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	l := NewRedisLedger(rdb)

	mock.ExpectScan(0, "hold:*", 100).SetVal([]string{"hold:a", "hold:b"}, 0)
	ids, err := l.ScanHolds(context.Background())
	assert.Nil(t, err)
	assert.Equal(t, []string{"a", "b"}, ids)
}

func TestRedisLedgerHeldCounters(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	l := NewRedisLedger(rdb)
	ctx := context.Background()

	mock.ExpectIncrBy("ga-held:3", 2).SetVal(2)
	n, err := l.IncrHeld(ctx, 3, 2)
	assert.Nil(t, err)
	assert.Equal(t, int64(2), n)

	mock.ExpectGet("ga-held:3").SetVal("2")
	n, err = l.GetHeld(ctx, 3)
	assert.Nil(t, err)
	assert.Equal(t, int64(2), n)

	mock.ExpectGet("ga-held:9").RedisNil()
	n, err = l.GetHeld(ctx, 9)
	assert.Nil(t, err)
	assert.Equal(t, int64(0), n)

	mock.ExpectEval(decrHeldScript, []string{"ga-held:3"}, int64(2)).SetVal(int64(0))
	n, err = l.DecrHeld(ctx, 3, 2)
	assert.Nil(t, err)
	assert.Equal(t, int64(0), n)

	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestRedisLedgerHeldSeats(t *testing.T) {
	rdb, mock := redismock.NewClientMock()
	l := NewRedisLedger(rdb)
	ctx := context.Background()

	mock.ExpectSAdd("event-held-seats:1", "5", "7").SetVal(2)
	err := l.AddHeldSeats(ctx, 1, []uint{5, 7})
	assert.Nil(t, err)

	mock.ExpectSMembers("event-held-seats:1").SetVal([]string{"5", "7"})
	seats, err := l.HeldSeats(ctx, 1)
	assert.Nil(t, err)
	assert.Equal(t, []uint{5, 7}, seats)

	mock.ExpectSRem("event-held-seats:1", "5", "7").SetVal(2)
	err = l.RemoveHeldSeats(ctx, 1, []uint{5, 7})
	assert.Nil(t, err)

	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestMemoryLedgerDecrBoundedAtZero(t *testing.T) {
	l := NewMemoryLedger()
	ctx := context.Background()

	n, err := l.IncrHeld(ctx, 1, 3)
	assert.Nil(t, err)
	assert.Equal(t, int64(3), n)

	n, err = l.DecrHeld(ctx, 1, 5)
	assert.Nil(t, err)
	assert.Equal(t, int64(0), n)

	n, err = l.DecrHeld(ctx, 1, 1)
	assert.Nil(t, err)
	assert.Equal(t, int64(0), n)
}

func TestMemoryLedgerDeleteHoldIdempotent(t *testing.T) {
	l := NewMemoryLedger()
	ctx := context.Background()

	hold := &Hold{ID: "x", EventID: 1, UserID: 1, Mode: types.GENERAL_ADMISSION, ExpiresAt: time.Now().Add(time.Minute)}
	assert.Nil(t, l.PutHold(ctx, hold, time.Minute))

	ok, err := l.DeleteHold(ctx, "x")
	assert.Nil(t, err)
	assert.True(t, ok)

	ok, err = l.DeleteHold(ctx, "x")
	assert.Nil(t, err)
	assert.False(t, ok)
}

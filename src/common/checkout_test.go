package common

import (
	"context"
	"etix/src/models"
	"etix/src/types"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func muteConfirmations(t *testing.T) {
	SetConfirmFunc(func(*models.Purchase) {})
	t.Cleanup(func() {
		SetConfirmFunc(SendPurchaseConfirmation)
	})
}

func TestCheckoutGeneralAdmissionSuccess(t *testing.T) {
	mock := newMockDB(t)
	mem := NewMemoryLedger()
	svc := NewCheckoutService(NewHoldService(mem))
	muteConfirmations(t)
	ctx := context.Background()

	hold := &Hold{ID: "c1", EventID: 1, UserID: 2, Mode: types.GENERAL_ADMISSION,
		Items:     []types.HoldLineItem{{TicketTypeID: 3, Qty: 2}},
		ExpiresAt: futureTime()}
	mem.PutHold(ctx, hold, 0)
	mem.IncrHeld(ctx, 3, 2)

	mock.ExpectQuery(`SELECT (.+) FROM "ticket_types"`).
		WillReturnRows(ticketTypeRows(3, 1, 25, 10, 10, 0))
	mock.ExpectQuery(`SELECT (.+) FROM "ticket_types"`).
		WillReturnRows(ticketTypeRows(3, 1, 25, 10, 10, 0))
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "purchases"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery(`INSERT INTO "purchase_items"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectExec(`UPDATE "ticket_types"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	purchase, err := svc.Checkout(ctx, 2, &types.CheckoutRequestBody{
		HoldID:       "c1",
		Provider:     "mock",
		PaymentToken: "tok_visa",
	})
	assert.Nil(t, err)
	assert.Equal(t, float32(50), purchase.Subtotal)
	assert.Equal(t, float32(5), purchase.ServiceFee)
	assert.Equal(t, float32(55), purchase.Total)
	assert.Equal(t, "USD", purchase.Currency)
	assert.True(t, strings.HasPrefix(purchase.PaymentTxn, "mock_"))
	assert.Equal(t, types.PURCHASE_PAID, purchase.Status)
	assert.Len(t, purchase.Items, 1)

	_, err = mem.GetHold(ctx, "c1")
	assert.ErrorIs(t, err, ErrHoldNotFound)
	held, _ := mem.GetHeld(ctx, 3)
	assert.Equal(t, int64(0), held)

	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestCheckoutSeatSuccess(t *testing.T) {
	mock := newMockDB(t)
	mem := NewMemoryLedger()
	svc := NewCheckoutService(NewHoldService(mem))
	muteConfirmations(t)
	ctx := context.Background()

	hold := &Hold{ID: "c2", EventID: 1, UserID: 2, Mode: types.RESERVED_SEATING,
		SeatIDs:   []uint{10, 11},
		ExpiresAt: futureTime()}
	mem.PutHold(ctx, hold, 0)
	mem.AddHeldSeats(ctx, 1, []uint{10, 11})

	mock.ExpectQuery(`SELECT count\(\*\) FROM "seat_statuses"`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery(`SELECT (.+) FROM "seat_statuses"`).
		WillReturnRows(seatStatusRows(1, types.SEAT_HELD, 3, 10, 11))
	mock.ExpectQuery(`SELECT (.+) FROM "ticket_types"`).
		WillReturnRows(ticketTypeRows(3, 1, 40, 100, 100, 0))
	mock.ExpectQuery(`SELECT (.+) FROM "ticket_types"`).
		WillReturnRows(ticketTypeRows(3, 1, 40, 100, 100, 0))
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "purchases"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	mock.ExpectQuery(`INSERT INTO "purchase_items"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2))
	mock.ExpectExec(`UPDATE "seat_statuses"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`UPDATE "seat_statuses"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	purchase, err := svc.Checkout(ctx, 2, &types.CheckoutRequestBody{
		HoldID:       "c2",
		Provider:     "mock",
		PaymentToken: "tok_visa",
	})
	assert.Nil(t, err)
	assert.Equal(t, float32(80), purchase.Subtotal)
	assert.Equal(t, float32(88), purchase.Total)
	assert.Len(t, purchase.Items, 2)

	_, err = mem.GetHold(ctx, "c2")
	assert.ErrorIs(t, err, ErrHoldNotFound)
	seats, _ := mem.HeldSeats(ctx, 1)
	assert.Empty(t, seats)

	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestCheckoutPaymentDeclinedKeepsHold(t *testing.T) {
	mock := newMockDB(t)
	mem := NewMemoryLedger()
	svc := NewCheckoutService(NewHoldService(mem))
	ctx := context.Background()

	hold := &Hold{ID: "c3", EventID: 1, UserID: 2, Mode: types.GENERAL_ADMISSION,
		Items:     []types.HoldLineItem{{TicketTypeID: 3, Qty: 2}},
		ExpiresAt: futureTime()}
	mem.PutHold(ctx, hold, 0)
	mem.IncrHeld(ctx, 3, 2)

	mock.ExpectQuery(`SELECT (.+) FROM "ticket_types"`).
		WillReturnRows(ticketTypeRows(3, 1, 25, 10, 10, 0))
	mock.ExpectQuery(`SELECT (.+) FROM "ticket_types"`).
		WillReturnRows(ticketTypeRows(3, 1, 25, 10, 10, 0))

	_, err := svc.Checkout(ctx, 2, &types.CheckoutRequestBody{
		HoldID:       "c3",
		Provider:     "mock",
		PaymentToken: "tok_declined",
	})
	assert.ErrorIs(t, err, ErrPaymentFailed)

	got, err := mem.GetHold(ctx, "c3")
	assert.Nil(t, err, "hold must stay claimable after a declined payment")
	assert.Equal(t, "c3", got.ID)
	held, _ := mem.GetHeld(ctx, 3)
	assert.Equal(t, int64(2), held)

	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestCheckoutOwnerMismatch(t *testing.T) {
	newMockDB(t)
	mem := NewMemoryLedger()
	svc := NewCheckoutService(NewHoldService(mem))
	ctx := context.Background()

	hold := &Hold{ID: "c4", EventID: 1, UserID: 2, Mode: types.GENERAL_ADMISSION,
		Items:     []types.HoldLineItem{{TicketTypeID: 3, Qty: 1}},
		ExpiresAt: futureTime()}
	mem.PutHold(ctx, hold, 0)

	_, err := svc.Checkout(ctx, 9, &types.CheckoutRequestBody{
		HoldID:       "c4",
		Provider:     "mock",
		PaymentToken: "tok_visa",
	})
	assert.ErrorIs(t, err, ErrForbidden)
}

func TestCheckoutExpiredHold(t *testing.T) {
	newMockDB(t)
	mem := NewMemoryLedger()
	svc := NewCheckoutService(NewHoldService(mem))
	ctx := context.Background()

	hold := &Hold{ID: "c5", EventID: 1, UserID: 2, Mode: types.GENERAL_ADMISSION,
		Items:     []types.HoldLineItem{{TicketTypeID: 3, Qty: 1}},
		ExpiresAt: expiredTime()}
	mem.PutHold(ctx, hold, 0)

	_, err := svc.Checkout(ctx, 2, &types.CheckoutRequestBody{
		HoldID:       "c5",
		Provider:     "mock",
		PaymentToken: "tok_visa",
	})
	assert.ErrorIs(t, err, ErrHoldNotFound)
}

func TestCheckoutRevalidationFailsBeforeCharge(t *testing.T) {
	mock := newMockDB(t)
	mem := NewMemoryLedger()
	svc := NewCheckoutService(NewHoldService(mem))
	ctx := context.Background()

	hold := &Hold{ID: "c6", EventID: 1, UserID: 2, Mode: types.GENERAL_ADMISSION,
		Items:     []types.HoldLineItem{{TicketTypeID: 3, Qty: 2}},
		ExpiresAt: futureTime()}
	mem.PutHold(ctx, hold, 0)
	mem.IncrHeld(ctx, 3, 2)

	mock.ExpectQuery(`SELECT (.+) FROM "ticket_types"`).
		WillReturnRows(ticketTypeRows(3, 1, 25, 10, 1, 0))

	_, err := svc.Checkout(ctx, 2, &types.CheckoutRequestBody{
		HoldID:       "c6",
		Provider:     "mock",
		PaymentToken: "tok_visa",
	})
	assert.ErrorIs(t, err, ErrResourcesUnavailable)

	assert.Nil(t, mock.ExpectationsWereMet())
}

// reclaimedLedger lets an expiry sweep win the delete race: the first
// DeleteHold call reclaims the entry and its held quantity itself, so the
// caller's own delete reports the key as already gone.
type reclaimedLedger struct {
	*MemoryLedger
	reclaimed bool
}

func (l *reclaimedLedger) DeleteHold(ctx context.Context, id string) (bool, error) {
	if !l.reclaimed {
		l.reclaimed = true
		if ok, _ := l.MemoryLedger.DeleteHold(ctx, id); ok {
			l.MemoryLedger.DecrHeld(ctx, 3, 2)
		}
	}
	return l.MemoryLedger.DeleteHold(ctx, id)
}

func TestCheckoutSkipsCleanupWhenSweepWinsDelete(t *testing.T) {
	mock := newMockDB(t)
	mem := &reclaimedLedger{MemoryLedger: NewMemoryLedger()}
	svc := NewCheckoutService(NewHoldService(mem))
	muteConfirmations(t)
	ctx := context.Background()

	hold := &Hold{ID: "c8", EventID: 1, UserID: 2, Mode: types.GENERAL_ADMISSION,
		Items:     []types.HoldLineItem{{TicketTypeID: 3, Qty: 2}},
		ExpiresAt: futureTime()}
	other := &Hold{ID: "c9", EventID: 1, UserID: 5, Mode: types.GENERAL_ADMISSION,
		Items:     []types.HoldLineItem{{TicketTypeID: 3, Qty: 2}},
		ExpiresAt: futureTime()}
	mem.PutHold(ctx, hold, 0)
	mem.PutHold(ctx, other, 0)
	mem.IncrHeld(ctx, 3, 4)

	mock.ExpectQuery(`SELECT (.+) FROM "ticket_types"`).
		WillReturnRows(ticketTypeRows(3, 1, 25, 10, 10, 0))
	mock.ExpectQuery(`SELECT (.+) FROM "ticket_types"`).
		WillReturnRows(ticketTypeRows(3, 1, 25, 10, 10, 0))
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "purchases"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery(`INSERT INTO "purchase_items"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectExec(`UPDATE "ticket_types"`).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	purchase, err := svc.Checkout(ctx, 2, &types.CheckoutRequestBody{
		HoldID:       "c8",
		Provider:     "mock",
		PaymentToken: "tok_visa",
	})
	assert.Nil(t, err)
	assert.NotNil(t, purchase)

	held, _ := mem.GetHeld(ctx, 3)
	assert.Equal(t, int64(2), held, "the surviving hold's claim must stay intact")

	assert.Nil(t, mock.ExpectationsWereMet())
}

func TestCheckoutCommitFailureRecordsOrphanedCharge(t *testing.T) {
	mock := newMockDB(t)
	mem := NewMemoryLedger()
	svc := NewCheckoutService(NewHoldService(mem))
	muteConfirmations(t)
	ctx := context.Background()

	hold := &Hold{ID: "c7", EventID: 1, UserID: 2, Mode: types.GENERAL_ADMISSION,
		Items:     []types.HoldLineItem{{TicketTypeID: 3, Qty: 2}},
		ExpiresAt: futureTime()}
	mem.PutHold(ctx, hold, 0)
	mem.IncrHeld(ctx, 3, 2)

	mock.ExpectQuery(`SELECT (.+) FROM "ticket_types"`).
		WillReturnRows(ticketTypeRows(3, 1, 25, 10, 10, 0))
	mock.ExpectQuery(`SELECT (.+) FROM "ticket_types"`).
		WillReturnRows(ticketTypeRows(3, 1, 25, 10, 10, 0))
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "purchases"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectQuery(`INSERT INTO "purchase_items"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectExec(`UPDATE "ticket_types"`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()
	mock.ExpectBegin()
	mock.ExpectQuery(`INSERT INTO "orphaned_charges"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	mock.ExpectCommit()

	_, err := svc.Checkout(ctx, 2, &types.CheckoutRequestBody{
		HoldID:       "c7",
		Provider:     "mock",
		PaymentToken: "tok_visa",
	})
	assert.ErrorIs(t, err, ErrPersistenceInconsistency)

	_, err = mem.GetHold(ctx, "c7")
	assert.Nil(t, err, "hold must not be deleted when the commit fails")

	assert.Nil(t, mock.ExpectationsWereMet())
}

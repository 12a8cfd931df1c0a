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
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type CheckoutService struct {
	holds *HoldService
}

func NewCheckoutService(holds *HoldService) *CheckoutService {
	return &CheckoutService{holds: holds}
}

// Checkout converts an active hold into a paid Purchase. The gateway call
// happens before and outside the commit transaction; the transaction itself
// only persists the order and performs the durable inventory transition.
func (s *CheckoutService) Checkout(ctx context.Context, userID uint, body *types.CheckoutRequestBody) (*models.Purchase, error) {
	hold, err := s.holds.ledger.GetHold(ctx, body.HoldID)
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
		return nil, fmt.Errorf("%w: hold %s has expired", ErrHoldNotFound, hold.ID)
	}
	strat, err := s.holds.strategyFor(hold.Mode)
	if err != nil {
		return nil, err
	}
	if err := strat.revalidate(ctx, hold); err != nil {
		return nil, err
	}
	items, currency, err := strat.priceLines(ctx, hold)
	if err != nil {
		return nil, err
	}
	subtotal := decimal.Zero
	for _, item := range items {
		subtotal = subtotal.Add(decimal.NewFromFloat32(item.UnitPrice).Mul(decimal.NewFromInt(int64(item.Qty))))
	}
	fee := subtotal.Mul(decimal.NewFromFloat(config.ServiceFeePercent())).Div(decimal.NewFromInt(100)).Round(2)
	total := subtotal.Add(fee)

	gw, err := GatewayFor(body.Provider)
	if err != nil {
		return nil, err
	}
	txnID, err := gw.Charge(ctx, body.PaymentToken, total, currency)
	if err != nil {
		// The hold stays valid until its own TTL; the client may retry.
		monitoring.Checkouts.WithLabelValues("payment_failed").Inc()
		return nil, fmt.Errorf("%w: %s", ErrPaymentFailed, err.Error())
	}

	purchase := &models.Purchase{
		ReferenceID: uuid.New(),
		UserID:      userID,
		EventID:     hold.EventID,
		Currency:    currency,
		Subtotal:    float32(subtotal.InexactFloat64()),
		ServiceFee:  float32(fee.InexactFloat64()),
		Total:       float32(total.InexactFloat64()),
		Provider:    gw.Name(),
		PaymentTxn:  txnID,
		Status:      types.PURCHASE_PAID,
		Items:       items,
	}
	gdb := db.GetDb()
	if err := gdb.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(purchase).Error; err != nil {
			return err
		}
		return strat.finalize(tx, hold, purchase)
	}); err != nil {
		s.recordOrphanedCharge(gw.Name(), txnID, hold, total, currency, err)
		monitoring.Checkouts.WithLabelValues("inconsistent").Inc()
		return nil, fmt.Errorf("%w: charge %s committed but order persistence failed: %s", ErrPersistenceInconsistency, txnID, err.Error())
	}

	removed, err := s.holds.ledger.DeleteHold(ctx, hold.ID)
	if err != nil {
		log.Printf("Error deleting hold %s after checkout: %s\n", hold.ID, err.Error())
	}
	// A sweep that reclaimed the entry mid-payment already released the
	// overlay; cleaning up again would strip other live holds' claims.
	if removed {
		strat.cleanup(ctx, hold)
	}
	monitoring.Checkouts.WithLabelValues("success").Inc()
	monitoring.HoldsReleased.WithLabelValues("finalized").Inc()

	go confirmFunc(purchase)
	return purchase, nil
}

var confirmFunc = SendPurchaseConfirmation

// SetConfirmFunc Replace the purchase confirmation side effect
func SetConfirmFunc(fn func(*models.Purchase)) {
	confirmFunc = fn
}

// recordOrphanedCharge durably logs a charge whose inventory commit failed.
// There is no automatic refund path; reconciliation is manual.
func (s *CheckoutService) recordOrphanedCharge(provider, txnID string, hold *Hold, amount decimal.Decimal, currency string, cause error) {
	log.Printf("CRITICAL: payment %s (%s) succeeded but commit for hold %s failed: %s\n", txnID, provider, hold.ID, cause.Error())
	orphan := models.OrphanedCharge{
		TransactionID: txnID,
		Provider:      provider,
		HoldID:        hold.ID,
		UserID:        hold.UserID,
		Amount:        float32(amount.InexactFloat64()),
		Currency:      currency,
		Detail:        cause.Error(),
	}
	if err := db.GetDb().Create(&orphan).Error; err != nil {
		log.Printf("CRITICAL: could not record orphaned charge %s: %s\n", txnID, err.Error())
	}
}

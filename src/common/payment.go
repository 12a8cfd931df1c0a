package common

import (
	"context"
	"etix/src/lib"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v82"
)

// PaymentGateway collects a payment for a checkout. Implementations must not
// be called while a database transaction is open.
type PaymentGateway interface {
	Name() string
	Charge(ctx context.Context, token string, amount decimal.Decimal, currency string) (string, error)
}

var gateways = map[string]PaymentGateway{
	"stripe": &StripeGateway{},
	"mock":   &MockGateway{},
}

func GatewayFor(provider string) (PaymentGateway, error) {
	if provider == "" {
		provider = "stripe"
	}
	gw, ok := gateways[provider]
	if !ok {
		return nil, fmt.Errorf("%w: unknown payment provider %q", ErrInvalidRequest, provider)
	}
	return gw, nil
}

type StripeGateway struct{}

func (g *StripeGateway) Name() string {
	return "stripe"
}

func (g *StripeGateway) Charge(ctx context.Context, token string, amount decimal.Decimal, currency string) (string, error) {
	sc := lib.GetStripeClient()
	params := &stripe.PaymentIntentCreateParams{
		Amount:        stripe.Int64(amount.Shift(2).IntPart()),
		Currency:      stripe.String(strings.ToLower(currency)),
		PaymentMethod: stripe.String(token),
		Confirm:       stripe.Bool(true),
		AutomaticPaymentMethods: &stripe.PaymentIntentCreateAutomaticPaymentMethodsParams{
			Enabled:        stripe.Bool(true),
			AllowRedirects: stripe.String("never"),
		},
	}
	pi, err := sc.V1PaymentIntents.Create(ctx, params)
	if err != nil {
		return "", err
	}
	if pi.Status != stripe.PaymentIntentStatusSucceeded {
		return "", fmt.Errorf("payment intent %s in status %s", pi.ID, pi.Status)
	}
	return pi.ID, nil
}

// MockGateway approves everything except tokens prefixed with "tok_declined".
// Used in tests and local development.
type MockGateway struct{}

func (g *MockGateway) Name() string {
	return "mock"
}

func (g *MockGateway) Charge(ctx context.Context, token string, amount decimal.Decimal, currency string) (string, error) {
	if token == "" || strings.HasPrefix(token, "tok_declined") {
		return "", fmt.Errorf("card declined")
	}
	return fmt.Sprintf("mock_%s", uuid.NewString()), nil
}

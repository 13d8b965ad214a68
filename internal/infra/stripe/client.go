// Package stripe charges cards through Stripe PaymentIntents.
package stripe

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tuition-billing/internal/infra/gateway"

	stripego "github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/client"
)

const gatewayName = "stripe"

type Client struct {
	api *client.API
}

// NewClient uses a private client.API so the package-level stripe.Key is never touched.
// backends may be nil.
func NewClient(secretKey string, backends *stripego.Backends) (*Client, error) {
	if secretKey == "" {
		return nil, fmt.Errorf("stripe: %w", gateway.ErrNotConfigured)
	}
	sc := &client.API{}
	sc.Init(secretKey, backends)
	return &Client{api: sc}, nil
}

// Charge confirms a PaymentIntent immediately. Token is a PaymentMethod id.
func (c *Client) Charge(ctx context.Context, req gateway.ChargeRequest) (*gateway.Charge, error) {
	params := &stripego.PaymentIntentParams{
		Amount:             stripego.Int64(req.AmountMinor),
		Currency:           stripego.String(strings.ToLower(req.Currency)),
		Description:        stripego.String(req.Description),
		PaymentMethod:      stripego.String(req.Token),
		PaymentMethodTypes: stripego.StringSlice([]string{"card"}),
		Confirm:            stripego.Bool(true),
	}
	params.Context = ctx
	if req.IdempotencyKey != "" {
		params.SetIdempotencyKey(req.IdempotencyKey)
	}
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}
	params.AddExpand("latest_charge.balance_transaction")

	pi, err := c.api.PaymentIntents.New(params)
	if err != nil {
		return translateError("create payment intent", err)
	}
	return chargeFromIntent(pi), nil
}

// Retrieve loads a PaymentIntent with its fee data, for webhook driven reconciliation.
func (c *Client) Retrieve(ctx context.Context, intentID string) (*gateway.Charge, error) {
	params := &stripego.PaymentIntentParams{}
	params.Context = ctx
	params.AddExpand("latest_charge.balance_transaction")

	pi, err := c.api.PaymentIntents.Get(intentID, params)
	if err != nil {
		return nil, &gateway.TransportError{Gateway: gatewayName, Op: "get payment intent", Err: err}
	}
	return chargeFromIntent(pi), nil
}

// chargeFromIntent assumes the balance transaction settles in the charge currency.
func chargeFromIntent(pi *stripego.PaymentIntent) *gateway.Charge {
	ch := &gateway.Charge{
		ID:     pi.ID,
		Status: NormalizeIntentStatus(pi.Status),
	}

	switch pi.Status {
	case stripego.PaymentIntentStatusSucceeded:
		ch.Captured = true
		ch.AmountCaptured = pi.AmountReceived
		ch.NetAmount = pi.AmountReceived
		if pi.LatestCharge != nil && pi.LatestCharge.BalanceTransaction != nil {
			ch.NetAmount = pi.AmountReceived - pi.LatestCharge.BalanceTransaction.Fee
		}
	case stripego.PaymentIntentStatusRequiresPaymentMethod:
		ch.FailureCode, ch.FailureMessage = lastPaymentError(pi, "card_declined")
	case stripego.PaymentIntentStatusRequiresAction, stripego.PaymentIntentStatusRequiresConfirmation:
		ch.FailureCode, ch.FailureMessage = lastPaymentError(pi, "authentication_required")
	case stripego.PaymentIntentStatusCanceled:
		ch.FailureCode, ch.FailureMessage = lastPaymentError(pi, "canceled")
	}
	return ch
}

func lastPaymentError(pi *stripego.PaymentIntent, fallback string) (string, string) {
	if pi.LastPaymentError == nil {
		return fallback, ""
	}
	return failureCode(pi.LastPaymentError, fallback), pi.LastPaymentError.Msg
}

func failureCode(se *stripego.Error, fallback string) string {
	if se.DeclineCode != "" {
		return string(se.DeclineCode)
	}
	if se.Code != "" {
		return string(se.Code)
	}
	return fallback
}

// translateError turns card errors into a declined Charge and everything else into a TransportError.
func translateError(op string, err error) (*gateway.Charge, error) {
	var se *stripego.Error
	if !errors.As(err, &se) {
		// Network failure after the request left: Stripe may have processed it.
		return nil, &gateway.TransportError{Gateway: gatewayName, Op: op, Ambiguous: true, Err: err}
	}

	switch {
	case se.Type == stripego.ErrorTypeCard:
		ch := &gateway.Charge{
			Status:         "failed",
			FailureCode:    failureCode(se, "card_declined"),
			FailureMessage: se.Msg,
		}
		if se.PaymentIntent != nil {
			ch.ID = se.PaymentIntent.ID
		}
		return ch, nil
	case se.HTTPStatusCode >= 500 || se.Type == stripego.ErrorTypeAPI:
		return nil, &gateway.TransportError{Gateway: gatewayName, Op: op, Ambiguous: true, Err: err}
	default:
		return nil, &gateway.TransportError{Gateway: gatewayName, Op: op, Err: err}
	}
}

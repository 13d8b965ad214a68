package payment

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"tuition-billing/internal/apperrors"
	"tuition-billing/internal/domain/billing"
	"tuition-billing/internal/infra/gateway"

	"github.com/shopspring/decimal"
)

// GatewayClient submits one card charge to a processor.
type GatewayClient interface {
	Charge(ctx context.Context, req gateway.ChargeRequest) (*gateway.Charge, error)
}

// Params are the caller supplied inputs for a charge.
type Params struct {
	Token          string
	IdempotencyKey string
}

// ChargeOutcome describes a capture confirmed by the gateway. Fee and Amount are in major units.
type ChargeOutcome struct {
	Captured      bool
	TransactionID string
	Fee           decimal.Decimal
	Amount        decimal.Decimal
}

// Strategy charges an invoice on one platform.
type Strategy interface {
	Pay(ctx context.Context, invoice *billing.Invoice, params Params) (*ChargeOutcome, error)
	Platform() billing.Platform
	Method() billing.Method
}

// CardStrategy is the card Strategy; platforms differ only by client and decline table.
type CardStrategy struct {
	platform billing.Platform
	client   GatewayClient
	currency string
	declines DeclineTable
}

func NewOmiseStrategy(client GatewayClient, currency string) *CardStrategy {
	return &CardStrategy{platform: billing.PlatformOmise, client: client, currency: currency, declines: omiseDeclines}
}

func NewStripeStrategy(client GatewayClient, currency string) *CardStrategy {
	return &CardStrategy{platform: billing.PlatformStripe, client: client, currency: currency, declines: stripeDeclines}
}

func (s *CardStrategy) Platform() billing.Platform { return s.platform }

func (s *CardStrategy) Method() billing.Method { return billing.MethodCard }

// Pay sends exactly one charge request and persists nothing. Gateway failures come back
// as *apperrors.AppError coded CodeGatewayDecline, CodeGatewayTransport or CodeCaptureUnconfirmed.
func (s *CardStrategy) Pay(ctx context.Context, invoice *billing.Invoice, params Params) (*ChargeOutcome, error) {
	if invoice.IsPaid() {
		return nil, errAlreadyPaid()
	}
	if strings.TrimSpace(params.Token) == "" {
		return nil, apperrors.ValidationError("token cannot be empty")
	}
	minor, err := ToMinorUnits(invoice.Amount)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeValidationFailed, "payment", "Invoice amount cannot be charged", http.StatusUnprocessableEntity)
	}

	charge, err := s.client.Charge(ctx, gateway.ChargeRequest{
		AmountMinor:    minor,
		Currency:       s.currency,
		Description:    fmt.Sprintf("Payment for invoice %s - %s", invoice.No, invoice.CourseName()),
		Token:          params.Token,
		IdempotencyKey: params.IdempotencyKey,
		Metadata: map[string]string{
			"invoice_id": strconv.FormatUint(uint64(invoice.ID), 10),
			"invoice_no": invoice.No,
		},
	})
	if err != nil {
		return nil, transportFailure(err)
	}

	if charge.FailureCode != "" {
		d := newDeclineError(s.platform, s.declines, charge.FailureCode, charge.FailureMessage)
		return nil, apperrors.Wrap(d, apperrors.CodeGatewayDecline, "payment", d.Message, http.StatusInternalServerError)
	}

	if !charge.Captured || charge.ID == "" {
		te := &gateway.TransportError{
			Gateway:   string(s.platform),
			Op:        "confirm capture",
			Ambiguous: true,
			ChargeID:  charge.ID,
			Err:       fmt.Errorf("charge status %q", charge.Status),
		}
		return nil, transportFailure(te)
	}

	return &ChargeOutcome{
		Captured:      true,
		TransactionID: charge.ID,
		Fee:           FromMinorUnits(charge.AmountCaptured - charge.NetAmount),
		Amount:        FromMinorUnits(charge.AmountCaptured),
	}, nil
}

func transportFailure(err error) *apperrors.AppError {
	var te *gateway.TransportError
	if !errors.As(err, &te) {
		err = &gateway.TransportError{Op: "charge", Ambiguous: true, Err: err}
	}
	if gateway.IsAmbiguous(err) {
		return apperrors.Wrap(err, apperrors.CodeCaptureUnconfirmed, "payment", MsgCaptureUnconfirmed, http.StatusInternalServerError)
	}
	return apperrors.Wrap(err, apperrors.CodeGatewayTransport, "payment", MsgGatewayUnavailable, http.StatusInternalServerError)
}

package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"tuition-billing/internal/apperrors"
	"tuition-billing/internal/domain/billing"
	"tuition-billing/internal/infra/gateway"

	"github.com/google/uuid"
)

const defaultGatewayTimeout = 30 * time.Second

// Store commits a captured payment atomically with the invoice status change.
type Store interface {
	CommitPayment(ctx context.Context, invoiceID uint, p *billing.Payment) error
	FindPaymentByTransaction(ctx context.Context, transactionNo string) (*billing.Payment, error)
}

// Result is what the caller shows the payer.
type Result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type Handler struct {
	strategy Strategy
	store    Store
	log      *slog.Logger
	timeout  time.Duration
	now      func() time.Time
	newKey   func(invoiceID uint) string
}

type Option func(*Handler)

// WithGatewayTimeout bounds the charge call. Zero or negative keeps the default.
func WithGatewayTimeout(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.timeout = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(h *Handler) { h.now = now }
}

// WithIdempotencyKeys replaces the per-attempt key generator.
func WithIdempotencyKeys(gen func(invoiceID uint) string) Option {
	return func(h *Handler) { h.newKey = gen }
}

func NewHandler(strategy Strategy, store Store, log *slog.Logger, opts ...Option) *Handler {
	if log == nil {
		log = slog.Default()
	}
	h := &Handler{
		strategy: strategy,
		store:    store,
		log:      log.With("component", "payment", "platform", string(strategy.Platform())),
		timeout:  defaultGatewayTimeout,
		now:      time.Now,
		newKey: func(invoiceID uint) string {
			return fmt.Sprintf("invoice-%d-%s", invoiceID, uuid.NewString())
		},
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

func (h *Handler) Platform() billing.Platform { return h.strategy.Platform() }

// Handle charges the invoice and records the payment.
//
// On success the invoice is paid with exactly one payment row. Gateway failures leave
// local state untouched. When the charge was captured but the commit failed, the
// recovery record is logged as pay-error-update-invoice-status and attached to the
// returned error.
func (h *Handler) Handle(ctx context.Context, invoice *billing.Invoice, params Params) (Result, error) {
	if invoice.IsPaid() {
		return Result{Message: MsgAlreadyPaid}, errAlreadyPaid()
	}
	if params.IdempotencyKey == "" {
		params.IdempotencyKey = h.newKey(invoice.ID)
	}
	log := h.log.With("invoice_id", invoice.ID, "idempotency_key", params.IdempotencyKey)

	chargeCtx, cancel := context.WithTimeout(ctx, h.timeout)
	outcome, err := h.strategy.Pay(chargeCtx, invoice, params)
	cancel()
	if err != nil {
		logChargeFailure(log, err)
		return Result{Message: apperrors.Message(err)}, err
	}

	record := RecoveryRecord{
		InvoiceID:      invoice.ID,
		TransactionNo:  outcome.TransactionID,
		TransactionFee: outcome.Fee,
		Platform:       h.strategy.Platform(),
		Method:         h.strategy.Method(),
	}
	amount := outcome.Amount
	if amount.IsZero() {
		amount = invoice.Amount
	}

	// Money has moved; the commit runs even if the caller has gone away.
	commitCtx := context.WithoutCancel(ctx)
	if err := h.store.CommitPayment(commitCtx, invoice.ID, record.payment(invoice.StudentID, amount, h.now())); err != nil {
		if errors.Is(err, billing.ErrInvoiceAlreadyPaid) {
			return h.lostCommitRace(commitCtx, log, invoice, record, params, err)
		}
		return h.commitFailed(record, params, err)
	}

	invoice.Status = billing.InvoiceStatusPaid
	log.Info("payment-captured",
		"transaction_no", record.TransactionNo,
		"transaction_fee", record.TransactionFee.StringFixed(2),
	)
	return Result{Success: true, Message: MsgPaymentSuccessful}, nil
}

func (h *Handler) commitFailed(record RecoveryRecord, params Params, err error) (Result, error) {
	attrs := append(record.LogAttrs(), "idempotency_key", params.IdempotencyKey, "error", err.Error())
	h.log.Error("pay-error-update-invoice-status", attrs...)
	appErr := apperrors.Wrap(err, apperrors.CodeLocalCommitFailure, "payment", MsgContactAdministrator, http.StatusInternalServerError).
		WithDetails(record)
	return Result{Message: MsgContactAdministrator}, appErr
}

// lostCommitRace handles a capture whose invoice turned paid after the pre-flight guard.
// If this very transaction is already recorded on the invoice the payment succeeded.
// Otherwise the payer was charged twice and the capture must be refunded, not replayed.
func (h *Handler) lostCommitRace(ctx context.Context, log *slog.Logger, invoice *billing.Invoice, record RecoveryRecord, params Params, commitErr error) (Result, error) {
	existing, err := h.store.FindPaymentByTransaction(ctx, record.TransactionNo)
	switch {
	case err == nil && existing.InvoiceID == invoice.ID:
		invoice.Status = billing.InvoiceStatusPaid
		log.Info("payment-already-recorded", "transaction_no", record.TransactionNo)
		return Result{Success: true, Message: MsgPaymentSuccessful}, nil
	case err != nil && !errors.Is(err, billing.ErrPaymentNotFound):
		return h.commitFailed(record, params, errors.Join(commitErr, err))
	}

	attrs := append(record.chargeAttrs(),
		"idempotency_key", params.IdempotencyKey,
		"needs_refund", true,
		"error", commitErr.Error(),
	)
	if existing != nil {
		attrs = append(attrs, "recorded_invoice_id", existing.InvoiceID)
	}
	h.log.Error("pay-double-capture", attrs...)

	invoice.Status = billing.InvoiceStatusPaid
	appErr := apperrors.Wrap(commitErr, apperrors.CodeDoubleCapture, "payment", MsgDoubleCapture, http.StatusInternalServerError).
		WithDetails(record)
	return Result{Message: MsgDoubleCapture}, appErr
}

func logChargeFailure(log *slog.Logger, err error) {
	switch apperrors.CodeOf(err) {
	case apperrors.CodeCaptureUnconfirmed:
		attrs := []any{"error", err.Error()}
		var te *gateway.TransportError
		if errors.As(err, &te) && te.ChargeID != "" {
			attrs = append(attrs, "charge_id", te.ChargeID)
		}
		log.Error("pay-capture-unconfirmed", attrs...)
	case apperrors.CodeGatewayDecline:
		var d *DeclineError
		if errors.As(err, &d) {
			log.Warn("payment-error", "reason", string(d.Reason), "failure_code", d.Code, "error", err.Error())
			return
		}
		log.Warn("payment-error", "error", err.Error())
	default:
		log.Warn("payment-error", "code", string(apperrors.CodeOf(err)), "error", err.Error())
	}
}

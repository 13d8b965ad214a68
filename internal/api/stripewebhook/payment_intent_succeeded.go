package stripewebhooks

import (
	"context"
	"fmt"
	"strconv"

	"tuition-billing/internal/apperrors"
	"tuition-billing/internal/domain/billing"
	"tuition-billing/internal/payment"

	"github.com/stripe/stripe-go/v75"
)

// handlePaymentIntentSucceeded records a captured intent the synchronous path may have missed.
// Only errors worth a redelivery are returned.
func (h *Handler) handlePaymentIntentSucceeded(ctx context.Context, pi *stripe.PaymentIntent) error {
	raw := pi.Metadata["invoice_id"]
	invoiceID, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || invoiceID == 0 {
		h.log.Info("payment intent without invoice", "payment_intent", pi.ID)
		return nil
	}

	charge, err := h.intents.Retrieve(ctx, pi.ID)
	if err != nil {
		return fmt.Errorf("retrieve payment intent %s: %w", pi.ID, err)
	}
	if !charge.Captured {
		h.log.Warn("payment intent not captured", "payment_intent", pi.ID, "status", charge.Status)
		return nil
	}

	rec := payment.RecoveryRecord{
		InvoiceID:      uint(invoiceID),
		TransactionNo:  charge.ID,
		TransactionFee: payment.FromMinorUnits(charge.AmountCaptured - charge.NetAmount),
		Platform:       billing.PlatformStripe,
		Method:         billing.MethodCard,
	}
	if !h.autoReconcile || h.reconciler == nil {
		h.log.Info("stripe-payment-succeeded", rec.LogAttrs()...)
		return nil
	}

	outcome, err := h.reconciler.Reconcile(ctx, rec)
	switch apperrors.CodeOf(err) {
	case apperrors.CodeReconciliationUsage, apperrors.CodeDuplicateTransaction:
		h.log.Error("stripe-reconcile-rejected", append(rec.LogAttrs(), "error", err.Error())...)
		return nil
	}
	if err != nil {
		return err
	}
	h.log.Info("stripe-reconcile", "invoice_id", rec.InvoiceID, "outcome", string(outcome))
	return nil
}

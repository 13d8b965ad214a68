package stripewebhooks

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"

	"tuition-billing/internal/infra/gateway"
	"tuition-billing/internal/payment"

	"github.com/gin-gonic/gin"
	"github.com/stripe/stripe-go/v75"
	"github.com/stripe/stripe-go/v75/webhook"
)

// IntentFetcher reloads a PaymentIntent with fee data.
type IntentFetcher interface {
	Retrieve(ctx context.Context, intentID string) (*gateway.Charge, error)
}

type Reconciler interface {
	Reconcile(ctx context.Context, rec payment.RecoveryRecord) (payment.ReconcileOutcome, error)
}

type Handler struct {
	endpointSecret string
	intents        IntentFetcher
	reconciler     Reconciler
	autoReconcile  bool
	log            *slog.Logger
}

// NewHandler wires the webhook. With autoReconcile off, succeeded intents are only logged
// with their recovery command.
func NewHandler(endpointSecret string, intents IntentFetcher, reconciler Reconciler, autoReconcile bool, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{
		endpointSecret: endpointSecret,
		intents:        intents,
		reconciler:     reconciler,
		autoReconcile:  autoReconcile,
		log:            log.With("component", "stripe-webhook"),
	}
}

func (h *Handler) StripeWebhook(c *gin.Context) {
	if h.endpointSecret == "" || h.intents == nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Stripe webhook not configured"})
		return
	}

	payload, err := readStripeBody(c, 65536)
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Error reading request body"})
		return
	}

	event, err := webhook.ConstructEventWithOptions(
		payload,
		c.GetHeader("Stripe-Signature"),
		h.endpointSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true},
	)
	if err != nil {
		h.log.Warn("stripe signature verification failed", "error", err.Error())
		c.JSON(http.StatusBadRequest, gin.H{"error": "Signature verification failed"})
		return
	}

	switch event.Type {
	case "payment_intent.succeeded":
		var pi stripe.PaymentIntent
		if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to parse payment intent"})
			return
		}
		if err := h.handlePaymentIntentSucceeded(c.Request.Context(), &pi); err != nil {
			// 500 makes Stripe redeliver the event.
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "received"})

	default:
		c.JSON(http.StatusOK, gin.H{"status": "ignored"})
	}
}

func readStripeBody(c *gin.Context, maxBytes int64) ([]byte, error) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
	return io.ReadAll(c.Request.Body)
}

package payments

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"tuition-billing/internal/api/response"
	"tuition-billing/internal/apperrors"
	"tuition-billing/internal/domain/billing"
	"tuition-billing/internal/infra/billingdb"
	"tuition-billing/internal/payment"

	"github.com/gin-gonic/gin"
)

type Store interface {
	FindInvoice(ctx context.Context, id uint) (*billing.Invoice, error)
	ListPayments(ctx context.Context, studentID uint) ([]billingdb.PaymentRow, error)
}

type Handler struct {
	store    Store
	registry *payment.Registry
	log      *slog.Logger
}

func NewHandler(store Store, registry *payment.Registry, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{store: store, registry: registry, log: log.With("component", "payments-api")}
}

type payRequest struct {
	InvoiceID uint   `json:"invoice_id"`
	Token     string `json:"token"`
}

// Pay charges one of the caller's own invoices on platform.
func (h *Handler) Pay(platform billing.Platform) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req payRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Fail(c, http.StatusUnprocessableEntity, "Invalid request body")
			return
		}
		if req.InvoiceID == 0 {
			response.Fail(c, http.StatusUnprocessableEntity, "Invoice ID cannot be empty")
			return
		}
		if strings.TrimSpace(req.Token) == "" {
			response.Fail(c, http.StatusUnprocessableEntity, "token cannot be empty")
			return
		}

		handler, err := h.registry.Handler(platform)
		if err != nil {
			response.Error(c, err)
			return
		}

		inv, err := h.store.FindInvoice(c.Request.Context(), req.InvoiceID)
		if errors.Is(err, billing.ErrInvoiceNotFound) {
			response.Fail(c, http.StatusUnprocessableEntity, "Invoice does not exist")
			return
		}
		if err != nil {
			h.log.Error("load invoice failed", "invoice_id", req.InvoiceID, "error", err.Error())
			response.Error(c, apperrors.InternalError(err))
			return
		}

		if inv.StudentID != c.GetUint("user_id") {
			response.Fail(c, http.StatusForbidden, "Access denied")
			return
		}
		if inv.IsPaid() {
			response.Fail(c, http.StatusUnprocessableEntity, payment.MsgAlreadyPaid)
			return
		}

		result, err := handler.Handle(c.Request.Context(), inv, payment.Params{Token: req.Token})
		if err != nil {
			response.Fail(c, apperrors.HTTPStatus(err), result.Message)
			return
		}

		response.OK(c, result.Message, gin.H{
			"invoice_id": inv.ID,
			"invoice_no": inv.No,
			"status":     inv.Status,
		})
	}
}

// History lists the caller's payments, newest first.
func (h *Handler) History(c *gin.Context) {
	userID := c.GetUint("user_id")
	if userID == 0 {
		response.Fail(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	rows, err := h.store.ListPayments(c.Request.Context(), userID)
	if err != nil {
		h.log.Error("list payments failed", "student_id", userID, "error", err.Error())
		response.Fail(c, http.StatusInternalServerError, "Failed to load payments")
		return
	}

	response.OK(c, "ok", NewPaymentViews(rows))
}

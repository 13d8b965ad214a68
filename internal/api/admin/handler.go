package admin

import (
	"context"
	"log/slog"
	"net/http"

	"tuition-billing/internal/api/payments"
	"tuition-billing/internal/api/response"
	"tuition-billing/internal/infra/billingdb"

	"github.com/gin-gonic/gin"
)

type Store interface {
	ListPayments(ctx context.Context, studentID uint) ([]billingdb.PaymentRow, error)
	Audit(ctx context.Context) ([]billingdb.Inconsistency, error)
}

type Handler struct {
	store Store
	log   *slog.Logger
}

func NewHandler(store Store, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{store: store, log: log.With("component", "admin-api")}
}

type AuditReport struct {
	Consistent bool                      `json:"consistent"`
	Problems   []billingdb.Inconsistency `json:"problems"`
}

func (h *Handler) ListAllPayments(c *gin.Context) {
	rows, err := h.store.ListPayments(c.Request.Context(), 0)
	if err != nil {
		h.log.Error("list payments failed", "error", err.Error())
		response.Fail(c, http.StatusInternalServerError, "Failed to load payments")
		return
	}
	response.OK(c, "ok", payments.NewPaymentViews(rows))
}

// AuditPayments reports invoices whose status disagrees with their payment rows.
func (h *Handler) AuditPayments(c *gin.Context) {
	problems, err := h.store.Audit(c.Request.Context())
	if err != nil {
		h.log.Error("payment audit failed", "error", err.Error())
		response.Fail(c, http.StatusInternalServerError, "Failed to audit payments")
		return
	}
	if problems == nil {
		problems = []billingdb.Inconsistency{}
	}
	if len(problems) > 0 {
		h.log.Warn("payment audit found inconsistencies", "count", len(problems))
	}
	response.OK(c, "ok", AuditReport{Consistent: len(problems) == 0, Problems: problems})
}

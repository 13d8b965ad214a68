package users

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"tuition-billing/internal/api/response"
	"tuition-billing/internal/domain/billing"
	"tuition-billing/internal/domain/users"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type InvoiceLister interface {
	ListInvoices(ctx context.Context, studentID uint) ([]billing.Invoice, error)
}

type Handler struct {
	db       *gorm.DB
	invoices InvoiceLister
	log      *slog.Logger
}

func NewHandler(db *gorm.DB, invoices InvoiceLister, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{db: db, invoices: invoices, log: log.With("component", "users-api")}
}

// GetCurrentUser returns the caller and, for students, their invoices.
func (h *Handler) GetCurrentUser(c *gin.Context) {
	userID := c.GetUint("user_id")
	if userID == 0 {
		response.Fail(c, http.StatusUnauthorized, "Unauthorized")
		return
	}

	var user users.User
	err := h.db.WithContext(c.Request.Context()).First(&user, userID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		response.Fail(c, http.StatusNotFound, "User not found")
		return
	}
	if err != nil {
		response.Fail(c, http.StatusInternalServerError, "Failed to load user")
		return
	}

	resp := MeResponse{
		User: UserDTO{
			ID:    user.ID,
			Email: user.Email,
			Name:  user.Name,
			Role:  user.Role,
		},
		Invoices: []InvoiceDTO{},
	}

	if user.Role == users.RoleStudent {
		invs, err := h.invoices.ListInvoices(c.Request.Context(), user.ID)
		if err != nil {
			h.log.Error("list invoices failed", "student_id", user.ID, "error", err.Error())
			response.Fail(c, http.StatusInternalServerError, "Failed to load invoices")
			return
		}
		for i := range invs {
			resp.Invoices = append(resp.Invoices, toInvoiceDTO(&invs[i]))
		}
	}

	response.OK(c, "ok", resp)
}

func toInvoiceDTO(inv *billing.Invoice) InvoiceDTO {
	dto := InvoiceDTO{
		ID:         inv.ID,
		No:         inv.No,
		CourseName: inv.CourseName(),
		Amount:     inv.Amount.StringFixed(2),
		Status:     string(inv.Status),
		Payable:    inv.Status == billing.InvoiceStatusPending,
	}
	if inv.SentAt != nil {
		s := inv.SentAt.Format("2006-01-02 15:04")
		dto.SentAt = &s
	}
	return dto
}

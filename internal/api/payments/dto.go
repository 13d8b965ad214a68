package payments

import (
	"tuition-billing/internal/infra/billingdb"
)

type PaymentView struct {
	ID             uint    `json:"id"`
	InvoiceID      uint    `json:"invoice_id"`
	InvoiceNo      string  `json:"invoice_no"`
	StudentID      uint    `json:"student_id"`
	Platform       string  `json:"platform"`
	Method         string  `json:"method"`
	TransactionNo  string  `json:"transaction_no"`
	TransactionFee string  `json:"transaction_fee"`
	Amount         string  `json:"amount"`
	Status         string  `json:"status"`
	PaidAt         *string `json:"paid_at,omitempty"`
	CreatedAt      string  `json:"created_at"`
}

func NewPaymentViews(rows []billingdb.PaymentRow) []PaymentView {
	out := make([]PaymentView, 0, len(rows))
	for _, r := range rows {
		v := PaymentView{
			ID:             r.ID,
			InvoiceID:      r.InvoiceID,
			InvoiceNo:      r.InvoiceNo,
			StudentID:      r.StudentID,
			Platform:       string(r.Platform),
			Method:         string(r.Method),
			TransactionNo:  r.TransactionNo,
			TransactionFee: r.TransactionFee.StringFixed(2),
			Amount:         r.Amount.StringFixed(2),
			Status:         string(r.Status),
			CreatedAt:      r.CreatedAt.Format("2006-01-02 15:04"),
		}
		if r.PaidAt != nil {
			s := r.PaidAt.Format("2006-01-02 15:04")
			v.PaidAt = &s
		}
		out = append(out, v)
	}
	return out
}

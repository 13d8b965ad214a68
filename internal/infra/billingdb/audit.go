package billingdb

import (
	"context"
	"fmt"

	"tuition-billing/internal/domain/billing"
)

const (
	ProblemPaidWithoutPayment     = "paid_without_payment"
	ProblemPaidWithManyPayments   = "paid_with_multiple_payments"
	ProblemPaymentOnUnpaidInvoice = "payment_on_unpaid_invoice"
)

// Inconsistency is an invoice whose status disagrees with its success payments.
type Inconsistency struct {
	InvoiceID       uint                  `json:"invoice_id"`
	InvoiceNo       string                `json:"invoice_no"`
	InvoiceStatus   billing.InvoiceStatus `json:"invoice_status"`
	SuccessPayments int64                 `json:"success_payments"`
	Problem         string                `json:"problem"`
}

// Audit lists live invoices breaking "paid if and only if exactly one success payment".
func (s *Store) Audit(ctx context.Context) ([]Inconsistency, error) {
	var rows []Inconsistency
	err := s.db.WithContext(ctx).Raw(`
		SELECT i.id AS invoice_id, i.no AS invoice_no, i.status AS invoice_status,
		       COUNT(p.id) AS success_payments
		FROM invoices i
		LEFT JOIN payments p
		       ON p.invoice_id = i.id AND p.status = ? AND p.deleted_at IS NULL
		WHERE i.deleted_at IS NULL
		GROUP BY i.id, i.no, i.status
		HAVING (i.status = ? AND COUNT(p.id) <> 1)
		    OR (i.status <> ? AND COUNT(p.id) > 0)
		ORDER BY i.id`,
		billing.PaymentStatusSuccess, billing.InvoiceStatusPaid, billing.InvoiceStatusPaid,
	).Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("audit payments: %w", err)
	}

	for i := range rows {
		switch {
		case rows[i].InvoiceStatus != billing.InvoiceStatusPaid:
			rows[i].Problem = ProblemPaymentOnUnpaidInvoice
		case rows[i].SuccessPayments == 0:
			rows[i].Problem = ProblemPaidWithoutPayment
		default:
			rows[i].Problem = ProblemPaidWithManyPayments
		}
	}
	return rows, nil
}

// Package billingdb persists invoices and payments with gorm.
package billingdb

import (
	"context"
	"errors"
	"fmt"

	"tuition-billing/internal/domain/billing"

	"gorm.io/gorm"
)

type Store struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// FindInvoice loads a live invoice with its course.
func (s *Store) FindInvoice(ctx context.Context, id uint) (*billing.Invoice, error) {
	var inv billing.Invoice
	err := s.db.WithContext(ctx).Preload("Course").First(&inv, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, billing.ErrInvoiceNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load invoice %d: %w", id, err)
	}
	return &inv, nil
}

// CommitPayment marks the invoice paid and inserts p in one transaction.
// The status write only applies to a pending invoice, so of two racing commits at most one lands.
func (s *Store) CommitPayment(ctx context.Context, invoiceID uint, p *billing.Payment) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&billing.Invoice{}).
			Where("id = ? AND status = ?", invoiceID, billing.InvoiceStatusPending).
			Update("status", billing.InvoiceStatusPaid)
		if res.Error != nil {
			return fmt.Errorf("mark invoice %d paid: %w", invoiceID, res.Error)
		}
		if res.RowsAffected == 0 {
			return whyNotPending(tx, invoiceID)
		}

		var taken int64
		if err := tx.Unscoped().Model(&billing.Payment{}).
			Where("transaction_no = ?", p.TransactionNo).
			Count(&taken).Error; err != nil {
			return fmt.Errorf("check transaction %s: %w", p.TransactionNo, err)
		}
		if taken > 0 {
			return fmt.Errorf("transaction %s: %w", p.TransactionNo, billing.ErrDuplicateTransaction)
		}

		p.InvoiceID = invoiceID
		if err := tx.Create(p).Error; err != nil {
			if errors.Is(err, gorm.ErrDuplicatedKey) {
				return fmt.Errorf("transaction %s: %w", p.TransactionNo, billing.ErrDuplicateTransaction)
			}
			return fmt.Errorf("insert payment: %w", err)
		}
		return nil
	})
}

// FindPaymentByTransaction looks a payment up by gateway transaction number, soft-deleted rows included.
func (s *Store) FindPaymentByTransaction(ctx context.Context, transactionNo string) (*billing.Payment, error) {
	var p billing.Payment
	err := s.db.WithContext(ctx).Unscoped().Where("transaction_no = ?", transactionNo).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, billing.ErrPaymentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load payment %s: %w", transactionNo, err)
	}
	return &p, nil
}

func whyNotPending(tx *gorm.DB, invoiceID uint) error {
	var inv billing.Invoice
	err := tx.Unscoped().Select("id", "status", "deleted_at").First(&inv, invoiceID).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return billing.ErrInvoiceNotFound
	case err != nil:
		return fmt.Errorf("reload invoice %d: %w", invoiceID, err)
	case inv.DeletedAt.Valid:
		return billing.ErrInvoiceNotFound
	case inv.Status == billing.InvoiceStatusPaid:
		return billing.ErrInvoiceAlreadyPaid
	default:
		return fmt.Errorf("invoice %d is %s: %w", invoiceID, inv.Status, billing.ErrInvoiceNotPayable)
	}
}

// PaymentRow is a payment joined with its invoice number.
type PaymentRow struct {
	billing.Payment
	InvoiceNo string `gorm:"column:invoice_no"`
}

// ListPayments returns payments newest first. A zero studentID lists every student.
func (s *Store) ListPayments(ctx context.Context, studentID uint) ([]PaymentRow, error) {
	q := s.db.WithContext(ctx).
		Model(&billing.Payment{}).
		Select("payments.*, invoices.no AS invoice_no").
		Joins("LEFT JOIN invoices ON invoices.id = payments.invoice_id")
	if studentID != 0 {
		q = q.Where("payments.student_id = ?", studentID)
	}

	var rows []PaymentRow
	if err := q.Order("payments.created_at DESC, payments.id DESC").Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	return rows, nil
}

// ListInvoices returns a student's invoices with their course, newest first.
func (s *Store) ListInvoices(ctx context.Context, studentID uint) ([]billing.Invoice, error) {
	var invs []billing.Invoice
	err := s.db.WithContext(ctx).
		Preload("Course").
		Where("student_id = ?", studentID).
		Order("created_at DESC, id DESC").
		Find(&invs).Error
	if err != nil {
		return nil, fmt.Errorf("list invoices for student %d: %w", studentID, err)
	}
	return invs, nil
}

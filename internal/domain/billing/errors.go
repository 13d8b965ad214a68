package billing

import "errors"

var (
	ErrInvoiceNotFound      = errors.New("invoice not found")
	ErrInvoiceAlreadyPaid   = errors.New("invoice already paid")
	ErrInvoiceNotPayable    = errors.New("invoice is not payable")
	ErrDuplicateTransaction = errors.New("transaction already recorded")
	ErrPaymentNotFound      = errors.New("payment not found")
)

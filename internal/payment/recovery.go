package payment

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"tuition-billing/internal/apperrors"
	"tuition-billing/internal/domain/billing"

	"github.com/shopspring/decimal"
)

var ErrMissingParameters = errors.New("missing required parameters")

// RecoveryRecord holds everything needed to replay a captured charge into local state.
type RecoveryRecord struct {
	InvoiceID      uint             `json:"invoice_id"`
	TransactionNo  string           `json:"transaction_no"`
	TransactionFee decimal.Decimal  `json:"transaction_fee"`
	Platform       billing.Platform `json:"platform"`
	Method         billing.Method   `json:"method"`
}

// Command renders the fix-invoice-status invocation that replays the record.
func (r RecoveryRecord) Command() string {
	return fmt.Sprintf("fix-invoice-status --invoice_id=%d --transaction_no=%s --transaction_fee=%s --platform=%s",
		r.InvoiceID, r.TransactionNo, r.TransactionFee.StringFixed(2), r.Platform)
}

// LogAttrs are the record fields plus the replay command.
func (r RecoveryRecord) LogAttrs() []any {
	return append(r.chargeAttrs(), "command", r.Command())
}

// chargeAttrs describe the capture without offering a replay.
func (r RecoveryRecord) chargeAttrs() []any {
	return []any{
		"invoice_id", r.InvoiceID,
		"transaction_no", r.TransactionNo,
		"transaction_fee", r.TransactionFee.StringFixed(2),
		"platform", string(r.Platform),
		"method", string(r.Method),
	}
}

func (r RecoveryRecord) payment(studentID uint, amount decimal.Decimal, at time.Time) *billing.Payment {
	return &billing.Payment{
		InvoiceID:      r.InvoiceID,
		StudentID:      studentID,
		Platform:       r.Platform,
		Method:         r.Method,
		TransactionNo:  r.TransactionNo,
		TransactionFee: r.TransactionFee,
		Amount:         amount,
		Status:         billing.PaymentStatusSuccess,
		PaidAt:         &at,
	}
}

// RecoveryRecordOf extracts the record attached to a post-capture failure.
func RecoveryRecordOf(err error) (RecoveryRecord, bool) {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || appErr.Code != apperrors.CodeLocalCommitFailure {
		return RecoveryRecord{}, false
	}
	rec, ok := appErr.Details.(RecoveryRecord)
	return rec, ok
}

// ParseRecoveryRecord validates operator input. An empty platform means omise.
func ParseRecoveryRecord(invoiceID, transactionNo, transactionFee, platform string) (RecoveryRecord, error) {
	invoiceID = strings.TrimSpace(invoiceID)
	transactionNo = strings.TrimSpace(transactionNo)
	transactionFee = strings.TrimSpace(transactionFee)
	if invoiceID == "" || transactionNo == "" || transactionFee == "" {
		return RecoveryRecord{}, errUsage(ErrMissingParameters, "Missing required parameters")
	}

	id, err := strconv.ParseUint(invoiceID, 10, 64)
	if err != nil || id == 0 {
		return RecoveryRecord{}, errUsage(fmt.Errorf("invoice_id %q: %w", invoiceID, ErrMissingParameters), "Invalid invoice_id")
	}

	fee, err := decimal.NewFromString(transactionFee)
	if err != nil || fee.IsNegative() {
		return RecoveryRecord{}, errUsage(fmt.Errorf("transaction_fee %q: %w", transactionFee, ErrMissingParameters), "Invalid transaction_fee")
	}

	p := billing.Platform(strings.ToLower(strings.TrimSpace(platform)))
	switch p {
	case "":
		p = billing.PlatformOmise
	case billing.PlatformOmise, billing.PlatformStripe:
	default:
		return RecoveryRecord{}, errUsage(fmt.Errorf("platform %q: %w", platform, ErrMissingParameters), MsgUnsupportedPlatform)
	}

	return RecoveryRecord{
		InvoiceID:      uint(id),
		TransactionNo:  transactionNo,
		TransactionFee: fee,
		Platform:       p,
		Method:         billing.MethodCard,
	}, nil
}

package billing

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentStatus string

const (
	PaymentStatusSuccess PaymentStatus = "success"
	PaymentStatusFailed  PaymentStatus = "failed"
	PaymentStatusPending PaymentStatus = "pending"
)

type Platform string

const (
	PlatformOmise  Platform = "omise"
	PlatformStripe Platform = "stripe"
)

type Method string

const MethodCard Method = "card"

// Payment is the local record of one captured gateway charge.
// TransactionNo is the gateway's charge id and is unique across all rows, soft-deleted included.
type Payment struct {
	ID             uint            `gorm:"primaryKey"`
	InvoiceID      uint            `gorm:"not null;index"`
	StudentID      uint            `gorm:"not null;index"`
	Platform       Platform        `gorm:"column:payment_platform;type:varchar(16)"`
	Method         Method          `gorm:"column:payment_method;type:varchar(16)"`
	TransactionNo  string          `gorm:"column:transaction_no;size:255;not null;uniqueIndex:idx_payments_transaction_no"`
	TransactionFee decimal.Decimal `gorm:"column:transaction_fee;type:decimal(10,2)"`
	Amount         decimal.Decimal `gorm:"type:decimal(10,2)"`
	Status         PaymentStatus   `gorm:"type:varchar(16);not null;default:'pending'"`
	PaidAt         *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
	DeletedAt      gorm.DeletedAt `gorm:"index"`
}

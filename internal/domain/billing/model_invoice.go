package billing

import (
	"time"

	"tuition-billing/internal/domain/courses"
	"tuition-billing/internal/domain/users"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type InvoiceStatus string

const (
	InvoiceStatusPending InvoiceStatus = "pending"
	InvoiceStatusPaid    InvoiceStatus = "paid"
	InvoiceStatusFailed  InvoiceStatus = "failed"
)

type Invoice struct {
	ID        uint            `gorm:"primaryKey"`
	No        string          `gorm:"column:no;size:32;not null;uniqueIndex:idx_invoices_no"`
	CourseID  uint            `gorm:"not null;index"`
	Course    *courses.Course `gorm:"foreignKey:CourseID"`
	StudentID uint            `gorm:"not null;index"`
	Student   *users.User     `gorm:"foreignKey:StudentID"`
	Amount    decimal.Decimal `gorm:"type:decimal(10,2);not null"`
	Status    InvoiceStatus   `gorm:"type:varchar(16);not null;default:'pending'"`
	SentAt    *time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

func (i *Invoice) IsPaid() bool {
	return i.Status == InvoiceStatusPaid
}

// CourseName is empty when the course was not preloaded.
func (i *Invoice) CourseName() string {
	if i.Course == nil {
		return ""
	}
	return i.Course.Name
}

func (i *Invoice) BeforeCreate(tx *gorm.DB) error {
	if i.No == "" {
		i.No = GenerateInvoiceNo(time.Now())
	}
	if i.Status == "" {
		i.Status = InvoiceStatusPending
	}
	return nil
}

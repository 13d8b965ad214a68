package testutil

import (
	"fmt"
	"testing"

	"tuition-billing/internal/domain/billing"
	"tuition-billing/internal/domain/courses"
	"tuition-billing/internal/domain/users"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SeedInvoice creates a teacher, a student, a course and a pending invoice for amount.
func SeedInvoice(t *testing.T, db *gorm.DB, amount string) *billing.Invoice {
	t.Helper()

	suffix := uuid.NewString()[:8]
	teacher := &users.User{Name: "Teacher " + suffix, Email: fmt.Sprintf("teacher_%s@test.com", suffix), Role: users.RoleTeacher}
	student := &users.User{Name: "Student " + suffix, Email: fmt.Sprintf("student_%s@test.com", suffix), Role: users.RoleStudent}
	for _, u := range []*users.User{teacher, student} {
		if err := db.Create(u).Error; err != nil {
			t.Fatalf("create user: %v", err)
		}
	}

	course := &courses.Course{Name: "Piano " + suffix, YearMonth: "2025-01", TeacherID: teacher.ID}
	if err := db.Create(course).Error; err != nil {
		t.Fatalf("create course: %v", err)
	}

	inv := &billing.Invoice{
		CourseID:  course.ID,
		StudentID: student.ID,
		Amount:    decimal.RequireFromString(amount),
		Status:    billing.InvoiceStatusPending,
	}
	if err := db.Create(inv).Error; err != nil {
		t.Fatalf("create invoice: %v", err)
	}
	inv.Course = course
	return inv
}

// ReloadInvoice reads the invoice status straight from the database.
func ReloadInvoice(t *testing.T, db *gorm.DB, id uint) *billing.Invoice {
	t.Helper()
	var inv billing.Invoice
	if err := db.Unscoped().First(&inv, id).Error; err != nil {
		t.Fatalf("reload invoice %d: %v", id, err)
	}
	return &inv
}

// PaymentsFor returns every payment row for the invoice.
func PaymentsFor(t *testing.T, db *gorm.DB, invoiceID uint) []billing.Payment {
	t.Helper()
	var ps []billing.Payment
	if err := db.Unscoped().Where("invoice_id = ?", invoiceID).Find(&ps).Error; err != nil {
		t.Fatalf("load payments: %v", err)
	}
	return ps
}

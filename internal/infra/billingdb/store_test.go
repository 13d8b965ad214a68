package billingdb_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"tuition-billing/internal/domain/billing"
	"tuition-billing/internal/infra/billingdb"
	"tuition-billing/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func successPayment(inv *billing.Invoice, txNo string) *billing.Payment {
	paidAt := time.Now()
	return &billing.Payment{
		StudentID:      inv.StudentID,
		Platform:       billing.PlatformOmise,
		Method:         billing.MethodCard,
		TransactionNo:  txNo,
		TransactionFee: decimal.NewFromInt(30),
		Amount:         inv.Amount,
		Status:         billing.PaymentStatusSuccess,
		PaidAt:         &paidAt,
	}
}

func TestFindInvoice(t *testing.T) {
	db := testutil.NewDB(t)
	store := billingdb.New(db)
	inv := testutil.SeedInvoice(t, db, "1000")

	got, err := store.FindInvoice(context.Background(), inv.ID)
	require.NoError(t, err)
	assert.Equal(t, inv.No, got.No)
	assert.Len(t, got.No, 23)
	assert.Equal(t, billing.InvoiceStatusPending, got.Status)
	require.NotNil(t, got.Course)
	assert.Equal(t, inv.Course.Name, got.CourseName())

	_, err = store.FindInvoice(context.Background(), 99999)
	assert.ErrorIs(t, err, billing.ErrInvoiceNotFound)
}

func TestCommitPayment_MarksPaidAndInsertsPayment(t *testing.T) {
	db := testutil.NewDB(t)
	store := billingdb.New(db)
	inv := testutil.SeedInvoice(t, db, "1000")

	require.NoError(t, store.CommitPayment(context.Background(), inv.ID, successPayment(inv, "chrg_test_123")))

	assert.Equal(t, billing.InvoiceStatusPaid, testutil.ReloadInvoice(t, db, inv.ID).Status)
	payments := testutil.PaymentsFor(t, db, inv.ID)
	require.Len(t, payments, 1)
	assert.Equal(t, "chrg_test_123", payments[0].TransactionNo)
	assert.True(t, payments[0].TransactionFee.Equal(decimal.NewFromInt(30)), payments[0].TransactionFee.String())
	assert.True(t, payments[0].Amount.Equal(decimal.NewFromInt(1000)))
	assert.Equal(t, billing.PlatformOmise, payments[0].Platform)
	assert.Equal(t, billing.MethodCard, payments[0].Method)
}

func TestFindPaymentByTransaction(t *testing.T) {
	db := testutil.NewDB(t)
	store := billingdb.New(db)
	inv := testutil.SeedInvoice(t, db, "1000")
	require.NoError(t, store.CommitPayment(context.Background(), inv.ID, successPayment(inv, "chrg_found")))

	got, err := store.FindPaymentByTransaction(context.Background(), "chrg_found")
	require.NoError(t, err)
	assert.Equal(t, inv.ID, got.InvoiceID)
	assert.Equal(t, "chrg_found", got.TransactionNo)

	_, err = store.FindPaymentByTransaction(context.Background(), "chrg_missing")
	assert.ErrorIs(t, err, billing.ErrPaymentNotFound)
}

func TestCommitPayment_SecondCommitOnPaidInvoiceIsRejected(t *testing.T) {
	db := testutil.NewDB(t)
	store := billingdb.New(db)
	inv := testutil.SeedInvoice(t, db, "1000")

	require.NoError(t, store.CommitPayment(context.Background(), inv.ID, successPayment(inv, "chrg_first")))

	err := store.CommitPayment(context.Background(), inv.ID, successPayment(inv, "chrg_second"))
	assert.ErrorIs(t, err, billing.ErrInvoiceAlreadyPaid)

	payments := testutil.PaymentsFor(t, db, inv.ID)
	require.Len(t, payments, 1)
	assert.Equal(t, "chrg_first", payments[0].TransactionNo)
}

func TestCommitPayment_DuplicateTransactionLeavesBothInvoicesAlone(t *testing.T) {
	db := testutil.NewDB(t)
	store := billingdb.New(db)
	first := testutil.SeedInvoice(t, db, "1000")
	second := testutil.SeedInvoice(t, db, "500")

	require.NoError(t, store.CommitPayment(context.Background(), first.ID, successPayment(first, "chrg_shared")))

	err := store.CommitPayment(context.Background(), second.ID, successPayment(second, "chrg_shared"))
	assert.ErrorIs(t, err, billing.ErrDuplicateTransaction)

	assert.Equal(t, billing.InvoiceStatusPaid, testutil.ReloadInvoice(t, db, first.ID).Status)
	assert.Equal(t, billing.InvoiceStatusPending, testutil.ReloadInvoice(t, db, second.ID).Status)
	assert.Empty(t, testutil.PaymentsFor(t, db, second.ID))
	assert.Len(t, testutil.PaymentsFor(t, db, first.ID), 1)
}

func TestCommitPayment_RejectsMissingDeletedAndFailedInvoices(t *testing.T) {
	db := testutil.NewDB(t)
	store := billingdb.New(db)

	err := store.CommitPayment(context.Background(), 424242, &billing.Payment{TransactionNo: "chrg_x"})
	assert.ErrorIs(t, err, billing.ErrInvoiceNotFound)

	deleted := testutil.SeedInvoice(t, db, "1000")
	require.NoError(t, db.Delete(&billing.Invoice{}, deleted.ID).Error)
	err = store.CommitPayment(context.Background(), deleted.ID, successPayment(deleted, "chrg_deleted"))
	assert.ErrorIs(t, err, billing.ErrInvoiceNotFound)
	assert.Empty(t, testutil.PaymentsFor(t, db, deleted.ID))

	failed := testutil.SeedInvoice(t, db, "1000")
	require.NoError(t, db.Model(&billing.Invoice{}).Where("id = ?", failed.ID).Update("status", billing.InvoiceStatusFailed).Error)
	err = store.CommitPayment(context.Background(), failed.ID, successPayment(failed, "chrg_failed"))
	assert.ErrorIs(t, err, billing.ErrInvoiceNotPayable)
	assert.Equal(t, billing.InvoiceStatusFailed, testutil.ReloadInvoice(t, db, failed.ID).Status)
}

func TestAudit(t *testing.T) {
	db := testutil.NewDB(t)
	store := billingdb.New(db)

	healthy := testutil.SeedInvoice(t, db, "1000")
	require.NoError(t, store.CommitPayment(context.Background(), healthy.ID, successPayment(healthy, "chrg_ok")))
	_ = testutil.SeedInvoice(t, db, "1000") // pending without payment is consistent

	paidNoPayment := testutil.SeedInvoice(t, db, "1000")
	require.NoError(t, db.Model(&billing.Invoice{}).Where("id = ?", paidNoPayment.ID).Update("status", billing.InvoiceStatusPaid).Error)

	orphan := testutil.SeedInvoice(t, db, "1000")
	p := successPayment(orphan, "chrg_orphan")
	p.InvoiceID = orphan.ID
	require.NoError(t, db.Create(p).Error)

	rows, err := store.Audit(context.Background())
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, paidNoPayment.ID, rows[0].InvoiceID)
	assert.Equal(t, billingdb.ProblemPaidWithoutPayment, rows[0].Problem)
	assert.Equal(t, orphan.ID, rows[1].InvoiceID)
	assert.Equal(t, billingdb.ProblemPaymentOnUnpaidInvoice, rows[1].Problem)
	assert.Equal(t, int64(1), rows[1].SuccessPayments)
}

func TestListPayments(t *testing.T) {
	db := testutil.NewDB(t)
	store := billingdb.New(db)
	a := testutil.SeedInvoice(t, db, "1000")
	b := testutil.SeedInvoice(t, db, "500")
	require.NoError(t, store.CommitPayment(context.Background(), a.ID, successPayment(a, "chrg_a")))
	require.NoError(t, store.CommitPayment(context.Background(), b.ID, successPayment(b, "chrg_b")))

	all, err := store.ListPayments(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "chrg_b", all[0].TransactionNo)
	assert.Equal(t, b.No, all[0].InvoiceNo)

	mine, err := store.ListPayments(context.Background(), a.StudentID)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "chrg_a", mine[0].TransactionNo)
	assert.Equal(t, a.No, mine[0].InvoiceNo)
}

func TestListInvoices(t *testing.T) {
	db := testutil.NewDB(t)
	store := billingdb.New(db)
	inv := testutil.SeedInvoice(t, db, "1000")
	_ = testutil.SeedInvoice(t, db, "500")

	invs, err := store.ListInvoices(context.Background(), inv.StudentID)
	require.NoError(t, err)
	require.Len(t, invs, 1)
	assert.Equal(t, inv.No, invs[0].No)
	assert.Equal(t, inv.Course.Name, invs[0].CourseName())
}

func TestCommitPayment_ConcurrentCommitsLandOnce(t *testing.T) {
	db := testutil.NewDB(t)
	store := billingdb.New(db)
	inv := testutil.SeedInvoice(t, db, "1000")

	const attempts = 8
	var wg sync.WaitGroup
	errs := make([]error, attempts)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = store.CommitPayment(context.Background(), inv.ID, successPayment(inv, fmt.Sprintf("chrg_race_%d", i)))
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case errors.Is(err, billing.ErrInvoiceAlreadyPaid):
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Len(t, testutil.PaymentsFor(t, db, inv.ID), 1)
}

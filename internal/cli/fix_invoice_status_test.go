package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"tuition-billing/internal/domain/billing"
	"tuition-billing/internal/infra/billingdb"
	"tuition-billing/internal/payment"
	"tuition-billing/internal/testutil"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func run(t *testing.T, open ReconcilerFactory, args ...string) (int, string, string) {
	t.Helper()
	cmd := NewFixInvoiceStatusCmd(open)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	code := Execute(context.Background(), cmd, args)
	return code, stdout.String(), stderr.String()
}

func dbReconciler(db *gorm.DB) ReconcilerFactory {
	return func(context.Context) (Reconciler, error) {
		return payment.NewReconciler(billingdb.New(db), nil), nil
	}
}

func TestFixInvoiceStatus_RepairsThenNoOps(t *testing.T) {
	db := testutil.NewDB(t)
	inv := testutil.SeedInvoice(t, db, "1000")
	args := []string{
		fmt.Sprintf("--invoice_id=%d", inv.ID),
		"--transaction_no=chrg_test_123",
		"--transaction_fee=30.00",
	}

	code, out, _ := run(t, dbReconciler(db), args...)
	assert.Equal(t, 0, code)
	assert.Equal(t, "Invoice status fixed successfully\n", out)

	code, out, _ = run(t, dbReconciler(db), args...)
	assert.Equal(t, 0, code)
	assert.Equal(t, "The invoice is already in the paid state and does not need to be fixed\n", out)

	assert.Equal(t, billing.InvoiceStatusPaid, testutil.ReloadInvoice(t, db, inv.ID).Status)
	payments := testutil.PaymentsFor(t, db, inv.ID)
	require.Len(t, payments, 1)
	assert.True(t, payments[0].TransactionFee.Equal(decimal.NewFromInt(30)))
	assert.Equal(t, billing.PlatformOmise, payments[0].Platform)
}

func TestFixInvoiceStatus_StripePlatform(t *testing.T) {
	db := testutil.NewDB(t)
	inv := testutil.SeedInvoice(t, db, "1000")

	code, _, _ := run(t, dbReconciler(db),
		fmt.Sprintf("--invoice_id=%d", inv.ID), "--transaction_no=pi_123", "--transaction_fee=31.50", "--platform=stripe")
	require.Equal(t, 0, code)

	payments := testutil.PaymentsFor(t, db, inv.ID)
	require.Len(t, payments, 1)
	assert.Equal(t, billing.PlatformStripe, payments[0].Platform)
}

func TestFixInvoiceStatus_MissingParametersNeverOpensDatabase(t *testing.T) {
	opened := false
	open := func(context.Context) (Reconciler, error) {
		opened = true
		return nil, errors.New("unreachable")
	}

	code, _, errOut := run(t, open, "--invoice_id=1", "--transaction_no=chrg")
	assert.Equal(t, 1, code)
	assert.Equal(t, "Missing required parameters\n", errOut)
	assert.False(t, opened)
}

func TestFixInvoiceStatus_UnknownInvoice(t *testing.T) {
	db := testutil.NewDB(t)

	code, _, errOut := run(t, dbReconciler(db), "--invoice_id=999", "--transaction_no=chrg", "--transaction_fee=1")
	assert.Equal(t, 1, code)
	assert.Equal(t, "Invoice does not exist\n", errOut)
}

func TestFixInvoiceStatus_DuplicateTransaction(t *testing.T) {
	db := testutil.NewDB(t)
	first := testutil.SeedInvoice(t, db, "1000")
	second := testutil.SeedInvoice(t, db, "1000")

	code, _, _ := run(t, dbReconciler(db), fmt.Sprintf("--invoice_id=%d", first.ID), "--transaction_no=chrg_dup", "--transaction_fee=30")
	require.Equal(t, 0, code)

	code, _, errOut := run(t, dbReconciler(db), fmt.Sprintf("--invoice_id=%d", second.ID), "--transaction_no=chrg_dup", "--transaction_fee=30")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "Fix failed: Transaction is already recorded against another invoice")
	assert.Equal(t, billing.InvoiceStatusPending, testutil.ReloadInvoice(t, db, second.ID).Status)
}

func TestFixInvoiceStatus_DatabaseUnavailable(t *testing.T) {
	open := func(context.Context) (Reconciler, error) { return nil, errors.New("connection refused") }

	code, _, errOut := run(t, open, "--invoice_id=1", "--transaction_no=chrg", "--transaction_fee=1")
	assert.Equal(t, 1, code)
	assert.Equal(t, "Fix failed: Could not open database: connection refused\n", errOut)
}

func TestFixInvoiceStatus_UnknownFlag(t *testing.T) {
	code, _, errOut := run(t, dbReconciler(nil), "--nope")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "unknown flag")
}

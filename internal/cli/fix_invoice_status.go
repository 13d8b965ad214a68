// Package cli holds the operator commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"tuition-billing/internal/apperrors"
	"tuition-billing/internal/payment"

	"github.com/spf13/cobra"
)

// Reconciler is the subset of *payment.Reconciler the command drives.
type Reconciler interface {
	Reconcile(ctx context.Context, rec payment.RecoveryRecord) (payment.ReconcileOutcome, error)
}

// ReconcilerFactory is called only after the flags validated, so usage errors never touch the database.
type ReconcilerFactory func(ctx context.Context) (Reconciler, error)

// NewFixInvoiceStatusCmd builds the fix-invoice-status command.
func NewFixInvoiceStatusCmd(open ReconcilerFactory) *cobra.Command {
	var invoiceID, transactionNo, transactionFee, platform string

	cmd := &cobra.Command{
		Use:   "fix-invoice-status",
		Short: "Fix invoices that are paid but have not been updated",
		Long: `Record a payment the gateway captured but the database never saw.

Run the command printed in a pay-error-update-invoice-status log entry.
Running it again for an invoice that is already paid changes nothing.

Examples:
  fix-invoice-status --invoice_id=42 --transaction_no=chrg_test_5xyz --transaction_fee=30.00
  fix-invoice-status --invoice_id=42 --transaction_no=pi_3Nxyz --transaction_fee=31.50 --platform=stripe`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			rec, err := payment.ParseRecoveryRecord(invoiceID, transactionNo, transactionFee, platform)
			if err != nil {
				cmd.PrintErrln(apperrors.Message(err))
				return err
			}

			r, err := open(cmd.Context())
			if err != nil {
				err = apperrors.Wrap(err, apperrors.CodeLocalCommitFailure, "reconcile", "Could not open database", http.StatusInternalServerError)
				cmd.PrintErrln(failureLine(err))
				return err
			}

			outcome, err := r.Reconcile(cmd.Context(), rec)
			if err != nil {
				cmd.PrintErrln(failureLine(err))
				return err
			}

			if outcome == payment.OutcomeAlreadyPaid {
				fmt.Fprintln(cmd.OutOrStdout(), "The invoice is already in the paid state and does not need to be fixed")
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Invoice status fixed successfully")
			return nil
		},
	}

	cmd.Flags().StringVar(&invoiceID, "invoice_id", "", "ID of the invoice to fix")
	cmd.Flags().StringVar(&transactionNo, "transaction_no", "", "payment platform transaction number")
	cmd.Flags().StringVar(&transactionFee, "transaction_fee", "", "transaction fee in major units")
	cmd.Flags().StringVar(&platform, "platform", "omise", "payment platform (omise, stripe)")

	return cmd
}

func failureLine(err error) string {
	if apperrors.CodeOf(err) == apperrors.CodeReconciliationUsage {
		return apperrors.Message(err)
	}
	line := "Fix failed: " + apperrors.Message(err)
	if cause := errors.Unwrap(err); cause != nil {
		line += ": " + cause.Error()
	}
	return line
}

// Execute runs cmd with args and returns the process exit code.
func Execute(ctx context.Context, cmd *cobra.Command, args []string) int {
	cmd.SetArgs(args)
	if err := cmd.ExecuteContext(ctx); err != nil {
		// RunE reports its own failures; flag parsing errors arrive here unprinted.
		var appErr *apperrors.AppError
		if !errors.As(err, &appErr) {
			cmd.PrintErrln(err)
		}
		return 1
	}
	return 0
}

package payment

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"tuition-billing/internal/apperrors"
	"tuition-billing/internal/domain/billing"
)

// InvoiceStore is the Store plus the invoice lookup reconciliation needs.
type InvoiceStore interface {
	Store
	FindInvoice(ctx context.Context, id uint) (*billing.Invoice, error)
}

type ReconcileOutcome string

const (
	OutcomeRepaired    ReconcileOutcome = "repaired"
	OutcomeAlreadyPaid ReconcileOutcome = "already_paid"
)

// Reconciler replays a RecoveryRecord after a post-capture commit failure.
// It never talks to a gateway and is safe to run any number of times.
type Reconciler struct {
	store InvoiceStore
	log   *slog.Logger
	now   func() time.Time
}

func NewReconciler(store InvoiceStore, log *slog.Logger) *Reconciler {
	if log == nil {
		log = slog.Default()
	}
	return &Reconciler{store: store, log: log.With("component", "reconcile"), now: time.Now}
}

func (r *Reconciler) Reconcile(ctx context.Context, rec RecoveryRecord) (ReconcileOutcome, error) {
	if rec.InvoiceID == 0 || rec.TransactionNo == "" {
		return "", errUsage(ErrMissingParameters, "Missing required parameters")
	}
	if rec.Platform == "" {
		rec.Platform = billing.PlatformOmise
	}
	if rec.Method == "" {
		rec.Method = billing.MethodCard
	}
	log := r.log.With(rec.LogAttrs()...)

	inv, err := r.store.FindInvoice(ctx, rec.InvoiceID)
	if errors.Is(err, billing.ErrInvoiceNotFound) {
		return "", errUsage(err, "Invoice does not exist")
	}
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.CodeLocalCommitFailure, "reconcile", "Could not load invoice", http.StatusInternalServerError)
	}
	if inv.IsPaid() {
		log.Info("invoice-already-paid")
		return OutcomeAlreadyPaid, nil
	}

	err = r.store.CommitPayment(ctx, inv.ID, rec.payment(inv.StudentID, inv.Amount, r.now()))
	switch {
	case err == nil:
		log.Info("invoice-reconciled")
		return OutcomeRepaired, nil
	case errors.Is(err, billing.ErrInvoiceAlreadyPaid):
		// Another writer paid it between the lookup and the commit.
		log.Info("invoice-already-paid")
		return OutcomeAlreadyPaid, nil
	case errors.Is(err, billing.ErrDuplicateTransaction):
		log.Error("reconcile-duplicate-transaction", "error", err.Error())
		return "", apperrors.Wrap(err, apperrors.CodeDuplicateTransaction, "reconcile",
			"Transaction is already recorded against another invoice", http.StatusConflict)
	case errors.Is(err, billing.ErrInvoiceNotFound):
		return "", errUsage(err, "Invoice does not exist")
	case errors.Is(err, billing.ErrInvoiceNotPayable):
		return "", errUsage(err, "Invoice is not awaiting payment")
	default:
		log.Error("reconcile-commit-failed", "error", err.Error())
		return "", apperrors.Wrap(err, apperrors.CodeLocalCommitFailure, "reconcile", "Invoice status was not updated", http.StatusInternalServerError)
	}
}

package payment

import (
	"net/http"

	"tuition-billing/internal/apperrors"
	"tuition-billing/internal/domain/billing"
)

// User facing messages. Each failure class has its own wording so a caller can tell them apart.
const (
	MsgPaymentSuccessful    = "Payment successful"
	MsgAlreadyPaid          = "The order has already been paid"
	MsgContactAdministrator = "You have successfully paid, but the update status failed, please contact the administrator"
	MsgCaptureUnconfirmed   = "Payment result could not be confirmed by the payment gateway, please contact the administrator before paying again"
	MsgGatewayUnavailable   = "Payment failed, the payment gateway could not be reached, please try again later"
	MsgUnsupportedPlatform  = "Unsupported payment platform"
	MsgDoubleCapture        = "The order was already paid by another payment, this charge will be refunded, please contact the administrator"
)

func errAlreadyPaid() *apperrors.AppError {
	return apperrors.Wrap(billing.ErrInvoiceAlreadyPaid, apperrors.CodeAlreadyPaid, "payment", MsgAlreadyPaid, http.StatusUnprocessableEntity)
}

func errUsage(err error, message string) *apperrors.AppError {
	return apperrors.Wrap(err, apperrors.CodeReconciliationUsage, "reconcile", message, http.StatusBadRequest)
}

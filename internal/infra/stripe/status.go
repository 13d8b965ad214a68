package stripe

import stripego "github.com/stripe/stripe-go/v75"

// Normalization used ONLY for payment intents created or fetched by Client.
func NormalizeIntentStatus(s stripego.PaymentIntentStatus) string {
	switch s {
	case stripego.PaymentIntentStatusSucceeded:
		return "succeeded"
	case stripego.PaymentIntentStatusProcessing, stripego.PaymentIntentStatusRequiresCapture:
		return "processing"
	case stripego.PaymentIntentStatusRequiresAction, stripego.PaymentIntentStatusRequiresConfirmation:
		return "requires_action"
	case stripego.PaymentIntentStatusRequiresPaymentMethod:
		return "failed"
	case stripego.PaymentIntentStatusCanceled:
		return "canceled"
	default:
		return string(s)
	}
}

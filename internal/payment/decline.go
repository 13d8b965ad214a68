package payment

import (
	"fmt"

	"tuition-billing/internal/domain/billing"
)

// DeclineReason is a processor-independent cause for a refused charge.
type DeclineReason string

const (
	ReasonInsufficientFunds   DeclineReason = "insufficient_funds"
	ReasonInsufficientBalance DeclineReason = "insufficient_balance"
	ReasonFraudSuspected      DeclineReason = "fraud_suspected"
	ReasonAmountMismatch      DeclineReason = "amount_mismatch"
	ReasonProcessingFailed    DeclineReason = "processing_failed"
	ReasonInvalidCard         DeclineReason = "invalid_card"
	ReasonCancelled           DeclineReason = "cancelled"
	ReasonIssuerRejected      DeclineReason = "issuer_rejected"
	ReasonStolenOrLostCard    DeclineReason = "stolen_or_lost_card"
	ReasonGatewayTimeout      DeclineReason = "gateway_timeout"
	ReasonUnrecognized        DeclineReason = "unrecognized"
)

var declineMessages = map[DeclineReason]string{
	ReasonInsufficientFunds:   "Payment failed, insufficient funds",
	ReasonInsufficientBalance: "Payment failed, insufficient balance",
	ReasonFraudSuspected:      "Payment failed, the card is marked as fraudulent, it is recommended to use another credit card",
	ReasonAmountMismatch:      "Payment failed, the payment gateway amount does not match the order amount, please try again later",
	ReasonProcessingFailed:    "Payment failed, payment gateway processing failed, please try again later",
	ReasonInvalidCard:         "Payment failed, card number or username is incorrect, please use another credit card",
	ReasonCancelled:           "Payment failed, you have cancelled the payment",
	ReasonIssuerRejected:      "Payment failed, rejected by the issuing bank",
	ReasonStolenOrLostCard:    "Payment failed, the card is stolen or lost, please use another credit card",
	ReasonGatewayTimeout:      "Payment failed, payment gateway timeout, please try again later",
}

// DeclineTable maps one processor's failure codes to reasons. Tables are never mutated.
type DeclineTable map[string]DeclineReason

var omiseDeclines = DeclineTable{
	"insufficient_fund":         ReasonInsufficientFunds,
	"insufficient_balance":      ReasonInsufficientBalance,
	"failed_fraud_check":        ReasonFraudSuspected,
	"confirmed_amount_mismatch": ReasonAmountMismatch,
	"failed_processing":         ReasonProcessingFailed,
	"invalid_account_number":    ReasonInvalidCard,
	"invalid_account":           ReasonInvalidCard,
	"invalid_card":              ReasonInvalidCard,
	"payment_cancelled":         ReasonCancelled,
	"payment_rejected":          ReasonIssuerRejected,
	"stolen_or_lost_card":       ReasonStolenOrLostCard,
	"timeout":                   ReasonGatewayTimeout,
}

var stripeDeclines = DeclineTable{
	"insufficient_funds":      ReasonInsufficientFunds,
	"balance_insufficient":    ReasonInsufficientBalance,
	"fraudulent":              ReasonFraudSuspected,
	"merchant_blacklist":      ReasonFraudSuspected,
	"amount_too_large":        ReasonAmountMismatch,
	"amount_too_small":        ReasonAmountMismatch,
	"processing_error":        ReasonProcessingFailed,
	"incorrect_number":        ReasonInvalidCard,
	"invalid_number":          ReasonInvalidCard,
	"invalid_account":         ReasonInvalidCard,
	"expired_card":            ReasonInvalidCard,
	"incorrect_cvc":           ReasonInvalidCard,
	"canceled":                ReasonCancelled,
	"do_not_honor":            ReasonIssuerRejected,
	"generic_decline":         ReasonIssuerRejected,
	"card_declined":           ReasonIssuerRejected,
	"authentication_required": ReasonIssuerRejected,
	"stolen_card":             ReasonStolenOrLostCard,
	"lost_card":               ReasonStolenOrLostCard,
	"pickup_card":             ReasonStolenOrLostCard,
	"issuer_not_available":    ReasonGatewayTimeout,
	"try_again_later":         ReasonGatewayTimeout,
}

// Resolve maps a failure code; unknown codes come back as ReasonUnrecognized.
func (t DeclineTable) Resolve(code string) DeclineReason {
	if r, ok := t[code]; ok {
		return r
	}
	return ReasonUnrecognized
}

// DeclineError is a pre-capture refusal reported by the gateway.
type DeclineError struct {
	Platform billing.Platform
	Reason   DeclineReason
	Code     string
	Message  string
}

func (e *DeclineError) Error() string {
	return fmt.Sprintf("%s declined charge (%s): %s", e.Platform, e.Code, e.Message)
}

func newDeclineError(platform billing.Platform, table DeclineTable, code, rawMessage string) *DeclineError {
	reason := table.Resolve(code)
	msg, ok := declineMessages[reason]
	if !ok {
		if rawMessage != "" {
			msg = fmt.Sprintf("Payment failed, %s (%s)", rawMessage, code)
		} else {
			msg = fmt.Sprintf("Payment failed, payment gateway returned %s", code)
		}
	}
	return &DeclineError{Platform: platform, Reason: reason, Code: code, Message: msg}
}

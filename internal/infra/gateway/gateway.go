// Package gateway holds the processor-neutral shapes exchanged with card gateways.
package gateway

import (
	"errors"
	"fmt"
)

var ErrNotConfigured = errors.New("gateway not configured")

// ChargeRequest asks a gateway to authorize and capture AmountMinor in one call.
type ChargeRequest struct {
	AmountMinor    int64
	Currency       string
	Description    string
	Token          string
	IdempotencyKey string
	Metadata       map[string]string
}

// Charge is the gateway's answer to a ChargeRequest.
// A non-empty FailureCode means the gateway refused the charge, whatever the HTTP status was.
type Charge struct {
	ID             string
	Status         string
	Captured       bool
	AmountCaptured int64
	NetAmount      int64
	FailureCode    string
	FailureMessage string
}

// TransportError is returned when no usable answer came back.
// Ambiguous is set when the request may have reached the gateway, so the charge may exist.
type TransportError struct {
	Gateway   string
	Op        string
	Ambiguous bool
	ChargeID  string
	Err       error
}

func (e *TransportError) Error() string {
	if e.Ambiguous {
		return fmt.Sprintf("%s %s: outcome unknown: %v", e.Gateway, e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Gateway, e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// IsAmbiguous reports whether err carries a TransportError that may hide a capture.
func IsAmbiguous(err error) bool {
	var te *TransportError
	return errors.As(err, &te) && te.Ambiguous
}

// Package omise talks to the Omise Charges API.
package omise

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"tuition-billing/internal/infra/gateway"
)

const gatewayName = "omise"

type Config struct {
	BaseURL    string
	PublicKey  string
	SecretKey  string
	APIVersion string
	HTTPClient *http.Client
}

type Client struct {
	baseURL    string
	publicKey  string
	secretKey  string
	apiVersion string
	http       *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("omise: %w", gateway.ErrNotConfigured)
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		base = "https://api.omise.co"
	}
	hc := cfg.HTTPClient
	if hc == nil {
		hc = &http.Client{}
	}
	return &Client{
		baseURL:    base,
		publicKey:  cfg.PublicKey,
		secretKey:  cfg.SecretKey,
		apiVersion: cfg.APIVersion,
		http:       hc,
	}, nil
}

type chargeResponse struct {
	Object         string  `json:"object"`
	ID             string  `json:"id"`
	Status         string  `json:"status"`
	Amount         int64   `json:"amount"`
	Net            int64   `json:"net"`
	Paid           bool    `json:"paid"`
	Captured       bool    `json:"captured"`
	FailureCode    *string `json:"failure_code"`
	FailureMessage *string `json:"failure_message"`
}

type errorResponse struct {
	Object  string `json:"object"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Charge creates and captures a charge against a single-use card token.
func (c *Client) Charge(ctx context.Context, req gateway.ChargeRequest) (*gateway.Charge, error) {
	form := url.Values{}
	form.Set("amount", strconv.FormatInt(req.AmountMinor, 10))
	form.Set("currency", strings.ToLower(req.Currency))
	form.Set("description", req.Description)
	form.Set("card", req.Token)
	for k, v := range req.Metadata {
		form.Set("metadata["+k+"]", v)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/charges", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, &gateway.TransportError{Gateway: gatewayName, Op: "build request", Err: err}
	}
	httpReq.SetBasicAuth(c.secretKey, "")
	httpReq.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	httpReq.Header.Set("Accept", "application/json")
	if c.apiVersion != "" {
		httpReq.Header.Set("Omise-Version", c.apiVersion)
	}
	if req.IdempotencyKey != "" {
		httpReq.Header.Set("Idempotency-Key", req.IdempotencyKey)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &gateway.TransportError{
			Gateway:   gatewayName,
			Op:        "create charge",
			Ambiguous: !isDialError(err),
			Err:       err,
		}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, &gateway.TransportError{Gateway: gatewayName, Op: "read response", Ambiguous: true, Err: err}
	}

	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, &gateway.TransportError{
			Gateway:   gatewayName,
			Op:        "create charge",
			Ambiguous: true,
			Err:       fmt.Errorf("unexpected status %d", resp.StatusCode),
		}
	}

	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr errorResponse
		if err := json.Unmarshal(body, &apiErr); err != nil || apiErr.Code == "" {
			return nil, &gateway.TransportError{
				Gateway: gatewayName,
				Op:      "create charge",
				Err:     fmt.Errorf("rejected with status %d", resp.StatusCode),
			}
		}
		if !cardErrorCodes[apiErr.Code] {
			return nil, &gateway.TransportError{
				Gateway: gatewayName,
				Op:      "create charge",
				Err:     fmt.Errorf("rejected with status %d: %s: %s", resp.StatusCode, apiErr.Code, apiErr.Message),
			}
		}
		// The card was refused before a charge existed.
		return &gateway.Charge{
			Status:         "failed",
			FailureCode:    apiErr.Code,
			FailureMessage: apiErr.Message,
		}, nil
	}

	var ch chargeResponse
	if err := json.Unmarshal(body, &ch); err != nil {
		return nil, &gateway.TransportError{Gateway: gatewayName, Op: "decode charge", Ambiguous: true, Err: err}
	}

	return toCharge(ch), nil
}

// cardErrorCodes are request errors caused by the payer's card or token.
// Anything else is a merchant-side fault and must not reach the payer as a decline.
var cardErrorCodes = map[string]bool{
	"invalid_card":           true,
	"invalid_security_code":  true,
	"used_token":             true,
	"insufficient_fund":      true,
	"insufficient_balance":   true,
	"failed_fraud_check":     true,
	"failed_processing":      true,
	"invalid_account":        true,
	"invalid_account_number": true,
	"payment_rejected":       true,
	"payment_cancelled":      true,
	"stolen_or_lost_card":    true,
}

func toCharge(ch chargeResponse) *gateway.Charge {
	out := &gateway.Charge{
		ID:             ch.ID,
		Status:         ch.Status,
		Captured:       ch.Paid || ch.Captured || ch.Status == "successful",
		AmountCaptured: ch.Amount,
		NetAmount:      ch.Net,
	}
	if ch.FailureCode != nil {
		out.FailureCode = *ch.FailureCode
	}
	if ch.FailureMessage != nil {
		out.FailureMessage = *ch.FailureMessage
	}
	if out.FailureCode != "" {
		out.Captured = false
	}
	return out
}

// isDialError is true when the connection was never established, so nothing reached Omise.
func isDialError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

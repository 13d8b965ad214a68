package omise

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"tuition-billing/internal/infra/gateway"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	c, err := NewClient(Config{BaseURL: srv.URL, SecretKey: "skey_test_123", APIVersion: "2019-05-29"})
	require.NoError(t, err)
	return c
}

func TestNewClient_RequiresSecretKey(t *testing.T) {
	_, err := NewClient(Config{})
	assert.ErrorIs(t, err, gateway.ErrNotConfigured)
}

func TestCharge_SendsFormAndParsesSuccess(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/charges", r.URL.Path)

		user, _, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "skey_test_123", user)
		assert.Equal(t, "2019-05-29", r.Header.Get("Omise-Version"))
		assert.Equal(t, "invoice-1-abc", r.Header.Get("Idempotency-Key"))

		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "100000", r.PostForm.Get("amount"))
		assert.Equal(t, "jpy", r.PostForm.Get("currency"))
		assert.Equal(t, "tokn_test_1", r.PostForm.Get("card"))
		assert.Equal(t, "1", r.PostForm.Get("metadata[invoice_id]"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"object":"charge","id":"chrg_test_123","status":"successful","amount":100000,"net":97000,"paid":true,"failure_code":null}`))
	})

	ch, err := c.Charge(context.Background(), gateway.ChargeRequest{
		AmountMinor:    100000,
		Currency:       "JPY",
		Description:    "Payment for invoice 1 - Piano",
		Token:          "tokn_test_1",
		IdempotencyKey: "invoice-1-abc",
		Metadata:       map[string]string{"invoice_id": "1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "chrg_test_123", ch.ID)
	assert.True(t, ch.Captured)
	assert.Equal(t, int64(100000), ch.AmountCaptured)
	assert.Equal(t, int64(97000), ch.NetAmount)
	assert.Empty(t, ch.FailureCode)
}

func TestCharge_FailureCodeInBody(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"object":"charge","id":"chrg_test_9","status":"failed","amount":100000,"net":0,"paid":false,"failure_code":"insufficient_fund","failure_message":"insufficient funds in the account"}`))
	})

	ch, err := c.Charge(context.Background(), gateway.ChargeRequest{AmountMinor: 100000, Currency: "JPY", Token: "tokn"})
	require.NoError(t, err)
	assert.False(t, ch.Captured)
	assert.Equal(t, "insufficient_fund", ch.FailureCode)
	assert.Equal(t, "insufficient funds in the account", ch.FailureMessage)
}

func TestCharge_ClientErrorBecomesFailureCode(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"object":"error","code":"used_token","message":"token was already used"}`))
	})

	ch, err := c.Charge(context.Background(), gateway.ChargeRequest{AmountMinor: 100, Currency: "JPY", Token: "tokn"})
	require.NoError(t, err)
	assert.Equal(t, "used_token", ch.FailureCode)
	assert.Empty(t, ch.ID)
}

func TestCharge_MerchantSideClientErrorIsNotADecline(t *testing.T) {
	for _, code := range []string{"authentication_failure", "invalid_amount", "invalid_currency"} {
		t.Run(code, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusBadRequest)
				_, _ = w.Write([]byte(`{"object":"error","code":"` + code + `","message":"refused"}`))
			})

			ch, err := c.Charge(context.Background(), gateway.ChargeRequest{AmountMinor: 100, Currency: "JPY", Token: "tokn"})
			require.Error(t, err)
			assert.Nil(t, ch)

			var te *gateway.TransportError
			require.ErrorAs(t, err, &te)
			assert.False(t, gateway.IsAmbiguous(err))
			assert.Contains(t, err.Error(), code)
		})
	}
}

func TestCharge_ServerErrorIsAmbiguous(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.Charge(context.Background(), gateway.ChargeRequest{AmountMinor: 100, Currency: "JPY", Token: "tokn"})
	require.Error(t, err)
	assert.True(t, gateway.IsAmbiguous(err))
}

func TestCharge_TimeoutIsAmbiguous(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Charge(ctx, gateway.ChargeRequest{AmountMinor: 100, Currency: "JPY", Token: "tokn"})
	require.Error(t, err)
	assert.True(t, gateway.IsAmbiguous(err))
}

func TestCharge_UnreachableIsNotAmbiguous(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := NewClient(Config{BaseURL: url, SecretKey: "skey"})
	require.NoError(t, err)

	_, err = c.Charge(context.Background(), gateway.ChargeRequest{AmountMinor: 100, Currency: "JPY", Token: "tokn"})
	require.Error(t, err)
	assert.False(t, gateway.IsAmbiguous(err))
}

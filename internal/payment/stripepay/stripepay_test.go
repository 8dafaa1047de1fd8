package stripepay

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stripe/stripe-go/v76"
	"go.uber.org/zap"

	"github.com/xenking/teahouse-backend/internal/payment"
)

const webhookSecret = "whsec_test"

func newTestProcessor(t *testing.T, h http.HandlerFunc) *Processor {
	t.Helper()

	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)

	return New(Config{
		SecretKey:         "sk_test_123",
		WebhookSecret:     webhookSecret,
		BackendURL:        srv.URL,
		HTTPClient:        srv.Client(),
		MaxNetworkRetries: stripe.Int64(0),
	}, zap.NewNop())
}

func TestProcessor_CreateIntent(t *testing.T) {
	var form url.Values
	p := newTestProcessor(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/payment_intents", r.URL.Path)
		assert.Equal(t, "Bearer sk_test_123", r.Header.Get("Authorization"))

		body, err := io.ReadAll(r.Body)
		assert.NoError(t, err)
		form, err = url.ParseQuery(string(body))
		assert.NoError(t, err)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "pi_1",
			"object": "payment_intent",
			"amount": 1999,
			"currency": "gbp",
			"client_secret": "pi_1_secret_abc",
			"status": "requires_payment_method"
		}`)
	})

	intent, err := p.CreateIntent(context.Background(), decimal.RequireFromString("19.99"), "GBP")
	require.NoError(t, err)

	assert.Equal(t, "1999", form.Get("amount"))
	assert.Equal(t, "gbp", form.Get("currency"))
	assert.Equal(t, "true", form.Get("automatic_payment_methods[enabled]"))
	assert.Equal(t, "accept_a_payment", form.Get("metadata[integration_check]"))

	assert.Equal(t, "pi_1", intent.ID)
	assert.Equal(t, "pi_1_secret_abc", intent.ClientSecret)
	assert.True(t, decimal.RequireFromString("19.99").Equal(intent.Amount))
	assert.Equal(t, payment.StatusRequiresPaymentMethod, intent.Status)
}

func TestProcessor_GetIntent(t *testing.T) {
	p := newTestProcessor(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/v1/payment_intents/pi_2", r.URL.Path)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"pi_2","object":"payment_intent","amount":500,"currency":"gbp","status":"succeeded"}`)
	})

	intent, err := p.GetIntent(context.Background(), "pi_2")
	require.NoError(t, err)
	assert.Equal(t, payment.StatusSucceeded, intent.Status)
	assert.True(t, decimal.RequireFromString("5").Equal(intent.Amount))
}

func TestProcessor_Errors(t *testing.T) {
	tests := []struct {
		name         string
		status       int
		body         string
		wantCode     string
		wantDeclined bool
	}{
		{
			name:         "card declined",
			status:       http.StatusPaymentRequired,
			body:         `{"error":{"type":"card_error","code":"card_declined","message":"Your card was declined."}}`,
			wantCode:     "card_declined",
			wantDeclined: true,
		},
		{
			name:     "processor failure",
			status:   http.StatusInternalServerError,
			body:     `{"error":{"type":"api_error","message":"Something went wrong."}}`,
			wantCode: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newTestProcessor(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := p.CreateIntent(context.Background(), decimal.RequireFromString("5"), "gbp")
			var pe *payment.ProcessorError
			require.ErrorAs(t, err, &pe)
			assert.Equal(t, tt.wantCode, pe.Code)
			assert.Equal(t, tt.wantDeclined, pe.Declined)
			assert.NotEmpty(t, pe.Message)
		})
	}
}

func sign(payload []byte, secret string, ts time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	_, _ = fmt.Fprintf(mac, "%d.%s", ts.Unix(), payload)
	return fmt.Sprintf("t=%d,v1=%s", ts.Unix(), hex.EncodeToString(mac.Sum(nil)))
}

func TestProcessor_ParseEvent(t *testing.T) {
	p := newTestProcessor(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("webhook parsing must not call the API")
	})

	payload := []byte(`{
		"id": "evt_1",
		"object": "event",
		"type": "payment_intent.succeeded",
		"api_version": "2020-08-27",
		"data": {"object": {"id": "pi_9", "object": "payment_intent", "amount": 750, "currency": "gbp", "status": "succeeded"}}
	}`)

	t.Run("valid signature", func(t *testing.T) {
		event, err := p.ParseEvent(payload, sign(payload, webhookSecret, time.Now()))
		require.NoError(t, err)
		assert.Equal(t, "evt_1", event.ID)
		assert.Equal(t, payment.EventIntentSucceeded, event.Type)
		assert.Equal(t, "pi_9", event.IntentID)
		assert.Equal(t, payment.StatusSucceeded, event.Status)
	})

	t.Run("wrong secret", func(t *testing.T) {
		_, err := p.ParseEvent(payload, sign(payload, "whsec_other", time.Now()))
		require.ErrorIs(t, err, payment.ErrInvalidSignature)

		var se *payment.SignatureError
		require.ErrorAs(t, err, &se)
		assert.Error(t, se.Err)
		assert.True(t, strings.HasPrefix(err.Error(), "invalid webhook signature: "), err.Error())
	})

	t.Run("tampered payload", func(t *testing.T) {
		sig := sign(payload, webhookSecret, time.Now())
		_, err := p.ParseEvent(append([]byte(" "), payload...), sig)
		require.ErrorIs(t, err, payment.ErrInvalidSignature)
	})

	t.Run("stale timestamp", func(t *testing.T) {
		_, err := p.ParseEvent(payload, sign(payload, webhookSecret, time.Now().Add(-time.Hour)))
		require.ErrorIs(t, err, payment.ErrInvalidSignature)
	})

	t.Run("missing header", func(t *testing.T) {
		_, err := p.ParseEvent(payload, "")
		require.ErrorIs(t, err, payment.ErrInvalidSignature)
	})
}

func TestToMinor(t *testing.T) {
	tests := []struct {
		in   string
		want int64
	}{
		{in: "0.50", want: 50},
		{in: "19.99", want: 1999},
		{in: "3.005", want: 301},
		{in: "12", want: 1200},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, toMinor(decimal.RequireFromString(tt.in)))
		})
	}
}

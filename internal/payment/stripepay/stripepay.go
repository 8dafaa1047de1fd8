// Package stripepay implements payment.Processor on top of the Stripe API.
package stripepay

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"

	"github.com/xenking/teahouse-backend/internal/payment"
)

var _ payment.Processor = (*Processor)(nil)

// minorUnits is the exponent between the major and the minor currency unit.
// Zero-decimal currencies are not supported.
const minorUnits = 2

// Config holds the Stripe credentials.
type Config struct {
	SecretKey     string
	WebhookSecret string

	// BackendURL overrides the Stripe API endpoint.
	BackendURL string
	HTTPClient *http.Client
	// MaxNetworkRetries overrides the client retry count when non-nil.
	MaxNetworkRetries *int64
}

// Processor is a Stripe backed payment.Processor.
type Processor struct {
	api           *client.API
	webhookSecret string
}

// New creates a Stripe processor. Client logs are routed to lg.
func New(cfg Config, lg *zap.Logger) *Processor {
	backendCfg := &stripe.BackendConfig{
		HTTPClient:        cfg.HTTPClient,
		LeveledLogger:     lg.Named("stripe").Sugar(),
		MaxNetworkRetries: cfg.MaxNetworkRetries,
	}
	if cfg.BackendURL != "" {
		backendCfg.URL = stripe.String(cfg.BackendURL)
	}
	backends := &stripe.Backends{
		API:     stripe.GetBackendWithConfig(stripe.APIBackend, backendCfg),
		Connect: stripe.GetBackendWithConfig(stripe.ConnectBackend, backendCfg),
		Uploads: stripe.GetBackendWithConfig(stripe.UploadsBackend, backendCfg),
	}
	return &Processor{
		api:           client.New(cfg.SecretKey, backends),
		webhookSecret: cfg.WebhookSecret,
	}
}

func (p *Processor) CreateIntent(ctx context.Context, amount decimal.Decimal, currency string) (*payment.Intent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(toMinor(amount)),
		Currency: stripe.String(strings.ToLower(currency)),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.Context = ctx
	params.AddMetadata("integration_check", "accept_a_payment")

	pi, err := p.api.PaymentIntents.New(params)
	if err != nil {
		return nil, convertError(err)
	}
	return toIntent(pi), nil
}

func (p *Processor) GetIntent(ctx context.Context, id string) (*payment.Intent, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := p.api.PaymentIntents.Get(id, params)
	if err != nil {
		return nil, convertError(err)
	}
	return toIntent(pi), nil
}

func (p *Processor) ParseEvent(payload []byte, signature string) (*payment.Event, error) {
	if p.webhookSecret == "" {
		return nil, &payment.ProcessorError{Code: "unconfigured", Message: "webhook secret is not configured"}
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, p.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, &payment.SignatureError{Err: err}
	}

	out := &payment.Event{
		ID:   event.ID,
		Type: string(event.Type),
	}
	if event.Data == nil || !strings.HasPrefix(out.Type, "payment_intent.") {
		return out, nil
	}
	var pi stripe.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, errors.Wrap(err, "decode payment intent")
	}
	out.IntentID = pi.ID
	out.Status = payment.IntentStatus(pi.Status)
	return out, nil
}

func toMinor(amount decimal.Decimal) int64 {
	return amount.Shift(minorUnits).Round(0).IntPart()
}

func toIntent(pi *stripe.PaymentIntent) *payment.Intent {
	return &payment.Intent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Amount:       decimal.New(pi.Amount, -minorUnits),
		Currency:     string(pi.Currency),
		Status:       payment.IntentStatus(pi.Status),
	}
}

// convertError maps Stripe API failures to payment.ProcessorError.
func convertError(err error) error {
	var se *stripe.Error
	if !errors.As(err, &se) {
		return &payment.ProcessorError{Message: err.Error()}
	}
	return &payment.ProcessorError{
		Code:     string(se.Code),
		Message:  se.Msg,
		Declined: se.Type == stripe.ErrorTypeCard || se.Type == stripe.ErrorTypeInvalidRequest,
	}
}

// Package payment defines the boundary to the external card payment
// processor.
package payment

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// IntentStatus mirrors the processor's payment intent lifecycle.
type IntentStatus string

const (
	StatusRequiresPaymentMethod IntentStatus = "requires_payment_method"
	StatusProcessing            IntentStatus = "processing"
	StatusSucceeded             IntentStatus = "succeeded"
	StatusCanceled              IntentStatus = "canceled"
)

// Intent is a payment intent created at the processor.
type Intent struct {
	ID           string
	ClientSecret string
	Amount       decimal.Decimal
	Currency     string
	Status       IntentStatus
}

// Event types delivered by the processor webhook that the service reacts to.
const (
	EventIntentSucceeded = "payment_intent.succeeded"
	EventIntentFailed    = "payment_intent.payment_failed"
)

// Event is a verified processor notification.
type Event struct {
	ID       string
	Type     string
	IntentID string
	Status   IntentStatus
}

// Processor creates and inspects payment intents.
type Processor interface {
	// CreateIntent creates a payment intent for amount in the major unit of
	// currency.
	CreateIntent(ctx context.Context, amount decimal.Decimal, currency string) (*Intent, error)
	// GetIntent fetches the current state of an intent.
	GetIntent(ctx context.Context, id string) (*Intent, error)
	// ParseEvent verifies the webhook signature and decodes the payload.
	ParseEvent(payload []byte, signature string) (*Event, error)
}

// ErrInvalidSignature is returned by ParseEvent for payloads that do not
// carry a valid signature.
var ErrInvalidSignature = errors.New("invalid webhook signature")

// SignatureError carries the reason a webhook signature was rejected. It
// matches ErrInvalidSignature.
type SignatureError struct {
	Err error
}

func (e *SignatureError) Error() string {
	return fmt.Sprintf("invalid webhook signature: %v", e.Err)
}

func (e *SignatureError) Unwrap() error {
	return e.Err
}

func (e *SignatureError) Is(target error) bool {
	return target == ErrInvalidSignature
}

// ProcessorError is a failure reported by the payment processor.
type ProcessorError struct {
	// Code is the processor error code, if any.
	Code    string
	Message string
	// Declined is set when the processor rejected the request itself
	// (card declined, invalid amount) rather than failing to process it.
	Declined bool
}

func (e *ProcessorError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("payment processor: %s", e.Message)
	}
	return fmt.Sprintf("payment processor: %s: %s", e.Code, e.Message)
}

// Unconfigured is a Processor used when no processor credentials are set.
// Every call fails.
type Unconfigured struct{}

var errUnconfigured = &ProcessorError{Code: "unconfigured", Message: "payment processor is not configured"}

func (Unconfigured) CreateIntent(context.Context, decimal.Decimal, string) (*Intent, error) {
	return nil, errUnconfigured
}

func (Unconfigured) GetIntent(context.Context, string) (*Intent, error) {
	return nil, errUnconfigured
}

func (Unconfigured) ParseEvent([]byte, string) (*Event, error) {
	return nil, errUnconfigured
}

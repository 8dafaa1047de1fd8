// Package checkout coordinates payment, order placement and discount
// redemption for storefront customers.
package checkout

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/xenking/teahouse-backend/internal/domain"
	"github.com/xenking/teahouse-backend/internal/domain/discount"
	"github.com/xenking/teahouse-backend/internal/domain/order"
	"github.com/xenking/teahouse-backend/internal/payment"
)

// DefaultCurrency is charged when a payment intent request names none.
const DefaultCurrency = "gbp"

// MinimumCharge is the smallest amount the processor accepts.
var MinimumCharge = decimal.RequireFromString("0.50")

// Config holds checkout settings.
type Config struct {
	// Currency overrides DefaultCurrency.
	Currency string
	// VerifyPayments requires the payment intent of a placed order to have
	// succeeded at the processor.
	VerifyPayments bool
}

// Service runs the customer checkout flow.
type Service struct {
	processor payment.Processor
	orders    *order.Manager
	discounts *discount.Manager

	currency string
	verify   bool
}

// NewService creates a checkout Service.
func NewService(cfg Config, processor payment.Processor, orders *order.Manager, discounts *discount.Manager) *Service {
	currency := strings.ToLower(strings.TrimSpace(cfg.Currency))
	if currency == "" {
		currency = DefaultCurrency
	}
	return &Service{
		processor: processor,
		orders:    orders,
		discounts: discounts,
		currency:  currency,
		verify:    cfg.VerifyPayments,
	}
}

// CreatePaymentIntent opens a payment for amount and returns the intent
// whose client secret the storefront confirms the card payment with.
func (s *Service) CreatePaymentIntent(ctx context.Context, amount decimal.Decimal, currency string) (*payment.Intent, error) {
	if amount.LessThan(MinimumCharge) {
		return nil, domain.Invalid("amount", "must be at least "+MinimumCharge.StringFixed(2))
	}
	currency = strings.ToLower(strings.TrimSpace(currency))
	if currency == "" {
		currency = s.currency
	}

	intent, err := s.processor.CreateIntent(ctx, amount, currency)
	if err != nil {
		return nil, errors.Wrap(err, "create payment intent")
	}

	zctx.From(ctx).Info("Payment intent created",
		zap.String("payment_intent", intent.ID),
		zap.Stringer("amount", amount),
		zap.String("currency", currency),
	)
	return intent, nil
}

// PlaceOrder records a paid order and consumes its discount code, if any.
// A discount that can no longer be redeemed does not fail the order: the
// customer has already paid the discounted total.
func (s *Service) PlaceOrder(ctx context.Context, req order.CreateRequest) (int, error) {
	if s.verify {
		if err := s.verifyPayment(ctx, req.PaymentIntentID); err != nil {
			return 0, err
		}
	}

	id, err := s.orders.Create(ctx, req)
	if err != nil {
		return 0, err
	}

	if req.DiscountCode != "" {
		if _, err := s.discounts.Redeem(ctx, req.DiscountCode); err != nil {
			zctx.From(ctx).Warn("Redeem discount",
				zap.Int("order_id", id),
				zap.String("code", req.DiscountCode),
				zap.Error(err),
			)
		}
	}
	return id, nil
}

func (s *Service) verifyPayment(ctx context.Context, intentID string) error {
	if intentID == "" {
		return domain.Invalid("paymentIntentId", "is required")
	}
	intent, err := s.processor.GetIntent(ctx, intentID)
	if err != nil {
		return errors.Wrap(err, "get payment intent")
	}
	if intent.Status != payment.StatusSucceeded {
		return domain.Invalid("paymentIntentId", "payment has not succeeded")
	}
	return nil
}

// HandleEvent verifies and processes a processor webhook delivery.
func (s *Service) HandleEvent(ctx context.Context, payload []byte, signature string) (*payment.Event, error) {
	event, err := s.processor.ParseEvent(payload, signature)
	if err != nil {
		return nil, err
	}

	lg := zctx.From(ctx).With(
		zap.String("event_id", event.ID),
		zap.String("event_type", event.Type),
	)
	switch event.Type {
	case payment.EventIntentSucceeded:
		lg.Info("Payment succeeded", zap.String("payment_intent", event.IntentID))
	case payment.EventIntentFailed:
		lg.Warn("Payment failed", zap.String("payment_intent", event.IntentID))
	default:
		lg.Debug("Unhandled payment event")
	}
	return event, nil
}

// Package events publishes order lifecycle notifications.
package events

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Event types published after a successful order mutation.
const (
	OrderCreated       = "order.created"
	OrderStatusChanged = "order.status_changed"
	OrderDeleted       = "order.deleted"
)

// Event is the payload published for an order mutation.
type Event struct {
	Type       string           `json:"type"`
	OrderID    int              `json:"orderId"`
	Status     string           `json:"status,omitempty"`
	Total      *decimal.Decimal `json:"total,omitempty"`
	OccurredAt time.Time        `json:"occurredAt"`
}

// Publisher delivers events to interested consumers (kitchen displays,
// notification senders).
type Publisher interface {
	// Publish delivers es in order as one batch.
	Publish(ctx context.Context, es ...Event) error
}

// Nop discards every event.
type Nop struct{}

func (Nop) Publish(context.Context, ...Event) error { return nil }

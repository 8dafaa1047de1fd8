package order

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// CollectionName is the stable name of the order collection.
const CollectionName = "orders"

// DefaultChairNumber is stored when an order is created without a chair
// (table) number.
const DefaultChairNumber = "Not specified"

// Status is the fulfilment state of an order.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	return s == StatusPending || s == StatusCompleted
}

// Order represents a paid customer order.
type Order struct {
	ID int `json:"id"`
	// Items and CustomerInfo are stored exactly as the storefront sent them.
	Items           []json.RawMessage `json:"items"`
	Total           decimal.Decimal   `json:"total"`
	CustomerInfo    json.RawMessage   `json:"customerInfo,omitempty"`
	PaymentIntentID string            `json:"paymentIntentId"`
	ChairNumber     string            `json:"chairNumber"`
	DiscountCode    string            `json:"discountCode,omitempty"`
	Status          Status            `json:"status"`
	CreatedAt       time.Time         `json:"createdAt"`
	// CompletedAt is set the first time the order is completed and is kept
	// when the order is reopened.
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// CreateRequest holds the input for recording a new order.
type CreateRequest struct {
	Items           []json.RawMessage
	Total           decimal.Decimal
	CustomerInfo    json.RawMessage
	PaymentIntentID string
	ChairNumber     string
	DiscountCode    string
}

func orderID(o Order) int { return o.ID }

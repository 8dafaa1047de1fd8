// Package discount manages promotional discount codes.
package discount

import (
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// CollectionName is the stable name of the discount collection.
const CollectionName = "discounts"

// Type enumerates the supported discount strategies.
type Type string

const (
	// TypePercentage takes Value percent off the order total.
	TypePercentage Type = "percentage"
	// TypeFixed takes Value off the order total. The amount is not capped
	// at the total.
	TypeFixed Type = "fixed"
)

// Valid reports whether t is a known discount type.
func (t Type) Valid() bool {
	return t == TypePercentage || t == TypeFixed
}

var (
	// ErrInvalidCode is returned by Redeem when no discount has the code.
	ErrInvalidCode = errors.New("invalid discount code")
	// ErrExhausted is returned by Redeem when the code has reached MaxUses.
	ErrExhausted = errors.New("discount code usage limit reached")
)

// Discount is a promotional code and its redemption state.
type Discount struct {
	ID             int             `json:"id"`
	Name           string          `json:"name"`
	Code           string          `json:"code"`
	Type           Type            `json:"type"`
	Value          decimal.Decimal `json:"value"`
	MinOrderAmount decimal.Decimal `json:"minOrderAmount"`
	// MaxUses is nil for unlimited codes.
	MaxUses     *int   `json:"maxUses"`
	Description string `json:"description"`
	UsedCount   int    `json:"usedCount"`
}

// Exhausted reports whether the code has no uses left.
func (d Discount) Exhausted() bool {
	return d.MaxUses != nil && d.UsedCount >= *d.MaxUses
}

// Input holds the client-editable fields of a discount. UsedCount is
// deliberately absent: it is only changed through redemption.
type Input struct {
	Name           string          `json:"name"`
	Code           string          `json:"code"`
	Type           Type            `json:"type"`
	Value          decimal.Decimal `json:"value"`
	MinOrderAmount decimal.Decimal `json:"minOrderAmount"`
	MaxUses        *int            `json:"maxUses"`
	Description    string          `json:"description"`
}

func (in Input) toDiscount(id, usedCount int) Discount {
	return Discount{
		ID:             id,
		Name:           in.Name,
		Code:           in.Code,
		Type:           in.Type,
		Value:          in.Value,
		MinOrderAmount: in.MinOrderAmount,
		MaxUses:        in.MaxUses,
		Description:    in.Description,
		UsedCount:      usedCount,
	}
}

// Reason explains why a code failed validation.
type Reason string

const (
	ReasonInvalidCode   Reason = "invalid code"
	ReasonExpired       Reason = "expired"
	ReasonMinimumNotMet Reason = "minimum order amount not met"
)

// ValidationResult is the outcome of checking a code against an order total.
type ValidationResult struct {
	Valid  bool   `json:"valid"`
	Reason Reason `json:"reason,omitempty"`
	// Required is the minimum order amount when Reason is ReasonMinimumNotMet.
	Required *decimal.Decimal `json:"required,omitempty"`
	Discount *Applied         `json:"discount,omitempty"`
}

// Applied describes a discount that can be applied and the amount it takes off.
type Applied struct {
	ID     int             `json:"id"`
	Name   string          `json:"name"`
	Type   Type            `json:"type"`
	Value  decimal.Decimal `json:"value"`
	Amount decimal.Decimal `json:"amount"`
}

func discountID(d Discount) int { return d.ID }

package discount

import (
	"context"

	"github.com/go-faster/sdk/zctx"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var hundred = decimal.NewFromInt(100)

// Validate checks code against orderTotal without consuming a use. An
// unknown, exhausted or ineligible code is reported in the result, not as an
// error; errors only come from reading the collection.
func (m *Manager) Validate(ctx context.Context, code string, orderTotal decimal.Decimal) (*ValidationResult, error) {
	discounts, err := m.discounts.Load(ctx)
	if err != nil {
		return nil, err
	}

	d, ok := lookup(discounts, code)
	if !ok {
		return &ValidationResult{Reason: ReasonInvalidCode}, nil
	}
	if d.Exhausted() {
		return &ValidationResult{Reason: ReasonExpired}, nil
	}
	if orderTotal.LessThan(d.MinOrderAmount) {
		required := d.MinOrderAmount
		return &ValidationResult{Reason: ReasonMinimumNotMet, Required: &required}, nil
	}

	return &ValidationResult{
		Valid: true,
		Discount: &Applied{
			ID:     d.ID,
			Name:   d.Name,
			Type:   d.Type,
			Value:  d.Value,
			Amount: Amount(d, orderTotal),
		},
	}, nil
}

// Amount returns how much d takes off orderTotal. Percentage amounts are
// rounded to two decimal places; fixed amounts are returned as is and may
// exceed the total.
func Amount(d Discount, orderTotal decimal.Decimal) decimal.Decimal {
	if d.Type == TypePercentage {
		return orderTotal.Mul(d.Value).Div(hundred).Round(2)
	}
	return d.Value
}

// Redeem consumes one use of code and returns the updated discount.
func (m *Manager) Redeem(ctx context.Context, code string) (*Discount, error) {
	var redeemed Discount
	err := m.discounts.Update(ctx, func(discounts []Discount) ([]Discount, error) {
		for i := range discounts {
			if discounts[i].Code != code {
				continue
			}
			if discounts[i].Exhausted() {
				return nil, ErrExhausted
			}
			discounts[i].UsedCount++
			redeemed = discounts[i]
			return discounts, nil
		}
		return nil, ErrInvalidCode
	})
	if err != nil {
		return nil, err
	}

	zctx.From(ctx).Info("Discount redeemed",
		zap.String("code", redeemed.Code),
		zap.Int("used_count", redeemed.UsedCount),
	)
	return &redeemed, nil
}

// lookup returns the first discount whose code matches exactly.
func lookup(discounts []Discount, code string) (Discount, bool) {
	for _, d := range discounts {
		if d.Code == code {
			return d, true
		}
	}
	return Discount{}, false
}

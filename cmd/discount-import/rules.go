package main

import (
	"github.com/shopspring/decimal"

	"github.com/xenking/teahouse-backend/internal/domain/discount"
)

// codeRule describes the discount granted by a known promotional code.
type codeRule struct {
	name        string
	kind        discount.Type
	value       decimal.Decimal
	minOrder    decimal.Decimal
	description string
}

var codeRules = map[string]codeRule{
	"FIFTYOFF": {name: "Half price", kind: discount.TypePercentage, value: decimal.NewFromInt(50), description: "50% off entire order"},
	"FREEZAAA": {name: "On the house", kind: discount.TypePercentage, value: decimal.NewFromInt(100), description: "Everything free!"},
	"HAPPYHRS": {name: "Happy hours", kind: discount.TypePercentage, value: decimal.NewFromInt(18), description: "Happy Hours: 18% off"},
	"TEATIME5": {name: "Tea time", kind: discount.TypeFixed, value: decimal.NewFromInt(5), minOrder: decimal.NewFromInt(20), description: "£5 off orders over £20"},
	"OVER9000": {name: "Over nine thousand", kind: discount.TypeFixed, value: decimal.NewFromInt(9), minOrder: decimal.NewFromInt(30), description: "£9 off orders over £30"},
}

var defaultRule = codeRule{
	name:        "Promo code",
	kind:        discount.TypePercentage,
	value:       decimal.NewFromInt(10),
	description: "Valid promo code: 10% off",
}

func ruleFor(code string) codeRule {
	if r, ok := codeRules[code]; ok {
		return r
	}
	return defaultRule
}

func (r codeRule) input(code string) discount.Input {
	return discount.Input{
		Name:           r.name,
		Code:           code,
		Type:           r.kind,
		Value:          r.value,
		MinOrderAmount: r.minOrder,
		Description:    r.description,
	}
}

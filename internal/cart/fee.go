package cart

import (
	"fmt"
	"strings"

	"orderup/internal/domain"

	"github.com/shopspring/decimal"
)

// FeePolicy turns a cart's subtotal into the service fee charged on top.
// A process selects one policy at startup; every cart uses it.
type FeePolicy interface {
	Fees(subtotal domain.Money, lineCount int) domain.Money
	Name() string
}

// FlatFee charges a constant amount on any non-empty cart.
type FlatFee struct {
	Amount domain.Money
}

func (f FlatFee) Fees(_ domain.Money, lineCount int) domain.Money {
	if lineCount == 0 || f.Amount < 0 {
		return 0
	}
	return f.Amount
}

func (f FlatFee) Name() string { return "flat" }

// PercentageFee charges RateBPS basis points of the subtotal, rounded half-up
// to a whole minor unit.
type PercentageFee struct {
	RateBPS int64
}

func (p PercentageFee) Fees(subtotal domain.Money, lineCount int) domain.Money {
	if lineCount == 0 || p.RateBPS <= 0 || subtotal <= 0 {
		return 0
	}
	fee := decimal.NewFromInt(int64(subtotal)).
		Mul(decimal.NewFromInt(p.RateBPS)).
		Div(decimal.NewFromInt(10000)).
		Round(0)
	return domain.Money(fee.IntPart())
}

func (p PercentageFee) Name() string { return "percentage" }

// NewFeePolicy builds the policy named by cfg ("flat" or "percentage").
func NewFeePolicy(name string, flat domain.Money, rateBPS int64) (FeePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "flat":
		if flat < 0 {
			return nil, fmt.Errorf("flat fee must not be negative, got %d", flat)
		}
		return FlatFee{Amount: flat}, nil
	case "percentage":
		if rateBPS < 0 {
			return nil, fmt.Errorf("fee rate must not be negative, got %d", rateBPS)
		}
		return PercentageFee{RateBPS: rateBPS}, nil
	default:
		return nil, fmt.Errorf("unknown fee policy %q", name)
	}
}

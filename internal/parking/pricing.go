package parking

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// PricingStrategy turns a billed stay into a fee. The set of strategies is
// closed: PeakPricing, OffPeakPricing and WeekendPricing.
type PricingStrategy interface {
	Name() string
	CalculateFee(hours, rate int) decimal.Decimal
	multiplier() decimal.Decimal
}

var (
	peakMultiplier    = decimal.RequireFromString("1.5")
	offPeakMultiplier = decimal.NewFromInt(1)
	weekendMultiplier = decimal.RequireFromString("1.2")
)

type PeakPricing struct{}

func (PeakPricing) Name() string { return "peak" }

func (p PeakPricing) CalculateFee(hours, rate int) decimal.Decimal {
	return baseFee(hours, rate).Mul(p.multiplier())
}

func (PeakPricing) multiplier() decimal.Decimal { return peakMultiplier }

type OffPeakPricing struct{}

func (OffPeakPricing) Name() string { return "offpeak" }

func (p OffPeakPricing) CalculateFee(hours, rate int) decimal.Decimal {
	return baseFee(hours, rate).Mul(p.multiplier())
}

func (OffPeakPricing) multiplier() decimal.Decimal { return offPeakMultiplier }

type WeekendPricing struct{}

func (WeekendPricing) Name() string { return "weekend" }

func (p WeekendPricing) CalculateFee(hours, rate int) decimal.Decimal {
	return baseFee(hours, rate).Mul(p.multiplier())
}

func (WeekendPricing) multiplier() decimal.Decimal { return weekendMultiplier }

func baseFee(hours, rate int) decimal.Decimal {
	return decimal.NewFromInt(int64(hours)).Mul(decimal.NewFromInt(int64(rate)))
}

func ParsePricingStrategy(s string) (PricingStrategy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "peak":
		return PeakPricing{}, nil
	case "offpeak", "off-peak", "off_peak":
		return OffPeakPricing{}, nil
	case "weekend":
		return WeekendPricing{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidPricing, s)
	}
}

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)
)

// FeeCalculator computes delivery fees from a fixed rule configuration.
// It holds no mutable state and is safe for concurrent use.
type FeeCalculator struct {
	rules RuleConfig
}

// NewFeeCalculator creates a new fee calculator
func NewFeeCalculator(rules RuleConfig) *FeeCalculator {
	return &FeeCalculator{rules: rules}
}

// Rules returns the rule configuration in use
func (c *FeeCalculator) Rules() RuleConfig {
	return c.rules
}

// CartValueSurcharge returns the amount the cart value falls short of the
// small-cart threshold, rounded to one decimal place.
func (c *FeeCalculator) CartValueSurcharge(cartValue decimal.Decimal) decimal.Decimal {
	if cartValue.GreaterThanOrEqual(c.rules.SmallCartThreshold) {
		return decimal.Zero
	}
	return c.rules.SmallCartThreshold.Sub(cartValue).RoundBank(1)
}

// DistanceFee returns the base fee plus one additional fee for every
// started interval beyond the base distance.
func (c *FeeCalculator) DistanceFee(distance int64) decimal.Decimal {
	if distance <= c.rules.BaseDistance {
		return c.rules.BaseFee
	}

	extra := distance - c.rules.BaseDistance
	intervals := (extra + c.rules.DistanceInterval - 1) / c.rules.DistanceInterval

	return c.rules.BaseFee.Add(c.rules.AdditionalFee.Mul(decimal.NewFromInt(intervals)))
}

// ItemCountSurcharge charges every item beyond the free count, plus a flat
// bulk fee above the bulk threshold. Rounded to one decimal place.
func (c *FeeCalculator) ItemCountSurcharge(count int64) decimal.Decimal {
	if count <= c.rules.FreeItemCount {
		return decimal.Zero
	}

	surcharge := c.rules.ItemSurcharge.Mul(decimal.NewFromInt(count - c.rules.FreeItemCount))
	if count > c.rules.BulkItemThreshold {
		surcharge = surcharge.Add(c.rules.BulkItemFee)
	}

	return surcharge.RoundBank(1)
}

// IsRushHour reports whether t falls inside the rush window.
// A zero time is never rush hour.
func (c *FeeCalculator) IsRushHour(t time.Time) bool {
	if t.IsZero() {
		return false
	}
	if c.rules.RushLocation != nil {
		t = t.In(c.rules.RushLocation)
	}
	if t.Weekday() != c.rules.RushDay {
		return false
	}

	seconds := t.Hour()*3600 + t.Minute()*60 + t.Second()
	return seconds >= c.rules.RushWindowStart && seconds < c.rules.RushWindowEnd
}

// RushHourMultiplier returns the rush multiplier inside the rush window and 1 otherwise
func (c *FeeCalculator) RushHourMultiplier(t time.Time) decimal.Decimal {
	if c.IsRushHour(t) {
		return c.rules.RushMultiplier
	}
	return one
}

// RushHourMultiplierFor accepts any value and falls back to 1 for anything
// that is not a timestamp.
func (c *FeeCalculator) RushHourMultiplierFor(value any) decimal.Decimal {
	switch t := value.(type) {
	case time.Time:
		return c.RushHourMultiplier(t)
	case *time.Time:
		if t == nil {
			return one
		}
		return c.RushHourMultiplier(*t)
	default:
		return one
	}
}

// Breakdown runs the full fee calculation and records every step.
//
// Free delivery short-circuits everything else. Otherwise the three
// additive fees are summed, multiplied by the rush hour multiplier, capped
// at the maximum fee and converted to cents with half-to-even rounding.
func (c *FeeCalculator) Breakdown(order Order) FeeBreakdown {
	cartValue := order.CartValueMajor()

	if cartValue.GreaterThanOrEqual(c.rules.FreeDeliveryCartValue) {
		return FeeBreakdown{
			CartValueSurcharge: decimal.Zero,
			DistanceFee:        decimal.Zero,
			ItemCountSurcharge: decimal.Zero,
			Multiplier:         one,
			Total:              decimal.Zero,
			FreeDelivery:       true,
		}
	}

	b := FeeBreakdown{
		CartValueSurcharge: c.CartValueSurcharge(cartValue),
		DistanceFee:        c.DistanceFee(order.DeliveryDistance),
		ItemCountSurcharge: c.ItemCountSurcharge(order.NumberOfItems),
		RushHour:           c.IsRushHour(order.Time),
	}
	b.Multiplier = c.RushHourMultiplier(order.Time)

	b.Total = b.CartValueSurcharge.Add(b.DistanceFee).Add(b.ItemCountSurcharge).Mul(b.Multiplier)

	capped := b.Total
	if capped.GreaterThan(c.rules.MaxFee) {
		capped = c.rules.MaxFee
		b.Capped = true
	}

	b.FeeCents = capped.Mul(hundred).RoundBank(0).IntPart()
	return b
}

// Calculate returns the delivery fee for order in cents
func (c *FeeCalculator) Calculate(order Order) int64 {
	return c.Breakdown(order).FeeCents
}

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order holds the attributes a delivery fee depends on.
// Cart value, distance and item count are expected to be positive;
// callers validate them before building an Order.
type Order struct {
	CartValue        int64 // cents
	DeliveryDistance int64 // meters
	NumberOfItems    int64
	Time             time.Time
}

// CartValueMajor returns the cart value in major currency units
func (o Order) CartValueMajor() decimal.Decimal {
	return CentsToMajor(o.CartValue)
}

// CentsToMajor converts minor currency units to major units
func CentsToMajor(cents int64) decimal.Decimal {
	return decimal.New(cents, -2)
}

// FeeOutcome classifies how a fee was produced
type FeeOutcome string

const (
	OutcomeFree     FeeOutcome = "free"
	OutcomeCapped   FeeOutcome = "capped"
	OutcomeStandard FeeOutcome = "standard"
)

// FeeBreakdown records each step of a fee calculation.
// Component amounts are in major currency units.
type FeeBreakdown struct {
	CartValueSurcharge decimal.Decimal
	DistanceFee        decimal.Decimal
	ItemCountSurcharge decimal.Decimal
	Multiplier         decimal.Decimal
	RushHour           bool
	Total              decimal.Decimal // after the multiplier, before the cap
	Capped             bool
	FreeDelivery       bool
	FeeCents           int64
}

// Outcome returns the classification of the calculation
func (b FeeBreakdown) Outcome() FeeOutcome {
	switch {
	case b.FreeDelivery:
		return OutcomeFree
	case b.Capped:
		return OutcomeCapped
	default:
		return OutcomeStandard
	}
}

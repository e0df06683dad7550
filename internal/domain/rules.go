package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ErrInvalidRules is returned when a rule configuration cannot be used
var ErrInvalidRules = errors.New("invalid fee rules")

// RuleConfig holds every constant the fee rules depend on.
// Monetary values are in major currency units.
type RuleConfig struct {
	// Distance fee
	BaseFee          decimal.Decimal
	AdditionalFee    decimal.Decimal
	BaseDistance     int64 // meters covered by the base fee
	DistanceInterval int64 // meters per additional fee step

	// Cart value
	SmallCartThreshold    decimal.Decimal
	FreeDeliveryCartValue decimal.Decimal

	// Item count
	ItemSurcharge     decimal.Decimal
	FreeItemCount     int64
	BulkItemThreshold int64
	BulkItemFee       decimal.Decimal

	// Rush hour. The window is [RushWindowStart, RushWindowEnd) in seconds
	// since midnight. A nil RushLocation classifies timestamps in their own
	// location.
	RushMultiplier  decimal.Decimal
	RushDay         time.Weekday
	RushWindowStart int
	RushWindowEnd   int
	RushLocation    *time.Location

	MaxFee decimal.Decimal
}

// DefaultRules returns the standard rule configuration
func DefaultRules() RuleConfig {
	return RuleConfig{
		BaseFee:          decimal.NewFromInt(2),
		AdditionalFee:    decimal.NewFromInt(1),
		BaseDistance:     1000,
		DistanceInterval: 500,

		SmallCartThreshold:    decimal.NewFromInt(10),
		FreeDeliveryCartValue: decimal.NewFromInt(200),

		ItemSurcharge:     decimal.RequireFromString("0.50"),
		FreeItemCount:     4,
		BulkItemThreshold: 12,
		BulkItemFee:       decimal.RequireFromString("1.20"),

		RushMultiplier:  decimal.RequireFromString("1.2"),
		RushDay:         time.Friday,
		RushWindowStart: 15 * 3600,
		RushWindowEnd:   19 * 3600,

		MaxFee: decimal.NewFromInt(15),
	}
}

// Validate checks the configuration for values the rules cannot work with
func (r RuleConfig) Validate() error {
	var problems []error

	nonNegative := []struct {
		name  string
		value decimal.Decimal
	}{
		{"baseFee", r.BaseFee},
		{"additionalFee", r.AdditionalFee},
		{"smallCartThreshold", r.SmallCartThreshold},
		{"freeDeliveryCartValue", r.FreeDeliveryCartValue},
		{"itemSurcharge", r.ItemSurcharge},
		{"bulkItemFee", r.BulkItemFee},
		{"maxFee", r.MaxFee},
	}
	for _, field := range nonNegative {
		if field.value.IsNegative() {
			problems = append(problems, fmt.Errorf("%s must not be negative", field.name))
		}
	}

	if r.RushMultiplier.LessThan(decimal.NewFromInt(1)) {
		problems = append(problems, errors.New("rushMultiplier must be at least 1"))
	}
	if r.BaseDistance < 0 {
		problems = append(problems, errors.New("baseDistance must not be negative"))
	}
	if r.DistanceInterval <= 0 {
		problems = append(problems, errors.New("distanceInterval must be positive"))
	}
	if r.FreeItemCount < 0 || r.BulkItemThreshold < 0 {
		problems = append(problems, errors.New("item thresholds must not be negative"))
	}
	if r.RushDay < time.Sunday || r.RushDay > time.Saturday {
		problems = append(problems, fmt.Errorf("rushDay %d is not a weekday", r.RushDay))
	}
	if r.RushWindowStart < 0 || r.RushWindowEnd > 24*3600 || r.RushWindowStart >= r.RushWindowEnd {
		problems = append(problems, fmt.Errorf("rush window [%d, %d) is not a valid range within a day", r.RushWindowStart, r.RushWindowEnd))
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidRules, errors.Join(problems...))
	}
	return nil
}

// MaxFeeCents returns the fee cap in minor units
func (r RuleConfig) MaxFeeCents() int64 {
	return r.MaxFee.Shift(2).RoundBank(0).IntPart()
}

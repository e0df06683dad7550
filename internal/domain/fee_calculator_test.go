package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, dec(want).Equal(got), "want %s, got %s", want, got)
}

var (
	monday1300        = time.Date(2024, 1, 15, 13, 0, 0, 0, time.UTC)
	friday1530        = time.Date(2024, 1, 19, 15, 30, 0, 0, time.UTC)
	defaultCalculator = NewFeeCalculator(DefaultRules())
)

func TestCartValueSurcharge(t *testing.T) {
	tests := []struct {
		cartValue string
		want      string
	}{
		{"8.9", "1.1"},
		{"7.90", "2.1"},
		{"10", "0"},
		{"15", "0"},
		{"0.01", "10.0"},
		{"9.99", "0.0"},
		{"9.95", "0.0"},
		{"9.85", "0.2"},
		{"9.75", "0.2"},
		{"9.65", "0.4"},
	}

	for _, tt := range tests {
		t.Run(tt.cartValue, func(t *testing.T) {
			assertDecimal(t, tt.want, defaultCalculator.CartValueSurcharge(dec(tt.cartValue)))
		})
	}
}

func TestDistanceFee(t *testing.T) {
	tests := []struct {
		distance int64
		want     string
	}{
		{1, "2"},
		{999, "2"},
		{1000, "2"},
		{1001, "3"},
		{1499, "3"},
		{1500, "3"},
		{1501, "4"},
		{2000, "4"},
		{2235, "5"},
		{10000, "20"},
	}

	for _, tt := range tests {
		t.Run(decimal.NewFromInt(tt.distance).String(), func(t *testing.T) {
			assertDecimal(t, tt.want, defaultCalculator.DistanceFee(tt.distance))
		})
	}
}

func TestDistanceFeeIsMonotonic(t *testing.T) {
	previous := defaultCalculator.DistanceFee(1)
	for d := int64(2); d <= 5000; d++ {
		current := defaultCalculator.DistanceFee(d)
		require.True(t, current.GreaterThanOrEqual(previous), "fee dropped at %d m", d)
		previous = current
	}
}

func TestItemCountSurcharge(t *testing.T) {
	tests := []struct {
		count int64
		want  string
	}{
		{1, "0"},
		{4, "0"},
		{5, "0.5"},
		{10, "3.0"},
		{12, "4.0"},
		{13, "5.7"},
		{14, "6.2"},
		{15, "6.7"},
	}

	for _, tt := range tests {
		t.Run(decimal.NewFromInt(tt.count).String(), func(t *testing.T) {
			assertDecimal(t, tt.want, defaultCalculator.ItemCountSurcharge(tt.count))
		})
	}
}

func TestItemCountSurchargeIsMonotonic(t *testing.T) {
	previous := defaultCalculator.ItemCountSurcharge(5)
	for n := int64(6); n <= 100; n++ {
		current := defaultCalculator.ItemCountSurcharge(n)
		require.True(t, current.GreaterThan(previous), "surcharge did not grow at %d items", n)
		previous = current
	}
}

func TestRushHourMultiplier(t *testing.T) {
	tests := []struct {
		name string
		at   time.Time
		want string
	}{
		{"friday window start", time.Date(2024, 1, 19, 15, 0, 0, 0, time.UTC), "1.2"},
		{"friday inside window", friday1530, "1.2"},
		{"friday last second", time.Date(2024, 1, 19, 18, 59, 59, 0, time.UTC), "1.2"},
		{"friday window end", time.Date(2024, 1, 19, 19, 0, 0, 0, time.UTC), "1"},
		{"friday before window", time.Date(2024, 1, 19, 14, 59, 59, 0, time.UTC), "1"},
		{"thursday in window hours", time.Date(2024, 1, 18, 16, 0, 0, 0, time.UTC), "1"},
		{"monday", monday1300, "1"},
		{"zero time", time.Time{}, "1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertDecimal(t, tt.want, defaultCalculator.RushHourMultiplier(tt.at))
		})
	}
}

func TestRushHourUsesTimestampLocation(t *testing.T) {
	// 14:30 UTC on a Friday is 16:30 in UTC+2
	plusTwo := time.FixedZone("UTC+2", 2*3600)
	at := time.Date(2024, 1, 19, 16, 30, 0, 0, plusTwo)

	assertDecimal(t, "1.2", defaultCalculator.RushHourMultiplier(at))
	assertDecimal(t, "1", defaultCalculator.RushHourMultiplier(at.UTC()))
}

func TestRushHourWithConfiguredLocation(t *testing.T) {
	rules := DefaultRules()
	rules.RushLocation = time.FixedZone("UTC+2", 2*3600)
	calculator := NewFeeCalculator(rules)

	assertDecimal(t, "1.2", calculator.RushHourMultiplier(time.Date(2024, 1, 19, 14, 30, 0, 0, time.UTC)))
	assertDecimal(t, "1", calculator.RushHourMultiplier(friday1530.Add(3*time.Hour)))
}

func TestRushHourMultiplierFor(t *testing.T) {
	var nilTime *time.Time

	assertDecimal(t, "1.2", defaultCalculator.RushHourMultiplierFor(friday1530))
	assertDecimal(t, "1.2", defaultCalculator.RushHourMultiplierFor(&friday1530))
	assertDecimal(t, "1", defaultCalculator.RushHourMultiplierFor(nilTime))
	assertDecimal(t, "1", defaultCalculator.RushHourMultiplierFor("2024-01-19T15:30:00Z"))
	assertDecimal(t, "1", defaultCalculator.RushHourMultiplierFor(42))
	assertDecimal(t, "1", defaultCalculator.RushHourMultiplierFor(nil))
}

func TestCalculate(t *testing.T) {
	tests := []struct {
		name  string
		order Order
		want  int64
	}{
		{
			name:  "small cart, long distance, monday",
			order: Order{CartValue: 790, DeliveryDistance: 2235, NumberOfItems: 4, Time: monday1300},
			want:  710,
		},
		{
			name:  "rush hour total is capped",
			order: Order{CartValue: 710, DeliveryDistance: 2000, NumberOfItems: 15, Time: friday1530},
			want:  1500,
		},
		{
			name:  "free delivery threshold",
			order: Order{CartValue: 20000, DeliveryDistance: 50000, NumberOfItems: 100, Time: friday1530},
			want:  0,
		},
		{
			name:  "just below free delivery",
			order: Order{CartValue: 19999, DeliveryDistance: 1000, NumberOfItems: 1, Time: monday1300},
			want:  200,
		},
		{
			name:  "rush hour below cap",
			order: Order{CartValue: 1000, DeliveryDistance: 1000, NumberOfItems: 1, Time: friday1530},
			want:  240,
		},
		{
			name:  "rush hour multiplies every component",
			order: Order{CartValue: 890, DeliveryDistance: 1500, NumberOfItems: 5, Time: friday1530},
			want:  552,
		},
		{
			name:  "exact half surcharge rounds to even",
			order: Order{CartValue: 965, DeliveryDistance: 1000, NumberOfItems: 1, Time: monday1300},
			want:  240,
		},
		{
			name:  "zero time is never rush hour",
			order: Order{CartValue: 1000, DeliveryDistance: 1000, NumberOfItems: 1},
			want:  200,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, defaultCalculator.Calculate(tt.order))
		})
	}
}

func TestCalculateIsDeterministic(t *testing.T) {
	order := Order{CartValue: 790, DeliveryDistance: 2235, NumberOfItems: 4, Time: monday1300}
	first := defaultCalculator.Calculate(order)
	for i := 0; i < 10; i++ {
		assert.Equal(t, first, defaultCalculator.Calculate(order))
	}
}

func TestCalculateStaysWithinBounds(t *testing.T) {
	maxCents := DefaultRules().MaxFeeCents()
	for _, cart := range []int64{1, 500, 999, 1000, 5000, 19999, 20000, 50000} {
		for _, distance := range []int64{1, 1000, 1501, 5000, 100000} {
			for _, items := range []int64{1, 4, 5, 13, 50} {
				for _, at := range []time.Time{monday1300, friday1530} {
					fee := defaultCalculator.Calculate(Order{CartValue: cart, DeliveryDistance: distance, NumberOfItems: items, Time: at})
					require.GreaterOrEqual(t, fee, int64(0))
					require.LessOrEqual(t, fee, maxCents)
					if cart >= 20000 {
						require.Zero(t, fee)
					}
				}
			}
		}
	}
}

func TestBreakdown(t *testing.T) {
	b := defaultCalculator.Breakdown(Order{CartValue: 710, DeliveryDistance: 2000, NumberOfItems: 15, Time: friday1530})

	assertDecimal(t, "2.9", b.CartValueSurcharge)
	assertDecimal(t, "4", b.DistanceFee)
	assertDecimal(t, "6.7", b.ItemCountSurcharge)
	assertDecimal(t, "1.2", b.Multiplier)
	assertDecimal(t, "16.32", b.Total)
	assert.True(t, b.RushHour)
	assert.True(t, b.Capped)
	assert.False(t, b.FreeDelivery)
	assert.Equal(t, int64(1500), b.FeeCents)
	assert.Equal(t, OutcomeCapped, b.Outcome())

	free := defaultCalculator.Breakdown(Order{CartValue: 20000, DeliveryDistance: 1, NumberOfItems: 1})
	assert.True(t, free.FreeDelivery)
	assert.Equal(t, OutcomeFree, free.Outcome())
	assert.Zero(t, free.FeeCents)

	standard := defaultCalculator.Breakdown(Order{CartValue: 790, DeliveryDistance: 2235, NumberOfItems: 4, Time: monday1300})
	assert.Equal(t, OutcomeStandard, standard.Outcome())
	assert.False(t, standard.RushHour)
}

func TestCalculateWithCustomRules(t *testing.T) {
	rules := DefaultRules()
	rules.MaxFee = dec("5")
	rules.FreeDeliveryCartValue = dec("50")
	calculator := NewFeeCalculator(rules)

	assert.Equal(t, int64(500), calculator.Calculate(Order{CartValue: 790, DeliveryDistance: 2235, NumberOfItems: 4, Time: monday1300}))
	assert.Zero(t, calculator.Calculate(Order{CartValue: 5000, DeliveryDistance: 2235, NumberOfItems: 4, Time: monday1300}))
}

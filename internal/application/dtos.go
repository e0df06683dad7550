package application

import (
	"fmt"
	"time"

	"github.com/wms-platform/delivery-fee-service/internal/domain"
)

// CalculateFeeRequest is the JSON body of a fee request. Pointer fields let
// validation tell a missing field apart from a zero value.
type CalculateFeeRequest struct {
	CartValue        *int64     `json:"cart_value" validate:"required,gt=0"`
	DeliveryDistance *int64     `json:"delivery_distance" validate:"required,gt=0"`
	NumberOfItems    *int64     `json:"number_of_items" validate:"required,gt=0"`
	Time             *time.Time `json:"time" validate:"omitempty"`
}

// ToCommand converts a validated request into a command
func (r CalculateFeeRequest) ToCommand() CalculateFeeCommand {
	cmd := CalculateFeeCommand{Time: r.Time}
	if r.CartValue != nil {
		cmd.CartValue = *r.CartValue
	}
	if r.DeliveryDistance != nil {
		cmd.DeliveryDistance = *r.DeliveryDistance
	}
	if r.NumberOfItems != nil {
		cmd.NumberOfItems = *r.NumberOfItems
	}
	return cmd
}

// CalculateFeeCommand represents command to calculate a delivery fee
type CalculateFeeCommand struct {
	CartValue        int64 // cents
	DeliveryDistance int64 // meters
	NumberOfItems    int64
	Time             *time.Time // nil means now
	IncludeBreakdown bool
}

// FeeDTO represents a calculated delivery fee
type FeeDTO struct {
	DeliveryFee int64            `json:"delivery_fee"`
	Breakdown   *FeeBreakdownDTO `json:"breakdown,omitempty"`
}

// FeeBreakdownDTO represents the steps of a fee calculation in major units
type FeeBreakdownDTO struct {
	CartValueSurcharge float64 `json:"cart_value_surcharge"`
	DistanceFee        float64 `json:"distance_fee"`
	ItemCountSurcharge float64 `json:"item_count_surcharge"`
	Multiplier         float64 `json:"multiplier"`
	RushHour           bool    `json:"rush_hour"`
	Total              float64 `json:"total"`
	Capped             bool    `json:"capped"`
	FreeDelivery       bool    `json:"free_delivery"`
	OrderTime          string  `json:"order_time"`
}

// ToFeeDTO converts a domain breakdown to a DTO
func ToFeeDTO(b domain.FeeBreakdown, orderTime time.Time, includeBreakdown bool) *FeeDTO {
	dto := &FeeDTO{DeliveryFee: b.FeeCents}
	if !includeBreakdown {
		return dto
	}

	dto.Breakdown = &FeeBreakdownDTO{
		CartValueSurcharge: b.CartValueSurcharge.InexactFloat64(),
		DistanceFee:        b.DistanceFee.InexactFloat64(),
		ItemCountSurcharge: b.ItemCountSurcharge.InexactFloat64(),
		Multiplier:         b.Multiplier.InexactFloat64(),
		RushHour:           b.RushHour,
		Total:              b.Total.InexactFloat64(),
		Capped:             b.Capped,
		FreeDelivery:       b.FreeDelivery,
		OrderTime:          orderTime.Format(time.RFC3339Nano),
	}
	return dto
}

// RulesDTO represents the active rule configuration
type RulesDTO struct {
	BaseFee               string `json:"base_fee"`
	AdditionalFee         string `json:"additional_fee"`
	BaseDistance          int64  `json:"base_distance"`
	DistanceInterval      int64  `json:"distance_interval"`
	SmallCartThreshold    string `json:"small_cart_threshold"`
	FreeDeliveryCartValue string `json:"free_delivery_cart_value"`
	ItemSurcharge         string `json:"item_surcharge"`
	FreeItemCount         int64  `json:"free_item_count"`
	BulkItemThreshold     int64  `json:"bulk_item_threshold"`
	BulkItemFee           string `json:"bulk_item_fee"`
	RushMultiplier        string `json:"rush_multiplier"`
	RushDay               string `json:"rush_day"`
	RushWindowStart       string `json:"rush_window_start"`
	RushWindowEnd         string `json:"rush_window_end"`
	RushLocation          string `json:"rush_location"`
	MaxFee                string `json:"max_fee"`
}

// ToRulesDTO converts a rule configuration to a DTO
func ToRulesDTO(r domain.RuleConfig) RulesDTO {
	location := "order time zone"
	if r.RushLocation != nil {
		location = r.RushLocation.String()
	}

	return RulesDTO{
		BaseFee:               r.BaseFee.StringFixed(2),
		AdditionalFee:         r.AdditionalFee.StringFixed(2),
		BaseDistance:          r.BaseDistance,
		DistanceInterval:      r.DistanceInterval,
		SmallCartThreshold:    r.SmallCartThreshold.StringFixed(2),
		FreeDeliveryCartValue: r.FreeDeliveryCartValue.StringFixed(2),
		ItemSurcharge:         r.ItemSurcharge.StringFixed(2),
		FreeItemCount:         r.FreeItemCount,
		BulkItemThreshold:     r.BulkItemThreshold,
		BulkItemFee:           r.BulkItemFee.StringFixed(2),
		RushMultiplier:        r.RushMultiplier.String(),
		RushDay:               r.RushDay.String(),
		RushWindowStart:       clockTime(r.RushWindowStart),
		RushWindowEnd:         clockTime(r.RushWindowEnd),
		RushLocation:          location,
		MaxFee:                r.MaxFee.StringFixed(2),
	}
}

func clockTime(seconds int) string {
	return fmt.Sprintf("%02d:%02d:%02d", seconds/3600, seconds%3600/60, seconds%60)
}

package application

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/wms-platform/delivery-fee-service/internal/domain"
	"github.com/wms-platform/delivery-fee-service/pkg/errors"
	"github.com/wms-platform/delivery-fee-service/pkg/logging"
	"github.com/wms-platform/delivery-fee-service/pkg/metrics"
	"github.com/wms-platform/delivery-fee-service/pkg/tracing"
)

// Clock returns the current time
type Clock func() time.Time

// FeeService handles delivery fee use cases
type FeeService struct {
	calculator *domain.FeeCalculator
	logger     *logging.Logger
	clock      Clock
	metrics    *metrics.Metrics
	tracer     trace.Tracer
}

// Option configures a FeeService
type Option func(*FeeService)

// WithClock sets the clock used when a command carries no timestamp
func WithClock(clock Clock) Option {
	return func(s *FeeService) {
		s.clock = clock
	}
}

// WithMetrics enables business metrics
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *FeeService) {
		s.metrics = m
	}
}

// WithTracer sets the tracer for calculation spans
func WithTracer(tracer trace.Tracer) Option {
	return func(s *FeeService) {
		s.tracer = tracer
	}
}

// NewFeeService creates a new FeeService
func NewFeeService(calculator *domain.FeeCalculator, logger *logging.Logger, opts ...Option) *FeeService {
	s := &FeeService{
		calculator: calculator,
		logger:     logger.WithComponent("fee-service"),
		clock:      time.Now,
		tracer:     otel.Tracer("fee-service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CalculateFee computes the delivery fee for an order
func (s *FeeService) CalculateFee(ctx context.Context, cmd CalculateFeeCommand) (*FeeDTO, error) {
	if violations := validateCommand(cmd); len(violations) > 0 {
		return nil, errors.ErrUnprocessable("invalid fee command", violations)
	}

	orderTime := s.clock()
	if cmd.Time != nil {
		orderTime = *cmd.Time
	}

	order := domain.Order{
		CartValue:        cmd.CartValue,
		DeliveryDistance: cmd.DeliveryDistance,
		NumberOfItems:    cmd.NumberOfItems,
		Time:             orderTime,
	}

	return tracing.TracedOperation(ctx, s.tracer, "fee.calculate", func(ctx context.Context, span trace.Span) (*FeeDTO, error) {
		breakdown := s.calculator.Breakdown(order)

		span.SetAttributes(
			attribute.Int64("fee.cart_value", order.CartValue),
			attribute.Int64("fee.delivery_distance", order.DeliveryDistance),
			attribute.Int64("fee.number_of_items", order.NumberOfItems),
			attribute.Int64("fee.cents", breakdown.FeeCents),
			attribute.String("fee.outcome", string(breakdown.Outcome())),
			attribute.Bool("fee.rush_hour", breakdown.RushHour),
		)

		if s.metrics != nil {
			s.metrics.RecordFeeCalculation(string(breakdown.Outcome()), breakdown.FeeCents, breakdown.RushHour)
		}

		s.logger.Event(ctx, "fee.calculated", map[string]any{
			"cartValue":          order.CartValue,
			"deliveryDistance":   order.DeliveryDistance,
			"numberOfItems":      order.NumberOfItems,
			"orderTime":          orderTime.Format(time.RFC3339),
			"cartValueSurcharge": breakdown.CartValueSurcharge.String(),
			"distanceFee":        breakdown.DistanceFee.String(),
			"itemCountSurcharge": breakdown.ItemCountSurcharge.String(),
			"multiplier":         breakdown.Multiplier.String(),
			"outcome":            string(breakdown.Outcome()),
			"feeCents":           breakdown.FeeCents,
		})

		return ToFeeDTO(breakdown, orderTime, cmd.IncludeBreakdown), nil
	})
}

// Rules returns the active rule configuration
func (s *FeeService) Rules() RulesDTO {
	return ToRulesDTO(s.calculator.Rules())
}

// Ready reports whether the service can calculate fees
func (s *FeeService) Ready() error {
	if err := s.calculator.Rules().Validate(); err != nil {
		return errors.ErrServiceUnavailable("fee calculator").Wrap(err)
	}
	return nil
}

func validateCommand(cmd CalculateFeeCommand) []errors.FieldViolation {
	var violations []errors.FieldViolation

	positive := []struct {
		field string
		value int64
	}{
		{"cart_value", cmd.CartValue},
		{"delivery_distance", cmd.DeliveryDistance},
		{"number_of_items", cmd.NumberOfItems},
	}
	for _, p := range positive {
		if p.value <= 0 {
			violations = append(violations, errors.FieldViolation{
				Type:    "greater_than",
				Loc:     []string{"body", p.field},
				Message: "Input should be greater than 0",
			})
		}
	}

	return violations
}

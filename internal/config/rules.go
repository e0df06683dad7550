package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/wms-platform/delivery-fee-service/internal/domain"
)

//go:embed rules.schema.json
var rulesSchemaJSON []byte

const rulesSchemaURL = "https://delivery-fee-service.local/rules.schema.json"

// RulesFile is the YAML layout of a fee rules override file.
// Every field is optional; absent fields keep their default.
type RulesFile struct {
	Distance *struct {
		BaseFee       *float64 `yaml:"base_fee"`
		AdditionalFee *float64 `yaml:"additional_fee"`
		BaseDistance  *int64   `yaml:"base_distance"`
		Interval      *int64   `yaml:"interval"`
	} `yaml:"distance"`

	Cart *struct {
		SmallCartThreshold    *float64 `yaml:"small_cart_threshold"`
		FreeDeliveryThreshold *float64 `yaml:"free_delivery_threshold"`
	} `yaml:"cart"`

	Items *struct {
		Surcharge     *float64 `yaml:"surcharge"`
		FreeCount     *int64   `yaml:"free_count"`
		BulkThreshold *int64   `yaml:"bulk_threshold"`
		BulkFee       *float64 `yaml:"bulk_fee"`
	} `yaml:"items"`

	RushHour *struct {
		Multiplier *float64 `yaml:"multiplier"`
		Day        *string  `yaml:"day"`
		Start      *string  `yaml:"start"`
		End        *string  `yaml:"end"`
		Location   *string  `yaml:"location"`
	} `yaml:"rush_hour"`

	MaxFee *float64 `yaml:"max_fee"`
}

// RulesLoader parses and validates fee rules files
type RulesLoader struct {
	schema *jsonschema.Schema
}

// NewRulesLoader compiles the embedded rules schema
func NewRulesLoader() (*RulesLoader, error) {
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(rulesSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("failed to parse rules schema: %w", err)
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(rulesSchemaURL, doc); err != nil {
		return nil, fmt.Errorf("failed to add rules schema: %w", err)
	}

	schema, err := compiler.Compile(rulesSchemaURL)
	if err != nil {
		return nil, fmt.Errorf("failed to compile rules schema: %w", err)
	}

	return &RulesLoader{schema: schema}, nil
}

// LoadFile reads the rules file at path. An empty path yields the default rules.
func (l *RulesLoader) LoadFile(path string) (domain.RuleConfig, error) {
	if path == "" {
		return domain.DefaultRules(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return domain.RuleConfig{}, fmt.Errorf("failed to read rules file: %w", err)
	}

	rules, err := l.Parse(data)
	if err != nil {
		return domain.RuleConfig{}, fmt.Errorf("rules file %s: %w", path, err)
	}
	return rules, nil
}

// Parse validates a YAML rules document against the schema and overlays it
// on the default rules.
func (l *RulesLoader) Parse(data []byte) (domain.RuleConfig, error) {
	var raw any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return domain.RuleConfig{}, fmt.Errorf("failed to parse rules YAML: %w", err)
	}
	if raw == nil {
		return domain.DefaultRules(), nil
	}

	if err := l.validate(raw); err != nil {
		return domain.RuleConfig{}, err
	}

	var file RulesFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return domain.RuleConfig{}, fmt.Errorf("failed to decode rules YAML: %w", err)
	}

	rules, err := file.Apply(domain.DefaultRules())
	if err != nil {
		return domain.RuleConfig{}, err
	}

	if err := rules.Validate(); err != nil {
		return domain.RuleConfig{}, err
	}
	return rules, nil
}

// validate round-trips the YAML document through JSON so the schema sees
// plain JSON values.
func (l *RulesLoader) validate(raw any) error {
	asJSON, err := json.Marshal(raw)
	if err != nil {
		return fmt.Errorf("rules document is not representable as JSON: %w", err)
	}

	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(asJSON))
	if err != nil {
		return fmt.Errorf("failed to decode rules document: %w", err)
	}

	if err := l.schema.Validate(inst); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidRules, err)
	}
	return nil
}

// Apply overlays the file's values on base
func (f RulesFile) Apply(base domain.RuleConfig) (domain.RuleConfig, error) {
	r := base

	if d := f.Distance; d != nil {
		setDecimal(&r.BaseFee, d.BaseFee)
		setDecimal(&r.AdditionalFee, d.AdditionalFee)
		setInt(&r.BaseDistance, d.BaseDistance)
		setInt(&r.DistanceInterval, d.Interval)
	}

	if c := f.Cart; c != nil {
		setDecimal(&r.SmallCartThreshold, c.SmallCartThreshold)
		setDecimal(&r.FreeDeliveryCartValue, c.FreeDeliveryThreshold)
	}

	if i := f.Items; i != nil {
		setDecimal(&r.ItemSurcharge, i.Surcharge)
		setInt(&r.FreeItemCount, i.FreeCount)
		setInt(&r.BulkItemThreshold, i.BulkThreshold)
		setDecimal(&r.BulkItemFee, i.BulkFee)
	}

	if rh := f.RushHour; rh != nil {
		setDecimal(&r.RushMultiplier, rh.Multiplier)

		if rh.Day != nil {
			day, err := parseWeekday(*rh.Day)
			if err != nil {
				return r, err
			}
			r.RushDay = day
		}
		if rh.Start != nil {
			seconds, err := parseClock(*rh.Start)
			if err != nil {
				return r, err
			}
			r.RushWindowStart = seconds
		}
		if rh.End != nil {
			seconds, err := parseClock(*rh.End)
			if err != nil {
				return r, err
			}
			r.RushWindowEnd = seconds
		}
		if rh.Location != nil {
			loc, err := time.LoadLocation(*rh.Location)
			if err != nil {
				return r, fmt.Errorf("%w: unknown rush hour location %q", domain.ErrInvalidRules, *rh.Location)
			}
			r.RushLocation = loc
		}
	}

	setDecimal(&r.MaxFee, f.MaxFee)

	return r, nil
}

func setDecimal(dst *decimal.Decimal, v *float64) {
	if v != nil {
		*dst = decimal.NewFromFloat(*v)
	}
}

func setInt(dst *int64, v *int64) {
	if v != nil {
		*dst = *v
	}
}

func parseWeekday(s string) (time.Weekday, error) {
	for d := time.Sunday; d <= time.Saturday; d++ {
		if strings.EqualFold(d.String(), s) {
			return d, nil
		}
	}
	return 0, fmt.Errorf("%w: invalid rush hour day %q", domain.ErrInvalidRules, s)
}

// parseClock converts "HH:MM" or "HH:MM:SS" to seconds since midnight
func parseClock(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 || len(parts) > 3 {
		return 0, fmt.Errorf("%w: invalid clock time %q", domain.ErrInvalidRules, s)
	}

	seconds := 0
	multipliers := []int{3600, 60, 1}
	for i, part := range parts {
		n, err := strconv.Atoi(part)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("%w: invalid clock time %q", domain.ErrInvalidRules, s)
		}
		seconds += n * multipliers[i]
	}

	if seconds > 24*3600 {
		return 0, fmt.Errorf("%w: clock time %q is past midnight", domain.ErrInvalidRules, s)
	}
	return seconds, nil
}

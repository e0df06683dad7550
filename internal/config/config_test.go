package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/delivery-fee-service/internal/domain"
)

func TestGetEnv(t *testing.T) {
	t.Setenv("TEST_ENV", "value")
	assert.Equal(t, "value", getEnv("TEST_ENV", "default"))
	assert.Equal(t, "default", getEnv("MISSING_ENV", "default"))
}

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"SERVER_ADDR", "LOG_LEVEL", "TRACING_ENABLED", "CORS_ALLOWED_ORIGINS", "FEE_RULES_FILE", "SHUTDOWN_TIMEOUT", "TRACE_SAMPLE_RATE"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, ":8000", cfg.ServerAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.False(t, cfg.TracingEnabled)
	assert.Equal(t, []string{"*"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 1.0, cfg.TraceSampleRate)
	assert.Empty(t, cfg.RulesFile)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("SERVER_ADDR", ":9999")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("TRACING_ENABLED", "true")
	t.Setenv("OTEL_EXPORTER_OTLP_ENDPOINT", "collector:4317")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://a.example.com, https://b.example.com,")
	t.Setenv("FEE_RULES_FILE", "/etc/fees/rules.yaml")
	t.Setenv("SHUTDOWN_TIMEOUT", "3s")
	t.Setenv("TRACE_SAMPLE_RATE", "0.25")

	cfg := Load()

	assert.Equal(t, ":9999", cfg.ServerAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.TracingEnabled)
	assert.Equal(t, "collector:4317", cfg.OTLPEndpoint)
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, cfg.CORSAllowedOrigins)
	assert.Equal(t, "/etc/fees/rules.yaml", cfg.RulesFile)
	assert.Equal(t, 3*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 0.25, cfg.TraceSampleRate)
}

func newLoader(t *testing.T) *RulesLoader {
	t.Helper()
	loader, err := NewRulesLoader()
	require.NoError(t, err)
	return loader
}

func TestRulesLoaderDefaults(t *testing.T) {
	loader := newLoader(t)

	rules, err := loader.LoadFile("")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultRules(), rules)

	rules, err = loader.Parse([]byte(""))
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultRules(), rules)
}

func TestRulesLoaderOverlay(t *testing.T) {
	doc := `
distance:
  base_fee: 3
  interval: 250
items:
  bulk_fee: 2.5
rush_hour:
  multiplier: 1.5
  day: Saturday
  start: "10:30"
  end: "12:00:00"
  location: Europe/Helsinki
max_fee: 20
`
	rules, err := newLoader(t).Parse([]byte(doc))
	require.NoError(t, err)

	assert.True(t, decimal.NewFromInt(3).Equal(rules.BaseFee))
	assert.Equal(t, int64(250), rules.DistanceInterval)
	assert.True(t, decimal.RequireFromString("2.5").Equal(rules.BulkItemFee))
	assert.True(t, decimal.RequireFromString("1.5").Equal(rules.RushMultiplier))
	assert.Equal(t, time.Saturday, rules.RushDay)
	assert.Equal(t, 10*3600+30*60, rules.RushWindowStart)
	assert.Equal(t, 12*3600, rules.RushWindowEnd)
	require.NotNil(t, rules.RushLocation)
	assert.Equal(t, "Europe/Helsinki", rules.RushLocation.String())
	assert.Equal(t, int64(2000), rules.MaxFeeCents())

	// Untouched values keep their defaults
	assert.True(t, decimal.NewFromInt(1).Equal(rules.AdditionalFee))
	assert.Equal(t, int64(1000), rules.BaseDistance)
	assert.Equal(t, int64(4), rules.FreeItemCount)
}

func TestRulesLoaderRejectsInvalidDocuments(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"unknown top level key", "surge: 2\n"},
		{"unknown nested key", "distance:\n  base_fees: 2\n"},
		{"negative amount", "max_fee: -1\n"},
		{"zero interval", "distance:\n  interval: 0\n"},
		{"fractional distance", "distance:\n  base_distance: 10.5\n"},
		{"multiplier below one", "rush_hour:\n  multiplier: 0.8\n"},
		{"unknown day", "rush_hour:\n  day: funday\n"},
		{"bad clock", "rush_hour:\n  start: \"25:00\"\n"},
		{"not an object", "- 1\n- 2\n"},
		{"inverted window", "rush_hour:\n  start: \"19:00\"\n  end: \"15:00\"\n"},
		{"unknown location", "rush_hour:\n  location: Mars/Olympus\n"},
	}

	loader := newLoader(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loader.Parse([]byte(tt.doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidRules)
		})
	}
}

func TestRulesLoaderRejectsMalformedYAML(t *testing.T) {
	_, err := newLoader(t).Parse([]byte("distance: [unclosed"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse rules YAML")
}

func TestRulesLoaderLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rules.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_fee: 12.5\n"), 0o600))

	loader := newLoader(t)
	rules, err := loader.LoadFile(path)
	require.NoError(t, err)
	assert.Equal(t, int64(1250), rules.MaxFeeCents())

	_, err = loader.LoadFile(filepath.Join(dir, "missing.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read rules file")
}

func TestParseClock(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"00:00", 0},
		{"15:00", 54000},
		{"19:00:00", 68400},
		{"18:59:59", 68399},
		{"24:00", 86400},
	}
	for _, tt := range tests {
		got, err := parseClock(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := parseClock("noon")
	assert.Error(t, err)
}

package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ServiceName identifies the service in logs, metrics and traces
const ServiceName = "delivery-fee-service"

// Config holds application configuration
type Config struct {
	ServerAddr      string
	LogLevel        string
	Environment     string
	Version         string
	ShutdownTimeout time.Duration

	TracingEnabled  bool
	OTLPEndpoint    string
	TraceSampleRate float64

	CORSAllowedOrigins []string

	// RulesFile is an optional YAML file overriding the default fee rules
	RulesFile string
}

// Load reads the configuration from the environment
func Load() *Config {
	return &Config{
		ServerAddr:      getEnv("SERVER_ADDR", ":8000"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		Environment:     getEnv("ENVIRONMENT", "development"),
		Version:         getEnv("VERSION", "unknown"),
		ShutdownTimeout: getDuration("SHUTDOWN_TIMEOUT", 10*time.Second),

		TracingEnabled:  getEnv("TRACING_ENABLED", "false") == "true",
		OTLPEndpoint:    getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		TraceSampleRate: getFloat("TRACE_SAMPLE_RATE", 1.0),

		CORSAllowedOrigins: splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),

		RulesFile: os.Getenv("FEE_RULES_FILE"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	if d, err := time.ParseDuration(os.Getenv(key)); err == nil {
		return d
	}
	return defaultValue
}

func getFloat(key string, defaultValue float64) float64 {
	if f, err := strconv.ParseFloat(os.Getenv(key), 64); err == nil {
		return f
	}
	return defaultValue
}

func splitList(value string) []string {
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

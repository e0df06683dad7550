package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/wms-platform/delivery-fee-service/internal/api/handlers"
	"github.com/wms-platform/delivery-fee-service/internal/application"
	"github.com/wms-platform/delivery-fee-service/internal/config"
	"github.com/wms-platform/delivery-fee-service/internal/domain"
	"github.com/wms-platform/delivery-fee-service/pkg/logging"
	"github.com/wms-platform/delivery-fee-service/pkg/metrics"
	"github.com/wms-platform/delivery-fee-service/pkg/middleware"
	"github.com/wms-platform/delivery-fee-service/pkg/tracing"
)

const serviceName = config.ServiceName

var loadConfig = config.Load

var loadRules = func(path string) (domain.RuleConfig, error) {
	loader, err := config.NewRulesLoader()
	if err != nil {
		return domain.RuleConfig{}, err
	}
	return loader.LoadFile(path)
}

var newMetrics = metrics.New

var initTracing = tracing.Initialize

var startHTTPServer = func(srv *http.Server) error {
	return srv.ListenAndServe()
}

func main() {
	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)

	if err := run(context.Background(), signalCh); err != nil {
		os.Exit(1)
	}
}

func run(ctx context.Context, signalCh <-chan os.Signal) error {
	cfg := loadConfig()

	// Setup logger
	logConfig := logging.DefaultConfig(serviceName)
	logConfig.Level = logging.LogLevel(cfg.LogLevel)
	logConfig.Environment = cfg.Environment
	logConfig.Version = cfg.Version
	logger := logging.New(logConfig)
	logger.SetDefault()

	logger.Info("Starting delivery-fee-service API")

	// Load fee rules before anything starts listening
	rules, err := loadRules(cfg.RulesFile)
	if err != nil {
		logger.WithError(err).Error("Failed to load fee rules", "file", cfg.RulesFile)
		return err
	}
	if cfg.RulesFile != "" {
		logger.Info("Fee rules loaded", "file", cfg.RulesFile)
	}

	// Initialize OpenTelemetry tracing
	tracingConfig := tracing.DefaultConfig(serviceName)
	tracingConfig.OTLPEndpoint = cfg.OTLPEndpoint
	tracingConfig.Environment = cfg.Environment
	tracingConfig.ServiceVersion = cfg.Version
	tracingConfig.SampleRate = cfg.TraceSampleRate
	tracingConfig.Enabled = cfg.TracingEnabled

	serviceOpts := []application.Option{}

	tracerProvider, err := initTracing(ctx, tracingConfig)
	if err != nil {
		logger.WithError(err).Error("Failed to initialize tracing")
	} else if tracerProvider != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracerProvider.Shutdown(shutdownCtx); err != nil {
				logger.WithError(err).Error("Failed to shutdown tracer")
			}
		}()
		if tracer := tracerProvider.Tracer(); tracer != nil {
			serviceOpts = append(serviceOpts, application.WithTracer(tracer))
		}
		logger.Info("Tracing initialized", "enabled", tracerProvider.Enabled(), "endpoint", tracingConfig.OTLPEndpoint)
	}

	// Initialize Prometheus metrics
	m := newMetrics(metrics.DefaultConfig(serviceName))
	serviceOpts = append(serviceOpts, application.WithMetrics(m))
	logger.Info("Metrics initialized")

	// Initialize application service
	feeService := application.NewFeeService(domain.NewFeeCalculator(rules), logger, serviceOpts...)
	feeHandler := handlers.NewFeeHandler(feeService, logger, serviceName, cfg.Version)

	// Setup Gin router with middleware
	router := gin.New()

	middlewareConfig := middleware.DefaultConfig(serviceName, logger.Logger)
	middlewareConfig.AllowedOrigins = cfg.CORSAllowedOrigins
	middleware.Setup(router, middlewareConfig)

	router.Use(middleware.MetricsMiddleware(m))
	router.Use(middleware.TracingMiddleware(middleware.DefaultTracingConfig(serviceName)))

	// Health check endpoints
	router.GET("/health", middleware.HealthCheck(serviceName))
	router.GET("/ready", middleware.ReadinessCheck(serviceName, func() error {
		return feeService.Ready()
	}))

	// Metrics endpoint
	router.GET("/metrics", middleware.MetricsEndpoint(m))

	feeHandler.RegisterRoutes(router)

	// Start server
	srv := &http.Server{
		Addr:         cfg.ServerAddr,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// Graceful shutdown
	serverErr := make(chan error, 1)
	go func() {
		if err := startHTTPServer(srv); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()
	logger.Info("Server started", "addr", cfg.ServerAddr)

	// Wait for interrupt signal or a server that failed to start
	select {
	case <-signalCh:
	case err := <-serverErr:
		logger.WithError(err).Error("Server error")
		return err
	}
	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	logger.Info("Server stopped")
	return nil
}

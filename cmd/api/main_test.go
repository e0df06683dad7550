package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wms-platform/delivery-fee-service/internal/domain"
	"github.com/wms-platform/delivery-fee-service/pkg/tracing"
)

func TestDefaultLoadRules(t *testing.T) {
	rules, err := loadRules("")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultRules(), rules)
}

func TestDefaultInitTracingDisabled(t *testing.T) {
	cfg := tracing.DefaultConfig(serviceName)
	cfg.Enabled = false

	tp, err := initTracing(context.Background(), cfg)
	require.NoError(t, err)
	assert.False(t, tp.Enabled())
	assert.NoError(t, tp.Shutdown(context.Background()))
}

package shared_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"valomaison/internal/shared"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := shared.Load()
	require.NoError(t, err)
	assert.Equal(t, []int{15, 30, 50}, cfg.RadiusTiers)
	assert.Equal(t, 10, cfg.MinTransactions)
	assert.Equal(t, shared.ModeRaw, cfg.ProviderMode)
	assert.Equal(t, 500*time.Millisecond, cfg.UpstreamInterval)
	assert.Equal(t, 30*time.Second, cfg.DVFTimeout)
	assert.Equal(t, 2014, cfg.DVFMinYear)
	assert.Empty(t, cfg.RedisAddr)
	assert.Less(t, cfg.EstimateBudget, cfg.HTTPTimeout)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("RADIUS_TIERS_KM", "10,20")
	t.Setenv("PROVIDER_MODE", "aggregated")
	t.Setenv("UPSTREAM_INTERVAL", "1s")
	t.Setenv("REFRESH_AREAS", "33000,75011")

	cfg, err := shared.Load()
	require.NoError(t, err)
	assert.Equal(t, []int{10, 20}, cfg.RadiusTiers)
	assert.Equal(t, shared.ModeAggregated, cfg.ProviderMode)
	assert.Equal(t, time.Second, cfg.UpstreamInterval)
	assert.Equal(t, []string{"33000", "75011"}, cfg.RefreshAreas)
}

func TestLoad_Rejects(t *testing.T) {
	for k, v := range map[string]string{
		"PROVIDER_MODE":    "both",
		"RADIUS_TIERS_KM":  "15,-1",
		"MIN_TRANSACTIONS": "0",
		"DVF_TIMEOUT":      "soon",
		"ESTIMATE_BUDGET":  "90s",
	} {
		t.Run(k, func(t *testing.T) {
			t.Setenv(k, v)
			_, err := shared.Load()
			assert.Error(t, err)
		})
	}
}

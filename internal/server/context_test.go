package server

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/teemow/roombook/internal/config"
	"github.com/teemow/roombook/internal/datetime"
	"github.com/teemow/roombook/internal/instrumentation"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.TokenCachePath = filepath.Join(t.TempDir(), "token.json")
	return cfg
}

func TestNewServerContext_RequiresConfig(t *testing.T) {
	_, err := NewServerContext(context.Background(), Options{})
	assert.Error(t, err)
}

func TestNewServerContext_Wiring(t *testing.T) {
	now := time.Date(2025, 3, 10, 14, 0, 0, 0, time.UTC)
	cfg := testConfig(t)

	sc, err := NewServerContext(context.Background(), Options{
		Config: cfg,
		Clock:  datetime.FixedClock(now),
	})
	require.NoError(t, err)

	assert.Same(t, cfg, sc.Config())
	assert.Equal(t, now, sc.Now())
	assert.Equal(t, cfg.TokenCachePath, sc.Tokens().Path())
	assert.Equal(t, cfg.ProxyURL, sc.Proxy().BaseURL())
	assert.Equal(t, []string{instrumentation.StrategySDK, instrumentation.StrategyRaw}, sc.Graph().Strategies())
	assert.NotNil(t, sc.Rooms())
	assert.NotNil(t, sc.Auth())
	assert.NotNil(t, sc.Booking())
	assert.Nil(t, sc.Metrics())
	assert.Nil(t, sc.AuditLogger())
}

func TestNewServerContext_ProxyFallback(t *testing.T) {
	cfg := testConfig(t)
	cfg.ProxyFallback = true

	sc, err := NewServerContext(context.Background(), Options{Config: cfg})
	require.NoError(t, err)

	assert.Equal(t,
		[]string{instrumentation.StrategySDK, instrumentation.StrategyRaw, instrumentation.StrategyProxy},
		sc.Graph().Strategies())
}

func TestNewServerContext_BadTimezone(t *testing.T) {
	cfg := testConfig(t)
	cfg.Timezone = "Mars/Olympus"

	_, err := NewServerContext(context.Background(), Options{Config: cfg})
	assert.Error(t, err)
}

func TestServerContext_Shutdown(t *testing.T) {
	sc, err := NewServerContext(context.Background(), Options{Config: testConfig(t)})
	require.NoError(t, err)

	assert.False(t, sc.IsShutdown())
	require.NoError(t, sc.Shutdown())
	assert.True(t, sc.IsShutdown())
	assert.Error(t, sc.Context().Err())

	// second call is a no-op
	assert.NoError(t, sc.Shutdown())
}

package warmup

import (
	"log/slog"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWithBaseURL_Valid(t *testing.T) {
	cfg := defaultConfig()

	err := WithBaseURL("http://127.0.0.1:8080/apps/app/v1")(cfg)
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:8080/apps/app/v1", cfg.baseURL)
}

func TestWithBaseURL_Invalid(t *testing.T) {
	cfg := defaultConfig()

	assert.Error(t, WithBaseURL("")(cfg))
	assert.Error(t, WithBaseURL("api.warmup.com/apps")(cfg))
	assert.Error(t, WithBaseURL("://bad")(cfg))
}

func TestWithRequestTimeout_Valid(t *testing.T) {
	cfg := defaultConfig()

	err := WithRequestTimeout(5 * time.Second)(cfg)
	require.NoError(t, err)
	assert.Equal(t, 5*time.Second, cfg.requestTimeout)
}

func TestWithRequestTimeout_Invalid(t *testing.T) {
	cfg := defaultConfig()

	err := WithRequestTimeout(0)(cfg)
	assert.Error(t, err)

	err = WithRequestTimeout(-1 * time.Second)(cfg)
	assert.Error(t, err)
}

func TestWithRefreshInterval(t *testing.T) {
	cfg := defaultConfig()

	require.NoError(t, WithRefreshInterval(2*time.Minute)(cfg))
	assert.Equal(t, 2*time.Minute, cfg.refreshInterval)

	assert.Error(t, WithRefreshInterval(0)(cfg))
}

func TestWithOverrideDuration(t *testing.T) {
	cfg := defaultConfig()

	require.NoError(t, WithOverrideDuration(90*time.Minute)(cfg))
	assert.Equal(t, 90*time.Minute, cfg.overrideDuration)

	assert.Error(t, WithOverrideDuration(30*time.Second)(cfg))
	assert.Error(t, WithOverrideDuration(24*time.Hour)(cfg))
}

func TestWithHTTPClient(t *testing.T) {
	cfg := defaultConfig()

	hc := &http.Client{}
	require.NoError(t, WithHTTPClient(hc)(cfg))
	assert.Same(t, hc, cfg.httpClient)

	assert.Error(t, WithHTTPClient(nil)(cfg))
}

func TestWithLogger(t *testing.T) {
	cfg := defaultConfig()
	assert.Nil(t, cfg.logger)

	logger := slog.Default()
	err := WithLogger(logger)(cfg)
	require.NoError(t, err)
	assert.Equal(t, logger, cfg.logger)
}

func TestWithRefreshHook(t *testing.T) {
	cfg := defaultConfig()

	require.NoError(t, WithRefreshHook(func([]Room) {})(cfg))
	assert.Len(t, cfg.hooks, 1)

	assert.Error(t, WithRefreshHook(nil)(cfg))
}

func TestDefaultConfig(t *testing.T) {
	cfg := defaultConfig()

	assert.Equal(t, DefaultBaseURL, cfg.baseURL)
	assert.Equal(t, 10*time.Second, cfg.requestTimeout)
	assert.Equal(t, 60*time.Second, cfg.refreshInterval)
	assert.Equal(t, 60*time.Minute, cfg.overrideDuration)
	assert.Nil(t, cfg.logger)
	assert.NotNil(t, cfg.now)
}

func TestNewClient_RequiresCredentials(t *testing.T) {
	_, err := NewClient("", "pw")
	assert.Error(t, err)

	_, err = NewClient("me@example.com", "")
	assert.Error(t, err)
}

func TestNewClient_InvalidOption(t *testing.T) {
	_, err := NewClient("me@example.com", "pw", WithRequestTimeout(0))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid option")
}

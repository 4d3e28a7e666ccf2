package warmup

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// ClientOption configures a Client.
type ClientOption func(*clientConfig) error

// RefreshHook receives the rooms of every successful refresh.
type RefreshHook func(rooms []Room)

// clientConfig holds the configuration for a Client.
type clientConfig struct {
	baseURL          string
	requestTimeout   time.Duration
	refreshInterval  time.Duration
	overrideDuration time.Duration
	httpClient       *http.Client
	logger           *slog.Logger
	hooks            []RefreshHook
	now              func() time.Time
}

// defaultConfig returns the default client configuration.
func defaultConfig() *clientConfig {
	return &clientConfig{
		baseURL:          DefaultBaseURL,
		requestTimeout:   10 * time.Second,
		refreshInterval:  60 * time.Second,
		overrideDuration: 60 * time.Minute,
		httpClient:       nil,
		logger:           nil,
		now:              time.Now,
	}
}

// WithBaseURL sets the API endpoint.
// Default is DefaultBaseURL.
func WithBaseURL(raw string) ClientOption {
	return func(c *clientConfig) error {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return errors.New("base URL must be an absolute URL")
		}
		c.baseURL = raw
		return nil
	}
}

// WithRequestTimeout sets the timeout applied to each API call whose
// context has no deadline.
// Default is 10 seconds.
func WithRequestTimeout(d time.Duration) ClientOption {
	return func(c *clientConfig) error {
		if d <= 0 {
			return errors.New("request timeout must be positive")
		}
		c.requestTimeout = d
		return nil
	}
}

// WithRefreshInterval sets the refresh interval. The poller ticks at half
// of it.
// Default is 60 seconds.
func WithRefreshInterval(d time.Duration) ClientOption {
	return func(c *clientConfig) error {
		if d <= 0 {
			return errors.New("refresh interval must be positive")
		}
		c.refreshInterval = d
		return nil
	}
}

// WithOverrideDuration sets the length of overrides created by SetOverride.
// Default is 60 minutes.
func WithOverrideDuration(d time.Duration) ClientOption {
	return func(c *clientConfig) error {
		if d < time.Minute {
			return errors.New("override duration must be at least one minute")
		}
		if d >= 24*time.Hour {
			return errors.New("override duration must be shorter than a day")
		}
		c.overrideDuration = d
		return nil
	}
}

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *clientConfig) error {
		if hc == nil {
			return errors.New("http client must not be nil")
		}
		c.httpClient = hc
		return nil
	}
}

// WithLogger sets a structured logger for debug and error logging.
// By default, no logging is performed.
func WithLogger(logger *slog.Logger) ClientOption {
	return func(c *clientConfig) error {
		c.logger = logger
		return nil
	}
}

// WithRefreshHook registers a function called after every successful
// refresh. Hooks run on the refreshing goroutine and should not block.
func WithRefreshHook(hook RefreshHook) ClientOption {
	return func(c *clientConfig) error {
		if hook == nil {
			return errors.New("refresh hook must not be nil")
		}
		c.hooks = append(c.hooks, hook)
		return nil
	}
}

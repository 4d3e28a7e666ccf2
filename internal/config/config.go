// Package config loads the application configuration from a YAML file,
// WARMUP_* environment variables and command line flags.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/slycke/go-warmup/pkg/warmup"
)

// EnvPrefix is prepended to every environment variable, e.g. WARMUP_USERNAME
// or WARMUP_MQTT_BROKER.
const EnvPrefix = "WARMUP"

// Config is the full application configuration.
type Config struct {
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	BaseURL  string `mapstructure:"base_url"`

	// Refresh is the cache refresh interval in seconds. The poller ticks at
	// half of it.
	Refresh int `mapstructure:"refresh"`
	// Duration is the override length in minutes.
	Duration int `mapstructure:"duration"`

	Log  LogConfig  `mapstructure:"log"`
	HTTP HTTPConfig `mapstructure:"http"`
	MQTT MQTTConfig `mapstructure:"mqtt"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type HTTPConfig struct {
	Addr string `mapstructure:"addr"`
}

type MQTTConfig struct {
	Enabled     bool   `mapstructure:"enabled"`
	Broker      string `mapstructure:"broker"`
	ClientID    string `mapstructure:"client_id"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	TopicPrefix string `mapstructure:"topic_prefix"`
	QoS         int    `mapstructure:"qos"`
}

// SetDefaults registers every key with its default so that environment
// variables are picked up for keys absent from the file.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("username", "")
	v.SetDefault("password", "")
	v.SetDefault("base_url", warmup.DefaultBaseURL)
	v.SetDefault("refresh", 60)
	v.SetDefault("duration", 60)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")

	v.SetDefault("http.addr", ":8080")

	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.client_id", "")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.topic_prefix", "warmup")
	v.SetDefault("mqtt.qos", 1)
}

// Load reads the configuration into v and decodes it. An explicit path must
// exist; without one, config.yaml is looked up in the working directory and
// in ./configs, and its absence is not an error.
func Load(v *viper.Viper, path string) (*Config, error) {
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("configs")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return &cfg, nil
}

// Validate checks the values a running client depends on.
func (c *Config) Validate() error {
	var errs []error

	if c.Username == "" {
		errs = append(errs, errors.New("username is required"))
	}
	if c.Password == "" {
		errs = append(errs, errors.New("password is required"))
	}
	if c.Refresh <= 0 {
		errs = append(errs, fmt.Errorf("refresh must be positive, got %d", c.Refresh))
	}
	if c.Duration < 1 || c.Duration >= 24*60 {
		errs = append(errs, fmt.Errorf("duration must be between 1 and 1439 minutes, got %d", c.Duration))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("log.format must be text or json, got %q", c.Log.Format))
	}
	if c.MQTT.Enabled {
		if c.MQTT.Broker == "" {
			errs = append(errs, errors.New("mqtt.broker is required when mqtt is enabled"))
		}
		if c.MQTT.QoS < 0 || c.MQTT.QoS > 2 {
			errs = append(errs, fmt.Errorf("mqtt.qos must be 0, 1 or 2, got %d", c.MQTT.QoS))
		}
		if c.MQTT.TopicPrefix == "" {
			errs = append(errs, errors.New("mqtt.topic_prefix is required when mqtt is enabled"))
		}
	}

	return errors.Join(errs...)
}

func (c *Config) RefreshInterval() time.Duration {
	return time.Duration(c.Refresh) * time.Second
}

func (c *Config) OverrideDuration() time.Duration {
	return time.Duration(c.Duration) * time.Minute
}

// ClientOptions translates the configuration into client options.
func (c *Config) ClientOptions(logger *slog.Logger) []warmup.ClientOption {
	opts := []warmup.ClientOption{
		warmup.WithRefreshInterval(c.RefreshInterval()),
		warmup.WithOverrideDuration(c.OverrideDuration()),
		warmup.WithLogger(logger),
	}
	if c.BaseURL != "" {
		opts = append(opts, warmup.WithBaseURL(c.BaseURL))
	}
	return opts
}

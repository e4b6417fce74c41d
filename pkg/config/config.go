// Package config loads engine and delivery provider settings from an
// optional YAML file and LEADFLOW_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dukex/leadflow/pkg/delivery/agent"
	"github.com/dukex/leadflow/pkg/delivery/mailgun"
	"github.com/dukex/leadflow/pkg/delivery/twilio"
	"github.com/spf13/viper"
)

const EnvPrefix = "LEADFLOW"

type DeliveryMode string

const (
	DeliveryModeDryRun DeliveryMode = "dryrun"
	DeliveryModeLive   DeliveryMode = "live"
)

var ErrInvalidConfig = errors.New("invalid configuration")

type Retry struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	BaseDelay   time.Duration `mapstructure:"base_delay"`
	MaxDelay    time.Duration `mapstructure:"max_delay"`
}

// Enabled reports whether failed live enrollments are retried.
func (r Retry) Enabled() bool {
	return r.MaxAttempts > 0
}

// Delay returns the backoff before the given attempt, starting at 1.
func (r Retry) Delay(attempt int) time.Duration {
	delay := r.BaseDelay

	for i := 1; i < attempt && delay < r.MaxDelay; i++ {
		delay *= 2
	}

	return min(delay, r.MaxDelay)
}

type Engine struct {
	NodeTimeout     time.Duration `mapstructure:"node_timeout"`
	ResumeCeiling   time.Duration `mapstructure:"resume_ceiling"`
	PollInterval    string        `mapstructure:"poll_interval"`
	DefaultTimezone string        `mapstructure:"default_timezone"`
	ChainCacheTTL   time.Duration `mapstructure:"chain_cache_ttl"`
	Retry           Retry         `mapstructure:"retry"`
}

type Delivery struct {
	Mode DeliveryMode `mapstructure:"mode"`
}

type Otel struct {
	Enabled     bool   `mapstructure:"enabled"`
	ServiceName string `mapstructure:"service_name"`
}

type Config struct {
	Engine   Engine         `mapstructure:"engine"`
	Delivery Delivery       `mapstructure:"delivery"`
	Mailgun  mailgun.Config `mapstructure:"mailgun"`
	Twilio   twilio.Config  `mapstructure:"twilio"`
	Agent    agent.Config   `mapstructure:"agent"`
	Otel     Otel           `mapstructure:"otel"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("engine.node_timeout", 30*time.Second)
	v.SetDefault("engine.resume_ceiling", 7*24*time.Hour)
	v.SetDefault("engine.poll_interval", "@every 1m")
	v.SetDefault("engine.default_timezone", "America/New_York")
	v.SetDefault("engine.chain_cache_ttl", 10*time.Minute)
	v.SetDefault("engine.retry.max_attempts", 0)
	v.SetDefault("engine.retry.base_delay", time.Minute)
	v.SetDefault("engine.retry.max_delay", time.Hour)
	v.SetDefault("delivery.mode", string(DeliveryModeDryRun))
	v.SetDefault("mailgun.base_url", "https://api.mailgun.net")
	v.SetDefault("mailgun.domain", "")
	v.SetDefault("mailgun.api_key", "")
	v.SetDefault("mailgun.from", "")
	v.SetDefault("twilio.base_url", "https://api.twilio.com")
	v.SetDefault("twilio.account_sid", "")
	v.SetDefault("twilio.auth_token", "")
	v.SetDefault("twilio.from", "")
	v.SetDefault("agent.url", "")
	v.SetDefault("agent.api_key", "")
	v.SetDefault("agent.email_subject", "")
	v.SetDefault("otel.enabled", false)
	v.SetDefault("otel.service_name", "leadflow")
}

// Load reads path when it is not empty and applies environment overrides
// such as LEADFLOW_ENGINE_NODE_TIMEOUT or LEADFLOW_TWILIO_AUTH_TOKEN.
func Load(path string) (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)

		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	switch c.Delivery.Mode {
	case DeliveryModeDryRun, DeliveryModeLive:
	default:
		return fmt.Errorf("%w: delivery.mode must be dryrun or live, got %q", ErrInvalidConfig, c.Delivery.Mode)
	}

	if c.Engine.NodeTimeout <= 0 {
		return fmt.Errorf("%w: engine.node_timeout must be positive", ErrInvalidConfig)
	}

	if c.Engine.ResumeCeiling <= 0 {
		return fmt.Errorf("%w: engine.resume_ceiling must be positive", ErrInvalidConfig)
	}

	if c.Engine.Retry.MaxAttempts < 0 {
		return fmt.Errorf("%w: engine.retry.max_attempts cannot be negative", ErrInvalidConfig)
	}

	if c.Engine.Retry.Enabled() && (c.Engine.Retry.BaseDelay <= 0 || c.Engine.Retry.MaxDelay < c.Engine.Retry.BaseDelay) {
		return fmt.Errorf("%w: engine.retry delays must satisfy 0 < base_delay <= max_delay", ErrInvalidConfig)
	}

	return nil
}

// Package config loads service configuration from an optional YAML file and
// AUTOVALUE_* environment variables.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/nekruzvatanshoev/autovalue/pkg/autovalue/dal"
	"github.com/nekruzvatanshoev/autovalue/pkg/autovalue/decision"
	"github.com/nekruzvatanshoev/autovalue/pkg/autovalue/logging"
	"github.com/nekruzvatanshoev/autovalue/pkg/autovalue/pricing"
)

const envPrefix = "AUTOVALUE"

// Config is the full service configuration.
type Config struct {
	Server    ServerConfig        `mapstructure:"server"`
	Log       logging.Config      `mapstructure:"log"`
	Storage   StorageConfig       `mapstructure:"storage"`
	Vision    VisionConfig        `mapstructure:"vision"`
	Policy    decision.Policy     `mapstructure:"policy"`
	Pricing   dal.PricingSettings `mapstructure:"pricing"`
	RateLimit RateLimitConfig     `mapstructure:"ratelimit"`
}

type ServerConfig struct {
	Address         string        `mapstructure:"address"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type StorageConfig struct {
	// Path of the SQLite database; ":memory:" keeps records in process.
	Path string `mapstructure:"path"`
}

type VisionConfig struct {
	APIKey    string        `mapstructure:"api_key"`
	Model     string        `mapstructure:"model"`
	MaxTokens int64         `mapstructure:"max_tokens"`
	Timeout   time.Duration `mapstructure:"timeout"`
}

// RateLimitConfig limits image analysis per client address.
type RateLimitConfig struct {
	RPS   float64 `mapstructure:"rps"`
	Burst int     `mapstructure:"burst"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("storage.path", ":memory:")
	v.SetDefault("vision.api_key", "")
	v.SetDefault("vision.model", "claude-sonnet-4-20250514")
	v.SetDefault("vision.max_tokens", 4096)
	v.SetDefault("vision.timeout", 90*time.Second)

	policy := decision.DefaultPolicy()
	v.SetDefault("policy.auto_approve_below", policy.AutoApproveBelow)
	v.SetDefault("policy.escalate_above", policy.EscalateAbove)

	p := pricing.DefaultSettings()
	v.SetDefault("pricing.base_price", p.BasePrice)
	v.SetDefault("pricing.premium_brand_multiplier", p.PremiumBrandMultiplier)
	v.SetDefault("pricing.depreciation_rate", p.DepreciationRate)
	v.SetDefault("pricing.mileage_penalty", p.MileagePenalty)
	v.SetDefault("pricing.captcha_enabled", p.CaptchaEnabled)
	v.SetDefault("pricing.vin_search_enabled", p.VinSearchEnabled)

	v.SetDefault("ratelimit.rps", 0.2)
	v.SetDefault("ratelimit.burst", 3)
}

// Prepare sets prefix, key replacer, legacy env names and defaults on v.
// Callers may bind command-line flags to v before calling Load.
func Prepare(v *viper.Viper) {
	v.SetConfigType("yaml")
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	_ = v.BindEnv("server.address", envPrefix+"_SERVER_ADDRESS", "SERVER_ADDRESS")
	_ = v.BindEnv("vision.api_key", envPrefix+"_VISION_API_KEY", "ANTHROPIC_API_KEY")
	setDefaults(v)
}

// Load reads path (if not empty) into v, then unmarshals and validates.
func Load(v *viper.Viper, path string) (*Config, error) {
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %q: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

// LoadFile is Load on a fresh, prepared viper instance.
func LoadFile(path string) (*Config, error) {
	v := viper.New()
	Prepare(v)
	return Load(v, path)
}

// Validate checks the values the service cannot run without.
func (c *Config) Validate() error {
	var errs []error
	if c.Server.Address == "" {
		errs = append(errs, errors.New("server.address is required"))
	}
	if c.Storage.Path == "" {
		errs = append(errs, errors.New("storage.path is required"))
	}
	if c.Vision.Timeout <= 0 {
		errs = append(errs, errors.New("vision.timeout must be positive"))
	}
	if c.Policy.AutoApproveBelow < 0 || c.Policy.EscalateAbove < c.Policy.AutoApproveBelow {
		errs = append(errs, fmt.Errorf("policy thresholds out of order: auto_approve_below=%d escalate_above=%d",
			c.Policy.AutoApproveBelow, c.Policy.EscalateAbove))
	}
	if c.Pricing.BasePrice <= 0 || c.Pricing.PremiumBrandMultiplier <= 0 {
		errs = append(errs, errors.New("pricing.base_price and pricing.premium_brand_multiplier must be positive"))
	}
	if c.Pricing.DepreciationRate <= 0 || c.Pricing.DepreciationRate > 1 {
		errs = append(errs, errors.New("pricing.depreciation_rate must be in (0, 1]"))
	}
	if c.RateLimit.RPS <= 0 || c.RateLimit.Burst < 1 {
		errs = append(errs, errors.New("ratelimit.rps and ratelimit.burst must be positive"))
	}
	return errors.Join(errs...)
}

package config

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	internal "github.com/Splendor-Protocol/text-prompting/prompting"

	"github.com/spf13/viper"
)

// Config stores all configuration of the application.
// The values are read by viper from a config file or environment variables.
type Config struct {
	Exchange ExchangeConfig `mapstructure:"exchange"`
	Limits   LimitsConfig   `mapstructure:"limits"`
}

// ExchangeConfig stores exchange pipeline configurations.
type ExchangeConfig struct {
	// Integrity checks
	VerifyOnReceive bool `mapstructure:"verify_on_receive"` // Recompute hashes on decoded requests
	VerifyOnReply   bool `mapstructure:"verify_on_reply"`   // Recompute hashes on decoded replies

	// Completion cache
	CacheEnabled    bool `mapstructure:"cache_enabled"`     // Enable completion caching
	CacheCapacity   int  `mapstructure:"cache_capacity"`    // LRU cache capacity
	CacheTTLSeconds int  `mapstructure:"cache_ttl_seconds"` // Cache entry TTL

	// Responder throttling
	RateLimitEnabled    bool          `mapstructure:"rate_limit_enabled"`     // Enable rate limiting
	RateLimitCapacity   int           `mapstructure:"rate_limit_capacity"`    // Token bucket capacity
	RateLimitRefillRate time.Duration `mapstructure:"rate_limit_refill_rate"` // Refill rate

	// Telemetry
	EnableTracing bool `mapstructure:"enable_tracing"` // Enable structured logging/tracing
}

// LimitsConfig stores request size limits enforced at the exchange boundary.
// A zero value disables the corresponding limit.
type LimitsConfig struct {
	MaxRoles        int `mapstructure:"max_roles"`         // Maximum entries in roles
	MaxMessages     int `mapstructure:"max_messages"`      // Maximum entries in messages
	MaxMessageBytes int `mapstructure:"max_message_bytes"` // Maximum size of a single message in bytes
}

var AppConfig Config

// LoadConfig reads configuration from file or environment variables.
func LoadConfig(configPath string) (*Config, error) {
	if configPath != "" {
		viper.SetConfigFile(configPath)
	} else {
		viper.AddConfigPath(".")
		viper.AddConfigPath("..")
		viper.AddConfigPath(filepath.Join("etc", internal.DefaultAppName))
		viper.AddConfigPath(internal.DefaultConfigPath)
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
	}

	// Exchange defaults
	viper.SetDefault("exchange.verify_on_receive", true)
	viper.SetDefault("exchange.verify_on_reply", true)
	viper.SetDefault("exchange.cache_enabled", false)
	viper.SetDefault("exchange.cache_capacity", 256)
	viper.SetDefault("exchange.cache_ttl_seconds", 300) // 5 minutes
	viper.SetDefault("exchange.rate_limit_enabled", false)
	viper.SetDefault("exchange.rate_limit_capacity", 16)
	viper.SetDefault("exchange.rate_limit_refill_rate", "1s")
	viper.SetDefault("exchange.enable_tracing", true)

	// Limits default to unlimited
	viper.SetDefault("limits.max_roles", 0)
	viper.SetDefault("limits.max_messages", 0)
	viper.SetDefault("limits.max_message_bytes", 0)

	viper.AutomaticEnv()
	// Replace dots with underscores in env var names e.g. exchange.cache_capacity becomes EXCHANGE_CACHE_CAPACITY
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// Config file not found; defaults will be used. Not an error
			// for the application to halt on.
		} else {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	err := viper.Unmarshal(&AppConfig)
	if err != nil {
		return nil, fmt.Errorf("unable to decode into struct: %w", err)
	}

	return &AppConfig, nil
}

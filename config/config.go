package config

import (
	"log"

	"github.com/spf13/viper"
)

type WebServerConfig struct {
	Port            string `mapstructure:"port"`
	IP              string `mapstructure:"ip"`
	Scheme          string `mapstructure:"scheme"`
	BaseURL         string `mapstructure:"base_url"`
	CanonicalDomain string `mapstructure:"canonical_domain"`
	ReadTimeout     int    `mapstructure:"read_timeout"`
	WriteTimeout    int    `mapstructure:"write_timeout"`
	ShutdownTimeout int    `mapstructure:"shutdown_timeout"`
}

type RedisConfig struct {
	Address          string `mapstructure:"address"`
	Password         string `mapstructure:"password"`
	DB               int    `mapstructure:"db"`
	PoolSize         int    `mapstructure:"pool_size"`
	MinIdleConns     int    `mapstructure:"min_idle_conns"`
	OperationTimeout int    `mapstructure:"operation_timeout"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type CacheConfig struct {
	Enabled     bool `mapstructure:"enabled"`
	MaxSizeMB   int  `mapstructure:"max_size_mb"`
	TTLSeconds  int  `mapstructure:"ttl_seconds"`
	CounterSize int  `mapstructure:"counter_size"`
}

// RecorderConfig tunes the asynchronous click recorder. The queue absorbs
// redirect bursts; workers drain it and retry transient store failures.
type RecorderConfig struct {
	QueueSize    int `mapstructure:"queue_size"`
	Workers      int `mapstructure:"workers"`
	MaxRetries   int `mapstructure:"max_retries"`
	RetryBaseMs  int `mapstructure:"retry_base_ms"`
	DrainTimeout int `mapstructure:"drain_timeout"` // Seconds to wait for the queue on shutdown
}

// DNSConfig governs domain ownership verification. TXTPrefix is the label
// published under the customer's zone; PlatformHost is the CNAME target.
type DNSConfig struct {
	TimeoutSeconds int    `mapstructure:"timeout_seconds"`
	TXTPrefix      string `mapstructure:"txt_prefix"`
	PlatformHost   string `mapstructure:"platform_host"`
	RecordTTL      int    `mapstructure:"record_ttl"`
}

type FeaturesConfig struct {
	CustomAliasEnabled bool `mapstructure:"custom_alias_enabled"`
	MinCodeLength      int  `mapstructure:"min_code_length"`
	MaxCodeLength      int  `mapstructure:"max_code_length"`
	TombstoneTTLDays   int  `mapstructure:"tombstone_ttl_days"` // Retention window for deleted short codes
}

type Config struct {
	WebServer WebServerConfig `mapstructure:"webserver"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Cache     CacheConfig     `mapstructure:"cache"`
	RateLimit RateLimitConfig `mapstructure:"ratelimit"`
	Recorder  RecorderConfig  `mapstructure:"recorder"`
	DNS       DNSConfig       `mapstructure:"dns"`
	Features  FeaturesConfig  `mapstructure:"features"`
}

func LoadConfig() (Config, error) {
	var config Config

	viper.AddConfigPath(".")
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	// Enable environment variable overrides
	viper.SetEnvPrefix("UTMKIT")
	viper.AutomaticEnv()

	// Set defaults
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		log.Printf("Error reading config file: %v", err)
		return config, err
	}

	if err := viper.Unmarshal(&config); err != nil {
		log.Printf("Unable to decode into struct: %v", err)
		return config, err
	}

	log.Println("Configuration loaded successfully")
	return config, nil
}

func MustLoadConfig() Config {
	config, err := LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	return config
}

func setDefaults() {
	// WebServer defaults
	viper.SetDefault("webserver.port", "8080")
	viper.SetDefault("webserver.ip", "127.0.0.1")
	viper.SetDefault("webserver.scheme", "http")
	viper.SetDefault("webserver.base_url", "")
	viper.SetDefault("webserver.canonical_domain", "utmkit.ir")
	viper.SetDefault("webserver.read_timeout", 15)
	viper.SetDefault("webserver.write_timeout", 15)
	viper.SetDefault("webserver.shutdown_timeout", 30)

	// Redis defaults
	viper.SetDefault("redis.address", "localhost:6379")
	viper.SetDefault("redis.password", "")
	viper.SetDefault("redis.db", 0)
	viper.SetDefault("redis.pool_size", 10)
	viper.SetDefault("redis.min_idle_conns", 5)
	viper.SetDefault("redis.operation_timeout", 5)

	// Cache defaults
	viper.SetDefault("cache.enabled", true)
	viper.SetDefault("cache.max_size_mb", 100)
	viper.SetDefault("cache.ttl_seconds", 300)      // 5 minutes
	viper.SetDefault("cache.counter_size", 1000000) // 1M keys

	// RateLimit defaults
	viper.SetDefault("ratelimit.requests_per_second", 10.0)
	viper.SetDefault("ratelimit.burst", 20)

	// Recorder defaults
	viper.SetDefault("recorder.queue_size", 4096)
	viper.SetDefault("recorder.workers", 4)
	viper.SetDefault("recorder.max_retries", 3)
	viper.SetDefault("recorder.retry_base_ms", 100)
	viper.SetDefault("recorder.drain_timeout", 10)

	// DNS defaults
	viper.SetDefault("dns.timeout_seconds", 5)
	viper.SetDefault("dns.txt_prefix", "_utmkit-verify")
	viper.SetDefault("dns.platform_host", "utmkit.ir")
	viper.SetDefault("dns.record_ttl", 3600)

	// Features defaults
	viper.SetDefault("features.custom_alias_enabled", true)
	viper.SetDefault("features.min_code_length", 3)
	viper.SetDefault("features.max_code_length", 64)
	viper.SetDefault("features.tombstone_ttl_days", 90)
}

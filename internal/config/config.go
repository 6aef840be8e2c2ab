// Package config loads the kernel's runtime configuration from a YAML file
// (default: configs/kernel.yaml) with environment-variable overrides, the
// same viper-based shape the rest of the corpus uses for its bots.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the top-level configuration for the exchange-sim kernel.
type Config struct {
	Server  ServerConfig   `mapstructure:"server"`
	Shards  ShardConfig    `mapstructure:"shards"`
	Audit   AuditConfig    `mapstructure:"audit"`
	Pairs   []PairEntry    `mapstructure:"pairs"`
	Logging LoggingConfig  `mapstructure:"logging"`
	Resync  ResyncConfig   `mapstructure:"resync"`
}

// ServerConfig controls the HTTP/WS listener.
type ServerConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORSOrigins     []string      `mapstructure:"cors_origins"`
}

// ShardConfig sizes the order-book shard pool.
type ShardConfig struct {
	NumShards  int    `mapstructure:"num_shards"`
	BufferSize uint64 `mapstructure:"buffer_size"`
	Algorithm  string `mapstructure:"algorithm"` // "price-time" or "pro-rata"
	ProRataLot string `mapstructure:"pro_rata_lot"`
}

// AuditConfig controls the optional gob audit trail (see internal/wire.AuditSink).
type AuditConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

// PairEntry seeds the trading-pair registry at startup.
type PairEntry struct {
	Symbol      string `mapstructure:"symbol"`
	BaseAsset   string `mapstructure:"base_asset"`
	QuoteAsset  string `mapstructure:"quote_asset"`
	TickSize    string `mapstructure:"tick_size"`
	LotSize     string `mapstructure:"lot_size"`
	MinNotional string `mapstructure:"min_notional"`
}

// LoggingConfig controls zap's construction.
type LoggingConfig struct {
	Level string `mapstructure:"level"` // "debug", "info", "warn", "error"
	Dev   bool   `mapstructure:"dev"`
}

// ResyncConfig tunes internal/syncstate's resnap queue rate limit.
type ResyncConfig struct {
	RatePerSecond float64 `mapstructure:"rate_per_second"`
	Burst         int     `mapstructure:"burst"`
}

// Default returns the configuration used when no file is present, with a
// handful of demo pairs so the kernel is immediately useful out of the box.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: 5 * time.Second,
			CORSOrigins:     []string{"*"},
		},
		Shards: ShardConfig{
			NumShards:  4,
			BufferSize: 8192,
			Algorithm:  "price-time",
		},
		Audit: AuditConfig{
			Enabled: false,
			Path:    "data/audit.log",
		},
		Pairs: []PairEntry{
			{Symbol: "BTC-USD", BaseAsset: "BTC", QuoteAsset: "USD", TickSize: "0.01", LotSize: "0.0001", MinNotional: "10"},
			{Symbol: "ETH-USD", BaseAsset: "ETH", QuoteAsset: "USD", TickSize: "0.01", LotSize: "0.001", MinNotional: "10"},
		},
		Logging: LoggingConfig{Level: "info"},
		Resync:  ResyncConfig{RatePerSecond: 5, Burst: 10},
	}
}

// Load reads config from path, falling back to Default() values for any key
// the file omits. Sensitive or deployment-specific fields may be overridden
// with KERNEL_* environment variables, e.g. KERNEL_SERVER_ADDR.
func Load(path string) (*Config, error) {
	v := viper.New()
	def := Default()
	v.SetConfigFile(path)
	v.SetEnvPrefix("KERNEL")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, def)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	cfg := *def
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper, def *Config) {
	v.SetDefault("server.addr", def.Server.Addr)
	v.SetDefault("server.shutdown_timeout", def.Server.ShutdownTimeout)
	v.SetDefault("server.cors_origins", def.Server.CORSOrigins)
	v.SetDefault("shards.num_shards", def.Shards.NumShards)
	v.SetDefault("shards.buffer_size", def.Shards.BufferSize)
	v.SetDefault("shards.algorithm", def.Shards.Algorithm)
	v.SetDefault("audit.enabled", def.Audit.Enabled)
	v.SetDefault("audit.path", def.Audit.Path)
	v.SetDefault("logging.level", def.Logging.Level)
	v.SetDefault("resync.rate_per_second", def.Resync.RatePerSecond)
	v.SetDefault("resync.burst", def.Resync.Burst)
	pairs := make([]map[string]any, 0, len(def.Pairs))
	for _, p := range def.Pairs {
		pairs = append(pairs, map[string]any{
			"symbol": p.Symbol, "base_asset": p.BaseAsset, "quote_asset": p.QuoteAsset,
			"tick_size": p.TickSize, "lot_size": p.LotSize, "min_notional": p.MinNotional,
		})
	}
	v.SetDefault("pairs", pairs)
}

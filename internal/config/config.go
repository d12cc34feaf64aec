// Package config defines the top-level configuration for the mean-reversion
// bot and provides validation helpers.
package config

import (
	"fmt"
	"time"
)

// Config is the root configuration structure. Fields are populated from a
// TOML file and then optionally overridden by REVBOT_* environment
// variables.
type Config struct {
	Wallet     WalletConfig     `toml:"wallet"`
	Polymarket PolymarketConfig `toml:"polymarket"`
	Detector   DetectorConfig   `toml:"detector"`
	Strategy   StrategyConfig   `toml:"strategy"`
	Execution  ExecutionConfig  `toml:"execution"`
	Positions  PositionsConfig  `toml:"positions"`
	Postgres   PostgresConfig   `toml:"postgres"`
	Redis      RedisConfig      `toml:"redis"`
	S3         S3Config         `toml:"s3"`
	Notify     NotifyConfig     `toml:"notify"`
	DryRun     bool             `toml:"dry_run"`
	LogLevel   string           `toml:"log_level"`
}

// WalletConfig holds Ethereum wallet credentials used for order signing.
type WalletConfig struct {
	PrivateKey       string `toml:"private_key"`
	EncryptedKeyPath string `toml:"encrypted_key_path"`
	KeyPassword      string `toml:"key_password"`
}

// PolymarketConfig holds API endpoints, chain parameters, and CLOB
// credentials.
type PolymarketConfig struct {
	ClobHost      string `toml:"clob_host"`
	GammaHost     string `toml:"gamma_host"`
	WsHost        string `toml:"ws_host"`
	ChainID       int    `toml:"chain_id"`
	ApiKey        string `toml:"api_key"`
	ApiSecret     string `toml:"api_secret"`
	ApiPassphrase string `toml:"api_passphrase"`
	MarketLimit   int    `toml:"market_limit"`
}

// DetectorConfig holds spike-detection thresholds.
type DetectorConfig struct {
	MinSpikeThreshold float64 `toml:"min_spike_threshold"`
	CooldownSeconds   int     `toml:"cooldown_seconds"`
	LookbackSeconds   int     `toml:"lookback_seconds"`
	MinLiquidity      float64 `toml:"min_liquidity"`
}

// StrategyConfig holds decision-composer thresholds.
type StrategyConfig struct {
	MinConfidence   float64 `toml:"min_confidence"`
	MinNoPrice      float64 `toml:"min_no_price"`
	MaxNoPrice      float64 `toml:"max_no_price"`
	MaxPositionSize float64 `toml:"max_position_size"`
}

// ExecutionConfig holds orderbook-analyzer thresholds and cycle timing.
type ExecutionConfig struct {
	TickSize            float64 `toml:"tick_size"`
	ThinSpreadBps       float64 `toml:"thin_spread_bps"`
	ThinBidDepth        float64 `toml:"thin_bid_depth"`
	ScanIntervalSeconds int     `toml:"scan_interval_seconds"`
	CallTimeoutSeconds  int     `toml:"call_timeout_seconds"`
	RetentionSeconds    int     `toml:"order_retention_seconds"`
}

// PositionsConfig holds position limits and exit thresholds.
type PositionsConfig struct {
	MaxOpenPositions int     `toml:"max_open_positions"`
	TakeProfitPct    float64 `toml:"take_profit_pct"`
	StopLossPct      float64 `toml:"stop_loss_pct"`
}

// PostgresConfig holds PostgreSQL connection parameters for the metrics
// stores.
type PostgresConfig struct {
	DSN           string `toml:"dsn"`
	Host          string `toml:"host"`
	Port          int    `toml:"port"`
	Database      string `toml:"database"`
	User          string `toml:"user"`
	Password      string `toml:"password"`
	SSLMode       string `toml:"ssl_mode"`
	PoolMaxConns  int    `toml:"pool_max_conns"`
	PoolMinConns  int    `toml:"pool_min_conns"`
	RunMigrations bool   `toml:"run_migrations"`
	Enabled       bool   `toml:"enabled"`
}

// RedisConfig holds Redis connection parameters for the live caches.
type RedisConfig struct {
	Addr       string `toml:"addr"`
	Password   string `toml:"password"`
	DB         int    `toml:"db"`
	PoolSize   int    `toml:"pool_size"`
	MaxRetries int    `toml:"max_retries"`
	TLSEnabled bool   `toml:"tls_enabled"`
	Enabled    bool   `toml:"enabled"`
}

// S3Config holds S3-compatible object storage parameters for cold-storage
// archival of signal and trade records.
type S3Config struct {
	Endpoint       string `toml:"endpoint"`
	Region         string `toml:"region"`
	Bucket         string `toml:"bucket"`
	AccessKey      string `toml:"access_key"`
	SecretKey      string `toml:"secret_key"`
	UseSSL         bool   `toml:"use_ssl"`
	ForcePathStyle bool   `toml:"force_path_style"`
	Enabled        bool   `toml:"enabled"`
	ArchiveAfterH  int    `toml:"archive_after_hours"`
}

// NotifyConfig holds notification channel settings.
type NotifyConfig struct {
	TelegramToken     string   `toml:"telegram_token"`
	TelegramChatID    string   `toml:"telegram_chat_id"`
	DiscordWebhookURL string   `toml:"discord_webhook_url"`
	Events            []string `toml:"events"`
}

// Defaults returns a Config pre-populated with production defaults. Load
// merges the TOML file on top of this.
func Defaults() Config {
	return Config{
		Polymarket: PolymarketConfig{
			ClobHost:    "https://clob.polymarket.com",
			GammaHost:   "https://gamma-api.polymarket.com",
			WsHost:      "wss://ws-subscriptions-clob.polymarket.com/ws/market",
			ChainID:     137,
			MarketLimit: 100,
		},
		Detector: DetectorConfig{
			MinSpikeThreshold: 0.20,
			CooldownSeconds:   300,
			LookbackSeconds:   300,
			MinLiquidity:      1000,
		},
		Strategy: StrategyConfig{
			MinConfidence:   0.5,
			MinNoPrice:      0.10,
			MaxNoPrice:      0.70,
			MaxPositionSize: 100,
		},
		Execution: ExecutionConfig{
			TickSize:            0.01,
			ThinSpreadBps:       500,
			ThinBidDepth:        500,
			ScanIntervalSeconds: 30,
			CallTimeoutSeconds:  10,
			RetentionSeconds:    3600,
		},
		Positions: PositionsConfig{
			MaxOpenPositions: 5,
			TakeProfitPct:    0.15,
			StopLossPct:      0.30,
		},
		Postgres: PostgresConfig{
			Port:         5432,
			SSLMode:      "disable",
			PoolMaxConns: 4,
			PoolMinConns: 1,
		},
		Redis: RedisConfig{
			Addr:     "localhost:6379",
			PoolSize: 10,
		},
		S3: S3Config{
			Region:        "us-east-1",
			ArchiveAfterH: 24 * 30,
		},
		LogLevel: "info",
	}
}

// Validate checks cross-field consistency and required credentials. DryRun
// relaxes the wallet requirement since nothing is ever submitted.
func (c *Config) Validate() error {
	if !c.DryRun {
		if c.Wallet.PrivateKey == "" && c.Wallet.EncryptedKeyPath == "" {
			return fmt.Errorf("config: wallet private key required (set wallet.private_key or wallet.encrypted_key_path, or enable dry_run)")
		}
	}
	if c.Detector.MinSpikeThreshold <= 0 || c.Detector.MinSpikeThreshold >= 1 {
		return fmt.Errorf("config: detector.min_spike_threshold must be in (0,1), got %v", c.Detector.MinSpikeThreshold)
	}
	if c.Strategy.MinNoPrice >= c.Strategy.MaxNoPrice {
		return fmt.Errorf("config: strategy.min_no_price (%v) must be below max_no_price (%v)",
			c.Strategy.MinNoPrice, c.Strategy.MaxNoPrice)
	}
	if c.Strategy.MaxPositionSize <= 0 {
		return fmt.Errorf("config: strategy.max_position_size must be positive")
	}
	if c.Execution.TickSize <= 0 {
		return fmt.Errorf("config: execution.tick_size must be positive")
	}
	if c.Execution.ScanIntervalSeconds <= 0 {
		return fmt.Errorf("config: execution.scan_interval_seconds must be positive")
	}
	if c.Postgres.Enabled && c.Postgres.DSN == "" && c.Postgres.Host == "" {
		return fmt.Errorf("config: postgres enabled but neither dsn nor host set")
	}
	if c.S3.Enabled && c.S3.Bucket == "" {
		return fmt.Errorf("config: s3 enabled but bucket not set")
	}
	return nil
}

// ScanInterval returns the polling cycle interval as a duration.
func (c *Config) ScanInterval() time.Duration {
	return time.Duration(c.Execution.ScanIntervalSeconds) * time.Second
}

// CallTimeout returns the bound applied to each external call.
func (c *Config) CallTimeout() time.Duration {
	return time.Duration(c.Execution.CallTimeoutSeconds) * time.Second
}

// Cooldown returns the detector cooldown as a duration.
func (c *Config) Cooldown() time.Duration {
	return time.Duration(c.Detector.CooldownSeconds) * time.Second
}

// Lookback returns the detector history window as a duration.
func (c *Config) Lookback() time.Duration {
	return time.Duration(c.Detector.LookbackSeconds) * time.Second
}

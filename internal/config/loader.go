package config

import (
	"os"
	"strconv"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies REVBOT_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated;
// the caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, err
		}
	}

	// Load .env if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known REVBOT_* environment variables and
// overwrites the corresponding Config fields when a variable is set. This
// lets operators inject secrets at deploy time without touching the TOML
// file.
func applyEnvOverrides(cfg *Config) {
	setStr(&cfg.Wallet.PrivateKey, "REVBOT_WALLET_PRIVATE_KEY")
	setStr(&cfg.Wallet.EncryptedKeyPath, "REVBOT_WALLET_ENCRYPTED_KEY_PATH")
	setStr(&cfg.Wallet.KeyPassword, "REVBOT_WALLET_KEY_PASSWORD")

	setStr(&cfg.Polymarket.ClobHost, "REVBOT_POLYMARKET_CLOB_HOST")
	setStr(&cfg.Polymarket.GammaHost, "REVBOT_POLYMARKET_GAMMA_HOST")
	setStr(&cfg.Polymarket.WsHost, "REVBOT_POLYMARKET_WS_HOST")
	setInt(&cfg.Polymarket.ChainID, "REVBOT_POLYMARKET_CHAIN_ID")
	setStr(&cfg.Polymarket.ApiKey, "REVBOT_POLYMARKET_API_KEY")
	setStr(&cfg.Polymarket.ApiSecret, "REVBOT_POLYMARKET_API_SECRET")
	setStr(&cfg.Polymarket.ApiPassphrase, "REVBOT_POLYMARKET_API_PASSPHRASE")
	setInt(&cfg.Polymarket.MarketLimit, "REVBOT_POLYMARKET_MARKET_LIMIT")

	setFloat64(&cfg.Detector.MinSpikeThreshold, "REVBOT_DETECTOR_MIN_SPIKE_THRESHOLD")
	setInt(&cfg.Detector.CooldownSeconds, "REVBOT_DETECTOR_COOLDOWN_SECONDS")
	setInt(&cfg.Detector.LookbackSeconds, "REVBOT_DETECTOR_LOOKBACK_SECONDS")
	setFloat64(&cfg.Detector.MinLiquidity, "REVBOT_DETECTOR_MIN_LIQUIDITY")

	setFloat64(&cfg.Strategy.MinConfidence, "REVBOT_STRATEGY_MIN_CONFIDENCE")
	setFloat64(&cfg.Strategy.MinNoPrice, "REVBOT_STRATEGY_MIN_NO_PRICE")
	setFloat64(&cfg.Strategy.MaxNoPrice, "REVBOT_STRATEGY_MAX_NO_PRICE")
	setFloat64(&cfg.Strategy.MaxPositionSize, "REVBOT_STRATEGY_MAX_POSITION_SIZE")

	setFloat64(&cfg.Execution.TickSize, "REVBOT_EXECUTION_TICK_SIZE")
	setFloat64(&cfg.Execution.ThinSpreadBps, "REVBOT_EXECUTION_THIN_SPREAD_BPS")
	setFloat64(&cfg.Execution.ThinBidDepth, "REVBOT_EXECUTION_THIN_BID_DEPTH")
	setInt(&cfg.Execution.ScanIntervalSeconds, "REVBOT_EXECUTION_SCAN_INTERVAL_SECONDS")
	setInt(&cfg.Execution.CallTimeoutSeconds, "REVBOT_EXECUTION_CALL_TIMEOUT_SECONDS")

	setInt(&cfg.Positions.MaxOpenPositions, "REVBOT_POSITIONS_MAX_OPEN")
	setFloat64(&cfg.Positions.TakeProfitPct, "REVBOT_POSITIONS_TAKE_PROFIT_PCT")
	setFloat64(&cfg.Positions.StopLossPct, "REVBOT_POSITIONS_STOP_LOSS_PCT")

	setStr(&cfg.Postgres.DSN, "REVBOT_POSTGRES_DSN")
	setStr(&cfg.Postgres.Host, "REVBOT_POSTGRES_HOST")
	setInt(&cfg.Postgres.Port, "REVBOT_POSTGRES_PORT")
	setStr(&cfg.Postgres.Database, "REVBOT_POSTGRES_DATABASE")
	setStr(&cfg.Postgres.User, "REVBOT_POSTGRES_USER")
	setStr(&cfg.Postgres.Password, "REVBOT_POSTGRES_PASSWORD")
	setStr(&cfg.Postgres.SSLMode, "REVBOT_POSTGRES_SSLMODE")
	setBool(&cfg.Postgres.RunMigrations, "REVBOT_POSTGRES_RUN_MIGRATIONS")
	setBool(&cfg.Postgres.Enabled, "REVBOT_POSTGRES_ENABLED")

	setStr(&cfg.Redis.Addr, "REVBOT_REDIS_ADDR")
	setStr(&cfg.Redis.Password, "REVBOT_REDIS_PASSWORD")
	setInt(&cfg.Redis.DB, "REVBOT_REDIS_DB")
	setBool(&cfg.Redis.TLSEnabled, "REVBOT_REDIS_TLS_ENABLED")
	setBool(&cfg.Redis.Enabled, "REVBOT_REDIS_ENABLED")

	setStr(&cfg.S3.Endpoint, "REVBOT_S3_ENDPOINT")
	setStr(&cfg.S3.Region, "REVBOT_S3_REGION")
	setStr(&cfg.S3.Bucket, "REVBOT_S3_BUCKET")
	setStr(&cfg.S3.AccessKey, "REVBOT_S3_ACCESS_KEY")
	setStr(&cfg.S3.SecretKey, "REVBOT_S3_SECRET_KEY")
	setBool(&cfg.S3.ForcePathStyle, "REVBOT_S3_FORCE_PATH_STYLE")
	setBool(&cfg.S3.Enabled, "REVBOT_S3_ENABLED")

	setStr(&cfg.Notify.TelegramToken, "REVBOT_NOTIFY_TELEGRAM_TOKEN")
	setStr(&cfg.Notify.TelegramChatID, "REVBOT_NOTIFY_TELEGRAM_CHAT_ID")
	setStr(&cfg.Notify.DiscordWebhookURL, "REVBOT_NOTIFY_DISCORD_WEBHOOK_URL")

	setBool(&cfg.DryRun, "REVBOT_DRY_RUN")
	setStr(&cfg.LogLevel, "REVBOT_LOG_LEVEL")
}

func setStr(dst *string, env string) {
	if v := os.Getenv(env); v != "" {
		*dst = v
	}
}

func setInt(dst *int, env string) {
	if v := os.Getenv(env); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, env string) {
	if v := os.Getenv(env); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, env string) {
	if v := os.Getenv(env); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := Defaults()

	if cfg.Detector.MinSpikeThreshold != 0.20 {
		t.Fatalf("spike threshold = %v, want 0.20", cfg.Detector.MinSpikeThreshold)
	}
	if cfg.Detector.CooldownSeconds != 300 || cfg.Detector.LookbackSeconds != 300 {
		t.Fatalf("detector windows = %d/%d, want 300/300",
			cfg.Detector.CooldownSeconds, cfg.Detector.LookbackSeconds)
	}
	if cfg.Strategy.MinConfidence != 0.5 {
		t.Fatalf("min confidence = %v, want 0.5", cfg.Strategy.MinConfidence)
	}
	if cfg.Strategy.MinNoPrice != 0.10 || cfg.Strategy.MaxNoPrice != 0.70 {
		t.Fatalf("NO bounds = %v..%v, want 0.10..0.70",
			cfg.Strategy.MinNoPrice, cfg.Strategy.MaxNoPrice)
	}
	if cfg.Polymarket.ChainID != 137 {
		t.Fatalf("chain id = %d, want 137", cfg.Polymarket.ChainID)
	}
	if cfg.ScanInterval() != 30*time.Second {
		t.Fatalf("scan interval = %v, want 30s", cfg.ScanInterval())
	}
	if cfg.Cooldown() != 300*time.Second {
		t.Fatalf("cooldown = %v, want 300s", cfg.Cooldown())
	}
}

func TestValidate(t *testing.T) {
	t.Run("defaults need a wallet", func(t *testing.T) {
		cfg := Defaults()
		if err := cfg.Validate(); err == nil {
			t.Fatal("expected wallet error without key or dry run")
		}
	})

	t.Run("dry run relaxes wallet", func(t *testing.T) {
		cfg := Defaults()
		cfg.DryRun = true
		if err := cfg.Validate(); err != nil {
			t.Fatalf("Validate: %v", err)
		}
	})

	t.Run("inverted price bounds", func(t *testing.T) {
		cfg := Defaults()
		cfg.DryRun = true
		cfg.Strategy.MinNoPrice = 0.80
		if err := cfg.Validate(); err == nil {
			t.Fatal("expected error for min_no_price above max_no_price")
		}
	})

	t.Run("postgres enabled without target", func(t *testing.T) {
		cfg := Defaults()
		cfg.DryRun = true
		cfg.Postgres.Enabled = true
		if err := cfg.Validate(); err == nil {
			t.Fatal("expected error for postgres without dsn or host")
		}
	})

	t.Run("s3 enabled without bucket", func(t *testing.T) {
		cfg := Defaults()
		cfg.DryRun = true
		cfg.S3.Enabled = true
		if err := cfg.Validate(); err == nil {
			t.Fatal("expected error for s3 without bucket")
		}
	})
}

func TestLoadMergesFileAndEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	body := `
dry_run = true
log_level = "debug"

[detector]
min_spike_threshold = 0.25

[strategy]
max_position_size = 250.0
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("REVBOT_STRATEGY_MAX_POSITION_SIZE", "500")
	t.Setenv("REVBOT_REDIS_ADDR", "redis.internal:6380")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if !cfg.DryRun || cfg.LogLevel != "debug" {
		t.Fatalf("file values not applied: %+v", cfg)
	}
	if cfg.Detector.MinSpikeThreshold != 0.25 {
		t.Fatalf("threshold = %v, want 0.25 from file", cfg.Detector.MinSpikeThreshold)
	}
	// Env wins over file.
	if cfg.Strategy.MaxPositionSize != 500 {
		t.Fatalf("max position = %v, want env override 500", cfg.Strategy.MaxPositionSize)
	}
	if cfg.Redis.Addr != "redis.internal:6380" {
		t.Fatalf("redis addr = %q, want env override", cfg.Redis.Addr)
	}
	// Untouched fields keep their defaults.
	if cfg.Polymarket.ClobHost != "https://clob.polymarket.com" {
		t.Fatalf("clob host lost its default: %q", cfg.Polymarket.ClobHost)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestRedactedConfig(t *testing.T) {
	cfg := Defaults()
	cfg.Wallet.PrivateKey = "0xdeadbeef"
	cfg.Polymarket.ApiSecret = "s3cret"
	cfg.Postgres.Password = "hunter2"
	cfg.Notify.TelegramToken = "bot-token"

	r := RedactedConfig(&cfg)
	if r.Wallet.PrivateKey == "0xdeadbeef" || r.Polymarket.ApiSecret == "s3cret" ||
		r.Postgres.Password == "hunter2" || r.Notify.TelegramToken == "bot-token" {
		t.Fatalf("secrets leaked: %+v", r)
	}
	// Non-secret values pass through.
	if r.Polymarket.ClobHost != cfg.Polymarket.ClobHost {
		t.Fatal("non-secret field was altered")
	}
}

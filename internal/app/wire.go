package app

import (
	"context"
	"fmt"
	"log/slog"

	s3blob "github.com/Jasuni69/mean-reversion/internal/blob/s3"
	"github.com/Jasuni69/mean-reversion/internal/cache/redis"
	"github.com/Jasuni69/mean-reversion/internal/config"
	"github.com/Jasuni69/mean-reversion/internal/crypto"
	"github.com/Jasuni69/mean-reversion/internal/domain"
	"github.com/Jasuni69/mean-reversion/internal/notify"
	"github.com/Jasuni69/mean-reversion/internal/platform/polymarket"
	"github.com/Jasuni69/mean-reversion/internal/store/postgres"
)

// Dependencies holds the external clients and stores the bot runs on.
// Optional backends (Postgres, Redis, S3) stay nil when disabled; the bot
// degrades gracefully around them.
type Dependencies struct {
	Gamma  *polymarket.GammaClient
	Clob   *polymarket.ClobClient
	WS     *polymarket.WSClient
	Signer *crypto.Signer

	PriceCache  domain.PriceCache
	BookCache   domain.OrderbookCache
	SignalStore domain.SignalStore
	TradeStore  domain.TradeStore
	Archiver    domain.Archiver

	Notifier *notify.Notifier
}

// Wire builds every configured dependency and returns a cleanup function
// that closes them in reverse order. On error, everything opened so far is
// closed before returning.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	deps := &Dependencies{}
	var closers []func()

	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	signer, err := buildSigner(cfg)
	if err != nil {
		return nil, nil, err
	}
	deps.Signer = signer

	var hmac *crypto.HMACAuth
	if cfg.Polymarket.ApiKey != "" {
		hmac = &crypto.HMACAuth{
			Key:        cfg.Polymarket.ApiKey,
			Secret:     cfg.Polymarket.ApiSecret,
			Passphrase: cfg.Polymarket.ApiPassphrase,
		}
	}

	deps.Gamma = polymarket.NewGammaClient(cfg.Polymarket.GammaHost)
	deps.Clob = polymarket.NewClobClient(cfg.Polymarket.ClobHost, signer, hmac)
	deps.WS = polymarket.NewWSClient(cfg.Polymarket.WsHost)

	// Live trading without configured CLOB credentials derives them from
	// the wallet key.
	if !cfg.DryRun && hmac == nil {
		if err := deps.Clob.DeriveAPIKey(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("app: derive clob api key: %w", err)
		}
		logger.Info("clob api key derived", slog.String("component", "wire"))
	}

	if cfg.Redis.Enabled {
		rc, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("app: connect redis: %w", err)
		}
		closers = append(closers, func() {
			if err := rc.Close(); err != nil {
				logger.Warn("redis close failed", slog.String("error", err.Error()))
			}
		})

		deps.PriceCache = redis.NewPriceCache(rc)
		deps.BookCache = redis.NewOrderbookCache(rc)
		logger.Info("redis connected",
			slog.String("component", "wire"),
			slog.String("addr", cfg.Redis.Addr),
		)
	}

	var pgSignals *postgres.SignalStore
	var pgTrades *postgres.TradeStore
	if cfg.Postgres.Enabled {
		pc, err := postgres.New(ctx, postgres.ClientConfig{
			DSN:      cfg.Postgres.DSN,
			Host:     cfg.Postgres.Host,
			Port:     cfg.Postgres.Port,
			Database: cfg.Postgres.Database,
			User:     cfg.Postgres.User,
			Password: cfg.Postgres.Password,
			SSLMode:  cfg.Postgres.SSLMode,
			MaxConns: cfg.Postgres.PoolMaxConns,
			MinConns: cfg.Postgres.PoolMinConns,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("app: connect postgres: %w", err)
		}
		closers = append(closers, pc.Close)

		if cfg.Postgres.RunMigrations {
			if err := pc.RunMigrations(ctx); err != nil {
				cleanup()
				return nil, nil, fmt.Errorf("app: run migrations: %w", err)
			}
		}

		pgSignals = postgres.NewSignalStore(pc.Pool())
		pgTrades = postgres.NewTradeStore(pc.Pool())
		deps.SignalStore = pgSignals
		deps.TradeStore = pgTrades
		logger.Info("postgres connected", slog.String("component", "wire"))
	}

	// Cold-storage archival needs both the primary store and object storage.
	if cfg.S3.Enabled && pgSignals != nil {
		sc, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("app: connect s3: %w", err)
		}
		if err := sc.Health(ctx); err != nil {
			cleanup()
			return nil, nil, fmt.Errorf("app: s3 health check: %w", err)
		}
		closers = append(closers, func() { _ = sc.Close() })

		deps.Archiver = s3blob.NewArchiver(s3blob.NewWriter(sc), pgSignals, pgTrades)
		logger.Info("s3 archival enabled",
			slog.String("component", "wire"),
			slog.String("bucket", cfg.S3.Bucket),
		)
	}

	deps.Notifier = buildNotifier(cfg, logger)

	return deps, cleanup, nil
}

// buildSigner loads the wallet key and constructs the EIP-712 signer. In
// dry-run mode a missing key is fine and yields a nil signer.
func buildSigner(cfg *config.Config) (*crypto.Signer, error) {
	if cfg.Wallet.PrivateKey == "" && cfg.Wallet.EncryptedKeyPath == "" {
		if cfg.DryRun {
			return nil, nil
		}
		return nil, fmt.Errorf("app: no wallet key configured")
	}

	key, err := crypto.LoadKey(crypto.KeyConfig{
		RawPrivateKey:    cfg.Wallet.PrivateKey,
		EncryptedKeyPath: cfg.Wallet.EncryptedKeyPath,
		KeyPassword:      cfg.Wallet.KeyPassword,
	})
	if err != nil {
		return nil, fmt.Errorf("app: load wallet key: %w", err)
	}

	signer, err := crypto.NewSigner(key, cfg.Polymarket.ChainID)
	if err != nil {
		return nil, fmt.Errorf("app: create signer: %w", err)
	}
	return signer, nil
}

func buildNotifier(cfg *config.Config, logger *slog.Logger) *notify.Notifier {
	var senders []notify.Sender
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		senders = append(senders, notify.NewTelegramSender(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID))
	}
	if cfg.Notify.DiscordWebhookURL != "" {
		senders = append(senders, notify.NewDiscordSender(cfg.Notify.DiscordWebhookURL))
	}
	return notify.NewNotifier(senders, cfg.Notify.Events, logger)
}

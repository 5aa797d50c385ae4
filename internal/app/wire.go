package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	s3blob "github.com/alanyoungcy/betledger/internal/blob/s3"
	"github.com/alanyoungcy/betledger/internal/bus/amqp"
	"github.com/alanyoungcy/betledger/internal/cache/redis"
	"github.com/alanyoungcy/betledger/internal/catalog"
	"github.com/alanyoungcy/betledger/internal/config"
	"github.com/alanyoungcy/betledger/internal/domain"
	"github.com/alanyoungcy/betledger/internal/ledger"
	"github.com/alanyoungcy/betledger/internal/notify"
	"github.com/alanyoungcy/betledger/internal/odds"
	"github.com/alanyoungcy/betledger/internal/platform/teamgen"
	"github.com/alanyoungcy/betledger/internal/server/ws"
	"github.com/alanyoungcy/betledger/internal/service"
	"github.com/alanyoungcy/betledger/internal/store/postgres"
)

// Dependencies bundles everything the run modes need. It is constructed by
// Wire and torn down by the returned cleanup function.
type Dependencies struct {
	// Core
	Source  domain.CatalogSource
	Catalog *catalog.Cache
	Odds    *odds.Book
	Ledger  *ledger.MemoryStore
	Betting *service.BettingService

	// Events
	Notifier *notify.Notifier
	Hub      *ws.Hub
	EventBus *redis.EventBus // nil unless Redis is enabled

	// Optional collaborators
	RateLimiter domain.RateLimiter
	EventLog    domain.EventLogStore
	Exporter    *s3blob.LedgerExporter
}

// Wire constructs all concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Dependencies, func(), error) {
	var closers []func()
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}
	fail := func(err error) (*Dependencies, func(), error) {
		cleanup()
		return nil, nil, err
	}

	deps := &Dependencies{
		Notifier: notify.NewNotifier(notify.DefaultQueueSize, logger),
		Hub:      ws.NewHub(logger),
		Ledger:   ledger.NewMemoryStore(),
		Odds:     odds.NewBook(odds.TemplateV1, logger),
	}

	// --- Catalog ---
	var source domain.CatalogSource
	if cfg.Catalog.UseSeed() {
		logger.InfoContext(ctx, "wire: catalog using seed roster")
		source = catalog.NewStaticSource(time.Now().UTC())
	} else {
		source = teamgen.NewClient(cfg.Catalog.BaseURL, cfg.Catalog.FetchTimeout.Duration)
	}
	deps.Source = source
	deps.Catalog = catalog.NewCache(source, deps.Notifier, catalog.Config{
		TTL:             cfg.Catalog.TTL.Duration,
		FetchTimeout:    cfg.Catalog.FetchTimeout.Duration,
		FailureCooldown: cfg.Catalog.FailureCooldown.Duration,
	}, logger)
	book := deps.Odds
	deps.Catalog.OnPrePublish(func(snap *catalog.Snapshot) {
		book.Ingest(snap.Matches(), snap.TeamName)
	})

	deps.Betting = service.NewBettingService(deps.Catalog, deps.Odds, deps.Ledger, deps.Notifier, logger)

	// --- PostgreSQL event log ---
	if cfg.Postgres.Enabled {
		pgClient, err := postgres.New(ctx, postgres.ClientConfig{
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
			return fail(fmt.Errorf("wire: postgres: %w", err))
		}
		closers = append(closers, pgClient.Close)

		if cfg.Postgres.RunMigrations {
			if err := pgClient.RunMigrations(ctx); err != nil {
				return fail(fmt.Errorf("wire: postgres migrations: %w", err))
			}
		}

		store := postgres.NewEventLogStore(pgClient.Pool())
		deps.EventLog = store
		deps.Notifier.Register(store, nil)
	}

	// --- Redis ---
	if cfg.Redis.Enabled {
		redisClient, err := redis.New(ctx, redis.ClientConfig{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			PoolSize:   cfg.Redis.PoolSize,
			MaxRetries: cfg.Redis.MaxRetries,
			TLSEnabled: cfg.Redis.TLSEnabled,
		})
		if err != nil {
			return fail(fmt.Errorf("wire: redis: %w", err))
		}
		closers = append(closers, func() { _ = redisClient.Close() })

		deps.RateLimiter = redis.NewRateLimiter(redisClient)
		deps.EventBus = redis.NewEventBus(redis.NewSignalBus(redisClient), logger)
		deps.Notifier.Register(deps.EventBus, nil)
		if deps.EventLog == nil {
			// The stream keeps a capped history for /api/events.
			deps.EventLog = deps.EventBus
		}
	} else {
		// Without the bus the hub is fed directly.
		deps.Notifier.Register(deps.Hub, nil)
	}

	// --- AMQP ---
	if cfg.AMQP.Enabled {
		pub, err := amqp.Dial(amqp.Config{URL: cfg.AMQP.URL, Exchange: cfg.AMQP.Exchange})
		if err != nil {
			return fail(fmt.Errorf("wire: %w", err))
		}
		closers = append(closers, func() { _ = pub.Close() })
		deps.Notifier.Register(pub, nil)
	}

	// --- S3 ledger export ---
	if cfg.S3.Enabled {
		s3Client, err := s3blob.New(ctx, s3blob.ClientConfig{
			Endpoint:       cfg.S3.Endpoint,
			Region:         cfg.S3.Region,
			Bucket:         cfg.S3.Bucket,
			AccessKey:      cfg.S3.AccessKey,
			SecretKey:      cfg.S3.SecretKey,
			UseSSL:         cfg.S3.UseSSL,
			ForcePathStyle: cfg.S3.ForcePathStyle,
		})
		if err != nil {
			return fail(fmt.Errorf("wire: s3: %w", err))
		}
		deps.Exporter = s3blob.NewLedgerExporter(
			s3blob.NewWriter(s3Client),
			s3blob.NewReader(s3Client),
			deps.Ledger,
			deps.Notifier,
			cfg.S3.Prefix,
			logger,
		)
	}

	// --- Webhooks ---
	if cfg.Notify.DiscordWebhookURL != "" {
		deps.Notifier.Register(notify.NewDiscordSink(cfg.Notify.DiscordWebhookURL), cfg.Notify.Events)
	}
	if cfg.Notify.TelegramToken != "" && cfg.Notify.TelegramChatID != "" {
		deps.Notifier.Register(notify.NewTelegramSink(cfg.Notify.TelegramToken, cfg.Notify.TelegramChatID), cfg.Notify.Events)
	}

	logger.InfoContext(ctx, "wire: dependencies ready",
		slog.Any("sinks", deps.Notifier.Sinks()),
		slog.Bool("rate_limit", deps.RateLimiter != nil),
		slog.Bool("ledger_export", deps.Exporter != nil),
	)

	return deps, cleanup, nil
}

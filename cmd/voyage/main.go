// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/olegiv/voyage-cms/internal/auth"
	"github.com/olegiv/voyage-cms/internal/cache"
	"github.com/olegiv/voyage-cms/internal/catalogue"
	"github.com/olegiv/voyage-cms/internal/cloud"
	"github.com/olegiv/voyage-cms/internal/config"
	"github.com/olegiv/voyage-cms/internal/geoip"
	"github.com/olegiv/voyage-cms/internal/handler"
	"github.com/olegiv/voyage-cms/internal/logging"
	"github.com/olegiv/voyage-cms/internal/mail"
	"github.com/olegiv/voyage-cms/internal/middleware"
	"github.com/olegiv/voyage-cms/internal/notify"
	"github.com/olegiv/voyage-cms/internal/ratelimit"
	"github.com/olegiv/voyage-cms/internal/rebuild"
	"github.com/olegiv/voyage-cms/internal/scheduler"
	"github.com/olegiv/voyage-cms/internal/section"
	"github.com/olegiv/voyage-cms/internal/service"
	"github.com/olegiv/voyage-cms/internal/session"
	"github.com/olegiv/voyage-cms/internal/storage"
	"github.com/olegiv/voyage-cms/internal/store"
	"github.com/olegiv/voyage-cms/internal/submission"
	"github.com/olegiv/voyage-cms/internal/version"
)

// Version information - injected at build time via ldflags
var (
	appVersion   = "dev"
	appGitCommit = "unknown"
	appBuildTime = "unknown"
)

// siteName is used in notification emails.
const siteName = "Voyage"

func main() {
	showVersion := flag.Bool("version", false, "Show version information")
	flag.BoolVar(showVersion, "v", false, "Show version information (shorthand)")
	showHelp := flag.Bool("help", false, "Show help information")
	flag.BoolVar(showHelp, "h", false, "Show help information (shorthand)")

	flag.Usage = func() {
		_, _ = fmt.Fprintf(os.Stderr, "Voyage - content and submissions API for a travel agency site\n\n")
		_, _ = fmt.Fprintf(os.Stderr, "Usage: %s [options]\n\n", os.Args[0])
		_, _ = fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		_, _ = fmt.Fprintf(os.Stderr, "\nEnvironment Variables:\n")
		_, _ = fmt.Fprintf(os.Stderr, "  VOYAGE_SESSION_SECRET      Session encryption key (required, min 32 bytes)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  VOYAGE_DB_PATH             SQLite database path (default: ./data/voyage.db)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  VOYAGE_SERVER_PORT         Server port (default: 8080)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  VOYAGE_ENV                 Environment: development|production (default: development)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  VOYAGE_REDIS_URL           Redis URL for the cache and rate limits (optional)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  VOYAGE_RATE_LIMIT_BACKEND  redis|memory (required in production without Redis)\n")
		_, _ = fmt.Fprintf(os.Stderr, "  VOYAGE_CORS_ORIGINS        Comma-separated static site origins\n")
	}

	flag.Parse()

	if *showHelp {
		flag.Usage()
		os.Exit(0)
	}

	info := version.Info{Version: appVersion, GitCommit: appGitCommit, BuildTime: appBuildTime}
	if *showVersion {
		_, _ = fmt.Printf("voyage %s\n", info)
		os.Exit(0)
	}

	if err := run(info); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

func run(info version.Info) error {
	// Load .env files if present (development)
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logLevel := slog.LevelInfo
	switch cfg.LogLevel {
	case "debug":
		logLevel = slog.LevelDebug
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}
	textHandler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})
	logger := slog.New(textHandler)
	slog.SetDefault(logger)

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return fmt.Errorf("creating data directory: %w", err)
	}

	slog.Info("initializing database", "path", cfg.DBPath)
	db, err := store.NewDB(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			slog.Error("error closing database connection", "error", err)
		}
	}()

	slog.Info("running database migrations")
	if err := store.Migrate(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	// From here on WARN and ERROR records also land in the events table.
	logger = slog.New(logging.NewEventLogHandler(textHandler, db))
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if cfg.DoSeed {
		if err := store.Seed(ctx, db); err != nil {
			return fmt.Errorf("seeding database: %w", err)
		}
	}

	var redisClient *redis.Client
	if cfg.UseRedisCache() {
		redisClient, err = cache.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			if cfg.RateLimitBackend == config.RateLimitRedis {
				return fmt.Errorf("connecting to redis: %w", err)
			}
			logger.Warn("redis unavailable, using in-memory cache", "error", err)
			redisClient = nil
		} else {
			defer func() { _ = redisClient.Close() }()
		}
	}

	contentCache := cache.New(cache.Config{
		RedisClient: redisClient,
		Prefix:      cfg.CachePrefix,
		DefaultTTL:  cfg.CacheTTLDuration(),
	}, logger)
	defer func() { _ = contentCache.Close() }()

	limits, err := ratelimit.NewSet(cfg.RateLimitBackend, redisClient, cfg.CachePrefix, logger)
	if err != nil {
		return fmt.Errorf("initializing rate limits: %w", err)
	}

	sessionManager := session.New(db, cfg.IsDevelopment())
	events := service.NewEventService(db)

	hook := rebuild.New(rebuild.DefaultConfig(cfg.RebuildHookURL, cfg.RebuildHookSecret), logger)
	defer hook.Stop()
	if hook.Enabled() {
		slog.Info("static site rebuild hook enabled")
	}

	sections := section.NewService(db, section.Options{
		Cache:    contentCache,
		Rebuild:  hook,
		Events:   events,
		Logger:   logger,
		CacheTTL: cfg.CacheTTLDuration(),
	})
	catalog := catalogue.NewService(db, catalogue.Options{
		Cache:    contentCache,
		Rebuild:  hook,
		Events:   events,
		Logger:   logger,
		CacheTTL: cfg.CacheTTLDuration(),
	})

	awsConfig := cloud.AWSConfig{
		Region:          cfg.AWSRegion,
		AccessKeyID:     cfg.AWSAccessKeyID,
		SecretAccessKey: cfg.AWSSecretAccessKey,
	}

	sender, err := newMailSender(ctx, cfg, awsConfig, logger)
	if err != nil {
		return err
	}
	renderer, err := mail.NewRenderer(sections, siteName, logger)
	if err != nil {
		return fmt.Errorf("initializing mail templates: %w", err)
	}

	dispatcher := notify.NewDispatcher(db, sender, logger, notify.Config{
		Workers:   cfg.NotificationWorkers,
		QueueSize: notify.DefaultConfig().QueueSize,
	})
	dispatcher.Start(ctx)
	defer dispatcher.Stop()

	geo, err := geoip.Open(cfg.GeoIPDBPath)
	if err != nil {
		logger.Warn("GeoIP disabled", "path", cfg.GeoIPDBPath, "error", err)
		geo, _ = geoip.Open("")
	}
	defer func() { _ = geo.Close() }()

	objects, err := storage.New(ctx, storage.Config{
		Backend: cfg.StorageBackend,
		Dir:     cfg.UploadsDir,
		BaseURL: storage.DefaultBaseURL,
		S3: storage.S3Config{
			AWS:       awsConfig,
			Bucket:    cfg.S3Bucket,
			PublicURL: cfg.S3PublicURL,
			Endpoint:  cfg.S3Endpoint,
		},
	}, logger)
	if err != nil {
		return fmt.Errorf("initializing storage: %w", err)
	}

	submissions := submission.NewService(db, submission.Options{
		Limits:   limits,
		Outbox:   notify.NewOutbox(renderer, cfg.AdminEmail),
		Notifier: dispatcher,
		Events:   events,
		Geo:      geo,
		Logger:   logger,
	})

	lockout := auth.NewLockout(auth.DefaultLockoutConfig())
	apiLimiter := middleware.NewGlobalRateLimiter(10, 20, func(r *http.Request) string {
		return submission.ClientIP(r.Header)
	})

	sched := scheduler.New(logger)
	if err := sched.AddAll(scheduler.Maintenance{
		Outbox:        dispatcher,
		Events:        events,
		Sweepers:      []scheduler.Sweeper{limits, lockout},
		GlobalLimiter: apiLimiter,
		GeoIP:         geo,
		Logger:        logger,
	}.Jobs()); err != nil {
		return fmt.Errorf("registering scheduled jobs: %w", err)
	}
	sched.Start()
	defer sched.Stop()

	// Pick up notifications left pending by the previous process.
	if err := sched.TriggerNow("outbox-sweep"); err != nil {
		logger.Warn("initial outbox sweep failed", "error", err)
	}

	uploadsDir := ""
	if cfg.StorageBackend == config.StorageLocal {
		uploadsDir = cfg.UploadsDir
	}

	var pinger handler.Pinger
	if p, ok := contentCache.(handler.Pinger); ok {
		pinger = p
	}
	health := handler.NewHealthHandler(db, pinger, uploadsDir, info)
	if s, ok := contentCache.(interface{ Stats() cache.Stats }); ok {
		health.WithCacheStats(s.Stats)
	}

	a := &app{
		cfg:         cfg,
		logger:      logger,
		db:          db,
		sessions:    sessionManager,
		limits:      limits,
		lockout:     lockout,
		apiLimiter:  apiLimiter,
		events:      events,
		sections:    sections,
		catalogue:   catalog,
		submissions: submissions,
		images:      service.NewImageService(db, objects, logger),
		audit:       service.NewAuditService(db),
		health:      health,
		uploadsDir:  uploadsDir,
	}

	srv := &http.Server{
		Addr:              cfg.ServerAddr(),
		Handler:           a.routes(),
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      60 * time.Second, // uploads on slow connections
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("starting server", "addr", cfg.ServerAddr(), "env", cfg.Env, "version", info.String())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		return fmt.Errorf("server error: %w", err)
	case <-quit:
	}

	slog.Info("shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	slog.Info("server stopped")
	return nil
}

func newMailSender(ctx context.Context, cfg *config.Config, awsConfig cloud.AWSConfig, logger *slog.Logger) (mail.Sender, error) {
	if cfg.MailProvider != config.MailSES {
		logger.Info("mail provider: log")
		return mail.NewLogSender(logger), nil
	}
	awsCfg, err := cloud.LoadAWS(ctx, awsConfig)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	logger.Info("mail provider: ses", "from", cfg.MailFrom, "region", awsCfg.Region)
	return mail.NewSESSender(awsCfg, cfg.MailFrom, logger), nil
}

package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/TenAI-dev/studio-hackathon-hub/internal/auth"
	"github.com/TenAI-dev/studio-hackathon-hub/internal/catalog"
	"github.com/TenAI-dev/studio-hackathon-hub/internal/config"
	"github.com/TenAI-dev/studio-hackathon-hub/internal/database"
	"github.com/TenAI-dev/studio-hackathon-hub/internal/events"
	"github.com/TenAI-dev/studio-hackathon-hub/internal/handler/health"
	"github.com/TenAI-dev/studio-hackathon-hub/internal/identity/otp"
	"github.com/TenAI-dev/studio-hackathon-hub/internal/mailer"
	"github.com/TenAI-dev/studio-hackathon-hub/internal/migrations"
	"github.com/TenAI-dev/studio-hackathon-hub/internal/server"
	"github.com/TenAI-dev/studio-hackathon-hub/internal/slots"
	"github.com/TenAI-dev/studio-hackathon-hub/internal/wizard"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, stdout io.Writer) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := slog.New(slog.NewJSONHandler(stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	checks := map[string]health.Checker{}

	// --- SQLite ---
	db, err := database.Open(ctx, cfg.DBPath)
	if err != nil {
		return fmt.Errorf("connecting to sqlite: %w", err)
	}
	defer db.Close()

	if err := migrations.Run(db); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}
	logger.Info("connected to sqlite", "path", cfg.DBPath)
	checks["sqlite"] = health.CheckerFunc(db.PingContext)

	hackathons := catalog.NewStore(db)
	if err := catalog.Seed(ctx, hackathons, logger); err != nil {
		return fmt.Errorf("seeding catalog: %w", err)
	}

	// --- Redis (optional) ---
	var sessions otp.SessionStore = otp.NewMemorySessions()
	if cfg.RedisURL != "" {
		rdb, err := openRedis(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer rdb.Close()
		sessions = otp.NewRedisSessions(rdb)
		checks["redis"] = health.CheckerFunc(func(ctx context.Context) error { return rdb.Ping(ctx).Err() })
		logger.Info("connected to redis")
	} else {
		logger.Warn("REDIS_URL not set, keeping provider sessions in memory")
	}

	// --- NATS (optional) ---
	var pub events.Publisher
	if cfg.NATSURL != "" {
		nc, err := events.NewNATS(cfg.NATSURL, logger)
		if err != nil {
			return fmt.Errorf("connecting to nats: %w", err)
		}
		pub = nc
		checks["nats"] = health.CheckerFunc(nc.Ping)
		logger.Info("connected to nats")
	} else {
		pub = events.NewLog(logger)
	}
	defer pub.Close()

	// --- Identity ---
	mail := mailer.New(cfg.Mail, logger)
	provider := otp.New(db, cfg.Auth, mail, sessions, pub, logger)
	if cfg.Auth.DevMode {
		logger.Warn("auth dev mode enabled, any well-formed code signs in anonymously")
	}

	// --- HTTP Server ---
	srv := server.New(server.Options{
		Addr:         cfg.HTTPAddr,
		SPADir:       cfg.SPADir,
		CORSOrigins:  cfg.CORSOrigins,
		CookieSecure: cfg.CookieSecure,
	}, server.Deps{
		Slots:     slots.NewSQLiteStore(db),
		Identity:  provider,
		Catalog:   hackathons,
		Submitter: wizard.NewEventSubmitter(pub),
		Auth: auth.Config{
			DevMode:    cfg.Auth.DevMode,
			DevCode:    cfg.Auth.DevFakeOTP,
			CodeLength: cfg.Auth.CodeLength,
		},
		Wizard: wizard.Config{
			StageDelay:  cfg.Stage.StageDelay,
			SubmitDelay: cfg.Stage.SubmitDelay,
		},
	}, logger, func(r chi.Router) {
		r.Mount("/healthz", health.NewHandler(logger, checks).Routes())
	})

	// --- Run ---
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting http server", "addr", cfg.HTTPAddr)
		return srv.Run(gctx)
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down http server")
		return srv.Shutdown(context.Background())
	})

	return g.Wait()
}

func openRedis(ctx context.Context, rawURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("pinging redis: %w", err)
	}
	return rdb, nil
}

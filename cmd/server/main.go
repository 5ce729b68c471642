package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/redis/go-redis/v9"

	"github.com/matthewbaird/waypoint/internal/activity"
	"github.com/matthewbaird/waypoint/internal/auth"
	"github.com/matthewbaird/waypoint/internal/conditions"
	"github.com/matthewbaird/waypoint/internal/config"
	"github.com/matthewbaird/waypoint/internal/eventbus"
	"github.com/matthewbaird/waypoint/internal/metrics"
	"github.com/matthewbaird/waypoint/internal/places"
	"github.com/matthewbaird/waypoint/internal/policy"
	"github.com/matthewbaird/waypoint/internal/server"
	"github.com/matthewbaird/waypoint/internal/service"
	"github.com/matthewbaird/waypoint/internal/store"
	"github.com/matthewbaird/waypoint/internal/stream"
)

func main() {
	configPath := flag.String("config", os.Getenv("CONFIG_FILE"), "path to a YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath, os.Getenv)
	if err != nil {
		slog.Error("loading config", "error", err)
		os.Exit(1)
	}
	logger := config.NewLogger(cfg.Log, os.Stderr)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, logger *slog.Logger) error {
	st, err := store.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.Migrate(ctx); err != nil {
		return err
	}
	timeline := activity.NewSQLStore(st.Driver())
	if err := timeline.Migrate(ctx); err != nil {
		return err
	}
	logger.Info("database migrated successfully", "postgres", cfg.IsPostgres())

	thresholds := policy.Default()
	if cfg.PolicyFile != "" {
		if thresholds, err = policy.LoadFile(cfg.PolicyFile); err != nil {
			return err
		}
	}

	m := metrics.New()
	hub := stream.NewHub(m, logger, cfg.StreamOrigins...)

	bus := eventbus.New(cfg.EventBuffer, logger)
	bus.Subscribe("log", eventbus.NewLogConsumer(logger))
	bus.Subscribe("metrics", eventbus.NewMetricsConsumer(m))
	bus.Subscribe("stream", hub)
	bus.Subscribe("activity", activity.NewIndexer(timeline))
	bus.Start(ctx)
	defer bus.Stop()

	resolver := places.NewFacilityResolver(st)
	if cfg.Lookup.FacilityRadiusMiles > 0 {
		resolver.RadiusMiles = cfg.Lookup.FacilityRadiusMiles
	}

	opts := []service.Option{
		service.WithPlaces(resolver),
		service.WithThresholds(thresholds),
		service.WithPublisher(bus),
		service.WithMetrics(m),
		service.WithLogger(logger),
		service.WithTimeouts(cfg.Lookup.PlaceTimeout, cfg.Lookup.AlertTimeout),
	}
	if feed, closeFeed, err := newFeed(ctx, cfg, logger); err != nil {
		return err
	} else if feed != nil {
		defer closeFeed()
		opts = append(opts, service.WithFeed(feed))
	}

	var validator *auth.Validator
	if cfg.Auth.JWTSecret != "" {
		validator = auth.NewValidator([]byte(cfg.Auth.JWTSecret), cfg.Auth.JWTIssuer)
	}
	if cfg.Auth.DevActorHeader != "" {
		logger.Warn("development actor header enabled", "header", cfg.Auth.DevActorHeader)
	}

	return server.Run(ctx, server.Config{
		Port:           cfg.Port,
		Service:        service.New(st, opts...),
		Metrics:        m,
		Stream:         hub,
		Activity:       timeline,
		Validator:      validator,
		DevActorHeader: cfg.Auth.DevActorHeader,
	})
}

// newFeed builds the NWS alert feed, fronted by Redis when REDIS_URL is set.
// A nil feed means overlays are disabled.
func newFeed(ctx context.Context, cfg config.Config, logger *slog.Logger) (conditions.Feed, func(), error) {
	if !cfg.NWS.Enabled {
		logger.Info("conditions feed disabled")
		return nil, func() {}, nil
	}
	var feed conditions.Feed = conditions.NewNWSClient(
		conditions.WithBaseURL(cfg.NWS.BaseURL),
		conditions.WithUserAgent(cfg.NWS.UserAgent),
		conditions.WithRateLimit(cfg.NWS.RatePerSecond, cfg.NWS.Burst),
		conditions.WithLogger(logger),
	)
	if cfg.RedisURL == "" {
		return feed, func() {}, nil
	}

	ropts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	client := redis.NewClient(ropts)
	if err := client.Ping(ctx).Err(); err != nil {
		// Cache errors fall through to the upstream feed.
		logger.Warn("redis unavailable, alert cache will miss", "error", err)
	}
	feed = conditions.NewRedisCache(feed, client,
		conditions.WithCacheTTL(cfg.NWS.CacheTTL),
		conditions.WithCacheLogger(logger),
	)
	return feed, func() { client.Close() }, nil
}

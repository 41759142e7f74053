package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/playperu/whereonearth/internal/config"
	"github.com/playperu/whereonearth/internal/database"
	"github.com/playperu/whereonearth/internal/game"
	"github.com/playperu/whereonearth/internal/geocode"
	"github.com/playperu/whereonearth/internal/handler/health"
	"github.com/playperu/whereonearth/internal/imagery"
	"github.com/playperu/whereonearth/internal/migrations"
	"github.com/playperu/whereonearth/internal/server"
	"github.com/playperu/whereonearth/internal/whereonearth"
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

	// --- Redis ---
	var (
		rdb         *redis.Client
		redisCheck  health.Checker = health.Disabled
		redisAnnctr *server.RedisAnnouncer
	)
	if cfg.RedisURL != "" {
		rdb, err = openRedis(ctx, cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		defer rdb.Close()
		redisCheck = redisChecker{rdb}
		redisAnnctr = server.NewRedisAnnouncer(rdb, cfg.RedisChannel)
		logger.Info("connected to redis", "channel", cfg.RedisChannel)
	} else {
		logger.Info("redis disabled, announcements stay in process")
	}

	// --- Providers ---
	httpClient := &http.Client{Timeout: 15 * time.Second}

	geocoder := geocode.NewCache(geocode.NewBing(cfg.BingMapsURL, cfg.BingMapsKey, httpClient), cfg.GeocodeCacheSize)
	if cfg.BingMapsKey == "" {
		logger.Warn("BING_MAPS_KEY is not set, geocoding will fail")
	}

	images := map[whereonearth.ImageSource]game.ImageProvider{
		whereonearth.SourcePrimary: imagery.NewBingArchive(cfg.BingImageURL, httpClient),
	}
	if cfg.CatalogPath != "" {
		catalog, err := imagery.LoadCatalog(cfg.CatalogPath)
		if err != nil {
			return fmt.Errorf("loading image catalog: %w", err)
		}
		images[whereonearth.SourceSecondary] = catalog
		logger.Info("loaded image catalog", "path", cfg.CatalogPath)
	}

	// --- Game ---
	store := server.NewStore(db)
	broker := server.NewBroker()
	svc := game.NewService(logger, store, geocoder, store,
		server.NewAnnouncer(logger, broker, redisAnnctr), images,
		game.Options{
			GeocodeTimeout:  cfg.GeocodeTimeout,
			MaxWriteRetries: cfg.MaxWriteRetries,
		},
	)
	if cfg.OperatorKeyHash == "" {
		logger.Warn("OPERATOR_KEY_HASH is not set, operator routes are open")
	}

	// --- HTTP Server ---
	srv := server.New(cfg.HTTPAddr, logger, func(r chi.Router) {
		r.Mount("/healthz", health.NewHandler(logger, map[string]health.Checker{
			"sqlite": dbChecker{db},
			"redis":  redisCheck,
		}).Routes())
		server.AddRoutes(r, logger, server.Deps{
			Service:         svc,
			Store:           store,
			Broker:          broker,
			OperatorKeyHash: cfg.OperatorKeyHash,
		})
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

	if redisAnnctr != nil {
		g.Go(func() error {
			return redisAnnctr.Relay(gctx, logger, broker)
		})
	}

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

// dbChecker adapts *sql.DB to health.Checker.
type dbChecker struct{ db *sql.DB }

func (d dbChecker) Check(ctx context.Context) error { return d.db.PingContext(ctx) }

// redisChecker adapts *redis.Client to health.Checker.
type redisChecker struct{ client *redis.Client }

func (r redisChecker) Check(ctx context.Context) error { return r.client.Ping(ctx).Err() }

package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v3"

	"github.com/devilqueenlove/BookMyWebs/internal/classifier"
	"github.com/devilqueenlove/BookMyWebs/internal/config"
	"github.com/devilqueenlove/BookMyWebs/internal/db"
	"github.com/devilqueenlove/BookMyWebs/internal/handler"
	"github.com/devilqueenlove/BookMyWebs/internal/metadata"
	"github.com/devilqueenlove/BookMyWebs/internal/middleware"
	"github.com/devilqueenlove/BookMyWebs/internal/repository"
	"github.com/devilqueenlove/BookMyWebs/internal/router"
	"github.com/devilqueenlove/BookMyWebs/internal/service"
	"github.com/devilqueenlove/BookMyWebs/pkg/httputil"
)

// breakerCooldown is how long an upstream stays skipped after its breaker opens.
const breakerCooldown = 30 * time.Second

func main() {
	cfg := config.Load()
	middleware.InitLogger(cfg.LogLevel, "bookmywebs-api")
	log := middleware.Logger

	table, err := classifier.LoadTable(cfg.CategoryTablePath)
	if err != nil {
		log.Fatal().Err(err).Str("path", cfg.CategoryTablePath).Msg("failed to load category table")
	}
	cls := classifier.New(table)
	log.Info().Int("categories", table.Len()).Msg("category table loaded")

	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	if err := db.EnsureSchema(ctx, pool); err != nil {
		log.Fatal().Err(err).Msg("failed to apply schema")
	}

	cache := service.NewCacheService(cfg.RedisURL, cfg.MetadataCacheTTL, log)
	defer cache.Close()

	handler.InitMetrics(pool)

	// User supplied URLs go through a client that refuses loopback and
	// private addresses; the configured service and proxy are trusted.
	if cfg.AllowPrivateFetch {
		log.Warn().Msg("private address fetching enabled")
	}
	pageClient := httputil.NewOutboundClient(httputil.ClientConfig{
		Timeout:             2 * cfg.MetadataTimeout,
		DialTimeout:         cfg.MetadataTimeout,
		MaxIdleConnsPerHost: 4,
		AllowPrivate:        cfg.AllowPrivateFetch,
	})
	upstreamClient := &http.Client{Timeout: 2 * cfg.MetadataTimeout}

	strategies := metadata.Chain(cfg.MetadataServiceURL, cfg.MetadataProxyURL, pageClient, upstreamClient)
	for i, s := range strategies {
		strategies[i] = metadata.WithBreaker(s, breakerCooldown, log)
	}
	fetcher := metadata.NewFetcher(strategies,
		metadata.WithCache(cache),
		metadata.WithObserver(handler.MetadataObserver()),
		metadata.WithTimeout(cfg.MetadataTimeout),
		metadata.WithLogger(log.With().Str("component", "metadata").Logger()),
	)

	linkClient := httputil.NewOutboundClient(httputil.ClientConfig{
		Timeout:             cfg.LinkCheckTimeout,
		DialTimeout:         cfg.LinkCheckTimeout,
		MaxIdleConnsPerHost: 2,
		AllowPrivate:        cfg.AllowPrivateFetch,
	})

	// Repositories
	bookmarkRepo := repository.NewBookmarkRepo(pool)
	categoryRepo := repository.NewCategoryRepo(pool)

	// Services
	categorySvc := service.NewCategoryService(categoryRepo, log)
	ingestSvc := service.NewIngestService(cls, fetcher, bookmarkRepo, categorySvc, log)
	bookmarkSvc := service.NewBookmarkService(bookmarkRepo, categorySvc, log)
	categorizeSvc := service.NewCategorizeService(cls, bookmarkRepo, categorySvc, cfg.CategorizeWorkers, log)
	transferSvc := service.NewTransferService(cls, bookmarkRepo, categorySvc, log)
	linkSvc := service.NewLinkHealthService(linkClient, cfg.LinkCheckWorkers, cfg.LinkCheckTimeout, log)
	syncSvc := service.NewSyncService(bookmarkRepo, categorySvc)
	statsSvc := service.NewStatsService(bookmarkRepo, categorySvc)

	app := fiber.New(fiber.Config{
		AppName:      "BookMyWebs API",
		ServerHeader: "BookMyWebs",
		BodyLimit:    handler.MaxImportSize + 1<<20,
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
	})

	router.Setup(app, &router.Handlers{
		Health:     handler.NewHealthHandler(pool, cache.Client(), table),
		Bookmark:   handler.NewBookmarkHandler(ingestSvc, bookmarkSvc, categorizeSvc),
		Category:   handler.NewCategoryHandler(categorySvc, table),
		Classify:   handler.NewClassifyHandler(cls, ingestSvc),
		Metadata:   handler.NewMetadataHandler(fetcher, cache),
		Transfer:   handler.NewTransferHandler(transferSvc),
		LinkHealth: handler.NewLinkHealthHandler(linkSvc),
		Sync:       handler.NewSyncHandler(syncSvc),
		Stats:      handler.NewStatsHandler(statsSvc),
	}, cfg.CORSOrigins)

	// Background workers
	workerCtx, stopWorkers := context.WithCancel(ctx)
	defer stopWorkers()
	purgeWorker := service.NewPurgeWorker(bookmarkRepo, cfg.PurgeInterval, cfg.TombstoneRetention, log)
	go purgeWorker.Start(workerCtx)

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
		<-sig

		log.Info().Dur("timeout", cfg.ShutdownTimeout).Msg("shutting down")
		stopWorkers()
		if err := app.ShutdownWithTimeout(cfg.ShutdownTimeout); err != nil {
			log.Error().Err(err).Msg("shutdown failed")
		}
	}()

	log.Info().Str("port", cfg.Port).Str("env", cfg.Environment).Msg("BookMyWebs backend starting")
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

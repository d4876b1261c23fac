package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"propertyinsight/server/config"
	"propertyinsight/server/internal/api"
	"propertyinsight/server/internal/cache"
	"propertyinsight/server/internal/database"
	"propertyinsight/server/internal/geocoding"
	"propertyinsight/server/internal/httpclient"
	"propertyinsight/server/internal/listings"
	"propertyinsight/server/internal/processor"
	"propertyinsight/server/internal/queue"
	"propertyinsight/server/internal/scheduler"
)

func main() {
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logger.SetOutput(os.Stdout)

	cfg, err := config.LoadConfig()
	if err != nil {
		logger.WithError(err).Fatal("Failed to load configuration")
	}
	if level, err := logrus.ParseLevel(cfg.Server.LogLevel); err == nil {
		logger.SetLevel(level)
	} else {
		logger.WithField("level", cfg.Server.LogLevel).Warn("Unknown log level, using info")
	}

	logger.Infof("Using database at: %s", cfg.Database.Path)
	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		logger.WithError(err).Fatal("Failed to initialize database")
	}
	defer db.Close()

	logger.Info("Running database migrations...")
	if err := db.RunMigrations(); err != nil {
		logger.WithError(err).Fatal("Failed to run database migrations")
	}

	store := newCache(cfg, logger)
	rc := httpclient.New(logger, httpclient.Options{
		Timeout:      cfg.Listings.Timeout,
		RetryMax:     cfg.Listings.RetryMax,
		RetryWaitMin: cfg.Listings.RetryWaitMin,
		RetryWaitMax: cfg.Listings.RetryWaitMax,
	})

	handler := api.NewHandler(db, cfg.FinanceModel(), logger)

	var geocoder database.Geocoder
	if cfg.Geocoding.Enabled {
		geocoder = geocoding.NewGeocoder(logger, store, rc, geocoding.Options{
			BaseURL:           cfg.Geocoding.BaseURL,
			UserAgent:         cfg.Geocoding.UserAgent,
			Country:           cfg.Geocoding.Country,
			CacheTTL:          cfg.Cache.TTL,
			RequestsPerSecond: 1,
		})
		handler.SetGeocoder(geocoder)
	} else if missing, err := db.PropertiesMissingCoordinates(context.Background()); err == nil && len(missing) > 0 {
		logger.WithField("count", len(missing)).Warn("Geocoding disabled, some listings have no coordinates")
	}

	listingQueue := queue.NewListingQueue(cfg.BatchProcessing.QueueSize, logger)
	batchProcessor := processor.NewBatchProcessor(db.GetDB(), listingQueue, cfg, logger)
	batchProcessor.Start()
	listingQueue.Start(context.Background())

	var sched *scheduler.Scheduler
	if cfg.ListingsEnabled() {
		client := listings.NewClient(logger, rc, listings.Options{
			BaseURL:  cfg.Listings.BaseURL,
			APIKey:   cfg.Listings.APIKey,
			State:    cfg.Listings.State,
			PageSize: cfg.Listings.PageSize,
		})
		suburbs := cfg.Listings.Suburbs
		if len(suburbs) == 0 {
			suburbs = config.GetSuburbNames()
		}
		sched = scheduler.NewScheduler(client, listingQueue, db, geocoder, logger, suburbs, cfg.Listings.RefreshInterval)
		handler.SetRefresher(sched)
		sched.Start()
	} else {
		logger.Info("Listing API key not set, serving seeded listings only")
		if geocoder != nil {
			go func() {
				stats, err := db.UpdateMissingCoordinates(context.Background(), geocoder)
				if err != nil {
					logger.WithError(err).Error("Failed to update coordinates")
					return
				}
				logger.WithFields(logrus.Fields{
					"total":   stats.Total,
					"updated": stats.Updated,
					"failed":  stats.Failed,
				}).Info("Initial geocoding finished")
			}()
		}
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           api.NewRouter(handler, cfg.Server.AllowedOrigins, logger),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Infof("Starting server on port %s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	if sched != nil {
		sched.Stop()
	}
	if err := listingQueue.Close(); err != nil {
		logger.WithError(err).Error("Failed to drain listing queue")
	}
	batchProcessor.Stop()

	stats := batchProcessor.Stats()
	logger.WithFields(logrus.Fields{
		"batches":  stats.Batches,
		"stored":   stats.Stored,
		"rejected": stats.Rejected,
		"failed":   stats.Failed,
	}).Info("Server stopped")
}

func newCache(cfg *config.Config, logger *logrus.Logger) cache.Store {
	if cfg.Cache.RedisAddr == "" {
		return cache.NewMemory()
	}

	r := cache.NewRedis(cfg.Cache.RedisAddr, cfg.Cache.RedisPassword, cfg.Cache.RedisDB, "propertyinsight:")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := r.Ping(ctx); err != nil {
		logger.WithError(err).Warn("Redis unavailable, falling back to in-memory cache")
		_ = r.Close()
		return cache.NewMemory()
	}
	logger.WithField("addr", cfg.Cache.RedisAddr).Info("Using redis cache")
	return r
}

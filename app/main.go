package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lysyi3m/rss-sheet/app/api"
	"github.com/lysyi3m/rss-sheet/app/cache"
	"github.com/lysyi3m/rss-sheet/app/cfg"
	"github.com/lysyi3m/rss-sheet/app/database"
	"github.com/lysyi3m/rss-sheet/app/feed"
	"github.com/lysyi3m/rss-sheet/app/geocode"
	"github.com/lysyi3m/rss-sheet/app/notify"
	"github.com/lysyi3m/rss-sheet/app/places"
	"github.com/lysyi3m/rss-sheet/app/tasks"
)

func main() {
	appCfg, err := cfg.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	if appCfg == nil {
		// Help was shown
		return
	}

	level := slog.LevelInfo
	if appCfg.Debug {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level})))

	if err := run(appCfg); err != nil {
		slog.Error("Fatal error", "error", err)
		os.Exit(1)
	}
}

func run(appCfg *cfg.Cfg) error {
	slog.Info("Starting RSS Sheet", "version", appCfg.Version)

	db, err := database.NewConnection(appCfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()
	slog.Info("Connected to database", "path", appCfg.DBPath)

	sheetRepo := database.NewSheetRepository(db)

	sources, err := feed.LoadSources(appCfg.SourcesFile)
	if err != nil {
		return fmt.Errorf("failed to load sources: %w", err)
	}
	slog.Info("Loaded feed sources", "count", len(sources), "file", appCfg.SourcesFile)

	httpClient := &http.Client{}
	aggregator := feed.NewAggregator(
		sources,
		feed.NewFetcher(httpClient, appCfg.UserAgent, appCfg.FetchTimeout),
		feed.NewParser(nil),
		feed.NewContentExtractor(),
		sheetRepo,
		appCfg.SheetTab,
	)

	if appCfg.DigestEnabled() {
		mailer, err := notify.NewSMTPMailer(appCfg.SMTPHost, appCfg.SMTPPort, appCfg.SMTPUser, appCfg.SMTPPassword, appCfg.MailFrom)
		if err != nil {
			return fmt.Errorf("failed to configure mailer: %w", err)
		}
		aggregator.SetNotifier(notify.NewDigestNotifier(mailer, appCfg.DigestTo, appCfg.DigestLimit))
		slog.Info("Digest mail enabled", "to", appCfg.DigestTo, "limit", appCfg.DigestLimit)
	}

	if appCfg.RunOnce {
		return runOnce(aggregator, appCfg.RunTimeout)
	}

	var geocoder api.GeocoderInterface
	var placesClient api.PlacesInterface
	if appCfg.MapsAPIKey != "" {
		lookupCache, closeCache := newCache(appCfg.RedisAddr)
		defer closeCache()
		geocoder = geocode.NewClient(httpClient, geocode.DefaultBaseURL, appCfg.MapsAPIKey, lookupCache, appCfg.CacheTTL)
		placesClient = places.NewClient(httpClient, places.DefaultBaseURL, appCfg.MapsAPIKey, appCfg.PlacesBias, lookupCache, appCfg.CacheTTL)
		slog.Info("Geocoding and places lookups enabled", "places_bias", appCfg.PlacesBias)
	}

	scheduler := tasks.NewScheduler(aggregator,
		time.Duration(appCfg.SchedulerInterval)*time.Second, appCfg.RunTimeout, appCfg.RunOnStart)
	scheduler.Start()
	defer scheduler.Stop()

	handler := api.NewHandler(aggregator, sheetRepo, geocoder, placesClient, appCfg.SheetTab, len(sources), appCfg.RunTimeout, appCfg.Version)
	server := api.NewServer(handler, appCfg.APIAccessKey)

	// WriteTimeout leaves room for a synchronous aggregation run
	httpServer := &http.Server{
		Addr:         ":" + appCfg.Port,
		Handler:      server,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: appCfg.RunTimeout + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	serverErrChan := make(chan error, 1)
	go func() {
		slog.Info("Starting HTTP server", "port", appCfg.Port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			serverErrChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		slog.Info("Received signal", "signal", sig)
	case err := <-serverErrChan:
		slog.Error("Server error", "error", err)
	}

	slog.Info("Shutting down server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		slog.Error("HTTP server shutdown error", "error", err)
	} else {
		slog.Info("HTTP server stopped")
	}

	return nil
}

func runOnce(aggregator *feed.Aggregator, timeout time.Duration) error {
	ctx := context.Background()
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	result, err := aggregator.Run(ctx)
	if err != nil {
		return fmt.Errorf("aggregation failed: %w", err)
	}

	slog.Info("Aggregation finished",
		"sources", result.Sources,
		"failed_sources", result.FailedSources,
		"items", result.Items,
		"rows_written", result.RowsWritten)

	return nil
}

// newCache falls back to the in-process cache when Redis is not configured or unreachable.
func newCache(addr string) (cache.Cache, func()) {
	if addr == "" {
		return cache.NewMemory(), func() {}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	redisCache, err := cache.NewRedis(ctx, addr)
	if err != nil {
		slog.Warn("Redis unavailable, using in-memory cache", "addr", addr, "error", err)
		return cache.NewMemory(), func() {}
	}

	return redisCache, func() {
		if err := redisCache.Close(); err != nil {
			slog.Warn("Failed to close Redis", "error", err)
		}
	}
}

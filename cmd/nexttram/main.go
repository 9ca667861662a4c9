package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/joho/godotenv"

	"nexttram.org/internal/app"
	"nexttram.org/internal/catalog"
	"nexttram.org/internal/config"
	"nexttram.org/internal/persistence"
	"nexttram.org/internal/preferences"
	"nexttram.org/internal/report"
	"nexttram.org/internal/schedule"
)

const version = "1.0.0"

const shutdownTimeout = 15 * time.Second

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		fmt.Println("Warning: failed to load .env file:", err)
	}

	var (
		port       = flag.Int("port", 0, "API server port (overrides server.port)")
		env        = flag.String("env", "", "Environment (development|staging|production), overrides server.env")
		configFile = flag.String("config-file", "", "Path to a local YAML configuration file")
		configURL  = flag.String("config-url", "", "URL to a remote YAML configuration file")
	)
	flag.Parse()

	if err := config.ValidateConfigFlags(configFile, configURL); err != nil {
		fmt.Println("Error:", err)
		flag.Usage()
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := app.NewPooledClient(30 * time.Second)

	cfg, err := loadConfig(ctx, client, *configFile, *configURL)
	if err != nil {
		fmt.Printf("Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}
	if *env != "" {
		cfg.Server.Env = *env
	}

	if err := report.SetupSentry(os.Getenv("SENTRY_DSN"), cfg.Server.Env, version); err != nil {
		logger.Warn("Sentry disabled", "error", err)
	}
	defer report.FlushSentry()
	report.ConfigureScope(cfg.Server.Env, version, cfg.Schedule.Provider)

	if err := run(ctx, cfg, client, logger); err != nil {
		report.ReportError(err, sentry.LevelFatal)
		report.FlushSentry()
		logger.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}

func loadConfig(ctx context.Context, client *http.Client, configFile, configURL string) (*config.Config, error) {
	if configFile != "" {
		return config.LoadConfigFromFile(configFile)
	}
	return config.LoadConfigFromURL(ctx, client, configURL,
		os.Getenv("CONFIG_AUTH_USER"), os.Getenv("CONFIG_AUTH_PASS"), 3)
}

func loadCatalog(ctx context.Context, cfg *config.Config, client *http.Client, logger *slog.Logger) (*catalog.Catalog, error) {
	if cfg.Catalog.NetworkCSV != "" {
		return catalog.LoadNetworkFile(cfg.Catalog.NetworkCSV)
	}
	return catalog.LoadGTFS(ctx, client, cfg.Catalog.GTFSURL, cfg.Catalog.GTFS, cfg.Schedule.MaxRetries, logger)
}

func run(ctx context.Context, cfg *config.Config, client *http.Client, logger *slog.Logger) error {
	cat, err := loadCatalog(ctx, cfg, client, logger)
	if err != nil {
		return fmt.Errorf("load stop catalog: %w", err)
	}
	logger.Info("Stop catalog loaded", "stops", cat.Len())

	gateway, err := schedule.NewFromConfig(cfg.Schedule, client, logger)
	if err != nil {
		return err
	}

	sink, err := persistence.NewSinkFromConfig(ctx, cfg.Persistence)
	if err != nil {
		return fmt.Errorf("open preference storage: %w", err)
	}
	defer sink.Close()

	store := preferences.NewMemoryStore()
	syncer := persistence.NewSyncer(store, sink, cfg.Persistence.Interval, cfg.Persistence.MaxBytes, logger)
	if err := syncer.Restore(ctx); err != nil {
		return fmt.Errorf("restore preferences: %w", err)
	}

	syncCtx, stopSync := context.WithCancel(context.Background())
	syncDone := make(chan struct{})
	go func() {
		defer close(syncDone)
		syncer.Run(syncCtx)
	}()
	defer func() {
		stopSync()
		<-syncDone
	}()

	application := app.New(cfg, cat, gateway, store, logger, version)

	routesCtx, stopRoutes := context.WithCancel(context.Background())
	defer stopRoutes()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      application.Routes(routesCtx),
		IdleTimeout:  time.Minute,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: cfg.Schedule.Timeout + 5*time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("Starting server", "addr", srv.Addr, "env", cfg.Server.Env, "provider", cfg.Schedule.Provider)
		serveErr <- srv.ListenAndServe()
	}()

	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}

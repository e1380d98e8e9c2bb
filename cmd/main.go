package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/UnknownOlympus/addressbook/internal/alert"
	"github.com/UnknownOlympus/addressbook/internal/backfill"
	"github.com/UnknownOlympus/addressbook/internal/config"
	"github.com/UnknownOlympus/addressbook/internal/geocoding"
	"github.com/UnknownOlympus/addressbook/internal/metrics"
	"github.com/UnknownOlympus/addressbook/internal/models"
	"github.com/UnknownOlympus/addressbook/internal/repository"
	"github.com/UnknownOlympus/addressbook/internal/screen"
	"github.com/UnknownOlympus/addressbook/internal/session"
	"github.com/UnknownOlympus/addressbook/internal/store"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Constants for different environment types.
const (
	envLocal = "local"
	envDev   = "development"
	envProd  = "production"
)

// localOwner scopes Postgres rows when nobody is signed in.
const localOwner = "local"

// main is the entry point of the application.
func main() {
	// Create a context that will be canceled when an interrupt signal is received.
	// This allows for graceful shutdown.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load application configuration.
	cfg := config.MustLoad()

	// Set up the logger based on the environment.
	logger := setupLogger(cfg.Env)

	// Create a separate registry for metrics with exemplar
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	appMetrics := metrics.NewMetrics(reg)

	sess, err := session.Load(cfg.SessionFile)
	if err != nil {
		log.Fatalf("Failed to load session: %v", err)
	}

	repo, closeRepo, err := newRepository(ctx, cfg, sess, logger, appMetrics)
	if err != nil {
		log.Fatalf("Failed to initialize address storage: %v", err)
	}
	defer closeRepo()

	geoProvider, providerName := newGeocoder(cfg, logger)

	location, err := screen.ParseLocation(cfg.Location)
	if err != nil {
		log.Fatalf("Failed to parse device location: %v", err)
	}

	notifier := alert.NewConsole(os.Stdin, os.Stdout, logger)
	addressStore := store.New(repo, notifier, logger, appMetrics)
	addressScreen := screen.New(
		addressStore,
		geoProvider,
		screen.NewStaticLocator(location),
		notifier,
		logger,
		screen.Options{DefaultCountry: cfg.DefaultCountry, LocateTimeout: cfg.LocateTimeout},
	)

	coordsBackfill := backfill.NewService(
		logger,
		addressStore,
		geoProvider,
		providerName, // Provider name for metrics
		appMetrics,
		cfg.Workers,
		cfg.Interval,
		cfg.AddrPrefix,
	)

	logger.InfoContext(ctx, "Application started.", "storage", cfg.Storage, "signed_in", sess.Active())

	// Start the monitoring server in a goroutine to allow main to listen for signals.
	go startMonitoringServer(ctx, logger, reg, repo, cfg.Port)

	addressScreen.Load(ctx)
	go coordsBackfill.Run(ctx)

	cons := &console{
		screen:      addressScreen,
		in:          notifier,
		out:         os.Stdout,
		log:         logger,
		sessionFile: cfg.SessionFile,
	}
	go func() {
		if errRun := cons.run(ctx); errRun != nil {
			logger.ErrorContext(ctx, "Console stopped", "error", errRun)
		}
		stop()
	}()

	// Wait for the context to be canceled (e.g., by Ctrl+C or quit).
	<-ctx.Done()

	logger.InfoContext(ctx, "Application stopped gracefully.")
}

// newRepository selects the address storage. In auto mode a signed-in user
// talks to the backend and everybody else keeps addresses in memory.
func newRepository(
	ctx context.Context,
	cfg *config.Config,
	sess session.Session,
	log *slog.Logger,
	appMetrics *metrics.Metrics,
) (repository.Interface, func(), error) {
	noop := func() {}

	mode := cfg.Storage
	if mode == config.StorageAuto {
		mode = config.StorageMemory
		if sess.Active() {
			mode = config.StorageRemote
		}
	}

	switch mode {
	case config.StorageRemote:
		if !sess.Active() {
			return nil, noop, errors.New("remote storage requires a signed-in session")
		}
		client := &http.Client{Timeout: cfg.RequestTimeout}
		return repository.NewRemote(
			client, cfg.APIURL, sess.Token, repository.DefaultBreakerConfig(), log, appMetrics.ObserveBreaker,
		), noop, nil

	case config.StoragePostgres:
		dtb, err := repository.NewDatabase(
			cfg.Database.Host, cfg.Database.Port, cfg.Database.User, cfg.Database.Password, cfg.Database.Name,
		)
		if err != nil {
			return nil, noop, fmt.Errorf("failed to connect to DB: %w", err)
		}

		owner := sess.UserID
		if owner == "" {
			owner = localOwner
		}
		repo := repository.NewPostgres(dtb, owner, log)
		if err = repo.EnsureSchema(ctx); err != nil {
			dtb.Close()
			return nil, noop, err
		}
		if err = repo.SeedIfEmpty(ctx, models.FallbackAddresses()); err != nil {
			dtb.Close()
			return nil, noop, err
		}
		return repo, dtb.Close, nil

	default:
		return repository.NewMemory(models.FallbackAddresses(), log), noop, nil
	}
}

// newGeocoder creates the configured geocoding provider. A provider that
// cannot be built (usually a missing API key) is replaced by Nominatim.
func newGeocoder(cfg *config.Config, log *slog.Logger) (geocoding.Provider, string) {
	providerConfig := geocoding.ProviderConfig{
		Type:      geocoding.ProviderType(cfg.ProviderType),
		APIKey:    cfg.APIKey,
		RateLimit: cfg.RateLimit,
		Logger:    log,
	}

	provider, err := geocoding.NewProvider(providerConfig)
	if err != nil {
		log.Warn("Failed to create geocoding provider, falling back to Nominatim",
			"type", cfg.ProviderType, "error", err)
		return geocoding.NewNominatimProvider(log), string(geocoding.ProviderTypeNominatim)
	}

	log.Info("Geocoding provider initialized", "type", cfg.ProviderType)
	return provider, cfg.ProviderType
}

// startMonitoringServer starts an HTTP server that provides health check and metrics endpoints.
// It listens on the specified port and logs the server's status and any errors encountered.
//
// Parameters:
// - ctx: A context.Context for managing cancellation and timeouts.
// - log: A logger for logging server events and errors.
// - reg: A registry with Prometheus collectors.
// - repo: The address storage; it is pinged when it supports it.
// - port: The port number on which the server will listen.
func startMonitoringServer(
	ctx context.Context,
	log *slog.Logger,
	reg *prometheus.Registry,
	repo repository.Interface,
	port int,
) {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(writer http.ResponseWriter, req *http.Request) {
		log.DebugContext(ctx, "Performing health checks...")
		status, body := http.StatusOK, "OK"
		if pinger, ok := repo.(repository.Pinger); ok {
			if err := pinger.Ping(req.Context()); err != nil {
				status, body = http.StatusServiceUnavailable, "DB ping failed"
			}
		}
		writer.WriteHeader(status)
		_, err := writer.Write([]byte(body))
		if err != nil {
			log.ErrorContext(ctx, "failed to write reply", "error", err)
		}

		log.DebugContext(ctx, "Health checks completed", "status", status)
	})
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	log.InfoContext(ctx, "Starting monitoring server", "port", port)
	readTimeout := 5
	writeTimeout := 10
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      mux,
		ReadTimeout:  time.Duration(readTimeout) * time.Second,
		WriteTimeout: time.Duration(writeTimeout) * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(readTimeout)*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("Monitoring server shutdown failed", "error", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.ErrorContext(ctx, "Monitoring server failed", "error", err)
	}
}

// setupLogger initializes and returns a logger based on the environment provided.
func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level:     slog.LevelDebug,
				AddSource: true,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					return a
				},
			}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
				Level:     slog.LevelInfo,
				AddSource: false,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					return a
				},
			}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
				Level:     slog.LevelWarn,
				AddSource: false,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					if a.Key == slog.TimeKey {
						return slog.Attr{}
					}
					return a
				},
			}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
				Level:     slog.LevelError,
				AddSource: false,
				ReplaceAttr: func(_ []string, a slog.Attr) slog.Attr {
					if a.Key == slog.TimeKey {
						return slog.Attr{}
					}
					return a
				},
			}),
		)

		log.Error(
			"The env parameter was not specified or was invalid. Logging will be minimal, by default.",
			slog.String("available_envs", "local, development, production"))
	}

	return log
}

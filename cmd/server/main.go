/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the payroll engine server.
  Handles configuration, dependency injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (.env, environment, flags)
  2. Build the structured logger
  3. Initialize SQLite store (migrations run here)
  4. Seed from a scenario file when the database is empty
  5. Create API handler and router
  6. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -port       HTTP server port (default: 8080, env PORT)
  -db         SQLite database path (default: payroll.db, env DB_PATH)
              Use ":memory:" for in-memory database
  -seed       YAML scenario file to load on first start (env SEED_FILE)
  -log-level  debug, info, warn or error (env LOG_LEVEL)

ENVIRONMENT:
  JWT_SECRET        Enables bearer-token authentication on /api/*
  JWT_EXPIRATION    Token lifetime (default: 168h)
  ALLOWED_ORIGINS   Comma-separated CORS origins
  SHUTDOWN_TIMEOUT  Graceful shutdown limit (default: 30s)
  APP_ENV           "production" requires JWT_SECRET

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop accepting new connections
  2. Wait for active requests to complete (SHUTDOWN_TIMEOUT)
  3. Close database connection
  4. Exit

EXAMPLES:
  # Run with file database
  ./server -db="./data/payroll.db"

  # Run in memory, preloaded with the reference week
  ./server -db=":memory:" -seed=api/scenarios/reference-week.yaml

SEE ALSO:
  - config/config.go: Configuration sources
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/httplog/v3"
	"github.com/warp/payroll-engine/api"
	"github.com/warp/payroll-engine/config"
	"github.com/warp/payroll-engine/store/sqlite"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Config
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	cfg.RegisterFlags(flag.CommandLine)
	flag.Parse()
	if err := cfg.Validate(); err != nil {
		return err
	}

	// Logger
	level, err := config.ParseLevel(cfg.App.LogLevel)
	if err != nil {
		return err
	}
	logFormat := httplog.SchemaECS.Concise(!cfg.IsProduction())
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       level,
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "payroll-engine"),
		slog.String("env", cfg.App.Env),
	)
	slog.SetDefault(logger)

	// Initialize store
	store, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	if cfg.DB.SeedFile != "" {
		if err := seed(context.Background(), store, cfg.DB.SeedFile, logger); err != nil {
			return err
		}
	}

	// Initialize handler
	handler := api.NewHandler(store, logger)
	if cfg.AuthEnabled() {
		handler.Auth = api.NewAuthenticator(cfg.JWT.Secret, cfg.JWT.Expiration)
	} else {
		logger.Warn("JWT_SECRET not set, authentication disabled")
	}

	// Create router
	router := api.NewRouter(handler, cfg.Server.AllowedOrigins)

	// Create server
	server := &http.Server{
		Addr:         cfg.Addr(),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting", "addr", server.Addr, "db", cfg.DB.Path)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return err
	case <-quit:
	}

	logger.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return err
	}

	logger.Info("server stopped")
	return nil
}

// seed loads the scenario at path, but only into an empty database.
func seed(ctx context.Context, store *sqlite.Store, path string, logger *slog.Logger) error {
	employees, err := store.ListEmployees(ctx)
	if err != nil {
		return err
	}
	if len(employees) > 0 {
		logger.Info("database not empty, skipping seed", "file", path)
		return nil
	}

	sc, err := api.LoadScenarioFile(path)
	if err != nil {
		return err
	}
	if err := api.ApplyScenario(ctx, store, sc); err != nil {
		return err
	}
	logger.Info("database seeded", "file", path, "scenario", sc.Name)
	return nil
}

package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/jjenkins/notion-digest/internal/handlers"
	"github.com/jjenkins/notion-digest/internal/service"
	"github.com/jjenkins/notion-digest/internal/store"
)

const shutdownTimeout = 10 * time.Second

var port string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the notion-digest web server",
	Long: `Start the HTTP API that aggregates the configured Notion databases,
manages config.json and serves a status page, Prometheus metrics and a
health check.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVarP(&port, "port", "p", "", "Port to run the server on (default $PORT or 3000)")
}

// serverDeps are the collaborators behind the HTTP routes
type serverDeps struct {
	Runner       handlers.AggregationRunner
	Settings     handlers.SettingsRepository
	SettingsPath string
	Browser      *handlers.NotionBrowser
	History      handlers.RunHistory
	Logger       *slog.Logger
}

// newServer builds the fiber app with every route registered
func newServer(deps serverDeps) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "notion-digest",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(fiberlogger.New(fiberlogger.Config{
		Format: "${time} ${locals:requestid} ${status} ${method} ${path} ${latency}\n",
	}))

	// Status page
	app.Get("/", handlers.HomeHandler(deps.Settings, deps.SettingsPath, deps.History, deps.Logger))
	app.Get("/health", handlers.HealthHandler())
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	api := app.Group("/api")

	// Aggregation routes
	api.Get("/aggregate/input-to-ai", handlers.AggregateGetHandler(deps.Runner))
	api.Post("/aggregate/input-to-ai", handlers.AggregatePostHandler(deps.Runner))

	// Settings routes
	api.Get("/config", handlers.ConfigGetHandler(deps.Settings))
	api.Post("/config", handlers.ConfigSaveHandler(deps.Settings))

	// Notion browsing routes
	api.Get("/notion/databases", deps.Browser.Databases())
	api.Get("/notion/data-sources", deps.Browser.DataSources())
	api.Get("/notion/data-sources/:dataSourceId", deps.Browser.DataSource())

	// History route
	api.Get("/history", handlers.HistoryHandler(deps.History))

	return app
}

func runServe(cmd *cobra.Command, args []string) error {
	if port == "" {
		port = cfg.Port
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runStore, closeDB, err := openRunStore(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	var (
		recorder service.RunRecorder
		history  handlers.RunHistory
	)
	if runStore != nil {
		recorder = runStore
		history = runStore
	} else {
		logger.Info("DATABASE_URL not set, run history disabled")
	}

	settings := store.NewSettingsStore(cfg.SettingsPath)
	newClient := newClientFactory()

	app := newServer(serverDeps{
		Runner:       service.NewRunner(settings, newClient, recorder, cfg.NotionToken, logger),
		Settings:     settings,
		SettingsPath: cfg.SettingsPath,
		Browser:      handlers.NewNotionBrowser(newClient, cfg.NotionToken, os.Environ),
		History:      history,
		Logger:       logger,
	})

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("starting server", "port", port, "settings_path", cfg.SettingsPath)
		if err := app.Listen(":" + port); err != nil {
			return fmt.Errorf("failed to start server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down server")
		return app.ShutdownWithTimeout(shutdownTimeout)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		return err
	}
	return nil
}

package handlers

import (
	"log/slog"

	"github.com/a-h/templ"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"

	"github.com/jjenkins/notion-digest/internal/templates"
)

const homeRecentRuns = 10

// HomeHandler renders the status page. history may be nil.
func HomeHandler(settings SettingsRepository, settingsPath string, history RunHistory, logger *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()

		view := templates.HomeView{
			SettingsPath:   settingsPath,
			HistoryEnabled: history != nil,
		}

		cfg, err := settings.Load(ctx)
		if err != nil {
			logger.Warn("failed to load settings for status page", "error", err)
			view.SettingsError = err.Error()
		} else {
			view.Sources = cfg.SourceDatabases
		}

		if history != nil {
			summary, err := history.Summary(ctx)
			if err != nil {
				logger.Error("failed to load run summary", "error", err)
				view.HistoryError = "Error loading run history"
			} else {
				view.Summary = summary
			}

			if view.HistoryError == "" {
				runs, err := history.Recent(ctx, homeRecentRuns)
				if err != nil {
					logger.Error("failed to load recent runs", "error", err)
					view.HistoryError = "Error loading run history"
				} else {
					view.Runs = runs
				}
			}
		}

		page := templates.Home(view)
		handler := adaptor.HTTPHandler(templ.Handler(page))

		return handler(c)
	}
}

package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jjenkins/notion-digest/internal/model"
)

// RunHistory reads recorded aggregation runs
type RunHistory interface {
	Recent(ctx context.Context, limit int) ([]model.AggregationRun, error)
	Summary(ctx context.Context) (*model.RunSummary, error)
}

type runView struct {
	ID                    string               `json:"id"`
	StartedAt             time.Time            `json:"started_at"`
	FinishedAt            time.Time            `json:"finished_at"`
	DurationMillis        int64                `json:"duration_ms"`
	Selection             *model.DateSelection `json:"runtime_date_selection"`
	LimitPerSource        int                  `json:"limit_per_source"`
	SourceCount           int                  `json:"source_count"`
	ItemCount             int                  `json:"item_count"`
	SkippedSubCollections int                  `json:"skipped_subcollections"`
	Status                model.RunStatus      `json:"status"`
	Error                 string               `json:"error,omitempty"`
}

func newRunView(r model.AggregationRun) runView {
	return runView{
		ID:                    r.ID,
		StartedAt:             r.StartedAt,
		FinishedAt:            r.FinishedAt,
		DurationMillis:        r.FinishedAt.Sub(r.StartedAt).Milliseconds(),
		Selection:             r.Selection(),
		LimitPerSource:        r.LimitPerSource,
		SourceCount:           r.SourceCount,
		ItemCount:             r.ItemCount,
		SkippedSubCollections: r.SkippedSubCollections,
		Status:                r.Status,
		Error:                 r.Error.String,
	}
}

// HistoryHandler lists recent aggregation runs. history may be nil when no
// database is configured.
func HistoryHandler(history RunHistory) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if history == nil {
			return writeError(c, fiber.StatusServiceUnavailable, CodeHistoryDisabled,
				"Run history is disabled; set DATABASE_URL to record runs")
		}

		runs, err := history.Recent(c.UserContext(), c.QueryInt("limit", 0))
		if err != nil {
			return writeError(c, fiber.StatusInternalServerError, CodeIO, err.Error())
		}

		views := make([]runView, 0, len(runs))
		for _, r := range runs {
			views = append(views, newRunView(r))
		}

		return c.JSON(fiber.Map{"success": true, "runs": views})
	}
}

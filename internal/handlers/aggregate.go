package handlers

import (
	"context"
	"encoding/json"
	"math"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jjenkins/notion-digest/internal/model"
	"github.com/jjenkins/notion-digest/internal/service"
)

// DefaultLimitPerSource applies when limitPerDb is absent, zero or unparsable
const DefaultLimitPerSource = 50

// TokenHeader carries a per-request Notion token override
const TokenHeader = "X-Notion-Token"

// AggregationRunner runs one aggregation request
type AggregationRunner interface {
	Run(ctx context.Context, req service.RunRequest) (*model.Payload, error)
}

type aggregateResponse struct {
	Success bool           `json:"success"`
	Payload *model.Payload `json:"payload"`
}

// AggregateGetHandler reads the date selection from targetDate, or from
// startDate and endDate
func AggregateGetHandler(runner AggregationRunner) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sel := model.SelectionFromQuery(c.Query("targetDate"), c.Query("startDate"), c.Query("endDate"))
		return runAggregation(c, runner, sel)
	}
}

// AggregatePostHandler reads the date selection from a
// {"runtime_date_selection": {...}} body. A missing or malformed body means
// no date filter.
func AggregatePostHandler(runner AggregationRunner) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var body struct {
			RuntimeDateSelection json.RawMessage `json:"runtime_date_selection"`
		}
		var sel *model.DateSelection
		if err := json.Unmarshal(c.Body(), &body); err == nil {
			sel = model.ParseDateSelection(body.RuntimeDateSelection)
		}
		return runAggregation(c, runner, sel)
	}
}

func runAggregation(c *fiber.Ctx, runner AggregationRunner, sel *model.DateSelection) error {
	payload, err := runner.Run(c.UserContext(), service.RunRequest{
		Selection:     sel,
		Limit:         ParseLimit(c.Query("limitPerDb"), DefaultLimitPerSource),
		TokenOverride: c.Get(TokenHeader),
	})
	if err != nil {
		return writeClassifiedError(c, err)
	}

	return c.JSON(aggregateResponse{Success: true, Payload: payload})
}

// ParseLimit reads a per-source limit. Empty, zero or unparsable input gives
// fallback; anything below one is raised to one.
func ParseLimit(raw string, fallback int) int {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	n, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(n) || n == 0 {
		return fallback
	}
	if n < 1 {
		return 1
	}
	if n > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(n)
}

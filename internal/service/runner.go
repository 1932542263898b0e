package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jjenkins/notion-digest/internal/metrics"
	"github.com/jjenkins/notion-digest/internal/model"
)

// ErrMissingCredential is returned when no Notion token is available
var ErrMissingCredential = errors.New("missing notion token")

// ResolveToken picks the request override, then the settings token, then
// the process default
func ResolveToken(override, settingsToken, processDefault string) (string, error) {
	for _, candidate := range []string{override, settingsToken, processDefault} {
		if t := strings.TrimSpace(candidate); t != "" {
			return t, nil
		}
	}
	return "", ErrMissingCredential
}

// SettingsSource loads the settings document
type SettingsSource interface {
	Load(ctx context.Context) (*model.AppSettings, error)
}

// RunRecorder persists aggregation runs
type RunRecorder interface {
	Insert(ctx context.Context, run *model.AggregationRun) error
}

// ClientFactory builds a Notion client for a token
type ClientFactory func(token string) NotionAPI

// RunRequest is one aggregation request
type RunRequest struct {
	Selection     *model.DateSelection
	Limit         int
	TokenOverride string
}

// Runner wires the settings document, credentials and run history around
// the Aggregator
type Runner struct {
	settings     SettingsSource
	newClient    ClientFactory
	runs         RunRecorder
	defaultToken string
	logger       *slog.Logger
}

// NewRunner creates a new Runner. runs may be nil when no history database
// is configured.
func NewRunner(settings SettingsSource, newClient ClientFactory, runs RunRecorder, defaultToken string, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		settings:     settings,
		newClient:    newClient,
		runs:         runs,
		defaultToken: defaultToken,
		logger:       logger,
	}
}

// Run re-reads the settings document and aggregates its enabled sources
func (r *Runner) Run(ctx context.Context, req RunRequest) (*model.Payload, error) {
	run := &model.AggregationRun{
		ID:             uuid.NewString(),
		StartedAt:      time.Now().UTC(),
		LimitPerSource: req.Limit,
	}
	run.SetSelection(req.Selection)

	payload, stats, err := r.run(ctx, req)
	run.FinishedAt = time.Now().UTC()
	if stats != nil {
		run.SourceCount = stats.Sources
		run.ItemCount = stats.Items
		run.SkippedSubCollections = stats.SkippedSubCollections
	}

	status := model.RunSuccess
	if err != nil {
		status = model.RunFailure
		run.Error.String, run.Error.Valid = err.Error(), true
	}
	run.Status = status
	metrics.RecordAggregation(string(status), req.Selection != nil, run.ItemCount, run.FinishedAt.Sub(run.StartedAt).Seconds())

	r.record(ctx, run)

	if err != nil {
		r.logger.Error("aggregation failed", "run_id", run.ID, "error", err)
		return nil, err
	}
	r.logger.Info("aggregation finished",
		"run_id", run.ID,
		"sources", run.SourceCount,
		"items", run.ItemCount,
		"skipped_subcollections", run.SkippedSubCollections,
	)
	return payload, nil
}

func (r *Runner) run(ctx context.Context, req RunRequest) (*model.Payload, *RunStats, error) {
	settings, err := r.settings.Load(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load settings: %w", err)
	}

	token, err := ResolveToken(req.TokenOverride, settings.NotionToken, r.defaultToken)
	if err != nil {
		return nil, nil, err
	}

	agg := NewAggregator(r.newClient(token), r.logger)
	return agg.Aggregate(ctx, settings, req.Selection, req.Limit)
}

// record stores the run. History is best effort and never fails a request.
func (r *Runner) record(ctx context.Context, run *model.AggregationRun) {
	if r.runs == nil {
		return
	}
	if err := r.runs.Insert(context.WithoutCancel(ctx), run); err != nil {
		r.logger.Warn("failed to record aggregation run", "run_id", run.ID, "error", err)
	}
}

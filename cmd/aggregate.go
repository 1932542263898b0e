package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jjenkins/notion-digest/internal/handlers"
	"github.com/jjenkins/notion-digest/internal/model"
	"github.com/jjenkins/notion-digest/internal/service"
	"github.com/jjenkins/notion-digest/internal/store"
)

var (
	aggregateDate  string
	aggregateStart string
	aggregateEnd   string
	aggregateLimit int
	aggregateOut   string
	aggregateToken string
)

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Aggregate the configured Notion databases once",
	Long: `Aggregate reads config.json, queries every enabled source database and
writes the payload as JSON.

Without a date the newest pages of each source are taken. With --date or
--start/--end only pages whose date anchor falls inside the window are kept.

Examples:
  # Everything, newest first, 50 pages per source
  notion-digest aggregate

  # A single day
  notion-digest aggregate --date 2025-01-15

  # An inclusive range written to a file
  notion-digest aggregate --start 2025-01-06 --end 2025-01-12 --out week.json`,
	RunE: runAggregate,
}

func init() {
	rootCmd.AddCommand(aggregateCmd)

	aggregateCmd.Flags().StringVarP(&aggregateDate, "date", "d", "", "Single day to aggregate (YYYY-MM-DD)")
	aggregateCmd.Flags().StringVar(&aggregateStart, "start", "", "First day of the range (YYYY-MM-DD)")
	aggregateCmd.Flags().StringVar(&aggregateEnd, "end", "", "Last day of the range (YYYY-MM-DD)")
	aggregateCmd.Flags().IntVarP(&aggregateLimit, "limit", "l", handlers.DefaultLimitPerSource, "Maximum pages per source database")
	aggregateCmd.Flags().StringVarP(&aggregateOut, "out", "o", "", "Write the payload to this file instead of stdout")
	aggregateCmd.Flags().StringVar(&aggregateToken, "token", "", "Notion token overriding config.json and NOTION_TOKEN")

	aggregateCmd.MarkFlagsMutuallyExclusive("date", "start")
	aggregateCmd.MarkFlagsMutuallyExclusive("date", "end")
	aggregateCmd.MarkFlagsRequiredTogether("start", "end")
}

// selectionFromFlags validates the date flags. Unlike the HTTP surface, a
// malformed date is an error here rather than a silent fallback.
func selectionFromFlags(date, start, end string) (*model.DateSelection, error) {
	switch {
	case date != "":
		sel := model.NewSingleSelection(date)
		if sel == nil {
			return nil, fmt.Errorf("invalid --date %q: expected YYYY-MM-DD", date)
		}
		return sel, nil
	case start != "" || end != "":
		sel := model.NewRangeSelection(start, end)
		if sel == nil {
			return nil, fmt.Errorf("invalid range %q..%q: expected YYYY-MM-DD", start, end)
		}
		return sel, nil
	}
	return nil, nil
}

func runAggregate(cmd *cobra.Command, args []string) error {
	sel, err := selectionFromFlags(aggregateDate, aggregateStart, aggregateEnd)
	if err != nil {
		return err
	}
	if aggregateLimit < 1 {
		aggregateLimit = 1
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runStore, closeDB, err := openRunStore(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	var recorder service.RunRecorder
	if runStore != nil {
		recorder = runStore
	}

	runner := service.NewRunner(store.NewSettingsStore(cfg.SettingsPath), newClientFactory(), recorder, cfg.NotionToken, logger)

	payload, err := runner.Run(ctx, service.RunRequest{
		Selection:     sel,
		Limit:         aggregateLimit,
		TokenOverride: aggregateToken,
	})
	if err != nil {
		return err
	}

	if aggregateOut == "" {
		return writePayload(cmd.OutOrStdout(), payload)
	}

	f, err := os.Create(aggregateOut)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", aggregateOut, err)
	}
	if err := writePayload(f, payload); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", aggregateOut, err)
	}

	newPrinter(cmd).Success("wrote %d items to %s", len(payload.Items), aggregateOut)
	return nil
}

func writePayload(w io.Writer, payload *model.Payload) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(payload); err != nil {
		return fmt.Errorf("failed to encode payload: %w", err)
	}
	return nil
}

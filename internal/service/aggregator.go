package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/jjenkins/notion-digest/internal/metrics"
	"github.com/jjenkins/notion-digest/internal/model"
)

// NotionAPI is the subset of the Notion API the aggregator needs
type NotionAPI interface {
	BlockLister
	RetrieveDatabase(ctx context.Context, databaseID string) (*model.Database, error)
	RetrieveDataSource(ctx context.Context, dataSourceID string) (*model.DataSource, error)
	QueryDataSource(ctx context.Context, dataSourceID string, req QueryRequest) (*model.PageList, error)
}

// RunStats tracks aggregation statistics
type RunStats struct {
	Sources               int
	SubCollections        int
	SkippedSubCollections int
	PagesRejected         int
	Items                 int
}

// Aggregator turns the enabled sources of a settings document into a payload
type Aggregator struct {
	api    NotionAPI
	logger *slog.Logger
	now    func() time.Time
}

// NewAggregator creates a new Aggregator
func NewAggregator(api NotionAPI, logger *slog.Logger) *Aggregator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Aggregator{api: api, logger: logger, now: time.Now}
}

// Aggregate processes every enabled source in configured order, taking at
// most limit items from each. Any Notion failure aborts the whole run.
func (a *Aggregator) Aggregate(ctx context.Context, settings *model.AppSettings, sel *model.DateSelection, limit int) (*model.Payload, *RunStats, error) {
	stats := &RunStats{}
	if limit < 1 {
		limit = 1
	}
	if _, ok := SelectionInterval(sel); !ok {
		sel = nil
	}

	items := []model.AggregatedItem{}
	for _, src := range settings.EnabledSources() {
		databaseID := strings.TrimSpace(src.DatabaseID)
		if databaseID == "" {
			continue
		}
		stats.Sources++

		logger := a.logger.With("database_id", databaseID, "nickname", src.Nickname)
		logger.Debug("aggregating source")

		pages, err := a.collectPages(ctx, logger, databaseID, src, sel, limit, stats)
		if err != nil {
			return nil, stats, fmt.Errorf("source %s: %w", databaseID, err)
		}

		for _, page := range pages {
			item, err := a.buildItem(ctx, databaseID, src, page)
			if err != nil {
				return nil, stats, fmt.Errorf("source %s page %s: %w", databaseID, page.ID, err)
			}
			items = append(items, item)
		}
		logger.Info("source aggregated", "items", len(pages))
	}

	stats.Items = len(items)
	return &model.Payload{
		GeneratedAt:        model.Timestamp(a.now()),
		RequestedSelection: sel,
		Items:              items,
	}, stats, nil
}

// collectPages walks the data sources of one database until limit pages
// have passed the query's post-filter
func (a *Aggregator) collectPages(ctx context.Context, logger *slog.Logger, databaseID string, src model.SourceConfig, sel *model.DateSelection, limit int, stats *RunStats) ([]model.Page, error) {
	db, err := a.api.RetrieveDatabase(ctx, databaseID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve database: %w", err)
	}

	var pages []model.Page
	for _, ds := range db.DataSources {
		if len(pages) >= limit {
			break
		}
		stats.SubCollections++

		query := UnfilteredQuery()
		if sel != nil {
			dataSource, err := a.api.RetrieveDataSource(ctx, ds.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to retrieve data source %s: %w", ds.ID, err)
			}
			anchor, ok := ResolveAnchor(dataSource.Properties, src.AnchorDateProperty, src.SelectedProperties)
			if !ok {
				logger.Warn("skipping data source without a resolvable date anchor",
					"data_source_id", ds.ID, "preferred_anchor", src.AnchorDateProperty)
				stats.SkippedSubCollections++
				metrics.SubCollectionsSkipped.Inc()
				continue
			}
			logger.Debug("resolved date anchor", "data_source_id", ds.ID, "anchor", anchor.Name, "type", anchor.Type)
			query = BuildQuery(anchor, sel)
		}

		cursor := ""
		for {
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			list, err := a.api.QueryDataSource(ctx, ds.ID, QueryRequest{
				Filter:      query.Filter,
				Sorts:       query.Sorts,
				StartCursor: cursor,
				PageSize:    min(maxPageSize, limit-len(pages)),
			})
			if err != nil {
				return nil, fmt.Errorf("failed to query data source %s: %w", ds.ID, err)
			}

			for _, page := range list.Results {
				if !query.Accept(page) {
					stats.PagesRejected++
					metrics.PagesRejected.Inc()
					continue
				}
				pages = append(pages, page)
				if len(pages) >= limit {
					break
				}
			}

			if len(pages) >= limit || !list.HasMore || list.NextCursor == "" {
				break
			}
			cursor = list.NextCursor
		}
	}

	return pages, nil
}

func (a *Aggregator) buildItem(ctx context.Context, databaseID string, src model.SourceConfig, page model.Page) (model.AggregatedItem, error) {
	item := model.AggregatedItem{
		SourceID:           databaseID,
		Nickname:           src.Nickname,
		RecordID:           page.ID,
		RecordURL:          page.URL,
		Title:              pageTitle(page),
		SelectedValues:     selectedValues(page, src.SelectedProperties),
		IncludePageContent: src.IncludePageContent,
		AnchorPropertyName: src.AnchorDateProperty,
	}

	if src.IncludePageContent && page.ID != "" {
		content, truncated, err := PageText(ctx, a.api, page.ID, DefaultMaxBlockDepth, DefaultMaxBlocks)
		if err != nil {
			return item, fmt.Errorf("failed to read page content: %w", err)
		}
		item.PageContent = content
		item.PageContentTruncated = truncated
	}

	item.InputText = ComposeInputText(item)
	return item, nil
}

// pageTitle renders the first title property in document order
func pageTitle(page model.Page) string {
	for _, prop := range page.Properties {
		if v, ok := prop.Value.(model.TitleValue); ok {
			return RenderProperty(v)
		}
	}
	return ""
}

// selectedValues renders the configured properties, omitting empty ones.
// A name configured twice keeps its first position.
func selectedValues(page model.Page, selected []model.SelectedProperty) model.FieldValues {
	values := model.FieldValues{}
	for _, sp := range selected {
		v, ok := page.Properties.Get(sp.Name)
		if !ok {
			continue
		}
		text := RenderProperty(v)
		if text == "" {
			continue
		}
		replaced := false
		for i := range values {
			if values[i].Name == sp.Name {
				values[i].Value = text
				replaced = true
				break
			}
		}
		if !replaced {
			values = append(values, model.FieldValue{Name: sp.Name, Value: text})
		}
	}
	return values
}

// ComposeInputText builds the text blob handed to the summarizer
func ComposeInputText(item model.AggregatedItem) string {
	parts := make([]string, 0, len(item.SelectedValues)+3)
	if item.Nickname != "" {
		parts = append(parts, "Database: "+item.Nickname)
	}
	if item.Title != "" {
		parts = append(parts, "Title: "+item.Title)
	}
	for _, fv := range item.SelectedValues {
		parts = append(parts, fv.Name+": "+fv.Value)
	}
	if item.PageContent != "" {
		parts = append(parts, "\nPage Content:\n"+item.PageContent)
	}
	return JoinParts(parts)
}

// JoinParts drops blank parts, joins the rest with newlines, collapses runs
// of blank lines and trims the result
func JoinParts(parts []string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			kept = append(kept, p)
		}
	}
	return strings.TrimSpace(excessNewlines.ReplaceAllString(strings.Join(kept, "\n"), "\n\n"))
}

package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jjenkins/notion-digest/internal/config"
	"github.com/jjenkins/notion-digest/internal/output"
	"github.com/jjenkins/notion-digest/internal/service"
)

var sourcesDatabaseID string

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List configured Notion databases and their data sources",
	Long: `Sources lists the databases named by NOTION_DATABASE_ID, NOTION_DATABASE_ID2, ...
and, with a Notion token available, the data sources inside each one.

Examples:
  notion-digest sources
  notion-digest sources --database-id 0f3c...`,
	RunE: runSources,
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
	sourcesCmd.Flags().StringVar(&sourcesDatabaseID, "database-id", "", "Only list this database")
}

func runSources(cmd *cobra.Command, args []string) error {
	p := newPrinter(cmd)

	dbs := config.DiscoverDatabases(os.Environ())
	if sourcesDatabaseID != "" {
		dbs = []config.ConfiguredDatabase{{Key: "--database-id", ID: sourcesDatabaseID}}
	}
	if len(dbs) == 0 {
		p.Warning("no NOTION_DATABASE_ID* variables found in the environment or .env.local")
		return nil
	}

	token, err := service.ResolveToken("", "", cfg.NotionToken)
	if err != nil {
		p.Warning("NOTION_TOKEN is not set; data sources cannot be listed")
	}

	var api service.NotionAPI
	if token != "" {
		api = newClientFactory()(token)
	}

	table := output.NewTable(p.Out(), []string{"Env key", "Database", "Data source", "Name"})
	for _, db := range dbs {
		if api == nil {
			table.AddRow(db.Key, db.ID, "", "")
			continue
		}

		database, err := api.RetrieveDatabase(cmd.Context(), db.ID)
		if err != nil {
			logger.Warn("failed to retrieve database", "database_id", db.ID, "error", err)
			table.AddRow(db.Key, db.ID, p.Dim("error"), err.Error())
			continue
		}
		if len(database.DataSources) == 0 {
			table.AddRow(db.Key, db.ID, p.Dim("none"), database.Title)
			continue
		}
		for _, ds := range database.DataSources {
			table.AddRow(db.Key, db.ID, ds.ID, ds.Name)
		}
	}

	if err := table.Render(); err != nil {
		return fmt.Errorf("failed to render table: %w", err)
	}
	return nil
}

package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/invopop/jsonschema"
	"github.com/spf13/cobra"

	"github.com/jjenkins/notion-digest/internal/model"
	"github.com/jjenkins/notion-digest/internal/output"
	"github.com/jjenkins/notion-digest/internal/store"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Inspect the settings document (config.json)",
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the configured source databases",
	RunE: func(cmd *cobra.Command, args []string) error {
		settings, err := store.NewSettingsStore(cfg.SettingsPath).Load(cmd.Context())
		if err != nil {
			return err
		}
		return printSettings(newPrinter(cmd), cfg.SettingsPath, settings)
	},
}

var settingsValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check that the settings document has the expected structure",
	RunE: func(cmd *cobra.Command, args []string) error {
		p := newPrinter(cmd)
		settings, err := store.NewSettingsStore(cfg.SettingsPath).Load(cmd.Context())
		if err != nil {
			var verr *store.ValidationError
			if errors.As(err, &verr) {
				fields := make([]string, 0, len(verr.Errors))
				for f := range verr.Errors {
					fields = append(fields, f)
				}
				sort.Strings(fields)
				for _, f := range fields {
					p.Error("%s", verr.Errors[f])
				}
			}
			return err
		}

		enabled := len(settings.EnabledSources())
		p.Success("%s is valid: %d sources, %d enabled", cfg.SettingsPath, len(settings.SourceDatabases), enabled)
		if enabled == 0 {
			p.Warning("no source database is enabled; aggregation will return no items")
		}
		return nil
	},
}

var settingsSchemaCmd = &cobra.Command{
	Use:   "schema",
	Short: "Print the JSON Schema of the settings document",
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := json.MarshalIndent(settingsSchema(), "", "  ")
		if err != nil {
			return fmt.Errorf("failed to encode schema: %w", err)
		}
		_, err = fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return err
	},
}

func init() {
	rootCmd.AddCommand(settingsCmd)
	settingsCmd.AddCommand(settingsShowCmd, settingsValidateCmd, settingsSchemaCmd)
}

// settingsSchema reflects the settings document into a JSON Schema
func settingsSchema() *jsonschema.Schema {
	r := &jsonschema.Reflector{
		DoNotReference:            true,
		AllowAdditionalProperties: true,
	}
	schema := r.Reflect(&model.AppSettings{})
	schema.Title = "notion-digest settings"
	schema.Description = "Local settings document naming the Notion databases to aggregate"
	return schema
}

func printSettings(p *output.Printer, path string, settings *model.AppSettings) error {
	p.Header("Settings: " + path)

	token := "not set"
	if settings.NotionToken != "" {
		token = maskSecret(settings.NotionToken)
	}
	fmt.Fprintf(p.Out(), "notion token:     %s\n", token)
	fmt.Fprintf(p.Out(), "daily output db:  %s\n", orDash(settings.OutputDatabaseIDs.Daily))
	fmt.Fprintf(p.Out(), "weekly output db: %s\n", orDash(settings.OutputDatabaseIDs.Weekly))

	p.Header("Source databases")
	if len(settings.SourceDatabases) == 0 {
		fmt.Fprintln(p.Out(), p.Dim("none configured"))
		return nil
	}

	table := output.NewTable(p.Out(), []string{"", "Nickname", "Database", "Content", "Date anchor", "Properties"})
	for _, src := range settings.SourceDatabases {
		anchor := src.AnchorDateProperty
		if anchor == "" {
			anchor = p.Dim("auto")
		}
		names := make([]string, 0, len(src.SelectedProperties))
		for _, sp := range src.SelectedProperties {
			names = append(names, fmt.Sprintf("%s (%s)", sp.Name, sp.Type))
		}
		table.AddRow(
			p.Badge(src.Enabled),
			src.Nickname,
			src.DatabaseID,
			yesNo(src.IncludePageContent),
			anchor,
			strings.Join(names, ", "),
		)
	}
	return table.Render()
}

func maskSecret(s string) string {
	if len(s) <= 8 {
		return strings.Repeat("*", len(s))
	}
	return s[:4] + strings.Repeat("*", len(s)-8) + s[len(s)-4:]
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

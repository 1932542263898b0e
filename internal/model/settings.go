package model

// AppSettings is the local settings document (config.json)
type AppSettings struct {
	NotionToken       string            `json:"notion_token" jsonschema:"description=Notion integration token used when no request override is given"`
	GeminiAPIKey      string            `json:"gemini_api_key" jsonschema:"description=Key for the downstream summarizer; stored but not used here"`
	OutputDatabaseIDs OutputDatabaseIDs `json:"output_database_ids" jsonschema:"description=Databases the downstream summarizer writes into"`
	SourceDatabases   []SourceConfig    `json:"source_databases" jsonschema:"description=Notion databases to aggregate in processing order"`
}

// OutputDatabaseIDs names where daily and weekly digests are written downstream
type OutputDatabaseIDs struct {
	Daily  string `json:"daily"`
	Weekly string `json:"weekly"`
}

// SourceConfig describes one Notion database to aggregate
type SourceConfig struct {
	DatabaseID         string             `json:"database_id" jsonschema:"description=Notion database ID"`
	Nickname           string             `json:"nickname" jsonschema:"description=Label prefixed to every item from this database"`
	SelectedProperties []SelectedProperty `json:"selected_properties" jsonschema:"description=Properties copied into each item"`
	Enabled            bool               `json:"enabled"`
	IncludePageContent bool               `json:"include_page_content" jsonschema:"description=Fetch and flatten the page body"`
	AnchorDateProperty string             `json:"anchor_date_property" jsonschema:"description=Preferred date property for date filtering; empty means auto-detect"`
}

// SelectedProperty is a property name with the type it had when it was chosen
type SelectedProperty struct {
	Name string       `json:"name"`
	Type PropertyType `json:"type"`
}

// EnabledSources returns the enabled sources in configured order
func (s *AppSettings) EnabledSources() []SourceConfig {
	var enabled []SourceConfig
	for _, src := range s.SourceDatabases {
		if src.Enabled {
			enabled = append(enabled, src)
		}
	}
	return enabled
}

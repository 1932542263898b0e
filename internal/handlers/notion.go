package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/jjenkins/notion-digest/internal/config"
	"github.com/jjenkins/notion-digest/internal/model"
	"github.com/jjenkins/notion-digest/internal/service"
)

// NotionBrowser exposes the configured databases and their schemas
type NotionBrowser struct {
	newClient    service.ClientFactory
	defaultToken string
	environ      func() []string
}

// NewNotionBrowser creates the handlers behind /api/notion. environ is
// usually os.Environ.
func NewNotionBrowser(newClient service.ClientFactory, defaultToken string, environ func() []string) *NotionBrowser {
	return &NotionBrowser{newClient: newClient, defaultToken: defaultToken, environ: environ}
}

// Databases lists databases configured through NOTION_DATABASE_ID{n}
func (b *NotionBrowser) Databases() fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbs := config.DiscoverDatabases(b.environ())
		if len(dbs) == 0 {
			return writeError(c, fiber.StatusNotFound, CodeConfigNotFound,
				"No configured Notion databases found. Add NOTION_DATABASE_ID (and optionally NOTION_DATABASE_ID2, NOTION_DATABASE_ID3, ...) to .env.local.")
		}
		return c.JSON(fiber.Map{"success": true, "results": dbs})
	}
}

// DataSources lists the data sources of ?databaseId=, defaulting to the
// first configured database
func (b *NotionBrowser) DataSources() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := service.ResolveToken(c.Get(TokenHeader), "", b.defaultToken)
		if err != nil {
			return writeClassifiedError(c, err)
		}

		databaseID := strings.TrimSpace(c.Query("databaseId"))
		if databaseID == "" {
			if dbs := config.DiscoverDatabases(b.environ()); len(dbs) > 0 {
				databaseID = dbs[0].ID
			}
		}
		if databaseID == "" {
			return writeError(c, fiber.StatusBadRequest, CodeValidation,
				"No databaseId provided and no NOTION_DATABASE_ID* env vars found.")
		}

		db, err := b.newClient(token).RetrieveDatabase(c.UserContext(), databaseID)
		if err != nil {
			return writeClassifiedError(c, err)
		}

		results := db.DataSources
		if results == nil {
			results = []model.DataSourceRef{}
		}
		return c.JSON(fiber.Map{
			"success":    true,
			"databaseId": databaseID,
			"results":    results,
		})
	}
}

// DataSource returns the property schema of one data source
func (b *NotionBrowser) DataSource() fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := service.ResolveToken(c.Get(TokenHeader), "", b.defaultToken)
		if err != nil {
			return writeClassifiedError(c, err)
		}

		dataSourceID := strings.TrimSpace(c.Params("dataSourceId"))
		if dataSourceID == "" {
			return writeError(c, fiber.StatusBadRequest, CodeValidation, "Missing dataSourceId")
		}

		ds, err := b.newClient(token).RetrieveDataSource(c.UserContext(), dataSourceID)
		if err != nil {
			return writeClassifiedError(c, err)
		}

		properties := ds.Properties
		if properties == nil {
			properties = []model.SchemaProperty{}
		}
		return c.JSON(fiber.Map{
			"success": true,
			"dataSource": fiber.Map{
				"id":             ds.ID,
				"title":          ds.Title,
				"databaseParent": ds.DatabaseID,
			},
			"properties": properties,
		})
	}
}

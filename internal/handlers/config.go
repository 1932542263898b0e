package handlers

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jjenkins/notion-digest/internal/model"
	"github.com/jjenkins/notion-digest/internal/store"
)

// SettingsRepository loads and saves the settings document
type SettingsRepository interface {
	Load(ctx context.Context) (*model.AppSettings, error)
	LoadDocument(ctx context.Context) (json.RawMessage, error)
	Save(ctx context.Context, raw []byte) (*model.AppSettings, error)
}

type configResponse struct {
	Success bool            `json:"success"`
	Config  json.RawMessage `json:"config"`
}

// ConfigGetHandler returns the current settings document as stored
func ConfigGetHandler(settings SettingsRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		doc, err := settings.LoadDocument(c.UserContext())
		if err != nil {
			return writeSettingsError(c, err, "Invalid config.json structure")
		}
		return c.JSON(configResponse{Success: true, Config: doc})
	}
}

// ConfigSaveHandler validates the request body and replaces the settings document
func ConfigSaveHandler(settings SettingsRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx := c.UserContext()
		if _, err := settings.Save(ctx, c.Body()); err != nil {
			return writeSettingsError(c, err, "Invalid settings payload")
		}
		doc, err := settings.LoadDocument(ctx)
		if err != nil {
			return writeSettingsError(c, err, "Invalid config.json structure")
		}
		return c.Status(fiber.StatusCreated).JSON(configResponse{Success: true, Config: doc})
	}
}

func writeSettingsError(c *fiber.Ctx, err error, invalidMessage string) error {
	switch {
	case errors.Is(err, store.ErrSettingsNotFound):
		return writeError(c, fiber.StatusNotFound, CodeConfigNotFound, "config.json not found")
	case errors.Is(err, store.ErrSettingsInvalid):
		resp := errorResponse{Success: false, Code: CodeValidation, Error: invalidMessage}
		var verr *store.ValidationError
		if errors.As(err, &verr) {
			resp.Fields = verr.Errors
		}
		return c.Status(fiber.StatusBadRequest).JSON(resp)
	}
	return writeError(c, fiber.StatusInternalServerError, CodeIO, err.Error())
}

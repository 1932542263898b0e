package handlers

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jjenkins/notion-digest/internal/service"
	"github.com/jjenkins/notion-digest/internal/store"
)

// Error codes returned in failure bodies
const (
	CodeValidation        = "VALIDATION_ERROR"
	CodeConfigNotFound    = "CONFIG_NOT_FOUND"
	CodeIO                = "IO_ERROR"
	CodeMissingCredential = "MISSING_CREDENTIAL"
	CodeNotion            = "NOTION_ERROR"
	CodeHistoryDisabled   = "HISTORY_DISABLED"
)

type errorResponse struct {
	Success bool              `json:"success"`
	Code    string            `json:"code,omitempty"`
	Error   string            `json:"error"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func writeError(c *fiber.Ctx, status int, code, message string) error {
	if message == "" {
		message = "Unknown error"
	}
	return c.Status(status).JSON(errorResponse{Success: false, Code: code, Error: message})
}

// writeClassifiedError maps an aggregation or Notion error onto a status and code
func writeClassifiedError(c *fiber.Ctx, err error) error {
	status, code := classifyError(err)
	resp := errorResponse{Success: false, Code: code, Error: err.Error()}

	var verr *store.ValidationError
	if errors.As(err, &verr) {
		resp.Fields = verr.Errors
	}

	return c.Status(status).JSON(resp)
}

func classifyError(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrMissingCredential):
		return fiber.StatusUnauthorized, CodeMissingCredential
	case errors.Is(err, store.ErrSettingsNotFound):
		return fiber.StatusNotFound, CodeConfigNotFound
	case errors.Is(err, store.ErrSettingsInvalid):
		return fiber.StatusUnprocessableEntity, CodeValidation
	case errors.Is(err, service.ErrNotion):
		return fiber.StatusBadGateway, CodeNotion
	case errors.Is(err, context.DeadlineExceeded):
		return fiber.StatusGatewayTimeout, CodeIO
	}
	return fiber.StatusInternalServerError, CodeIO
}

// HealthHandler reports liveness
func HealthHandler() fiber.Handler {
	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	}
}

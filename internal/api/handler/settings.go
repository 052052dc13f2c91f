package handler

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/facegate/facegate/internal/domain"
)

// SettingsService reads and writes the record server context.
type SettingsService interface {
	Server(ctx context.Context) (domain.ServerInfo, error)
	SetServer(ctx context.Context, info domain.ServerInfo) error
}

type SettingsHandler struct {
	settings SettingsService
}

func NewSettingsHandler(settings SettingsService) *SettingsHandler {
	return &SettingsHandler{settings: settings}
}

type serverRequest struct {
	Host   string `json:"host"`
	Port   int    `json:"port"`
	Secret string `json:"secret"`
}

// ServerResponse mirrors the stored server context; the secret stays
// write-only.
type ServerResponse struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

// SetServer PUT /v1/settings/server - point the gateway at a record backend
func (h *SettingsHandler) SetServer(c *fiber.Ctx) error {
	var req serverRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrBadRequest.WithError(err)
	}
	if strings.TrimSpace(req.Host) == "" {
		return domain.ErrValidationFailed.WithError(errors.New("host is required"))
	}
	if req.Port <= 0 || req.Port > 65535 {
		return domain.ErrValidationFailed.WithError(errors.New("port must be in (0, 65535]"))
	}

	info := domain.ServerInfo{Host: req.Host, Port: req.Port, Secret: req.Secret}
	if err := h.settings.SetServer(c.Context(), info); err != nil {
		return err
	}

	return c.JSON(ServerResponse{Host: info.Host, Port: info.Port})
}

// GetServer GET /v1/settings/server
func (h *SettingsHandler) GetServer(c *fiber.Ctx) error {
	server, err := h.settings.Server(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(ServerResponse{Host: server.Host, Port: server.Port})
}

package handler

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/facegate/facegate/internal/domain"
)

// BindingDirectory is the stream-to-device binding surface the handler needs.
type BindingDirectory interface {
	Bind(ctx context.Context, token, source string) error
	Unbind(ctx context.Context, token, source string) ([]string, error)
	Tokens(ctx context.Context, source string) ([]string, error)
}

type BindingHandler struct {
	directory BindingDirectory
}

func NewBindingHandler(directory BindingDirectory) *BindingHandler {
	return &BindingHandler{directory: directory}
}

type bindRequest struct {
	Token string `json:"token"`
}

// BindingsResponse lists the device tokens bound to one stream source.
type BindingsResponse struct {
	Source string   `json:"source"`
	Tokens []string `json:"tokens"`
}

// Bind POST /v1/streams/:source/bindings - bind a device to a stream source
func (h *BindingHandler) Bind(c *fiber.Ctx) error {
	source := strings.TrimSpace(c.Params("source"))
	if source == "" {
		return domain.ErrValidationFailed.WithError(errors.New("source is required"))
	}

	var req bindRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrBadRequest.WithError(err)
	}
	if strings.TrimSpace(req.Token) == "" {
		return domain.ErrValidationFailed.WithError(errors.New("token is required"))
	}

	if err := h.directory.Bind(c.Context(), req.Token, source); err != nil {
		return err
	}

	tokens, err := h.directory.Tokens(c.Context(), source)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(BindingsResponse{Source: source, Tokens: tokens})
}

// Unbind DELETE /v1/streams/:source/bindings/:token - detach one device
func (h *BindingHandler) Unbind(c *fiber.Ctx) error {
	source := strings.TrimSpace(c.Params("source"))
	token := strings.TrimSpace(c.Params("token"))
	if source == "" || token == "" {
		return domain.ErrValidationFailed.WithError(errors.New("source and token are required"))
	}

	remaining, err := h.directory.Unbind(c.Context(), token, source)
	if err != nil {
		return err
	}

	return c.JSON(BindingsResponse{Source: source, Tokens: remaining})
}

// List GET /v1/streams/:source/bindings - current bindings for a source
func (h *BindingHandler) List(c *fiber.Ctx) error {
	source := strings.TrimSpace(c.Params("source"))
	if source == "" {
		return domain.ErrValidationFailed.WithError(errors.New("source is required"))
	}

	tokens, err := h.directory.Tokens(c.Context(), source)
	if err != nil {
		return err
	}

	return c.JSON(BindingsResponse{Source: source, Tokens: tokens})
}

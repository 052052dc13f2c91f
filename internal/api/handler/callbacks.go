package handler

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/facegate/facegate/internal/domain"
)

// CallbackRegistry manages the webhook destination set.
type CallbackRegistry interface {
	Register(ctx context.Context, destination string) error
	Unregister(ctx context.Context, destination string) ([]string, error)
	Destinations(ctx context.Context) ([]string, error)
}

type CallbackHandler struct {
	registry CallbackRegistry
}

func NewCallbackHandler(registry CallbackRegistry) *CallbackHandler {
	return &CallbackHandler{registry: registry}
}

type callbackRequest struct {
	URL string `json:"url"`
}

// CallbacksResponse lists the registered webhook destinations.
type CallbacksResponse struct {
	Destinations []string `json:"destinations"`
}

// Register POST /v1/callbacks - add a webhook destination
func (h *CallbackHandler) Register(c *fiber.Ctx) error {
	var req callbackRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrBadRequest.WithError(err)
	}
	if strings.TrimSpace(req.URL) == "" {
		return domain.ErrValidationFailed.WithError(errors.New("url is required"))
	}

	if err := h.registry.Register(c.Context(), req.URL); err != nil {
		return err
	}

	destinations, err := h.registry.Destinations(c.Context())
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(CallbacksResponse{Destinations: destinations})
}

// Unregister DELETE /v1/callbacks - remove a webhook destination
func (h *CallbackHandler) Unregister(c *fiber.Ctx) error {
	var req callbackRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrBadRequest.WithError(err)
	}
	if strings.TrimSpace(req.URL) == "" {
		return domain.ErrValidationFailed.WithError(errors.New("url is required"))
	}

	remaining, err := h.registry.Unregister(c.Context(), req.URL)
	if err != nil {
		return err
	}

	return c.JSON(CallbacksResponse{Destinations: remaining})
}

// List GET /v1/callbacks
func (h *CallbackHandler) List(c *fiber.Ctx) error {
	destinations, err := h.registry.Destinations(c.Context())
	if err != nil {
		return err
	}
	return c.JSON(CallbacksResponse{Destinations: destinations})
}

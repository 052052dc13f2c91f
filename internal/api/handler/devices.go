package handler

import (
	"context"
	"errors"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/facegate/facegate/internal/domain"
	"github.com/facegate/facegate/internal/registry"
)

// DeviceService is the registry surface: enrollment, lookup and removal.
type DeviceService interface {
	Register(ctx context.Context, server domain.ServerInfo, reg registry.Registration) (*domain.Device, error)
	List(ctx context.Context) ([]domain.Device, error)
	Get(ctx context.Context, token string) (*domain.Device, error)
	Remove(ctx context.Context, token string) error
}

type DeviceHandler struct {
	service  DeviceService
	settings SettingsService
}

func NewDeviceHandler(service DeviceService, settings SettingsService) *DeviceHandler {
	return &DeviceHandler{
		service:  service,
		settings: settings,
	}
}

type registerDeviceRequest struct {
	Token    string `json:"token"`
	Name     string `json:"name"`
	Location string `json:"location"`
	Network  string `json:"network"`
	Serial   string `json:"serial"`
	Username string `json:"username"`
	Password string `json:"password"`
}

// Register POST /v1/devices - enroll a device against the record backend
func (h *DeviceHandler) Register(c *fiber.Ctx) error {
	var req registerDeviceRequest
	if err := c.BodyParser(&req); err != nil {
		return domain.ErrBadRequest.WithError(err)
	}
	if strings.TrimSpace(req.Token) == "" {
		return domain.ErrValidationFailed.WithError(errors.New("token is required"))
	}
	if req.Username == "" || req.Password == "" {
		return domain.ErrValidationFailed.WithError(errors.New("username and password are required"))
	}

	server, err := h.settings.Server(c.Context())
	if err != nil {
		return err
	}

	device, err := h.service.Register(c.Context(), server, registry.Registration{
		Token:    req.Token,
		Name:     req.Name,
		Location: req.Location,
		Network:  req.Network,
		Serial:   req.Serial,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(device)
}

// List GET /v1/devices
func (h *DeviceHandler) List(c *fiber.Ctx) error {
	devices, err := h.service.List(c.Context())
	if err != nil {
		return err
	}
	if devices == nil {
		devices = []domain.Device{}
	}
	return c.JSON(devices)
}

// Get GET /v1/devices/:token
func (h *DeviceHandler) Get(c *fiber.Ctx) error {
	token := strings.TrimSpace(c.Params("token"))
	if token == "" {
		return domain.ErrValidationFailed.WithError(errors.New("token is required"))
	}

	device, err := h.service.Get(c.Context(), token)
	if err != nil {
		return err
	}
	return c.JSON(device)
}

// Delete DELETE /v1/devices/:token
func (h *DeviceHandler) Delete(c *fiber.Ctx) error {
	token := strings.TrimSpace(c.Params("token"))
	if token == "" {
		return domain.ErrValidationFailed.WithError(errors.New("token is required"))
	}

	if err := h.service.Remove(c.Context(), token); err != nil {
		return err
	}
	return c.SendStatus(fiber.StatusNoContent)
}

package handler

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facegate/facegate/internal/api/middleware"
	"github.com/facegate/facegate/internal/domain"
	"github.com/facegate/facegate/internal/registry"
)

type fakeDeviceService struct {
	devices     map[string]*domain.Device
	registerErr error
	registered  []registry.Registration
}

func newFakeDeviceService() *fakeDeviceService {
	return &fakeDeviceService{devices: make(map[string]*domain.Device)}
}

func (f *fakeDeviceService) Register(_ context.Context, _ domain.ServerInfo, reg registry.Registration) (*domain.Device, error) {
	if f.registerErr != nil {
		return nil, f.registerErr
	}
	f.registered = append(f.registered, reg)
	device := &domain.Device{Token: reg.Token, Name: reg.Name, Location: reg.Location}
	f.devices[reg.Token] = device
	return device, nil
}

func (f *fakeDeviceService) List(context.Context) ([]domain.Device, error) {
	var out []domain.Device
	for _, d := range f.devices {
		out = append(out, *d)
	}
	return out, nil
}

func (f *fakeDeviceService) Get(_ context.Context, token string) (*domain.Device, error) {
	if d, ok := f.devices[token]; ok {
		return d, nil
	}
	return nil, domain.ErrDeviceNotFound
}

func (f *fakeDeviceService) Remove(_ context.Context, token string) error {
	if _, ok := f.devices[token]; !ok {
		return domain.ErrDeviceNotFound
	}
	delete(f.devices, token)
	return nil
}

type fakeSettingsService struct {
	server domain.ServerInfo
	getErr error
	setErr error
}

func (f *fakeSettingsService) Server(context.Context) (domain.ServerInfo, error) {
	if f.getErr != nil {
		return domain.ServerInfo{}, f.getErr
	}
	return f.server, nil
}

func (f *fakeSettingsService) SetServer(_ context.Context, info domain.ServerInfo) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.server = info
	return nil
}

func newDeviceApp(service DeviceService, settings SettingsService) *fiber.App {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	app := fiber.New(fiber.Config{ErrorHandler: middleware.ErrorHandler(logger)})
	h := NewDeviceHandler(service, settings)
	app.Post("/v1/devices", h.Register)
	app.Get("/v1/devices", h.List)
	app.Get("/v1/devices/:token", h.Get)
	app.Delete("/v1/devices/:token", h.Delete)
	return app
}

func TestDeviceHandler_Register(t *testing.T) {
	service := newFakeDeviceService()
	settings := &fakeSettingsService{server: domain.ServerInfo{Host: "http://h", Port: 1}}
	app := newDeviceApp(service, settings)

	body := `{"token":"tok-1","name":"lobby","location":"east-gate","username":"admin","password":"pw"}`
	req := httptest.NewRequest("POST", "/v1/devices", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 201, resp.StatusCode)

	require.Len(t, service.registered, 1)
	assert.Equal(t, "tok-1", service.registered[0].Token)
	assert.Equal(t, "admin", service.registered[0].Username)
}

func TestDeviceHandler_Register_NoServerConfigured(t *testing.T) {
	app := newDeviceApp(newFakeDeviceService(), &fakeSettingsService{getErr: domain.ErrServerNotConfigured})

	body := `{"token":"tok-1","username":"admin","password":"pw"}`
	req := httptest.NewRequest("POST", "/v1/devices", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 412, resp.StatusCode)
}

func TestDeviceHandler_Register_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "missing token", body: `{"username":"u","password":"p"}`},
		{name: "missing credentials", body: `{"token":"t"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			app := newDeviceApp(newFakeDeviceService(), &fakeSettingsService{})

			req := httptest.NewRequest("POST", "/v1/devices", strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			resp, err := app.Test(req)
			require.NoError(t, err)
			assert.Equal(t, 422, resp.StatusCode)
		})
	}
}

func TestDeviceHandler_Register_Duplicate(t *testing.T) {
	service := newFakeDeviceService()
	service.registerErr = domain.ErrDeviceExists
	app := newDeviceApp(service, &fakeSettingsService{})

	body := `{"token":"tok-1","username":"admin","password":"pw"}`
	req := httptest.NewRequest("POST", "/v1/devices", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 409, resp.StatusCode)
}

func TestDeviceHandler_GetAndDelete(t *testing.T) {
	service := newFakeDeviceService()
	service.devices["tok-1"] = &domain.Device{Token: "tok-1", Name: "lobby"}
	app := newDeviceApp(service, &fakeSettingsService{})

	req := httptest.NewRequest("GET", "/v1/devices/tok-1", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var device domain.Device
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&device))
	assert.Equal(t, "lobby", device.Name)

	req = httptest.NewRequest("DELETE", "/v1/devices/tok-1", nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 204, resp.StatusCode)

	req = httptest.NewRequest("GET", "/v1/devices/tok-1", nil)
	resp, err = app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 404, resp.StatusCode)
}

func TestDeviceHandler_List_Empty(t *testing.T) {
	app := newDeviceApp(newFakeDeviceService(), &fakeSettingsService{})

	req := httptest.NewRequest("GET", "/v1/devices", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	assert.Equal(t, 200, resp.StatusCode)

	var devices []domain.Device
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&devices))
	assert.Empty(t, devices)
}

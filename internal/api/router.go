package api

import (
	"context"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	swagger "github.com/go-swagno/swagno-fiber/swagger"

	"github.com/facegate/facegate/internal/api/docs"
	"github.com/facegate/facegate/internal/api/handler"
	"github.com/facegate/facegate/internal/api/middleware"
)

// Dependencies are the collaborators the HTTP surface exposes. Any nil
// field leaves its routes unregistered, which keeps handler tests and
// partial boots cheap.
type Dependencies struct {
	DB        handler.Pinger
	Directory handler.BindingDirectory
	Events    handler.EventService
	Devices   handler.DeviceService
	Settings  handler.SettingsService
	Callbacks handler.CallbackRegistry
}

type Router struct {
	app    *fiber.App
	logger *slog.Logger
	deps   *Dependencies
}

func NewRouter(logger *slog.Logger, deps *Dependencies) *Router {
	app := fiber.New(fiber.Config{
		ErrorHandler: middleware.ErrorHandler(logger),
		AppName:      "Facegate API",
		BodyLimit:    12 * 1024 * 1024,
	})

	return &Router{
		app:    app,
		logger: logger,
		deps:   deps,
	}
}

func (r *Router) Setup() {
	// Global middlewares
	r.app.Use(requestid.New())
	r.app.Use(middleware.Recover(r.logger))
	r.app.Use(middleware.Logger(r.logger))
	r.app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin,Content-Type,Accept,Authorization",
	}))

	// Swagger documentation
	sw := docs.NewSwagger()
	swagger.SwaggerHandler(r.app, sw.MustToJson())

	// Health check endpoints
	var db handler.Pinger
	if r.deps != nil {
		db = r.deps.DB
	}
	healthHandler := handler.NewHealthHandler(db)
	r.app.Get("/health", healthHandler.Health)
	r.app.Get("/ready", healthHandler.Ready)

	if r.deps == nil {
		return
	}

	v1 := r.app.Group("/v1")

	if r.deps.Directory != nil {
		bindings := handler.NewBindingHandler(r.deps.Directory)
		v1.Post("/streams/:source/bindings", bindings.Bind)
		v1.Delete("/streams/:source/bindings/:token", bindings.Unbind)
		v1.Get("/streams/:source/bindings", bindings.List)
	}

	if r.deps.Events != nil {
		events := handler.NewEventHandler(r.deps.Events)
		v1.Post("/events", events.Create)
	}

	if r.deps.Devices != nil && r.deps.Settings != nil {
		devices := handler.NewDeviceHandler(r.deps.Devices, r.deps.Settings)
		v1.Post("/devices", devices.Register)
		v1.Get("/devices", devices.List)
		v1.Get("/devices/:token", devices.Get)
		v1.Delete("/devices/:token", devices.Delete)
	}

	if r.deps.Settings != nil {
		settings := handler.NewSettingsHandler(r.deps.Settings)
		v1.Put("/settings/server", settings.SetServer)
		v1.Get("/settings/server", settings.GetServer)
	}

	if r.deps.Callbacks != nil {
		callbacks := handler.NewCallbackHandler(r.deps.Callbacks)
		v1.Post("/callbacks", callbacks.Register)
		v1.Delete("/callbacks", callbacks.Unregister)
		v1.Get("/callbacks", callbacks.List)
	}
}

func (r *Router) Listen(addr string) error {
	return r.app.Listen(addr)
}

// Shutdown drains in-flight requests, giving up when ctx expires.
func (r *Router) Shutdown(ctx context.Context) error {
	return r.app.ShutdownWithContext(ctx)
}

// App exposes the fiber app for tests.
func (r *Router) App() *fiber.App {
	return r.app
}

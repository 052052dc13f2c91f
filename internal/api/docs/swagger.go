package docs

import (
	"github.com/go-swagno/swagno"
	"github.com/go-swagno/swagno/components/endpoint"
	"github.com/go-swagno/swagno/components/http/response"
	"github.com/go-swagno/swagno/components/mime"
	"github.com/go-swagno/swagno/components/parameter"
)

// BindingsData lists the device tokens bound to a stream source
type BindingsData struct {
	Source string   `json:"source" example:"cam-lobby"`
	Tokens []string `json:"tokens" example:"[\"9f2c4a\"]"`
}

// EventData is the outcome of a direct recognition request
type EventData struct {
	SubjectID  int64   `json:"subject_id" example:"1042"`
	Confidence float64 `json:"confidence" example:"0.93"`
}

// DeviceData describes a registered device
type DeviceData struct {
	ID        string `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	CompanyID int64  `json:"company_id" example:"42"`
	Token     string `json:"token" example:"9f2c4a"`
	Name      string `json:"name" example:"lobby-pad"`
	Location  string `json:"location" example:"east-gate"`
	Network   string `json:"network" example:"cam-lobby"`
	Serial    string `json:"serial" example:"SN-0042"`
}

// ServerData is the stored record server context (secret omitted)
type ServerData struct {
	Host string `json:"host" example:"http://records.internal"`
	Port int    `json:"port" example:"8090"`
}

// CallbacksData lists the registered webhook destinations
type CallbacksData struct {
	Destinations []string `json:"destinations" example:"[\"http://hooks.internal/events\"]"`
}

// HealthData is the liveness/readiness probe payload
type HealthData struct {
	Status  string `json:"status" example:"ok"`
	Version string `json:"version,omitempty" example:"0.1.0"`
}

// ErrorResponse represents a standard error response
type ErrorResponse struct {
	Code    string `json:"code" example:"VALIDATION_FAILED"`
	Message string `json:"message" example:"Request validation failed"`
}

// EmptyResponse represents no content response (204)
type EmptyResponse struct{}

func NewSwagger() *swagno.Swagger {
	sw := swagno.New(swagno.Config{
		Title:       "Facegate API",
		Version:     "v1.0.0",
		Description: "Face-detection event gateway: stream-to-device bindings, per-device recognition pipeline, webhook fanout",
		Host:        "localhost:3000",
		Path:        "/v1",
	})

	validationErr := response.New(ErrorResponse{Code: "VALIDATION_FAILED", Message: "Request validation failed"}, "422", "Unprocessable Entity")
	internalErr := response.New(ErrorResponse{Code: "INTERNAL_ERROR", Message: "An unexpected error occurred"}, "500", "Internal Server Error")
	serverUnsetErr := response.New(ErrorResponse{Code: "SERVER_NOT_CONFIGURED", Message: "Record server is not set up yet"}, "412", "Precondition Failed")

	endpoints := []*endpoint.EndPoint{
		// POST /v1/events - Direct recognition
		endpoint.New(
			endpoint.POST,
			"/events",
			endpoint.WithTags("Events"),
			endpoint.WithSummary("Run recognition for one device"),
			endpoint.WithDescription("Runs the full recognition pipeline (recognize, liveness, snapshot upload, record upload) for an explicitly addressed device. The device field accepts a token or a location."),
			endpoint.WithConsume([]mime.MIME{mime.MIME("multipart/form-data")}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EventData{}, "200", "Subject recognized"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "DEVICE_NOT_FOUND", Message: "Device not found"}, "404", "Not Found"),
				serverUnsetErr,
				response.New(ErrorResponse{Code: "NO_FACE_RECOGNIZED", Message: "Face is not recognizable"}, "422", "Unprocessable Entity"),
				internalErr,
			}),
		),

		// POST /v1/streams/{source}/bindings - Bind device
		endpoint.New(
			endpoint.POST,
			"/streams/{source}/bindings",
			endpoint.WithTags("Streams"),
			endpoint.WithSummary("Bind a device to a stream source"),
			endpoint.WithDescription("Adds the device token to the source's binding set. Binding the same token twice is a no-op."),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("source", parameter.Path, parameter.WithDescription("Stream source identifier")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(BindingsData{}, "201", "Binding created"),
			}),
			endpoint.WithErrors([]response.Response{validationErr, internalErr}),
		),

		// DELETE /v1/streams/{source}/bindings/{token} - Unbind device
		endpoint.New(
			endpoint.DELETE,
			"/streams/{source}/bindings/{token}",
			endpoint.WithTags("Streams"),
			endpoint.WithSummary("Unbind a device from a stream source"),
			endpoint.WithDescription("Removes the token and returns the remaining binding set. Unbinding an unbound token is a no-op."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("source", parameter.Path, parameter.WithDescription("Stream source identifier")),
				parameter.StrParam("token", parameter.Path, parameter.WithDescription("Device token")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(BindingsData{}, "200", "Binding removed"),
			}),
			endpoint.WithErrors([]response.Response{validationErr, internalErr}),
		),

		// GET /v1/streams/{source}/bindings - List bindings
		endpoint.New(
			endpoint.GET,
			"/streams/{source}/bindings",
			endpoint.WithTags("Streams"),
			endpoint.WithSummary("List devices bound to a stream source"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("source", parameter.Path, parameter.WithDescription("Stream source identifier")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(BindingsData{}, "200", "Current bindings"),
			}),
			endpoint.WithErrors([]response.Response{internalErr}),
		),

		// POST /v1/devices - Register device
		endpoint.New(
			endpoint.POST,
			"/devices",
			endpoint.WithTags("Devices"),
			endpoint.WithSummary("Register a device"),
			endpoint.WithDescription("Enrolls the device against the record backend (login, company resolution) and stores its credentials."),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(DeviceData{}, "201", "Device registered"),
			}),
			endpoint.WithErrors([]response.Response{
				validationErr,
				serverUnsetErr,
				response.New(ErrorResponse{Code: "DEVICE_ALREADY_EXISTS", Message: "Device already registered with this token"}, "409", "Conflict"),
				response.New(ErrorResponse{Code: "BACKEND_REJECTED", Message: "Record backend rejected the request"}, "502", "Bad Gateway"),
				internalErr,
			}),
		),

		// GET /v1/devices - List devices
		endpoint.New(
			endpoint.GET,
			"/devices",
			endpoint.WithTags("Devices"),
			endpoint.WithSummary("List registered devices"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New([]DeviceData{}, "200", "Registered devices"),
			}),
			endpoint.WithErrors([]response.Response{internalErr}),
		),

		// GET /v1/devices/{token} - Get device
		endpoint.New(
			endpoint.GET,
			"/devices/{token}",
			endpoint.WithTags("Devices"),
			endpoint.WithSummary("Get one device"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithParams(
				parameter.StrParam("token", parameter.Path, parameter.WithDescription("Device token")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(DeviceData{}, "200", "Device"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "DEVICE_NOT_FOUND", Message: "Device not found"}, "404", "Not Found"),
				internalErr,
			}),
		),

		// DELETE /v1/devices/{token} - Remove device
		endpoint.New(
			endpoint.DELETE,
			"/devices/{token}",
			endpoint.WithTags("Devices"),
			endpoint.WithSummary("Remove a device"),
			endpoint.WithParams(
				parameter.StrParam("token", parameter.Path, parameter.WithDescription("Device token")),
			),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EmptyResponse{}, "204", "Device removed"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "DEVICE_NOT_FOUND", Message: "Device not found"}, "404", "Not Found"),
				internalErr,
			}),
		),

		// PUT /v1/settings/server - Set record server
		endpoint.New(
			endpoint.PUT,
			"/settings/server",
			endpoint.WithTags("Settings"),
			endpoint.WithSummary("Point the gateway at a record backend"),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(ServerData{}, "200", "Server stored"),
			}),
			endpoint.WithErrors([]response.Response{validationErr, internalErr}),
		),

		// GET /v1/settings/server - Get record server
		endpoint.New(
			endpoint.GET,
			"/settings/server",
			endpoint.WithTags("Settings"),
			endpoint.WithSummary("Get the configured record backend"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(ServerData{}, "200", "Server context"),
			}),
			endpoint.WithErrors([]response.Response{serverUnsetErr, internalErr}),
		),

		// POST /v1/callbacks - Register webhook
		endpoint.New(
			endpoint.POST,
			"/callbacks",
			endpoint.WithTags("Callbacks"),
			endpoint.WithSummary("Register a webhook destination"),
			endpoint.WithDescription("Recognized events are POSTed to every registered destination, fire-and-forget."),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(CallbacksData{}, "201", "Destination registered"),
			}),
			endpoint.WithErrors([]response.Response{validationErr, internalErr}),
		),

		// DELETE /v1/callbacks - Unregister webhook
		endpoint.New(
			endpoint.DELETE,
			"/callbacks",
			endpoint.WithTags("Callbacks"),
			endpoint.WithSummary("Unregister a webhook destination"),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(CallbacksData{}, "200", "Destination removed"),
			}),
			endpoint.WithErrors([]response.Response{validationErr, internalErr}),
		),

		// GET /v1/callbacks - List webhooks
		endpoint.New(
			endpoint.GET,
			"/callbacks",
			endpoint.WithTags("Callbacks"),
			endpoint.WithSummary("List webhook destinations"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(CallbacksData{}, "200", "Registered destinations"),
			}),
			endpoint.WithErrors([]response.Response{internalErr}),
		),
	}

	sw.AddEndpoints(endpoints)

	return sw
}

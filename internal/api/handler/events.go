package handler

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/facegate/facegate/internal/domain"
)

const (
	maxImageSize = 10 * 1024 * 1024 // 10MB
)

var validImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
}

// EventService runs the recognition pipeline for one explicitly addressed
// device.
type EventService interface {
	HandleDirectEvent(ctx context.Context, key string, image []byte, filename string, timestamp int64, thresholdOverride *float64) (*domain.RecognizedSubject, error)
}

type EventHandler struct {
	service EventService
}

func NewEventHandler(service EventService) *EventHandler {
	return &EventHandler{service: service}
}

// EventResponse is the outcome of a direct recognition request.
type EventResponse struct {
	SubjectID  int64   `json:"subject_id"`
	Confidence float64 `json:"confidence"`
}

// Create POST /v1/events - run recognition for one device
//
// Multipart form: image (file), device (token or location), optional
// timestamp (unix seconds) and liveness_threshold.
func (h *EventHandler) Create(c *fiber.Ctx) error {
	device := strings.TrimSpace(c.FormValue("device"))
	if device == "" {
		return domain.ErrValidationFailed.WithError(errors.New("device is required"))
	}

	image, filename, err := extractAndValidateImage(c)
	if err != nil {
		return fmt.Errorf("direct event: %w", err)
	}

	timestamp := time.Now().Unix()
	if raw := strings.TrimSpace(c.FormValue("timestamp")); raw != "" {
		timestamp, err = strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return domain.ErrValidationFailed.WithError(errors.New("timestamp must be unix seconds"))
		}
	}

	var thresholdOverride *float64
	if raw := strings.TrimSpace(c.FormValue("liveness_threshold")); raw != "" {
		threshold, err := strconv.ParseFloat(raw, 64)
		if err != nil || threshold < 0 || threshold > 1 {
			return domain.ErrValidationFailed.WithError(errors.New("liveness_threshold must be in [0, 1]"))
		}
		thresholdOverride = &threshold
	}

	subject, err := h.service.HandleDirectEvent(c.Context(), device, image, filename, timestamp, thresholdOverride)
	if err != nil {
		return err
	}

	return c.JSON(EventResponse{
		SubjectID:  subject.SubjectID,
		Confidence: subject.Confidence,
	})
}

// extractAndValidateImage extracts and validates the image from the form
func extractAndValidateImage(c *fiber.Ctx) ([]byte, string, error) {
	file, err := c.FormFile("image")
	if err != nil {
		return nil, "", domain.ErrValidationFailed.WithError(err)
	}

	if file.Size > maxImageSize || file.Size == 0 {
		return nil, "", domain.ErrInvalidImage.WithError(nil)
	}

	contentType := file.Header.Get("Content-Type")
	if !validImageTypes[contentType] {
		return nil, "", domain.ErrInvalidImage.WithError(nil)
	}

	f, err := file.Open()
	if err != nil {
		return nil, "", domain.ErrInvalidImage.WithError(err)
	}
	defer func() {
		_ = f.Close()
	}()

	image, err := io.ReadAll(f)
	if err != nil {
		return nil, "", domain.ErrInvalidImage.WithError(err)
	}

	return image, file.Filename, nil
}

package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/facegate/facegate/internal/domain"
)

// DirectoryResolver maps a stream source to the live devices bound to it.
type DirectoryResolver interface {
	Resolve(ctx context.Context, source string) ([]*domain.Device, error)
}

// DeviceFinder resolves single devices for direct (non-stream) events.
type DeviceFinder interface {
	GetByToken(ctx context.Context, token string) (*domain.Device, error)
	GetByLocation(ctx context.Context, location string) (*domain.Device, error)
}

// ServerSource yields the currently configured backend endpoint.
type ServerSource interface {
	Server(ctx context.Context) (domain.ServerInfo, error)
}

// Publisher republishes a recognized subject onto the message bus.
type Publisher interface {
	PublishRecognized(ctx context.Context, event domain.FaceEvent, subject domain.RecognizedSubject) error
}

// Orchestrator drives the per-event fan-out: one pipeline run per bound
// device, each isolated from its siblings.
type Orchestrator struct {
	pipeline  *Pipeline
	directory DirectoryResolver
	devices   DeviceFinder
	settings  ServerSource
	publisher Publisher
	logger    *slog.Logger
}

func NewOrchestrator(pipeline *Pipeline, directory DirectoryResolver, devices DeviceFinder, settings ServerSource, publisher Publisher, logger *slog.Logger) *Orchestrator {
	return &Orchestrator{
		pipeline:  pipeline,
		directory: directory,
		devices:   devices,
		settings:  settings,
		publisher: publisher,
		logger:    logger,
	}
}

// HandleBoundSourceEvent resolves the devices bound to the event's source
// and runs the pipeline once per device, concurrently. Per-device failures
// are logged and contained; recognized subjects are republished on the bus.
func (o *Orchestrator) HandleBoundSourceEvent(ctx context.Context, event domain.FaceEvent) error {
	server, err := o.settings.Server(ctx)
	if err != nil {
		return fmt.Errorf("resolve server: %w", err)
	}

	devices, err := o.directory.Resolve(ctx, event.Source)
	if err != nil {
		return fmt.Errorf("resolve devices for %s: %w", event.Source, err)
	}
	if len(devices) == 0 {
		o.logger.Debug("no devices bound to source", "source", event.Source)
		return nil
	}

	filename := fmt.Sprintf("%s-%d.jpg", event.Source, event.Timestamp)

	var wg sync.WaitGroup
	for _, device := range devices {
		wg.Add(1)
		go func(device *domain.Device) {
			defer wg.Done()
			subject, err := o.pipeline.Run(ctx, server, device, event.Image, filename, event.Timestamp, nil)
			if err != nil {
				o.logger.Error("pipeline run failed", "device", device.Token, "source", event.Source, "error", err)
				return
			}
			if subject == nil {
				return
			}
			if o.publisher == nil {
				return
			}
			if err := o.publisher.PublishRecognized(ctx, event, *subject); err != nil {
				o.logger.Error("republish failed", "device", device.Token, "source", event.Source, "error", err)
			}
		}(device)
	}
	wg.Wait()

	return nil
}

// HandleDirectEvent runs the pipeline for one explicitly addressed device,
// found by token or, failing that, by location. An unmatched face is an
// error here: the caller asked about this device specifically.
func (o *Orchestrator) HandleDirectEvent(ctx context.Context, key string, image []byte, filename string, timestamp int64, thresholdOverride *float64) (*domain.RecognizedSubject, error) {
	server, err := o.settings.Server(ctx)
	if err != nil {
		return nil, fmt.Errorf("resolve server: %w", err)
	}

	device, err := o.devices.GetByToken(ctx, key)
	if err != nil {
		device, err = o.devices.GetByLocation(ctx, key)
		if err != nil {
			return nil, domain.ErrDeviceNotFound
		}
	}

	subject, err := o.pipeline.Run(ctx, server, device, image, filename, timestamp, thresholdOverride)
	if err != nil {
		return nil, err
	}
	if subject == nil {
		return nil, domain.ErrNoFaceRecognized
	}
	return subject, nil
}

// Package pipeline coordinates one recognition run per device and event:
// recognition, liveness and photo upload fire concurrently, join at a
// barrier, and the decision rules determine whether a record is uploaded.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/facegate/facegate/internal/callback"
	"github.com/facegate/facegate/internal/domain"
)

// Recognizer is the face-matching and anti-spoofing collaborator.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte, filename, group string) (*domain.RecognitionResult, error)
	CheckLiveness(ctx context.Context, image []byte) (float64, error)
}

// RecordUploader is the backend collaborator for snapshots and records.
type RecordUploader interface {
	UploadPhoto(ctx context.Context, server domain.ServerInfo, device *domain.Device, image []byte, filename string) (string, error)
	UploadEvent(ctx context.Context, server domain.ServerInfo, device *domain.Device, ev *domain.UploadedEvent) error
}

// Notifier fans a successful event out to registered webhooks.
type Notifier interface {
	Notify(ctx context.Context, event callback.EventNotification)
}

type Config struct {
	// GroupSyncURL is the recognizer group base; the device's company id is
	// appended per call.
	GroupSyncURL string
	// LivenessThreshold separates LIVING from NONLIVING classifications.
	LivenessThreshold float64
}

type Pipeline struct {
	vision  Recognizer
	backend RecordUploader
	fanout  Notifier
	config  Config
	logger  *slog.Logger
}

func New(vision Recognizer, backend RecordUploader, fanout Notifier, config Config, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		vision:  vision,
		backend: backend,
		fanout:  fanout,
		config:  config,
		logger:  logger,
	}
}

// Run executes the pipeline for one device and one captured image. It
// returns nil (and no error) when the event is discarded by the decision
// rules; an error only when the final record upload fails.
//
// The three opening calls are each fault-isolated: a failure yields an
// absent result for that call alone and never aborts the siblings.
func (p *Pipeline) Run(ctx context.Context, server domain.ServerInfo, device *domain.Device, image []byte, filename string, timestamp int64, thresholdOverride *float64) (*domain.RecognizedSubject, error) {
	var (
		recognition *domain.RecognitionResult
		liveness    *float64
		photoKey    string
	)

	group := fmt.Sprintf("%s?company=%d", p.config.GroupSyncURL, device.CompanyID)

	var wg sync.WaitGroup
	wg.Add(3)

	go func() {
		defer wg.Done()
		result, err := p.vision.Recognize(ctx, image, filename, group)
		if err != nil {
			p.logger.Error("recognition failed", "device", device.Token, "error", err)
			return
		}
		recognition = result
	}()

	go func() {
		defer wg.Done()
		score, err := p.vision.CheckLiveness(ctx, image)
		if err != nil {
			p.logger.Error("liveness check failed", "device", device.Token, "error", err)
			return
		}
		liveness = &score
	}()

	go func() {
		defer wg.Done()
		key, err := p.backend.UploadPhoto(ctx, server, device, image, filename)
		if err != nil {
			p.logger.Error("photo upload failed", "device", device.Token, "error", err)
			return
		}
		photoKey = key
	}()

	wg.Wait()

	// A detected-but-unmatched face, or a transient storage outage, never
	// produces a record.
	if recognition == nil || photoKey == "" || !recognition.Recognized {
		p.logger.Warn("face is not recognizable", "device", device.Token)
		return nil, nil
	}

	threshold := p.config.LivenessThreshold
	if thresholdOverride != nil {
		threshold = *thresholdOverride
	}

	livenessScore := 1.0
	livenessType := domain.LivenessNotDetected
	if liveness != nil {
		livenessScore = *liveness
		if livenessScore >= threshold {
			livenessType = domain.LivenessLiving
		} else {
			livenessType = domain.LivenessNonLiving
		}
	}

	event := &domain.UploadedEvent{
		DeviceToken:      device.Token,
		SubjectID:        recognition.SubjectID,
		PhotoKey:         photoKey,
		RecognitionType:  domain.RecognitionEmployee,
		VerificationMode: domain.VerificationFace,
		PassType:         domain.PassGranted,
		RecognitionScore: recognition.Confidence,
		LivenessScore:    livenessScore,
		LivenessType:     livenessType,
		Timestamp:        timestamp,
	}

	// A failed record upload is terminal for this device's run: logged,
	// not retried, invisible to sibling devices.
	if err := p.backend.UploadEvent(ctx, server, device, event); err != nil {
		p.logger.Error("event upload failed", "device", device.Token, "error", err)
		return nil, fmt.Errorf("upload event for %s: %w", device.Token, err)
	}

	p.fanout.Notify(ctx, callback.EventNotification{
		SubjectID:        event.SubjectID,
		SnapshotURI:      event.PhotoKey,
		RecognitionType:  event.RecognitionType,
		VerificationMode: event.VerificationMode,
		PassType:         event.PassType,
		RecognitionScore: event.RecognitionScore,
		LivenessScore:    event.LivenessScore,
		LivenessType:     event.LivenessType,
		Timestamp:        event.Timestamp,
		ScreenToken:      device.Token,
		ScreenSource:     device.Network,
		ScreenName:       device.Name,
	})

	return &domain.RecognizedSubject{
		SubjectID:  recognition.SubjectID,
		Confidence: recognition.Confidence,
	}, nil
}

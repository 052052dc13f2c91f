// Package callback manages the registered webhook destinations and the
// best-effort delivery of uploaded events to them. Delivery is
// fire-and-forget: failures are logged and swallowed, never retried, and
// never reach the pipeline that triggered them.
package callback

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/facegate/facegate/internal/domain"
	"github.com/facegate/facegate/internal/store"
)

const (
	destinationsKey = "callback-destinations"
	maxSwapAttempts = 16
)

// EventNotification is the webhook payload: every UploadedEvent field plus
// the originating screen's identity.
type EventNotification struct {
	SubjectID        int64                   `json:"subject_id"`
	SnapshotURI      string                  `json:"snapshot_uri"`
	RecognitionType  domain.RecognitionType  `json:"recognition_type"`
	VerificationMode domain.VerificationMode `json:"verification_mode"`
	PassType         domain.PassType         `json:"pass_type"`
	RecognitionScore float64                 `json:"recognition_score"`
	LivenessScore    float64                 `json:"liveness_score"`
	LivenessType     domain.LivenessType     `json:"liveness_type"`
	Timestamp        int64                   `json:"timestamp"`
	ScreenToken      string                  `json:"screen_token"`
	ScreenSource     string                  `json:"screen_source"`
	ScreenName       string                  `json:"screen_name"`
}

type Fanout struct {
	store  store.KeyedStore
	client *http.Client
	logger *slog.Logger
}

func NewFanout(kv store.KeyedStore, timeout time.Duration, logger *slog.Logger) *Fanout {
	return &Fanout{
		store: kv,
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Register adds a destination. Idempotent.
func (f *Fanout) Register(ctx context.Context, destination string) error {
	if destination == "" {
		return domain.ErrValidationFailed.WithError(errors.New("destination can not be empty"))
	}
	_, err := f.mutate(ctx, func(dests []string) ([]string, bool) {
		for _, d := range dests {
			if d == destination {
				return dests, false
			}
		}
		return append(dests, destination), true
	})
	if err != nil {
		return fmt.Errorf("register callback: %w", err)
	}
	return nil
}

// Unregister removes a destination and returns the remaining set.
// Removing an unknown destination is a no-op.
func (f *Fanout) Unregister(ctx context.Context, destination string) ([]string, error) {
	remaining, err := f.mutate(ctx, func(dests []string) ([]string, bool) {
		for i, d := range dests {
			if d == destination {
				return append(dests[:i:i], dests[i+1:]...), true
			}
		}
		return dests, false
	})
	if err != nil {
		return nil, fmt.Errorf("unregister callback: %w", err)
	}
	return remaining, nil
}

// Destinations returns the registered destination set.
func (f *Fanout) Destinations(ctx context.Context) ([]string, error) {
	dests, _, err := f.load(ctx)
	return dests, err
}

// Notify posts event to every destination, each independently. It joins
// all deliveries before returning; individual failures are logged only.
func (f *Fanout) Notify(ctx context.Context, event EventNotification) {
	destinations, err := f.Destinations(ctx)
	if err != nil {
		f.logger.Error("failed to read callback destinations", "error", err)
		return
	}
	if len(destinations) == 0 {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		f.logger.Error("failed to marshal callback payload", "error", err)
		return
	}

	var wg sync.WaitGroup
	for _, destination := range destinations {
		wg.Add(1)
		go func(destination string) {
			defer wg.Done()
			if err := f.deliver(ctx, destination, payload); err != nil {
				f.logger.Warn("callback delivery failed",
					"destination", destination,
					"screen_token", event.ScreenToken,
					"error", err,
				)
			}
		}(destination)
	}
	wg.Wait()
}

func (f *Fanout) deliver(ctx context.Context, destination string, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, destination, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return err
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 400 {
		return fmt.Errorf("HTTP %d", resp.StatusCode)
	}
	return nil
}

func (f *Fanout) load(ctx context.Context) ([]string, []byte, error) {
	raw, err := f.store.Get(ctx, destinationsKey)
	if err != nil {
		if errors.Is(err, store.ErrKeyNotFound) {
			return []string{}, nil, nil
		}
		return nil, nil, fmt.Errorf("read callback destinations: %w", err)
	}

	var dests []string
	if err := json.Unmarshal(raw, &dests); err != nil {
		return nil, nil, fmt.Errorf("decode callback destinations: %w", err)
	}
	return dests, raw, nil
}

func (f *Fanout) mutate(ctx context.Context, fn func([]string) ([]string, bool)) ([]string, error) {
	for attempt := 0; attempt < maxSwapAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		dests, raw, err := f.load(ctx)
		if err != nil {
			return nil, err
		}

		next, changed := fn(dests)
		if !changed {
			return next, nil
		}

		value, err := json.Marshal(next)
		if err != nil {
			return nil, fmt.Errorf("encode callback destinations: %w", err)
		}

		err = f.store.CompareAndSwap(ctx, destinationsKey, raw, value)
		if err == nil {
			return next, nil
		}
		if !errors.Is(err, store.ErrSwapConflict) {
			return nil, err
		}
	}
	return nil, errors.New("callback destination update kept losing the swap")
}

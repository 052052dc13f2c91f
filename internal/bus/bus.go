// Package bus connects the gateway to the MQTT broker: it consumes raw
// face detections from the detector fleet and republishes recognized
// subjects for downstream consumers.
package bus

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/facegate/facegate/internal/domain"
)

const (
	connectTimeout = 5 * time.Second
	publishTimeout = 2 * time.Second
)

// EventHandler receives decoded face detections. Implemented by the
// pipeline orchestrator.
type EventHandler interface {
	HandleBoundSourceEvent(ctx context.Context, event domain.FaceEvent) error
}

type Config struct {
	Broker          string
	ClientID        string
	DetectTopic     string
	RecognizedTopic string
}

type Bus struct {
	config Config
	client mqtt.Client
	logger *slog.Logger

	mu        sync.RWMutex
	connected bool
}

func New(config Config, logger *slog.Logger) *Bus {
	return &Bus{
		config: config,
		logger: logger,
	}
}

// Connect dials the broker and blocks until the session is up or the
// timeout elapses. Reconnection afterwards is automatic.
func (b *Bus) Connect(ctx context.Context) error {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(fmt.Sprintf("tcp://%s", b.config.Broker))
	opts.SetClientID(b.config.ClientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectRetry(true)
	opts.SetConnectRetryInterval(2 * time.Second)
	opts.SetMaxReconnectInterval(30 * time.Second)

	opts.OnConnect = func(c mqtt.Client) {
		b.mu.Lock()
		b.connected = true
		b.mu.Unlock()
		b.logger.Info("mqtt connection established", "broker", b.config.Broker, "client_id", b.config.ClientID)
	}

	opts.OnConnectionLost = func(c mqtt.Client, err error) {
		b.mu.Lock()
		b.connected = false
		b.mu.Unlock()
		b.logger.Warn("mqtt connection lost, will auto-reconnect", "broker", b.config.Broker, "error", err)
	}

	b.client = mqtt.NewClient(opts)

	token := b.client.Connect()
	if !token.WaitTimeout(connectTimeout) {
		return fmt.Errorf("mqtt connection timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt connection failed: %w", err)
	}

	b.mu.Lock()
	b.connected = true
	b.mu.Unlock()

	return nil
}

// Subscribe registers handler for every message on the detect topic. Each
// message is processed on its own goroutine; malformed payloads are logged
// and skipped.
func (b *Bus) Subscribe(ctx context.Context, handler EventHandler) error {
	token := b.client.Subscribe(b.config.DetectTopic, 0, func(_ mqtt.Client, msg mqtt.Message) {
		event, err := decodeFaceDetect(msg.Payload())
		if err != nil {
			b.logger.Warn("discarding malformed detection", "topic", msg.Topic(), "error", err)
			return
		}
		go func() {
			if err := handler.HandleBoundSourceEvent(ctx, event); err != nil {
				b.logger.Error("detection handling failed", "source", event.Source, "error", err)
			}
		}()
	})
	if !token.WaitTimeout(connectTimeout) {
		return fmt.Errorf("mqtt subscribe timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("mqtt subscribe failed: %w", err)
	}

	b.logger.Info("subscribed to detections", "topic", b.config.DetectTopic)
	return nil
}

// PublishRecognized republishes a successful match on the recognized topic.
func (b *Bus) PublishRecognized(_ context.Context, event domain.FaceEvent, subject domain.RecognizedSubject) error {
	if !b.isConnected() {
		return fmt.Errorf("mqtt not connected")
	}

	payload, err := json.Marshal(recognizedMessage{
		Source:     event.Source,
		TrackingID: event.TrackingID,
		Timestamp:  event.Timestamp,
		SubjectID:  subject.SubjectID,
		Confidence: subject.Confidence,
	})
	if err != nil {
		return fmt.Errorf("marshal recognized event: %w", err)
	}

	token := b.client.Publish(b.config.RecognizedTopic, 0, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		return fmt.Errorf("publish timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish failed: %w", err)
	}

	b.logger.Debug("recognized event published", "topic", b.config.RecognizedTopic, "subject", subject.SubjectID)
	return nil
}

// Disconnect drains in-flight messages and closes the session.
func (b *Bus) Disconnect() {
	if b.client != nil && b.client.IsConnected() {
		b.client.Disconnect(250)
		b.logger.Info("mqtt disconnected")
	}

	b.mu.Lock()
	b.connected = false
	b.mu.Unlock()
}

func (b *Bus) isConnected() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.connected
}

func decodeFaceDetect(payload []byte) (domain.FaceEvent, error) {
	var msg faceDetectMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return domain.FaceEvent{}, fmt.Errorf("unmarshal detection: %w", err)
	}
	if msg.Source == "" {
		return domain.FaceEvent{}, fmt.Errorf("detection missing source")
	}
	image, err := base64.StdEncoding.DecodeString(msg.Head)
	if err != nil {
		return domain.FaceEvent{}, fmt.Errorf("decode head: %w", err)
	}
	if len(image) == 0 {
		return domain.FaceEvent{}, fmt.Errorf("detection missing head image")
	}
	return domain.FaceEvent{
		Source:     msg.Source,
		TrackingID: msg.TrackingID,
		Timestamp:  msg.Timestamp,
		Image:      image,
		BBox:       msg.boundingBox(),
	}, nil
}

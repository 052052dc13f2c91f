package pipeline

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facegate/facegate/internal/domain"
)

type fakeDirectory struct {
	devices []*domain.Device
	err     error
}

func (f *fakeDirectory) Resolve(_ context.Context, _ string) ([]*domain.Device, error) {
	return f.devices, f.err
}

type fakeDeviceFinder struct {
	byToken    map[string]*domain.Device
	byLocation map[string]*domain.Device
}

func (f *fakeDeviceFinder) GetByToken(_ context.Context, token string) (*domain.Device, error) {
	if d, ok := f.byToken[token]; ok {
		return d, nil
	}
	return nil, domain.ErrDeviceNotFound
}

func (f *fakeDeviceFinder) GetByLocation(_ context.Context, location string) (*domain.Device, error) {
	if d, ok := f.byLocation[location]; ok {
		return d, nil
	}
	return nil, domain.ErrDeviceNotFound
}

type fakeSettings struct {
	server domain.ServerInfo
	err    error
}

func (f *fakeSettings) Server(_ context.Context) (domain.ServerInfo, error) {
	return f.server, f.err
}

type fakePublisher struct {
	mu       sync.Mutex
	subjects []domain.RecognizedSubject
	err      error
}

func (f *fakePublisher) PublishRecognized(_ context.Context, _ domain.FaceEvent, subject domain.RecognizedSubject) error {
	if f.err != nil {
		return f.err
	}
	f.mu.Lock()
	f.subjects = append(f.subjects, subject)
	f.mu.Unlock()
	return nil
}

func newTestOrchestrator(recognizer *fakeRecognizer, uploader *fakeUploader, directory *fakeDirectory, finder *fakeDeviceFinder, settings *fakeSettings, publisher *fakePublisher) *Orchestrator {
	p := New(recognizer, uploader, &fakeNotifier{}, Config{LivenessThreshold: 0.8}, discardLogger())
	return NewOrchestrator(p, directory, finder, settings, publisher, discardLogger())
}

func TestHandleBoundSourceEventRunsEveryDevice(t *testing.T) {
	recognizer := &fakeRecognizer{
		result:   &domain.RecognitionResult{Recognized: true, SubjectID: 5, Confidence: 0.95},
		liveness: 0.9,
	}
	uploader := &fakeUploader{photoKey: "k"}
	directory := &fakeDirectory{devices: []*domain.Device{testDevice("a"), testDevice("b"), testDevice("c")}}
	publisher := &fakePublisher{}

	o := newTestOrchestrator(recognizer, uploader, directory, &fakeDeviceFinder{}, &fakeSettings{server: testServer()}, publisher)

	err := o.HandleBoundSourceEvent(context.Background(), domain.FaceEvent{Source: "cam-1", Timestamp: 100, Image: []byte("x")})
	require.NoError(t, err)
	assert.Len(t, uploader.uploaded, 3)
	assert.Len(t, publisher.subjects, 3)
}

func TestHandleBoundSourceEventIsolatesDeviceFailures(t *testing.T) {
	recognizer := &fakeRecognizer{
		result:   &domain.RecognitionResult{Recognized: true, SubjectID: 5, Confidence: 0.95},
		liveness: 0.9,
	}
	// The middle device's storage upload fails; its siblings are untouched.
	uploader := &fakeUploader{
		photoKey:  "k",
		perDevice: map[string]error{"b": errors.New("storage down")},
	}
	directory := &fakeDirectory{devices: []*domain.Device{testDevice("a"), testDevice("b"), testDevice("c")}}
	publisher := &fakePublisher{}

	o := newTestOrchestrator(recognizer, uploader, directory, &fakeDeviceFinder{}, &fakeSettings{server: testServer()}, publisher)

	err := o.HandleBoundSourceEvent(context.Background(), domain.FaceEvent{Source: "cam-1", Timestamp: 100, Image: []byte("x")})
	require.NoError(t, err)
	assert.Len(t, uploader.uploaded, 2)
	assert.Len(t, publisher.subjects, 2)

	tokens := make([]string, 0, len(uploader.uploaded))
	for _, ev := range uploader.uploaded {
		tokens = append(tokens, ev.DeviceToken)
	}
	assert.ElementsMatch(t, []string{"a", "c"}, tokens)
}

func TestHandleBoundSourceEventNoServerConfigured(t *testing.T) {
	uploader := &fakeUploader{}
	o := newTestOrchestrator(&fakeRecognizer{}, uploader, &fakeDirectory{}, &fakeDeviceFinder{}, &fakeSettings{err: domain.ErrServerNotConfigured}, &fakePublisher{})

	err := o.HandleBoundSourceEvent(context.Background(), domain.FaceEvent{Source: "cam-1"})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrServerNotConfigured)
	assert.Empty(t, uploader.uploaded)
}

func TestHandleBoundSourceEventNoBoundDevices(t *testing.T) {
	uploader := &fakeUploader{}
	o := newTestOrchestrator(&fakeRecognizer{}, uploader, &fakeDirectory{}, &fakeDeviceFinder{}, &fakeSettings{server: testServer()}, &fakePublisher{})

	err := o.HandleBoundSourceEvent(context.Background(), domain.FaceEvent{Source: "cam-1"})
	require.NoError(t, err)
	assert.Empty(t, uploader.uploaded)
}

func TestHandleDirectEventFindsByTokenThenLocation(t *testing.T) {
	recognizer := &fakeRecognizer{
		result:   &domain.RecognitionResult{Recognized: true, SubjectID: 9, Confidence: 0.91},
		liveness: 0.9,
	}
	uploader := &fakeUploader{photoKey: "k"}
	finder := &fakeDeviceFinder{
		byToken:    map[string]*domain.Device{"tok-9": testDevice("tok-9")},
		byLocation: map[string]*domain.Device{"east-gate": testDevice("tok-loc")},
	}

	o := newTestOrchestrator(recognizer, uploader, &fakeDirectory{}, finder, &fakeSettings{server: testServer()}, nil)

	subject, err := o.HandleDirectEvent(context.Background(), "tok-9", []byte("x"), "f.jpg", 1, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(9), subject.SubjectID)

	subject, err = o.HandleDirectEvent(context.Background(), "east-gate", []byte("x"), "f.jpg", 1, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(9), subject.SubjectID)
	assert.Equal(t, "tok-loc", uploader.uploaded[1].DeviceToken)
}

func TestHandleDirectEventUnknownDevice(t *testing.T) {
	o := newTestOrchestrator(&fakeRecognizer{}, &fakeUploader{}, &fakeDirectory{}, &fakeDeviceFinder{}, &fakeSettings{server: testServer()}, nil)

	_, err := o.HandleDirectEvent(context.Background(), "nope", []byte("x"), "f.jpg", 1, nil)
	assert.ErrorIs(t, err, domain.ErrDeviceNotFound)
}

func TestHandleDirectEventUnrecognizedFace(t *testing.T) {
	recognizer := &fakeRecognizer{result: &domain.RecognitionResult{Recognized: false}, liveness: 0.9}
	finder := &fakeDeviceFinder{byToken: map[string]*domain.Device{"t": testDevice("t")}}

	o := newTestOrchestrator(recognizer, &fakeUploader{photoKey: "k"}, &fakeDirectory{}, finder, &fakeSettings{server: testServer()}, nil)

	_, err := o.HandleDirectEvent(context.Background(), "t", []byte("x"), "f.jpg", 1, nil)
	assert.ErrorIs(t, err, domain.ErrNoFaceRecognized)
}

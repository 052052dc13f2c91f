package bus

import (
	"encoding/base64"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/facegate/facegate/internal/domain"
)

func TestDecodeFaceDetect(t *testing.T) {
	head := base64.StdEncoding.EncodeToString([]byte("jpeg bytes"))
	payload, err := json.Marshal(map[string]any{
		"head":        head,
		"score":       0.97,
		"xyxy":        []int{10, 20, 110, 140},
		"tracking_id": 33,
		"frame":       base64.StdEncoding.EncodeToString([]byte("full frame")),
		"source":      "cam-lobby",
		"source_id":   "det-1",
		"timestamp":   1700000000,
	})
	require.NoError(t, err)

	event, err := decodeFaceDetect(payload)
	require.NoError(t, err)
	assert.Equal(t, "cam-lobby", event.Source)
	assert.Equal(t, int64(33), event.TrackingID)
	assert.Equal(t, int64(1700000000), event.Timestamp)
	assert.Equal(t, []byte("jpeg bytes"), event.Image)
	require.NotNil(t, event.BBox)
	assert.Equal(t, &domain.BoundingBox{X1: 10, Y1: 20, X2: 110, Y2: 140}, event.BBox)
}

// The face crop lives in head; frame is the full camera frame and some
// detectors omit it entirely.
func TestDecodeFaceDetectWithoutFrame(t *testing.T) {
	head := base64.StdEncoding.EncodeToString([]byte("jpeg crop"))
	payload := []byte(`{"source":"cam-1","source_id":"cam-1","tracking_id":7,"head":"` + head + `","timestamp":1700000000}`)

	event, err := decodeFaceDetect(payload)
	require.NoError(t, err)
	assert.Equal(t, []byte("jpeg crop"), event.Image)
}

func TestDecodeFaceDetectWithoutBox(t *testing.T) {
	head := base64.StdEncoding.EncodeToString([]byte("jpeg"))
	payload := []byte(`{"source":"cam-1","head":"` + head + `","timestamp":1}`)

	event, err := decodeFaceDetect(payload)
	require.NoError(t, err)
	assert.Nil(t, event.BBox)
}

func TestDecodeFaceDetectRejectsBadPayloads(t *testing.T) {
	head := base64.StdEncoding.EncodeToString([]byte("jpeg"))

	tests := []struct {
		name    string
		payload string
	}{
		{name: "not json", payload: "not json"},
		{name: "missing source", payload: `{"head":"` + head + `"}`},
		{name: "bad head encoding", payload: `{"source":"cam-1","head":"%%%"}`},
		{name: "empty head", payload: `{"source":"cam-1","head":""}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := decodeFaceDetect([]byte(tt.payload))
			assert.Error(t, err)
		})
	}
}

func TestRecognizedMessageShape(t *testing.T) {
	payload, err := json.Marshal(recognizedMessage{
		Source:     "cam-1",
		TrackingID: 5,
		Timestamp:  100,
		SubjectID:  7,
		Confidence: 0.91,
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"source":"cam-1","tracking_id":5,"timestamp":100,"subject_id":7,"confidence":0.91}`, string(payload))
}

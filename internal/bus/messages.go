package bus

import "github.com/facegate/facegate/internal/domain"

// faceDetectMessage is the wire shape published by the detector fleet on
// the face-detect topic. Head carries the base64-encoded face crop; Frame
// is the full camera frame and is not consumed here.
type faceDetectMessage struct {
	Head       string  `json:"head"`
	Score      float64 `json:"score"`
	XYXY       []int   `json:"xyxy"`
	TrackingID int64   `json:"tracking_id"`
	Frame      string  `json:"frame"`
	Source     string  `json:"source"`
	SourceID   string  `json:"source_id"`
	Timestamp  int64   `json:"timestamp"`
}

func (m faceDetectMessage) boundingBox() *domain.BoundingBox {
	if len(m.XYXY) != 4 {
		return nil
	}
	return &domain.BoundingBox{X1: m.XYXY[0], Y1: m.XYXY[1], X2: m.XYXY[2], Y2: m.XYXY[3]}
}

// recognizedMessage is republished after a successful pipeline run so that
// downstream consumers (displays, turnstiles) can react to the match.
type recognizedMessage struct {
	Source     string  `json:"source"`
	TrackingID int64   `json:"tracking_id"`
	Timestamp  int64   `json:"timestamp"`
	SubjectID  int64   `json:"subject_id"`
	Confidence float64 `json:"confidence"`
}

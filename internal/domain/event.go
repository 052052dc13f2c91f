package domain

// BoundingBox is the optional face box attached to an inbound detection,
// in [x1, y1, x2, y2] pixel coordinates.
type BoundingBox struct {
	X1 int `json:"x1"`
	Y1 int `json:"y1"`
	X2 int `json:"x2"`
	Y2 int `json:"y2"`
}

// FaceEvent is an inbound face detection from a video source. Transient,
// never persisted.
type FaceEvent struct {
	Source     string
	TrackingID int64
	Timestamp  int64
	Image      []byte
	BBox       *BoundingBox
}

// RecognitionResult is the typed outcome of a recognition call.
// SubjectID and Confidence are only meaningful when Recognized is true.
type RecognitionResult struct {
	Recognized bool
	SubjectID  int64
	Confidence float64
}

// RecognizedSubject is what a successful pipeline run hands back to the
// caller for downstream republication.
type RecognizedSubject struct {
	SubjectID  int64
	Confidence float64
}

// UploadedEvent is the immutable record sent to the backend after a
// successful pipeline run. Created exactly once, never mutated.
type UploadedEvent struct {
	DeviceToken      string
	SubjectID        int64
	PhotoKey         string
	RecognitionType  RecognitionType
	VerificationMode VerificationMode
	PassType         PassType
	RecognitionScore float64
	LivenessScore    float64
	LivenessType     LivenessType
	Timestamp        int64
}

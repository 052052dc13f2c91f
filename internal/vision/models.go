package vision

import "encoding/json"

// recognizeResponse mirrors the recognizer's /recognize reply. Confidence is
// service-native and sometimes arrives as a quoted number.
type recognizeResponse struct {
	Recognized bool `json:"recognized"`
	Person     *struct {
		SubjectID  int64       `json:"subject_id"`
		Confidence json.Number `json:"confidence"`
	} `json:"person"`
}

// detectResponse mirrors the recognizer's /detect reply.
type detectResponse struct {
	FacesInfo []struct {
		Rect struct {
			Left   int `json:"left"`
			Right  int `json:"right"`
			Top    int `json:"top"`
			Bottom int `json:"bottom"`
		} `json:"rect"`
	} `json:"faces_info"`
}

// livenessRequest is the anti-spoofing service's JSON contract.
type livenessRequest struct {
	AnalyzeOptions analyzeOptions `json:"analyzeOptions"`
	PhotoData      string         `json:"photoData"`
}

type analyzeOptions struct {
	AttributeTypes attributeTypes `json:"attributeTypes"`
}

type attributeTypes struct {
	Liveness bool `json:"liveness"`
}

type livenessResponse struct {
	Faces []struct {
		Attributes struct {
			Liveness struct {
				Pred float64 `json:"pred"`
			} `json:"liveness"`
		} `json:"attributes"`
	} `json:"faces"`
}

package backend

import "encoding/json"

// successCode is the record backend's "ok" response code.
const successCode = 100000

// apiResponse is the envelope every backend endpoint answers with.
type apiResponse struct {
	Code int             `json:"code"`
	Msg  string          `json:"msg"`
	Data json.RawMessage `json:"data"`
}

type uploadPhotoData struct {
	Key string `json:"key"`
}

// record is one entry of a batch_upload payload. Field order is part of the
// signed bytes; do not reorder.
type record struct {
	PersonID         int64   `json:"person_id"`
	SnapshotURI      string  `json:"snapshot_uri"`
	RecognitionType  int     `json:"recognition_type"`
	VerificationMode int     `json:"verification_mode"`
	PassType         int     `json:"pass_type"`
	RecognitionScore float64 `json:"recognition_score"`
	LivenessScore    float64 `json:"liveness_score"`
	LivenessType     int     `json:"liveness_type"`
	Timestamp        int64   `json:"timestamp"`
}

type recordBatch struct {
	RecordList []record `json:"record_list"`
}

// loginPayload is the device registration request.
type loginPayload struct {
	Username       string `json:"username"`
	Password       string `json:"password"`
	SNNumber       string `json:"sn_number"`
	FactorySetting bool   `json:"factory_setting"`
	DeviceChannel  string `json:"device_channel"`
	AppChannel     string `json:"app_channel"`
	RomVersion     string `json:"rom_version"`
	AppVersion     string `json:"app_version"`
}

// LoginResult carries the credentials the backend issues on device login.
type LoginResult struct {
	MeglinkVersion string `json:"meglink_version"`
	MQTTUsername   string `json:"mqtt_username"`
	MQTTPassword   string `json:"mqtt_password"`
	Secret         string `json:"secret"`
	Token          string `json:"token"`
}

type authLoginData struct {
	Company struct {
		ID int64 `json:"id"`
	} `json:"company"`
}

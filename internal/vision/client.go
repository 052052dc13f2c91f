// Package vision holds the HTTP clients for the two black-box face
// services: the recognizer (face matching) and the liveness checker
// (anti-spoofing). Both are consumed as remote collaborators; failures are
// reported as errors and reduced to absent results by the pipeline.
package vision

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/facegate/facegate/internal/domain"
)

// LivenessDisabled is the configuration sentinel that turns the liveness
// check off administratively.
const LivenessDisabled = "disable"

var (
	ErrRecognizerUnavailable = errors.New("recognizer unavailable")
	ErrNoLivenessResult      = errors.New("liveness service returned no faces")
)

type Config struct {
	RecognizerURL string
	LivenessURL   string // LivenessDisabled short-circuits CheckLiveness
	Timeout       time.Duration
}

type Client struct {
	httpClient *http.Client
	config     Config
}

func NewClient(config Config) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: config.Timeout,
		},
		config: config,
	}
}

// Recognize submits image to the recognizer, scoped to group (the
// company-scoped sync url). At most one candidate is requested.
func (c *Client) Recognize(ctx context.Context, image []byte, filename, group string) (*domain.RecognitionResult, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)

	part, err := form.CreateFormFile("image", filename)
	if err != nil {
		return nil, fmt.Errorf("build form: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, fmt.Errorf("write image: %w", err)
	}
	_ = form.WriteField("check_quality", "false")
	_ = form.WriteField("group", group)
	_ = form.WriteField("limit", "1")
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("close form: %w", err)
	}

	url := c.config.RecognizerURL + "/recognize"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecognizerUnavailable, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("recognizer returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed recognizeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode recognizer response: %w", err)
	}

	result := &domain.RecognitionResult{Recognized: parsed.Recognized}
	if parsed.Recognized {
		if parsed.Person == nil {
			return nil, fmt.Errorf("recognizer reported a match without a person")
		}
		confidence, err := parsed.Person.Confidence.Float64()
		if err != nil {
			return nil, fmt.Errorf("parse confidence %q: %w", parsed.Person.Confidence, err)
		}
		result.SubjectID = parsed.Person.SubjectID
		result.Confidence = confidence
	}
	return result, nil
}

// Detect locates faces in image and returns their bounding boxes.
func (c *Client) Detect(ctx context.Context, image []byte, filename string) ([]domain.BoundingBox, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)

	part, err := form.CreateFormFile("image", filename)
	if err != nil {
		return nil, fmt.Errorf("build form: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return nil, fmt.Errorf("write image: %w", err)
	}
	if err := form.Close(); err != nil {
		return nil, fmt.Errorf("close form: %w", err)
	}

	url := c.config.RecognizerURL + "/detect"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRecognizerUnavailable, err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("recognizer returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed detectResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode detect response: %w", err)
	}

	boxes := make([]domain.BoundingBox, 0, len(parsed.FacesInfo))
	for _, info := range parsed.FacesInfo {
		boxes = append(boxes, domain.BoundingBox{
			X1: info.Rect.Left,
			Y1: info.Rect.Top,
			X2: info.Rect.Right,
			Y2: info.Rect.Bottom,
		})
	}
	return boxes, nil
}

// LivenessEnabled reports whether liveness checking is administratively on.
func (c *Client) LivenessEnabled() bool {
	return !strings.EqualFold(c.config.LivenessURL, LivenessDisabled)
}

// CheckLiveness scores image in [0,1]. When the check is disabled it
// short-circuits to 1.0 without any network call.
func (c *Client) CheckLiveness(ctx context.Context, image []byte) (float64, error) {
	if !c.LivenessEnabled() {
		return 1.0, nil
	}

	payload := livenessRequest{
		AnalyzeOptions: analyzeOptions{
			AttributeTypes: attributeTypes{Liveness: true},
		},
		PhotoData: base64.StdEncoding.EncodeToString(image),
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return 0, fmt.Errorf("marshal liveness request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.config.LivenessURL, bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("liveness request: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 400 {
		return 0, fmt.Errorf("liveness service returned status %d", resp.StatusCode)
	}

	var parsed livenessResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return 0, fmt.Errorf("decode liveness response: %w", err)
	}
	if len(parsed.Faces) == 0 {
		return 0, ErrNoLivenessResult
	}
	return parsed.Faces[0].Attributes.Liveness.Pred, nil
}

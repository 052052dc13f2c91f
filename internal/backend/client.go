// Package backend is the client for the record server: photo uploads, event
// records, device login and config pushes. Every call except the auth login
// carries the signed OAuth header set.
package backend

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/facegate/facegate/internal/domain"
	"github.com/facegate/facegate/internal/signer"
)

type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// UploadPhoto stores the event snapshot and returns the storage key.
func (c *Client) UploadPhoto(ctx context.Context, server domain.ServerInfo, device *domain.Device, image []byte, filename string) (string, error) {
	path := fmt.Sprintf("/meglink/%s/file/upload", device.Token)

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	_ = form.WriteField("type", "1")
	part, err := form.CreateFormFile("file", filename)
	if err != nil {
		return "", fmt.Errorf("build form: %w", err)
	}
	if _, err := part.Write(image); err != nil {
		return "", fmt.Errorf("write image: %w", err)
	}
	if err := form.Close(); err != nil {
		return "", fmt.Errorf("close form: %w", err)
	}

	// The file field is signed by content digest, not by its bytes.
	headers, err := c.authHeaders(server, device, http.MethodPost, path, nil, map[string]any{
		"type": "1",
		"file": fmt.Sprintf("%x", md5.Sum(image)),
	}, nil)
	if err != nil {
		return "", err
	}
	headers["Content-Type"] = form.FormDataContentType()

	var data uploadPhotoData
	if err := c.post(ctx, server.BaseURL()+path, headers, &buf, &data); err != nil {
		return "", fmt.Errorf("upload photo: %w", err)
	}
	return data.Key, nil
}

// UploadEvent writes one recognition record. Called exactly once per
// successful pipeline run; the backend treats the batch as immutable.
func (c *Client) UploadEvent(ctx context.Context, server domain.ServerInfo, device *domain.Device, ev *domain.UploadedEvent) error {
	path := fmt.Sprintf("/meglink/%s/record/batch_upload", device.Token)

	payload := recordBatch{
		RecordList: []record{{
			PersonID:         ev.SubjectID,
			SnapshotURI:      ev.PhotoKey,
			RecognitionType:  int(ev.RecognitionType),
			VerificationMode: int(ev.VerificationMode),
			PassType:         int(ev.PassType),
			RecognitionScore: ev.RecognitionScore,
			LivenessScore:    ev.LivenessScore,
			LivenessType:     int(ev.LivenessType),
			Timestamp:        ev.Timestamp,
		}},
	}

	if err := c.postJSON(ctx, server, device, path, payload, nil); err != nil {
		return fmt.Errorf("upload event: %w", err)
	}
	return nil
}

// Login registers the device with the backend and returns the issued
// credential pair. The device has no credentials yet, so the signature
// falls back to the device token and server secret.
func (c *Client) Login(ctx context.Context, server domain.ServerInfo, device *domain.Device, username, password string, factorySetting bool) (*LoginResult, error) {
	path := fmt.Sprintf("/meglink/%s/login", device.Token)

	payload := loginPayload{
		Username:       username,
		Password:       password,
		SNNumber:       device.Serial,
		FactorySetting: factorySetting,
		DeviceChannel:  device.RomChannel,
		AppChannel:     device.AppChannel,
		RomVersion:     device.RomVersion,
		AppVersion:     device.AppVersion,
	}

	var result LoginResult
	if err := c.postJSON(ctx, server, device, path, payload, &result); err != nil {
		return nil, fmt.Errorf("device login: %w", err)
	}
	return &result, nil
}

// Configure pushes the standing device configuration.
func (c *Client) Configure(ctx context.Context, server domain.ServerInfo, device *domain.Device) error {
	path := fmt.Sprintf("/meglink/%s/config", device.Token)

	payload := map[string]any{
		"timestamp":                  time.Now().Unix(),
		"network.lan.ip":             "virtual",
		"persty.location":            device.AppChannel,
		"pass.face.recognition_mode": int(domain.VerificationFace),
		"pass.verification_mode":     int(domain.VerificationFace),
		"sys.reboot_schedule":        "5/02:00",
	}

	if err := c.postJSON(ctx, server, device, path, payload, nil); err != nil {
		return fmt.Errorf("configure device %s: %w", device.Token, err)
	}
	return nil
}

// Test probes backend connectivity with a signed round trip. The payload is
// echoed as-is; only the envelope code matters.
func (c *Client) Test(ctx context.Context, server domain.ServerInfo, device *domain.Device, payload map[string]any) error {
	if err := c.postJSON(ctx, server, device, "/meglink/test", payload, nil); err != nil {
		return fmt.Errorf("backend test: %w", err)
	}
	return nil
}

// CompanyID resolves the company owning the given backend account. This is
// the one unsigned call; it authenticates with username and password.
func (c *Client) CompanyID(ctx context.Context, server domain.ServerInfo, username, password string) (int64, error) {
	body, err := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return 0, fmt.Errorf("marshal login: %w", err)
	}

	headers := map[string]string{
		"Content-Type": "application/json",
		"User-Agent":   "Koala Admin",
	}

	var data authLoginData
	if err := c.post(ctx, server.BaseURL()+"/auth/login", headers, bytes.NewReader(body), &data); err != nil {
		return 0, fmt.Errorf("auth login: %w", err)
	}
	return data.Company.ID, nil
}

func (c *Client) postJSON(ctx context.Context, server domain.ServerInfo, device *domain.Device, path string, payload, out any) error {
	headers, err := c.authHeaders(server, device, http.MethodPost, path, nil, nil, payload)
	if err != nil {
		return err
	}
	headers["Content-Type"] = "application/json"

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}
	return c.post(ctx, server.BaseURL()+path, headers, bytes.NewReader(body), out)
}

func (c *Client) post(ctx context.Context, url string, headers map[string]string, body io.Reader, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	var envelope apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	if envelope.Code != successCode {
		return domain.ErrBackendRejected.WithError(fmt.Errorf("code %d: %s", envelope.Code, envelope.Msg))
	}
	if out != nil && envelope.Data != nil {
		if err := json.Unmarshal(envelope.Data, out); err != nil {
			return fmt.Errorf("decode response data: %w", err)
		}
	}
	return nil
}

// authHeaders signs one outbound call with a fresh nonce and timestamp.
func (c *Client) authHeaders(server domain.ServerInfo, device *domain.Device, method, path string, query, form map[string]any, payload any) (map[string]string, error) {
	creds := signer.Credentials{
		DeviceToken:  device.Token,
		UserToken:    device.UserToken,
		UserSecret:   device.UserSecret,
		ServerSecret: server.Secret,
	}
	req := signer.Request{
		Method:    method,
		URL:       server.BaseURL() + path,
		Query:     query,
		Form:      form,
		Body:      payload,
		Timestamp: time.Now().Unix(),
		Nonce:     uuid.NewString(),
	}
	return signer.Headers(creds, req)
}

package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"github.com/Alwanly/service-edge-controller/internal/config"
	"github.com/Alwanly/service-edge-controller/internal/server/controller/dto"
	"github.com/Alwanly/service-edge-controller/pkg/apperror"
	"github.com/Alwanly/service-edge-controller/pkg/logger"
)

const (
	connectPath = "/api/agent/connect/"
	pollPath    = "/api/agent/poll"
)

type controllerClient struct {
	httpClient *http.Client
	baseURL    string
	logger     *logger.CanonicalLogger
}

// NewControllerClient creates a new controller client repository
func NewControllerClient(cfg *config.AgentConfig, log *logger.CanonicalLogger) IControllerClient {
	return &controllerClient{
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		baseURL:    cfg.ControllerURL,
		logger:     log,
	}
}

func (c *controllerClient) Connect(ctx context.Context, token string) (*dto.ConnectResponse, error) {
	endpoint := c.baseURL + connectPath + url.PathEscape(token)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug("redeeming connection token", logger.String("url", c.baseURL+connectPath))

	var out dto.ConnectResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *controllerClient) Poll(ctx context.Context, creds Credentials) (*dto.PollResponse, error) {
	body, err := json.Marshal(dto.PollRequest{AgentID: creds.AgentID, AgentKey: creds.AgentKey})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal poll request: %w", err)
	}

	endpoint := c.baseURL + pollPath
	if creds.APIEndpoint != "" {
		endpoint = c.baseURL + creds.APIEndpoint
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+creds.AgentKey)

	// Set GetBody for potential retries
	buf := body
	req.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(buf)), nil
	}

	var out dto.PollResponse
	if err := c.do(req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *controllerClient) do(req *http.Request, out interface{}) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return statusError(resp.StatusCode, b)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// statusError maps a controller status code back onto the apperror taxonomy so
// callers can tell a spent token from a flaky network.
func statusError(code int, body []byte) error {
	msg := string(body)
	var envelope struct {
		Message string `json:"message"`
	}
	if json.Unmarshal(body, &envelope) == nil && envelope.Message != "" {
		msg = envelope.Message
	}

	var kind error
	switch code {
	case http.StatusBadRequest:
		kind = apperror.ErrValidation
	case http.StatusUnauthorized:
		kind = apperror.ErrAuthentication
	case http.StatusNotFound:
		kind = apperror.ErrNotFound
	case http.StatusConflict:
		kind = apperror.ErrConflict
	case http.StatusServiceUnavailable:
		kind = apperror.ErrPersistence
	default:
		return fmt.Errorf("controller responded with status %d: %s", code, msg)
	}
	return fmt.Errorf("controller responded with status %d: %s: %w", code, msg, kind)
}

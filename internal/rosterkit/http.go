package rosterkit

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/okian/raffle/internal/domain/model"
)

// HTTPClient wraps http.Client with the service base URL.
type HTTPClient struct {
	client  *http.Client
	baseURL string
}

// apiError mirrors the service's error body.
type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// newHTTPClient creates a new HTTP client with timeout.
func newHTTPClient(baseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client:  &http.Client{Timeout: timeout},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

func (c *HTTPClient) do(ctx context.Context, method, path string, out any) (int, string, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return 0, "", fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return 0, "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, "", fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var e apiError
		_ = json.Unmarshal(body, &e)
		return resp.StatusCode, e.Code, nil
	}
	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return resp.StatusCode, "", fmt.Errorf("failed to decode %s: %w", path, err)
		}
	}
	return resp.StatusCode, "", nil
}

// Health checks /healthz.
func (c *HTTPClient) Health(ctx context.Context) error {
	status, _, err := c.do(ctx, http.MethodGet, "/healthz", nil)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnhealthy, err)
	}
	if status != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrUnhealthy, status)
	}
	return nil
}

// Draw posts one draw. A 409 empty_pool answer is reported through done.
func (c *HTTPClient) Draw(ctx context.Context) (winners []model.Winner, done bool, err error) {
	var body struct {
		Winners []model.Winner `json:"winners"`
	}
	status, code, err := c.do(ctx, http.MethodPost, "/raffle/draw", &body)
	switch {
	case err != nil:
		return nil, false, err
	case status == http.StatusCreated:
		return body.Winners, false, nil
	case status == http.StatusConflict && code == "empty_pool":
		return nil, true, nil
	default:
		return nil, false, fmt.Errorf("%w: draw returned %d %s", ErrUnexpectedStatus, status, code)
	}
}

// Winners fetches the ledger.
func (c *HTTPClient) Winners(ctx context.Context) ([]model.Winner, error) {
	var winners []model.Winner
	status, code, err := c.do(ctx, http.MethodGet, "/winners", &winners)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: winners returned %d %s", ErrUnexpectedStatus, status, code)
	}
	return winners, nil
}

// Roster fetches the service's roster.
func (c *HTTPClient) Roster(ctx context.Context) ([]model.Candidate, error) {
	var guides []model.Candidate
	status, code, err := c.do(ctx, http.MethodGet, "/guides", &guides)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: guides returned %d %s", ErrUnexpectedStatus, status, code)
	}
	return guides, nil
}

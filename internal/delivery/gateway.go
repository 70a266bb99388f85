// Package delivery talks to the delivery subsystem over its HTTP JSON API.
package delivery

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fekuna/omnipos-production-service/internal/production"
)

// maxResponseSize bounds how much of a response body is read.
const maxResponseSize = 1 << 20

type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

type HTTPGateway struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

func NewHTTPGateway(cfg *Config) *HTTPGateway {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &HTTPGateway{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		httpClient: &http.Client{Timeout: timeout},
	}
}

var _ production.DeliveryGateway = (*HTTPGateway)(nil)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("delivery %s %s: status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

func (g *HTTPGateway) Dispatch(ctx context.Context, orderID int64) error {
	path := fmt.Sprintf("/orders/%d/dispatch", orderID)
	resp, err := g.do(ctx, http.MethodPost, path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// 409 means the order is already dispatched.
	if resp.StatusCode == http.StatusConflict {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return statusError(resp, http.MethodPost, path)
	}
	return nil
}

func (g *HTTPGateway) TrackingStatus(ctx context.Context, orderID int64) (*production.TrackingStatus, error) {
	path := fmt.Sprintf("/orders/%d/tracking", orderID)
	resp, err := g.do(ctx, http.MethodGet, path)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return &production.TrackingStatus{Exists: false}, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, statusError(resp, http.MethodGet, path)
	}

	var status production.TrackingStatus
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxResponseSize)).Decode(&status); err != nil {
		return nil, fmt.Errorf("delivery decode tracking for order %d: %w", orderID, err)
	}
	return &status, nil
}

func (g *HTTPGateway) do(ctx context.Context, method, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, g.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if g.apiKey != "" {
		req.Header.Set("X-API-Key", g.apiKey)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("delivery %s %s: %w", method, path, err)
	}
	return resp, nil
}

func statusError(resp *http.Response, method, path string) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	return &StatusError{Method: method, Path: path, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
}

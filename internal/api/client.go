package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	defaultProcessingTimeout = 300 * time.Second
	defaultRealtimeTimeout   = 60 * time.Second
)

// Config configures the two backend endpoints.
type Config struct {
	ProcessingURL     string
	RealtimeURL       string
	ProcessingTimeout time.Duration
	RealtimeTimeout   time.Duration
	APIKey            string
	Logger            *zap.Logger
}

// Client bundles the processing and real-time backends behind typed
// calls. All methods are safe for concurrent use.
type Client struct {
	processing    *http.Client
	realtime      *http.Client
	processingURL string
	realtimeURL   string
	apiKey        string
	log           *zap.Logger

	// Collapses a poll tick racing a post-mutation refresh into one
	// listing fetch.
	listGroup singleflight.Group
}

// New builds a Client. Zero timeouts fall back to the defaults
// (300s processing, 60s real-time).
func New(cfg Config) *Client {
	if cfg.ProcessingTimeout <= 0 {
		cfg.ProcessingTimeout = defaultProcessingTimeout
	}
	if cfg.RealtimeTimeout <= 0 {
		cfg.RealtimeTimeout = defaultRealtimeTimeout
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	return &Client{
		processing:    &http.Client{Timeout: cfg.ProcessingTimeout},
		realtime:      &http.Client{Timeout: cfg.RealtimeTimeout},
		processingURL: cfg.ProcessingURL,
		realtimeURL:   cfg.RealtimeURL,
		apiKey:        cfg.APIKey,
		log:           log,
	}
}

// doJSON performs one request against the given backend, decoding a
// JSON response into out when out is non-nil. The op string names the
// call in errors and logs.
func (c *Client) doJSON(ctx context.Context, hc *http.Client, base, method, path, op string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return &Error{Op: op, Detail: fmt.Sprintf("encode request: %v", err)}
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, base+path, reader)
	if err != nil {
		return &Error{Op: op, Detail: fmt.Sprintf("build request: %v", err)}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return c.send(req, hc, op, out)
}

// send executes a prepared request with the shared logging hook.
func (c *Client) send(req *http.Request, hc *http.Client, op string, out any) error {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	reqID := uuid.NewString()
	req.Header.Set("X-Request-ID", reqID)

	start := time.Now()
	resp, err := hc.Do(req)
	if err != nil {
		c.log.Error("request failed",
			zap.String("req", reqID),
			zap.String("method", req.Method),
			zap.String("url", req.URL.String()),
			zap.Error(err))
		return &Error{Op: op, Detail: "backend unreachable: " + err.Error()}
	}
	defer resp.Body.Close()

	c.log.Info("request complete",
		zap.String("req", reqID),
		zap.String("method", req.Method),
		zap.String("url", req.URL.String()),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", time.Since(start)))

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &Error{Op: op, Status: resp.StatusCode, Detail: "read response: " + err.Error()}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &Error{Op: op, Status: resp.StatusCode, Detail: errorDetail(data, resp.StatusCode)}
	}

	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			return &Error{Op: op, Status: resp.StatusCode, Detail: "malformed response body"}
		}
	}
	return nil
}

// errorDetail extracts the FastAPI-style {"detail": ...} message when
// present, falling back to a generic status line.
func errorDetail(body []byte, status int) string {
	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != "" {
		return payload.Detail
	}
	return fmt.Sprintf("backend returned HTTP %d", status)
}

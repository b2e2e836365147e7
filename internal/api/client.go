// Package api is the client for the Tsviyo backend REST API. Every call sets
// JSON content negotiation headers, attaches the bearer credential when one
// is available, and returns tagged *Error values instead of raising.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/Mikelesnr/tsviyo-frontend/internal/middleware"
)

// TokenSource supplies the current bearer credential, or "" when logged out.
type TokenSource func() string

type Client struct {
	baseURL    string
	httpClient *http.Client
	token      TokenSource
	log        zerolog.Logger
}

// NewClient builds the backend client. timeout bounds every call so a hung
// backend re-enables the triggering view action instead of wedging it.
func NewClient(baseURL string, timeout time.Duration, token TokenSource, log zerolog.Logger) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		token:      token,
		log:        log.With().Str("component", "api").Logger(),
	}
}

// errorBody is the error payload shape the backend uses for rejections.
type errorBody struct {
	Message string `json:"message"`
}

// metricEndpoint is the per-call metric label: numeric path segments collapse
// to ":id" so ride and user ids do not blow up the label cardinality.
func metricEndpoint(path string) string {
	segs := strings.Split(path, "/")
	for i, s := range segs {
		if isNumeric(s) {
			segs[i] = ":id"
		}
	}
	return strings.Join(segs, "/")
}

func isNumeric(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// do performs one backend call. A nil body sends no payload; a non-nil out
// receives the decoded 2xx response.
func (c *Client) do(ctx context.Context, method, path string, body, out interface{}) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return &Error{Kind: KindRejected, Message: fmt.Sprintf("failed to encode request: %v", err)}
		}
		reader = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return &Error{Kind: KindRejected, Message: err.Error()}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if token := c.token(); token != "" {
		req.Header.Set("Authorization", token)
	}

	endpoint := metricEndpoint(path)
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		middleware.TrackBackendRequest(endpoint, "network_error", time.Since(start))
		c.log.Warn().Err(err).Str("method", method).Str("path", path).Msg("backend request failed")
		return &Error{Kind: KindNetwork, Message: "network error, try again"}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		middleware.TrackBackendRequest(endpoint, "network_error", time.Since(start))
		return &Error{Kind: KindNetwork, Message: "network error, try again"}
	}
	middleware.TrackBackendRequest(endpoint, fmt.Sprintf("%d", resp.StatusCode), time.Since(start))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return c.rejection(resp.StatusCode, raw, method, path)
	}

	if out != nil && len(raw) > 0 {
		if err := json.Unmarshal(raw, out); err != nil {
			return &Error{Kind: KindRejected, Status: resp.StatusCode,
				Message: fmt.Sprintf("failed to decode response: %v", err)}
		}
	}
	return nil
}

// rejection maps a non-2xx response to a tagged error, preferring the
// server-provided message field with a generic fallback.
func (c *Client) rejection(status int, raw []byte, method, path string) *Error {
	message := "request failed, try again"
	var body errorBody
	if err := json.Unmarshal(raw, &body); err == nil && body.Message != "" {
		message = body.Message
	}

	kind := KindRejected
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		kind = KindAuth
	case http.StatusUnprocessableEntity:
		kind = KindValidation
	}

	c.log.Info().Int("status", status).Str("method", method).Str("path", path).
		Str("message", message).Msg("backend rejected request")
	return &Error{Kind: kind, Status: status, Message: message}
}

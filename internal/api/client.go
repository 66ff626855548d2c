// package api implements the HTTP client for the curation backend.
//
// Client.Request never returns a Go error for HTTP-level failures; every call
// resolves to a [Result] whose Error field carries the failure message. The
// one side effect of the transport layer is session-expiry detection: a 404
// with a session-not-found message, observed while the active use case is
// library creation, hands control to the recovery coordinator before the
// original error result is returned.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/imanmossavat/litstage/internal/session"
	"golang.org/x/time/rate"
)

// Result is the normalized outcome of every backend request.
//
// Exactly one of Data and Error is meaningful: a 2xx response populates Data
// (empty on 204), anything else populates Error.
type Result struct {
	Status int
	Data   json.RawMessage
	Error  string
}

// OK reports whether the request succeeded.
func (r Result) OK() bool { return r.Error == "" }

// Decode unmarshals the response body into v.
func (r Result) Decode(v any) error {
	if !r.OK() {
		return fmt.Errorf("cannot decode failed result: %s", r.Error)
	}
	if len(r.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(r.Data, v); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// SessionRecoverer is notified when the transport layer detects an expired
// workflow session. Recover blocks until the shared recovery attempt settles.
type SessionRecoverer interface {
	Recover(ctx context.Context) error
}

// RequestOptions carries optional request parameters.
type RequestOptions struct {
	Query url.Values

	// Multipart upload. When FileField is set the request body is encoded as
	// multipart/form-data and the body argument to Request is ignored.
	FileField string
	FileName  string
	File      io.Reader
	Fields    map[string]string
}

// Client issues requests against the versioned JSON API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *log.Logger
	registry   *session.Registry
	recoverer  SessionRecoverer
}

// ClientOpts contains configuration options for creating a Client.
type ClientOpts struct {
	BaseURL           string
	HTTPClient        *http.Client
	Timeout           time.Duration
	RequestsPerSecond float64
	Logger            *log.Logger
	Registry          *session.Registry
}

// NewClient creates a new Client for the curation backend.
func NewClient(opts ClientOpts) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = "http://localhost:8080/api/v1"
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout}
	}
	rps := opts.RequestsPerSecond
	if rps <= 0 {
		rps = 5
	}

	return &Client{
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: opts.HTTPClient,
		limiter:    rate.NewLimiter(rate.Limit(rps), int(rps)+1),
		logger:     opts.Logger,
		registry:   opts.Registry,
	}
}

// SetRecoverer installs the session recovery coordinator. Installed after
// construction because the coordinator itself starts sessions through this
// client.
func (c *Client) SetRecoverer(r SessionRecoverer) {
	c.recoverer = r
}

// Request performs an HTTP request and normalizes the outcome into a [Result].
//
// body is JSON-encoded unless opts configures a multipart upload. Network
// failures and non-2xx responses both resolve to a Result with Error set;
// callers never need error handling for expected failure paths.
func (c *Client) Request(ctx context.Context, method, endpoint string, body any, opts *RequestOptions) Result {
	if err := c.limiter.Wait(ctx); err != nil {
		return Result{Error: err.Error()}
	}

	req, err := c.buildRequest(ctx, method, endpoint, body, opts)
	if err != nil {
		return Result{Error: err.Error()}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{Error: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return Result{Status: resp.StatusCode, Error: fmt.Sprintf("failed to read response: %v", err)}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return Result{Status: resp.StatusCode, Data: respBody}
	}

	msg := extractErrorMessage(resp.StatusCode, respBody)
	c.maybeRecover(ctx, resp.StatusCode, msg)
	return Result{Status: resp.StatusCode, Error: msg}
}

// buildRequest assembles the http.Request for Request, handling JSON and
// multipart encodings.
func (c *Client) buildRequest(ctx context.Context, method, endpoint string, body any, opts *RequestOptions) (*http.Request, error) {
	fullURL := c.baseURL + endpoint
	if opts != nil && len(opts.Query) > 0 {
		fullURL += "?" + opts.Query.Encode()
	}

	if opts != nil && opts.FileField != "" {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		part, err := w.CreateFormFile(opts.FileField, opts.FileName)
		if err != nil {
			return nil, fmt.Errorf("failed to create form file: %w", err)
		}
		if _, err := io.Copy(part, opts.File); err != nil {
			return nil, fmt.Errorf("failed to write form file: %w", err)
		}
		for k, v := range opts.Fields {
			if err := w.WriteField(k, v); err != nil {
				return nil, fmt.Errorf("failed to write form field: %w", err)
			}
		}
		if err := w.Close(); err != nil {
			return nil, fmt.Errorf("failed to finalize form: %w", err)
		}

		req, err := http.NewRequestWithContext(ctx, method, fullURL, &buf)
		if err != nil {
			return nil, fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", w.FormDataContentType())
		return req, nil
	}

	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal request body: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req, nil
}

// maybeRecover triggers session recovery for the one recognized failure shape:
// a 404 whose message looks like "session not found", while the registry's
// current use case is library creation. All other 404s pass through untouched
// so a missing paper or library never restarts the workflow.
func (c *Client) maybeRecover(ctx context.Context, status int, msg string) {
	if status != http.StatusNotFound || c.recoverer == nil || c.registry == nil {
		return
	}
	if !isSessionNotFound(msg) {
		return
	}
	current := c.registry.Get()
	if current == nil || current.UseCase != session.UseCaseLibraryCreation {
		return
	}

	if c.logger != nil {
		c.logger.Warn("workflow session expired, recovering", "session", current.ID)
	}
	// Recovery outcome is deliberately ignored here: the caller still sees
	// the original error result, and a failed recovery gives up silently.
	_ = c.recoverer.Recover(ctx)
}

// isSessionNotFound matches the backend's session-expiry message shape.
func isSessionNotFound(msg string) bool {
	m := strings.ToLower(msg)
	return strings.Contains(m, "session") && strings.Contains(m, "not found")
}

// extractErrorMessage pulls a human-readable message out of a non-2xx body.
//
// The backend is inconsistent about its error key; detail, message and error
// are all in circulation, checked in that order.
func extractErrorMessage(status int, body []byte) string {
	var payload struct {
		Detail  string `json:"detail"`
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		switch {
		case payload.Detail != "":
			return payload.Detail
		case payload.Message != "":
			return payload.Message
		case payload.Error != "":
			return payload.Error
		}
	}
	return fmt.Sprintf("HTTP %d", status)
}

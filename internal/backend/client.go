// Package backend provides the HTTP client for the order-management backend.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/simp-lee/order360/internal/domain"
	"github.com/simp-lee/order360/internal/metrics"
	"github.com/simp-lee/order360/internal/pkg"
)

const (
	headerRequestID  = "X-Request-Id"
	headerSessionID  = "X-Request-Session-Id"
	headerTrackingID = "X-Request-Tracking-Id"

	idPlaceholder = "{id}"

	defaultTimeout      = 30 * time.Second
	defaultMaxBodyBytes = 8 << 20
	maxErrorBody        = 512
)

// ErrBodyTooLarge is returned when a response body exceeds Options.MaxBodyBytes.
var ErrBodyTooLarge = errors.New("backend response body too large")

// Options configures a Client.
type Options struct {
	BaseURL      string
	Timeout      time.Duration
	Retries      int
	RetryBackoff time.Duration
	Tokens       TokenSource
	HTTPClient   *http.Client
	// MaxBodyBytes bounds a successful response body; <= 0 means 8 MiB.
	MaxBodyBytes int64
}

// Client is a generic resource client: every method addresses
// {BaseURL}/{endpoint}[/{id}] and exchanges JSON. Endpoints are used as
// metric labels, so ids belong in the id argument, not the endpoint.
type Client struct {
	base      *url.URL
	http      *http.Client
	tokens    TokenSource
	retries   int
	backoff   time.Duration
	maxBody   int64
	sessionID string
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Method     string
	Endpoint   string
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d", e.Method, e.Endpoint, e.StatusCode)
}

// New validates opts and returns a Client.
func New(opts Options) (*Client, error) {
	raw := strings.TrimSpace(opts.BaseURL)
	if raw == "" {
		return nil, errors.New("backend: base url is required")
	}
	base, err := url.Parse(strings.TrimRight(raw, "/"))
	if err != nil {
		return nil, fmt.Errorf("backend: parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("backend: base url must be http or https, got %q", raw)
	}

	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	tokens := opts.Tokens
	if tokens == nil {
		tokens = StaticToken("")
	}
	retries := max(opts.Retries, 0)
	maxBody := opts.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}

	return &Client{
		base:      base,
		http:      hc,
		tokens:    tokens,
		retries:   retries,
		backoff:   opts.RetryBackoff,
		maxBody:   maxBody,
		sessionID: uuid.NewString(),
	}, nil
}

// Get decodes GET {endpoint}[/{id}]?{params} into out.
func (c *Client) Get(ctx context.Context, endpoint, id string, params url.Values, out any) error {
	body, err := c.do(ctx, http.MethodGet, endpoint, id, params, nil)
	if err != nil {
		return err
	}
	return decode(body, out)
}

// GetRaw returns the undecoded body of GET {endpoint}[/{id}], for non-JSON
// resources such as BPMN XML.
func (c *Client) GetRaw(ctx context.Context, endpoint, id string, params url.Values) ([]byte, error) {
	return c.do(ctx, http.MethodGet, endpoint, id, params, nil)
}

func (c *Client) Create(ctx context.Context, endpoint string, in, out any) error {
	return c.send(ctx, http.MethodPost, endpoint, "", in, out)
}

func (c *Client) Update(ctx context.Context, endpoint, id string, in, out any) error {
	return c.send(ctx, http.MethodPut, endpoint, id, in, out)
}

func (c *Client) Patch(ctx context.Context, endpoint, id string, in, out any) error {
	return c.send(ctx, http.MethodPatch, endpoint, id, in, out)
}

func (c *Client) Delete(ctx context.Context, endpoint, id string, out any) error {
	body, err := c.do(ctx, http.MethodDelete, endpoint, id, nil, nil)
	if err != nil {
		return err
	}
	return decode(body, out)
}

func (c *Client) send(ctx context.Context, method, endpoint, id string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return domain.NewAppError(domain.CodeInternal, "encode backend request", err)
	}
	body, err := c.do(ctx, method, endpoint, id, nil, payload)
	if err != nil {
		return err
	}
	return decode(body, out)
}

// do performs the request, retrying network errors and 5xx responses up to
// the configured count. Errors are mapped onto domain.AppError.
func (c *Client) do(ctx context.Context, method, endpoint, id string, params url.Values, payload []byte) ([]byte, error) {
	target := c.resolve(endpoint, id, params)
	label := strings.Trim(endpoint, "/")
	start := time.Now()
	defer func() {
		metrics.BackendRequestDuration.WithLabelValues(method, label).Observe(time.Since(start).Seconds())
	}()

	var lastErr error
	for attempt := 0; attempt <= c.retries; attempt++ {
		if attempt > 0 {
			metrics.BackendRetriesTotal.WithLabelValues(label).Inc()
			if err := c.wait(ctx, attempt); err != nil {
				return nil, mapError(method, label, err)
			}
		}

		body, err := c.attempt(ctx, method, target, payload)
		if err == nil {
			metrics.BackendRequestsTotal.WithLabelValues(method, label, "ok").Inc()
			return body, nil
		}
		lastErr = err

		var se *StatusError
		if errors.As(err, &se) {
			se.Method, se.Endpoint = method, label
			metrics.BackendRequestsTotal.WithLabelValues(method, label, strconv.Itoa(se.StatusCode)).Inc()
			if se.StatusCode < 500 {
				break
			}
		} else {
			metrics.BackendRequestsTotal.WithLabelValues(method, label, "error").Inc()
			var te *tokenError
			if ctx.Err() != nil || errors.As(err, &te) || errors.Is(err, ErrBodyTooLarge) {
				break
			}
		}
	}

	mapped := mapError(method, label, lastErr)
	if !errors.Is(lastErr, context.Canceled) {
		slog.ErrorContext(ctx, "backend request failed",
			slog.String("method", method),
			slog.String("endpoint", label),
			slog.Any("error", lastErr),
		)
	}
	return nil, mapped
}

func (c *Client) attempt(ctx context.Context, method, target string, payload []byte) ([]byte, error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	token, err := c.tokens.Token(ctx)
	if err != nil {
		return nil, &tokenError{err: err}
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set(headerRequestID, uuid.NewString())
	req.Header.Set(headerSessionID, c.sessionID)
	req.Header.Set(headerTrackingID, trackingID(ctx))

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(snippet)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxBody+1))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if int64(len(body)) > c.maxBody {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrBodyTooLarge, c.maxBody)
	}
	return body, nil
}

// trackingID correlates backend calls with the inbound request that caused
// them; background calls get a fresh id.
func trackingID(ctx context.Context) string {
	if id := pkg.RequestIDFrom(ctx); id != "" {
		return id
	}
	return uuid.NewString()
}

func (c *Client) wait(ctx context.Context, attempt int) error {
	if c.backoff <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(c.backoff * time.Duration(attempt))
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// resolve builds the request URL. An endpoint containing "{id}" gets the id
// substituted in place; otherwise a non-empty id is appended as a segment.
func (c *Client) resolve(endpoint, id string, params url.Values) string {
	u := *c.base
	endpoint = strings.Trim(endpoint, "/")
	basePath := u.EscapedPath()
	var raw, escaped string
	switch {
	case strings.Contains(endpoint, idPlaceholder):
		raw = strings.ReplaceAll(endpoint, idPlaceholder, id)
		escaped = strings.ReplaceAll(endpoint, idPlaceholder, url.PathEscape(id))
	case id != "":
		raw = endpoint + "/" + id
		escaped = endpoint + "/" + url.PathEscape(id)
	default:
		raw, escaped = endpoint, endpoint
	}
	u.Path = u.Path + "/" + raw
	u.RawPath = basePath + "/" + escaped
	u.RawQuery = ""
	if len(params) > 0 {
		u.RawQuery = params.Encode()
	}
	return u.String()
}

type tokenError struct{ err error }

func (e *tokenError) Error() string { return "acquire token: " + e.err.Error() }
func (e *tokenError) Unwrap() error { return e.err }

func mapError(method, endpoint string, err error) error {
	var se *StatusError
	var te *tokenError
	switch {
	case errors.As(err, &se):
		switch se.StatusCode {
		case http.StatusNotFound:
			return domain.NewAppError(domain.CodeNotFound, "resource not found", err)
		case http.StatusUnauthorized, http.StatusForbidden:
			return domain.NewAppError(domain.CodeUnauthorized, "order backend rejected credentials", err)
		case http.StatusBadRequest, http.StatusUnprocessableEntity:
			return domain.NewAppError(domain.CodeValidation, "order backend rejected the request", err)
		default:
			return domain.NewAppError(domain.CodeUpstream, "order backend error", err)
		}
	case errors.As(err, &te):
		return domain.NewAppError(domain.CodeUnauthorized, "order backend token unavailable", err)
	default:
		return domain.NewAppError(domain.CodeUpstream, "order backend unavailable", fmt.Errorf("%s %s: %w", method, endpoint, err))
	}
}

func decode(body []byte, out any) error {
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return domain.NewAppError(domain.CodeUpstream, "decode backend response", err)
	}
	return nil
}

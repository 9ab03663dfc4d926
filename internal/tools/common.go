// Package tools implements the integration tools agents can call. Every tool
// degrades to a readable "[<Service> not configured]" result when its
// credentials are missing, so a turn never fails for lack of an integration.
package tools

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
	"strings"
	"time"

	"engram/internal/agent"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const maxOutputBytes = 10_000

// ErrUnavailable marks an integration whose credentials are not configured.
var ErrUnavailable = errors.New("not configured")

func unavailable(hint string) error {
	return fmt.Errorf("%w: %s", ErrUnavailable, hint)
}

func truncate(b []byte) string {
	if len(b) > maxOutputBytes {
		cut := maxOutputBytes
		for cut > 0 && b[cut]&0xC0 == 0x80 {
			cut--
		}
		return string(b[:cut]) + "\n... (truncated)"
	}
	return string(b)
}

var httpClient = &http.Client{
	Timeout:   30 * time.Second,
	Transport: otelhttp.NewTransport(http.DefaultTransport),
}

// tool adapts a typed run function to agent.Tool. A is the JSON argument
// struct the model fills in.
type tool[A any] struct {
	name        string
	service     string
	description string
	schema      map[string]any
	run         func(ctx context.Context, args A) (string, error)
}

func (t *tool[A]) Name() string        { return t.name }
func (t *tool[A]) Description() string { return t.description }
func (t *tool[A]) InputSchema() any    { return t.schema }

func (t *tool[A]) Execute(ctx context.Context, input string) (string, error) {
	var args A
	if strings.TrimSpace(input) != "" {
		if err := json.Unmarshal([]byte(input), &args); err != nil {
			return "", fmt.Errorf("parsing %s input: %w", t.name, err)
		}
	}

	out, err := t.run(ctx, args)
	if errors.Is(err, ErrUnavailable) {
		slog.Debug("tools: integration unavailable", "tool", t.name, "error", err)
		return fmt.Sprintf("[%s not configured] %s", t.service, strings.TrimPrefix(err.Error(), ErrUnavailable.Error()+": ")), nil
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", t.service, err)
	}
	return truncate([]byte(out)), nil
}

type param struct {
	name        string
	typ         string
	description string
}

func str(name, description string) param { return param{name, "string", description} }
func num(name, description string) param { return param{name, "number", description} }

// object builds a strict JSON schema: every property is required and no
// others are allowed. Optional values are sent as "" or 0.
func object(params ...param) map[string]any {
	props := make(map[string]any, len(params))
	required := make([]string, 0, len(params))
	for _, p := range params {
		props[p.name] = map[string]any{"type": p.typ, "description": p.description}
		required = append(required, p.name)
	}
	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"required":             required,
		"additionalProperties": false,
	}
}

// restClient is a small JSON/form client for the integration APIs.
type restClient struct {
	baseURL string
	auth    func(*http.Request)
	header  http.Header
}

// APIError is a non-2xx response from an integration API.
type APIError struct {
	Status int
	Body   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Status, e.Body)
}

// do sends body as JSON, or as a form when it is url.Values, and decodes a
// JSON response into out when out is non-nil.
func (c *restClient) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var (
		reader      io.Reader
		contentType string
	)
	switch b := body.(type) {
	case nil:
	case url.Values:
		reader = strings.NewReader(b.Encode())
		contentType = "application/x-www-form-urlencoded"
	default:
		data, err := json.Marshal(b)
		if err != nil {
			return fmt.Errorf("encoding request: %w", err)
		}
		reader = bytes.NewReader(data)
		contentType = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")
	for k, vs := range c.header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if c.auth != nil {
		c.auth(req)
	}

	resp, err := httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return &APIError{Status: resp.StatusCode, Body: agent.Truncate(string(data), 500)}
	}
	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}

func bearer(token string) func(*http.Request) {
	return func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }
}

func clamp(v, lo, hi, def int) int {
	if v <= 0 {
		return def
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Package httpsource implements the "http" provider: issues a single HTTP
// request and returns the parsed response. Grounded on
// original_source/evans/connectors/rest.py.
package httpsource

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/flowtoy/flowtoy/internal/provider"
	"github.com/flowtoy/flowtoy/internal/result"
)

func init() {
	provider.RegisterPlugin("http", New)
}

// InputMode selects how the rendered payload is attached to the request.
type InputMode string

const (
	InputModeParameter InputMode = "parameter"
	InputModeBody      InputMode = "body"
)

// HTTP issues one configured HTTP request per Call.
type HTTP struct {
	method    string
	url       string
	headers   map[string]string
	inputMode InputMode
	paramName string
	client    *http.Client
}

// New constructs an HTTP provider from its rendered configuration.
func New(cfg map[string]interface{}) (provider.Provider, error) {
	u, ok := cfg["url"].(string)
	if !ok || u == "" {
		return nil, fmt.Errorf("http: \"url\" is required")
	}

	h := &HTTP{
		method:    "GET",
		url:       u,
		inputMode: InputModeParameter,
		paramName: "id",
		client:    &http.Client{Timeout: 30 * time.Second},
	}
	if v, ok := cfg["method"].(string); ok && v != "" {
		h.method = v
	}
	if v, ok := cfg["input_mode"].(string); ok && v != "" {
		h.inputMode = InputMode(v)
	}
	if v, ok := cfg["param_name"].(string); ok && v != "" {
		h.paramName = v
	}
	if raw, ok := cfg["headers"].(map[string]interface{}); ok {
		h.headers = make(map[string]string, len(raw))
		for k, v := range raw {
			if s, ok := v.(string); ok {
				h.headers[k] = s
			}
		}
	}
	return h, nil
}

// Call issues the HTTP request, attaching payload per input_mode.
func (h *HTTP) Call(ctx context.Context, payload interface{}) (result.Result, error) {
	reqURL := h.url
	var body io.Reader

	switch h.inputMode {
	case InputModeBody:
		if payload != nil {
			b, err := json.Marshal(payload)
			if err != nil {
				return result.Result{}, fmt.Errorf("http: marshaling body: %w", err)
			}
			body = bytes.NewReader(b)
		}
	default:
		if payload != nil {
			parsed, err := url.Parse(reqURL)
			if err != nil {
				return result.Result{}, fmt.Errorf("http: parsing url: %w", err)
			}
			q := parsed.Query()
			q.Set(h.paramName, fmt.Sprintf("%v", payload))
			parsed.RawQuery = q.Encode()
			reqURL = parsed.String()
		}
	}

	req, err := http.NewRequestWithContext(ctx, h.method, reqURL, body)
	if err != nil {
		return result.Result{}, fmt.Errorf("http: building request: %w", err)
	}
	if h.inputMode == InputModeBody && payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range h.headers {
		req.Header.Set(k, v)
	}

	resp, err := h.client.Do(req)
	if err != nil {
		return result.FromException(err), nil
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return result.FromException(err), nil
	}

	var data interface{}
	if err := json.Unmarshal(raw, &data); err != nil {
		data = string(raw)
	}

	respHeaders := make(map[string]interface{}, len(resp.Header))
	for k, v := range resp.Header {
		if len(v) == 1 {
			respHeaders[k] = v[0]
		} else {
			respHeaders[k] = v
		}
	}

	notes := []string{}
	success := resp.StatusCode >= 200 && resp.StatusCode < 300
	if !success {
		notes = append(notes, fmt.Sprintf("HTTP status %d", resp.StatusCode))
	}

	code := resp.StatusCode
	return result.Make(success, &code, data, notes, map[string]interface{}{
		"status_code": resp.StatusCode,
		"headers":     respHeaders,
	}), nil
}

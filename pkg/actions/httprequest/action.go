// Package httprequest provides the call_external_api custom action.
package httprequest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/autocrm/autocrm/pkg/models"
	"github.com/autocrm/autocrm/pkg/registry"
)

const (
	Name = "call_external_api"

	defaultTimeoutMillis = 5000
)

var (
	// ErrHTTPRequestURLInvalid is returned when the url parameter is empty.
	ErrHTTPRequestURLInvalid = errors.New("invalid HTTP request url")
	// ErrHTTPRequestFailed is returned for non-2xx responses.
	ErrHTTPRequestFailed = errors.New("API request failed")
)

// Action describes a call to a REST endpoint.
type Action struct {
	URL     string
	Method  string
	Headers map[string]string
	Body    any
	Timeout time.Duration
}

// NewAction builds an Action from validated custom action parameters.
func NewAction(params map[string]any) (*Action, error) {
	url := registry.String(params, "url")
	if url == "" {
		return nil, fmt.Errorf("missing 'url' parameter: %w", ErrHTTPRequestURLInvalid)
	}

	method := strings.ToUpper(registry.String(params, "method"))
	if method == "" {
		method = http.MethodGet
	}

	headers := make(map[string]string)
	for key, value := range registry.Object(params, "headers") {
		if strVal, ok := value.(string); ok {
			headers[key] = strVal
		}
	}

	timeout := float64(defaultTimeoutMillis)
	if millis, ok := registry.Number(params, "timeout"); ok && millis > 0 {
		timeout = millis
	}

	return &Action{
		URL:     url,
		Method:  method,
		Headers: headers,
		Body:    params["body"],
		Timeout: time.Duration(timeout) * time.Millisecond,
	}, nil
}

// Execute performs the request and returns {success, status, data}.
func (a *Action) Execute(ctx context.Context, client *http.Client, logger *slog.Logger) (map[string]any, error) {
	ctx, cancel := context.WithTimeout(ctx, a.Timeout)
	defer cancel()

	var body io.Reader

	if a.Body != nil {
		encoded, err := json.Marshal(a.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal body: %w", err)
		}

		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, a.Method, a.URL, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create http request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	for key, value := range a.Headers {
		req.Header.Set(key, value)
	}

	logger.DebugContext(ctx, "Calling external API", "method", a.Method, "url", a.URL)

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}

	defer func() {
		_ = resp.Body.Close()
	}()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s", ErrHTTPRequestFailed, resp.Status)
	}

	var data any
	if len(bodyBytes) > 0 {
		if err := json.Unmarshal(bodyBytes, &data); err != nil {
			logger.WarnContext(ctx, "Failed to parse response as JSON, returning as string", "error", err)

			data = string(bodyBytes)
		}
	}

	return map[string]any{
		"success": true,
		"status":  resp.StatusCode,
		"data":    data,
	}, nil
}

// CustomAction returns the registry entry backed by client.
func CustomAction(client *http.Client, logger *slog.Logger) registry.CustomAction {
	logger = logger.With("module", "call_external_api_action")

	return registry.CustomAction{
		Name:        Name,
		Description: "Make a request to an external API endpoint",
		Parameters: map[string]registry.Parameter{
			"url":     {Type: registry.ParameterString, Description: "API endpoint URL", Required: true},
			"method":  {Type: registry.ParameterString, Description: "HTTP method to use", Default: http.MethodGet},
			"headers": {Type: registry.ParameterObject, Description: "HTTP headers to include", Default: map[string]any{}},
			"body":    {Type: registry.ParameterObject, Description: "Request body (for POST/PUT/PATCH)"},
			"timeout": {Type: registry.ParameterNumber, Description: "Request timeout in milliseconds", Default: defaultTimeoutMillis},
		},
		Handler: func(ctx context.Context, params map[string]any, _ models.WorkflowContext) (any, error) {
			action, err := NewAction(params)
			if err != nil {
				return nil, err
			}

			return action.Execute(ctx, client, logger)
		},
	}
}

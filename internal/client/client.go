// Package client is a thin Go SDK over the HTTP driver in internal/api: a
// small set of methods mirroring the admin (apply/get state) and frontend
// (evaluate) route groups, plus a streaming subscription over
// /v1/client/stream.
package client

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ygg-project/yggcore/internal/ctx"
	"github.com/ygg-project/yggcore/internal/model"
)

// Client is an HTTP client for the ygg HTTP driver.
type Client struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewClient creates a new API client.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

type isEnabledResponse struct {
	Name    string `json:"name"`
	Enabled bool   `json:"enabled"`
}

type variantResponse struct {
	Name    string           `json:"name"`
	Variant model.VariantDef `json:"variant"`
}

type resolveAllResponse struct {
	Toggles map[string]model.ResolvedToggle `json:"toggles"`
}

type environmentsResponse struct {
	Environments []string `json:"environments"`
}

type featuresPushResponse struct {
	OK    bool   `json:"ok"`
	ETag  string `json:"etag"`
	Count int    `json:"toggleCount"`
}

// contextDTO mirrors internal/api's wire-level ContextDTO so a ctx.Context
// round-trips through the same JSON shape the HTTP driver expects.
type contextDTO struct {
	UserID          string            `json:"userId,omitempty"`
	SessionID       string            `json:"sessionId,omitempty"`
	Environment     string            `json:"environment,omitempty"`
	AppName         string            `json:"appName,omitempty"`
	CurrentTime     string            `json:"currentTime,omitempty"`
	RemoteAddress   string            `json:"remoteAddress,omitempty"`
	Properties      map[string]string `json:"properties,omitempty"`
	ExternalResults map[string]bool   `json:"externalResults,omitempty"`
}

func toContextDTO(c ctx.Context) contextDTO {
	return contextDTO{
		UserID:          c.UserID,
		SessionID:       c.SessionID,
		Environment:     c.Environment,
		AppName:         c.AppName,
		CurrentTime:     c.CurrentTime,
		RemoteAddress:   c.RemoteAddress,
		Properties:      c.Properties,
		ExternalResults: c.ExternalResults,
	}
}

func (c *Client) authedRequest(parent context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(parent, method, c.BaseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	return req, nil
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// ApplyState pushes a complete features document for env, replacing
// whatever was previously applied.
func (c *Client) ApplyState(parent context.Context, env string, features model.ClientFeatures) error {
	body, err := json.Marshal(features)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := c.authedRequest(parent, http.MethodPost, "/v1/admin/features/"+url.PathEscape(env), bytes.NewReader(body))
	if err != nil {
		return err
	}

	var result featuresPushResponse
	return c.do(req, &result)
}

// GetState retrieves the currently applied features document for env.
func (c *Client) GetState(parent context.Context, env string) (model.ClientFeatures, error) {
	req, err := c.authedRequest(parent, http.MethodGet, "/v1/admin/features/"+url.PathEscape(env), nil)
	if err != nil {
		return model.ClientFeatures{}, err
	}

	var result model.ClientFeatures
	if err := c.do(req, &result); err != nil {
		return model.ClientFeatures{}, err
	}
	return result, nil
}

// ListEnvironments returns every environment with a stored document.
func (c *Client) ListEnvironments(parent context.Context) ([]string, error) {
	req, err := c.authedRequest(parent, http.MethodGet, "/v1/admin/environments", nil)
	if err != nil {
		return nil, err
	}

	var result environmentsResponse
	if err := c.do(req, &result); err != nil {
		return nil, err
	}
	return result.Environments, nil
}

// IsEnabled evaluates a single toggle's enablement against evalCtx.
func (c *Client) IsEnabled(parent context.Context, name string, evalCtx ctx.Context) (bool, error) {
	body, err := json.Marshal(map[string]any{"context": toContextDTO(evalCtx)})
	if err != nil {
		return false, fmt.Errorf("failed to marshal context: %w", err)
	}
	req, err := c.authedRequest(parent, http.MethodPost, "/v1/frontend/is-enabled/"+url.PathEscape(name), bytes.NewReader(body))
	if err != nil {
		return false, err
	}

	var result isEnabledResponse
	if err := c.do(req, &result); err != nil {
		return false, err
	}
	return result.Enabled, nil
}

// GetVariant resolves the variant a toggle assigns to evalCtx.
func (c *Client) GetVariant(parent context.Context, name string, evalCtx ctx.Context) (model.VariantDef, error) {
	body, err := json.Marshal(map[string]any{"context": toContextDTO(evalCtx)})
	if err != nil {
		return model.VariantDef{}, fmt.Errorf("failed to marshal context: %w", err)
	}
	req, err := c.authedRequest(parent, http.MethodPost, "/v1/frontend/variant/"+url.PathEscape(name), bytes.NewReader(body))
	if err != nil {
		return model.VariantDef{}, err
	}

	var result variantResponse
	if err := c.do(req, &result); err != nil {
		return model.VariantDef{}, err
	}
	return result.Variant, nil
}

// Evaluate fully resolves one named toggle (enabled/variant/project/impression
// flag) against evalCtx.
func (c *Client) Evaluate(parent context.Context, name string, evalCtx ctx.Context) (model.ResolvedToggle, error) {
	body, err := json.Marshal(map[string]any{"context": toContextDTO(evalCtx)})
	if err != nil {
		return model.ResolvedToggle{}, fmt.Errorf("failed to marshal context: %w", err)
	}
	req, err := c.authedRequest(parent, http.MethodPost, "/v1/frontend/resolve/"+url.PathEscape(name), bytes.NewReader(body))
	if err != nil {
		return model.ResolvedToggle{}, err
	}

	var result model.ResolvedToggle
	if err := c.do(req, &result); err != nil {
		return model.ResolvedToggle{}, err
	}
	return result, nil
}

// EvaluateAll resolves every applied toggle against evalCtx.
func (c *Client) EvaluateAll(parent context.Context, evalCtx ctx.Context) (map[string]model.ResolvedToggle, error) {
	u, err := url.Parse(c.BaseURL + "/v1/frontend/resolve-all")
	if err != nil {
		return nil, fmt.Errorf("failed to parse URL: %w", err)
	}
	q := u.Query()
	if evalCtx.UserID != "" {
		q.Set("userId", evalCtx.UserID)
	}
	if evalCtx.SessionID != "" {
		q.Set("sessionId", evalCtx.SessionID)
	}
	if evalCtx.Environment != "" {
		q.Set("environment", evalCtx.Environment)
	}
	if evalCtx.AppName != "" {
		q.Set("appName", evalCtx.AppName)
	}
	for k, v := range evalCtx.Properties {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()

	req, err := c.authedRequest(parent, http.MethodGet, u.Path+"?"+u.RawQuery, nil)
	if err != nil {
		return nil, err
	}

	var result resolveAllResponse
	if err := c.do(req, &result); err != nil {
		return nil, err
	}
	return result.Toggles, nil
}

// Metrics fetches the caller-defined impact-metrics registry as exposed at
// /v1/admin/metrics.
func (c *Client) Metrics(parent context.Context) (map[string]any, error) {
	req, err := c.authedRequest(parent, http.MethodGet, "/v1/admin/metrics", nil)
	if err != nil {
		return nil, err
	}

	var result map[string]any
	if err := c.do(req, &result); err != nil {
		return nil, err
	}
	return result, nil
}

// StreamEvent is one parsed Server-Sent Event from /v1/client/stream.
type StreamEvent struct {
	Event string
	ETag  string
}

// Stream subscribes to /v1/client/stream and delivers parsed events on the
// returned channel until parent is canceled or the connection drops. The
// channel is closed when streaming stops.
func (c *Client) Stream(parent context.Context) (<-chan StreamEvent, error) {
	req, err := c.authedRequest(parent, http.MethodGet, "/v1/client/stream", nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "text/event-stream")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("stream request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(bodyBytes))
	}

	events := make(chan StreamEvent)
	go func() {
		defer close(events)
		defer resp.Body.Close()

		scanner := bufio.NewScanner(resp.Body)
		var currentEvent string
		for scanner.Scan() {
			line := scanner.Text()
			switch {
			case strings.HasPrefix(line, "event:"):
				currentEvent = strings.TrimSpace(strings.TrimPrefix(line, "event:"))
			case strings.HasPrefix(line, "data:"):
				if currentEvent == "" {
					continue
				}
				data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
				var payload struct {
					ETag string `json:"etag"`
				}
				_ = json.Unmarshal([]byte(data), &payload)
				select {
				case events <- StreamEvent{Event: currentEvent, ETag: payload.ETag}:
				case <-parent.Done():
					return
				}
				currentEvent = ""
			}
		}
	}()

	return events, nil
}

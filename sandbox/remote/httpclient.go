package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// HTTPClientConfig configures the default HTTP sandbox client.
type HTTPClientConfig struct {
	// Endpoint is the base URL of the sandbox service.
	// Required.
	Endpoint string

	// Token is an optional bearer token.
	Token string

	// HTTPClient overrides the underlying client.
	// Default: http.Client with a 5 minute timeout.
	HTTPClient *http.Client
}

// HTTPClient implements SandboxClient over the sandbox service's REST API.
type HTTPClient struct {
	endpoint string
	token    string
	client   *http.Client
}

// NewHTTPClient creates an HTTP sandbox client.
func NewHTTPClient(cfg HTTPClientConfig) *HTTPClient {
	client := cfg.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Minute}
	}
	return &HTTPClient{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		token:    cfg.Token,
		client:   client,
	}
}

// Endpoint returns the configured base URL for diagnostics.
func (c *HTTPClient) Endpoint() string {
	return c.endpoint
}

// CreateSandbox provisions an execution context.
func (c *HTTPClient) CreateSandbox(ctx context.Context, spec SandboxSpec) (SandboxInfo, error) {
	body := map[string]any{
		"ttl_seconds":   int64(spec.TTL.Seconds()),
		"machine_shape": spec.MachineShape,
	}
	var resp struct {
		ID        string    `json:"id"`
		ExpiresAt time.Time `json:"expires_at"`
	}
	if err := c.do(ctx, http.MethodPost, "/v1/sandboxes", body, &resp); err != nil {
		return SandboxInfo{}, err
	}
	return SandboxInfo{ID: resp.ID, ExpiresAt: resp.ExpiresAt}, nil
}

// Execute runs code inside an existing execution context.
func (c *HTTPClient) Execute(ctx context.Context, sandboxID string, req ExecutePayload) (ResultPayload, error) {
	var resp ResultPayload
	path := fmt.Sprintf("/v1/sandboxes/%s/execute", sandboxID)
	if err := c.do(ctx, http.MethodPost, path, req, &resp); err != nil {
		return ResultPayload{}, err
	}
	return resp, nil
}

// DeleteSandbox releases an execution context.
func (c *HTTPClient) DeleteSandbox(ctx context.Context, sandboxID string) error {
	return c.do(ctx, http.MethodDelete, "/v1/sandboxes/"+sandboxID, nil, nil)
}

var _ SandboxClient = (*HTTPClient)(nil)

func (c *HTTPClient) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		reader = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint+path, reader)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("sandbox service %s %s: status %d: %s", method, path, resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

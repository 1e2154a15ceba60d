package connection

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/yndnr/tokvault-go/internal/infra/buildinfo"
	"github.com/yndnr/tokvault-go/internal/server/httpserver/handler"
)

// DefaultTimeout bounds every request except backups.
const DefaultTimeout = 30 * time.Second

// HTTPClient provides HTTP communication with the server.
type HTTPClient struct {
	baseURL string
	client  *http.Client
	apiKey  string
}

// NewHTTPClient creates a new HTTP client. server may omit the scheme.
func NewHTTPClient(server, apiKey string) *HTTPClient {
	baseURL := strings.TrimRight(server, "/")
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}

	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{},
	}
}

// BaseURL returns the base URL of the client.
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	c.addHeaders(req)
	return c.client.Do(req)
}

// Post performs a POST request with JSON body.
func (c *HTTPClient) Post(ctx context.Context, path string, body any) (*http.Response, error) {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	c.addHeaders(req)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.client.Do(req)
}

func (c *HTTPClient) addHeaders(req *http.Request) {
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}
	req.Header.Set("User-Agent", buildinfo.UserAgent("tokvault-cli"))
}

// Tokenize calls POST /tokenize.
func (c *HTTPClient) Tokenize(ctx context.Context, text string) (string, error) {
	var out handler.TokenizeResponse
	if err := c.vaultCall(ctx, "/tokenize", text, &out); err != nil {
		return "", err
	}
	return out.Tokenized, nil
}

// Detokenize calls POST /detokenize.
func (c *HTTPClient) Detokenize(ctx context.Context, text string) (string, error) {
	var out handler.DetokenizeResponse
	if err := c.vaultCall(ctx, "/detokenize", text, &out); err != nil {
		return "", err
	}
	return out.Detokenized, nil
}

func (c *HTTPClient) vaultCall(ctx context.Context, path, text string, target any) error {
	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	resp, err := c.Post(ctx, path, handler.VaultRequest{Input: &text})
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	return ParseResponse(resp, target)
}

// Health calls GET /health.
func (c *HTTPClient) Health(ctx context.Context) (*handler.HealthResponse, error) {
	var out handler.HealthResponse
	if err := c.getEnvelope(ctx, "/health", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Ready calls GET /ready.
func (c *HTTPClient) Ready(ctx context.Context) (*handler.HealthResponse, error) {
	var out handler.HealthResponse
	if err := c.getEnvelope(ctx, "/ready", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Status calls GET /admin/v1/status.
func (c *HTTPClient) Status(ctx context.Context) (*handler.StatusResponse, error) {
	var out handler.StatusResponse
	if err := c.getEnvelope(ctx, "/admin/v1/status", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *HTTPClient) getEnvelope(ctx context.Context, path string, target any) error {
	ctx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	resp, err := c.Get(ctx, path)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	return ParseEnvelope(resp, target)
}

// Backup streams GET /admin/v1/backup into w and returns the byte count.
// ctx alone bounds the transfer.
func (c *HTTPClient) Backup(ctx context.Context, w io.Writer) (int64, error) {
	resp, err := c.Get(ctx, "/admin/v1/backup")
	if err != nil {
		return 0, fmt.Errorf("request failed: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return 0, ParseResponse(resp, nil)
	}
	defer resp.Body.Close()

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, fmt.Errorf("read backup: %w", err)
	}
	return n, nil
}

// ParseResponse decodes a bare JSON body into target, turning error
// statuses into errors.
func ParseResponse(resp *http.Response, target any) error {
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return responseError(resp)
	}

	if target != nil {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}
	}
	return nil
}

// ParseEnvelope decodes the data field of an envelope response into target.
func ParseEnvelope(resp *http.Response, target any) error {
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := ParseResponse(resp, &env); err != nil {
		return err
	}
	if target == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, target); err != nil {
		return fmt.Errorf("parse response data: %w", err)
	}
	return nil
}

// responseError builds an error from an error response. Vault failures
// carry no body, only the status.
func responseError(resp *http.Response) error {
	var errResp struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Message != "" {
		return fmt.Errorf("[%s] %s", errResp.Code, errResp.Message)
	}
	return fmt.Errorf("request failed with status %d", resp.StatusCode)
}

package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/alfredjeanlab/secretary/internal/model"
)

// HTTPClient implements SecretaryClient using the admin HTTP/JSON API.
type HTTPClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewHTTPClient creates a new HTTP client targeting the given base URL
// (e.g. "http://localhost:8080"). When token is non-empty, an Authorization
// header is set on every request.
func NewHTTPClient(baseURL, token string) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Close is a no-op for the HTTP client.
func (c *HTTPClient) Close() error { return nil }

// --- Gate ---

func (c *HTTPClient) ListPending(ctx context.Context) ([]model.PendingRequest, error) {
	var resp struct {
		Pending []model.PendingRequest `json:"pending"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/pending", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Pending, nil
}

func (c *HTTPClient) Decide(ctx context.Context, senderID string, d model.Decision) (*model.Resolution, error) {
	body := map[string]string{"decision": d.String()}
	var res model.Resolution
	if err := c.doJSON(ctx, http.MethodPost, "/v1/pending/"+url.PathEscape(senderID)+"/decide", body, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (c *HTTPClient) Reply(ctx context.Context, text string) (*ReplyResponse, error) {
	var resp ReplyResponse
	if err := c.doJSON(ctx, http.MethodPost, "/v1/replies", map[string]string{"text": text}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// --- Sessions ---

func (c *HTTPClient) ListSessions(ctx context.Context) ([]model.TrustSession, error) {
	var resp struct {
		Sessions []model.TrustSession `json:"sessions"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/sessions", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Sessions, nil
}

func (c *HTTPClient) GetSession(ctx context.Context, senderID string) (*model.TrustSession, error) {
	var sess model.TrustSession
	if err := c.doJSON(ctx, http.MethodGet, "/v1/sessions/"+url.PathEscape(senderID), nil, &sess); err != nil {
		return nil, err
	}
	return &sess, nil
}

func (c *HTTPClient) RevokeSession(ctx context.Context, senderID string) error {
	return c.doJSON(ctx, http.MethodDelete, "/v1/sessions/"+url.PathEscape(senderID), nil, nil)
}

// --- Identities ---

func (c *HTTPClient) ListIdentities(ctx context.Context) ([]model.SenderIdentity, error) {
	var resp struct {
		Identities []model.SenderIdentity `json:"identities"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/v1/identities", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Identities, nil
}

func (c *HTTPClient) GetIdentity(ctx context.Context, senderID string) (*model.SenderIdentity, error) {
	var id model.SenderIdentity
	if err := c.doJSON(ctx, http.MethodGet, "/v1/identities/"+url.PathEscape(senderID), nil, &id); err != nil {
		return nil, err
	}
	return &id, nil
}

// --- Health ---

func (c *HTTPClient) Health(ctx context.Context) (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.doJSON(ctx, http.MethodGet, "/v1/health", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// --- internal helpers ---

// APIError represents an error response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether err is an APIError with status 404.
func IsNotFound(err error) bool {
	apiErr, ok := err.(*APIError)
	return ok && apiErr.StatusCode == http.StatusNotFound
}

// doJSON performs an HTTP request with optional JSON body and decodes the JSON response.
// If result is nil, the response body is discarded (for DELETE/204 responses).
func (c *HTTPClient) doJSON(ctx context.Context, method, path string, body any, result any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshaling request body: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("performing request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNoContent {
		return nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var errResp struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(respBody, &errResp) == nil && errResp.Error != "" {
			return &APIError{StatusCode: resp.StatusCode, Message: errResp.Error}
		}
		return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(respBody))}
	}

	if result != nil {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("decoding response: %w", err)
		}
	}
	return nil
}

var _ SecretaryClient = (*HTTPClient)(nil)

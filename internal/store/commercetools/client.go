package commercetools

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/utafrali/reviews-service/pkg/httpclient"
)

// Config holds the commercetools project credentials and endpoints.
type Config struct {
	ProjectKey   string
	ClientID     string
	ClientSecret string
	AuthURL      string
	APIURL       string
	Scopes       string
}

// Complete reports whether every field needed to reach the platform is set.
func (c Config) Complete() bool {
	return c.ProjectKey != "" && c.ClientID != "" && c.ClientSecret != "" &&
		c.AuthURL != "" && c.APIURL != ""
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// Client is an authenticated commercetools API client. It obtains OAuth
// tokens via the client credentials flow and refreshes them before expiry.
type Client struct {
	cfg    Config
	http   *httpclient.CircuitBreakerClient
	logger *slog.Logger

	mu          sync.Mutex
	accessToken string
	expiresAt   time.Time
}

// NewClient builds a client and verifies credentials by fetching a token.
func NewClient(ctx context.Context, cfg Config, logger *slog.Logger) (*Client, error) {
	c := &Client{
		cfg: cfg,
		http: httpclient.NewCircuitBreakerClient(
			httpclient.New(httpclient.DefaultConfig()),
			httpclient.DefaultCircuitBreakerConfig("commercetools"),
			logger,
		),
		logger: logger,
	}

	if _, err := c.token(ctx); err != nil {
		return nil, fmt.Errorf("authenticate: %w", err)
	}
	return c, nil
}

// token returns a valid access token, refreshing when within a minute of
// expiry.
func (c *Client) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Now().Before(c.expiresAt.Add(-time.Minute)) {
		return c.accessToken, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	if c.cfg.Scopes != "" {
		form.Set("scope", c.cfg.Scopes)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.cfg.AuthURL+"/oauth/token", strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.cfg.ClientID, c.cfg.ClientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("token request: status %d: %s", resp.StatusCode, body)
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("decode token: %w", err)
	}

	c.accessToken = tok.AccessToken
	c.expiresAt = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)

	c.logger.Debug("access token refreshed",
		slog.Time("expires_at", c.expiresAt),
	)
	return c.accessToken, nil
}

// apiError is a decoded platform error response. The platform reports the
// reason for a rejection in a list of coded errors.
type apiError struct {
	Status  int    `json:"statusCode"`
	Message string `json:"message"`
	Errors  []struct {
		Code string `json:"code"`
	} `json:"errors"`
}

func (e *apiError) Error() string {
	return fmt.Sprintf("status %d: %s", e.Status, e.Message)
}

// HasCode reports whether any of the response's errors carries the code.
func (e *apiError) HasCode(code string) bool {
	for _, item := range e.Errors {
		if item.Code == code {
			return true
		}
	}
	return false
}

// do issues an authenticated request against the project API and decodes a
// JSON response into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, body io.Reader, out any) (int, error) {
	tok, err := c.token(ctx)
	if err != nil {
		return 0, err
	}

	endpoint := fmt.Sprintf("%s/%s%s", c.cfg.APIURL, c.cfg.ProjectKey, path)
	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return 0, err
	}
	req.Header.Set("Authorization", "Bearer "+tok)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(ctx, req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		apiErr := &apiError{Status: resp.StatusCode, Message: string(raw)}
		var decoded apiError
		if json.Unmarshal(raw, &decoded) == nil && decoded.Message != "" {
			apiErr.Message = decoded.Message
			apiErr.Errors = decoded.Errors
		}
		return resp.StatusCode, fmt.Errorf("%s %s: %w", method, path, apiErr)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.StatusCode, fmt.Errorf("decode response: %w", err)
		}
	}
	return resp.StatusCode, nil
}

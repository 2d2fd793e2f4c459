package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/dmitrijs2005/atolye/internal/client/models"
	"github.com/dmitrijs2005/atolye/internal/common"
	"github.com/google/uuid"
)

// REST paths relative to the API base URL.
const (
	pathLogin   = "auth/login/"
	pathMe      = "auth/me/"
	pathRefresh = "auth/token/refresh/"
	pathHealth  = "health/"
)

// maxErrorBody bounds how much of an error response is kept in the message.
const maxErrorBody = 512

type HTTPClient struct {
	baseURL *url.URL
	http    *http.Client
}

// NewHTTPClient builds a client for the API rooted at baseURL
// (e.g. "http://localhost:8000/api/"). timeout bounds every request; zero
// means no client-side limit beyond the context.
func NewHTTPClient(baseURL string, timeout time.Duration) (*HTTPClient, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse api url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("parse api url: unsupported scheme %q", u.Scheme)
	}
	if !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return &HTTPClient{baseURL: u, http: &http.Client{Timeout: timeout}}, nil
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Access  string         `json:"access"`
	Refresh string         `json:"refresh"`
	User    models.Profile `json:"user"`
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

// refreshResponse accepts both the snake and the camel spelling used by
// different backend versions.
type refreshResponse struct {
	Access       string `json:"access"`
	Refresh      string `json:"refresh"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func (c *HTTPClient) Login(ctx context.Context, username string, password []byte) (*LoginResult, error) {
	var resp loginResponse
	req := loginRequest{Username: username, Password: string(password)}
	if err := c.do(ctx, http.MethodPost, pathLogin, "", req, &resp); err != nil {
		return nil, err
	}
	if resp.Access == "" || resp.Refresh == "" {
		return nil, fmt.Errorf("%w: login response without tokens", ErrBadResponse)
	}
	return &LoginResult{AccessToken: resp.Access, RefreshToken: resp.Refresh, User: resp.User}, nil
}

func (c *HTTPClient) WhoAmI(ctx context.Context, accessToken string) (*models.Profile, error) {
	var p models.Profile
	if err := c.do(ctx, http.MethodGet, pathMe, accessToken, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

func (c *HTTPClient) RefreshToken(ctx context.Context, refreshToken string) (*TokenPair, error) {
	var resp refreshResponse
	if err := c.do(ctx, http.MethodPost, pathRefresh, "", refreshRequest{Refresh: refreshToken}, &resp); err != nil {
		return nil, err
	}

	pair := &TokenPair{AccessToken: resp.Access, RefreshToken: resp.Refresh}
	if pair.AccessToken == "" {
		pair.AccessToken = resp.AccessToken
	}
	if pair.RefreshToken == "" {
		pair.RefreshToken = resp.RefreshToken
	}
	if pair.AccessToken == "" {
		return nil, fmt.Errorf("%w: refresh response without access token", ErrBadResponse)
	}
	return pair, nil
}

func (c *HTTPClient) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, pathHealth, "", nil, nil)
}

func (c *HTTPClient) Close() error {
	c.http.CloseIdleConnections()
	return nil
}

// do sends one JSON request. bearer, when set, goes to the Authorization
// header; out, when non-nil, receives the decoded 2xx body.
func (c *HTTPClient) do(ctx context.Context, method, path, bearer string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL.JoinPath(path).String(), body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set(common.RequestIDHeaderName, uuid.NewString())
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrUnavailable, err)
	}
	defer resp.Body.Close()

	if err := mapStatus(resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty body", ErrBadResponse)
		}
		return fmt.Errorf("%w: %w", ErrBadResponse, err)
	}
	return nil
}

func mapStatus(resp *http.Response) error {
	code := resp.StatusCode
	if code >= 200 && code < 300 {
		return nil
	}

	msg, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	detail := strings.TrimSpace(string(msg))

	switch {
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return fmt.Errorf("%w: %s", ErrUnauthorized, resp.Status)
	case code == http.StatusRequestTimeout, code == http.StatusTooManyRequests, code >= 500:
		return fmt.Errorf("%w: %s", ErrUnavailable, resp.Status)
	default:
		return fmt.Errorf("unexpected response %s: %s", resp.Status, detail)
	}
}

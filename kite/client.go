package kite

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jrsteele09/go-kite-session/internal/config"
	apperrors "github.com/jrsteele09/go-kite-session/internal/errors"
	"golang.org/x/oauth2"
)

const (
	versionHeader = "X-Kite-Version"
	apiVersion    = "3"

	pathSessionToken = "/session/token"
	pathUserProfile  = "/user/profile"
	pathHoldings     = "/portfolio/holdings"

	// authorization scheme Kite expects: "token <api_key>:<access_token>"
	tokenType = "token"

	maxBodyBytes = 4 << 20
)

// Client talks to the Kite Connect API. Every call is bounded by the configured timeout.
type Client struct {
	apiKey         string
	baseURL        string
	loginURL       string
	legacyLoginURL string
	httpClient     *http.Client
}

type ClientOption func(*Client)

// WithHTTPClient replaces the underlying HTTP client; its Transport is reused for authorized calls
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a client from the Kite configuration
func NewClient(cfg config.KiteConfig, options ...ClientOption) *Client {
	c := &Client{
		apiKey:         cfg.GetKiteAPIKey(),
		baseURL:        strings.TrimRight(cfg.GetKiteAPIBaseURL(), "/"),
		loginURL:       cfg.GetKiteLoginURL(),
		legacyLoginURL: cfg.GetKiteLegacyLoginURL(),
		httpClient:     &http.Client{Timeout: cfg.GetKiteTimeout()},
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// LoginURL returns the page users are redirected to for authentication.
// It is built locally; no network call is made.
func (c *Client) LoginURL() string {
	q := url.Values{}
	q.Set("api_key", c.apiKey)
	q.Set("v", apiVersion)
	return c.loginURL + "?" + q.Encode()
}

// ExchangeToken trades a request token for an access token. A non-2xx status or a
// response without an access token is reported as ErrUpstreamAuth.
func (c *Client) ExchangeToken(ctx context.Context, requestToken, checksum string) (*UserSession, error) {
	form := url.Values{}
	form.Set("api_key", c.apiKey)
	form.Set("request_token", requestToken)
	form.Set("checksum", checksum)

	req, err := c.newFormRequest(ctx, c.baseURL+pathSessionToken, form)
	if err != nil {
		return nil, err
	}

	var session UserSession
	if err := c.do(c.httpClient, req, apperrors.ErrUpstreamAuth, &session); err != nil {
		return nil, fmt.Errorf("[kite ExchangeToken] %w", err)
	}
	if session.AccessToken == "" {
		return nil, fmt.Errorf("[kite ExchangeToken] %w", &apperrors.UpstreamError{
			Kind:    apperrors.ErrUpstreamAuth,
			Status:  http.StatusOK,
			Message: "Failed to generate access token",
		})
	}
	return &session, nil
}

// LegacyLogin posts user credentials to the legacy login endpoint and returns the
// request token it issues.
func (c *Client) LegacyLogin(ctx context.Context, userID, password, twoFA string) (string, error) {
	form := url.Values{}
	form.Set("user_id", userID)
	form.Set("password", password)
	form.Set("twofa", twoFA)

	req, err := c.newFormRequest(ctx, c.legacyLoginURL, form)
	if err != nil {
		return "", err
	}

	var data legacyLoginData
	if err := c.do(c.httpClient, req, apperrors.ErrUpstreamAuth, &data); err != nil {
		return "", fmt.Errorf("[kite LegacyLogin] %w", err)
	}
	if data.RequestToken == "" {
		return "", fmt.Errorf("[kite LegacyLogin] %w", &apperrors.UpstreamError{
			Kind:    apperrors.ErrUpstreamAuth,
			Status:  http.StatusOK,
			Message: "Failed to get request token from Kite",
		})
	}
	return data.RequestToken, nil
}

// Profile fetches the live user profile for an access token
func (c *Client) Profile(ctx context.Context, accessToken string) (*Profile, error) {
	req, err := c.newGetRequest(ctx, c.baseURL+pathUserProfile)
	if err != nil {
		return nil, err
	}

	var profile Profile
	if err := c.do(c.authorizedClient(accessToken), req, apperrors.ErrUpstreamUnavailable, &profile); err != nil {
		return nil, fmt.Errorf("[kite Profile] %w", err)
	}
	return &profile, nil
}

// Holdings fetches the long-term holdings for an access token
func (c *Client) Holdings(ctx context.Context, accessToken string) ([]Holding, error) {
	req, err := c.newGetRequest(ctx, c.baseURL+pathHoldings)
	if err != nil {
		return nil, err
	}

	var holdings []Holding
	if err := c.do(c.authorizedClient(accessToken), req, apperrors.ErrUpstreamUnavailable, &holdings); err != nil {
		return nil, fmt.Errorf("[kite Holdings] %w", err)
	}
	return holdings, nil
}

// authorizedClient returns an HTTP client that signs requests with the user's access token
func (c *Client) authorizedClient(accessToken string) *http.Client {
	return &http.Client{
		Timeout: c.httpClient.Timeout,
		Transport: &oauth2.Transport{
			Source: oauth2.StaticTokenSource(&oauth2.Token{
				AccessToken: c.apiKey + ":" + accessToken,
				TokenType:   tokenType,
			}),
			Base: c.httpClient.Transport,
		},
	}
}

func (c *Client) newFormRequest(ctx context.Context, target string, form url.Values) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("[kite] build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set(versionHeader, apiVersion)
	return req, nil
}

func (c *Client) newGetRequest(ctx context.Context, target string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("[kite] build request: %w", err)
	}
	req.Header.Set(versionHeader, apiVersion)
	return req, nil
}

// do executes req and decodes the envelope's data into out. Transport failures and
// timeouts are ErrUpstreamUnavailable; a non-2xx status or an undecodable body is failKind.
func (c *Client) do(httpClient *http.Client, req *http.Request, failKind error, out any) error {
	start := time.Now()
	resp, err := httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s after %s: %w: %v", req.Method, req.URL.Path, time.Since(start).Round(time.Millisecond), apperrors.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%s %s read body: %w: %v", req.Method, req.URL.Path, apperrors.ErrUpstreamUnavailable, err)
	}

	var env envelope
	decodeErr := json.Unmarshal(body, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		upstreamErr := &apperrors.UpstreamError{Kind: failKind, Status: resp.StatusCode}
		if decodeErr == nil {
			upstreamErr.Message = env.Message
		}
		return upstreamErr
	}

	if decodeErr != nil {
		return &apperrors.UpstreamError{Kind: failKind, Status: resp.StatusCode, Message: "malformed response from Kite"}
	}
	if len(env.Data) == 0 || string(env.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return &apperrors.UpstreamError{Kind: failKind, Status: resp.StatusCode, Message: "malformed response from Kite"}
	}
	return nil
}

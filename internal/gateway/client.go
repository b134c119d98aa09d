// Hostbeat - Network Monitoring Dashboard Client
// Copyright 2026 Hostbeat Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/hostbeat/hostbeat

/*
client.go - Dashboard Server REST API Client

This file implements the REST client for the network monitoring
dashboard server. It covers authentication, host and host group
management, and alert retrieval.
*/

package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/goccy/go-json"
	"golang.org/x/time/rate"

	"github.com/hostbeat/hostbeat/internal/authz"
	"github.com/hostbeat/hostbeat/internal/config"
	"github.com/hostbeat/hostbeat/internal/metrics"
	"github.com/hostbeat/hostbeat/internal/models"
)

// TokenSource supplies the current bearer token. An empty string means
// no active session; requests are then sent without credentials.
type TokenSource interface {
	Token() string
}

// TokenFunc adapts a function to the TokenSource interface.
type TokenFunc func() string

func (f TokenFunc) Token() string { return f() }

// API defines the operations the dashboard server exposes. Both Client
// and BreakerClient implement this interface.
type API interface {
	Login(ctx context.Context, username, password string) (*AuthResult, error)
	Register(ctx context.Context, username, password, email string) (*AuthResult, error)
	Logout(ctx context.Context) error
	ListHosts(ctx context.Context) ([]models.Host, error)
	SearchHosts(ctx context.Context, name string) ([]models.Host, error)
	CreateHost(ctx context.Context, payload HostPayload) (*models.Host, error)
	UpdateHost(ctx context.Context, id int64, payload HostPayload) (*models.Host, error)
	DeleteHost(ctx context.Context, id int64) error
	ListAlerts(ctx context.Context) ([]models.Alert, error)
	ListGroups(ctx context.Context) ([]models.HostGroup, error)
	CreateGroup(ctx context.Context, payload GroupPayload) (*models.HostGroup, error)
	DeleteGroup(ctx context.Context, id int64) error
	WebSocketURL() (string, error)
}

var _ API = (*Client)(nil)

// AuthResult is the server's response to login and register.
type AuthResult struct {
	AccessToken string     `json:"access_token"`
	TokenType   string     `json:"token_type"`
	Username    string     `json:"username"`
	Role        authz.Role `json:"role"`
}

// HostPayload is the body for host create and update. Update is a full
// replace: every field is sent, not a diff.
type HostPayload struct {
	Name    string `json:"name" validate:"required,max=255"`
	IP      string `json:"ip" validate:"required,ip"`
	GroupID *int64 `json:"group_id" validate:"omitempty,min=1"`
}

// GroupPayload is the body for host group creation.
type GroupPayload struct {
	Name        string  `json:"name" validate:"required,max=255"`
	Description *string `json:"description,omitempty" validate:"omitempty,max=1024"`
}

// Client provides access to the dashboard server REST API.
type Client struct {
	baseURL    string
	tokens     TokenSource
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a dashboard server API client. tokens may be nil
// for a client that never authenticates.
func NewClient(cfg *config.Config, tokens TokenSource) *Client {
	var limiter *rate.Limiter
	if cfg.Gateway.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.Gateway.RateLimit), cfg.Gateway.RateBurst)
	}

	return &Client{
		baseURL: strings.TrimSuffix(cfg.Server.URL, "/"),
		tokens:  tokens,
		httpClient: &http.Client{
			Timeout: cfg.Server.Timeout,
		},
		limiter: limiter,
	}
}

// Login exchanges credentials for a bearer token.
func (c *Client) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	body := map[string]string{"username": username, "password": password}

	var result AuthResult
	if err := c.doJSON(ctx, http.MethodPost, "/auth/login", "login", body, &result); err != nil {
		return nil, fmt.Errorf("login failed: %w", err)
	}
	return &result, nil
}

// Register creates an account and returns a token for it immediately.
func (c *Client) Register(ctx context.Context, username, password, email string) (*AuthResult, error) {
	body := map[string]string{"username": username, "password": password}
	if email != "" {
		body["email"] = email
	}

	var result AuthResult
	if err := c.doJSON(ctx, http.MethodPost, "/auth/register", "register", body, &result); err != nil {
		return nil, fmt.Errorf("registration failed: %w", err)
	}
	return &result, nil
}

// Logout notifies the server. The session itself is discarded locally
// regardless of the outcome.
func (c *Client) Logout(ctx context.Context) error {
	if err := c.doJSON(ctx, http.MethodPost, "/auth/logout", "logout", nil, nil); err != nil {
		return fmt.Errorf("logout failed: %w", err)
	}
	return nil
}

// ListHosts retrieves all monitored hosts.
func (c *Client) ListHosts(ctx context.Context) ([]models.Host, error) {
	var hosts []models.Host
	if err := c.doJSON(ctx, http.MethodGet, "/hosts/", "list_hosts", nil, &hosts); err != nil {
		return nil, fmt.Errorf("hosts request failed: %w", err)
	}
	return hosts, nil
}

// SearchHosts retrieves hosts whose name matches the filter.
func (c *Client) SearchHosts(ctx context.Context, name string) ([]models.Host, error) {
	endpoint := "/hosts/search?name=" + url.QueryEscape(name)

	var hosts []models.Host
	if err := c.doJSON(ctx, http.MethodGet, endpoint, "search_hosts", nil, &hosts); err != nil {
		return nil, fmt.Errorf("host search failed: %w", err)
	}
	return hosts, nil
}

// CreateHost registers a new host for monitoring.
func (c *Client) CreateHost(ctx context.Context, payload HostPayload) (*models.Host, error) {
	var host models.Host
	if err := c.doJSON(ctx, http.MethodPost, "/hosts/", "create_host", payload, &host); err != nil {
		return nil, fmt.Errorf("host create failed: %w", err)
	}
	return &host, nil
}

// UpdateHost replaces a host's definition. The payload carries every
// field; the server applies it as a whole.
func (c *Client) UpdateHost(ctx context.Context, id int64, payload HostPayload) (*models.Host, error) {
	endpoint := fmt.Sprintf("/hosts/%d", id)

	var host models.Host
	if err := c.doJSON(ctx, http.MethodPut, endpoint, "update_host", payload, &host); err != nil {
		return nil, fmt.Errorf("host update failed: %w", err)
	}
	return &host, nil
}

// DeleteHost removes a host.
func (c *Client) DeleteHost(ctx context.Context, id int64) error {
	endpoint := fmt.Sprintf("/hosts/%d", id)

	if err := c.doJSON(ctx, http.MethodDelete, endpoint, "delete_host", nil, nil); err != nil {
		return fmt.Errorf("host delete failed: %w", err)
	}
	return nil
}

// ListAlerts retrieves all alerts, newest last or in server order; the
// caller decides presentation order.
func (c *Client) ListAlerts(ctx context.Context) ([]models.Alert, error) {
	var alerts []models.Alert
	if err := c.doJSON(ctx, http.MethodGet, "/alerts/", "list_alerts", nil, &alerts); err != nil {
		return nil, fmt.Errorf("alerts request failed: %w", err)
	}
	return alerts, nil
}

// ListGroups retrieves all host groups with server-derived host counts.
func (c *Client) ListGroups(ctx context.Context) ([]models.HostGroup, error) {
	var groups []models.HostGroup
	if err := c.doJSON(ctx, http.MethodGet, "/hostgroups/", "list_groups", nil, &groups); err != nil {
		return nil, fmt.Errorf("host groups request failed: %w", err)
	}
	return groups, nil
}

// CreateGroup creates a host group.
func (c *Client) CreateGroup(ctx context.Context, payload GroupPayload) (*models.HostGroup, error) {
	var group models.HostGroup
	if err := c.doJSON(ctx, http.MethodPost, "/hostgroups/", "create_group", payload, &group); err != nil {
		return nil, fmt.Errorf("host group create failed: %w", err)
	}
	return &group, nil
}

// DeleteGroup removes a host group.
func (c *Client) DeleteGroup(ctx context.Context, id int64) error {
	endpoint := fmt.Sprintf("/hostgroups/%d", id)

	if err := c.doJSON(ctx, http.MethodDelete, endpoint, "delete_group", nil, nil); err != nil {
		return fmt.Errorf("host group delete failed: %w", err)
	}
	return nil
}

// WebSocketURL returns the alert stream URL with the current token as
// a query credential.
func (c *Client) WebSocketURL() (string, error) {
	parsedURL, err := url.Parse(c.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid base URL: %w", err)
	}

	switch parsedURL.Scheme {
	case "http":
		parsedURL.Scheme = "ws"
	case "https":
		parsedURL.Scheme = "wss"
	default:
		parsedURL.Scheme = "ws"
	}

	parsedURL.Path = "/ws/alerts"
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			query := parsedURL.Query()
			query.Set("token", token)
			parsedURL.RawQuery = query.Encode()
		}
	}

	return parsedURL.String(), nil
}

// doJSON performs a request with an optional JSON body, decodes a 2xx
// response into out (skipped when out is nil), and converts non-2xx
// responses into *APIError.
func (c *Client) doJSON(ctx context.Context, method, endpoint, operation string, body, out any) error {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("rate limiter: %w", err)
		}
	}

	var reqBody io.Reader = http.NoBody
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	metrics.GatewayRequestDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.GatewayRequests.WithLabelValues(operation, "error").Inc()
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		metrics.GatewayRequests.WithLabelValues(operation, "failure").Inc()
		return decodeAPIError(resp)
	}
	metrics.GatewayRequests.WithLabelValues(operation, "success").Inc()

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

// decodeAPIError reads a non-2xx body and extracts the server's
// detail message when the body is the usual {"detail": "..."} shape.
func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return apiErr
	}

	var payload struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.Detail != "" {
		apiErr.Detail = payload.Detail
	}

	return apiErr
}

// AngelaMos | 2026
// client.go

package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/carterperez-dev/templates/fooddelivery-web/internal/auth"
	"github.com/carterperez-dev/templates/fooddelivery-web/internal/config"
	"github.com/carterperez-dev/templates/fooddelivery-web/internal/core"
)

const maxBodyBytes = 1 << 20

type Client struct {
	baseURL *url.URL
	paths   config.GatewayConfig
	http    *http.Client
	logger  *slog.Logger
}

type Option func(*Client)

func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func NewClient(cfg config.GatewayConfig, opts ...Option) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse gateway url: %w", err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("gateway url %q is not absolute", cfg.BaseURL)
	}

	c := &Client{
		baseURL: base,
		paths:   cfg,
		http: &http.Client{
			Timeout:   cfg.Timeout,
			Transport: core.InstrumentTransport(http.DefaultTransport),
		},
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "gateway")

	return c, nil
}

func (c *Client) Login(ctx context.Context, creds auth.Credentials) (string, error) {
	var out auth.TokenResponse
	if err := c.do(ctx, http.MethodPost, c.paths.LoginPath, "", creds, &out); err != nil {
		return "", err
	}

	token := strings.TrimSpace(out.Token)
	if token == "" {
		return "", &Error{Status: http.StatusBadGateway, Message: "login response carried no token"}
	}
	return token, nil
}

func (c *Client) Register(ctx context.Context, reg auth.Registration) error {
	return c.do(ctx, http.MethodPost, c.paths.RegisterPath, "", reg, nil)
}

// RestaurantApproval asks for the caller's approval state. 204 and 404
// answers count as no data, not as errors.
func (c *Client) RestaurantApproval(
	ctx context.Context,
	token string,
) (auth.ApprovalState, bool, error) {
	status, body, err := c.send(ctx, http.MethodGet, c.paths.ApprovalPath, token, nil)
	if err != nil {
		return auth.ApprovalState{}, false, err
	}

	switch {
	case status == http.StatusNoContent, status == http.StatusNotFound:
		return auth.ApprovalState{}, false, nil
	case status < 200 || status > 299:
		return auth.ApprovalState{}, false, statusError(status, body)
	}

	state, found, err := DecodeApproval(body)
	if err != nil {
		return auth.ApprovalState{}, false, &Error{Status: status, Message: "malformed approval state", Err: err}
	}
	return state, found, nil
}

func (c *Client) Profile(ctx context.Context, token string) (*auth.Profile, error) {
	var p auth.Profile
	if err := c.do(ctx, http.MethodGet, c.paths.ProfilePath, token, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Restaurants lists every restaurant account with its approval state.
// The gateway only answers for admin tokens.
func (c *Client) Restaurants(ctx context.Context, token string) ([]auth.RestaurantSummary, error) {
	var out []auth.RestaurantSummary
	if err := c.do(ctx, http.MethodGet, c.paths.AdminPath, token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) DecideRestaurant(
	ctx context.Context,
	token, username string,
	decision auth.ApprovalDecision,
) error {
	path := strings.TrimRight(c.paths.AdminPath, "/") + "/" + username + "/estado"
	return c.do(ctx, http.MethodPut, path, token, decision, nil)
}

func (c *Client) Ping(ctx context.Context) error {
	status, body, err := c.send(ctx, http.MethodGet, c.paths.HealthPath, "", nil)
	if err != nil {
		return err
	}
	if status < 200 || status > 299 {
		return statusError(status, body)
	}
	return nil
}

func (c *Client) do(
	ctx context.Context,
	method, path, token string,
	in, out any,
) error {
	status, body, err := c.send(ctx, method, path, token, in)
	if err != nil {
		return err
	}

	if status < 200 || status > 299 {
		return statusError(status, body)
	}

	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &Error{Status: status, Message: "malformed response body", Err: err}
	}
	return nil
}

func (c *Client) send(
	ctx context.Context,
	method, path, token string,
	in any,
) (int, []byte, error) {
	var reqBody io.Reader
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return 0, nil, fmt.Errorf("encode request: %w", err)
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.endpoint(path), reqBody)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}

	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "gateway request failed",
			"method", method,
			"path", path,
			"error", err,
		)
		return 0, nil, unreachable(method+" "+path, err)
	}
	defer resp.Body.Close() //nolint:errcheck // read-only body

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return 0, nil, unreachable("read "+path, err)
	}

	c.logger.DebugContext(ctx, "gateway response",
		"method", method,
		"path", path,
		"status", resp.StatusCode,
	)

	return resp.StatusCode, body, nil
}

func (c *Client) endpoint(path string) string {
	u := *c.baseURL
	u.Path = strings.TrimRight(u.Path, "/") + "/" + strings.TrimLeft(path, "/")
	return u.String()
}

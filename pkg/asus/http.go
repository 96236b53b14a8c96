/*
 * Copyright 2025 the asuswatch authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package asus

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/skirwin/asuswatch/pkg/logger"
	"github.com/skirwin/asuswatch/pkg/models"
)

const (
	defaultRequestTimeout = 15 * time.Second

	hookClientList  = "get_clientlist()"
	hookCfgClients  = "get_cfg_clientlist()"
	hookLoad        = "cpu_usage(appobj);memory_usage(appobj)"
	hookUptime      = "uptime()"
	hookWANLink     = "wanlink()"
	hookNetdev      = "netdev(appobj)"
	serviceReboot   = "reboot"
	serviceWOL      = "start_wol"
	serviceLEDCtrl  = "restart_leds"
	loginPath       = "/login.cgi"
	appGetPath      = "/appGet.cgi"
	applyAppPath    = "/applyapp.cgi"
	tokenCookieName = "asus_token"
)

// HTTPClient implements Client against a router's asuswrt web interface.
type HTTPClient struct {
	baseURL    string
	username   string
	password   string
	httpClient *http.Client
	logger     logger.Logger

	mu    sync.Mutex
	token string
}

// HTTPClientOption customizes a new HTTPClient.
type HTTPClientOption func(*HTTPClient)

// WithHTTPClient overrides the underlying http.Client, mainly for tests.
func WithHTTPClient(hc *http.Client) HTTPClientOption {
	return func(c *HTTPClient) {
		c.httpClient = hc
	}
}

// NewHTTPClient creates a client for the router at baseURL, e.g.
// "http://192.168.1.1".
func NewHTTPClient(baseURL, username, password string, log logger.Logger, opts ...HTTPClientOption) *HTTPClient {
	c := &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		username:   username,
		password:   password,
		httpClient: &http.Client{Timeout: defaultRequestTimeout},
		logger:     log,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Login authenticates with the router's login.cgi and caches the session
// token for subsequent hook calls.
func (c *HTTPClient) Login(ctx context.Context) error {
	auth := base64.StdEncoding.EncodeToString([]byte(c.username + ":" + c.password))

	form := url.Values{}
	form.Set("login_authorization", auth)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+loginPath, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", "asusrouter-Android-DUTUtil-1.0.0.245")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrLoginFailed, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrLoginFailed, err)
	}

	var payload struct {
		Token string `json:"asus_token"`
	}

	if err := json.Unmarshal(body, &payload); err != nil || payload.Token == "" {
		return fmt.Errorf("%w: no token in response", ErrLoginFailed)
	}

	c.mu.Lock()
	c.token = payload.Token
	c.mu.Unlock()

	c.logger.Debug().Str("router", c.baseURL).Msg("Logged in to router")

	return nil
}

func (c *HTTPClient) GetRouters(ctx context.Context) ([]models.RouterInfo, error) {
	body, err := c.hook(ctx, hookCfgClients)
	if err != nil {
		return nil, err
	}

	return parseRouterList(body)
}

func (c *HTTPClient) GetAllClients(ctx context.Context) ([]models.ConnectedClient, error) {
	body, err := c.hook(ctx, hookClientList)
	if err != nil {
		return nil, err
	}

	return parseClientList(body, "", models.ScopeNetwork)
}

func (c *HTTPClient) GetClients(ctx context.Context, apMAC string, scope models.Scope) ([]models.ConnectedClient, error) {
	body, err := c.hook(ctx, hookClientList)
	if err != nil {
		return nil, err
	}

	return parseClientList(body, apMAC, scope)
}

func (c *HTTPClient) GetLoad(ctx context.Context, _ string) (*models.LoadStats, error) {
	body, err := c.hook(ctx, hookLoad)
	if err != nil {
		return nil, err
	}

	return parseLoad(body)
}

func (c *HTTPClient) GetUptime(ctx context.Context, _ string) (int64, error) {
	body, err := c.hook(ctx, hookUptime)
	if err != nil {
		return 0, err
	}

	return parseUptime(body)
}

func (c *HTTPClient) GetWANStatus(ctx context.Context) (*models.WANStatus, error) {
	body, err := c.hook(ctx, hookWANLink)
	if err != nil {
		return nil, err
	}

	return parseWANLink(body)
}

func (c *HTTPClient) GetTraffic(ctx context.Context) (*models.TrafficSample, error) {
	body, err := c.hook(ctx, hookNetdev)
	if err != nil {
		return nil, err
	}

	return parseNetdev(body)
}

func (c *HTTPClient) Reboot(ctx context.Context) error {
	return c.apply(ctx, url.Values{
		"action_mode": {"apply"},
		"rc_service":  {serviceReboot},
	})
}

func (c *HTTPClient) SetLED(ctx context.Context, on bool) error {
	val := "0"
	if on {
		val = "1"
	}

	return c.apply(ctx, url.Values{
		"action_mode": {"apply"},
		"rc_service":  {serviceLEDCtrl},
		"led_val":     {val},
	})
}

func (c *HTTPClient) WakeOnLAN(ctx context.Context, mac string) error {
	return c.apply(ctx, url.Values{
		"action_mode":  {"apply"},
		"rc_service":   {serviceWOL},
		"wol_mac_addr": {mac},
	})
}

// hook performs an appGet.cgi query, logging in first when no session token
// is cached and retrying once after a re-login when the router reports an
// expired session.
func (c *HTTPClient) hook(ctx context.Context, hook string) ([]byte, error) {
	if c.currentToken() == "" {
		if err := c.Login(ctx); err != nil {
			return nil, err
		}
	}

	body, err := c.doHook(ctx, hook)
	if err != nil {
		return nil, err
	}

	if sessionExpired(body) {
		c.logger.Debug().Str("hook", hook).Msg("Router session expired, re-authenticating")

		if err := c.Login(ctx); err != nil {
			return nil, err
		}

		return c.doHook(ctx, hook)
	}

	return body, nil
}

func (c *HTTPClient) doHook(ctx context.Context, hook string) ([]byte, error) {
	u := c.baseURL + appGetPath + "?hook=" + url.QueryEscape(hook)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}

	req.AddCookie(&http.Cookie{Name: tokenCookieName, Value: c.currentToken()})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d for hook %s", ErrRequestFailed, resp.StatusCode, hook)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}

	return body, nil
}

func (c *HTTPClient) apply(ctx context.Context, form url.Values) error {
	if c.currentToken() == "" {
		if err := c.Login(ctx); err != nil {
			return err
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+applyAppPath, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}

	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.AddCookie(&http.Cookie{Name: tokenCookieName, Value: c.currentToken()})

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrRequestFailed, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: status %d", ErrRequestFailed, resp.StatusCode)
	}

	return nil
}

func (c *HTTPClient) currentToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.token
}

// sessionExpired detects the error_status payload the router returns in
// place of hook data once a token goes stale.
func sessionExpired(body []byte) bool {
	var payload struct {
		ErrorStatus string `json:"error_status"`
	}

	if err := json.Unmarshal(body, &payload); err != nil {
		return false
	}

	return payload.ErrorStatus != ""
}

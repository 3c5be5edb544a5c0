// Package oauth implements the GitHub Copilot OAuth device authorization
// flow (RFC 8628): start a device code, poll for a GitHub OAuth token, and
// exchange that token for a short-lived Copilot API token.
//
// Endpoints, headers, and client ID are fixed by the Copilot Chat client
// contract and must match byte-for-byte; they are not configurable.
package oauth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/forgecode-ai/agent/internal/errkind"
)

const (
	// ClientID is the GitHub OAuth App client ID Copilot Chat registers as.
	ClientID = "Iv1.b507a08c87ecfe98"

	deviceCodeURL   = "https://github.com/login/device/code"
	accessTokenURL  = "https://github.com/login/oauth/access_token"
	copilotTokenURL = "https://api.github.com/copilot_internal/v2/token"
	deviceCodeScope = "read:user"
	grantTypeDevice = "urn:ietf:params:oauth:grant-type:device_code"
)

// Fixed header quadruple the Copilot backend requires on token-exchange and
// chat-completions requests.
const (
	headerUserAgent     = "GitHubCopilotChat/0.26.7"
	headerEditorVersion = "vscode/1.99.3"
	headerEditorPlugin  = "copilot-chat/0.26.7"
	headerIntegrationID = "vscode-chat"
)

// Client drives the Copilot device authorization flow over HTTP.
type Client struct {
	http *http.Client
}

// NewClient returns a Client using http.DefaultClient's transport with a
// bounded per-request timeout.
func NewClient() *Client {
	return &Client{http: &http.Client{Timeout: 30 * time.Second}}
}

// DeviceAuth is the result of starting the device flow: a code for the
// user to enter at verification, plus the polling cadence.
type DeviceAuth struct {
	DeviceCode      string
	UserCode        string
	VerificationURI string
	Interval        time.Duration
	ExpiresIn       time.Duration
}

type deviceCodeResponse struct {
	DeviceCode      string `json:"device_code"`
	UserCode        string `json:"user_code"`
	VerificationURI string `json:"verification_uri"`
	ExpiresIn       int    `json:"expires_in"`
	Interval        int    `json:"interval"`
}

// Authorize starts the device authorization flow.
func (c *Client) Authorize(ctx context.Context) (*DeviceAuth, error) {
	body, _ := json.Marshal(map[string]string{
		"client_id": ClientID,
		"scope":     deviceCodeScope,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, deviceCodeURL, bytes.NewReader(body))
	if err != nil {
		return nil, errkind.New(errkind.AuthInvalid, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", headerUserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errkind.New(errkind.ProviderTransport, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errkind.New(errkind.ProviderTransport, err)
	}
	if resp.StatusCode >= 300 {
		return nil, errkind.New(errkind.AuthInvalid, fmt.Errorf("device code request failed: %d %s", resp.StatusCode, data))
	}

	var dc deviceCodeResponse
	if err := json.Unmarshal(data, &dc); err != nil {
		return nil, errkind.New(errkind.ProviderProtocol, err)
	}

	interval := dc.Interval
	if interval == 0 {
		interval = 5
	}

	return &DeviceAuth{
		DeviceCode:      dc.DeviceCode,
		UserCode:        dc.UserCode,
		VerificationURI: dc.VerificationURI,
		Interval:        time.Duration(interval) * time.Second,
		ExpiresIn:       time.Duration(dc.ExpiresIn) * time.Second,
	}, nil
}

// PollStatus discriminates the outcome of one poll of the access-token endpoint.
type PollStatus string

const (
	PollPending PollStatus = "pending"
	PollSuccess PollStatus = "success"
	PollFailed  PollStatus = "failed"
)

// PollResult is the outcome of one poll cycle.
type PollResult struct {
	Status PollStatus
	// GitHubToken is the long-lived GitHub OAuth token, populated only
	// when Status == PollSuccess. This is what gets persisted as the
	// credential's Refresh field; Copilot API tokens derived from it are
	// refreshed independently and never persisted as the refresh token.
	GitHubToken string
}

type accessTokenResponse struct {
	AccessToken      string `json:"access_token"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// Poll performs a single poll of the access token endpoint for deviceCode.
// Callers are responsible for waiting DeviceAuth.Interval between calls.
func (c *Client) Poll(ctx context.Context, deviceCode string) (*PollResult, error) {
	body, _ := json.Marshal(map[string]string{
		"client_id":   ClientID,
		"device_code": deviceCode,
		"grant_type":  grantTypeDevice,
	})

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, accessTokenURL, bytes.NewReader(body))
	if err != nil {
		return nil, errkind.New(errkind.AuthInvalid, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", headerUserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errkind.New(errkind.ProviderTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return &PollResult{Status: PollFailed}, nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errkind.New(errkind.ProviderTransport, err)
	}

	var tr accessTokenResponse
	if err := json.Unmarshal(data, &tr); err != nil {
		return nil, errkind.New(errkind.ProviderProtocol, err)
	}

	if tr.AccessToken != "" {
		return &PollResult{Status: PollSuccess, GitHubToken: tr.AccessToken}, nil
	}
	if tr.Error == "authorization_pending" || tr.Error == "slow_down" {
		return &PollResult{Status: PollPending}, nil
	}
	if tr.Error != "" {
		return &PollResult{Status: PollFailed}, nil
	}
	return &PollResult{Status: PollPending}, nil
}

// CopilotToken is a short-lived Copilot API token exchanged from a
// long-lived GitHub OAuth token.
type CopilotToken struct {
	// Token is the bearer token to send to the Copilot chat-completions endpoint.
	Token string
	// ExpiresAtMS is wall-clock milliseconds since epoch.
	ExpiresAtMS int64
}

type copilotTokenResponse struct {
	Token     string `json:"token"`
	ExpiresAt int64  `json:"expires_at"`
	RefreshIn int64  `json:"refresh_in"`
}

// ExchangeForCopilotToken trades a long-lived GitHub OAuth token for a
// short-lived Copilot API token.
func (c *Client) ExchangeForCopilotToken(ctx context.Context, githubToken string) (*CopilotToken, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, copilotTokenURL, nil)
	if err != nil {
		return nil, errkind.New(errkind.AuthInvalid, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+githubToken)
	applyFixedHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errkind.New(errkind.ProviderTransport, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errkind.New(errkind.ProviderTransport, err)
	}
	if resp.StatusCode >= 300 {
		return nil, errkind.New(errkind.AuthInvalid, fmt.Errorf("copilot token exchange failed: %d %s", resp.StatusCode, data))
	}

	var tr copilotTokenResponse
	if err := json.Unmarshal(data, &tr); err != nil {
		return nil, errkind.New(errkind.ProviderProtocol, err)
	}

	return &CopilotToken{
		Token:       tr.Token,
		ExpiresAtMS: tr.ExpiresAt * 1000,
	}, nil
}

// applyFixedHeaders sets the Copilot Chat header quadruple required by
// both the token-exchange endpoint and every chat-completions request
// made with the resulting token.
func applyFixedHeaders(req *http.Request) {
	req.Header.Set("User-Agent", headerUserAgent)
	req.Header.Set("Editor-Version", headerEditorVersion)
	req.Header.Set("Editor-Plugin-Version", headerEditorPlugin)
	req.Header.Set("Copilot-Integration-Id", headerIntegrationID)
}

// ApplyFixedHeaders is the exported form used by the Copilot chat provider
// when issuing completion requests with a token obtained from this package.
func ApplyFixedHeaders(req *http.Request) {
	applyFixedHeaders(req)
}

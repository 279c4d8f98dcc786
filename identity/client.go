package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// DefaultMaxErrorBodyBytes caps how much of an error response body is read.
const DefaultMaxErrorBodyBytes = 1 << 20

// Doer executes an HTTP request. *http.Client satisfies it; the root package
// injects its request pipeline instead.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Endpoints defines a public type used by tmauth APIs.
//
// Endpoints holds the identity-service paths, overridable for deployments
// that mount the service under a different prefix.
type Endpoints struct {
	AutoLogin      string
	Register       string
	UpdateAndLogin string
	SharedPhone    string
	Refresh        string
	Profile        string
	Logout         string
}

// DefaultEndpoints describes the default endpoints operation and its
// observable behavior.
func DefaultEndpoints() Endpoints {
	return Endpoints{
		AutoLogin:      "/auth/v1/telegram/auto-login",
		Register:       "/auth/v1/telegram/register",
		UpdateAndLogin: "/auth/v1/telegram/update-and-login",
		SharedPhone:    "/auth/v1/telegram/get-shared-phone",
		Refresh:        "/auth/v1/refresh",
		Profile:        "/auth/v1/profile",
		Logout:         "/auth/v1/logout",
	}
}

// AutoLoginResponse defines a public type used by tmauth APIs.
//
// Authenticated false means the Telegram account is unknown and registration
// is required; the token fields are then absent.
type AutoLoginResponse struct {
	Authenticated bool   `json:"authenticated"`
	AccessToken   string `json:"access_token,omitempty"`
	RefreshToken  string `json:"refresh_token,omitempty"`
	TokenType     string `json:"token_type,omitempty"`
	ExpiresIn     int64  `json:"expires_in,omitempty"`
	UserID        string `json:"user_id,omitempty"`
	TenantID      string `json:"tenant_id,omitempty"`
	PhoneVerified bool   `json:"phone_verified,omitempty"`
}

// TokenBundle defines a public type used by tmauth APIs.
//
// TokenBundle is the success body of register, update-and-login, and refresh.
// Refresh returns only the token pair; the lifetime is then derived upstream.
type TokenBundle struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
	UserID       string `json:"user_id,omitempty"`
	TenantID     string `json:"tenant_id,omitempty"`
	IsNew        bool   `json:"is_new,omitempty"`
}

// RegisterRequest defines a public type used by tmauth APIs.
//
// RegisterRequest is the full business-registration payload.
type RegisterRequest struct {
	InitData          string   `json:"init_data"`
	Phone             string   `json:"phone"`
	TelegramPhone     string   `json:"telegram_phone,omitempty"`
	Name              string   `json:"name"`
	CompanyName       string   `json:"company_name"`
	City              string   `json:"city"`
	Address           string   `json:"address,omitempty"`
	AvailableChannels []string `json:"available_channels"`
	PreferredChannel  string   `json:"preferred_channel"`
}

// UpdateRequest defines a public type used by tmauth APIs.
//
// UpdateRequest is the partial update-and-login payload used to merge into an
// existing identity. Only InitData is required; absent fields keep the
// server-side values.
type UpdateRequest struct {
	InitData          string   `json:"init_data"`
	Phone             string   `json:"phone,omitempty"`
	TelegramPhone     string   `json:"telegram_phone,omitempty"`
	Name              string   `json:"name,omitempty"`
	CompanyName       string   `json:"company_name,omitempty"`
	City              string   `json:"city,omitempty"`
	Address           string   `json:"address,omitempty"`
	AvailableChannels []string `json:"available_channels,omitempty"`
	PreferredChannel  string   `json:"preferred_channel,omitempty"`
}

// ExistingUser defines a public type used by tmauth APIs.
//
// ExistingUser is the candidate identity returned with a 409 conflict.
type ExistingUser struct {
	UserID            string   `json:"user_id"`
	TenantID          string   `json:"tenant_id"`
	Name              string   `json:"name"`
	Phone             string   `json:"phone"`
	CompanyName       string   `json:"company_name"`
	City              string   `json:"city"`
	Address           string   `json:"address"`
	AvailableChannels []string `json:"available_channels"`
	PreferredChannel  string   `json:"preferred_channel"`
}

// Profile defines a public type used by tmauth APIs.
type Profile struct {
	ID            string          `json:"id"`
	TenantID      string          `json:"tenant_id"`
	Phone         string          `json:"phone"`
	Email         string          `json:"email"`
	EmailVerified bool            `json:"email_verified"`
	PhoneVerified bool            `json:"phone_verified"`
	Name          string          `json:"name"`
	AvatarURL     string          `json:"avatar_url"`
	Role          string          `json:"role"`
	Settings      json.RawMessage `json:"settings,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
}

// Client defines a public type used by tmauth APIs.
type Client struct {
	baseURL    string
	endpoints  Endpoints
	httpc      Doer
	maxErrBody int64
}

// ClientOption describes the client option operation and its observable
// behavior.
type ClientOption func(*Client)

// WithEndpoints overrides the default endpoint paths.
func WithEndpoints(e Endpoints) ClientOption {
	return func(c *Client) { c.endpoints = e }
}

// WithMaxErrorBodyBytes caps the error body read. Zero keeps the default.
func WithMaxErrorBodyBytes(n int64) ClientOption {
	return func(c *Client) {
		if n > 0 {
			c.maxErrBody = n
		}
	}
}

// NewClient describes the new client operation and its observable behavior.
// A nil doer falls back to a plain http.Client with a 30s timeout.
func NewClient(baseURL string, doer Doer, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    baseURL,
		endpoints:  DefaultEndpoints(),
		httpc:      doer,
		maxErrBody: DefaultMaxErrorBodyBytes,
	}
	if c.httpc == nil {
		c.httpc = &http.Client{Timeout: 30 * time.Second}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// AutoLogin attempts the idempotent Telegram auto-login.
func (c *Client) AutoLogin(ctx context.Context, initData string) (*AutoLoginResponse, error) {
	var out AutoLoginResponse
	in := struct {
		InitData string `json:"init_data"`
	}{InitData: initData}
	if err := c.doRequest(WithoutSession(ctx), http.MethodPost, c.endpoints.AutoLogin, in, &out); err != nil {
		return nil, fmt.Errorf("identity.AutoLogin: %w", err)
	}
	return &out, nil
}

// Register submits the full registration payload. A phone already bound to
// another identity yields a *ConflictError.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (*TokenBundle, error) {
	var out TokenBundle
	if err := c.doRequest(WithoutSession(ctx), http.MethodPost, c.endpoints.Register, req, &out); err != nil {
		return nil, fmt.Errorf("identity.Register: %w", err)
	}
	return &out, nil
}

// UpdateAndLogin merges the submitted fields into an existing identity and
// logs in as it.
func (c *Client) UpdateAndLogin(ctx context.Context, req UpdateRequest) (*TokenBundle, error) {
	var out TokenBundle
	if err := c.doRequest(WithoutSession(ctx), http.MethodPost, c.endpoints.UpdateAndLogin, req, &out); err != nil {
		return nil, fmt.Errorf("identity.UpdateAndLogin: %w", err)
	}
	return &out, nil
}

// SharedPhone looks up the phone number the Telegram account shared with the
// bot, if any.
func (c *Client) SharedPhone(ctx context.Context, initData string) (string, error) {
	in := struct {
		InitData string `json:"init_data"`
	}{InitData: initData}
	var out struct {
		Phone string `json:"phone"`
	}
	if err := c.doRequest(WithoutSession(ctx), http.MethodPost, c.endpoints.SharedPhone, in, &out); err != nil {
		return "", fmt.Errorf("identity.SharedPhone: %w", err)
	}
	return out.Phone, nil
}

// Refresh exchanges the refresh token for a new pair. The response carries no
// lifetime; expiry derivation happens upstream.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*TokenBundle, error) {
	in := struct {
		RefreshToken string `json:"refresh_token"`
	}{RefreshToken: refreshToken}
	var out TokenBundle
	if err := c.doRequest(WithoutSession(ctx), http.MethodPost, c.endpoints.Refresh, in, &out); err != nil {
		return nil, fmt.Errorf("identity.Refresh: %w", err)
	}
	return &out, nil
}

// Profile fetches the authenticated profile. The request goes through the
// pipeline, so it is subject to Bearer attach and 401 retry.
func (c *Client) Profile(ctx context.Context) (*Profile, error) {
	var out Profile
	if err := c.doRequest(ctx, http.MethodGet, c.endpoints.Profile, nil, &out); err != nil {
		return nil, fmt.Errorf("identity.Profile: %w", err)
	}
	return &out, nil
}

// Logout revokes the refresh token server-side.
func (c *Client) Logout(ctx context.Context, refreshToken string) error {
	in := struct {
		RefreshToken string `json:"refresh_token"`
	}{RefreshToken: refreshToken}
	if err := c.doRequest(WithoutSession(ctx), http.MethodPost, c.endpoints.Logout, in, nil); err != nil {
		return fmt.Errorf("identity.Logout: %w", err)
	}
	return nil
}

func (c *Client) doRequest(ctx context.Context, method, path string, body, out any) error {
	var reqBody io.Reader
	var raw []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal body: %w", err)
		}
		raw = data
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
		req.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(raw)), nil
		}
	}

	resp, err := c.httpc.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return c.decodeError(resp)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func (c *Client) decodeError(resp *http.Response) error {
	respBody, readErr := io.ReadAll(io.LimitReader(resp.Body, c.maxErrBody))
	if readErr != nil {
		return &APIError{StatusCode: resp.StatusCode, Detail: fmt.Sprintf("failed to read body: %v", readErr)}
	}

	if resp.StatusCode == http.StatusConflict {
		var conflict struct {
			Detail       string        `json:"detail"`
			ExistingUser *ExistingUser `json:"existing_user"`
		}
		if json.Unmarshal(respBody, &conflict) == nil && conflict.ExistingUser != nil {
			return &ConflictError{Detail: conflict.Detail, ExistingUser: *conflict.ExistingUser}
		}
	}

	var apiErr struct {
		Detail string `json:"detail"`
		Error  string `json:"error"`
	}
	if json.Unmarshal(respBody, &apiErr) == nil {
		if apiErr.Detail != "" {
			return &APIError{StatusCode: resp.StatusCode, Detail: apiErr.Detail}
		}
		if apiErr.Error != "" {
			return &APIError{StatusCode: resp.StatusCode, Detail: apiErr.Error}
		}
	}
	detail := string(bytes.TrimSpace(respBody))
	if detail == "" {
		detail = http.StatusText(resp.StatusCode)
	}
	return &APIError{StatusCode: resp.StatusCode, Detail: detail}
}

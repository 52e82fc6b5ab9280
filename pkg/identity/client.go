// Package identity talks to the external GoTrue-compatible identity
// provider that owns all credentials and sessions. The backend never
// mints or validates tokens itself; every bearer token is introspected
// through this client.
package identity

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

	"github.com/mercadolocal/mercados-backend/pkg/config"
	pkgerrors "github.com/mercadolocal/mercados-backend/pkg/errors"
)

const responseBodyReadLimit int64 = 4096

var (
	errURLRequired  = errors.New("identity provider url is required")
	errKeysRequired = errors.New("identity anon and service role keys are required")
)

// Client wraps the identity provider's auth API.
type Client struct {
	httpClient     *http.Client
	baseURL        string
	anonKey        string
	serviceRoleKey string
}

// Option configures optional client behavior.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient builds an identity client from configuration.
func NewClient(cfg config.IdentityConfig, opts ...Option) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.URL), "/")
	if baseURL == "" {
		return nil, errURLRequired
	}
	if strings.TrimSpace(cfg.AnonKey) == "" || strings.TrimSpace(cfg.ServiceRoleKey) == "" {
		return nil, errKeysRequired
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	client := &Client{
		httpClient:     &http.Client{Timeout: timeout},
		baseURL:        baseURL,
		anonKey:        cfg.AnonKey,
		serviceRoleKey: cfg.ServiceRoleKey,
	}

	for _, opt := range opts {
		if opt != nil {
			opt(client)
		}
	}

	return client, nil
}

// Metadata is the free-form user metadata blob; only the display name is used.
type Metadata struct {
	Name string `json:"name"`
}

// User is the provider's view of an account.
type User struct {
	ID           string   `json:"id"`
	Email        string   `json:"email"`
	CreatedAt    string   `json:"created_at"`
	UserMetadata Metadata `json:"user_metadata"`
}

// DisplayName returns the metadata name, falling back to the email address.
func (u *User) DisplayName() string {
	if u == nil {
		return ""
	}
	if name := strings.TrimSpace(u.UserMetadata.Name); name != "" {
		return name
	}
	return u.Email
}

// Session is the token bundle minted by a password sign-in.
type Session struct {
	AccessToken  string `json:"access_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int    `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
	RefreshToken string `json:"refresh_token"`
	User         *User  `json:"user"`
}

// Verify introspects a bearer token and returns the user it belongs to.
// Any provider rejection maps to an unauthorized error.
func (c *Client) Verify(ctx context.Context, token string) (*User, error) {
	if strings.TrimSpace(token) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/auth/v1/user", nil)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build verify request")
	}
	req.Header.Set("apikey", c.anonKey)
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute verify request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, providerError(resp), "invalid token")
	}

	var user User
	if err := json.NewDecoder(resp.Body).Decode(&user); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode verify response")
	}
	if user.ID == "" {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "invalid token")
	}
	return &user, nil
}

// CreateUserParams describes an administrative account creation.
type CreateUserParams struct {
	Email    string
	Password string
	Name     string
}

// AdminCreateUser provisions an account with the email pre-confirmed.
// There is no verification-email flow; accounts are active immediately.
func (c *Client) AdminCreateUser(ctx context.Context, params CreateUserParams) (*User, error) {
	payload := map[string]any{
		"email":         params.Email,
		"password":      params.Password,
		"email_confirm": true,
		"user_metadata": map[string]any{"name": params.Name},
	}

	var user User
	if err := c.adminCall(ctx, http.MethodPost, "/auth/v1/admin/users", payload, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// SignInWithPassword exchanges credentials for a session.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*Session, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal sign-in request")
	}

	endpoint := c.baseURL + "/auth/v1/token?" + url.Values{"grant_type": {"password"}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build sign-in request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.anonKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute sign-in request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, classifyProviderError(resp, "sign-in failed")
	}

	var session Session
	if err := json.NewDecoder(resp.Body).Decode(&session); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode sign-in response")
	}
	return &session, nil
}

// UserUpdates carries the optional fields of an administrative update.
type UserUpdates struct {
	Email    *string
	Password *string
	Name     *string
}

func (u UserUpdates) empty() bool {
	return u.Email == nil && u.Password == nil && u.Name == nil
}

// AdminUpdateUser applies the supplied updates to the account.
func (c *Client) AdminUpdateUser(ctx context.Context, userID string, updates UserUpdates) (*User, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if updates.empty() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no updates provided")
	}

	payload := map[string]any{}
	if updates.Email != nil {
		payload["email"] = *updates.Email
	}
	if updates.Password != nil {
		payload["password"] = *updates.Password
	}
	if updates.Name != nil {
		payload["user_metadata"] = map[string]any{"name": *updates.Name}
	}

	var user User
	path := "/auth/v1/admin/users/" + url.PathEscape(userID)
	if err := c.adminCall(ctx, http.MethodPut, path, payload, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

func (c *Client) adminCall(ctx context.Context, method, path string, payload any, dest any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "marshal admin request")
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "build admin request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.serviceRoleKey)
	req.Header.Set("Authorization", "Bearer "+c.serviceRoleKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "execute admin request")
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return classifyProviderError(resp, "admin request failed")
	}

	if dest == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode admin response")
	}
	return nil
}

// classifyProviderError surfaces provider 4xx messages verbatim (they are
// user-facing, e.g. "User already registered") and keeps 5xx generic.
func classifyProviderError(resp *http.Response, fallback string) error {
	err := providerError(resp)
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		msg := err.Error()
		if msg == "" {
			msg = fallback
		}
		return pkgerrors.New(pkgerrors.CodeValidation, msg)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, fallback)
}

func providerError(resp *http.Response) error {
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, responseBodyReadLimit))

	var parsed struct {
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		ErrorDescription string `json:"error_description"`
		ErrorCode        string `json:"error"`
	}
	if json.Unmarshal(raw, &parsed) == nil {
		for _, candidate := range []string{parsed.Msg, parsed.Message, parsed.ErrorDescription, parsed.ErrorCode} {
			if strings.TrimSpace(candidate) != "" {
				return errors.New(strings.TrimSpace(candidate))
			}
		}
	}
	return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
}

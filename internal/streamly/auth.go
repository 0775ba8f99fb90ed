package streamly

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/streamlyhq/streamly/internal/gateway"
	"github.com/streamlyhq/streamly/internal/shared"
)

const (
	loginPath    = "/api/v1/auth/login"
	logoutPath   = "/api/v1/auth/logout"
	refreshPath  = "/api/v1/auth/refresh"
	signupPath   = "/api/v1/auth/signup"
	identityPath = "/api/v1/users/me"
)

// AuthClient calls the authentication and identity endpoints.
//
// Login, logout, and refresh opt out of the gateway's bearer/retry handling
// (SkipAuth) since they are the calls the retry policy itself depends on.
type AuthClient struct {
	gw *gateway.Gateway
}

// NewAuthClient creates an AuthClient over the given gateway.
func NewAuthClient(gw *gateway.Gateway) *AuthClient {
	return &AuthClient{gw: gw}
}

// Me fetches the current identity using whatever ambient credential exists.
//
// Returns [shared.ErrNotAuthenticated] when no session is active; callers
// treat that as an expected steady state, not an error to surface.
func (c *AuthClient) Me(ctx context.Context) (*User, error) {
	resp, err := c.gw.Get(ctx, identityPath)
	if err != nil {
		return nil, err
	}

	var user User
	if err := resp.Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

// Login submits credentials and returns the authenticated identity.
//
// Failures propagate verbatim for UI display. The backend sets session
// cookies on the response; any bearer token arrives in the body.
func (c *AuthClient) Login(ctx context.Context, email, password string) (*User, string, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password})
	if err != nil {
		return nil, "", fmt.Errorf("failed to marshal credentials: %w", err)
	}

	resp, err := c.gw.Call(ctx, http.MethodPost, loginPath, body, gateway.CallOptions{SkipAuth: true})
	if err != nil {
		return nil, "", fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	var payload struct {
		User
		AccessToken string `json:"accessToken"`
	}
	if err := resp.Decode(&payload); err != nil {
		return nil, "", err
	}
	return &payload.User, payload.AccessToken, nil
}

// Logout invalidates the server-side session. Best effort: callers clear
// local state regardless of the outcome.
func (c *AuthClient) Logout(ctx context.Context) (string, error) {
	resp, err := c.gw.Call(ctx, http.MethodPost, logoutPath, nil, gateway.CallOptions{SkipAuth: true})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// Refresh silently renews the session credential using the ambient cookie.
func (c *AuthClient) Refresh(ctx context.Context) error {
	if _, err := c.gw.Call(ctx, http.MethodPost, refreshPath, nil, gateway.CallOptions{SkipAuth: true}); err != nil {
		return fmt.Errorf("%w: %v", shared.ErrRenewalFailed, err)
	}
	return nil
}

// Signup registers a new account.
func (c *AuthClient) Signup(ctx context.Context, email, password, name string) (string, error) {
	body, err := json.Marshal(map[string]string{"email": email, "password": password, "name": name})
	if err != nil {
		return "", fmt.Errorf("failed to marshal signup request: %w", err)
	}

	resp, err := c.gw.Call(ctx, http.MethodPost, signupPath, body, gateway.CallOptions{SkipAuth: true})
	if err != nil {
		return "", err
	}
	return resp.Text, nil
}

// UpdateProfile changes mutable account fields (currently the nickname).
func (c *AuthClient) UpdateProfile(ctx context.Context, nickname string) (*User, error) {
	body, err := json.Marshal(map[string]string{"nickname": nickname})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal profile update: %w", err)
	}

	resp, err := c.gw.Patch(ctx, identityPath, body)
	if err != nil {
		return nil, err
	}

	var user User
	if err := resp.Decode(&user); err != nil {
		return nil, err
	}
	return &user, nil
}

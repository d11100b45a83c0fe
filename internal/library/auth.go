package library

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

const (
	loginPath   = "api/authentication/login"
	refreshPath = "api/authentication/refresh-tokens"
	logoutPath  = "api/authentication/logout"
)

// AuthResponse mirrors the login and refresh payloads.
type AuthResponse struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

// Login exchanges email and password for a token pair. The pair is stored
// in the client's credentials when present.
func (c *Client) Login(ctx context.Context, email, password string) (AuthResponse, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return AuthResponse{}, fmt.Errorf("email and password required")
	}
	body, err := c.do(ctx, request{
		method: http.MethodPost,
		rel:    &url.URL{Path: loginPath},
		body:   map[string]string{"email": email, "password": password},
		noAuth: true,
	})
	if err != nil {
		return AuthResponse{}, fmt.Errorf("login: %w", err)
	}
	return c.storeAuth(body)
}

// Refresh rotates the token pair using the stored refresh token.
func (c *Client) Refresh(ctx context.Context) (AuthResponse, error) {
	if c.creds == nil || c.creds.RefreshToken() == "" {
		return AuthResponse{}, fmt.Errorf("refresh: no refresh token")
	}
	body, err := c.do(ctx, request{
		method: http.MethodPost,
		rel:    &url.URL{Path: refreshPath},
		body:   map[string]string{"refreshToken": c.creds.RefreshToken()},
		noAuth: true,
	})
	if err != nil {
		return AuthResponse{}, fmt.Errorf("refresh: %w", err)
	}
	return c.storeAuth(body)
}

// Logout ends the server session and clears the stored tokens. The local
// tokens are cleared even when the server call fails.
func (c *Client) Logout(ctx context.Context) error {
	_, err := c.do(ctx, request{method: http.MethodPost, rel: &url.URL{Path: logoutPath}})
	if c.creds != nil {
		if clearErr := c.creds.Update("", ""); clearErr != nil && err == nil {
			err = clearErr
		}
	}
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	return nil
}

func (c *Client) storeAuth(body []byte) (AuthResponse, error) {
	auth, err := decodeEntity[AuthResponse](body)
	if err != nil {
		return AuthResponse{}, err
	}
	if auth.AccessToken == "" {
		return AuthResponse{}, fmt.Errorf("%w: missing accessToken", ErrDecode)
	}
	if c.creds != nil {
		refresh := auth.RefreshToken
		if refresh == "" {
			refresh = c.creds.RefreshToken()
		}
		if err := c.creds.Update(auth.AccessToken, refresh); err != nil {
			return auth, fmt.Errorf("store session: %w", err)
		}
	}
	return auth, nil
}

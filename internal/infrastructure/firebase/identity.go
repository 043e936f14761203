package firebase

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"
)

var ErrMissingRefreshToken = errors.New("refresh token is required")

// AuthResult is returned by sign-in and sign-up.
type AuthResult struct {
	IDToken      string
	RefreshToken string
	LocalID      string
	Email        string
	ExpiresIn    time.Duration
}

// Token is the result of a refresh-token exchange. RefreshToken is empty when the
// provider did not rotate it.
type Token struct {
	AccessToken  string
	RefreshToken string
	UserID       string
	ExpiresIn    time.Duration
}

type passwordRequest struct {
	Email             string `json:"email"`
	Password          string `json:"password"`
	ReturnSecureToken bool   `json:"returnSecureToken"`
}

type passwordResponse struct {
	IDToken      string `json:"idToken"`
	Email        string `json:"email"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
	LocalID      string `json:"localId"`
}

// SignIn exchanges email and password for tokens.
func (c *Client) SignIn(ctx context.Context, email, password string) (*AuthResult, error) {
	return c.passwordAuth(ctx, "accounts:signInWithPassword", email, password)
}

// SignUp creates an account and returns its tokens.
func (c *Client) SignUp(ctx context.Context, email, password string) (*AuthResult, error) {
	return c.passwordAuth(ctx, "accounts:signUp", email, password)
}

func (c *Client) passwordAuth(ctx context.Context, endpoint, email, password string) (*AuthResult, error) {
	var resp passwordResponse
	err := c.do(ctx, http.MethodPost, c.keyURL(c.identityURL+"/"+endpoint), endpoint,
		passwordRequest{Email: email, Password: password, ReturnSecureToken: true}, &resp)
	if err != nil {
		return nil, err
	}
	return &AuthResult{
		IDToken:      resp.IDToken,
		RefreshToken: resp.RefreshToken,
		LocalID:      resp.LocalID,
		Email:        resp.Email,
		ExpiresIn:    parseSeconds(resp.ExpiresIn),
	}, nil
}

type refreshRequest struct {
	GrantType    string `json:"grant_type"`
	RefreshToken string `json:"refresh_token"`
}

type refreshResponse struct {
	AccessToken  string `json:"access_token"`
	IDToken      string `json:"id_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    string `json:"expires_in"`
	UserID       string `json:"user_id"`
}

// RefreshToken exchanges a refresh token for a new short-lived access token.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*Token, error) {
	if refreshToken == "" {
		return nil, ErrMissingRefreshToken
	}

	var resp refreshResponse
	err := c.do(ctx, http.MethodPost, c.keyURL(c.tokenURL), "token",
		refreshRequest{GrantType: "refresh_token", RefreshToken: refreshToken}, &resp)
	if err != nil {
		return nil, err
	}

	access := resp.AccessToken
	if access == "" {
		access = resp.IDToken
	}
	if access == "" {
		return nil, &APIError{Status: http.StatusOK, Code: "MISSING_ACCESS_TOKEN"}
	}
	return &Token{
		AccessToken:  access,
		RefreshToken: resp.RefreshToken,
		UserID:       resp.UserID,
		ExpiresIn:    parseSeconds(resp.ExpiresIn),
	}, nil
}

func parseSeconds(s string) time.Duration {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return time.Duration(n) * time.Second
}

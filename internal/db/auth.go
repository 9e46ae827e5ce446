package db

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
)

// AuthResponse is a GoTrue sign-up or token response. Sign-up returns either
// a session with a nested user or, while e-mail confirmation is pending, the
// bare user object; both shapes decode here.
type AuthResponse struct {
	AccessToken  string          `json:"access_token"`
	RefreshToken string          `json:"refresh_token"`
	User         json.RawMessage `json:"user"`
	ID           string          `json:"id"`
}

// UserID returns the id of the nested user, or of the bare user object.
func (r *AuthResponse) UserID() string {
	if len(r.User) > 0 {
		var u struct {
			ID string `json:"id"`
		}
		if err := json.Unmarshal(r.User, &u); err == nil && u.ID != "" {
			return u.ID
		}
	}
	return r.ID
}

type credentials struct {
	Email    string         `json:"email"`
	Password string         `json:"password"`
	Data     map[string]any `json:"data,omitempty"`
}

// SignUp registers a new account. data becomes the user's metadata.
func (c *Client) SignUp(ctx context.Context, email, password string, data map[string]any) (*AuthResponse, error) {
	body, err := c.do(ctx, http.MethodPost, "/auth/v1/signup", "", "",
		credentials{Email: email, Password: password, Data: data}, PreferNone)
	if err != nil {
		return nil, err
	}
	return decodeAuth(body)
}

// SignInWithPassword exchanges credentials for an access and refresh token.
func (c *Client) SignInWithPassword(ctx context.Context, email, password string) (*AuthResponse, error) {
	body, err := c.do(ctx, http.MethodPost, "/auth/v1/token", "grant_type=password", "",
		credentials{Email: email, Password: password}, PreferNone)
	if err != nil {
		return nil, err
	}
	return decodeAuth(body)
}

// UpdateUser changes attributes of the account that owns token.
func (c *Client) UpdateUser(ctx context.Context, token string, attrs map[string]any) error {
	_, err := c.do(ctx, http.MethodPut, "/auth/v1/user", "", token, attrs, PreferNone)
	return err
}

func decodeAuth(body []byte) (*AuthResponse, error) {
	var resp AuthResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding auth response: %w", err)
	}
	return &resp, nil
}

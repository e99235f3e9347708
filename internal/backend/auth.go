package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
)

var ErrMissingToken = errors.New("login response carried no token")

type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResult struct {
	Token string          `json:"token"`
	Role  string          `json:"role,omitempty"`
	User  json.RawMessage `json:"user,omitempty"`
}

type AuthClient struct{ c *Client }

func NewAuthClient(c *Client) *AuthClient { return &AuthClient{c: c} }

func (ac *AuthClient) Login(ctx context.Context, creds Credentials) (LoginResult, error) {
	var res LoginResult
	if err := ac.c.Do(ctx, http.MethodPost, "/auth/login", creds, &res); err != nil {
		return LoginResult{}, err
	}
	if res.Token == "" {
		return LoginResult{}, ErrMissingToken
	}
	if res.Role == "" && len(res.User) > 0 {
		var u struct {
			Role string `json:"role"`
		}
		if json.Unmarshal(res.User, &u) == nil {
			res.Role = u.Role
		}
	}
	return res, nil
}

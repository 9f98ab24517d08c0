package api

import (
	"context"
	"fmt"

	"github.com/ninja0404/launchpad-go-sdk/pkg/types"
)

type credentials struct {
	Name     string `json:"name"`
	Password string `json:"password"`
}

type loginResponse struct {
	Success     bool       `json:"success"`
	AccessToken string     `json:"accessToken"`
	User        types.User `json:"user"`
}

type usersResponse struct {
	Users []types.User `json:"users"`
}

type successResponse struct {
	Success bool `json:"success"`
}

// Login authenticates and stores the returned access token on the client.
func (c *Client) Login(ctx context.Context, name, password string) (types.User, error) {
	var resp loginResponse
	if err := c.post(ctx, "user/login", credentials{Name: name, Password: password}, &resp); err != nil {
		return types.User{}, err
	}
	if !resp.Success || resp.AccessToken == "" {
		return types.User{}, &types.APIError{Op: "user/login", Status: 200, Message: "login rejected"}
	}
	c.SetToken(resp.AccessToken)
	return resp.User, nil
}

// Register creates an account. The caller logs in afterwards.
func (c *Client) Register(ctx context.Context, name, password string) error {
	var resp successResponse
	if err := c.post(ctx, "user/register", credentials{Name: name, Password: password}, &resp); err != nil {
		return err
	}
	if !resp.Success {
		return &types.APIError{Op: "user/register", Status: 200, Message: "registration rejected"}
	}
	return nil
}

// Logout ends the session server side and drops the local token. The token
// is dropped even when the request fails.
func (c *Client) Logout(ctx context.Context) error {
	defer c.SetToken("")
	if !c.LoggedIn() {
		return nil
	}
	return c.get(ctx, "user/logout", nil)
}

// LoadAllUsers lists every user (admin only).
func (c *Client) LoadAllUsers(ctx context.Context) ([]types.User, error) {
	var resp usersResponse
	if err := c.authed(); err != nil {
		return nil, err
	}
	if err := c.get(ctx, "user/load-all", &resp); err != nil {
		return nil, err
	}
	return resp.Users, nil
}

// DeleteUser removes a user and returns the remaining users.
func (c *Client) DeleteUser(ctx context.Context, userID string) ([]types.User, error) {
	if userID == "" {
		return nil, types.NewValidationError("userId", "is required")
	}
	var resp usersResponse
	if err := c.authed(); err != nil {
		return nil, err
	}
	if err := c.post(ctx, "user/delete", map[string]string{"userId": userID}, &resp); err != nil {
		return nil, err
	}
	return resp.Users, nil
}

func (c *Client) authed() error {
	if !c.LoggedIn() {
		return fmt.Errorf("%w: run login first", types.ErrNotLoggedIn)
	}
	return nil
}

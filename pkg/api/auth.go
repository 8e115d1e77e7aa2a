package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/bidzilla/bidzilla-web/pkg/models"
)

// Login exchanges credentials for a token and user profile.
func (c *Client) Login(ctx context.Context, req models.LoginRequest) (*models.LoginResponse, error) {
	var resp models.LoginResponse
	if _, err := c.Post(ctx, "login", "/auth/login", req, &resp); err != nil {
		return nil, err
	}
	if resp.Token == "" {
		return nil, fmt.Errorf("login response did not include a token")
	}
	return &resp, nil
}

// Register creates an account. Only 201 Created counts as success.
func (c *Client) Register(ctx context.Context, req models.RegisterRequest) error {
	status, err := c.Post(ctx, "register", "/auth/register", req, nil)
	if err != nil {
		return err
	}
	if status != http.StatusCreated {
		return &APIError{StatusCode: status}
	}
	return nil
}

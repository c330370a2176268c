package gateway

import (
	"context"
	"fmt"

	"charge-console/internal/schema"
)

// LoginResult is the upstream response to a successful login.
type LoginResult struct {
	Token               string        `json:"token"`
	RefreshToken        string        `json:"refreshToken"`
	TokenExpirationDate string        `json:"tokenExpirationDate"`
	User                schema.Record `json:"user"`
}

// Login authenticates against the upstream auth endpoint.
func (c *Client) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	body := map[string]string{"email": email, "password": password}
	var out LoginResult
	resp, err := c.req(ctx, "").SetBody(body).SetResult(&out).Post(c.base + "/Auth/Login")
	if err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}
	if resp.IsError() {
		return nil, remoteErr("sign in", resp.StatusCode(), resp.Body())
	}
	return &out, nil
}

// RefreshToken exchanges a refresh token for a new token pair.
func (c *Client) RefreshToken(ctx context.Context, refreshToken string) (*LoginResult, error) {
	body := map[string]string{"refreshToken": refreshToken}
	var out LoginResult
	resp, err := c.req(ctx, "").SetBody(body).SetResult(&out).Post(c.base + "/Auth/RefreshToken")
	if err != nil {
		return nil, fmt.Errorf("refresh token: %w", err)
	}
	if resp.IsError() {
		return nil, remoteErr("refresh session", resp.StatusCode(), resp.Body())
	}
	return &out, nil
}

// ValidateOTP confirms a one-time password for an email.
func (c *Client) ValidateOTP(ctx context.Context, email, otp string) (*LoginResult, error) {
	body := map[string]string{"email": email, "otp": otp}
	var out LoginResult
	resp, err := c.req(ctx, "").SetBody(body).SetResult(&out).Post(c.base + "/Auth/ValidateOTP")
	if err != nil {
		return nil, fmt.Errorf("validate otp: %w", err)
	}
	if resp.IsError() {
		return nil, remoteErr("validate code", resp.StatusCode(), resp.Body())
	}
	return &out, nil
}

// ResendOTP asks the backend to send a fresh one-time password.
func (c *Client) ResendOTP(ctx context.Context, email string) error {
	body := map[string]string{"email": email}
	resp, err := c.req(ctx, "").SetBody(body).Post(c.base + "/Auth/ResendOTP")
	if err != nil {
		return fmt.Errorf("resend otp: %w", err)
	}
	if resp.IsError() {
		return remoteErr("resend code", resp.StatusCode(), resp.Body())
	}
	return nil
}

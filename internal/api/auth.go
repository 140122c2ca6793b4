package api

import (
	"context"
	"encoding/json"

	"tangle/internal/models"
)

// AuthResult is the outcome of a login or completed registration.
type AuthResult struct {
	Token string      `json:"token"`
	User  models.User `json:"user"`
}

// Login authenticates with email and password.
func (c *Client) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	env, err := c.postJSON(ctx, "/api/user/login", map[string]string{
		"email":    email,
		"password": password,
	})
	if err != nil {
		return nil, err
	}
	return decodeAuthResult(env)
}

// RegisterOTP starts the three-step registration by requesting an OTP for
// the given email.
func (c *Client) RegisterOTP(ctx context.Context, email string) error {
	_, err := c.postJSON(ctx, "/api/user/register-otp", map[string]string{"email": email})
	return err
}

// VerifyRegisterOTP confirms the OTP sent to the email.
func (c *Client) VerifyRegisterOTP(ctx context.Context, email, otp string) error {
	_, err := c.postJSON(ctx, "/api/user/verify-register-otp", map[string]string{
		"email": email,
		"otp":   otp,
	})
	return err
}

// RegisterProfile completes registration with the full profile and returns
// the new session.
type RegisterProfile struct {
	Name     string   `json:"name"`
	Email    string   `json:"email"`
	Password string   `json:"password"`
	Society  string   `json:"society"`
	Block    string   `json:"block"`
	Emoji    string   `json:"emoji"`
	Interest []string `json:"interests"`
}

// Register completes the signup flow.
func (c *Client) Register(ctx context.Context, profile RegisterProfile) (*AuthResult, error) {
	env, err := c.postJSON(ctx, "/api/user/register", profile)
	if err != nil {
		return nil, err
	}
	return decodeAuthResult(env)
}

// ForgotPassword requests a password-reset OTP.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	_, err := c.postJSON(ctx, "/api/user/forgot-password", map[string]string{"email": email})
	return err
}

// ResetPassword completes a password reset.
func (c *Client) ResetPassword(ctx context.Context, email, otp, password string) error {
	_, err := c.postJSON(ctx, "/api/user/reset-password", map[string]string{
		"email":    email,
		"otp":      otp,
		"password": password,
	})
	return err
}

// GetAvatars fetches the selectable avatar emoji list shown during
// onboarding.
func (c *Client) GetAvatars(ctx context.Context) ([]string, error) {
	var avatars []string
	if err := c.getJSON(ctx, "/api/user/get-emojis", &avatars); err != nil {
		return nil, err
	}
	return avatars, nil
}

// decodeAuthResult reads token and user from either the envelope data or
// the top level; the API has shipped both shapes.
func decodeAuthResult(env *envelope) (*AuthResult, error) {
	var res AuthResult
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &res); err == nil && res.Token != "" {
			return &res, nil
		}
	}
	return nil, models.NewServerError(env.Message)
}

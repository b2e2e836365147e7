package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Mikelesnr/tsviyo-frontend/internal/models"
)

// loginResponse is the payload of POST /auth/login and /auth/register.
type loginResponse struct {
	User struct {
		ID              uint    `json:"id"`
		Name            string  `json:"name"`
		Email           string  `json:"email"`
		Role            string  `json:"role"`
		EmailVerifiedAt *string `json:"email_verified_at"`
	} `json:"user"`
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

func (r *loginResponse) user(fallbackEmail string) *models.User {
	email := r.User.Email
	if email == "" {
		email = fallbackEmail
	}
	return &models.User{
		ID:              r.User.ID,
		Name:            r.User.Name,
		Email:           email,
		Role:            r.User.Role,
		EmailVerifiedAt: r.User.EmailVerifiedAt,
		Token:           fmt.Sprintf("%s %s", r.TokenType, r.AccessToken),
	}
}

// Login exchanges credentials for a session user carrying the bearer token.
func (c *Client) Login(ctx context.Context, email, password string) (*models.User, error) {
	body := map[string]string{"email": email, "password": password}
	var resp loginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", body, &resp); err != nil {
		return nil, err
	}
	return resp.user(email), nil
}

// Register creates an account and returns the logged-in user.
func (c *Client) Register(ctx context.Context, name, email, password, role string) (*models.User, error) {
	body := map[string]string{
		"name":                  name,
		"email":                 email,
		"password":              password,
		"password_confirmation": password,
		"role":                  role,
	}
	var resp loginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/register", body, &resp); err != nil {
		return nil, err
	}
	return resp.user(email), nil
}

// Logout invalidates the token server-side.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

// ForgotPassword requests a reset email.
func (c *Client) ForgotPassword(ctx context.Context, email string) error {
	return c.do(ctx, http.MethodPost, "/auth/forgot-password", map[string]string{"email": email}, nil)
}

// ResetPassword completes a password reset started by ForgotPassword.
func (c *Client) ResetPassword(ctx context.Context, token, email, password string) error {
	body := map[string]string{
		"token":                 token,
		"email":                 email,
		"password":              password,
		"password_confirmation": password,
	}
	return c.do(ctx, http.MethodPost, "/auth/reset-password", body, nil)
}

// ResendVerification asks the backend to send a fresh verification email.
func (c *Client) ResendVerification(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/email/verify/resend", nil, nil)
}

// CreateRiderProfile provisions the rider profile after login. Callers treat
// this as fire-and-forget: an already-existing profile is a normal outcome.
func (c *Client) CreateRiderProfile(ctx context.Context) error {
	body := map[string]string{
		"home_address": "Default Home Address",
		"image_url":    "https://placehold.co/200x200/cccccc/999999?text=Rider",
	}
	return c.do(ctx, http.MethodPost, "/rider", body, nil)
}

package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Mikelesnr/tsviyo-frontend/internal/app"
)

// Login authenticates and reports the landing view.
func Login(a *app.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in app.LoginInput
		if !bind(c, &in) {
			return
		}
		view, err := a.Login(c.Request.Context(), in)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"view": view})
	}
}

// Signup registers an account; new accounts land on the verification view.
func Signup(a *app.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in app.SignupInput
		if !bind(c, &in) {
			return
		}
		view, err := a.Signup(c.Request.Context(), in)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"view": view})
	}
}

// Logout clears the session and returns home.
func Logout(a *app.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		view := a.Logout(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"view": view})
	}
}

// ForgotPassword requests a reset email.
func ForgotPassword(a *app.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Email string `json:"email"`
		}
		if !bind(c, &body) {
			return
		}
		if err := a.ForgotPassword(c.Request.Context(), body.Email); err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "If that address exists, a reset email is on its way."})
	}
}

// ResetPassword completes a password reset.
func ResetPassword(a *app.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in app.ResetPasswordInput
		if !bind(c, &in) {
			return
		}
		if err := a.ResetPassword(c.Request.Context(), in); err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Password updated. Log in with your new password."})
	}
}

// ResendVerification asks for a fresh verification email.
func ResendVerification(a *app.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := a.ResendVerification(c.Request.Context()); err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Verification email sent."})
	}
}

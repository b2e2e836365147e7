package app

import (
	"context"

	"github.com/Mikelesnr/tsviyo-frontend/internal/models"
)

// LoginInput is the login form.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SignupInput is the signup form. The confirmation must match before the
// request leaves the client.
type SignupInput struct {
	Name            string `json:"name" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
	Role            string `json:"role" validate:"required,oneof=rider driver"`
}

// Login authenticates and installs the session. The returned view is where
// the user landed: verification for unverified accounts, the role's home
// otherwise.
func (a *App) Login(ctx context.Context, in LoginInput) (View, error) {
	if err := a.validate.Struct(in); err != nil {
		return "", err
	}
	if err := a.begin("login"); err != nil {
		return "", err
	}
	defer a.end("login")

	user, err := a.backend.Login(ctx, in.Email, in.Password)
	if err != nil {
		return "", err
	}
	if err := a.sessions.Set(ctx, user); err != nil {
		return "", err
	}

	if user.Role == models.RoleRider && user.Verified() {
		// Fire and forget: an already-provisioned profile is the normal case.
		go a.ensureRiderProfile()
	}

	view := a.installSession(ctx, user)
	a.log.Info().Uint("user_id", user.ID).Str("role", user.Role).Msg("logged in")
	return view, nil
}

func (a *App) ensureRiderProfile() {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTPTimeout)
	defer cancel()
	if err := a.backend.CreateRiderProfile(ctx); err != nil {
		a.log.Debug().Err(err).Msg("rider profile provisioning skipped")
	}
}

// Signup registers an account and installs the session. New accounts are
// unverified, so this lands on the verification view.
func (a *App) Signup(ctx context.Context, in SignupInput) (View, error) {
	if err := a.validate.Struct(in); err != nil {
		return "", err
	}
	if err := a.begin("signup"); err != nil {
		return "", err
	}
	defer a.end("signup")

	user, err := a.backend.Register(ctx, in.Name, in.Email, in.Password, in.Role)
	if err != nil {
		return "", err
	}
	if err := a.sessions.Set(ctx, user); err != nil {
		return "", err
	}

	view := a.installSession(ctx, user)
	a.log.Info().Uint("user_id", user.ID).Str("role", user.Role).Msg("account created")
	return view, nil
}

// Logout tears the session down. The backend call is best effort: the local
// session is cleared even when the server is unreachable.
func (a *App) Logout(ctx context.Context) View {
	if err := a.backend.Logout(ctx); err != nil {
		a.log.Warn().Err(err).Msg("server-side logout failed, clearing local session anyway")
	}
	a.teardownSession(ctx)
	a.log.Info().Msg("logged out")
	return ViewHome
}

// ForgotPassword requests a reset email.
func (a *App) ForgotPassword(ctx context.Context, email string) error {
	if err := a.validate.Var(email, "required,email"); err != nil {
		return err
	}
	if err := a.begin("forgot-password"); err != nil {
		return err
	}
	defer a.end("forgot-password")
	return a.backend.ForgotPassword(ctx, email)
}

// ResetPasswordInput is the reset form reached from the emailed link.
type ResetPasswordInput struct {
	Token           string `json:"token" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required,min=8"`
	ConfirmPassword string `json:"confirm_password" validate:"required,eqfield=Password"`
}

// ResetPassword completes a password reset.
func (a *App) ResetPassword(ctx context.Context, in ResetPasswordInput) error {
	if err := a.validate.Struct(in); err != nil {
		return err
	}
	if err := a.begin("reset-password"); err != nil {
		return err
	}
	defer a.end("reset-password")
	return a.backend.ResetPassword(ctx, in.Token, in.Email, in.Password)
}

// ResendVerification asks for a fresh verification email and raises a notice.
func (a *App) ResendVerification(ctx context.Context) error {
	if err := a.begin("resend-verification"); err != nil {
		return err
	}
	defer a.end("resend-verification")

	if err := a.backend.ResendVerification(ctx); err != nil {
		return err
	}
	a.mu.Lock()
	a.notice = "Verification email sent. Check your inbox."
	a.mu.Unlock()
	return nil
}

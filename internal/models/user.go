package models

// Roles assigned by the backend on registration.
const (
	RoleRider  = "rider"
	RoleDriver = "driver"
	RoleAdmin  = "admin"
)

// User is the session-scoped identity returned by login/signup. It lives for
// the life of the session; the backend owns the record.
type User struct {
	ID              uint    `json:"id"`
	Name            string  `json:"name"`
	Email           string  `json:"email"`
	Role            string  `json:"role"`
	EmailVerifiedAt *string `json:"email_verified_at"`
	// Token is the full Authorization header value, e.g. "Bearer <jwt>".
	Token string `json:"token"`
}

// Verified reports whether the backend has confirmed the user's email.
func (u *User) Verified() bool {
	return u != nil && u.EmailVerifiedAt != nil && *u.EmailVerifiedAt != ""
}

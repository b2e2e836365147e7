package session

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var ErrTokenExpired = errors.New("session: token expired")

// Claims mirrors the payload the backend signs into its bearer tokens.
type Claims struct {
	UserID uint   `json:"user_id"`
	Role   string `json:"role,omitempty"`
	jwt.RegisteredClaims
}

// InspectToken decodes the claims of a bearer credential without verifying
// the signature. The signing secret lives on the backend; the client only
// needs to read identity and expiry out of the token it was handed.
// The credential may be the bare JWT or the full "Bearer <jwt>" header value.
func InspectToken(credential string) (*Claims, error) {
	raw := StripBearer(credential)
	if raw == "" {
		return nil, errors.New("session: empty credential")
	}

	claims := &Claims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(raw, claims); err != nil {
		return nil, fmt.Errorf("failed to decode token: %w", err)
	}
	return claims, nil
}

// Expired reports whether the token's exp claim has passed. Tokens without
// an expiry are treated as live; the backend rejects them if it disagrees.
func (c *Claims) Expired(now time.Time) bool {
	if c.ExpiresAt == nil {
		return false
	}
	return now.After(c.ExpiresAt.Time)
}

// StripBearer removes a leading "Bearer " scheme, if present.
func StripBearer(credential string) string {
	parts := strings.SplitN(strings.TrimSpace(credential), " ", 2)
	if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
		return parts[1]
	}
	return strings.TrimSpace(credential)
}

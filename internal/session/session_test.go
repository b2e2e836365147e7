package session

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/Mikelesnr/tsviyo-frontend/internal/logger"
	"github.com/Mikelesnr/tsviyo-frontend/internal/models"
	"github.com/Mikelesnr/tsviyo-frontend/internal/store"
)

// mintToken signs a token the way the backend would. The signature is never
// verified client-side, so any secret works for tests.
func mintToken(t *testing.T, userID uint, role string, expiresAt time.Time) string {
	t.Helper()
	claims := Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("failed to sign test token: %v", err)
	}
	return "Bearer " + signed
}

func verifiedUser(token string) *models.User {
	at := "2026-01-15T10:00:00Z"
	return &models.User{
		ID: 42, Name: "Tina", Email: "tina@example.com",
		Role: models.RoleRider, EmailVerifiedAt: &at, Token: token,
	}
}

func TestCurrentWithoutSession(t *testing.T) {
	s := NewStore(store.NewMemory(), logger.Get())
	if _, err := s.Current(); err != ErrNoSession {
		t.Errorf("got %v, want ErrNoSession", err)
	}
	if token := s.Token(); token != "" {
		t.Errorf("token without session = %q", token)
	}
}

func TestSetAndCurrent(t *testing.T) {
	ctx := context.Background()
	s := NewStore(store.NewMemory(), logger.Get())
	user := verifiedUser(mintToken(t, 42, models.RoleRider, time.Now().Add(time.Hour)))

	if err := s.Set(ctx, user); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := s.Current()
	if err != nil {
		t.Fatalf("current: %v", err)
	}
	if got.ID != 42 || got.Email != "tina@example.com" {
		t.Errorf("got %+v", got)
	}
	if s.Token() != user.Token {
		t.Error("token source should return the session credential")
	}
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	s := NewStore(kv, logger.Get())
	s.Set(ctx, verifiedUser(mintToken(t, 42, models.RoleRider, time.Now().Add(time.Hour))))

	s.Clear(ctx)
	if _, err := s.Current(); err != ErrNoSession {
		t.Errorf("got %v, want ErrNoSession", err)
	}
	var persisted models.User
	if found, _ := kv.Get(ctx, "session:user", &persisted); found {
		t.Error("persisted credential should be removed")
	}
}

func TestRestoreValidCredential(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	user := verifiedUser(mintToken(t, 42, models.RoleRider, time.Now().Add(time.Hour)))

	// Simulate a previous process persisting the session.
	first := NewStore(kv, logger.Get())
	first.Set(ctx, user)

	second := NewStore(kv, logger.Get())
	restored, err := second.Restore(ctx)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored == nil {
		t.Fatal("valid credential should restore")
	}
	if restored.ID != 42 || restored.Role != models.RoleRider {
		t.Errorf("restored %+v", restored)
	}
}

func TestRestoreExpiredCredential(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	user := verifiedUser(mintToken(t, 42, models.RoleRider, time.Now().Add(-time.Hour)))

	first := NewStore(kv, logger.Get())
	first.Set(ctx, user)

	second := NewStore(kv, logger.Get())
	restored, err := second.Restore(ctx)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored != nil {
		t.Error("expired credential must not restore")
	}
	var persisted models.User
	if found, _ := kv.Get(ctx, "session:user", &persisted); found {
		t.Error("expired credential should be discarded from the store")
	}
}

func TestRestoreGarbageCredential(t *testing.T) {
	ctx := context.Background()
	kv := store.NewMemory()
	user := verifiedUser("Bearer not-a-jwt")
	NewStore(kv, logger.Get()).Set(ctx, user)

	restored, err := NewStore(kv, logger.Get()).Restore(ctx)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored != nil {
		t.Error("unreadable credential must not restore")
	}
}

func TestRestoreNothingPersisted(t *testing.T) {
	ctx := context.Background()
	restored, err := NewStore(store.NewMemory(), logger.Get()).Restore(ctx)
	if err != nil {
		t.Fatalf("restore: %v", err)
	}
	if restored != nil {
		t.Error("nothing to restore should yield nil")
	}
}

func TestInspectToken(t *testing.T) {
	token := mintToken(t, 7, models.RoleDriver, time.Now().Add(time.Hour))

	claims, err := InspectToken(token)
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if claims.UserID != 7 || claims.Role != models.RoleDriver {
		t.Errorf("claims %+v", claims)
	}
	if claims.Expired(time.Now()) {
		t.Error("token should still be live")
	}
	if !claims.Expired(time.Now().Add(2 * time.Hour)) {
		t.Error("token should be expired past its exp")
	}
}

func TestStripBearer(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi"},
		{"bearer abc.def.ghi", "abc.def.ghi"},
		{"abc.def.ghi", "abc.def.ghi"},
		{"  Bearer abc ", "abc"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := StripBearer(tt.in); got != tt.want {
			t.Errorf("StripBearer(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

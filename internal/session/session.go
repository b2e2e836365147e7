// Package session holds the single authenticated user for the life of the
// process. The credential is written through to the key-value store on login
// so a restart can rehydrate the session without a backend round-trip.
package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/Mikelesnr/tsviyo-frontend/internal/models"
	"github.com/Mikelesnr/tsviyo-frontend/internal/store"
)

var ErrNoSession = errors.New("session: not logged in")

const storeKey = "session:user"

// Store owns the current user. Exactly one session exists at a time.
type Store struct {
	mu    sync.Mutex
	kv    store.Store
	log   zerolog.Logger
	user  *models.User
	clock func() time.Time
}

func NewStore(kv store.Store, log zerolog.Logger) *Store {
	return &Store{
		kv:    kv,
		log:   log.With().Str("component", "session").Logger(),
		clock: time.Now,
	}
}

// Current returns the logged-in user, or ErrNoSession.
func (s *Store) Current() (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil, ErrNoSession
	}
	u := *s.user
	return &u, nil
}

// Token returns the current bearer credential, or "" when logged out. It is
// the token source the backend client is built with.
func (s *Store) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return ""
	}
	return s.user.Token
}

// Set installs a new session and persists the credential. Any previous
// session is replaced.
func (s *Store) Set(ctx context.Context, user *models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := *user
	s.user = &u
	if err := s.kv.Set(ctx, storeKey, u); err != nil {
		// Session still works for this process; only rehydration is lost.
		s.log.Warn().Err(err).Msg("failed to persist session credential")
	}
	return nil
}

// Clear tears the session down and removes the persisted credential.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.user = nil
	if err := s.kv.Delete(ctx, storeKey); err != nil {
		s.log.Warn().Err(err).Msg("failed to remove persisted session credential")
	}
}

// Restore attempts to rehydrate the session from the persisted credential.
// An expired token is discarded. Returns the restored user, or nil when
// there is nothing to restore.
func (s *Store) Restore(ctx context.Context) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var user models.User
	found, err := s.kv.Get(ctx, storeKey, &user)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	claims, err := InspectToken(user.Token)
	if err != nil {
		s.log.Warn().Err(err).Msg("discarding unreadable persisted credential")
		s.kv.Delete(ctx, storeKey)
		return nil, nil
	}
	if claims.Expired(s.clock()) {
		s.log.Info().Uint("user_id", user.ID).Msg("persisted credential expired, login required")
		s.kv.Delete(ctx, storeKey)
		return nil, nil
	}

	u := user
	s.user = &u
	s.log.Info().Uint("user_id", user.ID).Str("role", user.Role).Msg("session restored")
	restored := user
	return &restored, nil
}

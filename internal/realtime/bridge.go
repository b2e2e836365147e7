// Package realtime maintains the websocket subscription to the push service
// and turns its deliveries into state-machine events. One subscription per
// mounted session; teardown is clean and a re-subscribe never leaks a second
// live connection.
package realtime

import (
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/Mikelesnr/tsviyo-frontend/internal/middleware"
	"github.com/Mikelesnr/tsviyo-frontend/internal/models"
	"github.com/Mikelesnr/tsviyo-frontend/internal/ride"
)

// Handler receives each normalized event. It is never invoked after
// Teardown returns.
type Handler func(ride.Event)

type Bridge struct {
	rawURL  string
	handler Handler
	log     zerolog.Logger

	mu         sync.RWMutex
	conn       *websocket.Conn
	user       *models.User
	generation int
}

func NewBridge(rawURL string, handler Handler, log zerolog.Logger) *Bridge {
	return &Bridge{
		rawURL:  rawURL,
		handler: handler,
		log:     log.With().Str("component", "realtime").Logger(),
	}
}

// Subscribe establishes the subscription for user. Subscribing again for the
// same user and role is a no-op; a different user (or role) tears the old
// connection down first, so at most one connection is ever live.
func (b *Bridge) Subscribe(user *models.User) error {
	if user == nil {
		return fmt.Errorf("realtime: no user to subscribe for")
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.conn != nil && b.user != nil && b.user.ID == user.ID && b.user.Role == user.Role {
		return nil
	}
	b.teardownLocked()

	channel := RiderChannel(user.ID)
	if user.Role == models.RoleDriver {
		channel = DriverChannel
	}

	u, err := url.Parse(b.rawURL)
	if err != nil {
		return fmt.Errorf("invalid realtime URL: %w", err)
	}
	q := u.Query()
	q.Set("client_id", fmt.Sprintf("user_%d_%s", user.ID, uuid.NewString()))
	u.RawQuery = q.Encode()

	dialer := &websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.Dial(u.String(), nil)
	if err != nil {
		// The caller degrades to polling; subscription failures are never
		// surfaced to the end user.
		b.log.Warn().Err(err).Msg("failed to connect to push service")
		return err
	}

	if err := conn.WriteJSON(Envelope{Event: eventSubscribe, Channel: channel}); err != nil {
		conn.Close()
		b.log.Warn().Err(err).Msg("failed to subscribe to channel")
		return err
	}

	b.conn = conn
	u2 := *user
	b.user = &u2
	b.generation++
	b.log.Info().Str("channel", channel).Uint("user_id", user.ID).Msg("subscribed to push service")

	go b.readLoop(conn, channel, b.generation, user.Role)
	return nil
}

// Teardown closes the subscription. No handler invocations happen after it
// returns.
func (b *Bridge) Teardown() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.teardownLocked()
}

func (b *Bridge) teardownLocked() {
	if b.conn != nil {
		b.conn.Close()
		b.conn = nil
		b.log.Info().Msg("push subscription closed")
	}
	b.user = nil
	b.generation++
}

// current reports whether generation is still the live subscription.
func (b *Bridge) current(generation int) bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.conn != nil && b.generation == generation
}

// dropConn clears a connection whose read loop died, so a later Subscribe
// for the same user dials again instead of hitting the duplicate guard.
// Reports whether this generation was still the live one; a teardown that
// already advanced it owns the cleanup instead.
func (b *Bridge) dropConn(generation int) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.generation != generation || b.conn == nil {
		return false
	}
	b.conn.Close()
	b.conn = nil
	return true
}

func (b *Bridge) readLoop(conn *websocket.Conn, channel string, generation int, role string) {
	for {
		var env Envelope
		if err := conn.ReadJSON(&env); err != nil {
			if b.dropConn(generation) {
				// Degrade silently to polling-only; the poller keeps the
				// views moving.
				b.log.Warn().Err(err).Msg("push connection lost, falling back to polling")
			}
			return
		}
		if !b.current(generation) {
			return
		}

		switch env.Event {
		case eventPing:
			if err := conn.WriteJSON(Envelope{Event: eventPong}); err != nil {
				b.log.Warn().Err(err).Msg("failed to answer ping")
			}
		case eventSubscribed:
			b.log.Debug().Str("channel", channel).Msg("subscription confirmed")
		case string(ride.EventRideRequested), string(ride.EventRideAccepted), string(ride.EventRideCancelled):
			b.dispatch(env, generation, role)
		default:
			b.log.Debug().Str("event", env.Event).Msg("ignoring unknown push event")
		}
	}
}

// dispatch normalizes one ride event and hands it to the state machine.
// Events the role does not listen for are dropped here, matching the
// role-specific bindings of the subscription contract.
func (b *Bridge) dispatch(env Envelope, generation int, role string) {
	kind := ride.EventKind(env.Event)
	switch kind {
	case ride.EventRideRequested:
		if role != models.RoleDriver {
			return
		}
	case ride.EventRideAccepted, ride.EventRideCancelled:
		if role != models.RoleRider {
			return
		}
	}

	normalized, err := NormalizeRide(env.Data)
	if err != nil {
		middleware.TrackRealtimeEvent(env.Event, "malformed")
		b.log.Warn().Err(err).Str("event", env.Event).Msg("dropping malformed push payload")
		return
	}

	// Holding the read lock across the invocation guarantees no handler
	// runs after Teardown (which takes the write lock) returns.
	b.mu.RLock()
	defer b.mu.RUnlock()
	if b.conn == nil || b.generation != generation {
		return
	}
	b.handler(ride.Event{Kind: kind, Ride: normalized})
}

package ride

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/Mikelesnr/tsviyo-frontend/internal/models"
)

var (
	ErrNoRide          = errors.New("ride: no active ride")
	ErrReasonRequired  = errors.New("ride: cancelling an accepted ride requires a reason")
	ErrAlreadyAccepted = errors.New("ride: a ride is already in progress")
)

// EventKind names the realtime events the state machine consumes.
type EventKind string

const (
	EventRideRequested EventKind = "RideRequested"
	EventRideAccepted  EventKind = "RideAccepted"
	EventRideCancelled EventKind = "RideCancelled"
)

// Event is one normalized realtime delivery.
type Event struct {
	Kind EventKind
	Ride models.Ride
}

// Outcome describes how the machine disposed of an event.
type Outcome string

const (
	// OutcomeApplied: the event advanced the state.
	OutcomeApplied Outcome = "applied"
	// OutcomeDuplicate: a redelivery of an already-applied event; no effect.
	OutcomeDuplicate Outcome = "duplicate"
	// OutcomeMismatch: the event's ride id is not the tracked ride; ignored.
	OutcomeMismatch Outcome = "mismatch"
	// OutcomeStale: the tracked ride already reached a terminal status that
	// the event may not overwrite.
	OutcomeStale Outcome = "stale"
)

// Result reports what an event application did. Notice is set only the
// first time an event applies, so duplicate deliveries never re-raise it.
type Result struct {
	Outcome Outcome
	Notice  string
	Ride    *models.Ride
}

// Machine is the per-session ride lifecycle state machine. All mutation
// paths (view actions, realtime push, the fallback poller) funnel through
// it, which is what keeps duplicate and out-of-order deliveries harmless.
type Machine struct {
	mu    sync.Mutex
	cache *Cache
	log   zerolog.Logger

	userID uint
	role   string

	// last is the most advanced state this process has observed for the
	// tracked ride; the poller uses it to avoid regressing past pushes.
	last *models.Ride

	// offer is the pending ride offer surfaced to a driver.
	offer *models.Ride
}

func NewMachine(cache *Cache, userID uint, role string, log zerolog.Logger) *Machine {
	return &Machine{
		cache:  cache,
		log:    log.With().Str("component", "lifecycle").Uint("user_id", userID).Logger(),
		userID: userID,
		role:   role,
	}
}

// Apply feeds one realtime event through the machine.
func (m *Machine) Apply(ctx context.Context, ev Event) (Result, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch ev.Kind {
	case EventRideRequested:
		return m.applyOffer(ev), nil
	case EventRideAccepted:
		return m.applyAccepted(ctx, ev)
	case EventRideCancelled:
		return m.applyCancelled(ctx, ev)
	}
	return Result{Outcome: OutcomeMismatch}, fmt.Errorf("unknown event kind %q", ev.Kind)
}

// applyOffer surfaces a new ride request to a driver. Offers do not touch
// the ride mirror until the driver accepts.
func (m *Machine) applyOffer(ev Event) Result {
	if m.role != models.RoleDriver {
		return Result{Outcome: OutcomeMismatch}
	}
	if m.offer != nil && m.offer.ID == ev.Ride.ID {
		return Result{Outcome: OutcomeDuplicate, Ride: m.offer}
	}
	if m.last != nil && !m.last.Status.Terminal() {
		// Already on a ride; ignore further dispatches.
		return Result{Outcome: OutcomeMismatch}
	}
	offer := ev.Ride
	m.offer = &offer
	m.log.Info().Uint("ride_id", offer.ID).Msg("ride offer received")
	return Result{Outcome: OutcomeApplied, Notice: "New ride request!", Ride: &offer}
}

func (m *Machine) applyAccepted(ctx context.Context, ev Event) (Result, error) {
	current, found, err := m.cache.Current(ctx, m.userID)
	if err != nil {
		return Result{}, err
	}
	if !found || current.ID != ev.Ride.ID {
		return Result{Outcome: OutcomeMismatch}, nil
	}
	if current.Status.Terminal() {
		// A late accept must never overwrite cancelled/completed.
		return Result{Outcome: OutcomeStale, Ride: current}, nil
	}
	if current.Status.Accepted() {
		return Result{Outcome: OutcomeDuplicate, Ride: current}, nil
	}

	current.Status = models.RideStatusAccepted
	if ev.Ride.DriverID != nil {
		current.DriverID = ev.Ride.DriverID
	}
	if ev.Ride.Fare > 0 {
		// The pushed fare is server-confirmed; it replaces the estimate.
		current.Fare = ev.Ride.Fare
	}
	if err := m.cache.Save(ctx, m.userID, current); err != nil {
		return Result{}, err
	}
	m.last = current
	m.log.Info().Uint("ride_id", current.ID).Msg("ride accepted")
	return Result{
		Outcome: OutcomeApplied,
		Notice:  "Your ride has been accepted! A driver is on the way.",
		Ride:    current,
	}, nil
}

func (m *Machine) applyCancelled(ctx context.Context, ev Event) (Result, error) {
	current, found, err := m.cache.Current(ctx, m.userID)
	if err != nil {
		return Result{}, err
	}
	if !found || current.ID != ev.Ride.ID {
		return Result{Outcome: OutcomeMismatch}, nil
	}
	if current.Status == models.RideStatusCancelled {
		return Result{Outcome: OutcomeDuplicate, Ride: current}, nil
	}
	if current.Status.Terminal() {
		return Result{Outcome: OutcomeStale, Ride: current}, nil
	}

	current.Status = models.RideStatusCancelled
	if ev.Ride.CancellationReason != "" {
		current.CancellationReason = ev.Ride.CancellationReason
	}
	if err := m.cache.Save(ctx, m.userID, current); err != nil {
		return Result{}, err
	}
	m.last = current
	m.log.Info().Uint("ride_id", current.ID).Msg("ride cancelled by peer")
	return Result{
		Outcome: OutcomeApplied,
		Notice:  "Your ride was cancelled. Please request a new one.",
		Ride:    current,
	}, nil
}

// RequestCreated records a freshly created ride in the mirror with status
// requested. Called after POST /rides succeeds with the server-assigned id.
func (m *Machine) RequestCreated(ctx context.Context, r models.Ride) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	r.Status = models.RideStatusRequested
	if err := m.cache.Save(ctx, m.userID, &r); err != nil {
		return err
	}
	m.last = &r
	m.log.Info().Uint("ride_id", r.ID).Msg("ride requested")
	return nil
}

// Current returns the mirrored ride, if any.
func (m *Machine) Current(ctx context.Context) (*models.Ride, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cache.Current(ctx, m.userID)
}

// ValidateCancel enforces the cancellation rules: before acceptance no
// reason is needed; after acceptance a non-empty, non-whitespace reason is
// mandatory; terminal rides cannot be cancelled.
func ValidateCancel(status models.RideStatus, reason string) error {
	if status.Terminal() {
		return fmt.Errorf("ride is already %s", status)
	}
	if status.Accepted() && strings.TrimSpace(reason) == "" {
		return ErrReasonRequired
	}
	return nil
}

// CancelConfirmed clears the mirror after the backend accepted the cancel.
func (m *Machine) CancelConfirmed(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.cache.Clear(ctx, m.userID); err != nil {
		return err
	}
	m.last = nil
	return nil
}

// StartTrip moves the driver's accepted ride to in_progress once the rider
// is picked up.
func (m *Machine) StartTrip(ctx context.Context) (*models.Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, found, err := m.cache.Current(ctx, m.userID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNoRide
	}
	if !current.Status.Accepted() {
		return nil, fmt.Errorf("ride is %s, cannot start", current.Status)
	}
	current.Status = models.RideStatusInProgress
	if err := m.cache.Save(ctx, m.userID, current); err != nil {
		return nil, err
	}
	m.last = current
	m.log.Info().Uint("ride_id", current.ID).Msg("trip started")
	return current, nil
}

// Complete marks the tracked ride completed (tracking progress reached
// 100%). The mirror keeps the completed ride until the fare is acknowledged.
func (m *Machine) Complete(ctx context.Context) (*models.Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, found, err := m.cache.Current(ctx, m.userID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNoRide
	}
	if current.Status.Terminal() {
		return current, nil
	}
	current.Status = models.RideStatusCompleted
	if err := m.cache.Save(ctx, m.userID, current); err != nil {
		return nil, err
	}
	m.last = current
	m.log.Info().Uint("ride_id", current.ID).Msg("ride completed")
	return current, nil
}

// AcknowledgeFare clears the active slot once the fare view is confirmed.
// Only a completed ride has a fare to acknowledge; a live ride keeps its
// mirror. For riders the completed ride moves to the awaiting-rating slot
// first.
func (m *Machine) AcknowledgeFare(ctx context.Context) (*models.Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	current, found, err := m.cache.Current(ctx, m.userID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNoRide
	}
	if current.Status != models.RideStatusCompleted {
		return nil, fmt.Errorf("ride is %s, fare cannot be acknowledged", current.Status)
	}
	if m.role == models.RoleRider && current.DriverID != nil {
		if err := m.cache.SaveRating(ctx, m.userID, current); err != nil {
			return nil, err
		}
	}
	if err := m.cache.Clear(ctx, m.userID); err != nil {
		return nil, err
	}
	m.last = nil
	return current, nil
}

// RatingSubmitted clears the awaiting-rating slot.
func (m *Machine) RatingSubmitted(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cache.ClearRating(ctx, m.userID)
}

// RatingTarget returns the completed ride awaiting a rating.
func (m *Machine) RatingTarget(ctx context.Context) (*models.Ride, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cache.RatingRide(ctx, m.userID)
}

// Offer returns the pending driver offer, if any.
func (m *Machine) Offer() (*models.Ride, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.offer == nil {
		return nil, false
	}
	o := *m.offer
	return &o, true
}

// AcceptOffer records a backend-confirmed acceptance: the offer becomes the
// driver's active ride.
func (m *Machine) AcceptOffer(ctx context.Context) (*models.Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.offer == nil {
		return nil, ErrNoRide
	}
	accepted := *m.offer
	accepted.Status = models.RideStatusAccepted
	driverID := m.userID
	accepted.DriverID = &driverID
	if err := m.cache.Save(ctx, m.userID, &accepted); err != nil {
		return nil, err
	}
	m.offer = nil
	m.last = &accepted
	m.log.Info().Uint("ride_id", accepted.ID).Msg("offer accepted")
	return &accepted, nil
}

// IgnoreOffer discards the pending offer; the driver stays idle.
func (m *Machine) IgnoreOffer() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.offer = nil
}

// Reconcile re-reads the mirror on behalf of the poller. It reports the
// effective ride and whether an externally written change was observed.
// A mirror entry that is behind the state push already reached (same ride,
// lower lifecycle rank) is rewritten forward rather than applied, so polling
// can never regress a pushed state.
func (m *Machine) Reconcile(ctx context.Context) (*models.Ride, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	mirrored, found, err := m.cache.Current(ctx, m.userID)
	if err != nil {
		return nil, false, err
	}
	if !found {
		changed := m.last != nil
		m.last = nil
		return nil, changed, nil
	}

	if m.last != nil && m.last.ID == mirrored.ID && mirrored.Status.Before(m.last.Status) {
		// Stale external write; restore the more advanced state.
		if err := m.cache.Save(ctx, m.userID, m.last); err != nil {
			return nil, false, err
		}
		r := *m.last
		return &r, false, nil
	}

	changed := m.last == nil || m.last.ID != mirrored.ID || m.last.Status != mirrored.Status
	m.last = mirrored
	r := *mirrored
	return &r, changed, nil
}

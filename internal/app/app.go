// Package app wires the client state together: the session, the ride state
// machine, the realtime bridge and the fallback poller all meet here, and the
// mounted view is selected here. Handlers call into App; nothing below this
// package knows which view is showing.
package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/Mikelesnr/tsviyo-frontend/internal/api"
	"github.com/Mikelesnr/tsviyo-frontend/internal/config"
	"github.com/Mikelesnr/tsviyo-frontend/internal/maps"
	"github.com/Mikelesnr/tsviyo-frontend/internal/middleware"
	"github.com/Mikelesnr/tsviyo-frontend/internal/models"
	"github.com/Mikelesnr/tsviyo-frontend/internal/ride"
	"github.com/Mikelesnr/tsviyo-frontend/internal/session"
)

var (
	ErrActionInFlight  = errors.New("app: action already in progress")
	ErrConfirmRequired = errors.New("app: confirmation required")
	ErrNotAllowed      = errors.New("app: action not available for this role")
)

// Delay between the acceptance notice and the automatic switch to the
// tracking view. The user can continue earlier.
const acceptanceAdvanceDelay = 5 * time.Second

// Tracking progress simulation: +2% per step until 100, then a short pause
// before the fare view.
const (
	trackingStepInterval = 600 * time.Millisecond
	trackingStepPercent  = 2
	fareRevealDelay      = time.Second
)

// Subscriber is the realtime bridge surface App drives on login and logout.
type Subscriber interface {
	Subscribe(user *models.User) error
	Teardown()
}

// App owns the per-process client state. One session, one mounted view.
type App struct {
	cfg      *config.Config
	log      zerolog.Logger
	backend  *api.Client
	maps     *maps.Client
	sessions *session.Store
	rides    *ride.Cache
	bridge   Subscriber
	validate *validator.Validate

	mu      sync.Mutex
	machine *ride.Machine
	view    View
	notice  string

	// Route summary captured when the ride was requested, shown on the
	// details view. Advisory only.
	routeKm  float64
	routeMin float64

	// Driver profile shown on the rider's tracking view.
	driver *models.Driver

	// Tracking simulation state. trackingGen invalidates a running loop.
	progress    int
	trackingGen int

	acceptTimer *time.Timer

	// Ride id whose acceptance notice has already been raised, so a later
	// advance within the accepted family (en_route, arrived) observed by
	// the poller does not repeat it.
	acceptNoticeRideID uint

	driverOnline bool

	adminUsers    []models.AdminUser
	adminVehicles []models.Vehicle

	inflight map[string]bool
}

func New(cfg *config.Config, backend *api.Client, mapsClient *maps.Client,
	sessions *session.Store, rides *ride.Cache, log zerolog.Logger) *App {
	return &App{
		cfg:      cfg,
		log:      log.With().Str("component", "app").Logger(),
		backend:  backend,
		maps:     mapsClient,
		sessions: sessions,
		rides:    rides,
		validate: validator.New(),
		view:     ViewHome,
		inflight: make(map[string]bool),
	}
}

// SetBridge installs the realtime bridge. The bridge needs the app's event
// handler at construction time, so it is attached after New.
func (a *App) SetBridge(b Subscriber) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.bridge = b
}

// begin marks an action in flight. A second submission of the same action
// while the first is pending is refused, not queued.
func (a *App) begin(action string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.inflight[action] {
		return ErrActionInFlight
	}
	a.inflight[action] = true
	return nil
}

func (a *App) end(action string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	delete(a.inflight, action)
}

// installSession attaches a logged-in user: state machine, push subscription,
// and the post-login view. Replaces any previous session state.
func (a *App) installSession(ctx context.Context, user *models.User) View {
	machine := ride.NewMachine(a.rides, user.ID, user.Role, a.log)

	a.mu.Lock()
	a.machine = machine
	a.notice = ""
	a.driver = nil
	a.acceptNoticeRideID = 0
	a.driverOnline = false
	a.adminUsers = nil
	a.adminVehicles = nil
	bridge := a.bridge
	a.mu.Unlock()

	if bridge != nil && user.Role != models.RoleAdmin {
		if err := bridge.Subscribe(user); err != nil {
			// Not fatal: the poller covers for a dead push connection.
			a.log.Warn().Err(err).Msg("realtime subscription unavailable")
		}
	}

	view := a.routeForSession(ctx, user)
	a.mu.Lock()
	a.view = view
	a.mu.Unlock()
	return view
}

// routeForSession picks the landing view for a fresh or restored session.
// Unverified accounts always land on the verification view; otherwise an
// in-flight ride resumes where it left off.
func (a *App) routeForSession(ctx context.Context, user *models.User) View {
	if !user.Verified() {
		return ViewVerifyEmail
	}
	if user.Role == models.RoleAdmin {
		return ViewAdmin
	}

	a.mu.Lock()
	machine := a.machine
	a.mu.Unlock()
	if machine != nil {
		if current, found, err := machine.Current(ctx); err == nil && found {
			switch {
			case current.Status == models.RideStatusCompleted:
				return ViewFare
			case current.Status.Accepted():
				if user.Role == models.RoleRider {
					a.startTracking(ctx)
					return ViewTracking
				}
				return ViewHome
			case current.Status == models.RideStatusRequested && user.Role == models.RoleRider:
				return ViewRideDetails
			}
		}
	}

	if user.Role == models.RoleDriver {
		return ViewHome
	}
	return ViewRideRequest
}

// teardownSession drops all per-session state and returns to the home view.
func (a *App) teardownSession(ctx context.Context) {
	a.mu.Lock()
	bridge := a.bridge
	if a.acceptTimer != nil {
		a.acceptTimer.Stop()
		a.acceptTimer = nil
	}
	a.trackingGen++
	a.machine = nil
	a.view = ViewHome
	a.notice = ""
	a.progress = 0
	a.driver = nil
	a.acceptNoticeRideID = 0
	a.driverOnline = false
	a.adminUsers = nil
	a.adminVehicles = nil
	a.mu.Unlock()

	if bridge != nil {
		bridge.Teardown()
	}
	a.sessions.Clear(ctx)
}

// Restore rehydrates a persisted session at startup.
func (a *App) Restore(ctx context.Context) {
	user, err := a.sessions.Restore(ctx)
	if err != nil {
		a.log.Warn().Err(err).Msg("session restore failed")
		return
	}
	if user == nil {
		return
	}
	a.installSession(ctx, user)
}

// HandleRealtimeEvent is the bridge handler: every push delivery funnels
// through the state machine, and only first-time applications touch the view.
func (a *App) HandleRealtimeEvent(ev ride.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	a.mu.Lock()
	machine := a.machine
	a.mu.Unlock()
	if machine == nil {
		middleware.TrackRealtimeEvent(string(ev.Kind), "dropped")
		return
	}

	res, err := machine.Apply(ctx, ev)
	if err != nil {
		middleware.TrackRealtimeEvent(string(ev.Kind), "error")
		a.log.Error().Err(err).Str("event", string(ev.Kind)).Msg("failed to apply realtime event")
		return
	}
	middleware.TrackRealtimeEvent(string(ev.Kind), string(res.Outcome))
	if res.Outcome != ride.OutcomeApplied {
		return
	}

	switch ev.Kind {
	case ride.EventRideAccepted:
		a.rideAccepted(res)
	case ride.EventRideCancelled:
		a.rideCancelled(res)
	case ride.EventRideRequested:
		a.offerReceived(res)
	}
}

// rideAccepted reacts to the first application of an acceptance: raise the
// notice, fetch the driver profile, and arm the automatic advance to the
// tracking view.
func (a *App) rideAccepted(res ride.Result) {
	a.mu.Lock()
	a.notice = res.Notice
	if res.Ride != nil {
		a.acceptNoticeRideID = res.Ride.ID
	}
	if a.acceptTimer != nil {
		a.acceptTimer.Stop()
	}
	a.acceptTimer = time.AfterFunc(acceptanceAdvanceDelay, func() {
		a.ContinueToTracking(context.Background())
	})
	a.mu.Unlock()

	if res.Ride != nil && res.Ride.DriverID != nil {
		go a.fetchDriver(*res.Ride.DriverID)
	}
}

func (a *App) fetchDriver(driverID uint) {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.HTTPTimeout)
	defer cancel()
	driver, err := a.backend.GetDriver(ctx, driverID)
	if err != nil {
		a.log.Warn().Err(err).Uint("driver_id", driverID).Msg("failed to fetch driver profile")
		return
	}
	a.mu.Lock()
	a.driver = driver
	a.mu.Unlock()
}

// rideCancelled reacts to the first application of a peer cancellation. The
// details view shows the cancelled state until the user acknowledges it.
func (a *App) rideCancelled(res ride.Result) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.notice = res.Notice
	if a.acceptTimer != nil {
		a.acceptTimer.Stop()
		a.acceptTimer = nil
	}
	a.trackingGen++
	a.progress = 0
	if a.view == ViewTracking || a.view == ViewFare {
		a.view = ViewRideDetails
	}
}

func (a *App) offerReceived(res ride.Result) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.notice = res.Notice
}

// PollTick is the fallback poller's entry point: reconcile the mirror and
// react to externally written changes exactly the way a push would have.
func (a *App) PollTick(ctx context.Context) {
	a.mu.Lock()
	machine := a.machine
	a.mu.Unlock()
	if machine == nil {
		return
	}

	current, changed, err := machine.Reconcile(ctx)
	if err != nil {
		a.log.Warn().Err(err).Msg("poll reconcile failed")
		return
	}
	if !changed {
		return
	}

	if current == nil {
		// Mirror cleared externally; leave any ride view.
		a.mu.Lock()
		if a.view == ViewRideDetails || a.view == ViewTracking {
			a.view = ViewRideRequest
		}
		a.mu.Unlock()
		return
	}

	user, err := a.sessions.Current()
	if err != nil {
		return
	}

	switch {
	case current.Status.Accepted():
		// Drivers advance their own rides; only riders learn of an
		// acceptance from outside. Later stages of an already-noticed
		// acceptance (en_route, arrived) stay quiet.
		a.mu.Lock()
		noticed := a.acceptNoticeRideID == current.ID
		a.mu.Unlock()
		if user.Role == models.RoleRider && !noticed {
			a.rideAccepted(ride.Result{
				Outcome: ride.OutcomeApplied,
				Notice:  "Your ride has been accepted! A driver is on the way.",
				Ride:    current,
			})
		}
	case current.Status == models.RideStatusCancelled:
		a.rideCancelled(ride.Result{
			Outcome: ride.OutcomeApplied,
			Notice:  "Your ride was cancelled. Please request a new one.",
			Ride:    current,
		})
	case current.Status == models.RideStatusCompleted:
		a.mu.Lock()
		a.view = ViewFare
		a.mu.Unlock()
	}
}

// ContinueToTracking moves from the acceptance notice to the tracking view.
// Invoked by the user or by the automatic advance; whichever fires first wins
// and the other becomes a no-op.
func (a *App) ContinueToTracking(ctx context.Context) {
	a.mu.Lock()
	machine := a.machine
	if a.acceptTimer != nil {
		a.acceptTimer.Stop()
		a.acceptTimer = nil
	}
	a.mu.Unlock()
	if machine == nil {
		return
	}

	current, found, err := machine.Current(ctx)
	if err != nil || !found || !current.Status.Accepted() {
		return
	}

	a.mu.Lock()
	a.view = ViewTracking
	a.notice = ""
	a.mu.Unlock()
	a.startTracking(ctx)
}

// startTracking launches the progress simulation. Restarting supersedes any
// running loop.
func (a *App) startTracking(ctx context.Context) {
	a.mu.Lock()
	a.trackingGen++
	gen := a.trackingGen
	a.progress = 0
	a.mu.Unlock()

	go a.trackingLoop(gen)
}

func (a *App) trackingLoop(gen int) {
	ticker := time.NewTicker(trackingStepInterval)
	defer ticker.Stop()

	for range ticker.C {
		a.mu.Lock()
		if a.trackingGen != gen {
			a.mu.Unlock()
			return
		}
		a.progress += trackingStepPercent
		done := a.progress >= 100
		if done {
			a.progress = 100
		}
		a.mu.Unlock()

		if done {
			a.trackingFinished(gen)
			return
		}
	}
}

// trackingFinished marks the ride completed and, after a short pause, shows
// the fare view.
func (a *App) trackingFinished(gen int) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	a.mu.Lock()
	machine := a.machine
	a.mu.Unlock()
	if machine == nil {
		return
	}
	if _, err := machine.Complete(ctx); err != nil {
		a.log.Warn().Err(err).Msg("failed to mark ride completed")
		return
	}

	time.AfterFunc(fareRevealDelay, func() {
		a.mu.Lock()
		defer a.mu.Unlock()
		if a.trackingGen != gen || a.view != ViewTracking {
			return
		}
		a.view = ViewFare
	})
}

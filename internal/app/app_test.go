package app

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/Mikelesnr/tsviyo-frontend/internal/api"
	"github.com/Mikelesnr/tsviyo-frontend/internal/config"
	"github.com/Mikelesnr/tsviyo-frontend/internal/logger"
	"github.com/Mikelesnr/tsviyo-frontend/internal/maps"
	"github.com/Mikelesnr/tsviyo-frontend/internal/models"
	"github.com/Mikelesnr/tsviyo-frontend/internal/ride"
	"github.com/Mikelesnr/tsviyo-frontend/internal/session"
	"github.com/Mikelesnr/tsviyo-frontend/internal/store"
)

type fakeBridge struct {
	subscribed []uint
	teardowns  int
}

func (f *fakeBridge) Subscribe(user *models.User) error {
	f.subscribed = append(f.subscribed, user.ID)
	return nil
}

func (f *fakeBridge) Teardown() { f.teardowns++ }

// loginBody builds the backend's login/register response.
func loginBody(id uint, role string, verified bool) string {
	verifiedAt := `null`
	if verified {
		verifiedAt = `"2026-01-15T10:00:00Z"`
	}
	return `{
		"user": {"id": ` + strconv.Itoa(int(id)) + `, "name": "Test", "email": "t@example.com",
		         "role": "` + role + `", "email_verified_at": ` + verifiedAt + `},
		"access_token": "abc.def.ghi", "token_type": "Bearer"
	}`
}

func newTestApp(t *testing.T, handler http.Handler) (*App, *fakeBridge) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	log := logger.Get()
	kv := store.NewMemory()
	cfg := &config.Config{
		APIBaseURL:  srv.URL,
		HTTPTimeout: 5 * time.Second,
		RatePerKm:   1,
	}
	sessions := session.NewStore(kv, log)
	rides := ride.NewCache(kv, log)
	backend := api.NewClient(srv.URL, cfg.HTTPTimeout, sessions.Token, log)
	mapsClient := maps.NewClient("", 0, kv, log)
	t.Cleanup(mapsClient.Close)

	a := New(cfg, backend, mapsClient, sessions, rides, log)
	bridge := &fakeBridge{}
	a.SetBridge(bridge)
	return a, bridge
}

func loginHandler(role string, verified bool) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(loginBody(42, role, verified)))
	})
	mux.HandleFunc("/auth/logout", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})
	mux.HandleFunc("/rider", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{}`))
	})
	return mux
}

func TestLoginRoutesVerifiedRider(t *testing.T) {
	a, bridge := newTestApp(t, loginHandler(models.RoleRider, true))

	view, err := a.Login(context.Background(), LoginInput{Email: "t@example.com", Password: "secret"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if view != ViewRideRequest {
		t.Errorf("view = %s, want ride-request", view)
	}
	if len(bridge.subscribed) != 1 || bridge.subscribed[0] != 42 {
		t.Errorf("bridge subscriptions = %v", bridge.subscribed)
	}
}

func TestLoginRoutesVerifiedDriverHome(t *testing.T) {
	a, _ := newTestApp(t, loginHandler(models.RoleDriver, true))

	view, err := a.Login(context.Background(), LoginInput{Email: "t@example.com", Password: "secret"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if view != ViewHome {
		t.Errorf("view = %s, want home", view)
	}
}

func TestLoginRoutesUnverifiedToVerification(t *testing.T) {
	a, _ := newTestApp(t, loginHandler(models.RoleRider, false))

	view, err := a.Login(context.Background(), LoginInput{Email: "t@example.com", Password: "secret"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if view != ViewVerifyEmail {
		t.Errorf("view = %s, want verify-email", view)
	}
}

func TestLoginValidation(t *testing.T) {
	a, _ := newTestApp(t, loginHandler(models.RoleRider, true))

	if _, err := a.Login(context.Background(), LoginInput{Email: "not-an-email", Password: "x"}); err == nil {
		t.Error("malformed email should fail before reaching the backend")
	}
	if _, err := a.Login(context.Background(), LoginInput{Email: "t@example.com"}); err == nil {
		t.Error("missing password should fail before reaching the backend")
	}
}

func TestNavigateGuardForcesVerification(t *testing.T) {
	a, _ := newTestApp(t, loginHandler(models.RoleRider, false))
	if _, err := a.Login(context.Background(), LoginInput{Email: "t@example.com", Password: "secret"}); err != nil {
		t.Fatalf("login: %v", err)
	}

	for _, target := range []View{ViewRideRequest, ViewHome, ViewAdmin, ViewTracking} {
		if landed := a.Navigate(target); landed != ViewVerifyEmail {
			t.Errorf("Navigate(%s) landed on %s, want forced verify-email", target, landed)
		}
	}
}

func TestLogoutReturnsHomeDespiteVerificationGuard(t *testing.T) {
	a, bridge := newTestApp(t, loginHandler(models.RoleRider, false))
	if _, err := a.Login(context.Background(), LoginInput{Email: "t@example.com", Password: "secret"}); err != nil {
		t.Fatalf("login: %v", err)
	}

	view := a.Logout(context.Background())
	if view != ViewHome {
		t.Errorf("view = %s, want home", view)
	}
	if bridge.teardowns != 1 {
		t.Errorf("teardowns = %d, want 1", bridge.teardowns)
	}
	if _, err := a.sessions.Current(); err != session.ErrNoSession {
		t.Error("session should be cleared")
	}
}

func TestNavigateWithoutSessionIsLimitedToPublicViews(t *testing.T) {
	a, _ := newTestApp(t, loginHandler(models.RoleRider, true))

	if landed := a.Navigate(ViewSignup); landed != ViewSignup {
		t.Errorf("public view refused: %s", landed)
	}
	if landed := a.Navigate(ViewRideRequest); landed != ViewLogin {
		t.Errorf("protected view without session landed on %s, want login", landed)
	}
}

func TestAcceptedPushRaisesNoticeAndManualContinue(t *testing.T) {
	a, _ := newTestApp(t, loginHandler(models.RoleRider, true))
	ctx := context.Background()
	if _, err := a.Login(ctx, LoginInput{Email: "t@example.com", Password: "secret"}); err != nil {
		t.Fatalf("login: %v", err)
	}

	a.mu.Lock()
	machine := a.machine
	a.view = ViewRideDetails
	a.mu.Unlock()
	if err := machine.RequestCreated(ctx, models.Ride{ID: 7, RiderID: 42}); err != nil {
		t.Fatalf("request: %v", err)
	}

	driverID := uint(99)
	a.HandleRealtimeEvent(ride.Event{
		Kind: ride.EventRideAccepted,
		Ride: models.Ride{ID: 7, DriverID: &driverID, Status: models.RideStatusAccepted},
	})

	state, err := a.State(ctx)
	if err != nil {
		t.Fatalf("state: %v", err)
	}
	if state.Notice == "" {
		t.Error("acceptance should raise a notice")
	}
	if state.View != ViewRideDetails {
		t.Errorf("view = %s, should not advance before the delay or a manual continue", state.View)
	}

	a.ContinueToTracking(ctx)
	state, _ = a.State(ctx)
	if state.View != ViewTracking {
		t.Errorf("view = %s, want tracking after manual continue", state.View)
	}
	if state.Ride == nil || state.Ride.Status != string(models.RideStatusAccepted) {
		t.Errorf("tracking state ride = %+v", state.Ride)
	}
}

func TestDuplicateAcceptDoesNotReRaiseNotice(t *testing.T) {
	a, _ := newTestApp(t, loginHandler(models.RoleRider, true))
	ctx := context.Background()
	a.Login(ctx, LoginInput{Email: "t@example.com", Password: "secret"})

	a.mu.Lock()
	machine := a.machine
	a.mu.Unlock()
	machine.RequestCreated(ctx, models.Ride{ID: 7, RiderID: 42})

	ev := ride.Event{Kind: ride.EventRideAccepted, Ride: models.Ride{ID: 7, Status: models.RideStatusAccepted}}
	a.HandleRealtimeEvent(ev)

	// Clear the notice the way rendering would, then redeliver.
	a.mu.Lock()
	a.notice = ""
	a.mu.Unlock()
	a.HandleRealtimeEvent(ev)

	state, _ := a.State(ctx)
	if state.Notice != "" {
		t.Errorf("duplicate delivery re-raised notice %q", state.Notice)
	}
}

func TestPolledAdvanceWithinAcceptedFamilyStaysQuiet(t *testing.T) {
	a, _ := newTestApp(t, loginHandler(models.RoleRider, true))
	ctx := context.Background()
	a.Login(ctx, LoginInput{Email: "t@example.com", Password: "secret"})

	a.mu.Lock()
	machine := a.machine
	a.mu.Unlock()
	machine.RequestCreated(ctx, models.Ride{ID: 7, RiderID: 42})
	a.HandleRealtimeEvent(ride.Event{Kind: ride.EventRideAccepted, Ride: models.Ride{ID: 7, Status: models.RideStatusAccepted}})

	// Clear the notice the way rendering would, then let the poller observe
	// the driver moving to en_route.
	a.mu.Lock()
	a.notice = ""
	a.mu.Unlock()
	a.rides.Save(ctx, 42, &models.Ride{ID: 7, RiderID: 42, Status: models.RideStatusEnRoute})
	a.PollTick(ctx)

	state, _ := a.State(ctx)
	if state.Notice != "" {
		t.Errorf("en_route advance re-raised the acceptance notice %q", state.Notice)
	}

	// A genuinely new acceptance observed by polling alone still notifies.
	machine.CancelConfirmed(ctx)
	a.rides.Save(ctx, 42, &models.Ride{ID: 11, RiderID: 42, Status: models.RideStatusAccepted})
	a.PollTick(ctx)
	state, _ = a.State(ctx)
	if state.Notice == "" {
		t.Error("first polled acceptance should raise the notice")
	}
}

func TestCancelRideRequiresReasonAfterAcceptance(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(loginBody(42, models.RoleRider, true)))
	})
	mux.HandleFunc("/rider", func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`{}`)) })
	var lateCancelCalled bool
	mux.HandleFunc("/rides/7/late-cancel", func(w http.ResponseWriter, r *http.Request) {
		lateCancelCalled = true
		w.Write([]byte(`{}`))
	})

	a, _ := newTestApp(t, mux)
	ctx := context.Background()
	a.Login(ctx, LoginInput{Email: "t@example.com", Password: "secret"})

	a.mu.Lock()
	machine := a.machine
	a.mu.Unlock()
	machine.RequestCreated(ctx, models.Ride{ID: 7, RiderID: 42})
	a.HandleRealtimeEvent(ride.Event{Kind: ride.EventRideAccepted, Ride: models.Ride{ID: 7, Status: models.RideStatusAccepted}})

	if _, err := a.CancelRide(ctx, "  "); !errors.Is(err, ride.ErrReasonRequired) {
		t.Fatalf("whitespace reason: got %v, want ErrReasonRequired", err)
	}

	view, err := a.CancelRide(ctx, "waited too long")
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if !lateCancelCalled {
		t.Error("accepted ride must cancel through the late-cancel endpoint")
	}
	if view != ViewRideRequest {
		t.Errorf("view = %s, want ride-request", view)
	}
	if _, found, _ := machine.Current(ctx); found {
		t.Error("mirror should be cleared after a confirmed cancel")
	}
}

func TestActionInFlightGuard(t *testing.T) {
	a, _ := newTestApp(t, loginHandler(models.RoleRider, true))

	if err := a.begin("login"); err != nil {
		t.Fatalf("first begin: %v", err)
	}
	if err := a.begin("login"); !errors.Is(err, ErrActionInFlight) {
		t.Errorf("second begin: got %v, want ErrActionInFlight", err)
	}
	a.end("login")
	if err := a.begin("login"); err != nil {
		t.Errorf("begin after end: %v", err)
	}
}

func TestAdminDriverActionUpdatesLocalTable(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(loginBody(1, models.RoleAdmin, true)))
	})
	mux.HandleFunc("/admin/users", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": [
			{"id": 2, "name": "Dave", "email": "d@example.com", "role": "driver",
			 "driver": {"id": 5, "status": "active"}}
		]}`))
	})
	mux.HandleFunc("/admin/vehicles", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data": []}`))
	})
	var actionPath string
	mux.HandleFunc("/admin/drivers/5/suspend", func(w http.ResponseWriter, r *http.Request) {
		actionPath = r.URL.Path
		w.Write([]byte(`{}`))
	})

	a, _ := newTestApp(t, mux)
	ctx := context.Background()
	view, err := a.Login(ctx, LoginInput{Email: "a@example.com", Password: "secret"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if view != ViewAdmin {
		t.Fatalf("admin landed on %s", view)
	}
	if err := a.LoadAdminDashboard(ctx); err != nil {
		t.Fatalf("dashboard: %v", err)
	}

	if err := a.DriverAction(ctx, 5, "suspend", false); !errors.Is(err, ErrConfirmRequired) {
		t.Fatalf("unconfirmed action: got %v, want ErrConfirmRequired", err)
	}

	if err := a.DriverAction(ctx, 5, "suspend", true); err != nil {
		t.Fatalf("action: %v", err)
	}
	if actionPath == "" {
		t.Error("backend action endpoint not called")
	}

	state, _ := a.State(ctx)
	if len(state.AdminUsers) != 1 {
		t.Fatalf("admin users = %d", len(state.AdminUsers))
	}
	row := state.AdminUsers[0]
	if row.Driver.Status != models.DriverStatusSuspended {
		t.Errorf("status = %s, want suspended", row.Driver.Status)
	}
	if len(row.Actions) != 1 || row.Actions[0] != "unsuspend" {
		t.Errorf("actions = %v, want [unsuspend]", row.Actions)
	}

	// The action no longer applies to the new status.
	if err := a.DriverAction(ctx, 5, "suspend", true); err == nil {
		t.Error("suspending a suspended driver must be refused")
	}
}

func TestDriverOfferAcceptance(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/auth/login", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(loginBody(42, models.RoleDriver, true)))
	})
	var accepted bool
	mux.HandleFunc("/driver/rides/8/accept", func(w http.ResponseWriter, r *http.Request) {
		accepted = true
		w.Write([]byte(`{}`))
	})

	a, _ := newTestApp(t, mux)
	ctx := context.Background()
	a.Login(ctx, LoginInput{Email: "d@example.com", Password: "secret"})

	a.HandleRealtimeEvent(ride.Event{Kind: ride.EventRideRequested, Ride: models.Ride{ID: 8, RiderID: 1}})

	state, _ := a.State(ctx)
	if state.Offer == nil || state.Offer.ID != 8 {
		t.Fatalf("offer = %+v", state.Offer)
	}

	view, err := a.AcceptOffer(ctx)
	if err != nil {
		t.Fatalf("accept: %v", err)
	}
	if !accepted {
		t.Error("backend accept endpoint not called")
	}
	if view != ViewHome {
		t.Errorf("view = %s", view)
	}

	state, _ = a.State(ctx)
	if state.Offer != nil {
		t.Error("offer should be consumed")
	}
	if state.Ride == nil || state.Ride.Status != string(models.RideStatusAccepted) {
		t.Errorf("active ride = %+v", state.Ride)
	}
	if state.Ride.DriverID == nil || *state.Ride.DriverID != 42 {
		t.Error("driver not assigned to the accepted ride")
	}
}

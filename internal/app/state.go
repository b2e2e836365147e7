package app

import (
	"context"

	"github.com/Mikelesnr/tsviyo-frontend/internal/models"
	"github.com/Mikelesnr/tsviyo-frontend/internal/session"
)

// UserSummary is the session projection exposed to views.
type UserSummary struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	Verified bool   `json:"verified"`
}

// RideSummary is the ride projection exposed to views: display-ready labels
// alongside the raw fields.
type RideSummary struct {
	ID                 uint        `json:"id"`
	Status             string      `json:"status"`
	StatusLabel        string      `json:"status_label"`
	PickupAddress      string      `json:"pickup_address"`
	DropoffAddress     string      `json:"dropoff_address"`
	Fare               models.Fare `json:"fare"`
	FareDisplay        string      `json:"fare_display"`
	PickupTime         string      `json:"pickup_time,omitempty"`
	DriverID           *uint       `json:"driver_id,omitempty"`
	CancellationReason string      `json:"cancellation_reason,omitempty"`
}

func summarize(r *models.Ride) *RideSummary {
	if r == nil {
		return nil
	}
	return &RideSummary{
		ID:                 r.ID,
		Status:             string(r.Status),
		StatusLabel:        r.Status.Label(),
		PickupAddress:      r.PickupAddress,
		DropoffAddress:     r.DropoffAddress,
		Fare:               r.Fare,
		FareDisplay:        r.Fare.Display(),
		PickupTime:         r.PickupTime,
		DriverID:           r.DriverID,
		CancellationReason: r.CancellationReason,
	}
}

// AdminUserRow is an admin users table row with the actions applicable to
// the driver's current status.
type AdminUserRow struct {
	models.AdminUser
	Actions []string `json:"actions,omitempty"`
}

// State is the full view-model of the mounted view.
type State struct {
	View         View           `json:"view"`
	Notice       string         `json:"notice,omitempty"`
	User         *UserSummary   `json:"user,omitempty"`
	Ride         *RideSummary   `json:"ride,omitempty"`
	Offer        *RideSummary   `json:"offer,omitempty"`
	RouteKm      float64        `json:"route_km,omitempty"`
	RouteMin     float64        `json:"route_min,omitempty"`
	Driver       *models.Driver `json:"driver,omitempty"`
	Progress     int            `json:"progress,omitempty"`
	DriverOnline bool           `json:"driver_online,omitempty"`

	AdminUsers    []AdminUserRow   `json:"admin_users,omitempty"`
	AdminVehicles []models.Vehicle `json:"admin_vehicles,omitempty"`
}

// State snapshots everything the mounted view needs to render.
func (a *App) State(ctx context.Context) (*State, error) {
	user, err := a.sessions.Current()
	if err != nil && err != session.ErrNoSession {
		return nil, err
	}

	a.mu.Lock()
	st := &State{
		View:         a.view,
		Notice:       a.notice,
		RouteKm:      a.routeKm,
		RouteMin:     a.routeMin,
		Driver:       a.driver,
		Progress:     a.progress,
		DriverOnline: a.driverOnline,
	}
	machine := a.machine
	if a.view == ViewAdmin {
		for _, u := range a.adminUsers {
			row := AdminUserRow{AdminUser: u}
			if u.Driver != nil {
				row.Actions = models.DriverActions(u.Driver.Status)
			}
			st.AdminUsers = append(st.AdminUsers, row)
		}
		st.AdminVehicles = a.adminVehicles
	}
	a.mu.Unlock()

	if user != nil {
		st.User = &UserSummary{
			ID:       user.ID,
			Name:     user.Name,
			Email:    user.Email,
			Role:     user.Role,
			Verified: user.Verified(),
		}
	}

	if machine != nil {
		if current, found, err := machine.Current(ctx); err == nil && found {
			st.Ride = summarize(current)
		}
		if st.View == ViewRating {
			if target, found, err := machine.RatingTarget(ctx); err == nil && found {
				st.Ride = summarize(target)
			}
		}
		if offer, ok := machine.Offer(); ok {
			st.Offer = summarize(offer)
		}
	}

	return st, nil
}

// Views reachable without a session.
var publicViews = map[View]bool{
	ViewHome: true, ViewLogin: true, ViewSignup: true, ViewForgotPassword: true,
}

// Navigate switches the mounted view. An unverified session is always forced
// to the verification view no matter what was requested; logging out clears
// the session first, so the post-logout transition to home is unaffected.
func (a *App) Navigate(to View) View {
	user, err := a.sessions.Current()

	a.mu.Lock()
	defer a.mu.Unlock()

	switch {
	case err != nil:
		if !publicViews[to] {
			to = ViewLogin
		}
	case !user.Verified() && to != ViewVerifyEmail:
		to = ViewVerifyEmail
	}

	a.view = to
	a.notice = ""
	return to
}

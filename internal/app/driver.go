package app

import (
	"context"

	"github.com/Mikelesnr/tsviyo-frontend/internal/models"
	"github.com/Mikelesnr/tsviyo-frontend/internal/ride"
)

// DriverProfileInput is the first onboarding step.
type DriverProfileInput struct {
	LicenseNumber string `json:"license_number" validate:"required"`
	ImageURL      string `json:"image_url" validate:"omitempty,url"`
}

// VehicleInput completes onboarding.
type VehicleInput struct {
	Make        string `json:"make" validate:"required"`
	Model       string `json:"model" validate:"required"`
	PlateNumber string `json:"plate_number" validate:"required"`
}

func (a *App) requireDriver() (*models.User, error) {
	user, err := a.sessions.Current()
	if err != nil {
		return nil, err
	}
	if user.Role != models.RoleDriver {
		return nil, ErrNotAllowed
	}
	return user, nil
}

// SubmitDriverProfile registers the driver profile during onboarding.
func (a *App) SubmitDriverProfile(ctx context.Context, in DriverProfileInput) error {
	if _, err := a.requireDriver(); err != nil {
		return err
	}
	if err := a.validate.Struct(in); err != nil {
		return err
	}
	if err := a.begin("driver-profile"); err != nil {
		return err
	}
	defer a.end("driver-profile")
	return a.backend.CreateDriverProfile(ctx, in.LicenseNumber, in.ImageURL)
}

// SubmitVehicle registers the driver's vehicle and finishes onboarding.
func (a *App) SubmitVehicle(ctx context.Context, in VehicleInput) (View, error) {
	if _, err := a.requireDriver(); err != nil {
		return "", err
	}
	if err := a.validate.Struct(in); err != nil {
		return "", err
	}
	if err := a.begin("driver-vehicle"); err != nil {
		return "", err
	}
	defer a.end("driver-vehicle")

	if err := a.backend.CreateVehicle(ctx, in.Make, in.Model, in.PlateNumber); err != nil {
		return "", err
	}
	a.mu.Lock()
	a.view = ViewHome
	a.notice = "You're all set. Go online to receive ride requests."
	a.mu.Unlock()
	return ViewHome, nil
}

// ToggleOnline flips the driver between online and offline.
func (a *App) ToggleOnline(ctx context.Context) (bool, error) {
	if _, err := a.requireDriver(); err != nil {
		return false, err
	}
	if err := a.begin("toggle-online"); err != nil {
		return false, err
	}
	defer a.end("toggle-online")

	if err := a.backend.ToggleDriverStatus(ctx); err != nil {
		return false, err
	}
	a.mu.Lock()
	a.driverOnline = !a.driverOnline
	online := a.driverOnline
	if online {
		a.notice = "You are online and receiving ride requests."
	} else {
		a.notice = "You are offline."
	}
	a.mu.Unlock()
	return online, nil
}

// AcceptOffer claims the pending offer. Only a backend-confirmed acceptance
// touches local state; a lost race for the ride leaves the driver idle.
func (a *App) AcceptOffer(ctx context.Context) (View, error) {
	if _, err := a.requireDriver(); err != nil {
		return "", err
	}
	if err := a.begin("accept-offer"); err != nil {
		return "", err
	}
	defer a.end("accept-offer")

	a.mu.Lock()
	machine := a.machine
	a.mu.Unlock()
	if machine == nil {
		return "", ride.ErrNoRide
	}
	offer, ok := machine.Offer()
	if !ok {
		return "", ride.ErrNoRide
	}

	if err := a.backend.AcceptRide(ctx, offer.ID); err != nil {
		// Another driver got it first; drop the stale offer.
		machine.IgnoreOffer()
		return "", err
	}
	if _, err := machine.AcceptOffer(ctx); err != nil {
		return "", err
	}

	a.mu.Lock()
	a.view = ViewHome
	a.notice = "Ride accepted. Head to the pickup point."
	a.mu.Unlock()
	return ViewHome, nil
}

// IgnoreOffer dismisses the pending offer.
func (a *App) IgnoreOffer() {
	a.mu.Lock()
	machine := a.machine
	a.notice = ""
	a.mu.Unlock()
	if machine != nil {
		machine.IgnoreOffer()
	}
}

// StartTrip marks the accepted ride in progress at pickup.
func (a *App) StartTrip(ctx context.Context) error {
	if _, err := a.requireDriver(); err != nil {
		return err
	}
	a.mu.Lock()
	machine := a.machine
	a.mu.Unlock()
	if machine == nil {
		return ride.ErrNoRide
	}
	if _, err := machine.StartTrip(ctx); err != nil {
		return err
	}
	a.mu.Lock()
	a.notice = "Trip started."
	a.mu.Unlock()
	return nil
}

// EndTrip completes the ride at dropoff and shows the fare.
func (a *App) EndTrip(ctx context.Context) (View, error) {
	if _, err := a.requireDriver(); err != nil {
		return "", err
	}
	a.mu.Lock()
	machine := a.machine
	a.mu.Unlock()
	if machine == nil {
		return "", ride.ErrNoRide
	}
	if _, err := machine.Complete(ctx); err != nil {
		return "", err
	}
	a.mu.Lock()
	a.view = ViewFare
	a.notice = ""
	a.mu.Unlock()
	return ViewFare, nil
}

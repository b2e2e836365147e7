package app

import (
	"context"
	"strings"

	"github.com/Mikelesnr/tsviyo-frontend/internal/api"
	"github.com/Mikelesnr/tsviyo-frontend/internal/maps"
	"github.com/Mikelesnr/tsviyo-frontend/internal/models"
	"github.com/Mikelesnr/tsviyo-frontend/internal/ride"
	"github.com/Mikelesnr/tsviyo-frontend/internal/session"
)

// RideRequestInput is the ride request form. Coordinates are optional; a
// missing pair is geocoded from the address, a missing address is reverse
// geocoded from the pair.
type RideRequestInput struct {
	PickupAddress  string  `json:"pickup_address"`
	DropoffAddress string  `json:"dropoff_address"`
	PickupLat      float64 `json:"pickup_lat"`
	PickupLng      float64 `json:"pickup_lng"`
	DropoffLat     float64 `json:"dropoff_lat"`
	DropoffLng     float64 `json:"dropoff_lng"`
	PickupTime     string  `json:"pickup_time"`
}

// resolveEndpoint fills in whichever half of an endpoint is missing.
func (a *App) resolveEndpoint(ctx context.Context, address string, lat, lng float64, fallback string) (string, maps.Coordinates, error) {
	coords := maps.Coordinates{Lat: lat, Lng: lng}
	address = strings.TrimSpace(address)

	if coords.Lat == 0 && coords.Lng == 0 {
		if address == "" {
			return "", coords, &api.Error{Kind: api.KindValidation, Message: "pickup and dropoff locations are required"}
		}
		resolved, err := a.maps.Geocode(ctx, address)
		if err != nil {
			return "", coords, &api.Error{Kind: api.KindValidation, Message: "could not locate " + address}
		}
		coords = resolved
	}

	if address == "" {
		resolved, err := a.maps.ReverseGeocode(ctx, coords)
		if err != nil {
			a.log.Debug().Err(err).Msg("reverse geocode unavailable, using fallback label")
		}
		address = resolved
		if address == "" {
			address = fallback
		}
	}
	return address, coords, nil
}

// RequestRide resolves locations, estimates the fare, submits the ride and
// records it in the mirror. The local record only exists once the backend
// returned an id.
func (a *App) RequestRide(ctx context.Context, in RideRequestInput) (View, error) {
	user, err := a.sessions.Current()
	if err != nil {
		return "", err
	}
	if user.Role != models.RoleRider {
		return "", ErrNotAllowed
	}
	if err := a.begin("request-ride"); err != nil {
		return "", err
	}
	defer a.end("request-ride")

	a.mu.Lock()
	machine := a.machine
	a.mu.Unlock()
	if machine == nil {
		return "", session.ErrNoSession
	}
	if current, found, err := machine.Current(ctx); err == nil && found && !current.Status.Terminal() {
		return "", &api.Error{Kind: api.KindRejected, Message: "you already have a ride in progress"}
	}

	pickupAddr, pickup, err := a.resolveEndpoint(ctx, in.PickupAddress, in.PickupLat, in.PickupLng, "Unknown Pickup")
	if err != nil {
		return "", err
	}
	dropoffAddr, dropoff, err := a.resolveEndpoint(ctx, in.DropoffAddress, in.DropoffLat, in.DropoffLng, "Unknown Dropoff")
	if err != nil {
		return "", err
	}

	// Route the trip for the fare estimate; straight-line distance stands in
	// when directions are unavailable.
	var distanceKm, durationMin float64
	if route, err := a.maps.Route(ctx, pickup, dropoff); err == nil {
		distanceKm, durationMin = route.DistanceKm, route.DurationMin
	} else {
		a.log.Debug().Err(err).Msg("directions unavailable, estimating from straight-line distance")
		distanceKm = maps.HaversineKm(pickup, dropoff)
		durationMin = maps.EstimateDurationMin(distanceKm)
	}
	fare := maps.EstimateFare(distanceKm, a.cfg.RatePerKm)

	rideID, err := a.backend.CreateRide(ctx, models.RideCreate{
		RiderID:        user.ID,
		PickupLat:      pickup.Lat,
		PickupLng:      pickup.Lng,
		DropoffLat:     dropoff.Lat,
		DropoffLng:     dropoff.Lng,
		PickupAddress:  pickupAddr,
		DropoffAddress: dropoffAddr,
		Fare:           fare,
		PickupTime:     in.PickupTime,
	})
	if err != nil {
		return "", err
	}

	if err := machine.RequestCreated(ctx, models.Ride{
		ID:             rideID,
		RiderID:        user.ID,
		PickupAddress:  pickupAddr,
		DropoffAddress: dropoffAddr,
		PickupLat:      pickup.Lat,
		PickupLng:      pickup.Lng,
		DropoffLat:     dropoff.Lat,
		DropoffLng:     dropoff.Lng,
		Fare:           fare,
		PickupTime:     in.PickupTime,
	}); err != nil {
		return "", err
	}

	a.mu.Lock()
	a.view = ViewRideDetails
	a.notice = ""
	a.routeKm = distanceKm
	a.routeMin = durationMin
	a.mu.Unlock()
	return ViewRideDetails, nil
}

// CancelRide cancels the active ride. Before acceptance no reason is needed;
// after acceptance the backend's late-cancel endpoint requires one.
func (a *App) CancelRide(ctx context.Context, reason string) (View, error) {
	if err := a.begin("cancel-ride"); err != nil {
		return "", err
	}
	defer a.end("cancel-ride")

	a.mu.Lock()
	machine := a.machine
	a.mu.Unlock()
	if machine == nil {
		return "", ride.ErrNoRide
	}
	current, found, err := machine.Current(ctx)
	if err != nil {
		return "", err
	}
	if !found {
		return "", ride.ErrNoRide
	}
	if err := ride.ValidateCancel(current.Status, reason); err != nil {
		return "", err
	}

	if current.Status.Accepted() {
		err = a.backend.LateCancelRide(ctx, current.ID, strings.TrimSpace(reason))
	} else {
		err = a.backend.CancelRide(ctx, current.ID)
	}
	if err != nil {
		return "", err
	}
	if err := machine.CancelConfirmed(ctx); err != nil {
		return "", err
	}

	a.mu.Lock()
	if a.acceptTimer != nil {
		a.acceptTimer.Stop()
		a.acceptTimer = nil
	}
	a.trackingGen++
	a.progress = 0
	a.driver = nil
	a.view = ViewRideRequest
	a.notice = "Your ride has been cancelled."
	a.mu.Unlock()
	return ViewRideRequest, nil
}

// AcknowledgeCancelled clears a peer-cancelled ride and returns to the
// request form.
func (a *App) AcknowledgeCancelled(ctx context.Context) (View, error) {
	a.mu.Lock()
	machine := a.machine
	a.mu.Unlock()
	if machine == nil {
		return "", ride.ErrNoRide
	}
	if err := machine.CancelConfirmed(ctx); err != nil {
		return "", err
	}
	a.mu.Lock()
	a.driver = nil
	a.view = ViewRideRequest
	a.notice = ""
	a.mu.Unlock()
	return ViewRideRequest, nil
}

// FareContinue acknowledges the fare view. Riders with an assigned driver go
// on to rate them; everyone else is done.
func (a *App) FareContinue(ctx context.Context) (View, error) {
	user, err := a.sessions.Current()
	if err != nil {
		return "", err
	}
	a.mu.Lock()
	machine := a.machine
	a.mu.Unlock()
	if machine == nil {
		return "", ride.ErrNoRide
	}

	completed, err := machine.AcknowledgeFare(ctx)
	if err != nil {
		return "", err
	}

	next := ViewHome
	if user.Role == models.RoleRider {
		next = ViewRideRequest
		if completed.DriverID != nil {
			next = ViewRating
		}
	}

	a.mu.Lock()
	a.view = next
	a.notice = ""
	a.routeKm = 0
	a.routeMin = 0
	a.progress = 0
	a.mu.Unlock()
	return next, nil
}

// RatingInput is the rating form.
type RatingInput struct {
	Stars   int    `json:"stars" validate:"required,min=1,max=5"`
	Comment string `json:"comment"`
}

// SubmitRating records the rider's rating of the driver for the ride parked
// in the awaiting-rating slot.
func (a *App) SubmitRating(ctx context.Context, in RatingInput) (View, error) {
	if err := a.validate.Struct(in); err != nil {
		return "", err
	}
	if err := a.begin("submit-rating"); err != nil {
		return "", err
	}
	defer a.end("submit-rating")

	a.mu.Lock()
	machine := a.machine
	a.mu.Unlock()
	if machine == nil {
		return "", ride.ErrNoRide
	}
	target, found, err := machine.RatingTarget(ctx)
	if err != nil {
		return "", err
	}
	if !found || target.DriverID == nil {
		return "", ride.ErrNoRide
	}

	rating := models.Rating{
		RideID:     target.ID,
		RevieweeID: *target.DriverID,
		Stars:      in.Stars,
	}
	if trimmed := strings.TrimSpace(in.Comment); trimmed != "" {
		rating.Comment = &trimmed
	}
	if err := a.backend.SubmitRating(ctx, rating); err != nil {
		return "", err
	}
	if err := machine.RatingSubmitted(ctx); err != nil {
		return "", err
	}

	a.mu.Lock()
	a.driver = nil
	a.view = ViewRideRequest
	a.notice = "Thanks for your feedback!"
	a.mu.Unlock()
	return ViewRideRequest, nil
}

// SkipRating discards the awaiting-rating slot without rating.
func (a *App) SkipRating(ctx context.Context) (View, error) {
	a.mu.Lock()
	machine := a.machine
	a.mu.Unlock()
	if machine == nil {
		return "", ride.ErrNoRide
	}
	if err := machine.RatingSubmitted(ctx); err != nil {
		return "", err
	}
	a.mu.Lock()
	a.driver = nil
	a.view = ViewRideRequest
	a.notice = ""
	a.mu.Unlock()
	return ViewRideRequest, nil
}

// PastRides fetches the ride history, most recent first as the backend
// returns it.
func (a *App) PastRides(ctx context.Context) ([]RideSummary, error) {
	rides, err := a.backend.ListRides(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]RideSummary, 0, len(rides))
	for i := range rides {
		out = append(out, *summarize(&rides[i]))
	}
	return out, nil
}

package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Mikelesnr/tsviyo-frontend/internal/models"
)

// createRideResponse tolerates both response shapes the backend has used:
// the ride under "data" or at the top level.
type createRideResponse struct {
	ID   uint `json:"id"`
	Data struct {
		ID uint `json:"id"`
	} `json:"data"`
}

// CreateRide submits a ride request and returns the server-assigned ride id.
func (c *Client) CreateRide(ctx context.Context, ride models.RideCreate) (uint, error) {
	var resp createRideResponse
	if err := c.do(ctx, http.MethodPost, "/rides", ride, &resp); err != nil {
		return 0, err
	}
	id := resp.Data.ID
	if id == 0 {
		id = resp.ID
	}
	if id == 0 {
		return 0, &Error{Kind: KindRejected, Message: "no ride ID returned from server"}
	}
	return id, nil
}

// ListRides returns the user's ride history.
func (c *Client) ListRides(ctx context.Context) ([]models.Ride, error) {
	var resp struct {
		Data []models.Ride `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/rides", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// CancelRide cancels a ride that has not been accepted yet. No reason is
// required before acceptance.
func (c *Client) CancelRide(ctx context.Context, rideID uint) error {
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/rides/%d/cancel", rideID), nil, nil)
}

// LateCancelRide cancels an accepted ride; the backend requires a reason.
func (c *Client) LateCancelRide(ctx context.Context, rideID uint, reason string) error {
	body := map[string]string{"reason": reason}
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/rides/%d/late-cancel", rideID), body, nil)
}

// AcceptRide claims a requested ride for the logged-in driver.
func (c *Client) AcceptRide(ctx context.Context, rideID uint) error {
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/driver/rides/%d/accept", rideID), nil, nil)
}

// SubmitRating records the rider's rating of the driver for a completed ride.
func (c *Client) SubmitRating(ctx context.Context, rating models.Rating) error {
	return c.do(ctx, http.MethodPost, "/ratings", rating, nil)
}

// GetDriver fetches the driver profile shown on the tracking view.
func (c *Client) GetDriver(ctx context.Context, driverID uint) (*models.Driver, error) {
	var driver models.Driver
	if err := c.do(ctx, http.MethodGet, fmt.Sprintf("/drivers/%d", driverID), nil, &driver); err != nil {
		return nil, err
	}
	return &driver, nil
}

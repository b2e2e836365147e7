package api

import (
	"context"
	"net/http"
)

// CreateDriverProfile is the first driver onboarding step.
func (c *Client) CreateDriverProfile(ctx context.Context, licenseNumber, imageURL string) error {
	body := map[string]interface{}{"license_number": licenseNumber}
	if imageURL != "" {
		body["image_url"] = imageURL
	}
	return c.do(ctx, http.MethodPost, "/driver/profile", body, nil)
}

// CreateVehicle registers the driver's vehicle, completing onboarding.
func (c *Client) CreateVehicle(ctx context.Context, make, model, plateNumber string) error {
	body := map[string]string{
		"make":         make,
		"model":        model,
		"plate_number": plateNumber,
	}
	return c.do(ctx, http.MethodPost, "/driver/vehicles", body, nil)
}

// ToggleDriverStatus flips the driver between online and offline.
func (c *Client) ToggleDriverStatus(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/driver/toggle-status", nil, nil)
}

package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/Mikelesnr/tsviyo-frontend/internal/models"
)

// AdminUsers lists every user for the admin dashboard.
func (c *Client) AdminUsers(ctx context.Context) ([]models.AdminUser, error) {
	var resp struct {
		Data []models.AdminUser `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/admin/users", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// AdminVehicles lists every registered vehicle.
func (c *Client) AdminVehicles(ctx context.Context) ([]models.Vehicle, error) {
	var resp struct {
		Data []models.Vehicle `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/admin/vehicles", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Data, nil
}

// AdminDeleteUser removes a user account.
func (c *Client) AdminDeleteUser(ctx context.Context, userID uint) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/admin/users/%d", userID), nil, nil)
}

// AdminDriverAction applies one of activate/deactivate/suspend/unsuspend to
// a driver.
func (c *Client) AdminDriverAction(ctx context.Context, driverID uint, action string) error {
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/admin/drivers/%d/%s", driverID, action), nil, nil)
}

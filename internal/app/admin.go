package app

import (
	"context"
	"fmt"

	"github.com/Mikelesnr/tsviyo-frontend/internal/models"
)

func (a *App) requireAdmin() error {
	user, err := a.sessions.Current()
	if err != nil {
		return err
	}
	if user.Role != models.RoleAdmin {
		return ErrNotAllowed
	}
	return nil
}

// LoadAdminDashboard refreshes the users and vehicles tables from the
// backend.
func (a *App) LoadAdminDashboard(ctx context.Context) error {
	if err := a.requireAdmin(); err != nil {
		return err
	}
	if err := a.begin("admin-load"); err != nil {
		return err
	}
	defer a.end("admin-load")

	users, err := a.backend.AdminUsers(ctx)
	if err != nil {
		return err
	}
	vehicles, err := a.backend.AdminVehicles(ctx)
	if err != nil {
		return err
	}

	a.mu.Lock()
	a.adminUsers = users
	a.adminVehicles = vehicles
	a.view = ViewAdmin
	a.mu.Unlock()
	return nil
}

// DeleteUser removes an account. Destructive, so it refuses to run without
// an explicit confirmation flag.
func (a *App) DeleteUser(ctx context.Context, userID uint, confirmed bool) error {
	if err := a.requireAdmin(); err != nil {
		return err
	}
	if !confirmed {
		return ErrConfirmRequired
	}
	if err := a.begin("admin-delete-user"); err != nil {
		return err
	}
	defer a.end("admin-delete-user")

	if err := a.backend.AdminDeleteUser(ctx, userID); err != nil {
		return err
	}

	a.mu.Lock()
	kept := a.adminUsers[:0]
	for _, u := range a.adminUsers {
		if u.ID != userID {
			kept = append(kept, u)
		}
	}
	a.adminUsers = kept
	a.notice = "User deleted."
	a.mu.Unlock()
	return nil
}

// DriverAction applies an admin action (activate, deactivate, suspend,
// unsuspend) to a driver and updates the local table in place, so the row
// immediately offers the actions for the new status.
func (a *App) DriverAction(ctx context.Context, driverID uint, action string, confirmed bool) error {
	if err := a.requireAdmin(); err != nil {
		return err
	}
	if !confirmed {
		return ErrConfirmRequired
	}

	a.mu.Lock()
	var current string
	found := false
	for _, u := range a.adminUsers {
		if u.Driver != nil && u.Driver.ID == driverID {
			current = u.Driver.Status
			found = true
			break
		}
	}
	a.mu.Unlock()
	if !found {
		return fmt.Errorf("unknown driver %d", driverID)
	}

	allowed := false
	for _, candidate := range models.DriverActions(current) {
		if candidate == action {
			allowed = true
			break
		}
	}
	if !allowed {
		return fmt.Errorf("action %q does not apply to a %s driver", action, current)
	}

	if err := a.begin("admin-driver-action"); err != nil {
		return err
	}
	defer a.end("admin-driver-action")

	if err := a.backend.AdminDriverAction(ctx, driverID, action); err != nil {
		return err
	}

	a.mu.Lock()
	for i := range a.adminUsers {
		if d := a.adminUsers[i].Driver; d != nil && d.ID == driverID {
			d.Status = models.DriverStatusAfter(action, d.Status)
		}
	}
	a.notice = fmt.Sprintf("Driver is now %s.", models.DriverStatusAfter(action, current))
	a.mu.Unlock()
	return nil
}

package models

// Driver status values used by the admin dashboard.
const (
	DriverStatusActive    = "active"
	DriverStatusInactive  = "inactive"
	DriverStatusSuspended = "suspended"
)

// Vehicle belongs to at most one driver.
type Vehicle struct {
	ID          uint   `json:"id"`
	Make        string `json:"make"`
	Model       string `json:"model"`
	PlateNumber string `json:"plate_number"`
	DriverID    *uint  `json:"driver_id"`
}

// DriverUser is the user record embedded in a driver profile response.
type DriverUser struct {
	ID    uint   `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Driver is the profile projection shown on the tracking view and the admin
// dashboard.
type Driver struct {
	ID            uint       `json:"id"`
	User          DriverUser `json:"user"`
	LicenseNumber string     `json:"license_number"`
	Status        string     `json:"status,omitempty"`
	Vehicle       *Vehicle   `json:"vehicle,omitempty"`
}

// AdminUser is a row of the admin users table.
type AdminUser struct {
	ID     uint   `json:"id"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
	Driver *struct {
		ID     uint   `json:"id"`
		Status string `json:"status"`
	} `json:"driver,omitempty"`
}

// DriverActions lists which admin actions apply to a driver in its current
// status. Activate/deactivate and suspend/unsuspend are mutually exclusive
// pairs; only the applicable half of each pair is offered.
func DriverActions(status string) []string {
	switch status {
	case DriverStatusActive:
		return []string{"deactivate", "suspend"}
	case DriverStatusInactive:
		return []string{"activate", "suspend"}
	case DriverStatusSuspended:
		return []string{"unsuspend"}
	}
	return nil
}

// DriverStatusAfter returns the driver status resulting from an admin action.
func DriverStatusAfter(action, current string) string {
	switch action {
	case "activate":
		return DriverStatusActive
	case "deactivate":
		return DriverStatusInactive
	case "suspend":
		return DriverStatusSuspended
	case "unsuspend":
		return DriverStatusActive
	}
	return current
}

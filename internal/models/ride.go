package models

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type RideStatus string

const (
	RideStatusRequested  RideStatus = "requested"   // waiting for a driver
	RideStatusAccepted   RideStatus = "accepted"    // driver assigned
	RideStatusEnRoute    RideStatus = "en_route"    // driver heading to pickup
	RideStatusArrived    RideStatus = "arrived"     // driver at pickup
	RideStatusInProgress RideStatus = "in_progress" // ride underway
	RideStatusCancelled  RideStatus = "cancelled"   // terminal
	RideStatusCompleted  RideStatus = "completed"   // terminal
)

// Terminal reports whether the status can never change again.
func (s RideStatus) Terminal() bool {
	return s == RideStatusCancelled || s == RideStatusCompleted
}

// Accepted reports whether a driver is assigned and the ride is active. The
// finer-grained sub-states are treated uniformly as accepted for view
// purposes: all of them show the driver-tracking view.
func (s RideStatus) Accepted() bool {
	switch s {
	case RideStatusAccepted, RideStatusEnRoute, RideStatusArrived, RideStatusInProgress:
		return true
	}
	return false
}

// Label renders the status for display: "en_route" becomes "En Route".
func (s RideStatus) Label() string {
	parts := strings.Split(string(s), "_")
	for i, p := range parts {
		if p != "" {
			parts[i] = strings.ToUpper(p[:1]) + p[1:]
		}
	}
	return strings.Join(parts, " ")
}

// rank orders statuses for the poll/push reconciliation: reading the mirror
// must never move a ride backwards past a state push already reached.
func (s RideStatus) rank() int {
	switch {
	case s == RideStatusRequested:
		return 1
	case s.Accepted():
		return 2
	case s.Terminal():
		return 3
	}
	return 0
}

// Before reports whether s is an earlier lifecycle stage than other.
func (s RideStatus) Before(other RideStatus) bool {
	return s.rank() < other.rank()
}

// Fare is a non-negative currency amount. The realtime service delivers it
// either as a JSON number or as a numeric string ("15.50"), so it carries a
// lenient unmarshaller; it always marshals back as a number.
type Fare float64

func (f *Fare) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		*f = 0
		return nil
	}
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		if s == "" {
			*f = 0
			return nil
		}
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return fmt.Errorf("fare %q is not numeric: %w", s, err)
		}
		*f = Fare(v)
		return nil
	}
	var v float64
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*f = Fare(v)
	return nil
}

// Display formats the fare with two-decimal precision.
func (f Fare) Display() string {
	return fmt.Sprintf("$%.2f", float64(f))
}

// Ride is the client-side view of the single ride in progress. Identifiers
// are always server-assigned; the local copy is a disposable mirror.
type Ride struct {
	ID                 uint       `json:"id"`
	RiderID            uint       `json:"rider_id"`
	DriverID           *uint      `json:"driver_id,omitempty"`
	PickupAddress      string     `json:"pickup_address"`
	DropoffAddress     string     `json:"dropoff_address"`
	PickupLat          float64    `json:"pickup_lat"`
	PickupLng          float64    `json:"pickup_lng"`
	DropoffLat         float64    `json:"dropoff_lat"`
	DropoffLng         float64    `json:"dropoff_lng"`
	Fare               Fare       `json:"fare"`
	PickupTime         string     `json:"pickup_time"`
	Status             RideStatus `json:"status"`
	CancellationReason string     `json:"cancellation_reason,omitempty"`
	CreatedAt          time.Time  `json:"created_at,omitempty"`
}

// RideCreate is the body sent to POST /rides.
type RideCreate struct {
	RiderID        uint    `json:"rider_id"`
	PickupLat      float64 `json:"pickup_lat"`
	PickupLng      float64 `json:"pickup_lng"`
	DropoffLat     float64 `json:"dropoff_lat"`
	DropoffLng     float64 `json:"dropoff_lng"`
	PickupAddress  string  `json:"pickup_address"`
	DropoffAddress string  `json:"dropoff_address"`
	Fare           Fare    `json:"fare"`
	PickupTime     string  `json:"pickup_time"`
}

// Rating is the body sent to POST /ratings.
type Rating struct {
	RideID     uint    `json:"ride_id"`
	RevieweeID uint    `json:"reviewee_id"`
	Stars      int     `json:"stars"`
	Comment    *string `json:"comment"`
}

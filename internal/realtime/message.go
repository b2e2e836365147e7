package realtime

import (
	"encoding/json"
	"fmt"

	"github.com/Mikelesnr/tsviyo-frontend/internal/models"
)

// Envelope is the wire format of the push service. Clients send subscribe
// requests and pong replies in the same shape.
type Envelope struct {
	Event   string          `json:"event"`
	Channel string          `json:"channel,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Control events shared with the push service.
const (
	eventSubscribe  = "subscribe"
	eventSubscribed = "subscription_succeeded"
	eventPing       = "ping"
	eventPong       = "pong"
)

// RiderChannel is the private per-rider channel for ride updates.
func RiderChannel(userID uint) string {
	return fmt.Sprintf("ride.updates.%d", userID)
}

// DriverChannel is the shared dispatch channel drivers listen on for new
// ride requests.
const DriverChannel = "rides.nearby"

// Placeholder addresses used when a push payload omits them.
const (
	unknownPickup  = "Unknown Pickup"
	unknownDropoff = "Unknown Dropoff"
)

// wireRide tolerates the loose payloads the push service delivers: fare as
// string or number (models.Fare handles both), and the abbreviated
// pickup_add/dropoff_add field names some producers still emit.
type wireRide struct {
	ID             uint              `json:"id"`
	RiderID        uint              `json:"rider_id"`
	DriverID       *uint             `json:"driver_id"`
	PickupAddress  string            `json:"pickup_address"`
	PickupAdd      string            `json:"pickup_add"`
	DropoffAddress string            `json:"dropoff_address"`
	DropoffAdd     string            `json:"dropoff_add"`
	PickupLat      float64           `json:"pickup_lat"`
	PickupLng      float64           `json:"pickup_lng"`
	DropoffLat     float64           `json:"dropoff_lat"`
	DropoffLng     float64           `json:"dropoff_lng"`
	Fare           models.Fare       `json:"fare"`
	PickupTime     string            `json:"pickup_time"`
	Status         models.RideStatus `json:"status"`
	Reason         string            `json:"cancellation_reason"`
}

// NormalizeRide converts an event payload into the canonical Ride shape:
// numeric fare, placeholder addresses when missing.
func NormalizeRide(data json.RawMessage) (models.Ride, error) {
	var payload struct {
		Ride wireRide `json:"ride"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return models.Ride{}, fmt.Errorf("failed to decode ride payload: %w", err)
	}
	w := payload.Ride
	if w.ID == 0 {
		return models.Ride{}, fmt.Errorf("ride payload has no id")
	}

	pickup := w.PickupAddress
	if pickup == "" {
		pickup = w.PickupAdd
	}
	if pickup == "" {
		pickup = unknownPickup
	}
	dropoff := w.DropoffAddress
	if dropoff == "" {
		dropoff = w.DropoffAdd
	}
	if dropoff == "" {
		dropoff = unknownDropoff
	}

	return models.Ride{
		ID:                 w.ID,
		RiderID:            w.RiderID,
		DriverID:           w.DriverID,
		PickupAddress:      pickup,
		DropoffAddress:     dropoff,
		PickupLat:          w.PickupLat,
		PickupLng:          w.PickupLng,
		DropoffLat:         w.DropoffLat,
		DropoffLng:         w.DropoffLng,
		Fare:               w.Fare,
		PickupTime:         w.PickupTime,
		Status:             w.Status,
		CancellationReason: w.Reason,
	}, nil
}

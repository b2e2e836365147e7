package maps

import (
	"math"

	"github.com/Mikelesnr/tsviyo-frontend/internal/models"
)

const earthRadiusKm = 6371

// HaversineKm computes the great-circle distance between two points in
// kilometres. Used as the distance fallback when the directions API is
// unavailable.
func HaversineKm(from, to Coordinates) float64 {
	toRad := func(deg float64) float64 { return deg * math.Pi / 180 }

	dLat := toRad(to.Lat - from.Lat)
	dLng := toRad(to.Lng - from.Lng)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(from.Lat))*math.Cos(toRad(to.Lat))*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusKm * c
}

// EstimateFare computes the advisory client-side fare: distance times the
// flat per-kilometre rate. Never negative; zero distance means zero fare.
// The authoritative fare is always whatever the backend returns.
func EstimateFare(distanceKm, ratePerKm float64) models.Fare {
	if distanceKm <= 0 || ratePerKm <= 0 {
		return 0
	}
	return models.Fare(distanceKm * ratePerKm)
}

// EstimateDurationMin approximates trip duration at roughly 2.5 minutes per
// kilometre, matching the fare view's display when no route is available.
func EstimateDurationMin(distanceKm float64) float64 {
	if distanceKm <= 0 {
		return 0
	}
	return distanceKm * 2.5
}

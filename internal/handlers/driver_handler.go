package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Mikelesnr/tsviyo-frontend/internal/app"
)

// SubmitDriverProfile registers the driver profile (onboarding step one).
func SubmitDriverProfile(a *app.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in app.DriverProfileInput
		if !bind(c, &in) {
			return
		}
		if err := a.SubmitDriverProfile(c.Request.Context(), in); err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "Profile saved. Add your vehicle to finish."})
	}
}

// SubmitVehicle registers the vehicle (onboarding step two).
func SubmitVehicle(a *app.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in app.VehicleInput
		if !bind(c, &in) {
			return
		}
		view, err := a.SubmitVehicle(c.Request.Context(), in)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"view": view})
	}
}

// ToggleOnline flips availability for ride offers.
func ToggleOnline(a *app.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		online, err := a.ToggleOnline(c.Request.Context())
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"online": online})
	}
}

// AcceptOffer claims the pending ride offer.
func AcceptOffer(a *app.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, err := a.AcceptOffer(c.Request.Context())
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"view": view})
	}
}

// IgnoreOffer dismisses the pending ride offer.
func IgnoreOffer(a *app.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		a.IgnoreOffer()
		c.JSON(http.StatusOK, gin.H{"message": "Offer dismissed."})
	}
}

// StartTrip marks the accepted ride in progress at pickup.
func StartTrip(a *app.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := a.StartTrip(c.Request.Context()); err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Trip started."})
	}
}

// EndTrip completes the ride at dropoff.
func EndTrip(a *app.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, err := a.EndTrip(c.Request.Context())
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"view": view})
	}
}

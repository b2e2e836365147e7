package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Mikelesnr/tsviyo-frontend/internal/app"
)

// RequestRide submits a new ride and moves to the details view.
func RequestRide(a *app.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in app.RideRequestInput
		if !bind(c, &in) {
			return
		}
		view, err := a.RequestRide(c.Request.Context(), in)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"view": view})
	}
}

// CancelRide cancels the active ride. A reason is mandatory once a driver
// has accepted.
func CancelRide(a *app.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			Reason string `json:"reason"`
		}
		if !bind(c, &body) {
			return
		}
		view, err := a.CancelRide(c.Request.Context(), body.Reason)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"view": view})
	}
}

// AcknowledgeCancelled dismisses a peer-cancelled ride.
func AcknowledgeCancelled(a *app.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, err := a.AcknowledgeCancelled(c.Request.Context())
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"view": view})
	}
}

// ContinueToTracking advances from the acceptance notice to live tracking
// without waiting for the automatic switch.
func ContinueToTracking(a *app.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		a.ContinueToTracking(c.Request.Context())
		state, err := a.State(c.Request.Context())
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"view": state.View})
	}
}

// FareContinue acknowledges the fare and moves on (rating for riders with a
// driver, otherwise back to the start).
func FareContinue(a *app.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, err := a.FareContinue(c.Request.Context())
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"view": view})
	}
}

// SubmitRating records the driver rating for the completed ride.
func SubmitRating(a *app.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var in app.RatingInput
		if !bind(c, &in) {
			return
		}
		view, err := a.SubmitRating(c.Request.Context(), in)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"view": view})
	}
}

// SkipRating dismisses the rating view without rating.
func SkipRating(a *app.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		view, err := a.SkipRating(c.Request.Context())
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"view": view})
	}
}

// PastRides lists the user's ride history.
func PastRides(a *app.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		rides, err := a.PastRides(c.Request.Context())
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": rides})
	}
}

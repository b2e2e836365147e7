package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/Mikelesnr/tsviyo-frontend/internal/app"
)

func idParam(c *gin.Context, name string) (uint, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return uint(id), true
}

// AdminDashboard loads the users and vehicles tables.
func AdminDashboard(a *app.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := a.LoadAdminDashboard(c.Request.Context()); err != nil {
			fail(c, err)
			return
		}
		state, err := a.State(c.Request.Context())
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, state)
	}
}

// AdminDeleteUser removes an account. Requires "confirmed": true.
func AdminDeleteUser(a *app.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, ok := idParam(c, "id")
		if !ok {
			return
		}
		var body struct {
			Confirmed bool `json:"confirmed"`
		}
		if !bind(c, &body) {
			return
		}
		if err := a.DeleteUser(c.Request.Context(), userID, body.Confirmed); err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "User deleted."})
	}
}

// AdminDriverAction applies activate/deactivate/suspend/unsuspend to a
// driver. Requires "confirmed": true.
func AdminDriverAction(a *app.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		driverID, ok := idParam(c, "id")
		if !ok {
			return
		}
		var body struct {
			Action    string `json:"action"`
			Confirmed bool   `json:"confirmed"`
		}
		if !bind(c, &body) {
			return
		}
		if err := a.DriverAction(c.Request.Context(), driverID, body.Action, body.Confirmed); err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "Action applied."})
	}
}

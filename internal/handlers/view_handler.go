package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Mikelesnr/tsviyo-frontend/internal/app"
)

// GetView returns the mounted view and everything it needs to render.
func GetView(a *app.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		state, err := a.State(c.Request.Context())
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusOK, state)
	}
}

// Navigate switches the mounted view. The router may answer with a different
// view than requested (the verification guard).
func Navigate(a *app.App) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			View app.View `json:"view"`
		}
		if !bind(c, &body) {
			return
		}
		if !body.View.Valid() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown view"})
			return
		}
		landed := a.Navigate(body.View)
		c.JSON(http.StatusOK, gin.H{"view": landed})
	}
}

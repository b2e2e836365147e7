package routes

import (
	"github.com/gin-gonic/gin"

	"github.com/Mikelesnr/tsviyo-frontend/internal/app"
	"github.com/Mikelesnr/tsviyo-frontend/internal/handlers"
)

// SetupRoutes wires the view surface. Each route is one view action; the app
// decides which view the action lands on.
func SetupRoutes(api *gin.RouterGroup, a *app.App) {
	// The mounted view and explicit navigation
	api.GET("/view", handlers.GetView(a))
	api.POST("/navigate", handlers.Navigate(a))

	// Authentication actions
	auth := api.Group("/auth")
	{
		auth.POST("/login", handlers.Login(a))
		auth.POST("/signup", handlers.Signup(a))
		auth.POST("/logout", handlers.Logout(a))
		auth.POST("/forgot-password", handlers.ForgotPassword(a))
		auth.POST("/reset-password", handlers.ResetPassword(a))
		auth.POST("/resend-verification", handlers.ResendVerification(a))
	}

	// Rider ride lifecycle
	rides := api.Group("/rides")
	{
		rides.POST("", handlers.RequestRide(a))
		rides.GET("", handlers.PastRides(a))
		rides.POST("/cancel", handlers.CancelRide(a))
		rides.POST("/cancelled/acknowledge", handlers.AcknowledgeCancelled(a))
		rides.POST("/tracking/continue", handlers.ContinueToTracking(a))
		rides.POST("/fare/continue", handlers.FareContinue(a))
		rides.POST("/rating", handlers.SubmitRating(a))
		rides.POST("/rating/skip", handlers.SkipRating(a))
	}

	// Driver onboarding and trip actions
	driver := api.Group("/driver")
	{
		driver.POST("/profile", handlers.SubmitDriverProfile(a))
		driver.POST("/vehicle", handlers.SubmitVehicle(a))
		driver.POST("/toggle-online", handlers.ToggleOnline(a))
		driver.POST("/offer/accept", handlers.AcceptOffer(a))
		driver.POST("/offer/ignore", handlers.IgnoreOffer(a))
		driver.POST("/trip/start", handlers.StartTrip(a))
		driver.POST("/trip/end", handlers.EndTrip(a))
	}

	// Admin dashboard
	admin := api.Group("/admin")
	{
		admin.GET("/dashboard", handlers.AdminDashboard(a))
		admin.DELETE("/users/:id", handlers.AdminDeleteUser(a))
		admin.PATCH("/drivers/:id", handlers.AdminDriverAction(a))
	}
}

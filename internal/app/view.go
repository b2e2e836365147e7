package app

// View identifies the single mounted view. Transitions are explicit calls;
// there is no history stack and no URL routing.
type View string

const (
	ViewHome             View = "home"
	ViewSignup           View = "signup"
	ViewLogin            View = "login"
	ViewVerifyEmail      View = "verify-email"
	ViewForgotPassword   View = "forgot-password"
	ViewDriverOnboarding View = "driver-onboarding"
	ViewRideRequest      View = "ride-request"
	ViewRideDetails      View = "ride-details"
	ViewTracking         View = "tracking"
	ViewFare             View = "fare"
	ViewRating           View = "rating"
	ViewAdmin            View = "admin"
)

var knownViews = map[View]bool{
	ViewHome: true, ViewSignup: true, ViewLogin: true, ViewVerifyEmail: true,
	ViewForgotPassword: true, ViewDriverOnboarding: true, ViewRideRequest: true,
	ViewRideDetails: true, ViewTracking: true, ViewFare: true, ViewRating: true,
	ViewAdmin: true,
}

// Valid reports whether v names a view that exists.
func (v View) Valid() bool { return knownViews[v] }

package server

// Route path constants
const (
	// Kite login flow: login URL, profile, exchange, logout
	RouteKiteAuth = "/api/kite-auth"

	// Legacy credential login
	RouteAuth = "/api/auth"

	// Session-backed components
	RoutePortfolio = "/api/components/portfolio"

	RouteHealth = "/healthz"
)

// Query parameters
const (
	ParamAction  = "action"
	ParamSegment = "segment"
	ParamDetails = "details"

	ActionLoginURL = "login-url"
	ActionProfile  = "profile"
)

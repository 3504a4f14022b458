package server

import "net/http"

func (s *Server) initRoutes() {
	// Kite login flow
	s.RegisterRouteHandler("GET "+RouteKiteAuth, ChainMiddleware(s.KiteAuthGetHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteKiteAuth, ChainMiddleware(s.ExchangeHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("DELETE "+RouteKiteAuth, ChainMiddleware(s.LogoutHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("OPTIONS "+RouteKiteAuth, ChainMiddleware(preflightHandler, s.APIMiddleware()...))

	// Legacy credential login
	s.RegisterRouteHandler("POST "+RouteAuth, ChainMiddleware(s.LegacyLoginHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("OPTIONS "+RouteAuth, ChainMiddleware(preflightHandler, s.APIMiddleware()...))

	// Portfolio, degrading to placeholder data
	s.RegisterRouteHandler("GET "+RoutePortfolio, ChainMiddleware(s.PortfolioHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RoutePortfolio, ChainMiddleware(s.MethodNotAllowedHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("OPTIONS "+RoutePortfolio, ChainMiddleware(preflightHandler, s.APIMiddleware()...))

	s.RegisterRouteHandler("GET "+RouteHealth, ChainMiddleware(s.HealthHandler(), s.RecoverMiddleware))
}

// preflightHandler answers CORS preflight requests; CorsMiddleware sets the headers
func preflightHandler(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
}

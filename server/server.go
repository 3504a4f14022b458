package server

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/go-kite-session/auth"
	"github.com/jrsteele09/go-kite-session/internal/config"
	"github.com/jrsteele09/go-kite-session/portfolio"
	"github.com/jrsteele09/go-kite-session/sessions"
	"github.com/rs/zerolog/log"
)

// KiteClient is everything the server needs from the upstream brokerage
type KiteClient interface {
	auth.KiteClient
	portfolio.HoldingsSource
}

// Repos holds the dependencies the server is built from
type Repos struct {
	Sessions sessions.Repo
	Kite     KiteClient
}

type Server struct {
	mux       *http.ServeMux
	routes    []string
	config    config.Config
	auth      *auth.AuthorizationService
	portfolio *portfolio.Service
	nowTime   func() time.Time
}

type Option func(*Server)

// WithNowTime sets the clock shared by the services (primarily for testing)
func WithNowTime(nowFunc func() time.Time) Option {
	return func(s *Server) {
		s.nowTime = nowFunc
	}
}

func New(config config.Config, repos Repos, options ...Option) (*Server, error) {
	s := &Server{
		mux:     http.NewServeMux(),
		config:  config,
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(s)
	}

	authService, err := auth.NewAuthorizationService(auth.Repos{Sessions: repos.Sessions, Kite: repos.Kite}, config, auth.WithNowTime(s.nowTime))
	if err != nil {
		return nil, fmt.Errorf("[Server New] failed to create authorization service: %w", err)
	}
	s.auth = authService
	s.portfolio = portfolio.NewService(authService, repos.Kite,
		portfolio.WithNowFunc(s.nowTime),
		portfolio.WithErrorDetail(config.IsDev()),
	)

	if !config.HasKiteCredentials() || config.GetSessionSecret() == "" {
		log.Warn().Msg("Kite credentials or session secret missing: login requests will fail until configured")
	}

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) isDev() bool {
	return s.config.IsDev()
}

func (s *Server) logRoutes() {
	if !s.isDev() {
		return // Skip logging in non-development environments
	}
	log.Debug().Stringer("origins", s.config.GetAllowedOrigins()).Msg("CORS")
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)

		if len(parts) > 1 {
			logRoute(parts[0], parts[1])
		} else {
			logRoute("", parts[0])
		}
	}
}

func logRoute(method, path string) {
	log.Debug().Msgf("[%s] %s", colouredMethod(method), path)
}

func colouredMethod(method string) string {
	paddedMethod := fmt.Sprintf(" %-7s", method)
	if color, ok := methodColors[method]; ok {
		return color + paddedMethod + ResetColor
	}
	return Gray + paddedMethod + ResetColor
}

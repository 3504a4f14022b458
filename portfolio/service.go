package portfolio

import (
	"context"
	"time"

	"github.com/jrsteele09/go-kite-session/kite"
	"github.com/jrsteele09/go-kite-session/sessions"
	"github.com/rs/zerolog/log"
)

// Source labels where a response's figures came from
type Source string

const (
	SourceLive     Source = "live"
	SourceFallback Source = "fallback"
)

const (
	messageLive           = "Portfolio data retrieved successfully"
	messageAuthFallback   = "Using placeholder data due to authentication failure"
	messageUpstreamFailed = "Using placeholder data due to upstream failure"
)

// Query selects which holdings are summarized
type Query struct {
	Segment Segment
	Details bool
}

// Response is the envelope returned for every holdings request
type Response struct {
	Success bool    `json:"success"`
	Data    Metrics `json:"data"`
	Source  Source  `json:"source"`
	Message string  `json:"message"`
	Error   string  `json:"error,omitempty"`
}

// SessionGuard resolves an Authorization header to a live session
type SessionGuard interface {
	RequireSession(ctx context.Context, authorizationHeader string) (*sessions.Session, error)
}

// HoldingsSource fetches holdings with an upstream access token
type HoldingsSource interface {
	Holdings(ctx context.Context, accessToken string) ([]kite.Holding, error)
}

// Service serves portfolio summaries, degrading to placeholder data on any failure
type Service struct {
	guard        SessionGuard
	source       HoldingsSource
	nowFunc      func() time.Time
	exposeErrors bool
}

type ServiceOption func(*Service)

func WithNowFunc(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowFunc = now
	}
}

// WithErrorDetail includes upstream failure text in fallback responses. Development only.
func WithErrorDetail(expose bool) ServiceOption {
	return func(s *Service) {
		s.exposeErrors = expose
	}
}

func NewService(guard SessionGuard, source HoldingsSource, options ...ServiceOption) *Service {
	s := &Service{
		guard:   guard,
		source:  source,
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s
}

// Holdings summarizes the caller's holdings. It never fails: when the session cannot be
// resolved or the upstream call fails, placeholder data labelled as fallback is returned.
func (s *Service) Holdings(ctx context.Context, authorizationHeader string, q Query) Response {
	session, err := s.guard.RequireSession(ctx, authorizationHeader)
	if err != nil {
		log.Warn().Err(err).Msg("Portfolio: no usable session, serving placeholder data")
		return fallback(q, messageAuthFallback, "")
	}

	holdings, err := s.source.Holdings(ctx, session.AccessToken)
	if err != nil {
		log.Err(err).Str("subject", session.Subject).Msg("Portfolio: holdings fetch failed, serving placeholder data")
		detail := ""
		if s.exposeErrors {
			detail = err.Error()
		}
		return fallback(q, messageUpstreamFailed, detail)
	}

	return Response{
		Success: true,
		Data:    Derive(holdings, q.Segment, q.Details, Estimates{}, s.nowFunc()),
		Source:  SourceLive,
		Message: messageLive,
	}
}

func fallback(q Query, message, detail string) Response {
	return Response{
		Success: true,
		Data:    Placeholder(q),
		Source:  SourceFallback,
		Message: message,
		Error:   detail,
	}
}

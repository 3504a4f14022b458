package auth

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jrsteele09/go-kite-session/checksum"
	"github.com/jrsteele09/go-kite-session/internal/config"
	apperrors "github.com/jrsteele09/go-kite-session/internal/errors"
	"github.com/jrsteele09/go-kite-session/kite"
	"github.com/jrsteele09/go-kite-session/sessions"
	"github.com/jrsteele09/go-kite-session/token"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// KiteClient is the part of the upstream brokerage API the login flow depends on
type KiteClient interface {
	LoginURL() string
	ExchangeToken(ctx context.Context, requestToken, checksum string) (*kite.UserSession, error)
	LegacyLogin(ctx context.Context, userID, password, twoFA string) (string, error)
	Profile(ctx context.Context, accessToken string) (*kite.Profile, error)
}

// Config is the configuration the AuthorizationService reads on every request
type Config interface {
	config.KiteConfig
	config.SessionConfig
}

// Repos holds the dependencies that own state or talk to the network
type Repos struct {
	Sessions sessions.Repo // the only owner of session state
	Kite     KiteClient    // upstream brokerage
}

// AuthorizationService runs the request-token exchange and guards session-backed operations.
type AuthorizationService struct {
	repos        Repos
	config       Config
	tokenManager *token.Manager
	nowTime      func() time.Time
}

// AuthorizationServiceOption defines a function type to modify the AuthorizationService instance.
type AuthorizationServiceOption func(*AuthorizationService)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) AuthorizationServiceOption {
	return func(as *AuthorizationService) {
		as.nowTime = nowFunc
	}
}

// WithTokenManager replaces the session token manager built from the configured secret
func WithTokenManager(manager *token.Manager) AuthorizationServiceOption {
	return func(as *AuthorizationService) {
		as.tokenManager = manager
	}
}

// NewAuthorizationService initializes a new AuthorizationService. Missing credentials are not
// an error here; they are reported by each operation that needs them.
func NewAuthorizationService(repos Repos, cfg Config, options ...AuthorizationServiceOption) (*AuthorizationService, error) {
	if repos.Sessions == nil {
		return nil, errors.New("[NewAuthorizationService] Sessions repo is required")
	}
	if repos.Kite == nil {
		return nil, errors.New("[NewAuthorizationService] Kite client is required")
	}
	if cfg == nil {
		return nil, errors.New("[NewAuthorizationService] config is required")
	}

	as := &AuthorizationService{
		repos:   repos,
		config:  cfg,
		nowTime: time.Now,
	}

	for _, opt := range options {
		opt(as)
	}

	if as.tokenManager == nil {
		as.tokenManager = token.New(token.NewHMACSigner(cfg.GetSessionSecret()), token.WithNowFunc(as.nowTime))
	}

	return as, nil
}

// LoginURL returns the upstream login page the user should be sent to
func (as *AuthorizationService) LoginURL() (string, error) {
	if as.config.GetKiteAPIKey() == "" {
		return "", apperrors.Public(apperrors.ErrConfiguration, "Kite API key not configured")
	}
	return as.repos.Kite.LoginURL(), nil
}

// Exchange trades an upstream request token for a session and returns the bearer token
// that names it. The upstream access token stays server-side.
func (as *AuthorizationService) Exchange(ctx context.Context, requestToken string) (*LoginResult, error) {
	f := newFlow()
	result, err := as.exchange(ctx, f, requestToken)
	if err != nil {
		as.logFailure("Exchange", f)
		return nil, err
	}
	return result, nil
}

func (as *AuthorizationService) exchange(ctx context.Context, f *flow, requestToken string) (*LoginResult, error) {
	if err := ValidateRequestToken(requestToken); err != nil {
		return nil, f.fail(err)
	}
	if err := as.requireCredentials(); err != nil {
		return nil, f.fail(err)
	}

	apiKey, apiSecret := as.config.GetKiteAPIKey(), as.config.GetKiteAPISecret()
	f.advance(ExchangingForAccessToken)
	userSession, err := as.repos.Kite.ExchangeToken(ctx, requestToken, checksum.Exchange(apiKey, requestToken, apiSecret))
	if err != nil {
		return nil, f.fail(errors.Wrap(err, "[Exchange]"))
	}

	return as.establishSession(ctx, f, userSession)
}

// LegacyLogin posts user credentials upstream for a request token and exchanges it using the
// keyed login checksum. The result has the same shape as Exchange.
func (as *AuthorizationService) LegacyLogin(ctx context.Context, credentials LegacyCredentials) (*LoginResult, error) {
	f := newFlow()
	result, err := as.legacyLogin(ctx, f, credentials)
	if err != nil {
		as.logFailure("LegacyLogin", f)
		return nil, err
	}
	return result, nil
}

func (as *AuthorizationService) legacyLogin(ctx context.Context, f *flow, credentials LegacyCredentials) (*LoginResult, error) {
	if err := credentials.Validate(); err != nil {
		return nil, f.fail(err)
	}
	if err := as.requireCredentials(); err != nil {
		return nil, f.fail(err)
	}

	requestToken, err := as.repos.Kite.LegacyLogin(ctx, credentials.UserID, credentials.Password, credentials.TwoFA)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrUpstreamAuth) {
			err = fmt.Errorf("%w: %w", ErrInvalidCredentials, &apperrors.UpstreamError{
				Kind:    apperrors.ErrUpstreamAuth,
				Status:  http.StatusUnauthorized,
				Message: "Invalid Kite credentials",
			})
		}
		return nil, f.fail(errors.Wrap(err, "[LegacyLogin]"))
	}

	apiKey, apiSecret := as.config.GetKiteAPIKey(), as.config.GetKiteAPISecret()
	f.advance(ExchangingForAccessToken)
	userSession, err := as.repos.Kite.ExchangeToken(ctx, requestToken, checksum.Login(apiKey+requestToken+apiSecret, apiSecret))
	if err != nil {
		return nil, f.fail(errors.Wrap(err, "[LegacyLogin]"))
	}

	return as.establishSession(ctx, f, userSession)
}

// establishSession mints the bearer token first so that a mint failure leaves the store untouched
func (as *AuthorizationService) establishSession(ctx context.Context, f *flow, userSession *kite.UserSession) (*LoginResult, error) {
	switch {
	case userSession.AccessToken == "":
		return nil, f.fail(&apperrors.UpstreamError{
			Kind:    apperrors.ErrUpstreamAuth,
			Status:  http.StatusOK,
			Message: "Failed to generate access token",
		})
	case userSession.UserID == "":
		return nil, f.fail(&apperrors.UpstreamError{
			Kind:    apperrors.ErrUpstreamAuth,
			Status:  http.StatusOK,
			Message: "Kite session response is missing the user id",
		})
	}

	sessionToken, err := as.tokenManager.Mint(userSession.UserID)
	if err != nil {
		return nil, f.fail(errors.Wrap(err, "[establishSession] mint"))
	}

	now := as.nowTime()
	session := sessions.Session{
		Subject:     userSession.UserID,
		DisplayName: userSession.UserName,
		Email:       userSession.Email,
		ShortName:   userSession.UserShortName,
		UserType:    userSession.UserType,
		Broker:      userSession.Broker,
		AvatarURL:   userSession.AvatarURL,
		AccessToken: userSession.AccessToken,
		CreatedAt:   now,
		ExpiresAt:   now.Add(as.config.GetSessionTTL()),
	}
	if err := as.repos.Sessions.Upsert(ctx, session); err != nil {
		return nil, f.fail(errors.Wrap(err, "[establishSession] store"))
	}

	f.advance(SessionEstablished)
	log.Info().Str("subject", session.Subject).Time("expires_at", session.ExpiresAt).Msg("Session established")

	return &LoginResult{
		SessionToken: sessionToken,
		User:         userInfoFromSession(session),
		ExpiresAt:    session.ExpiresAt,
	}, nil
}

// RequireSession resolves an Authorization header to a live session. Every refusal wraps
// ErrUnauthenticated; only a missing signing secret is reported as ErrConfiguration.
func (as *AuthorizationService) RequireSession(ctx context.Context, authorizationHeader string) (*sessions.Session, error) {
	raw, err := BearerToken(authorizationHeader)
	if err != nil {
		return nil, unauthenticated(err)
	}

	claims, err := as.tokenManager.Verify(raw)
	if err != nil {
		if apperrors.Is(err, apperrors.ErrConfiguration) {
			return nil, errors.Wrap(err, "[RequireSession]")
		}
		return nil, unauthenticated(ErrTokenRejected)
	}

	session, err := as.repos.Sessions.Get(ctx, claims.Subject)
	if err != nil {
		if apperrors.Is(err, sessions.ErrSessionNotFound) {
			return nil, unauthenticated(ErrNoSession)
		}
		return nil, errors.Wrap(err, "[RequireSession] lookup")
	}

	// Lapsed between the store's read and now. Removal stays with the store, which
	// only deletes the exact entry it saw expire.
	if session.Expired(as.nowTime()) {
		return nil, unauthenticated(ErrSessionLapsed)
	}

	return session, nil
}

// Profile returns the live upstream profile for the session named by the header
func (as *AuthorizationService) Profile(ctx context.Context, authorizationHeader string) (*ProfileResult, error) {
	session, err := as.RequireSession(ctx, authorizationHeader)
	if err != nil {
		return nil, err
	}

	profile, err := as.repos.Kite.Profile(ctx, session.AccessToken)
	if err != nil {
		// no fallback here: any upstream failure is reported as unavailable
		if !apperrors.Is(err, apperrors.ErrUpstreamUnavailable) {
			err = errors.Wrap(apperrors.ErrUpstreamUnavailable, err.Error())
		}
		return nil, errors.Wrap(err, "[Profile]")
	}

	return &ProfileResult{
		User: ProfileUser{
			Subject:     profile.UserID,
			DisplayName: profile.UserName,
			Email:       profile.Email,
			ShortName:   profile.UserShortName,
			UserType:    profile.UserType,
			Broker:      profile.Broker,
			AvatarURL:   profile.AvatarURL,
			Exchanges:   profile.Exchanges,
			Products:    profile.Products,
			OrderTypes:  profile.OrderTypes,
		},
		Session: SessionInfo{
			Subject:   session.Subject,
			ExpiresAt: session.ExpiresAt,
		},
	}, nil
}

// Logout deletes the session named by a valid bearer token. It never fails and never
// reveals whether a session existed.
func (as *AuthorizationService) Logout(ctx context.Context, authorizationHeader string) {
	raw, err := BearerToken(authorizationHeader)
	if err != nil {
		return
	}
	claims, err := as.tokenManager.Verify(raw)
	if err != nil {
		return
	}
	if err := as.repos.Sessions.Delete(ctx, claims.Subject); err != nil {
		log.Err(err).Str("subject", claims.Subject).Msg("Logout: failed to delete session")
		return
	}
	log.Info().Str("subject", claims.Subject).Msg("Session logged out")
}

func (as *AuthorizationService) requireCredentials() error {
	if !as.config.HasKiteCredentials() {
		return apperrors.Public(apperrors.ErrConfiguration, "Kite API credentials not configured")
	}
	if as.config.GetSessionSecret() == "" {
		return apperrors.Public(apperrors.ErrConfiguration, "Session signing secret not configured")
	}
	return nil
}

func (as *AuthorizationService) logFailure(operation string, f *flow) {
	event := log.Warn()
	if apperrors.Is(f.reason, apperrors.ErrConfiguration) {
		event = log.Error()
	}
	event.Err(f.reason).
		Str("operation", operation).
		Stringer("state", f.state).
		Stringer("reached", f.reached).
		Msg("Login flow failed")
}

func unauthenticated(reason error) error {
	return fmt.Errorf("%w: %w", apperrors.ErrUnauthenticated, reason)
}

package auth_test

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/jrsteele09/go-kite-session/auth"
	"github.com/jrsteele09/go-kite-session/checksum"
	"github.com/jrsteele09/go-kite-session/internal/config"
	apperrors "github.com/jrsteele09/go-kite-session/internal/errors"
	"github.com/jrsteele09/go-kite-session/kite"
	"github.com/jrsteele09/go-kite-session/kite/kitefakes"
	"github.com/jrsteele09/go-kite-session/sessions"
	"github.com/jrsteele09/go-kite-session/sessions/repofakes"
	"github.com/stretchr/testify/require"
)

const (
	testAPIKey        = "api-key"
	testAPISecret     = "api-secret"
	testSessionSecret = "session-secret"
	testSubject       = "U1"
	testRequestToken  = "request-token-1"
)

type testConfig struct {
	config.Kite
	config.Session
}

func newTestConfig() testConfig {
	return testConfig{
		Kite:    config.Kite{APIKey: testAPIKey, APISecret: testAPISecret},
		Session: config.Session{Secret: testSessionSecret, TTL: 24 * time.Hour},
	}
}

// testClock is a settable clock shared by the service and the store
type testClock struct {
	now time.Time
}

func (c *testClock) Now() time.Time {
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

type testFixture struct {
	clock   *testClock
	kite    *kitefakes.FakeClient
	repo    sessions.Repo
	service *auth.AuthorizationService
}

func newFixture(t *testing.T, cfg testConfig, repo sessions.Repo) *testFixture {
	t.Helper()

	clock := &testClock{now: time.UnixMilli(1_700_000_000_000)}
	if repo == nil {
		repo = sessions.NewInMemoryRepo(sessions.WithNowFunc(clock.Now))
	}

	kiteClient := kitefakes.NewFakeClient()
	kiteClient.ExchangeSessions[testRequestToken] = &kite.UserSession{
		AccessToken: "access-1",
		UserID:      testSubject,
		UserName:    "Test User",
		Email:       "u1@example.com",
		UserType:    "individual",
		Broker:      "ZERODHA",
		AvatarURL:   "https://example.com/u1.png",
	}

	service, err := auth.NewAuthorizationService(auth.Repos{Sessions: repo, Kite: kiteClient}, cfg, auth.WithNowTime(clock.Now))
	require.NoError(t, err)

	return &testFixture{clock: clock, kite: kiteClient, repo: repo, service: service}
}

// reloginOnGetRepo writes a fresh session for the same subject right after
// handing out the stale one, as a concurrent login would.
type reloginOnGetRepo struct {
	*repofakes.FakeSessionRepo
	fresh *sessions.Session
}

func (r *reloginOnGetRepo) Get(ctx context.Context, subject string) (*sessions.Session, error) {
	session, err := r.FakeSessionRepo.Get(ctx, subject)
	if err != nil || r.fresh == nil {
		return session, err
	}
	fresh := *r.fresh
	r.fresh = nil
	if err := r.FakeSessionRepo.Upsert(ctx, fresh); err != nil {
		return nil, err
	}
	return session, nil
}

func bearer(token string) string {
	return "Bearer " + token
}

func TestNewAuthorizationService_RequiresDependencies(t *testing.T) {
	_, err := auth.NewAuthorizationService(auth.Repos{Kite: kitefakes.NewFakeClient()}, newTestConfig())
	require.Error(t, err)

	_, err = auth.NewAuthorizationService(auth.Repos{Sessions: sessions.NewInMemoryRepo()}, newTestConfig())
	require.Error(t, err)

	_, err = auth.NewAuthorizationService(auth.Repos{Sessions: sessions.NewInMemoryRepo(), Kite: kitefakes.NewFakeClient()}, nil)
	require.Error(t, err)
}

func TestLoginURL(t *testing.T) {
	t.Run("configured", func(t *testing.T) {
		f := newFixture(t, newTestConfig(), nil)
		url, err := f.service.LoginURL()
		require.NoError(t, err)
		require.Equal(t, f.kite.LoginPage, url)
	})

	t.Run("missing api key", func(t *testing.T) {
		cfg := newTestConfig()
		cfg.Kite.APIKey = ""
		f := newFixture(t, cfg, nil)
		_, err := f.service.LoginURL()
		require.True(t, apperrors.Is(err, apperrors.ErrConfiguration))
	})
}

func TestExchange_EstablishesSession(t *testing.T) {
	f := newFixture(t, newTestConfig(), nil)
	ctx := context.Background()

	result, err := f.service.Exchange(ctx, testRequestToken)
	require.NoError(t, err)
	require.NotEmpty(t, result.SessionToken)
	require.Equal(t, testSubject, result.User.Subject)
	require.Equal(t, "Test User", result.User.DisplayName)
	require.Equal(t, "ZERODHA", result.User.Broker)
	require.Equal(t, f.clock.Now().Add(24*time.Hour), result.ExpiresAt)

	require.Equal(t, []string{checksum.Exchange(testAPIKey, testRequestToken, testAPISecret)}, f.kite.Checksums)

	stored, err := f.repo.Get(ctx, testSubject)
	require.NoError(t, err)
	require.Equal(t, "access-1", stored.AccessToken)
	require.Equal(t, result.ExpiresAt, stored.ExpiresAt)

	session, err := f.service.RequireSession(ctx, bearer(result.SessionToken))
	require.NoError(t, err)
	require.Equal(t, testSubject, session.Subject)
}

func TestExchange_Failures(t *testing.T) {
	ctx := context.Background()

	t.Run("missing request token", func(t *testing.T) {
		repo := repofakes.NewFakeSessionRepo()
		f := newFixture(t, newTestConfig(), repo)
		_, err := f.service.Exchange(ctx, "  ")
		require.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
		require.Empty(t, f.kite.Checksums)
		require.Equal(t, 0, repo.Len())
	})

	t.Run("missing configuration", func(t *testing.T) {
		for name, mutate := range map[string]func(*testConfig){
			"api key":        func(c *testConfig) { c.Kite.APIKey = "" },
			"api secret":     func(c *testConfig) { c.Kite.APISecret = "" },
			"session secret": func(c *testConfig) { c.Session.Secret = "" },
		} {
			t.Run(name, func(t *testing.T) {
				cfg := newTestConfig()
				mutate(&cfg)
				f := newFixture(t, cfg, nil)
				_, err := f.service.Exchange(ctx, testRequestToken)
				require.True(t, apperrors.Is(err, apperrors.ErrConfiguration))
				require.Empty(t, f.kite.Checksums)
			})
		}
	})

	t.Run("upstream rejection forwards message", func(t *testing.T) {
		f := newFixture(t, newTestConfig(), nil)
		f.kite.ExchangeErr = &apperrors.UpstreamError{Kind: apperrors.ErrUpstreamAuth, Status: http.StatusForbidden, Message: "Invalid checksum"}
		_, err := f.service.Exchange(ctx, testRequestToken)
		require.True(t, apperrors.Is(err, apperrors.ErrUpstreamAuth))
		require.ErrorIs(t, err, auth.ErrInvalidCredentials)
		msg, ok := apperrors.UpstreamMessage(err)
		require.True(t, ok)
		require.Equal(t, "Invalid checksum", msg)
	})

	t.Run("success without access token leaves store unmodified", func(t *testing.T) {
		repo := repofakes.NewFakeSessionRepo()
		existing := sessions.Session{Subject: testSubject, AccessToken: "old-access"}
		require.NoError(t, repo.Upsert(ctx, existing))

		f := newFixture(t, newTestConfig(), repo)
		f.kite.ExchangeSessions[testRequestToken] = &kite.UserSession{UserID: testSubject}

		_, err := f.service.Exchange(ctx, testRequestToken)
		require.True(t, apperrors.Is(err, apperrors.ErrUpstreamAuth))

		stored, err := repo.Get(ctx, testSubject)
		require.NoError(t, err)
		require.Equal(t, existing, *stored)
		require.Equal(t, 1, repo.Len())
	})

	t.Run("success without user id", func(t *testing.T) {
		repo := repofakes.NewFakeSessionRepo()
		f := newFixture(t, newTestConfig(), repo)
		f.kite.ExchangeSessions[testRequestToken] = &kite.UserSession{AccessToken: "access"}
		_, err := f.service.Exchange(ctx, testRequestToken)
		require.True(t, apperrors.Is(err, apperrors.ErrUpstreamAuth))
		require.Equal(t, 0, repo.Len())
	})

	t.Run("upstream unavailable", func(t *testing.T) {
		f := newFixture(t, newTestConfig(), nil)
		f.kite.ExchangeErr = apperrors.Wrapf(apperrors.ErrUpstreamUnavailable, "timeout")
		_, err := f.service.Exchange(ctx, testRequestToken)
		require.True(t, apperrors.Is(err, apperrors.ErrUpstreamUnavailable))
	})

	t.Run("unmintable subject leaves store untouched", func(t *testing.T) {
		repo := repofakes.NewFakeSessionRepo()
		f := newFixture(t, newTestConfig(), repo)
		f.kite.ExchangeSessions[testRequestToken] = &kite.UserSession{AccessToken: "access", UserID: "a:b"}
		_, err := f.service.Exchange(ctx, testRequestToken)
		require.Error(t, err)
		require.Equal(t, 0, repo.Len())
	})

	t.Run("store failure", func(t *testing.T) {
		repo := repofakes.NewFakeSessionRepo()
		repo.Err = repofakes.ErrFake
		f := newFixture(t, newTestConfig(), repo)
		_, err := f.service.Exchange(ctx, testRequestToken)
		require.ErrorIs(t, err, repofakes.ErrFake)
	})
}

func TestExchange_AtMostOneSessionPerSubject(t *testing.T) {
	repo := repofakes.NewFakeSessionRepo()
	f := newFixture(t, newTestConfig(), repo)
	ctx := context.Background()

	first, err := f.service.Exchange(ctx, testRequestToken)
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	f.kite.ExchangeSessions["request-token-2"] = &kite.UserSession{AccessToken: "access-2", UserID: testSubject, UserName: "Renamed User"}
	second, err := f.service.Exchange(ctx, "request-token-2")
	require.NoError(t, err)
	require.NotEqual(t, first.SessionToken, second.SessionToken)

	require.Equal(t, 1, repo.Len())

	// the earlier token names the same subject and so resolves to the newer session
	session, err := f.service.RequireSession(ctx, bearer(first.SessionToken))
	require.NoError(t, err)
	require.Equal(t, "access-2", session.AccessToken)
	require.Equal(t, "Renamed User", session.DisplayName)
	require.Equal(t, second.ExpiresAt, session.ExpiresAt)
}

func TestRequireSession_ExpiryEnforced(t *testing.T) {
	ctx := context.Background()

	t.Run("session physically present past expiry", func(t *testing.T) {
		repo := repofakes.NewFakeSessionRepo()
		f := newFixture(t, newTestConfig(), repo)

		result, err := f.service.Exchange(ctx, testRequestToken)
		require.NoError(t, err)

		f.clock.Advance(24 * time.Hour)
		_, err = f.service.RequireSession(ctx, bearer(result.SessionToken))
		require.NoError(t, err, "still valid at exactly expires_at")

		f.clock.Advance(time.Millisecond)
		require.True(t, repo.Has(testSubject))
		_, err = f.service.RequireSession(ctx, bearer(result.SessionToken))
		require.True(t, apperrors.Is(err, apperrors.ErrUnauthenticated))
		require.ErrorIs(t, err, auth.ErrSessionLapsed)
		require.ErrorIs(t, err, apperrors.ErrSessionExpired)
		require.Empty(t, repo.Deletes, "removal of expired entries belongs to the store")
	})

	t.Run("re-login between read and expiry check survives", func(t *testing.T) {
		repo := &reloginOnGetRepo{FakeSessionRepo: repofakes.NewFakeSessionRepo()}
		f := newFixture(t, newTestConfig(), repo)

		result, err := f.service.Exchange(ctx, testRequestToken)
		require.NoError(t, err)

		f.clock.Advance(24*time.Hour + time.Millisecond)
		repo.fresh = &sessions.Session{
			Subject:     testSubject,
			AccessToken: "access-new",
			ExpiresAt:   f.clock.Now().Add(24 * time.Hour),
		}

		_, err = f.service.RequireSession(ctx, bearer(result.SessionToken))
		require.ErrorIs(t, err, auth.ErrSessionLapsed)
		require.Empty(t, repo.Deletes)

		current, err := repo.Get(ctx, testSubject)
		require.NoError(t, err)
		require.Equal(t, "access-new", current.AccessToken)
	})

	t.Run("in-memory store hides expired session", func(t *testing.T) {
		f := newFixture(t, newTestConfig(), nil)

		result, err := f.service.Exchange(ctx, testRequestToken)
		require.NoError(t, err)

		f.clock.Advance(24*time.Hour + time.Millisecond)
		_, err = f.service.RequireSession(ctx, bearer(result.SessionToken))
		require.True(t, apperrors.Is(err, apperrors.ErrUnauthenticated))
		require.ErrorIs(t, err, auth.ErrNoSession)
	})
}

func TestRequireSession_Rejections(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, newTestConfig(), nil)

	result, err := f.service.Exchange(ctx, testRequestToken)
	require.NoError(t, err)

	f.kite.ExchangeSessions["other"] = &kite.UserSession{AccessToken: "x", UserID: "U2"}
	otherResult, err := f.service.Exchange(ctx, "other")
	require.NoError(t, err)
	f.service.Logout(ctx, bearer(otherResult.SessionToken))

	tests := []struct {
		name   string
		header string
		reason error
	}{
		{name: "missing header", header: "", reason: auth.ErrMissingAuthorization},
		{name: "wrong scheme", header: "Basic " + result.SessionToken, reason: auth.ErrMalformedAuthorization},
		{name: "no token", header: "Bearer", reason: auth.ErrMalformedAuthorization},
		{name: "extra fields", header: "Bearer a b", reason: auth.ErrMalformedAuthorization},
		{name: "garbage token", header: "Bearer not-a-token", reason: auth.ErrTokenRejected},
		{name: "tampered token", header: bearer(result.SessionToken + "0"), reason: auth.ErrTokenRejected},
		{name: "session logged out", header: bearer(otherResult.SessionToken), reason: auth.ErrNoSession},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.RequireSession(ctx, tt.header)
			require.True(t, apperrors.Is(err, apperrors.ErrUnauthenticated))
			require.ErrorIs(t, err, tt.reason)
		})
	}

	t.Run("scheme is case-insensitive", func(t *testing.T) {
		session, err := f.service.RequireSession(ctx, "bEaReR "+result.SessionToken)
		require.NoError(t, err)
		require.Equal(t, testSubject, session.Subject)
	})
}

func TestRequireSession_MissingSigningSecret(t *testing.T) {
	cfg := newTestConfig()
	cfg.Session.Secret = ""
	f := newFixture(t, cfg, nil)

	_, err := f.service.RequireSession(context.Background(), "Bearer YQ==.00")
	require.True(t, apperrors.Is(err, apperrors.ErrConfiguration))
}

func TestProfile(t *testing.T) {
	ctx := context.Background()

	t.Run("live profile with session info", func(t *testing.T) {
		f := newFixture(t, newTestConfig(), nil)
		f.kite.Profiles["access-1"] = &kite.Profile{UserID: testSubject, UserName: "Test User", Email: "u1@example.com", Exchanges: []string{"NSE"}}

		result, err := f.service.Exchange(ctx, testRequestToken)
		require.NoError(t, err)

		profile, err := f.service.Profile(ctx, bearer(result.SessionToken))
		require.NoError(t, err)
		require.Equal(t, testSubject, profile.User.Subject)
		require.Equal(t, []string{"NSE"}, profile.User.Exchanges)
		require.Equal(t, testSubject, profile.Session.Subject)
		require.Equal(t, result.ExpiresAt, profile.Session.ExpiresAt)
	})

	t.Run("unauthenticated", func(t *testing.T) {
		f := newFixture(t, newTestConfig(), nil)
		_, err := f.service.Profile(ctx, "")
		require.True(t, apperrors.Is(err, apperrors.ErrUnauthenticated))
	})

	t.Run("upstream failure", func(t *testing.T) {
		f := newFixture(t, newTestConfig(), nil)
		result, err := f.service.Exchange(ctx, testRequestToken)
		require.NoError(t, err)

		f.kite.ProfileErr = &apperrors.UpstreamError{Kind: apperrors.ErrUpstreamAuth, Status: http.StatusForbidden, Message: "Incorrect api_key or access_token."}
		_, err = f.service.Profile(ctx, bearer(result.SessionToken))
		require.True(t, apperrors.Is(err, apperrors.ErrUpstreamUnavailable))
	})
}

func TestLogout_Idempotent(t *testing.T) {
	ctx := context.Background()
	repo := repofakes.NewFakeSessionRepo()
	f := newFixture(t, newTestConfig(), repo)

	result, err := f.service.Exchange(ctx, testRequestToken)
	require.NoError(t, err)

	f.service.Logout(ctx, bearer(result.SessionToken))
	require.False(t, repo.Has(testSubject))

	f.service.Logout(ctx, bearer(result.SessionToken))
	f.service.Logout(ctx, "")
	f.service.Logout(ctx, "Bearer forged.token")
	require.Equal(t, []string{testSubject, testSubject}, repo.Deletes)

	_, err = f.service.RequireSession(ctx, bearer(result.SessionToken))
	require.True(t, apperrors.Is(err, apperrors.ErrUnauthenticated))

	repo.Err = repofakes.ErrFake
	f.service.Logout(ctx, bearer(result.SessionToken))
}

func TestLegacyLogin(t *testing.T) {
	ctx := context.Background()

	t.Run("exchanges with the keyed login checksum", func(t *testing.T) {
		f := newFixture(t, newTestConfig(), nil)
		f.kite.LegacyRequestToken = testRequestToken

		result, err := f.service.LegacyLogin(ctx, auth.LegacyCredentials{UserID: testSubject, Password: "pw"})
		require.NoError(t, err)
		require.Equal(t, testSubject, result.User.Subject)
		require.NotEmpty(t, result.SessionToken)

		expected := checksum.Login(testAPIKey+testRequestToken+testAPISecret, testAPISecret)
		require.Equal(t, []string{expected}, f.kite.Checksums)

		_, err = f.service.RequireSession(ctx, bearer(result.SessionToken))
		require.NoError(t, err)
	})

	t.Run("missing credentials", func(t *testing.T) {
		f := newFixture(t, newTestConfig(), nil)
		_, err := f.service.LegacyLogin(ctx, auth.LegacyCredentials{UserID: testSubject})
		require.True(t, apperrors.Is(err, apperrors.ErrBadRequest))

		_, err = f.service.LegacyLogin(ctx, auth.LegacyCredentials{Password: "pw"})
		require.True(t, apperrors.Is(err, apperrors.ErrBadRequest))
	})

	t.Run("rejected credentials", func(t *testing.T) {
		f := newFixture(t, newTestConfig(), nil)
		f.kite.LegacyErr = &apperrors.UpstreamError{Kind: apperrors.ErrUpstreamAuth, Status: http.StatusUnauthorized}

		_, err := f.service.LegacyLogin(ctx, auth.LegacyCredentials{UserID: testSubject, Password: "wrong"})
		require.True(t, apperrors.Is(err, apperrors.ErrUpstreamAuth))
		msg, ok := apperrors.UpstreamMessage(err)
		require.True(t, ok)
		require.Equal(t, "Invalid Kite credentials", msg)
		require.Empty(t, f.kite.Checksums)
	})
}

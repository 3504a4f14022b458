package portfolio_test

import (
	"context"
	"testing"
	"time"

	"github.com/jrsteele09/go-kite-session/auth"
	"github.com/jrsteele09/go-kite-session/internal/config"
	apperrors "github.com/jrsteele09/go-kite-session/internal/errors"
	"github.com/jrsteele09/go-kite-session/kite"
	"github.com/jrsteele09/go-kite-session/kite/kitefakes"
	"github.com/jrsteele09/go-kite-session/portfolio"
	"github.com/jrsteele09/go-kite-session/sessions"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	config.Kite
	config.Session
}

type fixture struct {
	kite    *kitefakes.FakeClient
	auth    *auth.AuthorizationService
	service *portfolio.Service
	header  string
}

var now = time.Date(2025, time.March, 3, 10, 0, 0, 0, time.UTC)

func newFixture(t *testing.T, options ...portfolio.ServiceOption) *fixture {
	t.Helper()

	clock := func() time.Time { return now }
	kiteClient := kitefakes.NewFakeClient()
	kiteClient.ExchangeSessions["rt"] = &kite.UserSession{AccessToken: "access-1", UserID: "U1"}

	authService, err := auth.NewAuthorizationService(
		auth.Repos{Sessions: sessions.NewInMemoryRepo(sessions.WithNowFunc(clock)), Kite: kiteClient},
		testConfig{
			Kite:    config.Kite{APIKey: "key", APISecret: "secret"},
			Session: config.Session{Secret: "signing-secret"},
		},
		auth.WithNowTime(clock),
	)
	require.NoError(t, err)

	login, err := authService.Exchange(context.Background(), "rt")
	require.NoError(t, err)

	options = append([]portfolio.ServiceOption{portfolio.WithNowFunc(clock)}, options...)
	return &fixture{
		kite:    kiteClient,
		auth:    authService,
		service: portfolio.NewService(authService, kiteClient, options...),
		header:  "Bearer " + login.SessionToken,
	}
}

func TestHoldings_Live(t *testing.T) {
	f := newFixture(t)
	f.kite.HoldingsByToken["access-1"] = []kite.Holding{
		{TradingSymbol: "TCS", Exchange: "NSE", Product: "CNC", InstrumentToken: 2953217, Quantity: 10, AveragePrice: 3500, LastPrice: 3800, PnL: 3000},
		{TradingSymbol: "NIFTY24JULFUT", Exchange: "NFO", Product: "NRML", InstrumentToken: 1, Quantity: 25, AveragePrice: 24000, LastPrice: 24200, PnL: 5000},
	}

	resp := f.service.Holdings(context.Background(), f.header, portfolio.Query{Segment: portfolio.SegmentEquity, Details: true})
	require.True(t, resp.Success)
	require.Equal(t, portfolio.SourceLive, resp.Source)
	require.Empty(t, resp.Error)
	require.Equal(t, int64(10), resp.Data.HoldingQuantity)
	require.Equal(t, 38000.0, resp.Data.CurrentMarketValue)
	require.Len(t, resp.Data.OrderHistory, 1)
	require.Equal(t, now, resp.Data.OrderHistory[0].OrderTimestamp)
	require.NoError(t, portfolio.Validate(resp.Data))
}

func TestHoldings_LiveWithoutHoldings(t *testing.T) {
	f := newFixture(t)

	resp := f.service.Holdings(context.Background(), f.header, portfolio.Query{})
	require.Equal(t, portfolio.SourceLive, resp.Source)
	require.Zero(t, resp.Data.HoldingQuantity)
	require.NoError(t, portfolio.Validate(resp.Data))
}

func TestHoldings_FallbackOnAuthFailure(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for name, header := range map[string]string{
		"missing header": "",
		"not bearer":     "Token abc",
		"forged token":   "Bearer Zm9vOjE=.00",
	} {
		t.Run(name, func(t *testing.T) {
			resp := f.service.Holdings(ctx, header, portfolio.Query{Segment: portfolio.SegmentFutures})
			require.True(t, resp.Success)
			require.Equal(t, portfolio.SourceFallback, resp.Source)
			require.Equal(t, "Using placeholder data due to authentication failure", resp.Message)
			require.Equal(t, portfolio.Placeholder(portfolio.Query{Segment: portfolio.SegmentFutures}), resp.Data)
			require.NoError(t, portfolio.Validate(resp.Data))
		})
	}

	t.Run("logged out session", func(t *testing.T) {
		f := newFixture(t)
		f.auth.Logout(ctx, f.header)
		resp := f.service.Holdings(ctx, f.header, portfolio.Query{})
		require.Equal(t, portfolio.SourceFallback, resp.Source)
		require.Zero(t, f.kite.HoldingsCalls)
	})
}

func TestHoldings_FallbackOnUpstreamFailure(t *testing.T) {
	upstreamErr := apperrors.Wrapf(apperrors.ErrUpstreamUnavailable, "GET /portfolio/holdings timed out")

	t.Run("detail hidden by default", func(t *testing.T) {
		f := newFixture(t)
		f.kite.HoldingsErr = upstreamErr

		resp := f.service.Holdings(context.Background(), f.header, portfolio.Query{Details: true})
		require.True(t, resp.Success)
		require.Equal(t, portfolio.SourceFallback, resp.Source)
		require.Equal(t, "Using placeholder data due to upstream failure", resp.Message)
		require.Empty(t, resp.Error)
		require.Equal(t, 1, f.kite.HoldingsCalls)
		require.NoError(t, portfolio.Validate(resp.Data))
	})

	t.Run("detail exposed in development", func(t *testing.T) {
		f := newFixture(t, portfolio.WithErrorDetail(true))
		f.kite.HoldingsErr = upstreamErr

		resp := f.service.Holdings(context.Background(), f.header, portfolio.Query{})
		require.Equal(t, portfolio.SourceFallback, resp.Source)
		require.Contains(t, resp.Error, "timed out")
	})
}

func TestHoldings_FallbackShapeMatchesLive(t *testing.T) {
	f := newFixture(t)
	f.kite.HoldingsByToken["access-1"] = []kite.Holding{
		{TradingSymbol: "INFY", Exchange: "NSE", Product: "CNC", InstrumentToken: 408065, Quantity: 5, AveragePrice: 1500, LastPrice: 1450, PnL: -250},
	}
	ctx := context.Background()
	q := portfolio.Query{Details: true}

	live := f.service.Holdings(ctx, f.header, q)
	fallback := f.service.Holdings(ctx, "", q)

	require.Equal(t, portfolio.SourceLive, live.Source)
	require.Equal(t, portfolio.SourceFallback, fallback.Source)
	require.NoError(t, portfolio.Validate(live.Data))
	require.NoError(t, portfolio.Validate(fallback.Data))
	require.NotNil(t, live.Data.OrderHistory)
	require.NotNil(t, fallback.Data.OrderHistory)
}

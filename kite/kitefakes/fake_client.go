package kitefakes

import (
	"context"
	"sync"

	"github.com/jrsteele09/go-kite-session/kite"
)

// FakeClient stands in for the Kite Connect API. Canned responses are returned
// per user id; calls are recorded for assertions.
type FakeClient struct {
	lock sync.Mutex

	LoginPage string

	// ExchangeSessions maps a request token to the session the upstream returns for it
	ExchangeSessions map[string]*kite.UserSession
	ExchangeErr      error
	Checksums        []string

	LegacyRequestToken string
	LegacyErr          error

	Profiles   map[string]*kite.Profile // keyed by access token
	ProfileErr error

	HoldingsByToken map[string][]kite.Holding // keyed by access token
	HoldingsErr     error
	HoldingsCalls   int
}

func NewFakeClient() *FakeClient {
	return &FakeClient{
		LoginPage:        "https://kite.example/connect/login?api_key=test&v=3",
		ExchangeSessions: make(map[string]*kite.UserSession),
		Profiles:         make(map[string]*kite.Profile),
		HoldingsByToken:  make(map[string][]kite.Holding),
	}
}

func (f *FakeClient) LoginURL() string {
	return f.LoginPage
}

func (f *FakeClient) ExchangeToken(_ context.Context, requestToken, checksum string) (*kite.UserSession, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.Checksums = append(f.Checksums, checksum)
	if f.ExchangeErr != nil {
		return nil, f.ExchangeErr
	}
	session, ok := f.ExchangeSessions[requestToken]
	if !ok {
		return &kite.UserSession{}, nil
	}
	copied := *session
	return &copied, nil
}

func (f *FakeClient) LegacyLogin(_ context.Context, _, _, _ string) (string, error) {
	if f.LegacyErr != nil {
		return "", f.LegacyErr
	}
	return f.LegacyRequestToken, nil
}

func (f *FakeClient) Profile(_ context.Context, accessToken string) (*kite.Profile, error) {
	if f.ProfileErr != nil {
		return nil, f.ProfileErr
	}
	profile, ok := f.Profiles[accessToken]
	if !ok {
		return &kite.Profile{}, nil
	}
	return profile, nil
}

func (f *FakeClient) Holdings(_ context.Context, accessToken string) ([]kite.Holding, error) {
	f.lock.Lock()
	f.HoldingsCalls++
	f.lock.Unlock()

	if f.HoldingsErr != nil {
		return nil, f.HoldingsErr
	}
	return f.HoldingsByToken[accessToken], nil
}

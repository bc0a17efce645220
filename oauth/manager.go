package oauth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"
	"golang.org/x/sync/singleflight"
)

// RefreshTimeout bounds a single token exchange
const RefreshTimeout = 30 * time.Second

// Manager owns the client-credentials flow and the single access token
// shared by every request of the process.
type Manager struct {
	credentials clientcredentials.Config
	httpClient  *http.Client
	logger      zerolog.Logger
	now         func() time.Time
	onRefresh   func(err error)

	mu    sync.RWMutex
	token Token
	group singleflight.Group
}

// Option configures a Manager
type Option func(*Manager)

// WithHTTPClient sets the client used to reach the token endpoint
func WithHTTPClient(c *http.Client) Option {
	return func(m *Manager) {
		if c != nil {
			m.httpClient = c
		}
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// WithRefreshHook registers fn to be called after every refresh attempt
// with its outcome.
func WithRefreshHook(fn func(err error)) Option {
	return func(m *Manager) {
		m.onRefresh = fn
	}
}

// TokenURL returns the token endpoint for a regional auth host, e.g.
// https://eu.battle.net/oauth/token.
func TokenURL(region, authHost string) string {
	return fmt.Sprintf("https://%s.%s/oauth/token", region, authHost)
}

// NewManager creates a token manager for the given credentials and
// token endpoint. No request is made until the first Token call.
func NewManager(clientID, clientSecret, tokenURL string, logger zerolog.Logger, opts ...Option) (*Manager, error) {
	if clientID == "" {
		return nil, fmt.Errorf("oauth client id is required")
	}
	if clientSecret == "" {
		return nil, fmt.Errorf("oauth client secret is required")
	}
	if tokenURL == "" {
		return nil, fmt.Errorf("oauth token URL is required")
	}

	m := &Manager{
		credentials: clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     tokenURL,
			AuthStyle:    oauth2.AuthStyleInHeader,
		},
		httpClient: http.DefaultClient,
		logger:     logger,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Token returns a token that stays valid for at least ExpiryMargin.
// Concurrent callers that find the token absent or near expiry share a
// single refresh round trip and all receive its result. A caller whose
// ctx ends first stops waiting without failing the others.
func (m *Manager) Token(ctx context.Context) (Token, error) {
	if t, ok := m.current(); ok {
		return t, nil
	}

	flightCtx := context.WithoutCancel(ctx)
	ch := m.group.DoChan("token", func() (any, error) {
		// A refresh may have completed between the check above and
		// joining this flight.
		if t, ok := m.current(); ok {
			return t, nil
		}

		refreshCtx, cancel := context.WithTimeout(flightCtx, RefreshTimeout)
		defer cancel()

		t, err := m.refresh(refreshCtx)
		if m.onRefresh != nil {
			m.onRefresh(err)
		}
		if err != nil {
			return Token{}, err
		}

		m.mu.Lock()
		m.token = t
		m.mu.Unlock()
		return t, nil
	})

	select {
	case <-ctx.Done():
		return Token{}, &AuthError{URL: m.credentials.TokenURL, Reason: "gave up waiting for token", Err: ctx.Err()}
	case res := <-ch:
		if res.Err != nil {
			return Token{}, res.Err
		}
		if res.Shared {
			m.logger.Debug().Msg("Joined in-flight token refresh")
		}
		return res.Val.(Token), nil
	}
}

// Invalidate drops the cached token so the next Token call refreshes it
func (m *Manager) Invalidate() {
	m.mu.Lock()
	m.token = Token{}
	m.mu.Unlock()
}

// InvalidateIf drops the cached token only while it is still value. A
// rejection of a token that was already replaced leaves the new one alone.
func (m *Manager) InvalidateIf(value string) {
	m.mu.Lock()
	if m.token.Value == value {
		m.token = Token{}
	}
	m.mu.Unlock()
}

func (m *Manager) current() (Token, bool) {
	m.mu.RLock()
	t := m.token
	m.mu.RUnlock()
	return t, t.Usable(m.now())
}

// refresh performs the client-credentials exchange
func (m *Manager) refresh(ctx context.Context) (Token, error) {
	tokenURL := m.credentials.TokenURL
	ctx = context.WithValue(ctx, oauth2.HTTPClient, m.httpClient)

	m.logger.Debug().Str("url", tokenURL).Msg("Requesting access token")

	requestedAt := m.now()
	issued, err := m.credentials.Token(ctx)
	if err != nil {
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.Response != nil {
			return Token{}, &AuthError{URL: tokenURL, StatusCode: re.Response.StatusCode, Reason: strings.TrimSpace(string(re.Body))}
		}
		return Token{}, &AuthError{URL: tokenURL, Reason: "request failed", Err: err}
	}

	// A missing expires_in means DefaultLifetime
	lifetime := DefaultLifetime
	if issued.ExpiresIn > 0 {
		lifetime = time.Duration(issued.ExpiresIn) * time.Second
	}
	if lifetime <= ExpiryMargin {
		return Token{}, &AuthError{
			URL:    tokenURL,
			Reason: fmt.Sprintf("token lifetime %s is within the %s expiry margin", lifetime, ExpiryMargin),
		}
	}
	t := Token{Value: issued.AccessToken, ExpiresAt: requestedAt.Add(lifetime)}

	m.logger.Debug().Time("expires_at", t.ExpiresAt).Msg("Obtained access token")
	return t, nil
}

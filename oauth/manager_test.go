package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

// tokenServer issues numbered tokens and counts how often it was hit
type tokenServer struct {
	*httptest.Server
	hits      atomic.Int64
	expiresIn atomic.Int64
}

func newTokenServer(t *testing.T, expiresIn int64) *tokenServer {
	t.Helper()
	ts := &tokenServer{}
	ts.expiresIn.Store(expiresIn)
	ts.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := ts.hits.Add(1)

		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/oauth/token", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "client", user)
		assert.Equal(t, "secret", pass)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostForm.Get("grant_type"))

		resp := map[string]any{
			"access_token": fmt.Sprintf("token-%d", n),
			"token_type":   "bearer",
		}
		if exp := ts.expiresIn.Load(); exp > 0 {
			resp["expires_in"] = exp
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(ts.Close)
	return ts
}

func newTestManager(t *testing.T, url string, clock *testClock, opts ...Option) *Manager {
	t.Helper()
	opts = append([]Option{WithClock(clock.Now)}, opts...)
	m, err := NewManager("client", "secret", url+"/oauth/token", zerolog.Nop(), opts...)
	require.NoError(t, err)
	return m
}

func TestNewManager(t *testing.T) {
	tests := []struct {
		name     string
		id       string
		secret   string
		tokenURL string
		errMsg   string
	}{
		{name: "missing id", secret: "s", tokenURL: "https://x", errMsg: "client id is required"},
		{name: "missing secret", id: "i", tokenURL: "https://x", errMsg: "client secret is required"},
		{name: "missing url", id: "i", secret: "s", errMsg: "token URL is required"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewManager(tt.id, tt.secret, tt.tokenURL, zerolog.Nop())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}

	assert.Equal(t, "https://eu.battle.net/oauth/token", TokenURL("eu", "battle.net"))
}

func TestManager_ReusesValidToken(t *testing.T) {
	ts := newTokenServer(t, 86399)
	clock := &testClock{now: time.Now()}
	m := newTestManager(t, ts.URL, clock)
	ctx := context.Background()

	first, err := m.Token(ctx)
	require.NoError(t, err)
	clock.Advance(30 * time.Second)
	second, err := m.Token(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(1), ts.hits.Load())
	assert.Equal(t, first, second)
	assert.Equal(t, "token-1", first.Value)
}

func TestManager_RefreshesNearExpiry(t *testing.T) {
	ts := newTokenServer(t, 3600)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := &testClock{now: start}
	m := newTestManager(t, ts.URL, clock)
	ctx := context.Background()

	tok, err := m.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, start.Add(time.Hour), tok.ExpiresAt)

	// 61s before expiry: still usable
	clock.Advance(time.Hour - 61*time.Second)
	_, err = m.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), ts.hits.Load())

	// 60s before expiry: inside the margin
	clock.Advance(time.Second)
	tok, err = m.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), ts.hits.Load())
	assert.Equal(t, "token-2", tok.Value)
}

func TestManager_DefaultLifetime(t *testing.T) {
	ts := newTokenServer(t, 0)
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := &testClock{now: start}
	m := newTestManager(t, ts.URL, clock)

	tok, err := m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, start.Add(DefaultLifetime), tok.ExpiresAt)
}

func TestManager_SingleFlightRefresh(t *testing.T) {
	release := make(chan struct{})
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := hits.Add(1)
		w.Header().Set("Content-Type", "application/json")
		if n == 1 {
			_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "stale", "expires_in": 120})
			return
		}
		<-release
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "fresh", "expires_in": 3600})
	}))
	defer server.Close()

	clock := &testClock{now: time.Now()}
	m := newTestManager(t, server.URL, clock)
	ctx := context.Background()

	tok, err := m.Token(ctx)
	require.NoError(t, err)
	require.Equal(t, "stale", tok.Value)

	// 59s left: inside the expiry margin
	clock.Advance(61 * time.Second)

	const callers = 25
	var wg sync.WaitGroup
	results := make([]string, callers)
	errs := make([]error, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			tok, err := m.Token(ctx)
			results[i], errs[i] = tok.Value, err
		}(i)
	}

	// let the callers pile up behind the in-flight refresh
	require.Eventually(t, func() bool { return hits.Load() == 2 }, 2*time.Second, 5*time.Millisecond)
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int64(2), hits.Load(), "exactly one refresh after the initial fetch")
	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i])
		assert.Equal(t, "fresh", results[i])
	}
}

func TestManager_CancelledCallerDoesNotFailWaiters(t *testing.T) {
	release := make(chan struct{})
	var hits atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		<-release
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "shared", "expires_in": 3600})
	}))
	defer server.Close()

	m := newTestManager(t, server.URL, &testClock{now: time.Now()})

	leaderCtx, cancel := context.WithCancel(context.Background())
	leaderErr := make(chan error, 1)
	go func() {
		_, err := m.Token(leaderCtx)
		leaderErr <- err
	}()
	require.Eventually(t, func() bool { return hits.Load() == 1 }, 2*time.Second, 5*time.Millisecond)

	type result struct {
		tok Token
		err error
	}
	waiter := make(chan result, 1)
	go func() {
		tok, err := m.Token(context.Background())
		waiter <- result{tok, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancel()
	select {
	case err := <-leaderErr:
		require.ErrorIs(t, err, context.Canceled)
		var authErr *AuthError
		assert.ErrorAs(t, err, &authErr)
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled caller kept waiting for the refresh")
	}

	close(release)
	select {
	case res := <-waiter:
		require.NoError(t, res.err)
		assert.Equal(t, "shared", res.tok.Value)
	case <-time.After(2 * time.Second):
		t.Fatal("waiter never received the token")
	}
	assert.Equal(t, int64(1), hits.Load())

	// the refresh completed for everyone, so the token is cached
	tok, err := m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "shared", tok.Value)
	assert.Equal(t, int64(1), hits.Load())
}

func TestManager_AuthErrors(t *testing.T) {
	jsonBody := func(body string) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(body))
		}
	}

	tests := []struct {
		name    string
		handler http.HandlerFunc
		status  int
		reason  string
	}{
		{
			name: "unauthorized",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusUnauthorized)
				_, _ = w.Write([]byte(`{"error":"invalid_client"}`))
			},
			status: http.StatusUnauthorized,
			reason: "invalid_client",
		},
		{
			name:    "malformed body",
			handler: jsonBody("<html>"),
			reason:  "cannot parse json",
		},
		{
			name:    "missing access token",
			handler: jsonBody(`{"expires_in":3600}`),
			reason:  "missing access_token",
		},
		{
			name:    "lifetime inside expiry margin",
			handler: jsonBody(`{"access_token":"short","expires_in":60}`),
			reason:  "within the 1m0s expiry margin",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(tt.handler)
			defer server.Close()

			var hookErr error
			m := newTestManager(t, server.URL, &testClock{now: time.Now()}, WithRefreshHook(func(err error) { hookErr = err }))

			_, err := m.Token(context.Background())
			require.Error(t, err)

			var authErr *AuthError
			require.True(t, errors.As(err, &authErr))
			assert.Equal(t, tt.status, authErr.StatusCode)
			assert.Contains(t, authErr.Error(), tt.reason)
			assert.Equal(t, err, hookErr)
		})
	}
}

func TestManager_ShortLivedTokenIsNeverHandedOut(t *testing.T) {
	ts := newTokenServer(t, 30)
	m := newTestManager(t, ts.URL, &testClock{now: time.Now()})

	for i := 0; i < 3; i++ {
		tok, err := m.Token(context.Background())
		var authErr *AuthError
		require.ErrorAs(t, err, &authErr)
		assert.Empty(t, tok.Value)
	}
	assert.Equal(t, int64(3), ts.hits.Load())

	ts.expiresIn.Store(3600)
	tok, err := m.Token(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "token-4", tok.Value)
}

func TestManager_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	m := newTestManager(t, url, &testClock{now: time.Now()})
	_, err := m.Token(context.Background())

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Zero(t, authErr.StatusCode)
	assert.NotNil(t, authErr.Unwrap())
}

func TestManager_Invalidate(t *testing.T) {
	ts := newTokenServer(t, 3600)
	m := newTestManager(t, ts.URL, &testClock{now: time.Now()})
	ctx := context.Background()

	_, err := m.Token(ctx)
	require.NoError(t, err)
	m.Invalidate()
	tok, err := m.Token(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(2), ts.hits.Load())
	assert.Equal(t, "token-2", tok.Value)
}

func TestManager_InvalidateIf(t *testing.T) {
	ts := newTokenServer(t, 3600)
	m := newTestManager(t, ts.URL, &testClock{now: time.Now()})
	ctx := context.Background()

	first, err := m.Token(ctx)
	require.NoError(t, err)
	m.InvalidateIf(first.Value)
	second, err := m.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, "token-2", second.Value)

	// a late rejection of the replaced token keeps the current one
	m.InvalidateIf(first.Value)
	third, err := m.Token(ctx)
	require.NoError(t, err)
	assert.Equal(t, second, third)
	assert.Equal(t, int64(2), ts.hits.Load())
}

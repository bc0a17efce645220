package blizzard

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/s0up4200/blizzapi/cache"
	"github.com/s0up4200/blizzapi/namespace"
	"github.com/s0up4200/blizzapi/oauth"
)

const (
	// DefaultAPIHost is the base domain of the regional API hosts
	DefaultAPIHost = "api.blizzard.com"
	// DefaultAuthHost is the base domain of the regional OAuth hosts
	DefaultAuthHost = "battle.net"
	// DefaultTTL is how long responses are cached when no TTL is given
	DefaultTTL = 24 * time.Hour
)

// Config holds the read-only inputs of a Client
type Config struct {
	ClientID     string
	ClientSecret string
	Region       namespace.Region
	Locale       string
	Format       Format
	APIHost      string
	AuthHost     string
	CacheEnabled bool
	DefaultTTL   time.Duration
}

// Doer sends HTTP requests. *http.Client satisfies it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// TokenSource supplies bearer tokens; *oauth.Manager satisfies it
type TokenSource interface {
	Token(ctx context.Context) (oauth.Token, error)
}

// Client executes Battle.net API requests: it resolves URLs and
// namespaces, consults the response cache, attaches access tokens and
// classifies responses.
type Client struct {
	cfg        Config
	httpClient Doer
	tokens     TokenSource
	store      cache.Store
	metrics    *Metrics
	logger     zerolog.Logger
}

// Option configures a Client
type Option func(*Client)

// WithHTTPClient sets the transport used for API calls. The default
// client disables keep-alives so every call gets its own connection.
func WithHTTPClient(c Doer) Option {
	return func(cl *Client) {
		if c != nil {
			cl.httpClient = c
		}
	}
}

// WithTokenSource replaces the token manager built from the credentials
func WithTokenSource(ts TokenSource) Option {
	return func(cl *Client) {
		cl.tokens = ts
	}
}

// WithCache sets the response cache. It is ignored when caching is
// disabled in Config.
func WithCache(s cache.Store) Option {
	return func(cl *Client) {
		cl.store = s
	}
}

// WithMetrics records executor activity in m
func WithMetrics(m *Metrics) Option {
	return func(cl *Client) {
		cl.metrics = m
	}
}

// NewHTTPClient returns an *http.Client that opens a fresh connection for
// every request. It has no timeout; callers bound calls with a context.
func NewHTTPClient() *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DisableKeepAlives = true
	return &http.Client{Transport: transport}
}

// NewClient creates a new API client
func NewClient(cfg Config, logger zerolog.Logger, opts ...Option) (*Client, error) {
	if cfg.Region == "" {
		cfg.Region = namespace.RegionUS
	}
	if !cfg.Region.Valid() {
		return nil, &ConfigurationError{Field: "region", Value: string(cfg.Region), Reason: "must be one of us, eu, kr, tw"}
	}
	if cfg.Format == FormatDefault {
		cfg.Format = FormatStructured
	}
	if _, err := ParseFormat(string(cfg.Format)); err != nil {
		return nil, err
	}
	if cfg.APIHost == "" {
		cfg.APIHost = DefaultAPIHost
	}
	if cfg.AuthHost == "" {
		cfg.AuthHost = DefaultAuthHost
	}
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = DefaultTTL
	}

	c := &Client{
		cfg:    cfg,
		logger: logger,
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.httpClient == nil {
		c.httpClient = NewHTTPClient()
	}
	if !cfg.CacheEnabled {
		c.store = cache.Disabled{}
	} else if c.store == nil {
		c.store = cache.NewMemory(cache.WithDefaultTTL(cfg.DefaultTTL))
	}
	if c.tokens == nil {
		managerOpts := []oauth.Option{oauth.WithRefreshHook(c.metrics.ObserveRefresh)}
		// The token exchange needs a concrete *http.Client
		if hc, ok := c.httpClient.(*http.Client); ok {
			managerOpts = append(managerOpts, oauth.WithHTTPClient(hc))
		}
		m, err := oauth.NewManager(cfg.ClientID, cfg.ClientSecret,
			oauth.TokenURL(string(cfg.Region), cfg.AuthHost), logger, managerOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to create token manager: %w", err)
		}
		c.tokens = m
	}

	return c, nil
}

// Region returns the default region
func (c *Client) Region() namespace.Region {
	return c.cfg.Region
}

// URL builds a request template for path under an API scope. The host
// keeps a {region} placeholder that is filled in per call.
func (c *Client) URL(scope namespace.APIScope, path string) (string, error) {
	base, ok := scope.Path()
	if !ok {
		return "", &ConfigurationError{Field: "scope", Value: string(scope), Reason: "unknown API scope"}
	}
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return "https://" + namespace.Host(regionPlaceholder, c.cfg.APIHost) + base + path, nil
}

package blizzard

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/s0up4200/blizzapi/cache"
	"github.com/s0up4200/blizzapi/namespace"
)

// regionPlaceholder is substituted with the request region in URL templates
const regionPlaceholder namespace.Region = "{region}"

type mode int

const (
	modeRegular mode = iota
	modeExtended
)

// resolvedRequest is derived per call and never stored
type resolvedRequest struct {
	url       string
	headers   http.Header
	format    Format
	ttl       time.Duration
	cacheable bool
}

// fetched is the outcome of a request before decoding. resp is nil on a
// cache hit.
type fetched struct {
	resp *http.Response
	body []byte
}

// Get executes a request in regular mode and returns the decoded payload.
// It returns a nil payload and no error when the server answers 304.
func (c *Client) Get(ctx context.Context, urlTemplate string, opts RequestOptions) (any, error) {
	rr, err := c.resolve(urlTemplate, opts, modeRegular)
	if err != nil {
		return nil, err
	}
	f, err := c.fetch(ctx, rr, opts, modeRegular)
	if err != nil {
		return nil, err
	}
	if f.resp != nil && f.resp.StatusCode == http.StatusNotModified {
		return nil, nil
	}
	payload, err := decode(f.body, rr.format)
	if err != nil {
		return nil, &DecodeError{URL: rr.url, Format: rr.format, Err: err}
	}
	return payload, nil
}

// GetInto executes a request in regular mode and decodes the JSON body
// into out. It reports false, leaving out untouched, on a 304.
func (c *Client) GetInto(ctx context.Context, urlTemplate string, opts RequestOptions, out any) (bool, error) {
	rr, err := c.resolve(urlTemplate, opts, modeRegular)
	if err != nil {
		return false, err
	}
	f, err := c.fetch(ctx, rr, opts, modeRegular)
	if err != nil {
		return false, err
	}
	if f.resp != nil && f.resp.StatusCode == http.StatusNotModified {
		return false, nil
	}
	if err := json.Unmarshal(f.body, out); err != nil {
		return false, &DecodeError{URL: rr.url, Format: FormatGeneric, Err: err}
	}
	return true, nil
}

// GetExtended executes a request in extended mode. The cache is never
// consulted and non-success statuses are not errors: the raw response is
// returned for inspection with its body buffered and still readable. The
// payload is only decoded for a 200.
func (c *Client) GetExtended(ctx context.Context, urlTemplate string, opts RequestOptions) (*http.Response, any, error) {
	rr, err := c.resolve(urlTemplate, opts, modeExtended)
	if err != nil {
		return nil, nil, err
	}
	f, err := c.fetch(ctx, rr, opts, modeExtended)
	if err != nil {
		return nil, nil, err
	}
	if f.resp.StatusCode != http.StatusOK {
		return f.resp, nil, nil
	}
	payload, err := decode(f.body, rr.format)
	if err != nil {
		return f.resp, nil, &DecodeError{URL: rr.url, Format: rr.format, Err: err}
	}
	return f.resp, payload, nil
}

// resolve turns a URL template and options into the final URL, headers
// and cache policy of a call.
func (c *Client) resolve(urlTemplate string, opts RequestOptions, m mode) (*resolvedRequest, error) {
	region := c.cfg.Region
	if opts.Region != "" {
		if !opts.Region.Valid() {
			return nil, &ConfigurationError{Field: "region", Value: string(opts.Region), Reason: "must be one of us, eu, kr, tw"}
		}
		region = opts.Region
	}

	format := c.cfg.Format
	if opts.Format != FormatDefault {
		f, err := ParseFormat(string(opts.Format))
		if err != nil {
			return nil, err
		}
		format = f
	}

	query := make(url.Values, len(opts.Query)+2)
	for k, v := range opts.Query {
		query[k] = append([]string(nil), v...)
	}
	locale := c.cfg.Locale
	if opts.Locale != "" {
		locale = opts.Locale
	}
	if locale != "" {
		query["locale"] = []string{locale}
	}
	if opts.Namespace != namespace.ScopeNone {
		ns, err := namespace.Resolve(opts.Namespace, region, opts.Classic)
		if err != nil {
			return nil, err
		}
		query["namespace"] = []string{ns}
	}

	u := strings.ReplaceAll(urlTemplate, string(regionPlaceholder), string(region))
	if encoded := query.Encode(); encoded != "" {
		if strings.Contains(u, "?") {
			u += "&" + encoded
		} else {
			u += "?" + encoded
		}
	}

	headers := make(http.Header, len(opts.Headers)+1)
	headers.Set("Accept", "application/json")
	for k, v := range opts.Headers {
		headers.Set(k, v)
	}
	if !opts.Since.IsZero() {
		headers.Set("If-Modified-Since", opts.Since.UTC().Format(http.TimeFormat))
	}

	ttl := c.cfg.DefaultTTL
	if opts.TTL > 0 {
		ttl = opts.TTL
	}

	return &resolvedRequest{
		url:       u,
		headers:   headers,
		format:    format,
		ttl:       ttl,
		cacheable: m == modeRegular && !opts.IgnoreCache && opts.Since.IsZero(),
	}, nil
}

// fetch runs the cache lookup, dispatch and status classification of a call
func (c *Client) fetch(ctx context.Context, rr *resolvedRequest, opts RequestOptions, m mode) (*fetched, error) {
	if rr.cacheable {
		body, err := c.store.Get(ctx, rr.url)
		switch {
		case err == nil:
			c.metrics.lookup(lookupHit)
			c.logger.Debug().Str("url", rr.url).Msg("Cache hit")
			return &fetched{body: body}, nil
		case cache.IsMiss(err):
			c.metrics.lookup(lookupMiss)
		default:
			c.metrics.lookup(lookupError)
			c.logger.Warn().Err(err).Str("url", rr.url).Msg("Cache lookup failed, fetching from API")
		}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rr.url, nil)
	if err != nil {
		return nil, &ConfigurationError{Field: "url", Value: rr.url, Reason: err.Error()}
	}
	req.Header = rr.headers.Clone()
	req.Close = true

	managed := opts.AccessToken == ""
	presented := opts.AccessToken
	if managed {
		tok, err := c.tokens.Token(ctx)
		if err != nil {
			return nil, err
		}
		presented = tok.Value
	}
	req.Header.Set("Authorization", "Bearer "+presented)

	c.logger.Debug().Str("url", rr.url).Bool("conditional", !opts.Since.IsZero()).Msg("Requesting Blizzard API")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.request(outcomeTransportError)
		return nil, &TransportError{URL: rr.url, Err: err}
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		c.metrics.request(outcomeTransportError)
		return nil, &TransportError{URL: rr.url, Err: err}
	}
	resp.Body = io.NopCloser(bytes.NewReader(body))

	switch resp.StatusCode {
	case http.StatusOK:
		c.metrics.request(outcomeOK)
		if rr.cacheable {
			if err := c.store.Set(ctx, rr.url, body, rr.ttl); err != nil {
				c.logger.Warn().Err(err).Str("url", rr.url).Msg("Cache write failed")
			}
		}
	case http.StatusNotModified:
		c.metrics.request(outcomeNotModified)
	default:
		c.metrics.request(outcomeAPIError)
		if resp.StatusCode == http.StatusUnauthorized && managed {
			if inv, ok := c.tokens.(interface{ InvalidateIf(string) }); ok {
				inv.InvalidateIf(presented)
			}
		}
		if m == modeRegular {
			return nil, &APIError{StatusCode: resp.StatusCode, URL: rr.url, Body: strings.TrimSpace(string(body))}
		}
		c.logger.Debug().Int("status", resp.StatusCode).Str("url", rr.url).Msg("Returning unsuccessful response")
	}

	return &fetched{resp: resp, body: body}, nil
}

package blizzard

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/s0up4200/blizzapi/namespace"
)

// Format is the shape a decoded response payload takes
type Format string

const (
	// FormatDefault defers to the client's configured format
	FormatDefault Format = ""
	// FormatStructured decodes into a gjson.Result for path based access
	FormatStructured Format = "structured"
	// FormatGeneric decodes into map[string]any / []any
	FormatGeneric Format = "generic"
	// FormatRaw returns the body as a string without decoding
	FormatRaw Format = "raw"
)

// ParseFormat validates a format name
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatStructured, FormatGeneric, FormatRaw:
		return f, nil
	default:
		return "", &ConfigurationError{Field: "format", Value: s, Reason: "must be one of structured, generic, raw"}
	}
}

// RequestOptions controls a single call. None of its fields are sent as
// API query parameters except through Query, Locale and Namespace.
type RequestOptions struct {
	// Region overrides the client's default region
	Region namespace.Region
	// Locale overrides the client's default locale
	Locale string
	// Namespace, when set, is resolved and sent as the namespace parameter
	Namespace namespace.Scope
	// Classic selects the classic variant of dynamic and static namespaces
	Classic bool
	// AccessToken is sent instead of the managed token
	AccessToken string
	// IgnoreCache forces a network round trip and skips the write-back
	IgnoreCache bool
	// TTL overrides the default cache TTL of the response
	TTL time.Duration
	// Since makes the request conditional (If-Modified-Since); it always
	// bypasses the cache.
	Since time.Time
	// Headers are extra request headers
	Headers map[string]string
	// Format overrides the client's default response format
	Format Format
	// Query holds the API fields serialized into the query string
	Query url.Values
}

// control keys accepted by ParseOptions; everything else is an API field
const (
	keyRegion      = "region"
	keyLocale      = "locale"
	keyNamespace   = "namespace"
	keyClassic     = "classic"
	keyAccessToken = "accessToken"
	keyIgnoreCache = "ignoreCache"
	keyTTL         = "ttl"
	keySince       = "since"
	keyHeaders     = "headers"
	keyFormat      = "format"
	keyFields      = "fields"
)

// ParseOptions partitions a loosely typed option map into control options
// and API query fields. Control keys never end up in Query. A "fields"
// entry holding a map is merged into Query.
func ParseOptions(raw map[string]any) (RequestOptions, error) {
	opts := RequestOptions{Query: url.Values{}}

	for key, v := range raw {
		var err error
		switch key {
		case keyRegion:
			var s string
			if s, err = asString(key, v); err == nil {
				opts.Region, err = namespace.ParseRegion(s)
			}
		case keyLocale:
			opts.Locale, err = asString(key, v)
		case keyNamespace:
			var s string
			if s, err = asString(key, v); err == nil {
				opts.Namespace = namespace.Scope(s)
			}
		case keyClassic:
			opts.Classic, err = asBool(key, v)
		case keyAccessToken, "access_token":
			opts.AccessToken, err = asString(key, v)
		case keyIgnoreCache, "ignore_cache":
			opts.IgnoreCache, err = asBool(key, v)
		case keyTTL:
			opts.TTL, err = asDuration(key, v)
		case keySince:
			opts.Since, err = asTime(key, v)
		case keyHeaders:
			opts.Headers, err = asHeaders(key, v)
		case keyFormat:
			var s string
			if s, err = asString(key, v); err == nil {
				opts.Format, err = ParseFormat(s)
			}
		case keyFields:
			fields, ok := v.(map[string]any)
			if !ok {
				err = invalidOption(key, v, "must be a map of API fields")
				break
			}
			for fk, fv := range fields {
				if isControlKey(fk) {
					err = invalidOption(keyFields+"."+fk, fv, "control options are not API fields")
					break
				}
				if err = addQuery(opts.Query, fk, fv); err != nil {
					break
				}
			}
		default:
			err = addQuery(opts.Query, key, v)
		}
		if err != nil {
			return RequestOptions{}, err
		}
	}
	return opts, nil
}

func isControlKey(key string) bool {
	switch key {
	case keyRegion, keyLocale, keyNamespace, keyClassic, keyAccessToken, "access_token",
		keyIgnoreCache, "ignore_cache", keyTTL, keySince, keyHeaders, keyFormat, keyFields:
		return true
	}
	return false
}

func invalidOption(key string, v any, reason string) error {
	return &ConfigurationError{Field: "option " + key, Value: fmt.Sprint(v), Reason: reason}
}

func addQuery(q url.Values, key string, v any) error {
	switch val := v.(type) {
	case nil:
		return nil
	case []string:
		for _, s := range val {
			q.Add(key, s)
		}
	case []any:
		for _, item := range val {
			s, err := scalar(key, item)
			if err != nil {
				return err
			}
			q.Add(key, s)
		}
	default:
		s, err := scalar(key, v)
		if err != nil {
			return err
		}
		q.Set(key, s)
	}
	return nil
}

func scalar(key string, v any) (string, error) {
	switch val := v.(type) {
	case string:
		return val, nil
	case bool:
		return strconv.FormatBool(val), nil
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return fmt.Sprint(val), nil
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32), nil
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64), nil
	case fmt.Stringer:
		return val.String(), nil
	default:
		return "", invalidOption(key, v, "unsupported query value type")
	}
}

func asString(key string, v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", invalidOption(key, v, "must be a string")
	}
	return s, nil
}

func asBool(key string, v any) (bool, error) {
	switch val := v.(type) {
	case bool:
		return val, nil
	case string:
		b, err := strconv.ParseBool(val)
		if err != nil {
			return false, invalidOption(key, v, "must be a boolean")
		}
		return b, nil
	default:
		return false, invalidOption(key, v, "must be a boolean")
	}
}

// asDuration accepts a time.Duration, a number of seconds or a duration string
func asDuration(key string, v any) (time.Duration, error) {
	switch val := v.(type) {
	case time.Duration:
		return val, nil
	case int:
		return time.Duration(val) * time.Second, nil
	case int64:
		return time.Duration(val) * time.Second, nil
	case float64:
		return time.Duration(val * float64(time.Second)), nil
	case string:
		if secs, err := strconv.Atoi(val); err == nil {
			return time.Duration(secs) * time.Second, nil
		}
		d, err := time.ParseDuration(val)
		if err != nil {
			return 0, invalidOption(key, v, "must be a duration")
		}
		return d, nil
	default:
		return 0, invalidOption(key, v, "must be a duration")
	}
}

// asTime accepts a time.Time, an RFC 3339 string or an HTTP date
func asTime(key string, v any) (time.Time, error) {
	switch val := v.(type) {
	case time.Time:
		return val, nil
	case string:
		if t, err := time.Parse(time.RFC3339, val); err == nil {
			return t, nil
		}
		if t, err := http.ParseTime(val); err == nil {
			return t, nil
		}
		return time.Time{}, invalidOption(key, v, "must be an RFC 3339 or HTTP date")
	default:
		return time.Time{}, invalidOption(key, v, "must be a time")
	}
}

func asHeaders(key string, v any) (map[string]string, error) {
	switch val := v.(type) {
	case map[string]string:
		return val, nil
	case map[string]any:
		out := make(map[string]string, len(val))
		for k, hv := range val {
			s, ok := hv.(string)
			if !ok {
				return nil, invalidOption(key, v, "header values must be strings")
			}
			out[k] = s
		}
		return out, nil
	default:
		return nil, invalidOption(key, v, "must be a map of header names to values")
	}
}

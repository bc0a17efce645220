package cache

import (
	"fmt"
	"net/url"
	"strings"
)

// JSON-lines protocol spoken between DaemonClient and Server.
// One request -> one response, encoded with json.Encoder/Decoder.

const (
	opGet    = "get"
	opSet    = "set"
	opDelete = "delete"
)

type Request struct {
	Op        string `json:"op"`
	Key       string `json:"key"`
	Value     []byte `json:"value,omitempty"`
	TTLMillis int64  `json:"ttl_ms,omitempty"`
}

type Response struct {
	OK    bool   `json:"ok"`
	Value []byte `json:"value,omitempty"`
	// Miss is "not_found" or "expired" when OK is false because the key is absent.
	Miss  string `json:"miss,omitempty"`
	Error string `json:"error,omitempty"`
}

// ParseAddress splits a daemon address into a network and a dial address.
// Accepted forms are unix:///path/to.sock, tcp://host:port, an absolute
// socket path, or a bare host:port.
func ParseAddress(address string) (network, addr string, err error) {
	if address == "" {
		return "", "", fmt.Errorf("cache daemon address is required")
	}
	if strings.HasPrefix(address, "/") {
		return "unix", address, nil
	}
	if !strings.Contains(address, "://") {
		return "tcp", address, nil
	}

	u, err := url.Parse(address)
	if err != nil {
		return "", "", fmt.Errorf("invalid cache daemon address %q: %w", address, err)
	}
	switch u.Scheme {
	case "unix":
		p := u.Path
		if p == "" {
			p = u.Opaque
		}
		if p == "" {
			return "", "", fmt.Errorf("invalid cache daemon address %q: missing socket path", address)
		}
		return "unix", p, nil
	case "tcp":
		if u.Host == "" {
			return "", "", fmt.Errorf("invalid cache daemon address %q: missing host", address)
		}
		return "tcp", u.Host, nil
	default:
		return "", "", fmt.Errorf("invalid cache daemon address %q: unsupported scheme %q", address, u.Scheme)
	}
}

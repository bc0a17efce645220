package cache

import (
	"fmt"
	"io"
	"time"
)

// Backend names accepted by Open
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendDaemon = "daemon"
	BackendBolt   = "bolt"
)

// Options selects and configures a cache backend
type Options struct {
	Enabled bool
	Backend string
	// Address is a redis URL or host:port for redis, a daemon address
	// (see ParseAddress) for daemon, and a file path for bolt.
	Address    string
	Bucket     string
	DefaultTTL time.Duration
}

// Open builds the Store described by opts. A disabled cache always yields
// Disabled, whatever backend is configured.
func Open(opts Options) (Store, error) {
	if !opts.Enabled {
		return Disabled{}, nil
	}

	switch opts.Backend {
	case "", BackendMemory:
		return NewMemory(WithDefaultTTL(opts.DefaultTTL)), nil
	case BackendRedis:
		client, err := DialRedis(opts.Address)
		if err != nil {
			return nil, err
		}
		return NewRedis(client, opts.Bucket, opts.DefaultTTL), nil
	case BackendDaemon:
		return NewDaemonClient(opts.Address)
	case BackendBolt:
		if opts.Address == "" {
			return nil, fmt.Errorf("bolt cache requires a database path")
		}
		return OpenBolt(opts.Address, BoltOptions{Bucket: opts.Bucket, DefaultTTL: opts.DefaultTTL})
	default:
		return nil, fmt.Errorf("unknown cache backend: %s", opts.Backend)
	}
}

// Close releases the resources held by s, if any
func Close(s Store) error {
	if c, ok := s.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

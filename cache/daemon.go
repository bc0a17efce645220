package cache

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"time"
)

// DaemonClient implements Store against a cache daemon (see Server).
// Every call dials its own connection, so concurrent callers never share
// a socket.
type DaemonClient struct {
	network     string
	addr        string
	dialTimeout time.Duration
	dialer      net.Dialer
}

// NewDaemonClient creates a client for the daemon listening at address
func NewDaemonClient(address string) (*DaemonClient, error) {
	network, addr, err := ParseAddress(address)
	if err != nil {
		return nil, err
	}
	return &DaemonClient{network: network, addr: addr, dialTimeout: 500 * time.Millisecond}, nil
}

func (c *DaemonClient) withConn(ctx context.Context, fn func(conn net.Conn) error) error {
	dctx, cancel := context.WithTimeout(ctx, c.dialTimeout)
	defer cancel()
	conn, err := c.dialer.DialContext(dctx, c.network, c.addr)
	if err != nil {
		return err
	}
	defer conn.Close()
	if deadline, ok := ctx.Deadline(); ok {
		_ = conn.SetDeadline(deadline)
	}
	return fn(conn)
}

func (c *DaemonClient) roundTrip(ctx context.Context, req Request) (Response, error) {
	var resp Response
	err := c.withConn(ctx, func(conn net.Conn) error {
		if err := json.NewEncoder(conn).Encode(&req); err != nil {
			return err
		}
		return json.NewDecoder(conn).Decode(&resp)
	})
	return resp, err
}

func (c *DaemonClient) Get(ctx context.Context, key string) ([]byte, error) {
	resp, err := c.roundTrip(ctx, Request{Op: opGet, Key: key})
	if err != nil {
		return nil, err
	}
	if !resp.OK {
		return nil, responseError(resp)
	}
	return resp.Value, nil
}

func (c *DaemonClient) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	resp, err := c.roundTrip(ctx, Request{Op: opSet, Key: key, Value: value, TTLMillis: ttl.Milliseconds()})
	if err != nil {
		return err
	}
	if !resp.OK {
		return responseError(resp)
	}
	return nil
}

func (c *DaemonClient) Delete(ctx context.Context, key string) error {
	resp, err := c.roundTrip(ctx, Request{Op: opDelete, Key: key})
	if err != nil {
		return err
	}
	if !resp.OK {
		return responseError(resp)
	}
	return nil
}

func responseError(resp Response) error {
	switch resp.Miss {
	case "not_found":
		return ErrNotFound
	case "expired":
		return ErrExpired
	}
	return errors.New(resp.Error)
}

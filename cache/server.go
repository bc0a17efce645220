package cache

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Server exposes a Store over the JSON-lines protocol
type Server struct {
	store  Store
	logger zerolog.Logger
	wg     sync.WaitGroup
}

// NewServer creates a daemon server for store
func NewServer(store Store, logger zerolog.Logger) *Server {
	return &Server{store: store, logger: logger}
}

// Serve accepts connections until ctx is cancelled or the listener fails.
// It closes l and waits for in-flight connections before returning.
func (s *Server) Serve(ctx context.Context, l net.Listener) error {
	go func() {
		<-ctx.Done()
		_ = l.Close()
	}()

	defer s.wg.Wait()
	for {
		conn, err := l.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			var ne net.Error
			if errors.As(err, &ne) && ne.Timeout() {
				time.Sleep(50 * time.Millisecond)
				continue
			}
			return err
		}
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handleConn(ctx, conn)
		}()
	}
}

func (s *Server) handleConn(ctx context.Context, conn net.Conn) {
	defer conn.Close()
	dec := json.NewDecoder(conn)
	enc := json.NewEncoder(conn)
	for {
		var req Request
		if err := dec.Decode(&req); err != nil {
			return
		}
		if err := enc.Encode(s.handle(ctx, req)); err != nil {
			s.logger.Debug().Err(err).Msg("Failed to write cache response")
			return
		}
	}
}

func (s *Server) handle(ctx context.Context, req Request) Response {
	switch req.Op {
	case opGet:
		v, err := s.store.Get(ctx, req.Key)
		if err != nil {
			return errorResponse(err)
		}
		return Response{OK: true, Value: v}
	case opSet:
		ttl := time.Duration(req.TTLMillis) * time.Millisecond
		if err := s.store.Set(ctx, req.Key, req.Value, ttl); err != nil {
			s.logger.Warn().Err(err).Str("key", req.Key).Msg("Cache write failed")
			return errorResponse(err)
		}
		return Response{OK: true}
	case opDelete:
		if err := s.store.Delete(ctx, req.Key); err != nil {
			return errorResponse(err)
		}
		return Response{OK: true}
	default:
		return Response{Error: "unknown op " + req.Op}
	}
}

func errorResponse(err error) Response {
	switch {
	case errors.Is(err, ErrNotFound):
		return Response{Miss: "not_found", Error: err.Error()}
	case errors.Is(err, ErrExpired):
		return Response{Miss: "expired", Error: err.Error()}
	default:
		return Response{Error: err.Error()}
	}
}

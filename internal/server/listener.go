package server

import (
	"context"
	"errors"
	"net"
	"sync"

	"github.com/rs/zerolog"

	"github.com/danmuck/cribbage/internal/observability"
	"github.com/danmuck/cribbage/internal/protocol/session"
)

// Listener turns accepted connections into session pairs.
type Listener struct {
	cfg    session.Config
	done   <-chan struct{}
	logger zerolog.Logger

	wg      sync.WaitGroup
	connsMu sync.Mutex
	conns   map[net.Conn]struct{}
}

// NewListener stops accepting once done is closed. A nil done only stops on
// context cancellation.
func NewListener(cfg session.Config, done <-chan struct{}) *Listener {
	return &Listener{
		cfg:    cfg.WithDefaults(),
		done:   done,
		logger: observability.ComponentLogger("listener"),
		conns:  make(map[net.Conn]struct{}),
	}
}

// Serve accepts connections from ln and hands their pairs to sessions in
// accept order. It returns after every adapter it started has exited.
func (l *Listener) Serve(ctx context.Context, ln net.Listener, sessions chan<- session.Pair) error {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
		case <-l.done:
		case <-stop:
		}
		_ = ln.Close()
	}()
	defer l.wg.Wait()

	l.logger.Info().Str("addr", ln.Addr().String()).Msg("server.Listener.Serve start")
	for {
		conn, err := ln.Accept()
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				l.logger.Info().Msg("server.Listener.Serve stop")
				return nil
			}
			return err
		}
		l.start(ctx, conn, sessions)
	}
}

// start runs the adapter for conn and blocks until the orchestrator takes the
// pair or the table stops wanting sessions.
func (l *Listener) start(ctx context.Context, conn net.Conn, sessions chan<- session.Pair) {
	adapter := session.NewAdapter(conn, l.cfg)
	pair := adapter.Pair()
	l.track(conn)
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		defer l.untrack(conn)
		if err := adapter.Serve(ctx); err != nil {
			l.logger.Debug().Err(err).Str("remote", pair.Remote).Msg("server.Listener adapter exit")
		}
	}()

	l.logger.Info().Str("remote", pair.Remote).Msg("server.Listener accepted")
	select {
	case sessions <- pair:
	case <-ctx.Done():
		close(pair.Out)
	case <-l.done:
		close(pair.Out)
	}
}

// Active reports connections whose adapter is still running.
func (l *Listener) Active() int {
	l.connsMu.Lock()
	defer l.connsMu.Unlock()
	return len(l.conns)
}

func (l *Listener) track(conn net.Conn) {
	l.connsMu.Lock()
	defer l.connsMu.Unlock()
	l.conns[conn] = struct{}{}
}

func (l *Listener) untrack(conn net.Conn) {
	l.connsMu.Lock()
	defer l.connsMu.Unlock()
	delete(l.conns, conn)
}

package server

import (
	"context"
	"fmt"
	"net"
	"strings"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"github.com/danmuck/cribbage/internal/protocol/session"
	"github.com/danmuck/cribbage/internal/table"
)

// Config is the runtime shape of one table process.
type Config struct {
	ListenAddr string
	// AdminAddr empty disables the admin API.
	AdminAddr   string
	CorsOrigins []string
	Table       table.Config
	Session     session.Config
}

// Run listens on cfg.ListenAddr and plays one game to completion.
func Run(ctx context.Context, cfg Config, engine table.Engine) error {
	ln, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("server: listen %s: %w", cfg.ListenAddr, err)
	}
	return Serve(ctx, cfg, engine, ln)
}

// Serve plays one game with players accepted from ln. It returns the
// orchestrator's result once the listener, every adapter, and the admin API
// have stopped.
func Serve(ctx context.Context, cfg Config, engine table.Engine, ln net.Listener) error {
	// unbuffered so a pair is either admitted or released by the listener
	sessions := make(chan session.Pair)
	orch, err := table.New(cfg.Table, engine, sessions)
	if err != nil {
		_ = ln.Close()
		return err
	}
	logger := log.Logger.With().Str("game_id", orch.ID()).Logger()
	logger.Info().
		Str("addr", ln.Addr().String()).
		Int("players", cfg.Table.WithDefaults().Players).
		Msg("server.Serve start")

	g, gctx := errgroup.WithContext(ctx)
	listener := NewListener(cfg.Session, orch.Done())

	g.Go(func() error {
		return orch.Run(gctx)
	})
	g.Go(func() error {
		return listener.Serve(gctx, ln, sessions)
	})
	if addr := strings.TrimSpace(cfg.AdminAddr); addr != "" {
		admin := NewAdmin(orch.ID(), cfg.CorsOrigins, orch)
		g.Go(func() error {
			return admin.Serve(gctx, addr)
		})
	}

	err = g.Wait()
	if err != nil {
		logger.Error().Err(err).Msg("server.Serve failed")
		return err
	}
	logger.Info().Msg("server.Serve finished")
	return nil
}

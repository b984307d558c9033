package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/cribbage/internal/client"
	"github.com/danmuck/cribbage/internal/config"
	"github.com/danmuck/cribbage/internal/logging"
)

func main() {
	path := flag.String("config", "", "client TOML config (optional)")
	addr := flag.String("addr", "", "server address, overrides config")
	name := flag.String("name", "", "player name, overrides config")
	strategy := flag.String("strategy", "", "discard strategy: lowest|highest")
	flag.Parse()
	logging.ConfigureRuntime()

	cfg, err := loadClientConfig(*path)
	if err != nil {
		fail(err)
	}
	if *addr != "" {
		cfg.Addr = *addr
	}
	if *name != "" {
		cfg.Name = *name
	}
	if *strategy != "" {
		cfg.Strategy = strings.ToLower(*strategy)
	}
	if err := config.ValidateClientConfig(cfg); err != nil {
		fail(err)
	}
	if err := run(cfg); err != nil {
		fail(err)
	}
}

func fail(err error) {
	fmt.Fprintf(os.Stderr, "cribclient: %v\n", err)
	os.Exit(1)
}

func run(cfg config.ClientConfig) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if cfg.TimeoutMS > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(cfg.TimeoutMS)*time.Millisecond)
		defer cancel()
	}

	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", cfg.Addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", cfg.Addr, err)
	}
	defer conn.Close()

	ts, err := client.Play(ctx, conn, strategyFor(cfg))
	if errors.Is(err, client.ErrDenied) {
		log.Warn().Str("addr", cfg.Addr).Msg("cribclient table full, watching denied")
		return nil
	}
	if err != nil {
		return err
	}
	log.Info().
		Str("name", cfg.Name).
		Int("messages", len(ts.Messages)).
		Str("hand", handString(ts)).
		Msg("cribclient game over")
	return nil
}

func strategyFor(cfg config.ClientConfig) client.Strategy {
	s := client.Strategy{
		Name:  cfg.Name,
		Think: time.Duration(cfg.ThinkMS) * time.Millisecond,
	}
	if cfg.Strategy == config.StrategyHighest {
		s.Discard = client.HighestFirst
	}
	return s
}

func handString(ts client.Transcript) string {
	parts := make([]string, 0, len(ts.Hand))
	for _, c := range ts.Hand {
		parts = append(parts, c.String())
	}
	return strings.Join(parts, " ")
}

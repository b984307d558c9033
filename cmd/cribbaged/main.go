package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"

	"github.com/danmuck/cribbage/internal/config"
	"github.com/danmuck/cribbage/internal/logging"
	"github.com/danmuck/cribbage/internal/rules"
	"github.com/danmuck/cribbage/internal/server"
)

func usage() {
	fmt.Fprintf(flag.CommandLine.Output(),
		"usage: cribbaged [-config path] [port [players [manual underpegging muggins overpegging]]]\n")
	flag.PrintDefaults()
}

func main() {
	path := flag.String("config", "", "server TOML config (optional)")
	flag.Usage = usage
	flag.Parse()
	logging.ConfigureRuntime()

	if err := run(*path, flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "cribbaged: %v\n", err)
		os.Exit(1)
	}
}

func run(path string, args []string) error {
	cfg, err := loadConfig(path, args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Info().
		Str("addr", cfg.ListenAddr()).
		Int("players", cfg.Players).
		Interface("rules", cfg.Options()).
		Msg("cribbaged start")
	err = server.Run(ctx, cfg.Runtime(), rules.NewGame())
	if errors.Is(err, context.Canceled) {
		log.Info().Msg("cribbaged interrupted")
		return nil
	}
	return err
}

func loadConfig(path string, args []string) (config.ServerConfig, error) {
	cfg, err := config.LoadServerConfig(path)
	if err != nil {
		return config.ServerConfig{}, err
	}
	if err := cfg.ApplyArgs(args); err != nil {
		return config.ServerConfig{}, err
	}
	if err := config.ValidateServerConfig(cfg); err != nil {
		return config.ServerConfig{}, err
	}
	return cfg, nil
}

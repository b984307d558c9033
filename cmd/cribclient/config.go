package main

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/danmuck/cribbage/internal/config"
)

// cribclient config.toml key mapping to the client profile.
type fileConfig struct {
	Addr      string `toml:"addr"`
	Name      string `toml:"name"`
	Strategy  string `toml:"strategy"`
	ThinkMS   int    `toml:"think_ms"`
	TimeoutMS int    `toml:"timeout_ms"`
}

// loadClientConfig overlays the keys present in path onto the defaults.
func loadClientConfig(path string) (config.ClientConfig, error) {
	cfg := config.DefaultClientConfig()
	if strings.TrimSpace(path) == "" {
		return cfg, nil
	}

	var raw fileConfig
	meta, err := toml.DecodeFile(path, &raw)
	if err != nil {
		return config.ClientConfig{}, fmt.Errorf("load client config: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return config.ClientConfig{}, fmt.Errorf("load client config: unknown key %q", undecoded[0].String())
	}

	if meta.IsDefined("addr") {
		cfg.Addr = strings.TrimSpace(raw.Addr)
	}
	if meta.IsDefined("name") {
		cfg.Name = strings.TrimSpace(raw.Name)
	}
	if meta.IsDefined("strategy") {
		cfg.Strategy = strings.ToLower(strings.TrimSpace(raw.Strategy))
	}
	if meta.IsDefined("think_ms") {
		cfg.ThinkMS = raw.ThinkMS
	}
	if meta.IsDefined("timeout_ms") {
		cfg.TimeoutMS = raw.TimeoutMS
	}
	return cfg, nil
}

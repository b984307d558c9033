package config

import (
	"fmt"
	"net"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/pelletier/go-toml/v2"

	"github.com/danmuck/cribbage/internal/protocol/session"
	"github.com/danmuck/cribbage/internal/rules"
	"github.com/danmuck/cribbage/internal/server"
	"github.com/danmuck/cribbage/internal/table"
)

// RuleConfig mirrors rules.Options for files and env.
type RuleConfig struct {
	ManualScoring bool `toml:"manual_scoring" env:"CRIBBAGE_MANUAL_SCORING"`
	Underpegging  bool `toml:"underpegging" env:"CRIBBAGE_UNDERPEGGING"`
	Muggins       bool `toml:"muggins" env:"CRIBBAGE_MUGGINS"`
	Overpegging   bool `toml:"overpegging" env:"CRIBBAGE_OVERPEGGING"`
}

type SessionConfig struct {
	QueueDepth     int `toml:"queue_depth" env:"CRIBBAGE_SESSION_QUEUE_DEPTH"`
	WriteTimeoutMS int `toml:"write_timeout_ms" env:"CRIBBAGE_SESSION_WRITE_TIMEOUT_MS"`
	AckTimeoutMS   int `toml:"ack_timeout_ms" env:"CRIBBAGE_SESSION_ACK_TIMEOUT_MS"`
}

type ServerConfig struct {
	Host        string        `toml:"host" env:"CRIBBAGE_HOST"`
	Port        int           `toml:"port" env:"CRIBBAGE_PORT"`
	Players     int           `toml:"players" env:"CRIBBAGE_PLAYERS"`
	AdminAddr   string        `toml:"admin_addr" env:"CRIBBAGE_ADMIN_ADDR"`
	CorsOrigins []string      `toml:"cors_origins" env:"CRIBBAGE_CORS_ORIGINS" envSeparator:","`
	IdleWaitMS  int           `toml:"idle_wait_ms" env:"CRIBBAGE_IDLE_WAIT_MS"`
	Rules       RuleConfig    `toml:"rules"`
	Session     SessionConfig `toml:"session"`
}

// ClientConfig is the scripted client profile.
type ClientConfig struct {
	Addr     string `toml:"addr"`
	Name     string `toml:"name"`
	Strategy string `toml:"strategy"`
	ThinkMS  int    `toml:"think_ms"`
	// TimeoutMS bounds the whole game; zero waits forever.
	TimeoutMS int `toml:"timeout_ms"`
}

const (
	StrategyLowest  = "lowest"
	StrategyHighest = "highest"
)

func DefaultServerConfig() ServerConfig {
	sess := session.DefaultConfig()
	return ServerConfig{
		Host:        "0.0.0.0",
		Port:        8420,
		Players:     2,
		AdminAddr:   "127.0.0.1:8421",
		CorsOrigins: []string{"http://localhost:3000"},
		IdleWaitMS:  2,
		Session: SessionConfig{
			QueueDepth:     sess.QueueDepth,
			WriteTimeoutMS: int(sess.WriteTimeout / time.Millisecond),
		},
	}
}

func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		Addr:     "127.0.0.1:8420",
		Strategy: StrategyLowest,
	}
}

// LoadServerConfig layers defaults, the TOML file at path (skipped when path
// is empty), and CRIBBAGE_* environment overrides, then validates.
func LoadServerConfig(path string) (ServerConfig, error) {
	cfg := DefaultServerConfig()
	if strings.TrimSpace(path) != "" {
		if err := loadToml(path, &cfg); err != nil {
			return ServerConfig{}, err
		}
	}
	if err := ParseEnv(&cfg); err != nil {
		return ServerConfig{}, err
	}
	if err := ValidateServerConfig(cfg); err != nil {
		return ServerConfig{}, err
	}
	return cfg, nil
}

func LoadClientConfig(path string) (ClientConfig, error) {
	cfg := DefaultClientConfig()
	if err := loadToml(path, &cfg); err != nil {
		return ClientConfig{}, err
	}
	if err := ValidateClientConfig(cfg); err != nil {
		return ClientConfig{}, err
	}
	return cfg, nil
}

func loadToml(path string, out any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	return nil
}

// ParseEnv overlays environment variables onto target. Unset variables keep
// the current field values.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// ApplyArgs overlays positional arguments in the order
// port players manual underpegging muggins overpegging. Missing trailing
// arguments keep their current values.
func (c *ServerConfig) ApplyArgs(args []string) error {
	if len(args) > 6 {
		return fmt.Errorf("too many arguments: got=%d max=6", len(args))
	}
	if len(args) > 0 {
		port, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("port %q: %w", args[0], err)
		}
		c.Port = port
	}
	if len(args) > 1 {
		players, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("players %q: %w", args[1], err)
		}
		c.Players = players
	}
	toggles := []*bool{&c.Rules.ManualScoring, &c.Rules.Underpegging, &c.Rules.Muggins, &c.Rules.Overpegging}
	for i, arg := range args[min(len(args), 2):] {
		v, err := strconv.ParseBool(arg)
		if err != nil {
			return fmt.Errorf("rule toggle %d %q: %w", i+1, arg, err)
		}
		*toggles[i] = v
	}
	return nil
}

func ValidateServerConfig(cfg ServerConfig) error {
	if cfg.Port < 0 || cfg.Port > 65535 {
		return fmt.Errorf("server config port out of range: %d", cfg.Port)
	}
	if cfg.Players < rules.MinPlayers || cfg.Players > rules.MaxPlayers {
		return fmt.Errorf("server config players must be %d..%d: got=%d", rules.MinPlayers, rules.MaxPlayers, cfg.Players)
	}
	if addr := strings.TrimSpace(cfg.AdminAddr); addr != "" {
		if _, _, err := net.SplitHostPort(addr); err != nil {
			return fmt.Errorf("server config admin_addr invalid: %w", err)
		}
	}
	if cfg.IdleWaitMS < 0 {
		return fmt.Errorf("server config idle_wait_ms negative: %d", cfg.IdleWaitMS)
	}
	if cfg.Session.QueueDepth < 1 {
		return fmt.Errorf("server config session queue_depth must be positive: %d", cfg.Session.QueueDepth)
	}
	if cfg.Session.WriteTimeoutMS < 0 || cfg.Session.AckTimeoutMS < 0 {
		return fmt.Errorf("server config session timeouts must not be negative")
	}
	return nil
}

func ValidateClientConfig(cfg ClientConfig) error {
	if strings.TrimSpace(cfg.Addr) == "" {
		return fmt.Errorf("client config missing addr")
	}
	if strings.TrimSpace(cfg.Name) == "" {
		return fmt.Errorf("client config missing name")
	}
	switch cfg.Strategy {
	case StrategyLowest, StrategyHighest:
	default:
		return fmt.Errorf("client config unknown strategy %q", cfg.Strategy)
	}
	if cfg.ThinkMS < 0 || cfg.TimeoutMS < 0 {
		return fmt.Errorf("client config durations must not be negative")
	}
	return nil
}

func (c ServerConfig) ListenAddr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

func (c ServerConfig) Options() rules.Options {
	return rules.Options{
		ManualScoring: c.Rules.ManualScoring,
		Underpegging:  c.Rules.Underpegging,
		Muggins:       c.Rules.Muggins,
		Overpegging:   c.Rules.Overpegging,
	}
}

// Runtime converts the file shape into the server's runtime config.
func (c ServerConfig) Runtime() server.Config {
	sess := session.DefaultConfig()
	sess.QueueDepth = c.Session.QueueDepth
	sess.WriteTimeout = time.Duration(c.Session.WriteTimeoutMS) * time.Millisecond
	sess.AckTimeout = time.Duration(c.Session.AckTimeoutMS) * time.Millisecond
	return server.Config{
		ListenAddr:  c.ListenAddr(),
		AdminAddr:   strings.TrimSpace(c.AdminAddr),
		CorsOrigins: c.CorsOrigins,
		Table: table.Config{
			Players:  c.Players,
			Options:  c.Options(),
			IdleWait: time.Duration(c.IdleWaitMS) * time.Millisecond,
		},
		Session: sess,
	}
}

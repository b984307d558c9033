package session

import (
	"time"

	"github.com/danmuck/cribbage/internal/protocol/frame"
)

// Config defines adapter queue and transport limits.
type Config struct {
	QueueDepth   int
	WriteTimeout time.Duration
	// AckTimeout > 0 turns a peer that never acks into a transport failure.
	// Zero waits forever.
	AckTimeout time.Duration
	Limits     frame.Limits
}

func DefaultConfig() Config {
	return Config{
		QueueDepth:   64,
		WriteTimeout: 10 * time.Second,
		AckTimeout:   0,
		Limits:       frame.DefaultLimits(),
	}
}

func (c Config) WithDefaults() Config {
	d := DefaultConfig()
	if c.QueueDepth <= 0 {
		c.QueueDepth = d.QueueDepth
	}
	if c.WriteTimeout < 0 {
		c.WriteTimeout = 0
	}
	if c.AckTimeout < 0 {
		c.AckTimeout = 0
	}
	if c.Limits.MaxPayloadBytes == 0 {
		c.Limits = d.Limits
	}
	return c
}

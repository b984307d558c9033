package config

import (
	"fmt"
	"os"
	"strings"
)

func Template(kind string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "server":
		return serverTemplate, nil
	case "client":
		return clientTemplate, nil
	default:
		return "", fmt.Errorf("unknown config kind: %s", kind)
	}
}

func WriteTemplate(path, kind string, overwrite bool) error {
	template, err := Template(kind)
	if err != nil {
		return err
	}
	if !overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config already exists: %s", path)
		}
	}
	return os.WriteFile(path, []byte(template), 0o600)
}

// Validate loads path as the given kind and reports the first problem.
func Validate(path, kind string) error {
	switch strings.ToLower(strings.TrimSpace(kind)) {
	case "server":
		_, err := LoadServerConfig(path)
		return err
	case "client":
		_, err := LoadClientConfig(path)
		return err
	default:
		return fmt.Errorf("unknown config kind: %s", kind)
	}
}

const serverTemplate = `host = "0.0.0.0"
port = 8420
players = 2
admin_addr = "127.0.0.1:8421"
cors_origins = ["http://localhost:3000"]
idle_wait_ms = 2

[rules]
manual_scoring = false
underpegging = false
muggins = false
overpegging = false

[session]
queue_depth = 64
write_timeout_ms = 10000
ack_timeout_ms = 0
`

const clientTemplate = `addr = "127.0.0.1:8420"
name = "player"
strategy = "lowest"
think_ms = 0
timeout_ms = 0
`

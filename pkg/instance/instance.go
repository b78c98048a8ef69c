package instance

import (
	"os"
	"strings"
)

// EnvTerminalID names the till running this process.
const EnvTerminalID = "COLCHONES_TERMINAL_ID"

const fallbackID = "caja-0"

// GetID returns the terminal identifier, falling back to the hostname.
func GetID() string {
	if id := strings.TrimSpace(os.Getenv(EnvTerminalID)); id != "" {
		return id
	}
	if host, err := os.Hostname(); err == nil && host != "" {
		return host
	}
	return fallbackID
}

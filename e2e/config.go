package e2e

import (
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	// E2E_SERVER_URL points at a running server, e.g. ws://127.0.0.1:8080/ws.
	// The suite is skipped when it is empty.
	ServerURL string `envconfig:"E2E_SERVER_URL"`
	// E2E_ORIGIN is the origin sent on the websocket handshake
	Origin string `envconfig:"E2E_ORIGIN" default:"http://127.0.0.1:8080"`
	// E2E_DEBUG_JSON allows dumping every frame on the wire
	DebugJSON bool `envconfig:"E2E_DEBUG_JSON" default:"false"`
	// E2E_COLOURS enables colorized output for better log readability
	Colours bool `envconfig:"E2E_COLOURS" default:"true"`
}

func LoadConfig() (Config, error) {
	var cfg Config
	err := envconfig.Process("", &cfg)
	return cfg, err
}

// Package config loads gateway configuration from the environment.
package config

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/FreePeak/db-mcp-gateway/internal/domain"
)

// Environment variables read at startup.
const (
	EnvAuthToken = "DBGW_AUTH_TOKEN"
	EnvAPIKey    = "DBCLOUD_API_KEY"
	EnvAPIURL    = "DBCLOUD_API_URL"
	EnvPort      = "PORT"
)

const (
	// DefaultAPIURL is the production management API endpoint.
	DefaultAPIURL = "https://api.dbcloud.io/v2"

	defaultPort = 3000
)

// Config holds the runtime configuration of the gateway process.
type Config struct {
	// AuthToken is the shared secret the auth gate checks bearer
	// credentials against.
	AuthToken string
	// APIKey authenticates the gateway to the upstream management API.
	APIKey string
	// APIURL is the base URL of the upstream management API.
	APIURL string
	// Port is the HTTP listen port.
	Port int
}

// Load reads configuration from the environment. A missing auth token or
// API key is a startup error; the process must refuse to run without them.
func Load() (*Config, error) {
	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault(EnvPort, defaultPort)
	v.SetDefault(EnvAPIURL, DefaultAPIURL)

	cfg := &Config{
		AuthToken: v.GetString(EnvAuthToken),
		APIKey:    v.GetString(EnvAPIKey),
		APIURL:    v.GetString(EnvAPIURL),
		Port:      v.GetInt(EnvPort),
	}

	if cfg.AuthToken == "" {
		return nil, domain.NewStartupError(EnvAuthToken + " is not set; refusing to start unauthenticated")
	}
	if cfg.APIKey == "" {
		return nil, domain.NewStartupError(EnvAPIKey + " is not set")
	}

	return cfg, nil
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

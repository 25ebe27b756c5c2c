// Package client writes the local configuration that registers this
// gateway with a desktop MCP client.
package client

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// ClaudeDesktopConfig manages the Claude Desktop configuration file.
type ClaudeDesktopConfig struct {
	path string
}

// NewClaudeDesktopConfig creates a writer for the config file at path.
func NewClaudeDesktopConfig(path string) *ClaudeDesktopConfig {
	return &ClaudeDesktopConfig{path: path}
}

// DefaultConfigPath returns the per-user Claude Desktop config location.
func DefaultConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolving user config dir: %w", err)
	}
	return filepath.Join(configDir, "Claude", "claude_desktop_config.json"), nil
}

// Write merges a server entry under mcpServers, preserving everything
// else already in the file.
func (c *ClaudeDesktopConfig) Write(serverName, gatewayURL, authToken string) error {
	config := map[string]interface{}{}

	if data, err := os.ReadFile(c.path); err == nil {
		if err := json.Unmarshal(data, &config); err != nil {
			return fmt.Errorf("existing config at %s is not valid JSON: %w", c.path, err)
		}
	} else if !os.IsNotExist(err) {
		return err
	}

	mcpServers, _ := config["mcpServers"].(map[string]interface{})
	if mcpServers == nil {
		mcpServers = map[string]interface{}{}
	}

	mcpServers[serverName] = map[string]interface{}{
		"url": gatewayURL + "/stream",
		"headers": map[string]string{
			"Authorization": "Bearer " + authToken,
		},
	}
	config["mcpServers"] = mcpServers

	data, err := json.MarshalIndent(config, "", "  ")
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(c.path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(c.path, append(data, '\n'), 0o600)
}

package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FreePeak/db-mcp-gateway/internal/domain"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv(EnvAuthToken, "s3cr3t")
	t.Setenv(EnvAPIKey, "api-key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "s3cr3t", cfg.AuthToken)
	assert.Equal(t, "api-key", cfg.APIKey)
	assert.Equal(t, DefaultAPIURL, cfg.APIURL)
	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, ":3000", cfg.Addr())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv(EnvAuthToken, "s3cr3t")
	t.Setenv(EnvAPIKey, "api-key")
	t.Setenv(EnvAPIURL, "http://localhost:9999/v2")
	t.Setenv(EnvPort, "8080")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:9999/v2", cfg.APIURL)
	assert.Equal(t, ":8080", cfg.Addr())
}

func TestLoadMissingAuthTokenIsFatal(t *testing.T) {
	t.Setenv(EnvAuthToken, "")
	t.Setenv(EnvAPIKey, "api-key")

	_, err := Load()
	require.Error(t, err)

	var gatewayErr *domain.Error
	require.True(t, errors.As(err, &gatewayErr))
	assert.Equal(t, domain.KindStartupError, gatewayErr.Kind)
}

func TestLoadMissingAPIKey(t *testing.T) {
	t.Setenv(EnvAuthToken, "s3cr3t")
	t.Setenv(EnvAPIKey, "")

	_, err := Load()
	require.Error(t, err)

	var gatewayErr *domain.Error
	require.True(t, errors.As(err, &gatewayErr))
	assert.Equal(t, domain.KindStartupError, gatewayErr.Kind)
}

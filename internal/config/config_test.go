package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dfalconiUTC/api-midd-facturacion/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	path := writeConfig(t, `
authority:
  base_url: https://sri-middleware.example.com
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Second, cfg.Authority.Timeout)
	assert.Equal(t, "data/facturacion.db", cfg.Database.Path)
	assert.Equal(t, "info", cfg.Logger.Level)
}

func TestLoad_FileOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
authority:
  base_url: https://sri-middleware.example.com
  timeout: 10s
database:
  path: /tmp/facturas.db
`)

	cfg, err := config.Load(path)
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 10*time.Second, cfg.Authority.Timeout)
	assert.Equal(t, "/tmp/facturas.db", cfg.Database.Path)
}

func TestLoad_MissingAuthorityURL(t *testing.T) {
	path := writeConfig(t, `
server:
  port: 9090
`)

	_, err := config.Load(path)
	assert.Error(t, err)
}

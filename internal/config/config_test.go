package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/signalalpha/hitbtc-go/pkg/hitbtc"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "log:\n  level: debug\n"))
	require.NoError(t, err)

	assert.Equal(t, hitbtc.V2, cfg.HitBTC.Version())
	assert.Equal(t, hitbtc.Live, cfg.HitBTC.Environment())
	assert.Equal(t, 100*time.Millisecond, cfg.HitBTC.Throttle)
	assert.False(t, cfg.HitBTC.HasCredentials())
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, time.Minute, cfg.Sync.Interval)
	assert.Equal(t, []string{"ETHBTC"}, cfg.Sync.Symbols)
}

func TestLoad_FileValues(t *testing.T) {
	path := writeConfig(t, `
hitbtc:
  api_key: k
  api_secret: s
  api_version: 1
  env: demo
  throttle: 250ms
database:
  host: db
  port: 5433
  dbname: trades
sync:
  interval: 30s
  symbols: [ETHBTC, LTCBTC]
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, hitbtc.V1, cfg.HitBTC.Version())
	assert.Equal(t, hitbtc.Demo, cfg.HitBTC.Environment())
	assert.Equal(t, 250*time.Millisecond, cfg.HitBTC.Throttle)
	assert.True(t, cfg.HitBTC.HasCredentials())
	assert.Equal(t, "db", cfg.Database.Host)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, "postgres", cfg.Database.User)
	assert.Equal(t, []string{"ETHBTC", "LTCBTC"}, cfg.Sync.Symbols)
	assert.NoError(t, ValidateSync(cfg))
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	t.Setenv("HITBTC_API_KEY", "env-key")
	t.Setenv("HITBTC_API_SECRET", "env-secret")
	t.Setenv("HITBTC_ENV", "demo")

	cfg, err := Load(writeConfig(t, "hitbtc:\n  api_key: file-key\n  api_secret: file-secret\n"))
	require.NoError(t, err)

	assert.Equal(t, "env-key", cfg.HitBTC.APIKey)
	assert.Equal(t, "env-secret", cfg.HitBTC.APISecret)
	assert.Equal(t, hitbtc.Demo, cfg.HitBTC.Environment())
}

func TestLoad_Invalid(t *testing.T) {
	tests := map[string]string{
		"half credentials": "hitbtc:\n  api_key: k\n",
		"bad version":      "hitbtc:\n  api_version: 3\n",
		"bad env":          "hitbtc:\n  env: staging\n",
		"bad log output":   "log:\n  output: syslog\n",
	}

	for name, content := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, content))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestValidateSync_RequiresCredentials(t *testing.T) {
	cfg, err := Load(writeConfig(t, "log:\n  level: info\n"))
	require.NoError(t, err)
	assert.Error(t, ValidateSync(cfg))
}

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	t.Setenv("TEST_REDIS_PASSWORD", "s3cret")
	path := writeConfig(t, `
server:
  port: "9090"
  trustProxy: true
redis:
  addr: localhost:6379
  password: ${TEST_REDIS_PASSWORD}
quiz:
  ttl: 5m
  course: cpa
  lenient: true
catalog:
  - abbr: FAR
    name: Financial Accounting and Reporting
  - abbr: TAX
    name: Taxation
checkIn:
  timezone: Asia/Manila
contact:
  limit: 3
  window: 30m
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "9090", cfg.Server.Port)
	assert.True(t, cfg.Server.TrustProxy)
	assert.Equal(t, "s3cret", cfg.Redis.Password)
	assert.True(t, cfg.Quiz.Lenient)
	require.Len(t, cfg.Catalog, 2)
	assert.Equal(t, "TAX", cfg.Catalog[1].Abbr)
	assert.Equal(t, "Asia/Manila", cfg.Location().String())

	limit, window := cfg.ContactLimit()
	assert.Equal(t, 3, limit)
	assert.Equal(t, 30*time.Minute, window)
}

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "server:\n  port: \"8080\"\n"))
	require.NoError(t, err)

	limit, window := cfg.ContactLimit()
	assert.Equal(t, 5, limit)
	assert.Equal(t, time.Hour, window)
	assert.Equal(t, "cpa", cfg.Course())
	assert.Equal(t, time.Local, cfg.Location())
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := map[string]string{
		"duplicate subject": "catalog:\n  - abbr: FAR\n  - abbr: FAR\n",
		"missing abbr":      "catalog:\n  - name: Auditing\n",
		"bad timezone":      "checkIn:\n  timezone: Mars/Olympus\n",
		"bad yaml":          "server: [",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			assert.Error(t, err)
		})
	}
}

func TestTTLDuration(t *testing.T) {
	assert.Equal(t, time.Minute, TTLDuration("", time.Minute))
	assert.Equal(t, time.Minute, TTLDuration("nonsense", time.Minute))
	assert.Equal(t, 90*time.Second, TTLDuration("90s", time.Minute))
}

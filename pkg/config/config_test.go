package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)
	t.Setenv("ROSTER_CACHE_TTL", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, time.Minute, cfg.Cache.TTL)
	assert.Equal(t, 30*time.Second, cfg.Enrollment.TxTimeout)
	assert.Equal(t, 30*24*time.Hour, cfg.Duplicates.RecentWindow)
}

func TestLoadOverrides(t *testing.T) {
	chdirTemp(t)
	t.Setenv("ENROLLMENT_TX_TIMEOUT", "45s")
	t.Setenv("ROSTER_CACHE_TTL", "bogus")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, ,https://b.example")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 45*time.Second, cfg.Enrollment.TxTimeout)
	assert.Equal(t, time.Minute, cfg.Cache.TTL)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORS.AllowedOrigins)
}

func TestDatabaseDSNEscapesCredentials(t *testing.T) {
	dsn := DatabaseConfig{Host: "db", Port: 5433, User: "roster", Password: "p@ss word", Name: "school", SSLMode: "require"}.DSN()
	assert.Equal(t, "postgres://roster:p%40ss%20word@db:5433/school?application_name=school-roster-api&sslmode=require", dsn)
	assert.Equal(t, "cache:6380", RedisConfig{Host: "cache", Port: 6380}.Addr())
}

func chdirTemp(t *testing.T) {
	t.Helper()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })
}

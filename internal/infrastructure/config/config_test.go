package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/coldroute-go/internal/infrastructure/config"
)

func TestLoadConfig_Defaults(t *testing.T) {
	cfg, err := config.LoadConfig(writeConfig(t, "server:\n  address: \":9000\"\n"))
	require.NoError(t, err)

	assert.Equal(t, ":9000", cfg.Server.Address)
	assert.Equal(t, 30*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, []string{"*"}, cfg.Server.CORSOrigins)
	assert.Equal(t, "postgres", cfg.Database.Type)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, 30, cfg.Database.Pool.MaxOpen())
	assert.Equal(t, "redis://localhost:6379/0", cfg.Redis.URL)
	assert.Equal(t, 2, cfg.Redis.Concurrency)
	assert.Equal(t, 1440, cfg.Auth.TokenExpiryMinutes)
	assert.Equal(t, 300, cfg.Solver.DefaultTimeLimitSeconds)
	assert.InDelta(t, 30.0, cfg.Solver.DefaultAmbientTemperature, 1e-9)
	assert.InDelta(t, -5.0, cfg.Solver.DefaultInitialVehicleTemp, 1e-9)
	assert.EqualValues(t, 50000, cfg.Solver.VehicleFixedCost)
	assert.EqualValues(t, 10000000, cfg.Solver.InfeasibleCost)
	assert.Equal(t, 10*time.Second, cfg.Worker.ProgressInterval)
}

func TestLoadConfig_FileValues(t *testing.T) {
	path := writeConfig(t, `
database:
  type: sqlite
  path: ":memory:"
solver:
  default_time_limit_seconds: 120
  average_speed_kmh: 45
redis:
  concurrency: 4
`)
	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Type)
	assert.Equal(t, ":memory:", cfg.Database.Path)
	assert.Equal(t, 120, cfg.Solver.DefaultTimeLimitSeconds)
	assert.InDelta(t, 45.0, cfg.Solver.AverageSpeedKmh, 1e-9)
	assert.Equal(t, 4, cfg.Redis.Concurrency)
}

func TestLoadConfig_LegacyEnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgresql://legacy:pw@db.internal:5432/coldroute")
	t.Setenv("SECRET_KEY", "legacy-secret")
	t.Setenv("DEFAULT_SOLVER_TIME_LIMIT", "90")

	cfg, err := config.LoadConfig(writeConfig(t, "database:\n  type: postgres\n"))
	require.NoError(t, err)

	assert.Equal(t, "postgresql://legacy:pw@db.internal:5432/coldroute", cfg.Database.URL)
	assert.Equal(t, "legacy-secret", cfg.Auth.SecretKey)
	assert.Equal(t, 90, cfg.Solver.DefaultTimeLimitSeconds)
}

func TestLoadConfig_RejectsBadDatabaseType(t *testing.T) {
	_, err := config.LoadConfig(writeConfig(t, "database:\n  type: oracle\n"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid configuration")
}

func TestLoadConfig_RejectsBadSSLMode(t *testing.T) {
	_, err := config.LoadConfig(writeConfig(t, "database:\n  sslmode: maybe\n"))
	assert.Error(t, err)
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "carewise", cfg.Database.Database)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)

	assert.Equal(t, "polling", cfg.Staffing.TriggerMode)
	assert.Equal(t, 3600, cfg.Staffing.Polling.Interval)
	assert.Equal(t, "staffing:events", cfg.Staffing.EventStream)
	assert.Equal(t, "staffing-engine-group", cfg.Staffing.ConsumerGroup)
	assert.Equal(t, 10, cfg.Staffing.BatchSize)
	assert.Equal(t, 3600, cfg.Staffing.CacheTTL)
	assert.False(t, cfg.Staffing.ApplySchedule)
	assert.Empty(t, cfg.Staffing.SectionID)
	assert.Empty(t, cfg.Staffing.ResultStream)

	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "5433")
	t.Setenv("FACILITY_ID", "fac-42")
	t.Setenv("STAFFING_SECTION_ID", "wing-a")
	t.Setenv("STAFFING_RESULT_STREAM", "staffing:runs")
	t.Setenv("STAFFING_TRIGGER_MODE", "events")
	t.Setenv("STAFFING_POLLING_INTERVAL", "120")
	t.Setenv("STAFFING_APPLY_SCHEDULE", "true")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, "fac-42", cfg.Staffing.FacilityID)
	assert.Equal(t, "wing-a", cfg.Staffing.SectionID)
	assert.Equal(t, "staffing:runs", cfg.Staffing.ResultStream)
	assert.Equal(t, "events", cfg.Staffing.TriggerMode)
	assert.Equal(t, 120, cfg.Staffing.Polling.Interval)
	assert.True(t, cfg.Staffing.ApplySchedule)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestGetDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host: "localhost", Port: 5432, User: "postgres",
		Password: "secret", Database: "carewise", SSLMode: "disable",
	}
	assert.Equal(t,
		"host=localhost port=5432 user=postgres password=secret dbname=carewise sslmode=disable",
		cfg.GetDSN())
}

func TestGetEnvIntInvalid(t *testing.T) {
	t.Setenv("DB_PORT", "not-a-number")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 5432, cfg.Database.Port)
}

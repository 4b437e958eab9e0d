package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/praxisworks/simforge/internal/config"
	"github.com/praxisworks/simforge/internal/resilience"
)

func TestLoadMissingFileFallsBackToDefaults(t *testing.T) {
	cfg, err := config.Load(filepath.Join(t.TempDir(), "nope.yml"))
	require.NoError(t, err)
	require.Equal(t, ":7440", cfg.ListenAddr)
	require.Equal(t, "simforge.db", cfg.DatabasePath)
	require.Equal(t, 1024, cfg.HistoryLimit)
	require.Equal(t, 30, cfg.Simulation.MaxExecutionTimeMinutes)
	require.True(t, cfg.Simulation.EnableDocumentGen)
}

func TestLoadMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "simforge.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
listen_addr: "127.0.0.1:9000"
event_history_limit: 256
breakers:
  critical:
    failure_threshold: 2
simulation:
  max_execution_time_minutes: 5
`), 0644))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	require.Equal(t, "127.0.0.1:9000", cfg.ListenAddr)
	require.Equal(t, 256, cfg.HistoryLimit)
	require.Equal(t, "simforge.db", cfg.DatabasePath, "unset fields keep their defaults")
	require.Equal(t, 5, cfg.Simulation.MaxExecutionTimeMinutes)
	require.Equal(t, 2, cfg.Breakers.Critical.FailureThreshold)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "simforge.yml")
	require.NoError(t, os.WriteFile(path, []byte(`
simulation:
  max_execution_time_minutes: 0
`), 0644))

	_, err := config.Load(path)
	require.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte("listen_addr: [not, a, string]\n"), 0644))
	_, err = config.Load(path)
	require.Error(t, err)
}

func TestBreakerSettingsMergeTierDefaults(t *testing.T) {
	cfg := config.Default()
	cfg.Breakers.Critical.FailureThreshold = 2
	cfg.Breakers.BestEffort.SuccessThreshold = 3

	byTier := cfg.BreakerSettings()

	critical := byTier[resilience.TierCritical]
	require.Equal(t, 2, critical.FailureThreshold)
	require.Equal(t, 10*time.Second, critical.RecoveryTimeout, "unset fields come from the tier default")
	require.Equal(t, 1, critical.SuccessThreshold)

	bestEffort := byTier[resilience.TierBestEffort]
	require.Equal(t, 5, bestEffort.FailureThreshold)
	require.Equal(t, 3, bestEffort.SuccessThreshold)
}

// Package config loads the simforge.yml server configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/praxisworks/simforge/internal/resilience"
)

// BreakerConfig overrides the circuit breaker settings for one tier.
type BreakerConfig struct {
	FailureThreshold int           `yaml:"failure_threshold"`
	RecoveryTimeout  time.Duration `yaml:"recovery_timeout"`
	SuccessThreshold int           `yaml:"success_threshold"`
}

// Config models simforge.yml.
type Config struct {
	ListenAddr   string `yaml:"listen_addr"`
	SocketPath   string `yaml:"socket_path"`
	DatabasePath string `yaml:"database_path"`
	HistoryLimit int    `yaml:"event_history_limit"`

	Breakers struct {
		Critical   BreakerConfig `yaml:"critical"`
		BestEffort BreakerConfig `yaml:"best_effort"`
	} `yaml:"breakers"`

	Simulation struct {
		MaxExecutionTimeMinutes int  `yaml:"max_execution_time_minutes"`
		EnableDocumentGen       bool `yaml:"enable_document_generation"`
		EnableWorkflows         bool `yaml:"enable_workflow_execution"`
		EnableTeamDynamics      bool `yaml:"enable_team_dynamics"`
	} `yaml:"simulation"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{
		ListenAddr:   ":7440",
		DatabasePath: "simforge.db",
		HistoryLimit: 1024,
	}
	cfg.Simulation.MaxExecutionTimeMinutes = 30
	cfg.Simulation.EnableDocumentGen = true
	cfg.Simulation.EnableWorkflows = true
	cfg.Simulation.EnableTeamDynamics = true
	return cfg
}

// Load reads the config file at path, falling back to defaults when the file
// does not exist.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks required fields and ranges.
func (c *Config) Validate() error {
	if c.ListenAddr == "" {
		return fmt.Errorf("listen_addr is required")
	}
	if c.Simulation.MaxExecutionTimeMinutes < 1 {
		return fmt.Errorf("simulation.max_execution_time_minutes must be at least 1")
	}
	for tier, bc := range map[string]BreakerConfig{
		"critical": c.Breakers.Critical, "best_effort": c.Breakers.BestEffort,
	} {
		if bc.FailureThreshold < 0 || bc.SuccessThreshold < 0 || bc.RecoveryTimeout < 0 {
			return fmt.Errorf("breakers.%s values must be non-negative", tier)
		}
	}
	return nil
}

// BreakerSettings merges file overrides with the built-in tier defaults.
func (c *Config) BreakerSettings() map[resilience.Tier]resilience.Settings {
	merge := func(tier resilience.Tier, bc BreakerConfig) resilience.Settings {
		s := resilience.DefaultSettings(tier)
		if bc.FailureThreshold > 0 {
			s.FailureThreshold = bc.FailureThreshold
		}
		if bc.RecoveryTimeout > 0 {
			s.RecoveryTimeout = bc.RecoveryTimeout
		}
		if bc.SuccessThreshold > 0 {
			s.SuccessThreshold = bc.SuccessThreshold
		}
		return s
	}
	return map[resilience.Tier]resilience.Settings{
		resilience.TierCritical:   merge(resilience.TierCritical, c.Breakers.Critical),
		resilience.TierBestEffort: merge(resilience.TierBestEffort, c.Breakers.BestEffort),
	}
}

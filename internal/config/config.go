// Package config loads and validates the retrieval engine's YAML
// configuration.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// #region config
// Config is the engine configuration file. Zero values are replaced with
// defaults during Load.
type Config struct {
	// Learning
	LearningRate   float64 `yaml:"learning_rate"`
	DiscountFactor float64 `yaml:"discount_factor"`
	Epsilon        float64 `yaml:"epsilon"`

	// Traversal
	MaxHops            int     `yaml:"max_hops"`
	MaxPathsPerQuery   int     `yaml:"max_paths_per_query"`
	MaxSeeds           int     `yaml:"max_seeds"`
	LowRewardThreshold float64 `yaml:"low_reward_threshold"`
	MaxReasonableLen   int     `yaml:"max_reasonable_path_length"`

	// Training
	DefaultTrainingReward   float64 `yaml:"default_training_reward"`
	TrainingIntervalSeconds int     `yaml:"training_interval_seconds"`
	TrainingBackoffSeconds  int     `yaml:"training_backoff_seconds"`

	// Persistence
	SnapshotPath string `yaml:"q_table_snapshot_path"`
}

// Default returns the standard engine configuration.
func Default() Config {
	return Config{
		LearningRate:            0.1,
		DiscountFactor:          0.9,
		Epsilon:                 0.3,
		MaxHops:                 3,
		MaxPathsPerQuery:        5,
		MaxSeeds:                3,
		LowRewardThreshold:      0.1,
		MaxReasonableLen:        10,
		DefaultTrainingReward:   0.1,
		TrainingIntervalSeconds: 300,
		TrainingBackoffSeconds:  60,
		SnapshotPath:            "qtable.json",
	}
}

// #endregion config

// #region load
// Load reads a YAML config from path, filling unset fields with defaults. A
// missing file yields the defaults without error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// fillDefaults replaces zero values with the defaults, so a partial YAML file
// only overrides what it names.
func (c *Config) fillDefaults() {
	d := Default()
	if c.LearningRate == 0 {
		c.LearningRate = d.LearningRate
	}
	if c.DiscountFactor == 0 {
		c.DiscountFactor = d.DiscountFactor
	}
	if c.Epsilon == 0 {
		c.Epsilon = d.Epsilon
	}
	if c.MaxHops == 0 {
		c.MaxHops = d.MaxHops
	}
	if c.MaxPathsPerQuery == 0 {
		c.MaxPathsPerQuery = d.MaxPathsPerQuery
	}
	if c.MaxSeeds == 0 {
		c.MaxSeeds = d.MaxSeeds
	}
	if c.LowRewardThreshold == 0 {
		c.LowRewardThreshold = d.LowRewardThreshold
	}
	if c.MaxReasonableLen == 0 {
		c.MaxReasonableLen = d.MaxReasonableLen
	}
	if c.DefaultTrainingReward == 0 {
		c.DefaultTrainingReward = d.DefaultTrainingReward
	}
	if c.TrainingIntervalSeconds == 0 {
		c.TrainingIntervalSeconds = d.TrainingIntervalSeconds
	}
	if c.TrainingBackoffSeconds == 0 {
		c.TrainingBackoffSeconds = d.TrainingBackoffSeconds
	}
	if c.SnapshotPath == "" {
		c.SnapshotPath = d.SnapshotPath
	}
}

// #endregion load

// #region validate
// Validate checks parameter ranges.
func (c Config) Validate() error {
	if c.LearningRate <= 0 || c.LearningRate > 1 {
		return fmt.Errorf("learning_rate %.3f outside (0, 1]", c.LearningRate)
	}
	if c.DiscountFactor < 0 || c.DiscountFactor > 1 {
		return fmt.Errorf("discount_factor %.3f outside [0, 1]", c.DiscountFactor)
	}
	if c.Epsilon < 0 || c.Epsilon > 1 {
		return fmt.Errorf("epsilon %.3f outside [0, 1]", c.Epsilon)
	}
	if c.MaxHops < 0 {
		return fmt.Errorf("max_hops %d is negative", c.MaxHops)
	}
	if c.MaxSeeds < 1 {
		return fmt.Errorf("max_seeds %d below 1", c.MaxSeeds)
	}
	if c.MaxPathsPerQuery < 1 {
		return fmt.Errorf("max_paths_per_query %d below 1", c.MaxPathsPerQuery)
	}
	return nil
}

// #endregion validate

// #region durations
// TrainingInterval returns the pause between successful training cycles.
func (c Config) TrainingInterval() time.Duration {
	return time.Duration(c.TrainingIntervalSeconds) * time.Second
}

// TrainingBackoff returns the pause after a failed training cycle.
func (c Config) TrainingBackoff() time.Duration {
	return time.Duration(c.TrainingBackoffSeconds) * time.Second
}

// #endregion durations

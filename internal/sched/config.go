package sched

import (
	"fmt"
	"os"

	yaml "github.com/goccy/go-yaml"
)

// LevelConfig describes one level of a multilevel queue.
type LevelConfig struct {
	Name    string `json:"name" yaml:"name"`
	Quantum int    `json:"quantum" yaml:"quantum"` // 0 = run until completion
}

// Config mirrors config.yml: which policy to run and its knobs.
type Config struct {
	Policy          string        `json:"policy" yaml:"policy"`                     // fcfs (by default)
	Quantum         int           `json:"quantum" yaml:"quantum"`                   // 3 (by default), round robin only
	Levels          []LevelConfig `json:"levels" yaml:"levels"`                     // System/Interactive/Batch/Background (by default)
	AgingThreshold  int           `json:"aging_threshold" yaml:"aging_threshold"`   // 10 (by default)
	AgingInterval   int           `json:"aging_interval" yaml:"aging_interval"`     // aging_threshold (by default)
	HyperperiodCap  int           `json:"hyperperiod_cap" yaml:"hyperperiod_cap"`   // 1000 (by default)
	TruncateHorizon bool          `json:"truncate_horizon" yaml:"truncate_horizon"` // simulate cap ticks instead of failing
	MaxTasks        int           `json:"max_tasks" yaml:"max_tasks"`               // 0 = unbounded
	QueueCapacity   int           `json:"queue_capacity" yaml:"queue_capacity"`     // per queue, 0 = unbounded
}

// If the config file is not found, we use default values
func defaultConfig() Config {
	return Config{
		Policy:         "fcfs",
		Quantum:        3,
		AgingThreshold: 10,
		HyperperiodCap: 1000,
	}
}

// DefaultLevels returns the four classic levels: System, Interactive, Batch, Background.
func DefaultLevels() []LevelConfig {
	return []LevelConfig{
		{Name: "System", Quantum: 1},
		{Name: "Interactive", Quantum: 4},
		{Name: "Batch", Quantum: 8},
		{Name: "Background", Quantum: 16},
	}
}

// Load reads YAML and overrides defaults; empty path = defaults only
func Load(path string) Config {
	cfg, err := LoadStrict(path)
	if err != nil {
		return defaultConfig().Normalize()
	}
	return cfg
}

// LoadStrict is Load for callers that want to know why a file was not used.
func LoadStrict(path string) (Config, error) {
	cfg := defaultConfig()
	if path == "" {
		return cfg.Normalize(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg.Normalize(), nil
}

// Normalize fills unset knobs with defaults and applies sanity clamps.
func (c Config) Normalize() Config {
	def := defaultConfig()
	if c.Policy == "" {
		c.Policy = def.Policy
	}
	if c.Quantum <= 0 {
		c.Quantum = def.Quantum
	}
	if c.AgingThreshold <= 0 {
		c.AgingThreshold = def.AgingThreshold
	}
	if c.AgingInterval <= 0 {
		c.AgingInterval = c.AgingThreshold
	}
	if c.HyperperiodCap <= 0 {
		c.HyperperiodCap = def.HyperperiodCap
	}
	if c.MaxTasks < 0 {
		c.MaxTasks = 0
	}
	if c.QueueCapacity < 0 {
		c.QueueCapacity = 0
	}

	if len(c.Levels) == 0 {
		c.Levels = DefaultLevels()
	} else {
		levels := make([]LevelConfig, len(c.Levels))
		copy(levels, c.Levels)
		for i := range levels {
			if levels[i].Name == "" {
				levels[i].Name = fmt.Sprintf("L%d", i)
			}
			if levels[i].Quantum < 0 {
				levels[i].Quantum = 0
			}
		}
		c.Levels = levels
	}
	return c
}

// Validate reports knobs that cannot be defaulted.
func (c Config) Validate() error {
	if _, err := ParsePolicy(c.Policy); err != nil {
		return err
	}
	return nil
}

package app

import (
	"errors"
	"fmt"

	"schedsim/internal/report"
	"schedsim/internal/sched"
)

var (
	// ErrNoWorkload means none of WorkloadPath, Preset or RandomTasks was set.
	ErrNoWorkload = errors.New("a workload is required: give a task file, -preset or -random")
	// ErrConflictingWorkloads means more than one workload source was set.
	ErrConflictingWorkloads = errors.New("task file, -preset and -random are mutually exclusive")
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// workload source, exactly one
	WorkloadPath string // .yaml/.yml/.hcl task file
	Preset       string
	RandomTasks  int
	Seed         int64

	// engine
	ConfigPath string // config.yml; "" = defaults
	Policy     string // overrides the config file and the workload's embedded config
	Quantum    int
	Truncate   bool
	TickLimit  int64

	// output
	Format        string
	TraceCSV      string
	EventsCSV     string
	TelemetryPath string // "-" = the log writer; "" = disabled

	LogFormat string
	LogLevel  string
}

// NewConfig validates cfg and fills the output defaults.
func NewConfig(cfg Config) (*Config, error) {
	sources := 0
	for _, set := range []bool{cfg.WorkloadPath != "", cfg.Preset != "", cfg.RandomTasks > 0} {
		if set {
			sources++
		}
	}
	switch {
	case sources == 0:
		return nil, ErrNoWorkload
	case sources > 1:
		return nil, ErrConflictingWorkloads
	}
	if cfg.RandomTasks < 0 {
		return nil, fmt.Errorf("random task count must be positive, got %d", cfg.RandomTasks)
	}

	if cfg.Policy != "" {
		if _, err := sched.ParsePolicy(cfg.Policy); err != nil {
			return nil, err
		}
	}
	if cfg.Quantum < 0 {
		return nil, fmt.Errorf("quantum must not be negative, got %d", cfg.Quantum)
	}
	if cfg.TickLimit < 0 {
		return nil, fmt.Errorf("tick limit must not be negative, got %d", cfg.TickLimit)
	}

	if cfg.Format == "" {
		cfg.Format = string(report.FormatText)
	}
	f, err := report.ParseFormat(cfg.Format)
	if err != nil {
		return nil, err
	}
	cfg.Format = string(f)

	return &cfg, nil
}

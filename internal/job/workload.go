// Package job builds the task sets a simulation runs: task files in YAML or
// HCL, the built-in presets, and seeded random workloads.
package job

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"schedsim/internal/ctxlog"
	"schedsim/internal/sched"
)

// ErrUnsupportedFormat reports a task file whose extension has no loader.
var ErrUnsupportedFormat = errors.New("unsupported workload format")

// TaskSpec is one task as written in a workload file. A task with a period is
// periodic; otherwise it is a one-shot job described by arrival and burst.
type TaskSpec struct {
	ID          int    `yaml:"id"`
	Name        string `yaml:"name"`
	Arrival     int64  `yaml:"arrival"` // first release offset for periodic tasks
	Burst       int64  `yaml:"burst"`
	Priority    int    `yaml:"priority"`
	Class       string `yaml:"class"`
	IOFrequency int    `yaml:"io_frequency"`
	Period      int64  `yaml:"period"`
	Execution   int64  `yaml:"execution"`
	Deadline    int64  `yaml:"deadline"` // 0 = implicit (period)
}

// Workload is a named task set, optionally carrying the scheduler config it was written for.
type Workload struct {
	Name   string        `yaml:"name"`
	Config *sched.Config `yaml:"config"`
	Tasks  []TaskSpec    `yaml:"tasks"`
}

// Periodic reports whether the workload describes periodic tasks.
func (w *Workload) Periodic() bool {
	return len(w.Tasks) > 0 && (w.Tasks[0].Period > 0 || w.Tasks[0].Execution > 0)
}

// Build validates every spec and returns the engine tasks. A spec without an id
// gets its 1-based position.
func (w *Workload) Build() ([]*sched.Task, error) {
	tasks := make([]*sched.Task, 0, len(w.Tasks))
	for i, spec := range w.Tasks {
		if spec.ID == 0 {
			spec.ID = i + 1
		}
		t, err := spec.Build()
		if err != nil {
			return nil, fmt.Errorf("workload %q: %w", w.Name, err)
		}
		tasks = append(tasks, t)
	}
	if err := sched.ValidateTaskSet(tasks); err != nil {
		return nil, fmt.Errorf("workload %q: %w", w.Name, err)
	}
	return tasks, nil
}

// Build turns the spec into a validated engine task.
func (s TaskSpec) Build() (*sched.Task, error) {
	class, err := sched.ParseClass(s.Class)
	if err != nil {
		return nil, fmt.Errorf("task %q: %w", s.Name, err)
	}
	opts := []sched.TaskOption{
		sched.WithPriority(s.Priority),
		sched.WithIOFrequency(s.IOFrequency),
	}
	if s.Class != "" {
		opts = append(opts, sched.WithClass(class))
	}
	if s.Period > 0 || s.Execution > 0 {
		opts = append(opts, sched.WithOffset(s.Arrival))
		return sched.NewPeriodicTask(sched.TaskID(s.ID), s.Name, s.Period, s.Execution, s.Deadline, opts...)
	}
	return sched.NewTask(sched.TaskID(s.ID), s.Name, s.Arrival, s.Burst, opts...)
}

// Load reads a workload file, choosing the decoder by extension.
func Load(ctx context.Context, path string) (*Workload, error) {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Loading workload.", "path", path)

	var (
		w   *Workload
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		w, err = LoadYAML(path)
	case ".hcl":
		w, err = LoadHCL(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
	if err != nil {
		return nil, err
	}
	if w.Name == "" {
		w.Name = strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	}
	logger.Debug("Workload loaded.", "name", w.Name, "tasks", len(w.Tasks), "embedded_config", w.Config != nil)
	return w, nil
}

package job

import (
	"fmt"
	"sort"

	"schedsim/internal/sched"
)

// presets are the built-in demonstration workloads.
var presets = map[string]func() *Workload{
	"basic":    basicPreset,
	"mlq":      multilevelPreset,
	"rt":       realtimePreset,
	"overload": overloadPreset,
}

// Preset returns a fresh copy of a built-in workload.
func Preset(name string) (*Workload, error) {
	build, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("unknown preset %q (available: %v)", name, Presets())
	}
	return build(), nil
}

// Presets lists the built-in workload names, sorted.
func Presets() []string {
	names := make([]string, 0, len(presets))
	for name := range presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// basicPreset is the classic five-process textbook set.
func basicPreset() *Workload {
	arrivals := []int64{0, 1, 2, 3, 4}
	bursts := []int64{10, 5, 8, 3, 6}
	priorities := []int{3, 1, 4, 2, 5}

	w := &Workload{Name: "basic"}
	for i := range arrivals {
		w.Tasks = append(w.Tasks, TaskSpec{
			ID:       i + 1,
			Name:     fmt.Sprintf("P%d", i+1),
			Arrival:  arrivals[i],
			Burst:    bursts[i],
			Priority: priorities[i],
		})
	}
	return w
}

// multilevelPreset has twelve processes across the four classes.
func multilevelPreset() *Workload {
	w := &Workload{Name: "mlq"}
	add := func(i int, name, class string, arrival, burst int64, priority, io int) {
		w.Tasks = append(w.Tasks, TaskSpec{
			ID:          i + 1,
			Name:        name,
			Class:       class,
			Arrival:     arrival,
			Burst:       burst,
			Priority:    priority,
			IOFrequency: io,
		})
	}
	for i := 0; i < 2; i++ {
		add(i, fmt.Sprintf("SYS%d", i+1), "system", int64(i), int64(3+i%3), 0, 1)
	}
	for i := 2; i < 6; i++ {
		add(i, fmt.Sprintf("INT%d", i-1), "interactive", int64(i-1), int64(5+i%4), 1, 3+i%3)
	}
	for i := 6; i < 9; i++ {
		add(i, fmt.Sprintf("BAT%d", i-5), "batch", int64(i-2), int64(10+i%5), 2, 1)
	}
	for i := 9; i < 12; i++ {
		add(i, fmt.Sprintf("BG%d", i-8), "background", int64(i-3), int64(8+i%6), 3, 1)
	}
	return w
}

// realtimePreset is a periodic control loop: U ~= 0.82, above the RMS bound for n=5 (0.743).
func realtimePreset() *Workload {
	return &Workload{Name: "rt", Config: presetConfig("rms"), Tasks: []TaskSpec{
		{ID: 1, Name: "Control", Period: 10, Execution: 3, Deadline: 10},
		{ID: 2, Name: "Sensor", Period: 15, Execution: 2, Deadline: 15},
		{ID: 3, Name: "Display", Period: 25, Execution: 4, Deadline: 25},
		{ID: 4, Name: "Network", Period: 30, Execution: 5, Deadline: 30},
		{ID: 5, Name: "Logger", Period: 50, Execution: 3, Deadline: 50},
	}}
}

// overloadPreset is over-utilised (U = 1.35) and misses deadlines under any policy.
func overloadPreset() *Workload {
	return &Workload{Name: "overload", Config: presetConfig("edf"), Tasks: []TaskSpec{
		{ID: 1, Name: "Fast", Period: 4, Execution: 3},
		{ID: 2, Name: "Slow", Period: 5, Execution: 3},
	}}
}

// presetConfig gives the periodic presets a real-time policy, so they run
// without -policy.
func presetConfig(policy string) *sched.Config {
	cfg := sched.Config{Policy: policy}.Normalize()
	return &cfg
}

package job

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schedsim/internal/sched"
)

func writeFile(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_YAML(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	path := writeFile(t, "demo.yaml", `
config:
  policy: rr
  quantum: 4
tasks:
  - {id: 1, name: A, arrival: 0, burst: 5}
  - {id: 2, name: B, arrival: 1, burst: 3, priority: 2, class: interactive, io_frequency: 4}
  - {name: C, arrival: 2, burst: 8}
`)

	// --- Act ---
	w, err := Load(context.Background(), path)
	require.NoError(t, err)
	tasks, err := w.Build()
	require.NoError(t, err)

	// --- Assert ---
	assert.Equal(t, "demo", w.Name)
	require.NotNil(t, w.Config)
	assert.Equal(t, "rr", w.Config.Policy)
	assert.Equal(t, 4, w.Config.Quantum)
	assert.Equal(t, 10, w.Config.AgingThreshold, "unset knobs are defaulted")

	require.Len(t, tasks, 3)
	assert.Equal(t, sched.TaskID(3), tasks[2].ID, "missing id falls back to position")
	assert.Equal(t, sched.ClassInteractive, tasks[1].Class)
	assert.Equal(t, 4, tasks[1].IOFrequency)
	assert.Equal(t, sched.ClassBatch, tasks[0].Class)
	assert.False(t, w.Periodic())
}

func TestLoad_HCLWithVariables(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "rt.hcl", `
name = "control-loop"

variables {
  base  = 10
  short = 2
}

config {
  policy          = "edf"
  hyperperiod_cap = var.base * 100
}

task "control" {
  id        = 1
  period    = var.base
  execution = 3
}

task "sensor" {
  id        = 2
  period    = var.base + 5
  execution = var.short
  deadline  = 12
  arrival   = 1
}
`)

	w, err := Load(context.Background(), path)
	require.NoError(t, err)

	want := []TaskSpec{
		{ID: 1, Name: "control", Period: 10, Execution: 3},
		{ID: 2, Name: "sensor", Period: 15, Execution: 2, Deadline: 12, Arrival: 1},
	}
	if diff := cmp.Diff(want, w.Tasks); diff != "" {
		t.Fatalf("tasks mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, "control-loop", w.Name)
	require.NotNil(t, w.Config)
	assert.Equal(t, "edf", w.Config.Policy)
	assert.Equal(t, 1000, w.Config.HyperperiodCap)
	assert.True(t, w.Periodic())

	tasks, err := w.Build()
	require.NoError(t, err)
	assert.Equal(t, int64(10), tasks[0].Deadline, "implicit deadline")
	assert.Equal(t, sched.ClassSystem, tasks[0].Class)
	assert.Equal(t, int64(1), tasks[1].Arrival)
}

func TestLoad_HCLLevels(t *testing.T) {
	t.Parallel()

	path := writeFile(t, "mlfq.hcl", `
config {
  policy = "mlfq"
  level "fast" { quantum = 2 }
  level "slow" { quantum = 0 }
}

task "a" {
  burst = 4
}
`)
	w, err := Load(context.Background(), path)
	require.NoError(t, err)
	require.NotNil(t, w.Config)
	assert.Equal(t, []sched.LevelConfig{{Name: "fast", Quantum: 2}, {Name: "slow", Quantum: 0}}, w.Config.Levels)
	assert.Equal(t, "mlfq", w.Name, "name defaults to the file name")
	assert.Nil(t, (&Workload{}).Config)
}

func TestLoad_Errors(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	_, err := Load(ctx, writeFile(t, "tasks.json", `{}`))
	require.ErrorIs(t, err, ErrUnsupportedFormat)

	_, err = Load(ctx, filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)

	_, err = Load(ctx, writeFile(t, "bad.hcl", `task "a" {`))
	require.ErrorContains(t, err, "failed to parse HCL file")

	_, err = Load(ctx, writeFile(t, "undefined.hcl", `task "a" { burst = var.nope }`))
	require.ErrorContains(t, err, "failed to decode HCL file")

	w, err := Load(ctx, writeFile(t, "invalid.yaml", "tasks:\n  - {id: 1, burst: 0}\n"))
	require.NoError(t, err)
	_, err = w.Build()
	require.ErrorIs(t, err, sched.ErrInvalidTaskDescriptor)

	w, err = Load(ctx, writeFile(t, "class.yaml", "tasks:\n  - {id: 1, burst: 2, class: realtime}\n"))
	require.NoError(t, err)
	_, err = w.Build()
	require.ErrorIs(t, err, sched.ErrInvalidTaskDescriptor)
}

func TestPresets(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"basic", "mlq", "overload", "rt"}, Presets())

	for _, name := range Presets() {
		t.Run(name, func(t *testing.T) {
			w, err := Preset(name)
			require.NoError(t, err)
			tasks, err := w.Build()
			require.NoError(t, err)
			assert.NotEmpty(t, tasks)
		})
	}

	mlq, err := Preset("mlq")
	require.NoError(t, err)
	tasks, err := mlq.Build()
	require.NoError(t, err)
	require.Len(t, tasks, 12)
	assert.Equal(t, sched.ClassSystem, tasks[0].Class)
	assert.Equal(t, sched.ClassBackground, tasks[11].Class)
	assert.Equal(t, int64(8+11%6), tasks[11].Burst)

	_, err = Preset("nope")
	require.Error(t, err)
}

func TestPreset_ReturnsFreshCopies(t *testing.T) {
	t.Parallel()

	a, err := Preset("basic")
	require.NoError(t, err)
	a.Tasks[0].Burst = 99
	b, err := Preset("basic")
	require.NoError(t, err)
	assert.Equal(t, int64(10), b.Tasks[0].Burst)
}

func TestRandom_IsDeterministicAndInRange(t *testing.T) {
	t.Parallel()

	a := Random(42, 25)
	b := Random(42, 25)
	if diff := cmp.Diff(a, b); diff != "" {
		t.Fatalf("same seed produced different workloads:\n%s", diff)
	}
	assert.NotEqual(t, a.Tasks, Random(43, 25).Tasks)

	for _, spec := range a.Tasks {
		assert.GreaterOrEqual(t, spec.Arrival, int64(0))
		assert.Less(t, spec.Arrival, int64(10))
		assert.GreaterOrEqual(t, spec.Burst, int64(1))
		assert.LessOrEqual(t, spec.Burst, int64(20))
		assert.GreaterOrEqual(t, spec.Priority, 0)
		assert.Less(t, spec.Priority, 5)
	}
	tasks, err := a.Build()
	require.NoError(t, err)
	assert.Len(t, tasks, 25)
}

func TestLoad_ShippedSamples(t *testing.T) {
	t.Parallel()

	for _, path := range []string{
		"../../workloads/interactive-mix.yaml",
		"../../workloads/control-loop.hcl",
	} {
		w, err := Load(context.Background(), path)
		require.NoError(t, err, path)
		require.NotNil(t, w.Config, path)
		tasks, err := w.Build()
		require.NoError(t, err, path)

		res, err := sched.Simulate(*w.Config, tasks)
		require.NoError(t, err, path)
		assert.NotEmpty(t, res.Trace, path)
	}

	cfg, err := sched.LoadStrict("../../config.yml")
	require.NoError(t, err)
	assert.Equal(t, "mlfq", cfg.Policy)
	assert.Equal(t, 5, cfg.AgingInterval)
	require.NoError(t, cfg.Validate())
}

package sched

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Parallel()

	for _, path := range []string{"", filepath.Join(t.TempDir(), "missing.yml")} {
		cfg := Load(path)
		assert.Equal(t, "fcfs", cfg.Policy)
		assert.Equal(t, 3, cfg.Quantum)
		assert.Equal(t, 10, cfg.AgingThreshold)
		assert.Equal(t, 10, cfg.AgingInterval)
		assert.Equal(t, 1000, cfg.HyperperiodCap)
		assert.Equal(t, DefaultLevels(), cfg.Levels)
	}
}

func TestLoadStrict_ReadsYAML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yml")
	body := `
policy: mlfq
quantum: 4
levels:
  - name: fast
    quantum: 2
  - quantum: -1
aging_threshold: 6
hyperperiod_cap: 500
truncate_horizon: true
queue_capacity: 8
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := LoadStrict(path)
	require.NoError(t, err)
	assert.Equal(t, "mlfq", cfg.Policy)
	assert.Equal(t, 4, cfg.Quantum)
	assert.Equal(t, []LevelConfig{{Name: "fast", Quantum: 2}, {Name: "L1", Quantum: 0}}, cfg.Levels)
	assert.Equal(t, 6, cfg.AgingThreshold)
	assert.Equal(t, 6, cfg.AgingInterval)
	assert.Equal(t, 500, cfg.HyperperiodCap)
	assert.True(t, cfg.TruncateHorizon)
	assert.Equal(t, 8, cfg.QueueCapacity)
	require.NoError(t, cfg.Validate())
}

func TestLoadStrict_Errors(t *testing.T) {
	t.Parallel()

	_, err := LoadStrict(filepath.Join(t.TempDir(), "missing.yml"))
	require.Error(t, err)

	path := filepath.Join(t.TempDir(), "broken.yml")
	require.NoError(t, os.WriteFile(path, []byte("policy: [unclosed"), 0o600))
	_, err = LoadStrict(path)
	require.Error(t, err)

	assert.Equal(t, "fcfs", Load(path).Policy, "Load falls back to defaults")
}

func TestConfig_ValidateRejectsUnknownPolicy(t *testing.T) {
	t.Parallel()

	require.ErrorIs(t, Config{Policy: "lottery"}.Validate(), ErrUnknownPolicy)
}

func TestParsePolicy(t *testing.T) {
	t.Parallel()

	tests := map[string]Policy{
		"fcfs":                      PolicyFCFS,
		"FIFO":                      PolicyFCFS,
		"sjf":                       PolicySJF,
		" Round-Robin ":             PolicyRoundRobin,
		"priority":                  PolicyPriority,
		"mlq":                       PolicyMLQ,
		"multilevel-feedback-queue": PolicyMLFQ,
		"rate-monotonic":            PolicyRMS,
		"EDF":                       PolicyEDF,
	}
	for name, want := range tests {
		got, err := ParsePolicy(name)
		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}

	_, err := ParsePolicy("cfs")
	require.ErrorIs(t, err, ErrUnknownPolicy)

	for _, p := range Policies() {
		back, err := ParsePolicy(p.String())
		require.NoError(t, err)
		assert.Equal(t, p, back)
	}
	assert.True(t, PolicyEDF.IsRealtime())
	assert.False(t, PolicyMLFQ.IsRealtime())
	assert.True(t, PolicyMLQ.IsMultilevel())
}

func TestNewTask_Validation(t *testing.T) {
	t.Parallel()

	_, err := NewTask(1, "zero", 0, 0)
	require.ErrorIs(t, err, ErrInvalidTaskDescriptor)
	_, err = NewTask(1, "negative arrival", -1, 3)
	require.ErrorIs(t, err, ErrInvalidTaskDescriptor)
	_, err = NewPeriodicTask(1, "no period", 0, 1, 0)
	require.ErrorIs(t, err, ErrInvalidTaskDescriptor)
	_, err = NewPeriodicTask(1, "no execution", 5, 0, 0)
	require.ErrorIs(t, err, ErrInvalidTaskDescriptor)
	_, err = NewPeriodicTask(1, "too slow", 10, 6, 5)
	require.ErrorIs(t, err, ErrInvalidTaskDescriptor)

	p, err := NewPeriodicTask(1, "implicit", 10, 3, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(10), p.Deadline)
	assert.Equal(t, ClassSystem, p.Class)
	assert.InDelta(t, 0.3, p.Utilization(), 1e-12)

	o, err := NewTask(2, "", 0, 4)
	require.NoError(t, err)
	assert.Equal(t, "T2", o.Label())
	assert.Equal(t, ClassBatch, o.Class)
	assert.Equal(t, int64(-1), o.Start)
}

func TestParseClass(t *testing.T) {
	t.Parallel()

	for name, want := range map[string]Class{
		"":            ClassBatch,
		"System":      ClassSystem,
		"interactive": ClassInteractive,
		"bg":          ClassBackground,
	} {
		got, err := ParseClass(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseClass("realtime")
	require.ErrorIs(t, err, ErrInvalidTaskDescriptor)
}

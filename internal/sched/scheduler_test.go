package sched

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// job is a compact one-shot descriptor for tests: id, arrival, burst, priority.
type job struct {
	id       TaskID
	arrival  int64
	burst    int64
	priority int
}

func oneShotTasks(t *testing.T, jobs ...job) []*Task {
	t.Helper()
	out := make([]*Task, 0, len(jobs))
	for _, j := range jobs {
		task, err := NewTask(j.id, string(rune('A'+int(j.id)-1)), j.arrival, j.burst, WithPriority(j.priority))
		require.NoError(t, err)
		out = append(out, task)
	}
	return out
}

func runPolicy(t *testing.T, policy string, tasks []*Task, mutate ...func(*Config)) *Result {
	t.Helper()
	cfg := Config{Policy: policy}
	for _, m := range mutate {
		m(&cfg)
	}
	res, err := Simulate(cfg, tasks)
	require.NoError(t, err)
	return res
}

func waits(res *Result) []int64 {
	out := make([]int64, len(res.Metrics.Tasks))
	for i, tm := range res.Metrics.Tasks {
		out[i] = tm.Waiting
	}
	return out
}

func TestFCFS_WaitingTimes(t *testing.T) {
	t.Parallel()

	// --- Arrange ---
	tasks := oneShotTasks(t, job{1, 0, 5, 0}, job{2, 1, 3, 0}, job{3, 2, 8, 0})

	// --- Act ---
	res := runPolicy(t, "fcfs", tasks)

	// --- Assert ---
	assert.Equal(t, []TaskID{1, 2, 3}, res.Trace.Order())
	assert.Equal(t, []int64{0, 4, 6}, waits(res))
	assert.Equal(t, int64(16), res.Metrics.Makespan)
	assert.InDelta(t, 100.0, res.Metrics.Utilization, 1e-9)
	assert.Zero(t, res.Metrics.Preemptions)
}

func TestSJF_SameAsFCFSWhenFirstJobIsRunning(t *testing.T) {
	t.Parallel()

	tasks := oneShotTasks(t, job{1, 0, 5, 0}, job{2, 1, 3, 0}, job{3, 2, 8, 0})
	res := runPolicy(t, "sjf", tasks)

	assert.Equal(t, []int64{0, 4, 6}, waits(res))
}

func TestSJF_PicksShortestAfterNonPreemptibleRun(t *testing.T) {
	t.Parallel()

	tasks := oneShotTasks(t, job{1, 0, 8, 0}, job{2, 1, 4, 0}, job{3, 2, 2, 0})
	res := runPolicy(t, "sjf", tasks)

	require.Equal(t, []TaskID{1, 3, 2}, res.Trace.Order())

	// Recompute the expected waits from the dispatch order rather than hard-coding them.
	now := int64(0)
	want := map[TaskID]int64{}
	for _, id := range res.Trace.Order() {
		task := tasks[id-1]
		now = max(now, task.Arrival)
		want[id] = now - task.Arrival
		now += task.Burst
	}
	for _, tm := range res.Metrics.Tasks {
		assert.Equal(t, want[tm.ID], tm.Waiting, "task %d", tm.ID)
	}
	assert.Equal(t, []int64{0, 9, 6}, waits(res))
}

func TestRoundRobin_BoundedWaiting(t *testing.T) {
	t.Parallel()

	const quantum = 3
	tasks := oneShotTasks(t, job{1, 0, 10, 0}, job{2, 0, 7, 0}, job{3, 0, 5, 0})
	res := runPolicy(t, "rr", tasks, func(c *Config) { c.Quantum = quantum })

	want := Trace{
		{Start: 0, End: 3, TaskID: 1},
		{Start: 3, End: 6, TaskID: 2},
		{Start: 6, End: 9, TaskID: 3},
		{Start: 9, End: 12, TaskID: 1},
		{Start: 12, End: 15, TaskID: 2},
		{Start: 15, End: 17, TaskID: 3},
		{Start: 17, End: 20, TaskID: 1},
		{Start: 20, End: 21, TaskID: 2},
		{Start: 21, End: 22, TaskID: 1},
	}
	if diff := cmp.Diff(want, res.Trace); diff != "" {
		t.Fatalf("trace mismatch (-want +got):\n%s", diff)
	}

	bound := int64(len(tasks)-1) * quantum
	last := map[TaskID]int64{}
	for _, s := range res.Trace {
		if end, ok := last[s.TaskID]; ok {
			assert.LessOrEqual(t, s.Start-end, bound, "task %d waited too long before tick %d", s.TaskID, s.Start)
		}
		last[s.TaskID] = s.End
	}
}

func TestRoundRobin_SkipsTasksThatHaveNotArrived(t *testing.T) {
	t.Parallel()

	tasks := oneShotTasks(t, job{1, 0, 4, 0}, job{2, 10, 2, 0})
	res := runPolicy(t, "rr", tasks, func(c *Config) { c.Quantum = 2 })

	want := Trace{
		{Start: 0, End: 4, TaskID: 1},
		{Start: 4, End: 10, Idle: true},
		{Start: 10, End: 12, TaskID: 2},
	}
	if diff := cmp.Diff(want, res.Trace); diff != "" {
		t.Fatalf("trace mismatch (-want +got):\n%s", diff)
	}
	assert.InDelta(t, 50.0, res.Metrics.Utilization, 1e-9)
}

func TestPriority_PreemptsEveryTick(t *testing.T) {
	t.Parallel()

	tasks := oneShotTasks(t, job{1, 0, 5, 3}, job{2, 1, 3, 1}, job{3, 2, 8, 2})
	res := runPolicy(t, "priority", tasks)

	want := Trace{
		{Start: 0, End: 1, TaskID: 1},
		{Start: 1, End: 4, TaskID: 2},
		{Start: 4, End: 12, TaskID: 3},
		{Start: 12, End: 16, TaskID: 1},
	}
	if diff := cmp.Diff(want, res.Trace); diff != "" {
		t.Fatalf("trace mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, 1, res.Metrics.Preemptions)
	assert.Equal(t, 4, res.Metrics.ContextSwitches)
}

func TestIdleSkip_JumpsToNextArrival(t *testing.T) {
	t.Parallel()

	tasks := oneShotTasks(t, job{1, 5, 2, 0}, job{2, 20, 1, 0})
	res := runPolicy(t, "fcfs", tasks)

	want := Trace{
		{Start: 0, End: 5, Idle: true},
		{Start: 5, End: 7, TaskID: 1},
		{Start: 7, End: 20, Idle: true},
		{Start: 20, End: 21, TaskID: 2},
	}
	if diff := cmp.Diff(want, res.Trace); diff != "" {
		t.Fatalf("trace mismatch (-want +got):\n%s", diff)
	}
}

func TestOneShotInvariants_AllPolicies(t *testing.T) {
	t.Parallel()

	jobs := []job{
		{1, 0, 7, 2}, {2, 1, 3, 0}, {3, 1, 12, 4}, {4, 4, 1, 1},
		{5, 9, 6, 3}, {6, 30, 2, 0}, {7, 31, 15, 2},
	}
	for _, policy := range []string{"fcfs", "sjf", "rr", "priority", "mlq", "mlfq"} {
		policy := policy
		t.Run(policy, func(t *testing.T) {
			t.Parallel()

			tasks := oneShotTasks(t, jobs...)
			res := runPolicy(t, policy, tasks, func(c *Config) { c.AgingThreshold = 3 })

			require.Equal(t, len(jobs), res.Metrics.Completed)
			executed := map[TaskID]int64{}
			var prevEnd int64
			for _, s := range res.Trace {
				require.Less(t, s.Start, s.End)
				require.Equal(t, prevEnd, s.Start, "trace must be contiguous")
				prevEnd = s.End
				if !s.Idle {
					executed[s.TaskID] += s.Len()
				}
			}
			for _, tm := range res.Metrics.Tasks {
				assert.Equal(t, tm.Burst, tm.Executed, "task %d", tm.ID)
				assert.Equal(t, tm.Burst, executed[tm.ID], "task %d", tm.ID)
				assert.Equal(t, tm.Completion-tm.Arrival, tm.Turnaround)
				assert.Equal(t, tm.Turnaround-tm.Burst, tm.Waiting)
				assert.Equal(t, tm.Start-tm.Arrival, tm.Response)
				assert.GreaterOrEqual(t, tm.Waiting, int64(0))
				assert.GreaterOrEqual(t, tm.Response, int64(0))
			}
			// no task runs after it terminated
			completion := map[TaskID]int64{}
			for _, tm := range res.Metrics.Tasks {
				completion[tm.ID] = tm.Completion
			}
			for _, s := range res.Trace {
				if !s.Idle {
					assert.LessOrEqual(t, s.End, completion[s.TaskID])
				}
			}
		})
	}
}

func TestRun_IsIdempotent(t *testing.T) {
	t.Parallel()

	tasks := oneShotTasks(t, job{1, 0, 9, 1}, job{2, 2, 4, 0}, job{3, 3, 11, 2}, job{4, 6, 2, 1})
	cfg := Config{Policy: "mlfq", AgingThreshold: 2}

	first, err := Simulate(cfg, tasks)
	require.NoError(t, err)
	second, err := Simulate(cfg, tasks)
	require.NoError(t, err)

	if diff := cmp.Diff(first, second); diff != "" {
		t.Fatalf("runs differ (-first +second):\n%s", diff)
	}

	// the caller's descriptors are untouched
	for _, task := range tasks {
		assert.Equal(t, StateNew, task.State)
		assert.Equal(t, task.Burst, task.Remaining)
	}

	s, err := New(cfg, tasks)
	require.NoError(t, err)
	assert.Same(t, s.Run(), s.Run())
}

func TestObserver_ReceivesEventsInTickOrder(t *testing.T) {
	t.Parallel()

	tasks := oneShotTasks(t, job{1, 0, 4, 0}, job{2, 1, 2, 0})
	var events []Event
	s, err := New(Config{Policy: "rr", Quantum: 2}, tasks, WithObserver(ObserverFunc(func(ev Event) {
		events = append(events, ev)
	})))
	require.NoError(t, err)
	s.Run()

	kinds := make([]EventKind, len(events))
	for i, ev := range events {
		kinds[i] = ev.Kind
		if i > 0 {
			assert.GreaterOrEqual(t, ev.Tick, events[i-1].Tick)
		}
	}
	// B arrives during A's first slice and is released when that slice ends.
	assert.Equal(t, []EventKind{
		EventRelease, EventDispatch,
		EventRelease,
		EventPreempt, EventDispatch, EventFinish,
		EventDispatch, EventFinish,
	}, kinds)
}

func TestNew_SetupErrors(t *testing.T) {
	t.Parallel()

	oneShot := oneShotTasks(t, job{1, 0, 5, 0}, job{2, 1, 3, 0})
	periodic := []*Task{mustPeriodic(t, 1, 4, 1, 0)}
	dup := oneShotTasks(t, job{1, 0, 5, 0}, job{1, 1, 3, 0})

	tests := []struct {
		name  string
		cfg   Config
		tasks []*Task
		opts  []Option
		want  error
	}{
		{"empty", Config{}, nil, nil, ErrInvalidTaskDescriptor},
		{"duplicate ids", Config{}, dup, nil, ErrInvalidTaskDescriptor},
		{"mixed kinds", Config{}, append(oneShotTasks(t, job{2, 0, 1, 0}), periodic...), nil, ErrInvalidTaskDescriptor},
		{"periodic under fcfs", Config{}, periodic, nil, ErrInvalidTaskDescriptor},
		{"one-shot under edf", Config{Policy: "edf"}, oneShot, nil, ErrInvalidTaskDescriptor},
		{"unknown policy", Config{Policy: "lottery"}, oneShot, nil, ErrUnknownPolicy},
		{"task table", Config{MaxTasks: 1}, oneShot, nil, ErrCapacityExceeded},
		{"fcfs queue", Config{QueueCapacity: 1}, oneShot, nil, ErrCapacityExceeded},
		{"mlfq queue", Config{Policy: "mlfq", QueueCapacity: 1}, oneShot, nil, ErrCapacityExceeded},
		{"sjf ready set", Config{Policy: "sjf", QueueCapacity: 1}, oneShot, nil, ErrCapacityExceeded},
		{"rr ring", Config{Policy: "rr", QueueCapacity: 1}, oneShot, nil, ErrCapacityExceeded},
		{"priority ready set", Config{Policy: "priority", QueueCapacity: 1}, oneShot, nil, ErrCapacityExceeded},
		{"tick limit", Config{}, oneShot, []Option{WithTickLimit(5)}, ErrTickLimit},
		{"degenerate hyperperiod", Config{Policy: "rms", HyperperiodCap: 100}, []*Task{
			mustPeriodic(t, 1, 7, 1, 0), mustPeriodic(t, 2, 11, 1, 0), mustPeriodic(t, 3, 13, 1, 0),
		}, nil, ErrDegenerateHyperperiod},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(tc.cfg, tc.tasks, tc.opts...)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.want), "got %v, want %v", err, tc.want)
		})
	}
}

func TestNew_MLQCapacityIsPerLevel(t *testing.T) {
	t.Parallel()

	a, err := NewTask(1, "sys", 0, 2, WithClass(ClassSystem))
	require.NoError(t, err)
	b, err := NewTask(2, "batch", 0, 2, WithClass(ClassBatch))
	require.NoError(t, err)
	c, err := NewTask(3, "batch2", 0, 2, WithClass(ClassBatch))
	require.NoError(t, err)

	_, err = New(Config{Policy: "mlq", QueueCapacity: 1}, []*Task{a, b})
	require.NoError(t, err)
	_, err = New(Config{Policy: "mlq", QueueCapacity: 1}, []*Task{a, b, c})
	require.ErrorIs(t, err, ErrCapacityExceeded)
}

func TestNew_TickLimitAllowsBoundedWorkload(t *testing.T) {
	t.Parallel()

	tasks := oneShotTasks(t, job{1, 0, 5, 0}, job{2, 1, 3, 0})
	_, err := New(Config{}, tasks, WithTickLimit(9))
	require.NoError(t, err)
}

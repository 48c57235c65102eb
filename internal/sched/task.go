package sched

import (
	"fmt"
	"strings"
)

// TaskID uniquely identifies a task in a run. It is also the final tie-break of every policy.
type TaskID int

// TaskState is the lifecycle state of a task inside a run.
type TaskState int

const (
	StateNew TaskState = iota
	StateReady
	StateRunning
	StateTerminated
)

func (s TaskState) String() string {
	switch s {
	case StateNew:
		return "New"
	case StateReady:
		return "Ready"
	case StateRunning:
		return "Running"
	case StateTerminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}

// Class is the workload type of a task. Multilevel queues map it to a fixed level
// and metrics are bucketed by it.
type Class int

const (
	ClassSystem Class = iota
	ClassInteractive
	ClassBatch
	ClassBackground
)

func (c Class) String() string {
	switch c {
	case ClassSystem:
		return "System"
	case ClassInteractive:
		return "Interactive"
	case ClassBatch:
		return "Batch"
	case ClassBackground:
		return "Background"
	default:
		return "Unknown"
	}
}

// MarshalText encodes the class by name.
func (c Class) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// ParseClass maps a case-insensitive class name to a Class. An empty name is Batch.
func ParseClass(name string) (Class, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "system", "sys":
		return ClassSystem, nil
	case "interactive", "int":
		return ClassInteractive, nil
	case "", "batch", "bat":
		return ClassBatch, nil
	case "background", "bg":
		return ClassBackground, nil
	default:
		return 0, fmt.Errorf("%w: unknown class %q", ErrInvalidTaskDescriptor, name)
	}
}

// Task represents one schedulable unit: a one-shot job with a burst, or a periodic
// task whose releases are counted as instances.
//
// The descriptor fields are fixed at construction. The bookkeeping fields below them
// belong to the run that owns the task and are only written by that run.
type Task struct {
	ID          TaskID
	Name        string
	Arrival     int64 // arrival tick (one-shot) or first release offset (periodic)
	Burst       int64 // one-shot only
	Period      int64 // periodic only
	Execution   int64 // periodic only: execution time per instance
	Deadline    int64 // periodic only: relative deadline
	Priority    int   // lower value = higher priority
	Class       Class
	IOFrequency int

	State      TaskState
	QueueLevel int
	Remaining  int64
	Age        int
	Start      int64 // first dispatch tick, -1 until dispatched
	Completion int64
	Executed   int64 // total ticks executed
	Queued     int64 // tick when (re)queued

	NextRelease  int64
	NextDeadline int64
	Released     int
	Completed    int
	Missed       int

	active       bool // periodic: current instance has been released and not finished
	missRecorded bool // periodic: current instance already counted as missed
}

// TaskOption customises a task at construction.
type TaskOption func(*Task)

// WithPriority sets the static priority (lower value = higher priority).
func WithPriority(p int) TaskOption { return func(t *Task) { t.Priority = p } }

// WithClass sets the workload class.
func WithClass(c Class) TaskOption { return func(t *Task) { t.Class = c } }

// WithIOFrequency sets the I/O frequency hint used by behaviour reclassification.
func WithIOFrequency(n int) TaskOption { return func(t *Task) { t.IOFrequency = n } }

// WithOffset sets the first release tick of a periodic task.
func WithOffset(at int64) TaskOption { return func(t *Task) { t.Arrival = at } }

// NewTask creates a validated one-shot task.
func NewTask(id TaskID, name string, arrival, burst int64, opts ...TaskOption) (*Task, error) {
	t := &Task{
		ID:      id,
		Name:    name,
		Arrival: arrival,
		Burst:   burst,
		Class:   ClassBatch,
	}
	for _, opt := range opts {
		opt(t)
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	t.reset()
	return t, nil
}

// NewPeriodicTask creates a validated periodic task. A zero deadline means an
// implicit deadline equal to the period.
func NewPeriodicTask(id TaskID, name string, period, execution, deadline int64, opts ...TaskOption) (*Task, error) {
	if deadline == 0 {
		deadline = period
	}
	t := &Task{
		ID:        id,
		Name:      name,
		Period:    period,
		Execution: execution,
		Deadline:  deadline,
		Class:     ClassSystem,
	}
	for _, opt := range opts {
		opt(t)
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	t.reset()
	return t, nil
}

// IsPeriodic reports whether the task is periodic.
func (t *Task) IsPeriodic() bool { return t.Period > 0 }

// Utilization is execution/period for periodic tasks and 0 otherwise.
func (t *Task) Utilization() float64 {
	if !t.IsPeriodic() {
		return 0
	}
	return float64(t.Execution) / float64(t.Period)
}

// Label is the display name of the task.
func (t *Task) Label() string {
	if t.Name != "" {
		return t.Name
	}
	return fmt.Sprintf("T%d", t.ID)
}

func (t *Task) validate() error {
	bad := func(format string, args ...any) error {
		return fmt.Errorf("%w: task %d: %s", ErrInvalidTaskDescriptor, t.ID, fmt.Sprintf(format, args...))
	}
	if t.Arrival < 0 {
		return bad("arrival %d is negative", t.Arrival)
	}
	if t.Period == 0 && t.Execution == 0 {
		if t.Burst <= 0 {
			return bad("burst %d must be positive", t.Burst)
		}
		return nil
	}
	switch {
	case t.Period <= 0:
		return bad("period %d must be positive", t.Period)
	case t.Execution <= 0:
		return bad("execution time %d must be positive", t.Execution)
	case t.Deadline < 0:
		return bad("deadline %d is negative", t.Deadline)
	case t.Execution > t.Deadline:
		return bad("execution time %d exceeds relative deadline %d", t.Execution, t.Deadline)
	}
	return nil
}

// reset clears all run bookkeeping.
func (t *Task) reset() {
	t.State = StateNew
	t.QueueLevel = 0
	t.Age = 0
	t.Start = -1
	t.Completion = 0
	t.Executed = 0
	t.Queued = 0
	t.Released, t.Completed, t.Missed = 0, 0, 0
	t.active, t.missRecorded = false, false
	if t.IsPeriodic() {
		t.Remaining = 0
		t.NextRelease = t.Arrival
		t.NextDeadline = t.Arrival + t.Deadline
		return
	}
	t.Remaining = t.Burst
}

// clone copies the descriptor into a fresh task with clean bookkeeping.
func (t *Task) clone() *Task {
	c := &Task{
		ID:          t.ID,
		Name:        t.Name,
		Arrival:     t.Arrival,
		Burst:       t.Burst,
		Period:      t.Period,
		Execution:   t.Execution,
		Deadline:    t.Deadline,
		Priority:    t.Priority,
		Class:       t.Class,
		IOFrequency: t.IOFrequency,
	}
	c.reset()
	return c
}

// ValidateTaskSet checks a whole workload: every descriptor, unique ids, and no
// mixing of one-shot and periodic tasks.
func ValidateTaskSet(tasks []*Task) error {
	seen := make(map[TaskID]struct{}, len(tasks))
	periodic := 0
	for _, t := range tasks {
		if t == nil {
			return fmt.Errorf("%w: nil task", ErrInvalidTaskDescriptor)
		}
		if err := t.validate(); err != nil {
			return err
		}
		if _, dup := seen[t.ID]; dup {
			return fmt.Errorf("%w: task %d already exists", ErrInvalidTaskDescriptor, t.ID)
		}
		seen[t.ID] = struct{}{}
		if t.IsPeriodic() {
			periodic++
		}
	}
	if periodic != 0 && periodic != len(tasks) {
		return fmt.Errorf("%w: %d of %d tasks are periodic, a run cannot mix one-shot and periodic tasks",
			ErrInvalidTaskDescriptor, periodic, len(tasks))
	}
	return nil
}

// internal/sched/queue.go

package sched

import (
	"fmt"

	"github.com/emirpasic/gods/queues/linkedlistqueue"
)

// Queue is a FIFO of task references bound to one queue level.
type Queue struct {
	Name     string
	Level    int
	Quantum  int64 // 0 = run until completion
	Capacity int   // 0 = unbounded

	q *linkedlistqueue.Queue
}

// NewQueue creates an empty queue.
func NewQueue(name string, level int, quantum int64, capacity int) *Queue {
	return &Queue{
		Name:     name,
		Level:    level,
		Quantum:  quantum,
		Capacity: capacity,
		q:        linkedlistqueue.New(),
	}
}

// Enqueue appends t at the back of the queue.
func (q *Queue) Enqueue(t *Task) error {
	if q.Capacity > 0 && q.q.Size() >= q.Capacity {
		return fmt.Errorf("%w: queue %q holds %d tasks", ErrCapacityExceeded, q.Name, q.Capacity)
	}
	q.q.Enqueue(t)
	return nil
}

// Dequeue removes and returns the front task.
func (q *Queue) Dequeue() (*Task, bool) {
	v, ok := q.q.Dequeue()
	if !ok {
		return nil, false
	}
	return v.(*Task), true
}

// Peek returns the front task without removing it.
func (q *Queue) Peek() (*Task, bool) {
	v, ok := q.q.Peek()
	if !ok {
		return nil, false
	}
	return v.(*Task), true
}

// PeekExtremal returns the task that is minimal under less, without removing it.
// Among equal tasks the one closest to the front wins.
func (q *Queue) PeekExtremal(less func(a, b *Task) bool) (*Task, bool) {
	var best *Task
	for _, v := range q.q.Values() {
		t := v.(*Task)
		if best == nil || less(t, best) {
			best = t
		}
	}
	return best, best != nil
}

// Remove deletes t from the queue, keeping the order of the others.
func (q *Queue) Remove(t *Task) bool {
	values := q.q.Values()
	found := false
	q.q.Clear()
	for _, v := range values {
		if !found && v.(*Task) == t {
			found = true
			continue
		}
		q.q.Enqueue(v)
	}
	return found
}

// Tasks returns the queued tasks front to back.
func (q *Queue) Tasks() []*Task {
	values := q.q.Values()
	out := make([]*Task, len(values))
	for i, v := range values {
		out[i] = v.(*Task)
	}
	return out
}

// IsEmpty reports whether the queue holds no task.
func (q *Queue) IsEmpty() bool { return q.q.Empty() }

// Len returns the number of queued tasks.
func (q *Queue) Len() int { return q.q.Size() }

// MultiLevelQueue is a strictly prioritised hierarchy of queues; level 0 is the highest.
type MultiLevelQueue struct {
	levels []*Queue
}

// NewMultiLevelQueue builds one queue per level config.
func NewMultiLevelQueue(levels []LevelConfig, capacity int) *MultiLevelQueue {
	m := &MultiLevelQueue{levels: make([]*Queue, len(levels))}
	for i, lc := range levels {
		m.levels[i] = NewQueue(lc.Name, i, int64(lc.Quantum), capacity)
	}
	return m
}

// Levels returns the number of levels.
func (m *MultiLevelQueue) Levels() int { return len(m.levels) }

// Level returns queue i.
func (m *MultiLevelQueue) Level(i int) *Queue { return m.levels[i] }

// Enqueue appends t to the queue of t.QueueLevel.
func (m *MultiLevelQueue) Enqueue(t *Task) error {
	if t.QueueLevel < 0 || t.QueueLevel >= len(m.levels) {
		return fmt.Errorf("task %d: queue level %d out of range [0,%d)", t.ID, t.QueueLevel, len(m.levels))
	}
	return m.levels[t.QueueLevel].Enqueue(t)
}

// DequeueHighestPriority scans levels 0..K-1 in order and dequeues the front task of
// the first non-empty level. The fixed scan order is the tie-break between levels.
func (m *MultiLevelQueue) DequeueHighestPriority() (*Task, bool) {
	for _, q := range m.levels {
		if t, ok := q.Dequeue(); ok {
			return t, true
		}
	}
	return nil, false
}

// Move relocates a queued task to the back of another level and updates its QueueLevel.
func (m *MultiLevelQueue) Move(t *Task, level int) error {
	if !m.levels[t.QueueLevel].Remove(t) {
		return fmt.Errorf("task %d is not queued at level %d", t.ID, t.QueueLevel)
	}
	t.QueueLevel = level
	return m.Enqueue(t)
}

// Len returns the number of tasks across all levels.
func (m *MultiLevelQueue) Len() int {
	n := 0
	for _, q := range m.levels {
		n += q.Len()
	}
	return n
}

// internal/sched/basic.go

package sched

import (
	"fmt"
)

// fcfs runs tasks to completion in admission order. The Scheduler admits
// arrivals sorted by (arrival, id), so the queue order is the FCFS order.
type fcfs struct {
	q *Queue
}

func newFCFS(capacity int) *fcfs {
	return &fcfs{q: NewQueue("ready", 0, 0, capacity)}
}

func (f *fcfs) Name() string { return "First-Come-First-Serve" }

func (f *fcfs) Admit(t *Task, _ int64) { mustEnqueue(f.q.Enqueue(t)) }

func (f *fcfs) Select(_ int64) (*Task, int64) {
	t, ok := f.q.Dequeue()
	if !ok {
		return nil, 0
	}
	return t, t.Remaining
}

func (f *fcfs) Requeue(t *Task, _, _ int64) { mustEnqueue(f.q.Enqueue(t)) }

func (f *fcfs) Len() int { return f.q.Len() }

func (f *fcfs) checkCapacity(tasks []*Task) error {
	return readyCapacity(f.q.Capacity).checkCapacity(tasks)
}

// readyCapacity bounds the single ready set of the basic policies. Every task
// may be ready at once, so the whole workload has to fit. Zero is unbounded.
type readyCapacity int

func (c readyCapacity) checkCapacity(tasks []*Task) error {
	if c > 0 && len(tasks) > int(c) {
		return fmt.Errorf("%w: %d tasks for a ready queue of capacity %d", ErrCapacityExceeded, len(tasks), int(c))
	}
	return nil
}

// sjf picks the shortest burst among arrived tasks and never interrupts it.
type sjf struct {
	readyCapacity
	ready *ReadyHeap
}

func newSJF(capacity int) *sjf {
	return &sjf{readyCapacity: readyCapacity(capacity), ready: NewReadyHeap(BySJF)}
}

func (s *sjf) Name() string { return "Shortest Job First" }

func (s *sjf) Admit(t *Task, _ int64) { s.ready.Push(t) }

func (s *sjf) Select(_ int64) (*Task, int64) {
	t, ok := s.ready.Pop()
	if !ok {
		return nil, 0
	}
	return t, t.Remaining
}

func (s *sjf) Requeue(t *Task, _, _ int64) { s.ready.Push(t) }

func (s *sjf) Len() int { return s.ready.Len() }

// roundRobin scans a circular order fixed at the start of the run (arrival, id).
// Each pick runs for at most one quantum; the cursor then moves past the pick, so
// a task that still has work is visited again only after every other member of
// the rotation.
type roundRobin struct {
	readyCapacity
	quantum int64
	ring    []*Task
	cursor  int
}

func newRoundRobin(quantum int64, capacity int) *roundRobin {
	if quantum <= 0 {
		quantum = 1
	}
	return &roundRobin{readyCapacity: readyCapacity(capacity), quantum: quantum}
}

func (r *roundRobin) attach(_ runHooks, tasks []*Task) {
	r.ring = append([]*Task(nil), tasks...)
	r.cursor = 0
}

func (r *roundRobin) Name() string { return fmt.Sprintf("Round Robin (q=%d)", r.quantum) }

// Admit is a no-op: every task already has its place in the ring.
func (r *roundRobin) Admit(_ *Task, _ int64) {}

func (r *roundRobin) Select(_ int64) (*Task, int64) {
	n := len(r.ring)
	for i := 0; i < n; i++ {
		idx := (r.cursor + i) % n
		t := r.ring[idx]
		// not yet arrived (New) or already Terminated
		if t.State != StateReady {
			continue
		}
		r.cursor = (idx + 1) % n
		return t, min(t.Remaining, r.quantum)
	}
	return nil, 0
}

// Requeue is a no-op: the task keeps its ring slot and the cursor already moved past it.
func (r *roundRobin) Requeue(_ *Task, _, _ int64) {}

func (r *roundRobin) Len() int {
	n := 0
	for _, t := range r.ring {
		if t.State == StateReady {
			n++
		}
	}
	return n
}

// priority re-evaluates every tick: lowest priority value, then arrival, then id.
type priority struct {
	readyCapacity
	ready *ReadyHeap
}

func newPriority(capacity int) *priority {
	return &priority{readyCapacity: readyCapacity(capacity), ready: NewReadyHeap(ByPriority)}
}

func (p *priority) Name() string { return "Priority (preemptive)" }

func (p *priority) Admit(t *Task, _ int64) { p.ready.Push(t) }

func (p *priority) Select(_ int64) (*Task, int64) {
	t, ok := p.ready.Pop()
	if !ok {
		return nil, 0
	}
	return t, 1
}

func (p *priority) Requeue(t *Task, _, _ int64) { p.ready.Push(t) }

func (p *priority) Len() int { return p.ready.Len() }

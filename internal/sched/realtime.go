// internal/sched/realtime.go

package sched

// deadlineQueue keeps the active instances of periodic tasks in an OrderedSet
// and runs whichever is leftmost for one tick. RMS keys by period (static
// priority), EDF by the absolute deadline of the current instance.
type deadlineQueue struct {
	name string
	set  *OrderedSet
}

func newRMS() *deadlineQueue {
	return &deadlineQueue{
		name: "Rate Monotonic",
		set:  NewOrderedSet(func(t *Task) int64 { return t.Period }),
	}
}

func newEDF() *deadlineQueue {
	return &deadlineQueue{
		name: "Earliest Deadline First",
		set:  NewOrderedSet(func(t *Task) int64 { return t.NextDeadline }),
	}
}

func (d *deadlineQueue) Name() string { return d.name }

// Admit inserts a freshly released instance. The key is captured here, so the
// caller must have set NextDeadline first.
func (d *deadlineQueue) Admit(t *Task, _ int64) { d.set.Put(t) }

func (d *deadlineQueue) Select(_ int64) (*Task, int64) {
	t, ok := d.set.PopMin()
	if !ok {
		return nil, 0
	}
	return t, 1
}

func (d *deadlineQueue) Requeue(t *Task, _, _ int64) { d.set.Put(t) }

// Withdraw drops an abandoned instance.
func (d *deadlineQueue) Withdraw(t *Task) { d.set.Remove(t) }

func (d *deadlineQueue) Len() int { return d.set.Len() }

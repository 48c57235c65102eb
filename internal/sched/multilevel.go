// internal/sched/multilevel.go

package sched

import "fmt"

// multilevel implements both the fixed multilevel queue (MLQ) and the
// multilevel feedback queue (MLFQ).
//
// MLQ places a task at the level of its class and never moves it. MLFQ starts
// every task at level 0, demotes it one level each time it burns a full quantum,
// and promotes waiting tasks through aging.
type multilevel struct {
	feedback       bool
	mlq            *MultiLevelQueue
	capacity       int
	agingThreshold int
	agingInterval  int64
	nextAging      int64
	hooks          runHooks
}

func newMultilevel(cfg Config, feedback bool) *multilevel {
	return &multilevel{
		feedback:       feedback,
		mlq:            NewMultiLevelQueue(cfg.Levels, cfg.QueueCapacity),
		capacity:       cfg.QueueCapacity,
		agingThreshold: cfg.AgingThreshold,
		agingInterval:  int64(cfg.AgingInterval),
	}
}

func (m *multilevel) attach(h runHooks, _ []*Task) { m.hooks = h }

func (m *multilevel) Name() string {
	if m.feedback {
		return "Multilevel Feedback Queue"
	}
	return "Multilevel Queue"
}

// classLevel maps a class to its fixed MLQ level, clamped to the lowest level.
func classLevel(c Class, levels int) int {
	l := int(c)
	if l < 0 {
		l = 0
	}
	if l > levels-1 {
		l = levels - 1
	}
	return l
}

func (m *multilevel) Admit(t *Task, now int64) {
	if m.feedback {
		t.QueueLevel = 0
	} else {
		t.QueueLevel = classLevel(t.Class, m.mlq.Levels())
	}
	t.Age = 0
	t.Queued = now
	mustEnqueue(m.mlq.Enqueue(t))
}

func (m *multilevel) Select(now int64) (*Task, int64) {
	if m.feedback {
		m.age(now)
	}
	t, ok := m.mlq.DequeueHighestPriority()
	if !ok {
		return nil, 0
	}
	q := m.mlq.Level(t.QueueLevel).Quantum
	if q == 0 || t.Remaining < q {
		return t, t.Remaining
	}
	return t, q
}

func (m *multilevel) Requeue(t *Task, ran, now int64) {
	if m.feedback {
		q := m.mlq.Level(t.QueueLevel).Quantum
		if q > 0 && ran == q && t.QueueLevel < m.mlq.Levels()-1 {
			t.QueueLevel++
			m.hooks.countMigration(false)
			m.hooks.emit(EventDemote, t, now, ran)
		}
		reclassify(t)
	}
	t.Queued = now
	mustEnqueue(m.mlq.Enqueue(t))
}

func (m *multilevel) Len() int { return m.mlq.Len() }

// age applies every aging boundary up to and including now. A long slice or an
// idle skip can cross several boundaries; each one is applied in order.
func (m *multilevel) age(now int64) {
	for m.nextAging <= now {
		m.applyAging(m.nextAging, now)
		m.nextAging += m.agingInterval
	}
}

// applyAging ages every task that was already waiting above level 0 at boundary at.
func (m *multilevel) applyAging(at, now int64) {
	var waiting []*Task
	for lvl := 1; lvl < m.mlq.Levels(); lvl++ {
		for _, t := range m.mlq.Level(lvl).Tasks() {
			if t.Queued <= at {
				waiting = append(waiting, t)
			}
		}
	}
	for _, t := range waiting {
		t.Age++
		if t.Age < m.agingThreshold {
			continue
		}
		if err := m.mlq.Move(t, t.QueueLevel-1); err != nil {
			panic(fmt.Sprintf("sched: aging promotion: %v", err))
		}
		t.Age = 0
		m.hooks.countMigration(true)
		m.hooks.emit(EventPromote, t, now, 0)
	}
}

// checkCapacity refuses a workload that could overflow a level.
func (m *multilevel) checkCapacity(tasks []*Task) error {
	if m.capacity == 0 {
		return nil
	}
	if m.feedback {
		// any task can end up at any level
		if len(tasks) > m.capacity {
			return fmt.Errorf("%w: %d tasks for queues of capacity %d", ErrCapacityExceeded, len(tasks), m.capacity)
		}
		return nil
	}
	perLevel := make([]int, m.mlq.Levels())
	for _, t := range tasks {
		l := classLevel(t.Class, m.mlq.Levels())
		perLevel[l]++
		if perLevel[l] > m.capacity {
			return fmt.Errorf("%w: level %d (%s) receives more than %d tasks",
				ErrCapacityExceeded, l, m.mlq.Level(l).Name, m.capacity)
		}
	}
	return nil
}

// reclassify updates the task's class from observed behaviour. It only affects
// metrics bucketing, never the queue level.
func reclassify(t *Task) {
	switch {
	case t.IOFrequency > 2:
		t.Class = ClassInteractive
	case t.Burst > 10:
		t.Class = ClassBatch
	}
}

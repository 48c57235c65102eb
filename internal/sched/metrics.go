// internal/sched/metrics.go

package sched

// TaskMetrics is the per-task summary of a run.
type TaskMetrics struct {
	ID         TaskID `json:"id" yaml:"id"`
	Name       string `json:"name" yaml:"name"`
	Class      Class  `json:"class" yaml:"class"`
	Level      int    `json:"level" yaml:"level"` // final queue level
	Arrival    int64  `json:"arrival" yaml:"arrival"`
	Burst      int64  `json:"burst,omitempty" yaml:"burst,omitempty"`
	Executed   int64  `json:"executed" yaml:"executed"`
	Start      int64  `json:"start" yaml:"start"`
	Completion int64  `json:"completion,omitempty" yaml:"completion,omitempty"`
	Waiting    int64  `json:"waiting" yaml:"waiting"`
	Turnaround int64  `json:"turnaround" yaml:"turnaround"`
	Response   int64  `json:"response" yaml:"response"`

	// periodic tasks
	Period      int64   `json:"period,omitempty" yaml:"period,omitempty"`
	Execution   int64   `json:"execution,omitempty" yaml:"execution,omitempty"`
	Deadline    int64   `json:"deadline,omitempty" yaml:"deadline,omitempty"`
	Released    int     `json:"released,omitempty" yaml:"released,omitempty"`
	Completed   int     `json:"completed,omitempty" yaml:"completed,omitempty"`
	Missed      int     `json:"missed,omitempty" yaml:"missed,omitempty"`
	SuccessRate float64 `json:"success_rate,omitempty" yaml:"success_rate,omitempty"`
}

// ClassMetrics averages the tasks that ended a multilevel run in one class.
type ClassMetrics struct {
	Class         Class   `json:"class" yaml:"class"`
	Tasks         int     `json:"tasks" yaml:"tasks"`
	AvgWaiting    float64 `json:"avg_waiting" yaml:"avg_waiting"`
	AvgTurnaround float64 `json:"avg_turnaround" yaml:"avg_turnaround"`
	AvgResponse   float64 `json:"avg_response" yaml:"avg_response"`
}

// Metrics is the aggregate summary of a run.
type Metrics struct {
	Tasks []TaskMetrics `json:"tasks" yaml:"tasks"`

	Completed     int     `json:"completed" yaml:"completed"`
	AvgWaiting    float64 `json:"avg_waiting" yaml:"avg_waiting"`
	AvgTurnaround float64 `json:"avg_turnaround" yaml:"avg_turnaround"`
	AvgResponse   float64 `json:"avg_response" yaml:"avg_response"`

	Makespan    int64   `json:"makespan" yaml:"makespan"`
	Busy        int64   `json:"busy" yaml:"busy"`
	Utilization float64 `json:"utilization" yaml:"utilization"` // percent
	Throughput  float64 `json:"throughput" yaml:"throughput"`   // completions per tick

	Preemptions     int `json:"preemptions" yaml:"preemptions"`
	ContextSwitches int `json:"context_switches" yaml:"context_switches"`
	DeadlineMisses  int `json:"deadline_misses" yaml:"deadline_misses"`
	Migrations      int `json:"migrations" yaml:"migrations"`
	AgingPromotions int `json:"aging_promotions" yaml:"aging_promotions"`

	Released    int     `json:"released,omitempty" yaml:"released,omitempty"`
	SuccessRate float64 `json:"success_rate,omitempty" yaml:"success_rate,omitempty"`

	ByClass []ClassMetrics `json:"by_class,omitempty" yaml:"by_class,omitempty"`
}

// counters are the running totals of a run.
type counters struct {
	completed   int
	preemptions int
	switches    int
	misses      int
	migrations  int
	promotions  int
	busy        int64
}

func percent(part, whole float64) float64 {
	if whole <= 0 {
		return 0
	}
	return part / whole * 100
}

// oneShotMetrics summarises a run of one-shot tasks. The makespan is the tick at
// which the last task completed.
func oneShotMetrics(tasks []*Task, c counters, makespan int64, byClass bool) Metrics {
	m := Metrics{
		Tasks:           make([]TaskMetrics, 0, len(tasks)),
		Completed:       c.completed,
		Makespan:        makespan,
		Busy:            c.busy,
		Preemptions:     c.preemptions,
		ContextSwitches: c.switches,
		Migrations:      c.migrations,
		AgingPromotions: c.promotions,
	}
	var wait, turn, resp int64
	for _, t := range tasks {
		tm := TaskMetrics{
			ID:         t.ID,
			Name:       t.Label(),
			Class:      t.Class,
			Level:      t.QueueLevel,
			Arrival:    t.Arrival,
			Burst:      t.Burst,
			Executed:   t.Executed,
			Start:      t.Start,
			Completion: t.Completion,
		}
		if t.State == StateTerminated {
			tm.Turnaround = t.Completion - t.Arrival
			tm.Waiting = tm.Turnaround - t.Burst
			tm.Response = t.Start - t.Arrival
			wait += tm.Waiting
			turn += tm.Turnaround
			resp += tm.Response
		}
		m.Tasks = append(m.Tasks, tm)
	}
	if c.completed > 0 {
		n := float64(c.completed)
		m.AvgWaiting = float64(wait) / n
		m.AvgTurnaround = float64(turn) / n
		m.AvgResponse = float64(resp) / n
	}
	if makespan > 0 {
		m.Utilization = percent(float64(c.busy), float64(makespan))
		m.Throughput = float64(c.completed) / float64(makespan)
	}
	if byClass {
		m.ByClass = classMetrics(m.Tasks)
	}
	return m
}

func classMetrics(tasks []TaskMetrics) []ClassMetrics {
	var out []ClassMetrics
	for _, c := range []Class{ClassSystem, ClassInteractive, ClassBatch, ClassBackground} {
		cm := ClassMetrics{Class: c}
		for _, tm := range tasks {
			if tm.Class != c {
				continue
			}
			cm.Tasks++
			cm.AvgWaiting += float64(tm.Waiting)
			cm.AvgTurnaround += float64(tm.Turnaround)
			cm.AvgResponse += float64(tm.Response)
		}
		if cm.Tasks == 0 {
			continue
		}
		n := float64(cm.Tasks)
		cm.AvgWaiting /= n
		cm.AvgTurnaround /= n
		cm.AvgResponse /= n
		out = append(out, cm)
	}
	return out
}

// periodicMetrics summarises a real-time run over its horizon. Completed counts
// finished instances.
func periodicMetrics(tasks []*Task, c counters, horizon int64) Metrics {
	m := Metrics{
		Tasks:           make([]TaskMetrics, 0, len(tasks)),
		Makespan:        horizon,
		Busy:            c.busy,
		Preemptions:     c.preemptions,
		ContextSwitches: c.switches,
		DeadlineMisses:  c.misses,
	}
	for _, t := range tasks {
		m.Tasks = append(m.Tasks, TaskMetrics{
			ID:          t.ID,
			Name:        t.Label(),
			Class:       t.Class,
			Arrival:     t.Arrival,
			Executed:    t.Executed,
			Start:       t.Start,
			Period:      t.Period,
			Execution:   t.Execution,
			Deadline:    t.Deadline,
			Released:    t.Released,
			Completed:   t.Completed,
			Missed:      t.Missed,
			SuccessRate: percent(float64(t.Completed), float64(t.Released)),
		})
		m.Released += t.Released
		m.Completed += t.Completed
	}
	m.SuccessRate = percent(float64(m.Completed), float64(m.Released))
	if horizon > 0 {
		m.Utilization = percent(float64(c.busy), float64(horizon))
		m.Throughput = float64(m.Completed) / float64(horizon)
	}
	return m
}

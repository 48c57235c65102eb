// internal/sched/scheduler.go

package sched

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
)

// Scheduler is the context of one simulation run. It owns the task table, the
// strategy's ready set, the simulated clock, the running totals and the trace.
// It is single-threaded: nothing inside a run blocks or runs concurrently.
type Scheduler struct {
	cfg      Config
	policy   Policy
	strategy Strategy

	tasks []*Task // sorted by (arrival, id)
	next  int     // index of the next one-shot task to arrive

	clock     TickClock
	horizon   int64 // real-time policies only
	partial   bool  // horizon truncated at the hyperperiod cap
	tickLimit int64
	analysis  *Analysis

	prev   *Task // last task that executed
	totals counters
	trace  Trace

	logger    *slog.Logger
	observers []Observer
	result    *Result
}

// Result is the outcome of a run: the execution trace, the metrics summary and,
// for real-time policies, the schedulability analysis.
type Result struct {
	Policy   Policy    `json:"policy" yaml:"policy"`
	Strategy string    `json:"strategy" yaml:"strategy"`
	Config   Config    `json:"config" yaml:"config"`
	Horizon  int64     `json:"horizon" yaml:"horizon"`
	Partial  bool      `json:"partial,omitempty" yaml:"partial,omitempty"`
	Trace    Trace     `json:"trace" yaml:"trace"`
	Metrics  Metrics   `json:"metrics" yaml:"metrics"`
	Analysis *Analysis `json:"analysis,omitempty" yaml:"analysis,omitempty"`
}

// Option customises a Scheduler.
type Option func(*Scheduler)

// WithLogger sets the logger used for run summaries and per-dispatch debug lines.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithObserver registers an observer. Observers are called in registration order.
func WithObserver(o Observer) Option {
	return func(s *Scheduler) {
		if o != nil {
			s.observers = append(s.observers, o)
		}
	}
}

// WithTickLimit refuses, at construction, any workload whose simulated length
// could exceed n ticks. n <= 0 disables the limit.
func WithTickLimit(n int64) Option {
	return func(s *Scheduler) { s.tickLimit = n }
}

// New validates cfg and tasks and builds a run. The tasks are copied: the
// caller's descriptors are never mutated, so the same slice can be run again
// under another policy.
func New(cfg Config, tasks []*Task, opts ...Option) (*Scheduler, error) {
	cfg = cfg.Normalize()
	policy, err := ParsePolicy(cfg.Policy)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, fmt.Errorf("%w: empty task set", ErrInvalidTaskDescriptor)
	}
	if err := ValidateTaskSet(tasks); err != nil {
		return nil, err
	}
	if cfg.MaxTasks > 0 && len(tasks) > cfg.MaxTasks {
		return nil, fmt.Errorf("%w: %d tasks, task table holds %d", ErrCapacityExceeded, len(tasks), cfg.MaxTasks)
	}
	if periodic := tasks[0].IsPeriodic(); periodic != policy.IsRealtime() {
		kind := "one-shot"
		if periodic {
			kind = "periodic"
		}
		return nil, fmt.Errorf("%w: policy %s cannot schedule %s tasks", ErrInvalidTaskDescriptor, policy, kind)
	}

	s := &Scheduler{
		cfg:    cfg,
		policy: policy,
		tasks:  make([]*Task, len(tasks)),
		logger: slog.Default(),
	}
	for i, t := range tasks {
		s.tasks[i] = t.clone()
	}
	sort.Slice(s.tasks, func(i, j int) bool { return ByArrival(s.tasks[i], s.tasks[j]) < 0 })
	for _, opt := range opts {
		opt(s)
	}

	if s.strategy, err = newStrategy(policy, cfg); err != nil {
		return nil, err
	}
	if c, ok := s.strategy.(interface{ checkCapacity([]*Task) error }); ok {
		if err := c.checkCapacity(s.tasks); err != nil {
			return nil, err
		}
	}

	if policy.IsRealtime() {
		if err := s.planHorizon(); err != nil {
			return nil, err
		}
		s.analysis = Analyze(policy, s.tasks)
	}
	if bound := s.bound(); s.tickLimit > 0 && bound > s.tickLimit {
		return nil, fmt.Errorf("%w: run may take %d ticks, limit is %d", ErrTickLimit, bound, s.tickLimit)
	}

	if a, ok := s.strategy.(attacher); ok {
		a.attach(s, s.tasks)
	}
	return s, nil
}

// Simulate builds a run and executes it.
func Simulate(cfg Config, tasks []*Task, opts ...Option) (*Result, error) {
	s, err := New(cfg, tasks, opts...)
	if err != nil {
		return nil, err
	}
	return s.Run(), nil
}

// planHorizon sets the real-time horizon: one hyperperiod plus the largest
// release offset, bounded by the configured cap.
func (s *Scheduler) planHorizon() error {
	limit := int64(s.cfg.HyperperiodCap)
	periods := make([]int64, len(s.tasks))
	var offset int64
	for i, t := range s.tasks {
		periods[i] = t.Period
		offset = max(offset, t.Arrival)
	}

	h, err := Hyperperiod(periods, limit)
	if err == nil && h+offset > limit {
		err = fmt.Errorf("%w: hyperperiod %d plus offset %d exceeds cap %d", ErrDegenerateHyperperiod, h, offset, limit)
	}
	switch {
	case err == nil:
		s.horizon = h + offset
	case errors.Is(err, ErrDegenerateHyperperiod) && s.cfg.TruncateHorizon:
		s.horizon = limit
		s.partial = true
		s.logger.Warn("hyperperiod exceeds cap, simulating a partial horizon",
			"policy", s.policy.String(), "cap", limit, "error", err)
	default:
		return err
	}
	return nil
}

// bound is the longest a run can take: the horizon for real-time policies, the
// last arrival plus all work otherwise.
func (s *Scheduler) bound() int64 {
	if s.policy.IsRealtime() {
		return s.horizon
	}
	var last, work int64
	for _, t := range s.tasks {
		last = max(last, t.Arrival)
		work += t.Burst
	}
	return last + work
}

// Policy returns the policy of the run.
func (s *Scheduler) Policy() Policy { return s.policy }

// Horizon returns the real-time horizon, 0 for one-shot policies.
func (s *Scheduler) Horizon() int64 { return s.horizon }

// Analysis returns the pre-simulation schedulability analysis, nil for one-shot policies.
func (s *Scheduler) Analysis() *Analysis { return s.analysis }

// Run executes the simulation to completion and returns its result. A run
// cannot fail once built; calling Run again returns the same result.
func (s *Scheduler) Run() *Result {
	if s.result != nil {
		return s.result
	}
	s.logger.Info("simulation started",
		"policy", s.policy.String(),
		"strategy", s.strategy.Name(),
		"tasks", len(s.tasks),
		"horizon", s.horizon,
	)

	var m Metrics
	if s.policy.IsRealtime() {
		s.runPeriodic()
		m = periodicMetrics(s.tasks, s.totals, s.horizon)
	} else {
		s.runOneShot()
		m = oneShotMetrics(s.tasks, s.totals, s.clock.Now(), s.policy.IsMultilevel())
	}

	s.result = &Result{
		Policy:   s.policy,
		Strategy: s.strategy.Name(),
		Config:   s.cfg,
		Horizon:  s.horizon,
		Partial:  s.partial,
		Trace:    s.trace,
		Metrics:  m,
		Analysis: s.analysis,
	}
	s.logger.Info("simulation finished",
		"policy", s.policy.String(),
		"ticks", s.clock.Now(),
		"completed", m.Completed,
		"preemptions", m.Preemptions,
		"deadline_misses", m.DeadlineMisses,
		"utilization", m.Utilization,
	)
	return s.result
}

// runOneShot loops until every task has terminated.
func (s *Scheduler) runOneShot() {
	for s.totals.completed < len(s.tasks) {
		// 1) release arrivals
		s.admitArrivals()

		// 2) select
		t, slice := s.strategy.Select(s.clock.Now())
		if t == nil {
			if s.next >= len(s.tasks) {
				panic("sched: nothing ready and nothing left to arrive")
			}
			// 3) idle skip to the next arrival
			s.idle(s.tasks[s.next].Arrival)
			continue
		}

		// 4) execute and book-keep
		s.execute(t, slice)
	}
}

// admitArrivals makes every task with arrival <= now ready, in (arrival, id) order.
func (s *Scheduler) admitArrivals() {
	now := s.clock.Now()
	for s.next < len(s.tasks) && s.tasks[s.next].Arrival <= now {
		t := s.tasks[s.next]
		s.next++
		t.State = StateReady
		s.strategy.Admit(t, now)
		s.emit(EventRelease, t, now, 0)
	}
}

// runPeriodic simulates tick by tick up to the horizon.
func (s *Scheduler) runPeriodic() {
	for s.clock.Now() < s.horizon {
		now := s.clock.Now()

		// 1) release new instances, abandoning unfinished ones
		s.release(now)

		// 2) deadline check
		s.checkDeadlines(now)

		// 3) select
		t, slice := s.strategy.Select(now)
		if t == nil {
			next := s.horizon
			for _, pt := range s.tasks {
				next = min(next, pt.NextRelease)
			}
			s.idle(next)
			continue
		}

		// 4) execute one tick
		s.execute(t, slice)
	}
	// deadlines and releases falling exactly on the horizon
	s.checkDeadlines(s.horizon)
	s.closeHorizon()
}

// closeHorizon charges a miss to every instance that would be abandoned by a
// release at the horizon. Only a deadline longer than the period gets here
// without checkDeadlines having counted it already.
func (s *Scheduler) closeHorizon() {
	for _, t := range s.tasks {
		if t.active && t.Remaining > 0 && t.NextRelease <= s.horizon {
			s.recordMiss(t, s.horizon)
		}
	}
}

func (s *Scheduler) release(now int64) {
	for _, t := range s.tasks {
		if t.NextRelease > now {
			continue
		}
		if t.active && t.Remaining > 0 {
			s.recordMiss(t, now)
			if w, ok := s.strategy.(withdrawer); ok {
				w.Withdraw(t)
			}
		}
		t.Remaining = t.Execution
		t.NextDeadline = now + t.Deadline
		t.NextRelease += t.Period
		t.Released++
		t.missRecorded = false
		t.active = true
		t.State = StateReady
		s.strategy.Admit(t, now)
		s.emit(EventRelease, t, now, 0)
	}
}

func (s *Scheduler) checkDeadlines(now int64) {
	for _, t := range s.tasks {
		if t.active && t.Remaining > 0 && now >= t.NextDeadline {
			s.recordMiss(t, now)
		}
	}
}

// recordMiss counts a miss at most once per instance. The instance stays in the
// ready set until its next release.
func (s *Scheduler) recordMiss(t *Task, now int64) {
	if t.missRecorded {
		return
	}
	t.missRecorded = true
	t.Missed++
	s.totals.misses++
	s.emit(EventDeadlineMiss, t, now, 0)
	s.logger.Debug("deadline miss", "tick", now, "task", int(t.ID), "deadline", t.NextDeadline)
}

func (s *Scheduler) idle(until int64) {
	now := s.clock.Now()
	if until <= now {
		return
	}
	s.trace.add(Slice{Start: now, End: until, Idle: true})
	s.emit(EventIdle, nil, now, until-now)
	s.clock.AdvanceTo(until)
}

// execute runs t for slice ticks and applies the bookkeeping.
func (s *Scheduler) execute(t *Task, slice int64) {
	now := s.clock.Now()
	realtime := s.policy.IsRealtime()

	if t != s.prev {
		s.totals.switches++
		// One-shot: only a task sent back unfinished counts as preempted.
		// Real-time: any change of selection counts.
		if s.prev != nil && (realtime || s.prev.State != StateTerminated) {
			s.totals.preemptions++
			s.emit(EventPreempt, s.prev, now, 0)
		}
		s.emit(EventDispatch, t, now, 0)
	}
	if t.Start < 0 {
		t.Start = now
	}

	t.State = StateRunning
	s.clock.Advance(slice)
	t.Remaining -= slice
	t.Executed += slice
	s.totals.busy += slice

	sl := Slice{Start: now, End: now + slice, TaskID: t.ID}
	if s.policy.IsMultilevel() {
		sl.Level = t.QueueLevel
	}
	if realtime {
		sl.Deadline = t.NextDeadline
	}
	s.trace.add(sl)
	s.logger.Debug("dispatch", "tick", now, "task", int(t.ID), "slice", slice, "level", t.QueueLevel, "remaining", t.Remaining)

	end := s.clock.Now()
	s.prev = t
	switch {
	case t.Remaining > 0:
		t.State = StateReady
		if !realtime {
			// arrivals during the slice queue ahead of the task being sent back
			s.admitArrivals()
		}
		s.strategy.Requeue(t, slice, end)
	case realtime:
		t.Completed++
		t.active = false
		t.State = StateNew // until its next release
		s.emit(EventFinish, t, end, slice)
	default:
		t.State = StateTerminated
		t.Completion = end
		s.totals.completed++
		s.emit(EventFinish, t, end, slice)
	}
}

// emit implements runHooks.
func (s *Scheduler) emit(kind EventKind, t *Task, now, ran int64) {
	if len(s.observers) == 0 {
		return
	}
	ev := Event{Tick: now, Kind: kind, Ran: ran}
	if t != nil {
		ev.TaskID = t.ID
		ev.Level = t.QueueLevel
		if t.IsPeriodic() {
			ev.Deadline = t.NextDeadline
		}
	}
	for _, o := range s.observers {
		o.Observe(ev)
	}
}

// countMigration implements runHooks.
func (s *Scheduler) countMigration(promotion bool) {
	s.totals.migrations++
	if promotion {
		s.totals.promotions++
	}
}

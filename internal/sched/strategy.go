// internal/sched/strategy.go

package sched

import "fmt"

// Strategy is the policy-specific part of a run. The Scheduler owns the loop
// (release, deadline check, select, execute, bookkeeping) and asks the strategy
// only which ready task runs next and for how long.
type Strategy interface {
	// Name returns the policy's display name.
	Name() string
	// Admit adds a task that just became ready.
	Admit(t *Task, now int64)
	// Select removes and returns the next task to run and the length of its slice.
	// It returns nil when no admitted task is ready.
	Select(now int64) (*Task, int64)
	// Requeue returns a task that ran for ran ticks and still has work left.
	Requeue(t *Task, ran, now int64)
	// Len returns the number of ready tasks.
	Len() int
}

// withdrawer is implemented by strategies that can drop a ready task, used to
// abandon an unfinished periodic instance at its next release.
type withdrawer interface {
	Withdraw(t *Task)
}

// attacher is implemented by strategies that need the run's task table or its
// event and counter hooks.
type attacher interface {
	attach(r runHooks, tasks []*Task)
}

// runHooks is the part of the Scheduler a strategy may call back into.
type runHooks interface {
	emit(kind EventKind, t *Task, now, ran int64)
	countMigration(promotion bool)
}

// newStrategy builds the strategy for cfg.
func newStrategy(p Policy, cfg Config) (Strategy, error) {
	switch p {
	case PolicyFCFS:
		return newFCFS(cfg.QueueCapacity), nil
	case PolicySJF:
		return newSJF(cfg.QueueCapacity), nil
	case PolicyRoundRobin:
		return newRoundRobin(int64(cfg.Quantum), cfg.QueueCapacity), nil
	case PolicyPriority:
		return newPriority(cfg.QueueCapacity), nil
	case PolicyMLQ:
		return newMultilevel(cfg, false), nil
	case PolicyMLFQ:
		return newMultilevel(cfg, true), nil
	case PolicyRMS:
		return newRMS(), nil
	case PolicyEDF:
		return newEDF(), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownPolicy, int(p))
	}
}

// mustEnqueue enqueues into a queue whose capacity was checked when the run was built.
func mustEnqueue(err error) {
	if err != nil {
		panic(fmt.Sprintf("sched: enqueue after capacity check: %v", err))
	}
}

// internal/sched/errors.go

package sched

import "errors"

// Setup errors. All of them are returned before a simulation starts; a run that
// has started always completes to its horizon.
var (
	// ErrInvalidTaskDescriptor reports a malformed task or task set.
	ErrInvalidTaskDescriptor = errors.New("invalid task descriptor")

	// ErrCapacityExceeded reports a task table or queue limit hit while building a run.
	ErrCapacityExceeded = errors.New("capacity exceeded")

	// ErrDegenerateHyperperiod reports a hyperperiod larger than the configured cap.
	ErrDegenerateHyperperiod = errors.New("degenerate hyperperiod")

	// ErrUnknownPolicy reports a policy name that does not map to a strategy.
	ErrUnknownPolicy = errors.New("unknown policy")

	// ErrTickLimit reports a run whose simulated length would exceed the caller's tick limit.
	ErrTickLimit = errors.New("tick limit exceeded")
)

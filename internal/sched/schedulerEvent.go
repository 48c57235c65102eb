// internal/sched/schedulerEvent.go

package sched

// EventKind represents the type of scheduler event
type EventKind int

const (
	EventIdle EventKind = iota
	EventRelease
	EventDispatch
	EventPreempt
	EventFinish
	EventDeadlineMiss
	EventDemote
	EventPromote
)

// Event is emitted synchronously on every scheduling decision. Tick is simulated time.
type Event struct {
	Tick     int64
	Kind     EventKind
	TaskID   TaskID
	Level    int
	Deadline int64 // absolute deadline of the current instance, periodic tasks only
	Ran      int64 // ticks executed by the slice that produced the event
}

func (ek EventKind) String() string {
	switch ek {
	case EventIdle:
		return "Idle"
	case EventRelease:
		return "Release"
	case EventDispatch:
		return "Dispatch"
	case EventPreempt:
		return "Preempt"
	case EventFinish:
		return "Finish"
	case EventDeadlineMiss:
		return "DeadlineMiss"
	case EventDemote:
		return "Demote"
	case EventPromote:
		return "Promote"
	default:
		return "Unknown"
	}
}

// Observer receives scheduler events. Observers run on the simulation loop and
// must not call back into the scheduler.
type Observer interface {
	Observe(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// Observe calls f(ev).
func (f ObserverFunc) Observe(ev Event) { f(ev) }

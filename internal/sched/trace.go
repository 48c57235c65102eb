// internal/sched/trace.go

package sched

// Slice is one contiguous stretch of the execution trace: [Start, End).
// Idle slices have TaskID 0 and Idle set. Level is the queue level for
// multilevel policies; Deadline is the absolute deadline of the running
// instance for real-time policies.
type Slice struct {
	Start    int64  `json:"start" yaml:"start"`
	End      int64  `json:"end" yaml:"end"`
	TaskID   TaskID `json:"task_id" yaml:"task_id"`
	Level    int    `json:"level,omitempty" yaml:"level,omitempty"`
	Deadline int64  `json:"deadline,omitempty" yaml:"deadline,omitempty"`
	Idle     bool   `json:"idle,omitempty" yaml:"idle,omitempty"`
}

// Len returns the number of ticks covered by the slice.
func (s Slice) Len() int64 { return s.End - s.Start }

// Trace is the time-ordered execution trace of a run.
type Trace []Slice

// add appends s, merging it into the previous slice when both describe the
// same task with the same annotation and touch.
func (tr *Trace) add(s Slice) {
	if s.End <= s.Start {
		return
	}
	if n := len(*tr); n > 0 {
		last := &(*tr)[n-1]
		if last.End == s.Start && last.TaskID == s.TaskID && last.Idle == s.Idle &&
			last.Level == s.Level && last.Deadline == s.Deadline {
			last.End = s.End
			return
		}
	}
	*tr = append(*tr, s)
}

// Order returns the task ids in order of first dispatch.
func (tr Trace) Order() []TaskID {
	seen := make(map[TaskID]bool)
	var out []TaskID
	for _, s := range tr {
		if s.Idle || seen[s.TaskID] {
			continue
		}
		seen[s.TaskID] = true
		out = append(out, s.TaskID)
	}
	return out
}

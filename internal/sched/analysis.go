// internal/sched/analysis.go

package sched

import (
	"fmt"
	"math"
	"sort"
)

// Verdict is the outcome of a schedulability test.
type Verdict int

const (
	Unknown Verdict = iota
	Schedulable
	NotSchedulable
)

func (v Verdict) String() string {
	switch v {
	case Schedulable:
		return "Schedulable"
	case NotSchedulable:
		return "NotSchedulable"
	default:
		return "Unknown"
	}
}

// MarshalText encodes the verdict by name.
func (v Verdict) MarshalText() ([]byte, error) { return []byte(v.String()), nil }

// ResponseTime is the worst-case response time of one task under fixed priorities.
type ResponseTime struct {
	TaskID   TaskID `json:"task_id" yaml:"task_id"`
	Response int64  `json:"response" yaml:"response"`
	Deadline int64  `json:"deadline" yaml:"deadline"`
	Meets    bool   `json:"meets" yaml:"meets"`
}

// Analysis is the pre-simulation schedulability report of a periodic task set.
type Analysis struct {
	Policy      Policy  `json:"policy" yaml:"policy"`
	Tasks       int     `json:"tasks" yaml:"tasks"`
	Utilization float64 `json:"utilization" yaml:"utilization"`
	Bound       float64 `json:"bound" yaml:"bound"`
	Density     float64 `json:"density" yaml:"density"`
	Verdict     Verdict `json:"verdict" yaml:"verdict"`

	// Fixed-priority only: exact response-time analysis in rate-monotonic order.
	// The bound verdict above stays sufficient-only.
	ResponseTimes []ResponseTime `json:"response_times,omitempty" yaml:"response_times,omitempty"`
	Exact         Verdict        `json:"exact" yaml:"exact"`
}

// Analyze runs the test matching p. It returns nil for policies that do not
// schedule periodic tasks.
func Analyze(p Policy, tasks []*Task) *Analysis {
	switch p {
	case PolicyRMS:
		return AnalyzeRMS(tasks)
	case PolicyEDF:
		return AnalyzeEDF(tasks)
	default:
		return nil
	}
}

// RMSBound is the Liu & Layland bound n(2^(1/n) - 1).
func RMSBound(n int) float64 {
	if n <= 0 {
		return 1
	}
	return float64(n) * (math.Pow(2, 1/float64(n)) - 1)
}

// Utilization is the sum of C/T over the periodic tasks.
func Utilization(tasks []*Task) float64 {
	var u float64
	for _, t := range tasks {
		u += t.Utilization()
	}
	return u
}

// Density is the sum of C/min(D, T) over the periodic tasks.
func Density(tasks []*Task) float64 {
	var d float64
	for _, t := range tasks {
		if !t.IsPeriodic() {
			continue
		}
		d += float64(t.Execution) / float64(min(t.Deadline, t.Period))
	}
	return d
}

// AnalyzeRMS applies the utilization bound: U <= n(2^(1/n)-1) is Schedulable,
// anything above it is Unknown since the bound is sufficient only.
func AnalyzeRMS(tasks []*Task) *Analysis {
	a := &Analysis{
		Policy:      PolicyRMS,
		Tasks:       len(tasks),
		Utilization: Utilization(tasks),
		Bound:       RMSBound(len(tasks)),
		Density:     Density(tasks),
		Verdict:     Unknown,
	}
	if a.Utilization <= a.Bound {
		a.Verdict = Schedulable
	}
	a.ResponseTimes = ResponseTimeAnalysis(tasks)
	a.Exact = Schedulable
	for _, rt := range a.ResponseTimes {
		if !rt.Meets {
			a.Exact = NotSchedulable
			break
		}
	}
	return a
}

// AnalyzeEDF applies the single-processor EDF test. With implicit deadlines
// U <= 1 is exact. With constrained deadlines density <= 1 is sufficient and
// U <= 1 < density is Unknown.
func AnalyzeEDF(tasks []*Task) *Analysis {
	a := &Analysis{
		Policy:      PolicyEDF,
		Tasks:       len(tasks),
		Utilization: Utilization(tasks),
		Bound:       1,
		Density:     Density(tasks),
	}
	switch {
	case a.Utilization > 1:
		a.Verdict = NotSchedulable
	case a.Density <= 1:
		a.Verdict = Schedulable
	default:
		a.Verdict = Unknown
	}
	a.Exact = a.Verdict
	return a
}

// ResponseTimeAnalysis computes R = C + sum ceil(R/Tj)*Cj over higher-priority
// tasks, iterating to a fixpoint, with priorities in rate-monotonic order
// (shorter period first, then id). Iteration stops once R exceeds the deadline.
func ResponseTimeAnalysis(tasks []*Task) []ResponseTime {
	ordered := make([]*Task, 0, len(tasks))
	for _, t := range tasks {
		if t.IsPeriodic() {
			ordered = append(ordered, t)
		}
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Period != ordered[j].Period {
			return ordered[i].Period < ordered[j].Period
		}
		return ordered[i].ID < ordered[j].ID
	})

	out := make([]ResponseTime, 0, len(ordered))
	for i, t := range ordered {
		r := t.Execution
		for {
			next := t.Execution
			for _, hp := range ordered[:i] {
				next += ceilDiv(r, hp.Period) * hp.Execution
			}
			if next == r || next > t.Deadline {
				r = next
				break
			}
			r = next
		}
		out = append(out, ResponseTime{TaskID: t.ID, Response: r, Deadline: t.Deadline, Meets: r <= t.Deadline})
	}
	return out
}

func ceilDiv(a, b int64) int64 { return (a + b - 1) / b }

// GCD returns the greatest common divisor of a and b.
func GCD(a, b int64) int64 {
	for b != 0 {
		a, b = b, a%b
	}
	if a < 0 {
		return -a
	}
	return a
}

// LCM returns the least common multiple of a and b, and false on overflow.
func LCM(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	q := a / GCD(a, b)
	if q > math.MaxInt64/b {
		return 0, false
	}
	return q * b, true
}

// Hyperperiod returns the LCM of periods. When the LCM exceeds limit (or
// overflows) it returns ErrDegenerateHyperperiod; the returned value is then the
// partial LCM at the point the limit was crossed. limit <= 0 means no limit.
func Hyperperiod(periods []int64, limit int64) (int64, error) {
	h := int64(1)
	for _, p := range periods {
		if p <= 0 {
			return 0, fmt.Errorf("%w: period %d must be positive", ErrInvalidTaskDescriptor, p)
		}
		next, ok := LCM(h, p)
		if !ok {
			return h, fmt.Errorf("%w: LCM of periods overflows int64", ErrDegenerateHyperperiod)
		}
		h = next
		if limit > 0 && h > limit {
			return h, fmt.Errorf("%w: hyperperiod %d exceeds cap %d", ErrDegenerateHyperperiod, h, limit)
		}
	}
	return h, nil
}

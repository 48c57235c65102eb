package report

import (
	"encoding/csv"
	"io"
	"strconv"

	"schedsim/internal/sched"
)

// WriteTraceCSV writes the execution trace, one slice per row.
func WriteTraceCSV(w io.Writer, res *sched.Result) error {
	names := labels(res)
	cw := csv.NewWriter(w)
	cw.Write([]string{"start", "end", "task_id", "task", "level", "deadline", "idle"})
	for _, s := range res.Trace {
		name := names[s.TaskID]
		if s.Idle {
			name = "idle"
		}
		cw.Write([]string{
			strconv.FormatInt(s.Start, 10),
			strconv.FormatInt(s.End, 10),
			strconv.Itoa(int(s.TaskID)),
			name,
			strconv.Itoa(s.Level),
			strconv.FormatInt(s.Deadline, 10),
			strconv.FormatBool(s.Idle),
		})
	}
	cw.Flush()
	return cw.Error()
}

// CSVSink is a sched.Observer that logs every scheduler event as a CSV row.
type CSVSink struct {
	w *csv.Writer
}

// NewCSVSink writes the header row and returns a sink ready to observe a run.
func NewCSVSink(w io.Writer) *CSVSink {
	cw := csv.NewWriter(w)

	// write header
	cw.Write([]string{"tick", "event", "task_id", "level", "deadline", "ran_ticks"})
	return &CSVSink{w: cw}
}

// Observe implements sched.Observer.
func (s *CSVSink) Observe(ev sched.Event) {
	s.w.Write([]string{
		strconv.FormatInt(ev.Tick, 10),
		ev.Kind.String(),
		strconv.Itoa(int(ev.TaskID)),
		strconv.Itoa(ev.Level),
		strconv.FormatInt(ev.Deadline, 10),
		strconv.FormatInt(ev.Ran, 10),
	})
}

// Flush writes buffered rows and reports the first write error, if any.
func (s *CSVSink) Flush() error {
	s.w.Flush()
	return s.w.Error()
}

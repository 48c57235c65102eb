package report

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"schedsim/internal/sched"
)

// WriteText prints the human-readable report: header, per-task table,
// aggregates, Gantt line and, for periodic policies, the schedulability test.
func WriteText(w io.Writer, r *Report) error {
	res := r.Result
	names := labels(res)

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Run:\t%s\n", r.RunID)
	fmt.Fprintf(tw, "Workload:\t%s\n", r.Workload)
	fmt.Fprintf(tw, "Policy:\t%s\n", res.Strategy)
	if res.Policy.IsRealtime() {
		horizon := fmt.Sprintf("%d ticks", res.Horizon)
		if res.Partial {
			horizon += " (truncated)"
		}
		fmt.Fprintf(tw, "Horizon:\t%s\n", horizon)
	}
	fmt.Fprintln(tw)

	if res.Policy.IsRealtime() {
		periodicTable(tw, res.Metrics)
	} else {
		oneShotTable(tw, res)
	}
	fmt.Fprintln(tw)
	aggregates(tw, res)
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	fmt.Fprintf(w, "Gantt: %s\n", Gantt(res.Trace, names))

	if res.Analysis != nil {
		fmt.Fprintln(w)
		return writeAnalysis(w, res.Analysis, names)
	}
	return nil
}

func oneShotTable(tw *tabwriter.Writer, res *sched.Result) {
	multilevel := res.Policy.IsMultilevel()
	header := "ID\tName\tArrival\tBurst\tStart\tFinish\tWaiting\tTurnaround\tResponse"
	if multilevel {
		header += "\tClass\tLevel"
	}
	fmt.Fprintln(tw, header)

	for _, tm := range res.Metrics.Tasks {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\t%d\t%d\t%d\t%d",
			tm.ID, tm.Name, tm.Arrival, tm.Burst,
			tm.Start, tm.Completion, tm.Waiting, tm.Turnaround, tm.Response)
		if multilevel {
			fmt.Fprintf(tw, "\t%s\t%d", tm.Class, tm.Level)
		}
		fmt.Fprintln(tw)
	}

	if multilevel && len(res.Metrics.ByClass) > 0 {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "Class\tTasks\tAvg waiting\tAvg turnaround\tAvg response")
		for _, c := range res.Metrics.ByClass {
			fmt.Fprintf(tw, "%s\t%d\t%.2f\t%.2f\t%.2f\n", c.Class, c.Tasks, c.AvgWaiting, c.AvgTurnaround, c.AvgResponse)
		}
	}
}

func periodicTable(tw *tabwriter.Writer, m sched.Metrics) {
	fmt.Fprintln(tw, "ID\tName\tPeriod\tExec\tDeadline\tReleased\tCompleted\tMissed\tSuccess")
	for _, tm := range m.Tasks {
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t%d\t%d\t%d\t%d\t%.1f%%\n",
			tm.ID, tm.Name, tm.Period, tm.Execution, tm.Deadline,
			tm.Released, tm.Completed, tm.Missed, tm.SuccessRate)
	}
}

func aggregates(tw *tabwriter.Writer, res *sched.Result) {
	m := res.Metrics
	if res.Policy.IsRealtime() {
		fmt.Fprintf(tw, "Instances released:\t%d\n", m.Released)
		fmt.Fprintf(tw, "Instances completed:\t%d\n", m.Completed)
		fmt.Fprintf(tw, "Deadline misses:\t%d\n", m.DeadlineMisses)
		fmt.Fprintf(tw, "Success rate:\t%.2f%%\n", m.SuccessRate)
	} else {
		fmt.Fprintf(tw, "Average waiting time:\t%.2f\n", m.AvgWaiting)
		fmt.Fprintf(tw, "Average turnaround time:\t%.2f\n", m.AvgTurnaround)
		fmt.Fprintf(tw, "Average response time:\t%.2f\n", m.AvgResponse)
		fmt.Fprintf(tw, "Throughput:\t%.4f tasks/tick\n", m.Throughput)
	}
	fmt.Fprintf(tw, "CPU utilization:\t%.2f%% (%d/%d ticks)\n", m.Utilization, m.Busy, m.Makespan)
	fmt.Fprintf(tw, "Context switches:\t%d\n", m.ContextSwitches)
	fmt.Fprintf(tw, "Preemptions:\t%d\n", m.Preemptions)
	if res.Policy.IsMultilevel() {
		fmt.Fprintf(tw, "Queue migrations:\t%d\n", m.Migrations)
		fmt.Fprintf(tw, "Aging promotions:\t%d\n", m.AgingPromotions)
	}
}

func writeAnalysis(w io.Writer, a *sched.Analysis, names map[sched.TaskID]string) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Schedulability (%s):\n", strings.ToUpper(a.Policy.String()))
	fmt.Fprintf(tw, "  Utilization:\t%.4f\n", a.Utilization)
	if a.Policy == sched.PolicyRMS {
		fmt.Fprintf(tw, "  Liu-Layland bound:\t%.4f\n", a.Bound)
	} else {
		fmt.Fprintf(tw, "  Density:\t%.4f\n", a.Density)
	}
	fmt.Fprintf(tw, "  Verdict:\t%s\n", a.Verdict)
	if len(a.ResponseTimes) > 0 {
		fmt.Fprintf(tw, "  Response-time analysis:\t%s\n", a.Exact)
		for _, rt := range a.ResponseTimes {
			mark := "ok"
			if !rt.Meets {
				mark = "MISS"
			}
			fmt.Fprintf(tw, "    %s\tR=%d\tD=%d\t%s\n", names[rt.TaskID], rt.Response, rt.Deadline, mark)
		}
	}
	return tw.Flush()
}

// Gantt renders the trace on one line, e.g. "[0-3 P1] [3-5 idle] [5-9 P2]".
func Gantt(tr sched.Trace, names map[sched.TaskID]string) string {
	var b strings.Builder
	for i, s := range tr {
		if i > 0 {
			b.WriteByte(' ')
		}
		label := names[s.TaskID]
		switch {
		case s.Idle:
			label = "idle"
		case label == "":
			label = fmt.Sprintf("T%d", s.TaskID)
		}
		fmt.Fprintf(&b, "[%d-%d %s]", s.Start, s.End, label)
	}
	return b.String()
}

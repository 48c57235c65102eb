package sched

import (
	"fmt"
	"strings"
)

// Policy selects a dispatch strategy.
type Policy int

const (
	PolicyFCFS Policy = iota
	PolicySJF
	PolicyRoundRobin
	PolicyPriority
	PolicyMLQ
	PolicyMLFQ
	PolicyRMS
	PolicyEDF
)

var policyNames = map[Policy]string{
	PolicyFCFS:       "fcfs",
	PolicySJF:        "sjf",
	PolicyRoundRobin: "rr",
	PolicyPriority:   "priority",
	PolicyMLQ:        "mlq",
	PolicyMLFQ:       "mlfq",
	PolicyRMS:        "rms",
	PolicyEDF:        "edf",
}

var policyAliases = map[string]Policy{
	"fcfs":                      PolicyFCFS,
	"fifo":                      PolicyFCFS,
	"first-come-first-serve":    PolicyFCFS,
	"sjf":                       PolicySJF,
	"shortest-job-first":        PolicySJF,
	"rr":                        PolicyRoundRobin,
	"round-robin":               PolicyRoundRobin,
	"roundrobin":                PolicyRoundRobin,
	"priority":                  PolicyPriority,
	"mlq":                       PolicyMLQ,
	"multilevel":                PolicyMLQ,
	"multilevel-queue":          PolicyMLQ,
	"mlfq":                      PolicyMLFQ,
	"multilevel-feedback":       PolicyMLFQ,
	"multilevel-feedback-queue": PolicyMLFQ,
	"rms":                       PolicyRMS,
	"rate-monotonic":            PolicyRMS,
	"edf":                       PolicyEDF,
	"earliest-deadline-first":   PolicyEDF,
}

// ParsePolicy maps a case-insensitive policy name or alias to a Policy.
func ParsePolicy(name string) (Policy, error) {
	p, ok := policyAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
	}
	return p, nil
}

// Policies lists every policy in declaration order.
func Policies() []Policy {
	return []Policy{PolicyFCFS, PolicySJF, PolicyRoundRobin, PolicyPriority, PolicyMLQ, PolicyMLFQ, PolicyRMS, PolicyEDF}
}

func (p Policy) String() string {
	if n, ok := policyNames[p]; ok {
		return n
	}
	return "unknown"
}

// MarshalText encodes the policy by its short name.
func (p Policy) MarshalText() ([]byte, error) { return []byte(p.String()), nil }

// IsRealtime reports whether the policy schedules periodic tasks.
func (p Policy) IsRealtime() bool { return p == PolicyRMS || p == PolicyEDF }

// IsMultilevel reports whether the policy uses a queue hierarchy.
func (p Policy) IsMultilevel() bool { return p == PolicyMLQ || p == PolicyMLFQ }

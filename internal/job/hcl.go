package job

import (
	"fmt"
	"os"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/zclconf/go-cty/cty"

	"schedsim/internal/sched"
)

// hclFile splits a workload file into its variables block and everything else.
// Variables are evaluated first so the rest of the file can use var.<name>.
type hclFile struct {
	Variables *hclVariables `hcl:"variables,block"`
	Remain    hcl.Body      `hcl:",remain"`
}

type hclVariables struct {
	Body hcl.Body `hcl:",remain"`
}

type hclWorkload struct {
	Name   string     `hcl:"name,optional"`
	Config *hclConfig `hcl:"config,block"`
	Tasks  []*hclTask `hcl:"task,block"`
}

type hclConfig struct {
	Policy          string      `hcl:"policy,optional"`
	Quantum         int         `hcl:"quantum,optional"`
	AgingThreshold  int         `hcl:"aging_threshold,optional"`
	AgingInterval   int         `hcl:"aging_interval,optional"`
	HyperperiodCap  int         `hcl:"hyperperiod_cap,optional"`
	TruncateHorizon bool        `hcl:"truncate_horizon,optional"`
	MaxTasks        int         `hcl:"max_tasks,optional"`
	QueueCapacity   int         `hcl:"queue_capacity,optional"`
	Levels          []*hclLevel `hcl:"level,block"`
}

type hclLevel struct {
	Name    string `hcl:"name,label"`
	Quantum int    `hcl:"quantum"`
}

type hclTask struct {
	Name        string `hcl:"name,label"`
	ID          int    `hcl:"id,optional"`
	Arrival     int64  `hcl:"arrival,optional"`
	Burst       int64  `hcl:"burst,optional"`
	Priority    int    `hcl:"priority,optional"`
	Class       string `hcl:"class,optional"`
	IOFrequency int    `hcl:"io_frequency,optional"`
	Period      int64  `hcl:"period,optional"`
	Execution   int64  `hcl:"execution,optional"`
	Deadline    int64  `hcl:"deadline,optional"`
}

// ParseHCL decodes a workload written in HCL:
//
//	variables {
//	  base = 10
//	}
//
//	task "control" {
//	  period    = var.base
//	  execution = 3
//	}
func ParseHCL(src []byte, filename string) (*Workload, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse HCL file %s: %w", filename, diags)
	}

	var top hclFile
	if diags := gohcl.DecodeBody(file.Body, nil, &top); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}

	evalCtx, err := variablesContext(top.Variables, filename)
	if err != nil {
		return nil, err
	}

	var parsed hclWorkload
	if diags := gohcl.DecodeBody(top.Remain, evalCtx, &parsed); diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode HCL file %s: %w", filename, diags)
	}

	w := &Workload{Name: parsed.Name, Tasks: make([]TaskSpec, 0, len(parsed.Tasks))}
	for _, t := range parsed.Tasks {
		w.Tasks = append(w.Tasks, TaskSpec{
			ID:          t.ID,
			Name:        t.Name,
			Arrival:     t.Arrival,
			Burst:       t.Burst,
			Priority:    t.Priority,
			Class:       t.Class,
			IOFrequency: t.IOFrequency,
			Period:      t.Period,
			Execution:   t.Execution,
			Deadline:    t.Deadline,
		})
	}
	if parsed.Config != nil {
		cfg := parsed.Config.toConfig()
		w.Config = &cfg
	}
	return w, nil
}

// LoadHCL reads and decodes an HCL workload file.
func LoadHCL(path string) (*Workload, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workload %s: %w", path, err)
	}
	return ParseHCL(src, path)
}

// variablesContext evaluates the variables block into an EvalContext exposing
// var.<name>. Variable values must be constant expressions.
func variablesContext(v *hclVariables, filename string) (*hcl.EvalContext, error) {
	vars := map[string]cty.Value{}
	if v != nil {
		attrs, diags := v.Body.JustAttributes()
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to read variables in %s: %w", filename, diags)
		}
		names := make([]string, 0, len(attrs))
		for name := range attrs {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			val, diags := attrs[name].Expr.Value(nil)
			if diags.HasErrors() {
				return nil, fmt.Errorf("failed to evaluate variable %q in %s: %w", name, filename, diags)
			}
			vars[name] = val
		}
	}
	varVal := cty.EmptyObjectVal
	if len(vars) > 0 {
		varVal = cty.ObjectVal(vars)
	}
	return &hcl.EvalContext{Variables: map[string]cty.Value{"var": varVal}}, nil
}

func (c *hclConfig) toConfig() sched.Config {
	cfg := sched.Config{
		Policy:          c.Policy,
		Quantum:         c.Quantum,
		AgingThreshold:  c.AgingThreshold,
		AgingInterval:   c.AgingInterval,
		HyperperiodCap:  c.HyperperiodCap,
		TruncateHorizon: c.TruncateHorizon,
		MaxTasks:        c.MaxTasks,
		QueueCapacity:   c.QueueCapacity,
	}
	for _, l := range c.Levels {
		cfg.Levels = append(cfg.Levels, sched.LevelConfig{Name: l.Name, Quantum: l.Quantum})
	}
	return cfg.Normalize()
}

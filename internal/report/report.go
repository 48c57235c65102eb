// Package report renders simulation results for people and for other tools.
package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	yaml "github.com/goccy/go-yaml"

	"schedsim/internal/sched"
)

// ErrUnknownFormat is returned for an output format with no renderer.
var ErrUnknownFormat = errors.New("unknown output format")

// Format selects a renderer.
type Format string

const (
	FormatText Format = "text"
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
	FormatCSV  Format = "csv" // execution trace only
)

// Formats lists the supported formats.
func Formats() []Format {
	return []Format{FormatText, FormatJSON, FormatYAML, FormatCSV}
}

// ParseFormat resolves a format name, case-insensitively.
func ParseFormat(name string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Formats() {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFormat, name)
}

// Report is one simulation run as the driver presents it.
type Report struct {
	RunID    string        `json:"run_id" yaml:"run_id"`
	Workload string        `json:"workload" yaml:"workload"`
	Result   *sched.Result `json:"result" yaml:"result"`
}

// Write renders r to w in format f.
func Write(w io.Writer, f Format, r *Report) error {
	switch f {
	case FormatText:
		return WriteText(w, r)
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(r); err != nil {
			return fmt.Errorf("encode JSON report: %w", err)
		}
		return nil
	case FormatYAML:
		data, err := yaml.Marshal(r)
		if err != nil {
			return fmt.Errorf("encode YAML report: %w", err)
		}
		_, err = w.Write(data)
		return err
	case FormatCSV:
		return WriteTraceCSV(w, r.Result)
	default:
		return fmt.Errorf("%w: %q", ErrUnknownFormat, string(f))
	}
}

// labels maps task ids to display names.
func labels(res *sched.Result) map[sched.TaskID]string {
	out := make(map[sched.TaskID]string, len(res.Metrics.Tasks))
	for _, tm := range res.Metrics.Tasks {
		name := tm.Name
		if name == "" {
			name = fmt.Sprintf("T%d", tm.ID)
		}
		out[tm.ID] = name
	}
	return out
}

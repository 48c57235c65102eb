package job

import (
	"fmt"
	"os"

	yaml "github.com/goccy/go-yaml"
)

// ParseYAML decodes a workload document.
func ParseYAML(data []byte) (*Workload, error) {
	var w Workload
	if err := yaml.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("failed to decode YAML workload: %w", err)
	}
	if w.Config != nil {
		cfg := w.Config.Normalize()
		w.Config = &cfg
	}
	return &w, nil
}

// LoadYAML reads and decodes a YAML workload file.
func LoadYAML(path string) (*Workload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workload %s: %w", path, err)
	}
	w, err := ParseYAML(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return w, nil
}

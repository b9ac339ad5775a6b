package main

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/foxseedlab/plantbuddy/internal/session"
)

// sessionFile is a recorded device session. JSON files parse as well since
// YAML is a superset.
type sessionFile struct {
	SessionID string                     `yaml:"sessionId"`
	Creator   string                     `yaml:"creator"`
	Network   string                     `yaml:"network"`
	Events    []session.InteractionEvent `yaml:"events"`
}

func loadSessionFile(path string) (*sessionFile, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}
	return parseSessionFile(b)
}

func parseSessionFile(b []byte) (*sessionFile, error) {
	var f sessionFile
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("failed to parse session file: %w", err)
	}
	for i, e := range f.Events {
		if e.CapacitanceLevel < 0 || e.CapacitanceLevel > 100 {
			return nil, fmt.Errorf("event %d: capacitance %.2f is outside 0-100", i, e.CapacitanceLevel)
		}
	}
	sort.SliceStable(f.Events, func(i, j int) bool {
		return f.Events[i].Timestamp < f.Events[j].Timestamp
	})
	return &f, nil
}

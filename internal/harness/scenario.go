package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Scenario defines one correlation test: a rule set, a sequence of input
// steps, and the records the rules are expected to emit.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Rules is the CUE rules directory, relative to the scenario file.
	Rules string `yaml:"rules"`

	// Quorum is the number of Exits that stop the dispatcher.
	// Zero means engine.DefaultQuorum.
	Quorum int `yaml:"quorum,omitempty"`

	// Steps are fed to the dispatcher in order.
	Steps []Step `yaml:"steps"`

	// Expect lists records that must appear in the trace.
	Expect []Expectation `yaml:"expect"`

	// baseDir is the directory holding the scenario file.
	baseDir string
}

// Step is one input: either a message or a timer tick.
type Step struct {
	Message *MessageStep `yaml:"message,omitempty"`

	// Tick is a Go duration string, e.g. "30s".
	Tick string `yaml:"tick,omitempty"`
}

// MessageStep is a classified log message. A missing uuid is filled in
// with a sequential ID.
type MessageStep struct {
	UUID   string            `yaml:"uuid,omitempty"`
	Name   string            `yaml:"name,omitempty"`
	Values map[string]string `yaml:"values,omitempty"`
}

// Expectation matches trace records by context and record name.
type Expectation struct {
	// Context matches the context name or its uuid.
	Context string `yaml:"context"`

	// Name is the emitted record name.
	Name string `yaml:"name"`

	// Count is the exact number of matching records.
	// If nil, at least one is required.
	Count *int `yaml:"count,omitempty"`
}

// TickDuration parses the step's tick.
func (s Step) TickDuration() (time.Duration, error) {
	return time.ParseDuration(s.Tick)
}

// RulesDir returns the rules directory resolved against the scenario file.
func (s *Scenario) RulesDir() string {
	if filepath.IsAbs(s.Rules) || s.baseDir == "" {
		return s.Rules
	}
	return filepath.Join(s.baseDir, s.Rules)
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}
	scenario.baseDir = filepath.Dir(path)

	if _, err := os.Stat(scenario.RulesDir()); err != nil {
		return nil, fmt.Errorf("invalid scenario: rules directory not found: %s", scenario.RulesDir())
	}
	return scenario, nil
}

// ParseScenario parses scenario YAML. Relative rule paths resolve against
// the working directory.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // catches "expects:" vs "expect:"
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Rules == "" {
		return fmt.Errorf("rules directory is required")
	}
	if s.Quorum < 0 {
		return fmt.Errorf("quorum must be non-negative")
	}
	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		switch {
		case step.Message != nil && step.Tick != "":
			return fmt.Errorf("steps[%d]: message and tick are mutually exclusive", i)
		case step.Message != nil:
			if step.Message.UUID == "" && step.Message.Name == "" {
				return fmt.Errorf("steps[%d]: message needs a uuid or a name", i)
			}
		case step.Tick != "":
			d, err := step.TickDuration()
			if err != nil {
				return fmt.Errorf("steps[%d]: invalid tick: %w", i, err)
			}
			if d <= 0 {
				return fmt.Errorf("steps[%d]: tick must be positive", i)
			}
		default:
			return fmt.Errorf("steps[%d]: message or tick is required", i)
		}
	}

	for i, e := range s.Expect {
		if e.Context == "" {
			return fmt.Errorf("expect[%d]: context is required", i)
		}
		if e.Name == "" {
			return fmt.Errorf("expect[%d]: name is required", i)
		}
		if e.Count != nil && *e.Count < 0 {
			return fmt.Errorf("expect[%d]: count must be non-negative", i)
		}
	}

	return nil
}

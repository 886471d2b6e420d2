package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines one conformance run of a declared join.
type Scenario struct {
	// Name uniquely identifies this scenario. It doubles as the coordinator
	// id and the golden file name.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Spec is the path to the CUE file declaring the join. Relative paths are
	// resolved against the scenario file's directory by LoadScenario.
	Spec string `yaml:"spec"`

	// Join selects a join from Spec. May be empty when Spec declares exactly
	// one join.
	Join string `yaml:"join,omitempty"`

	// KeepAlive keeps the coordinator alive after its last plan retires.
	KeepAlive bool `yaml:"keep_alive,omitempty"`

	// Steps are applied in order.
	Steps []Step `yaml:"steps"`

	// Expect describes the downstream outcome.
	Expect Expectation `yaml:"expect"`

	// Assertions check the recorded trace.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// Step is one event pushed into the join. Exactly one of Push, Complete,
// Fail or Cancel is set.
type Step struct {
	// Push names the source receiving Value.
	Push string `yaml:"push,omitempty"`

	// Value is converted to an ir.IRValue before it is pushed.
	Value any `yaml:"value,omitempty"`

	// Complete names a source to complete.
	Complete string `yaml:"complete,omitempty"`

	// Fail names a source to fail with Error.
	Fail string `yaml:"fail,omitempty"`

	// Error is the message of the error pushed by Fail.
	Error string `yaml:"error,omitempty"`

	// Cancel disposes the coordinator.
	Cancel bool `yaml:"cancel,omitempty"`
}

// Expectation is the downstream outcome of a scenario.
type Expectation struct {
	// Values are the delivered results, in order. Compared exactly.
	Values []any `yaml:"values"`

	// Error is a substring of the terminal error. Empty means no error is
	// expected.
	Error string `yaml:"error,omitempty"`

	// Completed, when set, is compared with whether OnCompleted arrived.
	Completed *bool `yaml:"completed,omitempty"`
}

// Assertion checks one property of the recorded trace.
type Assertion struct {
	// Type specifies the assertion type:
	// - "retired": plan retired
	// - "fired_count": plan fired exactly Count times
	// - "value_count": exactly Count values were delivered
	// - "source_disposed": source subscription was disposed
	Type string `yaml:"type"`

	// Plan is the plan id (retired, fired_count).
	Plan string `yaml:"plan,omitempty"`

	// Source is the source name (source_disposed).
	Source string `yaml:"source,omitempty"`

	// Count is the expected number of occurrences (fired_count, value_count).
	Count int `yaml:"count,omitempty"`
}

// Assertion type constants.
const (
	AssertRetired        = "retired"
	AssertFiredCount     = "fired_count"
	AssertValueCount     = "value_count"
	AssertSourceDisposed = "source_disposed"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
// A relative spec path is resolved against the scenario's directory.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.Spec != "" && !filepath.IsAbs(scenario.Spec) {
		scenario.Spec = filepath.Join(filepath.Dir(path), scenario.Spec)
	}
	if _, err := os.Stat(scenario.Spec); err != nil {
		return nil, fmt.Errorf("invalid scenario: spec file not found: %s", scenario.Spec)
	}

	return scenario, nil
}

// ParseScenario decodes scenario YAML without touching the filesystem.
func ParseScenario(data []byte) (*Scenario, error) {
	// Reject unknown fields: "assertion:" instead of "assertions:" must fail.
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
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

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if s.Spec == "" {
		return fmt.Errorf("spec is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if err := validateStep(i, step); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}

	return nil
}

func validateStep(index int, step Step) error {
	set := 0
	for _, ok := range []bool{step.Push != "", step.Complete != "", step.Fail != "", step.Cancel} {
		if ok {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("steps[%d]: exactly one of push, complete, fail or cancel is required", index)
	}

	if step.Push != "" && step.Value == nil {
		return fmt.Errorf("steps[%d]: value is required for push", index)
	}
	if step.Push == "" && step.Value != nil {
		return fmt.Errorf("steps[%d]: value is only allowed with push", index)
	}
	if step.Fail != "" && step.Error == "" {
		return fmt.Errorf("steps[%d]: error is required for fail", index)
	}
	if step.Fail == "" && step.Error != "" {
		return fmt.Errorf("steps[%d]: error is only allowed with fail", index)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertRetired:
		if a.Plan == "" {
			return fmt.Errorf("assertions[%d]: plan is required for retired", index)
		}
	case AssertFiredCount:
		if a.Plan == "" {
			return fmt.Errorf("assertions[%d]: plan is required for fired_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for fired_count", index)
		}
	case AssertValueCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for value_count", index)
		}
	case AssertSourceDisposed:
		if a.Source == "" {
			return fmt.Errorf("assertions[%d]: source is required for source_disposed", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

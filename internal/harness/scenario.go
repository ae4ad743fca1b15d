package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/sequence/internal/compiler"
	"github.com/roach88/sequence/internal/ir"
)

// Scenario defines a playback test scenario: a schedule, the playback
// commands issued against it, and assertions on the resulting callbacks.
type Scenario struct {
	// Name uniquely identifies this scenario.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Schedule is an inline schedule tree. Exactly one of Schedule and File
	// must be set.
	Schedule *ir.ScheduleSpec `yaml:"schedule,omitempty"`

	// File is a CUE schedule file, relative to the scenario file.
	File string `yaml:"file,omitempty"`

	// ScheduleName selects a schedule from File. May be empty when the file
	// declares exactly one.
	ScheduleName string `yaml:"schedule_name,omitempty"`

	// Precision overrides the schedule's precision when non-zero.
	Precision float64 `yaml:"precision,omitempty"`

	// Steps are the playback commands, in order.
	Steps []Step `yaml:"steps"`

	// Assertions validate the trace and final state.
	Assertions []Assertion `yaml:"assertions"`

	// RunID is an optional fixed run ID for deterministic tests.
	// If empty, defaults to "test-run-default".
	RunID string `yaml:"run_id,omitempty"`
}

// Step is one playback command.
type Step struct {
	// Op is a playback operation: initialize, step, finalize, instant,
	// reverse_initialize, reverse_instant or reverse_finalize.
	Op string `yaml:"op"`

	// T is the target time for initialize, step and reverse_initialize.
	T float64 `yaml:"t,omitempty"`
}

// Assertion validates the trace or the final state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "callback_count": Name (and Event if given) appears exactly Count times
	// - "callback_order": Order entries ("name:event") appear in order
	// - "active": the final active set is exactly Names
	// - "duration": the compiled duration equals Duration
	// - "no_callbacks": step StepIndex delivered nothing
	Type string `yaml:"type"`

	Name  string `yaml:"name,omitempty"`
	Event string `yaml:"event,omitempty"`
	Count int    `yaml:"count,omitempty"`

	Order []string `yaml:"order,omitempty"`
	Names []string `yaml:"names,omitempty"`

	Duration float64 `yaml:"duration,omitempty"`

	StepIndex int `yaml:"step,omitempty"`
}

// Assertion type constants.
const (
	AssertCallbackCount = "callback_count"
	AssertCallbackOrder = "callback_order"
	AssertActive        = "active"
	AssertDuration      = "duration"
	AssertNoCallbacks   = "no_callbacks"
)

// LoadScenario reads and parses a scenario YAML file. A relative File is
// resolved against the scenario's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data, filepath.Dir(path))
}

// ParseScenario parses scenario YAML, resolving File against basePath.
func ParseScenario(data []byte, basePath string) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:"
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.File != "" && !filepath.IsAbs(scenario.File) && basePath != "" {
		scenario.File = filepath.Join(basePath, scenario.File)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

// ResolveSchedule returns the schedule the scenario plays, loading File
// if needed and applying the precision override.
func (s *Scenario) ResolveSchedule() (ir.ScheduleSpec, error) {
	var spec ir.ScheduleSpec
	if s.Schedule != nil {
		spec = *s.Schedule
		if errs := compiler.Validate(&spec); len(errs) > 0 {
			return spec, fmt.Errorf("schedule: %w", errs[0])
		}
	} else {
		specs, err := compiler.LoadFile(s.File)
		if err != nil {
			return spec, err
		}
		if spec, err = selectSchedule(specs, s.ScheduleName); err != nil {
			return spec, fmt.Errorf("%s: %w", s.File, err)
		}
	}
	if s.Precision != 0 {
		spec.Precision = s.Precision
	}
	return spec, nil
}

func selectSchedule(specs []ir.ScheduleSpec, name string) (ir.ScheduleSpec, error) {
	if name == "" {
		if len(specs) != 1 {
			return ir.ScheduleSpec{}, fmt.Errorf("%d schedules declared, schedule_name is required", len(specs))
		}
		return specs[0], nil
	}
	for _, spec := range specs {
		if spec.Name == name {
			return spec, nil
		}
	}
	return ir.ScheduleSpec{}, fmt.Errorf("schedule %q not found", name)
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	switch {
	case s.Schedule == nil && s.File == "":
		return fmt.Errorf("one of schedule or file is required")
	case s.Schedule != nil && s.File != "":
		return fmt.Errorf("schedule and file are mutually exclusive")
	case s.File != "":
		if _, err := os.Stat(s.File); os.IsNotExist(err) {
			return fmt.Errorf("schedule file not found: %s", s.File)
		}
	}

	if s.Precision != 0 && !ir.ValidPrecision(s.Precision) {
		return fmt.Errorf("precision must be positive and finite")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i, step := range s.Steps {
		if step.Op == "" {
			return fmt.Errorf("steps[%d]: op is required", i)
		}
		if _, err := ir.ParseEventType(step.Op); err != nil {
			return fmt.Errorf("steps[%d]: %w", i, err)
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion, len(s.Steps)); err != nil {
			return err
		}
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion, steps int) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertCallbackCount:
		if a.Name == "" {
			return fmt.Errorf("assertions[%d]: name is required for callback_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for callback_count", index)
		}
		if a.Event != "" {
			if _, err := ir.ParseEventType(a.Event); err != nil {
				return fmt.Errorf("assertions[%d]: %w", index, err)
			}
		}
	case AssertCallbackOrder:
		if len(a.Order) == 0 {
			return fmt.Errorf("assertions[%d]: order list is required for callback_order", index)
		}
	case AssertActive:
		// An empty names list asserts that nothing is active.
	case AssertDuration:
		if a.Duration < 0 {
			return fmt.Errorf("assertions[%d]: duration must be non-negative", index)
		}
	case AssertNoCallbacks:
		if a.StepIndex < 0 || a.StepIndex >= steps {
			return fmt.Errorf("assertions[%d]: step %d out of range", index, a.StepIndex)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

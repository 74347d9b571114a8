package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/unitconv/internal/model"
)

// Scenario defines a conversion test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Catalog is an optional catalog file imported on top of the built-in
	// catalog before the flow runs.
	Catalog string `yaml:"catalog,omitempty"`

	// Flow contains the steps to run, in order.
	Flow []FlowStep `yaml:"flow"`

	// Assertions validate the final history log.
	Assertions []Assertion `yaml:"assertions"`
}

// FlowStep is one operation. Exactly one of Convert, Swap, Query or Clear
// is set.
type FlowStep struct {
	Convert *ConvertStep `yaml:"convert,omitempty"`
	Swap    *ConvertStep `yaml:"swap,omitempty"`
	Query   *QueryStep   `yaml:"query,omitempty"`
	Clear   bool         `yaml:"clear,omitempty"`

	// Expect specifies the expected outcome.
	// If nil, the step must succeed and nothing else is checked.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ConvertStep describes a conversion request. Value is the raw user text.
type ConvertStep struct {
	Value     string `yaml:"value"`
	From      string `yaml:"from"`
	To        string `yaml:"to"`
	Category  string `yaml:"category,omitempty"`
	NoHistory bool   `yaml:"no_history,omitempty"`
}

// QueryStep describes a history search.
type QueryStep struct {
	Text  string `yaml:"text"`
	Field string `yaml:"field,omitempty"`
}

// ExpectClause specifies the expected outcome of a step.
type ExpectClause struct {
	// Case is "ok" or a domain error code such as UNIT_NOT_FOUND.
	// Empty means "ok".
	Case string `yaml:"case,omitempty"`

	// Display is the expected presentation string of a conversion.
	Display string `yaml:"display,omitempty"`

	// Result is the expected raw result, compared within Tolerance.
	Result    *float64 `yaml:"result,omitempty"`
	Tolerance float64  `yaml:"tolerance,omitempty"`

	// Count is the expected number of records matched by a query or
	// removed by a clear.
	Count *int `yaml:"count,omitempty"`
}

// Assertion validates the final history log.
type Assertion struct {
	// Type specifies the assertion type:
	// - "history_count": the log holds exactly Count records
	// - "history_contains": some record's Field contains Text
	// - "history_order": the log lists Conversions newest first
	Type string `yaml:"type"`

	// Count is the expected record count (used by history_count).
	Count int `yaml:"count,omitempty"`

	// Field and Text select records (used by history_contains).
	Field string `yaml:"field,omitempty"`
	Text  string `yaml:"text,omitempty"`

	// Conversions lists "From->To" pairs (used by history_order).
	Conversions []string `yaml:"conversions,omitempty"`
}

// Assertion type constants.
const (
	AssertHistoryCount    = "history_count"
	AssertHistoryContains = "history_contains"
	AssertHistoryOrder    = "history_order"
)

// LoadScenario reads and parses a scenario YAML file.
// A relative catalog path is resolved against the scenario's directory.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := ParseScenario(data, filepath.Dir(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return scenario, nil
}

// ParseScenario decodes a scenario, resolving a relative catalog path
// against basePath.
func ParseScenario(data []byte, basePath string) (*Scenario, error) {
	// Parse YAML with strict field validation (catches typos like "assertion:" vs "assertions:")
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Catalog != "" && !filepath.IsAbs(scenario.Catalog) && basePath != "" {
		scenario.Catalog = filepath.Join(basePath, scenario.Catalog)
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

	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	for i, step := range s.Flow {
		if err := validateStep(i, &step); err != nil {
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

func validateStep(index int, step *FlowStep) error {
	n := 0
	if step.Convert != nil {
		n++
	}
	if step.Swap != nil {
		n++
	}
	if step.Query != nil {
		n++
	}
	if step.Clear {
		n++
	}
	if n != 1 {
		return fmt.Errorf("flow[%d]: exactly one of convert, swap, query or clear is required", index)
	}

	for _, c := range []*ConvertStep{step.Convert, step.Swap} {
		if c != nil && (c.From == "" || c.To == "") {
			return fmt.Errorf("flow[%d]: from and to are required", index)
		}
	}

	if step.Query != nil {
		if _, err := model.ParseHistoryField(step.Query.Field); err != nil {
			return fmt.Errorf("flow[%d]: %w", index, err)
		}
	}

	if step.Expect != nil && step.Expect.Tolerance < 0 {
		return fmt.Errorf("flow[%d].expect: tolerance must be non-negative", index)
	}

	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertHistoryCount:
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for history_count", index)
		}
	case AssertHistoryContains:
		if a.Text == "" {
			return fmt.Errorf("assertions[%d]: text is required for history_contains", index)
		}
		if _, err := model.ParseHistoryField(a.Field); err != nil {
			return fmt.Errorf("assertions[%d]: %w", index, err)
		}
	case AssertHistoryOrder:
		if len(a.Conversions) == 0 {
			return fmt.Errorf("assertions[%d]: conversions list is required for history_order", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}

	return nil
}

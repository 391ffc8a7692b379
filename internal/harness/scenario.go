package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/dqlmap/internal/queryexpr"
)

// Scenario defines a conformance test scenario.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Schema is the directory holding the CUE class definitions.
	// Relative paths are resolved against the scenario file location.
	Schema string `yaml:"schema"`

	// Query is the expression tree to compile.
	Query queryexpr.Query `yaml:"query"`

	// Params binds parameters by name or, with integer keys, by position.
	Params yaml.Node `yaml:"params,omitempty"`

	// Expect lists the expected outcome. Unset fields are not checked.
	Expect Expectation `yaml:"expect"`

	// CompilationID is the fixed ID given to fresh compilations.
	// Defaults to "test-compilation-default".
	CompilationID string `yaml:"compilation_id,omitempty"`
}

// Expectation is a partial description of a compilation.
type Expectation struct {
	DQL    *string `yaml:"dql,omitempty"`
	Filter *string `yaml:"filter,omitempty"`
	Result *string `yaml:"result,omitempty"`
	Order  *string `yaml:"order,omitempty"`

	RangeFrom *int64 `yaml:"range_from,omitempty"`
	RangeTo   *int64 `yaml:"range_to,omitempty"`

	FilterComplete *bool `yaml:"filter_complete,omitempty"`
	ResultComplete *bool `yaml:"result_complete,omitempty"`
	OrderComplete  *bool `yaml:"order_complete,omitempty"`
	RangeComplete  *bool `yaml:"range_complete,omitempty"`
	Precompilable  *bool `yaml:"precompilable,omitempty"`

	// Absent lists clauses (filter, result, order) that must produce no text.
	Absent []string `yaml:"absent,omitempty"`

	// Error is the expected hard failure code. When set, the compile must
	// fail and every other expectation is ignored.
	Error string `yaml:"error,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	scenario, err := DecodeScenario(data)
	if err != nil {
		return nil, err
	}

	if scenario.Schema != "" && !filepath.IsAbs(scenario.Schema) {
		scenario.Schema = filepath.Join(filepath.Dir(path), scenario.Schema)
	}
	if info, err := os.Stat(scenario.Schema); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("invalid scenario: schema directory not found: %s", scenario.Schema)
	}

	return scenario, nil
}

// DecodeScenario parses a scenario from YAML. The schema path is left as
// written.
func DecodeScenario(data []byte) (*Scenario, error) {
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

var clauseNames = map[string]bool{"filter": true, "result": true, "order": true}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Schema == "" {
		return fmt.Errorf("schema directory is required")
	}
	if s.Query.Candidate == "" {
		return fmt.Errorf("query.candidate is required")
	}
	if _, err := queryexpr.DecodeParams(&s.Params); err != nil {
		return fmt.Errorf("params: %w", err)
	}
	for i, clause := range s.Expect.Absent {
		if !clauseNames[clause] {
			return fmt.Errorf("expect.absent[%d]: unknown clause %q", i, clause)
		}
	}
	return nil
}

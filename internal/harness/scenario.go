package harness

import (
	"bytes"
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"
)

// Scenario is a scripted sequence of platform operations run against a
// fresh store.
type Scenario struct {
	// Name uniquely identifies this scenario. It also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Seed loads the bundled sample catalog before the flow runs.
	Seed bool `yaml:"seed,omitempty"`

	// Flow contains the operations, run in order.
	Flow []FlowStep `yaml:"flow"`

	// Assertions are checked against the final state.
	Assertions []Assertion `yaml:"assertions,omitempty"`
}

// FlowStep invokes one operation and optionally checks its outcome.
//
// Arguments that name a user or course accept either a ref assigned by an
// earlier register/create_course step or a literal id.
type FlowStep struct {
	Invoke string         `yaml:"invoke"`
	Args   map[string]any `yaml:"args"`
	Expect *ExpectClause  `yaml:"expect,omitempty"`
}

// ExpectClause specifies the expected outcome of a step. A step without an
// expect clause must succeed.
type ExpectClause struct {
	// Error is the expected error code (see domain.Code). Empty means success.
	Error string `yaml:"error,omitempty"`

	// Percent is the expected completion percentage reported by enroll or
	// toggle.
	Percent *int `yaml:"percent,omitempty"`

	// Enrolled lists the courses the step's user is enrolled in afterwards.
	Enrolled []string `yaml:"enrolled,omitempty"`
}

// Assertion checks the final state.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	User    string   `yaml:"user,omitempty"`
	Course  string   `yaml:"course,omitempty"`
	Courses []string `yaml:"courses,omitempty"`
	Percent *int     `yaml:"percent,omitempty"`
	Count   *int     `yaml:"count,omitempty"`
}

// Operations a flow step can invoke.
const (
	OpRegister     = "register"
	OpLogin        = "login"
	OpLogout       = "logout"
	OpEnroll       = "enroll"
	OpToggle       = "toggle"
	OpCreateCourse = "create_course"
	OpEditCourse   = "edit_course"
	OpDeleteCourse = "delete_course"
)

var operations = []string{
	OpRegister, OpLogin, OpLogout, OpEnroll, OpToggle,
	OpCreateCourse, OpEditCourse, OpDeleteCourse,
}

// Assertion type constants.
const (
	AssertEnrolled    = "enrolled"
	AssertPercent     = "percent"
	AssertSession     = "session"
	AssertCourseCount = "course_count"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict decoding catches typos like "assertion:" vs "assertions:".
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
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}

	for i, step := range s.Flow {
		if step.Invoke == "" {
			return fmt.Errorf("flow[%d]: invoke is required", i)
		}
		if !slices.Contains(operations, step.Invoke) {
			return fmt.Errorf("flow[%d]: unknown operation %q", i, step.Invoke)
		}
		for _, key := range requiredArgs[step.Invoke] {
			if _, ok := step.Args[key]; !ok {
				return fmt.Errorf("flow[%d] %s: arg %q is required", i, step.Invoke, key)
			}
		}
		if step.Invoke == OpCreateCourse || step.Invoke == OpEditCourse {
			if _, ok := step.Args["lessons"]; ok && num(step.Args, "lessons") < 0 {
				return fmt.Errorf("flow[%d] %s: lessons must be a non-negative count", i, step.Invoke)
			}
		}
		if step.Expect != nil && step.Expect.Enrolled != nil {
			if _, ok := step.Args["user"]; !ok && step.Invoke != OpRegister {
				return fmt.Errorf("flow[%d].expect: enrolled needs a user arg", i)
			}
		}
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, a); err != nil {
			return err
		}
	}
	return nil
}

var requiredArgs = map[string][]string{
	OpRegister:     {"email", "password", "name", "role"},
	OpLogin:        {"email", "password"},
	OpEnroll:       {"user", "course"},
	OpToggle:       {"user", "course", "lesson"},
	OpCreateCourse: {"instructor", "title"},
	OpEditCourse:   {"instructor", "course"},
	OpDeleteCourse: {"course"},
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a Assertion) error {
	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertEnrolled:
		if a.User == "" {
			return fmt.Errorf("assertions[%d]: user is required for enrolled", index)
		}
	case AssertPercent:
		if a.User == "" || a.Course == "" || a.Percent == nil {
			return fmt.Errorf("assertions[%d]: user, course and percent are required for percent", index)
		}
	case AssertSession:
	case AssertCourseCount:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("assertions[%d]: non-negative count is required for course_count", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

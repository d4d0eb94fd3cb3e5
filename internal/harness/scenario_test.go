package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadScenario_ValidFile(t *testing.T) {
	dir := t.TempDir()
	scenarioPath := filepath.Join(dir, "test.yaml")

	content := `
name: test_scenario
description: "Test scenario for validation"
seed: true
flow:
  - invoke: register
    args:
      ref: bob
      email: bob@olp.test
      password: pw
      name: Bob
      role: student
  - invoke: enroll
    args: { user: bob, course: "3" }
    expect:
      percent: 0
      enrolled: ["3"]
assertions:
  - type: enrolled
    user: bob
    courses: ["3"]
`
	require.NoError(t, os.WriteFile(scenarioPath, []byte(content), 0644))

	scenario, err := LoadScenario(scenarioPath)
	require.NoError(t, err)

	assert.Equal(t, "test_scenario", scenario.Name)
	assert.Equal(t, "Test scenario for validation", scenario.Description)
	assert.True(t, scenario.Seed)
	require.Len(t, scenario.Flow, 2)
	assert.Len(t, scenario.Assertions, 1)
	assert.Equal(t, OpRegister, scenario.Flow[0].Invoke)
	assert.Equal(t, "bob@olp.test", scenario.Flow[0].Args["email"])
	require.NotNil(t, scenario.Flow[1].Expect)
	assert.Equal(t, 0, *scenario.Flow[1].Expect.Percent)
	assert.Equal(t, []string{"3"}, scenario.Flow[1].Expect.Enrolled)
}

func TestLoadScenario_MissingFile(t *testing.T) {
	_, err := LoadScenario("/nonexistent/scenario.yaml")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}

func TestParseScenario_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		content string
		wantErr string
	}{
		{
			name: "missing name",
			content: `
description: d
flow:
  - invoke: logout
    args: {}`,
			wantErr: "name is required",
		},
		{
			name: "missing description",
			content: `
name: n
flow:
  - invoke: logout
    args: {}`,
			wantErr: "description is required",
		},
		{
			name: "missing flow",
			content: `
name: n
description: d`,
			wantErr: "flow list is required",
		},
		{
			name: "missing invoke",
			content: `
name: n
description: d
flow:
  - args: {}`,
			wantErr: "flow[0]: invoke is required",
		},
		{
			name: "unknown operation",
			content: `
name: n
description: d
flow:
  - invoke: teleport
    args: {}`,
			wantErr: `unknown operation "teleport"`,
		},
		{
			name: "missing arg",
			content: `
name: n
description: d
flow:
  - invoke: enroll
    args: { user: u }`,
			wantErr: `arg "course" is required`,
		},
		{
			name: "unknown assertion",
			content: `
name: n
description: d
flow:
  - invoke: logout
    args: {}
assertions:
  - type: vibes`,
			wantErr: `unknown assertion type "vibes"`,
		},
		{
			name: "percent assertion without percent",
			content: `
name: n
description: d
flow:
  - invoke: logout
    args: {}
assertions:
  - type: percent
    user: u
    course: c`,
			wantErr: "user, course and percent are required",
		},
		{
			name: "negative course count",
			content: `
name: n
description: d
flow:
  - invoke: logout
    args: {}
assertions:
  - type: course_count
    count: -1`,
			wantErr: "non-negative count",
		},
		{
			name: "negative lesson count on edit",
			content: `
name: n
description: d
flow:
  - invoke: edit_course
    args: { instructor: i, course: c, lessons: -1 }`,
			wantErr: "edit_course: lessons must be a non-negative count",
		},
		{
			name: "negative lesson count on create",
			content: `
name: n
description: d
flow:
  - invoke: create_course
    args: { instructor: i, title: t, lessons: "-2" }`,
			wantErr: "create_course: lessons must be a non-negative count",
		},
		{
			name: "typo in field name",
			content: `
name: n
description: d
flow:
  - invoke: logout
    args: {}
assertion: []`,
			wantErr: "failed to parse YAML",
		},
		{
			name:    "malformed yaml",
			content: "name: [unclosed",
			wantErr: "failed to parse YAML",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.content))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestParseScenario_NumericArgs(t *testing.T) {
	scenario, err := ParseScenario([]byte(`
name: n
description: d
flow:
  - invoke: toggle
    args: { user: u, course: c, lesson: 2 }
`))
	require.NoError(t, err)
	assert.Equal(t, 2, scenario.Flow[0].Args["lesson"])
}

// TestLoadExampleScenarios parses every scenario file under testdata/scenarios.
// These serve as documentation and regression tests.
func TestLoadExampleScenarios(t *testing.T) {
	// Get project root (two levels up from this test)
	projectRoot := "../../"

	tests := []struct {
		scenarioFile   string
		wantName       string
		wantFlowCount  int
		wantAssertions int
	}{
		{"testdata/scenarios/enroll_and_complete.yaml", "enroll_and_complete", 10, 4},
		{"testdata/scenarios/delete_course_cascade.yaml", "delete_course_cascade", 11, 3},
		{"testdata/scenarios/auth_flow.yaml", "auth_flow", 8, 2},
	}

	for _, tt := range tests {
		t.Run(tt.wantName, func(t *testing.T) {
			scenario, err := LoadScenario(filepath.Join(projectRoot, tt.scenarioFile))
			require.NoError(t, err, "Failed to load example scenario %s", tt.scenarioFile)

			assert.Equal(t, tt.wantName, scenario.Name)
			assert.Len(t, scenario.Flow, tt.wantFlowCount)
			assert.Len(t, scenario.Assertions, tt.wantAssertions)
		})
	}
}

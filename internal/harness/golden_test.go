package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestRunWithGolden_ExampleScenarios runs every scenario under
// testdata/scenarios and compares its trace and final state with
// testdata/golden/<name>.golden. Regenerate with:
//
//	go test ./internal/harness -run TestRunWithGolden -update
func TestRunWithGolden_ExampleScenarios(t *testing.T) {
	paths, err := filepath.Glob("../../testdata/scenarios/*.yaml")
	require.NoError(t, err)
	require.NotEmpty(t, paths)

	for _, path := range paths {
		scenario, err := LoadScenario(path)
		require.NoError(t, err)

		t.Run(scenario.Name, func(t *testing.T) {
			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestTraceSnapshot_Marshal(t *testing.T) {
	snap := TraceSnapshot{
		ScenarioName: "tiny",
		Trace: []TraceEvent{
			{Seq: 1, Action: OpLogin, Outcome: "invalid_credentials"},
			{Seq: 2, Action: OpToggle, Outcome: OutcomeOK, Result: map[string]any{"percent": 50, "completed": 1}},
		},
		State: State{Users: []UserState{}, Courses: []CourseState{}, Progress: []ProgressState{}},
	}

	data, err := snap.Marshal()
	require.NoError(t, err)
	assert.Equal(t, `{
  "scenario_name": "tiny",
  "trace": [
    {
      "seq": 1,
      "action": "login",
      "outcome": "invalid_credentials"
    },
    {
      "seq": 2,
      "action": "toggle",
      "outcome": "ok",
      "result": {
        "completed": 1,
        "percent": 50
      }
    }
  ],
  "state": {
    "session": "",
    "users": [],
    "courses": [],
    "progress": []
  }
}
`, string(data))

	again, err := snap.Marshal()
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execCLI runs the root command with args against db and returns stdout.
func execCLI(t *testing.T, db string, args ...string) (string, error) {
	t.Helper()
	t.Setenv("OLP_BCRYPT_COST", "4")

	out := &bytes.Buffer{}
	cmd := NewRootCommand()
	cmd.SetOut(out)
	cmd.SetErr(&bytes.Buffer{})
	if db != "" {
		args = append([]string{"--db", db}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

type jsonResponse struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  *CLIError       `json:"error"`
}

// execJSON runs a command with --format json and decodes the response data
// into out when out is non-nil.
func execJSON(t *testing.T, db string, out any, args ...string) (jsonResponse, error) {
	t.Helper()
	stdout, err := execCLI(t, db, append([]string{"--format", "json"}, args...)...)

	var resp jsonResponse
	require.NoError(t, json.Unmarshal([]byte(stdout), &resp), "stdout: %s", stdout)
	if out != nil && resp.Data != nil {
		require.NoError(t, json.Unmarshal(resp.Data, out))
	}
	return resp, err
}

func tempDB(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "olp.db")
}

func TestRootCommand(t *testing.T) {
	cmd := NewRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "olp", cmd.Use)
	assert.Contains(t, cmd.Long, "SQLite")
}

func TestCommandPresence(t *testing.T) {
	cmd := NewRootCommand()
	commands := [][]string{
		{"seed"}, {"reset"}, {"register"}, {"login"}, {"logout"}, {"whoami"}, {"profile"},
		{"courses", "list"}, {"courses", "show"}, {"courses", "create"}, {"courses", "edit"}, {"courses", "delete"},
		{"enroll"}, {"toggle"}, {"progress"}, {"test"},
	}

	for _, path := range commands {
		name := path[len(path)-1]
		t.Run(name, func(t *testing.T) {
			subCmd, _, err := cmd.Find(path)
			require.NoError(t, err, "Command %v should exist", path)
			require.NotNil(t, subCmd)
			assert.Equal(t, name, subCmd.Name())
		})
	}
}

func TestGlobalFlags(t *testing.T) {
	cmd := NewRootCommand()

	verboseFlag := cmd.PersistentFlags().Lookup("verbose")
	require.NotNil(t, verboseFlag)
	assert.Equal(t, "v", verboseFlag.Shorthand)
	assert.Equal(t, "false", verboseFlag.DefValue)

	formatFlag := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, formatFlag)
	assert.Equal(t, "text", formatFlag.DefValue)

	dbFlag := cmd.PersistentFlags().Lookup("db")
	require.NotNil(t, dbFlag)
	assert.Equal(t, "olp.db", dbFlag.DefValue)

	require.NotNil(t, cmd.PersistentFlags().Lookup("config"))
	require.NotNil(t, cmd.PersistentFlags().Lookup("env-file"))
}

func TestCoursesCreateRequiresFile(t *testing.T) {
	_, err := execCLI(t, tempDB(t), "courses", "create")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"file" not set`)
}

func TestCoursesListFlagsExclusive(t *testing.T) {
	_, err := execCLI(t, tempDB(t), "courses", "list", "--mine", "--enrolled")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "none of the others can be")
}

func TestFormatValidation(t *testing.T) {
	assert.True(t, isValidFormat("text"))
	assert.True(t, isValidFormat("json"))

	assert.False(t, isValidFormat("xml"))
	assert.False(t, isValidFormat(""))
	assert.False(t, isValidFormat("TEXT"))
}

func TestFormatValidationIntegration(t *testing.T) {
	_, err := execCLI(t, tempDB(t), "--format", "invalid", "whoami")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid format")
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

func TestEnvironmentSelectsDatabase(t *testing.T) {
	db := tempDB(t)
	t.Setenv("OLP_DB", db)

	_, err := execCLI(t, "", "seed")
	require.NoError(t, err)

	_, err = os.Stat(db)
	assert.NoError(t, err)
}

func TestFlagOverridesEnvironment(t *testing.T) {
	envDB := tempDB(t)
	flagDB := tempDB(t)
	t.Setenv("OLP_DB", envDB)

	_, err := execCLI(t, flagDB, "seed")
	require.NoError(t, err)

	_, err = os.Stat(flagDB)
	assert.NoError(t, err)
	_, err = os.Stat(envDB)
	assert.True(t, os.IsNotExist(err))
}

func TestConfigFileSetsFormat(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "olp.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("format: json\n"), 0644))

	out, err := execCLI(t, filepath.Join(dir, "olp.db"), "--config", cfgPath, "logout")
	require.NoError(t, err)

	var resp jsonResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestEnvFileSetsFormat(t *testing.T) {
	dir := t.TempDir()
	envPath := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(envPath, []byte("OLP_FORMAT=json\n"), 0644))
	// godotenv does not override variables that are already set.
	t.Setenv("OLP_FORMAT", "")
	os.Unsetenv("OLP_FORMAT")

	out, err := execCLI(t, filepath.Join(dir, "olp.db"), "--env-file", envPath, "logout")
	require.NoError(t, err)

	var resp jsonResponse
	require.NoError(t, json.Unmarshal([]byte(out), &resp))
	assert.Equal(t, "ok", resp.Status)
}

func TestMissingConfigFile(t *testing.T) {
	_, err := execCLI(t, tempDB(t), "--config", "/nonexistent/olp.yaml", "whoami")
	require.Error(t, err)
	assert.Equal(t, ExitCommandError, GetExitCode(err))
}

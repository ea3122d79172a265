// Package integration exercises the tally binary end to end. Each test
// runs the real CLI via os/exec against an isolated pair of config and
// data directories, so undo history and store contents never leak
// between tests.
package integration

import (
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	tallyBin    string
	buildOnce   sync.Once
	buildErr    error
	buildTmpDir string
)

// ensureBinary builds the tally binary once and returns the path to it.
func ensureBinary(t *testing.T) string {
	t.Helper()
	buildOnce.Do(func() {
		buildTmpDir, buildErr = os.MkdirTemp("", "tally-cli-test-*")
		if buildErr != nil {
			return
		}
		binPath := filepath.Join(buildTmpDir, "tally")
		cmd := exec.Command("go", "build", "-o", binPath, "./cmd/tally")
		cmd.Dir = projectRoot()
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		buildErr = cmd.Run()
		if buildErr == nil {
			tallyBin = binPath
		}
	})
	require.NoError(t, buildErr, "build tally binary")
	return tallyBin
}

// projectRoot returns the absolute path to the project root by walking
// up from the working directory until go.mod is found.
func projectRoot() string {
	dir, err := os.Getwd()
	if err != nil {
		panic(err)
	}
	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			panic("go.mod not found")
		}
		dir = parent
	}
}

// cleanEnv returns os.Environ() with all TALLY_* and XDG_* variables
// removed, so subprocesses resolve paths only from what a test passes.
func cleanEnv() []string {
	var env []string
	for _, e := range os.Environ() {
		if strings.HasPrefix(e, "TALLY_") || strings.HasPrefix(e, "XDG_") {
			continue
		}
		env = append(env, e)
	}
	return env
}

// testStore names the isolated config and data directories one test
// store lives in. The directories are created by the first tally
// command that touches them.
type testStore struct {
	ConfigDir string
	DataDir   string
}

// newStore returns a fresh store rooted in the test temp directory.
func newStore(t *testing.T) testStore {
	t.Helper()
	tmp := t.TempDir()
	return testStore{
		ConfigDir: filepath.Join(tmp, "config"),
		DataDir:   filepath.Join(tmp, "data"),
	}
}

// runTally executes the tally binary against st with a cleaned
// environment. Returns stdout, stderr, and the exit code.
func runTally(t *testing.T, st testStore, args ...string) (stdout, stderr string, exitCode int) {
	t.Helper()
	full := append([]string{"--config-dir", st.ConfigDir, "--data-dir", st.DataDir}, args...)
	return runTallyRaw(t, nil, "", full...)
}

// runTallyRaw executes the tally binary with explicit control over
// environment and working directory, passing args unchanged so callers
// can exercise the full path precedence chain.
func runTallyRaw(t *testing.T, env []string, workDir string, args ...string) (stdout, stderr string, exitCode int) {
	t.Helper()
	bin := ensureBinary(t)
	cmd := exec.Command(bin, args...)
	cmd.Env = append(cleanEnv(), env...)
	if workDir != "" {
		cmd.Dir = workDir
	}
	var outBuf, errBuf strings.Builder
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	err := cmd.Run()
	stdout = outBuf.String()
	stderr = errBuf.String()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			t.Fatalf("run tally: %v", err)
		}
	}
	return stdout, stderr, exitCode
}

// mustRunTally runs tally against st and fails the test on a non-zero
// exit. Returns stdout.
func mustRunTally(t *testing.T, st testStore, args ...string) string {
	t.Helper()
	stdout, stderr, code := runTally(t, st, args...)
	if code != 0 {
		t.Fatalf("tally %v exited %d\nstdout: %s\nstderr: %s", args, code, stdout, stderr)
	}
	return stdout
}

// addTask creates a task via add --json and returns its identity.
// Extra flags (--due, --category, --payload) are passed through.
func addTask(t *testing.T, st testStore, content string, extra ...string) int64 {
	t.Helper()
	args := append([]string{"add", content, "--json"}, extra...)
	stdout := mustRunTally(t, st, args...)
	return jsonInt(t, parseJSONMap(t, stdout), "entry_id")
}

// addCategory creates a category via category add --json and returns
// its identity.
func addCategory(t *testing.T, st testStore, description string) int64 {
	t.Helper()
	stdout := mustRunTally(t, st, "category", "add", description, "--json")
	return jsonInt(t, parseJSONMap(t, stdout), "category_id")
}

// listTasks runs list --json and returns the decoded rows. Each row
// holds an "entry" object and, when resolved, a "category" object.
func listTasks(t *testing.T, st testStore, extra ...string) []map[string]any {
	t.Helper()
	args := append([]string{"list", "--json"}, extra...)
	return parseJSONArray(t, mustRunTally(t, st, args...))
}

// idArg formats an identity for use as a CLI argument.
func idArg(id int64) string {
	return strconv.FormatInt(id, 10)
}

// parseJSONMap unmarshals a JSON object string into a map.
func parseJSONMap(t *testing.T, jsonStr string) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal([]byte(jsonStr), &m), "unmarshal JSON object: %s", jsonStr)
	return m
}

// parseJSONArray unmarshals a JSON array string into a slice of maps.
func parseJSONArray(t *testing.T, jsonStr string) []map[string]any {
	t.Helper()
	var arr []map[string]any
	require.NoError(t, json.Unmarshal([]byte(jsonStr), &arr), "unmarshal JSON array: %s", jsonStr)
	return arr
}

// asMap asserts that a decoded JSON value is an object.
func asMap(t *testing.T, v any) map[string]any {
	t.Helper()
	m, ok := v.(map[string]any)
	require.True(t, ok, "expected JSON object, got %T", v)
	return m
}

// jsonInt returns the integer value of a field in a decoded object.
func jsonInt(t *testing.T, m map[string]any, field string) int64 {
	t.Helper()
	v, ok := m[field]
	require.True(t, ok, "field %q not found in %v", field, m)
	f, ok := v.(float64)
	require.True(t, ok, "field %q is %T, not a number", field, v)
	return int64(f)
}

// jsonString returns the string value of a field in a decoded object.
func jsonString(t *testing.T, m map[string]any, field string) string {
	t.Helper()
	v, ok := m[field]
	require.True(t, ok, "field %q not found in %v", field, m)
	s, ok := v.(string)
	require.True(t, ok, "field %q is %T, not a string", field, v)
	return s
}

// readLines returns the non-empty lines of a file.
func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err, "reading %s", path)
	var lines []string
	for _, line := range strings.Split(string(data), "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	return lines
}

// writeConfigYAML writes a config.yaml in the given directory.
func writeConfigYAML(t *testing.T, configDir, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(configDir, 0o755))
	require.NoError(t, os.WriteFile(
		filepath.Join(configDir, "config.yaml"),
		[]byte(content), 0o644))
}

// dbPath returns the path of the SQLite database file under a data
// directory.
func dbPath(dataDir string) string {
	return filepath.Join(dataDir, "tally.db")
}

// requireDBExists asserts that a store database exists under dataDir.
func requireDBExists(t *testing.T, dataDir string) {
	t.Helper()
	_, err := os.Stat(dbPath(dataDir))
	require.NoError(t, err, "tally.db should exist under %s", dataDir)
}

// requireNoDB asserts that no store database exists under dataDir.
func requireNoDB(t *testing.T, dataDir string) {
	t.Helper()
	_, err := os.Stat(dbPath(dataDir))
	require.True(t, os.IsNotExist(err), "tally.db should not exist under %s", dataDir)
}

// taskContents projects the content field out of list --json rows.
func taskContents(t *testing.T, rows []map[string]any) []string {
	t.Helper()
	contents := make([]string, 0, len(rows))
	for _, row := range rows {
		entry := asMap(t, row["entry"])
		contents = append(contents, jsonString(t, entry, "content"))
	}
	return contents
}

// payloadArg builds a --payload JSON object argument from key/value
// pairs, keeping test call sites free of hand-escaped JSON.
func payloadArg(t *testing.T, pairs map[string]any) string {
	t.Helper()
	data, err := json.Marshal(pairs)
	require.NoError(t, err)
	return string(data)
}

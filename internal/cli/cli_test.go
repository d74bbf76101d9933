package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFlowFile(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "flow.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestValidateAcceptsWellFormedFlow(t *testing.T) {
	path := writeFlowFile(t, `
flow:
  - name: whoami
    source:
      type: process
      configuration:
        command: ["echo", "hi"]
`)

	cmd := validateCmd
	cmd.SetArgs([]string{path})
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	require.NoError(t, cmd.RunE(cmd, []string{path}), "output: %s", out.String())
}

func TestValidateRejectsMissingDependency(t *testing.T) {
	path := writeFlowFile(t, `
flow:
  - name: a
    source: { type: process, configuration: { command: ["echo", "hi"] } }
    depends_on: ["does-not-exist"]
`)

	cmd := validateCmd
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	assert.Error(t, cmd.RunE(cmd, []string{path}), "expected an error for a missing dependency")
}

func TestRunExecutesSimpleFlow(t *testing.T) {
	path := writeFlowFile(t, `
flow:
  - name: whoami
    source:
      type: env
      configuration:
        vars: ["FLOWTOY_CLI_TEST_VAR"]
`)
	os.Setenv("FLOWTOY_CLI_TEST_VAR", "hello")
	defer os.Unsetenv("FLOWTOY_CLI_TEST_VAR")

	runJSON = true
	runOutputFile = ""
	runStatusPort = 0
	runMaxWorkers = 0
	defer func() { runJSON = false }()

	cmd := runCmd
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	require.NoError(t, cmd.RunE(cmd, []string{path}), "output: %s", out.String())
	assert.Contains(t, out.String(), "FLOWTOY_CLI_TEST_VAR")
}

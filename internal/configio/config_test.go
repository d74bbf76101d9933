package configio

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTemp(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadDeepMergesMaps(t *testing.T) {
	dir := t.TempDir()
	a := writeTemp(t, dir, "a.yaml", `
runner:
  max_workers: 2
sources:
  hr:
    type: http
    configuration:
      url: https://a.example.com
`)
	b := writeTemp(t, dir, "b.yaml", `
runner:
  on_error: skip
sources:
  hr:
    configuration:
      url: https://b.example.com
`)

	cfg, err := Load([]string{a, b})
	require.NoError(t, err)
	assert.Equal(t, 2, cfg.Runner.MaxWorkers, "should survive merge")
	assert.EqualValues(t, "skip", cfg.Runner.OnError)

	hr := cfg.Sources["hr"]
	require.NotNil(t, hr, "hr source missing")
	assert.Equal(t, "https://b.example.com", hr.Configuration["url"], "later file should win")
}

func TestLoadReplacesListsWholesale(t *testing.T) {
	dir := t.TempDir()
	a := writeTemp(t, dir, "a.yaml", `
sources:
  dir:
    type: directory
    configuration:
      attributes: [uid, mail, cn]
`)
	b := writeTemp(t, dir, "b.yaml", `
sources:
  dir:
    configuration:
      attributes: [uid]
`)

	cfg, err := Load([]string{a, b})
	require.NoError(t, err)

	attrs, ok := cfg.Sources["dir"].Configuration["attributes"].([]interface{})
	require.True(t, ok, "attributes is %T, want []interface{}", cfg.Sources["dir"].Configuration["attributes"])
	assert.Equal(t, []interface{}{"uid"}, attrs, "list should be replaced wholesale, not appended")
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load([]string{"/nonexistent/path.yaml"})
	assert.Error(t, err)
}

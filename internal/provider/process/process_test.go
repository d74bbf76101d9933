package process

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProcessCfg(t *testing.T, cfg map[string]interface{}) *Process {
	t.Helper()
	base := map[string]interface{}{"command": []interface{}{"cmd", "a", "b", "c"}}
	for k, v := range cfg {
		base[k] = v
	}
	p, err := New(base)
	require.NoError(t, err)
	return p.(*Process)
}

func TestSanitizeForLoggingDefaultCollapsesArgs(t *testing.T) {
	p := newProcessCfg(t, nil)
	got := SanitizeForLogging([]string{"cmd", "a", "b", "c"}, p)
	assert.Equal(t, []string{"cmd", "<3 args>"}, got)
}

func TestSanitizeForLoggingRedactArgsByIndex(t *testing.T) {
	p := newProcessCfg(t, map[string]interface{}{
		"redact_args": []interface{}{2},
	})
	got := SanitizeForLogging([]string{"cmd", "a", "secretval", "c"}, p)
	assert.Equal(t, []string{"cmd", "a", "[REDACTED]", "c"}, got)
}

func TestSanitizeForLoggingRedactPatterns(t *testing.T) {
	p := newProcessCfg(t, map[string]interface{}{
		"redact_patterns": []interface{}{"secret"},
	})
	got := SanitizeForLogging([]string{"cmd", "a", "my-secret-val", "c"}, p)
	assert.Equal(t, []string{"cmd", "a", "[REDACTED]", "c"}, got)
}

func TestSanitizeForLoggingCombinesArgsAndPatterns(t *testing.T) {
	p := newProcessCfg(t, map[string]interface{}{
		"redact_args":     []interface{}{1},
		"redact_patterns": []interface{}{"token"},
	})
	got := SanitizeForLogging([]string{"cmd", "a", "my-token-val", "c"}, p)
	assert.Equal(t, []string{"cmd", "[REDACTED]", "[REDACTED]", "c"}, got)
}

func TestSanitizeForLoggingFullCommandBypassesRedactArgs(t *testing.T) {
	p := newProcessCfg(t, map[string]interface{}{
		"redact_args":      []interface{}{0, 1, 2, 3},
		"log_full_command": true,
	})
	got := SanitizeForLogging([]string{"cmd", "a", "b", "c"}, p)
	assert.Equal(t, []string{"cmd", "a", "b", "c"}, got)
}

func TestSanitizeForLoggingEmptyCommand(t *testing.T) {
	p := newProcessCfg(t, nil)
	got := SanitizeForLogging([]string{}, p)
	assert.Empty(t, got)
}

func TestCallEchoesJSONStdout(t *testing.T) {
	p, err := New(map[string]interface{}{
		"command": []interface{}{"printf", `{"ok":true}`},
	})
	require.NoError(t, err)

	res, err := p.Call(context.Background(), nil)
	require.NoError(t, err)
	require.True(t, res.Status.Success, "notes=%v meta=%v", res.Status.Notes, res.Meta)

	data, ok := res.Data.(map[string]interface{})
	require.True(t, ok, "data = %#v, want parsed JSON object", res.Data)
	assert.Equal(t, true, data["ok"])
}

func TestCallNonZeroExit(t *testing.T) {
	p, err := New(map[string]interface{}{
		"command": []interface{}{"false"},
	})
	require.NoError(t, err)

	res, err := p.Call(context.Background(), nil)
	require.NoError(t, err)
	assert.False(t, res.Status.Success, "expected failure result for nonzero exit")
	assert.NotEmpty(t, res.Status.Notes, "expected a note describing the exit code")
}

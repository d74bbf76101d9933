package envsnap

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCallSnapshotsConfiguredVars(t *testing.T) {
	os.Setenv("FLOWTOY_TEST_VAR", "hello")
	defer os.Unsetenv("FLOWTOY_TEST_VAR")

	p, err := New(map[string]interface{}{
		"vars": []interface{}{"FLOWTOY_TEST_VAR", "FLOWTOY_TEST_MISSING"},
	})
	require.NoError(t, err)

	res, err := p.Call(context.Background(), nil)
	require.NoError(t, err)

	data, ok := res.Data.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "hello", data["FLOWTOY_TEST_VAR"])
	assert.Nil(t, data["FLOWTOY_TEST_MISSING"])
}

func TestNewRequiresVarsList(t *testing.T) {
	_, err := New(map[string]interface{}{})
	assert.Error(t, err)
}

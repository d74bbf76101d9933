package template

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleCtx() Context {
	return Context{
		Flows: map[string]map[string]interface{}{
			"ldap_lookup": {
				"uid":   "uid-alice",
				"email": "alice@example.com",
			},
		},
		Sources: map[string]map[string]interface{}{
			"hr": {"url": "https://hr.example.com"},
		},
	}
}

func TestRenderWholeExpressionPreservesType(t *testing.T) {
	e := NewEngine()
	out, err := e.Render("{{ flows.ldap_lookup.uid }}", sampleCtx())
	require.NoError(t, err)
	assert.Equal(t, "uid-alice", out)
}

func TestRenderInterpolatesIntoLargerString(t *testing.T) {
	e := NewEngine()
	out, err := e.Render("hello {{ flows.ldap_lookup.uid }}!", sampleCtx())
	require.NoError(t, err)
	assert.Equal(t, "hello uid-alice!", out)
}

func TestRenderUndefinedFails(t *testing.T) {
	e := NewEngine()
	_, err := e.Render("{{ flows.missing.field }}", sampleCtx())
	assert.True(t, errors.Is(err, ErrUndefined))
}

func TestSearchNeverRaises(t *testing.T) {
	assert.Nil(t, Search("this is not valid jmespath [[[", map[string]interface{}{}))
	assert.Equal(t, "x", Search("uid", map[string]interface{}{"uid": "x"}))
}

func TestRenderValueRecursesMapsAndSlices(t *testing.T) {
	e := NewEngine()
	in := map[string]interface{}{
		"id":    "{{ flows.ldap_lookup.uid }}",
		"items": []interface{}{"{{ flows.ldap_lookup.email }}", "literal"},
	}
	out, err := e.RenderValue(in, sampleCtx())
	require.NoError(t, err)

	m, ok := out.(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "uid-alice", m["id"])

	items, ok := m["items"].([]interface{})
	require.True(t, ok)
	assert.Equal(t, []interface{}{"alice@example.com", "literal"}, items)
}

package awsident

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAcceptsOptionalProfileAndRegion(t *testing.T) {
	p, err := New(map[string]interface{}{"profile": "dev", "region": "us-east-1"})
	require.NoError(t, err)

	id := p.(*Identity)
	assert.Equal(t, "dev", id.profile)
	assert.Equal(t, "us-east-1", id.region)
}

func TestNewWithNoConfig(t *testing.T) {
	p, err := New(map[string]interface{}{})
	require.NoError(t, err)

	id := p.(*Identity)
	assert.Empty(t, id.profile)
	assert.Empty(t, id.region)
}

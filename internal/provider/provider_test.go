package provider

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowtoy/flowtoy/internal/result"
)

type fakeProvider struct{ name string }

func (f fakeProvider) Call(ctx context.Context, payload interface{}) (result.Result, error) {
	return result.Make(true, nil, f.name, nil, nil), nil
}

func TestRegistryLocalTakesPriorityOverPlugin(t *testing.T) {
	RegisterPlugin("test-priority-provider", func(cfg map[string]interface{}) (Provider, error) {
		return fakeProvider{"plugin"}, nil
	})

	r := NewRegistry()
	r.RegisterFunc("test-priority-provider", func(cfg map[string]interface{}) (Provider, error) {
		return fakeProvider{"local"}, nil
	})

	p, err := r.Create("test-priority-provider", nil)
	require.NoError(t, err)

	res, _ := p.Call(context.Background(), nil)
	assert.Equal(t, "local", res.Data, "local registration should win over the plugin")
}

func TestRegistryUnknownProvider(t *testing.T) {
	r := NewRegistry()
	_, err := r.Create("does-not-exist", nil)
	require.Error(t, err)
	assert.IsType(t, &ErrUnknownProvider{}, err)
}

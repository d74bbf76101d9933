package scheduler

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowtoy/flowtoy/internal/ast"
	"github.com/flowtoy/flowtoy/internal/provider"
	"github.com/flowtoy/flowtoy/internal/result"
)

// recordingProvider returns a fixed result and appends its own name to a
// shared, mutex-guarded call log, so tests can assert execution order
// without relying on timing.
type recordingProvider struct {
	name    string
	log     *callLog
	succeed bool
	data    interface{}
}

type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (c *callLog) record(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, name)
}

func (c *callLog) snapshot() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]string, len(c.calls))
	copy(out, c.calls)
	return out
}

func (p recordingProvider) Call(ctx context.Context, payload interface{}) (result.Result, error) {
	p.log.record(p.name)
	if !p.succeed {
		return result.Result{}, fmt.Errorf("%s: forced failure", p.name)
	}
	return result.Make(true, nil, p.data, nil, nil), nil
}

func registryWithSteps(t *testing.T, log *callLog, outcomes map[string]bool) *provider.Registry {
	t.Helper()
	reg := provider.NewRegistry()
	for name, ok := range outcomes {
		name, ok := name, ok
		reg.RegisterFunc(name, func(cfg map[string]interface{}) (provider.Provider, error) {
			return recordingProvider{name: name, log: log, succeed: ok, data: map[string]interface{}{"ran": name}}, nil
		})
	}
	return reg
}

func step(name string, dependsOn []string, onError ast.OnErrorPolicy) *ast.Step {
	return &ast.Step{
		Name:      name,
		Source:    map[string]interface{}{"type": name},
		DependsOn: dependsOn,
		OnError:   onError,
	}
}

func testLogger() zerolog.Logger {
	return zerolog.Nop()
}

func TestLinearDependencyOrdering(t *testing.T) {
	log := &callLog{}
	steps := []*ast.Step{
		step("a", nil, ""),
		step("b", []string{"a"}, ""),
		step("c", []string{"b"}, ""),
	}
	cfg := &ast.FlowConfig{Flow: steps}
	reg := registryWithSteps(t, log, map[string]bool{"a": true, "b": true, "c": true})

	sched, err := New(cfg, reg, 1, testLogger())
	require.NoError(t, err)
	require.NoError(t, sched.Run(context.Background()))

	calls := log.snapshot()
	want := []string{"a", "b", "c"}
	require.Equal(t, want, calls)

	flows, status := sched.Snapshot()
	assert.Equal(t, "c", flows["c"]["ran"])
	for _, name := range want {
		assert.Equal(t, StateSucceeded, status.Steps[name].State, "step %s", name)
	}
}

func TestParallelSiblingsBothRun(t *testing.T) {
	log := &callLog{}
	steps := []*ast.Step{
		step("root", nil, ""),
		step("left", []string{"root"}, ""),
		step("right", []string{"root"}, ""),
	}
	cfg := &ast.FlowConfig{Flow: steps}
	reg := registryWithSteps(t, log, map[string]bool{"root": true, "left": true, "right": true})

	sched, err := New(cfg, reg, 1, testLogger())
	require.NoError(t, err)
	require.NoError(t, sched.Run(context.Background()))

	calls := log.snapshot()
	require.Len(t, calls, 3)
	assert.Equal(t, "root", calls[0], "root should run first")
}

func TestOnErrorSkipPropagatesToDescendants(t *testing.T) {
	log := &callLog{}
	steps := []*ast.Step{
		step("a", nil, ""),
		step("b", []string{"a"}, ast.OnErrorSkip),
		step("c", []string{"b"}, ""),
	}
	cfg := &ast.FlowConfig{Flow: steps}
	reg := registryWithSteps(t, log, map[string]bool{"a": false, "b": true, "c": true})

	sched, err := New(cfg, reg, 1, testLogger())
	require.NoError(t, err)
	require.NoError(t, sched.Run(context.Background()), "skip should not abort")

	_, status := sched.Snapshot()
	assert.Equal(t, StateFailed, status.Steps["a"].State)
	assert.Equal(t, StateSkipped, status.Steps["b"].State)
	assert.Equal(t, StateSkipped, status.Steps["c"].State, "transitive skip")
	for _, call := range log.snapshot() {
		assert.NotEqual(t, "b", call, "skipped step should never have been called")
		assert.NotEqual(t, "c", call, "skipped step should never have been called")
	}
}

func TestOnErrorFailAbortsRun(t *testing.T) {
	log := &callLog{}
	steps := []*ast.Step{
		step("a", nil, ""),
		step("b", []string{"a"}, ast.OnErrorFail),
		step("unrelated", nil, ""),
	}
	cfg := &ast.FlowConfig{Flow: steps}
	reg := registryWithSteps(t, log, map[string]bool{"a": false, "b": true, "unrelated": true})

	sched, err := New(cfg, reg, 1, testLogger())
	require.NoError(t, err)
	err = sched.Run(context.Background())
	require.Equal(t, ErrAborted, err)

	_, status := sched.Snapshot()
	assert.Equal(t, StatePending, status.Steps["b"].State, "never submitted after abort")
}

func TestInvalidDependencyReturnsConfigError(t *testing.T) {
	steps := []*ast.Step{
		step("a", []string{"does-not-exist"}, ""),
	}
	cfg := &ast.FlowConfig{Flow: steps}
	reg := provider.NewRegistry()

	_, err := New(cfg, reg, 1, testLogger())
	require.Error(t, err)
	assert.IsType(t, &ConfigError{}, err)
}

func TestCycleIsDetected(t *testing.T) {
	steps := []*ast.Step{
		step("a", []string{"b"}, ""),
		step("b", []string{"a"}, ""),
	}
	cfg := &ast.FlowConfig{Flow: steps}
	reg := provider.NewRegistry()

	_, err := New(cfg, reg, 1, testLogger())
	require.Error(t, err)
	assert.IsType(t, &ErrCycleDetected{}, err)
}

func TestImplicitDependencyInferredFromInputValue(t *testing.T) {
	log := &callLog{}
	steps := []*ast.Step{
		step("a", nil, ""),
		{
			Name:   "b",
			Source: map[string]interface{}{"type": "b"},
			Input:  ast.InputSpec{Kind: ast.InputKindParameter, Value: "{{ flows.a.ran }}"},
		},
	}
	cfg := &ast.FlowConfig{Flow: steps}
	reg := registryWithSteps(t, log, map[string]bool{"a": true, "b": true})

	sched, err := New(cfg, reg, 1, testLogger())
	require.NoError(t, err)
	require.NoError(t, sched.Run(context.Background()))

	calls := log.snapshot()
	require.Equal(t, []string{"a", "b"}, calls, "implicit dependency should order a before b")
}

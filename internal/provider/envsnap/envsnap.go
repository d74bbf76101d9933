// Package envsnap implements the "env" provider: snapshots a configured
// set of environment variables. Grounded on
// original_source/flow/connectors/env.py.
package envsnap

import (
	"context"
	"fmt"
	"os"

	"github.com/flowtoy/flowtoy/internal/provider"
	"github.com/flowtoy/flowtoy/internal/result"
)

func init() {
	provider.RegisterPlugin("env", New)
}

// Env snapshots the listed environment variables on each Call.
type Env struct {
	vars []string
}

// New constructs an Env provider. The "vars" config key must be a list of
// variable names.
func New(cfg map[string]interface{}) (provider.Provider, error) {
	raw, ok := cfg["vars"].([]interface{})
	if !ok {
		return nil, fmt.Errorf("env: \"vars\" must be a list of environment variable names")
	}
	vars := make([]string, 0, len(raw))
	for _, v := range raw {
		name, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("env: \"vars\" entries must be strings, got %T", v)
		}
		vars = append(vars, name)
	}
	return &Env{vars: vars}, nil
}

// Call ignores payload and returns the current value of each configured
// variable, missing variables reported as nil (matching os.environ.get).
func (e *Env) Call(ctx context.Context, payload interface{}) (result.Result, error) {
	data := make(map[string]interface{}, len(e.vars))
	for _, name := range e.vars {
		if v, ok := os.LookupEnv(name); ok {
			data[name] = v
		} else {
			data[name] = nil
		}
	}
	return result.Make(true, nil, data, nil, nil), nil
}

package scheduler

import (
	"context"
	"fmt"

	"github.com/flowtoy/flowtoy/internal/ast"
	"github.com/flowtoy/flowtoy/internal/provider"
	"github.com/flowtoy/flowtoy/internal/result"
	"github.com/flowtoy/flowtoy/internal/template"
)

// dispatchStep resolves the step's source, renders its configuration and
// input payload against a consistent snapshot, invokes the provider, and
// extracts its declared outputs. Split out of the scheduler loop so that
// file stays focused on graph/pool/policy bookkeeping.
func dispatchStep(ctx context.Context, engine *template.Engine, registry *provider.Registry, step *ast.Step, sources map[string]*ast.Source, flows FlowOutputs) (map[string]interface{}, error) {
	typeName, rawConfig, err := ast.ResolveSource(step.Source, sources)
	if err != nil {
		return nil, fmt.Errorf("resolving source: %w", err)
	}

	tctx := snapshotToContext(flows, sources)

	renderedConfig, err := engine.RenderValue(rawConfig, tctx)
	if err != nil {
		return nil, fmt.Errorf("rendering source configuration: %w", err)
	}
	configMap, _ := renderedConfig.(map[string]interface{})
	if configMap == nil {
		configMap = map[string]interface{}{}
	}

	payload, err := buildPayload(engine, step.Input, tctx)
	if err != nil {
		return nil, fmt.Errorf("rendering input: %w", err)
	}

	p, err := registry.Create(typeName, configMap)
	if err != nil {
		return nil, err
	}

	res, callErr := runProvider(ctx, p, payload)
	if callErr != nil {
		res = result.FromException(callErr)
	}

	if !res.Status.Success {
		if len(res.Status.Notes) > 0 {
			return nil, fmt.Errorf("provider reported failure: %s", res.Status.Notes[0])
		}
		code := "unknown"
		if res.Status.Code != nil {
			code = fmt.Sprintf("%d", *res.Status.Code)
		}
		return nil, fmt.Errorf("provider reported failure (code=%s)", code)
	}

	return extractOutputs(step.Outputs, res.Data), nil
}

// runProvider recovers a panicking Provider.Call and converts it into an
// error, so a single misbehaving provider can't crash the scheduler
// goroutine running its step.
func runProvider(ctx context.Context, p provider.Provider, payload interface{}) (res result.Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("provider panicked: %v", r)
		}
	}()
	return p.Call(ctx, payload)
}

func buildPayload(engine *template.Engine, input ast.InputSpec, tctx template.Context) (interface{}, error) {
	switch input.Kind {
	case ast.InputKindFilter, ast.InputKindBody:
		if input.Template == nil {
			return nil, nil
		}
		return engine.RenderValue(input.Template, tctx)
	default:
		if input.Value == nil {
			return nil, nil
		}
		return engine.RenderValue(input.Value, tctx)
	}
}

func extractOutputs(specs []ast.OutputSpec, data interface{}) map[string]interface{} {
	if len(specs) == 0 {
		if m, ok := data.(map[string]interface{}); ok {
			return m
		}
		return map[string]interface{}{"data": data}
	}

	out := make(map[string]interface{}, len(specs))
	for _, spec := range specs {
		switch spec.Kind {
		case ast.OutputKindJMESPath:
			out[spec.Name] = template.Search(spec.Value, data)
		default:
			out[spec.Name] = data
		}
	}
	return out
}

func snapshotToContext(flows FlowOutputs, sources map[string]*ast.Source) template.Context {
	srcCtx := make(map[string]map[string]interface{}, len(sources))
	for name, src := range sources {
		srcCtx[name] = src.Configuration
	}
	return template.Context{Flows: flows, Sources: srcCtx}
}

// Package configio loads and merges the YAML configuration files flowtoy
// is run against, grounded on the original project's flow/config.py.
package configio

import (
	"fmt"
	"os"

	"dario.cat/mergo"
	"gopkg.in/yaml.v3"

	"github.com/flowtoy/flowtoy/internal/ast"
)

// Load reads each file in paths (in order) and deep-merges them into a
// single ast.FlowConfig. Later files win on scalar and list conflicts;
// maps are merged key-by-key. Matches the original's deep_merge: lists are
// replaced wholesale, never appended, which is why mergo.WithOverride is
// used without mergo.WithAppendSlice.
func Load(paths []string) (*ast.FlowConfig, error) {
	merged := map[string]interface{}{}

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, &LoadError{Path: path, Err: err}
		}

		var doc map[string]interface{}
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, &LoadError{Path: path, Err: fmt.Errorf("parsing yaml: %w", err)}
		}
		if doc == nil {
			continue
		}
		doc = normalizeYAMLMaps(doc).(map[string]interface{})

		if err := mergo.Merge(&merged, doc, mergo.WithOverride); err != nil {
			return nil, &LoadError{Path: path, Err: fmt.Errorf("merging: %w", err)}
		}
	}

	return decode(merged)
}

// LoadError wraps a failure to read or parse one config file with its path.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

func decode(merged map[string]interface{}) (*ast.FlowConfig, error) {
	raw, err := yaml.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("re-encoding merged config: %w", err)
	}

	var cfg ast.FlowConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("decoding merged config: %w", err)
	}
	for name, src := range cfg.Sources {
		src.Name = name
	}
	return &cfg, nil
}

// normalizeYAMLMaps walks a decoded document and converts any
// map[interface{}]interface{} produced by older-style YAML decoding into
// map[string]interface{}, so mergo.Merge sees consistent map types across
// documents. gopkg.in/yaml.v3 already decodes into map[string]interface{}
// by default, but nested documents loaded from user-authored multi-doc
// files can still surface this shape after a generic interface{} round
// trip, so this guard is kept cheap and recursive.
func normalizeYAMLMaps(v interface{}) interface{} {
	switch t := v.(type) {
	case map[string]interface{}:
		for k, val := range t {
			t[k] = normalizeYAMLMaps(val)
		}
		return t
	case map[interface{}]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			out[fmt.Sprintf("%v", k)] = normalizeYAMLMaps(val)
		}
		return out
	case []interface{}:
		for i, val := range t {
			t[i] = normalizeYAMLMaps(val)
		}
		return t
	default:
		return v
	}
}

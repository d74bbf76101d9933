package ast

import "fmt"

// ResolveSource turns a step's raw `source` field plus the config's named
// sources into a concrete {type, configuration} pair. Mirrors the original
// runner's three accepted shapes (flowtoy/runner.py:202-205):
//
//   - a string naming a registered source (falls back to {"type": name} if
//     the name isn't registered, so bare provider types work inline);
//   - a map with a "base" key and an "override" submap, shallow-merged with
//     the named source's configuration (override's keys win on conflicts);
//   - a map with a "type" key and a "configuration" submap, used as-is.
func ResolveSource(raw interface{}, sources map[string]*Source) (string, map[string]interface{}, error) {
	switch v := raw.(type) {
	case string:
		if src, ok := sources[v]; ok {
			return src.Type, cloneConfig(src.Configuration), nil
		}
		return v, map[string]interface{}{}, nil
	case map[string]interface{}:
		if baseName, ok := v["base"].(string); ok {
			base, ok := sources[baseName]
			if !ok {
				return "", nil, fmt.Errorf("source base %q is not defined", baseName)
			}
			merged := cloneConfig(base.Configuration)
			if override, ok := v["override"].(map[string]interface{}); ok {
				for k, val := range override {
					merged[k] = val
				}
			}
			return base.Type, merged, nil
		}
		typeName, ok := v["type"].(string)
		if !ok {
			return "", nil, fmt.Errorf("source definition is missing a string \"type\"")
		}
		cfg, _ := v["configuration"].(map[string]interface{})
		return typeName, cloneConfig(cfg), nil
	default:
		return "", nil, fmt.Errorf("source must be a string or a map, got %T", raw)
	}
}

func cloneConfig(m map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

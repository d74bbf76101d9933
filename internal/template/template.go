// Package template renders the `{{ flows.step.output }}` /
// `{{ sources.name.field }}` expressions used throughout a flowtoy
// configuration, and exposes the `search(expr, data)` JMESPath helper
// available inside those expressions.
package template

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/jmespath/go-jmespath"
)

// expressionPattern matches a single `{{ ... }}` expression, mirroring the
// teacher's `${{ ... }}` pattern but without the escape-dollar prefix this
// spec doesn't need.
var expressionPattern = regexp.MustCompile(`\{\{\s*(.*?)\s*\}\}`)

// DependencyPattern finds implicit `flows.<name>.` references inside a
// template string, used by internal/scheduler to infer step dependencies.
var DependencyPattern = regexp.MustCompile(`flows\.([A-Za-z0-9_]+)\.`)

// ErrUndefined is returned (wrapped with the offending path) when a
// template references a variable that doesn't exist in the context.
var ErrUndefined = fmt.Errorf("undefined template variable")

// Context is the two-scope lookup environment available to every template:
// `flows.<step>.<output>` and `sources.<name>.<field>`.
type Context struct {
	Flows   map[string]map[string]interface{}
	Sources map[string]map[string]interface{}
}

// Engine renders templates against a Context. It is stateless and safe for
// concurrent use.
type Engine struct{}

// NewEngine constructs a template Engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Render substitutes every `{{ expr }}` occurrence in tmpl. If the whole
// string is a single expression, the resolved value is returned as-is
// (without stringification), so `{{ flows.a.list }}` yields the original
// slice/map rather than its string form. Any reference to an undefined
// path fails the whole render with ErrUndefined.
func (e *Engine) Render(tmpl string, ctx Context) (interface{}, error) {
	if full := strings.TrimSpace(tmpl); expressionPattern.MatchString(tmpl) {
		if m := expressionPattern.FindStringSubmatch(full); m != nil && m[0] == full {
			return e.resolve(m[1], ctx)
		}
	}

	var renderErr error
	out := expressionPattern.ReplaceAllStringFunc(tmpl, func(match string) string {
		if renderErr != nil {
			return ""
		}
		expr := expressionPattern.FindStringSubmatch(match)[1]
		val, err := e.resolve(expr, ctx)
		if err != nil {
			renderErr = err
			return ""
		}
		return stringify(val)
	})
	if renderErr != nil {
		return nil, renderErr
	}
	return out, nil
}

// RenderValue recursively renders every string found inside v (maps,
// slices, or a bare string), used to render a step's resolved source
// configuration and input payload before provider dispatch.
func (e *Engine) RenderValue(v interface{}, ctx Context) (interface{}, error) {
	switch t := v.(type) {
	case string:
		if !strings.Contains(t, "{{") {
			return t, nil
		}
		return e.Render(t, ctx)
	case map[string]interface{}:
		out := make(map[string]interface{}, len(t))
		for k, val := range t {
			rendered, err := e.RenderValue(val, ctx)
			if err != nil {
				return nil, err
			}
			out[k] = rendered
		}
		return out, nil
	case []interface{}:
		out := make([]interface{}, len(t))
		for i, val := range t {
			rendered, err := e.RenderValue(val, ctx)
			if err != nil {
				return nil, err
			}
			out[i] = rendered
		}
		return out, nil
	default:
		return v, nil
	}
}

// Search evaluates a JMESPath expression against data, returning nil on any
// evaluation error (including a malformed expression) instead of raising,
// matching the original `extract_jmespath` helper's behaviour.
func Search(expr string, data interface{}) interface{} {
	result, err := jmespath.Search(expr, data)
	if err != nil {
		return nil
	}
	return result
}

func (e *Engine) resolve(expr string, ctx Context) (interface{}, error) {
	expr = strings.TrimSpace(expr)
	if strings.HasPrefix(expr, "search(") && strings.HasSuffix(expr, ")") {
		return e.resolveSearch(expr, ctx)
	}
	return resolvePath(expr, ctx)
}

// resolveSearch parses `search(path.expr, flows.step.output)` style calls:
// the first argument is a literal jmespath expression string (no quoting
// required, consistent with the rest of this minimal template language),
// the second is a dotted path resolved against ctx.
func (e *Engine) resolveSearch(expr string, ctx Context) (interface{}, error) {
	inner := strings.TrimSuffix(strings.TrimPrefix(expr, "search("), ")")
	args := splitTopLevelArgs(inner)
	if len(args) != 2 {
		return nil, fmt.Errorf("search() requires exactly 2 arguments, got %d", len(args))
	}
	jmespathExpr := strings.Trim(strings.TrimSpace(args[0]), `"'`)
	data, err := resolvePath(strings.TrimSpace(args[1]), ctx)
	if err != nil {
		return nil, err
	}
	return Search(jmespathExpr, data), nil
}

func splitTopLevelArgs(s string) []string {
	depth := 0
	var args []string
	last := 0
	for i, r := range s {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				args = append(args, s[last:i])
				last = i + 1
			}
		}
	}
	args = append(args, s[last:])
	return args
}

func resolvePath(path string, ctx Context) (interface{}, error) {
	parts := strings.Split(path, ".")
	if len(parts) < 2 {
		return nil, fmt.Errorf("%w: %q", ErrUndefined, path)
	}

	var scope map[string]map[string]interface{}
	switch parts[0] {
	case "flows":
		scope = ctx.Flows
	case "sources":
		scope = ctx.Sources
	default:
		return nil, fmt.Errorf("%w: unknown scope in %q", ErrUndefined, path)
	}

	entry, ok := scope[parts[1]]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUndefined, path)
	}

	var cur interface{} = entry
	for _, field := range parts[2:] {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUndefined, path)
		}
		val, ok := m[field]
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUndefined, path)
		}
		cur = val
	}
	if len(parts) == 2 {
		return cur, nil
	}
	return cur, nil
}

// stringify renders a resolved value for interpolation into a larger
// template string, matching the teacher's ValueToString type switch.
func stringify(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", t)
	}
}

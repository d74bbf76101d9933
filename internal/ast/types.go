// Package ast defines the in-memory representation of a flowtoy
// configuration: sources, steps, the runner section, and the merged
// root document produced by internal/configio.
package ast

import (
	"encoding/json"
	"fmt"
	"time"
)

// Position identifies a location in a source YAML document, used for
// error reporting when a config fails to parse or validate.
type Position struct {
	Line   int    `json:"line"`
	Column int    `json:"column"`
	File   string `json:"file,omitempty"`
}

func (p Position) String() string {
	if p.File != "" {
		return fmt.Sprintf("%s:%d:%d", p.File, p.Line, p.Column)
	}
	return fmt.Sprintf("%d:%d", p.Line, p.Column)
}

// OnErrorPolicy is the per-step failure-handling directive.
type OnErrorPolicy string

const (
	OnErrorFail     OnErrorPolicy = "fail"
	OnErrorSkip     OnErrorPolicy = "skip"
	OnErrorContinue OnErrorPolicy = "continue"
)

// Normalize lower-cases the policy and falls back to def when empty,
// matching the original runner's `(step.get("on_error") or default or
// "fail").lower()` behaviour.
func (p OnErrorPolicy) Normalize(def OnErrorPolicy) OnErrorPolicy {
	if p == "" {
		if def == "" {
			return OnErrorFail
		}
		return def
	}
	return OnErrorPolicy(toLower(string(p)))
}

func toLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

// Source is a named, reusable data-provider configuration. Steps either
// reference a source by name or embed a source definition inline.
type Source struct {
	Name          string                 `yaml:"-" json:"name"`
	Type          string                 `yaml:"type" json:"type"`
	Configuration map[string]interface{} `yaml:"configuration" json:"configuration"`

	Position Position `yaml:"-" json:"-"`
}

// InputKind selects how a step's input payload is produced.
type InputKind string

const (
	InputKindParameter InputKind = "parameter"
	InputKindFilter    InputKind = "filter"
	InputKindBody      InputKind = "body"
)

// InputSpec describes how to build the payload passed to a provider.
type InputSpec struct {
	Kind     InputKind   `yaml:"type,omitempty" json:"kind,omitempty"`
	Value    interface{} `yaml:"value,omitempty" json:"value,omitempty"`
	Template interface{} `yaml:"template,omitempty" json:"template,omitempty"`
}

// OutputKind selects how a step extracts named outputs from a result.
type OutputKind string

const (
	OutputKindJMESPath OutputKind = "jmespath"
	OutputKindJSON     OutputKind = "json"
)

// OutputSpec names one value to extract from a step's result data.
type OutputSpec struct {
	Name string     `yaml:"name" json:"name"`
	Kind OutputKind `yaml:"type,omitempty" json:"kind,omitempty"`
	// Value is the jmespath expression (kind jmespath) or ignored (kind json,
	// which extracts the whole data payload under Name).
	Value string `yaml:"value,omitempty" json:"value,omitempty"`
}

// Step is a single unit of work in a flow: resolve a source, render its
// configuration and input payload, invoke the provider, extract outputs.
type Step struct {
	Name string `yaml:"name" json:"name"`

	// Source is either a bare source name, or an inline source definition
	// (optionally a `base` reference merged with overrides). Parsed from
	// raw YAML in internal/configio; see ResolveSource.
	Source interface{} `yaml:"source" json:"source"`

	Input   InputSpec      `yaml:"input,omitempty" json:"input,omitempty"`
	Outputs []OutputSpec   `yaml:"output,omitempty" json:"outputs,omitempty"`

	DependsOn []string      `yaml:"depends_on,omitempty" json:"depends_on,omitempty"`
	OnError   OnErrorPolicy `yaml:"on_error,omitempty" json:"on_error,omitempty"`

	Position Position `yaml:"-" json:"-"`
}

// RunnerConfig is the top-level `runner:` section controlling scheduling.
type RunnerConfig struct {
	MaxWorkers int           `yaml:"max_workers,omitempty" json:"max_workers,omitempty"`
	OnError    OnErrorPolicy `yaml:"on_error,omitempty" json:"on_error,omitempty"`
}

// FlowConfig is the fully merged, parsed configuration root.
type FlowConfig struct {
	Runner  RunnerConfig       `yaml:"runner,omitempty" json:"runner,omitempty"`
	Sources map[string]*Source `yaml:"sources,omitempty" json:"sources,omitempty"`
	Flow    []*Step            `yaml:"flow,omitempty" json:"flow,omitempty"`
}

// Duration wraps time.Duration with human-readable YAML/JSON marshaling,
// e.g. `timeout: 30s` in a provider configuration.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = dur
	return nil
}

func (d Duration) MarshalYAML() (interface{}, error) {
	return d.Duration.String(), nil
}

func (d *Duration) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	dur, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	d.Duration = dur
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.Duration.String())
}

func (d Duration) String() string {
	return d.Duration.String()
}

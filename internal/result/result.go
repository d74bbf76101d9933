// Package result implements the provider result envelope and the secret
// redaction applied to its metadata before it is ever shown in a status
// response, grounded on the original project's make_result/sanitize_meta.
package result

import (
	"fmt"
	"strings"
)

// Status is the success/code/notes header of a Result.
type Status struct {
	Success bool     `json:"success"`
	Code    *int     `json:"code"`
	Notes   []string `json:"notes"`
}

// Result is the canonical envelope every provider call returns.
type Result struct {
	Status Status                 `json:"status"`
	Data   interface{}            `json:"data"`
	Meta   map[string]interface{} `json:"meta"`
}

// DefaultRedactKeys are the meta keys (matched case-insensitively, as a
// substring of the key) whose values are replaced with "<redacted>".
var DefaultRedactKeys = []string{"password", "secret", "token", "bind_password", "pw"}

const redactedPlaceholder = "<redacted>"

// Make builds a Result, normalizing notes and redacting meta.
func Make(success bool, code *int, data interface{}, notes []string, meta map[string]interface{}) Result {
	return Result{
		Status: Status{Success: success, Code: code, Notes: normalizeNotes(notes)},
		Data:   data,
		Meta:   RedactMeta(meta),
	}
}

// FromException builds a failure Result from a Go error, mirroring
// result_from_exception.
func FromException(err error) Result {
	return Result{
		Status: Status{Success: false, Code: nil, Notes: []string{err.Error()}},
		Data:   nil,
		Meta:   map[string]interface{}{"exception": err.Error()},
	}
}

// RedactMeta returns a shallow copy of meta with any value whose key
// contains one of DefaultRedactKeys (case-insensitive) replaced by
// "<redacted>". Non-matching keys and values pass through untouched.
func RedactMeta(meta map[string]interface{}) map[string]interface{} {
	if meta == nil {
		return map[string]interface{}{}
	}
	out := make(map[string]interface{}, len(meta))
	for k, v := range meta {
		lower := strings.ToLower(k)
		redacted := false
		for _, key := range DefaultRedactKeys {
			if strings.Contains(lower, key) {
				redacted = true
				break
			}
		}
		if redacted {
			out[k] = redactedPlaceholder
		} else {
			out[k] = v
		}
	}
	return out
}

// normalizeNotes returns a non-nil copy of notes with empty strings
// dropped. Flattening and stringifying heterogeneous values is left to
// FlattenNotes.
func normalizeNotes(notes []string) []string {
	if notes == nil {
		return []string{}
	}
	out := make([]string, 0, len(notes))
	for _, n := range notes {
		if n == "" {
			continue
		}
		out = append(out, n)
	}
	return out
}

// FlattenNotes is used by callers building a notes list from heterogeneous
// values (e.g. a slice of interface{} returned by a provider): nested
// slices are flattened at any depth, nils and empty strings are dropped,
// and every other value is stringified with %v.
func FlattenNotes(values []interface{}) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		switch t := v.(type) {
		case nil:
			continue
		case string:
			if t != "" {
				out = append(out, t)
			}
		case []interface{}:
			out = append(out, FlattenNotes(t)...)
		default:
			out = append(out, toString(t))
		}
	}
	return out
}

func toString(v interface{}) string {
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprintf("%v", v)
}

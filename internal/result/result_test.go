package result

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRedactMetaCaseInsensitiveSubstring(t *testing.T) {
	meta := map[string]interface{}{
		"BIND_PASSWORD": "hunter2",
		"Api_Token":     "abc123",
		"username":      "alice",
		"count":         3,
	}
	got := RedactMeta(meta)
	assert.Equal(t, redactedPlaceholder, got["BIND_PASSWORD"])
	assert.Equal(t, redactedPlaceholder, got["Api_Token"])
	assert.Equal(t, "alice", got["username"])
	assert.Equal(t, 3, got["count"])
}

func TestRedactMetaIsIdempotentAndCopies(t *testing.T) {
	meta := map[string]interface{}{"secret": "x"}
	first := RedactMeta(meta)
	second := RedactMeta(first)
	assert.Equal(t, redactedPlaceholder, second["secret"], "re-redaction should stay redacted")
	assert.Equal(t, "x", meta["secret"], "RedactMeta should not mutate its input")
}

func TestMakeSuccess(t *testing.T) {
	r := Make(true, nil, map[string]interface{}{"uid": "x"}, []string{}, nil)
	assert.True(t, r.Status.Success)
	assert.NotNil(t, r.Meta, "meta should default to an empty map, not nil")
}

func TestFromException(t *testing.T) {
	r := FromException(errTest{"boom"})
	assert.False(t, r.Status.Success)
	assert.Equal(t, []string{"boom"}, r.Status.Notes)
	assert.Equal(t, "boom", r.Meta["exception"])
}

type errTest struct{ msg string }

func (e errTest) Error() string { return e.msg }

func TestFlattenNotesDropsNilsAndFlattensOneLevel(t *testing.T) {
	in := []interface{}{"a", nil, []interface{}{"b", "c"}, 5}
	got := FlattenNotes(in)
	assert.Equal(t, []string{"a", "b", "c", "5"}, got)
}

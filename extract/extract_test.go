package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObject_JSONWrappedInProse(t *testing.T) {
	raw := `Sure, here: {"why":"ok","alternatives":["a"],"error_patterns":[],"confidence":0.9} thanks!`
	obj, ok := Object(raw)
	require.True(t, ok)
	assert.Equal(t, "ok", obj["why"])
	assert.Equal(t, 0.9, obj["confidence"])
}

func TestObject_NoBraces(t *testing.T) {
	_, ok := Object("I could not produce any JSON at all, sorry.")
	assert.False(t, ok)
}

func TestObject_InvalidSpan(t *testing.T) {
	_, ok := Object("prefix {definitely not json} suffix")
	assert.False(t, ok)
}

func TestObject_BareObject(t *testing.T) {
	obj, ok := Object(`{"note":"n","new_goals":[],"tags":[]}`)
	require.True(t, ok)
	assert.Equal(t, "n", obj["note"])
}

func TestStringList(t *testing.T) {
	tests := []struct {
		name string
		in   any
		max  int
		want []string
	}{
		{"list of strings", []any{"a", "b"}, 5, []string{"a", "b"}},
		{"bare string", "just one step", 5, []string{"just one step"}},
		{"bare number", float64(7), 5, []string{"7"}},
		{"list of single-key objects", []any{map[string]any{"step": "do it"}}, 5, []string{"do it"}},
		{"mixed scalars in list", []any{"a", float64(2)}, 5, []string{"a", "2"}},
		{"cap applies", []any{"a", "b", "c"}, 2, []string{"a", "b"}},
		{"nil", nil, 5, []string{}},
		{"unsupported shape", map[string]any{"k": "v"}, 5, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, StringList(tt.in, tt.max))
		})
	}
}

func TestStringList_NeverNil(t *testing.T) {
	assert.NotNil(t, StringList(nil, 3))
}

func TestPriority(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want int
	}{
		{"number", float64(2), 2},
		{"number in annotated string", "3 (high)", 3},
		{"digits embedded later", "priority 4", 4},
		{"no digits", "high", 3},
		{"missing", nil, 3},
		{"out of domain number", float64(9), 3},
		{"out of domain string", "12", 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Priority(tt.in, 3, 1, 5))
		})
	}
}

func TestFloat(t *testing.T) {
	assert.Equal(t, 0.9, Float(0.9, 0.5))
	assert.Equal(t, 0.7, Float("0.7", 0.5))
	assert.Equal(t, 0.5, Float(nil, 0.5))
	assert.Equal(t, 0.5, Float("not a number", 0.5))
}

func TestString(t *testing.T) {
	assert.Equal(t, "x", String("x"))
	assert.Equal(t, "", String(nil))
	assert.Equal(t, "3", String(float64(3)))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abc", 5))
	assert.Equal(t, "ab", Truncate("abcd", 2))
	assert.Equal(t, "hél", Truncate("héllo", 3)) // runes, not bytes
	assert.Equal(t, "", Truncate("abc", 0))
}

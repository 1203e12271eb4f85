package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExpandEnv(t *testing.T) {
	t.Setenv("MCPWEAVE_TEST_VAR", "hello")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain string untouched", "no vars here", "no vars here"},
		{"simple substitution", "${MCPWEAVE_TEST_VAR}", "hello"},
		{"embedded substitution", "prefix-${MCPWEAVE_TEST_VAR}-suffix", "prefix-hello-suffix"},
		{"default used when unset", "${MCPWEAVE_TEST_UNSET:fallback}", "fallback"},
		{"unset with no default becomes empty", "${MCPWEAVE_TEST_UNSET}", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, expandEnv(tt.in))
		})
	}
}

func TestExpandTree(t *testing.T) {
	t.Setenv("MCPWEAVE_TREE_VAR", "value")

	tree := map[string]any{
		"a": "${MCPWEAVE_TREE_VAR}",
		"b": []any{"${MCPWEAVE_TREE_VAR}", "literal"},
		"c": map[string]any{"nested": "${MCPWEAVE_TREE_VAR}"},
		"d": float64(42),
	}

	out := expandTree(tree).(map[string]any)
	assert.Equal(t, "value", out["a"])
	assert.Equal(t, []any{"value", "literal"}, out["b"])
	assert.Equal(t, map[string]any{"nested": "value"}, out["c"])
	assert.Equal(t, float64(42), out["d"])
}

package config

import (
	"os"
	"regexp"

	"github.com/mcpweave/mcpweave/pkg/logging"
)

// varPattern matches ${NAME} and ${NAME:default} (spec §4.7 point 1).
var varPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(:([^}]*))?\}`)

// expandEnv substitutes ${NAME} / ${NAME:default} references in s using the
// process environment. An unset variable with no default expands to the
// empty string and emits a warning.
func expandEnv(s string) string {
	return varPattern.ReplaceAllStringFunc(s, func(match string) string {
		groups := varPattern.FindStringSubmatch(match)
		name, hasDefault, def := groups[1], groups[2] != "", groups[3]
		if v, ok := os.LookupEnv(name); ok {
			return v
		}
		if hasDefault {
			return def
		}
		logging.Warnf("config: environment variable %q is unset and has no default; substituting empty string", name)
		return ""
	})
}

// expandTree recursively walks a generic JSON tree (as produced by
// json.Unmarshal into `any`) rewriting every string leaf through expandEnv.
// This is a hand-written tree walker rather than a corpus library call: the
// available JSON libraries in the retrieval pack (tidwall/gjson, sjson) are
// point read/write accessors, not whole-tree mutating rewriters, and
// xeipuuv/gojsonschema only validates. No corpus dependency performs this
// kind of generic recursive string substitution, so it is implemented
// directly against the standard decoded `any` tree.
func expandTree(node any) any {
	switch v := node.(type) {
	case string:
		return expandEnv(v)
	case map[string]any:
		for k, child := range v {
			v[k] = expandTree(child)
		}
		return v
	case []any:
		for i, child := range v {
			v[i] = expandTree(child)
		}
		return v
	default:
		return node
	}
}

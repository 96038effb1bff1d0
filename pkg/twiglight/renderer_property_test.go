//go:build property
// +build property

package twiglight

import (
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

// TestRenderProperties tests substitution invariants over generated input
func TestRenderProperties(t *testing.T) {
	properties := gopter.NewProperties(nil)

	// Property: templates without an opening delimiter render unchanged
	properties.Property("placeholder-free templates are identity", prop.ForAll(
		func(template string, key, value string) bool {
			if strings.Contains(template, OpenDelim) {
				return true
			}
			got, err := QuickRender(template, Tree{key: value})
			return err == nil && got == template
		},
		gen.AnyString(),
		gen.Identifier(),
		gen.AnyString(),
	))

	// Property: flat trees interleave values with literal separators
	properties.Property("flat tree interleaving", prop.ForAll(
		func(values []string, sep string) bool {
			tree := Tree{}
			var template, want strings.Builder
			for i, v := range values {
				key := "k" + string(rune('a'+i%26)) + strings.Repeat("x", i/26)
				tree[key] = v
				template.WriteString(Placeholder(key))
				template.WriteString(sep)
				want.WriteString(v)
				want.WriteString(sep)
			}
			got, err := QuickRender(template.String(), tree)
			return err == nil && got == want.String()
		},
		gen.SliceOf(gen.AlphaString()),
		gen.OneConstOf(" ", ", ", "|", "\n", "-"),
	))

	// Property: nested values resolve through their dotted path
	properties.Property("nested path resolution", prop.ForAll(
		func(outer, inner, value string) bool {
			tree := Tree{outer: Tree{inner: value}}
			got, err := QuickRender(Placeholder(outer+"."+inner), tree)
			return err == nil && got == value
		},
		gen.Identifier(),
		gen.Identifier(),
		gen.AnyString(),
	))

	// Property: unresolved placeholders survive untouched
	properties.Property("unresolved passthrough", prop.ForAll(
		func(path string) bool {
			token := Placeholder(path)
			got, err := QuickRender(token, Tree{})
			return err == nil && got == token
		},
		gen.Identifier(),
	))

	// Property: replacement text is never rescanned
	properties.Property("single pass", prop.ForAll(
		func(key string) bool {
			if key == "outer" {
				return true
			}
			tree := Tree{"outer": Placeholder(key), key: "expanded"}
			got, err := QuickRender("{{outer}}", tree)
			return err == nil && got == Placeholder(key)
		},
		gen.Identifier(),
	))

	properties.TestingRun(t)
}

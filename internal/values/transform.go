package values

import (
	"fmt"

	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/text/unicode/norm"

	"github.com/conneroisu/twiglight/internal/config"
	"github.com/conneroisu/twiglight/pkg/twiglight"
)

// Sanitizer rewrites the text of every leaf in a tree.
type Sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer returns the sanitizer for a policy name, or nil for
// config.SanitizeNone. Strict strips all markup and escapes the rest; ugc
// keeps the markup safe for user-generated content.
func NewSanitizer(policy string) (*Sanitizer, error) {
	switch policy {
	case "", config.SanitizeNone:
		return nil, nil
	case config.SanitizeStrict:
		return &Sanitizer{policy: bluemonday.StrictPolicy()}, nil
	case config.SanitizeUGC:
		return &Sanitizer{policy: bluemonday.UGCPolicy()}, nil
	default:
		return nil, fmt.Errorf("unknown sanitize policy %q", policy)
	}
}

// Apply returns a copy of tree with every leaf sanitized. A nil Sanitizer
// returns tree unchanged.
func (s *Sanitizer) Apply(tree twiglight.Tree) twiglight.Tree {
	if s == nil {
		return tree
	}
	return mapLeaves(tree, s.policy.Sanitize)
}

// Normalize returns a copy of tree with every leaf converted to Unicode
// NFC, so that composed and decomposed spellings render identically.
func Normalize(tree twiglight.Tree) twiglight.Tree {
	return mapLeaves(tree, norm.NFC.String)
}

// mapLeaves copies tree, replacing each leaf by fn of its text. Leaves are
// stringified first, so the result only holds strings and branches.
func mapLeaves(tree twiglight.Tree, fn func(string) string) twiglight.Tree {
	out := make(twiglight.Tree, len(tree))
	for k, v := range tree {
		out[k] = mapValue(v, fn)
	}
	return out
}

func mapValue(v any, fn func(string) string) any {
	switch t := v.(type) {
	case twiglight.Tree:
		return mapLeaves(t, fn)
	case map[string]any:
		return mapLeaves(twiglight.Tree(t), fn)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = mapValue(item, fn)
		}
		return out
	case []string:
		out := make([]string, len(t))
		for i, item := range t {
			out[i] = fn(item)
		}
		return out
	default:
		return fn(twiglight.Stringify(v))
	}
}

// Package values builds twiglight value trees from files and command-line
// assignments, and applies the optional pre-render transformations
// (HTML sanitizing, Unicode normalisation) that the engine itself never
// performs.
package values

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	twerrors "github.com/conneroisu/twiglight/internal/errors"
	"github.com/conneroisu/twiglight/pkg/twiglight"
)

// LoadFile decodes a YAML or JSON document into a tree. JSON is accepted
// because it is valid YAML. The top level must be a mapping; an empty file
// yields an empty tree.
func LoadFile(path string) (twiglight.Tree, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, twerrors.ErrFileNotFound(path, err)
		}
		return nil, twerrors.NewIOError(twerrors.ErrCodeInvalidPath, "reading values file", err).WithFile(path, 0)
	}

	tree, err := Decode(bytes.NewReader(data))
	if err != nil {
		var te *twerrors.TwigError
		if errors.As(err, &te) {
			return nil, te.WithFile(path, te.Line)
		}
		return nil, err
	}
	return tree, nil
}

// LoadFiles loads every path in order and deep-merges them, later files
// overriding earlier ones.
func LoadFiles(paths []string) (twiglight.Tree, error) {
	tree := twiglight.Tree{}
	for _, path := range paths {
		loaded, err := LoadFile(path)
		if err != nil {
			return nil, err
		}
		Merge(tree, loaded)
	}
	return tree, nil
}

// Decode reads a single YAML or JSON document from r.
func Decode(r io.Reader) (twiglight.Tree, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return twiglight.Tree{}, nil
		}
		return nil, twerrors.NewValidationError(twerrors.ErrCodeDecodeFailed, "decoding values").
			WithContext("cause", err.Error())
	}

	root := &doc
	if root.Kind == yaml.DocumentNode && len(root.Content) > 0 {
		root = root.Content[0]
	}
	if root.Kind == yaml.ScalarNode && root.Tag == "!!null" {
		return twiglight.Tree{}, nil
	}
	if root.Kind != yaml.MappingNode {
		return nil, twerrors.NewValidationError(twerrors.ErrCodeDecodeFailed, "values must be a mapping at the top level").
			WithFile("", root.Line)
	}

	var raw map[string]any
	if err := root.Decode(&raw); err != nil {
		return nil, twerrors.NewValidationError(twerrors.ErrCodeDecodeFailed, "decoding values").
			WithFile("", root.Line).
			WithContext("cause", err.Error())
	}
	return normalizeKeys(raw), nil
}

// normalizeKeys converts nested maps into Trees so later merges see a
// single branch type. yaml.v3 already decodes mappings as map[string]any.
func normalizeKeys(m map[string]any) twiglight.Tree {
	out := make(twiglight.Tree, len(m))
	for k, v := range m {
		out[k] = normalizeValue(v)
	}
	return out
}

func normalizeValue(v any) any {
	switch t := v.(type) {
	case map[string]any:
		return normalizeKeys(t)
	case map[any]any:
		m := make(map[string]any, len(t))
		for k, val := range t {
			m[fmt.Sprint(k)] = val
		}
		return normalizeKeys(m)
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = normalizeValue(item)
		}
		return out
	default:
		return v
	}
}

// Merge deep-merges src into dst. Branches present on both sides are
// merged. A branch whose names are all indices of a list in dst updates
// those list items, so "items.1=x" keeps the rest of items. Any other
// value in src replaces the one in dst.
func Merge(dst, src twiglight.Tree) {
	for k, v := range src {
		srcBranch, srcOK := v.(twiglight.Tree)
		if srcOK {
			switch existing := dst[k].(type) {
			case twiglight.Tree:
				Merge(existing, srcBranch)
				continue
			case []any:
				if list, ok := mergeList(existing, srcBranch); ok {
					dst[k] = list
					continue
				}
			}
		}
		dst[k] = v
	}
}

// mergeList returns a copy of list with the items named by src replaced or
// merged. It reports false when a name of src is not an index of list.
func mergeList(list []any, src twiglight.Tree) ([]any, bool) {
	indices := make(map[int]any, len(src))
	for name, v := range src {
		i, err := strconv.Atoi(name)
		if err != nil || i < 0 || i >= len(list) || strconv.Itoa(i) != name {
			return nil, false
		}
		indices[i] = v
	}

	out := make([]any, len(list))
	copy(out, list)
	for i, v := range indices {
		srcBranch, srcOK := v.(twiglight.Tree)
		switch existing := out[i].(type) {
		case twiglight.Tree:
			if srcOK {
				merged := twiglight.Tree{}
				Merge(merged, existing)
				Merge(merged, srcBranch)
				out[i] = merged
				continue
			}
		case []any:
			if srcOK {
				if nested, ok := mergeList(existing, srcBranch); ok {
					out[i] = nested
					continue
				}
			}
		}
		out[i] = v
	}
	return out, true
}

// ParseSet parses a "dotted.path=value" assignment into a single-path tree.
// The value is kept as text.
func ParseSet(assignment string) (twiglight.Tree, error) {
	path, value, ok := strings.Cut(assignment, "=")
	if !ok {
		return nil, twerrors.NewValidationError(twerrors.ErrCodeInvalidValue,
			fmt.Sprintf("assignment %q must have the form path=value", assignment))
	}

	names := strings.Split(path, twiglight.PathSeparator)
	for _, name := range names {
		if name == "" || strings.ContainsAny(name, "{}") {
			return nil, twerrors.NewValidationError(twerrors.ErrCodeInvalidValue,
				fmt.Sprintf("assignment %q has an invalid path", assignment))
		}
	}

	var node any = value
	for i := len(names) - 1; i >= 0; i-- {
		node = twiglight.Tree{names[i]: node}
	}
	return node.(twiglight.Tree), nil
}

// ApplySets merges every assignment into tree, in order.
func ApplySets(tree twiglight.Tree, assignments []string) error {
	for _, assignment := range assignments {
		set, err := ParseSet(assignment)
		if err != nil {
			return err
		}
		Merge(tree, set)
	}
	return nil
}

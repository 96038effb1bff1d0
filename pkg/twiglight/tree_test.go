package twiglight

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type currency struct{ cents int }

func (c currency) String() string { return fmt.Sprintf("%d.%02d EUR", c.cents/100, c.cents%100) }

type named map[string]int

func TestFlatten(t *testing.T) {
	tests := []struct {
		name string
		tree Tree
		want FlatTokenMap
	}{
		{
			name: "empty tree",
			tree: Tree{},
			want: FlatTokenMap{},
		},
		{
			name: "nil tree",
			tree: nil,
			want: FlatTokenMap{},
		},
		{
			name: "flat leaves",
			tree: Tree{"name": "Anna", "age": 30, "admin": true},
			want: FlatTokenMap{"name": "Anna", "age": "30", "admin": "true"},
		},
		{
			name: "nested branch",
			tree: Tree{"a": Tree{"b": "x"}},
			want: FlatTokenMap{"a.b": "x"},
		},
		{
			name: "deep mixed map types",
			tree: Tree{
				"contact": map[string]any{
					"name":    "Anna Ponçon",
					"address": map[string]string{"city": "Lyon"},
					"scores":  named{"math": 18},
				},
			},
			want: FlatTokenMap{
				"contact.name":         "Anna Ponçon",
				"contact.address.city": "Lyon",
				"contact.scores.math":  "18",
			},
		},
		{
			name: "empty branches contribute nothing",
			tree: Tree{"a": Tree{}, "b": map[string]any{"c": Tree{}}, "d": "kept"},
			want: FlatTokenMap{"d": "kept"},
		},
		{
			name: "lists use indexes",
			tree: Tree{
				"items": []any{"first", Tree{"label": "second"}},
				"tags":  []string{"x", "y"},
				"ids":   [2]int{7, 9},
			},
			want: FlatTokenMap{
				"items.0":       "first",
				"items.1.label": "second",
				"tags.0":        "x",
				"tags.1":        "y",
				"ids.0":         "7",
				"ids.1":         "9",
			},
		},
		{
			name: "byte slices are text",
			tree: Tree{"raw": []byte("bytes")},
			want: FlatTokenMap{"raw": "bytes"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Flatten(tt.tree)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Flatten() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestFlatten_CollisionLastWriteWins(t *testing.T) {
	// "a.b" as a literal name collides with the nested path a -> b. Names
	// are visited in sorted order, so the nested "a" branch is written
	// first and the literal "a.b" leaf overwrites it.
	tree := Tree{
		"a.b": "literal",
		"a":   Tree{"b": "nested"},
	}

	for range 20 {
		got, err := Flatten(tree)
		require.NoError(t, err)
		assert.Equal(t, FlatTokenMap{"a.b": "literal"}, got)
	}
}

func TestFlatten_DepthLimit(t *testing.T) {
	deep := func(levels int) Tree {
		root := Tree{"leaf": "bottom"}
		for range levels - 1 {
			root = Tree{"n": root}
		}
		return root
	}

	t.Run("within limit", func(t *testing.T) {
		got, err := FlattenWithLimit(deep(4), 4)
		require.NoError(t, err)
		assert.Equal(t, FlatTokenMap{"n.n.n.leaf": "bottom"}, got)
	})

	t.Run("beyond limit", func(t *testing.T) {
		_, err := FlattenWithLimit(deep(5), 4)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrDepthExceeded))
	})

	t.Run("lists count as a level", func(t *testing.T) {
		_, err := FlattenWithLimit(Tree{"l": []any{"x"}}, 1)
		assert.ErrorIs(t, err, ErrDepthExceeded)

		got, err := FlattenWithLimit(Tree{"l": []any{"x"}}, 2)
		require.NoError(t, err)
		assert.Equal(t, FlatTokenMap{"l.0": "x"}, got)
	})

	t.Run("unlimited", func(t *testing.T) {
		got, err := FlattenWithLimit(deep(DefaultMaxDepth*2), 0)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("default limit", func(t *testing.T) {
		_, err := Flatten(deep(DefaultMaxDepth + 1))
		assert.ErrorIs(t, err, ErrDepthExceeded)
	})
}

func TestStringify(t *testing.T) {
	var nilCurrency *nilStringer

	tests := []struct {
		name  string
		value any
		want  string
	}{
		{"string", "text", "text"},
		{"nil", nil, ""},
		{"int", 30, "30"},
		{"negative int64", int64(-12), "-12"},
		{"uint8", uint8(255), "255"},
		{"float", 3.5, "3.5"},
		{"float no exponent", 1e6, "1000000"},
		{"float32", float32(0.25), "0.25"},
		{"bool", false, "false"},
		{"stringer", currency{cents: 1999}, "19.99 EUR"},
		{"nil pointer stringer", nilCurrency, ""},
		{"error", errors.New("boom"), "boom"},
		{"duration", 1500 * time.Millisecond, "1.5s"},
		{"fallback", struct{ A int }{A: 1}, "{1}"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Stringify(tt.value))
		})
	}
}

type nilStringer struct{ label string }

func (n *nilStringer) String() string { return n.label }

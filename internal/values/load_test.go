package values

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	twerrors "github.com/conneroisu/twiglight/internal/errors"
	"github.com/conneroisu/twiglight/pkg/twiglight"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoadFile(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
		want    twiglight.Tree
	}{
		{
			name: "yaml",
			file: "values.yml",
			content: `
contact:
  name: Anna Ponçon
  age: 30
  tags: [a, b]
`,
			want: twiglight.Tree{
				"contact": twiglight.Tree{
					"name": "Anna Ponçon",
					"age":  30,
					"tags": []any{"a", "b"},
				},
			},
		},
		{
			name:    "json",
			file:    "values.json",
			content: `{"contact": {"name": "Anna", "vip": true, "score": 1.5}}`,
			want: twiglight.Tree{
				"contact": twiglight.Tree{"name": "Anna", "vip": true, "score": 1.5},
			},
		},
		{
			name:    "empty file",
			file:    "empty.yml",
			content: "",
			want:    twiglight.Tree{},
		},
		{
			name:    "null document",
			file:    "null.yml",
			content: "~\n",
			want:    twiglight.Tree{},
		},
		{
			name:    "list of maps",
			file:    "items.yml",
			content: "items:\n  - label: first\n  - label: second\n",
			want: twiglight.Tree{
				"items": []any{
					twiglight.Tree{"label": "first"},
					twiglight.Tree{"label": "second"},
				},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeFile(t, tt.file, tt.content)
			got, err := LoadFile(path)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("LoadFile() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestLoadFile_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(t.TempDir(), "nope.yml"))
		require.Error(t, err)
		assert.True(t, twerrors.IsType(err, twerrors.ErrorTypeIO))
	})

	t.Run("top level list", func(t *testing.T) {
		path := writeFile(t, "list.yml", "- a\n- b\n")
		_, err := LoadFile(path)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "mapping")
		assert.Contains(t, err.Error(), path)
	})

	t.Run("malformed yaml", func(t *testing.T) {
		path := writeFile(t, "bad.yml", "a: [unclosed\n")
		_, err := LoadFile(path)
		require.Error(t, err)
		assert.True(t, twerrors.IsType(err, twerrors.ErrorTypeValidation))
	})
}

func TestLoadFiles_MergesInOrder(t *testing.T) {
	base := writeFile(t, "base.yml", "contact:\n  name: Anna\n  city: Lyon\nlang: fr\n")
	override := writeFile(t, "override.json", `{"contact": {"city": "Paris"}, "lang": "en"}`)

	got, err := LoadFiles([]string{base, override})
	require.NoError(t, err)

	want := twiglight.Tree{
		"contact": twiglight.Tree{"name": "Anna", "city": "Paris"},
		"lang":    "en",
	}
	assert.Equal(t, want, got)
}

func TestDecode_Reader(t *testing.T) {
	got, err := Decode(strings.NewReader("a:\n  b: x\n"))
	require.NoError(t, err)

	rendered, err := twiglight.QuickRender("{{a.b}}", got)
	require.NoError(t, err)
	assert.Equal(t, "x", rendered)
}

func TestMerge(t *testing.T) {
	dst := twiglight.Tree{
		"a": twiglight.Tree{"x": 1, "y": 2},
		"b": "scalar",
		"c": twiglight.Tree{"z": 3},
	}
	src := twiglight.Tree{
		"a": twiglight.Tree{"y": 20, "w": 40},
		"b": twiglight.Tree{"now": "branch"},
		"c": "now scalar",
		"d": "new",
	}

	Merge(dst, src)

	assert.Equal(t, twiglight.Tree{
		"a": twiglight.Tree{"x": 1, "y": 20, "w": 40},
		"b": twiglight.Tree{"now": "branch"},
		"c": "now scalar",
		"d": "new",
	}, dst)
}

func TestParseSet(t *testing.T) {
	tests := []struct {
		input   string
		want    twiglight.Tree
		wantErr bool
	}{
		{"name=Anna", twiglight.Tree{"name": "Anna"}, false},
		{"contact.name=Anna Ponçon", twiglight.Tree{"contact": twiglight.Tree{"name": "Anna Ponçon"}}, false},
		{"eq=a=b", twiglight.Tree{"eq": "a=b"}, false},
		{"empty=", twiglight.Tree{"empty": ""}, false},
		{"novalue", nil, true},
		{"a..b=x", nil, true},
		{".a=x", nil, true},
		{"{{a}}=x", nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseSet(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestApplySets(t *testing.T) {
	tree := twiglight.Tree{"contact": twiglight.Tree{"name": "Anna", "age": 30}}

	require.NoError(t, ApplySets(tree, []string{"contact.age=31", "contact.city=Lyon"}))
	assert.Equal(t, twiglight.Tree{
		"contact": twiglight.Tree{"name": "Anna", "age": "31", "city": "Lyon"},
	}, tree)

	assert.Error(t, ApplySets(tree, []string{"broken"}))
}

func TestApplySets_ListIndices(t *testing.T) {
	path := writeFile(t, "values.yml", `items:
  - first
  - second
  - third
people:
  - name: Ada
    role: admin
`)
	tree, err := LoadFile(path)
	require.NoError(t, err)

	require.NoError(t, ApplySets(tree, []string{"items.0=x", "people.0.name=Grace"}))

	flat, err := twiglight.Flatten(tree)
	require.NoError(t, err)
	want := twiglight.FlatTokenMap{
		"items.0":       "x",
		"items.1":       "second",
		"items.2":       "third",
		"people.0.name": "Grace",
		"people.0.role": "admin",
	}
	if diff := cmp.Diff(want, flat); diff != "" {
		t.Errorf("flattened values mismatch (-want +got):\n%s", diff)
	}
}

func TestApplySets_ListReplacedWhenNotAnIndex(t *testing.T) {
	tests := []struct {
		name string
		set  string
		want twiglight.Tree
	}{
		{"out of range", "items.5=x", twiglight.Tree{"items": twiglight.Tree{"5": "x"}}},
		{"not a number", "items.first=x", twiglight.Tree{"items": twiglight.Tree{"first": "x"}}},
		{"leading zero", "items.01=x", twiglight.Tree{"items": twiglight.Tree{"01": "x"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree := twiglight.Tree{"items": []any{"a", "b"}}
			require.NoError(t, ApplySets(tree, []string{tt.set}))
			assert.Equal(t, tt.want, tree)
		})
	}
}

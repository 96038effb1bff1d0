package twiglight

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strconv"
)

// PathSeparator joins branch names into a dotted path.
const PathSeparator = "."

// DefaultMaxDepth bounds how deeply Flatten descends into nested branches.
const DefaultMaxDepth = 256

// ErrDepthExceeded is returned when a value tree nests deeper than the
// configured limit.
var ErrDepthExceeded = errors.New("twiglight: value tree exceeds maximum depth")

// Tree is a branch of named values. Values are leaves or further branches.
type Tree map[string]any

// FlatTokenMap maps fully qualified dotted paths to leaf text.
type FlatTokenMap map[string]string

// Flatten walks tree and returns the text of every reachable leaf keyed by
// its dotted path, using DefaultMaxDepth.
func Flatten(tree Tree) (FlatTokenMap, error) {
	return FlattenWithLimit(tree, DefaultMaxDepth)
}

// FlattenWithLimit is Flatten with an explicit depth limit. A limit of zero
// or less disables the check.
func FlattenWithLimit(tree Tree, maxDepth int) (FlatTokenMap, error) {
	f := flattener{
		out:      make(FlatTokenMap, len(tree)),
		maxDepth: maxDepth,
	}
	if err := f.branch(map[string]any(tree), "", 1); err != nil {
		return nil, err
	}
	return f.out, nil
}

type flattener struct {
	out      FlatTokenMap
	maxDepth int
}

func (f *flattener) branch(values map[string]any, prefix string, depth int) error {
	if f.maxDepth > 0 && depth > f.maxDepth {
		return fmt.Errorf("%w (%d) at %q", ErrDepthExceeded, f.maxDepth, prefix)
	}

	names := make([]string, 0, len(values))
	for name := range values {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		if err := f.value(values[name], prefix+name, depth); err != nil {
			return err
		}
	}
	return nil
}

func (f *flattener) value(v any, path string, depth int) error {
	switch t := v.(type) {
	case Tree:
		return f.branch(map[string]any(t), path+PathSeparator, depth+1)
	case map[string]any:
		return f.branch(t, path+PathSeparator, depth+1)
	case map[string]string:
		child := make(map[string]any, len(t))
		for k, s := range t {
			child[k] = s
		}
		return f.branch(child, path+PathSeparator, depth+1)
	case []any:
		return f.list(len(t), func(i int) any { return t[i] }, path, depth)
	case []string:
		return f.list(len(t), func(i int) any { return t[i] }, path, depth)
	}

	if child, ok := asBranch(v); ok {
		return f.branch(child, path+PathSeparator, depth+1)
	}
	if rv := reflect.ValueOf(v); rv.IsValid() && isList(rv) {
		return f.list(rv.Len(), func(i int) any { return rv.Index(i).Interface() }, path, depth)
	}

	f.out[path] = Stringify(v)
	return nil
}

func (f *flattener) list(n int, at func(int) any, path string, depth int) error {
	if f.maxDepth > 0 && depth+1 > f.maxDepth {
		return fmt.Errorf("%w (%d) at %q", ErrDepthExceeded, f.maxDepth, path+PathSeparator)
	}
	prefix := path + PathSeparator
	for i := 0; i < n; i++ {
		if err := f.value(at(i), prefix+strconv.Itoa(i), depth+1); err != nil {
			return err
		}
	}
	return nil
}

// asBranch converts other string-keyed maps (map[string]int, named map
// types, ...) into a generic branch.
func asBranch(v any) (map[string]any, bool) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() || rv.Kind() != reflect.Map || rv.Type().Key().Kind() != reflect.String {
		return nil, false
	}
	out := make(map[string]any, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		out[iter.Key().String()] = iter.Value().Interface()
	}
	return out, true
}

func isList(rv reflect.Value) bool {
	switch rv.Kind() {
	case reflect.Slice:
		// []byte is text, not a list of numbers.
		return rv.Type().Elem().Kind() != reflect.Uint8
	case reflect.Array:
		return true
	}
	return false
}

// Stringify returns the text form of a leaf value.
func Stringify(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case []byte:
		return string(t)
	case fmt.Stringer:
		if isNilPointer(v) {
			return ""
		}
		return t.String()
	case error:
		if isNilPointer(v) {
			return ""
		}
		return t.Error()
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int8:
		return strconv.FormatInt(int64(t), 10)
	case int16:
		return strconv.FormatInt(int64(t), 10)
	case int32:
		return strconv.FormatInt(int64(t), 10)
	case int64:
		return strconv.FormatInt(t, 10)
	case uint:
		return strconv.FormatUint(uint64(t), 10)
	case uint8:
		return strconv.FormatUint(uint64(t), 10)
	case uint16:
		return strconv.FormatUint(uint64(t), 10)
	case uint32:
		return strconv.FormatUint(uint64(t), 10)
	case uint64:
		return strconv.FormatUint(t, 10)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(v)
	}
}

func isNilPointer(v any) bool {
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.Pointer && rv.IsNil()
}

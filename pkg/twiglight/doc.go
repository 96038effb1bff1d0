// Package twiglight is a minimal, logic-less template engine.
//
// A template is plain text containing placeholders of the exact form
// {{dotted.path}}. Rendering flattens a nested value tree into a map from
// dotted paths to text and replaces every placeholder whose path is known
// in a single left-to-right pass. Nothing else happens: there are no
// conditionals, loops, filters or expressions, and values are never
// escaped. Placeholders that cannot be resolved, and anything that only
// looks like a placeholder, are copied to the output untouched.
//
// # Basic Usage
//
//	out, err := twiglight.QuickRender(
//		"Hello {{contact.name}}, you are {{contact.age}}.",
//		twiglight.Tree{"contact": twiglight.Tree{"name": "Anna", "age": 30}},
//	)
//	// out == "Hello Anna, you are 30."
//
// # Value Trees
//
// Maps keyed by strings and slices are branches; every other value is a
// leaf and is converted to text (strings as is, numbers in decimal,
// booleans as true/false, nil as the empty string). Slice elements are
// addressed by index, e.g. {{items.0}}. Branch names must not contain the
// path separator or the placeholder delimiters; when two paths still
// collide, the one visited last wins. Names are visited in sorted order.
//
// # Caching
//
// A Renderer accepts a cache timeout, key and force-update flag. They have
// no effect unless a Cache is supplied with WithCache, in which case
// rendered output is memoised per key for the timeout. See NewMemoryCache
// and NewSQLiteCache.
package twiglight

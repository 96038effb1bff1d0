package twiglight

import "strings"

// Placeholder delimiters. There is no whitespace tolerance and no escape
// sequence for literal delimiters.
const (
	OpenDelim  = "{{"
	CloseDelim = "}}"
)

// Resolution is the outcome of looking up one placeholder occurrence: either
// Resolved or Unresolved.
type Resolution interface {
	// Token returns the placeholder as written in the template.
	Token() string
	resolution()
}

// Resolved is a placeholder that was replaced by Text.
type Resolved struct {
	Path string
	Text string
}

// Unresolved is a well-formed placeholder with no matching value. It is
// copied to the output unchanged.
type Unresolved struct {
	Path string
}

func (r Resolved) Token() string   { return Placeholder(r.Path) }
func (u Unresolved) Token() string { return Placeholder(u.Path) }

func (Resolved) resolution()   {}
func (Unresolved) resolution() {}

// Placeholder returns the template token for path.
func Placeholder(path string) string {
	return OpenDelim + path + CloseDelim
}

// wellFormed reports whether path can appear between the delimiters of a
// placeholder that is worth reporting.
func wellFormed(path string) bool {
	return path != "" && !strings.ContainsAny(path, "{}")
}

// scanner walks placeholder candidates left to right. The position of the
// next closing delimiter only ever moves forward, which keeps a full scan
// linear in the template length.
type scanner struct {
	src   string
	pos   int
	close int
	done  bool
}

func newScanner(src string) *scanner {
	return &scanner{src: src, close: -1}
}

// next returns the bounds of the next candidate at or after s.pos: start is
// the index of the opening delimiter, end is one past the closing one.
func (s *scanner) next() (start, end int, ok bool) {
	if s.done {
		return 0, 0, false
	}
	i := strings.Index(s.src[s.pos:], OpenDelim)
	if i < 0 {
		s.done = true
		return 0, 0, false
	}
	start = s.pos + i
	inner := start + len(OpenDelim)
	if s.close < inner {
		j := strings.Index(s.src[inner:], CloseDelim)
		if j < 0 {
			s.done = true
			return 0, 0, false
		}
		s.close = inner + j
	}
	return start, s.close + len(CloseDelim), true
}

func (s *scanner) path(start, end int) string {
	return s.src[start+len(OpenDelim) : end-len(CloseDelim)]
}

// substitute replaces every placeholder whose path is in values. Replacement
// text is written once and never scanned again.
func substitute(template string, values FlatTokenMap) string {
	if len(values) == 0 {
		return template
	}

	var b strings.Builder
	b.Grow(len(template))

	s := newScanner(template)
	last := 0
	for {
		start, end, ok := s.next()
		if !ok {
			break
		}
		path := s.path(start, end)
		if text, found := values[path]; found {
			b.WriteString(template[last:start])
			b.WriteString(text)
			last = end
			s.pos = end
			continue
		}
		if wellFormed(path) {
			s.pos = end
		} else {
			s.pos = start + 1
		}
	}
	if last == 0 {
		return template
	}
	b.WriteString(template[last:])
	return b.String()
}

// resolve reports every placeholder occurrence in template order. Candidates
// that are neither resolvable nor well-formed are skipped, as substitute
// leaves them as literal text.
func resolve(template string, values FlatTokenMap) []Resolution {
	var out []Resolution
	s := newScanner(template)
	for {
		start, end, ok := s.next()
		if !ok {
			return out
		}
		path := s.path(start, end)
		if text, found := values[path]; found {
			out = append(out, Resolved{Path: path, Text: text})
			s.pos = end
			continue
		}
		if wellFormed(path) {
			out = append(out, Unresolved{Path: path})
			s.pos = end
			continue
		}
		s.pos = start + 1
	}
}

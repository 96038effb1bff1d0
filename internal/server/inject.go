package server

import (
	"errors"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ReloadScript connects to /ws and reloads the page on a reload message.
const ReloadScript = `<script>
(function () {
  var proto = location.protocol === "https:" ? "wss:" : "ws:";
  var ws = new WebSocket(proto + "//" + location.host + "/ws");
  ws.onmessage = function (event) {
    var msg = JSON.parse(event.data);
    if (msg.type === "reload") {
      location.reload();
    }
  };
  ws.onclose = function () {
    setTimeout(function () { location.reload(); }, 1000);
  };
})();
</script>
`

// InjectReloadScript inserts ReloadScript before the last closing body tag
// of page, or appends it when page has none. The rest of page is left
// byte for byte intact.
func InjectReloadScript(page string) string {
	at := closingBodyOffset(page)
	if at < 0 {
		return page + ReloadScript
	}
	var b strings.Builder
	b.Grow(len(page) + len(ReloadScript))
	b.WriteString(page[:at])
	b.WriteString(ReloadScript)
	b.WriteString(page[at:])
	return b.String()
}

// closingBodyOffset returns the byte offset of the last </body> end tag,
// or -1. Tags inside comments, scripts and attribute values are skipped by
// the tokenizer.
func closingBodyOffset(page string) int {
	z := html.NewTokenizer(strings.NewReader(page))
	offset, found := 0, -1
	for {
		tt := z.Next()
		raw := len(z.Raw())
		if tt == html.ErrorToken {
			if !errors.Is(z.Err(), io.EOF) {
				return -1
			}
			return found
		}
		if tt == html.EndTagToken {
			name, _ := z.TagName()
			if atom.Lookup(name) == atom.Body {
				found = offset
			}
		}
		offset += raw
	}
}

func errorPage(err error) string {
	return "<!DOCTYPE html>\n<html>\n<head><title>Render error</title></head>\n<body>\n" +
		"<h1>Render error</h1>\n<pre>" + html.EscapeString(err.Error()) + "</pre>\n</body>\n</html>\n"
}

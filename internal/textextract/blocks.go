package textextract

import (
	"strings"
)

// Block is one lettered option block. Letter is what the text claimed,
// upper-cased; callers that need positional lettering reassign it.
type Block struct {
	Letter string
	Body   string
}

// SplitBlocks splits text into blocks opened by "<marker> <LETTER>:" lines.
// At least one space or tab separates the marker from the letter, so
// headings such as "Refined Options" never open a block.
// The marker is matched case-insensitively and may carry markdown heading
// or emphasis decoration. Any letter A-Z opens a block so that a response
// with too many options is still counted as such. Text before the first
// marker is discarded.
func SplitBlocks(text, marker string) []Block {
	var (
		out  []Block
		cur  *Block
		body []Line
	)
	flush := func() {
		if cur == nil {
			return
		}
		lines := trimBlankEdges(body)
		if cur.Body != "" {
			lines = append([]Line{{Raw: cur.Body, Text: clean(cur.Body)}}, lines...)
		}
		cur.Body = joinRaw(lines)
		out = append(out, *cur)
		cur, body = nil, nil
	}
	for _, l := range Lines(text) {
		if letter, rest, ok := matchMarker(l.Text, marker); ok {
			flush()
			cur = &Block{Letter: letter, Body: rest}
			continue
		}
		if cur != nil {
			body = append(body, l)
		}
	}
	flush()
	return out
}

func matchMarker(text, marker string) (letter, rest string, ok bool) {
	text = strings.TrimSpace(strings.TrimLeft(text, "#"))
	if len(text) <= len(marker) || !strings.EqualFold(text[:len(marker)], marker) {
		return "", "", false
	}
	if c := text[len(marker)]; c != ' ' && c != '\t' {
		return "", "", false
	}
	r := strings.TrimLeft(text[len(marker):], " \t")
	if r == "" || !isASCIILetter(r[0]) {
		return "", "", false
	}
	letter, r = strings.ToUpper(r[:1]), strings.TrimSpace(r[1:])
	switch {
	case r == "":
		return letter, "", true
	case r[0] == ':':
		return letter, strings.TrimSpace(r[1:]), true
	}
	return "", "", false
}

func isASCIILetter(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z')
}

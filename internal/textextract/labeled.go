package textextract

import "strings"

// ExtractLabeled collects "<prefix><name>: value" entries. A value may
// span several lines and ends at the next line starting with prefix or at
// the end of the text. Names are word characters. A later entry with the
// same name replaces an earlier one. Values are trimmed and may be empty.
func ExtractLabeled(text, prefix string) map[string]string {
	out := map[string]string{}
	var (
		name  string
		first string
		body  []Line
		open  bool
	)
	flush := func() {
		if !open {
			return
		}
		v := first
		if rest := trimBlankEdges(body); len(rest) > 0 {
			if v != "" {
				v += "\n"
			}
			v += joinRaw(rest)
		}
		out[name] = strings.TrimSpace(v)
		name, first, body, open = "", "", nil, false
	}
	for _, l := range Lines(text) {
		if n, rest, ok := matchPrefixed(l.Text, prefix); ok {
			flush()
			name, first, open = n, rest, true
			continue
		}
		if open {
			body = append(body, l)
		}
	}
	flush()
	return out
}

func matchPrefixed(text, prefix string) (name, rest string, ok bool) {
	if !strings.HasPrefix(text, prefix) {
		return "", "", false
	}
	r := text[len(prefix):]
	i := 0
	for i < len(r) && isWordByte(r[i]) {
		i++
	}
	if i == 0 {
		return "", "", false
	}
	name = r[:i]
	r = strings.TrimLeft(r[i:], " \t")
	if !strings.HasPrefix(r, ":") {
		return "", "", false
	}
	return name, strings.TrimSpace(r[1:]), true
}

func isWordByte(b byte) bool {
	return b == '_' || isASCIILetter(b) || (b >= '0' && b <= '9')
}

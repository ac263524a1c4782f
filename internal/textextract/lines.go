// Package textextract turns free-form model output into named fields,
// lettered option blocks, list entries, and headed sections.
//
// Every function here is pure and lenient: malformed or partial input
// yields a partial result, never an error. Deciding whether a result is
// good enough belongs to the caller.
package textextract

import (
	"strings"
	"unicode"
)

// Line is one token of the input. Raw keeps the original text (minus the
// line terminator); Text is the trimmed form with list and emphasis
// decoration removed, which is what label matching runs against.
type Line struct {
	No   int
	Raw  string
	Text string
}

// Blank reports whether the line carries no text.
func (l Line) Blank() bool { return l.Text == "" }

// Lines tokenizes text into lines. CRLF and lone CR terminators are
// normalised to LF first.
func Lines(text string) []Line {
	text = normalizeNewlines(text)
	if text == "" {
		return nil
	}
	parts := strings.Split(text, "\n")
	out := make([]Line, 0, len(parts))
	for i, p := range parts {
		out = append(out, Line{No: i + 1, Raw: p, Text: clean(p)})
	}
	return out
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\r", "\n")
}

// clean trims a line and strips bullet and bold decoration so that
// "- **Title:** X" and "Title: X" tokenize the same way. Heading markers
// are left alone; sections depend on them.
func clean(s string) string {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, "**", "")
	s = strings.ReplaceAll(s, "__", "")
	s = stripBullet(s)
	return strings.TrimSpace(s)
}

func stripBullet(s string) string {
	for _, p := range []string{"- ", "* ", "• ", "> ", "+ "} {
		if strings.HasPrefix(s, p) {
			return strings.TrimSpace(s[len(p):])
		}
	}
	return s
}

// stripOrdinal removes a leading "1." or "1)" list number.
func stripOrdinal(s string) string {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 || i >= len(s) || (s[i] != '.' && s[i] != ')') {
		return s
	}
	rest := s[i+1:]
	if rest == "" || !unicode.IsSpace(rune(rest[0])) {
		return s
	}
	return strings.TrimSpace(rest)
}

// hasLabel reports whether text starts with label (ASCII case-insensitive)
// followed by optional spaces and a colon. It returns the text after the
// colon, trimmed.
func hasLabel(text, label string) (string, bool) {
	if len(text) < len(label) || !strings.EqualFold(text[:len(label)], label) {
		return "", false
	}
	rest := strings.TrimLeft(text[len(label):], " \t")
	if !strings.HasPrefix(rest, ":") {
		return "", false
	}
	return strings.TrimSpace(rest[1:]), true
}

func joinRaw(lines []Line) string {
	raw := make([]string, len(lines))
	for i, l := range lines {
		raw[i] = l.Raw
	}
	return strings.Join(raw, "\n")
}

// SplitList splits a list body on newlines, trims each entry, strips
// bullet and ordinal prefixes, drops blank entries, and keeps at most max
// entries. A max of zero or less keeps everything.
func SplitList(body string, max int) []string {
	var out []string
	for _, l := range Lines(body) {
		item := stripOrdinal(l.Text)
		if item == "" {
			continue
		}
		out = append(out, item)
		if max > 0 && len(out) == max {
			break
		}
	}
	return out
}

// CountNonEmpty counts the non-blank lines of body without any cap.
func CountNonEmpty(body string) int {
	n := 0
	for _, l := range Lines(body) {
		if !l.Blank() {
			n++
		}
	}
	return n
}

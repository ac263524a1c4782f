package textextract

import (
	"strings"
)

// Header labels recognised at the top of a generated document.
const (
	LabelTitle       = "TITLE"
	LabelSummary     = "SUMMARY"
	LabelReadingTime = "READING_TIME"
	LabelFormat      = "FORMAT"
)

var headerLabels = []string{LabelReadingTime, LabelSummary, LabelTitle, LabelFormat}

// Header holds the document header values. Absent values are empty.
type Header struct {
	Title       string
	Summary     string
	ReadingTime string
	Format      string
	// BodyStart is the index into Lines(text) of the first line after the
	// last header entry, or 0 when the text has no header.
	BodyStart int
}

// Section is a heading with its body text.
type Section struct {
	Heading string
	Body    string
}

// ExtractHeader reads TITLE, READING_TIME and FORMAT as single-line values
// and SUMMARY as a paragraph that ends at a blank line or at the next
// header label. The first occurrence of each label wins.
func ExtractHeader(text string) Header {
	lines := Lines(text)
	var h Header
	seen := map[string]bool{}
	for i := 0; i < len(lines); i++ {
		label, rest, ok := matchHeader(lines[i].Text)
		if !ok {
			continue
		}
		end := i + 1
		v := rest
		if label == LabelSummary {
			v, end = summaryParagraph(lines, i+1, rest)
		} else if v == "" && end < len(lines) && !lines[end].Blank() && !isHeaderLine(lines[end].Text) {
			v, end = lines[end].Text, end+1
		}
		if end > h.BodyStart {
			h.BodyStart = end
		}
		if seen[label] {
			continue
		}
		seen[label] = true
		switch label {
		case LabelTitle:
			h.Title = v
		case LabelSummary:
			h.Summary = v
		case LabelReadingTime:
			h.ReadingTime = v
		case LabelFormat:
			h.Format = v
		}
		i = end - 1
	}
	return h
}

func summaryParagraph(lines []Line, from int, first string) (string, int) {
	parts := []string{}
	if first != "" {
		parts = append(parts, first)
	}
	i := from
	// allow the paragraph to start on the line after the label
	for first == "" && i < len(lines) && lines[i].Blank() {
		i++
	}
	for ; i < len(lines); i++ {
		l := lines[i]
		if l.Blank() || isHeaderLine(l.Text) || isHeading(l.Raw) {
			break
		}
		parts = append(parts, l.Text)
	}
	return strings.Join(parts, " "), i
}

func matchHeader(text string) (string, string, bool) {
	for _, label := range headerLabels {
		if rest, ok := hasLabel(text, label); ok {
			return label, rest, true
		}
	}
	return "", "", false
}

func isHeaderLine(text string) bool {
	_, _, ok := matchHeader(text)
	return ok
}

// headingText returns the heading of a "## " line. Deeper headings
// ("### ") do not count.
func headingText(raw string) (string, bool) {
	s := strings.TrimLeft(raw, " \t")
	if !strings.HasPrefix(s, "##") {
		return "", false
	}
	s = s[2:]
	if s == "" || (s[0] != ' ' && s[0] != '\t') {
		return "", false
	}
	return strings.TrimSpace(s), true
}

func isHeading(raw string) bool {
	_, ok := headingText(raw)
	return ok
}

// SplitSections splits text on "## " heading lines in document order.
// Text before the first heading is ignored. A section's body may be empty.
func SplitSections(text string) []Section {
	var (
		out  []Section
		cur  *Section
		body []Line
	)
	flush := func() {
		if cur == nil {
			return
		}
		cur.Body = strings.TrimSpace(joinRaw(trimBlankEdges(body)))
		out = append(out, *cur)
		cur, body = nil, nil
	}
	for _, l := range Lines(text) {
		if h, ok := headingText(l.Raw); ok {
			flush()
			cur = &Section{Heading: h}
			continue
		}
		if cur != nil {
			body = append(body, l)
		}
	}
	flush()
	return out
}

// FallbackSections is the secondary split for documents whose headings
// are not "## " lines. It looks only at the text after the header, cuts
// it at bare "##" markers and at "Section N:" lines, and takes the first
// line of each chunk as the heading and the rest as the body. Chunks
// without a body are dropped.
func FallbackSections(text string, h Header) []Section {
	lines := Lines(text)
	if h.BodyStart < len(lines) {
		lines = lines[h.BodyStart:]
	} else {
		lines = nil
	}

	var chunks [][]Line
	var cur []Line
	for _, l := range lines {
		if head, ok := fallbackMarker(l); ok {
			if len(cur) > 0 {
				chunks = append(chunks, cur)
			}
			cur = []Line{{No: l.No, Raw: head, Text: head}}
			continue
		}
		cur = append(cur, l)
	}
	if len(cur) > 0 {
		chunks = append(chunks, cur)
	}

	var out []Section
	for _, c := range chunks {
		c = trimBlankEdges(c)
		if len(c) == 0 {
			continue
		}
		heading := strings.TrimSpace(c[0].Text)
		body := strings.TrimSpace(joinRaw(trimBlankEdges(c[1:])))
		if body == "" {
			continue
		}
		out = append(out, Section{Heading: heading, Body: body})
	}
	return out
}

// fallbackMarker recognises "##Heading", "## Heading" and
// "Section 3: Heading" lines and returns the heading text.
func fallbackMarker(l Line) (string, bool) {
	s := strings.TrimSpace(l.Raw)
	if strings.HasPrefix(s, "##") && !strings.HasPrefix(s, "###") {
		return strings.TrimSpace(s[2:]), true
	}
	if isSectionLine(l.Text) {
		return l.Text, true
	}
	return "", false
}

func isSectionLine(text string) bool {
	const word = "section"
	if len(text) <= len(word) || !strings.EqualFold(text[:len(word)], word) {
		return false
	}
	r := strings.TrimLeft(text[len(word):], " \t")
	i := 0
	for i < len(r) && r[i] >= '0' && r[i] <= '9' {
		i++
	}
	if i == 0 {
		return false
	}
	r = strings.TrimLeft(r[i:], " \t")
	return strings.HasPrefix(r, ":") || strings.HasPrefix(r, ".") || strings.HasPrefix(r, "-")
}

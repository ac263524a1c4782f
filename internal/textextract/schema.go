package textextract

import (
	"sort"
	"strings"
)

// NotFound is the placeholder for optional fields the model omitted.
const NotFound = "Not found"

// Field describes one "Label: value" entry. A value runs from the colon
// to the next line that opens another field of the same schema, or to the
// end of the text.
type Field struct {
	Name  string
	Label string
	// Multiline keeps the whole value body. Otherwise only its first
	// non-blank line is kept.
	Multiline bool
	Default   string
}

// Schema is an ordered set of fields.
type Schema struct {
	Fields []Field
}

// Extract returns the fields found in text keyed by Field.Name. Fields
// that do not appear are omitted. When a label repeats, the first
// occurrence wins.
func (s Schema) Extract(text string) map[string]string {
	fields := s.byLabelLength()
	out := make(map[string]string, len(s.Fields))

	var (
		cur   *Field
		first string
		body  []Line
	)
	flush := func() {
		if cur == nil {
			return
		}
		if _, seen := out[cur.Name]; !seen {
			out[cur.Name] = value(*cur, first, body)
		}
		cur, first, body = nil, "", nil
	}

	for _, l := range Lines(text) {
		if f, rest, ok := matchField(fields, l.Text); ok {
			flush()
			cur, first = f, rest
			continue
		}
		if cur != nil {
			body = append(body, l)
		}
	}
	flush()
	return out
}

// WithDefaults returns a copy of m where every schema field that is absent
// or blank holds its Default.
func (s Schema) WithDefaults(m map[string]string) map[string]string {
	out := make(map[string]string, len(s.Fields))
	for k, v := range m {
		out[k] = v
	}
	for _, f := range s.Fields {
		if out[f.Name] == "" {
			out[f.Name] = f.Default
		}
	}
	return out
}

// byLabelLength orders fields so that longer labels are tried first;
// "Unique Value Zone" must not be claimed by a shorter "Unique Value".
func (s Schema) byLabelLength() []*Field {
	fields := make([]*Field, len(s.Fields))
	for i := range s.Fields {
		fields[i] = &s.Fields[i]
	}
	sort.SliceStable(fields, func(i, j int) bool {
		return len(fields[i].Label) > len(fields[j].Label)
	})
	return fields
}

func matchField(fields []*Field, text string) (*Field, string, bool) {
	for _, f := range fields {
		if rest, ok := hasLabel(text, f.Label); ok {
			return f, rest, true
		}
	}
	return nil, "", false
}

func value(f Field, first string, body []Line) string {
	if !f.Multiline {
		if first != "" {
			return first
		}
		for _, l := range body {
			if !l.Blank() {
				return l.Text
			}
		}
		return ""
	}
	v := first
	if rest := trimBlankEdges(body); len(rest) > 0 {
		if v != "" {
			v += "\n"
		}
		v += joinRaw(rest)
	}
	return strings.TrimSpace(v)
}

func trimBlankEdges(lines []Line) []Line {
	for len(lines) > 0 && lines[0].Blank() {
		lines = lines[1:]
	}
	for len(lines) > 0 && lines[len(lines)-1].Blank() {
		lines = lines[:len(lines)-1]
	}
	return lines
}

package erd

import (
	"fmt"
	"regexp"
	"strings"

	"schemaviz/schema"
)

var (
	entityOpenPattern = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_-]*)(?:\["([^"]*)"\])?\s*\{\s*(\})?$`)
	relationPattern   = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_-]*)\s+([|}o][|o])(--|\.\.)([|o][|{o])\s+([A-Za-z_][A-Za-z0-9_-]*)\s*:\s*(.*)$`)
	keyPattern        = regexp.MustCompile(`^(PK|FK|UK)(\s*,\s*(PK|FK|UK))*$`)
)

// ParseError reports a malformed line of diagram source.
type ParseError struct {
	Line    int
	Message string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Message)
}

// Parse reads erDiagram source back into a dataset. Entity identifiers
// become both id and name (or the quoted alias becomes the name).
// Attributes marked PK are read as required. Relationship cardinality comes
// from the label when it names one, otherwise from the symbol.
func Parse(source string) (schema.Dataset, error) {
	var ds schema.Dataset
	index := make(map[string]int)

	ensure := func(id, name string) int {
		if i, ok := index[id]; ok {
			if name != "" {
				ds.Entities[i].Name = name
			}
			return i
		}
		if name == "" {
			name = id
		}
		ds.Entities = append(ds.Entities, schema.Entity{ID: id, Name: name, Kind: "entity"})
		index[id] = len(ds.Entities) - 1
		return index[id]
	}

	header := false
	current := -1
	openedAt := 0

	for n, raw := range strings.Split(source, "\n") {
		lineNo := n + 1
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "%%") {
			continue
		}

		if !header {
			if line != "erDiagram" && !strings.HasPrefix(line, "erDiagram ") {
				return schema.Dataset{}, &ParseError{Line: lineNo, Message: "expected erDiagram header"}
			}
			header = true
			continue
		}

		if current >= 0 {
			if line == "}" {
				current = -1
				continue
			}
			attr, err := parseAttribute(line)
			if err != nil {
				return schema.Dataset{}, &ParseError{Line: lineNo, Message: err.Error()}
			}
			ds.Entities[current].Attributes = append(ds.Entities[current].Attributes, attr)
			continue
		}

		if m := entityOpenPattern.FindStringSubmatch(line); m != nil {
			i := ensure(m[1], m[2])
			if m[3] == "" {
				current = i
				openedAt = lineNo
			}
			continue
		}

		if m := relationPattern.FindStringSubmatch(line); m != nil {
			ensure(m[1], "")
			ensure(m[5], "")
			ds.Links = append(ds.Links, schema.Link{
				SourceID:    m[1],
				TargetID:    m[5],
				Cardinality: relationCardinality(m[2], m[3], m[4], unquote(m[6])),
			})
			continue
		}

		return schema.Dataset{}, &ParseError{Line: lineNo, Message: fmt.Sprintf("unrecognized statement %q", line)}
	}

	if !header {
		return schema.Dataset{}, &ParseError{Line: 1, Message: "expected erDiagram header"}
	}
	if current >= 0 {
		return schema.Dataset{}, &ParseError{Line: openedAt, Message: "entity block is never closed"}
	}
	return ds, nil
}

func parseAttribute(line string) (schema.Attribute, error) {
	// Trailing comment
	if i := strings.Index(line, `"`); i >= 0 {
		line = strings.TrimSpace(line[:i])
	}

	fields := strings.Fields(line)
	if len(fields) < 2 {
		return schema.Attribute{}, fmt.Errorf("attribute needs a type and a name: %q", line)
	}

	attr := schema.Attribute{DataType: fields[0], Name: fields[1]}
	keys := strings.Join(fields[2:], " ")
	if keys != "" {
		if !keyPattern.MatchString(keys) {
			return schema.Attribute{}, fmt.Errorf("unknown attribute key %q", keys)
		}
		attr.Required = strings.Contains(keys, "PK")
	}
	return attr, nil
}

func relationCardinality(left, line, right, label string) schema.Cardinality {
	if c := schema.ParseCardinality(label); c.Known() || strings.EqualFold(label, "associated") {
		return c
	}
	if line == ".." {
		return schema.Associated
	}

	manyLeft := strings.HasPrefix(left, "}")
	manyRight := strings.HasSuffix(right, "{")
	switch {
	case manyLeft && manyRight:
		return schema.ManyToMany
	case manyLeft:
		return schema.ManyToOne
	case manyRight:
		return schema.OneToMany
	default:
		return schema.OneToOne
	}
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		return s[1 : len(s)-1]
	}
	return s
}

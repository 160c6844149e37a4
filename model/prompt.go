package model

import (
	"fmt"
	"strings"

	"github.com/Laisky/errors/v2"
)

// DefaultPromptTemplate targets SQuAD-style records with "doc" and "question" fields.
const DefaultPromptTemplate = `Human:
<context>
{doc}
</context>

<question>
{question}
</question>

Answer the question as if you were a student taking a test.

Assistant:`

// MissingFieldError reports a dataset record without a field that the prompt template or the
// reference answer setting requires.
type MissingFieldError struct {
	Field string
	// Line is the 1-based dataset line, 0 when unknown.
	Line int
}

func (e *MissingFieldError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("dataset line %d has no field %q", e.Line, e.Field)
	}
	return fmt.Sprintf("record has no field %q", e.Field)
}

// PromptTemplate is text with {field} placeholders. "{{" and "}}" produce literal braces, and a
// format suffix such as {field:>10} or {field!r} is accepted and ignored.
type PromptTemplate string

type templatePart struct {
	literal string
	field   string
}

func (t PromptTemplate) parse() ([]templatePart, error) {
	var (
		parts []templatePart
		buf   strings.Builder
	)
	s := string(t)
	for i := 0; i < len(s); i++ {
		switch c := s[i]; c {
		case '{':
			if i+1 < len(s) && s[i+1] == '{' {
				buf.WriteByte('{')
				i++
				continue
			}
			end := strings.IndexByte(s[i+1:], '}')
			if end < 0 {
				return nil, errors.Errorf("unmatched '{' at offset %d", i)
			}
			name := s[i+1 : i+1+end]
			if cut := strings.IndexAny(name, ":!"); cut >= 0 {
				name = name[:cut]
			}
			name = strings.TrimSpace(name)
			if name == "" {
				return nil, errors.Errorf("empty placeholder at offset %d, positional fields are not supported", i)
			}
			if buf.Len() > 0 {
				parts = append(parts, templatePart{literal: buf.String()})
				buf.Reset()
			}
			parts = append(parts, templatePart{field: name})
			i += end + 1
		case '}':
			if i+1 < len(s) && s[i+1] == '}' {
				buf.WriteByte('}')
				i++
				continue
			}
			return nil, errors.Errorf("single '}' at offset %d, use '}}' for a literal brace", i)
		default:
			buf.WriteByte(c)
		}
	}
	if buf.Len() > 0 {
		parts = append(parts, templatePart{literal: buf.String()})
	}
	return parts, nil
}

// Validate reports template syntax errors.
func (t PromptTemplate) Validate() error {
	_, err := t.parse()
	return err
}

// Fields lists the referenced placeholders in order of first use.
func (t PromptTemplate) Fields() ([]string, error) {
	parts, err := t.parse()
	if err != nil {
		return nil, err
	}
	seen := map[string]bool{}
	var fields []string
	for _, p := range parts {
		if p.field != "" && !seen[p.field] {
			seen[p.field] = true
			fields = append(fields, p.field)
		}
	}
	return fields, nil
}

// Fulfil substitutes record values into the template. A referenced field missing from record
// fails with *MissingFieldError. Non-string values render the way Python's str() prints the
// decoded value, e.g. ['a', 'b'], so templates written against the notebook workflow produce the
// same prompts.
func (t PromptTemplate) Fulfil(record map[string]any) (string, error) {
	parts, err := t.parse()
	if err != nil {
		return "", errors.Wrap(err, "parse prompt template")
	}

	var out strings.Builder
	for _, p := range parts {
		if p.field == "" {
			out.WriteString(p.literal)
			continue
		}
		v, ok := record[p.field]
		if !ok {
			return "", &MissingFieldError{Field: p.field}
		}
		text, err := valueText(v)
		if err != nil {
			return "", errors.Wrapf(err, "render field %s", p.field)
		}
		out.WriteString(text)
	}
	return out.String(), nil
}

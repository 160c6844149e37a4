package model

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"strings"
	"sync"

	"github.com/Laisky/errors/v2"
	"github.com/tidwall/gjson"

	relaymodel "github.com/songquanpeng/prompt-studio/relay/model"
)

// AnswerSeparator joins alternative reference answers into one string.
const AnswerSeparator = "<OR>"

// Record is one dataset line. Keys keeps the field order of the source line.
type Record struct {
	Keys   []string
	Values map[string]any
}

// MarshalJSON writes the fields in source order.
func (r Record) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range r.Keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		vb, err := json.Marshal(r.Values[k])
		if err != nil {
			return nil, errors.Wrapf(err, "marshal field %s", k)
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// decodeRecord parses one JSON object line. Numbers keep their source text.
func decodeRecord(line []byte) (Record, error) {
	if !gjson.ValidBytes(line) {
		return Record{}, errors.New("invalid JSON")
	}
	parsed := gjson.ParseBytes(line)
	if !parsed.IsObject() {
		return Record{}, errors.New("line is not a JSON object")
	}

	dec := json.NewDecoder(bytes.NewReader(line))
	dec.UseNumber()
	values := map[string]any{}
	if err := dec.Decode(&values); err != nil {
		return Record{}, errors.Wrap(err, "decode record")
	}

	rec := Record{Values: values}
	parsed.ForEach(func(key, _ gjson.Result) bool {
		rec.Keys = append(rec.Keys, key.String())
		return true
	})
	return rec, nil
}

// eachLine calls fn for every non-blank line of r with its 1-based line number.
func eachLine(r io.Reader, fn func(lineNo int, line []byte) error) error {
	br := bufio.NewReader(r)
	for lineNo := 1; ; lineNo++ {
		line, err := br.ReadBytes('\n')
		if len(bytes.TrimSpace(line)) > 0 {
			if ferr := fn(lineNo, bytes.TrimSpace(line)); ferr != nil {
				return ferr
			}
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return errors.Wrap(err, "read dataset")
		}
	}
}

var errStopPreview = errors.New("preview row limit reached")

// Preview decodes up to nRows non-empty lines from the current position of src and then seeks
// back to that position. A malformed line fails the preview.
func Preview(src io.ReadSeeker, nRows int) ([]Record, error) {
	start, err := src.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, errors.Wrap(err, "get dataset position")
	}

	var rows []Record
	if nRows > 0 {
		err = eachLine(src, func(lineNo int, line []byte) error {
			rec, err := decodeRecord(line)
			if err != nil {
				return errors.Wrapf(err, "dataset line %d", lineNo)
			}
			rows = append(rows, rec)
			if len(rows) >= nRows {
				return errStopPreview
			}
			return nil
		})
		if err != nil && !errors.Is(err, errStopPreview) {
			_, _ = src.Seek(start, io.SeekStart)
			return nil, err
		}
	}

	if _, err := src.Seek(start, io.SeekStart); err != nil {
		return nil, errors.Wrap(err, "restore dataset position")
	}
	return rows, nil
}

// PreviewFields returns the union of field names across rows in order of first appearance.
func PreviewFields(rows []Record) []string {
	seen := map[string]bool{}
	var fields []string
	for _, r := range rows {
		for _, k := range r.Keys {
			if !seen[k] {
				seen[k] = true
				fields = append(fields, k)
			}
		}
	}
	return fields
}

// FlattenAnswers turns a reference answer value into one string. Lists are joined with
// AnswerSeparator; strings pass through unchanged.
func FlattenAnswers(v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case []any:
		parts := make([]string, 0, len(x))
		for _, item := range x {
			text, err := valueText(item)
			if err != nil {
				return "", err
			}
			parts = append(parts, text)
		}
		return strings.Join(parts, AnswerSeparator), nil
	case []string:
		return strings.Join(x, AnswerSeparator), nil
	default:
		return valueText(x)
	}
}

// Dataset is an uploaded or referenced JSON Lines file held in memory.
type Dataset struct {
	ID string
	// Source is the upload file name or the location the data was read from.
	Source string
	Fields []string

	mu             sync.RWMutex
	refAnswerField string
	data           []byte
}

// NewDataset checks that the first previewRows lines parse and records their fields.
func NewDataset(id, source string, data []byte, refAnswerField string, previewRows int) (*Dataset, []Record, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil, errors.New("dataset is empty")
	}
	rows, err := Preview(bytes.NewReader(data), previewRows)
	if err != nil {
		return nil, nil, err
	}
	return &Dataset{
		ID:             id,
		Source:         source,
		Fields:         PreviewFields(rows),
		refAnswerField: refAnswerField,
		data:           data,
	}, rows, nil
}

// Reader returns a fresh re-readable handle over the raw data.
func (d *Dataset) Reader() io.ReadSeeker {
	return bytes.NewReader(d.data)
}

func (d *Dataset) Size() int { return len(d.data) }

func (d *Dataset) RefAnswerField() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.refAnswerField
}

func (d *Dataset) SetRefAnswerField(field string) error {
	field, err := normalizeRefField(field)
	if err != nil {
		return err
	}
	d.mu.Lock()
	d.refAnswerField = field
	d.mu.Unlock()
	return nil
}

func normalizeRefField(field string) (string, error) {
	field = strings.TrimSpace(field)
	if field == "" {
		return "", errors.New("reference answer field must not be empty")
	}
	return field, nil
}

// EvalInputLine is one line of the transformed evaluation input.
type EvalInputLine struct {
	Prompt  string `json:"prompt"`
	Answers string `json:"answers"`
}

// BuildEvalInput writes one {"prompt","answers"} line per dataset record. With structured set the
// fulfilled prompt is parsed into role-tagged messages and embedded as JSON text. Any record
// failure stops the build.
func BuildEvalInput(w io.Writer, ds *Dataset, tpl PromptTemplate, structured bool) (int, error) {
	if err := tpl.Validate(); err != nil {
		return 0, errors.Wrap(err, "parse prompt template")
	}
	refField := ds.RefAnswerField()

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	n := 0
	err := eachLine(ds.Reader(), func(lineNo int, line []byte) error {
		rec, err := decodeRecord(line)
		if err != nil {
			return errors.Wrapf(err, "dataset line %d", lineNo)
		}

		prompt, err := tpl.Fulfil(rec.Values)
		if err != nil {
			var missing *MissingFieldError
			if errors.As(err, &missing) {
				missing.Line = lineNo
				return missing
			}
			return errors.Wrapf(err, "dataset line %d", lineNo)
		}
		if structured {
			msgs, err := relaymodel.ParseRoleTagged(prompt)
			if err != nil {
				return errors.Wrapf(err, "dataset line %d", lineNo)
			}
			b, err := json.Marshal(msgs)
			if err != nil {
				return errors.Wrap(err, "marshal messages")
			}
			prompt = string(b)
		}

		raw, ok := rec.Values[refField]
		if !ok {
			return &MissingFieldError{Field: refField, Line: lineNo}
		}
		answers, err := FlattenAnswers(raw)
		if err != nil {
			return errors.Wrapf(err, "dataset line %d answers", lineNo)
		}

		if err := enc.Encode(EvalInputLine{Prompt: prompt, Answers: answers}); err != nil {
			return errors.Wrap(err, "write eval input")
		}
		n++
		return nil
	})
	if err != nil {
		return n, err
	}
	return n, nil
}

package model

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/Laisky/errors/v2"
	"github.com/stretchr/testify/require"

	relaymodel "github.com/songquanpeng/prompt-studio/relay/model"
)

const sampleJSONL = `{"question":"capital of France?","doc":"France...","answers":["Paris","paris"]}
{"question":"2+2?","doc":"math","answers":"4"}

{"question":"sky colour?","doc":"optics","answers":["blue"],"extra":1}
`

func newSampleDataset(t *testing.T) *Dataset {
	t.Helper()
	ds, rows, err := NewDataset("squad", "sample.jsonl", []byte(sampleJSONL), "answers", 10)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	return ds
}

func TestPreviewRestoresPosition(t *testing.T) {
	src := strings.NewReader(sampleJSONL)
	_, err := src.Seek(0, io.SeekStart)
	require.NoError(t, err)

	rows, err := Preview(src, 2)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	require.Equal(t, []string{"question", "doc", "answers"}, rows[0].Keys)

	pos, err := src.Seek(0, io.SeekCurrent)
	require.NoError(t, err)
	require.EqualValues(t, 0, pos)

	again, err := Preview(src, 2)
	require.NoError(t, err)
	require.Equal(t, rows, again)
}

func TestPreviewMalformed(t *testing.T) {
	_, err := Preview(strings.NewReader("{\"a\":1}\nnot json\n"), 5)
	require.Error(t, err)
	require.Contains(t, err.Error(), "line 2")

	_, err = Preview(strings.NewReader("[1,2]\n"), 5)
	require.Error(t, err)
}

func TestPreviewFields(t *testing.T) {
	ds := newSampleDataset(t)
	require.Equal(t, []string{"question", "doc", "answers", "extra"}, ds.Fields)
}

func TestRecordMarshalKeepsOrder(t *testing.T) {
	rows, err := Preview(strings.NewReader(`{"z":1,"a":"x"}`), 1)
	require.NoError(t, err)
	b, err := json.Marshal(rows[0])
	require.NoError(t, err)
	require.Equal(t, `{"z":1,"a":"x"}`, string(b))
}

func TestFlattenAnswers(t *testing.T) {
	got, err := FlattenAnswers([]any{"a", "b"})
	require.NoError(t, err)
	require.Equal(t, "a<OR>b", got)

	got, err = FlattenAnswers("single")
	require.NoError(t, err)
	require.Equal(t, "single", got)

	got, err = FlattenAnswers(json.Number("42"))
	require.NoError(t, err)
	require.Equal(t, "42", got)
}

func TestBuildEvalInput(t *testing.T) {
	ds := newSampleDataset(t)

	var buf bytes.Buffer
	n, err := BuildEvalInput(&buf, ds, "Q: {question}", false)
	require.NoError(t, err)
	require.Equal(t, 3, n)

	sc := bufio.NewScanner(&buf)
	var lines []map[string]any
	for sc.Scan() {
		var m map[string]any
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m))
		lines = append(lines, m)
	}
	require.Len(t, lines, 3)
	for _, l := range lines {
		require.Len(t, l, 2)
		answers, ok := l["answers"].(string)
		require.True(t, ok)
		require.NotContains(t, answers, "[")
	}
	require.Equal(t, "Q: capital of France?", lines[0]["prompt"])
	require.Equal(t, "Paris<OR>paris", lines[0]["answers"])
	require.Equal(t, "4", lines[1]["answers"])
	require.Equal(t, "blue", lines[2]["answers"])
}

func TestBuildEvalInputStructured(t *testing.T) {
	ds := newSampleDataset(t)

	var buf bytes.Buffer
	_, err := BuildEvalInput(&buf, ds, DefaultPromptTemplate, true)
	require.NoError(t, err)

	var first EvalInputLine
	require.NoError(t, json.NewDecoder(&buf).Decode(&first))
	var msgs []relaymodel.Message
	require.NoError(t, json.Unmarshal([]byte(first.Prompt), &msgs))
	require.Len(t, msgs, 1)
	require.Equal(t, relaymodel.RoleUser, msgs[0].Role)
	require.Contains(t, msgs[0].Content[0].Text, "capital of France?")

	_, err = BuildEvalInput(io.Discard, ds, "no role {question}", true)
	require.True(t, relaymodel.IsMissingRole(err))
}

func TestBuildEvalInputMissingFields(t *testing.T) {
	ds := newSampleDataset(t)

	_, err := BuildEvalInput(io.Discard, ds, "{context}", false)
	var missing *MissingFieldError
	require.True(t, errors.As(err, &missing))
	require.Equal(t, "context", missing.Field)
	require.Equal(t, 1, missing.Line)

	require.NoError(t, ds.SetRefAnswerField("extra"))
	_, err = BuildEvalInput(io.Discard, ds, "{question}", false)
	require.True(t, errors.As(err, &missing))
	require.Equal(t, "extra", missing.Field)

	require.Error(t, ds.SetRefAnswerField("  "))
}

func TestStageEvalInput(t *testing.T) {
	ds := newSampleDataset(t)

	staged, err := StageEvalInput(ds, "{question}", false)
	require.NoError(t, err)
	require.Equal(t, 3, staged.Records)
	require.True(t, strings.HasSuffix(staged.Path, ".jsonl"))

	r, err := staged.Open()
	require.NoError(t, err)
	data, err := io.ReadAll(r)
	require.NoError(t, err)
	require.NoError(t, r.Close())
	require.Equal(t, 3, bytes.Count(data, []byte("\n")))

	require.NoError(t, staged.Close())
	require.NoError(t, staged.Close())
	_, err = os.Stat(staged.Path)
	require.True(t, os.IsNotExist(err))
}

func TestStageEvalInputCleansUpOnError(t *testing.T) {
	ds := newSampleDataset(t)
	before, err := os.ReadDir(os.TempDir())
	require.NoError(t, err)

	_, err = StageEvalInput(ds, "{missing}", false)
	require.Error(t, err)

	after, err := os.ReadDir(os.TempDir())
	require.NoError(t, err)
	count := func(entries []os.DirEntry) int {
		n := 0
		for _, e := range entries {
			if strings.HasPrefix(e.Name(), "prompt-studio-") {
				n++
			}
		}
		return n
	}
	require.Equal(t, count(before), count(after))
}

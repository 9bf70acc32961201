package ui

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/charmbracelet/x/ansi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableAlignsColumns(t *testing.T) {
	var buf bytes.Buffer
	u := NewWriterUI(&buf, false)
	u.Table([]string{"Token", "Risk"}, [][]string{
		{"USDC", "75"},
		{"Wrapped Ether", "0"},
	})
	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 6)
	assert.Equal(t, "│ USDC          │ 75   │", ansi.Strip(lines[3]))
	for _, l := range lines[1:] {
		assert.Equal(t, cellWidth(lines[0]), cellWidth(l))
	}
}

func TestColoursDoNotCountTowardsWidth(t *testing.T) {
	var buf bytes.Buffer
	u := NewWriterUI(&buf, true)
	red := u.Style(StyledText{Text: "dangerous", Severity: SeverityError})
	assert.NotEqual(t, "dangerous", red)
	assert.Equal(t, len("dangerous"), cellWidth(red))
}

func TestKeyValueAligns(t *testing.T) {
	var buf bytes.Buffer
	u := NewWriterUI(&buf, false)
	u.KeyValue([][2]string{{"Wallet", "0x1"}, {"Hygiene", "63/100"}})
	assert.Equal(t, "Wallet   0x1\nHygiene  63/100\n", buf.String())
}

func TestIndentPrefixesLines(t *testing.T) {
	var buf bytes.Buffer
	u := NewWriterUI(&buf, false)
	u.Indent().Info("nested")
	assert.Equal(t, "  nested\n", buf.String())
}

func TestProgressPrintsWithoutTerminal(t *testing.T) {
	var buf bytes.Buffer
	p := NewWriterUI(&buf, false).Spinner("Collecting events")
	p.Update("Collecting events")
	p.Update("Resolving")
	p.Stop()
	p.Stop()
	assert.Equal(t, "Collecting events\nResolving\n", buf.String())
}

func TestStyledTextMarshalsPlain(t *testing.T) {
	raw, err := json.Marshal(StyledText{Text: "At Risk", Severity: SeverityWarn})
	require.NoError(t, err)
	assert.Equal(t, `"At Risk"`, string(raw))
}

func TestRecordingUI(t *testing.T) {
	r := NewRecordingUI()
	r.Section("Dangerous (1)")
	r.Indent().Table([]string{"a", "b"}, [][]string{{"1", "2"}})
	r.Spinner("Scanning").Update("Scoring")
	assert.True(t, r.HasMessage("dangerous"))
	assert.Equal(t, []string{"1 | 2"}, r.Messages("Table"))
	assert.Equal(t, [][][]string{{{"a", "b"}, {"1", "2"}}}, r.Tables())
	assert.Equal(t, []string{"Scoring"}, r.Messages("Progress"))
}

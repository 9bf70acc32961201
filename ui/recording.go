package ui

import (
	"bytes"
	"fmt"
	"io"
	"strings"
)

// Entry is one recorded UI call.
type Entry struct {
	Method string
	Value  string
}

type sharedState struct {
	entries []Entry
	tables  [][][]string
	buf     *bytes.Buffer
}

// RecordingUI implements UI for tests. It keeps every call in order,
// colour free, and shares its log with the children Indent returns.
type RecordingUI struct {
	shared      *sharedState
	indentLevel int
}

func NewRecordingUI() *RecordingUI {
	return &RecordingUI{shared: &sharedState{buf: &bytes.Buffer{}}}
}

func (r *RecordingUI) record(method, value string) {
	r.shared.entries = append(r.shared.entries, Entry{Method: method, Value: value})
}

func (r *RecordingUI) Style(t StyledText) string {
	return t.Text
}

func (r *RecordingUI) Info(format string, args ...any) {
	r.record("Info", fmt.Sprintf(format, args...))
}

func (r *RecordingUI) Success(format string, args ...any) {
	r.record("Success", fmt.Sprintf(format, args...))
}

func (r *RecordingUI) Warn(format string, args ...any) {
	r.record("Warn", fmt.Sprintf(format, args...))
}

func (r *RecordingUI) Error(format string, args ...any) {
	r.record("Error", fmt.Sprintf(format, args...))
}

func (r *RecordingUI) Critical(format string, args ...any) {
	r.record("Critical", fmt.Sprintf(format, args...))
}

func (r *RecordingUI) Section(title string) {
	r.record("Section", title)
}

// KeyValue records one "label: value" entry per row.
func (r *RecordingUI) KeyValue(rows [][2]string) {
	for _, row := range rows {
		r.record("KeyValue", row[0]+": "+row[1])
	}
}

func (r *RecordingUI) Table(headers []string, rows [][]string) {
	r.TableWithGroups(headers, [][][]string{rows})
}

// TableWithGroups records each row as a " | " joined entry and keeps the
// flattened table for Tables.
func (r *RecordingUI) TableWithGroups(headers []string, groups [][][]string) {
	table := [][]string{}
	if len(headers) > 0 {
		table = append(table, headers)
	}
	for _, g := range groups {
		for _, row := range g {
			r.record("Table", strings.Join(row, " | "))
			table = append(table, row)
		}
	}
	r.shared.tables = append(r.shared.tables, table)
}

type recordedProgress struct {
	r *RecordingUI
}

func (p recordedProgress) Update(msg string) { p.r.record("Progress", msg) }
func (p recordedProgress) Stop()             {}

func (r *RecordingUI) Spinner(msg string) Progress {
	r.record("Spinner", msg)
	return recordedProgress{r: r}
}

func (r *RecordingUI) Indent() UI {
	return &RecordingUI{shared: r.shared, indentLevel: r.indentLevel + 1}
}

func (r *RecordingUI) Writer() io.Writer {
	return r.shared.buf
}

// --- Test helpers ---

func (r *RecordingUI) Entries() []Entry {
	return r.shared.entries
}

// Tables returns every table rendered so far, header row first.
func (r *RecordingUI) Tables() [][][]string {
	return r.shared.tables
}

func (r *RecordingUI) Messages(method string) []string {
	var out []string
	for _, e := range r.shared.entries {
		if e.Method == method {
			out = append(out, e.Value)
		}
	}
	return out
}

// HasMessage reports whether any entry contains substr, ignoring case.
func (r *RecordingUI) HasMessage(substr string) bool {
	lower := strings.ToLower(substr)
	for _, e := range r.shared.entries {
		if strings.Contains(strings.ToLower(e.Value), lower) {
			return true
		}
	}
	return false
}

// Output returns everything written to Writer().
func (r *RecordingUI) Output() string {
	return r.shared.buf.String()
}

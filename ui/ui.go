package ui

import (
	"encoding/json"
	"io"
)

// Severity is the visual weight of a piece of inline text. The terminal
// maps it to a colour; JSON and tests only ever see the plain text.
type Severity uint8

const (
	SeverityInfo     Severity = iota // plain
	SeveritySuccess                  // green, known or healthy
	SeverityWarn                     // yellow, needs attention
	SeverityError                    // red, dangerous
	SeverityCritical                 // bold
)

// StyledText pairs a plain string with a Severity.
//
// It marshals as just the Text string. To colour it on a terminal pass it
// through [UI.Style]:
//
//	u.Info("Hygiene: %s", u.Style(report.Hygiene))
type StyledText struct {
	Text     string
	Severity Severity
}

func (s StyledText) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Text)
}

func (s StyledText) String() string {
	return s.Text
}

// Progress is a running spinner.
type Progress interface {
	// Update replaces the message next to the spinner.
	Update(msg string)
	// Stop clears the spinner. It is safe to call more than once.
	Stop()
}

// UI is everything a command writes to the user.
//
// TerminalUI writes to the real terminal; RecordingUI captures calls so
// tests can assert on them.
type UI interface {
	// Style colours t by its Severity. Without colours it returns t.Text.
	Style(t StyledText) string

	Info(format string, args ...any)
	Success(format string, args ...any)
	Warn(format string, args ...any)
	// Error writes a failure in red. It does not exit.
	Error(format string, args ...any)
	Critical(format string, args ...any)

	// Section writes a separator centred around title:
	//
	//	=============== Dangerous (2) ================
	Section(title string)

	// KeyValue renders label/value rows with the values aligned.
	KeyValue(rows [][2]string)

	// Table renders a bordered table. Cells may carry ANSI colours.
	Table(headers []string, rows [][]string)

	// TableWithGroups separates each group of rows with a divider line.
	TableWithGroups(headers []string, groups [][][]string)

	// Spinner animates msg until Stop is called. Off a terminal it prints
	// msg once.
	Spinner(msg string) Progress

	// Indent returns a child UI one level deeper, sharing the writer.
	Indent() UI

	// Writer prepends the current indentation to every line written.
	Writer() io.Writer
}

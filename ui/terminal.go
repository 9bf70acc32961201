package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/briandowns/spinner"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/logrusorgru/aurora"
	runewidth "github.com/mattn/go-runewidth"
	indent "github.com/openconfig/goyang/pkg/indent"
	"golang.org/x/term"
)

const (
	indentUnit   = "  "
	sectionWidth = 60
)

// TerminalUI writes the report to stdout and progress to stderr, so
// redirecting stdout never captures spinner frames.
type TerminalUI struct {
	indentLevel int
	out         io.Writer
	progress    io.Writer
	animate     bool
	au          aurora.Aurora
}

// NewTerminalUI colours output only when stdout is a terminal.
func NewTerminalUI() *TerminalUI {
	return &TerminalUI{
		out:      os.Stdout,
		progress: os.Stderr,
		animate:  term.IsTerminal(int(os.Stderr.Fd())),
		au:       aurora.NewAurora(term.IsTerminal(int(os.Stdout.Fd()))),
	}
}

// NewWriterUI writes everything, progress included, to out.
func NewWriterUI(out io.Writer, colors bool) *TerminalUI {
	return &TerminalUI{
		out:      out,
		progress: out,
		au:       aurora.NewAurora(colors),
	}
}

func (u *TerminalUI) prefix() string {
	return strings.Repeat(indentUnit, u.indentLevel)
}

func (u *TerminalUI) writeLine(line string) {
	fmt.Fprintf(u.out, "%s%s\n", u.prefix(), line)
}

func (u *TerminalUI) Style(t StyledText) string {
	switch t.Severity {
	case SeveritySuccess:
		return u.au.Green(t.Text).String()
	case SeverityWarn:
		return u.au.Yellow(t.Text).String()
	case SeverityError:
		return u.au.Red(t.Text).String()
	case SeverityCritical:
		return u.au.Bold(t.Text).String()
	default:
		return t.Text
	}
}

func (u *TerminalUI) Info(format string, args ...any) {
	u.writeLine(fmt.Sprintf(format, args...))
}

func (u *TerminalUI) Success(format string, args ...any) {
	u.writeLine(u.au.Green(fmt.Sprintf(format, args...)).String())
}

func (u *TerminalUI) Warn(format string, args ...any) {
	u.writeLine(u.au.Yellow(fmt.Sprintf(format, args...)).String())
}

func (u *TerminalUI) Error(format string, args ...any) {
	u.writeLine(u.au.Red(fmt.Sprintf(format, args...)).String())
}

func (u *TerminalUI) Critical(format string, args ...any) {
	u.writeLine(u.au.Bold(fmt.Sprintf(format, args...)).String())
}

func (u *TerminalUI) Section(title string) {
	titled := " " + title + " "
	bars := sectionWidth - runewidth.StringWidth(titled)
	if bars < 6 {
		bars = 6
	}
	left := bars / 2
	line := strings.Repeat("=", left) + titled + strings.Repeat("=", bars-left)
	fmt.Fprintf(u.out, "\n%s%s\n\n", u.prefix(), line)
}

func cellWidth(s string) int {
	return runewidth.StringWidth(ansi.Strip(s))
}

func (u *TerminalUI) KeyValue(rows [][2]string) {
	maxLabel := 0
	for _, r := range rows {
		if w := cellWidth(r[0]); w > maxLabel {
			maxLabel = w
		}
	}
	for _, r := range rows {
		u.writeLine(r[0] + strings.Repeat(" ", maxLabel-cellWidth(r[0])) + "  " + r[1])
	}
}

func (u *TerminalUI) Table(headers []string, rows [][]string) {
	u.TableWithGroups(headers, [][][]string{rows})
}

// TableWithGroups computes column widths across all groups so every
// column lines up. ANSI sequences in cells do not count towards width.
func (u *TerminalUI) TableWithGroups(headers []string, groups [][][]string) {
	if len(groups) == 0 {
		return
	}
	ncols := len(headers)
	for _, g := range groups {
		for _, r := range g {
			if len(r) > ncols {
				ncols = len(r)
			}
		}
	}

	widths := make([]int, ncols)
	for i, h := range headers {
		widths[i] = cellWidth(h)
	}
	for _, group := range groups {
		for _, row := range group {
			for i := 0; i < len(row); i++ {
				if w := cellWidth(row[i]); w > widths[i] {
					widths[i] = w
				}
			}
		}
	}

	borderStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	border := func(s string) string { return borderStyle.Render(s) }

	dashes := make([]string, ncols)
	for i, w := range widths {
		dashes[i] = strings.Repeat("─", w+2)
	}
	top := border("┌" + strings.Join(dashes, "┬") + "┐")
	mid := border("├" + strings.Join(dashes, "┼") + "┤")
	bottom := border("└" + strings.Join(dashes, "┴") + "┘")

	renderRow := func(cells []string) string {
		parts := make([]string, ncols)
		for i := 0; i < ncols; i++ {
			val := ""
			if i < len(cells) {
				val = cells[i]
			}
			parts[i] = " " + val + strings.Repeat(" ", widths[i]-cellWidth(val)) + " "
		}
		return border("│") + strings.Join(parts, border("│")) + border("│")
	}

	u.writeLine(top)
	if len(headers) > 0 {
		u.writeLine(renderRow(headers))
		u.writeLine(mid)
	}
	for gi, group := range groups {
		if gi > 0 {
			u.writeLine(mid)
		}
		for _, row := range group {
			u.writeLine(renderRow(row))
		}
	}
	u.writeLine(bottom)
}

type terminalProgress struct {
	once sync.Once
	s    *spinner.Spinner
	out  io.Writer
}

func (p *terminalProgress) Update(msg string) {
	p.s.Lock()
	p.s.Suffix = " " + msg
	p.s.Unlock()
}

func (p *terminalProgress) Stop() {
	p.once.Do(func() {
		p.s.Stop()
		// the spinner clears its line with \r and leaves the cursor there
		fmt.Fprint(p.out, "\n")
	})
}

type printedProgress struct {
	out  io.Writer
	last string
}

func (p *printedProgress) Update(msg string) {
	if msg != p.last {
		fmt.Fprintln(p.out, msg)
		p.last = msg
	}
}

func (p *printedProgress) Stop() {}

func (u *TerminalUI) Spinner(msg string) Progress {
	if !u.animate {
		p := &printedProgress{out: u.progress}
		p.Update(msg)
		return p
	}
	s := spinner.New(spinner.CharSets[14], 80*time.Millisecond, spinner.WithWriter(u.progress))
	s.Suffix = " " + msg
	s.Start()
	return &terminalProgress{s: s, out: u.progress}
}

func (u *TerminalUI) Indent() UI {
	c := *u
	c.indentLevel++
	return &c
}

func (u *TerminalUI) Writer() io.Writer {
	if u.indentLevel == 0 {
		return u.out
	}
	return indent.NewWriter(u.out, u.prefix())
}

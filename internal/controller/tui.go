package controller

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	m "mrt.dev/pkg/mrt/internal/model"
)

const (
	glyphSuccess = "✓"
	glyphError   = "✗"
	glyphNoop    = "–"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#008000", Dark: "#55FF55"})
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#D00000", Dark: "#FF5555"}).Bold(true)
	noopStyle    = lipgloss.NewStyle().Faint(true)
	spinnerStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#0066CC", Dark: "#5599FF"})
	nameStyle    = lipgloss.NewStyle().Bold(true)
)

// resultGlyph returns the plain glyph finalizing a status line.
func resultGlyph(result m.ResultType) string {
	switch result.Kind {
	case m.ResultSuccess:
		return glyphSuccess
	case m.ResultError:
		return glyphError
	default:
		return glyphNoop
	}
}

func styledGlyph(result m.ResultType) string {
	glyph := resultGlyph(result)

	switch result.Kind {
	case m.ResultSuccess:
		return successStyle.Render(glyph)
	case m.ResultError:
		return errorStyle.Render(glyph)
	default:
		return noopStyle.Render(glyph)
	}
}

// TUI implements UI with a live Bubble Tea view: one status line per
// package while a script runs, tables for everything else.
type TUI struct {
	cmd *cobra.Command

	mu      sync.Mutex
	program *tea.Program
	done    chan struct{}
}

// NewTUI creates a new TUI.
func NewTUI(cmd *cobra.Command) *TUI {
	return &TUI{cmd: cmd}
}

// Start launches the live view in run mode. Other modes render statically.
func (t *TUI) Start(ctx context.Context, options ...StartOption) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	cfg := newStartConfig(options)
	if cfg.mode != ModeRun || len(cfg.packages) == 0 {
		return nil
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	if t.program != nil {
		return fmt.Errorf("tui already started")
	}

	t.program = tea.NewProgram(
		newRunModel(cfg.packages),
		tea.WithOutput(t.cmd.OutOrStdout()),
		tea.WithInput(nil),
		tea.WithContext(ctx),
	)
	t.done = make(chan struct{})

	go func(p *tea.Program, done chan struct{}) {
		defer close(done)
		_, _ = p.Run()
	}(t.program, t.done)

	return nil
}

// Close stops the live view after it renders its final frame.
func (t *TUI) Close(context.Context) {
	t.mu.Lock()
	program := t.program
	t.mu.Unlock()

	if program != nil {
		program.Quit()
	}
}

// Wait blocks until the live view has exited.
func (t *TUI) Wait(ctx context.Context) {
	t.mu.Lock()
	done := t.done
	t.program = nil
	t.done = nil
	t.mu.Unlock()

	if done == nil {
		return
	}

	select {
	case <-done:
	case <-ctx.Done():
	}
}

// Interactive implements UI.
func (t *TUI) Interactive() bool { return true }

// Progress returns a sink that feeds the live view.
func (t *TUI) Progress() Progress {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.program == nil {
		return NoopProgress{}
	}

	return tuiProgress{program: t.program}
}

// DisplayPackages prints the package table.
func (t *TUI) DisplayPackages(ctx context.Context, packages []m.Package) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.printf("%s", renderPackagesTable(packages))

	return nil
}

// DisplayRunResults prints stderr of failed packages and the totals. The
// per-package lines were already rendered live.
func (t *TUI) DisplayRunResults(ctx context.Context, results []m.PackageRunResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	succeeded, failed, skipped := 0, 0, 0

	for _, r := range results {
		switch r.Result.ResultType.Kind {
		case m.ResultSuccess:
			succeeded++
		case m.ResultError:
			failed++

			if stderr := strings.TrimSpace(r.Result.Stderr); stderr != "" {
				t.printf("\n%s %s\n%s\n", styledGlyph(r.Result.ResultType), nameStyle.Render(r.Package.Name), stderr)
			}
		default:
			skipped++
		}
	}

	t.printf("\n%s succeeded, %s failed, %s skipped\n",
		successStyle.Render(fmt.Sprintf("%d", succeeded)),
		errorStyle.Render(fmt.Sprintf("%d", failed)),
		noopStyle.Render(fmt.Sprintf("%d", skipped)))

	return nil
}

// DisplayFingerprints prints the fingerprint tables.
func (t *TUI) DisplayFingerprints(ctx context.Context, fingerprints []m.PackageFingerprint, showFiles bool) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t.printf("%s", renderFingerprints(fingerprints, showFiles))

	return nil
}

func (t *TUI) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(t.cmd.OutOrStdout(), format, args...)
}

type unitOutputMsg struct {
	key     string
	command string
	line    string
}

type unitFinishedMsg struct {
	key    string
	result m.ScriptRunResult
}

// tuiProgress forwards reports to the program. Send is safe for concurrent use.
type tuiProgress struct {
	program *tea.Program
}

func (p tuiProgress) Unit(pkg m.Package) UnitReporter {
	return tuiUnit{program: p.program, key: unitKey(pkg)}
}

type tuiUnit struct {
	program *tea.Program
	key     string
}

func (u tuiUnit) ReportOutput(command, line string) {
	u.program.Send(unitOutputMsg{key: u.key, command: command, line: line})
}

func (u tuiUnit) Finish(result m.ScriptRunResult) {
	u.program.Send(unitFinishedMsg{key: u.key, result: result})
}

func unitKey(pkg m.Package) string {
	return string(pkg.AbsolutePath)
}

type statusLine struct {
	name    string
	command string
	last    string
	done    bool
	result  m.ResultType
}

// runModel is the Bubble Tea model of a script run.
type runModel struct {
	lines   []statusLine
	index   map[string]int
	spinner spinner.Model
	width   int
}

func newRunModel(packages []m.Package) runModel {
	spin := spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(spinnerStyle))

	model := runModel{
		lines:   make([]statusLine, 0, len(packages)),
		index:   make(map[string]int, len(packages)),
		spinner: spin,
	}

	for _, pkg := range packages {
		key := unitKey(pkg)
		if _, dup := model.index[key]; dup {
			continue
		}

		model.index[key] = len(model.lines)
		model.lines = append(model.lines, statusLine{name: pkg.Name})
	}

	return model
}

func (rm runModel) Init() tea.Cmd {
	return rm.spinner.Tick
}

func (rm runModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		rm.width = msg.Width
		return rm, nil

	case unitOutputMsg:
		if i, ok := rm.index[msg.key]; ok {
			rm.lines[i].command = msg.command
			rm.lines[i].last = msg.line
		}

		return rm, nil

	case unitFinishedMsg:
		if i, ok := rm.index[msg.key]; ok {
			rm.lines[i].done = true
			rm.lines[i].result = msg.result.ResultType

			if msg.result.Command != "" {
				rm.lines[i].command = msg.result.Command
			}
		}

		return rm, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		rm.spinner, cmd = rm.spinner.Update(msg)

		return rm, cmd
	}

	return rm, nil
}

func (rm runModel) View() string {
	var b strings.Builder

	for _, line := range rm.lines {
		var text string

		if line.done {
			text = fmt.Sprintf("%s %s %s", styledGlyph(line.result), nameStyle.Render(line.name), line.result.String())
		} else {
			detail := line.last
			if detail == "" {
				detail = line.command
			}

			text = fmt.Sprintf("%s %s %s", rm.spinner.View(), nameStyle.Render(line.name), noopStyle.Render(detail))
		}

		if rm.width > 0 {
			text = lipgloss.NewStyle().MaxWidth(rm.width).Render(text)
		}

		b.WriteString(text)
		b.WriteString("\n")
	}

	return b.String()
}

package ui

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/muurk/fwfleet/internal/install"
	"github.com/muurk/fwfleet/internal/mmapi"
)

// Messages fed to InstallModel from the dispatcher hooks
type (
	stateMsg struct {
		from, to install.State
	}
	devicesMsg struct {
		count int
	}
	resultMsg struct {
		result install.Result
	}
	finishedMsg struct{}
)

// InstallModel is a Bubble Tea model showing a run while it is in flight:
// the current state with a spinner, a bar filled by completed devices and
// one line per finished device in completion order.
type InstallModel struct {
	Spinner     spinner.Model
	ProgressBar progress.Model

	state   install.State
	devices int
	results []install.Result
	done    bool
}

// NewInstallModel creates the live progress model
func NewInstallModel() InstallModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = SpinnerStyle

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = progressBarWidth(GetTerminalWidth())

	return InstallModel{
		Spinner:     s,
		ProgressBar: bar,
	}
}

// Init implements tea.Model
func (m InstallModel) Init() tea.Cmd {
	return m.Spinner.Tick
}

// Update implements tea.Model
func (m InstallModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ProgressBar.Width = progressBarWidth(msg.Width)

	case stateMsg:
		m.state = msg.to

	case devicesMsg:
		m.devices = msg.count

	case resultMsg:
		m.results = append(m.results, msg.result)

	case finishedMsg:
		m.done = true
		return m, tea.Quit

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.Spinner, cmd = m.Spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

// progressBarWidth sizes the bar to leave room for the device counter
func progressBarWidth(termWidth int) int {
	w := clampWidth(termWidth) - 30
	if w < 20 {
		return 20
	}
	if w > 50 {
		return 50
	}
	return w
}

// Percent returns the share of devices with a result
func (m InstallModel) Percent() float64 {
	if m.devices == 0 {
		return 0
	}
	return float64(len(m.results)) / float64(m.devices)
}

// View implements tea.Model
func (m InstallModel) View() string {
	var b strings.Builder

	for _, r := range m.results {
		b.WriteString(RenderProgressLine(r))
		b.WriteString("\n")
	}

	if m.done {
		return b.String()
	}

	label := fmt.Sprintf("%s %s", m.Spinner.View(), m.state)
	b.WriteString(ProgressLabelStyle.Render(label))
	if m.devices > 0 {
		b.WriteString("\n  ")
		b.WriteString(m.ProgressBar.ViewAs(m.Percent()))
		b.WriteString(fmt.Sprintf("  [%d/%d]", len(m.results), m.devices))
	}
	b.WriteString("\n")
	return b.String()
}

// RenderProgressLine renders one finished device as it is reported
func RenderProgressLine(r install.Result) string {
	line := fmt.Sprintf("  %s %s", marker(r.Outcome), r.String())
	line = outcomeStyle(r.Outcome).Render(line)
	if r.Outcome != install.OutcomeSkipped {
		line += "  " + NoteStyle.Render("("+formatElapsed(r.Elapsed)+")")
	}
	return line
}

// LiveProgress drives an InstallModel program from dispatcher hooks
type LiveProgress struct {
	program *tea.Program
	done    chan error
}

// StartLiveProgress starts the progress program writing to out
func StartLiveProgress(out io.Writer) *LiveProgress {
	p := tea.NewProgram(NewInstallModel(), tea.WithOutput(out), tea.WithInput(nil))
	lp := &LiveProgress{program: p, done: make(chan error, 1)}
	go func() {
		_, err := p.Run()
		lp.done <- err
	}()
	return lp
}

// Hooks returns dispatcher hooks that update the program
func (lp *LiveProgress) Hooks() install.Hooks {
	return install.Hooks{
		OnState:   func(from, to install.State) { lp.program.Send(stateMsg{from: from, to: to}) },
		OnDevices: func(devices []mmapi.Device) { lp.program.Send(devicesMsg{count: len(devices)}) },
		OnResult:  func(r install.Result) { lp.program.Send(resultMsg{result: r}) },
	}
}

// Stop ends the program and waits for its final frame
func (lp *LiveProgress) Stop() error {
	lp.program.Send(finishedMsg{})
	return <-lp.done
}

// PlainProgress prints one line per finished device. Used when the
// output is not a terminal.
type PlainProgress struct {
	mu  sync.Mutex
	out io.Writer
}

// NewPlainProgress creates a plain line printer
func NewPlainProgress(out io.Writer) *PlainProgress {
	return &PlainProgress{out: out}
}

// Hooks returns dispatcher hooks that print results
func (pp *PlainProgress) Hooks() install.Hooks {
	return install.Hooks{
		OnDevices: func(devices []mmapi.Device) {
			pp.println(fmt.Sprintf("  %d devices", len(devices)))
		},
		OnResult: func(r install.Result) {
			pp.println(RenderProgressLine(r))
		},
	}
}

func (pp *PlainProgress) println(line string) {
	pp.mu.Lock()
	defer pp.mu.Unlock()
	_, _ = fmt.Fprintln(pp.out, line)
}

package tui

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/vovakirdan/bubble-chamber/internal/chamber"
	"github.com/vovakirdan/bubble-chamber/internal/config"
	"github.com/vovakirdan/bubble-chamber/internal/core"
	"github.com/vovakirdan/bubble-chamber/internal/export"
	"github.com/vovakirdan/bubble-chamber/internal/runner"
	"github.com/vovakirdan/bubble-chamber/internal/storage"
	"github.com/vovakirdan/bubble-chamber/internal/telemetry"
)

// hudHeight is the number of rows below the chamber.
const hudHeight = 2

// ViewerOptions configures the live viewer.
type ViewerOptions struct {
	Scenario string
	Config   config.SimulationConfig
	Runtime  core.RuntimeConfig
	Logger   *log.Logger
	Metrics  *telemetry.Metrics
	Store    *storage.Store // nil disables run history
	Sink     export.Sink    // nil disables the export key
}

// exportDoneMsg reports the result of an export started with the export key.
type exportDoneMsg struct {
	location string
	err      error
}

// completedMsg reports the export and record of a run that stopped.
type completedMsg struct {
	sum runner.Summary
	err error
}

// Model is the Bubble Tea model of the live chamber view.
type Model struct {
	opts   ViewerOptions
	run    *runner.Runner
	screen *core.Screen
	keys   ViewerKeyMap
	help   help.Model

	paused       bool
	showHidden   bool
	showFinished bool
	done         bool // population gone or tick limit reached
	status       string
	quitting     bool
	back         bool // leave to the menu instead of quitting
	embedded     bool // hosted by a SessionModel; back does not quit
}

// NewModel creates a viewer for the configured scenario.
func NewModel(opts ViewerOptions) (Model, error) {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	if opts.Runtime.TickRate <= 0 {
		opts.Runtime.TickRate = core.DefaultConfig().TickRate
	}

	m := Model{
		opts:         opts,
		screen:       core.NewScreen(opts.Runtime.ScreenW, chamberRows(opts.Runtime.ScreenH)),
		keys:         DefaultViewerKeyMap(),
		help:         help.New(),
		showFinished: true,
	}
	if err := m.reset(opts.Runtime.Seed); err != nil {
		return Model{}, err
	}
	return m, nil
}

// reset starts a fresh simulation of the configured scenario.
func (m *Model) reset(seed int64) error {
	r, err := runner.New(m.opts.Scenario, m.opts.Config, seed, runner.Deps{
		Logger:  m.opts.Logger,
		Metrics: m.opts.Metrics,
		Store:   m.opts.Store,
		Sink:    m.opts.Sink,
	})
	if err != nil {
		return err
	}
	m.run = r
	m.done = false
	m.paused = false
	m.status = ""
	return nil
}

func chamberRows(screenH int) int {
	return max(screenH-hudHeight, 1)
}

// Init starts the frame clock.
func (m Model) Init() tea.Cmd {
	return tickCmd(m.opts.Runtime.TickRate)
}

// Update handles messages and updates the model state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		return m.handleResize(msg)

	case TickMsg:
		return m.handleTick()

	case exportDoneMsg:
		if msg.err != nil {
			m.opts.Logger.Error("export failed", "err", msg.err)
			m.status = "export failed: " + msg.err.Error()
		} else {
			m.status = "exported " + msg.location
		}
		return m, nil

	case completedMsg:
		switch {
		case msg.err != nil:
			m.opts.Logger.Error("cannot complete run", "err", msg.err)
			m.status = "run not saved"
		case msg.sum.RunID > 0:
			m.status = fmt.Sprintf("saved as run #%d", msg.sum.RunID)
		case msg.sum.SVGLocation != "":
			m.status = "exported " + msg.sum.SVGLocation
		}
		return m, nil
	}

	return m, nil
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		// A run cut short still leaves its picture and history entry
		if !m.done && m.run.Simulation().Tick() > 0 {
			m.done = true
			m.run.Finish()
			if cmd := m.completeCmd(); cmd != nil {
				return m, tea.Sequence(cmd, tea.Quit)
			}
		}
		return m, tea.Quit
	case key.Matches(msg, m.keys.Back):
		m.back = true
		if m.embedded {
			return m, nil
		}
		return m, tea.Quit
	case key.Matches(msg, m.keys.Pause):
		if !m.done {
			m.paused = !m.paused
		}
	case key.Matches(msg, m.keys.Restart):
		if err := m.reset(time.Now().UnixNano()); err != nil {
			m.status = err.Error()
		}
	case key.Matches(msg, m.keys.Export):
		return m, m.exportCmd()
	case key.Matches(msg, m.keys.Hidden):
		m.showHidden = !m.showHidden
	case key.Matches(msg, m.keys.Finished):
		m.showFinished = !m.showFinished
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
	case msg.String() == "ctrl+s":
		m.saveScreenshot()
	}
	return m, nil
}

// handleResize adapts the chamber viewport. The simulation keeps running:
// the chamber is scaled onto whatever the terminal offers.
func (m Model) handleResize(msg tea.WindowSizeMsg) (tea.Model, tea.Cmd) {
	m.opts.Runtime.ScreenW = msg.Width
	m.opts.Runtime.ScreenH = msg.Height
	m.screen.Resize(msg.Width, chamberRows(msg.Height))
	m.help.Width = msg.Width
	return m, nil
}

// handleTick advances the simulation by one step per frame.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	next := tickCmd(m.opts.Runtime.TickRate)
	if m.paused || m.done {
		return m, next
	}

	m.run.Step()
	if !m.run.Done() {
		return m, next
	}

	// Export and record once, when the run ends
	m.done = true
	m.run.Finish()
	return m, tea.Batch(next, m.completeCmd())
}

// completeCmd exports and stores the finished run off the update loop. The
// simulation no longer steps once done, so reading it from the command is
// safe.
func (m Model) completeCmd() tea.Cmd {
	if m.opts.Store == nil && m.opts.Sink == nil {
		return nil
	}
	r := m.run
	name := m.finishName()
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		sum, err := r.CompleteTo(ctx, name)
		return completedMsg{sum: sum, err: err}
	}
}

// finishName is where a stopped run is exported. A standalone viewer writes
// the configured SVG path; sessions share a sink, so each run gets its own
// file there.
func (m Model) finishName() string {
	if m.embedded {
		return fmt.Sprintf("%s-%d.svg", m.opts.Scenario, m.run.Seed())
	}
	return m.opts.Config.Export.SVGPath
}

// exportCmd snapshots the trajectories and writes them through the sink.
func (m Model) exportCmd() tea.Cmd {
	if m.opts.Sink == nil {
		return func() tea.Msg {
			return exportDoneMsg{err: fmt.Errorf("export is disabled")}
		}
	}
	doc := m.run.Document()
	sink := m.opts.Sink
	name := fmt.Sprintf("%s-%d-t%d.svg", m.opts.Scenario, m.run.Seed(), m.run.Simulation().Tick())
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		loc, err := export.Export(ctx, sink, name, doc)
		return exportDoneMsg{location: loc, err: err}
	}
}

// saveScreenshot saves the current chamber as text.
func (m *Model) saveScreenshot() {
	m.draw()

	home, err := os.UserHomeDir()
	if err != nil {
		return
	}
	dir := filepath.Join(home, ".chamber", "screenshots")
	//nolint:errcheck // Best-effort directory creation
	os.MkdirAll(dir, 0o755)

	timestamp := time.Now().Format("20060102_150405")
	path := filepath.Join(dir, fmt.Sprintf("%s_%s.txt", m.opts.Scenario, timestamp))
	if err := os.WriteFile(path, []byte(m.screen.String()), 0o600); err != nil {
		m.status = "screenshot failed"
		return
	}
	m.status = "screenshot " + path
}

func (m Model) draw() {
	cfg := m.run.Config()
	chamber.Render(m.screen, m.run.Simulation(), chamber.RenderOptions{
		Width:        cfg.Chamber.Width,
		Height:       cfg.Chamber.Height,
		ShowHidden:   m.showHidden,
		ShowFinished: m.showFinished,
	})
	if m.done {
		m.drawBanner("chamber empty", "r: restart   e: export   q: quit")
	}
}

// drawBanner draws a boxed two-line message in the middle of the chamber.
func (m Model) drawBanner(title, hint string) {
	w := max(len([]rune(title)), len([]rune(hint))) + 4
	h := 4
	if w > m.screen.Width() || h > m.screen.Height() {
		return
	}
	box := core.NewRect((m.screen.Width()-w)/2, (m.screen.Height()-h)/2, w, h)
	m.screen.FillRect(box, ' ')
	m.screen.DrawBox(box)
	m.screen.DrawTextCentered(box.Y+1, title)
	m.screen.DrawTextCentered(box.Y+2, hint)
}

// View renders the current state to a string for display.
func (m Model) View() string {
	if m.quitting || m.back {
		return ""
	}
	if m.help.ShowAll {
		return m.helpView()
	}

	m.draw()
	return RenderScreen(m.screen) + "\n" + m.hudView() + "\n" + m.help.View(m.keys)
}

func (m Model) hudView() string {
	sim := m.run.Simulation()
	state := "running"
	switch {
	case m.done:
		state = "finished"
	case m.paused:
		state = "paused"
	}

	fields := []hudField{
		{"", m.opts.Scenario},
		{"tick", fmt.Sprint(sim.Tick())},
		{"alive", fmt.Sprint(sim.Alive())},
		{"splits", fmt.Sprint(sim.Splits())},
		{"tracks", fmt.Sprint(sim.Collected())},
		{"", state},
	}
	if m.status != "" {
		fields = append(fields, hudField{"", m.status})
	}
	return renderHUD(fields, m.screen.Width())
}

func (m Model) helpView() string {
	lines := []string{
		titleStyle.Render("Bubble Chamber"),
		"",
		"Red tracks are positive particles, blue tracks negative.",
		"Neutral particles leave no track.",
		"",
		m.help.View(m.keys),
	}
	for i, l := range lines {
		lines[i] = centerText(l, m.opts.Runtime.ScreenW)
	}
	return strings.Join(lines, "\n")
}

// Back reports whether the viewer was left with the back key.
func (m Model) Back() bool { return m.back }

// IsQuitting reports whether the viewer was left with the quit key.
func (m Model) IsQuitting() bool { return m.quitting }

// Run starts the Bubble Tea program with a live viewer.
func Run(opts ViewerOptions) error {
	model, err := NewModel(opts)
	if err != nil {
		return err
	}

	p := tea.NewProgram(
		model,
		tea.WithAltScreen(), // Use alternate screen buffer
	)

	_, err = p.Run()
	return err
}

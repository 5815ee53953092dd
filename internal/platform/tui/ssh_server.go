package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/charmbracelet/ssh"
	"github.com/charmbracelet/wish"
	"github.com/charmbracelet/wish/bubbletea"

	"github.com/vovakirdan/bubble-chamber/internal/config"
	"github.com/vovakirdan/bubble-chamber/internal/core"
	"github.com/vovakirdan/bubble-chamber/internal/export"
	"github.com/vovakirdan/bubble-chamber/internal/registry"
	"github.com/vovakirdan/bubble-chamber/internal/storage"
	"github.com/vovakirdan/bubble-chamber/internal/telemetry"
)

// SSHServerConfig holds configuration for the SSH server.
type SSHServerConfig struct {
	// Address is the host:port to listen on (e.g., ":23234").
	Address string

	// HostKeyPath is the path to the host key file.
	// If empty, a key will be auto-generated at ~/.chamber/host_key.
	HostKeyPath string

	// IdleTimeout is how long to wait before closing idle connections.
	IdleTimeout time.Duration

	// Preset is applied to every scenario served.
	Preset config.Preset

	Store   *storage.Store     // nil disables run history
	Sink    export.Sink        // nil disables exports from sessions
	Metrics *telemetry.Metrics // nil disables metrics
	Logger  *log.Logger        // nil discards
}

// DefaultSSHServerConfig returns a config with sensible defaults.
func DefaultSSHServerConfig() SSHServerConfig {
	return SSHServerConfig{
		Address:     ":23234",
		IdleTimeout: 30 * time.Minute,
		Preset:      config.PresetNormal,
	}
}

// SSHServer wraps a Wish SSH server that serves the chamber viewer.
type SSHServer struct {
	config SSHServerConfig
	server *ssh.Server
	logger *log.Logger
}

// NewSSHServer creates a new SSH server with the given configuration.
func NewSSHServer(cfg SSHServerConfig) (*SSHServer, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = log.New(io.Discard)
	}
	logger = logger.WithPrefix("chamber-ssh")

	srv := &SSHServer{
		config: cfg,
		logger: logger,
	}

	// Resolve host key path
	hostKeyPath := cfg.HostKeyPath
	if hostKeyPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("tui: cannot get home directory: %w", err)
		}
		hostKeyPath = filepath.Join(home, ".chamber", "host_key")
	}
	if err := os.MkdirAll(filepath.Dir(hostKeyPath), 0o700); err != nil {
		return nil, fmt.Errorf("tui: cannot create host key directory: %w", err)
	}

	server, err := wish.NewServer(
		wish.WithAddress(cfg.Address),
		wish.WithHostKeyPath(hostKeyPath),
		wish.WithIdleTimeout(cfg.IdleTimeout),
		wish.WithMiddleware(
			bubbletea.Middleware(srv.teaHandler),
			srv.loggingMiddleware,
		),
	)
	if err != nil {
		return nil, fmt.Errorf("tui: cannot create SSH server: %w", err)
	}

	srv.server = server
	return srv, nil
}

// teaHandler creates a Bubble Tea program for each SSH session. A scenario
// named on the SSH command line ("ssh -t host cascade") opens the viewer
// directly; otherwise the session starts at the menu.
func (s *SSHServer) teaHandler(sshSession ssh.Session) (tea.Model, []tea.ProgramOption) {
	pty, _, ok := sshSession.Pty()
	if !ok {
		s.logger.Warn("no PTY requested", "user", sshSession.User())
		return nil, nil
	}

	cfg := core.RuntimeConfig{
		ScreenW:  pty.Window.Width,
		ScreenH:  pty.Window.Height,
		TickRate: 30,
		Seed:     time.Now().UnixNano(),
	}

	model := NewSessionModel(SessionOptions{
		Runtime: cfg,
		Preset:  s.config.Preset,
		Store:   s.config.Store,
		Sink:    s.config.Sink,
		Metrics: s.config.Metrics,
		Logger:  s.logger.With("user", sshSession.User()),
	})

	if cmd := sshSession.Command(); len(cmd) > 0 {
		if err := model.open(cmd[0], s.config.Preset); err != nil {
			s.logger.Warn("cannot open scenario", "scenario", cmd[0], "error", err)
		}
	}

	return model, []tea.ProgramOption{
		tea.WithAltScreen(),
	}
}

// loggingMiddleware logs SSH session events and tracks open sessions.
func (s *SSHServer) loggingMiddleware(next ssh.Handler) ssh.Handler {
	return func(sshSession ssh.Session) {
		s.logger.Info("session started",
			"user", sshSession.User(),
			"remote", sshSession.RemoteAddr().String(),
			"command", sshSession.Command(),
		)
		s.config.Metrics.SessionStarted()
		next(sshSession)
		s.config.Metrics.SessionEnded()
		s.logger.Info("session ended",
			"user", sshSession.User(),
			"remote", sshSession.RemoteAddr().String(),
		)
	}
}

// Serve starts the SSH server and blocks until ctx is cancelled or the
// listener fails.
func (s *SSHServer) Serve(ctx context.Context) error {
	s.logger.Info("starting SSH server", "address", s.config.Address)

	errc := make(chan error, 1)
	go func() {
		errc <- s.server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, ssh.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("tui: ssh server: %w", err)
	case <-ctx.Done():
	}

	s.logger.Info("shutting down...")
	return s.Shutdown()
}

// Shutdown gracefully stops the server.
func (s *SSHServer) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.server.Shutdown(ctx)
}

// Addr returns the server's listen address string.
func (s *SSHServer) Addr() string {
	return s.config.Address
}

// ScenarioConfig returns the configuration of a registered scenario with
// a preset applied.
func ScenarioConfig(id string, preset config.Preset) (config.SimulationConfig, error) {
	sc, err := registry.Create(id)
	if err != nil {
		return config.SimulationConfig{}, err
	}
	cfg, err := sc.Config()
	if err != nil {
		return config.SimulationConfig{}, err
	}
	config.ApplyPreset(&cfg, preset)
	return cfg, nil
}

// SessionOptions configures a SessionModel.
type SessionOptions struct {
	Runtime core.RuntimeConfig
	Preset  config.Preset
	Store   *storage.Store
	Sink    export.Sink
	Metrics *telemetry.Metrics
	Logger  *log.Logger
}

// sessionScreen is the screen a SessionModel is showing.
type sessionScreen int

const (
	screenMenu sessionScreen = iota
	screenViewer
	screenRuns
)

// SessionModel manages the full session flow: menu -> viewer -> menu, with
// the run history one key away. It is the top-level model of SSH sessions
// and of the local watch command without a scenario.
type SessionModel struct {
	opts     SessionOptions
	screen   sessionScreen
	menu     MenuModel
	viewer   Model
	runs     RunsModel
	quitting bool
}

// NewSessionModel creates a new session model.
func NewSessionModel(opts SessionOptions) SessionModel {
	if opts.Logger == nil {
		opts.Logger = log.New(io.Discard)
	}
	return SessionModel{
		opts: opts,
		menu: NewMenuModel(opts.Runtime, opts.Preset),
	}
}

// open switches to the viewer for a scenario.
func (m *SessionModel) open(id string, preset config.Preset) error {
	cfg, err := ScenarioConfig(id, preset)
	if err != nil {
		return err
	}
	rt := m.opts.Runtime
	rt.Seed = time.Now().UnixNano()
	viewer, err := NewModel(ViewerOptions{
		Scenario: id,
		Config:   cfg,
		Runtime:  rt,
		Logger:   m.opts.Logger,
		Metrics:  m.opts.Metrics,
		Store:    m.opts.Store,
		Sink:     m.opts.Sink,
	})
	if err != nil {
		return err
	}
	viewer.embedded = true
	m.viewer = viewer
	m.screen = screenViewer
	return nil
}

// Init initializes the session.
func (m SessionModel) Init() tea.Cmd {
	if m.screen == screenViewer {
		return m.viewer.Init()
	}
	return m.menu.Init()
}

// Update handles messages for the session.
func (m SessionModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	// Handle window resize globally
	if wsm, ok := msg.(tea.WindowSizeMsg); ok {
		m.opts.Runtime.ScreenW = wsm.Width
		m.opts.Runtime.ScreenH = wsm.Height
	}

	switch m.screen {
	case screenViewer:
		return m.updateViewer(msg)
	case screenRuns:
		return m.updateRuns(msg)
	}
	return m.updateMenu(msg)
}

// updateMenu handles updates when in menu mode.
func (m SessionModel) updateMenu(msg tea.Msg) (tea.Model, tea.Cmd) {
	newMenu, cmd := m.menu.Update(msg)
	if menuModel, ok := newMenu.(MenuModel); ok {
		m.menu = menuModel
	}

	switch {
	case m.menu.IsQuitting():
		m.quitting = true
		return m, tea.Quit

	case m.menu.WantsRuns():
		m.runs = NewRunsModel(m.opts.Store, m.opts.Runtime.ScreenW, m.opts.Runtime.ScreenH)
		m.screen = screenRuns
		return m, m.runs.Init()

	case m.menu.Selected() != nil:
		m.opts.Preset = m.menu.Preset()
		if err := m.open(m.menu.Selected().ID, m.opts.Preset); err != nil {
			m.opts.Logger.Error("cannot open scenario", "error", err)
			m.menu = NewMenuModel(m.opts.Runtime, m.opts.Preset)
			return m, nil
		}
		return m, m.viewer.Init()
	}

	return m, cmd
}

// updateViewer handles updates when the viewer is showing.
func (m SessionModel) updateViewer(msg tea.Msg) (tea.Model, tea.Cmd) {
	newModel, cmd := m.viewer.Update(msg)
	if viewer, ok := newModel.(Model); ok {
		m.viewer = viewer
	}

	if m.viewer.IsQuitting() {
		// The viewer's command already ends with tea.Quit
		m.quitting = true
		return m, cmd
	}
	if m.viewer.Back() {
		return m.toMenu()
	}
	return m, cmd
}

// updateRuns handles updates when the run history is showing.
func (m SessionModel) updateRuns(msg tea.Msg) (tea.Model, tea.Cmd) {
	newModel, cmd := m.runs.Update(msg)
	if runs, ok := newModel.(RunsModel); ok {
		m.runs = runs
	}

	if m.runs.IsGoingBack() {
		return m.toMenu()
	}
	if m.runs.IsQuitting() {
		m.quitting = true
		return m, tea.Quit
	}
	return m, cmd
}

func (m SessionModel) toMenu() (tea.Model, tea.Cmd) {
	m.screen = screenMenu
	m.menu = NewMenuModel(m.opts.Runtime, m.opts.Preset)
	return m, m.menu.Init()
}

// View renders the current view.
func (m SessionModel) View() string {
	if m.quitting {
		return ""
	}

	switch m.screen {
	case screenViewer:
		return m.viewer.View()
	case screenRuns:
		return m.runs.View()
	}
	return m.menu.View()
}

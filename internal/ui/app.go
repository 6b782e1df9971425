package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"

	"github.com/five82/foilwatch/internal/optimizer"
	"github.com/five82/foilwatch/internal/prefs"
	"github.com/five82/foilwatch/internal/state"
	"github.com/five82/foilwatch/internal/watch"
)

// View represents the current active view.
type View int

const (
	ViewSession View = iota
	ViewLogs
)

// Controller starts and stops poll sessions. Both calls may block on the
// network or on the previous session winding down, so the model only calls
// them from commands.
type Controller interface {
	Submit(req optimizer.JobRequest) (*watch.Handle, error)
	Cancel()
}

// Options configures the UI.
type Options struct {
	Context     context.Context
	Store       *state.Store
	Controller  Controller
	Prefs       prefs.Prefs
	PrefsPath   string
	LogPath     string
	APIBase     string
	OutputDir   string
	RefreshTick time.Duration
}

// Model is the root application state for Bubble Tea.
type Model struct {
	// Configuration
	ctx        context.Context
	store      *state.Store
	controller Controller
	prefs      prefs.Prefs
	prefsPath  string
	logPath    string
	apiBase    string
	outputDir  string
	tick       time.Duration
	keys       keyMap

	// UI state
	theme       Theme
	currentView View
	width       int
	height      int
	ready       bool
	showHelp    bool
	showForm    bool
	form        jobForm
	busy        string // non-empty while a submit or cancel command runs
	notice      string
	lastRequest *optimizer.JobRequest

	// Data state
	snapshot    state.Snapshot
	lastUpdated time.Time

	// Log state
	logViewport viewport.Model
	logState    logState
}

// New creates a new Bubble Tea model.
func New(opts Options) Model {
	ctx := opts.Context
	if ctx == nil {
		ctx = context.Background()
	}

	tick := opts.RefreshTick
	if tick <= 0 {
		tick = 500 * time.Millisecond
	}

	prefsPath := opts.PrefsPath
	if prefsPath == "" {
		prefsPath = prefs.DefaultPath()
	}

	return Model{
		ctx:         ctx,
		store:       opts.Store,
		controller:  opts.Controller,
		prefs:       opts.Prefs,
		prefsPath:   prefsPath,
		logPath:     opts.LogPath,
		apiBase:     opts.APIBase,
		outputDir:   opts.OutputDir,
		tick:        tick,
		keys:        DefaultKeyMap(),
		theme:       GetTheme(opts.Prefs.Theme),
		currentView: ViewSession,
		form:        newJobForm(opts.Prefs.Request()),
		logState:    newLogState(),
	}
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		tea.EnterAltScreen,
		tickCmd(m.tick),
	}
	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}
	return tea.Batch(cmds...)
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if !m.ready {
			m.initLogViewport()
		}
		m.ready = true
		m.logState.contentVersion++ // lines are padded to the width
		m.updateLogViewport()
		return m, nil

	case tickMsg:
		return m.handleTick()

	case snapshotMsg:
		m.snapshot = state.Snapshot(msg)
		m.lastUpdated = time.Now()
		return m, nil

	case logTailMsg:
		m.handleLogTail(msg)
		return m, nil

	case logErrorMsg:
		m.logState.lastErr = msg.err
		return m, nil

	case submittedMsg:
		m.busy = ""
		if msg.err != nil {
			m.notice = "submit failed: " + msg.err.Error()
		} else {
			m.notice = fmt.Sprintf("submitted %s at %d", msg.req.SolutionType, msg.req.Velocity)
		}
		return m, fetchSnapshotCmd(m.store)

	case cancelledMsg:
		m.busy = ""
		m.notice = "stopped watching"
		return m, fetchSnapshotCmd(m.store)
	}

	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelp()
	}

	if m.showForm {
		return m.renderForm()
	}

	return m.renderMain()
}

// handleKey processes keyboard input.
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.showHelp {
		// Any key closes help
		m.showHelp = false
		return m, nil
	}

	if m.showForm {
		return m.handleFormKey(msg)
	}

	if m.currentView == ViewLogs && m.logState.searchActive {
		return m.handleLogSearchInput(msg)
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.CycleTheme):
		m.theme = GetTheme(NextTheme(m.theme.Name))
		m.prefs.Theme = m.theme.Name
		m.savePrefs()
		m.logState.contentVersion++
		m.updateLogViewport()
		return m, nil

	case key.Matches(msg, m.keys.Tab):
		if m.currentView == ViewSession {
			m.currentView = ViewLogs
			cmd := m.refreshLogs()
			return m, cmd
		}
		m.currentView = ViewSession
		return m, nil

	case key.Matches(msg, m.keys.ViewSession):
		m.currentView = ViewSession
		return m, nil

	case key.Matches(msg, m.keys.ViewLogs):
		m.currentView = ViewLogs
		cmd := m.refreshLogs()
		return m, cmd
	}

	switch m.currentView {
	case ViewLogs:
		return m.handleLogsKey(msg)
	default:
		return m.handleSessionKey(msg)
	}
}

// handleSessionKey processes keyboard input for the session view.
func (m Model) handleSessionKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.NewJob):
		m.form = newJobForm(m.formDefaults())
		m.showForm = true
		cmd := m.form.focusCmd()
		return m, cmd

	case key.Matches(msg, m.keys.Resubmit):
		if m.lastRequest == nil || m.busy != "" {
			return m, nil
		}
		return m.submit(*m.lastRequest)

	case key.Matches(msg, m.keys.CancelJob):
		if m.busy != "" || !m.snapshot.IsRunning() || m.controller == nil {
			return m, nil
		}
		m.busy = "stopping"
		return m, cancelCmd(m.controller)
	}
	return m, nil
}

// formDefaults pre-fills the form with the last job, falling back to prefs.
func (m Model) formDefaults() optimizer.JobRequest {
	if m.lastRequest != nil {
		return *m.lastRequest
	}
	return m.prefs.Request()
}

// submit remembers req and starts it on the controller.
func (m Model) submit(req optimizer.JobRequest) (tea.Model, tea.Cmd) {
	if m.controller == nil {
		m.notice = "no optimizer connection"
		return m, nil
	}
	r := req
	m.lastRequest = &r
	m.prefs.Remember(req)
	m.savePrefs()
	m.busy = "submitting"
	m.notice = ""
	return m, submitCmd(m.controller, req)
}

func (m Model) savePrefs() {
	if m.prefsPath == "" {
		return
	}
	if err := prefs.Save(m.prefsPath, m.prefs); err != nil {
		zerolog.Ctx(m.ctx).Warn().Err(err).Msg("prefs-save-failed")
	}
}

// handleTick processes the refresh tick.
func (m Model) handleTick() (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	if m.store != nil {
		cmds = append(cmds, fetchSnapshotCmd(m.store))
	}

	if m.currentView == ViewLogs && m.logState.follow {
		if cmd := m.refreshLogs(); cmd != nil {
			cmds = append(cmds, cmd)
		}
	}

	cmds = append(cmds, tickCmd(m.tick))

	return m, tea.Batch(cmds...)
}

// renderMain renders the full UI.
func (m Model) renderMain() string {
	var b strings.Builder

	// Header line 1: logo + status
	b.WriteString(m.renderHeader())
	b.WriteString("\n")

	// Header line 2: command bar
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")

	switch m.currentView {
	case ViewLogs:
		b.WriteString(m.renderLogs())
	default:
		b.WriteString(m.renderSession())
	}

	return b.String()
}

// Messages

type tickMsg time.Time

type snapshotMsg state.Snapshot

type submittedMsg struct {
	req optimizer.JobRequest
	id  string
	err error
}

type cancelledMsg struct{}

// Commands

func tickCmd(d time.Duration) tea.Cmd {
	return tea.Tick(d, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func fetchSnapshotCmd(store *state.Store) tea.Cmd {
	if store == nil {
		return nil
	}
	return func() tea.Msg {
		return snapshotMsg(store.Snapshot())
	}
}

func submitCmd(ctrl Controller, req optimizer.JobRequest) tea.Cmd {
	return func() tea.Msg {
		h, err := ctrl.Submit(req)
		msg := submittedMsg{req: req, err: err}
		if h != nil {
			msg.id = h.ID
		}
		return msg
	}
}

func cancelCmd(ctrl Controller) tea.Cmd {
	return func() tea.Msg {
		ctrl.Cancel()
		return cancelledMsg{}
	}
}

// Run starts the Bubble Tea program and blocks until the user quits or the
// context is cancelled.
func Run(opts Options) error {
	if opts.Store == nil {
		return fmt.Errorf("ui requires a data store")
	}
	m := New(opts)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(m.ctx))
	_, err := p.Run()
	if err != nil && m.ctx.Err() != nil {
		return nil
	}
	return err
}

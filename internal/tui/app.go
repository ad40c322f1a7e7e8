package tui

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mmcdole/checkmark/internal/catalog"
	"github.com/mmcdole/checkmark/internal/domain"
	"github.com/mmcdole/checkmark/internal/reconcile"
	"github.com/mmcdole/checkmark/internal/tui/components"
)

// ApplicationState represents the current state of the application
type ApplicationState int

const (
	StateBrowsing ApplicationState = iota
	StateOpening
	StateHelp
)

// Vertical layout: header (title + summary) and a single footer line
const ChromeHeight = 3

// Controller is the part of the trigger the view drives
type Controller interface {
	ContentChanged()
	NavigationChanged()
	ResetView()
	Refresh(ctx context.Context, force bool) reconcile.Result
	Invalidate()
}

// PassState reports whether a reconciliation pass is in flight
type PassState interface {
	State() reconcile.State
}

// Deps are the collaborators of the model
type Deps struct {
	Browser     domain.CatalogBrowser
	Credentials domain.CredentialProvider
	Controller  Controller
	Passes      PassState
	Marks       *reconcile.Marks
	View        *ViewTracker
	Logger      *slog.Logger

	// Storefront returns the configured storefront for catalog lookups
	Storefront func() string
	// LoadingIndicator reports whether pending rows animate
	LoadingIndicator func() bool

	// InitialRef is opened on start when non-empty
	InitialRef string
}

// Model is the main Bubble Tea model for the application
type Model struct {
	// Application state
	State ApplicationState
	Ready bool

	deps     Deps
	observer *ChannelObserver

	// UI Components
	Tracks     *components.TrackList
	InputModal components.InputModal

	// Navigation
	current *catalog.Ref
	history []catalog.Ref

	// Dimensions
	Width  int
	Height int

	// UI state
	StatusMsg    string
	StatusIsErr  bool
	Loading      bool
	SpinnerFrame int
}

// NewModel creates a new application model and subscribes it to the marks
func NewModel(deps Deps) Model {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.View == nil {
		deps.View = NewViewTracker()
	}
	if deps.Storefront == nil {
		deps.Storefront = func() string { return "" }
	}
	if deps.LoadingIndicator == nil {
		deps.LoadingIndicator = func() bool { return true }
	}

	observer := NewChannelObserver()
	deps.Marks.OnChange(observer.Notify)

	return Model{
		State:      StateBrowsing,
		deps:       deps,
		observer:   observer,
		Tracks:     components.NewTrackList(),
		InputModal: components.NewInputModal(),
	}
}

// Init initializes the application
func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{
		WaitForMarksCmd(m.observer),
		TickCmd(100 * time.Millisecond),
	}
	if m.deps.InitialRef != "" {
		ref, err := catalog.ParseRef(m.deps.InitialRef)
		if err != nil {
			cmds = append(cmds, func() tea.Msg { return ErrMsg{Err: err, Context: "opening"} })
		} else {
			cmds = append(cmds, LoadContainerCmd(m.deps.Browser, m.deps.Credentials, m.deps.Storefront(), ref, false))
		}
	}
	return tea.Batch(cmds...)
}

// Update handles all messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height
		m.Ready = true
		m.Tracks.SetSize(m.Width, m.Height-ChromeHeight)
		return m, nil

	case tea.KeyMsg:
		return m.handleKeyMsg(msg)

	case TickMsg:
		m.SpinnerFrame++
		m.Tracks.SetSpinnerFrame(m.SpinnerFrame)
		return m, TickCmd(100 * time.Millisecond)

	case ContainerLoadedMsg:
		m.Loading = false
		if !msg.Back && m.current != nil && m.current.Identity() != msg.Ref.Identity() {
			m.history = append(m.history, *m.current)
		}
		ref := msg.Ref
		m.current = &ref

		// A new page starts without indicators, including a reopened one
		m.deps.Marks.ClearAll()
		m.deps.Controller.ResetView()
		m.Tracks.SetAlbum(msg.Album)
		m.publishView()
		m.deps.Controller.NavigationChanged()

		m.deps.Logger.Info("opened container", "view", msg.Album.Identity(), "tracks", len(msg.Album.Tracks))
		return m, nil

	case MarksChangedMsg:
		// Re-render happens on return; keep listening
		return m, WaitForMarksCmd(m.observer)

	case RefreshDoneMsg:
		m.StatusMsg, m.StatusIsErr = describeResult(msg.Result, msg.Force)
		return m, ClearStatusCmd(3 * time.Second)

	case CacheInvalidatedMsg:
		m.StatusMsg = "Library cache cleared"
		m.StatusIsErr = false
		return m, ClearStatusCmd(3 * time.Second)

	case ErrMsg:
		m.Loading = false
		m.StatusMsg = msg.Error()
		m.StatusIsErr = true
		m.deps.Logger.Error("tui error", "context", msg.Context, "error", msg.Err)
		return m, ClearStatusCmd(5 * time.Second)

	case StatusMsg:
		m.StatusMsg = msg.Message
		m.StatusIsErr = msg.IsError
		return m, ClearStatusCmd(3 * time.Second)

	case ClearStatusMsg:
		m.StatusMsg = ""
		m.StatusIsErr = false
		return m, nil
	}

	return m, nil
}

func (m Model) handleKeyMsg(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Handle state-specific keys
	switch m.State {
	case StateHelp:
		m.State = StateBrowsing
		return m, nil

	case StateOpening:
		var cmd tea.Cmd
		var submitted bool
		m.InputModal, cmd, submitted = m.InputModal.Update(msg)
		if !m.InputModal.IsVisible() {
			m.State = StateBrowsing
			return m, nil
		}
		if !submitted {
			return m, cmd
		}
		ref, err := catalog.ParseRef(m.InputModal.Value())
		if err != nil {
			m.InputModal.SetError(err)
			return m, nil
		}
		m.InputModal.Hide()
		m.State = StateBrowsing
		return m, m.open(ref, false)
	}

	// Filter input owns the keyboard while focused
	if m.Tracks.IsFiltering() {
		cmd, changed := m.Tracks.UpdateFilter(msg)
		if changed {
			m.contentChanged()
		}
		return m, cmd
	}

	half := m.Tracks.PageSize() / 2

	switch {
	case key.Matches(msg, Keys.Quit):
		return m, tea.Quit

	case key.Matches(msg, Keys.Help):
		m.State = StateHelp

	case key.Matches(msg, Keys.Up):
		m.Tracks.MoveCursor(-1)
	case key.Matches(msg, Keys.Down):
		m.Tracks.MoveCursor(1)
	case key.Matches(msg, Keys.HalfUp):
		m.Tracks.MoveCursor(-half)
	case key.Matches(msg, Keys.HalfDown):
		m.Tracks.MoveCursor(half)
	case key.Matches(msg, Keys.PageUp):
		m.Tracks.MoveCursor(-m.Tracks.PageSize())
	case key.Matches(msg, Keys.PageDown):
		m.Tracks.MoveCursor(m.Tracks.PageSize())
	case key.Matches(msg, Keys.Home):
		m.Tracks.GoTop()
	case key.Matches(msg, Keys.End):
		m.Tracks.GoBottom()

	case key.Matches(msg, Keys.Back):
		return m.handleBack()

	case key.Matches(msg, Keys.Open):
		m.State = StateOpening
		m.InputModal.Show("Open album or playlist", "album:<id>, playlist:<id> or a music.apple.com link")

	case key.Matches(msg, Keys.Filter):
		if m.Tracks.Album() != nil {
			return m, m.Tracks.StartFilter()
		}

	case key.Matches(msg, Keys.Escape):
		if m.Tracks.ClearFilter() {
			m.contentChanged()
		}

	case key.Matches(msg, Keys.Refresh):
		m.StatusMsg = "Refreshing..."
		m.StatusIsErr = false
		return m, RefreshCmd(m.deps.Controller, true)

	case key.Matches(msg, Keys.Invalidate):
		return m, InvalidateCmd(m.deps.Controller)
	}

	return m, nil
}

// handleBack reopens the previous container
func (m Model) handleBack() (tea.Model, tea.Cmd) {
	if len(m.history) == 0 {
		return m, nil
	}
	prev := m.history[len(m.history)-1]
	m.history = m.history[:len(m.history)-1]
	return m, m.open(prev, true)
}

// open starts loading ref. The view stops qualifying until it arrives.
func (m *Model) open(ref catalog.Ref, back bool) tea.Cmd {
	m.Loading = true
	m.StatusMsg = "Opening " + ref.Identity() + "..."
	m.StatusIsErr = false
	return LoadContainerCmd(m.deps.Browser, m.deps.Credentials, m.deps.Storefront(), ref, back)
}

// contentChanged republishes the visible rows and schedules a pass
func (m *Model) contentChanged() {
	m.publishView()
	m.deps.Controller.ContentChanged()
}

func (m *Model) publishView() {
	m.deps.View.Publish(m.Tracks.Album(), m.Tracks.VisibleIDs())
}

// pending reports whether rows without a verdict should animate
func (m Model) pending() bool {
	album := m.Tracks.Album()
	if album == nil || album.Kind != domain.ViewKindAlbum {
		return false
	}
	if !m.deps.LoadingIndicator() {
		return false
	}
	return m.deps.Passes != nil && m.deps.Passes.State() != reconcile.StateIdle
}

// describeResult turns a pass result into a status line
func describeResult(r reconcile.Result, force bool) (string, bool) {
	switch r.Outcome {
	case reconcile.OutcomeBusy:
		return "A check is already running", false
	case reconcile.OutcomeCleared:
		return "Indicators are shown on albums only", false
	case reconcile.OutcomeUnchanged:
		return "Already up to date", false
	case reconcile.OutcomeUnresolved:
		return "Could not load your library", true
	}
	prefix := "Checked"
	if force {
		prefix = "Refreshed"
	}
	return fmt.Sprintf("%s: %d from cache, %d resolved (%d in library)",
		prefix, r.Cached, r.Resolved, r.Found), false
}

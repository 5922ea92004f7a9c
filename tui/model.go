// ABOUTME: Terminal UI model and core state management
// ABOUTME: Bubble Tea model wiring the timeline engine to a scrolling lane view

// Package tui provides an interactive terminal view of a multi-lane timeline.
package tui

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	plot "github.com/chriskim06/drawille-go"

	"timeline-lanes/provider"
	"timeline-lanes/timeline"
)

// Layout constants for UI dimensions
const (
	gutterWidth = 16 // Lane label column on the left of the body

	// UI chrome heights (elements that reduce available body space)
	headerHeight    = 1 // Header cell labels
	countsHeight    = 1 // Per-cell item counts
	detailHeight    = 1 // Selected item line
	statusBarHeight = 1
	helpHeight      = 1
	totalUIChrome   = headerHeight + countsHeight + detailHeight + statusBarHeight + helpHeight

	overviewHeight = 4 // Density graph rows when shown

	// Minimum body dimensions to ensure usability
	minBodyWidth  = 10
	minBodyHeight = 3
)

// Navigation and interaction constants
const (
	statusMessageDuration = 5 * time.Second  // How long to show transient status messages
	maxHistorySize        = 50               // Maximum back/forward navigation snapshots
	fetchTimeout          = 30 * time.Second // Upper bound for one provider fetch
	weekDays              = 7
)

// Options contains the view settings for running the TUI
type Options struct {
	Resolution     timeline.Resolution
	HourBandDays   int
	EdgeThreshold  float64
	ScrollThrottle time.Duration
	ResizeDebounce time.Duration
	Refresh        string   // Cron expression for scheduled refreshes; empty disables
	WatchPaths     []string // Local source files that trigger a refresh when changed
}

// Dependencies holds the engine objects and sinks the TUI drives
type Dependencies struct {
	Provider timeline.Provider
	Window   *timeline.WindowManager
	Builder  *timeline.LayoutBuilder
	Today    time.Time
	OnSelect func(timeline.Item) // Called when an item is activated; may be nil
	Debugf   func(string, ...any)
}

// fetchDoneMsg carries the result of a window fetch back to the event loop
type fetchDoneMsg struct {
	req   timeline.Request
	items []timeline.Item
	err   error
}

// scrollTickMsg is the trailing edge of the scroll throttle
type scrollTickMsg struct{ seq int }

// resizeTickMsg fires when a burst of resizes has settled
type resizeTickMsg struct {
	seq           int
	width, height int
}

// refreshMsg requests a re-fetch of the current window
type refreshMsg struct{ reason string }

// sourceChangedMsg reports a change to a watched source file
type sourceChangedMsg struct{ path string }

// model holds the TUI state
type model struct {
	// Dependencies
	provider timeline.Provider
	window   *timeline.WindowManager
	builder  *timeline.LayoutBuilder
	onSelect func(timeline.Item)
	debugf   func(string, ...any)
	watcher  *provider.Watcher

	// Engine state
	view    *timeline.ViewState
	tracker *timeline.Tracker
	layout  *timeline.Layout
	vis     timeline.Visibility
	anchor  timeline.ScrollAnchor
	history *History

	// Options
	hourBandDays   int
	edgeThreshold  float64
	scrollThrottle time.Duration
	resizeDebounce time.Duration

	// Scroll state. Positions are in geometry units (terminal columns).
	scrollLeft     float64
	scrollSeq      int  // Increments per throttle window; stale ticks are dropped
	scrollPending  bool // A throttle tick is scheduled
	resizeSeq      int
	refreshPending bool // A refresh was requested while a fetch was in flight
	loadFailed     bool // The initial load failed and nothing is loaded yet

	// Selection
	selected string // Selected item ID

	// UI state
	width        int
	height       int
	bodyWidth    int
	quitting     bool
	loading      bool
	statusMsg    string
	statusMsgAge time.Time
	showOverview bool
	overview     *plot.Canvas
	overviewHue  plot.Color
	body         viewport.Model // Vertical scrolling over lanes
	help         help.Model
}

// Key bindings
type keyMap struct {
	Hour       key.Binding
	Day        key.Binding
	Week       key.Binding
	Cycle      key.Binding
	Left       key.Binding
	Right      key.Binding
	WeekLeft   key.Binding
	WeekRight  key.Binding
	Today      key.Binding
	Up         key.Binding
	Down       key.Binding
	Next       key.Binding
	Prev       key.Binding
	Select     key.Binding
	ToggleLane key.Binding
	Refresh    key.Binding
	Back       key.Binding
	Forward    key.Binding
	Overview   key.Binding
	Help       key.Binding
	Quit       key.Binding
}

var keys = keyMap{
	Hour: key.NewBinding(
		key.WithKeys("1"),
		key.WithHelp("1", "hours"),
	),
	Day: key.NewBinding(
		key.WithKeys("2"),
		key.WithHelp("2", "days"),
	),
	Week: key.NewBinding(
		key.WithKeys("3"),
		key.WithHelp("3", "weeks"),
	),
	Cycle: key.NewBinding(
		key.WithKeys("z"),
		key.WithHelp("z", "cycle resolution"),
	),
	Left: key.NewBinding(
		key.WithKeys("left", "h"),
		key.WithHelp("←/h", "back a day"),
	),
	Right: key.NewBinding(
		key.WithKeys("right", "l"),
		key.WithHelp("→/l", "ahead a day"),
	),
	WeekLeft: key.NewBinding(
		key.WithKeys("H", "pgup"),
		key.WithHelp("H", "back a week"),
	),
	WeekRight: key.NewBinding(
		key.WithKeys("L", "pgdown"),
		key.WithHelp("L", "ahead a week"),
	),
	Today: key.NewBinding(
		key.WithKeys("t", "home"),
		key.WithHelp("t", "today"),
	),
	Up: key.NewBinding(
		key.WithKeys("up", "k"),
		key.WithHelp("↑/k", "scroll lanes"),
	),
	Down: key.NewBinding(
		key.WithKeys("down", "j"),
		key.WithHelp("↓/j", "scroll lanes"),
	),
	Next: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "next item"),
	),
	Prev: key.NewBinding(
		key.WithKeys("shift+tab"),
		key.WithHelp("shift+tab", "previous item"),
	),
	Select: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("enter", "open item"),
	),
	ToggleLane: key.NewBinding(
		key.WithKeys("!", "@", "#", "$"),
		key.WithHelp("!@#$", "toggle lane 1-4"),
	),
	Refresh: key.NewBinding(
		key.WithKeys("r"),
		key.WithHelp("r", "refresh"),
	),
	Back: key.NewBinding(
		key.WithKeys("u"),
		key.WithHelp("u", "back"),
	),
	Forward: key.NewBinding(
		key.WithKeys("ctrl+r"),
		key.WithHelp("ctrl+r", "forward"),
	),
	Overview: key.NewBinding(
		key.WithKeys("g"),
		key.WithHelp("g", "density graph"),
	),
	Help: key.NewBinding(
		key.WithKeys("?"),
		key.WithHelp("?", "more keys"),
	),
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Cycle, k.Left, k.WeekLeft, k.Today, k.Next, k.Select, k.Help, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Hour, k.Day, k.Week, k.Cycle},
		{k.Left, k.Right, k.WeekLeft, k.WeekRight, k.Today},
		{k.Up, k.Down, k.Next, k.Prev, k.Select},
		{k.ToggleLane, k.Refresh, k.Back, k.Forward, k.Overview},
		{k.Help, k.Quit},
	}
}

// Styles
var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("12"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	todayStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("9")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("236")).
			Foreground(lipgloss.Color("15")).
			Padding(0, 1)

	detailStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("15"))

	selectedStyle = lipgloss.NewStyle().
			Background(lipgloss.Color("15")).
			Foreground(lipgloss.Color("0")).
			Bold(true)
)

// laneStyle renders bars in the lane's configured color
func laneStyle(lane timeline.Lane) lipgloss.Style {
	color := lane.Style
	if color == "" {
		color = "240"
	}

	return lipgloss.NewStyle().
		Background(lipgloss.Color(color)).
		Foreground(lipgloss.Color("0"))
}

// Run starts the TUI with injected dependencies
func Run(opts Options, deps Dependencies) error {
	m := initModel(opts, deps)

	if len(opts.WatchPaths) > 0 {
		w, err := provider.NewWatcher(opts.WatchPaths, 200*time.Millisecond, deps.Debugf)
		if err != nil {
			m.debugf("[TUI] File watching disabled: %v", err)
		} else {
			m.watcher = w
			defer func() { _ = w.Close() }()
		}
	}

	if lipgloss.HasDarkBackground() {
		m.overviewHue = plot.Red
	} else {
		m.overviewHue = plot.Black
	}

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion())

	if opts.Refresh != "" {
		stop, err := startRefreshSchedule(opts.Refresh, p.Send)
		if err != nil {
			m.debugf("[TUI] Scheduled refresh disabled: %v", err)
		} else {
			defer stop()
		}
	}

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}

	return nil
}

// initModel creates the initial model with injected dependencies
func initModel(opts Options, deps Dependencies) model {
	debugf := deps.Debugf
	if debugf == nil {
		debugf = func(string, ...any) {}
	}

	res := opts.Resolution
	if !res.Valid() {
		res = timeline.ResolutionDay
	}

	threshold := opts.EdgeThreshold
	if threshold <= 0 {
		threshold = timeline.DefaultEdgeThreshold
	}

	m := model{
		provider: deps.Provider,
		window:   deps.Window,
		builder:  deps.Builder,
		onSelect: deps.OnSelect,
		debugf:   debugf,

		view:    timeline.NewViewState(deps.Builder.Lanes, res, deps.Today),
		tracker: timeline.NewTracker(deps.Builder.Geometry),
		history: NewHistory(maxHistorySize),

		hourBandDays:   opts.HourBandDays,
		edgeThreshold:  threshold,
		scrollThrottle: opts.ScrollThrottle,
		resizeDebounce: opts.ResizeDebounce,

		overviewHue: plot.Red,
		body:        viewport.New(0, 0), // Width and height set on first WindowSizeMsg
		help:        help.New(),
	}

	m.rebuild()

	return m
}

// Init starts the initial load and the file watcher
func (m model) Init() tea.Cmd {
	return tea.Batch(
		m.beginFetch(timeline.RequestRefresh, timeline.DirectionNone),
		waitForSourceChange(m.watcher),
	)
}

// setStatusMsg shows a transient message in the status bar
func (m *model) setStatusMsg(msg string) {
	m.statusMsg = msg
	m.statusMsgAge = time.Now()
}

// viewportState samples the horizontal scroll geometry
func (m *model) viewportState() timeline.ViewportState {
	vp := timeline.ViewportState{
		ScrollLeft:  m.scrollLeft,
		ClientWidth: float64(m.bodyWidth),
	}
	if m.layout != nil {
		vp.ScrollWidth = m.layout.ScrollWidth
	}

	return vp
}

// rebuild recomputes the layout from the current item set and view state
func (m *model) rebuild() {
	params := m.view.Params(m.window.Window(), m.hourBandDays)
	m.layout = m.builder.Build(m.window.Items(), params)

	if m.layout.Normalized > 0 || m.layout.Discarded > 0 {
		m.debugf("[TUI] Layout gen %d: %d normalized, %d discarded", m.layout.Generation, m.layout.Normalized, m.layout.Discarded)
	}

	if m.selected != "" {
		if _, ok := m.layout.Find(m.selected); !ok {
			m.selected = ""
		}
	}
}

// recompute derives visibility for the settled scroll position and refreshes body content
func (m *model) recompute() {
	if m.layout == nil {
		return
	}

	m.setScroll(m.scrollLeft)
	m.vis = m.tracker.Compute(m.layout, m.viewportState())
	m.updateBodyContent()

	if m.showOverview {
		m.updateOverview()
	}
}

// centerOnToday scrolls so today's column sits in the middle of the body
func (m *model) centerOnToday() {
	if m.layout == nil || m.bodyWidth <= 0 {
		return
	}

	m.scrollLeft = timeline.CenterOn(m.layout, float64(m.bodyWidth))
	m.view.MarkCentered()
}

// snapshot captures the current navigation position
func (m *model) snapshot() Snapshot {
	s := Snapshot{Resolution: m.view.Resolution(), Selected: m.selected}
	if m.layout != nil {
		mid := m.scrollLeft + float64(m.bodyWidth)/2
		s.Center = m.layout.Scale.ToInstant(mid)
		s.Offset = mid - m.layout.Scale.ToPixel(s.Center)
	}

	return s
}

// restore returns to a snapshot taken earlier
func (m *model) restore(s Snapshot) {
	if m.view.SetResolution(s.Resolution) {
		m.anchor.Disarm()
		m.rebuild()
	}

	if !s.Center.IsZero() {
		m.scrollLeft = m.layout.Scale.ToPixel(s.Center) + s.Offset - float64(m.bodyWidth)/2
	}

	if _, ok := m.layout.Find(s.Selected); ok {
		m.selected = s.Selected
	}

	m.recompute()
}

// truncate shortens s to maxLen terminal columns, adding "…" if needed
func truncate(s string, maxLen int) string {
	return ansi.Truncate(s, max(maxLen, 0), "…")
}

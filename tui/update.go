// ABOUTME: Event handling and state updates for the TUI
// ABOUTME: Implements Update(): fetch completion, throttled scroll, debounced resize, keys and mouse

package tui

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"runtime/debug"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"

	"timeline-lanes/provider"
	"timeline-lanes/timeline"
)

// laneToggleKeys maps shifted digits to lane positions
const laneToggleKeys = "!@#$"

// Update handles messages and updates the model
//
//nolint:ireturn // Bubble Tea framework requires returning tea.Model interface
func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	defer func() {
		if r := recover(); r != nil {
			m.debugf("[PANIC] Update panic: %v", r)
			m.debugf("[PANIC] Stack trace: %s", string(debug.Stack()))
			panic(r) // Re-panic so Bubble Tea can handle it
		}
	}()

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		return m, m.handleResize(msg)

	case resizeTickMsg:
		// Only the last resize of a burst does any work
		if msg.seq != m.resizeSeq {
			return m, nil
		}
		m.applySize(msg.width, msg.height)

		return m, m.checkEdges()

	case scrollTickMsg:
		return m, m.handleScrollTick(msg)

	case fetchDoneMsg:
		return m, m.handleFetchDone(msg)

	case refreshMsg:
		m.debugf("[TUI] Refresh requested (%s)", msg.reason)
		return m, m.beginFetch(timeline.RequestRefresh, timeline.DirectionNone)

	case sourceChangedMsg:
		m.setStatusMsg(filepath.Base(msg.path) + " changed, reloading")
		return m, tea.Batch(
			m.beginFetch(timeline.RequestRefresh, timeline.DirectionNone),
			waitForSourceChange(m.watcher),
		)

	case tea.MouseMsg:
		return m, m.handleMouse(msg)

	case tea.KeyMsg:
		return m.handleKey(msg)
	}

	return m, nil
}

func (m *model) handleKey(msg tea.KeyMsg) (model, tea.Cmd) {
	g := m.builder.Geometry
	res := m.view.Resolution()

	switch {
	case key.Matches(msg, keys.Quit):
		m.quitting = true
		return *m, tea.Quit

	case key.Matches(msg, keys.Hour):
		return *m, m.setResolution(timeline.ResolutionHour)

	case key.Matches(msg, keys.Day):
		return *m, m.setResolution(timeline.ResolutionDay)

	case key.Matches(msg, keys.Week):
		return *m, m.setResolution(timeline.ResolutionWeek)

	case key.Matches(msg, keys.Cycle):
		return *m, m.setResolution(res.Next())

	case key.Matches(msg, keys.Left):
		return *m, m.scrollBy(-timeline.PanOffset(res, g, 1))

	case key.Matches(msg, keys.Right):
		return *m, m.scrollBy(timeline.PanOffset(res, g, 1))

	case key.Matches(msg, keys.WeekLeft):
		return *m, m.scrollBy(-timeline.PanOffset(res, g, weekDays))

	case key.Matches(msg, keys.WeekRight):
		return *m, m.scrollBy(timeline.PanOffset(res, g, weekDays))

	case key.Matches(msg, keys.Today):
		m.history.Push(m.snapshot())
		m.jumpTo(m.centerOnToday)
		return *m, m.checkEdges()

	case key.Matches(msg, keys.Up):
		m.body.SetYOffset(m.body.YOffset - 1)

	case key.Matches(msg, keys.Down):
		m.body.SetYOffset(m.body.YOffset + 1)

	case key.Matches(msg, keys.Next):
		m.cycleSelection(1)
		return *m, m.checkEdges()

	case key.Matches(msg, keys.Prev):
		m.cycleSelection(-1)
		return *m, m.checkEdges()

	case key.Matches(msg, keys.Select):
		m.activate()

	case key.Matches(msg, keys.ToggleLane):
		m.toggleLane(strings.Index(laneToggleKeys, msg.String()))

	case key.Matches(msg, keys.Refresh):
		cmd := m.beginFetch(timeline.RequestRefresh, timeline.DirectionNone)
		if cmd == nil {
			m.setStatusMsg("Fetch in progress, refresh queued")
		}
		return *m, cmd

	case key.Matches(msg, keys.Back):
		if s, ok := m.history.Back(m.snapshot()); ok {
			m.jumpTo(func() { m.restore(s) })
			return *m, m.checkEdges()
		}
		m.setStatusMsg("Nothing to go back to")

	case key.Matches(msg, keys.Forward):
		if s, ok := m.history.Forward(m.snapshot()); ok {
			m.jumpTo(func() { m.restore(s) })
			return *m, m.checkEdges()
		}
		m.setStatusMsg("Nothing to go forward to")

	case key.Matches(msg, keys.Overview):
		m.showOverview = !m.showOverview
		m.applySize(m.width, m.height)

	case key.Matches(msg, keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.applySize(m.width, m.height)
	}

	return *m, nil
}

// handleResize applies the first size at once and debounces the rest
func (m *model) handleResize(msg tea.WindowSizeMsg) tea.Cmd {
	m.resizeSeq++

	if m.width == 0 || m.resizeDebounce <= 0 {
		m.applySize(msg.Width, msg.Height)
		return m.checkEdges()
	}

	seq := m.resizeSeq

	return tea.Tick(m.resizeDebounce, func(time.Time) tea.Msg {
		return resizeTickMsg{seq: seq, width: msg.Width, height: msg.Height}
	})
}

// applySize recomputes every dimension derived from the terminal size
func (m *model) applySize(width, height int) {
	if width <= 0 || height <= 0 {
		return
	}

	m.width = width
	m.height = height
	m.bodyWidth = max(width-gutterWidth, minBodyWidth)

	m.body.Width = width
	m.body.Height = max(height-m.chromeHeight(), minBodyHeight)
	m.help.Width = width

	if m.view.NeedsInitialCenter() && m.window.Loaded() {
		m.centerOnToday()
	}

	m.recompute()
}

// chromeHeight counts the lines outside the lane body
func (m *model) chromeHeight() int {
	h := totalUIChrome

	if m.help.ShowAll {
		rows := 0
		for _, col := range keys.FullHelp() {
			rows = max(rows, len(col))
		}
		h += rows - helpHeight
	}

	if m.showOverview {
		h += overviewHeight
	}

	return h
}

// scrollBy moves the viewport and schedules the trailing-edge recompute.
// Bars follow the new offset at once; visibility and edge checks wait for the tick.
func (m *model) scrollBy(delta float64) tea.Cmd {
	m.setScroll(m.scrollLeft + delta)
	m.updateBodyContent()

	if m.scrollThrottle <= 0 {
		m.recompute()
		return m.checkEdges()
	}

	if m.scrollPending {
		return nil
	}

	m.scrollPending = true
	m.scrollSeq++
	seq := m.scrollSeq

	return tea.Tick(m.scrollThrottle, func(time.Time) tea.Msg {
		return scrollTickMsg{seq: seq}
	})
}

// handleScrollTick reflects the settled scroll position and runs edge detection
func (m *model) handleScrollTick(msg scrollTickMsg) tea.Cmd {
	if msg.seq != m.scrollSeq {
		return nil
	}

	m.scrollPending = false
	m.recompute()

	return m.checkEdges()
}

// jumpTo runs a discrete reposition, dropping any pending throttle tick
func (m *model) jumpTo(move func()) {
	m.scrollSeq++
	m.scrollPending = false

	move()
	m.recompute()
}

// setScroll clamps and snaps the offset to whole cells
func (m *model) setScroll(x float64) {
	m.scrollLeft = math.Round(m.viewportState().ClampScroll(x))
}

// checkEdges extends the data window when the viewport nears either end
func (m *model) checkEdges() tea.Cmd {
	if m.layout == nil || m.bodyWidth <= 0 {
		return nil
	}

	if !m.window.Loaded() {
		// A failed initial load is retried by the next navigation
		if m.loadFailed && !m.window.InFlight() {
			return m.beginFetch(timeline.RequestRefresh, timeline.DirectionNone)
		}
		return nil
	}

	if !timeline.EdgeLoadingEnabled(m.view.Resolution()) {
		return nil
	}

	dir := timeline.EdgeDirection(m.viewportState(), m.edgeThreshold)
	if dir == timeline.DirectionNone {
		return nil
	}

	return m.beginFetch(timeline.RequestExtend, dir)
}

// beginFetch reserves the window's fetch slot and returns the command running the fetch.
// A trigger while another fetch is in flight is dropped; refreshes are queued instead.
func (m *model) beginFetch(kind timeline.RequestKind, dir timeline.Direction) tea.Cmd {
	req, err := m.window.Begin(kind, dir)
	if err != nil {
		if errors.Is(err, timeline.ErrExtensionInFlight) {
			if kind == timeline.RequestRefresh {
				m.refreshPending = true
			}
			m.debugf("[TUI] Dropped %s trigger: %v", dir, err)
			return nil
		}

		m.debugf("[TUI] Cannot start fetch: %v", err)
		return nil
	}

	if kind == timeline.RequestExtend && dir == timeline.DirectionPast && m.layout != nil {
		m.anchor.Arm(m.layout.ScrollWidth)
	}

	m.loading = true
	m.debugf("[TUI] Fetching %s..%s", req.Window.Min.Format(time.DateOnly), req.Window.Max.Format(time.DateOnly))

	p := m.provider

	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), fetchTimeout)
		defer cancel()

		items, err := req.Fetch(ctx, p)

		return fetchDoneMsg{req: req, items: items, err: err}
	}
}

// handleFetchDone applies fetched items, rebuilds the layout and applies the
// scroll anchor before the next frame is drawn.
func (m *model) handleFetchDone(msg fetchDoneMsg) tea.Cmd {
	err := m.window.Complete(msg.req, msg.items, msg.err)
	if errors.Is(err, timeline.ErrStaleRequest) {
		m.debugf("[TUI] Ignoring stale fetch result")
		return nil
	}

	m.loading = false
	m.loadFailed = err != nil && !m.window.Loaded()

	if err != nil {
		m.anchor.Disarm()
		m.setStatusMsg("Load failed: " + err.Error())
		return m.drainRefresh()
	}

	m.rebuild()

	if m.anchor.Armed() {
		before := m.scrollLeft
		m.scrollLeft = m.anchor.Apply(m.layout.ScrollWidth, m.scrollLeft)
		m.debugf("[TUI] Scroll anchor: %.0f -> %.0f", before, m.scrollLeft)
	}

	if m.view.NeedsInitialCenter() && m.bodyWidth > 0 {
		m.centerOnToday()
	}

	m.recompute()

	return m.drainRefresh()
}

// drainRefresh starts a refresh that was queued behind another fetch
func (m *model) drainRefresh() tea.Cmd {
	if !m.refreshPending {
		return nil
	}

	m.refreshPending = false

	return m.beginFetch(timeline.RequestRefresh, timeline.DirectionNone)
}

// setResolution switches resolution, rebuilds and recenters on today
func (m *model) setResolution(r timeline.Resolution) tea.Cmd {
	before := m.snapshot()
	if !m.view.SetResolution(r) {
		return nil
	}

	m.history.Push(before)
	m.anchor.Disarm()
	m.jumpTo(func() {
		m.rebuild()
		m.centerOnToday()
	})
	m.setStatusMsg("Resolution: " + r.String())

	return m.checkEdges()
}

// toggleLane flips the lane at position idx
func (m *model) toggleLane(idx int) {
	lanes := m.view.Lanes()
	if idx < 0 || idx >= len(lanes) {
		return
	}

	shown := m.view.ToggleLane(lanes[idx].ID)
	m.rebuild()
	m.recompute()

	state := "hidden"
	if shown {
		state = "shown"
	}
	m.setStatusMsg(fmt.Sprintf("%s %s", lanes[idx].Label, state))
}

// visibleItems returns the items intersecting the viewport ordered by start
func (m *model) visibleItems() []timeline.LayoutItem {
	if m.layout == nil {
		return nil
	}

	vp := m.viewportState()

	var out []timeline.LayoutItem
	for _, it := range m.layout.Items() {
		if it.Left < vp.Right() && it.Right() > vp.ScrollLeft {
			out = append(out, it)
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Left < out[j].Left
	})

	return out
}

// cycleSelection moves the selection through the items in view
func (m *model) cycleSelection(dir int) {
	items := m.visibleItems()
	if len(items) == 0 {
		m.selected = ""
		m.updateBodyContent()
		return
	}

	next := 0
	if dir < 0 {
		next = len(items) - 1
	}

	for i, it := range items {
		if it.ID == m.selected {
			next = (i + dir + len(items)) % len(items)
			break
		}
	}

	m.selected = items[next].ID
	m.reveal(items[next])
	m.recompute()
}

// reveal scrolls the selected item into view horizontally and vertically
func (m *model) reveal(it timeline.LayoutItem) {
	vm := NewViewportManager(float64(m.bodyWidth), m.layout.ScrollWidth)
	m.setScroll(vm.CalculateOffset(m.scrollLeft, it.Left, it.Right()))

	if lane, ok := m.layout.Lane(it.Lane); ok {
		line := int(math.Floor(lane.Top + it.Top))
		m.body.SetYOffset(LineOffset(m.body.YOffset, m.body.Height, line))
	}
}

// activate hands the selected item to the selection sink
func (m *model) activate() {
	if m.layout == nil || m.selected == "" {
		return
	}

	it, ok := m.layout.Find(m.selected)
	if !ok {
		return
	}

	m.debugf("[TUI] Selected %s", it.ID)

	if m.onSelect != nil {
		m.onSelect(it.Item)
	}

	m.setStatusMsg("Opened " + truncate(it.Title, 40))
}

// handleMouse pans on the wheel and selects on click
func (m *model) handleMouse(msg tea.MouseMsg) tea.Cmd {
	if msg.Action != tea.MouseActionPress {
		return nil
	}

	day := timeline.PanOffset(m.view.Resolution(), m.builder.Geometry, 1)

	switch msg.Button {
	case tea.MouseButtonWheelUp, tea.MouseButtonWheelLeft:
		return m.scrollBy(-day)

	case tea.MouseButtonWheelDown, tea.MouseButtonWheelRight:
		return m.scrollBy(day)

	case tea.MouseButtonLeft:
		m.clickAt(msg.X, msg.Y)
	}

	return nil
}

// clickAt selects and activates the item under a terminal cell
func (m *model) clickAt(x, y int) {
	top := headerHeight + countsHeight
	if m.layout == nil || x < gutterWidth || y < top || y >= top+m.body.Height {
		return
	}

	col := m.scrollLeft + float64(x-gutterWidth)
	line := float64(y - top + m.body.YOffset)

	// Bars are drawn on whole cells, so probe the whole cell
	for _, dx := range []float64{0.5, 0.01, 0.99} {
		if it, ok := m.layout.HitTest(col+dx, line+0.5, m.builder.Geometry); ok {
			m.selected = it.ID
			m.updateBodyContent()
			m.activate()
			return
		}
	}

	m.selected = ""
	m.updateBodyContent()
}

// waitForSourceChange blocks on the watcher and reports the changed file
func waitForSourceChange(w *provider.Watcher) tea.Cmd {
	if w == nil {
		return nil
	}

	return func() tea.Msg {
		name, ok := w.Wait()
		if !ok {
			return nil
		}

		return sourceChangedMsg{path: name}
	}
}

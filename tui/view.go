// ABOUTME: Rendering and display functions for the TUI
// ABOUTME: Implements the Bubble Tea View() function and the status, detail and overview lines

package tui

import (
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"timeline-lanes/timeline"
)

// View renders the TUI
func (m model) View() string {
	defer func() {
		if r := recover(); r != nil {
			m.debugf("[PANIC] View panic: %v", r)
			m.debugf("[PANIC] Stack trace: %s", string(debug.Stack()))
			panic(r) // Re-panic so Bubble Tea can handle it
		}
	}()

	if m.quitting {
		return ""
	}

	if m.width == 0 || m.layout == nil {
		return "Loading timeline...\n"
	}

	parts := []string{
		m.renderHeader(),
		m.renderCounts(),
		m.body.View(),
	}

	if m.showOverview {
		parts = append(parts, m.renderOverview())
	}

	parts = append(parts,
		m.renderDetail(),
		m.renderStatus(),
		m.help.View(keys),
	)

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// renderOverview shows the density graph beside its gutter label
func (m model) renderOverview() string {
	if m.overview == nil {
		return dimStyle.Render(padRight("density", gutterWidth)) + strings.Repeat("\n", overviewHeight-1)
	}

	gutter := dimStyle.Render(padRight("density", gutterWidth))

	return lipgloss.JoinHorizontal(lipgloss.Top, gutter, m.overview.String())
}

// renderDetail describes the selected item
func (m model) renderDetail() string {
	if m.selected == "" || m.layout == nil {
		return dimStyle.Render(" tab: select an item in view")
	}

	it, ok := m.layout.Find(m.selected)
	if !ok {
		return ""
	}

	fields := []string{it.Title, formatSpan(it.Item)}
	if label := laneLabel(m.view.Lanes(), it.Lane); label != "" {
		fields = append(fields, label)
	}
	if it.Location != "" {
		fields = append(fields, it.Location)
	}
	if it.Status != "" {
		fields = append(fields, it.Status)
	}

	return detailStyle.Render(truncate(" "+strings.Join(fields, " · "), m.width))
}

// renderStatus renders the status bar
func (m model) renderStatus() string {
	if m.statusMsg != "" && time.Since(m.statusMsgAge) < statusMessageDuration {
		return statusStyle.Width(m.width).Render(m.statusMsg)
	}

	layout := "Jan 2 2006"
	if m.view.Resolution() == timeline.ResolutionHour {
		layout = "Jan 2 15:04"
	}

	win := m.window.Window()
	loading := ""
	if m.loading {
		loading = " | loading…"
	}

	status := fmt.Sprintf("%s | %s – %s | window %s – %s | %d items | B:%d F:%d%s",
		m.view.Resolution(),
		m.vis.VisibleFrom.Format(layout),
		m.vis.VisibleTo.Format(layout),
		win.Min.Format(time.DateOnly),
		win.Max.Format(time.DateOnly),
		len(m.window.Items()),
		m.history.BackSize(),
		m.history.ForwardSize(),
		loading,
	)

	return statusStyle.Width(m.width).Render(status)
}

// formatSpan prints an item's time range compactly
func formatSpan(it timeline.Item) string {
	start := it.Start.Format("Mon Jan 2 15:04")
	if !it.End.After(it.Start) {
		return start
	}

	if it.End.YearDay() == it.Start.YearDay() && it.End.Year() == it.Start.Year() {
		return start + "–" + it.End.Format("15:04")
	}

	return start + " – " + it.End.Format("Mon Jan 2 15:04")
}

func laneLabel(lanes []timeline.Lane, id timeline.LaneID) string {
	for _, lane := range lanes {
		if lane.ID == id {
			return lane.Label
		}
	}

	return ""
}

// ABOUTME: Cell-level rendering of lanes, header and counts for the TUI
// ABOUTME: Only columns inside the horizontal viewport are drawn; runs of equal style are rendered together

package tui

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	plot "github.com/chriskim06/drawille-go"

	"timeline-lanes/timeline"
)

// Palette slots; lane styles follow from styleLane onward
const (
	stylePlain = iota
	styleDim
	styleToday
	styleSelected
	styleHeader
	styleLane
)

// row is one terminal line of the body, one rune and style slot per column.
// A wide rune fills its column and the next one, which holds wideTail.
type row struct {
	cells  []rune
	styles []int
}

// wideTail marks the second column of a double width rune; render skips it
const wideTail rune = 0

func newRow(width int) row {
	r := row{cells: make([]rune, width), styles: make([]int, width)}
	for i := range r.cells {
		r.cells[i] = ' '
	}

	return r
}

func (r row) put(col int, ch rune, style int) {
	if col < 0 || col >= len(r.cells) {
		return
	}

	r.split(col)
	r.cells[col] = ch
	r.styles[col] = style
}

// split blanks the other half of a wide rune about to be overwritten at col
func (r row) split(col int) {
	if r.cells[col] == wideTail && col > 0 {
		r.cells[col-1] = ' '
	}

	if col+1 < len(r.cells) && r.cells[col+1] == wideTail {
		r.cells[col+1] = ' '
	}
}

// putTail marks col as the second half of the wide rune left of it
func (r row) putTail(col int, style int) {
	if col+1 < len(r.cells) && r.cells[col+1] == wideTail {
		r.cells[col+1] = ' '
	}

	r.cells[col] = wideTail
	r.styles[col] = style
}

// write places s from col by display width, stopping before limit.
// A wide rune that would cross limit is not drawn.
func (r row) write(col int, s string, style int, limit int) {
	limit = min(limit, len(r.cells))
	for _, ch := range s {
		w := ansi.StringWidth(string(ch))
		if w == 0 {
			continue
		}
		if col+w > limit {
			return
		}

		r.put(col, ch, style)
		if w == 2 {
			r.putTail(col+1, style)
		}
		col += w
	}
}

func (r row) render(palette []lipgloss.Style) string {
	var b strings.Builder

	start := 0
	for i := 1; i <= len(r.cells); i++ {
		if i < len(r.cells) && r.styles[i] == r.styles[start] {
			continue
		}

		seg := strings.ReplaceAll(string(r.cells[start:i]), string(wideTail), "")
		if r.styles[start] == stylePlain {
			b.WriteString(seg)
		} else {
			b.WriteString(palette[r.styles[start]].Render(seg))
		}
		start = i
	}

	return b.String()
}

// palette returns the styles indexed by the style slots, lanes last
func (m *model) palette() ([]lipgloss.Style, map[timeline.LaneID]int) {
	palette := []lipgloss.Style{lipgloss.NewStyle(), dimStyle, todayStyle, selectedStyle, headerStyle}
	slots := make(map[timeline.LaneID]int)

	for _, lane := range m.view.Lanes() {
		slots[lane.ID] = len(palette)
		palette = append(palette, laneStyle(lane))
	}

	return palette, slots
}

// cellColumns maps a geometry span to terminal columns relative to the scroll offset
func (m *model) cellColumns(left, right float64) (int, int) {
	x0 := int(math.Floor(left - m.scrollLeft))
	x1 := int(math.Ceil(right - m.scrollLeft))
	if x1 <= x0 {
		x1 = x0 + 1
	}

	return x0, x1
}

// updateBodyContent renders every visible lane into the vertical viewport
func (m *model) updateBodyContent() {
	if m.layout == nil || m.bodyWidth <= 0 {
		m.body.SetContent("")
		return
	}

	palette, slots := m.palette()
	vp := m.viewportState()
	g := m.builder.Geometry
	todayCol := int(math.Floor(m.layout.Scale.ToPixel(m.view.Today()) - m.scrollLeft))

	var lines []string

	for _, lane := range m.layout.Lanes {
		rows := make([]row, max(int(math.Ceil(lane.Height)), 1))
		for i := range rows {
			rows[i] = newRow(m.bodyWidth)
			if i == 0 {
				for c := range m.bodyWidth {
					rows[i].put(c, '─', styleDim)
				}
			}
			rows[i].put(todayCol, '│', styleToday)
		}

		for _, it := range lane.Items {
			x0, x1 := m.cellColumns(it.Left, it.Right())
			if x1 <= 0 || x0 >= m.bodyWidth {
				continue
			}

			y := int(math.Floor(it.Top))
			if y < 0 || y >= len(rows) {
				continue
			}

			style := slots[lane.Lane.ID]
			if it.ID == m.selected {
				style = styleSelected
			}

			for c := max(x0, 0); c < min(x1, m.bodyWidth); c++ {
				rows[y].put(c, ' ', style)
			}

			if label := timeline.LabelFor(it, vp, g.MinLabelWidth); label.Visible {
				rows[y].write(int(math.Floor(label.Left-m.scrollLeft)), it.Title, style, x1)
			} else if x1-x0 == 1 {
				rows[y].put(x0, '◆', style)
			}
		}

		labelStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(lane.Lane.Style))

		for i, r := range rows {
			var gutter string

			switch i {
			case 0:
				gutter = labelStyle.Render(padRight(truncate(lane.Lane.Label, gutterWidth-1), gutterWidth))
			case 1:
				badge := fmt.Sprintf("%d/%d", m.vis.LaneVisible[lane.Lane.ID], m.vis.LaneTotal[lane.Lane.ID])
				gutter = dimStyle.Render(padRight(badge, gutterWidth))
			default:
				gutter = strings.Repeat(" ", gutterWidth)
			}

			lines = append(lines, gutter+r.render(palette))
		}
	}

	m.body.SetContent(strings.Join(lines, "\n"))
}

// renderHeader draws one label per header cell whose padded label area is fully in view
func (m model) renderHeader() string {
	palette, _ := m.palette()
	vp := m.viewportState()
	g := m.builder.Geometry
	r := newRow(m.bodyWidth)

	for _, cell := range m.layout.Header {
		x0, x1 := m.cellColumns(cell.Left, cell.Right())
		if x1 <= 0 || x0 >= m.bodyWidth {
			continue
		}

		r.put(x0, '▏', styleDim)

		if !timeline.HeaderVisible(cell, vp, g.LabelPadding) {
			continue
		}

		style := styleHeader
		if cell.IsToday {
			style = styleToday
		}
		r.write(x0+1, cell.Label, style, x1)
	}

	gutter := m.view.Resolution().String()
	if !m.vis.VisibleFrom.IsZero() {
		gutter += " " + m.vis.VisibleFrom.Format("Jan 2006")
	}

	return headerStyle.Render(padRight(gutter, gutterWidth)) + r.render(palette)
}

// renderCounts draws the number of items touching each header cell
func (m model) renderCounts() string {
	palette, _ := m.palette()
	r := newRow(m.bodyWidth)

	if len(m.vis.SliceCounts) == len(m.layout.Header) {
		for i, cell := range m.layout.Header {
			n := m.vis.SliceCounts[i]
			if n == 0 {
				continue
			}

			x0, x1 := m.cellColumns(cell.Left, cell.Right())
			if x1 <= 0 || x0 >= m.bodyWidth {
				continue
			}
			r.write(x0+1, strconv.Itoa(n), styleDim, x1)
		}
	}

	return dimStyle.Render(padRight("items", gutterWidth)) + r.render(palette)
}

// updateOverview redraws the density graph over the whole rendered range
func (m *model) updateOverview() {
	counts := m.vis.SliceCounts
	if len(counts) < 2 || m.bodyWidth < minBodyWidth {
		m.overview = nil
		return
	}

	series := make([]float64, len(counts))
	for i, n := range counts {
		series[i] = float64(n)
	}

	c := plot.NewCanvas(m.bodyWidth, overviewHeight)
	c.NumDataPoints = len(series)
	c.ShowAxis = false
	c.LineColors = []plot.Color{m.overviewHue}
	c.Fill([][]float64{series})

	m.overview = &c
}

// padRight pads s with spaces to width terminal columns
func padRight(s string, width int) string {
	n := lipgloss.Width(s)
	if n >= width {
		return s
	}

	return s + strings.Repeat(" ", width-n)
}

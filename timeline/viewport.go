// ABOUTME: Viewport tracker deriving header, label and count visibility from the scroll position
// ABOUTME: Output is plain data threaded to the renderer; the only retained state is a per-layout count cache

package timeline

import (
	"sort"
	"time"
)

// ViewportState is the sampled geometry of the scrolling container.
type ViewportState struct {
	ScrollLeft  float64
	ClientWidth float64
	ScrollWidth float64
}

// Right returns the right edge of the visible area.
func (v ViewportState) Right() float64 {
	return v.ScrollLeft + v.ClientWidth
}

// MaxScroll returns the largest valid scroll offset
func (v ViewportState) MaxScroll() float64 {
	if v.ScrollWidth <= v.ClientWidth {
		return 0
	}

	return v.ScrollWidth - v.ClientWidth
}

// ClampScroll limits x to [0, MaxScroll].
func (v ViewportState) ClampScroll(x float64) float64 {
	if x < 0 {
		return 0
	}

	if m := v.MaxScroll(); x > m {
		return m
	}

	return x
}

// ItemLabel places an item's label inside the visible part of its bar.
type ItemLabel struct {
	Visible     bool
	Left        float64 // Absolute left of the visible intersection
	Width       float64 // Width of the visible intersection
	LocalOffset float64 // Left of the intersection relative to the item's own left
}

// Visibility is the derived output of one Tracker.Compute call.
type Visibility struct {
	Viewport      ViewportState
	VisibleFrom   time.Time
	VisibleTo     time.Time
	HeaderVisible []bool // Parallel to Layout.Header
	Labels        map[string]ItemLabel
	SliceCounts   []int // Items touching each header cell, parallel to Layout.Header
	LaneVisible   map[LaneID]int
	LaneTotal     map[LaneID]int
}

// Tracker computes Visibility for a layout and viewport.
// Slice counts depend only on the layout and are cached by its generation.
type Tracker struct {
	Geometry Geometry

	cacheGen    uint64
	cacheCounts []int
}

// NewTracker creates a tracker for the given geometry
func NewTracker(g Geometry) *Tracker {
	return &Tracker{Geometry: g}
}

// Compute derives every visibility output for vp.
func (t *Tracker) Compute(l *Layout, vp ViewportState) Visibility {
	v := Visibility{
		Viewport:    vp,
		Labels:      make(map[string]ItemLabel),
		LaneVisible: make(map[LaneID]int, len(l.Lanes)),
		LaneTotal:   make(map[LaneID]int, len(l.Lanes)),
	}

	v.VisibleFrom = l.Scale.ToInstant(vp.ScrollLeft)
	v.VisibleTo = l.Scale.ToInstant(vp.Right())

	v.HeaderVisible = make([]bool, len(l.Header))
	for i, cell := range l.Header {
		v.HeaderVisible[i] = HeaderVisible(cell, vp, t.Geometry.LabelPadding)
	}

	for _, lane := range l.Lanes {
		v.LaneTotal[lane.Lane.ID] = len(lane.Items)
		visible := 0

		for _, it := range lane.Items {
			if it.Left < vp.Right() && it.Right() > vp.ScrollLeft {
				visible++
			}
			v.Labels[it.ID] = LabelFor(it, vp, t.Geometry.MinLabelWidth)
		}

		v.LaneVisible[lane.Lane.ID] = visible
	}

	v.SliceCounts = t.sliceCounts(l)

	return v
}

// HeaderVisible reports whether a cell's padded label area lies fully inside the viewport.
func HeaderVisible(cell HeaderCell, vp ViewportState, padding float64) bool {
	return cell.Left+padding >= vp.ScrollLeft && cell.Right()-padding <= vp.Right()
}

// LabelFor intersects an item with the viewport and suppresses labels
// whose visible part is narrower than minWidth.
func LabelFor(it LayoutItem, vp ViewportState, minWidth float64) ItemLabel {
	left := max(it.Left, vp.ScrollLeft)
	right := min(it.Right(), vp.Right())

	width := right - left
	if width < minWidth || width <= 0 {
		return ItemLabel{}
	}

	return ItemLabel{
		Visible:     true,
		Left:        left,
		Width:       width,
		LocalOffset: left - it.Left,
	}
}

func (t *Tracker) sliceCounts(l *Layout) []int {
	if t.cacheCounts != nil && t.cacheGen == l.Generation {
		return t.cacheCounts
	}

	t.cacheCounts = SliceCounts(l.Items(), l.Header)
	t.cacheGen = l.Generation

	return t.cacheCounts
}

// SliceCounts counts, for each cell, the items whose interval overlaps
// [cell.Start, cell.End). Zero-length items occupy their start instant.
func SliceCounts(items []LayoutItem, cells []HeaderCell) []int {
	starts := make([]int64, len(items))
	ends := make([]int64, len(items))

	for i, it := range items {
		s := it.Start.UnixNano()
		e := it.End.UnixNano()
		if e <= s {
			e = s + 1
		}
		starts[i], ends[i] = s, e
	}

	sort.Slice(starts, func(i, j int) bool { return starts[i] < starts[j] })
	sort.Slice(ends, func(i, j int) bool { return ends[i] < ends[j] })

	counts := make([]int, len(cells))
	for i, cell := range cells {
		cs := cell.Start.UnixNano()
		ce := cell.End.UnixNano()

		// started before the cell ends, minus those already over when it starts
		begun := sort.Search(len(starts), func(k int) bool { return starts[k] >= ce })
		over := sort.Search(len(ends), func(k int) bool { return ends[k] > cs })
		counts[i] = begun - over
	}

	return counts
}

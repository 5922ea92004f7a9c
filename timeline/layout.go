// ABOUTME: Builds the full pixel layout from items: normalization, clipping, geometry and packing
// ABOUTME: Lanes are packed on the worker pool when one is supplied; output order follows lane config

package timeline

import (
	"sync/atomic"
	"time"

	"timeline-lanes/pool"
)

// ViewParams selects what a layout is built for.
type ViewParams struct {
	Resolution   Resolution
	Window       TimeWindow
	Today        time.Time
	HourBandDays int
	Visible      func(LaneID) bool // nil means every lane is visible
}

// Layout is the derived geometry of one render.
type Layout struct {
	Generation  uint64 // Increases with every Build; used to key derived caches
	Resolution  Resolution
	Range       TimeWindow // Effective range actually rendered
	Scale       Scale
	Today       time.Time
	Lanes       []LaneLayout // Visible lanes in configuration order
	Header      []HeaderCell
	ScrollWidth float64
	Height      float64

	Normalized int // Items whose end preceded their start
	Discarded  int // Items without a start, on an unknown lane or with a repeated ID
}

// Items returns every laid out item, lane by lane.
func (l *Layout) Items() []LayoutItem {
	var out []LayoutItem
	for _, lane := range l.Lanes {
		out = append(out, lane.Items...)
	}

	return out
}

// Lane returns the layout of a lane, if visible
func (l *Layout) Lane(id LaneID) (LaneLayout, bool) {
	for _, lane := range l.Lanes {
		if lane.Lane.ID == id {
			return lane, true
		}
	}

	return LaneLayout{}, false
}

// Find returns the laid out item with the given ID.
func (l *Layout) Find(id string) (LayoutItem, bool) {
	for _, lane := range l.Lanes {
		for _, it := range lane.Items {
			if it.ID == id {
				return it, true
			}
		}
	}

	return LayoutItem{}, false
}

// HitTest returns the item under (x, y), where y is measured from the top
// of the first lane. Later items win when bars overlap.
func (l *Layout) HitTest(x, y float64, g Geometry) (LayoutItem, bool) {
	for _, lane := range l.Lanes {
		if y < lane.Top || y >= lane.Top+lane.Height {
			continue
		}

		local := y - lane.Top
		for i := len(lane.Items) - 1; i >= 0; i-- {
			it := lane.Items[i]
			if x >= it.Left && x < it.Right() && local >= it.Top && local < it.Top+g.ItemHeight {
				return it, true
			}
		}
	}

	return LayoutItem{}, false
}

// LayoutBuilder turns items into a Layout for a fixed lane set.
type LayoutBuilder struct {
	Lanes    []Lane
	Geometry Geometry
	Pool     *pool.WorkerPool // Optional; lanes are packed sequentially without it
	Logf     func(format string, args ...any)

	generation atomic.Uint64
}

// NewLayoutBuilder creates a builder. wp may be nil.
func NewLayoutBuilder(lanes []Lane, g Geometry, wp *pool.WorkerPool) *LayoutBuilder {
	return &LayoutBuilder{Lanes: lanes, Geometry: g.Normalize(), Pool: wp}
}

func (b *LayoutBuilder) logf(format string, args ...any) {
	if b.Logf != nil {
		b.Logf(format, args...)
	}
}

// Build computes geometry and rows for every visible lane.
func (b *LayoutBuilder) Build(items []Item, p ViewParams) *Layout {
	rng := EffectiveRange(p.Window, p.Resolution, p.Today, p.HourBandDays)
	scale := NewScale(rng.Min, p.Resolution, b.Geometry)

	out := &Layout{
		Generation:  b.generation.Add(1),
		Resolution:  p.Resolution,
		Range:       rng,
		Scale:       scale,
		Today:       p.Today,
		Header:      scale.HeaderCells(rng, p.Today),
		ScrollWidth: scale.Width(rng),
	}

	known := make(map[LaneID]int, len(b.Lanes))
	for i, lane := range b.Lanes {
		known[lane.ID] = i
	}

	perLane := make([][]LayoutItem, len(b.Lanes))
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		if it.Start.IsZero() {
			out.Discarded++
			continue
		}

		if seen[it.ID] {
			b.logf("timeline: duplicate item id %q, keeping the first", it.ID)
			out.Discarded++
			continue
		}
		seen[it.ID] = true

		idx, ok := known[it.Lane]
		if !ok {
			out.Discarded++
			continue
		}

		if fixed, changed := it.Normalize(scale.Unit()); changed {
			b.logf("timeline: item %q ends before it starts, using one %s", it.ID, p.Resolution)
			out.Normalized++
			it = fixed
		}

		if p.Visible != nil && !p.Visible(it.Lane) {
			continue
		}

		if !it.Overlaps(rng.Min, rng.Max) {
			continue
		}

		start, end := rng.Clip(it.Start, it.End)
		left, width := scale.Span(start, end)
		perLane[idx] = append(perLane[idx], LayoutItem{Item: it, Left: left, Width: width})
	}

	packed := make([]LaneLayout, len(b.Lanes))
	visible := make([]bool, len(b.Lanes))

	for i, lane := range b.Lanes {
		if p.Visible != nil && !p.Visible(lane.ID) {
			continue
		}
		visible[i] = true

		if b.Pool == nil {
			packed[i] = PackLane(lane, perLane[i], b.Geometry)
			continue
		}

		b.Pool.Submit(func() {
			packed[i] = PackLane(lane, perLane[i], b.Geometry)
		})
	}

	if b.Pool != nil {
		b.Pool.Wait()
	}

	top := 0.0
	for i, lane := range packed {
		if !visible[i] {
			continue
		}

		lane.Top = top
		top += lane.Height
		out.Lanes = append(out.Lanes, lane)
	}
	out.Height = top

	return out
}

// ABOUTME: Greedy interval partitioning of one lane's items into non-overlapping rows
// ABOUTME: Computes row index and top offset per item plus the lane's total height

package timeline

import (
	"sort"
)

// LayoutItem is an Item with pixel geometry for the current render.
type LayoutItem struct {
	Item
	Left  float64
	Width float64
	Top   float64
	Row   int
}

// Right returns the exclusive right edge of the item
func (li LayoutItem) Right() float64 {
	return li.Left + li.Width
}

// Overlaps reports whether two items intersect in pixel space.
// Touching edges do not overlap.
func Overlaps(a, b LayoutItem) bool {
	return a.Left < b.Right() && b.Left < a.Right()
}

// LaneLayout is the packed result for one lane.
type LaneLayout struct {
	Lane   Lane
	Items  []LayoutItem // Sorted by Left, ties in input order
	Rows   int
	Height float64
	Top    float64 // Offset of the lane within the whole layout, set by the layout builder
}

// PackLane assigns each item the first row it fits in, scanning rows in
// index order, and computes the lane height.
// Items are stably sorted by Left so the result is deterministic for a
// given input order. Widths below g.MinItemWidth are raised to it.
func PackLane(lane Lane, items []LayoutItem, g Geometry) LaneLayout {
	minWidth := g.MinItemWidth
	if minWidth <= 0 {
		minWidth = 1
	}

	packed := make([]LayoutItem, len(items))
	copy(packed, items)

	for i := range packed {
		if packed[i].Width < minWidth {
			packed[i].Width = minWidth
		}
	}

	sort.SliceStable(packed, func(i, j int) bool {
		return packed[i].Left < packed[j].Left
	})

	// Items arrive in ascending Left order, so an item fits a row exactly
	// when it starts at or after the row's rightmost edge.
	var rowEnds []float64
	for i := range packed {
		row := -1
		for r, end := range rowEnds {
			if packed[i].Left >= end {
				row = r
				break
			}
		}

		if row < 0 {
			row = len(rowEnds)
			rowEnds = append(rowEnds, 0)
		}

		if right := packed[i].Right(); right > rowEnds[row] {
			rowEnds[row] = right
		}

		packed[i].Row = row
		packed[i].Top = g.HeaderPadding + float64(row)*g.RowPitch()
	}

	return LaneLayout{
		Lane:   lane,
		Items:  packed,
		Rows:   len(rowEnds),
		Height: LaneHeight(lane, len(rowEnds), g),
	}
}

// LaneHeight returns the pixel height of a lane holding rows rows.
func LaneHeight(lane Lane, rows int, g Geometry) float64 {
	if rows == 0 {
		return lane.BaseHeight
	}

	return g.HeaderPadding + float64(rows)*g.RowPitch() + g.FooterPadding
}

// MaxDepth returns the largest number of items active at any single point.
// It equals the row count PackLane produces for the same items.
func MaxDepth(items []LayoutItem, minWidth float64) int {
	type edge struct {
		x     float64
		delta int
	}

	edges := make([]edge, 0, 2*len(items))
	for _, it := range items {
		w := it.Width
		if w < minWidth {
			w = minWidth
		}
		edges = append(edges, edge{it.Left, 1}, edge{it.Left + w, -1})
	}

	// Ends sort before starts at the same x: closed-open intervals
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].x != edges[j].x {
			return edges[i].x < edges[j].x
		}
		return edges[i].delta < edges[j].delta
	})

	depth, best := 0, 0
	for _, e := range edges {
		depth += e.delta
		if depth > best {
			best = depth
		}
	}

	return best
}

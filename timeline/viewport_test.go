// ABOUTME: Tests for the viewport tracker: header visibility, clipped labels and counts
// ABOUTME: Slice counts are checked against a brute-force overlap filter

package timeline

import (
	"testing"
	"time"
)

func TestLabelFor(t *testing.T) {
	vp := ViewportState{ScrollLeft: 0, ClientWidth: 800, ScrollWidth: 5000}

	tests := []struct {
		name   string
		item   LayoutItem
		want   ItemLabel
		hidden bool
	}{
		{
			name: "long bar straddling both edges",
			item: LayoutItem{Left: -500, Width: 2500},
			want: ItemLabel{Visible: true, Left: 0, Width: 800, LocalOffset: 500},
		},
		{
			name: "fully inside",
			item: LayoutItem{Left: 100, Width: 200},
			want: ItemLabel{Visible: true, Left: 100, Width: 200, LocalOffset: 0},
		},
		{
			name:   "sliver at right edge",
			item:   LayoutItem{Left: 750, Width: 300},
			hidden: true,
		},
		{
			name:   "outside",
			item:   LayoutItem{Left: 900, Width: 300},
			hidden: true,
		},
		{
			name:   "narrow item",
			item:   LayoutItem{Left: 10, Width: 40},
			hidden: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := LabelFor(tt.item, vp, 80)

			if tt.hidden {
				if got.Visible {
					t.Errorf("LabelFor() = %+v, want hidden", got)
				}
				return
			}

			if got != tt.want {
				t.Errorf("LabelFor() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestHeaderVisible(t *testing.T) {
	vp := ViewportState{ScrollLeft: 100, ClientWidth: 800, ScrollWidth: 5000}

	tests := []struct {
		name string
		cell HeaderCell
		want bool
	}{
		{"inside", HeaderCell{Left: 200, Width: 120}, true},
		{"padding absorbs left overhang", HeaderCell{Left: 97, Width: 120}, true},
		{"clipped on the left", HeaderCell{Left: 40, Width: 120}, false},
		{"clipped on the right", HeaderCell{Left: 850, Width: 120}, false},
		{"flush right", HeaderCell{Left: 780, Width: 120}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HeaderVisible(tt.cell, vp, 4); got != tt.want {
				t.Errorf("HeaderVisible() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSliceCounts_MatchesBruteForce(t *testing.T) {
	b := NewLayoutBuilder(testLanes(), DefaultGeometry(), nil)
	l := b.Build(testItems(), testParams(ResolutionDay))
	items := l.Items()

	got := SliceCounts(items, l.Header)

	for i, cell := range l.Header {
		want := 0
		for _, it := range items {
			if it.Overlaps(cell.Start, cell.End) {
				want++
			}
		}

		if got[i] != want {
			t.Errorf("cell %s count = %d, want %d", cell.Start.Format(time.DateOnly), got[i], want)
		}
	}
}

func TestSliceCounts_ZeroLengthItem(t *testing.T) {
	noon := at(2025, 6, 15, 12)
	items := []LayoutItem{{Item: Item{ID: "z", Start: noon, End: noon}}}
	cells := []HeaderCell{
		{Start: at(2025, 6, 15, 0), End: at(2025, 6, 16, 0)},
		{Start: at(2025, 6, 16, 0), End: at(2025, 6, 17, 0)},
	}

	got := SliceCounts(items, cells)
	if got[0] != 1 || got[1] != 0 {
		t.Errorf("SliceCounts = %v, want [1 0]", got)
	}
}

func TestTracker_Compute(t *testing.T) {
	g := DefaultGeometry()
	b := NewLayoutBuilder(testLanes(), g, nil)
	l := b.Build(testItems(), testParams(ResolutionDay))

	e1, _ := l.Find("e1")
	vp := ViewportState{ScrollLeft: e1.Left - 10, ClientWidth: 1200, ScrollWidth: l.ScrollWidth}

	tr := NewTracker(g)
	v := tr.Compute(l, vp)

	if len(v.HeaderVisible) != len(l.Header) || len(v.SliceCounts) != len(l.Header) {
		t.Fatalf("outputs not parallel to header: %d/%d vs %d", len(v.HeaderVisible), len(v.SliceCounts), len(l.Header))
	}

	if v.LaneTotal["events"] != 2 || v.LaneVisible["events"] != 2 {
		t.Errorf("events counts = %d/%d, want 2/2", v.LaneVisible["events"], v.LaneTotal["events"])
	}

	// The project spans the whole viewport
	if v.LaneVisible["projects"] != 1 {
		t.Errorf("projects visible = %d, want 1", v.LaneVisible["projects"])
	}

	if !v.Labels["p1"].Visible || v.Labels["p1"].Width != vp.ClientWidth {
		t.Errorf("p1 label = %+v, want visible across the viewport", v.Labels["p1"])
	}

	if !v.VisibleFrom.Equal(l.Scale.Floor(e1.Start)) {
		t.Errorf("VisibleFrom = %v, want %v", v.VisibleFrom, l.Scale.Floor(e1.Start))
	}

	visibleHeaders := 0
	for i, ok := range v.HeaderVisible {
		if ok {
			visibleHeaders++
			if l.Header[i].Left < vp.ScrollLeft-g.LabelPadding {
				t.Errorf("header %d visible but starts left of the viewport", i)
			}
		}
	}
	if visibleHeaders != 9 {
		t.Errorf("%d headers visible, want 9", visibleHeaders)
	}

	far := vp
	far.ScrollLeft = 0
	v = tr.Compute(l, far)
	if v.LaneVisible["events"] != 0 || v.LaneTotal["events"] != 2 {
		t.Errorf("events counts at window start = %d/%d, want 0/2", v.LaneVisible["events"], v.LaneTotal["events"])
	}
}

func TestTracker_CachesSliceCountsPerLayout(t *testing.T) {
	g := DefaultGeometry()
	b := NewLayoutBuilder(testLanes(), g, nil)
	l := b.Build(testItems(), testParams(ResolutionDay))
	tr := NewTracker(g)

	vp := ViewportState{ScrollLeft: 0, ClientWidth: 800, ScrollWidth: l.ScrollWidth}
	first := tr.Compute(l, vp).SliceCounts
	vp.ScrollLeft = 500
	second := tr.Compute(l, vp).SliceCounts

	if &first[0] != &second[0] {
		t.Error("slice counts recomputed for the same layout")
	}

	rebuilt := b.Build(testItems(), testParams(ResolutionDay))
	third := tr.Compute(rebuilt, vp).SliceCounts
	if &third[0] == &first[0] {
		t.Error("slice counts reused across layouts")
	}
}

func TestViewportState_ClampScroll(t *testing.T) {
	vp := ViewportState{ClientWidth: 800, ScrollWidth: 2000}

	tests := []struct {
		in, want float64
	}{
		{-5, 0},
		{600, 600},
		{1500, 1200},
	}

	for _, tt := range tests {
		if got := vp.ClampScroll(tt.in); got != tt.want {
			t.Errorf("ClampScroll(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}

	narrow := ViewportState{ClientWidth: 800, ScrollWidth: 300}
	if got := narrow.ClampScroll(100); got != 0 {
		t.Errorf("ClampScroll on narrow content = %v, want 0", got)
	}
}

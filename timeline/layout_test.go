// ABOUTME: Tests for the layout builder: filtering, normalization, lane stacking and hit testing
// ABOUTME: Also checks that pooled packing produces the same layout as sequential packing

package timeline

import (
	"reflect"
	"testing"
	"time"

	"timeline-lanes/pool"
)

func testLanes() []Lane {
	return []Lane{
		{ID: "events", Label: "Events", BaseHeight: 40},
		{ID: "projects", Label: "Projects", BaseHeight: 40},
		{ID: "releases", Label: "Releases", BaseHeight: 40},
		{ID: "incidents", Label: "Incidents", BaseHeight: 40},
	}
}

func at(y int, m time.Month, d, h int) time.Time {
	return time.Date(y, m, d, h, 0, 0, 0, time.UTC)
}

func testItems() []Item {
	return []Item{
		{ID: "e1", Lane: "events", Start: at(2025, 6, 10, 9), End: at(2025, 6, 12, 9)},
		{ID: "e2", Lane: "events", Start: at(2025, 6, 11, 0), End: at(2025, 6, 13, 0)},
		{ID: "p1", Lane: "projects", Start: at(2025, 5, 1, 0), End: at(2025, 8, 1, 0)},
		{ID: "r1", Lane: "releases", Start: at(2025, 6, 15, 12), End: at(2025, 6, 15, 12)},
		{ID: "bad", Lane: "incidents", Start: at(2025, 6, 14, 0), End: at(2025, 6, 13, 0)},
		{ID: "nolane", Lane: "unknown", Start: at(2025, 6, 14, 0), End: at(2025, 6, 15, 0)},
		{ID: "nostart", Lane: "events"},
		{ID: "far", Lane: "events", Start: at(2030, 1, 1, 0), End: at(2030, 1, 2, 0)},
	}
}

func testParams(res Resolution) ViewParams {
	today := at(2025, 6, 15, 0)
	return ViewParams{
		Resolution:   res,
		Window:       InitialWindow(today, 30),
		Today:        today,
		HourBandDays: 3,
	}
}

func TestLayoutBuilder_Build(t *testing.T) {
	b := NewLayoutBuilder(testLanes(), DefaultGeometry(), nil)
	l := b.Build(testItems(), testParams(ResolutionDay))

	if len(l.Lanes) != 4 {
		t.Fatalf("got %d lanes, want 4", len(l.Lanes))
	}

	for i, lane := range l.Lanes {
		if lane.Lane.ID != testLanes()[i].ID {
			t.Errorf("lane %d = %s, want %s", i, lane.Lane.ID, testLanes()[i].ID)
		}
	}

	if l.Discarded != 2 {
		t.Errorf("Discarded = %d, want 2", l.Discarded)
	}
	if l.Normalized != 1 {
		t.Errorf("Normalized = %d, want 1", l.Normalized)
	}

	bad, ok := l.Find("bad")
	if !ok {
		t.Fatal("normalized item missing from layout")
	}
	if !bad.End.Equal(bad.Start.Add(24 * time.Hour)) {
		t.Errorf("normalized End = %v, want Start + 1 day", bad.End)
	}
	if !approx(bad.Width, b.Geometry.DayWidth) {
		t.Errorf("normalized Width = %v, want %v", bad.Width, b.Geometry.DayWidth)
	}

	if _, ok := l.Find("far"); ok {
		t.Error("item outside the window should not be laid out")
	}

	events, _ := l.Lane("events")
	if events.Rows != 2 {
		t.Errorf("events Rows = %d, want 2", events.Rows)
	}

	wantWidth := float64(InitialWindow(at(2025, 6, 15, 0), 30).Days()) * b.Geometry.DayWidth
	if !approx(l.ScrollWidth, wantWidth) {
		t.Errorf("ScrollWidth = %v, want %v", l.ScrollWidth, wantWidth)
	}

	top := 0.0
	for _, lane := range l.Lanes {
		if lane.Top != top {
			t.Errorf("lane %s Top = %v, want %v", lane.Lane.ID, lane.Top, top)
		}
		top += lane.Height
	}
	if l.Height != top {
		t.Errorf("Height = %v, want %v", l.Height, top)
	}
}

func TestLayoutBuilder_DuplicateIDs(t *testing.T) {
	items := []Item{
		{ID: "x", Lane: "events", Start: at(2025, 6, 10, 0), End: at(2025, 6, 11, 0)},
		{ID: "x", Lane: "projects", Start: at(2025, 6, 12, 0), End: at(2025, 6, 13, 0)},
		{ID: "y", Lane: "projects", Start: at(2025, 6, 12, 0), End: at(2025, 6, 13, 0)},
	}

	var logged int
	b := NewLayoutBuilder(testLanes(), DefaultGeometry(), nil)
	b.Logf = func(string, ...any) { logged++ }
	l := b.Build(items, testParams(ResolutionDay))

	if got := len(l.Items()); got != 2 {
		t.Errorf("laid out %d items, want 2", got)
	}
	if l.Discarded != 1 || logged != 1 {
		t.Errorf("Discarded = %d, logged %d, want 1 and 1", l.Discarded, logged)
	}

	x, ok := l.Find("x")
	if !ok || x.Lane != "events" {
		t.Errorf("Find(x) = %+v, %v, want the first occurrence on events", x, ok)
	}
}

func TestLayoutBuilder_HiddenLanes(t *testing.T) {
	b := NewLayoutBuilder(testLanes(), DefaultGeometry(), nil)
	p := testParams(ResolutionDay)
	p.Visible = func(id LaneID) bool { return id != "projects" }

	l := b.Build(testItems(), p)

	if len(l.Lanes) != 3 {
		t.Fatalf("got %d lanes, want 3", len(l.Lanes))
	}
	if _, ok := l.Lane("projects"); ok {
		t.Error("hidden lane should not be laid out")
	}
	if _, ok := l.Find("p1"); ok {
		t.Error("items of a hidden lane should not be laid out")
	}
}

func TestLayoutBuilder_HourResolutionClipsToBand(t *testing.T) {
	b := NewLayoutBuilder(testLanes(), DefaultGeometry(), nil)
	l := b.Build(testItems(), testParams(ResolutionHour))

	if got := l.Range.Days(); got != 7 {
		t.Errorf("hour range spans %d days, want 7", got)
	}

	p1, ok := l.Find("p1")
	if !ok {
		t.Fatal("long project should be clipped, not dropped")
	}
	if p1.Left != 0 || !approx(p1.Width, l.ScrollWidth) {
		t.Errorf("clipped project = (%v, %v), want (0, %v)", p1.Left, p1.Width, l.ScrollWidth)
	}
}

func TestLayoutBuilder_PoolMatchesSequential(t *testing.T) {
	wp := pool.NewSized(4, 8)
	defer wp.Close()

	seq := NewLayoutBuilder(testLanes(), DefaultGeometry(), nil)
	par := NewLayoutBuilder(testLanes(), DefaultGeometry(), wp)

	for _, res := range Resolutions {
		t.Run(res.String(), func(t *testing.T) {
			a := seq.Build(testItems(), testParams(res))
			b := par.Build(testItems(), testParams(res))

			if !reflect.DeepEqual(a.Lanes, b.Lanes) {
				t.Error("pooled layout differs from sequential layout")
			}
		})
	}
}

func TestLayoutBuilder_GenerationIncreases(t *testing.T) {
	b := NewLayoutBuilder(testLanes(), DefaultGeometry(), nil)
	first := b.Build(nil, testParams(ResolutionDay))
	second := b.Build(nil, testParams(ResolutionDay))

	if second.Generation <= first.Generation {
		t.Errorf("Generation %d did not increase past %d", second.Generation, first.Generation)
	}

	for _, lane := range second.Lanes {
		if lane.Height != lane.Lane.BaseHeight {
			t.Errorf("empty lane %s Height = %v, want base %v", lane.Lane.ID, lane.Height, lane.Lane.BaseHeight)
		}
	}
}

func TestLayout_HitTest(t *testing.T) {
	g := DefaultGeometry()
	b := NewLayoutBuilder(testLanes(), g, nil)
	l := b.Build(testItems(), testParams(ResolutionDay))

	e2, _ := l.Find("e2")
	events, _ := l.Lane("events")

	got, ok := l.HitTest(e2.Left+1, events.Top+e2.Top+1, g)
	if !ok || got.ID != "e2" {
		t.Errorf("HitTest on e2 = %q, %v, want e2", got.ID, ok)
	}

	if _, ok := l.HitTest(e2.Left+1, events.Top+1, g); ok {
		t.Error("HitTest in lane padding should miss")
	}

	if _, ok := l.HitTest(-10, 0, g); ok {
		t.Error("HitTest left of the layout should miss")
	}
}

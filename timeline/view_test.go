// ABOUTME: Tests for view state: lane visibility, resolution changes and centering on today
// ABOUTME: Covers the day-to-week switch keeping today's week column at the viewport midpoint

package timeline

import (
	"math"
	"testing"
)

func TestViewState_CenterOnTodayAfterResolutionChange(t *testing.T) {
	today := at(2025, 6, 15, 0)
	vs := NewViewState(testLanes(), ResolutionDay, today)
	b := NewLayoutBuilder(testLanes(), DefaultGeometry(), nil)
	window := InitialWindow(today, 30)
	clientWidth := 800.0

	if !vs.SetResolution(ResolutionWeek) {
		t.Fatal("SetResolution(week) reported no change")
	}

	l := b.Build(testItems(), vs.Params(window, 3))
	scrollLeft := CenterOn(l, clientWidth)

	cell, ok := TodayCell(l)
	if !ok {
		t.Fatal("no header cell for today at week resolution")
	}

	// 2025-06-15 is a Sunday in the ISO week starting Monday 2025-06-09
	if !cell.Start.Equal(at(2025, 6, 9, 0)) {
		t.Errorf("today's week starts %v, want 2025-06-09", cell.Start)
	}

	mid := cell.Left + cell.Width/2
	if math.Abs(scrollLeft+clientWidth/2-mid) > 1e-6 {
		t.Errorf("viewport midpoint %v, want week midpoint %v", scrollLeft+clientWidth/2, mid)
	}
}

func TestCenterOn_ClampsNearEdges(t *testing.T) {
	today := at(2025, 6, 15, 0)
	b := NewLayoutBuilder(testLanes(), DefaultGeometry(), nil)

	window := TimeWindow{Min: at(2025, 6, 15, 0), Max: at(2025, 8, 1, 0)}
	l := b.Build(nil, ViewParams{Resolution: ResolutionDay, Window: window, Today: today})

	if got := CenterOn(l, 800); got != 0 {
		t.Errorf("CenterOn at window start = %v, want 0", got)
	}

	window = TimeWindow{Min: at(2025, 5, 1, 0), Max: at(2025, 6, 16, 0)}
	l = b.Build(nil, ViewParams{Resolution: ResolutionDay, Window: window, Today: today})

	if got := CenterOn(l, 800); got != l.ScrollWidth-800 {
		t.Errorf("CenterOn at window end = %v, want %v", got, l.ScrollWidth-800)
	}
}

func TestViewState_Lanes(t *testing.T) {
	vs := NewViewState(testLanes(), ResolutionDay, at(2025, 6, 15, 0))

	if got := len(vs.VisibleLanes()); got != 4 {
		t.Fatalf("initially %d lanes visible, want 4", got)
	}

	if vs.ToggleLane("projects") {
		t.Error("ToggleLane(projects) = true, want hidden")
	}
	if vs.IsLaneVisible("projects") {
		t.Error("projects still visible after toggle")
	}
	if vs.ToggleLane("nope") {
		t.Error("ToggleLane on unknown lane should report false")
	}

	want := []LaneID{"events", "releases", "incidents"}
	got := vs.VisibleLanes()
	if len(got) != len(want) {
		t.Fatalf("VisibleLanes() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("VisibleLanes()[%d] = %s, want %s", i, got[i], want[i])
		}
	}

	vs.SetVisibleLanes([]LaneID{"incidents"})
	if got := vs.VisibleLanes(); len(got) != 1 || got[0] != "incidents" {
		t.Errorf("after SetVisibleLanes: %v, want [incidents]", got)
	}
}

func TestViewState_ResolutionAndCentering(t *testing.T) {
	vs := NewViewState(testLanes(), ResolutionDay, at(2025, 6, 15, 0))

	if vs.SetResolution(ResolutionDay) {
		t.Error("SetResolution to the same value reported a change")
	}
	if vs.SetResolution(Resolution(9)) {
		t.Error("SetResolution accepted an invalid value")
	}

	if !vs.NeedsInitialCenter() {
		t.Error("initial centering should be pending")
	}
	vs.MarkCentered()
	if vs.NeedsInitialCenter() {
		t.Error("initial centering still pending after MarkCentered")
	}
}

func TestPanOffset(t *testing.T) {
	g := DefaultGeometry()

	tests := []struct {
		res  Resolution
		days int
		want float64
	}{
		{ResolutionHour, 1, 24 * g.HourWidth},
		{ResolutionDay, -7, -7 * g.DayWidth},
		{ResolutionWeek, 7, 7 * g.WeekDayWidth},
	}

	for _, tt := range tests {
		t.Run(tt.res.String(), func(t *testing.T) {
			if got := PanOffset(tt.res, g, tt.days); got != tt.want {
				t.Errorf("PanOffset() = %v, want %v", got, tt.want)
			}
		})
	}
}

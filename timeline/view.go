// ABOUTME: View state: active resolution, visible lanes, and the fixed "today" anchor
// ABOUTME: Computes the scroll offset that centers today's column and the initial-centering latch

package timeline

import (
	"time"
)

// ViewState is owned by the event loop; it is not safe for concurrent use.
type ViewState struct {
	lanes      []Lane
	resolution Resolution
	visible    map[LaneID]bool
	today      time.Time
	centered   bool
}

// NewViewState shows every lane at res. today is fixed for the session.
func NewViewState(lanes []Lane, res Resolution, today time.Time) *ViewState {
	vs := &ViewState{
		lanes:      lanes,
		resolution: res,
		visible:    make(map[LaneID]bool, len(lanes)),
		today:      today,
	}

	for _, lane := range lanes {
		vs.visible[lane.ID] = true
	}

	return vs
}

// Resolution returns the active resolution
func (vs *ViewState) Resolution() Resolution {
	return vs.resolution
}

// SetResolution switches the active resolution and reports whether it changed.
// Callers rebuild the layout and recenter on today when it did.
func (vs *ViewState) SetResolution(r Resolution) bool {
	if !r.Valid() || r == vs.resolution {
		return false
	}

	vs.resolution = r

	return true
}

// Today returns the session's today anchor.
func (vs *ViewState) Today() time.Time {
	return vs.today
}

// Lanes returns the configured lanes in order
func (vs *ViewState) Lanes() []Lane {
	return vs.lanes
}

// IsLaneVisible reports whether a lane is currently shown.
func (vs *ViewState) IsLaneVisible(id LaneID) bool {
	return vs.visible[id]
}

// ToggleLane flips a lane's visibility and returns the new state.
// Unknown lanes are ignored.
func (vs *ViewState) ToggleLane(id LaneID) bool {
	if _, ok := vs.visible[id]; !ok {
		return false
	}

	vs.visible[id] = !vs.visible[id]

	return vs.visible[id]
}

// SetVisibleLanes shows exactly the given lanes.
func (vs *ViewState) SetVisibleLanes(ids []LaneID) {
	show := make(map[LaneID]bool, len(ids))
	for _, id := range ids {
		show[id] = true
	}

	for id := range vs.visible {
		vs.visible[id] = show[id]
	}
}

// VisibleLanes returns the visible lane IDs in configuration order.
func (vs *ViewState) VisibleLanes() []LaneID {
	var ids []LaneID
	for _, lane := range vs.lanes {
		if vs.visible[lane.ID] {
			ids = append(ids, lane.ID)
		}
	}

	return ids
}

// Params returns the layout parameters for the current state.
func (vs *ViewState) Params(window TimeWindow, hourBandDays int) ViewParams {
	return ViewParams{
		Resolution:   vs.resolution,
		Window:       window,
		Today:        vs.today,
		HourBandDays: hourBandDays,
		Visible:      vs.IsLaneVisible,
	}
}

// NeedsInitialCenter reports whether the first centering is still pending.
func (vs *ViewState) NeedsInitialCenter() bool {
	return !vs.centered
}

// MarkCentered records that the initial centering ran.
func (vs *ViewState) MarkCentered() {
	vs.centered = true
}

// TodayCell returns the header cell containing today (the week bucket at week resolution).
func TodayCell(l *Layout) (HeaderCell, bool) {
	for _, cell := range l.Header {
		if cell.IsToday {
			return cell, true
		}
	}

	return HeaderCell{}, false
}

// CenterOn returns the scroll offset that puts the midpoint of today's
// column at the middle of a viewport clientWidth wide, clamped to the
// scrollable range.
func CenterOn(l *Layout, clientWidth float64) float64 {
	var mid float64
	if cell, ok := TodayCell(l); ok {
		mid = cell.Left + cell.Width/2
	} else {
		mid = l.Scale.ToPixel(l.Today)
	}

	vp := ViewportState{ClientWidth: clientWidth, ScrollWidth: l.ScrollWidth}

	return vp.ClampScroll(mid - clientWidth/2)
}

// PanOffset returns the pixel distance of days calendar days at res.
func PanOffset(res Resolution, g Geometry, days int) float64 {
	switch res {
	case ResolutionHour:
		return float64(days) * 24 * g.HourWidth
	case ResolutionWeek:
		return float64(days) * g.WeekDayWidth
	default:
		return float64(days) * g.DayWidth
	}
}

// ABOUTME: Resolution enum (hour/day/week) and the pixel geometry constants per resolution
// ABOUTME: Geometry is shared by the converter, the packer and the viewport tracker

package timeline

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Resolution is the time-per-pixel granularity of the view.
type Resolution int

const (
	ResolutionHour Resolution = iota
	ResolutionDay
	ResolutionWeek
)

// ErrUnknownResolution is returned by ParseResolution for unrecognized names.
var ErrUnknownResolution = errors.New("unknown resolution")

// Resolutions lists every resolution in zoom order (finest first)
var Resolutions = []Resolution{ResolutionHour, ResolutionDay, ResolutionWeek}

func (r Resolution) String() string {
	switch r {
	case ResolutionHour:
		return "hour"
	case ResolutionDay:
		return "day"
	case ResolutionWeek:
		return "week"
	default:
		return fmt.Sprintf("Resolution(%d)", int(r))
	}
}

// Next returns the following resolution, wrapping from week back to hour.
func (r Resolution) Next() Resolution {
	return Resolution((int(r) + 1) % len(Resolutions))
}

// Valid reports whether r is one of the known resolutions
func (r Resolution) Valid() bool {
	return r >= ResolutionHour && r <= ResolutionWeek
}

// ParseResolution converts "hour", "day" or "week" (case-insensitive) into a Resolution.
func ParseResolution(s string) (Resolution, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "hour", "h":
		return ResolutionHour, nil
	case "day", "d":
		return ResolutionDay, nil
	case "week", "w":
		return ResolutionWeek, nil
	}

	return ResolutionDay, fmt.Errorf("%w: %q", ErrUnknownResolution, s)
}

// Geometry holds the pixel constants used to lay out the timeline.
type Geometry struct {
	HourWidth    float64 // Pixels per hour at hour resolution
	DayWidth     float64 // Pixels per day at day resolution
	WeekDayWidth float64 // Pixels per day at week resolution (a week spans one DayWidth by default)

	ItemHeight    float64
	ItemGap       float64
	HeaderPadding float64 // Space above the first row of a lane
	FooterPadding float64 // Space below the last row of a lane

	LabelPadding  float64 // Inset applied to header labels before the full-visibility test
	MinLabelWidth float64 // Item labels narrower than this (after clipping) are suppressed
	MinItemWidth  float64 // Lower bound for item widths so zero-length items stay clickable
}

// DefaultGeometry returns pixel geometry suited to a browser-like surface.
func DefaultGeometry() Geometry {
	return Geometry{
		HourWidth:     60,
		DayWidth:      120,
		WeekDayWidth:  120.0 / 7,
		ItemHeight:    28,
		ItemGap:       4,
		HeaderPadding: 8,
		FooterPadding: 8,
		LabelPadding:  4,
		MinLabelWidth: 80,
		MinItemWidth:  1,
	}
}

// Normalize fills zero fields with usable values.
func (g Geometry) Normalize() Geometry {
	def := DefaultGeometry()

	if g.HourWidth <= 0 {
		g.HourWidth = def.HourWidth
	}
	if g.DayWidth <= 0 {
		g.DayWidth = def.DayWidth
	}
	if g.WeekDayWidth <= 0 {
		g.WeekDayWidth = g.DayWidth / 7
	}
	if g.ItemHeight <= 0 {
		g.ItemHeight = 1
	}
	if g.MinItemWidth <= 0 {
		g.MinItemWidth = 1
	}
	if g.ItemGap < 0 {
		g.ItemGap = 0
	}

	return g
}

// UnitWidth returns the pixel width of one resolution unit.
// Week resolution uses days as its unit.
func (g Geometry) UnitWidth(r Resolution) float64 {
	switch r {
	case ResolutionHour:
		return g.HourWidth
	case ResolutionWeek:
		return g.WeekDayWidth
	default:
		return g.DayWidth
	}
}

// RowPitch is the vertical distance between two consecutive rows
func (g Geometry) RowPitch() float64 {
	return g.ItemHeight + g.ItemGap
}

// unit returns the nominal duration of one resolution unit
func (r Resolution) unit() time.Duration {
	if r == ResolutionHour {
		return time.Hour
	}

	return 24 * time.Hour
}

// ABOUTME: Pure time <-> pixel conversion for a given origin and resolution
// ABOUTME: Also produces header cells and ISO week buckets clipped to a range

package timeline

import (
	"fmt"
	"math"
	"time"
)

// floorEpsilon absorbs float error when converting pixels back to units
const floorEpsilon = 1e-9

// Scale maps instants to pixel offsets relative to Origin.
// A Scale holds no mutable state and may be copied freely.
type Scale struct {
	Origin     time.Time
	Resolution Resolution
	Geometry   Geometry
}

// NewScale returns a scale whose origin is the start of the origin's day.
func NewScale(origin time.Time, res Resolution, g Geometry) Scale {
	return Scale{Origin: startOfDay(origin), Resolution: res, Geometry: g}
}

// Unit returns the nominal duration of one unit at the scale's resolution.
func (s Scale) Unit() time.Duration {
	return s.Resolution.unit()
}

// UnitWidth returns the pixel width of one unit.
func (s Scale) UnitWidth() float64 {
	return s.Geometry.UnitWidth(s.Resolution)
}

// ToPixel converts an instant into a pixel offset from the origin.
// Day and week resolutions count local calendar days, so DST days keep
// their full column width.
func (s Scale) ToPixel(t time.Time) float64 {
	if s.Resolution == ResolutionHour {
		return t.Sub(s.Origin).Hours() * s.Geometry.HourWidth
	}

	t = t.In(s.Origin.Location())
	day := startOfDay(t)
	dayLen := day.AddDate(0, 0, 1).Sub(day)
	frac := float64(t.Sub(day)) / float64(dayLen)

	return (float64(daysBetween(s.Origin, day)) + frac) * s.UnitWidth()
}

// ToInstant converts a pixel offset back into the start of the unit it falls in.
func (s Scale) ToInstant(px float64) time.Time {
	units := int(math.Floor(px/s.UnitWidth() + floorEpsilon))

	if s.Resolution == ResolutionHour {
		return s.Origin.Add(time.Duration(units) * time.Hour)
	}

	return s.Origin.AddDate(0, 0, units)
}

// Floor truncates t to the start of its unit.
func (s Scale) Floor(t time.Time) time.Time {
	if s.Resolution == ResolutionHour {
		d := t.Sub(s.Origin)
		n := d / time.Hour
		if d < 0 && d%time.Hour != 0 {
			n--
		}
		return s.Origin.Add(n * time.Hour)
	}

	return startOfDay(t.In(s.Origin.Location()))
}

// Ceil rounds t up to the next unit boundary (t itself when already aligned).
func (s Scale) Ceil(t time.Time) time.Time {
	f := s.Floor(t)
	if f.Equal(t) {
		return f
	}

	return s.next(f)
}

// next advances a unit-aligned instant by one unit
func (s Scale) next(t time.Time) time.Time {
	if s.Resolution == ResolutionHour {
		return t.Add(time.Hour)
	}

	return t.AddDate(0, 0, 1)
}

// Span returns the left offset and width of [start, end).
// The width is not clamped; callers apply MinItemWidth.
func (s Scale) Span(start, end time.Time) (left, width float64) {
	left = s.ToPixel(start)
	return left, s.ToPixel(end) - left
}

// Width returns the pixel width of a whole range at this scale.
func (s Scale) Width(r TimeWindow) float64 {
	return s.ToPixel(r.Max) - s.ToPixel(r.Min)
}

// WeekBucket describes one ISO week column at week resolution.
type WeekBucket struct {
	WeekStart     time.Time // Monday 00:00 of the week (may precede the range)
	ISOWeek       int
	Year          int // ISO year owning the week
	IsCurrentWeek bool
	DaysInRange   int // Days of this week inside the range
	Left          float64
	Width         float64
}

// weekStart returns Monday 00:00 of t's ISO week
func weekStart(t time.Time) time.Time {
	day := startOfDay(t)
	offset := (int(day.Weekday()) + 6) % 7

	return day.AddDate(0, 0, -offset)
}

// WeekBuckets splits rng into ISO weeks. Weeks clipped by the range edges
// report only their in-range days and are narrowed accordingly.
func (s Scale) WeekBuckets(rng TimeWindow, today time.Time) []WeekBucket {
	if !rng.Max.After(rng.Min) {
		return nil
	}

	current := weekStart(today)
	var buckets []WeekBucket

	for ws := weekStart(rng.Min); ws.Before(rng.Max); ws = ws.AddDate(0, 0, 7) {
		start, end := rng.Clip(ws, ws.AddDate(0, 0, 7))
		days := daysBetween(start, end)
		if days <= 0 {
			continue
		}

		year, week := ws.ISOWeek()
		left := s.ToPixel(start)
		buckets = append(buckets, WeekBucket{
			WeekStart:     ws,
			ISOWeek:       week,
			Year:          year,
			IsCurrentWeek: ws.Equal(current),
			DaysInRange:   days,
			Left:          left,
			Width:         float64(days) * s.Geometry.WeekDayWidth,
		})
	}

	return buckets
}

// HeaderCell is one column of the time header.
type HeaderCell struct {
	Label   string
	Start   time.Time
	End     time.Time
	Left    float64
	Width   float64
	IsToday bool // The cell contains today
}

// Right returns the cell's right edge
func (c HeaderCell) Right() float64 {
	return c.Left + c.Width
}

// HeaderCells returns one cell per unit of rng: hours, days, or ISO weeks.
func (s Scale) HeaderCells(rng TimeWindow, today time.Time) []HeaderCell {
	if !rng.Max.After(rng.Min) {
		return nil
	}

	if s.Resolution == ResolutionWeek {
		buckets := s.WeekBuckets(rng, today)
		cells := make([]HeaderCell, 0, len(buckets))
		for _, b := range buckets {
			start, end := rng.Clip(b.WeekStart, b.WeekStart.AddDate(0, 0, 7))
			cells = append(cells, HeaderCell{
				Label:   fmt.Sprintf("W%02d", b.ISOWeek),
				Start:   start,
				End:     end,
				Left:    b.Left,
				Width:   b.Width,
				IsToday: b.IsCurrentWeek,
			})
		}
		return cells
	}

	var cells []HeaderCell
	for t := s.Floor(rng.Min); t.Before(rng.Max); t = s.next(t) {
		start, end := rng.Clip(t, s.next(t))
		left, width := s.Span(start, end)

		cells = append(cells, HeaderCell{
			Label:   s.cellLabel(t),
			Start:   start,
			End:     end,
			Left:    left,
			Width:   width,
			IsToday: !today.Before(t) && today.Before(s.next(t)),
		})
	}

	return cells
}

func (s Scale) cellLabel(t time.Time) string {
	if s.Resolution == ResolutionHour {
		if t.Hour() == 0 {
			return t.Format("Jan 2")
		}
		return t.Format("15h")
	}

	return t.Format("Mon 2")
}

// ABOUTME: Core data model for the timeline engine: lanes, items and time windows
// ABOUTME: Items are read-only copies of provider records; lanes are fixed at startup

// Package timeline implements the multi-resolution lane timeline engine:
// time/pixel conversion, row packing, the extendable data window, scroll
// anchoring and viewport-driven visibility.
package timeline

import (
	"context"
	"time"
)

// LaneID identifies one of the fixed lanes.
type LaneID string

// Lane is a static lane configuration entry
type Lane struct {
	ID         LaneID
	Label      string
	BaseHeight float64 // Height used when the lane has no rows
	Style      string  // Color/style token interpreted by the renderer
}

// Item is a single time-bounded record supplied by a Provider.
type Item struct {
	ID          string
	Lane        LaneID
	Title       string
	Description string
	Start       time.Time
	End         time.Time
	Location    string
	Status      string
}

// Normalize returns a copy of the item with End >= Start.
// Items whose end precedes their start get a duration of one unit.
// The second return value reports whether the item was changed.
func (it Item) Normalize(unit time.Duration) (Item, bool) {
	if it.End.Before(it.Start) {
		it.End = it.Start.Add(unit)
		return it, true
	}

	return it, false
}

// Overlaps reports whether the item's interval intersects [from, to).
// Zero-duration items are treated as occupying their start instant.
func (it Item) Overlaps(from, to time.Time) bool {
	end := it.End
	if !end.After(it.Start) {
		end = it.Start.Add(time.Nanosecond)
	}

	return it.Start.Before(to) && end.After(from)
}

// Provider supplies items for a date range.
// Implementations must be idempotent: repeated calls for the same or
// overlapping ranges return consistent items.
type Provider interface {
	FetchItems(ctx context.Context, minDate, maxDate time.Time) ([]Item, error)
}

// ProviderFunc adapts a plain function to the Provider interface
type ProviderFunc func(ctx context.Context, minDate, maxDate time.Time) ([]Item, error)

// FetchItems calls f.
func (f ProviderFunc) FetchItems(ctx context.Context, minDate, maxDate time.Time) ([]Item, error) {
	return f(ctx, minDate, maxDate)
}

// TimeWindow is a half-open time range [Min, Max).
type TimeWindow struct {
	Min time.Time
	Max time.Time
}

// Contains reports whether t falls inside the window
func (w TimeWindow) Contains(t time.Time) bool {
	return !t.Before(w.Min) && t.Before(w.Max)
}

// Overlaps reports whether [start, end) intersects the window.
func (w TimeWindow) Overlaps(start, end time.Time) bool {
	return start.Before(w.Max) && end.After(w.Min)
}

// Clip clamps [start, end) into the window.
func (w TimeWindow) Clip(start, end time.Time) (time.Time, time.Time) {
	if start.Before(w.Min) {
		start = w.Min
	}

	if end.After(w.Max) {
		end = w.Max
	}

	return start, end
}

// Days returns the number of calendar days covered by the window.
func (w TimeWindow) Days() int {
	return daysBetween(w.Min, w.Max)
}

// IsZero reports whether the window has not been initialized
func (w TimeWindow) IsZero() bool {
	return w.Min.IsZero() && w.Max.IsZero()
}

// InitialWindow returns a window of spanWeeks on either side of today's date.
func InitialWindow(today time.Time, spanWeeks int) TimeWindow {
	day := startOfDay(today)

	return TimeWindow{
		Min: day.AddDate(0, 0, -7*spanWeeks),
		Max: day.AddDate(0, 0, 7*spanWeeks),
	}
}

// EffectiveRange returns the range actually rendered at a resolution.
// Hour resolution is narrowed to a band of bandDays around today; the band
// is clipped to the loaded window.
func EffectiveRange(window TimeWindow, res Resolution, today time.Time, bandDays int) TimeWindow {
	if res != ResolutionHour {
		return window
	}

	day := startOfDay(today)
	band := TimeWindow{
		Min: day.AddDate(0, 0, -bandDays),
		Max: day.AddDate(0, 0, bandDays+1),
	}

	band.Min, band.Max = window.Clip(band.Min, band.Max)
	if !band.Max.After(band.Min) {
		return window
	}

	return band
}

// startOfDay truncates t to local midnight in its own location
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// daysBetween counts calendar days from a to b (negative when b precedes a).
// Rounding absorbs DST shifts of an hour.
func daysBetween(a, b time.Time) int {
	da := startOfDay(a)
	db := startOfDay(b.In(a.Location()))
	hours := db.Sub(da).Hours()

	if hours >= 0 {
		return int((hours + 12) / 24)
	}

	return -int((-hours + 12) / 24)
}

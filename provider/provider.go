// ABOUTME: Shared helpers for item providers: range filtering, logging and sentinel errors
// ABOUTME: Every provider here implements timeline.Provider and is safe to call repeatedly

// Package provider contains the item sources feeding the timeline: a
// deterministic demo generator, ICS calendars, YAML item files, a fan-out
// over several providers and a file watcher that signals source changes.
package provider

import (
	"errors"
	"time"

	"timeline-lanes/timeline"
)

// ErrEmptySource is returned when a source yields no data at all
var ErrEmptySource = errors.New("empty source")

// Logf is the injected debug logger signature
type Logf func(format string, args ...any)

func (l Logf) printf(format string, args ...any) {
	if l != nil {
		l(format, args...)
	}
}

// overlapping keeps items that intersect [minDate, maxDate)
func overlapping(items []timeline.Item, minDate, maxDate time.Time) []timeline.Item {
	out := items[:0:0]
	for _, it := range items {
		if it.Overlaps(minDate, maxDate) {
			out = append(out, it)
		}
	}

	return out
}

// ABOUTME: Deterministic synthetic item generator used when no real sources are configured
// ABOUTME: Items are derived from the calendar day and lane, so overlapping ranges agree

package provider

import (
	"context"
	"fmt"
	"hash/fnv"
	"math/rand"
	"time"

	"timeline-lanes/timeline"
)

// maxDemoSpanDays bounds how far back a generated item can start and still
// reach into a requested range
const maxDemoSpanDays = 45

// Demo generates items for every lane. The same seed and day always produce
// the same items, so repeated or widening fetches stay consistent.
type Demo struct {
	Lanes    []timeline.Lane
	Seed     int64
	Delay    time.Duration // Simulated fetch latency
	Location *time.Location
}

var demoTitles = map[int][]string{
	0: {"Standup", "Design review", "Customer call", "Planning", "Retro", "1:1", "Workshop", "Demo day"},
	1: {"Migration", "Onboarding revamp", "Search v2", "Billing cleanup", "Mobile beta", "Data export"},
	2: {"Release", "Hotfix", "Feature freeze", "Beta cut"},
	3: {"API latency", "Queue backlog", "Login errors", "Disk pressure", "DNS outage"},
}

var demoStatuses = []string{"confirmed", "tentative", "done", "planned"}

// FetchItems returns generated items overlapping [minDate, maxDate).
func (d Demo) FetchItems(ctx context.Context, minDate, maxDate time.Time) ([]timeline.Item, error) {
	if d.Delay > 0 {
		select {
		case <-time.After(d.Delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}

	loc := d.Location
	if loc == nil {
		loc = time.Local
	}

	first := dayStart(minDate.In(loc)).AddDate(0, 0, -maxDemoSpanDays)
	last := maxDate.In(loc)

	var items []timeline.Item
	for day := first; day.Before(last); day = day.AddDate(0, 0, 1) {
		for i, lane := range d.Lanes {
			items = append(items, d.itemsForDay(lane, i%4, day)...)
		}
	}

	return overlapping(items, minDate, maxDate), nil
}

func (d Demo) itemsForDay(lane timeline.Lane, profile int, day time.Time) []timeline.Item {
	key := day.Format(time.DateOnly)
	rng := rand.New(rand.NewSource(d.seedFor(lane.ID, key)))
	titles := demoTitles[profile]

	mk := func(n int, start, end time.Time) timeline.Item {
		return timeline.Item{
			ID:          fmt.Sprintf("%s-%s-%d", lane.ID, key, n),
			Lane:        lane.ID,
			Title:       titles[rng.Intn(len(titles))],
			Description: fmt.Sprintf("Generated %s item for %s", lane.Label, key),
			Start:       start,
			End:         end,
			Status:      demoStatuses[rng.Intn(len(demoStatuses))],
		}
	}

	var out []timeline.Item

	switch profile {
	case 0: // meetings: a few short items on weekdays
		if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
			return nil
		}
		for n := range rng.Intn(3) {
			start := day.Add(time.Duration(8+rng.Intn(9)) * time.Hour)
			out = append(out, mk(n, start, start.Add(time.Duration(1+rng.Intn(3))*time.Hour)))
		}
	case 1: // projects: long spans starting now and then
		if rng.Intn(6) == 0 {
			out = append(out, mk(0, day, day.AddDate(0, 0, 5+rng.Intn(maxDemoSpanDays-5))))
		}
	case 2: // releases: zero-length milestones on Thursdays
		if day.Weekday() == time.Thursday && rng.Intn(2) == 0 {
			at := day.Add(15 * time.Hour)
			out = append(out, mk(0, at, at))
		}
	default: // incidents: rare, from half an hour to two days
		if rng.Intn(8) == 0 {
			start := day.Add(time.Duration(rng.Intn(24)) * time.Hour)
			out = append(out, mk(0, start, start.Add(time.Duration(30+rng.Intn(48*60))*time.Minute)))
		}
	}

	return out
}

func (d Demo) seedFor(lane timeline.LaneID, day string) int64 {
	h := fnv.New64a()
	_, _ = h.Write([]byte(lane))
	_, _ = h.Write([]byte(day))

	return int64(h.Sum64()) ^ d.Seed
}

func dayStart(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// ABOUTME: ICS calendar provider: parses VEVENTs and expands recurrences inside the requested range
// ABOUTME: Each source feeds one lane; RRULE/EXDATE/RECURRENCE-ID are honored, cancelled instances skipped

package provider

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	"timeline-lanes/timeline"
)

const defaultMaxOccurrences = 5000

// ICSSource binds one calendar (path or URL) to a lane
type ICSSource struct {
	Lane     timeline.LaneID
	Location string // File path or http(s) URL
}

// vevent is the normalized form of one VEVENT
type vevent struct {
	UID         string
	Summary     string
	Description string
	Location    string
	Status      string

	Start  time.Time
	End    time.Time
	AllDay bool

	RRule        string
	ExDates      []time.Time
	RecurrenceID *time.Time
}

type parsedSource struct {
	sum    [sha256.Size]byte
	events []vevent
}

// ICS reads calendars and turns their events into timeline items.
type ICS struct {
	Sources        []ICSSource
	MaxOccurrences int // Per event cap on expanded instances
	Fetcher        *Fetcher
	Logf           Logf

	mu     sync.Mutex
	parsed map[string]parsedSource
}

// NewICS creates a provider for the given sources
func NewICS(sources []ICSSource, logf Logf) *ICS {
	return &ICS{
		Sources: sources,
		Fetcher: NewFetcher(logf),
		Logf:    logf,
		parsed:  make(map[string]parsedSource),
	}
}

// FetchItems loads every source and expands its events over [minDate, maxDate).
// Sources that fail are logged and skipped; an error is returned only when
// all of them failed.
func (p *ICS) FetchItems(ctx context.Context, minDate, maxDate time.Time) ([]timeline.Item, error) {
	var (
		items []timeline.Item
		errs  []error
	)

	for _, src := range p.Sources {
		events, err := p.load(ctx, src)
		if err != nil {
			p.Logf.printf("ics: source %s for lane %s: %v", redactLocation(src.Location), src.Lane, err)
			errs = append(errs, err)
			continue
		}

		items = append(items, p.expand(src.Lane, events, minDate, maxDate)...)
	}

	if len(errs) > 0 && len(errs) == len(p.Sources) {
		return nil, errors.Join(errs...)
	}

	return items, nil
}

func (p *ICS) load(ctx context.Context, src ICSSource) ([]vevent, error) {
	body, err := p.Fetcher.Load(ctx, src.Location)
	if err != nil {
		return nil, err
	}

	sum := sha256.Sum256(body)

	p.mu.Lock()
	if p.parsed == nil {
		p.parsed = make(map[string]parsedSource)
	}
	cached, ok := p.parsed[src.Location]
	p.mu.Unlock()

	if ok && cached.sum == sum {
		return cached.events, nil
	}

	events, err := parseICS(body, p.Logf)
	if err != nil {
		return nil, err
	}

	p.mu.Lock()
	p.parsed[src.Location] = parsedSource{sum: sum, events: events}
	p.mu.Unlock()

	return events, nil
}

func redactLocation(loc string) string {
	if isURL(loc) {
		return redactURL(loc)
	}

	return loc
}

// parseICS decodes every VEVENT; malformed events are logged and skipped
func parseICS(body []byte, logf Logf) ([]vevent, error) {
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, ErrEmptySource
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse calendar: %w", err)
	}

	var events []vevent
	for _, ve := range cal.Events() {
		ev, err := parseVEvent(ve)
		if err != nil {
			logf.printf("ics: skipping event: %v", err)
			continue
		}
		events = append(events, ev)
	}

	return events, nil
}

func propValue(ve *ical.VEvent, prop ical.ComponentProperty) string {
	if p := ve.GetProperty(prop); p != nil {
		return p.Value
	}

	return ""
}

func parseVEvent(ve *ical.VEvent) (vevent, error) {
	var ev vevent

	ev.UID = propValue(ve, ical.ComponentPropertyUniqueId)
	if ev.UID == "" {
		return ev, errors.New("missing UID")
	}

	ev.Summary = propValue(ve, ical.ComponentPropertySummary)
	ev.Description = propValue(ve, ical.ComponentPropertyDescription)
	ev.Location = propValue(ve, ical.ComponentPropertyLocation)
	ev.Status = strings.ToLower(propValue(ve, ical.ComponentPropertyStatus))
	ev.RRule = propValue(ve, ical.ComponentPropertyRrule)

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil {
		return ev, fmt.Errorf("event %s: missing DTSTART", ev.UID)
	}

	ev.AllDay = isDateValue(dtStart.Value, dtStart.ICalParameters)

	var err error
	if ev.AllDay {
		ev.Start, err = ve.GetAllDayStartAt()
	} else {
		ev.Start, err = ve.GetStartAt()
	}
	if err != nil {
		return ev, fmt.Errorf("event %s: DTSTART: %w", ev.UID, err)
	}

	if ev.AllDay {
		ev.End, err = ve.GetAllDayEndAt()
		if err != nil {
			ev.End = ev.Start.AddDate(0, 0, 1)
		}
	} else {
		ev.End, err = ve.GetEndAt()
		if err != nil {
			ev.End = ev.Start
		}
	}

	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		loc := paramLocation(p.ICalParameters, ev.Start.Location())
		for _, part := range strings.Split(p.Value, ",") {
			if t, err := parseICSTime(part, loc); err == nil {
				ev.ExDates = append(ev.ExDates, t)
			}
		}
	}

	if rid := ve.GetProperty(ical.ComponentPropertyRecurrenceId); rid != nil {
		loc := paramLocation(rid.ICalParameters, ev.Start.Location())
		if t, err := parseICSTime(rid.Value, loc); err == nil {
			ev.RecurrenceID = &t
		}
	}

	return ev, nil
}

func isDateValue(value string, params map[string][]string) bool {
	if vs, ok := params["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}

	return !strings.Contains(value, "T")
}

func paramLocation(params map[string][]string, fallback *time.Location) *time.Location {
	if tz, ok := params["TZID"]; ok && len(tz) > 0 {
		if loc, err := time.LoadLocation(tz[0]); err == nil {
			return loc
		}
	}

	return fallback
}

// parseICSTime handles the DATE, local DATE-TIME and UTC DATE-TIME forms
func parseICSTime(v string, loc *time.Location) (time.Time, error) {
	v = strings.TrimSpace(v)
	switch {
	case v == "":
		return time.Time{}, errors.New("empty time value")
	case strings.HasSuffix(v, "Z"):
		return time.Parse("20060102T150405Z", v)
	case strings.Contains(v, "T"):
		return time.ParseInLocation("20060102T150405", v, loc)
	default:
		return time.ParseInLocation("20060102", v, loc)
	}
}

// expand turns parsed events into items overlapping [minDate, maxDate)
func (p *ICS) expand(lane timeline.LaneID, events []vevent, minDate, maxDate time.Time) []timeline.Item {
	overrides := make(map[string][]vevent)
	for _, ev := range events {
		if ev.RecurrenceID != nil {
			overrides[ev.UID] = append(overrides[ev.UID], ev)
		}
	}

	limit := p.MaxOccurrences
	if limit <= 0 {
		limit = defaultMaxOccurrences
	}

	var items []timeline.Item
	for _, ev := range events {
		if ev.RecurrenceID != nil {
			continue
		}

		for _, occ := range occurrences(ev, minDate, maxDate, limit, p.Logf) {
			inst := ev
			start, end := occ, occ.Add(ev.End.Sub(ev.Start))

			if o, ok := findOverride(overrides[ev.UID], occ); ok {
				inst, start, end = o, o.Start, o.End
			}

			if inst.Status == "cancelled" {
				continue
			}

			it := timeline.Item{
				ID:          ev.UID + "@" + occ.UTC().Format(time.RFC3339),
				Lane:        lane,
				Title:       inst.Summary,
				Description: inst.Description,
				Start:       start,
				End:         end,
				Location:    inst.Location,
				Status:      inst.Status,
			}

			if it.Overlaps(minDate, maxDate) {
				items = append(items, it)
			}
		}
	}

	return items
}

// occurrences returns the start instants of ev whose instance can touch the range
func occurrences(ev vevent, minDate, maxDate time.Time, limit int, logf Logf) []time.Time {
	if ev.RRule == "" {
		return []time.Time{ev.Start}
	}

	r, err := rrule.StrToRRule(ev.RRule)
	if err != nil {
		logf.printf("ics: event %s: bad RRULE %q: %v", ev.UID, ev.RRule, err)
		return []time.Time{ev.Start}
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	// Instances starting up to one duration before the range still overlap it
	from := minDate.Add(-ev.End.Sub(ev.Start)).In(ev.Start.Location())
	times := set.Between(from, maxDate.In(ev.Start.Location()), true)

	if len(times) > limit {
		logf.printf("ics: event %s capped at %d occurrences", ev.UID, limit)
		times = times[:limit]
	}

	return times
}

func findOverride(overrides []vevent, start time.Time) (vevent, bool) {
	for _, o := range overrides {
		if o.RecurrenceID.Equal(start) {
			return o, true
		}
	}

	return vevent{}, false
}

// ABOUTME: YAML item file provider: a hand-maintained list of items across lanes
// ABOUTME: Times accept RFC3339, "2006-01-02 15:04" or plain dates in the local zone

package provider

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"timeline-lanes/timeline"
)

// yamlItem is one entry of an items file
type yamlItem struct {
	ID          string `yaml:"id"`
	Lane        string `yaml:"lane"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`
	Start       string `yaml:"start"`
	End         string `yaml:"end"`
	Location    string `yaml:"location"`
	Status      string `yaml:"status"`
}

// yamlDoc is the top-level file shape
type yamlDoc struct {
	Lane  string     `yaml:"lane"` // Default lane for items without one
	Items []yamlItem `yaml:"items"`
}

// YAMLFile serves items from a YAML file, re-read on every fetch.
type YAMLFile struct {
	Path     string
	Location *time.Location
	Logf     Logf
}

var yamlTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04",
	"2006-01-02 15:04",
	time.DateOnly,
}

// FetchItems returns the file's items overlapping [minDate, maxDate).
func (y YAMLFile) FetchItems(_ context.Context, minDate, maxDate time.Time) ([]timeline.Item, error) {
	items, err := y.Load()
	if err != nil {
		return nil, err
	}

	return overlapping(items, minDate, maxDate), nil
}

// Load parses the whole file. Entries with unparseable times are logged and skipped.
func (y YAMLFile) Load() ([]timeline.Item, error) {
	data, err := os.ReadFile(y.Path)
	if err != nil {
		return nil, fmt.Errorf("read items file: %w", err)
	}

	var doc yamlDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse items file %s: %w", y.Path, err)
	}

	loc := y.Location
	if loc == nil {
		loc = time.Local
	}

	base := strings.TrimSuffix(filepath.Base(y.Path), filepath.Ext(y.Path))
	items := make([]timeline.Item, 0, len(doc.Items))

	seen := make(map[string]bool, len(doc.Items))
	for i, raw := range doc.Items {
		start, err := parseYAMLTime(raw.Start, loc)
		if err != nil {
			y.Logf.printf("items %s: entry %d: start: %v", y.Path, i, err)
			continue
		}

		end := start
		if raw.End != "" {
			if end, err = parseYAMLTime(raw.End, loc); err != nil {
				y.Logf.printf("items %s: entry %d: end: %v", y.Path, i, err)
				continue
			}
		}

		lane := raw.Lane
		if lane == "" {
			lane = doc.Lane
		}

		id := raw.ID
		if id == "" {
			id = fmt.Sprintf("%s#%d", base, i)
		}

		if seen[id] {
			y.Logf.printf("items %s: entry %d: duplicate id %q", y.Path, i, id)
			continue
		}
		seen[id] = true

		items = append(items, timeline.Item{
			ID:          id,
			Lane:        timeline.LaneID(lane),
			Title:       raw.Title,
			Description: raw.Description,
			Start:       start,
			End:         end,
			Location:    raw.Location,
			Status:      raw.Status,
		})
	}

	return items, nil
}

func parseYAMLTime(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("missing time")
	}

	for _, layout := range yamlTimeLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("unrecognized time %q", s)
}

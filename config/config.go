// ABOUTME: Configuration management for lanes, sources, geometry and window tuning
// ABOUTME: Handles loading/saving TOML config files with fallback to defaults

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"

	"timeline-lanes/timeline"
)

// ErrInvalidConfig wraps every validation failure
var ErrInvalidConfig = errors.New("invalid config")

// Source kinds
const (
	SourceICS  = "ics"
	SourceYAML = "yaml"
)

// LaneConfig is one fixed lane
type LaneConfig struct {
	ID         string  `toml:"id"`
	Label      string  `toml:"label"`
	Style      string  `toml:"style"` // lipgloss color (ANSI number or hex)
	BaseHeight float64 `toml:"base_height"`
}

// SourceConfig is one item source feeding a lane (ics) or several lanes (yaml)
type SourceConfig struct {
	Kind string `toml:"kind"` // "ics" or "yaml"
	Lane string `toml:"lane"` // Target lane for ics sources
	Path string `toml:"path"`
	URL  string `toml:"url"`
}

// Location returns the path or URL of the source
func (s SourceConfig) Location() string {
	if s.URL != "" {
		return s.URL
	}

	return s.Path
}

// GeometryConfig mirrors timeline.Geometry in TOML form.
// Units are terminal cells for the TUI and pixels for any other surface.
type GeometryConfig struct {
	HourWidth     float64 `toml:"hour_width"`
	DayWidth      float64 `toml:"day_width"`
	WeekDayWidth  float64 `toml:"week_day_width"` // 0 means day_width / 7
	ItemHeight    float64 `toml:"item_height"`
	ItemGap       float64 `toml:"item_gap"`
	HeaderPadding float64 `toml:"header_padding"`
	FooterPadding float64 `toml:"footer_padding"`
	LabelPadding  float64 `toml:"label_padding"`
	MinLabelWidth float64 `toml:"min_label_width"`
}

// Config holds every tunable setting of the application
type Config struct {
	Resolution string `toml:"resolution"` // hour, day or week
	Today      string `toml:"today"`      // Optional YYYY-MM-DD override of the today anchor

	// Data window
	InitialSpanWeeks int     `toml:"initial_span_weeks"`
	ExtendWeeks      int     `toml:"extend_weeks"`
	HourBandDays     int     `toml:"hour_band_days"`
	EdgeThreshold    float64 `toml:"edge_threshold"` // Fraction of the viewport width

	// Timers
	ScrollThrottleMs int    `toml:"scroll_throttle_ms"`
	ResizeDebounceMs int    `toml:"resize_debounce_ms"`
	Refresh          string `toml:"refresh"` // Cron expression; empty disables scheduled refresh

	Workers  int            `toml:"workers"` // Layout workers; 0 packs lanes sequentially
	Demo     bool           `toml:"demo"`    // Use generated items when no sources are configured
	Geometry GeometryConfig `toml:"geometry"`
	Lanes    []LaneConfig   `toml:"lanes"`
	Sources  []SourceConfig `toml:"sources"`
}

// GetConfigPath returns the default config file path
// First tries current directory, then falls back to ~/.config/timeline-lanes/config.toml
func GetConfigPath() string {
	if _, err := os.Stat("./timeline-lanes.toml"); err == nil {
		return "./timeline-lanes.toml"
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "./timeline-lanes.toml"
	}

	return filepath.Join(home, ".config", "timeline-lanes", "config.toml")
}

// LoadConfig loads configuration from a TOML file
// If the file doesn't exist or fails to load, returns default config
func LoadConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return DefaultConfig(), fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return DefaultConfig(), fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.Normalize()

	return cfg, nil
}

// SaveConfig saves configuration to a TOML file
func SaveConfig(path string, cfg Config) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			fmt.Printf("Warning: failed to close config file: %v\n", err)
		}
	}()

	encoder := toml.NewEncoder(f)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// DefaultLanes returns the four built-in lanes
func DefaultLanes() []LaneConfig {
	return []LaneConfig{
		{ID: "events", Label: "Events", Style: "39", BaseHeight: 2},
		{ID: "projects", Label: "Projects", Style: "170", BaseHeight: 2},
		{ID: "releases", Label: "Releases", Style: "214", BaseHeight: 2},
		{ID: "incidents", Label: "Incidents", Style: "203", BaseHeight: 2},
	}
}

// DefaultGeometry returns cell-based geometry for the terminal surface
func DefaultGeometry() GeometryConfig {
	return GeometryConfig{
		HourWidth:     6,
		DayWidth:      8,
		ItemHeight:    1,
		ItemGap:       0,
		HeaderPadding: 1,
		FooterPadding: 0,
		LabelPadding:  0,
		MinLabelWidth: 6,
	}
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Resolution:       "day",
		InitialSpanWeeks: 30,
		ExtendWeeks:      8,
		HourBandDays:     3,
		EdgeThreshold:    timeline.DefaultEdgeThreshold,
		ScrollThrottleMs: 150,
		ResizeDebounceMs: 50,
		Refresh:          "*/15 * * * *",
		Workers:          4,
		Demo:             true,
		Geometry:         DefaultGeometry(),
		Lanes:            DefaultLanes(),
	}
}

// Normalize fills in missing/zero values with defaults so partially
// filled config files still behave
func (c *Config) Normalize() {
	def := DefaultConfig()

	if strings.TrimSpace(c.Resolution) == "" {
		c.Resolution = def.Resolution
	}
	if c.InitialSpanWeeks <= 0 {
		c.InitialSpanWeeks = def.InitialSpanWeeks
	}
	if c.ExtendWeeks <= 0 {
		c.ExtendWeeks = def.ExtendWeeks
	}
	if c.HourBandDays <= 0 {
		c.HourBandDays = def.HourBandDays
	}
	if c.EdgeThreshold <= 0 || c.EdgeThreshold >= 0.5 {
		c.EdgeThreshold = def.EdgeThreshold
	}
	if c.ScrollThrottleMs <= 0 {
		c.ScrollThrottleMs = def.ScrollThrottleMs
	}
	if c.ResizeDebounceMs <= 0 {
		c.ResizeDebounceMs = def.ResizeDebounceMs
	}
	if c.Workers < 0 {
		c.Workers = 0
	}

	g := &c.Geometry
	dg := def.Geometry
	if g.HourWidth <= 0 {
		g.HourWidth = dg.HourWidth
	}
	if g.DayWidth <= 0 {
		g.DayWidth = dg.DayWidth
	}
	if g.ItemHeight <= 0 {
		g.ItemHeight = dg.ItemHeight
	}
	if g.MinLabelWidth <= 0 {
		g.MinLabelWidth = dg.MinLabelWidth
	}

	if len(c.Lanes) == 0 {
		c.Lanes = def.Lanes
	}
	for i := range c.Lanes {
		if c.Lanes[i].Label == "" {
			c.Lanes[i].Label = c.Lanes[i].ID
		}
		if c.Lanes[i].BaseHeight <= 0 {
			c.Lanes[i].BaseHeight = g.HeaderPadding + g.ItemHeight
		}
	}

	for i := range c.Sources {
		c.Sources[i].Kind = strings.ToLower(strings.TrimSpace(c.Sources[i].Kind))
		if c.Sources[i].Kind == "" {
			c.Sources[i].Kind = SourceICS
		}
	}
}

// Validate reports every problem found in the config
func (c Config) Validate() error {
	var errs []error

	if _, err := timeline.ParseResolution(c.Resolution); err != nil {
		errs = append(errs, err)
	}

	if _, _, err := c.TodayOverride(); err != nil {
		errs = append(errs, err)
	}

	lanes := make(map[string]bool, len(c.Lanes))
	for _, lane := range c.Lanes {
		switch {
		case lane.ID == "":
			errs = append(errs, errors.New("lane with empty id"))
		case lanes[lane.ID]:
			errs = append(errs, fmt.Errorf("duplicate lane %q", lane.ID))
		}
		lanes[lane.ID] = true
	}

	for i, src := range c.Sources {
		if src.Location() == "" {
			errs = append(errs, fmt.Errorf("source %d: no path or url", i))
		}

		switch src.Kind {
		case SourceICS:
			if !lanes[src.Lane] {
				errs = append(errs, fmt.Errorf("source %d: unknown lane %q", i, src.Lane))
			}
		case SourceYAML:
			if src.URL != "" {
				errs = append(errs, fmt.Errorf("source %d: yaml sources must be local files", i))
			}
		default:
			errs = append(errs, fmt.Errorf("source %d: unknown kind %q", i, src.Kind))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}

	return nil
}

// ParsedResolution returns the configured start resolution
func (c Config) ParsedResolution() (timeline.Resolution, error) {
	return timeline.ParseResolution(c.Resolution)
}

// TodayOverride parses the optional today field as a local date
func (c Config) TodayOverride() (time.Time, bool, error) {
	if strings.TrimSpace(c.Today) == "" {
		return time.Time{}, false, nil
	}

	t, err := time.ParseInLocation(time.DateOnly, strings.TrimSpace(c.Today), time.Local)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("today %q: %w", c.Today, err)
	}

	return t, true, nil
}

// TimelineGeometry converts the geometry section for the engine
func (c Config) TimelineGeometry() timeline.Geometry {
	g := c.Geometry

	return timeline.Geometry{
		HourWidth:     g.HourWidth,
		DayWidth:      g.DayWidth,
		WeekDayWidth:  g.WeekDayWidth,
		ItemHeight:    g.ItemHeight,
		ItemGap:       g.ItemGap,
		HeaderPadding: g.HeaderPadding,
		FooterPadding: g.FooterPadding,
		LabelPadding:  g.LabelPadding,
		MinLabelWidth: g.MinLabelWidth,
		MinItemWidth:  1,
	}.Normalize()
}

// TimelineLanes converts the lane section for the engine
func (c Config) TimelineLanes() []timeline.Lane {
	lanes := make([]timeline.Lane, len(c.Lanes))
	for i, l := range c.Lanes {
		lanes[i] = timeline.Lane{
			ID:         timeline.LaneID(l.ID),
			Label:      l.Label,
			BaseHeight: l.BaseHeight,
			Style:      l.Style,
		}
	}

	return lanes
}

// WindowConfig returns the data window sizing
func (c Config) WindowConfig() timeline.WindowConfig {
	return timeline.WindowConfig{
		InitialSpanWeeks: c.InitialSpanWeeks,
		ExtendWeeks:      c.ExtendWeeks,
	}
}

// ScrollThrottle returns the scroll recompute interval
func (c Config) ScrollThrottle() time.Duration {
	return time.Duration(c.ScrollThrottleMs) * time.Millisecond
}

// ResizeDebounce returns the resize settle delay
func (c Config) ResizeDebounce() time.Duration {
	return time.Duration(c.ResizeDebounceMs) * time.Millisecond
}

// ABOUTME: Shared initialization code for both modes (TUI and dump)
// ABOUTME: Provides debug logging, the -ics flag type and provider assembly from config and flags

package main

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"timeline-lanes/config"
	"timeline-lanes/provider"
	"timeline-lanes/timeline"
)

const debugLogFile = "timeline-lanes-debug.log"

var debugLog *log.Logger

// errNoSources is returned when neither sources nor demo data are configured
var errNoSources = errors.New("no item sources configured (use -demo, -ics or -items)")

// icsFlags collects repeated -ics lane=path arguments
type icsFlags []string

func (f *icsFlags) String() string {
	return strings.Join(*f, ",")
}

func (f *icsFlags) Set(v string) error {
	lane, loc, ok := strings.Cut(v, "=")
	if !ok || strings.TrimSpace(lane) == "" || strings.TrimSpace(loc) == "" {
		return fmt.Errorf("want lane=path, got %q", v)
	}

	*f = append(*f, v)

	return nil
}

// sources converts the flags into config source entries
func (f icsFlags) sources() []config.SourceConfig {
	out := make([]config.SourceConfig, 0, len(f))
	for _, v := range f {
		lane, loc, _ := strings.Cut(v, "=")
		src := config.SourceConfig{Kind: config.SourceICS, Lane: strings.TrimSpace(lane)}
		if strings.HasPrefix(loc, "http://") || strings.HasPrefix(loc, "https://") {
			src.URL = strings.TrimSpace(loc)
		} else {
			src.Path = strings.TrimSpace(loc)
		}
		out = append(out, src)
	}

	return out
}

// Sources is the assembled item provider plus the local files worth watching
type Sources struct {
	Provider   timeline.Provider
	WatchPaths []string
	Names      []string // Human readable source list for status output
}

// BuildSources assembles providers from config: one ICS provider for every
// calendar, one YAML provider per item file, and the demo generator when
// enabled. Several providers are merged with provider.Multi.
func BuildSources(cfg config.Config, lanes []timeline.Lane, logf provider.Logf) (Sources, error) {
	var (
		providers []timeline.Provider
		ics       []provider.ICSSource
		out       Sources
	)

	for _, src := range cfg.Sources {
		switch src.Kind {
		case config.SourceICS:
			ics = append(ics, provider.ICSSource{
				Lane:     timeline.LaneID(src.Lane),
				Location: src.Location(),
			})
			out.Names = append(out.Names, fmt.Sprintf("ics:%s=%s", src.Lane, src.Location()))
		case config.SourceYAML:
			providers = append(providers, provider.YAMLFile{Path: src.Path, Logf: logf})
			out.Names = append(out.Names, "yaml:"+src.Path)
		default:
			return Sources{}, fmt.Errorf("unknown source kind %q", src.Kind)
		}

		if src.URL == "" && src.Path != "" {
			out.WatchPaths = append(out.WatchPaths, src.Path)
		}
	}

	if len(ics) > 0 {
		providers = append([]timeline.Provider{provider.NewICS(ics, logf)}, providers...)
	}

	if cfg.Demo {
		providers = append(providers, provider.Demo{Lanes: lanes, Seed: 1})
		out.Names = append(out.Names, "demo")
	}

	switch len(providers) {
	case 0:
		return Sources{}, errNoSources
	case 1:
		out.Provider = providers[0]
	default:
		out.Provider = provider.Multi{Providers: providers, MaxWorkers: cfg.Workers, Logf: logf}
	}

	return out, nil
}

// resolveToday returns the configured today override or the current local date
func resolveToday(cfg config.Config) (time.Time, error) {
	t, ok, err := cfg.TodayOverride()
	if err != nil {
		return time.Time{}, err
	}

	if ok {
		// Midday keeps hour resolution centered inside the day
		return t.Add(12 * time.Hour), nil
	}

	return time.Now(), nil
}

// SetupDebugLog initializes debug logging
func SetupDebugLog(filename string) error {
	if err := InitDebugLog(filename); err != nil {
		return fmt.Errorf("failed to initialize debug log: %w", err)
	}

	fileInfo, _ := os.Stdout.Stat()
	if fileInfo != nil && (fileInfo.Mode()&os.ModeCharDevice) != 0 {
		fmt.Printf("Debug logging enabled: %s\n", filename)
	}

	return nil
}

// InitDebugLog initializes debug logging
func InitDebugLog(filename string) error {
	f, err := os.Create(filename)
	if err != nil {
		return fmt.Errorf("failed to create debug log file: %w", err)
	}

	debugLog = log.New(f, "", log.Ltime|log.Lmicroseconds)

	return nil
}

// debugf logs debug messages if enabled
func debugf(format string, args ...any) {
	if debugLog != nil {
		debugLog.Printf(format, args...)
	}
}

// truncate shortens string to maxLen runes, adding "..." if needed
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}

	if maxLen <= 3 {
		return string(r[:maxLen])
	}

	return string(r[:maxLen-3]) + "..."
}

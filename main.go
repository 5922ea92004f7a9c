// ABOUTME: Entry point for timeline-lanes application
// ABOUTME: Handles command-line parsing, profiling, and routing to TUI or dump mode

// Package main provides the entry point for timeline-lanes, a multi-lane timeline viewer for the terminal.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"runtime"
	"runtime/pprof"

	"github.com/charmbracelet/x/term"

	"timeline-lanes/config"
	"timeline-lanes/pool"
	"timeline-lanes/timeline"
	"timeline-lanes/tui"
)

func main() {
	os.Exit(run())
}

func run() int {
	var ics icsFlags

	configPath := flag.String("config", "", "config file (default ./timeline-lanes.toml or ~/.config/timeline-lanes/config.toml)")
	resolution := flag.String("resolution", "", "start resolution: hour, day or week")
	today := flag.String("today", "", "anchor today to this date (YYYY-MM-DD)")
	demo := flag.Bool("demo", false, "add generated demo items")
	items := flag.String("items", "", "YAML items file")
	flag.Var(&ics, "ics", "calendar source as lane=path-or-url (repeatable)")
	dump := flag.Bool("dump", false, "print the layout instead of starting the TUI")
	width := flag.Int("width", defaultDumpWidth, "viewport width in columns for -dump")
	debug := flag.Bool("debug", false, "enable debug logging to "+debugLogFile)
	cpuprofile := flag.String("cpuprofile", "", "write cpu profile to file")
	memprofile := flag.String("memprofile", "", "write memory profile to file")
	flag.Parse()

	if *cpuprofile != "" {
		stopCPUProfile := setupCPUProfile(*cpuprofile)
		defer stopCPUProfile()
	}

	if *memprofile != "" {
		defer writeMemoryProfile(*memprofile)
	}

	if *debug {
		if err := SetupDebugLog(debugLogFile); err != nil {
			log.Printf("Failed to setup debug log: %v", err)

			return 1
		}
	}

	path := *configPath
	if path == "" {
		path = config.GetConfigPath()
	}

	cfg, err := config.LoadConfig(path)
	if err != nil {
		log.Printf("Warning: %v, using defaults", err)
	}

	// Flags override the config file
	if *resolution != "" {
		cfg.Resolution = *resolution
	}
	if *today != "" {
		cfg.Today = *today
	}
	if *items != "" {
		cfg.Sources = append(cfg.Sources, config.SourceConfig{Kind: config.SourceYAML, Path: *items})
	}
	cfg.Sources = append(cfg.Sources, ics.sources()...)

	// Explicit sources replace the demo data unless -demo asks for both
	if *demo {
		cfg.Demo = true
	} else if len(cfg.Sources) > 0 {
		cfg.Demo = false
	}

	if err := cfg.Validate(); err != nil {
		log.Printf("Config error: %v", err)

		return 1
	}

	res, _ := cfg.ParsedResolution()

	anchor, err := resolveToday(cfg)
	if err != nil {
		log.Printf("Config error: %v", err)

		return 1
	}

	lanes := cfg.TimelineLanes()

	sources, err := BuildSources(cfg, lanes, debugf)
	if err != nil {
		log.Printf("Error: %v", err)

		return 1
	}

	var wp *pool.WorkerPool
	if cfg.Workers > 0 {
		wp = pool.NewSized(cfg.Workers, len(lanes))
		defer wp.Close()
	}

	builder := timeline.NewLayoutBuilder(lanes, cfg.TimelineGeometry(), wp)
	builder.Logf = debugf

	window := timeline.NewWindowManager(anchor, cfg.WindowConfig())
	window.Logf = debugf

	debugf("[MAIN] Sources: %v, today %s, resolution %s", sources.Names, anchor.Format("2006-01-02 15:04"), res)

	if *dump || !term.IsTerminal(os.Stdout.Fd()) {
		opts := DumpOptions{
			Resolution:   res,
			HourBandDays: cfg.HourBandDays,
			Width:        float64(*width),
			Sources:      sources.Names,
		}

		if err := RunDump(os.Stdout, opts, sources.Provider, window, builder, anchor); err != nil {
			log.Printf("Dump error: %v", err)

			return 1
		}

		return 0
	}

	var last *timeline.Item

	opts := tui.Options{
		Resolution:     res,
		HourBandDays:   cfg.HourBandDays,
		EdgeThreshold:  cfg.EdgeThreshold,
		ScrollThrottle: cfg.ScrollThrottle(),
		ResizeDebounce: cfg.ResizeDebounce(),
		Refresh:        cfg.Refresh,
		WatchPaths:     sources.WatchPaths,
	}

	deps := tui.Dependencies{
		Provider: sources.Provider,
		Window:   window,
		Builder:  builder,
		Today:    anchor,
		OnSelect: func(it timeline.Item) {
			debugf("[MAIN] Selected %s %q in %s", it.ID, it.Title, it.Lane)
			last = &it
		},
		Debugf: debugf,
	}

	if err := tui.Run(opts, deps); err != nil {
		log.Printf("TUI error: %v", err)

		return 1
	}

	if last != nil {
		fmt.Printf("Last selected: %s (%s – %s)\n", last.Title,
			last.Start.Format("Mon Jan 2 15:04"), last.End.Format("Mon Jan 2 15:04"))
	}

	return 0
}

// setupCPUProfile starts CPU profiling, returns cleanup function
func setupCPUProfile(filename string) func() {
	f, err := os.Create(filename)
	if err != nil {
		log.Fatalf("could not create CPU profile: %v", err)
	}

	if err := pprof.StartCPUProfile(f); err != nil {
		_ = f.Close()
		log.Fatalf("could not start CPU profile: %v", err)
	}

	return func() {
		pprof.StopCPUProfile()

		if err := f.Close(); err != nil {
			log.Printf("Warning: failed to close CPU profile: %v", err)
		}
	}
}

// writeMemoryProfile writes memory profile to file
func writeMemoryProfile(filename string) {
	f, err := os.Create(filename)
	if err != nil {
		log.Printf("could not create memory profile: %v", err)

		return
	}

	defer func() {
		if err := f.Close(); err != nil {
			log.Printf("Warning: failed to close memory profile: %v", err)
		}
	}()

	runtime.GC()

	if err := pprof.WriteHeapProfile(f); err != nil {
		log.Printf("could not write memory profile: %v", err)
	}
}

// ABOUTME: Tests for dump mode output
// ABOUTME: Runs RunDump against an in-memory provider and checks the printed tables

package main

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"timeline-lanes/config"
	"timeline-lanes/timeline"
)

func dumpFixture(t *testing.T, p timeline.Provider, res timeline.Resolution) (string, error) {
	t.Helper()

	cfg := config.DefaultConfig()
	today := time.Date(2025, 6, 15, 12, 0, 0, 0, time.Local)

	window := timeline.NewWindowManager(today, cfg.WindowConfig())
	builder := timeline.NewLayoutBuilder(cfg.TimelineLanes(), cfg.TimelineGeometry(), nil)

	var buf bytes.Buffer
	err := RunDump(&buf, DumpOptions{Resolution: res, HourBandDays: cfg.HourBandDays, Width: 120}, p, window, builder, today)

	return buf.String(), err
}

func TestRunDump(t *testing.T) {
	day := func(d, h int) time.Time {
		return time.Date(2025, 6, d, h, 0, 0, 0, time.Local)
	}

	p := timeline.ProviderFunc(func(_ context.Context, _, _ time.Time) ([]timeline.Item, error) {
		return []timeline.Item{
			{ID: "a", Lane: "projects", Title: "Migration", Start: day(10, 0), End: day(20, 0)},
			{ID: "b", Lane: "projects", Title: "Audit", Start: day(12, 0), End: day(14, 0)},
			{ID: "c", Lane: "events", Title: "Standup", Start: day(16, 9), End: day(16, 10)},
			{ID: "d", Lane: "nowhere", Title: "Lost", Start: day(15, 9), End: day(15, 10)},
		}, nil
	})

	out, err := dumpFixture(t, p, timeline.ResolutionDay)
	if err != nil {
		t.Fatalf("RunDump() error = %v", err)
	}

	for _, want := range []string{
		"Timeline day",
		"window 2024-11-17",
		"1 discarded",
		"Projects",
		"2/2",
		"Sun 15 *",
		"Migration",
		"Audit",
		"Standup",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("dump output missing %q:\n%s", want, out)
		}
	}

	if strings.Contains(out, "Lost") {
		t.Error("item on an unknown lane was printed")
	}
}

func TestRunDump_WeekResolution(t *testing.T) {
	p := timeline.ProviderFunc(func(_ context.Context, _, _ time.Time) ([]timeline.Item, error) {
		return nil, nil
	})

	out, err := dumpFixture(t, p, timeline.ResolutionWeek)
	if err != nil {
		t.Fatalf("RunDump() error = %v", err)
	}

	// June 15 2025 is in ISO week 24
	if !strings.Contains(out, "W24 *") {
		t.Errorf("dump output does not mark the current week:\n%s", out)
	}
}

func TestRunDump_ProviderError(t *testing.T) {
	p := timeline.ProviderFunc(func(_ context.Context, _, _ time.Time) ([]timeline.Item, error) {
		return nil, errors.New("calendar offline")
	})

	if _, err := dumpFixture(t, p, timeline.ResolutionDay); err == nil || !strings.Contains(err.Error(), "calendar offline") {
		t.Errorf("RunDump() error = %v, want the provider error", err)
	}
}

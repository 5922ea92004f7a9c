// ABOUTME: Dump mode for non-interactive use: loads the initial window and prints the layout
// ABOUTME: Output is tabwriter text so it can be piped, diffed or run from cron

package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"math"
	"strings"
	"text/tabwriter"
	"time"

	"timeline-lanes/timeline"
)

const (
	dumpFetchTimeout = time.Minute
	defaultDumpWidth = 120
)

// DumpOptions configures one dump run
type DumpOptions struct {
	Resolution   timeline.Resolution
	HourBandDays int
	Width        float64 // Simulated viewport width in geometry units
	Sources      []string
}

// RunDump loads the initial window, lays it out and writes a summary of the
// today-centered viewport to w.
func RunDump(w io.Writer, opts DumpOptions, p timeline.Provider, window *timeline.WindowManager, builder *timeline.LayoutBuilder, today time.Time) error {
	ctx, cancel := context.WithTimeout(context.Background(), dumpFetchTimeout)
	defer cancel()

	if err := window.Refresh(ctx, p); err != nil {
		return fmt.Errorf("failed to load items: %w", err)
	}

	view := timeline.NewViewState(builder.Lanes, opts.Resolution, today)
	layout := builder.Build(window.Items(), view.Params(window.Window(), opts.HourBandDays))

	width := opts.Width
	if width <= 0 {
		width = defaultDumpWidth
	}

	vp := timeline.ViewportState{
		ScrollLeft:  timeline.CenterOn(layout, width),
		ClientWidth: width,
		ScrollWidth: layout.ScrollWidth,
	}
	vis := timeline.NewTracker(builder.Geometry).Compute(layout, vp)

	win := window.Window()
	writef(w, "Timeline %s | window %s – %s | %d items", layout.Resolution,
		win.Min.Format(time.DateOnly), win.Max.Format(time.DateOnly), len(window.Items()))
	if layout.Normalized > 0 || layout.Discarded > 0 {
		writef(w, " (%d normalized, %d discarded)", layout.Normalized, layout.Discarded)
	}
	writeln(w)

	if len(opts.Sources) > 0 {
		writef(w, "Sources: %s\n", strings.Join(opts.Sources, ", "))
	}

	writef(w, "Viewing %s – %s\n\n", formatInstant(vis.VisibleFrom, layout.Resolution), formatInstant(vis.VisibleTo, layout.Resolution))

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)

	writeLanes(tw, layout, vis)
	writeCells(tw, layout, vis)
	writeItems(tw, layout, vis)

	if err := tw.Flush(); err != nil {
		return fmt.Errorf("failed to flush output: %w", err)
	}

	return nil
}

// writeLanes prints one row per visible lane
func writeLanes(w io.Writer, layout *timeline.Layout, vis timeline.Visibility) {
	writeln(w, "Lane\tRows\tHeight\tTop\tIn view")
	writeln(w, "----\t----\t------\t---\t-------")

	for _, lane := range layout.Lanes {
		writef(w, "%s\t%d\t%.0f\t%.0f\t%d/%d\n",
			lane.Lane.Label,
			lane.Rows,
			lane.Height,
			lane.Top,
			vis.LaneVisible[lane.Lane.ID],
			vis.LaneTotal[lane.Lane.ID],
		)
	}

	writeln(w)
}

// writeCells prints the header cells that intersect the viewport with their item counts
func writeCells(w io.Writer, layout *timeline.Layout, vis timeline.Visibility) {
	writeln(w, "Cell\tStart\tItems\tLabel")
	writeln(w, "----\t-----\t-----\t-----")

	vp := vis.Viewport
	for i, cell := range layout.Header {
		if cell.Right() <= vp.ScrollLeft || cell.Left >= vp.Right() {
			continue
		}

		label := "hidden"
		if vis.HeaderVisible[i] {
			label = "shown"
		}

		name := cell.Label
		if cell.IsToday {
			name += " *"
		}

		writef(w, "%s\t%s\t%d\t%s\n", name, formatInstant(cell.Start, layout.Resolution), vis.SliceCounts[i], label)
	}

	writeln(w)
}

// writeItems prints the items that intersect the viewport
func writeItems(w io.Writer, layout *timeline.Layout, vis timeline.Visibility) {
	writeln(w, "Lane\tRow\tStart\tEnd\tColumns\tLabel\tTitle")
	writeln(w, "----\t---\t-----\t---\t-------\t-----\t-----")

	vp := vis.Viewport
	for _, lane := range layout.Lanes {
		for _, it := range lane.Items {
			if it.Right() <= vp.ScrollLeft || it.Left >= vp.Right() {
				continue
			}

			label := "-"
			if l := vis.Labels[it.ID]; l.Visible {
				label = fmt.Sprintf("+%.0f", l.LocalOffset)
			}

			writef(w, "%s\t%d\t%s\t%s\t%.0f-%.0f\t%s\t%s\n",
				lane.Lane.Label,
				it.Row,
				formatInstant(it.Start, layout.Resolution),
				formatInstant(it.End, layout.Resolution),
				math.Floor(it.Left-vp.ScrollLeft),
				math.Ceil(it.Right()-vp.ScrollLeft),
				label,
				truncate(it.Title, 40),
			)
		}
	}
}

func formatInstant(t time.Time, res timeline.Resolution) string {
	if res == timeline.ResolutionHour {
		return t.Format("Jan 2 15:04")
	}

	return t.Format("Mon Jan 2")
}

func writef(w io.Writer, format string, args ...any) {
	if _, err := fmt.Fprintf(w, format, args...); err != nil {
		log.Printf("Warning: failed to write output: %v", err)
	}
}

func writeln(w io.Writer, args ...any) {
	if _, err := fmt.Fprintln(w, args...); err != nil {
		log.Printf("Warning: failed to write output: %v", err)
	}
}

// ABOUTME: Cron-driven refresh schedule posting refresh messages into the program
// ABOUTME: The cron goroutine never touches model state; it only sends messages

package tui

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/robfig/cron/v3"
)

// startRefreshSchedule sends a refreshMsg on every tick of the cron expression.
// The returned function stops the schedule and waits for a running job.
func startRefreshSchedule(expr string, send func(tea.Msg)) (func(), error) {
	c := cron.New()

	if _, err := c.AddFunc(expr, func() {
		send(refreshMsg{reason: "schedule"})
	}); err != nil {
		return nil, fmt.Errorf("invalid refresh schedule %q: %w", expr, err)
	}

	c.Start()

	return func() {
		<-c.Stop().Done()
	}, nil
}

// ABOUTME: Tests for the cron-driven refresh schedule
// ABOUTME: Verifies refresh messages are posted and bad expressions are rejected

package tui

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

func TestStartRefreshSchedule(t *testing.T) {
	msgs := make(chan tea.Msg, 4)

	stop, err := startRefreshSchedule("@every 1s", func(msg tea.Msg) {
		select {
		case msgs <- msg:
		default:
		}
	})
	if err != nil {
		t.Fatalf("startRefreshSchedule() error = %v", err)
	}
	defer stop()

	select {
	case msg := <-msgs:
		refresh, ok := msg.(refreshMsg)
		if !ok {
			t.Fatalf("got %T, want refreshMsg", msg)
		}
		if refresh.reason != "schedule" {
			t.Errorf("reason = %q, want schedule", refresh.reason)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("no refresh within 3s")
	}
}

func TestStartRefreshSchedule_Invalid(t *testing.T) {
	if _, err := startRefreshSchedule("every now and then", func(tea.Msg) {}); err == nil {
		t.Error("expected an error for an invalid expression")
	}
}

// ABOUTME: Back/forward navigation history for the timeline view
// ABOUTME: Manages position snapshots with maximum stack size limit

package tui

import (
	"time"

	"timeline-lanes/timeline"
)

// Snapshot captures where the user was looking
type Snapshot struct {
	Resolution timeline.Resolution
	Center     time.Time // Start of the unit at the middle of the viewport
	Offset     float64   // Columns from Center to the exact middle
	Selected   string    // Selected item ID, if any
}

// History manages back/forward stacks with maximum size limit
type History struct {
	back    []Snapshot
	forward []Snapshot
	maxSize int
}

// NewHistory creates a history with the specified max stack size
func NewHistory(maxSize int) *History {
	return &History{
		back:    []Snapshot{},
		forward: []Snapshot{},
		maxSize: maxSize,
	}
}

// Push records the position being left.
// Clears the forward stack (you can't go forward after a new jump)
func (h *History) Push(s Snapshot) {
	h.back = push(h.back, s, h.maxSize)
	h.forward = []Snapshot{}
}

// Back returns the previous position, saving current for Forward.
// Returns false if there is nothing to go back to
func (h *History) Back(current Snapshot) (Snapshot, bool) {
	if len(h.back) == 0 {
		return Snapshot{}, false
	}

	h.forward = push(h.forward, current, h.maxSize)

	s := h.back[len(h.back)-1]
	h.back = h.back[:len(h.back)-1]

	return s, true
}

// Forward returns the position left by Back, saving current for Back.
// Returns false if there is nothing to go forward to
func (h *History) Forward(current Snapshot) (Snapshot, bool) {
	if len(h.forward) == 0 {
		return Snapshot{}, false
	}

	h.back = push(h.back, current, h.maxSize)

	s := h.forward[len(h.forward)-1]
	h.forward = h.forward[:len(h.forward)-1]

	return s, true
}

// BackSize returns the number of snapshots in the back stack
func (h *History) BackSize() int {
	return len(h.back)
}

// ForwardSize returns the number of snapshots in the forward stack
func (h *History) ForwardSize() int {
	return len(h.forward)
}

// Clear clears both stacks
func (h *History) Clear() {
	h.back = []Snapshot{}
	h.forward = []Snapshot{}
}

// push appends s, dropping the oldest entry beyond maxSize
func push(stack []Snapshot, s Snapshot, maxSize int) []Snapshot {
	stack = append(stack, s)
	if maxSize > 0 && len(stack) > maxSize {
		stack = stack[1:]
	}

	return stack
}

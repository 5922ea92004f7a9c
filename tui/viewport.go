// ABOUTME: Viewport manager that keeps a browsed item on screen
// ABOUTME: Horizontal offsets move as little as possible; vertical offsets follow the selected row

package tui

// ViewportManager computes scroll offsets that reveal a span of the timeline.
//
// Scrolling behavior:
// - Span already fully visible: offset unchanged
// - Span fits the viewport: scroll just far enough to show it plus a margin
// - Span wider than the viewport: align its start near the left edge
type ViewportManager struct {
	clientWidth float64
	scrollWidth float64
	margin      float64
}

// NewViewportManager creates a manager for a viewport clientWidth wide over scrollWidth of content
func NewViewportManager(clientWidth, scrollWidth float64) *ViewportManager {
	return &ViewportManager{
		clientWidth: clientWidth,
		scrollWidth: scrollWidth,
		margin:      clientWidth / 10,
	}
}

// CalculateOffset returns the scroll offset revealing [left, right)
func (vm *ViewportManager) CalculateOffset(scrollLeft, left, right float64) float64 {
	if vm.clientWidth <= 0 {
		return scrollLeft
	}

	offset := scrollLeft

	switch {
	case left >= scrollLeft && right <= scrollLeft+vm.clientWidth:
		return scrollLeft

	case right-left > vm.clientWidth-2*vm.margin:
		offset = left - vm.margin

	case left < scrollLeft:
		offset = left - vm.margin

	default:
		offset = right + vm.margin - vm.clientWidth
	}

	return vm.clamp(offset)
}

func (vm *ViewportManager) clamp(offset float64) float64 {
	maxOffset := vm.scrollWidth - vm.clientWidth
	if offset > maxOffset {
		offset = maxOffset
	}
	if offset < 0 {
		offset = 0
	}

	return offset
}

// LineOffset returns the vertical offset that keeps line inside a body height lines tall
func LineOffset(yOffset, height, line int) int {
	if height < 1 {
		return yOffset
	}

	if line < yOffset {
		return line
	}

	if line >= yOffset+height {
		return line - height + 1
	}

	return yOffset
}

// ABOUTME: Scroll anchor that keeps content visually still when the window grows into the past
// ABOUTME: Armed once before the item-set replacement, applied once after the new layout exists

package timeline

// ScrollAnchor compensates scrollLeft for width prepended by a past extension.
// The zero value is disarmed.
type ScrollAnchor struct {
	armed          bool
	oldScrollWidth float64
}

// Arm records the scroll width before a replacement known to prepend content.
func (a *ScrollAnchor) Arm(oldScrollWidth float64) {
	a.armed = true
	a.oldScrollWidth = oldScrollWidth
}

// Armed reports whether a correction is pending
func (a *ScrollAnchor) Armed() bool {
	return a.armed
}

// Disarm drops a pending correction, e.g. when the fetch failed.
func (a *ScrollAnchor) Disarm() {
	a.armed = false
}

// Apply returns the corrected scroll offset and disarms the anchor.
// When unarmed, or when the width did not grow, scrollLeft is returned as is.
func (a *ScrollAnchor) Apply(newScrollWidth, scrollLeft float64) float64 {
	if !a.armed {
		return scrollLeft
	}

	a.armed = false

	delta := newScrollWidth - a.oldScrollWidth
	if delta <= 0 {
		return scrollLeft
	}

	return scrollLeft + delta
}

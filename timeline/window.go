// ABOUTME: Data window manager: owns the loaded time range and the item set
// ABOUTME: Extends the window at either edge with at most one fetch in flight at a time

package timeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Direction is the edge a window extension grows toward.
type Direction int

const (
	DirectionNone Direction = iota
	DirectionPast
	DirectionFuture
)

func (d Direction) String() string {
	switch d {
	case DirectionPast:
		return "past"
	case DirectionFuture:
		return "future"
	default:
		return "none"
	}
}

// RequestKind distinguishes window extensions from full refreshes.
type RequestKind int

const (
	RequestExtend RequestKind = iota
	RequestRefresh
)

var (
	// ErrExtensionInFlight is returned when a fetch is already running.
	// The trigger is dropped; edge detection re-triggers on a later tick.
	ErrExtensionInFlight = errors.New("window extension already in flight")

	// ErrStaleRequest is returned when completing a request that is not the current one.
	ErrStaleRequest = errors.New("stale window request")
)

// DefaultEdgeThreshold is the fraction of the client width that counts as "near an edge".
const DefaultEdgeThreshold = 0.1

// WindowConfig sizes the data window.
type WindowConfig struct {
	InitialSpanWeeks int // Weeks loaded on each side of today at startup
	ExtendWeeks      int // Weeks added per extension
}

// DefaultWindowConfig returns ±30 weeks with 8-week extensions.
func DefaultWindowConfig() WindowConfig {
	return WindowConfig{InitialSpanWeeks: 30, ExtendWeeks: 8}
}

// Request is a pending fetch begun with WindowManager.Begin.
type Request struct {
	Kind      RequestKind
	Direction Direction
	From      TimeWindow // Window when the request began
	Window    TimeWindow // Window the fetch covers and that is applied on success
	seq       uint64
}

// Fetch queries the provider for the full target window.
func (r Request) Fetch(ctx context.Context, p Provider) ([]Item, error) {
	items, err := p.FetchItems(ctx, r.Window.Min, r.Window.Max)
	if err != nil {
		return nil, fmt.Errorf("fetch %s..%s: %w",
			r.Window.Min.Format(time.DateOnly), r.Window.Max.Format(time.DateOnly), err)
	}

	return items, nil
}

// WindowManager owns the loaded TimeWindow and its items.
// Begin and Complete may be called from different goroutines.
type WindowManager struct {
	Logf func(format string, args ...any)

	mu          sync.Mutex
	window      TimeWindow
	items       []Item
	inFlight    bool
	seq         uint64
	extendWeeks int
	loaded      bool
}

// NewWindowManager creates a manager whose window is centered on today.
func NewWindowManager(today time.Time, cfg WindowConfig) *WindowManager {
	def := DefaultWindowConfig()
	if cfg.InitialSpanWeeks <= 0 {
		cfg.InitialSpanWeeks = def.InitialSpanWeeks
	}
	if cfg.ExtendWeeks <= 0 {
		cfg.ExtendWeeks = def.ExtendWeeks
	}

	return &WindowManager{
		window:      InitialWindow(today, cfg.InitialSpanWeeks),
		extendWeeks: cfg.ExtendWeeks,
	}
}

func (m *WindowManager) logf(format string, args ...any) {
	if m.Logf != nil {
		m.Logf(format, args...)
	}
}

// Window returns the currently loaded range.
func (m *WindowManager) Window() TimeWindow {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.window
}

// Items returns the current item set. Callers must not modify it.
func (m *WindowManager) Items() []Item {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.items
}

// InFlight reports whether a fetch is running
func (m *WindowManager) InFlight() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.inFlight
}

// Loaded reports whether at least one fetch has succeeded
func (m *WindowManager) Loaded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.loaded
}

// Begin reserves the single fetch slot.
// For RequestExtend the target window grows by ExtendWeeks toward dir;
// for RequestRefresh it equals the current window.
func (m *WindowManager) Begin(kind RequestKind, dir Direction) (Request, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.inFlight {
		return Request{}, ErrExtensionInFlight
	}

	target := m.window
	if kind == RequestExtend {
		switch dir {
		case DirectionPast:
			target.Min = target.Min.AddDate(0, 0, -7*m.extendWeeks)
		case DirectionFuture:
			target.Max = target.Max.AddDate(0, 0, 7*m.extendWeeks)
		default:
			return Request{}, fmt.Errorf("extend: invalid direction %s", dir)
		}
	}

	m.inFlight = true
	m.seq++

	return Request{Kind: kind, Direction: dir, From: m.window, Window: target, seq: m.seq}, nil
}

// Complete finishes a request. On error the window is left unchanged and
// the error is returned; on success the item set is replaced wholesale and
// the window advances. The in-flight flag is cleared either way.
func (m *WindowManager) Complete(req Request, items []Item, err error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if req.seq != m.seq || !m.inFlight {
		return ErrStaleRequest
	}

	m.inFlight = false

	if err != nil {
		m.logf("window: %s %s failed, keeping %s..%s: %v", kindName(req.Kind), req.Direction,
			m.window.Min.Format(time.DateOnly), m.window.Max.Format(time.DateOnly), err)
		return err
	}

	m.items = items
	m.window = req.Window
	m.loaded = true
	m.logf("window: %s %s loaded %d items for %s..%s", kindName(req.Kind), req.Direction, len(items),
		m.window.Min.Format(time.DateOnly), m.window.Max.Format(time.DateOnly))

	return nil
}

// MaybeExtend runs a complete extension synchronously.
// It returns false with a nil error when another fetch is in flight.
func (m *WindowManager) MaybeExtend(ctx context.Context, p Provider, dir Direction) (bool, error) {
	req, err := m.Begin(RequestExtend, dir)
	if errors.Is(err, ErrExtensionInFlight) {
		return false, nil
	}
	if err != nil {
		return false, err
	}

	items, ferr := req.Fetch(ctx, p)
	if err := m.Complete(req, items, ferr); err != nil {
		return false, err
	}

	return true, nil
}

// Refresh re-fetches the current window synchronously.
func (m *WindowManager) Refresh(ctx context.Context, p Provider) error {
	req, err := m.Begin(RequestRefresh, DirectionNone)
	if err != nil {
		return err
	}

	items, ferr := req.Fetch(ctx, p)

	return m.Complete(req, items, ferr)
}

func kindName(k RequestKind) string {
	if k == RequestRefresh {
		return "refresh"
	}

	return "extend"
}

// EdgeDirection applies the edge policy: within threshold×clientWidth of the
// left edge grows the past, of the right edge grows the future.
func EdgeDirection(vp ViewportState, threshold float64) Direction {
	if vp.ClientWidth <= 0 {
		return DirectionNone
	}

	margin := threshold * vp.ClientWidth

	if vp.ScrollLeft < margin {
		return DirectionPast
	}

	if vp.ScrollWidth-(vp.ScrollLeft+vp.ClientWidth) < margin {
		return DirectionFuture
	}

	return DirectionNone
}

// EdgeLoadingEnabled reports whether scroll edges extend the window at res.
// Hour resolution renders a fixed band around today, so its edges never load.
func EdgeLoadingEnabled(res Resolution) bool {
	return res != ResolutionHour
}

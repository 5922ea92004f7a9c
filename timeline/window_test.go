// ABOUTME: Tests for the data window manager: extension, rollback and the single in-flight fetch
// ABOUTME: Includes the edge-detection policy and the near-left-edge extension scenario

package timeline

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// countingProvider records how often it is called and for which ranges
type countingProvider struct {
	mu     sync.Mutex
	calls  int
	ranges []TimeWindow
	err    error
}

func (p *countingProvider) FetchItems(_ context.Context, minDate, maxDate time.Time) ([]Item, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls++
	p.ranges = append(p.ranges, TimeWindow{Min: minDate, Max: maxDate})

	if p.err != nil {
		return nil, p.err
	}

	return []Item{{ID: "x", Lane: "events", Start: minDate, End: minDate.Add(time.Hour)}}, nil
}

func TestWindowManager_ExtendPastNearLeftEdge(t *testing.T) {
	today := at(2025, 6, 15, 0)
	wm := NewWindowManager(today, DefaultWindowConfig())
	p := &countingProvider{}

	b := NewLayoutBuilder(testLanes(), DefaultGeometry(), nil)
	l := b.Build(nil, ViewParams{Resolution: ResolutionDay, Window: wm.Window(), Today: today})

	clientWidth := 1000.0
	vp := ViewportState{ScrollLeft: 0.05 * clientWidth, ClientWidth: clientWidth, ScrollWidth: l.ScrollWidth}

	dir := EdgeDirection(vp, DefaultEdgeThreshold)
	if dir != DirectionPast {
		t.Fatalf("EdgeDirection = %v, want past", dir)
	}

	ok, err := wm.MaybeExtend(context.Background(), p, dir)
	if !ok || err != nil {
		t.Fatalf("MaybeExtend = %v, %v, want true, nil", ok, err)
	}

	if p.calls != 1 {
		t.Errorf("provider called %d times, want 1", p.calls)
	}

	want := TimeWindow{Min: today.AddDate(0, 0, -38*7), Max: today.AddDate(0, 0, 30*7)}
	got := wm.Window()
	if !got.Min.Equal(want.Min) || !got.Max.Equal(want.Max) {
		t.Errorf("window = %v..%v, want %v..%v", got.Min, got.Max, want.Min, want.Max)
	}

	if !p.ranges[0].Min.Equal(want.Min) || !p.ranges[0].Max.Equal(want.Max) {
		t.Errorf("provider asked for %v, want the full new window %v", p.ranges[0], want)
	}
}

func TestWindowManager_ExtendFuture(t *testing.T) {
	today := at(2025, 6, 15, 0)
	wm := NewWindowManager(today, WindowConfig{InitialSpanWeeks: 4, ExtendWeeks: 2})

	if _, err := wm.MaybeExtend(context.Background(), &countingProvider{}, DirectionFuture); err != nil {
		t.Fatal(err)
	}

	got := wm.Window()
	if !got.Min.Equal(today.AddDate(0, 0, -28)) || !got.Max.Equal(today.AddDate(0, 0, 42)) {
		t.Errorf("window = %v..%v, want -4w..+6w", got.Min, got.Max)
	}
}

func TestWindowManager_SecondTriggerWhileInFlightIsDropped(t *testing.T) {
	today := at(2025, 6, 15, 0)
	wm := NewWindowManager(today, DefaultWindowConfig())

	var calls atomic.Int32
	entered := make(chan struct{})
	release := make(chan struct{})

	blocking := ProviderFunc(func(ctx context.Context, minDate, maxDate time.Time) ([]Item, error) {
		calls.Add(1)
		close(entered)
		<-release
		return nil, nil
	})

	done := make(chan error, 1)
	go func() {
		_, err := wm.MaybeExtend(context.Background(), blocking, DirectionPast)
		done <- err
	}()

	<-entered

	ok, err := wm.MaybeExtend(context.Background(), blocking, DirectionPast)
	if ok || err != nil {
		t.Errorf("second MaybeExtend = %v, %v, want false, nil", ok, err)
	}

	if err := wm.Refresh(context.Background(), blocking); !errors.Is(err, ErrExtensionInFlight) {
		t.Errorf("Refresh during extension = %v, want ErrExtensionInFlight", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first MaybeExtend error = %v", err)
	}

	if got := calls.Load(); got != 1 {
		t.Errorf("provider called %d times, want 1", got)
	}

	want := today.AddDate(0, 0, -38*7)
	if got := wm.Window().Min; !got.Equal(want) {
		t.Errorf("window Min = %v, want %v (extended once)", got, want)
	}
}

func TestWindowManager_ConcurrentBeginAdmitsOne(t *testing.T) {
	wm := NewWindowManager(at(2025, 6, 15, 0), DefaultWindowConfig())

	var admitted atomic.Int32
	var wg sync.WaitGroup

	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := wm.Begin(RequestExtend, DirectionFuture); err == nil {
				admitted.Add(1)
			}
		}()
	}

	wg.Wait()

	if got := admitted.Load(); got != 1 {
		t.Errorf("%d requests admitted, want 1", got)
	}
	if !wm.InFlight() {
		t.Error("InFlight() = false with an open request")
	}
}

func TestWindowManager_FailureRollsBack(t *testing.T) {
	today := at(2025, 6, 15, 0)
	wm := NewWindowManager(today, DefaultWindowConfig())

	var logged []string
	wm.Logf = func(format string, args ...any) { logged = append(logged, format) }

	before := wm.Window()
	boom := errors.New("provider down")

	ok, err := wm.MaybeExtend(context.Background(), &countingProvider{err: boom}, DirectionPast)
	if ok || !errors.Is(err, boom) {
		t.Errorf("MaybeExtend = %v, %v, want false and wrapped provider error", ok, err)
	}

	if after := wm.Window(); !after.Min.Equal(before.Min) || !after.Max.Equal(before.Max) {
		t.Errorf("window advanced to %v after failure, want %v", wm.Window(), before)
	}
	if wm.InFlight() {
		t.Error("in-flight flag not cleared after failure")
	}
	if len(logged) == 0 {
		t.Error("failure was not logged")
	}

	// The edge condition persists, so the next trigger retries
	if ok, err := wm.MaybeExtend(context.Background(), &countingProvider{}, DirectionPast); !ok || err != nil {
		t.Errorf("retry = %v, %v, want success", ok, err)
	}
}

func TestWindowManager_CompleteReplacesItemsWholesale(t *testing.T) {
	wm := NewWindowManager(at(2025, 6, 15, 0), DefaultWindowConfig())

	req, err := wm.Begin(RequestRefresh, DirectionNone)
	if err != nil {
		t.Fatal(err)
	}
	if req.Window != req.From {
		t.Error("refresh should target the current window")
	}

	if err := wm.Complete(req, []Item{{ID: "a"}, {ID: "b"}}, nil); err != nil {
		t.Fatal(err)
	}

	req, _ = wm.Begin(RequestRefresh, DirectionNone)
	if err := wm.Complete(req, []Item{{ID: "c"}}, nil); err != nil {
		t.Fatal(err)
	}

	items := wm.Items()
	if len(items) != 1 || items[0].ID != "c" {
		t.Errorf("Items() = %v, want only c", items)
	}
	if !wm.Loaded() {
		t.Error("Loaded() = false after a successful fetch")
	}
}

func TestWindowManager_StaleComplete(t *testing.T) {
	wm := NewWindowManager(at(2025, 6, 15, 0), DefaultWindowConfig())

	req, _ := wm.Begin(RequestExtend, DirectionPast)
	if err := wm.Complete(req, nil, nil); err != nil {
		t.Fatal(err)
	}

	if err := wm.Complete(req, nil, nil); !errors.Is(err, ErrStaleRequest) {
		t.Errorf("second Complete = %v, want ErrStaleRequest", err)
	}
}

func TestWindowManager_BeginRejectsNoDirection(t *testing.T) {
	wm := NewWindowManager(at(2025, 6, 15, 0), DefaultWindowConfig())

	if _, err := wm.Begin(RequestExtend, DirectionNone); err == nil {
		t.Error("Begin(extend, none) should fail")
	}
	if wm.InFlight() {
		t.Error("failed Begin left the flag set")
	}
}

func TestEdgeDirection(t *testing.T) {
	tests := []struct {
		name string
		vp   ViewportState
		want Direction
	}{
		{"middle", ViewportState{ScrollLeft: 5000, ClientWidth: 1000, ScrollWidth: 20000}, DirectionNone},
		{"near left", ViewportState{ScrollLeft: 99, ClientWidth: 1000, ScrollWidth: 20000}, DirectionPast},
		{"at threshold left", ViewportState{ScrollLeft: 100, ClientWidth: 1000, ScrollWidth: 20000}, DirectionNone},
		{"near right", ViewportState{ScrollLeft: 18950, ClientWidth: 1000, ScrollWidth: 20000}, DirectionFuture},
		{"no width", ViewportState{ScrollLeft: 0, ClientWidth: 0, ScrollWidth: 20000}, DirectionNone},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := EdgeDirection(tt.vp, DefaultEdgeThreshold); got != tt.want {
				t.Errorf("EdgeDirection() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEdgeLoadingEnabled(t *testing.T) {
	if EdgeLoadingEnabled(ResolutionHour) {
		t.Error("hour resolution should not edge-load")
	}
	if !EdgeLoadingEnabled(ResolutionDay) || !EdgeLoadingEnabled(ResolutionWeek) {
		t.Error("day and week resolutions should edge-load")
	}
}

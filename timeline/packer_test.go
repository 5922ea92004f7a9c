// ABOUTME: Tests for greedy lane packing: row assignment, heights and width clamping
// ABOUTME: Randomized checks confirm rows never overlap and row count equals max overlap depth

package timeline

import (
	"math/rand"
	"testing"
)

func spans(pairs ...[2]float64) []LayoutItem {
	items := make([]LayoutItem, len(pairs))
	for i, p := range pairs {
		items[i] = LayoutItem{
			Item:  Item{ID: string(rune('a' + i))},
			Left:  p[0],
			Width: p[1] - p[0],
		}
	}

	return items
}

func rowsByID(l LaneLayout) map[string]int {
	rows := make(map[string]int, len(l.Items))
	for _, it := range l.Items {
		rows[it.ID] = it.Row
	}

	return rows
}

func TestPackLane_ThreeItems(t *testing.T) {
	g := DefaultGeometry()
	lane := Lane{ID: "events", BaseHeight: 40}

	got := PackLane(lane, spans([2]float64{0, 100}, [2]float64{50, 150}, [2]float64{200, 300}), g)

	rows := rowsByID(got)
	want := map[string]int{"a": 0, "b": 1, "c": 0}
	for id, row := range want {
		if rows[id] != row {
			t.Errorf("item %s row = %d, want %d", id, rows[id], row)
		}
	}

	if got.Rows != 2 {
		t.Errorf("Rows = %d, want 2", got.Rows)
	}

	wantHeight := g.HeaderPadding + 2*(g.ItemHeight+g.ItemGap) + g.FooterPadding
	if got.Height != wantHeight {
		t.Errorf("Height = %v, want %v", got.Height, wantHeight)
	}

	for _, it := range got.Items {
		wantTop := g.HeaderPadding + float64(it.Row)*(g.ItemHeight+g.ItemGap)
		if it.Top != wantTop {
			t.Errorf("item %s Top = %v, want %v", it.ID, it.Top, wantTop)
		}
	}
}

func TestPackLane_EdgeCases(t *testing.T) {
	g := DefaultGeometry()
	lane := Lane{ID: "projects", BaseHeight: 40}

	tests := []struct {
		name     string
		items    []LayoutItem
		wantRows int
		wantRow  map[string]int
	}{
		{
			name:     "no items",
			items:    nil,
			wantRows: 0,
		},
		{
			name:     "touching edges share a row",
			items:    spans([2]float64{0, 100}, [2]float64{100, 200}),
			wantRows: 1,
			wantRow:  map[string]int{"a": 0, "b": 0},
		},
		{
			name:     "identical left keeps input order",
			items:    spans([2]float64{10, 50}, [2]float64{10, 20}),
			wantRows: 2,
			wantRow:  map[string]int{"a": 0, "b": 1},
		},
		{
			name:     "unsorted input is sorted by left",
			items:    spans([2]float64{300, 400}, [2]float64{0, 350}, [2]float64{360, 380}),
			wantRows: 2,
			wantRow:  map[string]int{"b": 0, "a": 1, "c": 0},
		},
		{
			name:     "zero width items stack when at the same pixel",
			items:    spans([2]float64{5, 5}, [2]float64{5, 5}),
			wantRows: 2,
			wantRow:  map[string]int{"a": 0, "b": 1},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PackLane(lane, tt.items, g)

			if got.Rows != tt.wantRows {
				t.Errorf("Rows = %d, want %d", got.Rows, tt.wantRows)
			}

			rows := rowsByID(got)
			for id, row := range tt.wantRow {
				if rows[id] != row {
					t.Errorf("item %s row = %d, want %d", id, rows[id], row)
				}
			}

			if tt.wantRows == 0 && got.Height != lane.BaseHeight {
				t.Errorf("empty lane Height = %v, want base %v", got.Height, lane.BaseHeight)
			}
		})
	}
}

func TestPackLane_ClampsWidth(t *testing.T) {
	g := DefaultGeometry()
	got := PackLane(Lane{ID: "x"}, spans([2]float64{10, 10}, [2]float64{20, 15}), g)

	for _, it := range got.Items {
		if it.Width != g.MinItemWidth {
			t.Errorf("item %s Width = %v, want %v", it.ID, it.Width, g.MinItemWidth)
		}
	}
}

func TestPackLane_DoesNotMutateInput(t *testing.T) {
	items := spans([2]float64{50, 60}, [2]float64{0, 0})
	PackLane(Lane{ID: "x"}, items, DefaultGeometry())

	if items[0].ID != "a" || items[1].Width != 0 {
		t.Error("PackLane modified its input slice")
	}
}

func TestPackLane_RandomizedCorrectnessAndMinimality(t *testing.T) {
	g := DefaultGeometry()
	rng := rand.New(rand.NewSource(42))

	for round := range 200 {
		n := rng.Intn(40)
		items := make([]LayoutItem, n)
		for i := range items {
			left := float64(rng.Intn(1000))
			width := float64(rng.Intn(200))
			items[i] = LayoutItem{Item: Item{ID: string(rune('A' + i))}, Left: left, Width: width}
		}

		got := PackLane(Lane{ID: "r"}, items, g)

		for i := range got.Items {
			for j := i + 1; j < len(got.Items); j++ {
				a, b := got.Items[i], got.Items[j]
				if a.Row == b.Row && Overlaps(a, b) {
					t.Fatalf("round %d: items %s [%v,%v) and %s [%v,%v) overlap in row %d",
						round, a.ID, a.Left, a.Right(), b.ID, b.Left, b.Right(), a.Row)
				}
			}
		}

		if depth := MaxDepth(items, g.MinItemWidth); got.Rows != depth {
			t.Fatalf("round %d: Rows = %d, want max depth %d", round, got.Rows, depth)
		}
	}
}

func TestOverlaps(t *testing.T) {
	a := LayoutItem{Left: 0, Width: 10}

	tests := []struct {
		name string
		b    LayoutItem
		want bool
	}{
		{"inside", LayoutItem{Left: 2, Width: 3}, true},
		{"touching right", LayoutItem{Left: 10, Width: 5}, false},
		{"touching left", LayoutItem{Left: -5, Width: 5}, false},
		{"straddling", LayoutItem{Left: 9, Width: 5}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Overlaps(a, tt.b); got != tt.want {
				t.Errorf("Overlaps() = %v, want %v", got, tt.want)
			}
		})
	}
}

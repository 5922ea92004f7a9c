// ABOUTME: Fan-out provider querying several providers concurrently and merging their items
// ABOUTME: Duplicate IDs keep the first occurrence; errors surface only when every source failed

package provider

import (
	"context"
	"errors"
	"time"

	"github.com/alitto/pond"

	"timeline-lanes/timeline"
)

// Multi merges the items of several providers.
type Multi struct {
	Providers  []timeline.Provider
	MaxWorkers int // Concurrent provider calls; 0 queries every provider at once
	Logf       Logf
}

type fetchResult struct {
	items []timeline.Item
	err   error
}

// FetchItems queries every provider for the same range.
// Results keep provider order so merging is deterministic.
func (m Multi) FetchItems(ctx context.Context, minDate, maxDate time.Time) ([]timeline.Item, error) {
	if len(m.Providers) == 0 {
		return nil, nil
	}

	results := make([]fetchResult, len(m.Providers))

	workers := len(m.Providers)
	if m.MaxWorkers > 0 {
		workers = min(workers, m.MaxWorkers)
	}

	pool := pond.New(workers, len(m.Providers))
	defer pool.StopAndWait()

	group := pool.Group()
	for i, p := range m.Providers {
		group.Submit(func() {
			items, err := p.FetchItems(ctx, minDate, maxDate)
			results[i] = fetchResult{items: items, err: err}
		})
	}
	group.Wait()

	var (
		merged []timeline.Item
		errs   []error
	)
	seen := make(map[string]bool)

	for i, r := range results {
		if r.err != nil {
			m.Logf.printf("multi: provider %d failed: %v", i, r.err)
			errs = append(errs, r.err)
			continue
		}

		for _, it := range r.items {
			if seen[it.ID] {
				continue
			}
			seen[it.ID] = true
			merged = append(merged, it)
		}
	}

	if len(errs) > 0 && len(errs) == len(m.Providers) {
		return nil, errors.Join(errs...)
	}

	return merged, nil
}

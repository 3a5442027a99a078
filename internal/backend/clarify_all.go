package backend

import (
	"context"
	"fmt"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/cartscout/cartscout/internal/models"
	"github.com/cartscout/cartscout/internal/progress"
)

// ClarifyAll resolves multiple raw item names concurrently, bounded by
// maxConcurrent. Items the backend cannot clarify map to nil entries so
// callers can fall back to the raw name.
func (c *Client) ClarifyAll(ctx context.Context, items []string, maxConcurrent int) (map[string]*models.SuggestionSet, error) {
	if maxConcurrent <= 0 {
		maxConcurrent = 1
	}

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent)

	var mu sync.Mutex
	out := make(map[string]*models.SuggestionSet, len(items))

	for _, item := range items {
		g.Go(func() error {
			set, err := c.Clarify(ctx, item, nil)
			if err != nil {
				return fmt.Errorf("clarify %q: %w", item, err)
			}
			progress.Report(ctx, fmt.Sprintf("Clarified '%s'", item))
			mu.Lock()
			out[item] = set
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

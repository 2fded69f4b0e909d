package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/philipparndt/terrastl/pkg/dem"
)

// RetrySource wraps another source with a per-attempt timeout and a
// bounded number of retries with exponential backoff. A tile the store
// reports as missing is permanent and not retried; transient failures
// that survive all attempts surface as ErrTileUnavailable.
type RetrySource struct {
	inner    Source
	attempts int
	timeout  time.Duration
	backoff  time.Duration
}

// NewRetrySource builds a retrying wrapper. attempts below 1 is treated
// as 1; timeout 0 disables the per-attempt deadline.
func NewRetrySource(inner Source, attempts int, timeout, backoff time.Duration) *RetrySource {
	if attempts < 1 {
		attempts = 1
	}
	return &RetrySource{inner: inner, attempts: attempts, timeout: timeout, backoff: backoff}
}

func (r *RetrySource) Fetch(ctx context.Context, id TileID) (*dem.RasterTile, error) {
	var lastErr error
	for attempt := 0; attempt < r.attempts; attempt++ {
		if attempt > 0 {
			wait := r.backoff * time.Duration(1<<(attempt-1))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(wait):
			}
		}

		tile, err := r.fetchOnce(ctx, id)
		if err == nil {
			return tile, nil
		}
		if errors.Is(err, ErrTileUnavailable) {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, err
		}
		lastErr = err
	}
	return nil, fmt.Errorf("%w: %s failed after %d attempts: %v", ErrTileUnavailable, id, r.attempts, lastErr)
}

func (r *RetrySource) fetchOnce(ctx context.Context, id TileID) (*dem.RasterTile, error) {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}
	return r.inner.Fetch(ctx, id)
}

package provenance

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/softwareheritage/swh-provenance/internal/types"
)

// retryMaxElapsed bounds how long, and storageMaxRetries how many times,
// withRetry keeps retrying a transient storage error before giving up and
// surfacing it as UNAVAILABLE (spec §7: "retried locally up to a bounded
// number of attempts").
const (
	retryMaxElapsed   = 2 * time.Second
	storageMaxRetries = 3
)

func newStorageBackoff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = retryMaxElapsed
	return backoff.WithMaxRetries(bo, storageMaxRetries)
}

// withRetry runs op, retrying with exponential backoff while it returns an
// error wrapping types.ErrTransient, and stopping immediately for any other
// error or a cancelled/expired ctx (spec §7: "cancellation and
// deadline-exceeded states are surfaced verbatim, never retried").
func withRetry(ctx context.Context, op func() error) error {
	bo := newStorageBackoff()
	return backoff.Retry(func() error {
		err := op()
		if err == nil {
			return nil
		}
		if types.IsCancelled(err) {
			return backoff.Permanent(err)
		}
		if !errors.Is(err, types.ErrTransient) {
			return backoff.Permanent(err)
		}
		return err
	}, backoff.WithContext(bo, ctx))
}

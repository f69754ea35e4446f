package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"time"
)

// UpdateProperty runs a bounded load-mutate-save cycle against one
// conversation property. On a concurrency conflict the property is
// reloaded and mutate is reapplied to the fresh value, so a racing
// writer's changes are never dropped. mutate receives nil when the
// property does not exist yet and returns the value to store.
//
// attempts bounds the number of save attempts; backoff is slept between
// them. Exhaustion surfaces the final ErrConflict to the caller.
func UpdateProperty(ctx context.Context, store ConversationStore, addr Address, key string, attempts int, backoff time.Duration, mutate func(raw json.RawMessage) (json.RawMessage, error)) error {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 && backoff > 0 {
			select {
			case <-time.After(backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		raw, etag, err := store.Load(ctx, addr, key)
		if err != nil && !errors.Is(err, ErrNotFound) {
			return err
		}

		next, err := mutate(raw)
		if err != nil {
			return err
		}

		err = store.Save(ctx, addr, key, next, etag)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrConflict) {
			return err
		}
		lastErr = err
	}
	return lastErr
}

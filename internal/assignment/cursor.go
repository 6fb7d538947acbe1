package assignment

import (
	"context"
	"errors"

	goredis "github.com/redis/go-redis/v9"

	pkgerrors "github.com/ventaflow/dispatch-backend/pkg/errors"
	"github.com/ventaflow/dispatch-backend/pkg/redis"
)

const defaultCursorRetries = 5

// Cursor picks the next agent from an ordered candidate pool and persists
// its position so consecutive assignments rotate through the pool.
type Cursor interface {
	// Advance atomically selects the agent after the stored position and
	// moves the position onto the selection. Candidates must be non-empty
	// and sorted; every caller sees a distinct selection under contention.
	Advance(ctx context.Context, candidates []string) (string, error)
}

// nextAfter returns the candidate that follows current in the pool, wrapping
// at the end. When current is absent from the pool (agent went offline, or
// the cursor has never been written) the rotation restarts at the first
// candidate.
func nextAfter(current string, candidates []string) string {
	if len(candidates) == 0 {
		return ""
	}
	for i, candidate := range candidates {
		if candidate == current {
			return candidates[(i+1)%len(candidates)]
		}
	}
	return candidates[0]
}

type cursorStore interface {
	CursorKey(name string) string
	Watch(ctx context.Context, fn func(tx *goredis.Tx) error, keys ...string) error
}

// RedisCursor stores the rotation position in a single key and advances it
// with an optimistic WATCH transaction, so two triggers racing for the same
// pool never both land on the same agent.
type RedisCursor struct {
	store   cursorStore
	name    string
	retries int
}

// NewRedisCursor builds a cursor persisted under the given rotation name.
func NewRedisCursor(client *redis.Client, name string, retries int) (*RedisCursor, error) {
	if client == nil {
		return nil, errors.New("redis client required")
	}
	if name == "" {
		return nil, errors.New("cursor name required")
	}
	if retries <= 0 {
		retries = defaultCursorRetries
	}
	return &RedisCursor{store: client, name: name, retries: retries}, nil
}

// Advance implements Cursor.
func (c *RedisCursor) Advance(ctx context.Context, candidates []string) (string, error) {
	if len(candidates) == 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "candidate pool is empty")
	}

	key := c.store.CursorKey(c.name)
	var selected string
	advance := func(tx *goredis.Tx) error {
		current, err := tx.Get(ctx, key).Result()
		if err != nil && !errors.Is(err, goredis.Nil) {
			return err
		}
		selected = nextAfter(current, candidates)
		_, err = tx.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
			pipe.Set(ctx, key, selected, 0)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < c.retries; attempt++ {
		err := c.store.Watch(ctx, advance, key)
		if err == nil {
			return selected, nil
		}
		if errors.Is(err, goredis.TxFailedErr) {
			continue
		}
		return "", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "advance rotation cursor")
	}
	return "", pkgerrors.New(pkgerrors.CodeStateConflict, "rotation cursor contention exhausted retries")
}

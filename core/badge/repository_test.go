package badge_test

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-leaderboard/core/badge"
)

var errStoreDown = errors.New("store down")

// flakyRepository wraps a badge.Repository and injects failures and latency.
type flakyRepository struct {
	badge.Repository

	upsertCalls   int32
	failUpserts   int32 // number of first upserts that fail
	upsertDelay   time.Duration
	failInsertsOf map[string]bool // badge IDs

	mu           sync.Mutex
	insertCalled []string
}

func (r *flakyRepository) UpsertDefinitions(ctx context.Context, defs []badge.Definition) error {
	n := atomic.AddInt32(&r.upsertCalls, 1)
	if r.upsertDelay > 0 {
		time.Sleep(r.upsertDelay)
	}
	if n <= atomic.LoadInt32(&r.failUpserts) {
		return errStoreDown
	}
	return r.Repository.UpsertDefinitions(ctx, defs)
}

func (r *flakyRepository) InsertAward(ctx context.Context, award badge.Award) (badge.Award, error) {
	r.mu.Lock()
	r.insertCalled = append(r.insertCalled, award.BadgeID)
	r.mu.Unlock()

	if r.failInsertsOf[award.BadgeID] {
		return badge.Award{}, errStoreDown
	}
	return r.Repository.InsertAward(ctx, award)
}

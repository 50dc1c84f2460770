package badge

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/singleflight"

	"github.com/trezcool/masomo-leaderboard/core"
)

const (
	seedKey     = "seed"
	seedTimeout = 15 * time.Second
)

// Catalog owns the badge ladder. It seeds itself with its presets before the first read.
type Catalog struct {
	repo    Repository
	logger  core.Logger
	presets []Definition

	flight singleflight.Group
	seeded uint32
}

// NewCatalog returns a Catalog seeded with `presets`, or with Presets when none are given.
func NewCatalog(repo Repository, logger core.Logger, presets ...Definition) *Catalog {
	if len(presets) == 0 {
		presets = Presets
	}
	return &Catalog{
		repo:    repo,
		logger:  logger,
		presets: presets,
	}
}

// EnsureSeeded upserts the presets once per process.
// Concurrent callers share a single in-flight seed; a failed seed is forgotten so the next call retries.
func (c *Catalog) EnsureSeeded(ctx context.Context) error {
	if atomic.LoadUint32(&c.seeded) == 1 {
		return nil
	}

	ch := c.flight.DoChan(seedKey, func() (interface{}, error) {
		if atomic.LoadUint32(&c.seeded) == 1 {
			return nil, nil
		}
		// detached from the caller: other callers may be waiting on this seed
		seedCtx, cancel := context.WithTimeout(context.Background(), seedTimeout)
		defer cancel()

		if err := c.repo.UpsertDefinitions(seedCtx, c.presets); err != nil {
			c.logger.Error("seeding badge catalog", err)
			return nil, errors.Wrap(err, "upserting badge definitions")
		}
		atomic.StoreUint32(&c.seeded, 1)
		c.logger.Info("badge catalog seeded", map[string]interface{}{"presets": len(c.presets)})
		return nil, nil
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return errors.Wrap(ctx.Err(), "waiting for badge catalog seed")
	}
}

// ListActive returns the active definitions sorted by ascending threshold, numbered from 1.
func (c *Catalog) ListActive(ctx context.Context) (Ladder, error) {
	if err := c.EnsureSeeded(ctx); err != nil {
		return nil, err
	}
	defs, err := c.repo.QueryActiveDefinitions(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "querying active badge definitions")
	}
	return NewLadder(defs), nil
}

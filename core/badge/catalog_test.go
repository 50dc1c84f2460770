package badge_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-leaderboard/core/badge"
	inmemdb "github.com/trezcool/masomo-leaderboard/storage/database/inmem"
	"github.com/trezcool/masomo-leaderboard/testutil"
)

func TestCatalog_ListActive(t *testing.T) {
	db := inmemdb.Open()
	catalog := badge.NewCatalog(inmemdb.NewBadgeRepository(db), testutil.NewLogger())

	ladder, err := catalog.ListActive(context.Background())
	require.NoError(t, err)
	require.Len(t, ladder, len(badge.Presets))

	for i, def := range ladder {
		assert.Equal(t, i+1, def.Order)
		assert.NotEmpty(t, def.ID)
		if i > 0 {
			assert.Greater(t, def.Threshold, ladder[i-1].Threshold)
		}
	}
	assert.Equal(t, "starter", ladder[0].Code)
	assert.Equal(t, "legend", ladder[len(ladder)-1].Code)
}

func TestCatalog_EnsureSeeded(t *testing.T) {
	t.Run("idempotent", func(t *testing.T) {
		db := inmemdb.Open()
		repo := inmemdb.NewBadgeRepository(db)
		ctx := context.Background()

		first, err := badge.NewCatalog(repo, testutil.NewLogger()).ListActive(ctx)
		require.NoError(t, err)

		// a fresh process seeds again
		second, err := badge.NewCatalog(repo, testutil.NewLogger()).ListActive(ctx)
		require.NoError(t, err)

		assert.Equal(t, first, second)
	})

	t.Run("existing definitions keep their fields", func(t *testing.T) {
		db := inmemdb.Open()
		repo := inmemdb.NewBadgeRepository(db)
		ctx := context.Background()
		custom := badge.Definition{Code: "explorer", Name: "Pathfinder", Threshold: 150}
		require.NoError(t, repo.UpsertDefinitions(ctx, []badge.Definition{custom}))
		db.RetireBadge("explorer")

		ladder, err := badge.NewCatalog(repo, testutil.NewLogger()).ListActive(ctx)
		require.NoError(t, err)
		require.Len(t, ladder, len(badge.Presets))
		assert.Equal(t, "Pathfinder", ladder[1].Name)
		assert.Equal(t, 150, ladder[1].Threshold)
	})

	t.Run("concurrent callers share one seed", func(t *testing.T) {
		repo := &flakyRepository{
			Repository:  inmemdb.NewBadgeRepository(inmemdb.Open()),
			upsertDelay: 50 * time.Millisecond,
		}
		catalog := badge.NewCatalog(repo, testutil.NewLogger())

		var wg sync.WaitGroup
		errs := make(chan error, 20)
		for i := 0; i < 20; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				errs <- catalog.EnsureSeeded(context.Background())
			}()
		}
		wg.Wait()
		close(errs)

		for err := range errs {
			assert.NoError(t, err)
		}
		assert.EqualValues(t, 1, repo.upsertCalls)

		// memoized
		require.NoError(t, catalog.EnsureSeeded(context.Background()))
		assert.EqualValues(t, 1, repo.upsertCalls)
	})

	t.Run("failed seed is retried", func(t *testing.T) {
		repo := &flakyRepository{
			Repository:  inmemdb.NewBadgeRepository(inmemdb.Open()),
			failUpserts: 1,
		}
		catalog := badge.NewCatalog(repo, testutil.NewLogger())

		err := catalog.EnsureSeeded(context.Background())
		require.Error(t, err)
		assert.Equal(t, errStoreDown, errors.Cause(err))

		ladder, err := catalog.ListActive(context.Background())
		require.NoError(t, err)
		assert.Len(t, ladder, len(badge.Presets))
		assert.EqualValues(t, 2, repo.upsertCalls)
	})

	t.Run("caller gives up on its own deadline", func(t *testing.T) {
		repo := &flakyRepository{
			Repository:  inmemdb.NewBadgeRepository(inmemdb.Open()),
			upsertDelay: 200 * time.Millisecond,
		}
		catalog := badge.NewCatalog(repo, testutil.NewLogger())

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()
		err := catalog.EnsureSeeded(ctx)
		require.Error(t, err)
		assert.Equal(t, context.DeadlineExceeded, errors.Cause(err))

		// the detached seed still completes for the next caller
		require.NoError(t, catalog.EnsureSeeded(context.Background()))
		assert.EqualValues(t, 1, repo.upsertCalls)
	})

	t.Run("custom presets", func(t *testing.T) {
		presets := []badge.Definition{
			{Code: "gold", Name: "Gold", Threshold: 500},
			{Code: "bronze", Name: "Bronze", Threshold: 10},
		}
		catalog := badge.NewCatalog(inmemdb.NewBadgeRepository(inmemdb.Open()), testutil.NewLogger(), presets...)

		ladder, err := catalog.ListActive(context.Background())
		require.NoError(t, err)
		require.Len(t, ladder, 2)
		assert.Equal(t, "bronze", ladder[0].Code)
		assert.Equal(t, 2, ladder[1].Order)
	})
}

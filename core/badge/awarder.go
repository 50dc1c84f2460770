package badge

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-leaderboard/core"
)

var nowFunc = time.Now // mockable

// Awarder records the badges a user reached. Awards are permanent: a later drop in points never removes them.
type Awarder struct {
	catalog *Catalog
	repo    Repository
	logger  core.Logger
}

func NewAwarder(catalog *Catalog, repo Repository, logger core.Logger) *Awarder {
	return &Awarder{
		catalog: catalog,
		repo:    repo,
		logger:  logger,
	}
}

// AwardEligible awards every badge with a threshold <= totalPoints that `userID` does not hold yet,
// and returns the IDs of the badges this call inserted.
// A malformed userID is a no-op. A row that fails to insert is skipped; the call fails only if all rows failed.
func (a *Awarder) AwardEligible(ctx context.Context, userID string, totalPoints int) ([]string, error) {
	uid, err := uuid.Parse(core.CleanString(userID))
	if err != nil {
		return nil, nil
	}
	userID = uid.String()

	ladder, err := a.catalog.ListActive(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "listing badge catalog")
	}
	eligible := ladder.Eligible(totalPoints)
	if len(eligible) == 0 {
		return nil, nil
	}

	existing, err := a.repo.QueryAwards(ctx, []string{userID}, eligible.IDs())
	if err != nil {
		return nil, errors.Wrap(err, "querying existing awards")
	}
	owned := make(map[string]bool, len(existing))
	for _, aw := range existing {
		owned[aw.BadgeID] = true
	}

	now := nowFunc().UTC()
	var awarded []string
	var failures int
	var firstErr error
	for _, def := range eligible {
		if owned[def.ID] {
			continue
		}
		_, err := a.repo.InsertAward(ctx, Award{
			UserID:        userID,
			BadgeID:       def.ID,
			PointsAtAward: totalPoints,
			AwardedAt:     now,
		})
		switch {
		case err == nil:
			awarded = append(awarded, def.ID)
		case errors.Cause(err) == ErrAlreadyAwarded:
			// a concurrent caller won the race
		default:
			failures++
			if firstErr == nil {
				firstErr = err
			}
			a.logger.Warn("inserting badge award", err, map[string]interface{}{"user_id": userID, "badge": def.Code})
		}
	}

	if failures > 0 && len(awarded) == 0 {
		return nil, errors.Wrap(firstErr, "inserting badge awards")
	}
	if len(awarded) > 0 {
		a.logger.Info("badges awarded", map[string]interface{}{"user_id": userID, "points": totalPoints, "badges": awarded})
	}
	return awarded, nil
}

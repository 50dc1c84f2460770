package score

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-leaderboard/core"
)

var nowFunc = time.Now // mockable

// BadgeAwarder is called with the new total after every points mutation.
type BadgeAwarder interface {
	AwardEligible(ctx context.Context, userID string, totalPoints int) ([]string, error)
}

type Service struct {
	repo    Repository
	awarder BadgeAwarder
	logger  core.Logger
}

func NewService(repo Repository, awarder BadgeAwarder, logger core.Logger) *Service {
	return &Service{
		repo:    repo,
		awarder: awarder,
		logger:  logger,
	}
}

func (svc *Service) QueryTop(ctx context.Context, filter Filter, limit int) ([]Record, error) {
	filter.Clean()
	if limit <= 0 {
		return []Record{}, nil
	}
	recs, err := svc.repo.QueryTopScores(ctx, filter, limit)
	if err != nil {
		return nil, errors.Wrap(err, "querying top scores")
	}
	return recs, nil
}

// Find returns ErrNotFound when the user has no record under filter.
func (svc *Service) Find(ctx context.Context, userID string, filter Filter) (Record, error) {
	filter.Clean()
	userID = NormalizeID(userID)
	if userID == "" {
		return Record{}, ErrNotFound
	}
	return svc.repo.GetScore(ctx, userID, filter)
}

// CountAbove counts the records with strictly more than `points` under filter.
func (svc *Service) CountAbove(ctx context.Context, points int, filter Filter) (int, error) {
	filter.Clean()
	n, err := svc.repo.CountScoresAbove(ctx, points, filter)
	if err != nil {
		return 0, errors.Wrap(err, "counting scores above")
	}
	return n, nil
}

func (svc *Service) Count(ctx context.Context, filter Filter) (int, error) {
	filter.Clean()
	n, err := svc.repo.CountScores(ctx, filter)
	if err != nil {
		return 0, errors.Wrap(err, "counting scores")
	}
	return n, nil
}

// DistinctGrades returns the valid grades present under schoolID, numerically sorted.
func (svc *Service) DistinctGrades(ctx context.Context, schoolID string) ([]string, error) {
	grades, err := svc.repo.QueryGrades(ctx, NormalizeID(schoolID))
	if err != nil {
		return nil, errors.Wrap(err, "querying grades")
	}
	return SortGrades(grades), nil
}

// AddPoints applies a ledger mutation then awards the badges reached with the new total.
// A failed award is logged only: awarding is idempotent and catches up on the next mutation.
func (svc *Service) AddPoints(ctx context.Context, np NewPoints) (PointsResult, error) {
	np.Clean()
	userID := NormalizeID(np.UserID)
	if userID == "" {
		return PointsResult{}, core.NewValidationError(nil, core.FieldError{Field: "user_id", Error: "must be a valid identifier"})
	}
	if np.Grade != "" && !IsValidGrade(np.Grade) {
		return PointsResult{}, core.NewValidationError(nil, core.FieldError{Field: "grade", Error: "must be a grade between 1 and 12"})
	}

	rec, err := svc.repo.IncrementScore(ctx, userID, NormalizeID(np.SchoolID), np.Grade, np.Points, nowFunc().UTC())
	if err != nil {
		return PointsResult{}, errors.Wrap(err, "incrementing score")
	}

	res := PointsResult{Score: rec, Awarded: []string{}}
	if svc.awarder != nil {
		awarded, err := svc.awarder.AwardEligible(ctx, rec.UserID, rec.TotalPoints)
		if err != nil {
			svc.logger.Error("awarding badges after points mutation", err, map[string]interface{}{"user_id": rec.UserID})
		} else if awarded != nil {
			res.Awarded = awarded
		}
	}
	return res, nil
}

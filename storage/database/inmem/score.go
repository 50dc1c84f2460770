package inmemdb

import (
	"context"
	"sort"
	"time"

	"github.com/trezcool/masomo-leaderboard/core/score"
)

type scoreRepository struct {
	db *scoreTable
}

var _ score.Repository = (*scoreRepository)(nil) // interface compliance check

func NewScoreRepository(db *DB) score.Repository {
	return &scoreRepository{db: db.score}
}

func (repo *scoreRepository) filter(filter score.Filter) []score.Record {
	recs := make([]score.Record, 0, len(repo.db.table))
	for _, rec := range repo.db.table {
		if filter.Match(*rec) {
			recs = append(recs, *rec)
		}
	}
	return recs
}

func (repo *scoreRepository) QueryTopScores(_ context.Context, filter score.Filter, limit int) ([]score.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	recs := repo.filter(filter)
	sort.Slice(recs, func(i, j int) bool {
		a, b := recs[i], recs[j]
		if a.TotalPoints != b.TotalPoints {
			return a.TotalPoints > b.TotalPoints
		}
		if !a.UpdatedAt.Equal(b.UpdatedAt) {
			return a.UpdatedAt.Before(b.UpdatedAt)
		}
		return a.UserID < b.UserID
	})
	if limit >= 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, nil
}

func (repo *scoreRepository) GetScore(_ context.Context, userID string, filter score.Filter) (score.Record, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if rec, ok := repo.db.table[userID]; ok && filter.Match(*rec) {
		return *rec, nil
	}
	return score.Record{}, score.ErrNotFound
}

func (repo *scoreRepository) CountScoresAbove(_ context.Context, points int, filter score.Filter) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var n int
	for _, rec := range repo.filter(filter) {
		if rec.TotalPoints > points {
			n++
		}
	}
	return n, nil
}

func (repo *scoreRepository) CountScores(_ context.Context, filter score.Filter) (int, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()
	return len(repo.filter(filter)), nil
}

func (repo *scoreRepository) QueryGrades(_ context.Context, schoolID string) ([]string, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	var grades []string
	for _, rec := range repo.filter(score.Filter{SchoolID: schoolID}) {
		if rec.Grade != "" {
			grades = append(grades, rec.Grade)
		}
	}
	return grades, nil
}

func (repo *scoreRepository) IncrementScore(_ context.Context, userID, schoolID, grade string, delta int, at time.Time) (score.Record, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	rec, ok := repo.db.table[userID]
	if !ok {
		rec = &score.Record{UserID: userID, CreatedAt: at.UTC()}
		repo.db.table[userID] = rec
	}
	rec.TotalPoints += delta
	if rec.TotalPoints < 0 {
		rec.TotalPoints = 0
	}
	if schoolID != "" {
		rec.SchoolID = schoolID
	}
	if grade != "" {
		rec.Grade = grade
	}
	rec.UpdatedAt = at.UTC()
	return *rec, nil
}

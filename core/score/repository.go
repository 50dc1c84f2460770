package score

import (
	"context"
	"errors"
	"time"
)

var (
	// errors
	ErrNotFound = errors.New("score record not found")
)

type Repository interface {
	// QueryTopScores sorts by TotalPoints desc, UpdatedAt asc then UserID asc.
	QueryTopScores(ctx context.Context, filter Filter, limit int) ([]Record, error)
	GetScore(ctx context.Context, userID string, filter Filter) (Record, error)
	CountScoresAbove(ctx context.Context, points int, filter Filter) (int, error)
	CountScores(ctx context.Context, filter Filter) (int, error)
	// QueryGrades returns the raw grade values found under schoolID ("" for every school).
	QueryGrades(ctx context.Context, schoolID string) ([]string, error)
	// IncrementScore adds delta to the user's total (creating the record if needed), never going below 0.
	// Non-empty schoolID and grade replace the stored snapshot.
	IncrementScore(ctx context.Context, userID, schoolID, grade string, delta int, at time.Time) (Record, error)
}

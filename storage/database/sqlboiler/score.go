package boiledrepos

import (
	"context"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"
	"github.com/volatiletech/sqlboiler/v4/queries"
	"github.com/volatiletech/sqlboiler/v4/queries/qm"

	"github.com/trezcool/masomo-leaderboard/core"
	"github.com/trezcool/masomo-leaderboard/core/score"
)

var scoreColumns = []string{"user_id", "school_id", "grade", "total_points", "created_at", "updated_at"}

var scoreRanking = []core.DBOrdering{
	{Field: "total_points", Ascending: false},
	{Field: "updated_at", Ascending: true},
	{Field: "user_id", Ascending: true},
}

type scoreRow struct {
	UserID      string      `boil:"user_id"`
	SchoolID    null.String `boil:"school_id"`
	Grade       null.String `boil:"grade"`
	TotalPoints int         `boil:"total_points"`
	CreatedAt   time.Time   `boil:"created_at"`
	UpdatedAt   time.Time   `boil:"updated_at"`
}

type scoreRepository struct {
	exec core.DBExecutor
}

var _ score.Repository = (*scoreRepository)(nil) // interface compliance check

func NewScoreRepository(exec core.DBExecutor) score.Repository {
	return &scoreRepository{exec: exec}
}

func (repo scoreRepository) unboil(row *scoreRow) score.Record {
	if row == nil {
		return score.Record{}
	}
	return score.Record{
		UserID:      row.UserID,
		SchoolID:    row.SchoolID.String,
		Grade:       row.Grade.String,
		TotalPoints: row.TotalPoints,
		CreatedAt:   row.CreatedAt.UTC(),
		UpdatedAt:   row.UpdatedAt.UTC(),
	}
}

func (repo scoreRepository) filterMods(filter score.Filter) []qm.QueryMod {
	mods := []qm.QueryMod{qm.From(scoreTable)}
	if filter.SchoolID != "" {
		mods = append(mods, qm.Where("school_id = ?", filter.SchoolID))
	}
	if filter.Grade != "" {
		mods = append(mods, qm.Where("grade = ?", filter.Grade))
	}
	return mods
}

func (repo scoreRepository) count(ctx context.Context, mods []qm.QueryMod) (int, error) {
	var n int
	mods = append(mods, qm.Select("COUNT(*)"))
	if err := newQuery(mods...).QueryRowContext(ctx, repo.exec).Scan(&n); err != nil {
		return 0, err
	}
	return n, nil
}

func (repo scoreRepository) QueryTopScores(ctx context.Context, filter score.Filter, limit int) ([]score.Record, error) {
	orderList := make([]string, 0, len(scoreRanking))
	for _, ord := range scoreRanking {
		orderList = append(orderList, ord.String())
	}

	mods := append(repo.filterMods(filter),
		qm.Select(scoreColumns...),
		qm.OrderBy(strings.Join(orderList, ", ")),
		qm.Limit(limit),
	)
	var rows []*scoreRow
	if err := newQuery(mods...).Bind(ctx, repo.exec, &rows); err != nil {
		return nil, errors.Wrap(err, "querying top scores")
	}

	recs := make([]score.Record, 0, len(rows))
	for _, row := range rows {
		recs = append(recs, repo.unboil(row))
	}
	return recs, nil
}

func (repo scoreRepository) GetScore(ctx context.Context, userID string, filter score.Filter) (score.Record, error) {
	mods := append(repo.filterMods(filter),
		qm.Select(scoreColumns...),
		qm.Where("user_id = ?", userID),
		qm.Limit(1),
	)
	row := new(scoreRow)
	if err := newQuery(mods...).Bind(ctx, repo.exec, row); err != nil {
		return score.Record{}, trapNoRowsErr(err, score.ErrNotFound, "finding score")
	}
	return repo.unboil(row), nil
}

func (repo scoreRepository) CountScoresAbove(ctx context.Context, points int, filter score.Filter) (int, error) {
	mods := append(repo.filterMods(filter), qm.Where("total_points > ?", points))
	n, err := repo.count(ctx, mods)
	if err != nil {
		return 0, errors.Wrap(err, "counting scores above")
	}
	return n, nil
}

func (repo scoreRepository) CountScores(ctx context.Context, filter score.Filter) (int, error) {
	n, err := repo.count(ctx, repo.filterMods(filter))
	if err != nil {
		return 0, errors.Wrap(err, "counting scores")
	}
	return n, nil
}

func (repo scoreRepository) QueryGrades(ctx context.Context, schoolID string) ([]string, error) {
	mods := append(repo.filterMods(score.Filter{SchoolID: schoolID}),
		qm.Select("DISTINCT grade"),
		qm.Where("grade IS NOT NULL"),
	)
	rows, err := newQuery(mods...).QueryContext(ctx, repo.exec)
	if err != nil {
		return nil, errors.Wrap(err, "querying grades")
	}
	defer func() { _ = rows.Close() }()

	var grades []string
	for rows.Next() {
		var g string
		if err = rows.Scan(&g); err != nil {
			return nil, errors.Wrap(err, "scanning grade")
		}
		grades = append(grades, g)
	}
	if err = rows.Err(); err != nil {
		return nil, errors.Wrap(err, "querying grades")
	}
	return grades, nil
}

func (repo scoreRepository) IncrementScore(ctx context.Context, userID, schoolID, grade string, delta int, at time.Time) (score.Record, error) {
	row := new(scoreRow)
	q := queries.Raw(`
		INSERT INTO "score" ("user_id", "school_id", "grade", "total_points", "created_at", "updated_at")
		VALUES ($1, $2, $3, GREATEST($4::integer, 0), $5, $5)
		ON CONFLICT ("user_id") DO UPDATE SET
			"total_points" = GREATEST("score"."total_points" + $4::integer, 0),
			"school_id"    = COALESCE(EXCLUDED."school_id", "score"."school_id"),
			"grade"        = COALESCE(EXCLUDED."grade", "score"."grade"),
			"updated_at"   = EXCLUDED."updated_at"
		RETURNING "user_id", "school_id", "grade", "total_points", "created_at", "updated_at"`,
		userID,
		null.NewString(schoolID, schoolID != ""),
		null.NewString(grade, grade != ""),
		delta,
		at.UTC(),
	)
	if err := q.Bind(ctx, repo.exec, row); err != nil {
		return score.Record{}, errors.Wrap(err, "upserting score")
	}
	return repo.unboil(row), nil
}

package boiledrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/volatiletech/sqlboiler/v4/queries"
	"github.com/volatiletech/sqlboiler/v4/queries/qm"

	"github.com/trezcool/masomo-leaderboard/core"
	"github.com/trezcool/masomo-leaderboard/core/badge"
)

var (
	definitionColumns = []string{"id", "code", "name", "description", "threshold", "icon", "theme", "is_active"}
	awardColumns      = []string{"id", "user_id", "badge_id", "points_at_award", "awarded_at"}
)

type definitionRow struct {
	ID          string `boil:"id"`
	Code        string `boil:"code"`
	Name        string `boil:"name"`
	Description string `boil:"description"`
	Threshold   int    `boil:"threshold"`
	Icon        string `boil:"icon"`
	Theme       string `boil:"theme"`
	IsActive    bool   `boil:"is_active"`
}

type awardRow struct {
	ID            string    `boil:"id"`
	UserID        string    `boil:"user_id"`
	BadgeID       string    `boil:"badge_id"`
	PointsAtAward int       `boil:"points_at_award"`
	AwardedAt     time.Time `boil:"awarded_at"`
}

type badgeRepository struct {
	exec core.DBExecutor
}

var _ badge.Repository = (*badgeRepository)(nil) // interface compliance check

func NewBadgeRepository(exec core.DBExecutor) badge.Repository {
	return &badgeRepository{exec: exec}
}

const upsertDefinitionQuery = `
	INSERT INTO "badge_definition" ("id", "code", "name", "description", "threshold", "icon", "theme", "is_active")
	VALUES ($1, $2, $3, $4, $5, $6, $7, true)
	ON CONFLICT ("code") DO UPDATE SET "is_active" = true, "updated_at" = now()`

func (repo badgeRepository) UpsertDefinitions(ctx context.Context, defs []badge.Definition) (err error) {
	exec := repo.exec
	if db, ok := repo.exec.(core.DB); ok {
		var tx *sql.Tx
		if tx, err = db.BeginTx(ctx, nil); err != nil {
			return errors.Wrap(err, "starting seed transaction")
		}
		defer func() {
			if err != nil {
				_ = tx.Rollback()
				return
			}
			err = errors.Wrap(tx.Commit(), "committing seed transaction")
		}()
		exec = tx
	}

	for _, def := range defs {
		q := queries.Raw(upsertDefinitionQuery,
			uuid.New().String(), def.Code, def.Name, def.Description, def.Threshold, def.Icon, def.Theme)
		if _, err = q.ExecContext(ctx, exec); err != nil {
			return errors.Wrapf(err, "upserting badge %q", def.Code)
		}
	}
	return nil
}

func (repo badgeRepository) QueryActiveDefinitions(ctx context.Context) ([]badge.Definition, error) {
	var rows []*definitionRow
	q := newQuery(
		qm.Select(definitionColumns...),
		qm.From(badgeDefinitionTable),
		qm.Where("is_active = ?", true),
		qm.OrderBy("threshold ASC, code ASC"),
	)
	if err := q.Bind(ctx, repo.exec, &rows); err != nil {
		return nil, errors.Wrap(err, "querying badge definitions")
	}

	defs := make([]badge.Definition, 0, len(rows))
	for _, row := range rows {
		defs = append(defs, badge.Definition{
			ID:          row.ID,
			Code:        row.Code,
			Name:        row.Name,
			Description: row.Description,
			Threshold:   row.Threshold,
			Icon:        row.Icon,
			Theme:       row.Theme,
			IsActive:    row.IsActive,
		})
	}
	return defs, nil
}

func (repo badgeRepository) QueryAwards(ctx context.Context, userIDs []string, badgeIDs []string) ([]badge.Award, error) {
	if len(userIDs) == 0 || (badgeIDs != nil && len(badgeIDs) == 0) {
		return []badge.Award{}, nil
	}

	mods := []qm.QueryMod{
		qm.Select(awardColumns...),
		qm.From(badgeAwardTable),
		qm.WhereIn("user_id IN ?", stringArgs(userIDs)...),
	}
	if badgeIDs != nil {
		mods = append(mods, qm.WhereIn("badge_id IN ?", stringArgs(badgeIDs)...))
	}

	var rows []*awardRow
	if err := newQuery(mods...).Bind(ctx, repo.exec, &rows); err != nil {
		return nil, errors.Wrap(err, "querying badge awards")
	}

	awards := make([]badge.Award, 0, len(rows))
	for _, row := range rows {
		awards = append(awards, badge.Award{
			ID:            row.ID,
			UserID:        row.UserID,
			BadgeID:       row.BadgeID,
			PointsAtAward: row.PointsAtAward,
			AwardedAt:     row.AwardedAt.UTC(),
		})
	}
	return awards, nil
}

func (repo badgeRepository) InsertAward(ctx context.Context, award badge.Award) (badge.Award, error) {
	if award.ID == "" {
		award.ID = uuid.New().String()
	}
	award.AwardedAt = award.AwardedAt.UTC()

	var id string
	q := queries.Raw(`
		INSERT INTO "badge_award" ("id", "user_id", "badge_id", "points_at_award", "awarded_at")
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT ("user_id", "badge_id") DO NOTHING
		RETURNING "id"`,
		award.ID, award.UserID, award.BadgeID, award.PointsAtAward, award.AwardedAt,
	)
	if err := q.QueryRowContext(ctx, repo.exec).Scan(&id); err != nil {
		return badge.Award{}, trapNoRowsErr(err, badge.ErrAlreadyAwarded, "inserting badge award")
	}
	return award, nil
}

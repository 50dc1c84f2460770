package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/masomo-leaderboard/core/profile"
)

type profileRow struct {
	ID         string      `db:"id"`
	Name       string      `db:"name"`
	Avatar     null.String `db:"avatar"`
	Role       null.String `db:"role"`
	Grade      null.String `db:"grade"`
	SchoolID   null.String `db:"school_id"`
	SchoolName null.String `db:"school_name"`
}

type schoolRow struct {
	ID   string `db:"id"`
	Name string `db:"name"`
}

type profileDirectory struct {
	db *sqlx.DB
}

var _ profile.Directory = (*profileDirectory)(nil) // interface compliance check

// NewProfileDirectory reads profiles from the accounts tables ("user" and "school") shared with the main backend.
func NewProfileDirectory(db *sql.DB) profile.Directory {
	return &profileDirectory{db: sqlx.NewDb(db, "postgres")}
}

// validIDs drops malformed uuids, postgres would reject the whole statement otherwise.
func validIDs(ids []string) []string {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id); err == nil {
			valid = append(valid, id)
		}
	}
	return valid
}

func (dir profileDirectory) GetProfiles(ctx context.Context, ids []string) (map[string]profile.Profile, error) {
	profiles := make(map[string]profile.Profile)
	if ids = validIDs(ids); len(ids) == 0 {
		return profiles, nil
	}

	query, args, err := sqlx.In(`
		SELECT u.id, u.name, u.avatar, u.role, u.grade, u.school_id, s.name AS school_name
		FROM "user" u
		LEFT JOIN "school" s ON s.id = u.school_id
		WHERE u.id IN (?)`, ids)
	if err != nil {
		return nil, errors.Wrap(err, "building profiles query")
	}

	var rows []profileRow
	if err = dir.db.SelectContext(ctx, &rows, dir.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying profiles")
	}
	for _, row := range rows {
		profiles[row.ID] = profile.Profile{
			ID:         row.ID,
			Name:       row.Name,
			Avatar:     row.Avatar.String,
			Role:       row.Role.String,
			Grade:      row.Grade.String,
			SchoolID:   row.SchoolID.String,
			SchoolName: row.SchoolName.String,
		}
	}
	return profiles, nil
}

func (dir profileDirectory) GetSchoolNames(ctx context.Context, ids []string) (map[string]string, error) {
	names := make(map[string]string)
	if ids = validIDs(ids); len(ids) == 0 {
		return names, nil
	}

	query, args, err := sqlx.In(`SELECT id, name FROM "school" WHERE id IN (?)`, ids)
	if err != nil {
		return nil, errors.Wrap(err, "building schools query")
	}

	var rows []schoolRow
	if err = dir.db.SelectContext(ctx, &rows, dir.db.Rebind(query), args...); err != nil {
		return nil, errors.Wrap(err, "querying schools")
	}
	for _, row := range rows {
		names[row.ID] = row.Name
	}
	return names, nil
}

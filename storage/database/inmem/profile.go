package inmemdb

import (
	"context"

	"github.com/trezcool/masomo-leaderboard/core/profile"
)

type profileDirectory struct {
	db *profileTable
}

var _ profile.Directory = (*profileDirectory)(nil) // interface compliance check

func NewProfileDirectory(db *DB) profile.Directory {
	return &profileDirectory{db: db.profile}
}

func (dir *profileDirectory) GetProfiles(_ context.Context, ids []string) (map[string]profile.Profile, error) {
	dir.db.RLock()
	defer dir.db.RUnlock()

	profiles := make(map[string]profile.Profile, len(ids))
	for _, id := range ids {
		if p, ok := dir.db.table[id]; ok {
			prof := *p
			if prof.SchoolName == "" && prof.SchoolID != "" {
				prof.SchoolName = dir.db.schools[prof.SchoolID]
			}
			profiles[id] = prof
		}
	}
	return profiles, nil
}

func (dir *profileDirectory) GetSchoolNames(_ context.Context, ids []string) (map[string]string, error) {
	dir.db.RLock()
	defer dir.db.RUnlock()

	names := make(map[string]string, len(ids))
	for _, id := range ids {
		if name, ok := dir.db.schools[id]; ok {
			names[id] = name
		}
	}
	return names, nil
}

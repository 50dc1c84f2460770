package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/trezcool/masomo-leaderboard/core/badge"
)

type badgeRepository struct {
	badges *badgeTable
	awards *awardTable
}

var _ badge.Repository = (*badgeRepository)(nil) // interface compliance check

func NewBadgeRepository(db *DB) badge.Repository {
	return &badgeRepository{badges: db.badge, awards: db.award}
}

func (repo *badgeRepository) UpsertDefinitions(_ context.Context, defs []badge.Definition) error {
	repo.badges.Lock()
	defer repo.badges.Unlock()

	for _, def := range defs {
		if existing, ok := repo.badges.table[def.Code]; ok {
			existing.IsActive = true
			continue
		}
		d := def
		if d.ID == "" {
			d.ID = uuid.New().String()
		}
		d.IsActive = true
		repo.badges.table[d.Code] = &d
	}
	return nil
}

func (repo *badgeRepository) QueryActiveDefinitions(_ context.Context) ([]badge.Definition, error) {
	repo.badges.RLock()
	defer repo.badges.RUnlock()

	defs := make([]badge.Definition, 0, len(repo.badges.table))
	for _, def := range repo.badges.table {
		if def.IsActive {
			defs = append(defs, *def)
		}
	}
	return defs, nil
}

func (repo *badgeRepository) QueryAwards(_ context.Context, userIDs []string, badgeIDs []string) ([]badge.Award, error) {
	repo.awards.RLock()
	defer repo.awards.RUnlock()

	users := toSet(userIDs)
	var badges map[string]bool
	if badgeIDs != nil {
		badges = toSet(badgeIDs)
	}

	var awards []badge.Award
	for key, aw := range repo.awards.table {
		if !users[key.userID] {
			continue
		}
		if badges != nil && !badges[key.badgeID] {
			continue
		}
		awards = append(awards, *aw)
	}
	return awards, nil
}

func (repo *badgeRepository) InsertAward(_ context.Context, award badge.Award) (badge.Award, error) {
	repo.awards.Lock()
	defer repo.awards.Unlock()

	key := awardKey{userID: award.UserID, badgeID: award.BadgeID}
	if _, ok := repo.awards.table[key]; ok {
		return badge.Award{}, badge.ErrAlreadyAwarded
	}
	if award.ID == "" {
		award.ID = uuid.New().String()
	}
	award.AwardedAt = award.AwardedAt.UTC()
	repo.awards.table[key] = &award
	return award, nil
}

func toSet(ids []string) map[string]bool {
	set := make(map[string]bool, len(ids))
	for _, id := range ids {
		set[id] = true
	}
	return set
}

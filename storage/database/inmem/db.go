package inmemdb

import (
	"sync"

	"github.com/trezcool/masomo-leaderboard/core/badge"
	"github.com/trezcool/masomo-leaderboard/core/profile"
	"github.com/trezcool/masomo-leaderboard/core/score"
)

type (
	// DB is an in-memory store. It is safe for concurrent use.
	DB struct {
		score   *scoreTable
		badge   *badgeTable
		award   *awardTable
		profile *profileTable
	}

	scoreTable struct {
		sync.RWMutex
		table map[string]*score.Record
	}

	badgeTable struct {
		sync.RWMutex
		table map[string]*badge.Definition // by Code
	}

	awardKey struct {
		userID  string
		badgeID string
	}

	awardTable struct {
		sync.RWMutex
		table map[awardKey]*badge.Award
	}

	profileTable struct {
		sync.RWMutex
		table   map[string]*profile.Profile
		schools map[string]string
	}
)

func Open() *DB {
	return &DB{
		score:   &scoreTable{table: make(map[string]*score.Record)},
		badge:   &badgeTable{table: make(map[string]*badge.Definition)},
		award:   &awardTable{table: make(map[awardKey]*badge.Award)},
		profile: &profileTable{table: make(map[string]*profile.Profile), schools: make(map[string]string)},
	}
}

// PutProfile creates or replaces a profile.
func (db *DB) PutProfile(p profile.Profile) {
	db.profile.Lock()
	defer db.profile.Unlock()
	db.profile.table[p.ID] = &p
}

// PutSchool creates or renames a school.
func (db *DB) PutSchool(id, name string) {
	db.profile.Lock()
	defer db.profile.Unlock()
	db.profile.schools[id] = name
}

// PutScore creates or replaces a score record as is.
func (db *DB) PutScore(rec score.Record) {
	db.score.Lock()
	defer db.score.Unlock()
	db.score.table[rec.UserID] = &rec
}

// RetireBadge deactivates a definition, as an admin would do in the catalog store.
func (db *DB) RetireBadge(code string) {
	db.badge.Lock()
	defer db.badge.Unlock()
	if def, ok := db.badge.table[code]; ok {
		def.IsActive = false
	}
}

// Reset empties every table.
func (db *DB) Reset() {
	db.score.Lock()
	db.score.table = make(map[string]*score.Record)
	db.score.Unlock()

	db.badge.Lock()
	db.badge.table = make(map[string]*badge.Definition)
	db.badge.Unlock()

	db.award.Lock()
	db.award.table = make(map[awardKey]*badge.Award)
	db.award.Unlock()

	db.profile.Lock()
	db.profile.table = make(map[string]*profile.Profile)
	db.profile.schools = make(map[string]string)
	db.profile.Unlock()
}

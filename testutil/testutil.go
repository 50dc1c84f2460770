package testutil

import (
	"io"
	"log"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/trezcool/masomo-leaderboard/core"
	"github.com/trezcool/masomo-leaderboard/core/profile"
	"github.com/trezcool/masomo-leaderboard/core/score"
	logsvc "github.com/trezcool/masomo-leaderboard/services/logger"
	inmemdb "github.com/trezcool/masomo-leaderboard/storage/database/inmem"
)

// NewLogger returns a silent core.Logger: rollbar disabled, std output discarded.
func NewLogger() core.Logger {
	logger := logsvc.NewRollbarLogger(log.New(io.Discard, "TEST : ", 0), &core.Config{Env: "TEST", TestMode: true})
	logger.Enable(false)
	return logger
}

func NewValidator() (*validator.Validate, ut.Translator) {
	translator := core.NewTranslator()
	validate := validator.New()
	core.InitValidators(validate, translator)
	score.InitValidators(validate, translator)
	return validate, translator
}

func NewID() string {
	return uuid.New().String()
}

// CreateSchool stores a school and returns its ID.
func CreateSchool(t *testing.T, db *inmemdb.DB, name string) string {
	t.Helper()
	id := NewID()
	db.PutSchool(id, name)
	return id
}

// CreateProfile stores a student profile with a fresh ID.
func CreateProfile(t *testing.T, db *inmemdb.DB, name, schoolID, grade string) profile.Profile {
	t.Helper()
	p := profile.Profile{
		ID:       NewID(),
		Name:     name,
		Avatar:   "https://cdn.masomo.test/avatars/" + name + ".png",
		Role:     profile.RoleStudent,
		Grade:    grade,
		SchoolID: schoolID,
	}
	db.PutProfile(p)
	return p
}

// SetScore stores a score record as is. updatedAt defaults to now.
func SetScore(t *testing.T, db *inmemdb.DB, p profile.Profile, points int, updatedAt ...time.Time) score.Record {
	t.Helper()
	tstamp := time.Now().UTC()
	if len(updatedAt) > 0 {
		tstamp = updatedAt[0].UTC()
	}
	rec := score.Record{
		UserID:      p.ID,
		SchoolID:    p.SchoolID,
		Grade:       p.Grade,
		TotalPoints: points,
		CreatedAt:   tstamp,
		UpdatedAt:   tstamp,
	}
	db.PutScore(rec)
	return rec
}

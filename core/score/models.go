package score

import (
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/trezcool/masomo-leaderboard/core"
)

// GradeAll is the grade filter value meaning "every grade".
const GradeAll = "all"

var gradeRegex = regexp.MustCompile(`^(1[0-2]|[1-9])$`)

// Record is the aggregate of a user's points. There is one per user.
type Record struct {
	UserID      string    `json:"user_id"`
	SchoolID    string    `json:"school_id,omitempty"`
	Grade       string    `json:"grade,omitempty"`
	TotalPoints int       `json:"total_points"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

// Filter restricts score queries. Zero values mean "no restriction".
type Filter struct {
	SchoolID string
	Grade    string
}

// Clean drops the values that are not usable as a filter: unknown grade tokens and malformed school IDs.
func (f *Filter) Clean() {
	f.Grade = NormalizeGrade(f.Grade)
	f.SchoolID = NormalizeID(f.SchoolID)
}

func (f Filter) IsEmpty() bool {
	return f.SchoolID == "" && f.Grade == ""
}

// Match reports whether rec passes the filter.
func (f Filter) Match(rec Record) bool {
	if f.SchoolID != "" && rec.SchoolID != f.SchoolID {
		return false
	}
	if f.Grade != "" && rec.Grade != f.Grade {
		return false
	}
	return true
}

// NormalizeGrade returns `raw` if it is a grade between "1" and "12", else "".
func NormalizeGrade(raw string) string {
	g := core.CleanString(raw)
	if !IsValidGrade(g) {
		return ""
	}
	return g
}

func IsValidGrade(g string) bool {
	return gradeRegex.MatchString(g)
}

// NormalizeID returns the canonical form of a UUID, or "" when `raw` is not one.
func NormalizeID(raw string) string {
	id, err := uuid.Parse(core.CleanString(raw))
	if err != nil {
		return ""
	}
	return id.String()
}

// SortGrades de-duplicates the valid grades and sorts them numerically.
func SortGrades(grades []string) []string {
	seen := make(map[string]bool, len(grades))
	out := make([]string, 0, len(grades))
	for _, g := range grades {
		if !IsValidGrade(g) || seen[g] {
			continue
		}
		seen[g] = true
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		a, _ := strconv.Atoi(out[i])
		b, _ := strconv.Atoi(out[j])
		return a < b
	})
	return out
}

// NewPoints is a points ledger mutation.
type NewPoints struct {
	UserID   string `json:"user_id" validate:"required,uuid"`
	Points   int    `json:"points" validate:"ne=0"`
	SchoolID string `json:"school_id" validate:"omitempty,uuid"`
	Grade    string `json:"grade" validate:"omitempty,grade"`
}

func (np *NewPoints) Validate(validate *validator.Validate) error {
	np.Clean()
	return validate.Struct(np)
}

func (np *NewPoints) Clean() {
	np.UserID = core.CleanString(np.UserID, true /* lower */)
	np.SchoolID = core.CleanString(np.SchoolID, true /* lower */)
	np.Grade = core.CleanString(np.Grade)
}

type PointsResult struct {
	Score   Record   `json:"score"`
	Awarded []string `json:"awarded"`
}

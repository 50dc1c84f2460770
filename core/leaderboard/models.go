package leaderboard

import (
	"time"

	"github.com/trezcool/masomo-leaderboard/core/badge"
	"github.com/trezcool/masomo-leaderboard/core/score"
)

const (
	DefaultLimit = 20
	MinLimit     = 5
	MaxLimit     = 100
	PodiumSize   = 3
)

// Highlight reasons
const (
	ReasonPodium = "podium"
	ReasonBadge  = "badge"
	ReasonSelf   = "self"
)

// Query holds the leaderboard parameters. Every field is advisory: invalid values fall back to defaults.
type Query struct {
	Grade      string
	SchoolID   string
	SelfUserID string
	Limit      int
}

func (q *Query) Clean() {
	q.Limit = NormalizeLimit(q.Limit)
	q.Grade = score.NormalizeGrade(q.Grade)
	q.SchoolID = score.NormalizeID(q.SchoolID)
	q.SelfUserID = score.NormalizeID(q.SelfUserID)
}

func (q Query) filter() score.Filter {
	return score.Filter{SchoolID: q.SchoolID, Grade: q.Grade}
}

// NormalizeLimit clamps limit to [MinLimit, MaxLimit]; non-positive values mean DefaultLimit.
func NormalizeLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit < MinLimit:
		return MinLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}

type Entry struct {
	Rank              int                `json:"rank"`
	UserID            string             `json:"user_id"`
	Name              string             `json:"name"`
	Avatar            string             `json:"avatar,omitempty"`
	Role              string             `json:"role,omitempty"`
	Grade             string             `json:"grade,omitempty"`
	SchoolID          string             `json:"school_id,omitempty"`
	SchoolName        string             `json:"school_name,omitempty"`
	Points            int                `json:"points"`
	UpdatedAt         time.Time          `json:"updated_at"` // UTC
	Badges            []badge.Definition `json:"badges"`
	CurrentBadge      *badge.Definition  `json:"current_badge"`
	NextBadge         *badge.Definition  `json:"next_badge"`
	PointsToNextBadge int                `json:"points_to_next_badge"`
	Highlight         bool               `json:"highlight"`
	HighlightReasons  []string           `json:"highlight_reasons"`
	IsSelf            bool               `json:"is_self"`
}

// Self describes where the requesting user stands, even outside the returned page.
type Self struct {
	UserID string `json:"user_id"`
	Rank   int    `json:"rank"`
	Points int    `json:"points"`
	InPage bool   `json:"in_page"`
	Entry  *Entry `json:"entry,omitempty"`
}

type Meta struct {
	Grade             string    `json:"grade"`
	SchoolID          string    `json:"school_id,omitempty"`
	Limit             int       `json:"limit"`
	AvailableGrades   []string  `json:"available_grades"`
	TotalParticipants int       `json:"total_participants"`
	IncludeSelf       bool      `json:"include_self"`
	Self              *Self     `json:"self"`
	GeneratedAt       time.Time `json:"generated_at"` // UTC
}

type Result struct {
	Meta        Meta         `json:"meta"`
	Badges      badge.Ladder `json:"badges"`
	Leaderboard []Entry      `json:"leaderboard"`
	Podium      []Entry      `json:"podium"`
}

func gradeLabel(grade string) string {
	if grade == "" {
		return score.GradeAll
	}
	return grade
}

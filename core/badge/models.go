package badge

import (
	"sort"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/masomo-leaderboard/core"
)

type Definition struct {
	ID          string `json:"id"`
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Threshold   int    `json:"threshold"`
	Icon        string `json:"icon"`
	Theme       string `json:"theme"`
	IsActive    bool   `json:"-"`
	Order       int    `json:"order"`
}

// Award records that a user earned a badge. There is at most one per (UserID, BadgeID).
type Award struct {
	ID            string    `json:"id"`
	UserID        string    `json:"user_id"`
	BadgeID       string    `json:"badge_id"`
	PointsAtAward int       `json:"points_at_award"`
	AwardedAt     time.Time `json:"awarded_at"` // UTC
}

// Presets is the badge ladder every catalog gets seeded with.
var Presets = []Definition{
	{
		Code:        "starter",
		Name:        "Starter",
		Description: "Joined the leaderboard.",
		Threshold:   0,
		Icon:        "seedling",
		Theme:       "slate",
	},
	{
		Code:        "explorer",
		Name:        "Explorer",
		Description: "Earned 100 points.",
		Threshold:   100,
		Icon:        "compass",
		Theme:       "sky",
	},
	{
		Code:        "achiever",
		Name:        "Achiever",
		Description: "Earned 300 points.",
		Threshold:   300,
		Icon:        "star",
		Theme:       "emerald",
	},
	{
		Code:        "scholar",
		Name:        "Scholar",
		Description: "Earned 600 points.",
		Threshold:   600,
		Icon:        "book",
		Theme:       "violet",
	},
	{
		Code:        "champion",
		Name:        "Champion",
		Description: "Earned 1000 points.",
		Threshold:   1000,
		Icon:        "trophy",
		Theme:       "amber",
	},
	{
		Code:        "legend",
		Name:        "Legend",
		Description: "Earned 1500 points.",
		Threshold:   1500,
		Icon:        "crown",
		Theme:       "rose",
	},
}

// Ladder is a list of definitions sorted by ascending Threshold.
type Ladder []Definition

// NewLadder sorts defs by threshold (code breaks ties) and numbers them from 1.
func NewLadder(defs []Definition) Ladder {
	ladder := make(Ladder, len(defs))
	copy(ladder, defs)
	sort.SliceStable(ladder, func(i, j int) bool {
		if ladder[i].Threshold == ladder[j].Threshold {
			return ladder[i].Code < ladder[j].Code
		}
		return ladder[i].Threshold < ladder[j].Threshold
	})
	for i := range ladder {
		ladder[i].Order = i + 1
	}
	return ladder
}

// Eligible returns the definitions reached with `points`.
func (l Ladder) Eligible(points int) Ladder {
	idx := sort.Search(len(l), func(i int) bool { return l[i].Threshold > points })
	return l[:idx]
}

// Next returns the lowest definition not reached yet with `points`, if any.
func (l Ladder) Next(points int) (Definition, bool) {
	idx := sort.Search(len(l), func(i int) bool { return l[i].Threshold > points })
	if idx == len(l) {
		return Definition{}, false
	}
	return l[idx], true
}

// EliteThreshold is the second-highest threshold of the ladder (the only one for a single-badge ladder).
func (l Ladder) EliteThreshold() (int, bool) {
	switch len(l) {
	case 0:
		return 0, false
	case 1:
		return l[0].Threshold, true
	default:
		return l[len(l)-2].Threshold, true
	}
}

func (l Ladder) ByID() map[string]Definition {
	m := make(map[string]Definition, len(l))
	for _, def := range l {
		m[def.ID] = def
	}
	return m
}

func (l Ladder) IDs() []string {
	ids := make([]string, 0, len(l))
	for _, def := range l {
		ids = append(ids, def.ID)
	}
	return ids
}

// NewAward asks for the badges reached with TotalPoints to be awarded to UserID.
type NewAward struct {
	UserID      string `json:"user_id" validate:"required,uuid"`
	TotalPoints int    `json:"total_points" validate:"min=0"`
}

func (na *NewAward) Validate(validate *validator.Validate) error {
	na.UserID = core.CleanString(na.UserID, true /* lower */)
	return validate.Struct(na)
}

package leaderboard

import (
	"sort"

	"github.com/trezcool/masomo-leaderboard/core/badge"
)

// sortEntries orders by points desc, then earlier update first, then name, then user ID.
func sortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if !a.UpdatedAt.Equal(b.UpdatedAt) {
			return a.UpdatedAt.Before(b.UpdatedAt)
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.UserID < b.UserID
	})
}

// assignRanks applies competition ranking ("1224") to sorted entries.
func assignRanks(entries []Entry) {
	for i := range entries {
		if i > 0 && entries[i].Points == entries[i-1].Points {
			entries[i].Rank = entries[i-1].Rank
			continue
		}
		entries[i].Rank = i + 1
	}
}

// applyBadges fills the badge fields of e from the definitions the user was awarded.
// The current badge is the highest awarded one still covered by the user's points.
func applyBadges(e *Entry, ladder badge.Ladder, awarded map[string]bool) {
	e.Badges = make([]badge.Definition, 0, len(awarded))
	e.CurrentBadge = nil
	for _, def := range ladder {
		if !awarded[def.ID] {
			continue
		}
		e.Badges = append(e.Badges, def)
		if def.Threshold <= e.Points {
			d := def
			e.CurrentBadge = &d
		}
	}

	e.NextBadge = nil
	e.PointsToNextBadge = 0
	if next, ok := ladder.Next(e.Points); ok {
		e.NextBadge = &next
		if diff := next.Threshold - e.Points; diff > 0 {
			e.PointsToNextBadge = diff
		}
	}
}

func applyHighlights(entries []Entry, ladder badge.Ladder, selfID string) {
	elite, hasElite := ladder.EliteThreshold()
	for i := range entries {
		e := &entries[i]
		reasons := make([]string, 0, 3)
		if e.Rank <= PodiumSize {
			reasons = append(reasons, ReasonPodium)
		}
		if hasElite && e.CurrentBadge != nil && e.CurrentBadge.Threshold >= elite {
			reasons = append(reasons, ReasonBadge)
		}
		e.IsSelf = selfID != "" && e.UserID == selfID
		if e.IsSelf {
			reasons = append(reasons, ReasonSelf)
		}
		e.HighlightReasons = reasons
		e.Highlight = len(reasons) > 0
	}
}

// podium returns the first entries ranked within the podium, never more than PodiumSize.
func podium(entries []Entry) []Entry {
	p := make([]Entry, 0, PodiumSize)
	for _, e := range entries {
		if len(p) == PodiumSize || e.Rank > PodiumSize {
			break
		}
		p = append(p, e)
	}
	return p
}

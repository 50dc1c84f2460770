package echoapi

import (
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/trezcool/masomo-leaderboard/core/leaderboard"
)

// Query params
const (
	gradeParam  = "grade"
	schoolParam = "school"
	userParam   = "userId"
	limitParam  = "limit"
)

// LeaderboardParams binds the leaderboard query string leniently: a malformed value is dropped, never rejected.
type LeaderboardParams struct {
	Query leaderboard.Query
}

func (p *LeaderboardParams) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}

	p.Query.Grade = data.Get(gradeParam)
	p.Query.SchoolID = data.Get(schoolParam)
	p.Query.SelfUserID = data.Get(userParam)
	if raw := strings.TrimSpace(data.Get(limitParam)); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil {
			p.Query.Limit = limit
		}
	}
}

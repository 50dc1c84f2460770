package main

import (
	"context"
	"flag"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-leaderboard/core/leaderboard"
)

func (cli *commandLine) leaderboard(args []string) error {
	cmd := flag.NewFlagSet("leaderboard", flag.ContinueOnError)
	cmd.SetOutput(cli.out)
	grade := cmd.String("grade", "", "Grade filter (1-12, or all).")
	schoolID := cmd.String("school", "", "School ID filter.")
	userID := cmd.String("user", "", "Requesting user's ID, to include their rank.")
	limit := cmd.Int("limit", leaderboard.DefaultLimit, "Page size.")

	if err := cmd.Parse(args); err != nil {
		return errHelp
	}

	res, err := cli.leaderboardSvc.Get(context.Background(), leaderboard.Query{
		Grade:      *grade,
		SchoolID:   *schoolID,
		SelfUserID: *userID,
		Limit:      *limit,
	})
	if err != nil {
		return errors.Wrap(err, "getting leaderboard")
	}
	return cli.printJSON(res)
}

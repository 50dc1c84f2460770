package main

import (
	"context"
	"flag"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-leaderboard/core/score"
)

func (cli *commandLine) addPoints(args []string) error {
	cmd := flag.NewFlagSet("addpoints", flag.ContinueOnError)
	cmd.SetOutput(cli.out)
	userID := cmd.String("user", "", "The user's ID.")
	points := cmd.Int("points", 0, "Points to add (negative to deduct).")
	schoolID := cmd.String("school", "", "The user's school ID.")
	grade := cmd.String("grade", "", "The user's grade (1-12).")

	if err := cmd.Parse(args); err != nil {
		return errHelp
	}
	if *userID == "" || *points == 0 {
		cmd.Usage()
		return errHelp
	}

	data := score.NewPoints{
		UserID:   *userID,
		Points:   *points,
		SchoolID: *schoolID,
		Grade:    *grade,
	}
	if err := data.Validate(cli.validate); err != nil {
		return err
	}

	res, err := cli.scoreSvc.AddPoints(context.Background(), data)
	if err != nil {
		return errors.Wrap(err, "adding points")
	}
	return cli.printJSON(res)
}

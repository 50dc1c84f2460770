package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/masomo-leaderboard/core/badge"
	"github.com/trezcool/masomo-leaderboard/core/leaderboard"
	"github.com/trezcool/masomo-leaderboard/core/score"
)

var (
	errHelp       = errors.New("help provided")
	errNoDatabase = errors.New("command needs the postgres storage")
)

type commandLine struct {
	db             *sql.DB // nil with the in-memory storage
	catalog        *badge.Catalog
	scoreSvc       *score.Service
	leaderboardSvc *leaderboard.Service
	validate       *validator.Validate
	out            io.Writer
}

func (cli *commandLine) printUsage() {
	fmt.Fprintln(cli.out, "Usage:")
	fmt.Fprintln(cli.out, "  migrate COMMAND [ARGS...] - run a goose command (up, down, status, ...)")
	fmt.Fprintln(cli.out, "  seedbadges - seed the badge catalog with the preset ladder")
	fmt.Fprintln(cli.out, "  addpoints -user USER_ID -points N [-school SCHOOL_ID] [-grade GRADE] - apply a points mutation")
	fmt.Fprintln(cli.out, "  leaderboard [-grade GRADE] [-school SCHOOL_ID] [-user USER_ID] [-limit N] - print a leaderboard page")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	switch args[1] {
	case "migrate":
		if len(args) < 3 {
			cli.printUsage()
			return errHelp
		}
		return cli.migrate(args[2:])
	case "seedbadges":
		return cli.seedBadges()
	case "addpoints":
		return cli.addPoints(args[2:])
	case "leaderboard":
		return cli.leaderboard(args[2:])
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) printJSON(v interface{}) error {
	enc := json.NewEncoder(cli.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/masomo-leaderboard/core"
	"github.com/trezcool/masomo-leaderboard/core/badge"
	"github.com/trezcool/masomo-leaderboard/core/leaderboard"
	"github.com/trezcool/masomo-leaderboard/core/score"
	logsvc "github.com/trezcool/masomo-leaderboard/services/logger"
	"github.com/trezcool/masomo-leaderboard/storage"
)

func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(
		log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile),
		conf,
	)
	logger.Enable(!conf.Debug)

	// set up storage; `migrate` runs goose itself
	store, err := storage.Open(context.Background(), conf, storage.SkipMigrations())
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up %s storage: %v", conf.Storage, err), err)
	}

	cli := newCommandLine(store, logger)
	err = cli.run(os.Args)
	if cErr := store.Close(); cErr != nil {
		logger.Error("Failed to close storage", cErr)
	}
	if err != nil {
		if err != errHelp {
			logger.Error(fmt.Sprintf("error: %v", err), err)
		}
		os.Exit(1)
	}
}

func newCommandLine(store *storage.Store, logger core.Logger) *commandLine {
	translator := core.NewTranslator()
	validate := validator.New()
	core.InitValidators(validate, translator)
	score.InitValidators(validate, translator)

	catalog := badge.NewCatalog(store.Badges, logger)
	awarder := badge.NewAwarder(catalog, store.Badges, logger)
	scoreSvc := score.NewService(store.Scores, awarder, logger)

	return &commandLine{
		db:             store.DB(),
		catalog:        catalog,
		scoreSvc:       scoreSvc,
		leaderboardSvc: leaderboard.NewService(scoreSvc, catalog, store.Badges, store.Profiles, logger),
		validate:       validate,
		out:            os.Stdout,
	}
}

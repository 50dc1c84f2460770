package dig_container

import (
	"context"
	"fmt"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/masomo-leaderboard/apps/api/echo"
	"github.com/trezcool/masomo-leaderboard/core"
	"github.com/trezcool/masomo-leaderboard/core/badge"
	"github.com/trezcool/masomo-leaderboard/core/leaderboard"
	"github.com/trezcool/masomo-leaderboard/core/profile"
	"github.com/trezcool/masomo-leaderboard/core/score"
	logsvc "github.com/trezcool/masomo-leaderboard/services/logger"
	"github.com/trezcool/masomo-leaderboard/storage"
)

type DBLoggerParam struct {
	dig.In
	Logger core.Logger `name:"dbLogger"`
}

type NewConfigFunc func() *core.Config

func newLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	logger.Enable(!conf.Debug)
	return logger
}

func newStore(conf *core.Config, loggerParam DBLoggerParam) *storage.Store {
	store, err := storage.Open(context.Background(), conf)
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up %s storage: %v", conf.Storage, err), err)
	}
	return store
}

func newRepositories(store *storage.Store) (score.Repository, badge.Repository, profile.Directory) {
	return store.Scores, store.Badges, store.Profiles
}

func newCatalog(repo badge.Repository, loggerParam DBLoggerParam) *badge.Catalog {
	return badge.NewCatalog(repo, loggerParam.Logger)
}

func newScoreService(repo score.Repository, awarder *badge.Awarder, logger core.Logger) *score.Service {
	return score.NewService(repo, awarder, logger)
}

func newLeaderboardService(
	scoreSvc *score.Service,
	catalog *badge.Catalog,
	badgeRepo badge.Repository,
	profiles profile.Directory,
	logger core.Logger,
) *leaderboard.Service {
	return leaderboard.NewService(scoreSvc, catalog, badgeRepo, profiles, logger)
}

func newValidate(translator ut.Translator) *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, translator)
	score.InitValidators(validate, translator)
	return validate
}

func newServer(
	conf *core.Config,
	logger core.Logger,
	leaderboardSvc *leaderboard.Service,
	scoreSvc *score.Service,
	awarder *badge.Awarder,
	validate *validator.Validate,
	translator ut.Translator,
) *echoapi.Server {
	return echoapi.NewServer(echoapi.ServerDeps{
		Conf:           conf,
		Logger:         logger,
		LeaderboardSvc: leaderboardSvc,
		ScoreSvc:       scoreSvc,
		Awarder:        awarder,
		Validate:       validate,
		Translator:     translator,
	})
}

// New returns a new dependency injection dig.Container.
// newConf overrides the config constructor (tests).
func New(newConf ...NewConfigFunc) *dig.Container {
	c := dig.New()

	if len(newConf) > 0 && newConf[0] != nil {
		must(c.Provide(newConf[0]))
	} else {
		must(c.Provide(core.NewConfig))
	}
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newStore))
	must(c.Provide(newRepositories))
	must(c.Provide(newCatalog))
	must(c.Provide(badge.NewAwarder))
	must(c.Provide(newScoreService))
	must(c.Provide(newLeaderboardService))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(newValidate))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}

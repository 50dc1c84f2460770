package storage

import (
	"context"
	"database/sql"

	"github.com/pkg/errors"

	"github.com/trezcool/masomo-leaderboard/core"
	"github.com/trezcool/masomo-leaderboard/core/badge"
	"github.com/trezcool/masomo-leaderboard/core/profile"
	"github.com/trezcool/masomo-leaderboard/core/score"
	"github.com/trezcool/masomo-leaderboard/storage/database"
	inmemdb "github.com/trezcool/masomo-leaderboard/storage/database/inmem"
	boiledrepos "github.com/trezcool/masomo-leaderboard/storage/database/sqlboiler"
	sqlxrepos "github.com/trezcool/masomo-leaderboard/storage/database/sqlx"
)

var errUnknownStorage = errors.New("unknown storage driver")

// Store bundles the repositories of one storage engine.
type Store struct {
	Scores   score.Repository
	Badges   badge.Repository
	Profiles profile.Directory

	// Memory is set for the in-memory engine only, for fixtures.
	Memory *inmemdb.DB

	db *sql.DB
}

type (
	options struct {
		skipMigrations bool
	}

	Option func(*options)
)

// SkipMigrations leaves the postgres schema as is, for callers that run goose themselves.
func SkipMigrations() Option {
	return func(o *options) { o.skipMigrations = true }
}

// Open sets up the storage engine selected by conf.Storage.
// For postgres, the database is created and migrated when needed.
func Open(ctx context.Context, conf *core.Config, opts ...Option) (*Store, error) {
	o := new(options)
	for _, opt := range opts {
		opt(o)
	}

	switch conf.Storage {
	case core.StorageMemory:
		return NewMemoryStore(inmemdb.Open()), nil
	case core.StoragePostgres:
		db, err := setUpDB(ctx, conf, !o.skipMigrations)
		if err != nil {
			return nil, errors.Wrap(err, "setting up database")
		}
		return NewPostgresStore(db), nil
	default:
		return nil, errors.Wrapf(errUnknownStorage, "%q", conf.Storage)
	}
}

func NewMemoryStore(db *inmemdb.DB) *Store {
	return &Store{
		Scores:   inmemdb.NewScoreRepository(db),
		Badges:   inmemdb.NewBadgeRepository(db),
		Profiles: inmemdb.NewProfileDirectory(db),
		Memory:   db,
	}
}

func NewPostgresStore(db *sql.DB) *Store {
	return &Store{
		Scores:   boiledrepos.NewScoreRepository(db),
		Badges:   boiledrepos.NewBadgeRepository(db),
		Profiles: sqlxrepos.NewProfileDirectory(db),
		db:       db,
	}
}

// DB returns the underlying postgres handle, nil for the in-memory engine.
func (s *Store) DB() *sql.DB {
	return s.db
}

func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func setUpDB(ctx context.Context, conf *core.Config, migrate bool) (*sql.DB, error) {
	if err := database.CreateIfNotExist(ctx, conf); err != nil {
		return nil, err
	}

	db, err := database.Open(conf)
	if err != nil {
		return nil, err
	}
	if err = database.Ping(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	if migrate {
		if err = database.Migrate(db); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	return db, nil
}

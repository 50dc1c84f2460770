package boiledrepos

import (
	"database/sql"

	"github.com/pkg/errors"
	"github.com/volatiletech/sqlboiler/v4/drivers"
	"github.com/volatiletech/sqlboiler/v4/queries"
	"github.com/volatiletech/sqlboiler/v4/queries/qm"
)

// postgres flavour of the sqlboiler query builder
var dialect = drivers.Dialect{
	LQ:                   0x22,
	RQ:                   0x22,
	UseIndexPlaceholders: true,
	UseDefaultKeyword:    true,
}

// Table names
const (
	scoreTable           = `"score"`
	badgeDefinitionTable = `"badge_definition"`
	badgeAwardTable      = `"badge_award"`
)

func newQuery(mods ...qm.QueryMod) *queries.Query {
	q := &queries.Query{}
	queries.SetDialect(q, &dialect)
	qm.Apply(q, mods...)
	return q
}

func stringArgs(vals []string) []interface{} {
	args := make([]interface{}, 0, len(vals))
	for _, v := range vals {
		args = append(args, v)
	}
	return args
}

// trapNoRowsErr maps psql "no rows" err to `notFound`
func trapNoRowsErr(err error, notFound error, msg string) error {
	if errors.Cause(err) == sql.ErrNoRows {
		return notFound
	}
	return errors.Wrap(err, msg)
}

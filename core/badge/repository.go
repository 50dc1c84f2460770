package badge

import (
	"context"
	"errors"
)

var (
	// errors
	ErrAlreadyAwarded = errors.New("badge already awarded to user")
)

type Repository interface {
	// UpsertDefinitions inserts the definitions whose Code is unknown and re-activates the others,
	// leaving every other field of an existing definition untouched.
	UpsertDefinitions(ctx context.Context, defs []Definition) error
	QueryActiveDefinitions(ctx context.Context) ([]Definition, error)
	// QueryAwards returns the awards of the given users, restricted to badgeIDs unless it is nil.
	QueryAwards(ctx context.Context, userIDs []string, badgeIDs []string) ([]Award, error)
	// InsertAward returns ErrAlreadyAwarded when the (UserID, BadgeID) pair is already recorded.
	InsertAward(ctx context.Context, award Award) (Award, error)
}

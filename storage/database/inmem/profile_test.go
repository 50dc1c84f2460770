package inmemdb

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-leaderboard/core/profile"
)

func Test_profileDirectory(t *testing.T) {
	db := Open()
	dir := NewProfileDirectory(db)
	ctx := context.Background()

	db.PutSchool("s1", "Lycée Wima")
	db.PutProfile(profile.Profile{ID: "u1", Name: "Amani", SchoolID: "s1"})
	db.PutProfile(profile.Profile{ID: "u2", Name: "Bahati"})

	profiles, err := dir.GetProfiles(ctx, []string{"u1", "u2", "u3"})
	require.NoError(t, err)
	require.Len(t, profiles, 2)
	assert.Equal(t, "Lycée Wima", profiles["u1"].SchoolName)
	assert.Empty(t, profiles["u2"].SchoolName)

	names, err := dir.GetSchoolNames(ctx, []string{"s1", "s2"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"s1": "Lycée Wima"}, names)

	db.Reset()
	profiles, err = dir.GetProfiles(ctx, []string{"u1"})
	require.NoError(t, err)
	assert.Empty(t, profiles)
}

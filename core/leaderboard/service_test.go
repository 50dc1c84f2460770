package leaderboard

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/masomo-leaderboard/core/badge"
	"github.com/trezcool/masomo-leaderboard/core/profile"
	"github.com/trezcool/masomo-leaderboard/core/score"
	inmemdb "github.com/trezcool/masomo-leaderboard/storage/database/inmem"
	"github.com/trezcool/masomo-leaderboard/testutil"
)

var errStoreDown = errors.New("store down")

type fixture struct {
	db       *inmemdb.DB
	svc      *Service
	scoreSvc *score.Service
	catalog  *badge.Catalog
	awarder  *badge.Awarder
}

func setup(t *testing.T) fixture {
	t.Helper()
	db := inmemdb.Open()
	logger := testutil.NewLogger()
	badgeRepo := inmemdb.NewBadgeRepository(db)
	catalog := badge.NewCatalog(badgeRepo, logger)
	awarder := badge.NewAwarder(catalog, badgeRepo, logger)
	scoreSvc := score.NewService(inmemdb.NewScoreRepository(db), awarder, logger)

	return fixture{
		db:       db,
		svc:      NewService(scoreSvc, catalog, badgeRepo, inmemdb.NewProfileDirectory(db), logger),
		scoreSvc: scoreSvc,
		catalog:  catalog,
		awarder:  awarder,
	}
}

// student creates a profile with a score, and awards the badges its points reached.
func (f fixture) student(t *testing.T, name, schoolID, grade string, points int, updatedAt time.Time) profile.Profile {
	t.Helper()
	p := testutil.CreateProfile(t, f.db, name, schoolID, grade)
	testutil.SetScore(t, f.db, p, points, updatedAt)
	_, err := f.awarder.AwardEligible(context.Background(), p.ID, points)
	require.NoError(t, err)
	return p
}

type failingScores struct {
	ScoreReader
	failCount bool
	failFind  bool
}

func (s failingScores) Count(ctx context.Context, filter score.Filter) (int, error) {
	if s.failCount {
		return 0, errStoreDown
	}
	return s.ScoreReader.Count(ctx, filter)
}

func (s failingScores) Find(ctx context.Context, userID string, filter score.Filter) (score.Record, error) {
	if s.failFind {
		return score.Record{}, errStoreDown
	}
	return s.ScoreReader.Find(ctx, userID, filter)
}

type failingProfiles struct {
	profile.Directory
	failProfiles bool
	failSchools  bool
}

func (d failingProfiles) GetProfiles(ctx context.Context, ids []string) (map[string]profile.Profile, error) {
	if d.failProfiles {
		return nil, errStoreDown
	}
	return d.Directory.GetProfiles(ctx, ids)
}

func (d failingProfiles) GetSchoolNames(ctx context.Context, ids []string) (map[string]string, error) {
	if d.failSchools {
		return nil, errStoreDown
	}
	return d.Directory.GetSchoolNames(ctx, ids)
}

func TestService_Get_ties(t *testing.T) {
	f := setup(t)
	base := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)

	u2 := f.student(t, "Bahati", "", "5", 500, base)
	u1 := f.student(t, "Amani", "", "5", 500, base)
	u3 := f.student(t, "Chausiku", "", "6", 300, base)

	res, err := f.svc.Get(context.Background(), Query{Limit: 20})
	require.NoError(t, err)

	// equal points and timestamps: the name breaks the tie
	assert.Equal(t, []string{u1.ID, u2.ID, u3.ID}, entryIDs(res.Leaderboard))
	assert.Equal(t, []int{1, 1, 3}, entryRanks(res.Leaderboard))
	assert.Equal(t, []string{u1.ID, u2.ID, u3.ID}, entryIDs(res.Podium))

	assert.Equal(t, "all", res.Meta.Grade)
	assert.Equal(t, 20, res.Meta.Limit)
	assert.Equal(t, 3, res.Meta.TotalParticipants)
	assert.Equal(t, []string{"5", "6"}, res.Meta.AvailableGrades)
	assert.False(t, res.Meta.IncludeSelf)
	assert.Nil(t, res.Meta.Self)
	assert.False(t, res.Meta.GeneratedAt.IsZero())
}

func TestService_Get_badgeFields(t *testing.T) {
	f := setup(t)
	p := f.student(t, "Neema", "", "8", 650, time.Now())

	res, err := f.svc.Get(context.Background(), Query{})
	require.NoError(t, err)
	require.Len(t, res.Leaderboard, 1)

	e := res.Leaderboard[0]
	assert.Equal(t, p.ID, e.UserID)
	assert.Equal(t, "Neema", e.Name)
	require.NotNil(t, e.CurrentBadge)
	require.NotNil(t, e.NextBadge)
	assert.Equal(t, 600, e.CurrentBadge.Threshold)
	assert.Equal(t, 1000, e.NextBadge.Threshold)
	assert.Equal(t, 350, e.PointsToNextBadge)
	assert.Len(t, e.Badges, 4)
	assert.Equal(t, []string{ReasonPodium}, e.HighlightReasons)
	assert.Len(t, res.Badges, len(badge.Presets))
}

func TestService_Get_eliteBadgeHighlight(t *testing.T) {
	f := setup(t)
	base := time.Now()
	for i := 0; i < 4; i++ {
		f.student(t, fmt.Sprintf("Top %d", i), "", "9", 2000-i, base)
	}
	elite := f.student(t, "Elite", "", "9", 1200, base)

	res, err := f.svc.Get(context.Background(), Query{})
	require.NoError(t, err)
	require.Len(t, res.Leaderboard, 5)

	last := res.Leaderboard[4]
	assert.Equal(t, elite.ID, last.UserID)
	assert.Equal(t, 5, last.Rank)
	assert.Equal(t, []string{ReasonBadge}, last.HighlightReasons)
	assert.True(t, last.Highlight)
	assert.Equal(t, []string{ReasonPodium, ReasonBadge}, res.Leaderboard[0].HighlightReasons)
}

func TestService_Get_selfOutsidePage(t *testing.T) {
	f := setup(t)
	base := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	for i := 0; i < 37; i++ {
		f.student(t, fmt.Sprintf("Student %02d", i), "", "7", 100+i, base)
	}
	me := f.student(t, "Me", "", "7", 50, base)
	for i := 0; i < 5; i++ {
		f.student(t, fmt.Sprintf("Late %d", i), "", "7", 10, base)
	}

	res, err := f.svc.Get(context.Background(), Query{SelfUserID: me.ID})
	require.NoError(t, err)

	require.Len(t, res.Leaderboard, DefaultLimit+1)
	last := res.Leaderboard[DefaultLimit]
	assert.Equal(t, me.ID, last.UserID)
	assert.Equal(t, 38, last.Rank)
	assert.True(t, last.IsSelf)
	assert.Contains(t, last.HighlightReasons, ReasonSelf)

	assert.True(t, res.Meta.IncludeSelf)
	require.NotNil(t, res.Meta.Self)
	assert.Equal(t, 38, res.Meta.Self.Rank)
	assert.Equal(t, 50, res.Meta.Self.Points)
	assert.False(t, res.Meta.Self.InPage)
	require.NotNil(t, res.Meta.Self.Entry)
	assert.Equal(t, me.ID, res.Meta.Self.Entry.UserID)
	assert.Equal(t, 43, res.Meta.TotalParticipants)
	assert.Len(t, res.Podium, PodiumSize)
}

func TestService_Get_selfInPage(t *testing.T) {
	f := setup(t)
	base := time.Now()
	f.student(t, "First", "", "3", 300, base)
	me := f.student(t, "Me", "", "3", 200, base)

	res, err := f.svc.Get(context.Background(), Query{SelfUserID: me.ID})
	require.NoError(t, err)

	assert.False(t, res.Meta.IncludeSelf)
	require.NotNil(t, res.Meta.Self)
	assert.True(t, res.Meta.Self.InPage)
	assert.Equal(t, 2, res.Meta.Self.Rank)
	assert.Equal(t, []string{ReasonPodium, ReasonSelf}, res.Leaderboard[1].HighlightReasons)
}

func TestService_Get_selfWithoutProfile(t *testing.T) {
	f := setup(t)
	base := time.Now()
	f.student(t, "First", "", "3", 300, base)
	ghostID := testutil.NewID()
	f.db.PutScore(score.Record{UserID: ghostID, TotalPoints: 120, UpdatedAt: base})

	res, err := f.svc.Get(context.Background(), Query{SelfUserID: ghostID})
	require.NoError(t, err)

	require.Len(t, res.Leaderboard, 1)
	require.NotNil(t, res.Meta.Self)
	assert.Equal(t, 2, res.Meta.Self.Rank)
	assert.Equal(t, 120, res.Meta.Self.Points)
	assert.False(t, res.Meta.Self.InPage)
	assert.Nil(t, res.Meta.Self.Entry)
}

func TestService_Get_unknownSelf(t *testing.T) {
	f := setup(t)
	f.student(t, "First", "", "3", 300, time.Now())

	for _, selfID := range []string{testutil.NewID(), "not-a-uuid"} {
		res, err := f.svc.Get(context.Background(), Query{SelfUserID: selfID})
		require.NoError(t, err)
		assert.Nil(t, res.Meta.Self)
		assert.False(t, res.Meta.IncludeSelf)
		assert.Len(t, res.Leaderboard, 1)
	}
}

func TestService_Get_emptyStore(t *testing.T) {
	f := setup(t)

	res, err := f.svc.Get(context.Background(), Query{SelfUserID: testutil.NewID()})
	require.NoError(t, err)

	assert.Equal(t, []Entry{}, res.Leaderboard)
	assert.Equal(t, []Entry{}, res.Podium)
	assert.Nil(t, res.Meta.Self)
	assert.Equal(t, []string{}, res.Meta.AvailableGrades)
	assert.Len(t, res.Badges, len(badge.Presets))
	assert.Equal(t, 0, res.Meta.TotalParticipants)
}

func TestService_Get_filters(t *testing.T) {
	f := setup(t)
	base := time.Now()
	wima := testutil.CreateSchool(t, f.db, "Lycée Wima")
	tuendelee := testutil.CreateSchool(t, f.db, "Institut Tuendelee")

	a := f.student(t, "A", wima, "5", 400, base)
	b := f.student(t, "B", wima, "6", 300, base)
	c := f.student(t, "C", tuendelee, "5", 200, base)
	d := f.student(t, "D", tuendelee, "12", 100, base)

	tests := []struct {
		name       string
		query      Query
		wantIDs    []string
		wantGrade  string
		wantGrades []string
	}{
		{name: "no filter", query: Query{}, wantIDs: []string{a.ID, b.ID, c.ID, d.ID}, wantGrade: "all", wantGrades: []string{"5", "6", "12"}},
		{name: "invalid grade", query: Query{Grade: "13"}, wantIDs: []string{a.ID, b.ID, c.ID, d.ID}, wantGrade: "all", wantGrades: []string{"5", "6", "12"}},
		{name: "grade all", query: Query{Grade: "all"}, wantIDs: []string{a.ID, b.ID, c.ID, d.ID}, wantGrade: "all", wantGrades: []string{"5", "6", "12"}},
		{name: "grade", query: Query{Grade: "5"}, wantIDs: []string{a.ID, c.ID}, wantGrade: "5", wantGrades: []string{"5", "6", "12"}},
		{name: "school", query: Query{SchoolID: tuendelee}, wantIDs: []string{c.ID, d.ID}, wantGrade: "all", wantGrades: []string{"5", "12"}},
		{name: "school and grade", query: Query{SchoolID: wima, Grade: "6"}, wantIDs: []string{b.ID}, wantGrade: "6", wantGrades: []string{"5", "6"}},
		{name: "malformed school", query: Query{SchoolID: "lol"}, wantIDs: []string{a.ID, b.ID, c.ID, d.ID}, wantGrade: "all", wantGrades: []string{"5", "6", "12"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := f.svc.Get(context.Background(), tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.wantIDs, entryIDs(res.Leaderboard))
			assert.Equal(t, tt.wantGrade, res.Meta.Grade)
			assert.Equal(t, tt.wantGrades, res.Meta.AvailableGrades)
		})
	}

	res, err := f.svc.Get(context.Background(), Query{SchoolID: wima})
	require.NoError(t, err)
	assert.Equal(t, "Lycée Wima", res.Leaderboard[0].SchoolName)
}

func TestService_Get_limit(t *testing.T) {
	f := setup(t)
	base := time.Now()
	for i := 0; i < 120; i++ {
		f.student(t, fmt.Sprintf("S%03d", i), "", "10", i*10, base)
	}

	tests := []struct {
		limit int
		want  int
	}{
		{limit: 0, want: DefaultLimit},
		{limit: 2, want: MinLimit},
		{limit: 30, want: 30},
		{limit: 500, want: MaxLimit},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.limit), func(t *testing.T) {
			res, err := f.svc.Get(context.Background(), Query{Limit: tt.limit})
			require.NoError(t, err)
			assert.Len(t, res.Leaderboard, tt.want)
			assert.Equal(t, tt.want, res.Meta.Limit)
		})
	}
}

func TestService_Get_dataGaps(t *testing.T) {
	f := setup(t)
	base := time.Now()
	schoolID := testutil.CreateSchool(t, f.db, "Collège Alfajiri")

	// score without profile
	f.db.PutScore(score.Record{UserID: testutil.NewID(), TotalPoints: 900, UpdatedAt: base})

	// school only known from the score record
	p := testutil.CreateProfile(t, f.db, "Furaha", "", "")
	f.db.PutScore(score.Record{UserID: p.ID, SchoolID: schoolID, Grade: "4", TotalPoints: 700, UpdatedAt: base})
	_, err := f.awarder.AwardEligible(context.Background(), p.ID, 700)
	require.NoError(t, err)

	res, err := f.svc.Get(context.Background(), Query{})
	require.NoError(t, err)

	require.Len(t, res.Leaderboard, 1)
	e := res.Leaderboard[0]
	assert.Equal(t, p.ID, e.UserID)
	assert.Equal(t, 1, e.Rank)
	assert.Equal(t, "Collège Alfajiri", e.SchoolName)
	assert.Equal(t, "4", e.Grade)
	assert.Equal(t, 2, res.Meta.TotalParticipants)

	// a retired badge is left out of the entry
	f.db.RetireBadge("scholar")
	res, err = f.svc.Get(context.Background(), Query{})
	require.NoError(t, err)
	e = res.Leaderboard[0]
	assert.Len(t, e.Badges, 3)
	require.NotNil(t, e.CurrentBadge)
	assert.Equal(t, "achiever", e.CurrentBadge.Code)
	assert.Len(t, res.Badges, len(badge.Presets)-1)
}

func TestService_Get_storeFailures(t *testing.T) {
	f := setup(t)
	me := f.student(t, "Me", "", "3", 300, time.Now())

	t.Run("score store", func(t *testing.T) {
		svc := NewService(failingScores{ScoreReader: f.scoreSvc, failCount: true}, f.catalog, inmemdb.NewBadgeRepository(f.db), inmemdb.NewProfileDirectory(f.db), testutil.NewLogger())
		_, err := svc.Get(context.Background(), Query{})
		require.Error(t, err)
		assert.Equal(t, errStoreDown, errors.Cause(err))
	})

	t.Run("self lookup", func(t *testing.T) {
		svc := NewService(failingScores{ScoreReader: f.scoreSvc, failFind: true}, f.catalog, inmemdb.NewBadgeRepository(f.db), inmemdb.NewProfileDirectory(f.db), testutil.NewLogger())
		_, err := svc.Get(context.Background(), Query{SelfUserID: me.ID})
		require.Error(t, err)
		assert.Equal(t, errStoreDown, errors.Cause(err))
	})

	t.Run("profile directory", func(t *testing.T) {
		dir := failingProfiles{Directory: inmemdb.NewProfileDirectory(f.db), failProfiles: true}
		svc := NewService(f.scoreSvc, f.catalog, inmemdb.NewBadgeRepository(f.db), dir, testutil.NewLogger())
		_, err := svc.Get(context.Background(), Query{})
		require.Error(t, err)
		assert.Equal(t, errStoreDown, errors.Cause(err))
	})

	t.Run("school names only degrade", func(t *testing.T) {
		p := testutil.CreateProfile(t, f.db, "Nameless school", "", "")
		f.db.PutScore(score.Record{UserID: p.ID, SchoolID: testutil.NewID(), TotalPoints: 10, UpdatedAt: time.Now()})

		dir := failingProfiles{Directory: inmemdb.NewProfileDirectory(f.db), failSchools: true}
		svc := NewService(f.scoreSvc, f.catalog, inmemdb.NewBadgeRepository(f.db), dir, testutil.NewLogger())
		res, err := svc.Get(context.Background(), Query{})
		require.NoError(t, err)
		assert.Len(t, res.Leaderboard, 2)
		assert.Empty(t, res.Leaderboard[1].SchoolName)
	})

}

// The self rank must match the rank a full unpaginated sort gives, whatever the page size.
func TestService_Get_selfRankMatchesFullSort(t *testing.T) {
	f := setup(t)
	rnd := rand.New(rand.NewSource(42))
	base := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)

	var students []profile.Profile
	points := make(map[string]int)
	for i := 0; i < 60; i++ {
		pts := rnd.Intn(15) * 50 // plenty of ties
		p := f.student(t, fmt.Sprintf("S%02d", i), "", "11", pts, base.Add(time.Duration(rnd.Intn(5))*time.Minute))
		students = append(students, p)
		points[p.ID] = pts
	}
	fullRank := func(userID string) int {
		rank := 1
		for _, pts := range points {
			if pts > points[userID] {
				rank++
			}
		}
		return rank
	}

	for _, limit := range []int{5, 10, 20, 50} {
		for _, p := range students {
			res, err := f.svc.Get(context.Background(), Query{SelfUserID: p.ID, Limit: limit})
			require.NoError(t, err)
			require.NotNil(t, res.Meta.Self)
			assert.Equal(t, fullRank(p.ID), res.Meta.Self.Rank, "limit %d, user %s", limit, p.Name)

			// ranks are non-decreasing and tie groups skip ahead
			for i := 1; i < len(res.Leaderboard); i++ {
				prev, curr := res.Leaderboard[i-1], res.Leaderboard[i]
				assert.LessOrEqual(t, prev.Rank, curr.Rank)
				if curr.Points == prev.Points {
					assert.Equal(t, prev.Rank, curr.Rank)
				}
			}
			assert.LessOrEqual(t, len(res.Podium), PodiumSize)
			for _, e := range res.Podium {
				assert.LessOrEqual(t, e.Rank, PodiumSize)
			}
		}
	}
}

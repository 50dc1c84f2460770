package leaderboard

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/trezcool/masomo-leaderboard/core"
	"github.com/trezcool/masomo-leaderboard/core/badge"
	"github.com/trezcool/masomo-leaderboard/core/profile"
	"github.com/trezcool/masomo-leaderboard/core/score"
)

var nowFunc = time.Now // mockable

type (
	ScoreReader interface {
		QueryTop(ctx context.Context, filter score.Filter, limit int) ([]score.Record, error)
		Find(ctx context.Context, userID string, filter score.Filter) (score.Record, error)
		CountAbove(ctx context.Context, points int, filter score.Filter) (int, error)
		Count(ctx context.Context, filter score.Filter) (int, error)
		DistinctGrades(ctx context.Context, schoolID string) ([]string, error)
	}

	BadgeCatalog interface {
		ListActive(ctx context.Context) (badge.Ladder, error)
	}

	AwardReader interface {
		QueryAwards(ctx context.Context, userIDs []string, badgeIDs []string) ([]badge.Award, error)
	}

	Service struct {
		scores   ScoreReader
		catalog  BadgeCatalog
		awards   AwardReader
		profiles profile.Directory
		logger   core.Logger
	}
)

func NewService(
	scores ScoreReader,
	catalog BadgeCatalog,
	awards AwardReader,
	profiles profile.Directory,
	logger core.Logger,
) *Service {
	return &Service{
		scores:   scores,
		catalog:  catalog,
		awards:   awards,
		profiles: profiles,
		logger:   logger,
	}
}

// Badges returns the catalog snapshot.
func (svc *Service) Badges(ctx context.Context) (badge.Ladder, error) {
	ladder, err := svc.catalog.ListActive(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "listing badge catalog")
	}
	return ladder, nil
}

// Get assembles a ranked page of the leaderboard.
// Store failures fail the whole call; entries whose profile cannot be resolved are left out.
func (svc *Service) Get(ctx context.Context, q Query) (Result, error) {
	q.Clean()
	filter := q.filter()

	var (
		top      []score.Record
		grades   []string
		ladder   badge.Ladder
		total    int
		selfRec  score.Record
		selfSeen bool
	)

	// independent reads
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		top, err = svc.scores.QueryTop(gctx, filter, q.Limit)
		return err
	})
	g.Go(func() (err error) {
		grades, err = svc.scores.DistinctGrades(gctx, q.SchoolID)
		return err
	})
	g.Go(func() (err error) {
		ladder, err = svc.catalog.ListActive(gctx)
		return errors.Wrap(err, "listing badge catalog")
	})
	g.Go(func() (err error) {
		total, err = svc.scores.Count(gctx, filter)
		return err
	})
	if q.SelfUserID != "" {
		g.Go(func() error {
			rec, err := svc.scores.Find(gctx, q.SelfUserID, filter)
			switch {
			case err == nil:
				selfRec, selfSeen = rec, true
			case errors.Cause(err) != score.ErrNotFound:
				return errors.Wrap(err, "finding self score")
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	res := Result{
		Meta: Meta{
			Grade:             gradeLabel(q.Grade),
			SchoolID:          q.SchoolID,
			Limit:             q.Limit,
			AvailableGrades:   grades,
			TotalParticipants: total,
			GeneratedAt:       nowFunc().UTC(),
		},
		Badges:      ladder,
		Leaderboard: []Entry{},
		Podium:      []Entry{},
	}
	if res.Meta.AvailableGrades == nil {
		res.Meta.AvailableGrades = []string{}
	}
	if res.Badges == nil {
		res.Badges = badge.Ladder{}
	}

	working := top
	if selfSeen && !containsUser(top, q.SelfUserID) {
		working = append(working, selfRec)
		res.Meta.IncludeSelf = true
	}
	if len(working) == 0 {
		res.Meta.IncludeSelf = false
		return res, nil
	}

	entries, err := svc.join(ctx, working, ladder)
	if err != nil {
		return Result{}, err
	}

	if res.Meta.IncludeSelf && !containsEntry(entries, q.SelfUserID) {
		res.Meta.IncludeSelf = false // dropped with its profile
	}

	sortEntries(entries)
	assignRanks(entries)

	// an appended self sits below the page: its page position says nothing about its real rank
	if res.Meta.IncludeSelf {
		for i := range entries {
			if entries[i].UserID != q.SelfUserID {
				continue
			}
			above, err := svc.scores.CountAbove(ctx, entries[i].Points, filter)
			if err != nil {
				return Result{}, errors.Wrap(err, "ranking self")
			}
			entries[i].Rank = above + 1
		}
	}

	applyHighlights(entries, ladder, q.SelfUserID)
	res.Leaderboard = entries
	res.Podium = podium(entries)

	if q.SelfUserID != "" {
		self, err := svc.self(ctx, entries, q, selfRec, selfSeen, res.Meta.IncludeSelf)
		if err != nil {
			return Result{}, err
		}
		res.Meta.Self = self
	}
	return res, nil
}

// join merges the score records with their profiles and awards.
func (svc *Service) join(ctx context.Context, recs []score.Record, ladder badge.Ladder) ([]Entry, error) {
	ids := make([]string, 0, len(recs))
	for _, rec := range recs {
		ids = append(ids, rec.UserID)
	}

	var (
		profiles map[string]profile.Profile
		awards   []badge.Award
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		profiles, err = svc.profiles.GetProfiles(gctx, ids)
		return errors.Wrap(err, "resolving profiles")
	})
	g.Go(func() (err error) {
		awards, err = svc.awards.QueryAwards(gctx, ids, nil)
		return errors.Wrap(err, "querying awards")
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	known := ladder.ByID()
	awarded := make(map[string]map[string]bool, len(recs))
	for _, aw := range awards {
		if _, ok := known[aw.BadgeID]; !ok {
			continue // retired badge
		}
		if awarded[aw.UserID] == nil {
			awarded[aw.UserID] = make(map[string]bool)
		}
		awarded[aw.UserID][aw.BadgeID] = true
	}

	entries := make([]Entry, 0, len(recs))
	for _, rec := range recs {
		prof, ok := profiles[rec.UserID]
		if !ok {
			svc.logger.Debug("leaderboard: skipping score without profile", map[string]interface{}{"user_id": rec.UserID})
			continue
		}
		e := Entry{
			UserID:     rec.UserID,
			Name:       prof.Name,
			Avatar:     prof.Avatar,
			Role:       prof.Role,
			Grade:      rec.Grade,
			SchoolID:   rec.SchoolID,
			SchoolName: prof.SchoolName,
			Points:     rec.TotalPoints,
			UpdatedAt:  rec.UpdatedAt,
		}
		if e.Grade == "" {
			e.Grade = score.NormalizeGrade(prof.Grade)
		}
		if e.SchoolID == "" {
			e.SchoolID = prof.SchoolID
		}
		applyBadges(&e, ladder, awarded[rec.UserID])
		entries = append(entries, e)
	}

	svc.resolveSchoolNames(ctx, entries)
	return entries, nil
}

// resolveSchoolNames fills missing school names. Failing to do so only leaves them empty.
func (svc *Service) resolveSchoolNames(ctx context.Context, entries []Entry) {
	seen := make(map[string]bool)
	var ids []string
	for _, e := range entries {
		if e.SchoolName == "" && e.SchoolID != "" && !seen[e.SchoolID] {
			seen[e.SchoolID] = true
			ids = append(ids, e.SchoolID)
		}
	}
	if len(ids) == 0 {
		return
	}

	names, err := svc.profiles.GetSchoolNames(ctx, ids)
	if err != nil {
		svc.logger.Warn("leaderboard: resolving school names", err)
		return
	}
	for i := range entries {
		if entries[i].SchoolName == "" {
			entries[i].SchoolName = names[entries[i].SchoolID]
		}
	}
}

func (svc *Service) self(ctx context.Context, entries []Entry, q Query, rec score.Record, seen, appended bool) (*Self, error) {
	for i := range entries {
		if entries[i].UserID == q.SelfUserID {
			e := entries[i]
			return &Self{
				UserID: e.UserID,
				Rank:   e.Rank,
				Points: e.Points,
				InPage: !appended,
				Entry:  &e,
			}, nil
		}
	}
	if !seen {
		return nil, nil
	}

	// the self score exists but its profile could not be resolved
	above, err := svc.scores.CountAbove(ctx, rec.TotalPoints, q.filter())
	if err != nil {
		return nil, errors.Wrap(err, "ranking self")
	}
	return &Self{
		UserID: rec.UserID,
		Rank:   above + 1,
		Points: rec.TotalPoints,
	}, nil
}

func containsEntry(entries []Entry, userID string) bool {
	for _, e := range entries {
		if e.UserID == userID {
			return true
		}
	}
	return false
}

func containsUser(recs []score.Record, userID string) bool {
	for _, rec := range recs {
		if rec.UserID == userID {
			return true
		}
	}
	return false
}

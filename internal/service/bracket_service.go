package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aardvark-games/college-cup/internal/bracket"
	"github.com/aardvark-games/college-cup/internal/metrics"
	"github.com/aardvark-games/college-cup/internal/store"
	"github.com/aardvark-games/college-cup/views"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type BracketOptions struct {
	Seeding      bracket.Seeding
	WinningScore int
}

func DefaultBracketOptions() BracketOptions {
	return BracketOptions{Seeding: bracket.SeedSequential, WinningScore: 3}
}

type BracketService struct {
	db       *sqlx.DB
	store    *store.TournamentStore
	colleges *store.CollegeStore
	opts     BracketOptions
}

func NewBracketService(db *sqlx.DB, store *store.TournamentStore, colleges *store.CollegeStore, opts BracketOptions) *BracketService {
	return &BracketService{db: db, store: store, colleges: colleges, opts: opts}
}

type BuildInput struct {
	CollegeID uuid.UUID
	Name      string
	TeamIDs   []uuid.UUID
}

type BuildResult struct {
	Tournament *bracket.Tournament
	Matches    []bracket.Match
}

// BuildBracket lays out a single-elimination bracket for the given teams of a
// college and persists it together with a new started tournament. Either the
// whole bracket is written or nothing is.
func (s *BracketService) BuildBracket(ctx context.Context, in BuildInput) (*BuildResult, error) {
	if s.opts.WinningScore < 1 {
		return nil, fmt.Errorf("%w: winning score must be at least 1", bracket.ErrValidation)
	}

	tournament := &bracket.Tournament{
		ID:           uuid.New(),
		CollegeID:    in.CollegeID,
		Name:         strings.TrimSpace(in.Name),
		Status:       bracket.TournamentStarted,
		Seeding:      s.opts.Seeding,
		WinningScore: s.opts.WinningScore,
	}

	// Plan first: bad input never reaches the database
	matches, err := bracket.Plan(tournament.ID, in.TeamIDs, s.opts.Seeding)
	if err != nil {
		return nil, err
	}

	college, err := s.colleges.GetCollege(ctx, in.CollegeID)
	if err != nil {
		return nil, err
	}
	if tournament.Name == "" {
		tournament.Name = college.Name + " Cup"
	}

	if err := s.checkTeams(ctx, college.ID, in.TeamIDs); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	active, err := s.store.GetStartedTournamentTx(ctx, tx, college.ID)
	switch {
	case err == nil:
		return nil, fmt.Errorf("%w: college %s already has started bracket %s", bracket.ErrConflict, college.ID, active.ID)
	case !errors.Is(err, bracket.ErrNotFound):
		return nil, err
	}

	if err := s.store.CreateTournament(ctx, tx, tournament); err != nil {
		return nil, err
	}
	if err := s.store.CreateMatches(ctx, tx, matches); err != nil {
		return nil, fmt.Errorf("failed to create matches: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	byes := bracket.Byes(len(in.TeamIDs))
	metrics.BracketsBuilt.Inc()
	metrics.MatchesCreated.Add(float64(len(matches)))
	metrics.ByesAwarded.Add(float64(byes))
	slog.Info("bracket built",
		"tournament", tournament.ID,
		"college", college.ID,
		"teams", len(in.TeamIDs),
		"matches", len(matches),
		"rounds", bracket.Rounds(len(in.TeamIDs)),
		"byes", byes,
		"seeding", s.opts.Seeding)

	return &BuildResult{Tournament: tournament, Matches: matches}, nil
}

// checkTeams makes sure every id is a registered team of the college.
func (s *BracketService) checkTeams(ctx context.Context, collegeID uuid.UUID, ids []uuid.UUID) error {
	teams, err := s.colleges.GetTeams(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to get teams: %w", err)
	}

	found := views.TeamMap(teams)
	for _, id := range ids {
		team, ok := found[id]
		if !ok {
			return fmt.Errorf("%w: team %s", bracket.ErrNotFound, id)
		}
		if team.CollegeID != collegeID {
			return fmt.Errorf("%w: team %s does not belong to college %s", bracket.ErrValidation, id, collegeID)
		}
	}
	return nil
}

func (s *BracketService) GetBracket(ctx context.Context, tournamentID uuid.UUID) (*views.BracketView, error) {
	tournament, err := s.store.GetTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	matches, err := s.store.GetMatches(ctx, tournament.ID)
	if err != nil {
		return nil, err
	}

	teams, err := s.colleges.GetTeams(ctx, teamIDs(matches...))
	if err != nil {
		return nil, err
	}

	view := views.PrepareBracketView(tournament, teams, matches)
	return &view, nil
}

// GetCollegeBracket returns the most recently built bracket of a college.
func (s *BracketService) GetCollegeBracket(ctx context.Context, collegeID uuid.UUID) (*views.BracketView, error) {
	tournament, err := s.store.GetLatestTournament(ctx, collegeID)
	if err != nil {
		return nil, err
	}
	return s.GetBracket(ctx, tournament.ID)
}

func teamIDs(matches ...bracket.Match) []uuid.UUID {
	seen := make(map[uuid.UUID]bool)
	var ids []uuid.UUID
	for _, m := range matches {
		for _, id := range []*uuid.UUID{m.Team1ID, m.Team2ID} {
			if id != nil && !seen[*id] {
				seen[*id] = true
				ids = append(ids, *id)
			}
		}
	}
	return ids
}

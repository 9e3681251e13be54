package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/aardvark-games/college-cup/internal/bracket"
	"github.com/aardvark-games/college-cup/internal/store"
	"github.com/aardvark-games/college-cup/internal/utils"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

const maxNameLength = 50

type TeamService struct {
	db    *sqlx.DB
	store *store.CollegeStore
}

func NewTeamService(db *sqlx.DB, store *store.CollegeStore) *TeamService {
	return &TeamService{db: db, store: store}
}

func (s *TeamService) CreateCollege(ctx context.Context, name string) (*bracket.College, error) {
	n := utils.StringOrNil(name)
	if n == nil {
		return nil, fmt.Errorf("%w: college name is required", bracket.ErrValidation)
	}
	if utf8.RuneCountInString(*n) > maxNameLength {
		return nil, fmt.Errorf("%w: college name %q exceeds %d characters", bracket.ErrValidation, *n, maxNameLength)
	}

	college := &bracket.College{
		ID:        uuid.New(),
		Name:      *n,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.store.CreateCollege(ctx, college); err != nil {
		return nil, err
	}

	slog.Info("college created", "college", college.ID, "name", college.Name)
	return college, nil
}

// RegisterTeams adds one team per non-blank roster line. The whole roster is
// rejected if any name is invalid or already taken.
func (s *TeamService) RegisterTeams(ctx context.Context, collegeID uuid.UUID, roster string) ([]bracket.Team, error) {
	if _, err := s.store.GetCollege(ctx, collegeID); err != nil {
		return nil, err
	}

	names, err := ParseRoster(roster)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	last, err := s.store.LastSeedTx(ctx, tx, collegeID)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	teams := make([]bracket.Team, len(names))
	for i, name := range names {
		teams[i] = bracket.Team{
			ID:        uuid.New(),
			CollegeID: collegeID,
			Name:      name,
			Seed:      last + i + 1,
			CreatedAt: now,
		}
	}

	if err := s.store.CreateTeams(ctx, tx, teams); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}

	slog.Info("teams registered", "college", collegeID, "count", len(teams))
	return teams, nil
}

func (s *TeamService) ListTeams(ctx context.Context, collegeID uuid.UUID) ([]bracket.Team, error) {
	if _, err := s.store.GetCollege(ctx, collegeID); err != nil {
		return nil, err
	}
	return s.store.GetCollegeTeams(ctx, collegeID)
}

// ParseRoster splits a newline separated list of team names.
func ParseRoster(roster string) ([]string, error) {
	var names []string
	seen := make(map[string]bool)

	for i, line := range strings.Split(roster, "\n") {
		name := utils.StringOrNil(line)
		if name == nil {
			continue
		}
		if utf8.RuneCountInString(*name) > maxNameLength {
			return nil, fmt.Errorf("%w: line %d: team name %q exceeds %d characters", bracket.ErrValidation, i+1, *name, maxNameLength)
		}
		key := strings.ToLower(*name)
		if seen[key] {
			return nil, fmt.Errorf("%w: line %d: duplicate team name %q", bracket.ErrValidation, i+1, *name)
		}
		seen[key] = true
		names = append(names, *name)
	}

	if len(names) == 0 {
		return nil, fmt.Errorf("%w: roster has no team names", bracket.ErrValidation)
	}
	return names, nil
}

package store

import (
	"context"
	"fmt"

	"github.com/aardvark-games/college-cup/internal/bracket"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type CollegeStore struct {
	db *sqlx.DB
}

func NewCollegeStore(db *sqlx.DB) *CollegeStore {
	return &CollegeStore{db: db}
}

const (
	createCollegeQuery   = "INSERT INTO colleges (id, name) VALUES (:id, :name)"
	getCollegeQuery      = "SELECT * FROM colleges WHERE id = ?"
	getCollegeTeamsQuery = "SELECT * FROM teams WHERE college_id = ? ORDER BY seed ASC"
	getTeamsQuery        = "SELECT * FROM teams WHERE id IN (?) ORDER BY seed ASC"
	lastSeedQuery        = "SELECT COALESCE(MAX(seed), 0) FROM teams WHERE college_id = ?"
	createTeamsQuery     = "INSERT INTO teams (id, college_id, name, seed) VALUES (:id, :college_id, :name, :seed)"
)

func (s *CollegeStore) CreateCollege(ctx context.Context, college *bracket.College) error {
	_, err := s.db.NamedExecContext(ctx, createCollegeQuery, college)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: college %q already exists", bracket.ErrConflict, college.Name)
	}
	return err
}

func (s *CollegeStore) GetCollege(ctx context.Context, id uuid.UUID) (*bracket.College, error) {
	var college bracket.College
	if err := s.db.GetContext(ctx, &college, s.db.Rebind(getCollegeQuery), id); err != nil {
		return nil, notFound(err, "college", id)
	}
	return &college, nil
}

func (s *CollegeStore) CreateTeams(ctx context.Context, tx *sqlx.Tx, teams []bracket.Team) error {
	if len(teams) == 0 {
		return nil
	}
	_, err := tx.NamedExecContext(ctx, createTeamsQuery, teams)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: team name already registered for this college", bracket.ErrConflict)
	}
	return err
}

// LastSeedTx returns the highest seed registered for the college, or 0.
func (s *CollegeStore) LastSeedTx(ctx context.Context, tx *sqlx.Tx, collegeID uuid.UUID) (int, error) {
	var seed int
	err := tx.GetContext(ctx, &seed, tx.Rebind(lastSeedQuery), collegeID)
	return seed, err
}

func (s *CollegeStore) GetCollegeTeams(ctx context.Context, collegeID uuid.UUID) ([]bracket.Team, error) {
	var teams []bracket.Team
	err := s.db.SelectContext(ctx, &teams, s.db.Rebind(getCollegeTeamsQuery), collegeID)
	return teams, err
}

// GetTeams resolves ids to teams. Unknown ids are simply absent from the
// result; callers that need every id compare lengths.
func (s *CollegeStore) GetTeams(ctx context.Context, ids []uuid.UUID) ([]bracket.Team, error) {
	return getTeams(ctx, s.db, ids)
}

func (s *CollegeStore) GetTeamsTx(ctx context.Context, tx *sqlx.Tx, ids []uuid.UUID) ([]bracket.Team, error) {
	return getTeams(ctx, tx, ids)
}

func getTeams(ctx context.Context, q sqlx.QueryerContext, ids []uuid.UUID) ([]bracket.Team, error) {
	if len(ids) == 0 {
		return []bracket.Team{}, nil
	}
	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = id.String()
	}

	query, args, err := sqlx.In(getTeamsQuery, keys)
	if err != nil {
		return nil, err
	}

	var teams []bracket.Team
	err = sqlx.SelectContext(ctx, q, &teams, rebind(q, query), args...)
	return teams, err
}

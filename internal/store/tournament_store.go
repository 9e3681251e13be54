package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"

	"github.com/Masterminds/squirrel"
	"github.com/aardvark-games/college-cup/internal/bracket"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

type TournamentStore struct {
	db *sqlx.DB
}

func NewTournamentStore(db *sqlx.DB) *TournamentStore {
	return &TournamentStore{db: db}
}

const (
	getTournamentQuery          = "SELECT * FROM tournaments WHERE id = ?"
	getStartedTournamentQuery   = "SELECT * FROM tournaments WHERE college_id = ? AND status = 'started'"
	getLatestTournamentQuery    = "SELECT * FROM tournaments WHERE college_id = ? ORDER BY created_at DESC, rowid DESC LIMIT 1"
	getLatestTournamentQueryPg  = "SELECT * FROM tournaments WHERE college_id = ? ORDER BY created_at DESC LIMIT 1"
	listStartedTournamentsQuery = "SELECT * FROM tournaments WHERE status = 'started' ORDER BY created_at ASC"
	completeTournamentQuery     = "UPDATE tournaments SET status = 'completed', champion_id = ? WHERE id = ? AND status = 'started'"
	getMatchQuery               = "SELECT * FROM matches WHERE id = ?"
	getMatchesQuery             = "SELECT * FROM matches WHERE tournament_id = ? ORDER BY round_number ASC, match_order ASC"

	createTournamentQuery = `INSERT INTO tournaments (id, college_id, name, status, seeding, winning_score, champion_id)
        VALUES (:id, :college_id, :name, :status, :seeding, :winning_score, :champion_id)`
	createMatchesQuery = `INSERT INTO matches (id, tournament_id, round_number, match_order, team_1_id, team_2_id, score_1, score_2, status, winner_id, next_match_id, version)
		VALUES (:id, :tournament_id, :round_number, :match_order, :team_1_id, :team_2_id, :score_1, :score_2, :status, :winner_id, :next_match_id, :version)`

	// Decided matches whose winner never reached the match they feed into
	listUnseededWinnersQuery = `
		SELECT m.* FROM matches m
		JOIN matches n ON n.id = m.next_match_id
		JOIN tournaments t ON t.id = m.tournament_id
		WHERE t.status = 'started'
		AND m.status = 'PLAYED'
		AND m.winner_id IS NOT NULL
		AND (n.team_1_id IS NULL OR n.team_1_id <> m.winner_id)
		AND (n.team_2_id IS NULL OR n.team_2_id <> m.winner_id)
		ORDER BY m.round_number ASC, m.match_order ASC
	`
	// Decided finals of tournaments that were never closed
	listOpenFinalsQuery = `
		SELECT m.* FROM matches m
		JOIN tournaments t ON t.id = m.tournament_id
		WHERE t.status = 'started'
		AND m.next_match_id IS NULL
		AND m.status = 'PLAYED'
		AND m.winner_id IS NOT NULL
	`
)

func (s *TournamentStore) CreateTournament(ctx context.Context, tx *sqlx.Tx, tournament *bracket.Tournament) error {
	_, err := tx.NamedExecContext(ctx, createTournamentQuery, tournament)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: college %s already has a started bracket", bracket.ErrConflict, tournament.CollegeID)
	}
	return err
}

// CreateMatches inserts the whole bracket. Later rounds go in first so every
// next_match_id already exists when its feeder is written.
func (s *TournamentStore) CreateMatches(ctx context.Context, tx *sqlx.Tx, matches []bracket.Match) error {
	if len(matches) == 0 {
		return nil
	}
	ordered := make([]bracket.Match, len(matches))
	copy(ordered, matches)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].RoundNumber != ordered[j].RoundNumber {
			return ordered[i].RoundNumber > ordered[j].RoundNumber
		}
		return ordered[i].MatchOrder < ordered[j].MatchOrder
	})

	_, err := tx.NamedExecContext(ctx, createMatchesQuery, ordered)
	return err
}

func (s *TournamentStore) GetTournament(ctx context.Context, id uuid.UUID) (*bracket.Tournament, error) {
	return getTournament(ctx, s.db, getTournamentQuery, id)
}

func (s *TournamentStore) GetTournamentTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*bracket.Tournament, error) {
	return getTournament(ctx, tx, getTournamentQuery, id)
}

func (s *TournamentStore) GetStartedTournamentTx(ctx context.Context, tx *sqlx.Tx, collegeID uuid.UUID) (*bracket.Tournament, error) {
	return getTournament(ctx, tx, getStartedTournamentQuery, collegeID)
}

func (s *TournamentStore) GetLatestTournament(ctx context.Context, collegeID uuid.UUID) (*bracket.Tournament, error) {
	query := getLatestTournamentQuery
	if s.db.DriverName() == "postgres" {
		query = getLatestTournamentQueryPg
	}
	return getTournament(ctx, s.db, query, collegeID)
}

func (s *TournamentStore) ListStartedTournaments(ctx context.Context) ([]bracket.Tournament, error) {
	var tournaments []bracket.Tournament
	err := s.db.SelectContext(ctx, &tournaments, listStartedTournamentsQuery)
	return tournaments, err
}

func (s *TournamentStore) CompleteTournamentTx(ctx context.Context, tx *sqlx.Tx, id, championID uuid.UUID) error {
	res, err := tx.ExecContext(ctx, tx.Rebind(completeTournamentQuery), championID, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: tournament %s is not started", bracket.ErrConflict, id)
	}
	return nil
}

func (s *TournamentStore) GetMatch(ctx context.Context, id uuid.UUID) (*bracket.Match, error) {
	return getMatch(ctx, s.db, id)
}

func (s *TournamentStore) GetMatchTx(ctx context.Context, tx *sqlx.Tx, id uuid.UUID) (*bracket.Match, error) {
	return getMatch(ctx, tx, id)
}

func (s *TournamentStore) GetMatches(ctx context.Context, tournamentID uuid.UUID) ([]bracket.Match, error) {
	var matches []bracket.Match
	err := s.db.SelectContext(ctx, &matches, s.db.Rebind(getMatchesQuery), tournamentID)
	return matches, err
}

func (s *TournamentStore) GetMatchesTx(ctx context.Context, tx *sqlx.Tx, tournamentID uuid.UUID) ([]bracket.Match, error) {
	var matches []bracket.Match
	err := tx.SelectContext(ctx, &matches, tx.Rebind(getMatchesQuery), tournamentID)
	return matches, err
}

// UpdateMatch applies patch to the match only if it is still at version.
// Every successful write bumps the version, so a caller holding a stale copy
// gets ErrConflict instead of overwriting a concurrent update.
func (s *TournamentStore) UpdateMatch(ctx context.Context, tx *sqlx.Tx, id uuid.UUID, version int, patch bracket.MatchPatch) error {
	if patch.Empty() {
		return nil
	}

	set := map[string]interface{}{
		"version":    squirrel.Expr("version + 1"),
		"updated_at": squirrel.Expr("CURRENT_TIMESTAMP"),
	}
	if patch.Team1ID != nil {
		set["team_1_id"] = *patch.Team1ID
	}
	if patch.Team2ID != nil {
		set["team_2_id"] = *patch.Team2ID
	}
	if patch.Score1 != nil {
		set["score_1"] = *patch.Score1
	}
	if patch.Score2 != nil {
		set["score_2"] = *patch.Score2
	}
	if patch.Status != nil {
		set["status"] = *patch.Status
	}
	if patch.WinnerID != nil {
		set["winner_id"] = *patch.WinnerID
	}

	query, args, err := squirrel.Update("matches").
		SetMap(set).
		Where(squirrel.Eq{"id": id.String(), "version": version}).
		PlaceholderFormat(placeholder(tx)).
		ToSql()
	if err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: match %s changed since version %d", bracket.ErrConflict, id, version)
	}
	return nil
}

func (s *TournamentStore) ListUnseededWinners(ctx context.Context) ([]bracket.Match, error) {
	var matches []bracket.Match
	err := s.db.SelectContext(ctx, &matches, listUnseededWinnersQuery)
	return matches, err
}

func (s *TournamentStore) ListOpenFinals(ctx context.Context) ([]bracket.Match, error) {
	var matches []bracket.Match
	err := s.db.SelectContext(ctx, &matches, listOpenFinalsQuery)
	return matches, err
}

func getTournament(ctx context.Context, q sqlx.QueryerContext, query string, arg interface{}) (*bracket.Tournament, error) {
	var tournament bracket.Tournament
	if err := sqlx.GetContext(ctx, q, &tournament, rebind(q, query), arg); err != nil {
		return nil, notFound(err, "tournament", arg)
	}
	return &tournament, nil
}

func getMatch(ctx context.Context, q sqlx.QueryerContext, id uuid.UUID) (*bracket.Match, error) {
	var match bracket.Match
	if err := sqlx.GetContext(ctx, q, &match, rebind(q, getMatchQuery), id); err != nil {
		return nil, notFound(err, "match", id)
	}
	return &match, nil
}

func notFound(err error, what string, key interface{}) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s %v (%w)", bracket.ErrNotFound, what, key, err)
	}
	return err
}

func rebind(q interface{}, query string) string {
	if b, ok := q.(interface{ Rebind(string) string }); ok {
		return b.Rebind(query)
	}
	return query
}

func placeholder(q interface{ DriverName() string }) squirrel.PlaceholderFormat {
	if q.DriverName() == "postgres" {
		return squirrel.Dollar
	}
	return squirrel.Question
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique ||
			sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "23505"
	}
	return false
}

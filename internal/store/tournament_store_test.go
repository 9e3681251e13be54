package store

import (
	"context"
	"testing"

	"github.com/aardvark-games/college-cup/internal/bracket"
	"github.com/aardvark-games/college-cup/internal/utils"
	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestDB creates an in-memory SQLite database and applies migrations
func setupTestDB(t *testing.T) *sqlx.DB {
	t.Helper()

	database, err := sqlx.Connect("sqlite3", "file::memory:")
	require.NoError(t, err, "Failed to connect to in-memory DB")

	_, err = database.Exec("PRAGMA foreign_keys = ON;")
	require.NoError(t, err)
	database.SetMaxOpenConns(1)

	driver, err := sqlite3.WithInstance(database.DB, &sqlite3.Config{})
	require.NoError(t, err, "Failed to create migrate driver instance")

	m, err := migrate.NewWithDatabaseInstance(
		"file://../../migrations/sqlite3",
		"sqlite3",
		driver,
	)
	require.NoError(t, err, "Failed to create migrate instance")

	err = m.Up()
	if err != nil && err != migrate.ErrNoChange {
		require.NoError(t, err, "Failed to apply migrations")
	}

	return database
}

// seedBracket stores a college with two teams and a started tournament whose
// only match is a ready final between them.
func seedBracket(t *testing.T, db *sqlx.DB) (*bracket.Tournament, []bracket.Team, bracket.Match) {
	t.Helper()
	ctx := context.Background()
	colleges := NewCollegeStore(db)
	tournaments := NewTournamentStore(db)

	college := &bracket.College{ID: uuid.New(), Name: "Riverside"}
	require.NoError(t, colleges.CreateCollege(ctx, college))

	teams := []bracket.Team{
		{ID: uuid.New(), CollegeID: college.ID, Name: "Owls", Seed: 1},
		{ID: uuid.New(), CollegeID: college.ID, Name: "Foxes", Seed: 2},
	}
	tournament := &bracket.Tournament{
		ID:           uuid.New(),
		CollegeID:    college.ID,
		Name:         "Riverside Cup",
		Status:       bracket.TournamentStarted,
		Seeding:      bracket.SeedSequential,
		WinningScore: 3,
	}
	matches, err := bracket.Plan(tournament.ID, []uuid.UUID{teams[0].ID, teams[1].ID}, bracket.SeedSequential)
	require.NoError(t, err)

	tx, err := db.Beginx()
	require.NoError(t, err)
	require.NoError(t, colleges.CreateTeams(ctx, tx, teams))
	require.NoError(t, tournaments.CreateTournament(ctx, tx, tournament))
	require.NoError(t, tournaments.CreateMatches(ctx, tx, matches))
	require.NoError(t, tx.Commit())

	return tournament, teams, matches[0]
}

func TestCreateTournament(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	store := NewTournamentStore(db)
	tournament, _, _ := seedBracket(t, db)

	stored, err := store.GetTournament(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, tournament.Name, stored.Name)
	assert.Equal(t, bracket.TournamentStarted, stored.Status)
	assert.Equal(t, 3, stored.WinningScore)
	assert.Nil(t, stored.ChampionID)
	assert.False(t, stored.CreatedAt.IsZero())

	latest, err := store.GetLatestTournament(ctx, tournament.CollegeID)
	require.NoError(t, err)
	assert.Equal(t, tournament.ID, latest.ID)

	started, err := store.ListStartedTournaments(ctx)
	require.NoError(t, err)
	assert.Len(t, started, 1)

	// A second started bracket for the same college trips the partial index
	tx, err := db.Beginx()
	require.NoError(t, err)
	defer tx.Rollback()
	dup := *tournament
	dup.ID = uuid.New()
	err = store.CreateTournament(ctx, tx, &dup)
	assert.ErrorIs(t, err, bracket.ErrConflict)
}

func TestGetTournament_NotFound(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	_, err := NewTournamentStore(db).GetTournament(context.Background(), uuid.New())
	assert.ErrorIs(t, err, bracket.ErrNotFound)

	_, err = NewTournamentStore(db).GetMatch(context.Background(), uuid.New())
	assert.ErrorIs(t, err, bracket.ErrNotFound)
}

func TestCreateMatches_WiresNextMatch(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	colleges := NewCollegeStore(db)
	store := NewTournamentStore(db)

	college := &bracket.College{ID: uuid.New(), Name: "Hillcrest"}
	require.NoError(t, colleges.CreateCollege(ctx, college))

	teams := make([]bracket.Team, 6)
	ids := make([]uuid.UUID, len(teams))
	for i := range teams {
		teams[i] = bracket.Team{ID: uuid.New(), CollegeID: college.ID, Name: string(rune('A' + i)), Seed: i + 1}
		ids[i] = teams[i].ID
	}

	tournament := &bracket.Tournament{ID: uuid.New(), CollegeID: college.ID, Name: "Cup", Status: bracket.TournamentStarted, Seeding: bracket.SeedStandard, WinningScore: 3}
	planned, err := bracket.Plan(tournament.ID, ids, bracket.SeedStandard)
	require.NoError(t, err)

	tx, err := db.Beginx()
	require.NoError(t, err)
	require.NoError(t, colleges.CreateTeams(ctx, tx, teams))
	require.NoError(t, store.CreateTournament(ctx, tx, tournament))
	require.NoError(t, store.CreateMatches(ctx, tx, planned))
	require.NoError(t, tx.Commit())

	matches, err := store.GetMatches(ctx, tournament.ID)
	require.NoError(t, err)
	require.Len(t, matches, 5)

	for i, m := range matches {
		if i > 0 {
			prev := matches[i-1]
			assert.True(t, prev.RoundNumber < m.RoundNumber ||
				(prev.RoundNumber == m.RoundNumber && prev.MatchOrder < m.MatchOrder), "matches come back in bracket order")
		}
	}
	assert.Nil(t, matches[len(matches)-1].NextMatchID)

	teamsByID, err := colleges.GetTeams(ctx, ids[:3])
	require.NoError(t, err)
	assert.Len(t, teamsByID, 3)
}

func TestUpdateMatch(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	store := NewTournamentStore(db)
	_, teams, match := seedBracket(t, db)

	tx, err := db.Beginx()
	require.NoError(t, err)

	patch := bracket.MatchPatch{
		Score1:   utils.Ptr(3),
		Status:   utils.Ptr(bracket.MatchPlayed),
		WinnerID: utils.Ptr(teams[0].ID),
	}
	require.NoError(t, store.UpdateMatch(ctx, tx, match.ID, match.Version, patch))

	// The same version cannot be written twice
	err = store.UpdateMatch(ctx, tx, match.ID, match.Version, bracket.MatchPatch{Score2: utils.Ptr(1)})
	assert.ErrorIs(t, err, bracket.ErrConflict)
	require.NoError(t, tx.Commit())

	stored, err := store.GetMatch(ctx, match.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, stored.Score1)
	assert.Equal(t, 0, stored.Score2)
	assert.Equal(t, bracket.MatchPlayed, stored.Status)
	assert.Equal(t, teams[0].ID, *stored.WinnerID)
	assert.Equal(t, match.Version+1, stored.Version)
	assert.Equal(t, teams[1].ID, *stored.Team2ID)
}

func TestCompleteTournament(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	store := NewTournamentStore(db)
	tournament, teams, match := seedBracket(t, db)

	_, err := db.Exec("UPDATE matches SET status = 'PLAYED', score_1 = 3, winner_id = ? WHERE id = ?", teams[0].ID, match.ID)
	require.NoError(t, err)

	open, err := store.ListOpenFinals(ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)
	assert.Equal(t, match.ID, open[0].ID)

	tx, err := db.Beginx()
	require.NoError(t, err)
	require.NoError(t, store.CompleteTournamentTx(ctx, tx, tournament.ID, teams[0].ID))
	assert.ErrorIs(t, store.CompleteTournamentTx(ctx, tx, tournament.ID, teams[0].ID), bracket.ErrConflict)
	require.NoError(t, tx.Commit())

	open, err = store.ListOpenFinals(ctx)
	require.NoError(t, err)
	assert.Empty(t, open)

	stored, err := store.GetTournament(ctx, tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, bracket.TournamentCompleted, stored.Status)
	assert.Equal(t, teams[0].ID, *stored.ChampionID)
}

func TestCollegeStore(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	ctx := context.Background()
	colleges := NewCollegeStore(db)

	college := &bracket.College{ID: uuid.New(), Name: "Lakeside"}
	require.NoError(t, colleges.CreateCollege(ctx, college))
	assert.ErrorIs(t, colleges.CreateCollege(ctx, &bracket.College{ID: uuid.New(), Name: "Lakeside"}), bracket.ErrConflict)

	_, err := colleges.GetCollege(ctx, uuid.New())
	assert.ErrorIs(t, err, bracket.ErrNotFound)

	tx, err := db.Beginx()
	require.NoError(t, err)
	err = colleges.CreateTeams(ctx, tx, []bracket.Team{
		{ID: uuid.New(), CollegeID: college.ID, Name: "Herons", Seed: 1},
		{ID: uuid.New(), CollegeID: college.ID, Name: "Herons", Seed: 2},
	})
	assert.ErrorIs(t, err, bracket.ErrConflict)
	require.NoError(t, tx.Rollback())

	teams, err := colleges.GetCollegeTeams(ctx, college.ID)
	require.NoError(t, err)
	assert.Empty(t, teams)

	none, err := colleges.GetTeams(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

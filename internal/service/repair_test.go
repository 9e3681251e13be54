package service

import (
	"context"
	"testing"

	"github.com/aardvark-games/college-cup/internal/bracket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRepair_SeatsMissingWinner(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, DefaultBracketOptions())
	res, teams := f.build(t, 4)
	match := f.findMatch(t, res.Tournament.ID, 1, 1)
	final := f.findMatch(t, res.Tournament.ID, 2, 1)

	// A result that was recorded without reaching the next match
	_, err := f.db.Exec("UPDATE matches SET score_1 = 3, status = 'PLAYED', winner_id = ? WHERE id = ?", teams[0].ID, match.ID)
	require.NoError(t, err)

	report, err := f.matches.Repair(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.WinnersSeeded)
	assert.Equal(t, 0, report.TournamentsCompleted)

	stored, err := f.tournaments.GetMatch(ctx, final.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.Team1ID)
	assert.Equal(t, teams[0].ID, *stored.Team1ID)

	report, err = f.matches.Repair(ctx)
	require.NoError(t, err)
	assert.Equal(t, &RepairReport{}, report)
}

func TestRepair_CompletesOpenFinal(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, DefaultBracketOptions())
	res, teams := f.build(t, 2)

	_, err := f.db.Exec("UPDATE matches SET score_2 = 3, status = 'PLAYED', winner_id = ? WHERE id = ?", teams[1].ID, res.Matches[0].ID)
	require.NoError(t, err)

	report, err := f.matches.Repair(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.TournamentsCompleted)

	tournament, err := f.tournaments.GetTournament(ctx, res.Tournament.ID)
	require.NoError(t, err)
	assert.Equal(t, bracket.TournamentCompleted, tournament.Status)
	assert.Equal(t, teams[1].ID, *tournament.ChampionID)
}

func TestRepair_ReportsBrokenBrackets(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, DefaultBracketOptions())
	res, teams := f.build(t, 4)
	match := f.findMatch(t, res.Tournament.ID, 1, 1)
	final := f.findMatch(t, res.Tournament.ID, 2, 1)

	_, err := f.db.Exec("UPDATE matches SET team_1_id = ?, team_2_id = ? WHERE id = ?", teams[2].ID, teams[3].ID, final.ID)
	require.NoError(t, err)
	_, err = f.db.Exec("UPDATE matches SET score_1 = 3, status = 'PLAYED', winner_id = ? WHERE id = ?", teams[0].ID, match.ID)
	require.NoError(t, err)

	report, err := f.matches.Repair(ctx)
	assert.ErrorIs(t, err, bracket.ErrConsistency)
	require.NotNil(t, report)
	assert.Equal(t, 0, report.WinnersSeeded)
}

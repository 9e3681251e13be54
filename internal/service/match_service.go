package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aardvark-games/college-cup/internal/bracket"
	"github.com/aardvark-games/college-cup/internal/metrics"
	"github.com/aardvark-games/college-cup/internal/store"
	"github.com/aardvark-games/college-cup/internal/utils"
	"github.com/aardvark-games/college-cup/views"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type MatchService struct {
	db       *sqlx.DB
	store    *store.TournamentStore
	colleges *store.CollegeStore
}

func NewMatchService(db *sqlx.DB, store *store.TournamentStore, colleges *store.CollegeStore) *MatchService {
	return &MatchService{db: db, store: store, colleges: colleges}
}

// ScoreUpdate is a partial result submission. Nil scores keep the stored
// value; Status is an optional explicit state override.
type ScoreUpdate struct {
	Score1 *int
	Score2 *int
	Status *bracket.MatchStatus
}

func (u ScoreUpdate) hasScores() bool {
	return u.Score1 != nil || u.Score2 != nil
}

func (u ScoreUpdate) validate() error {
	if utils.OrZero(u.Score1) < 0 || utils.OrZero(u.Score2) < 0 {
		return fmt.Errorf("%w: scores cannot be negative", bracket.ErrValidation)
	}
	if u.Status != nil && !u.Status.Valid() {
		return fmt.Errorf("%w: unknown match state %q", bracket.ErrValidation, *u.Status)
	}
	if !u.hasScores() && u.Status == nil {
		return fmt.Errorf("%w: nothing to update", bracket.ErrValidation)
	}
	return nil
}

// matches reports whether the update would leave a decided match unchanged.
func (u ScoreUpdate) matches(m *bracket.Match) bool {
	return utils.Equal(u.Score1, m.Score1) &&
		utils.Equal(u.Score2, m.Score2) &&
		utils.Equal(u.Status, m.Status)
}

type MatchResult struct {
	Match views.MatchView `json:"match"`
	// NextMatch is set only when this submission seated the winner
	NextMatch           *views.MatchView `json:"nextMatch"`
	TournamentCompleted bool             `json:"tournamentCompleted"`
}

// progress is what a result submission changed, carried out of the transaction.
type progress struct {
	match     *bracket.Match
	next      *bracket.Match
	completed bool
	outcome   string
}

func (s *MatchService) GetMatchView(ctx context.Context, matchID uuid.UUID) (*views.MatchView, error) {
	match, err := s.store.GetMatch(ctx, matchID)
	if err != nil {
		return nil, err
	}
	teams, err := s.colleges.GetTeams(ctx, teamIDs(*match))
	if err != nil {
		return nil, err
	}
	view := views.NewMatchView(match, views.TeamMap(teams))
	return &view, nil
}

// RecordMatchResult merges a score update into a match. When a score reaches
// the tournament's winning score the match is decided, and the winner is
// seated in the next match, or the tournament is completed for the final.
// All writes happen in one transaction.
func (s *MatchService) RecordMatchResult(ctx context.Context, matchID uuid.UUID, update ScoreUpdate) (*MatchResult, error) {
	res, err := s.recordMatchResult(ctx, matchID, update)
	if err != nil {
		switch {
		case errors.Is(err, bracket.ErrConflict):
			metrics.ResultsRecorded.WithLabelValues("conflict").Inc()
		case errors.Is(err, bracket.ErrValidation), errors.Is(err, bracket.ErrNotFound):
			metrics.ResultsRecorded.WithLabelValues("rejected").Inc()
		}
		return nil, err
	}
	metrics.ResultsRecorded.WithLabelValues(res.outcome).Inc()

	teams, err := s.colleges.GetTeams(ctx, teamIDs(progressMatches(res)...))
	if err != nil {
		return nil, fmt.Errorf("failed to get teams: %w", err)
	}
	teamMap := views.TeamMap(teams)

	result := &MatchResult{
		Match:               views.NewMatchView(res.match, teamMap),
		TournamentCompleted: res.completed,
	}
	if res.next != nil {
		next := views.NewMatchView(res.next, teamMap)
		result.NextMatch = &next
	}
	return result, nil
}

func (s *MatchService) recordMatchResult(ctx context.Context, matchID uuid.UUID, update ScoreUpdate) (*progress, error) {
	if err := update.validate(); err != nil {
		return nil, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()

	match, err := s.store.GetMatchTx(ctx, tx, matchID)
	if err != nil {
		return nil, err
	}

	if match.Decided() {
		if update.matches(match) {
			return &progress{match: match, outcome: "noop"}, nil
		}
		return nil, fmt.Errorf("%w: match %s is already played", bracket.ErrConflict, match.ID)
	}
	if match.Status == bracket.MatchPlayed {
		return nil, fmt.Errorf("%w: match %s is played without a winner", bracket.ErrConsistency, match.ID)
	}

	tournament, err := s.store.GetTournamentTx(ctx, tx, match.TournamentID)
	if err != nil {
		return nil, err
	}

	patch, err := scorePatch(match, update, tournament.WinningScore)
	if err != nil {
		return nil, err
	}
	if patch.Empty() {
		return &progress{match: match, outcome: "noop"}, nil
	}

	if err := s.store.UpdateMatch(ctx, tx, match.ID, match.Version, patch); err != nil {
		return nil, err
	}
	patch.Apply(match)
	match.Version++

	res := &progress{match: match, outcome: "scored"}
	if match.Decided() {
		res.outcome = "decided"
		if match.NextMatchID != nil {
			next, seeded, err := s.seedWinner(ctx, tx, match)
			if err != nil {
				return nil, err
			}
			if seeded {
				res.next = next
			}
		} else {
			if err := s.store.CompleteTournamentTx(ctx, tx, tournament.ID, *match.WinnerID); err != nil {
				return nil, fmt.Errorf("failed to complete tournament: %w", err)
			}
			res.completed = true
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, err
	}

	if res.outcome == "decided" {
		slog.Info("match decided",
			"match", match.ID,
			"tournament", match.TournamentID,
			"round", match.RoundNumber,
			"winner", *match.WinnerID,
			"score", fmt.Sprintf("%d-%d", match.Score1, match.Score2))
	}
	if res.next != nil {
		metrics.WinnersSeeded.Inc()
	}
	if res.completed {
		metrics.TournamentsCompleted.Inc()
		slog.Info("tournament completed", "tournament", match.TournamentID, "champion", *match.WinnerID)
	}
	return res, nil
}

// scorePatch works out the write for an undecided match.
func scorePatch(match *bracket.Match, update ScoreUpdate, winningScore int) (bracket.MatchPatch, error) {
	patch := bracket.MatchPatch{Score1: update.Score1, Score2: update.Score2}

	if update.hasScores() && !match.Ready() {
		return patch, fmt.Errorf("%w: match %s is still waiting for teams", bracket.ErrValidation, match.ID)
	}

	merged := *match
	patch.Apply(&merged)

	won1 := merged.Score1 >= winningScore
	won2 := merged.Score2 >= winningScore
	switch {
	case won1 && won2:
		return patch, fmt.Errorf("%w: only one team can reach %d", bracket.ErrValidation, winningScore)
	case won1 || won2:
		if update.Status != nil && *update.Status != bracket.MatchPlayed {
			return patch, fmt.Errorf("%w: a score of %d decides the match", bracket.ErrValidation, winningScore)
		}
		winner := merged.Team1ID
		if won2 {
			winner = merged.Team2ID
		}
		patch.WinnerID = winner
		patch.Status = utils.Ptr(bracket.MatchPlayed)
		return patch, nil
	}

	status := match.Status
	if update.Status != nil {
		if *update.Status == bracket.MatchPlayed {
			return patch, fmt.Errorf("%w: a match is played only once a team reaches %d", bracket.ErrValidation, winningScore)
		}
		if update.Status.Before(match.Status) {
			return patch, fmt.Errorf("%w: cannot move match from %s back to %s", bracket.ErrValidation, match.Status, *update.Status)
		}
		status = *update.Status
	}
	// First score entry starts the match
	if update.hasScores() && status == bracket.MatchUnstarted {
		status = bracket.MatchInProgress
	}

	if status == bracket.MatchInProgress && !match.Ready() {
		return patch, fmt.Errorf("%w: match %s is still waiting for teams", bracket.ErrValidation, match.ID)
	}
	if status != match.Status {
		patch.Status = &status
	}

	// Drop scores that do not change anything so a repeat is a no-op
	if utils.Equal(patch.Score1, match.Score1) {
		patch.Score1 = nil
	}
	if utils.Equal(patch.Score2, match.Score2) {
		patch.Score2 = nil
	}
	return patch, nil
}

// seedWinner puts the winner of a decided match into the first free slot of
// the match it feeds. It reports false when the winner was already there.
func (s *MatchService) seedWinner(ctx context.Context, tx *sqlx.Tx, match *bracket.Match) (*bracket.Match, bool, error) {
	winner := *match.WinnerID

	next, err := s.store.GetMatchTx(ctx, tx, *match.NextMatchID)
	if err != nil {
		if errors.Is(err, bracket.ErrNotFound) {
			return nil, false, fmt.Errorf("%w: match %s feeds missing match %s", bracket.ErrConsistency, match.ID, *match.NextMatchID)
		}
		return nil, false, err
	}

	if next.SlotOf(winner) != 0 {
		return next, false, nil
	}

	slot := next.FreeSlot()
	if slot == 0 || next.Decided() {
		return nil, false, fmt.Errorf("%w: match %s has no free slot for %s", bracket.ErrConsistency, next.ID, winner)
	}

	patch := bracket.SeatPatch(slot, winner)
	seated := *next
	patch.Apply(&seated)
	if seated.Ready() && seated.Status == bracket.MatchUnstarted {
		patch.Status = utils.Ptr(bracket.MatchInProgress)
	}

	if err := s.store.UpdateMatch(ctx, tx, next.ID, next.Version, patch); err != nil {
		return nil, false, fmt.Errorf("failed to seat winner: %w", err)
	}
	patch.Apply(next)
	next.Version++
	return next, true, nil
}

func progressMatches(p *progress) []bracket.Match {
	matches := []bracket.Match{*p.match}
	if p.next != nil {
		matches = append(matches, *p.next)
	}
	return matches
}

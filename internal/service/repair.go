package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/aardvark-games/college-cup/internal/bracket"
	"github.com/aardvark-games/college-cup/internal/metrics"
)

type RepairReport struct {
	WinnersSeeded        int `json:"winnersSeeded"`
	TournamentsCompleted int `json:"tournamentsCompleted"`
}

// Repair finishes propagation that a result submission started but never
// completed: decided matches whose winner is missing from the next match, and
// decided finals whose tournament is still open. Each fix runs in its own
// transaction so one broken bracket does not block the others.
func (s *MatchService) Repair(ctx context.Context) (*RepairReport, error) {
	report := &RepairReport{}

	unseeded, err := s.store.ListUnseededWinners(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list unseeded winners: %w", err)
	}

	var errs []error
	for _, m := range unseeded {
		seeded, err := s.repairSeed(ctx, m)
		if err != nil {
			slog.Error("repair: failed to seat winner", "match", m.ID, "error", err)
			errs = append(errs, err)
			continue
		}
		if seeded {
			report.WinnersSeeded++
		}
	}

	finals, err := s.store.ListOpenFinals(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list open finals: %w", err)
	}
	for _, m := range finals {
		completed, err := s.repairFinal(ctx, m)
		if err != nil {
			slog.Error("repair: failed to complete tournament", "tournament", m.TournamentID, "error", err)
			errs = append(errs, err)
			continue
		}
		if completed {
			report.TournamentsCompleted++
		}
	}

	fixed := report.WinnersSeeded + report.TournamentsCompleted
	if fixed > 0 {
		metrics.RepairsApplied.Add(float64(fixed))
		metrics.WinnersSeeded.Add(float64(report.WinnersSeeded))
		metrics.TournamentsCompleted.Add(float64(report.TournamentsCompleted))
		slog.Warn("repair applied",
			"winnersSeeded", report.WinnersSeeded,
			"tournamentsCompleted", report.TournamentsCompleted)
	}

	return report, errors.Join(errs...)
}

func (s *MatchService) repairSeed(ctx context.Context, m bracket.Match) (bool, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	// Re-read: a result submission may have finished the job meanwhile
	match, err := s.store.GetMatchTx(ctx, tx, m.ID)
	if err != nil {
		return false, err
	}
	if !match.Decided() || match.NextMatchID == nil {
		return false, nil
	}

	_, seeded, err := s.seedWinner(ctx, tx, match)
	if err != nil {
		return false, err
	}
	if !seeded {
		return false, nil
	}
	return true, tx.Commit()
}

func (s *MatchService) repairFinal(ctx context.Context, m bracket.Match) (bool, error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, err
	}
	defer tx.Rollback()

	tournament, err := s.store.GetTournamentTx(ctx, tx, m.TournamentID)
	if err != nil {
		return false, err
	}
	if tournament.Status != bracket.TournamentStarted {
		return false, nil
	}

	if err := s.store.CompleteTournamentTx(ctx, tx, tournament.ID, *m.WinnerID); err != nil {
		return false, err
	}
	return true, tx.Commit()
}

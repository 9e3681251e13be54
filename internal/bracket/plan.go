package bracket

import (
	"fmt"

	"github.com/google/uuid"
)

// source is whatever occupies one side of a pairing while the bracket is
// being laid out: a team already through to this round, the winner of an
// earlier planned match, or nothing (a bye).
type source struct {
	team  *uuid.UUID
	match int
}

func (s source) empty() bool {
	return s.team == nil && s.match < 0
}

var bye = source{match: -1}

// Plan lays out a single-elimination bracket for teamIDs. Pairings where one
// side is a bye are not materialised: the other side is carried straight into
// the next round, round after round, until it meets a live opponent. The
// result therefore holds exactly len(teamIDs)-1 matches spread over
// Rounds(len(teamIDs)) rounds, all UNSTARTED, with NextMatchID wired and the
// final last.
func Plan(tournamentID uuid.UUID, teamIDs []uuid.UUID, seeding Seeding) ([]Match, error) {
	count := len(teamIDs)
	if count < 2 {
		return nil, fmt.Errorf("%w: a bracket needs at least 2 teams, got %d", ErrValidation, count)
	}

	seen := make(map[uuid.UUID]bool, count)
	for _, id := range teamIDs {
		if id == uuid.Nil {
			return nil, fmt.Errorf("%w: empty team id", ErrValidation)
		}
		if seen[id] {
			return nil, fmt.Errorf("%w: team %s listed twice", ErrValidation, id)
		}
		seen[id] = true
	}

	layout, err := seeding.Layout(count)
	if err != nil {
		return nil, err
	}

	pending := make([]source, len(layout))
	for i, idx := range layout {
		if idx < 0 {
			pending[i] = bye
			continue
		}
		id := teamIDs[idx]
		pending[i] = source{team: &id, match: -1}
	}

	matches := make([]Match, 0, count-1)
	for round := 1; round <= Rounds(count); round++ {
		advancing := make([]source, 0, len(pending)/2)
		order := 0

		for i := 0; i < len(pending); i += 2 {
			a, b := pending[i], pending[i+1]
			switch {
			case a.empty() && b.empty():
				advancing = append(advancing, bye)
			case b.empty():
				advancing = append(advancing, a)
			case a.empty():
				advancing = append(advancing, b)
			default:
				order++
				m := Match{
					ID:           uuid.New(),
					TournamentID: tournamentID,
					RoundNumber:  round,
					MatchOrder:   order,
					Team1ID:      a.team,
					Team2ID:      b.team,
					Status:       MatchUnstarted,
				}
				for _, feeder := range []source{a, b} {
					if feeder.match >= 0 {
						id := m.ID
						matches[feeder.match].NextMatchID = &id
					}
				}
				advancing = append(advancing, source{match: len(matches)})
				matches = append(matches, m)
			}
		}
		pending = advancing
	}

	if len(pending) != 1 || pending[0].match < 0 || pending[0].match != len(matches)-1 {
		return nil, fmt.Errorf("%w: bracket for %d teams has no final match", ErrConsistency, count)
	}
	return matches, nil
}

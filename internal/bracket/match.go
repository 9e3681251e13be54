package bracket

import (
	"time"

	"github.com/google/uuid"
)

type MatchStatus string

const (
	MatchUnstarted  MatchStatus = "UNSTARTED"
	MatchInProgress MatchStatus = "IN_PROGRESS"
	MatchPlayed     MatchStatus = "PLAYED"
)

func (s MatchStatus) Valid() bool {
	switch s {
	case MatchUnstarted, MatchInProgress, MatchPlayed:
		return true
	}
	return false
}

// rank orders statuses along the only allowed direction of travel.
func (s MatchStatus) rank() int {
	switch s {
	case MatchInProgress:
		return 1
	case MatchPlayed:
		return 2
	}
	return 0
}

// Before reports whether s comes strictly earlier than other in
// UNSTARTED -> IN_PROGRESS -> PLAYED.
func (s MatchStatus) Before(other MatchStatus) bool {
	return s.rank() < other.rank()
}

type Match struct {
	ID           uuid.UUID `db:"id"`
	TournamentID uuid.UUID `db:"tournament_id"`

	// Position in the bracket for reconstructing the view
	RoundNumber int `db:"round_number"`
	MatchOrder  int `db:"match_order"`

	Team1ID *uuid.UUID `db:"team_1_id"`
	Team2ID *uuid.UUID `db:"team_2_id"`

	Score1 int         `db:"score_1"`
	Score2 int         `db:"score_2"`
	Status MatchStatus `db:"status"`

	WinnerID    *uuid.UUID `db:"winner_id"`
	NextMatchID *uuid.UUID `db:"next_match_id"`

	// Bumped on every write, used for compare-and-set updates
	Version int `db:"version"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

// SlotOf returns 1 or 2 for the slot holding teamID, or 0.
func (m *Match) SlotOf(teamID uuid.UUID) int {
	switch {
	case m.Team1ID != nil && *m.Team1ID == teamID:
		return 1
	case m.Team2ID != nil && *m.Team2ID == teamID:
		return 2
	}
	return 0
}

// FreeSlot returns the first unset slot, or 0 when both are filled.
func (m *Match) FreeSlot() int {
	switch {
	case m.Team1ID == nil:
		return 1
	case m.Team2ID == nil:
		return 2
	}
	return 0
}

// Ready reports whether both slots hold a live team.
func (m *Match) Ready() bool {
	return m.Team1ID != nil && m.Team2ID != nil
}

func (m *Match) Decided() bool {
	return m.Status == MatchPlayed && m.WinnerID != nil
}

func (m *Match) IsWinner(slot int) bool {
	if !m.Decided() {
		return false
	}
	switch slot {
	case 1:
		return m.Team1ID != nil && *m.Team1ID == *m.WinnerID
	case 2:
		return m.Team2ID != nil && *m.Team2ID == *m.WinnerID
	}
	return false
}

// MatchPatch lists the fields of a match that an update may change. Nil
// fields are left untouched.
type MatchPatch struct {
	Team1ID  *uuid.UUID
	Team2ID  *uuid.UUID
	Score1   *int
	Score2   *int
	Status   *MatchStatus
	WinnerID *uuid.UUID
}

func (p MatchPatch) Empty() bool {
	return p.Team1ID == nil && p.Team2ID == nil && p.Score1 == nil && p.Score2 == nil &&
		p.Status == nil && p.WinnerID == nil
}

// Apply merges the patch into m in place.
func (p MatchPatch) Apply(m *Match) {
	if p.Team1ID != nil {
		id := *p.Team1ID
		m.Team1ID = &id
	}
	if p.Team2ID != nil {
		id := *p.Team2ID
		m.Team2ID = &id
	}
	if p.Score1 != nil {
		m.Score1 = *p.Score1
	}
	if p.Score2 != nil {
		m.Score2 = *p.Score2
	}
	if p.Status != nil {
		m.Status = *p.Status
	}
	if p.WinnerID != nil {
		id := *p.WinnerID
		m.WinnerID = &id
	}
}

// SeatPatch builds the patch that puts teamID into the given slot.
func SeatPatch(slot int, teamID uuid.UUID) MatchPatch {
	var p MatchPatch
	if slot == 1 {
		p.Team1ID = &teamID
	} else {
		p.Team2ID = &teamID
	}
	return p
}

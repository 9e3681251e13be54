package views

import (
	"strconv"

	"github.com/aardvark-games/college-cup/internal/bracket"
	"github.com/google/uuid"
)

const tbd = "TBD"

type Participant struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	ResultText string `json:"resultText"`
	IsWinner   bool   `json:"isWinner"`
}

// MatchView is the read-only projection of a match used by bracket renderers.
type MatchView struct {
	ID                  uuid.UUID           `json:"id"`
	Name                string              `json:"name"`
	NextMatchID         *uuid.UUID          `json:"nextMatchId"`
	Round               int                 `json:"round"`
	TournamentRoundText string              `json:"tournamentRoundText"`
	State               bracket.MatchStatus `json:"state"`
	Participants        [2]Participant      `json:"participants"`
}

// NewMatchView resolves team names from teams; a slot whose team is unset or
// unknown renders as TBD.
func NewMatchView(m *bracket.Match, teams map[uuid.UUID]bracket.Team) MatchView {
	p1 := participant(m, 1, m.Team1ID, m.Score1, teams)
	p2 := participant(m, 2, m.Team2ID, m.Score2, teams)

	return MatchView{
		ID:                  m.ID,
		Name:                displayName(p1) + " vs " + displayName(p2),
		NextMatchID:         m.NextMatchID,
		Round:               m.RoundNumber,
		TournamentRoundText: strconv.Itoa(m.RoundNumber),
		State:               m.Status,
		Participants:        [2]Participant{p1, p2},
	}
}

func participant(m *bracket.Match, slot int, teamID *uuid.UUID, score int, teams map[uuid.UUID]bracket.Team) Participant {
	if teamID == nil {
		return Participant{Name: tbd}
	}
	p := Participant{
		ID:         teamID.String(),
		ResultText: strconv.Itoa(score),
		IsWinner:   m.IsWinner(slot),
	}
	if team, ok := teams[*teamID]; ok {
		p.Name = team.Name
	}
	return p
}

func displayName(p Participant) string {
	if p.Name == "" {
		return tbd
	}
	return p.Name
}

func TeamMap(teams []bracket.Team) map[uuid.UUID]bracket.Team {
	teamMap := make(map[uuid.UUID]bracket.Team, len(teams))
	for _, t := range teams {
		teamMap[t.ID] = t
	}
	return teamMap
}

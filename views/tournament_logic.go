package views

import (
	"sort"

	"github.com/aardvark-games/college-cup/internal/bracket"
)

type Round struct {
	Number  int         `json:"number"`
	Matches []MatchView `json:"matches"`
}

type BracketView struct {
	Tournament *bracket.Tournament `json:"tournament"`
	Teams      []bracket.Team      `json:"teams"`
	Matches    []MatchView         `json:"matches"`
	Rounds     []Round             `json:"rounds"`
}

func PrepareBracketView(tournament *bracket.Tournament, teams []bracket.Team, matches []bracket.Match) BracketView {
	teamMap := TeamMap(teams)

	sorted := make([]bracket.Match, len(matches))
	copy(sorted, matches)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].RoundNumber != sorted[j].RoundNumber {
			return sorted[i].RoundNumber < sorted[j].RoundNumber
		}
		return sorted[i].MatchOrder < sorted[j].MatchOrder
	})

	views := make([]MatchView, 0, len(sorted))
	var rounds []Round
	for i := range sorted {
		mv := NewMatchView(&sorted[i], teamMap)
		views = append(views, mv)

		if len(rounds) == 0 || rounds[len(rounds)-1].Number != mv.Round {
			rounds = append(rounds, Round{Number: mv.Round})
		}
		last := &rounds[len(rounds)-1]
		last.Matches = append(last.Matches, mv)
	}

	if teams == nil {
		teams = []bracket.Team{}
	}
	return BracketView{
		Tournament: tournament,
		Teams:      teams,
		Matches:    views,
		Rounds:     rounds,
	}
}

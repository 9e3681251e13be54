package service

import (
	"context"
	"strings"
	"testing"

	"github.com/aardvark-games/college-cup/internal/bracket"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRoster(t *testing.T) {
	testCases := []struct {
		name     string
		roster   string
		expected []string
		err      bool
	}{
		{
			name:     "trims and skips blank lines",
			roster:   "  Owls \n\nFoxes\r\n   \nBadgers",
			expected: []string{"Owls", "Foxes", "Badgers"},
		},
		{
			name:   "duplicate names ignore case",
			roster: "Owls\nowls",
			err:    true,
		},
		{
			name:   "name too long",
			roster: strings.Repeat("x", 51),
			err:    true,
		},
		{
			name:   "only blank lines",
			roster: "\n \n",
			err:    true,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			names, err := ParseRoster(tc.roster)
			if tc.err {
				assert.ErrorIs(t, err, bracket.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.expected, names)
		})
	}
}

func TestRegisterTeams(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, DefaultBracketOptions())

	college, err := f.teams.CreateCollege(ctx, "  Riverside  ")
	require.NoError(t, err)
	assert.Equal(t, "Riverside", college.Name)

	_, err = f.teams.CreateCollege(ctx, "Riverside")
	assert.ErrorIs(t, err, bracket.ErrConflict)

	_, err = f.teams.CreateCollege(ctx, "   ")
	assert.ErrorIs(t, err, bracket.ErrValidation)

	teams, err := f.teams.RegisterTeams(ctx, college.ID, "Owls\nFoxes")
	require.NoError(t, err)
	require.Len(t, teams, 2)
	assert.Equal(t, college.ID, teams[0].CollegeID)

	// A roster clashing with a registered name is rejected as a whole
	_, err = f.teams.RegisterTeams(ctx, college.ID, "Badgers\nOwls")
	assert.ErrorIs(t, err, bracket.ErrConflict)

	more, err := f.teams.RegisterTeams(ctx, college.ID, "Badgers")
	require.NoError(t, err)
	assert.Equal(t, 3, more[0].Seed)

	listed, err := f.teams.ListTeams(ctx, college.ID)
	require.NoError(t, err)
	require.Len(t, listed, 3)
	assert.Equal(t, []string{"Owls", "Foxes", "Badgers"}, []string{listed[0].Name, listed[1].Name, listed[2].Name})

	_, err = f.teams.RegisterTeams(ctx, uuid.New(), "Owls")
	assert.ErrorIs(t, err, bracket.ErrNotFound)

	_, err = f.teams.ListTeams(ctx, uuid.New())
	assert.ErrorIs(t, err, bracket.ErrNotFound)
}

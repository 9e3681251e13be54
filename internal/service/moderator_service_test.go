package service

import (
	"context"
	"testing"

	"github.com/aardvark-games/college-cup/internal/moderator"
	"github.com/aardvark-games/college-cup/internal/store"
	"github.com/markbates/goth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindOrCreateByProvider(t *testing.T) {
	ctx := context.Background()
	database := setupTestDB(t)
	moderators := store.NewModeratorStore(database)
	svc := NewModeratorService(moderators)

	gothUser := goth.User{
		Provider:  "discord",
		UserID:    "42",
		Email:     "ref@example.com",
		NickName:  "ref",
		AvatarURL: "https://cdn.example.com/a.png",
	}

	created, err := svc.FindOrCreateByProvider(ctx, gothUser)
	require.NoError(t, err)
	assert.Equal(t, "ref", created.DisplayName)

	gothUser.NickName = "head ref"
	gothUser.AvatarURL = ""
	found, err := svc.FindOrCreateByProvider(ctx, gothUser)
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	stored, err := moderators.GetModerator(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "head ref", stored.DisplayName)
	assert.Nil(t, stored.AvatarURL)
}

func TestEnsureGuest(t *testing.T) {
	ctx := context.Background()
	svc := NewModeratorService(store.NewModeratorStore(setupTestDB(t)))

	guest, err := svc.EnsureGuest(ctx)
	require.NoError(t, err)
	assert.Equal(t, moderator.GuestID, guest.ID)

	again, err := svc.EnsureGuest(ctx)
	require.NoError(t, err)
	assert.Equal(t, guest.ID, again.ID)
}

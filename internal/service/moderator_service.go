package service

import (
	"context"
	"errors"

	"github.com/aardvark-games/college-cup/internal/bracket"
	"github.com/aardvark-games/college-cup/internal/moderator"
	"github.com/aardvark-games/college-cup/internal/store"
	"github.com/aardvark-games/college-cup/internal/utils"
	"github.com/google/uuid"
	"github.com/markbates/goth"
)

type ModeratorService struct {
	store *store.ModeratorStore
}

func NewModeratorService(store *store.ModeratorStore) *ModeratorService {
	return &ModeratorService{store: store}
}

func (s *ModeratorService) FindOrCreateByProvider(ctx context.Context, gothUser goth.User) (*moderator.Moderator, error) {
	name := displayName(gothUser)

	m, err := s.store.GetModeratorByProvider(ctx, gothUser.Provider, gothUser.UserID)
	if err == nil {
		if utils.OrZero(m.AvatarURL) != gothUser.AvatarURL || m.DisplayName != name {
			m.AvatarURL = utils.StringOrNil(gothUser.AvatarURL)
			m.DisplayName = name
			if err := s.store.UpdateModeratorProfile(ctx, m); err != nil {
				return nil, err
			}
		}
		return m, nil
	}

	if errors.Is(err, bracket.ErrNotFound) {
		m := &moderator.Moderator{
			ID:          uuid.New(),
			Email:       gothUser.Email,
			DisplayName: name,
			Provider:    utils.Ptr(gothUser.Provider),
			ProviderID:  utils.Ptr(gothUser.UserID),
			AvatarURL:   utils.StringOrNil(gothUser.AvatarURL),
		}
		return m, s.store.CreateModerator(ctx, m)
	}

	return nil, err
}

func (s *ModeratorService) EnsureGuest(ctx context.Context) (*moderator.Moderator, error) {
	m, err := s.store.GetModerator(ctx, moderator.GuestID)
	if err == nil {
		return m, nil
	}

	if errors.Is(err, bracket.ErrNotFound) {
		guest := &moderator.Moderator{
			ID:          moderator.GuestID,
			Email:       "guest@college-cup.local",
			DisplayName: "Guest Moderator",
		}
		return guest, s.store.CreateModerator(ctx, guest)
	}
	return nil, err
}

func displayName(u goth.User) string {
	switch {
	case u.NickName != "":
		return u.NickName
	case u.Name != "":
		return u.Name
	}
	return u.Email
}

package store

import (
	"context"

	"github.com/aardvark-games/college-cup/internal/moderator"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

type ModeratorStore struct {
	db *sqlx.DB
}

const (
	getModeratorQuery           = "SELECT * FROM moderators WHERE id = ?"
	getModeratorByProviderQuery = "SELECT * FROM moderators WHERE provider = ? AND provider_id = ?"
	createModeratorQuery        = `
		INSERT INTO moderators (id, email, display_name, provider, provider_id, avatar_url) VALUES
		(:id, :email, :display_name, :provider, :provider_id, :avatar_url)
	`
	updateModeratorProfileQuery = `
		UPDATE moderators SET
		display_name = :display_name,
		avatar_url = :avatar_url
		WHERE id = :id
	`
)

func NewModeratorStore(db *sqlx.DB) *ModeratorStore {
	return &ModeratorStore{db: db}
}

func (s *ModeratorStore) GetModeratorByProvider(ctx context.Context, provider, providerID string) (*moderator.Moderator, error) {
	var m moderator.Moderator
	if err := s.db.GetContext(ctx, &m, s.db.Rebind(getModeratorByProviderQuery), provider, providerID); err != nil {
		return nil, notFound(err, "moderator", provider+"/"+providerID)
	}
	return &m, nil
}

func (s *ModeratorStore) GetModerator(ctx context.Context, id uuid.UUID) (*moderator.Moderator, error) {
	var m moderator.Moderator
	if err := s.db.GetContext(ctx, &m, s.db.Rebind(getModeratorQuery), id); err != nil {
		return nil, notFound(err, "moderator", id)
	}
	return &m, nil
}

func (s *ModeratorStore) CreateModerator(ctx context.Context, m *moderator.Moderator) error {
	_, err := s.db.NamedExecContext(ctx, createModeratorQuery, m)
	return err
}

func (s *ModeratorStore) UpdateModeratorProfile(ctx context.Context, m *moderator.Moderator) error {
	_, err := s.db.NamedExecContext(ctx, updateModeratorProfileQuery, m)
	return err
}

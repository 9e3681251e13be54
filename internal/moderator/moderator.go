package moderator

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type contextKey string

const moderatorKey contextKey = "moderator"

// GuestID is the fixed id of the shared guest moderator account.
var GuestID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

// Moderator is anyone allowed to build brackets and record results.
type Moderator struct {
	ID          uuid.UUID `db:"id" json:"id"`
	Email       string    `db:"email" json:"email"`
	DisplayName string    `db:"display_name" json:"displayName"`
	CreatedAt   time.Time `db:"created_at" json:"createdAt"`
	Provider    *string   `db:"provider" json:"provider"`
	ProviderID  *string   `db:"provider_id" json:"-"`
	AvatarURL   *string   `db:"avatar_url" json:"avatarUrl"`
}

func WithModerator(ctx context.Context, m *Moderator) context.Context {
	return context.WithValue(ctx, moderatorKey, m)
}

func FromContext(ctx context.Context) (*Moderator, bool) {
	m, ok := ctx.Value(moderatorKey).(*Moderator)
	return m, ok && m != nil
}

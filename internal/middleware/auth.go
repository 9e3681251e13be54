package middleware

import (
	"log/slog"
	"net/http"

	"github.com/aardvark-games/college-cup/internal/config"
	"github.com/aardvark-games/college-cup/internal/httputil"
	"github.com/aardvark-games/college-cup/internal/moderator"
	"github.com/aardvark-games/college-cup/internal/store"
	"github.com/alexedwards/scs/v2"
	"github.com/google/uuid"
	"github.com/markbates/goth"
	"github.com/markbates/goth/providers/discord"
	"github.com/markbates/goth/providers/google"
)

const SessionModeratorKey = "moderatorID"

// InitAuth registers the OAuth providers that have credentials configured.
func InitAuth(cfg *config.Config) {
	var providers []goth.Provider
	if cfg.Discord.Key != "" {
		providers = append(providers, discord.New(cfg.Discord.Key, cfg.Discord.Secret, cfg.Discord.CallbackURL, discord.ScopeIdentify, discord.ScopeEmail))
	}
	if cfg.Google.Key != "" {
		providers = append(providers, google.New(cfg.Google.Key, cfg.Google.Secret, cfg.Google.CallbackURL, "email", "profile"))
	}
	if len(providers) == 0 {
		slog.Warn("no OAuth providers configured, only guest login is available")
		return
	}
	goth.UseProviders(providers...)
}

// LoadModerator puts the signed-in moderator, if any, into the request context.
func LoadModerator(sessionManager *scs.SessionManager, moderators *store.ModeratorStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			idStr := sessionManager.GetString(r.Context(), SessionModeratorKey)
			if idStr == "" {
				next.ServeHTTP(w, r)
				return
			}

			id, err := uuid.Parse(idStr)
			if err != nil {
				sessionManager.Remove(r.Context(), SessionModeratorKey)
				next.ServeHTTP(w, r)
				return
			}

			m, err := moderators.GetModerator(r.Context(), id)
			if err != nil {
				slog.Warn("session refers to unknown moderator", "moderator", id, "error", err)
				sessionManager.Remove(r.Context(), SessionModeratorKey)
				next.ServeHTTP(w, r)
				return
			}

			next.ServeHTTP(w, r.WithContext(moderator.WithModerator(r.Context(), m)))
		})
	}
}

// RequireModerator rejects requests without a signed-in moderator.
func RequireModerator(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, ok := moderator.FromContext(r.Context()); !ok {
			httputil.Unauthorized(w)
			return
		}
		next.ServeHTTP(w, r)
	})
}

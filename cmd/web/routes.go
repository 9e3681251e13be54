package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/aardvark-games/college-cup/internal/bracket"
	"github.com/aardvark-games/college-cup/internal/config"
	"github.com/aardvark-games/college-cup/internal/httputil"
	"github.com/aardvark-games/college-cup/internal/middleware"
	"github.com/aardvark-games/college-cup/internal/service"
	"github.com/aardvark-games/college-cup/internal/store"
	"github.com/aardvark-games/college-cup/views"
	"github.com/alexedwards/scs/v2"
	"github.com/getsentry/sentry-go"
	sentryhttp "github.com/getsentry/sentry-go/http"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/markbates/goth/gothic"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type app struct {
	cfg        *config.Config
	sessions   *scs.SessionManager
	moderators *store.ModeratorStore
	limiter    *middleware.RateLimiter

	brackets       *service.BracketService
	matches        *service.MatchService
	teams          *service.TeamService
	moderatorLogin *service.ModeratorService
}

func newApp(cfg *config.Config, database *sqlx.DB, sessionManager *scs.SessionManager) *app {
	tournaments := store.NewTournamentStore(database)
	colleges := store.NewCollegeStore(database)
	moderators := store.NewModeratorStore(database)

	return &app{
		cfg:        cfg,
		sessions:   sessionManager,
		moderators: moderators,
		limiter:    middleware.NewRateLimiter(cfg.ResultRatePerMinute),
		brackets: service.NewBracketService(database, tournaments, colleges, service.BracketOptions{
			Seeding:      cfg.Seeding,
			WinningScore: cfg.WinningScore,
		}),
		matches:        service.NewMatchService(database, tournaments, colleges),
		teams:          service.NewTeamService(database, colleges),
		moderatorLogin: service.NewModeratorService(moderators),
	}
}

type collegeRequest struct {
	Name string `json:"name"`
}

type rosterRequest struct {
	Roster string `json:"roster"`
}

type bracketRequest struct {
	Name    string      `json:"name"`
	TeamIDs []uuid.UUID `json:"teamIds"`
}

type resultRequest struct {
	FirstScore  *int                 `json:"firstScore"`
	SecondScore *int                 `json:"secondScore"`
	State       *bracket.MatchStatus `json:"state"`
}

func newRouter(app *app) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	if sentry.CurrentHub().Client() != nil {
		r.Use(sentryhttp.New(sentryhttp.Options{Repanic: true}).Handle)
	}
	if len(app.cfg.CORSOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins:   app.cfg.CORSOrigins,
			AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders:   []string{"Accept", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           300,
		}))
	}
	r.Use(app.sessions.LoadAndSave)
	r.Use(middleware.LoadModerator(app.sessions, app.moderators))

	r.Handle("/metrics", promhttp.Handler())

	r.Get("/colleges/{id}/teams", func(w http.ResponseWriter, r *http.Request) {
		collegeID, ok := uuidParam(w, r, "id")
		if !ok {
			return
		}
		teams, err := app.teams.ListTeams(r.Context(), collegeID)
		if err != nil {
			httputil.WriteError(w, r, "Failed to list teams", err)
			return
		}
		views.Render(w, http.StatusOK, teams)
	})

	r.Get("/colleges/{id}/bracket", func(w http.ResponseWriter, r *http.Request) {
		collegeID, ok := uuidParam(w, r, "id")
		if !ok {
			return
		}
		view, err := app.brackets.GetCollegeBracket(r.Context(), collegeID)
		if err != nil {
			httputil.WriteError(w, r, "Failed to get bracket", err)
			return
		}
		views.Render(w, http.StatusOK, view)
	})

	r.Get("/tournaments/{id}/bracket", func(w http.ResponseWriter, r *http.Request) {
		tournamentID, ok := uuidParam(w, r, "id")
		if !ok {
			return
		}
		view, err := app.brackets.GetBracket(r.Context(), tournamentID)
		if err != nil {
			httputil.WriteError(w, r, "Failed to get bracket", err)
			return
		}
		views.Render(w, http.StatusOK, view)
	})

	r.Get("/matches/{id}", func(w http.ResponseWriter, r *http.Request) {
		matchID, ok := uuidParam(w, r, "id")
		if !ok {
			return
		}
		view, err := app.matches.GetMatchView(r.Context(), matchID)
		if err != nil {
			httputil.WriteError(w, r, "Failed to get match", err)
			return
		}
		views.Render(w, http.StatusOK, view)
	})

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireModerator)

		r.Post("/colleges", func(w http.ResponseWriter, r *http.Request) {
			var req collegeRequest
			if !decode(w, r, &req) {
				return
			}
			college, err := app.teams.CreateCollege(r.Context(), req.Name)
			if err != nil {
				httputil.WriteError(w, r, "Failed to create college", err)
				return
			}
			views.Render(w, http.StatusCreated, college)
		})

		r.Post("/colleges/{id}/teams", func(w http.ResponseWriter, r *http.Request) {
			collegeID, ok := uuidParam(w, r, "id")
			if !ok {
				return
			}
			var req rosterRequest
			if !decode(w, r, &req) {
				return
			}
			teams, err := app.teams.RegisterTeams(r.Context(), collegeID, req.Roster)
			if err != nil {
				httputil.WriteError(w, r, "Failed to register teams", err)
				return
			}
			views.Render(w, http.StatusCreated, teams)
		})

		r.Post("/colleges/{id}/bracket", func(w http.ResponseWriter, r *http.Request) {
			collegeID, ok := uuidParam(w, r, "id")
			if !ok {
				return
			}
			var req bracketRequest
			if !decode(w, r, &req) {
				return
			}

			// No explicit list means every registered team plays
			teamIDs := req.TeamIDs
			if len(teamIDs) == 0 {
				teams, err := app.teams.ListTeams(r.Context(), collegeID)
				if err != nil {
					httputil.WriteError(w, r, "Failed to list teams", err)
					return
				}
				for _, t := range teams {
					teamIDs = append(teamIDs, t.ID)
				}
			}

			res, err := app.brackets.BuildBracket(r.Context(), service.BuildInput{
				CollegeID: collegeID,
				Name:      req.Name,
				TeamIDs:   teamIDs,
			})
			if err != nil {
				httputil.WriteError(w, r, "Failed to build bracket", err)
				return
			}

			view, err := app.brackets.GetBracket(r.Context(), res.Tournament.ID)
			if err != nil {
				httputil.WriteError(w, r, "Failed to get bracket", err)
				return
			}
			views.Render(w, http.StatusCreated, view)
		})

		r.With(app.limiter.Middleware).Post("/matches/{id}/result", func(w http.ResponseWriter, r *http.Request) {
			matchID, ok := uuidParam(w, r, "id")
			if !ok {
				return
			}
			var req resultRequest
			if !decode(w, r, &req) {
				return
			}
			result, err := app.matches.RecordMatchResult(r.Context(), matchID, service.ScoreUpdate{
				Score1: req.FirstScore,
				Score2: req.SecondScore,
				Status: req.State,
			})
			if err != nil {
				httputil.WriteError(w, r, "Failed to record result", err)
				return
			}
			views.Render(w, http.StatusOK, result)
		})

		r.Post("/admin/repair", func(w http.ResponseWriter, r *http.Request) {
			report, err := app.matches.Repair(r.Context())
			if err != nil {
				httputil.WriteError(w, r, "Repair pass failed", err)
				return
			}
			views.Render(w, http.StatusOK, report)
		})
	})

	r.Get("/auth/{provider}", func(w http.ResponseWriter, r *http.Request) {
		provider := chi.URLParam(r, "provider")
		r = r.WithContext(context.WithValue(r.Context(), "provider", provider))

		gothic.BeginAuthHandler(w, r)
	})

	r.Get("/auth/{provider}/callback", func(w http.ResponseWriter, r *http.Request) {
		provider := chi.URLParam(r, "provider")
		r = r.WithContext(context.WithValue(r.Context(), "provider", provider))

		gothUser, err := gothic.CompleteUserAuth(w, r)
		if err != nil {
			httputil.BadRequest(w, "Authentication failure", err)
			return
		}

		m, err := app.moderatorLogin.FindOrCreateByProvider(r.Context(), gothUser)
		if err != nil {
			httputil.InternalServerError(w, r, "Failed to find or create moderator", err)
			return
		}

		if err := app.sessions.RenewToken(r.Context()); err != nil {
			httputil.InternalServerError(w, r, "Failed to renew session", err)
			return
		}
		app.sessions.Put(r.Context(), middleware.SessionModeratorKey, m.ID.String())
		views.Render(w, http.StatusOK, m)
	})

	r.Post("/auth/guest", func(w http.ResponseWriter, r *http.Request) {
		m, err := app.moderatorLogin.EnsureGuest(r.Context())
		if err != nil {
			httputil.InternalServerError(w, r, "Failed to login as guest", err)
			return
		}

		if err := app.sessions.RenewToken(r.Context()); err != nil {
			httputil.InternalServerError(w, r, "Failed to renew session", err)
			return
		}
		app.sessions.Put(r.Context(), middleware.SessionModeratorKey, m.ID.String())
		views.Render(w, http.StatusOK, m)
	})

	r.Post("/logout", func(w http.ResponseWriter, r *http.Request) {
		if err := app.sessions.Destroy(r.Context()); err != nil {
			httputil.InternalServerError(w, r, "Failed to logout", err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})

	return r
}

func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		httputil.BadRequest(w, fmt.Sprintf("Invalid %s", name), err)
		return uuid.Nil, false
	}
	return id, true
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		httputil.BadRequest(w, "Invalid request body", err)
		return false
	}
	return true
}

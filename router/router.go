// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package router

import (
	"database/sql"
	"net/http"

	"github.com/danielhkuo/classvote/cliparse"
	"github.com/danielhkuo/classvote/handlers"
	"github.com/danielhkuo/classvote/middleware"
)

func NewRouter(db *sql.DB, cfg cliparse.Config) *http.ServeMux {
	mux := http.NewServeMux()

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(cfg)
	electionHandler := handlers.NewElectionHandler(db, cfg)
	ballotHandler := handlers.NewBallotHandler(db, cfg)

	admin := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(middleware.RequireAdmin(cfg.SessionSecret, h))
	}
	voter := func(h http.HandlerFunc) http.HandlerFunc {
		return middleware.WithLogging(middleware.RequireVoter(cfg.PhoneCountryCode, h))
	}

	// Health check
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		if err := db.PingContext(r.Context()); err != nil {
			http.Error(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	// Admin session
	mux.HandleFunc("POST /admin/login", middleware.WithLogging(authHandler.Login))

	// Election management (admin operations)
	mux.HandleFunc("POST /elections", admin(electionHandler.CreateElection))
	mux.HandleFunc("GET /elections", admin(electionHandler.ListElections))
	mux.HandleFunc("GET /elections/{id}", admin(electionHandler.GetElection))
	mux.HandleFunc("DELETE /elections/{id}", admin(electionHandler.DeleteElection))
	mux.HandleFunc("PUT /elections/{id}/window", admin(electionHandler.SetWindow))
	mux.HandleFunc("POST /elections/{id}/open", admin(electionHandler.OpenElection))
	mux.HandleFunc("POST /elections/{id}/close", admin(electionHandler.CloseElection))
	mux.HandleFunc("POST /elections/{id}/roster", admin(electionHandler.UploadRoster))
	mux.HandleFunc("GET /elections/{id}/roster", admin(electionHandler.GetRoster))
	mux.HandleFunc("POST /elections/{id}/candidates/{key}/toggle", admin(electionHandler.ToggleCandidate))
	mux.HandleFunc("GET /elections/{id}/results", admin(electionHandler.GetResults))

	// Voting operations (public)
	mux.HandleFunc("GET /ballot/{id}", middleware.WithLogging(ballotHandler.GetBallot))
	mux.HandleFunc("GET /ballot/{id}/eligibility", voter(ballotHandler.CheckEligibility))
	mux.HandleFunc("POST /ballot/{id}/votes", voter(ballotHandler.CastVote))

	// Results retrieval (public, sealed until closed)
	mux.HandleFunc("GET /ballot/{id}/results", middleware.WithLogging(ballotHandler.GetResults))
	mux.HandleFunc("GET /ballot/{id}/turnout", middleware.WithLogging(ballotHandler.GetTurnout))

	// Root endpoint
	mux.HandleFunc("GET /{$}", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("classvote API v1"))
	})

	return mux
}

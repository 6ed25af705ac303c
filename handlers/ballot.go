// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"net/http"

	"github.com/danielhkuo/classvote/apperr"
	"github.com/danielhkuo/classvote/auth"
	"github.com/danielhkuo/classvote/cliparse"
	"github.com/danielhkuo/classvote/eligibility"
	"github.com/danielhkuo/classvote/ledger"
	"github.com/danielhkuo/classvote/middleware"
	"github.com/danielhkuo/classvote/models"
	"github.com/danielhkuo/classvote/registry"
	"github.com/danielhkuo/classvote/results"
	"github.com/danielhkuo/classvote/roster"
)

// BallotHandler serves the public voting pages. Each route first closes
// the election if its end time has passed.
type BallotHandler struct {
	cfg      cliparse.Config
	registry *registry.Registry
	resolver *eligibility.Resolver
	ledger   *ledger.Ledger
	results  *results.Aggregator
}

func NewBallotHandler(conn *sql.DB, cfg cliparse.Config) *BallotHandler {
	reg := registry.New(conn)
	l := ledger.New(conn)
	l.SetCountryCode(cfg.PhoneCountryCode)

	return &BallotHandler{
		cfg:      cfg,
		registry: reg,
		resolver: eligibility.New(reg, roster.New(conn, cfg.PhoneCountryCode)),
		ledger:   l,
		results:  results.New(conn),
	}
}

// GetBallot handles GET /ballot/{id}
func (h *BallotHandler) GetBallot(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")
	e, err := h.registry.AutoCloseIfExpired(r.Context(), electionID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	candidates, err := h.resolver.ListBallotCandidates(r.Context(), electionID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.BallotView{
		Election:   e,
		Candidates: candidates,
	})
}

// CheckEligibility handles GET /ballot/{id}/eligibility
// Ineligible voters get 200 with eligible=false and a reason.
func (h *BallotHandler) CheckEligibility(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")
	if _, err := h.registry.AutoCloseIfExpired(r.Context(), electionID); err != nil && apperr.KindOf(err) != apperr.KindNotFound {
		middleware.WriteError(w, err)
		return
	}

	identity, _ := auth.VoterFromContext(r.Context())
	result, err := h.resolver.CheckEligibility(r.Context(), electionID, identity)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	resp := models.EligibilityResponse{
		Eligible: result.Eligible,
		Reason:   string(result.Reason),
		Message:  result.Message,
	}
	if result.Entry != nil {
		resp.Voter = &models.Voter{
			RollNumber: result.Entry.RollNumber,
			Name:       result.Entry.Name,
			HasVoted:   result.Entry.HasVoted,
		}
	}
	middleware.JSONResponse(w, http.StatusOK, resp)
}

// CastVote handles POST /ballot/{id}/votes
func (h *BallotHandler) CastVote(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")

	var req models.CastVoteRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if _, err := h.registry.AutoCloseIfExpired(r.Context(), electionID); err != nil {
		middleware.WriteError(w, err)
		return
	}

	identity, _ := auth.VoterFromContext(r.Context())
	receipt, err := h.ledger.CastVote(r.Context(), electionID, identity, req.CandidateRollNumbers)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, models.CastVoteResponse{
		VotesRecorded: len(receipt.Votes),
		CastAt:        receipt.CastAt,
		Message:       "Your vote has been recorded.",
	})
}

// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"net/http"

	"github.com/danielhkuo/classvote/middleware"
	"github.com/danielhkuo/classvote/models"
)

// GetResults handles GET /ballot/{id}/results
// Public results stay sealed until the election is closed.
func (h *BallotHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")
	e, err := h.registry.AutoCloseIfExpired(r.Context(), electionID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	if e.Status != models.StatusClosed {
		middleware.ErrorResponse(w, http.StatusForbidden, "Results are sealed until voting ends")
		return
	}

	report, err := h.results.Report(r.Context(), electionID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, report)
}

// GetTurnout handles GET /ballot/{id}/turnout
func (h *BallotHandler) GetTurnout(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")
	if _, err := h.registry.AutoCloseIfExpired(r.Context(), electionID); err != nil {
		middleware.WriteError(w, err)
		return
	}

	turnout, err := h.results.Turnout(r.Context(), electionID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, turnout)
}

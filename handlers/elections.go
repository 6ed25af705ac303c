// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/danielhkuo/classvote/cliparse"
	"github.com/danielhkuo/classvote/db"
	"github.com/danielhkuo/classvote/middleware"
	"github.com/danielhkuo/classvote/models"
	"github.com/danielhkuo/classvote/registry"
	"github.com/danielhkuo/classvote/results"
	"github.com/danielhkuo/classvote/roster"
)

// ElectionHandler serves the admin console. Every route is wrapped in
// middleware.RequireAdmin by the router.
type ElectionHandler struct {
	db       *sql.DB
	cfg      cliparse.Config
	registry *registry.Registry
	roster   *roster.Store
	results  *results.Aggregator
}

func NewElectionHandler(conn *sql.DB, cfg cliparse.Config) *ElectionHandler {
	return &ElectionHandler{
		db:       conn,
		cfg:      cfg,
		registry: registry.New(conn),
		roster:   roster.New(conn, cfg.PhoneCountryCode),
		results:  results.New(conn),
	}
}

// CreateElection handles POST /elections
func (h *ElectionHandler) CreateElection(w http.ResponseWriter, r *http.Request) {
	var req models.CreateElectionRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	var resp models.CreateElectionResponse
	err := db.RunInTx(r.Context(), h.db, func(tx db.Querier) error {
		e, err := registry.New(tx).Create(r.Context(), req.ElectionConfig)
		if err != nil {
			return err
		}
		resp.ElectionID = e.ID

		result, err := roster.New(tx, h.cfg.PhoneCountryCode).BulkInsert(r.Context(), e.ID, req.Roster)
		if err != nil {
			return err
		}
		resp.BulkInsertResult = result
		return nil
	})
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusCreated, resp)
}

// ListElections handles GET /elections
func (h *ElectionHandler) ListElections(w http.ResponseWriter, r *http.Request) {
	elections, err := h.registry.List(r.Context())
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, elections)
}

// GetElection handles GET /elections/{id}
func (h *ElectionHandler) GetElection(w http.ResponseWriter, r *http.Request) {
	e, err := h.registry.AutoCloseIfExpired(r.Context(), r.PathValue("id"))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, e)
}

// DeleteElection handles DELETE /elections/{id}
func (h *ElectionHandler) DeleteElection(w http.ResponseWriter, r *http.Request) {
	if err := h.registry.Delete(r.Context(), r.PathValue("id")); err != nil {
		middleware.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetWindow handles PUT /elections/{id}/window
func (h *ElectionHandler) SetWindow(w http.ResponseWriter, r *http.Request) {
	var req models.SetWindowRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	e, err := h.registry.SetWindow(r.Context(), r.PathValue("id"), req.StartTime, req.EndTime)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, e)
}

// OpenElection handles POST /elections/{id}/open
func (h *ElectionHandler) OpenElection(w http.ResponseWriter, r *http.Request) {
	e, err := h.registry.Open(r.Context(), r.PathValue("id"))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, e)
}

// CloseElection handles POST /elections/{id}/close
func (h *ElectionHandler) CloseElection(w http.ResponseWriter, r *http.Request) {
	e, err := h.registry.Close(r.Context(), r.PathValue("id"))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, e)
}

// UploadRoster handles POST /elections/{id}/roster
func (h *ElectionHandler) UploadRoster(w http.ResponseWriter, r *http.Request) {
	var req models.UploadRosterRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if len(req.Rows) == 0 {
		middleware.ErrorResponse(w, http.StatusBadRequest, "rows are required")
		return
	}

	result, err := h.roster.BulkInsert(r.Context(), r.PathValue("id"), req.Rows)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, result)
}

// GetRoster handles GET /elections/{id}/roster
func (h *ElectionHandler) GetRoster(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")
	if _, err := h.registry.Get(r.Context(), electionID); err != nil {
		middleware.WriteError(w, err)
		return
	}

	entries, err := h.roster.ListAll(r.Context(), electionID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}
	middleware.JSONResponse(w, http.StatusOK, entries)
}

// ToggleCandidate handles POST /elections/{id}/candidates/{key}/toggle
func (h *ElectionHandler) ToggleCandidate(w http.ResponseWriter, r *http.Request) {
	entry, count, err := h.roster.ToggleCandidate(r.Context(), r.PathValue("id"), r.PathValue("key"))
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	middleware.JSONResponse(w, http.StatusOK, models.ToggleCandidateResponse{
		RollNumber:     entry.RollNumber,
		IsCandidate:    entry.IsCandidate,
		CandidateCount: count,
	})
}

// GetResults handles GET /elections/{id}/results. Admins see live counts
// while voting is still open.
func (h *ElectionHandler) GetResults(w http.ResponseWriter, r *http.Request) {
	electionID := r.PathValue("id")
	if _, err := h.registry.AutoCloseIfExpired(r.Context(), electionID); err != nil {
		middleware.WriteError(w, err)
		return
	}

	report, err := h.results.Report(r.Context(), electionID)
	if err != nil {
		middleware.WriteError(w, err)
		return
	}

	slog.Debug("admin results viewed", "election_id", electionID, "status", report.Election.Status)
	middleware.JSONResponse(w, http.StatusOK, report)
}

// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package handlers

import (
	"log/slog"
	"net/http"

	"github.com/danielhkuo/classvote/auth"
	"github.com/danielhkuo/classvote/cliparse"
	"github.com/danielhkuo/classvote/middleware"
	"github.com/danielhkuo/classvote/models"
)

type AuthHandler struct {
	cfg cliparse.Config
}

func NewAuthHandler(cfg cliparse.Config) *AuthHandler {
	return &AuthHandler{cfg: cfg}
}

// Login handles POST /admin/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := middleware.ParseJSONBody(r, &req); err != nil {
		middleware.ErrorResponse(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	err := auth.CheckAdminCredentials(req.Username, req.Password, h.cfg.AdminUsername, h.cfg.AdminPasswordHash)
	if err != nil {
		slog.Warn("admin login rejected", "client_ip", middleware.GetClientIP(r))
		middleware.ErrorResponse(w, http.StatusUnauthorized, "Invalid username or password")
		return
	}

	token, session, err := auth.IssueSession(req.Username, h.cfg.SessionSecret, h.cfg.SessionTTL)
	if err != nil {
		slog.Error("failed to issue session", "error", err)
		middleware.ErrorResponse(w, http.StatusInternalServerError, "Failed to create session")
		return
	}

	slog.Info("admin logged in", "subject", session.Subject)
	middleware.JSONResponse(w, http.StatusOK, models.LoginResponse{
		Token:     token,
		ExpiresAt: session.ExpiresAt,
	})
}

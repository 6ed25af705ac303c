// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/danielhkuo/classvote/apperr"
	"github.com/danielhkuo/classvote/auth"
	"github.com/danielhkuo/classvote/models"
	"github.com/danielhkuo/classvote/roster"
)

// VoterIdentityHeader carries the contact a voter signs in with.
const VoterIdentityHeader = "X-Voter-Identity"

// statusRecorder remembers the status code written by the wrapped handler
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// WithLogging wraps a handler with request logging
func WithLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next(rec, r)

		slog.Info("request completed",
			"method", r.Method,
			"path", r.URL.Path,
			"client_ip", GetClientIP(r),
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}

// JSONResponse writes a JSON response
func JSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("failed to encode JSON response", "error", err)
	}
}

// ErrorResponse writes a JSON error response
func ErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	JSONResponse(w, statusCode, models.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	})
}

// StatusFor maps an error kind to its HTTP status. Unknown kinds are 500.
func StatusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindInvalidConfig:
		return http.StatusBadRequest
	case apperr.KindNotRegistered:
		return http.StatusForbidden
	case apperr.KindInvalidTransition, apperr.KindNoCandidates, apperr.KindElectionLocked,
		apperr.KindAlreadyVoted, apperr.KindNotOpenYet, apperr.KindEnded:
		return http.StatusConflict
	case apperr.KindInvalidCandidate, apperr.KindDuplicateCandidate,
		apperr.KindWrongBallotSize, apperr.KindQuotaNotMet:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// WriteError writes err as a JSON error. Errors without a kind are logged
// and reported as a generic internal error.
func WriteError(w http.ResponseWriter, err error) {
	var appErr *apperr.Error
	if !errors.As(err, &appErr) {
		slog.Error("request failed", "error", err)
		ErrorResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	status := StatusFor(appErr.Kind)
	JSONResponse(w, status, models.ErrorResponse{
		Error:   http.StatusText(status),
		Kind:    string(appErr.Kind),
		Message: appErr.Error(),
	})
}

// ParseJSONBody parses the request body into the given struct
func ParseJSONBody(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// RequireAdmin rejects requests without a valid admin session token and
// stores the session in the request context.
func RequireAdmin(secret string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || strings.TrimSpace(token) == "" {
			ErrorResponse(w, http.StatusUnauthorized, "Missing admin session token")
			return
		}

		session, err := auth.ParseSession(strings.TrimSpace(token), secret)
		if err != nil || session.Role != auth.RoleAdmin {
			ErrorResponse(w, http.StatusUnauthorized, "Invalid or expired admin session")
			return
		}

		next(w, r.WithContext(auth.WithSession(r.Context(), session)))
	}
}

// RequireVoter reads the voter identity header, normalizes it the same way
// roster contacts are normalized and stores it in the request context.
func RequireVoter(countryCode string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		raw := strings.TrimSpace(r.Header.Get(VoterIdentityHeader))
		if raw == "" {
			ErrorResponse(w, http.StatusUnauthorized, "Missing "+VoterIdentityHeader+" header")
			return
		}

		identity := roster.NormalizeIdentity(raw, countryCode)
		next(w, r.WithContext(auth.WithVoter(r.Context(), identity)))
	}
}

// CORS middleware allows cross-origin requests from the frontend
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, "+VoterIdentityHeader)
		w.Header().Set("Access-Control-Allow-Credentials", "true")

		// Handle preflight requests
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// GetClientIP extracts the client IP address
// Checks X-Forwarded-For, X-Real-IP, then falls back to RemoteAddr
func GetClientIP(r *http.Request) string {
	// First hop added by the load balancer
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		first, _, _ := strings.Cut(xff, ",")
		return strings.TrimSpace(first)
	}

	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return strings.TrimSpace(xri)
	}

	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}

// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package middleware

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/danielhkuo/classvote/apperr"
	"github.com/danielhkuo/classvote/auth"
	"github.com/danielhkuo/classvote/models"
)

func TestWithLogging_PreservesResponse(t *testing.T) {
	testCases := []struct {
		name       string
		statusCode int
		body       string
	}{
		{"OK", http.StatusOK, "ok"},
		{"Created", http.StatusCreated, `{"election_id":"ABC123"}`},
		{"Conflict", http.StatusConflict, `{"error":"Conflict"}`},
		{"InternalError", http.StatusInternalServerError, "error"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			handler := WithLogging(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.statusCode)
				w.Write([]byte(tc.body))
			})

			req := httptest.NewRequest("POST", "/elections", nil)
			w := httptest.NewRecorder()

			handler(w, req)

			if w.Code != tc.statusCode {
				t.Errorf("Expected status %d, got %d", tc.statusCode, w.Code)
			}
			if w.Body.String() != tc.body {
				t.Errorf("Expected body '%s', got '%s'", tc.body, w.Body.String())
			}
		})
	}
}

func TestJSONResponse(t *testing.T) {
	testCases := []struct {
		name       string
		statusCode int
		data       interface{}
		expected   string
	}{
		{
			name:       "toggle response",
			statusCode: http.StatusOK,
			data:       models.ToggleCandidateResponse{RollNumber: "R01", IsCandidate: true, CandidateCount: 3},
			expected:   `{"roll_number":"R01","is_candidate":true,"candidate_count":3}`,
		},
		{
			name:       "error response",
			statusCode: http.StatusBadRequest,
			data:       models.ErrorResponse{Error: "Bad Request", Message: "missing field"},
			expected:   `{"error":"Bad Request","message":"missing field"}`,
		},
		{
			name:       "array data",
			statusCode: http.StatusOK,
			data:       []string{"a", "b", "c"},
			expected:   `["a","b","c"]`,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			JSONResponse(w, tc.statusCode, tc.data)

			if w.Code != tc.statusCode {
				t.Errorf("Expected status %d, got %d", tc.statusCode, w.Code)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("Expected Content-Type 'application/json', got '%s'", ct)
			}

			// Encode appends a newline
			body := strings.TrimSpace(w.Body.String())
			if body != tc.expected {
				t.Errorf("Expected body '%s', got '%s'", tc.expected, body)
			}
		})
	}
}

func TestVoteNeverExposesContact(t *testing.T) {
	w := httptest.NewRecorder()
	JSONResponse(w, http.StatusOK, models.Vote{ID: "v1", VoterContact: "secret@school.edu", CandidateRollNumber: "R01"})

	if strings.Contains(w.Body.String(), "secret@school.edu") {
		t.Errorf("Voter contact leaked: %s", w.Body.String())
	}
}

func TestErrorResponse(t *testing.T) {
	w := httptest.NewRecorder()

	ErrorResponse(w, http.StatusBadRequest, "name is required")

	if w.Code != http.StatusBadRequest {
		t.Errorf("Expected status 400, got %d", w.Code)
	}

	var resp models.ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("Failed to decode error response: %v", err)
	}
	if resp.Error != "Bad Request" || resp.Message != "name is required" || resp.Kind != "" {
		t.Errorf("Unexpected error response: %+v", resp)
	}
}

func TestWriteError(t *testing.T) {
	testCases := []struct {
		name         string
		err          error
		expectedCode int
		expectedKind string
	}{
		{"not found", apperr.New(apperr.KindNotFound, "election X not found"), http.StatusNotFound, "not_found"},
		{"invalid config", apperr.New(apperr.KindInvalidConfig, "bad"), http.StatusBadRequest, "invalid_config"},
		{"not registered", apperr.ErrNotRegistered, http.StatusForbidden, "not_registered"},
		{"already voted", apperr.ErrAlreadyVoted, http.StatusConflict, "already_voted"},
		{"no candidates", apperr.ErrNoCandidates, http.StatusConflict, "no_candidates"},
		{"locked", apperr.ErrElectionLocked, http.StatusConflict, "election_locked"},
		{"ended", apperr.ErrEnded, http.StatusConflict, "ended"},
		{"quota", apperr.ErrQuotaNotMet, http.StatusUnprocessableEntity, "quota_not_met"},
		{"duplicate", apperr.ErrDuplicateCandidate, http.StatusUnprocessableEntity, "duplicate_candidate"},
		{"wrapped", fmt.Errorf("cast: %w", apperr.ErrInvalidCandidate), http.StatusUnprocessableEntity, "invalid_candidate"},
		{"plain", errors.New("database is locked"), http.StatusInternalServerError, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()

			WriteError(w, tc.err)

			if w.Code != tc.expectedCode {
				t.Errorf("Expected status %d, got %d", tc.expectedCode, w.Code)
			}

			var resp models.ErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
				t.Fatalf("Failed to decode error response: %v", err)
			}
			if resp.Kind != tc.expectedKind {
				t.Errorf("Expected kind '%s', got '%s'", tc.expectedKind, resp.Kind)
			}
			if tc.expectedKind == "" && strings.Contains(resp.Message, "database") {
				t.Error("Internal error details must not be exposed")
			}
		})
	}
}

func TestParseJSONBody(t *testing.T) {
	t.Run("valid JSON", func(t *testing.T) {
		body := `{"candidate_roll_numbers":["R01","R02"]}`
		req := httptest.NewRequest("POST", "/", strings.NewReader(body))

		var parsed models.CastVoteRequest
		if err := ParseJSONBody(req, &parsed); err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if len(parsed.CandidateRollNumbers) != 2 || parsed.CandidateRollNumbers[1] != "R02" {
			t.Errorf("Unexpected parse result: %+v", parsed)
		}
	})

	t.Run("embedded config", func(t *testing.T) {
		body := `{"name":"CR","multi_vote":true,"total_votes_per_voter":2,"min_votes_per_gender":{"male":1,"female":1},"roster":[{"roll_number":"R01"}]}`
		req := httptest.NewRequest("POST", "/", strings.NewReader(body))

		var parsed models.CreateElectionRequest
		if err := ParseJSONBody(req, &parsed); err != nil {
			t.Fatalf("Expected no error, got: %v", err)
		}
		if parsed.Name != "CR" || !parsed.MultiVote || parsed.MinVotesPerGender.Female != 1 || len(parsed.Roster) != 1 {
			t.Errorf("Unexpected parse result: %+v", parsed)
		}
	})

	t.Run("invalid JSON", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", strings.NewReader(`{invalid json}`))

		var parsed models.CastVoteRequest
		if err := ParseJSONBody(req, &parsed); err == nil {
			t.Error("Expected error for invalid JSON")
		}
	})

	t.Run("empty body", func(t *testing.T) {
		req := httptest.NewRequest("POST", "/", strings.NewReader(""))

		var parsed models.CastVoteRequest
		if err := ParseJSONBody(req, &parsed); err == nil {
			t.Error("Expected error for empty body")
		}
	})
}

func TestRequireAdmin(t *testing.T) {
	const secret = "test-secret"

	valid, _, err := auth.IssueSession("admin", secret, time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	expired, _, err := auth.IssueSession("admin", secret, -time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	otherSecret, _, err := auth.IssueSession("admin", "other-secret", time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	testCases := []struct {
		name         string
		header       string
		expectedCode int
	}{
		{"valid token", "Bearer " + valid, http.StatusOK},
		{"missing header", "", http.StatusUnauthorized},
		{"wrong scheme", "Basic " + valid, http.StatusUnauthorized},
		{"empty bearer", "Bearer ", http.StatusUnauthorized},
		{"expired", "Bearer " + expired, http.StatusUnauthorized},
		{"wrong secret", "Bearer " + otherSecret, http.StatusUnauthorized},
		{"garbage", "Bearer not-a-jwt", http.StatusUnauthorized},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var subject string
			handler := RequireAdmin(secret, func(w http.ResponseWriter, r *http.Request) {
				s, ok := auth.SessionFromContext(r.Context())
				if !ok {
					t.Error("Expected session in context")
				}
				subject = s.Subject
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest("GET", "/elections", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()

			handler(w, req)

			if w.Code != tc.expectedCode {
				t.Errorf("Expected status %d, got %d", tc.expectedCode, w.Code)
			}
			if tc.expectedCode == http.StatusOK && subject != "admin" {
				t.Errorf("Expected subject 'admin', got '%s'", subject)
			}
		})
	}
}

func TestRequireVoter(t *testing.T) {
	testCases := []struct {
		name             string
		header           string
		expectedCode     int
		expectedIdentity string
	}{
		{"email", "  Asha@School.EDU ", http.StatusOK, "asha@school.edu"},
		{"phone", "98765-43210", http.StatusOK, "+919876543210"},
		{"missing", "", http.StatusUnauthorized, ""},
		{"blank", "   ", http.StatusUnauthorized, ""},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var identity string
			handler := RequireVoter("91", func(w http.ResponseWriter, r *http.Request) {
				identity, _ = auth.VoterFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest("POST", "/ballot/ABC123/votes", nil)
			if tc.header != "" {
				req.Header.Set(VoterIdentityHeader, tc.header)
			}
			w := httptest.NewRecorder()

			handler(w, req)

			if w.Code != tc.expectedCode {
				t.Errorf("Expected status %d, got %d", tc.expectedCode, w.Code)
			}
			if identity != tc.expectedIdentity {
				t.Errorf("Expected identity '%s', got '%s'", tc.expectedIdentity, identity)
			}
		})
	}
}

func TestCORS(t *testing.T) {
	nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("handled"))
	})

	corsHandler := CORS(nextHandler)

	t.Run("preflight OPTIONS request", func(t *testing.T) {
		req := httptest.NewRequest("OPTIONS", "/ballot/ABC123/votes", nil)
		req.Header.Set("Origin", "http://localhost:5173")
		w := httptest.NewRecorder()

		corsHandler.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Expected status 200, got %d", w.Code)
		}
		if w.Body.String() != "" {
			t.Errorf("Expected empty body for preflight, got '%s'", w.Body.String())
		}
		if w.Header().Get("Access-Control-Allow-Origin") != "http://localhost:5173" {
			t.Error("Expected Access-Control-Allow-Origin to match request origin")
		}

		allowed := w.Header().Get("Access-Control-Allow-Headers")
		for _, h := range []string{"Content-Type", "Authorization", VoterIdentityHeader} {
			if !strings.Contains(allowed, h) {
				t.Errorf("Expected %s in allowed headers", h)
			}
		}
	})

	t.Run("request without origin defaults to wildcard", func(t *testing.T) {
		req := httptest.NewRequest("GET", "/health", nil)
		w := httptest.NewRecorder()

		corsHandler.ServeHTTP(w, req)

		if w.Body.String() != "handled" {
			t.Error("Expected next handler to be called")
		}
		if w.Header().Get("Access-Control-Allow-Origin") != "*" {
			t.Error("Expected Access-Control-Allow-Origin to default to '*'")
		}
	})
}

func TestGetClientIP(t *testing.T) {
	testCases := []struct {
		name       string
		headers    map[string]string
		remoteAddr string
		expectedIP string
	}{
		{
			name:       "X-Forwarded-For chained IPs",
			headers:    map[string]string{"X-Forwarded-For": "203.0.113.195, 70.41.3.18"},
			remoteAddr: "127.0.0.1:12345",
			expectedIP: "203.0.113.195",
		},
		{
			name:       "X-Real-IP",
			headers:    map[string]string{"X-Real-IP": "203.0.113.50"},
			remoteAddr: "10.0.0.1:12345",
			expectedIP: "203.0.113.50",
		},
		{
			name:       "RemoteAddr with port",
			remoteAddr: "192.168.1.50:54321",
			expectedIP: "192.168.1.50",
		},
		{
			name:       "RemoteAddr without port",
			remoteAddr: "192.168.1.50",
			expectedIP: "192.168.1.50",
		},
		{
			name:       "IPv6 RemoteAddr with port",
			remoteAddr: "[::1]:12345",
			expectedIP: "::1",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("GET", "/", nil)
			req.RemoteAddr = tc.remoteAddr
			for k, v := range tc.headers {
				req.Header.Set(k, v)
			}

			if ip := GetClientIP(req); ip != tc.expectedIP {
				t.Errorf("Expected IP '%s', got '%s'", tc.expectedIP, ip)
			}
		})
	}
}

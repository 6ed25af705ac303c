// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/danielhkuo/classvote/auth"
	"github.com/danielhkuo/classvote/cliparse"
	"github.com/danielhkuo/classvote/db"
	"github.com/danielhkuo/classvote/models"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// Admin credentials accepted by GetTestConfig
const (
	TestAdminUsername = "admin"
	TestAdminPassword = "test-password"
)

var (
	hashOnce sync.Once
	testHash string
)

// SetupTestDB opens a private in-memory SQLite database with the full schema.
// The database is closed when the test ends.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	ctx := context.Background()
	conn, err := db.Open(ctx, db.TypeSQLite, ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(ctx, conn); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}

	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	hashOnce.Do(func() {
		h, err := bcrypt.GenerateFromPassword([]byte(TestAdminPassword), bcrypt.MinCost)
		if err != nil {
			panic(err)
		}
		testHash = string(h)
	})

	return cliparse.Config{
		Port:              3318,
		DatabaseURL:       ":memory:",
		DatabaseType:      db.TypeSQLite,
		AdminUsername:     TestAdminUsername,
		AdminPasswordHash: testHash,
		SessionSecret:     "test-session-secret",
		SessionTTL:        time.Hour,
		PhoneCountryCode:  "91",
	}
}

// AdminToken issues a valid admin session token for cfg
func AdminToken(t *testing.T, cfg cliparse.Config) string {
	t.Helper()

	token, _, err := auth.IssueSession(cfg.AdminUsername, cfg.SessionSecret, cfg.SessionTTL)
	if err != nil {
		t.Fatalf("Failed to issue admin token: %v", err)
	}
	return token
}

// AdminHeaders returns request headers carrying an admin session
func AdminHeaders(t *testing.T, cfg cliparse.Config) map[string]string {
	t.Helper()
	return map[string]string{"Authorization": "Bearer " + AdminToken(t, cfg)}
}

// VoterHeaders returns request headers identifying a voter
func VoterHeaders(identity string) map[string]string {
	return map[string]string{"X-Voter-Identity": identity}
}

// CreateTestElection inserts an election directly and returns its ID.
// status should be "created", "open", or "closed". A zero TotalVotesPerVoter
// is stored as 1.
func CreateTestElection(t *testing.T, conn *sql.DB, status string, cfg models.ElectionConfig) string {
	t.Helper()

	id, err := auth.GenerateElectionID()
	if err != nil {
		t.Fatalf("Failed to generate election ID: %v", err)
	}

	if cfg.Name == "" {
		cfg.Name = "Class Representative"
	}
	if cfg.TotalVotesPerVoter < 1 {
		cfg.TotalVotesPerVoter = 1
	}

	now := time.Now().UTC()
	_, err = conn.Exec(`
		INSERT INTO election (id, name, class_name, branch, class_year, section,
			start_time, end_time, status, multi_vote, total_votes_per_voter,
			min_votes_male, min_votes_female, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`, id, cfg.Name, cfg.ClassName, cfg.Branch, cfg.Year, cfg.Section,
		nullTime(cfg.StartTime), nullTime(cfg.EndTime), status, cfg.MultiVote, cfg.TotalVotesPerVoter,
		cfg.MinVotesPerGender.Male, cfg.MinVotesPerGender.Female, now, now)
	if err != nil {
		t.Fatalf("Failed to create test election: %v", err)
	}

	return id
}

// SetTestWindow overwrites an election's voting window
func SetTestWindow(t *testing.T, conn *sql.DB, electionID string, start, end *time.Time) {
	t.Helper()

	_, err := conn.Exec(`UPDATE election SET start_time = $1, end_time = $2 WHERE id = $3`,
		nullTime(start), nullTime(end), electionID)
	if err != nil {
		t.Fatalf("Failed to set test window: %v", err)
	}
}

// TestEntry describes a roster entry fixture. Contact must already be normalized.
type TestEntry struct {
	RollNumber string
	Name       string
	Contact    string
	Gender     string
	Candidate  bool
	HasVoted   bool
}

// AddTestEntries appends roster entries in order and refreshes the election counters
func AddTestEntries(t *testing.T, conn *sql.DB, electionID string, entries ...TestEntry) {
	t.Helper()

	var next int
	if err := conn.QueryRow(`SELECT COUNT(*) FROM roster_entry WHERE election_id = $1`, electionID).Scan(&next); err != nil {
		t.Fatalf("Failed to count roster: %v", err)
	}

	for i, e := range entries {
		if e.Name == "" {
			e.Name = "Student " + e.RollNumber
		}
		_, err := conn.Exec(`
			INSERT INTO roster_entry (id, election_id, list_order, roll_number, name, contact, gender, is_candidate, has_voted)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		`, uuid.NewString(), electionID, next+i, e.RollNumber, e.Name, e.Contact, e.Gender, e.Candidate, e.HasVoted)
		if err != nil {
			t.Fatalf("Failed to create roster entry %s: %v", e.RollNumber, err)
		}
	}

	var students, candidates int
	err := conn.QueryRow(`SELECT COUNT(*) FROM roster_entry WHERE election_id = $1`, electionID).Scan(&students)
	if err != nil {
		t.Fatalf("Failed to count students: %v", err)
	}
	err = conn.QueryRow(`SELECT COUNT(*) FROM roster_entry WHERE election_id = $1 AND is_candidate = $2`, electionID, true).Scan(&candidates)
	if err != nil {
		t.Fatalf("Failed to count candidates: %v", err)
	}

	_, err = conn.Exec(`UPDATE election SET student_count = $1, candidate_count = $2 WHERE id = $3`,
		students, candidates, electionID)
	if err != nil {
		t.Fatalf("Failed to update election counters: %v", err)
	}
}

// AddTestVote inserts a single vote row without touching the voter's flag
func AddTestVote(t *testing.T, conn *sql.DB, electionID, voterContact, candidateRoll string) {
	t.Helper()

	_, err := conn.Exec(`
		INSERT INTO vote (id, election_id, voter_contact, candidate_roll_number, cast_at)
		VALUES ($1, $2, $3, $4, $5)
	`, uuid.NewString(), electionID, voterContact, candidateRoll, time.Now().UTC())
	if err != nil {
		t.Fatalf("Failed to create test vote: %v", err)
	}
}

// CountRows returns the number of rows in table for an election
func CountRows(t *testing.T, conn *sql.DB, table, electionID string) int {
	t.Helper()

	var n int
	// table is always a literal from test code
	if err := conn.QueryRow(`SELECT COUNT(*) FROM `+table+` WHERE election_id = $1`, electionID).Scan(&n); err != nil {
		t.Fatalf("Failed to count %s: %v", table, err)
	}
	return n
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t.UTC(), Valid: true}
}

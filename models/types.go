// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package models

import "time"

// Election status constants
const (
	StatusCreated = "created"
	StatusOpen    = "open"
	StatusClosed  = "closed"
)

// Canonical gender values used for quota arithmetic
const (
	GenderMale   = "Male"
	GenderFemale = "Female"
)

// Domain types

type GenderQuota struct {
	Male   int `json:"male"`
	Female int `json:"female"`
}

// Active reports whether any minimum is configured.
func (q GenderQuota) Active() bool {
	return q.Male > 0 || q.Female > 0
}

type Election struct {
	ID                 string      `json:"id"`
	Name               string      `json:"name"`
	ClassName          string      `json:"class_name"`
	Branch             string      `json:"branch"`
	Year               int         `json:"year"`
	Section            int         `json:"section"`
	StartTime          *time.Time  `json:"start_time,omitempty"`
	EndTime            *time.Time  `json:"end_time,omitempty"`
	Status             string      `json:"status"`
	StudentCount       int         `json:"student_count"`
	CandidateCount     int         `json:"candidate_count"`
	MultiVote          bool        `json:"multi_vote"`
	TotalVotesPerVoter int         `json:"total_votes_per_voter"`
	MinVotesPerGender  GenderQuota `json:"min_votes_per_gender"`
	CreatedAt          time.Time   `json:"created_at"`
	UpdatedAt          time.Time   `json:"updated_at"`
}

type RosterEntry struct {
	ID          string `json:"id"`
	ElectionID  string `json:"election_id"`
	RollNumber  string `json:"roll_number"`
	Name        string `json:"name"`
	Contact     string `json:"contact"`
	Gender      string `json:"gender"`
	IsCandidate bool   `json:"is_candidate"`
	HasVoted    bool   `json:"has_voted"`
}

// Candidate is the public projection of a roster entry with IsCandidate set.
type Candidate struct {
	RollNumber string `json:"roll_number"`
	Name       string `json:"name"`
	Gender     string `json:"gender"`
}

type Vote struct {
	ID                  string    `json:"id"`
	ElectionID          string    `json:"election_id"`
	VoterContact        string    `json:"-"` // Never expose in JSON
	CandidateRollNumber string    `json:"candidate_roll_number"`
	CastAt              time.Time `json:"cast_at"`
}

// RosterRow is one already-parsed row from a roster upload.
type RosterRow struct {
	RollNumber string `json:"roll_number"`
	Name       string `json:"name"`
	Contact    string `json:"contact"`
	Gender     string `json:"gender"`
}

type RowError struct {
	Row        int    `json:"row"` // 1-indexed position in the submitted batch
	RollNumber string `json:"roll_number,omitempty"`
	Reason     string `json:"reason"`
}

type BulkInsertResult struct {
	Processed int        `json:"processed"`
	Total     int        `json:"total"`
	RowErrors []RowError `json:"row_errors"`
}

type ElectionConfig struct {
	Name               string      `json:"name"`
	ClassName          string      `json:"class_name"`
	Branch             string      `json:"branch"`
	Year               int         `json:"year"`
	Section            int         `json:"section"`
	StartTime          *time.Time  `json:"start_time,omitempty"`
	EndTime            *time.Time  `json:"end_time,omitempty"`
	MultiVote          bool        `json:"multi_vote"`
	TotalVotesPerVoter int         `json:"total_votes_per_voter"`
	MinVotesPerGender  GenderQuota `json:"min_votes_per_gender"`
}

// Result types

type CandidateResult struct {
	RollNumber string `json:"roll_number"`
	Name       string `json:"name"`
	Gender     string `json:"gender"`
	Votes      int    `json:"votes"`
	Rank       int    `json:"rank"` // 1-indexed position in the sorted tally
}

type Tally struct {
	ElectionID  string            `json:"election_id"`
	Results     []CandidateResult `json:"results"`
	TotalVotes  int               `json:"total_votes"`
	TotalVoters int               `json:"total_voters"`
}

// Winner selection modes
const (
	WinnerModeQuota   = "quota"
	WinnerModeOverall = "overall"
)

type Winners struct {
	Mode          string            `json:"mode"`
	MaleWinners   []CandidateResult `json:"male_winners"`
	FemaleWinners []CandidateResult `json:"female_winners"`
	Winner        *CandidateResult  `json:"winner,omitempty"`
}

type Turnout struct {
	ElectionID   string  `json:"election_id"`
	StudentCount int     `json:"student_count"`
	VotersVoted  int     `json:"voters_voted"`
	Ratio        float64 `json:"ratio"`
}

// Request types

type CreateElectionRequest struct {
	ElectionConfig
	Roster []RosterRow `json:"roster"`
}

type SetWindowRequest struct {
	StartTime *time.Time `json:"start_time"`
	EndTime   *time.Time `json:"end_time"`
}

type UploadRosterRequest struct {
	Rows []RosterRow `json:"rows"`
}

type CastVoteRequest struct {
	CandidateRollNumbers []string `json:"candidate_roll_numbers"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Response types

type CreateElectionResponse struct {
	ElectionID string `json:"election_id"`
	BulkInsertResult
}

type LoginResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type ToggleCandidateResponse struct {
	RollNumber     string `json:"roll_number"`
	IsCandidate    bool   `json:"is_candidate"`
	CandidateCount int    `json:"candidate_count"`
}

type BallotView struct {
	Election   Election    `json:"election"`
	Candidates []Candidate `json:"candidates"`
}

type EligibilityResponse struct {
	Eligible bool   `json:"eligible"`
	Reason   string `json:"reason,omitempty"`
	Message  string `json:"message,omitempty"`
	Voter    *Voter `json:"voter,omitempty"`
}

// Voter is what a voter may see about their own roster entry.
type Voter struct {
	RollNumber string `json:"roll_number"`
	Name       string `json:"name"`
	HasVoted   bool   `json:"has_voted"`
}

type CastVoteResponse struct {
	VotesRecorded int       `json:"votes_recorded"`
	CastAt        time.Time `json:"cast_at"`
	Message       string    `json:"message"`
}

type ResultsResponse struct {
	Election Election `json:"election"`
	Tally    Tally    `json:"tally"`
	Winners  Winners  `json:"winners"`
}

// Error response

type ErrorResponse struct {
	Error   string `json:"error"`
	Kind    string `json:"kind,omitempty"`
	Message string `json:"message,omitempty"`
}

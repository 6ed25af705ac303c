// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package ledger

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/danielhkuo/classvote/apperr"
	"github.com/danielhkuo/classvote/models"
	"github.com/danielhkuo/classvote/roster"
	"github.com/danielhkuo/classvote/testutil"
)

func TestCastVoteSingle(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	l := New(conn)
	ctx := context.Background()

	castAt := time.Date(2025, 3, 1, 10, 30, 0, 0, time.UTC)
	l.SetClock(func() time.Time { return castAt })

	id := testutil.CreateTestElection(t, conn, models.StatusOpen, models.ElectionConfig{})
	testutil.AddTestEntries(t, conn, id,
		testutil.TestEntry{RollNumber: "ALICE", Name: "Alice", Contact: "alice@school.edu", Gender: models.GenderMale, Candidate: true},
		testutil.TestEntry{RollNumber: "BOB", Name: "Bob", Contact: "bob@school.edu", Gender: models.GenderMale, Candidate: true},
		testutil.TestEntry{RollNumber: "V01", Name: "Voter", Contact: "voter@school.edu"},
	)

	receipt, err := l.CastVote(ctx, id, "voter@school.edu", []string{"ALICE"})
	if err != nil {
		t.Fatalf("CastVote failed: %v", err)
	}

	if receipt.RollNumber != "V01" || len(receipt.Votes) != 1 || !receipt.CastAt.Equal(castAt) {
		t.Errorf("Unexpected receipt: %+v", receipt)
	}

	entry, err := roster.New(conn, "91").FindByIdentity(ctx, id, "voter@school.edu")
	if err != nil {
		t.Fatal(err)
	}
	if !entry.HasVoted {
		t.Error("Expected voter to be marked as voted")
	}

	votes, err := l.VotesForElection(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if len(votes) != 1 || votes[0].CandidateRollNumber != "ALICE" || votes[0].VoterContact != "voter@school.edu" {
		t.Errorf("Unexpected votes: %+v", votes)
	}

	forBob, _ := l.VotesForCandidate(ctx, id, "BOB")
	if len(forBob) != 0 {
		t.Errorf("Expected no votes for BOB, got %d", len(forBob))
	}
}

func TestCastVoteQuota(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	l := New(conn)
	ctx := context.Background()

	id := testutil.CreateTestElection(t, conn, models.StatusOpen, models.ElectionConfig{
		MultiVote:          true,
		TotalVotesPerVoter: 2,
		MinVotesPerGender:  models.GenderQuota{Male: 1, Female: 1},
	})
	testutil.AddTestEntries(t, conn, id,
		testutil.TestEntry{RollNumber: "ALICE", Contact: "alice@school.edu", Gender: models.GenderFemale, Candidate: true},
		testutil.TestEntry{RollNumber: "BOB", Contact: "bob@school.edu", Gender: models.GenderMale, Candidate: true},
		testutil.TestEntry{RollNumber: "CAROL", Contact: "carol@school.edu", Gender: models.GenderFemale, Candidate: true},
		testutil.TestEntry{RollNumber: "V01", Contact: "voter@school.edu"},
	)

	_, err := l.CastVote(ctx, id, "voter@school.edu", []string{"ALICE", "CAROL"})
	if !errors.Is(err, apperr.ErrQuotaNotMet) {
		t.Fatalf("Expected quota_not_met, got %v", err)
	}

	// Rejected ballots leave no trace
	if n := testutil.CountRows(t, conn, "vote", id); n != 0 {
		t.Errorf("Expected no votes after rejection, got %d", n)
	}
	entry, _ := roster.New(conn, "91").FindByIdentity(ctx, id, "voter@school.edu")
	if entry.HasVoted {
		t.Error("Voter must not be marked after a rejected ballot")
	}

	receipt, err := l.CastVote(ctx, id, "voter@school.edu", []string{"ALICE", "BOB"})
	if err != nil {
		t.Fatalf("CastVote failed: %v", err)
	}
	if len(receipt.Votes) != 2 {
		t.Fatalf("Expected 2 votes, got %d", len(receipt.Votes))
	}
	if !receipt.Votes[0].CastAt.Equal(receipt.Votes[1].CastAt) {
		t.Error("Votes from one ballot must share cast_at")
	}
}

func TestCastVoteTwice(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	l := New(conn)
	ctx := context.Background()

	id := testutil.CreateTestElection(t, conn, models.StatusOpen, models.ElectionConfig{})
	testutil.AddTestEntries(t, conn, id,
		testutil.TestEntry{RollNumber: "ALICE", Contact: "alice@school.edu", Candidate: true},
		testutil.TestEntry{RollNumber: "BOB", Contact: "bob@school.edu", Candidate: true},
	)

	if _, err := l.CastVote(ctx, id, "bob@school.edu", []string{"ALICE"}); err != nil {
		t.Fatalf("First vote failed: %v", err)
	}

	_, err := l.CastVote(ctx, id, "BOB@school.edu", []string{"BOB"})
	if !errors.Is(err, apperr.ErrAlreadyVoted) {
		t.Errorf("Expected already_voted, got %v", err)
	}

	if n := testutil.CountRows(t, conn, "vote", id); n != 1 {
		t.Errorf("Expected exactly 1 vote, got %d", n)
	}
}

// TestCastVoteRollsBackOnWriteFailure fails the second vote insert after the
// voter has been claimed and checks that neither the claim nor the first
// vote survives.
func TestCastVoteRollsBackOnWriteFailure(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	l := New(conn)
	ctx := context.Background()

	id := testutil.CreateTestElection(t, conn, models.StatusOpen, models.ElectionConfig{
		MultiVote:          true,
		TotalVotesPerVoter: 2,
	})
	testutil.AddTestEntries(t, conn, id,
		testutil.TestEntry{RollNumber: "A", Contact: "a@school.edu", Candidate: true},
		testutil.TestEntry{RollNumber: "B", Contact: "b@school.edu", Candidate: true},
		testutil.TestEntry{RollNumber: "V", Contact: "v@school.edu"},
	)
	// A stray row left without has_voted set makes the insert for B collide
	testutil.AddTestVote(t, conn, id, "v@school.edu", "B")

	_, err := l.CastVote(ctx, id, "v@school.edu", []string{"A", "B"})
	if !errors.Is(err, apperr.ErrAlreadyVoted) {
		t.Fatalf("Expected already_voted, got %v", err)
	}

	entry, err := roster.New(conn, "91").FindByIdentity(ctx, id, "v@school.edu")
	if err != nil {
		t.Fatal(err)
	}
	if entry.HasVoted {
		t.Error("Expected voter claim to be rolled back")
	}

	if n := testutil.CountRows(t, conn, "vote", id); n != 1 {
		t.Errorf("Expected only the pre-existing vote, got %d rows", n)
	}
	forA, err := l.VotesForCandidate(ctx, id, "A")
	if err != nil {
		t.Fatal(err)
	}
	if len(forA) != 0 {
		t.Errorf("Expected vote for A to be rolled back, got %+v", forA)
	}
}

func TestCastVoteRejections(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	l := New(conn)
	ctx := context.Background()

	entries := []testutil.TestEntry{
		{RollNumber: "ALICE", Contact: "alice@school.edu", Candidate: true},
		{RollNumber: "V01", Contact: "voter@school.edu"},
	}

	created := testutil.CreateTestElection(t, conn, models.StatusCreated, models.ElectionConfig{})
	testutil.AddTestEntries(t, conn, created, entries...)
	closed := testutil.CreateTestElection(t, conn, models.StatusClosed, models.ElectionConfig{})
	testutil.AddTestEntries(t, conn, closed, entries...)
	open := testutil.CreateTestElection(t, conn, models.StatusOpen, models.ElectionConfig{})
	testutil.AddTestEntries(t, conn, open, entries...)

	tests := []struct {
		name       string
		electionID string
		identity   string
		rolls      []string
		want       error
	}{
		{"unknown election", "NOPE00", "voter@school.edu", []string{"ALICE"}, apperr.ErrNotFound},
		{"not open yet", created, "voter@school.edu", []string{"ALICE"}, apperr.ErrNotOpenYet},
		{"ended", closed, "voter@school.edu", []string{"ALICE"}, apperr.ErrEnded},
		{"not registered", open, "stranger@school.edu", []string{"ALICE"}, apperr.ErrNotRegistered},
		{"invalid candidate", open, "voter@school.edu", []string{"DAVE"}, apperr.ErrInvalidCandidate},
		{"non-candidate roll", open, "voter@school.edu", []string{"V01"}, apperr.ErrInvalidCandidate},
		{"empty ballot", open, "voter@school.edu", nil, apperr.ErrWrongBallotSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := l.CastVote(ctx, tt.electionID, tt.identity, tt.rolls)
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", apperr.KindOf(tt.want), err)
			}
		})
	}

	for _, id := range []string{created, closed, open} {
		if n := testutil.CountRows(t, conn, "vote", id); n != 0 {
			t.Errorf("Election %s: expected no votes, got %d", id, n)
		}
	}
}

func TestCastVotePhoneIdentity(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	l := New(conn)
	l.SetCountryCode("1")
	ctx := context.Background()

	id := testutil.CreateTestElection(t, conn, models.StatusOpen, models.ElectionConfig{})
	testutil.AddTestEntries(t, conn, id,
		testutil.TestEntry{RollNumber: "ALICE", Contact: "alice@school.edu", Candidate: true},
		testutil.TestEntry{RollNumber: "V01", Contact: "+15551234567"},
	)

	receipt, err := l.CastVote(ctx, id, "(555) 123-4567", []string{"ALICE"})
	if err != nil {
		t.Fatalf("CastVote failed: %v", err)
	}
	if receipt.RollNumber != "V01" {
		t.Errorf("Expected V01, got %s", receipt.RollNumber)
	}
}

func TestConcurrentSameVoter(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	l := New(conn)
	ctx := context.Background()

	id := testutil.CreateTestElection(t, conn, models.StatusOpen, models.ElectionConfig{})
	testutil.AddTestEntries(t, conn, id,
		testutil.TestEntry{RollNumber: "ALICE", Contact: "alice@school.edu", Candidate: true},
		testutil.TestEntry{RollNumber: "BOB", Contact: "bob@school.edu", Candidate: true},
		testutil.TestEntry{RollNumber: "V01", Contact: "voter@school.edu"},
	)

	const attempts = 10
	var wg sync.WaitGroup
	var successCount atomic.Int32
	var alreadyVotedCount atomic.Int32

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			choice := "ALICE"
			if i%2 == 1 {
				choice = "BOB"
			}
			_, err := l.CastVote(ctx, id, "voter@school.edu", []string{choice})
			switch {
			case err == nil:
				successCount.Add(1)
			case errors.Is(err, apperr.ErrAlreadyVoted):
				alreadyVotedCount.Add(1)
			default:
				t.Errorf("Unexpected error: %v", err)
			}
		}(i)
	}
	wg.Wait()

	if successCount.Load() != 1 {
		t.Errorf("Expected exactly 1 success, got %d", successCount.Load())
	}
	if alreadyVotedCount.Load() != attempts-1 {
		t.Errorf("Expected %d already_voted, got %d", attempts-1, alreadyVotedCount.Load())
	}
	if n := testutil.CountRows(t, conn, "vote", id); n != 1 {
		t.Errorf("Expected exactly 1 vote row, got %d", n)
	}
}

func TestConcurrentDifferentVoters(t *testing.T) {
	conn := testutil.SetupTestDB(t)
	l := New(conn)
	ctx := context.Background()

	id := testutil.CreateTestElection(t, conn, models.StatusOpen, models.ElectionConfig{
		MultiVote:          true,
		TotalVotesPerVoter: 2,
		MinVotesPerGender:  models.GenderQuota{Male: 1, Female: 1},
	})
	testutil.AddTestEntries(t, conn, id,
		testutil.TestEntry{RollNumber: "F1", Contact: "f1@school.edu", Gender: models.GenderFemale, Candidate: true},
		testutil.TestEntry{RollNumber: "M1", Contact: "m1@school.edu", Gender: models.GenderMale, Candidate: true},
	)

	const voters = 20
	for i := 0; i < voters; i++ {
		testutil.AddTestEntries(t, conn, id, testutil.TestEntry{
			RollNumber: fmt.Sprintf("S%02d", i),
			Contact:    fmt.Sprintf("student%02d@school.edu", i),
		})
	}

	var wg sync.WaitGroup
	var successCount atomic.Int32

	for i := 0; i < voters; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			identity := fmt.Sprintf("student%02d@school.edu", i)
			if _, err := l.CastVote(ctx, id, identity, []string{"F1", "M1"}); err != nil {
				t.Errorf("Voter %d failed: %v", i, err)
				return
			}
			successCount.Add(1)
		}(i)
	}
	wg.Wait()

	if successCount.Load() != voters {
		t.Errorf("Expected %d successes, got %d", voters, successCount.Load())
	}
	if n := testutil.CountRows(t, conn, "vote", id); n != voters*2 {
		t.Errorf("Expected %d vote rows, got %d", voters*2, n)
	}

	voted, err := roster.New(conn, "91").CountVoted(ctx, id)
	if err != nil || voted != voters {
		t.Errorf("Expected %d voters marked, got %d, %v", voters, voted, err)
	}
}

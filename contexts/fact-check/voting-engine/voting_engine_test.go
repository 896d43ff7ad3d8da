package votingengine

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"validnews/contexts/fact-check/voting-engine/domain/entities"
	domainerrors "validnews/contexts/fact-check/voting-engine/domain/errors"
	"validnews/contexts/fact-check/voting-engine/ports"
	httptransport "validnews/contexts/fact-check/voting-engine/transport/http"
)

func openClaim(id string) ports.ClaimProjection {
	return ports.ClaimProjection{
		ClaimID:      id,
		Status:       "voting",
		VotingEndsAt: time.Now().UTC().Add(time.Hour),
	}
}

func boolPtr(v bool) *bool {
	return &v
}

func TestRecordVoteIncrementsTallies(t *testing.T) {
	module := NewInMemoryModule(nil)
	module.Store.SetClaim(openClaim("claim-1"))
	ctx := context.Background()

	if _, err := module.Handler.RecordVoteHandler(ctx, "0xVoterA", "claim-1", httptransport.RecordVoteRequest{
		Decision: boolPtr(true),
	}); err != nil {
		t.Fatalf("first vote: %v", err)
	}
	if _, err := module.Handler.RecordVoteHandler(ctx, "0xVoterB", "claim-1", httptransport.RecordVoteRequest{
		Decision: boolPtr(false),
	}); err != nil {
		t.Fatalf("second vote: %v", err)
	}

	claim, ok := module.Store.Claim("claim-1")
	if !ok {
		t.Fatal("claim missing from store")
	}
	if claim.VotesTrue != 1 || claim.VotesFalse != 1 || claim.TotalVotes != 2 {
		t.Fatalf("tallies wrong: true=%d false=%d total=%d", claim.VotesTrue, claim.VotesFalse, claim.TotalVotes)
	}
}

func TestRecordVoteRejectsRevote(t *testing.T) {
	module := NewInMemoryModule(nil)
	module.Store.SetClaim(openClaim("claim-1"))
	ctx := context.Background()

	if _, err := module.Handler.RecordVoteHandler(ctx, "0xVoter", "claim-1", httptransport.RecordVoteRequest{
		Decision: boolPtr(true),
	}); err != nil {
		t.Fatalf("first vote: %v", err)
	}
	_, err := module.Handler.RecordVoteHandler(ctx, "0xVoter", "claim-1", httptransport.RecordVoteRequest{
		Decision: boolPtr(false),
	})
	if !errors.Is(err, domainerrors.ErrAlreadyVoted) {
		t.Fatalf("expected ErrAlreadyVoted, got %v", err)
	}

	claim, _ := module.Store.Claim("claim-1")
	if claim.TotalVotes != 1 {
		t.Fatalf("revote changed tallies, total=%d", claim.TotalVotes)
	}
}

func TestRecordVoteRejectsClosedWindow(t *testing.T) {
	module := NewInMemoryModule(nil)
	module.Store.SetClaim(ports.ClaimProjection{
		ClaimID:      "claim-1",
		Status:       "voting",
		VotingEndsAt: time.Now().UTC().Add(-time.Minute),
	})

	_, err := module.Handler.RecordVoteHandler(context.Background(), "0xVoter", "claim-1", httptransport.RecordVoteRequest{
		Decision: boolPtr(true),
	})
	if !errors.Is(err, domainerrors.ErrVotingClosed) {
		t.Fatalf("expected ErrVotingClosed, got %v", err)
	}
}

func TestRecordVoteRejectsSettledClaim(t *testing.T) {
	module := NewInMemoryModule(nil)
	module.Store.SetClaim(ports.ClaimProjection{
		ClaimID:      "claim-1",
		Status:       "tallied",
		VotingEndsAt: time.Now().UTC().Add(time.Hour),
	})

	_, err := module.Handler.RecordVoteHandler(context.Background(), "0xVoter", "claim-1", httptransport.RecordVoteRequest{
		Decision: boolPtr(true),
	})
	if !errors.Is(err, domainerrors.ErrVotingClosed) {
		t.Fatalf("expected ErrVotingClosed, got %v", err)
	}
}

func TestRecordVoteEnforcesCap(t *testing.T) {
	module := NewInMemoryModule(nil)
	module.Store.SetClaim(openClaim("claim-1"))
	ctx := context.Background()

	for i := 0; i < 20; i++ {
		wallet := fmt.Sprintf("0xVoter%02d", i)
		if _, err := module.Handler.RecordVoteHandler(ctx, wallet, "claim-1", httptransport.RecordVoteRequest{
			Decision: boolPtr(i%2 == 0),
		}); err != nil {
			t.Fatalf("vote %d: %v", i, err)
		}
	}

	_, err := module.Handler.RecordVoteHandler(ctx, "0xVoterLate", "claim-1", httptransport.RecordVoteRequest{
		Decision: boolPtr(true),
	})
	if !errors.Is(err, domainerrors.ErrVoteCapReached) {
		t.Fatalf("expected ErrVoteCapReached on 21st vote, got %v", err)
	}

	claim, _ := module.Store.Claim("claim-1")
	if claim.TotalVotes != 20 {
		t.Fatalf("expected 20 recorded votes, got %d", claim.TotalVotes)
	}
}

func TestRecordVoteUnknownClaim(t *testing.T) {
	module := NewInMemoryModule(nil)

	_, err := module.Handler.RecordVoteHandler(context.Background(), "0xVoter", "missing", httptransport.RecordVoteRequest{
		Decision: boolPtr(true),
	})
	if !errors.Is(err, domainerrors.ErrClaimNotFound) {
		t.Fatalf("expected ErrClaimNotFound, got %v", err)
	}
}

func TestRecordVoteRequiresDecision(t *testing.T) {
	module := NewInMemoryModule(nil)
	module.Store.SetClaim(openClaim("claim-1"))

	_, err := module.Handler.RecordVoteHandler(context.Background(), "0xVoter", "claim-1", httptransport.RecordVoteRequest{})
	if !errors.Is(err, domainerrors.ErrInvalidVoteInput) {
		t.Fatalf("expected ErrInvalidVoteInput, got %v", err)
	}
}

func TestRecordVoteAppendsOutboxEvent(t *testing.T) {
	module := NewInMemoryModule(nil)
	module.Store.SetClaim(openClaim("claim-1"))

	if _, err := module.Handler.RecordVoteHandler(context.Background(), "0xVoter", "claim-1", httptransport.RecordVoteRequest{
		Decision: boolPtr(true),
	}); err != nil {
		t.Fatalf("vote: %v", err)
	}

	messages := module.Store.OutboxMessages()
	if len(messages) != 1 {
		t.Fatalf("expected one outbox message, got %d", len(messages))
	}
	if messages[0].EventType != "vote.recorded" {
		t.Fatalf("expected vote.recorded event, got %q", messages[0].EventType)
	}
}

func TestGetUserVote(t *testing.T) {
	module := NewInMemoryModule(nil)
	module.Store.SetClaim(openClaim("claim-1"))
	ctx := context.Background()

	recorded, err := module.Handler.RecordVoteHandler(ctx, "0xVoter", "claim-1", httptransport.RecordVoteRequest{
		Decision: boolPtr(true),
	})
	if err != nil {
		t.Fatalf("vote: %v", err)
	}

	resp, err := module.Handler.GetUserVoteHandler(ctx, "0xVOTER", "claim-1")
	if err != nil {
		t.Fatalf("get user vote: %v", err)
	}
	if resp.Data.VoteID != recorded.Data.VoteID {
		t.Fatalf("got vote %q, want %q", resp.Data.VoteID, recorded.Data.VoteID)
	}

	_, err = module.Handler.GetUserVoteHandler(ctx, "0xStranger", "claim-1")
	if !errors.Is(err, domainerrors.ErrVoteNotFound) {
		t.Fatalf("expected ErrVoteNotFound for non-voter, got %v", err)
	}
}

func TestRecordVoteConflictsOnStaleTotal(t *testing.T) {
	module := NewInMemoryModule(nil)
	module.Store.SetClaim(openClaim("claim-1"))
	ctx := context.Background()

	if _, err := module.Handler.RecordVoteHandler(ctx, "0xVoterA", "claim-1", httptransport.RecordVoteRequest{
		Decision: boolPtr(true),
	}); err != nil {
		t.Fatalf("vote: %v", err)
	}

	// A second writer that read total_votes=0 before the first vote landed
	// must lose the compare-and-swap instead of double-counting.
	err := module.Store.RecordVote(ctx, entities.Vote{
		VoteID:    "stale-vote",
		ClaimID:   "claim-1",
		UserID:    "racer",
		Decision:  true,
		CreatedAt: time.Now().UTC(),
	}, 0)
	if !errors.Is(err, domainerrors.ErrVoteConflict) {
		t.Fatalf("expected ErrVoteConflict, got %v", err)
	}
	claim, _ := module.Store.Claim("claim-1")
	if claim.TotalVotes != 1 {
		t.Fatalf("stale write changed tallies, total=%d", claim.TotalVotes)
	}
}

func TestListClaimVotesReturnsTallyAndVotes(t *testing.T) {
	module := NewInMemoryModule(nil)
	module.Store.SetClaim(openClaim("claim-1"))
	ctx := context.Background()

	for i, decision := range []bool{true, true, false} {
		wallet := fmt.Sprintf("0xVoter%d", i)
		if _, err := module.Handler.RecordVoteHandler(ctx, wallet, "claim-1", httptransport.RecordVoteRequest{
			Decision: boolPtr(decision),
		}); err != nil {
			t.Fatalf("vote %d: %v", i, err)
		}
	}

	resp, err := module.Handler.ListClaimVotesHandler(ctx, "claim-1")
	if err != nil {
		t.Fatalf("list votes: %v", err)
	}
	if resp.Tally.VotesTrue != 2 || resp.Tally.VotesFalse != 1 {
		t.Fatalf("tally wrong: %+v", resp.Tally)
	}
	if len(resp.Data) != 3 {
		t.Fatalf("expected 3 votes, got %d", len(resp.Data))
	}
}

package claimservice

import (
	"context"
	"errors"
	"testing"
	"time"

	"validnews/contexts/fact-check/claim-service/domain/entities"
	domainerrors "validnews/contexts/fact-check/claim-service/domain/errors"
	httptransport "validnews/contexts/fact-check/claim-service/transport/http"
)

func TestSubmitClaimChargesFeeAndOpensVotingWindow(t *testing.T) {
	module := NewInMemoryModule(nil)
	ctx := context.Background()

	resp, err := module.Handler.SubmitClaimHandler(ctx, "0xABCDEF", httptransport.SubmitClaimRequest{
		Title: "City water supply tested positive for lead",
		Link:  "https://example.com/report",
	})
	if err != nil {
		t.Fatalf("submit claim: %v", err)
	}
	if resp.Data.Status != string(entities.ClaimStatusVoting) {
		t.Fatalf("expected status voting, got %q", resp.Data.Status)
	}
	if resp.Data.SubmissionFee != 1.00 {
		t.Fatalf("expected submission fee 1.00, got %v", resp.Data.SubmissionFee)
	}

	createdAt, err := time.Parse(time.RFC3339, resp.Data.CreatedAt)
	if err != nil {
		t.Fatalf("parse created_at: %v", err)
	}
	votingEndsAt, err := time.Parse(time.RFC3339, resp.Data.VotingEndsAt)
	if err != nil {
		t.Fatalf("parse voting_ends_at: %v", err)
	}
	if got := votingEndsAt.Sub(createdAt); got != 24*time.Hour {
		t.Fatalf("expected 24h voting window, got %v", got)
	}

	transactions := module.Store.Transactions()
	if len(transactions) != 1 {
		t.Fatalf("expected one fee transaction, got %d", len(transactions))
	}
	fee := transactions[0]
	if fee.Kind != entities.TransactionKindSubmissionFee {
		t.Fatalf("expected submission_fee kind, got %q", fee.Kind)
	}
	if fee.Amount != -1.00 {
		t.Fatalf("expected fee charge of -1.00, got %v", fee.Amount)
	}
	if fee.UserID != resp.Data.SubmittedBy {
		t.Fatalf("fee charged to %q, claim submitted by %q", fee.UserID, resp.Data.SubmittedBy)
	}
}

func TestSubmitClaimCreatesSubmitterOnFirstSighting(t *testing.T) {
	module := NewInMemoryModule(nil)
	ctx := context.Background()

	first, err := module.Handler.SubmitClaimHandler(ctx, "0xWallet1", httptransport.SubmitClaimRequest{
		Title: "First claim",
	})
	if err != nil {
		t.Fatalf("first submit: %v", err)
	}
	second, err := module.Handler.SubmitClaimHandler(ctx, "0xWALLET1", httptransport.SubmitClaimRequest{
		Title: "Second claim",
	})
	if err != nil {
		t.Fatalf("second submit: %v", err)
	}
	if first.Data.SubmittedBy != second.Data.SubmittedBy {
		t.Fatalf("wallet casing produced two users: %q vs %q", first.Data.SubmittedBy, second.Data.SubmittedBy)
	}
	if _, ok := module.Store.User(first.Data.SubmittedBy); !ok {
		t.Fatalf("submitter %q not persisted", first.Data.SubmittedBy)
	}
}

func TestSubmitClaimRejectsMissingTitle(t *testing.T) {
	module := NewInMemoryModule(nil)

	_, err := module.Handler.SubmitClaimHandler(context.Background(), "0xWallet", httptransport.SubmitClaimRequest{
		Title: "   ",
	})
	if !errors.Is(err, domainerrors.ErrInvalidClaimInput) {
		t.Fatalf("expected ErrInvalidClaimInput, got %v", err)
	}
}

func TestSubmitClaimAppendsOutboxEvent(t *testing.T) {
	module := NewInMemoryModule(nil)

	if _, err := module.Handler.SubmitClaimHandler(context.Background(), "0xWallet", httptransport.SubmitClaimRequest{
		Title: "Outbox check",
	}); err != nil {
		t.Fatalf("submit claim: %v", err)
	}

	messages := module.Store.OutboxMessages()
	if len(messages) != 1 {
		t.Fatalf("expected one outbox message, got %d", len(messages))
	}
	if messages[0].EventType != "claim.submitted" {
		t.Fatalf("expected claim.submitted event, got %q", messages[0].EventType)
	}
}

func TestGetClaimNotFound(t *testing.T) {
	module := NewInMemoryModule(nil)

	_, err := module.Handler.GetClaimHandler(context.Background(), "missing")
	if !errors.Is(err, domainerrors.ErrClaimNotFound) {
		t.Fatalf("expected ErrClaimNotFound, got %v", err)
	}
}

func TestListClaimsFiltersByStatus(t *testing.T) {
	module := NewInMemoryModule(nil)
	ctx := context.Background()

	for _, title := range []string{"Claim A", "Claim B"} {
		if _, err := module.Handler.SubmitClaimHandler(ctx, "0xWallet", httptransport.SubmitClaimRequest{
			Title: title,
		}); err != nil {
			t.Fatalf("submit %q: %v", title, err)
		}
	}
	module.Store.SetClaim(entities.Claim{
		ClaimID:      "settled-claim",
		Title:        "Settled claim",
		SubmittedBy:  "user-1",
		CreatedAt:    time.Now().UTC().Add(-48 * time.Hour),
		VotingEndsAt: time.Now().UTC().Add(-24 * time.Hour),
		Status:       entities.ClaimStatusDistributed,
		FinalResult:  entities.VerdictTrue,
	})

	voting, err := module.Handler.ListClaimsHandler(ctx, httptransport.ListClaimsRequest{Status: "voting"})
	if err != nil {
		t.Fatalf("list voting claims: %v", err)
	}
	if len(voting.Data) != 2 {
		t.Fatalf("expected 2 voting claims, got %d", len(voting.Data))
	}

	distributed, err := module.Handler.ListClaimsHandler(ctx, httptransport.ListClaimsRequest{Status: "distributed"})
	if err != nil {
		t.Fatalf("list distributed claims: %v", err)
	}
	if len(distributed.Data) != 1 || distributed.Data[0].ClaimID != "settled-claim" {
		t.Fatalf("expected only settled-claim, got %+v", distributed.Data)
	}
}

func TestListClaimsRejectsUnknownStatus(t *testing.T) {
	module := NewInMemoryModule(nil)

	_, err := module.Handler.ListClaimsHandler(context.Background(), httptransport.ListClaimsRequest{
		Status: "archived",
	})
	if !errors.Is(err, domainerrors.ErrInvalidClaimInput) {
		t.Fatalf("expected ErrInvalidClaimInput, got %v", err)
	}
}

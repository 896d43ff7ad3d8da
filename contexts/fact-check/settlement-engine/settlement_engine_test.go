package settlementengine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"
	"testing"
	"time"

	"validnews/contexts/fact-check/settlement-engine/domain/entities"
	domainerrors "validnews/contexts/fact-check/settlement-engine/domain/errors"
	"validnews/contexts/fact-check/settlement-engine/ports"
	"validnews/internal/shared/events"
	"validnews/internal/shared/outbox"
)

type capturePublisher struct {
	mu        sync.Mutex
	published []events.Envelope
}

func (p *capturePublisher) Publish(_ context.Context, _ string, event events.Envelope) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.published = append(p.published, event)
	return nil
}

func (p *capturePublisher) Published() []events.Envelope {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]events.Envelope(nil), p.published...)
}

// expiredClaim seeds a claim whose voting window ended an hour ago, with the
// given tallies already counted and matching vote rows.
func expiredClaim(module Module, claimID string, trueVoters, falseVoters []string) {
	base := time.Now().UTC().Add(-2 * time.Hour)
	module.Store.SetClaim(ports.Claim{
		ClaimID:       claimID,
		SubmittedBy:   "submitter",
		SubmissionFee: 1.00,
		VotingEndsAt:  time.Now().UTC().Add(-time.Hour),
		Status:        entities.ClaimStatusVoting,
		VotesTrue:     len(trueVoters),
		VotesFalse:    len(falseVoters),
		TotalVotes:    len(trueVoters) + len(falseVoters),
	})
	offset := 0
	for _, userID := range trueVoters {
		module.Store.AddVote(claimID, ports.VoteRecord{
			UserID:    userID,
			Decision:  true,
			CreatedAt: base.Add(time.Duration(offset) * time.Minute),
		})
		offset++
	}
	for _, userID := range falseVoters {
		module.Store.AddVote(claimID, ports.VoteRecord{
			UserID:    userID,
			Decision:  false,
			CreatedAt: base.Add(time.Duration(offset) * time.Minute),
		})
		offset++
	}
}

func TestTallyMajorityTrue(t *testing.T) {
	module := NewInMemoryModule(nil, nil)
	expiredClaim(module, "claim-1", []string{"a", "b", "c"}, []string{"d"})

	resp, err := module.Handler.TallyClaimHandler(context.Background(), "claim-1")
	if err != nil {
		t.Fatalf("tally: %v", err)
	}
	if resp.Data.Verdict != entities.VerdictTrue {
		t.Fatalf("expected verdict true, got %q", resp.Data.Verdict)
	}
	claim, _ := module.Store.Claim("claim-1")
	if claim.Status != entities.ClaimStatusTallied {
		t.Fatalf("expected status tallied, got %q", claim.Status)
	}
}

func TestTallyTieResolvesFalse(t *testing.T) {
	module := NewInMemoryModule(nil, nil)
	expiredClaim(module, "claim-1", []string{"a", "b"}, []string{"c", "d"})

	resp, err := module.Handler.TallyClaimHandler(context.Background(), "claim-1")
	if err != nil {
		t.Fatalf("tally: %v", err)
	}
	if resp.Data.Verdict != entities.VerdictFalse {
		t.Fatalf("expected tie to resolve false, got %q", resp.Data.Verdict)
	}
}

func TestTallyNoVotesResolvesFalse(t *testing.T) {
	module := NewInMemoryModule(nil, nil)
	expiredClaim(module, "claim-1", nil, nil)

	resp, err := module.Handler.TallyClaimHandler(context.Background(), "claim-1")
	if err != nil {
		t.Fatalf("tally: %v", err)
	}
	if resp.Data.Verdict != entities.VerdictFalse {
		t.Fatalf("expected no-vote claim to resolve false, got %q", resp.Data.Verdict)
	}
}

func TestTallyRejectsOpenWindow(t *testing.T) {
	module := NewInMemoryModule(nil, nil)
	module.Store.SetClaim(ports.Claim{
		ClaimID:       "claim-1",
		SubmissionFee: 1.00,
		VotingEndsAt:  time.Now().UTC().Add(time.Hour),
		Status:        entities.ClaimStatusVoting,
	})

	_, err := module.Handler.TallyClaimHandler(context.Background(), "claim-1")
	if !errors.Is(err, domainerrors.ErrVotingStillOpen) {
		t.Fatalf("expected ErrVotingStillOpen, got %v", err)
	}
}

func TestTallyTwiceRejected(t *testing.T) {
	module := NewInMemoryModule(nil, nil)
	expiredClaim(module, "claim-1", []string{"a"}, nil)
	ctx := context.Background()

	if _, err := module.Handler.TallyClaimHandler(ctx, "claim-1"); err != nil {
		t.Fatalf("first tally: %v", err)
	}
	_, err := module.Handler.TallyClaimHandler(ctx, "claim-1")
	if !errors.Is(err, domainerrors.ErrAlreadyTallied) {
		t.Fatalf("expected ErrAlreadyTallied, got %v", err)
	}
}

func TestDistributeSplitsFeeAndAdjustsReputation(t *testing.T) {
	module := NewInMemoryModule(nil, nil)
	expiredClaim(module, "claim-1", []string{"alice", "bob", "carol"}, []string{"dave", "erin"})
	module.Store.SetAccount(ports.Account{UserID: "alice", WalletAddress: "0xalice", ReputationPoints: 10})
	module.Store.SetAccount(ports.Account{UserID: "bob", WalletAddress: "0xbob"})
	module.Store.SetAccount(ports.Account{UserID: "carol", WalletAddress: "0xcarol"})
	module.Store.SetAccount(ports.Account{UserID: "dave", WalletAddress: "0xdave", ReputationPoints: 8})
	module.Store.SetAccount(ports.Account{UserID: "erin", WalletAddress: "0xerin", ReputationPoints: 3})
	ctx := context.Background()

	if _, err := module.Handler.TallyClaimHandler(ctx, "claim-1"); err != nil {
		t.Fatalf("tally: %v", err)
	}
	resp, err := module.Handler.DistributeHandler(ctx, "claim-1")
	if err != nil {
		t.Fatalf("distribute: %v", err)
	}

	if resp.Data.PoolAmount != 0.60 {
		t.Fatalf("expected pool 0.60, got %v", resp.Data.PoolAmount)
	}
	if resp.Data.PlatformFee != 0.40 {
		t.Fatalf("expected platform fee 0.40, got %v", resp.Data.PlatformFee)
	}
	if len(resp.Data.Rewards) != 3 {
		t.Fatalf("expected 3 rewards, got %d", len(resp.Data.Rewards))
	}
	for _, reward := range resp.Data.Rewards {
		if reward.Amount != 0.20 {
			t.Fatalf("expected 0.20 per voter, %q got %v", reward.UserID, reward.Amount)
		}
	}

	// Rewards plus platform fee must equal the fee to the cent.
	total := resp.Data.PlatformFee
	for _, reward := range resp.Data.Rewards {
		total += reward.Amount
	}
	if math.Abs(total-1.00) > 1e-9 {
		t.Fatalf("payouts sum to %v, want 1.00", total)
	}

	alice, _ := module.Store.Account("alice")
	if alice.ReputationPoints != 12 {
		t.Fatalf("alice reputation: got %d, want 12", alice.ReputationPoints)
	}
	if alice.Earnings != 0.20 {
		t.Fatalf("alice earnings: got %v, want 0.20", alice.Earnings)
	}
	dave, _ := module.Store.Account("dave")
	if dave.ReputationPoints != 7 {
		t.Fatalf("dave reputation: got %d, want 7", dave.ReputationPoints)
	}
	// Erin sits below the penalty floor of 5 and keeps her points.
	erin, _ := module.Store.Account("erin")
	if erin.ReputationPoints != 3 {
		t.Fatalf("erin reputation: got %d, want 3 (below floor, no penalty)", erin.ReputationPoints)
	}

	platform, ok := module.Store.AccountByWallet("platform")
	if !ok {
		t.Fatal("platform account not created")
	}
	if platform.Earnings != 0.40 {
		t.Fatalf("platform earnings: got %v, want 0.40", platform.Earnings)
	}

	claim, _ := module.Store.Claim("claim-1")
	if claim.Status != entities.ClaimStatusDistributed {
		t.Fatalf("expected status distributed, got %q", claim.Status)
	}
}

func TestDistributeRemainderCentsGoToEarliestVoters(t *testing.T) {
	module := NewInMemoryModule(nil, nil)
	voters := make([]string, 7)
	for i := range voters {
		voters[i] = fmt.Sprintf("voter-%d", i)
	}
	expiredClaim(module, "claim-1", voters, nil)
	ctx := context.Background()

	if _, err := module.Handler.TallyClaimHandler(ctx, "claim-1"); err != nil {
		t.Fatalf("tally: %v", err)
	}
	resp, err := module.Handler.DistributeHandler(ctx, "claim-1")
	if err != nil {
		t.Fatalf("distribute: %v", err)
	}

	// 60 cents over 7 voters: 8 cents each plus one extra cent for the
	// first four voters.
	if len(resp.Data.Rewards) != 7 {
		t.Fatalf("expected 7 rewards, got %d", len(resp.Data.Rewards))
	}
	var totalCents int64
	for i, reward := range resp.Data.Rewards {
		cents := int64(math.Round(reward.Amount * 100))
		totalCents += cents
		want := int64(8)
		if i < 4 {
			want = 9
		}
		if cents != want {
			t.Fatalf("reward %d: got %d cents, want %d", i, cents, want)
		}
	}
	if totalCents != 60 {
		t.Fatalf("pool cents: got %d, want 60", totalCents)
	}
}

func TestDistributeNoCorrectVotersSendsFeeToPlatform(t *testing.T) {
	module := NewInMemoryModule(nil, nil)
	// Both voters voted true but the tallies say false wins, so the verdict
	// is false and neither voter is correct.
	module.Store.SetClaim(ports.Claim{
		ClaimID:       "claim-1",
		SubmissionFee: 1.00,
		VotingEndsAt:  time.Now().UTC().Add(-time.Hour),
		Status:        entities.ClaimStatusTallied,
		FinalResult:   entities.VerdictFalse,
		VotesTrue:     2,
		TotalVotes:    2,
	})
	module.Store.AddVote("claim-1", ports.VoteRecord{UserID: "a", Decision: true, CreatedAt: time.Now().UTC().Add(-90 * time.Minute)})
	module.Store.AddVote("claim-1", ports.VoteRecord{UserID: "b", Decision: true, CreatedAt: time.Now().UTC().Add(-85 * time.Minute)})

	resp, err := module.Handler.DistributeHandler(context.Background(), "claim-1")
	if err != nil {
		t.Fatalf("distribute: %v", err)
	}
	if len(resp.Data.Rewards) != 0 {
		t.Fatalf("expected no rewards, got %d", len(resp.Data.Rewards))
	}
	if resp.Data.PlatformFee != 1.00 {
		t.Fatalf("expected whole fee 1.00 to platform, got %v", resp.Data.PlatformFee)
	}

	platform, ok := module.Store.AccountByWallet("platform")
	if !ok {
		t.Fatal("platform account not created")
	}
	if platform.Earnings != 1.00 {
		t.Fatalf("platform earnings: got %v, want 1.00", platform.Earnings)
	}
}

func TestDistributeBeforeTallyRejected(t *testing.T) {
	module := NewInMemoryModule(nil, nil)
	expiredClaim(module, "claim-1", []string{"a"}, nil)

	_, err := module.Handler.DistributeHandler(context.Background(), "claim-1")
	if !errors.Is(err, domainerrors.ErrNotTallied) {
		t.Fatalf("expected ErrNotTallied, got %v", err)
	}
}

func TestDistributeTwiceRejected(t *testing.T) {
	module := NewInMemoryModule(nil, nil)
	expiredClaim(module, "claim-1", []string{"a"}, nil)
	ctx := context.Background()

	if _, err := module.Handler.TallyClaimHandler(ctx, "claim-1"); err != nil {
		t.Fatalf("tally: %v", err)
	}
	if _, err := module.Handler.DistributeHandler(ctx, "claim-1"); err != nil {
		t.Fatalf("first distribute: %v", err)
	}
	_, err := module.Handler.DistributeHandler(ctx, "claim-1")
	if !errors.Is(err, domainerrors.ErrAlreadyDistributed) {
		t.Fatalf("expected ErrAlreadyDistributed, got %v", err)
	}

	entries := module.Store.LedgerEntries()
	rewardCount := 0
	for _, entry := range entries {
		if entry.Kind == ports.LedgerKindVoteReward {
			rewardCount++
		}
	}
	if rewardCount != 1 {
		t.Fatalf("double distribution wrote %d reward entries, want 1", rewardCount)
	}
}

func TestSettleIsIdempotent(t *testing.T) {
	module := NewInMemoryModule(nil, nil)
	expiredClaim(module, "claim-1", []string{"a", "b"}, []string{"c"})
	ctx := context.Background()

	first, err := module.Handler.SettleHandler(ctx, "claim-1")
	if err != nil {
		t.Fatalf("first settle: %v", err)
	}
	if !first.Data.Tallied || !first.Data.Distributed {
		t.Fatalf("first settle should tally and distribute: %+v", first.Data)
	}
	if first.Data.Verdict != entities.VerdictTrue {
		t.Fatalf("expected verdict true, got %q", first.Data.Verdict)
	}

	second, err := module.Handler.SettleHandler(ctx, "claim-1")
	if err != nil {
		t.Fatalf("second settle: %v", err)
	}
	if second.Data.Tallied || second.Data.Distributed {
		t.Fatalf("second settle repeated work: %+v", second.Data)
	}
	if !second.Data.AlreadySettled {
		t.Fatalf("second settle should report already settled: %+v", second.Data)
	}
}

func TestSweepSettlesExpiredClaimsOnly(t *testing.T) {
	module := NewInMemoryModule(nil, nil)
	expiredClaim(module, "expired-1", []string{"a", "b"}, []string{"c"})
	expiredClaim(module, "expired-2", nil, nil)
	module.Store.SetClaim(ports.Claim{
		ClaimID:       "open-1",
		SubmissionFee: 1.00,
		VotingEndsAt:  time.Now().UTC().Add(time.Hour),
		Status:        entities.ClaimStatusVoting,
	})

	settled, err := module.Sweep.RunOnce(context.Background())
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if settled != 2 {
		t.Fatalf("expected 2 settled claims, got %d", settled)
	}

	for _, claimID := range []string{"expired-1", "expired-2"} {
		claim, _ := module.Store.Claim(claimID)
		if claim.Status != entities.ClaimStatusDistributed {
			t.Fatalf("%s: expected distributed, got %q", claimID, claim.Status)
		}
	}
	open, _ := module.Store.Claim("open-1")
	if open.Status != entities.ClaimStatusVoting {
		t.Fatalf("open claim touched by sweep: %q", open.Status)
	}
}

func TestSweepIsIdempotentAcrossRuns(t *testing.T) {
	module := NewInMemoryModule(nil, nil)
	expiredClaim(module, "claim-1", []string{"a"}, nil)
	ctx := context.Background()

	if _, err := module.Sweep.RunOnce(ctx); err != nil {
		t.Fatalf("first sweep: %v", err)
	}
	settled, err := module.Sweep.RunOnce(ctx)
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if settled != 0 {
		t.Fatalf("second sweep settled %d claims, want 0", settled)
	}
}

func TestOutboxRelayPublishesAndMarks(t *testing.T) {
	publisher := &capturePublisher{}
	module := NewInMemoryModule(nil, publisher)
	expiredClaim(module, "claim-1", []string{"a"}, nil)
	ctx := context.Background()

	if _, err := module.Handler.SettleHandler(ctx, "claim-1"); err != nil {
		t.Fatalf("settle: %v", err)
	}

	published, err := module.Relay.RunOnce(ctx)
	if err != nil {
		t.Fatalf("relay: %v", err)
	}
	if published != 2 {
		t.Fatalf("expected 2 relayed events (tallied, distributed), got %d", published)
	}

	types := make(map[string]bool)
	for _, event := range publisher.Published() {
		types[event.EventType] = true
	}
	if !types["claim.tallied"] || !types["claim.distributed"] {
		t.Fatalf("missing event types, got %v", types)
	}

	for _, message := range module.Store.OutboxMessages() {
		if message.Status != outbox.StatusPublished {
			t.Fatalf("outbox message %s still %q", message.OutboxID, message.Status)
		}
	}

	again, err := module.Relay.RunOnce(ctx)
	if err != nil {
		t.Fatalf("second relay: %v", err)
	}
	if again != 0 {
		t.Fatalf("second relay republished %d events", again)
	}
}

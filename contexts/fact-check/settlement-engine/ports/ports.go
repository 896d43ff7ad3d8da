package ports

import (
	"context"
	"time"

	"validnews/internal/shared/events"
	"validnews/internal/shared/outbox"
)

// Claim is the settlement view of a claim row.
type Claim struct {
	ClaimID       string
	SubmittedBy   string
	SubmissionFee float64
	VotingEndsAt  time.Time
	Status        string
	FinalResult   string
	VotesTrue     int
	VotesFalse    int
	TotalVotes    int
}

// VoteRecord is a vote as read back during distribution, ordered by cast
// time so remainder cents land deterministically.
type VoteRecord struct {
	UserID    string
	Decision  bool
	CreatedAt time.Time
}

// Account is the settlement view of a user row.
type Account struct {
	UserID           string
	WalletAddress    string
	ReputationPoints int
	Earnings         float64
	CreatedAt        time.Time
}

// LedgerEntry is one transaction row the distribution writes.
type LedgerEntry struct {
	TxID    string
	UserID  string
	ClaimID string
	Amount  float64
	Kind    string
}

// ReputationChange adjusts one user's reputation. For penalties MinCurrent is
// the floor rule: the delta applies only while the user's current points are
// at least MinCurrent, so reputation never goes below zero through penalties.
type ReputationChange struct {
	UserID     string
	Delta      int
	MinCurrent int
}

// EarningsCredit adds a reward to a user's cumulative earnings counter.
type EarningsCredit struct {
	UserID string
	Amount float64
}

// DistributionPlan is the full write set of one distribution. Repositories
// apply it atomically, keyed on the claim still being in the tallied state;
// a lost race surfaces as ErrSettlementConflict and writes nothing.
type DistributionPlan struct {
	ClaimID       string
	Ledger        []LedgerEntry
	Earnings      []EarningsCredit
	Reputation    []ReputationChange
	DistributedAt time.Time
}

// Transaction kinds written by settlement.
const (
	LedgerKindVoteReward = "vote_reward"
	LedgerKindAdminFee   = "admin_fee"
)

type SettlementRepository interface {
	GetClaim(ctx context.Context, claimID string) (Claim, error)
	// MarkTallied transitions the claim from voting to tallied and stamps the
	// verdict, conditional on the claim still being in the voting state.
	// A lost race returns ErrSettlementConflict.
	MarkTallied(ctx context.Context, claimID string, verdict string, talliedAt time.Time) error
	ListVotes(ctx context.Context, claimID string) ([]VoteRecord, error)
	GetAccountByWallet(ctx context.Context, walletAddress string) (Account, bool, error)
	CreateAccount(ctx context.Context, account Account) error
	ApplyDistribution(ctx context.Context, plan DistributionPlan) error
	// ListSettleableClaims returns claims the sweep should touch: voting
	// claims whose window elapsed by asOf, plus tallied claims awaiting
	// distribution.
	ListSettleableClaims(ctx context.Context, asOf time.Time, limit int) ([]Claim, error)
}

type OutboxRepository interface {
	AppendOutbox(ctx context.Context, event events.Envelope) error
	ListPendingOutbox(ctx context.Context, limit int) ([]outbox.Message, error)
	MarkOutboxPublished(ctx context.Context, outboxIDs []string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event events.Envelope) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

package ports

import (
	"context"
	"time"

	"validnews/contexts/fact-check/voting-engine/domain/entities"
	"validnews/internal/shared/events"
)

// ClaimProjection is the slice of claim state the vote recorder needs. The
// claim service owns the full record; this module only reads the lifecycle
// fields and the running tallies it increments.
type ClaimProjection struct {
	ClaimID      string
	Status       string
	VotingEndsAt time.Time
	VotesTrue    int
	VotesFalse   int
	TotalVotes   int
}

// Voter is the minimal user projection needed to resolve a wallet address to
// a user id.
type Voter struct {
	UserID        string
	WalletAddress string
	CreatedAt     time.Time
}

type VoteRepository interface {
	GetClaim(ctx context.Context, claimID string) (ClaimProjection, error)
	// RecordVote inserts the vote and bumps the claim tallies as a single
	// atomic unit, conditional on the claim still accepting votes and its
	// total vote count matching expectedTotal. Implementations return
	// ErrAlreadyVoted when the (claim, user) pair already voted and
	// ErrVoteConflict when the conditional tally update loses to a
	// concurrent writer.
	RecordVote(ctx context.Context, vote entities.Vote, expectedTotal int) error
	GetVoteByVoter(ctx context.Context, claimID string, userID string) (entities.Vote, bool, error)
	ListVotesByClaim(ctx context.Context, claimID string) ([]entities.Vote, error)
}

type VoterDirectory interface {
	GetVoterByWallet(ctx context.Context, walletAddress string) (Voter, bool, error)
	CreateVoter(ctx context.Context, voter Voter) error
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, event events.Envelope) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

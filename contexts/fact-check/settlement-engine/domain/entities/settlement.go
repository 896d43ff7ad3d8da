package entities

import "time"

// Claim lifecycle states as the settlement engine sees them.
const (
	ClaimStatusVoting      = "voting"
	ClaimStatusTallied     = "tallied"
	ClaimStatusDistributed = "distributed"
)

// Verdict values stored on a settled claim.
const (
	VerdictTrue  = "true"
	VerdictFalse = "false"
)

// TallyResult is the frozen outcome of the tally step.
type TallyResult struct {
	ClaimID    string
	Verdict    string
	VotesTrue  int
	VotesFalse int
	TotalVotes int
	TalliedAt  time.Time
}

// VoterReward is one correct voter's share of the reward pool. Shares are
// computed in cents; when the pool does not divide evenly the leftover cents
// go to the earliest voters, so amounts can differ by one cent.
type VoterReward struct {
	UserID string
	Amount float64
}

// DistributionReport summarizes a completed distribution.
type DistributionReport struct {
	ClaimID         string
	Verdict         string
	SubmissionFee   float64
	PoolAmount      float64
	PlatformFee     float64
	Rewards         []VoterReward
	IncorrectVoters []string
	DistributedAt   time.Time
}

// SettlementOutcome reports what an idempotent settle call actually did.
type SettlementOutcome struct {
	ClaimID        string
	Verdict        string
	Tallied        bool
	Distributed    bool
	AlreadySettled bool
	Report         DistributionReport
}

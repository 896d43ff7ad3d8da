package entities

import "time"

type ClaimStatus string

const (
	ClaimStatusVoting      ClaimStatus = "voting"
	ClaimStatusTallied     ClaimStatus = "tallied"
	ClaimStatusDistributed ClaimStatus = "distributed"
)

// Verdict is the binary outcome assigned to a claim after tallying. The empty
// value means the claim has not been tallied yet.
type Verdict string

const (
	VerdictTrue  Verdict = "true"
	VerdictFalse Verdict = "false"
	VerdictNone  Verdict = ""
)

type Claim struct {
	ClaimID       string
	Title         string
	Link          string
	SubmittedBy   string
	SubmissionFee float64
	CreatedAt     time.Time
	VotingEndsAt  time.Time
	Status        ClaimStatus
	FinalResult   Verdict
	VotesTrue     int
	VotesFalse    int
	TotalVotes    int
}

// VotingOpen reports whether the claim still accepts votes at the given time.
func (c Claim) VotingOpen(now time.Time) bool {
	return c.Status == ClaimStatusVoting && !now.After(c.VotingEndsAt)
}

type User struct {
	UserID           string
	WalletAddress    string
	ReputationPoints int
	Earnings         float64
	IsAdmin          bool
	CreatedAt        time.Time
}

type TransactionKind string

const (
	TransactionKindSubmissionFee TransactionKind = "submission_fee"
	TransactionKindVoteReward    TransactionKind = "vote_reward"
	TransactionKindAdminFee      TransactionKind = "admin_fee"
)

// Transaction is an append-only ledger entry. Amounts are signed dollars:
// submission fees are negative, rewards and platform fees positive.
type Transaction struct {
	TxID      string
	UserID    string
	ClaimID   string
	Amount    float64
	Kind      TransactionKind
	CreatedAt time.Time
}

package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type RecordVoteRequest struct {
	// Decision is required; a pointer distinguishes a missing field from an
	// explicit false vote.
	Decision *bool `json:"decision"`
}

type VoteDTO struct {
	VoteID    string `json:"vote_id"`
	ClaimID   string `json:"claim_id"`
	UserID    string `json:"user_id"`
	Decision  bool   `json:"decision"`
	CreatedAt string `json:"created_at"`
}

type RecordVoteResponse struct {
	Status string  `json:"status"`
	Data   VoteDTO `json:"data"`
}

type GetUserVoteResponse struct {
	Status string  `json:"status"`
	Data   VoteDTO `json:"data"`
}

type TallyDTO struct {
	ClaimID      string `json:"claim_id"`
	ClaimStatus  string `json:"claim_status"`
	VotingEndsAt string `json:"voting_ends_at"`
	VotesTrue    int    `json:"votes_true"`
	VotesFalse   int    `json:"votes_false"`
	TotalVotes   int    `json:"total_votes"`
}

type ListClaimVotesResponse struct {
	Status string    `json:"status"`
	Tally  TallyDTO  `json:"tally"`
	Data   []VoteDTO `json:"data"`
}

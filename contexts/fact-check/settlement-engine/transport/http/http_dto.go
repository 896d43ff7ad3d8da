package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type TallyDTO struct {
	ClaimID    string `json:"claim_id"`
	Verdict    string `json:"verdict"`
	VotesTrue  int    `json:"votes_true"`
	VotesFalse int    `json:"votes_false"`
	TotalVotes int    `json:"total_votes"`
	TalliedAt  string `json:"tallied_at"`
}

type TallyClaimResponse struct {
	Status string   `json:"status"`
	Data   TallyDTO `json:"data"`
}

type VoterRewardDTO struct {
	UserID string  `json:"user_id"`
	Amount float64 `json:"amount"`
}

type DistributionDTO struct {
	ClaimID         string           `json:"claim_id"`
	Verdict         string           `json:"verdict"`
	SubmissionFee   float64          `json:"submission_fee"`
	PoolAmount      float64          `json:"pool_amount"`
	PlatformFee     float64          `json:"platform_fee"`
	Rewards         []VoterRewardDTO `json:"rewards"`
	IncorrectVoters []string         `json:"incorrect_voters"`
	DistributedAt   string           `json:"distributed_at"`
}

type DistributeResponse struct {
	Status string          `json:"status"`
	Data   DistributionDTO `json:"data"`
}

type SettlementDTO struct {
	ClaimID        string           `json:"claim_id"`
	Verdict        string           `json:"verdict,omitempty"`
	Tallied        bool             `json:"tallied"`
	Distributed    bool             `json:"distributed"`
	AlreadySettled bool             `json:"already_settled"`
	Report         *DistributionDTO `json:"report,omitempty"`
}

type SettleResponse struct {
	Status string        `json:"status"`
	Data   SettlementDTO `json:"data"`
}

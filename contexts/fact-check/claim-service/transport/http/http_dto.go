package http

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type SubmitClaimRequest struct {
	Title string `json:"title"`
	Link  string `json:"link,omitempty"`
}

type ClaimDTO struct {
	ClaimID       string  `json:"claim_id"`
	Title         string  `json:"title"`
	Link          string  `json:"link,omitempty"`
	SubmittedBy   string  `json:"submitted_by"`
	SubmissionFee float64 `json:"submission_fee"`
	CreatedAt     string  `json:"created_at"`
	VotingEndsAt  string  `json:"voting_ends_at"`
	Status        string  `json:"status"`
	FinalResult   string  `json:"final_result,omitempty"`
	VotesTrue     int     `json:"votes_true"`
	VotesFalse    int     `json:"votes_false"`
	TotalVotes    int     `json:"total_votes"`
}

type SubmitClaimResponse struct {
	Status string   `json:"status"`
	Data   ClaimDTO `json:"data"`
}

type GetClaimResponse struct {
	Status string   `json:"status"`
	Data   ClaimDTO `json:"data"`
}

type ListClaimsRequest struct {
	Status string
	Limit  int
}

type ListClaimsResponse struct {
	Status string     `json:"status"`
	Data   []ClaimDTO `json:"data"`
}

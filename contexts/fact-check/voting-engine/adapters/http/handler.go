package httpadapter

import (
	"context"
	"log/slog"
	"time"

	application "validnews/contexts/fact-check/voting-engine/application"
	"validnews/contexts/fact-check/voting-engine/application/commands"
	"validnews/contexts/fact-check/voting-engine/application/queries"
	"validnews/contexts/fact-check/voting-engine/domain/entities"
	domainerrors "validnews/contexts/fact-check/voting-engine/domain/errors"
	httptransport "validnews/contexts/fact-check/voting-engine/transport/http"
)

type Handler struct {
	Record      commands.RecordVoteUseCase
	ListVotes   queries.ListClaimVotesUseCase
	GetTally    queries.GetTallyUseCase
	GetUserVote queries.GetUserVoteUseCase
	Logger      *slog.Logger
}

// RecordVoteHandler godoc
// @Summary Cast a true/false vote on a claim
// @Description Rejects revotes, votes after the window closes, and votes past the per-claim cap.
// @Tags voting-engine
// @Accept json
// @Produce json
// @Param X-Wallet-Address header string true "Voter wallet address"
// @Param claim_id path string true "Claim id"
// @Param request body httptransport.RecordVoteRequest true "Vote payload"
// @Success 201 {object} httptransport.RecordVoteResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /v1/claims/{claim_id}/votes [post]
func (h Handler) RecordVoteHandler(
	ctx context.Context,
	walletAddress string,
	claimID string,
	req httptransport.RecordVoteRequest,
) (httptransport.RecordVoteResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	logger.Info("record vote request received",
		"event", "http_record_vote_received",
		"module", "fact-check/voting-engine",
		"layer", "transport",
		"claim_id", claimID,
	)
	if req.Decision == nil {
		return httptransport.RecordVoteResponse{}, domainerrors.ErrInvalidVoteInput
	}
	vote, err := h.Record.RecordVote(ctx, commands.RecordVoteCommand{
		ClaimID:       claimID,
		WalletAddress: walletAddress,
		Decision:      *req.Decision,
	})
	if err != nil {
		return httptransport.RecordVoteResponse{}, err
	}
	return httptransport.RecordVoteResponse{
		Status: "success",
		Data:   toVoteDTO(vote),
	}, nil
}

// ListClaimVotesHandler godoc
// @Summary List votes on a claim with its running tally
// @Tags voting-engine
// @Produce json
// @Param claim_id path string true "Claim id"
// @Success 200 {object} httptransport.ListClaimVotesResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /v1/claims/{claim_id}/votes [get]
func (h Handler) ListClaimVotesHandler(ctx context.Context, claimID string) (httptransport.ListClaimVotesResponse, error) {
	tally, err := h.GetTally.Execute(ctx, claimID)
	if err != nil {
		return httptransport.ListClaimVotesResponse{}, err
	}
	votes, err := h.ListVotes.Execute(ctx, claimID)
	if err != nil {
		return httptransport.ListClaimVotesResponse{}, err
	}
	resp := httptransport.ListClaimVotesResponse{
		Status: "success",
		Tally: httptransport.TallyDTO{
			ClaimID:      tally.ClaimID,
			ClaimStatus:  tally.Status,
			VotingEndsAt: tally.VotingEndsAt.UTC().Format(time.RFC3339),
			VotesTrue:    tally.VotesTrue,
			VotesFalse:   tally.VotesFalse,
			TotalVotes:   tally.TotalVotes,
		},
		Data: make([]httptransport.VoteDTO, 0, len(votes)),
	}
	for _, vote := range votes {
		resp.Data = append(resp.Data, toVoteDTO(vote))
	}
	return resp, nil
}

// GetUserVoteHandler godoc
// @Summary Get the caller's vote on a claim
// @Tags voting-engine
// @Produce json
// @Param X-Wallet-Address header string true "Voter wallet address"
// @Param claim_id path string true "Claim id"
// @Success 200 {object} httptransport.GetUserVoteResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /v1/claims/{claim_id}/votes/me [get]
func (h Handler) GetUserVoteHandler(
	ctx context.Context,
	walletAddress string,
	claimID string,
) (httptransport.GetUserVoteResponse, error) {
	vote, err := h.GetUserVote.Execute(ctx, claimID, walletAddress)
	if err != nil {
		return httptransport.GetUserVoteResponse{}, err
	}
	return httptransport.GetUserVoteResponse{
		Status: "success",
		Data:   toVoteDTO(vote),
	}, nil
}

func toVoteDTO(vote entities.Vote) httptransport.VoteDTO {
	return httptransport.VoteDTO{
		VoteID:    vote.VoteID,
		ClaimID:   vote.ClaimID,
		UserID:    vote.UserID,
		Decision:  vote.Decision,
		CreatedAt: vote.CreatedAt.UTC().Format(time.RFC3339),
	}
}

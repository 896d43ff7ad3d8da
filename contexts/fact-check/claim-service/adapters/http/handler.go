package httpadapter

import (
	"context"
	"log/slog"
	"time"

	application "validnews/contexts/fact-check/claim-service/application"
	"validnews/contexts/fact-check/claim-service/application/commands"
	"validnews/contexts/fact-check/claim-service/application/queries"
	"validnews/contexts/fact-check/claim-service/domain/entities"
	httptransport "validnews/contexts/fact-check/claim-service/transport/http"
)

type Handler struct {
	Submit     commands.SubmitClaimUseCase
	GetClaim   queries.GetClaimUseCase
	ListClaims queries.ListClaimsUseCase
	Logger     *slog.Logger
}

// SubmitClaimHandler godoc
// @Summary Submit a claim for community fact-checking
// @Description Charges the fixed submission fee to the caller's wallet account and opens a 24h voting window.
// @Tags claim-service
// @Accept json
// @Produce json
// @Param X-Wallet-Address header string true "Submitter wallet address"
// @Param request body httptransport.SubmitClaimRequest true "Claim payload"
// @Success 201 {object} httptransport.SubmitClaimResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 500 {object} httptransport.ErrorResponse
// @Router /v1/claims [post]
func (h Handler) SubmitClaimHandler(
	ctx context.Context,
	walletAddress string,
	req httptransport.SubmitClaimRequest,
) (httptransport.SubmitClaimResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	logger.Info("submit claim request received",
		"event", "http_submit_claim_received",
		"module", "fact-check/claim-service",
		"layer", "transport",
	)
	claim, err := h.Submit.SubmitClaim(ctx, commands.SubmitClaimCommand{
		WalletAddress: walletAddress,
		Title:         req.Title,
		Link:          req.Link,
	})
	if err != nil {
		return httptransport.SubmitClaimResponse{}, err
	}
	return httptransport.SubmitClaimResponse{
		Status: "success",
		Data:   toClaimDTO(claim),
	}, nil
}

// GetClaimHandler godoc
// @Summary Get a claim
// @Tags claim-service
// @Produce json
// @Param claim_id path string true "Claim id"
// @Success 200 {object} httptransport.GetClaimResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /v1/claims/{claim_id} [get]
func (h Handler) GetClaimHandler(ctx context.Context, claimID string) (httptransport.GetClaimResponse, error) {
	claim, err := h.GetClaim.Execute(ctx, claimID)
	if err != nil {
		return httptransport.GetClaimResponse{}, err
	}
	return httptransport.GetClaimResponse{
		Status: "success",
		Data:   toClaimDTO(claim),
	}, nil
}

// ListClaimsHandler godoc
// @Summary List claims
// @Description Returns claims newest first, optionally filtered by lifecycle status.
// @Tags claim-service
// @Produce json
// @Param status query string false "Lifecycle status: voting, tallied, distributed"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {object} httptransport.ListClaimsResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Router /v1/claims [get]
func (h Handler) ListClaimsHandler(
	ctx context.Context,
	req httptransport.ListClaimsRequest,
) (httptransport.ListClaimsResponse, error) {
	items, err := h.ListClaims.Execute(ctx, queries.ListClaimsQuery{
		Status: req.Status,
		Limit:  req.Limit,
	})
	if err != nil {
		return httptransport.ListClaimsResponse{}, err
	}
	resp := httptransport.ListClaimsResponse{
		Status: "success",
		Data:   make([]httptransport.ClaimDTO, 0, len(items)),
	}
	for _, item := range items {
		resp.Data = append(resp.Data, toClaimDTO(item))
	}
	return resp, nil
}

func toClaimDTO(claim entities.Claim) httptransport.ClaimDTO {
	return httptransport.ClaimDTO{
		ClaimID:       claim.ClaimID,
		Title:         claim.Title,
		Link:          claim.Link,
		SubmittedBy:   claim.SubmittedBy,
		SubmissionFee: claim.SubmissionFee,
		CreatedAt:     claim.CreatedAt.UTC().Format(time.RFC3339),
		VotingEndsAt:  claim.VotingEndsAt.UTC().Format(time.RFC3339),
		Status:        string(claim.Status),
		FinalResult:   string(claim.FinalResult),
		VotesTrue:     claim.VotesTrue,
		VotesFalse:    claim.VotesFalse,
		TotalVotes:    claim.TotalVotes,
	}
}

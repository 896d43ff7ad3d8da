package httpadapter

import (
	"context"
	"log/slog"
	"time"

	application "validnews/contexts/fact-check/settlement-engine/application"
	"validnews/contexts/fact-check/settlement-engine/application/commands"
	"validnews/contexts/fact-check/settlement-engine/domain/entities"
	httptransport "validnews/contexts/fact-check/settlement-engine/transport/http"
)

type Handler struct {
	Tally      commands.TallyClaimUseCase
	Distribute commands.DistributeRewardsUseCase
	Settle     commands.SettleClaimUseCase
	Logger     *slog.Logger
}

// TallyClaimHandler godoc
// @Summary Tally a claim whose voting window has ended
// @Description Freezes the verdict from the recorded vote counts. Ties and claims with no votes resolve to false.
// @Tags settlement-engine
// @Produce json
// @Param claim_id path string true "Claim id"
// @Success 200 {object} httptransport.TallyClaimResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /v1/claims/{claim_id}/tally [post]
func (h Handler) TallyClaimHandler(ctx context.Context, claimID string) (httptransport.TallyClaimResponse, error) {
	result, err := h.Tally.TallyClaim(ctx, claimID)
	if err != nil {
		return httptransport.TallyClaimResponse{}, err
	}
	return httptransport.TallyClaimResponse{
		Status: "success",
		Data: httptransport.TallyDTO{
			ClaimID:    result.ClaimID,
			Verdict:    result.Verdict,
			VotesTrue:  result.VotesTrue,
			VotesFalse: result.VotesFalse,
			TotalVotes: result.TotalVotes,
			TalliedAt:  result.TalliedAt.UTC().Format(time.RFC3339),
		},
	}, nil
}

// DistributeHandler godoc
// @Summary Distribute rewards for a tallied claim
// @Description Splits the submission fee between correct voters and the platform account and applies reputation changes.
// @Tags settlement-engine
// @Produce json
// @Param claim_id path string true "Claim id"
// @Success 200 {object} httptransport.DistributeResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /v1/claims/{claim_id}/distribute [post]
func (h Handler) DistributeHandler(ctx context.Context, claimID string) (httptransport.DistributeResponse, error) {
	report, err := h.Distribute.Distribute(ctx, claimID)
	if err != nil {
		return httptransport.DistributeResponse{}, err
	}
	return httptransport.DistributeResponse{
		Status: "success",
		Data:   toDistributionDTO(report),
	}, nil
}

// SettleHandler godoc
// @Summary Settle a claim end to end
// @Description Tallies then distributes in one idempotent call; an already settled claim reports already_settled instead of failing.
// @Tags settlement-engine
// @Produce json
// @Param claim_id path string true "Claim id"
// @Success 200 {object} httptransport.SettleResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /v1/claims/{claim_id}/settle [post]
func (h Handler) SettleHandler(ctx context.Context, claimID string) (httptransport.SettleResponse, error) {
	logger := application.ResolveLogger(h.Logger)
	logger.Info("settle request received",
		"event", "http_settle_received",
		"module", "fact-check/settlement-engine",
		"layer", "transport",
		"claim_id", claimID,
	)
	outcome, err := h.Settle.Settle(ctx, claimID)
	if err != nil {
		return httptransport.SettleResponse{}, err
	}
	data := httptransport.SettlementDTO{
		ClaimID:        outcome.ClaimID,
		Verdict:        outcome.Verdict,
		Tallied:        outcome.Tallied,
		Distributed:    outcome.Distributed,
		AlreadySettled: outcome.AlreadySettled,
	}
	if outcome.Distributed {
		report := toDistributionDTO(outcome.Report)
		data.Report = &report
	}
	return httptransport.SettleResponse{
		Status: "success",
		Data:   data,
	}, nil
}

func toDistributionDTO(report entities.DistributionReport) httptransport.DistributionDTO {
	dto := httptransport.DistributionDTO{
		ClaimID:         report.ClaimID,
		Verdict:         report.Verdict,
		SubmissionFee:   report.SubmissionFee,
		PoolAmount:      report.PoolAmount,
		PlatformFee:     report.PlatformFee,
		Rewards:         make([]httptransport.VoterRewardDTO, 0, len(report.Rewards)),
		IncorrectVoters: report.IncorrectVoters,
		DistributedAt:   report.DistributedAt.UTC().Format(time.RFC3339),
	}
	for _, reward := range report.Rewards {
		dto.Rewards = append(dto.Rewards, httptransport.VoterRewardDTO{
			UserID: reward.UserID,
			Amount: reward.Amount,
		})
	}
	return dto
}

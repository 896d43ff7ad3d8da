package commands

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	application "validnews/contexts/fact-check/settlement-engine/application"
	"validnews/contexts/fact-check/settlement-engine/domain/entities"
	domainerrors "validnews/contexts/fact-check/settlement-engine/domain/errors"
)

// SettleClaimUseCase runs tally then distribution as one idempotent
// operation. Each step tolerates having already been done, so retries and
// concurrent settlers converge on the same terminal state; a claim that is
// already fully distributed reports AlreadySettled instead of failing.
type SettleClaimUseCase struct {
	Tally      TallyClaimUseCase
	Distribute DistributeRewardsUseCase
	Logger     *slog.Logger
}

func (uc SettleClaimUseCase) Settle(ctx context.Context, claimID string) (entities.SettlementOutcome, error) {
	logger := application.ResolveLogger(uc.Logger)
	claimID = strings.TrimSpace(claimID)
	if claimID == "" {
		return entities.SettlementOutcome{}, domainerrors.ErrInvalidSettlementInput
	}

	outcome := entities.SettlementOutcome{ClaimID: claimID}

	result, err := uc.Tally.TallyClaim(ctx, claimID)
	switch {
	case err == nil:
		outcome.Tallied = true
		outcome.Verdict = result.Verdict
	case errors.Is(err, domainerrors.ErrAlreadyTallied):
		// Another settler tallied first; distribution still needs to run.
	case errors.Is(err, domainerrors.ErrAlreadyDistributed):
		outcome.AlreadySettled = true
		return outcome, nil
	case errors.Is(err, domainerrors.ErrSettlementConflict):
		// Lost the voting->tallied race; the winner carries on. Re-reading
		// and retrying here would race again, so report the conflict.
		return entities.SettlementOutcome{}, err
	default:
		return entities.SettlementOutcome{}, err
	}

	report, err := uc.Distribute.Distribute(ctx, claimID)
	switch {
	case err == nil:
		outcome.Distributed = true
		outcome.Verdict = report.Verdict
		outcome.Report = report
	case errors.Is(err, domainerrors.ErrAlreadyDistributed):
		outcome.AlreadySettled = !outcome.Tallied
	default:
		return entities.SettlementOutcome{}, err
	}

	logger.Info("claim settled",
		"event", "claim_settled",
		"module", "fact-check/settlement-engine",
		"layer", "application",
		"claim_id", claimID,
		"tallied", outcome.Tallied,
		"distributed", outcome.Distributed,
		"already_settled", outcome.AlreadySettled,
	)
	return outcome, nil
}

package workers

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"validnews/contexts/fact-check/settlement-engine/application/commands"
	domainerrors "validnews/contexts/fact-check/settlement-engine/domain/errors"
	"validnews/contexts/fact-check/settlement-engine/ports"
)

// SettlementSweep settles expired claims in batches. A conflict on any one
// claim means another settler got there; the sweep skips it and moves on
// rather than failing the batch.
type SettlementSweep struct {
	Repo      ports.SettlementRepository
	Settle    commands.SettleClaimUseCase
	Clock     ports.Clock
	BatchSize int
	Logger    *slog.Logger
}

func (w SettlementSweep) RunOnce(ctx context.Context) (int, error) {
	logger := w.logger()
	batchSize := w.BatchSize
	if batchSize <= 0 {
		batchSize = 50
	}
	claims, err := w.Repo.ListSettleableClaims(ctx, w.now(), batchSize)
	if err != nil {
		return 0, err
	}

	settled := 0
	for _, claim := range claims {
		outcome, err := w.Settle.Settle(ctx, claim.ClaimID)
		if err != nil {
			if errors.Is(err, domainerrors.ErrSettlementConflict) ||
				errors.Is(err, domainerrors.ErrVotingStillOpen) {
				continue
			}
			logger.Error("sweep settlement failed",
				"event", "sweep_settlement_failed",
				"module", "fact-check/settlement-engine",
				"layer", "worker",
				"claim_id", claim.ClaimID,
				"error", err.Error(),
			)
			continue
		}
		if outcome.Distributed {
			settled++
		}
	}

	if settled > 0 {
		logger.Info("settlement sweep completed",
			"event", "settlement_sweep_completed",
			"module", "fact-check/settlement-engine",
			"layer", "worker",
			"candidates", len(claims),
			"settled", settled,
		)
	}
	return settled, nil
}

func (w SettlementSweep) now() time.Time {
	if w.Clock != nil {
		return w.Clock.Now().UTC()
	}
	return time.Now().UTC()
}

func (w SettlementSweep) logger() *slog.Logger {
	if w.Logger != nil {
		return w.Logger
	}
	return slog.Default()
}

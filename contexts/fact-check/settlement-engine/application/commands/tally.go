package commands

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"time"

	application "validnews/contexts/fact-check/settlement-engine/application"
	"validnews/contexts/fact-check/settlement-engine/domain/entities"
	domainerrors "validnews/contexts/fact-check/settlement-engine/domain/errors"
	"validnews/contexts/fact-check/settlement-engine/ports"
	"validnews/internal/shared/events"
)

// TallyClaimUseCase freezes a claim's verdict once its voting window ends.
// The verdict is a strict majority of true votes; a tie or a claim with no
// votes resolves to false, the burden of proof sitting with the claim.
type TallyClaimUseCase struct {
	Repo   ports.SettlementRepository
	Outbox ports.OutboxRepository
	Clock  ports.Clock
	IDGen  ports.IDGenerator
	Logger *slog.Logger
}

func (uc TallyClaimUseCase) TallyClaim(ctx context.Context, claimID string) (entities.TallyResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	claimID = strings.TrimSpace(claimID)
	if claimID == "" {
		return entities.TallyResult{}, domainerrors.ErrInvalidSettlementInput
	}

	claim, err := uc.Repo.GetClaim(ctx, claimID)
	if err != nil {
		return entities.TallyResult{}, err
	}
	switch claim.Status {
	case entities.ClaimStatusVoting:
	case entities.ClaimStatusTallied:
		return entities.TallyResult{}, domainerrors.ErrAlreadyTallied
	case entities.ClaimStatusDistributed:
		return entities.TallyResult{}, domainerrors.ErrAlreadyDistributed
	default:
		return entities.TallyResult{}, domainerrors.ErrSettlementConflict
	}

	now := uc.now()
	if now.Before(claim.VotingEndsAt) {
		logger.Warn("tally rejected: window open",
			"event", "tally_rejected_window_open",
			"module", "fact-check/settlement-engine",
			"layer", "application",
			"claim_id", claimID,
			"voting_ends_at", claim.VotingEndsAt.Format(time.RFC3339),
		)
		return entities.TallyResult{}, domainerrors.ErrVotingStillOpen
	}

	verdict := entities.VerdictFalse
	if claim.VotesTrue > claim.VotesFalse {
		verdict = entities.VerdictTrue
	}
	if err := uc.Repo.MarkTallied(ctx, claimID, verdict, now); err != nil {
		return entities.TallyResult{}, err
	}

	result := entities.TallyResult{
		ClaimID:    claimID,
		Verdict:    verdict,
		VotesTrue:  claim.VotesTrue,
		VotesFalse: claim.VotesFalse,
		TotalVotes: claim.TotalVotes,
		TalliedAt:  now,
	}
	if err := uc.appendTalliedEvent(ctx, result); err != nil {
		return entities.TallyResult{}, err
	}

	logger.Info("claim tallied",
		"event", "claim_tallied",
		"module", "fact-check/settlement-engine",
		"layer", "application",
		"claim_id", claimID,
		"verdict", verdict,
		"votes_true", claim.VotesTrue,
		"votes_false", claim.VotesFalse,
	)
	return result, nil
}

func (uc TallyClaimUseCase) appendTalliedEvent(ctx context.Context, result entities.TallyResult) error {
	if uc.Outbox == nil {
		return nil
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	data, err := json.Marshal(map[string]any{
		"claim_id":    result.ClaimID,
		"verdict":     result.Verdict,
		"votes_true":  result.VotesTrue,
		"votes_false": result.VotesFalse,
		"total_votes": result.TotalVotes,
		"tallied_at":  result.TalliedAt.Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	return uc.Outbox.AppendOutbox(ctx, events.Envelope{
		EventID:       eventID,
		EventType:     "claim.tallied",
		SourceService: "settlement-engine",
		OccurredAt:    result.TalliedAt.UTC(),
		TraceID:       eventID,
		SchemaVersion: 1,
		PartitionKey:  result.ClaimID,
		Data:          data,
	})
}

func (uc TallyClaimUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}

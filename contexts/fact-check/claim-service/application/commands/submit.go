package commands

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	application "validnews/contexts/fact-check/claim-service/application"
	"validnews/contexts/fact-check/claim-service/domain/entities"
	domainerrors "validnews/contexts/fact-check/claim-service/domain/errors"
	"validnews/contexts/fact-check/claim-service/ports"
	"validnews/internal/shared/events"
)

// SubmitClaimCommand is the write-model input for claim submission.
type SubmitClaimCommand struct {
	WalletAddress string
	Title         string
	Link          string
}

// SubmitClaimUseCase creates a claim in the voting state, charges the
// submission fee to the submitter as a negative ledger entry, and stamps the
// voting window. The submitter is created on first wallet sighting.
type SubmitClaimUseCase struct {
	Claims        ports.ClaimRepository
	Users         ports.UserDirectory
	Outbox        ports.OutboxWriter
	Clock         ports.Clock
	IDGen         ports.IDGenerator
	SubmissionFee float64
	VotingWindow  time.Duration
	Logger        *slog.Logger
}

func (uc SubmitClaimUseCase) SubmitClaim(ctx context.Context, cmd SubmitClaimCommand) (entities.Claim, error) {
	logger := application.ResolveLogger(uc.Logger)
	wallet := strings.TrimSpace(cmd.WalletAddress)
	title := strings.TrimSpace(cmd.Title)
	if wallet == "" || title == "" {
		logger.Warn("claim submit validation failed",
			"event", "claim_submit_validation_failed",
			"module", "fact-check/claim-service",
			"layer", "application",
			"wallet_address", wallet,
		)
		return entities.Claim{}, domainerrors.ErrInvalidClaimInput
	}

	now := uc.now()
	submitter, err := uc.resolveSubmitter(ctx, wallet, now)
	if err != nil {
		return entities.Claim{}, err
	}

	claimID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Claim{}, err
	}
	txID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Claim{}, err
	}

	claim := entities.Claim{
		ClaimID:       claimID,
		Title:         title,
		Link:          strings.TrimSpace(cmd.Link),
		SubmittedBy:   submitter.UserID,
		SubmissionFee: uc.SubmissionFee,
		CreatedAt:     now,
		VotingEndsAt:  now.Add(uc.votingWindow()),
		Status:        entities.ClaimStatusVoting,
	}
	feeCharge := entities.Transaction{
		TxID:      txID,
		UserID:    submitter.UserID,
		ClaimID:   claimID,
		Amount:    -uc.SubmissionFee,
		Kind:      entities.TransactionKindSubmissionFee,
		CreatedAt: now,
	}
	if err := uc.Claims.CreateClaimWithFee(ctx, claim, feeCharge); err != nil {
		return entities.Claim{}, err
	}
	if err := uc.appendClaimEvent(ctx, "claim.submitted", claim, now); err != nil {
		return entities.Claim{}, err
	}

	logger.Info("claim submitted",
		"event", "claim_submitted",
		"module", "fact-check/claim-service",
		"layer", "application",
		"claim_id", claim.ClaimID,
		"submitted_by", claim.SubmittedBy,
		"submission_fee", claim.SubmissionFee,
		"voting_ends_at", claim.VotingEndsAt.Format(time.RFC3339),
	)
	return claim, nil
}

// resolveSubmitter finds the user by wallet or creates one on first sighting.
// A concurrent first sighting loses the insert race on the wallet uniqueness
// constraint; the loser re-reads the winner's row.
func (uc SubmitClaimUseCase) resolveSubmitter(
	ctx context.Context,
	wallet string,
	now time.Time,
) (entities.User, error) {
	user, found, err := uc.Users.GetUserByWallet(ctx, wallet)
	if err != nil {
		return entities.User{}, err
	}
	if found {
		return user, nil
	}

	userID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.User{}, err
	}
	user = entities.User{
		UserID:        userID,
		WalletAddress: wallet,
		CreatedAt:     now,
	}
	if err := uc.Users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, domainerrors.ErrConflict) {
			existing, found, getErr := uc.Users.GetUserByWallet(ctx, wallet)
			if getErr != nil {
				return entities.User{}, getErr
			}
			if found {
				return existing, nil
			}
		}
		return entities.User{}, err
	}
	return user, nil
}

func (uc SubmitClaimUseCase) appendClaimEvent(
	ctx context.Context,
	eventType string,
	claim entities.Claim,
	occurredAt time.Time,
) error {
	// Outbox is optional for pure read/test wiring, so nil is treated as no-op.
	if uc.Outbox == nil {
		return nil
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	data, err := json.Marshal(map[string]any{
		"claim_id":       claim.ClaimID,
		"title":          claim.Title,
		"submitted_by":   claim.SubmittedBy,
		"submission_fee": claim.SubmissionFee,
		"voting_ends_at": claim.VotingEndsAt.Format(time.RFC3339),
		"occurred_at":    occurredAt.Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	return uc.Outbox.AppendOutbox(ctx, events.Envelope{
		EventID:       eventID,
		EventType:     eventType,
		SourceService: "claim-service",
		OccurredAt:    occurredAt.UTC(),
		TraceID:       eventID,
		SchemaVersion: 1,
		PartitionKey:  claim.ClaimID,
		Data:          data,
	})
}

func (uc SubmitClaimUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}

func (uc SubmitClaimUseCase) votingWindow() time.Duration {
	if uc.VotingWindow <= 0 {
		return 24 * time.Hour
	}
	return uc.VotingWindow
}

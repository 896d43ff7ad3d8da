package commands

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	application "validnews/contexts/fact-check/voting-engine/application"
	"validnews/contexts/fact-check/voting-engine/domain/entities"
	domainerrors "validnews/contexts/fact-check/voting-engine/domain/errors"
	"validnews/contexts/fact-check/voting-engine/ports"
	"validnews/internal/shared/events"
)

const claimStatusVoting = "voting"

// RecordVoteCommand is the write-model input for casting a vote.
type RecordVoteCommand struct {
	ClaimID       string
	WalletAddress string
	Decision      bool
}

// RecordVoteUseCase applies the precondition chain for a vote in order:
// claim is in the voting state, the voting window has not elapsed, the
// per-claim vote cap has headroom, and the voter has not voted before. The
// vote insert and the tally increment happen as one atomic repository call
// guarded by the claim's observed total, so two concurrent votes can never
// both claim the last cap slot.
type RecordVoteUseCase struct {
	Votes            ports.VoteRepository
	Voters           ports.VoterDirectory
	Outbox           ports.OutboxWriter
	Clock            ports.Clock
	IDGen            ports.IDGenerator
	MaxVotesPerClaim int
	Logger           *slog.Logger
}

func (uc RecordVoteUseCase) RecordVote(ctx context.Context, cmd RecordVoteCommand) (entities.Vote, error) {
	logger := application.ResolveLogger(uc.Logger)
	claimID := strings.TrimSpace(cmd.ClaimID)
	wallet := strings.TrimSpace(cmd.WalletAddress)
	if claimID == "" || wallet == "" {
		logger.Warn("vote validation failed",
			"event", "vote_validation_failed",
			"module", "fact-check/voting-engine",
			"layer", "application",
			"claim_id", claimID,
		)
		return entities.Vote{}, domainerrors.ErrInvalidVoteInput
	}

	now := uc.now()
	voter, err := uc.resolveVoter(ctx, wallet, now)
	if err != nil {
		return entities.Vote{}, err
	}

	claim, err := uc.Votes.GetClaim(ctx, claimID)
	if err != nil {
		return entities.Vote{}, err
	}
	if claim.Status != claimStatusVoting || !now.Before(claim.VotingEndsAt) {
		logger.Warn("vote rejected: voting closed",
			"event", "vote_rejected_voting_closed",
			"module", "fact-check/voting-engine",
			"layer", "application",
			"claim_id", claimID,
			"claim_status", claim.Status,
		)
		return entities.Vote{}, domainerrors.ErrVotingClosed
	}
	if uc.MaxVotesPerClaim > 0 && claim.TotalVotes >= uc.MaxVotesPerClaim {
		logger.Warn("vote rejected: cap reached",
			"event", "vote_rejected_cap_reached",
			"module", "fact-check/voting-engine",
			"layer", "application",
			"claim_id", claimID,
			"total_votes", claim.TotalVotes,
		)
		return entities.Vote{}, domainerrors.ErrVoteCapReached
	}
	if _, found, err := uc.Votes.GetVoteByVoter(ctx, claimID, voter.UserID); err != nil {
		return entities.Vote{}, err
	} else if found {
		return entities.Vote{}, domainerrors.ErrAlreadyVoted
	}

	voteID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return entities.Vote{}, err
	}
	vote := entities.Vote{
		VoteID:    voteID,
		ClaimID:   claimID,
		UserID:    voter.UserID,
		Decision:  cmd.Decision,
		CreatedAt: now,
	}
	if err := uc.Votes.RecordVote(ctx, vote, claim.TotalVotes); err != nil {
		return entities.Vote{}, err
	}
	if err := uc.appendVoteEvent(ctx, vote, now); err != nil {
		return entities.Vote{}, err
	}

	logger.Info("vote recorded",
		"event", "vote_recorded",
		"module", "fact-check/voting-engine",
		"layer", "application",
		"claim_id", vote.ClaimID,
		"vote_id", vote.VoteID,
		"decision", vote.Decision,
	)
	return vote, nil
}

// resolveVoter finds the user by wallet or creates one on first sighting; a
// lost insert race on the wallet uniqueness constraint re-reads the winner.
func (uc RecordVoteUseCase) resolveVoter(
	ctx context.Context,
	wallet string,
	now time.Time,
) (ports.Voter, error) {
	voter, found, err := uc.Voters.GetVoterByWallet(ctx, wallet)
	if err != nil {
		return ports.Voter{}, err
	}
	if found {
		return voter, nil
	}

	voterID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return ports.Voter{}, err
	}
	voter = ports.Voter{
		UserID:        voterID,
		WalletAddress: wallet,
		CreatedAt:     now,
	}
	if err := uc.Voters.CreateVoter(ctx, voter); err != nil {
		if errors.Is(err, domainerrors.ErrVoteConflict) {
			existing, found, getErr := uc.Voters.GetVoterByWallet(ctx, wallet)
			if getErr != nil {
				return ports.Voter{}, getErr
			}
			if found {
				return existing, nil
			}
		}
		return ports.Voter{}, err
	}
	return voter, nil
}

func (uc RecordVoteUseCase) appendVoteEvent(ctx context.Context, vote entities.Vote, occurredAt time.Time) error {
	// Outbox is optional for pure read/test wiring, so nil is treated as no-op.
	if uc.Outbox == nil {
		return nil
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	data, err := json.Marshal(map[string]any{
		"vote_id":     vote.VoteID,
		"claim_id":    vote.ClaimID,
		"user_id":     vote.UserID,
		"decision":    vote.Decision,
		"occurred_at": occurredAt.Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	return uc.Outbox.AppendOutbox(ctx, events.Envelope{
		EventID:       eventID,
		EventType:     "vote.recorded",
		SourceService: "voting-engine",
		OccurredAt:    occurredAt.UTC(),
		TraceID:       eventID,
		SchemaVersion: 1,
		PartitionKey:  vote.ClaimID,
		Data:          data,
	})
}

func (uc RecordVoteUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}

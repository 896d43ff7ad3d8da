package queries

import (
	"context"
	"strings"

	"validnews/contexts/fact-check/voting-engine/domain/entities"
	domainerrors "validnews/contexts/fact-check/voting-engine/domain/errors"
	"validnews/contexts/fact-check/voting-engine/ports"
)

// ListClaimVotesUseCase returns the votes cast on a claim, oldest first.
type ListClaimVotesUseCase struct {
	Votes ports.VoteRepository
}

func (uc ListClaimVotesUseCase) Execute(ctx context.Context, claimID string) ([]entities.Vote, error) {
	claimID = strings.TrimSpace(claimID)
	if claimID == "" {
		return nil, domainerrors.ErrInvalidVoteInput
	}
	// Existence check first so an unknown claim maps to 404, not an empty list.
	if _, err := uc.Votes.GetClaim(ctx, claimID); err != nil {
		return nil, err
	}
	return uc.Votes.ListVotesByClaim(ctx, claimID)
}

// GetUserVoteUseCase looks up one user's vote on a claim.
type GetUserVoteUseCase struct {
	Votes  ports.VoteRepository
	Voters ports.VoterDirectory
}

func (uc GetUserVoteUseCase) Execute(ctx context.Context, claimID string, wallet string) (entities.Vote, error) {
	claimID = strings.TrimSpace(claimID)
	wallet = strings.TrimSpace(wallet)
	if claimID == "" || wallet == "" {
		return entities.Vote{}, domainerrors.ErrInvalidVoteInput
	}
	if _, err := uc.Votes.GetClaim(ctx, claimID); err != nil {
		return entities.Vote{}, err
	}
	voter, found, err := uc.Voters.GetVoterByWallet(ctx, wallet)
	if err != nil {
		return entities.Vote{}, err
	}
	if !found {
		return entities.Vote{}, domainerrors.ErrVoteNotFound
	}
	vote, found, err := uc.Votes.GetVoteByVoter(ctx, claimID, voter.UserID)
	if err != nil {
		return entities.Vote{}, err
	}
	if !found {
		return entities.Vote{}, domainerrors.ErrVoteNotFound
	}
	return vote, nil
}

// GetTallyUseCase reads the running tallies for a claim.
type GetTallyUseCase struct {
	Votes ports.VoteRepository
}

func (uc GetTallyUseCase) Execute(ctx context.Context, claimID string) (ports.ClaimProjection, error) {
	claimID = strings.TrimSpace(claimID)
	if claimID == "" {
		return ports.ClaimProjection{}, domainerrors.ErrInvalidVoteInput
	}
	return uc.Votes.GetClaim(ctx, claimID)
}

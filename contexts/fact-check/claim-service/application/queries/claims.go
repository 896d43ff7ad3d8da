package queries

import (
	"context"
	"strings"

	"validnews/contexts/fact-check/claim-service/domain/entities"
	domainerrors "validnews/contexts/fact-check/claim-service/domain/errors"
	"validnews/contexts/fact-check/claim-service/ports"
)

type GetClaimUseCase struct {
	Claims ports.ClaimRepository
}

func (uc GetClaimUseCase) Execute(ctx context.Context, claimID string) (entities.Claim, error) {
	if strings.TrimSpace(claimID) == "" {
		return entities.Claim{}, domainerrors.ErrInvalidClaimInput
	}
	return uc.Claims.GetClaim(ctx, strings.TrimSpace(claimID))
}

type ListClaimsQuery struct {
	Status string
	Limit  int
}

type ListClaimsUseCase struct {
	Claims ports.ClaimRepository
}

func (uc ListClaimsUseCase) Execute(ctx context.Context, query ListClaimsQuery) ([]entities.Claim, error) {
	status := strings.TrimSpace(query.Status)
	switch status {
	case "",
		string(entities.ClaimStatusVoting),
		string(entities.ClaimStatusTallied),
		string(entities.ClaimStatusDistributed):
	default:
		return nil, domainerrors.ErrInvalidClaimInput
	}
	limit := query.Limit
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return uc.Claims.ListClaims(ctx, status, limit)
}

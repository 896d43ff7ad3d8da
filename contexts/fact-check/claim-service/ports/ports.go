package ports

import (
	"context"
	"time"

	"validnews/contexts/fact-check/claim-service/domain/entities"
	"validnews/internal/shared/events"
)

type ClaimRepository interface {
	// CreateClaimWithFee persists the claim and the submitter's fee charge as
	// one unit: both commit or neither does.
	CreateClaimWithFee(ctx context.Context, claim entities.Claim, feeCharge entities.Transaction) error
	GetClaim(ctx context.Context, claimID string) (entities.Claim, error)
	ListClaims(ctx context.Context, status string, limit int) ([]entities.Claim, error)
}

type UserDirectory interface {
	GetUserByWallet(ctx context.Context, walletAddress string) (entities.User, bool, error)
	CreateUser(ctx context.Context, user entities.User) error
}

type OutboxWriter interface {
	AppendOutbox(ctx context.Context, envelope events.Envelope) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

package commands

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	application "validnews/contexts/fact-check/settlement-engine/application"
	"validnews/contexts/fact-check/settlement-engine/domain/entities"
	domainerrors "validnews/contexts/fact-check/settlement-engine/domain/errors"
	"validnews/contexts/fact-check/settlement-engine/ports"
	"validnews/internal/shared/events"
)

// DistributeRewardsUseCase pays out a tallied claim. The submission fee is
// split in integer cents between the correct-voter pool and the platform fee,
// so rewards plus platform fee always equal the fee to the cent. Correct
// voters additionally gain reputation; incorrect voters lose one point unless
// they sit below the penalty floor. With no correct voters the whole fee goes
// to the platform account.
type DistributeRewardsUseCase struct {
	Repo              ports.SettlementRepository
	Outbox            ports.OutboxRepository
	Clock             ports.Clock
	IDGen             ports.IDGenerator
	VotersPoolRate    float64
	ReputationAward   int
	ReputationPenalty int
	ReputationFloor   int
	PlatformWallet    string
	Logger            *slog.Logger
}

func (uc DistributeRewardsUseCase) Distribute(ctx context.Context, claimID string) (entities.DistributionReport, error) {
	logger := application.ResolveLogger(uc.Logger)
	claimID = strings.TrimSpace(claimID)
	if claimID == "" {
		return entities.DistributionReport{}, domainerrors.ErrInvalidSettlementInput
	}

	claim, err := uc.Repo.GetClaim(ctx, claimID)
	if err != nil {
		return entities.DistributionReport{}, err
	}
	switch claim.Status {
	case entities.ClaimStatusTallied:
	case entities.ClaimStatusVoting:
		return entities.DistributionReport{}, domainerrors.ErrNotTallied
	case entities.ClaimStatusDistributed:
		return entities.DistributionReport{}, domainerrors.ErrAlreadyDistributed
	default:
		return entities.DistributionReport{}, domainerrors.ErrSettlementConflict
	}

	votes, err := uc.Repo.ListVotes(ctx, claimID)
	if err != nil {
		return entities.DistributionReport{}, err
	}
	sort.Slice(votes, func(i, j int) bool {
		return votes[i].CreatedAt.Before(votes[j].CreatedAt)
	})

	verdictTrue := claim.FinalResult == entities.VerdictTrue
	correct := make([]ports.VoteRecord, 0, len(votes))
	incorrect := make([]string, 0, len(votes))
	for _, vote := range votes {
		if vote.Decision == verdictTrue {
			correct = append(correct, vote)
		} else {
			incorrect = append(incorrect, vote.UserID)
		}
	}

	now := uc.now()
	feeCents := toCents(claim.SubmissionFee)
	poolCents := int64(0)
	if len(correct) > 0 {
		poolCents = int64(math.Round(float64(feeCents) * uc.VotersPoolRate))
	}
	platformCents := feeCents - poolCents

	platform, err := uc.resolvePlatformAccount(ctx, now)
	if err != nil {
		return entities.DistributionReport{}, err
	}

	plan := ports.DistributionPlan{
		ClaimID:       claimID,
		DistributedAt: now,
	}
	report := entities.DistributionReport{
		ClaimID:         claimID,
		Verdict:         claim.FinalResult,
		SubmissionFee:   claim.SubmissionFee,
		PoolAmount:      fromCents(poolCents),
		PlatformFee:     fromCents(platformCents),
		IncorrectVoters: incorrect,
		DistributedAt:   now,
	}

	shares := splitCents(poolCents, len(correct))
	for i, vote := range correct {
		amount := fromCents(shares[i])
		txID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return entities.DistributionReport{}, err
		}
		plan.Ledger = append(plan.Ledger, ports.LedgerEntry{
			TxID:    txID,
			UserID:  vote.UserID,
			ClaimID: claimID,
			Amount:  amount,
			Kind:    ports.LedgerKindVoteReward,
		})
		plan.Earnings = append(plan.Earnings, ports.EarningsCredit{
			UserID: vote.UserID,
			Amount: amount,
		})
		plan.Reputation = append(plan.Reputation, ports.ReputationChange{
			UserID: vote.UserID,
			Delta:  uc.ReputationAward,
		})
		report.Rewards = append(report.Rewards, entities.VoterReward{
			UserID: vote.UserID,
			Amount: amount,
		})
	}
	for _, userID := range incorrect {
		plan.Reputation = append(plan.Reputation, ports.ReputationChange{
			UserID:     userID,
			Delta:      -uc.ReputationPenalty,
			MinCurrent: uc.ReputationFloor,
		})
	}
	if platformCents > 0 {
		txID, err := uc.IDGen.NewID(ctx)
		if err != nil {
			return entities.DistributionReport{}, err
		}
		plan.Ledger = append(plan.Ledger, ports.LedgerEntry{
			TxID:    txID,
			UserID:  platform.UserID,
			ClaimID: claimID,
			Amount:  fromCents(platformCents),
			Kind:    ports.LedgerKindAdminFee,
		})
		plan.Earnings = append(plan.Earnings, ports.EarningsCredit{
			UserID: platform.UserID,
			Amount: fromCents(platformCents),
		})
	}

	if err := uc.Repo.ApplyDistribution(ctx, plan); err != nil {
		return entities.DistributionReport{}, err
	}
	if err := uc.appendDistributedEvent(ctx, report); err != nil {
		return entities.DistributionReport{}, err
	}

	logger.Info("claim rewards distributed",
		"event", "claim_rewards_distributed",
		"module", "fact-check/settlement-engine",
		"layer", "application",
		"claim_id", claimID,
		"verdict", report.Verdict,
		"correct_voters", len(report.Rewards),
		"incorrect_voters", len(incorrect),
		"pool_amount", report.PoolAmount,
		"platform_fee", report.PlatformFee,
	)
	return report, nil
}

// resolvePlatformAccount finds or lazily creates the platform fee account.
func (uc DistributeRewardsUseCase) resolvePlatformAccount(ctx context.Context, now time.Time) (ports.Account, error) {
	wallet := strings.ToLower(strings.TrimSpace(uc.PlatformWallet))
	if wallet == "" {
		return ports.Account{}, domainerrors.ErrInvalidSettlementInput
	}
	account, found, err := uc.Repo.GetAccountByWallet(ctx, wallet)
	if err != nil {
		return ports.Account{}, err
	}
	if found {
		return account, nil
	}
	accountID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return ports.Account{}, err
	}
	account = ports.Account{
		UserID:        accountID,
		WalletAddress: wallet,
		CreatedAt:     now,
	}
	if err := uc.Repo.CreateAccount(ctx, account); err != nil {
		if errors.Is(err, domainerrors.ErrSettlementConflict) {
			existing, found, getErr := uc.Repo.GetAccountByWallet(ctx, wallet)
			if getErr != nil {
				return ports.Account{}, getErr
			}
			if found {
				return existing, nil
			}
		}
		return ports.Account{}, err
	}
	return account, nil
}

func (uc DistributeRewardsUseCase) appendDistributedEvent(ctx context.Context, report entities.DistributionReport) error {
	if uc.Outbox == nil {
		return nil
	}
	eventID, err := uc.IDGen.NewID(ctx)
	if err != nil {
		return err
	}
	rewards := make([]map[string]any, 0, len(report.Rewards))
	for _, reward := range report.Rewards {
		rewards = append(rewards, map[string]any{
			"user_id": reward.UserID,
			"amount":  reward.Amount,
		})
	}
	data, err := json.Marshal(map[string]any{
		"claim_id":       report.ClaimID,
		"verdict":        report.Verdict,
		"submission_fee": report.SubmissionFee,
		"pool_amount":    report.PoolAmount,
		"platform_fee":   report.PlatformFee,
		"rewards":        rewards,
		"distributed_at": report.DistributedAt.Format(time.RFC3339),
	})
	if err != nil {
		return err
	}
	return uc.Outbox.AppendOutbox(ctx, events.Envelope{
		EventID:       eventID,
		EventType:     "claim.distributed",
		SourceService: "settlement-engine",
		OccurredAt:    report.DistributedAt.UTC(),
		TraceID:       eventID,
		SchemaVersion: 1,
		PartitionKey:  report.ClaimID,
		Data:          data,
	})
}

func (uc DistributeRewardsUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}

// splitCents divides total into n shares, handing the remainder out one cent
// at a time from the front.
func splitCents(total int64, n int) []int64 {
	if n <= 0 {
		return nil
	}
	base := total / int64(n)
	remainder := total % int64(n)
	shares := make([]int64, n)
	for i := range shares {
		shares[i] = base
		if int64(i) < remainder {
			shares[i]++
		}
	}
	return shares
}

func toCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

func fromCents(cents int64) float64 {
	return float64(cents) / 100
}

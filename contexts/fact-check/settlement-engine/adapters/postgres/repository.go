package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"validnews/contexts/fact-check/settlement-engine/domain/entities"
	domainerrors "validnews/contexts/fact-check/settlement-engine/domain/errors"
	"validnews/contexts/fact-check/settlement-engine/ports"
	"validnews/internal/shared/events"
	"validnews/internal/shared/outbox"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

func (r *Repository) GetClaim(ctx context.Context, claimID string) (ports.Claim, error) {
	var row claimModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(claimID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Claim{}, domainerrors.ErrClaimNotFound
		}
		return ports.Claim{}, r.logError("settlement_repo_get_claim_failed", err,
			"claim_id", strings.TrimSpace(claimID),
		)
	}
	return row.toProjection(), nil
}

func (r *Repository) MarkTallied(ctx context.Context, claimID string, verdict string, talliedAt time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&claimModel{}).
		Where("id = ? AND status = ?", strings.TrimSpace(claimID), entities.ClaimStatusVoting).
		Updates(map[string]any{
			"status":       entities.ClaimStatusTallied,
			"final_result": verdict,
			"tallied_at":   talliedAt.UTC(),
		})
	if res.Error != nil {
		return r.logError("settlement_repo_mark_tallied_failed", res.Error,
			"claim_id", strings.TrimSpace(claimID),
		)
	}
	if res.RowsAffected == 0 {
		return domainerrors.ErrSettlementConflict
	}
	return nil
}

func (r *Repository) ListVotes(ctx context.Context, claimID string) ([]ports.VoteRecord, error) {
	var rows []voteModel
	err := r.db.WithContext(ctx).
		Where("claim_id = ?", strings.TrimSpace(claimID)).
		Order("created_at ASC").
		Find(&rows).
		Error
	if err != nil {
		return nil, r.logError("settlement_repo_list_votes_failed", err,
			"claim_id", strings.TrimSpace(claimID),
		)
	}
	items := make([]ports.VoteRecord, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.VoteRecord{
			UserID:    row.UserID,
			Decision:  row.Decision,
			CreatedAt: row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) GetAccountByWallet(ctx context.Context, walletAddress string) (ports.Account, bool, error) {
	var row accountModel
	err := r.db.WithContext(ctx).
		Where("wallet_address = ?", normalizeWallet(walletAddress)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Account{}, false, nil
		}
		return ports.Account{}, false, r.logError("settlement_repo_get_account_failed", err,
			"wallet_address", normalizeWallet(walletAddress),
		)
	}
	return row.toProjection(), true, nil
}

func (r *Repository) CreateAccount(ctx context.Context, account ports.Account) error {
	row := accountModel{
		ID:               strings.TrimSpace(account.UserID),
		WalletAddress:    normalizeWallet(account.WalletAddress),
		ReputationPoints: account.ReputationPoints,
		Earnings:         account.Earnings,
		CreatedAt:        account.CreatedAt.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrSettlementConflict
		}
		return r.logError("settlement_repo_create_account_failed", err,
			"user_id", row.ID,
			"wallet_address", row.WalletAddress,
		)
	}
	return nil
}

// ApplyDistribution executes the whole payout in one transaction. The claim's
// tallied->distributed transition is the commit gate: zero rows affected
// means another settler won and everything rolls back. Reputation penalties
// carry their floor check into the UPDATE predicate so the floor holds under
// concurrent penalties too.
func (r *Repository) ApplyDistribution(ctx context.Context, plan ports.DistributionPlan) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&claimModel{}).
			Where("id = ? AND status = ?", strings.TrimSpace(plan.ClaimID), entities.ClaimStatusTallied).
			Updates(map[string]any{
				"status":         entities.ClaimStatusDistributed,
				"distributed_at": plan.DistributedAt.UTC(),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domainerrors.ErrSettlementConflict
		}
		for _, entry := range plan.Ledger {
			row := transactionModel{
				ID:        strings.TrimSpace(entry.TxID),
				UserID:    strings.TrimSpace(entry.UserID),
				Amount:    entry.Amount,
				Kind:      entry.Kind,
				CreatedAt: plan.DistributedAt.UTC(),
			}
			claimID := strings.TrimSpace(entry.ClaimID)
			if claimID != "" {
				row.ClaimID = &claimID
			}
			if err := tx.Create(&row).Error; err != nil {
				return err
			}
		}
		for _, credit := range plan.Earnings {
			err := tx.Model(&accountModel{}).
				Where("id = ?", strings.TrimSpace(credit.UserID)).
				Update("earnings", gorm.Expr("earnings + ?", credit.Amount)).
				Error
			if err != nil {
				return err
			}
		}
		for _, change := range plan.Reputation {
			query := tx.Model(&accountModel{}).
				Where("id = ?", strings.TrimSpace(change.UserID))
			if change.Delta < 0 {
				query = query.Where("reputation_points >= ?", change.MinCurrent)
			}
			err := query.
				Update("reputation_points", gorm.Expr("reputation_points + ?", change.Delta)).
				Error
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, domainerrors.ErrSettlementConflict) {
			return domainerrors.ErrSettlementConflict
		}
		return r.logError("settlement_repo_apply_distribution_failed", err,
			"claim_id", strings.TrimSpace(plan.ClaimID),
		)
	}
	return nil
}

func (r *Repository) ListSettleableClaims(ctx context.Context, asOf time.Time, limit int) ([]ports.Claim, error) {
	var rows []claimModel
	err := r.db.WithContext(ctx).
		Where("(status = ? AND voting_ends_at <= ?) OR status = ?",
			entities.ClaimStatusVoting, asOf.UTC(), entities.ClaimStatusTallied).
		Order("voting_ends_at ASC").
		Limit(limit).
		Find(&rows).
		Error
	if err != nil {
		return nil, r.logError("settlement_repo_list_settleable_failed", err)
	}
	items := make([]ports.Claim, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toProjection())
	}
	return items, nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope events.Envelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return r.logError("settlement_repo_append_outbox_marshal_failed", err,
			"event_id", strings.TrimSpace(envelope.EventID),
		)
	}
	row := outboxModel{
		OutboxID:     strings.TrimSpace(envelope.EventID),
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		Status:       outbox.StatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		return r.logError("settlement_repo_append_outbox_failed", err,
			"event_id", row.OutboxID,
			"event_type", row.EventType,
		)
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]outbox.Message, error) {
	var rows []outboxModel
	err := r.db.WithContext(ctx).
		Where("status = ?", outbox.StatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).
		Error
	if err != nil {
		return nil, r.logError("settlement_repo_list_pending_outbox_failed", err)
	}
	items := make([]outbox.Message, 0, len(rows))
	for _, row := range rows {
		items = append(items, outbox.Message{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      row.Payload,
			Status:       row.Status,
			CreatedAt:    row.CreatedAt.UTC(),
			PublishedAt:  row.PublishedAt,
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxIDs []string, publishedAt time.Time) error {
	if len(outboxIDs) == 0 {
		return nil
	}
	err := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id IN ?", outboxIDs).
		Updates(map[string]any{
			"status":       outbox.StatusPublished,
			"published_at": publishedAt.UTC(),
		}).
		Error
	if err != nil {
		return r.logError("settlement_repo_mark_outbox_published_failed", err,
			"count", len(outboxIDs),
		)
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+7)
	fields = append(fields,
		"event", event,
		"module", "fact-check/settlement-engine",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("settlement repository operation failed", fields...)
	return err
}

type claimModel struct {
	ID            string     `gorm:"column:id;primaryKey"`
	SubmittedBy   string     `gorm:"column:submitted_by"`
	SubmissionFee float64    `gorm:"column:submission_fee"`
	VotingEndsAt  time.Time  `gorm:"column:voting_ends_at"`
	Status        string     `gorm:"column:status"`
	FinalResult   *string    `gorm:"column:final_result"`
	VotesTrue     int        `gorm:"column:votes_true"`
	VotesFalse    int        `gorm:"column:votes_false"`
	TotalVotes    int        `gorm:"column:total_votes"`
	TalliedAt     *time.Time `gorm:"column:tallied_at"`
	DistributedAt *time.Time `gorm:"column:distributed_at"`
}

func (claimModel) TableName() string {
	return "claims"
}

func (m claimModel) toProjection() ports.Claim {
	verdict := ""
	if m.FinalResult != nil {
		verdict = *m.FinalResult
	}
	return ports.Claim{
		ClaimID:       m.ID,
		SubmittedBy:   m.SubmittedBy,
		SubmissionFee: m.SubmissionFee,
		VotingEndsAt:  m.VotingEndsAt.UTC(),
		Status:        m.Status,
		FinalResult:   verdict,
		VotesTrue:     m.VotesTrue,
		VotesFalse:    m.VotesFalse,
		TotalVotes:    m.TotalVotes,
	}
}

type voteModel struct {
	ID        string    `gorm:"column:id;primaryKey"`
	ClaimID   string    `gorm:"column:claim_id"`
	UserID    string    `gorm:"column:user_id"`
	Decision  bool      `gorm:"column:decision"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (voteModel) TableName() string {
	return "votes"
}

type accountModel struct {
	ID               string    `gorm:"column:id;primaryKey"`
	WalletAddress    string    `gorm:"column:wallet_address"`
	ReputationPoints int       `gorm:"column:reputation_points"`
	Earnings         float64   `gorm:"column:earnings"`
	CreatedAt        time.Time `gorm:"column:created_at"`
}

func (accountModel) TableName() string {
	return "users"
}

func (m accountModel) toProjection() ports.Account {
	return ports.Account{
		UserID:           m.ID,
		WalletAddress:    m.WalletAddress,
		ReputationPoints: m.ReputationPoints,
		Earnings:         m.Earnings,
		CreatedAt:        m.CreatedAt.UTC(),
	}
}

type transactionModel struct {
	ID        string    `gorm:"column:id;primaryKey"`
	UserID    string    `gorm:"column:user_id"`
	ClaimID   *string   `gorm:"column:claim_id"`
	Amount    float64   `gorm:"column:amount"`
	Kind      string    `gorm:"column:kind"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (transactionModel) TableName() string {
	return "transactions"
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "settlement_outbox"
}

func normalizeWallet(wallet string) string {
	return strings.ToLower(strings.TrimSpace(wallet))
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

var _ ports.SettlementRepository = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)

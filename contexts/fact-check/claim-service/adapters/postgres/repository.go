package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"validnews/contexts/fact-check/claim-service/domain/entities"
	domainerrors "validnews/contexts/fact-check/claim-service/domain/errors"
	"validnews/contexts/fact-check/claim-service/ports"
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

func (r *Repository) CreateClaimWithFee(
	ctx context.Context,
	claim entities.Claim,
	feeCharge entities.Transaction,
) error {
	claimRow := claimModelFromEntity(claim)
	txRow := transactionModelFromEntity(feeCharge)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&claimRow).Error; err != nil {
			return err
		}
		return tx.Create(&txRow).Error
	})
	if err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return r.logError("claim_repo_create_claim_failed", err,
			"claim_id", strings.TrimSpace(claim.ClaimID),
			"submitted_by", strings.TrimSpace(claim.SubmittedBy),
		)
	}
	return nil
}

func (r *Repository) GetClaim(ctx context.Context, claimID string) (entities.Claim, error) {
	var row claimModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(claimID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Claim{}, domainerrors.ErrClaimNotFound
		}
		return entities.Claim{}, r.logError("claim_repo_get_claim_failed", err,
			"claim_id", strings.TrimSpace(claimID),
		)
	}
	return row.toEntity(), nil
}

func (r *Repository) ListClaims(ctx context.Context, status string, limit int) ([]entities.Claim, error) {
	tx := r.db.WithContext(ctx).Model(&claimModel{})
	if strings.TrimSpace(status) != "" {
		tx = tx.Where("status = ?", strings.TrimSpace(status))
	}
	var rows []claimModel
	if err := tx.Order("created_at DESC").Limit(limit).Find(&rows).Error; err != nil {
		return nil, r.logError("claim_repo_list_claims_failed", err, "status", status)
	}
	items := make([]entities.Claim, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) GetUserByWallet(ctx context.Context, walletAddress string) (entities.User, bool, error) {
	var row userModel
	err := r.db.WithContext(ctx).
		Where("wallet_address = ?", normalizeWallet(walletAddress)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.User{}, false, nil
		}
		return entities.User{}, false, r.logError("claim_repo_get_user_by_wallet_failed", err,
			"wallet_address", normalizeWallet(walletAddress),
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) CreateUser(ctx context.Context, user entities.User) error {
	row := userModelFromEntity(user)
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrConflict
		}
		return r.logError("claim_repo_create_user_failed", err,
			"user_id", strings.TrimSpace(user.UserID),
			"wallet_address", normalizeWallet(user.WalletAddress),
		)
	}
	return nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope events.Envelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return r.logError("claim_repo_append_outbox_marshal_failed", err,
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
		return r.logError("claim_repo_append_outbox_failed", err,
			"event_id", row.OutboxID,
			"event_type", row.EventType,
		)
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+7)
	fields = append(fields,
		"event", event,
		"module", "fact-check/claim-service",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("claim repository operation failed", fields...)
	return err
}

type claimModel struct {
	ID            string    `gorm:"column:id;primaryKey"`
	Title         string    `gorm:"column:title"`
	Link          string    `gorm:"column:link"`
	SubmittedBy   string    `gorm:"column:submitted_by"`
	SubmissionFee float64   `gorm:"column:submission_fee"`
	CreatedAt     time.Time `gorm:"column:created_at"`
	VotingEndsAt  time.Time `gorm:"column:voting_ends_at"`
	Status        string    `gorm:"column:status"`
	FinalResult   *string   `gorm:"column:final_result"`
	VotesTrue     int       `gorm:"column:votes_true"`
	VotesFalse    int       `gorm:"column:votes_false"`
	TotalVotes    int       `gorm:"column:total_votes"`
}

func (claimModel) TableName() string {
	return "claims"
}

func claimModelFromEntity(claim entities.Claim) claimModel {
	row := claimModel{
		ID:            strings.TrimSpace(claim.ClaimID),
		Title:         strings.TrimSpace(claim.Title),
		Link:          strings.TrimSpace(claim.Link),
		SubmittedBy:   strings.TrimSpace(claim.SubmittedBy),
		SubmissionFee: claim.SubmissionFee,
		CreatedAt:     claim.CreatedAt.UTC(),
		VotingEndsAt:  claim.VotingEndsAt.UTC(),
		Status:        string(claim.Status),
		VotesTrue:     claim.VotesTrue,
		VotesFalse:    claim.VotesFalse,
		TotalVotes:    claim.TotalVotes,
	}
	if claim.FinalResult != entities.VerdictNone {
		verdict := string(claim.FinalResult)
		row.FinalResult = &verdict
	}
	return row
}

func (m claimModel) toEntity() entities.Claim {
	verdict := entities.VerdictNone
	if m.FinalResult != nil {
		verdict = entities.Verdict(*m.FinalResult)
	}
	return entities.Claim{
		ClaimID:       m.ID,
		Title:         m.Title,
		Link:          m.Link,
		SubmittedBy:   m.SubmittedBy,
		SubmissionFee: m.SubmissionFee,
		CreatedAt:     m.CreatedAt.UTC(),
		VotingEndsAt:  m.VotingEndsAt.UTC(),
		Status:        entities.ClaimStatus(m.Status),
		FinalResult:   verdict,
		VotesTrue:     m.VotesTrue,
		VotesFalse:    m.VotesFalse,
		TotalVotes:    m.TotalVotes,
	}
}

type userModel struct {
	ID               string    `gorm:"column:id;primaryKey"`
	WalletAddress    string    `gorm:"column:wallet_address"`
	ReputationPoints int       `gorm:"column:reputation_points"`
	Earnings         float64   `gorm:"column:earnings"`
	IsAdmin          bool      `gorm:"column:is_admin"`
	CreatedAt        time.Time `gorm:"column:created_at"`
}

func (userModel) TableName() string {
	return "users"
}

func userModelFromEntity(user entities.User) userModel {
	return userModel{
		ID:               strings.TrimSpace(user.UserID),
		WalletAddress:    normalizeWallet(user.WalletAddress),
		ReputationPoints: user.ReputationPoints,
		Earnings:         user.Earnings,
		IsAdmin:          user.IsAdmin,
		CreatedAt:        user.CreatedAt.UTC(),
	}
}

func (m userModel) toEntity() entities.User {
	return entities.User{
		UserID:           m.ID,
		WalletAddress:    m.WalletAddress,
		ReputationPoints: m.ReputationPoints,
		Earnings:         m.Earnings,
		IsAdmin:          m.IsAdmin,
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

func transactionModelFromEntity(item entities.Transaction) transactionModel {
	row := transactionModel{
		ID:        strings.TrimSpace(item.TxID),
		UserID:    strings.TrimSpace(item.UserID),
		Amount:    item.Amount,
		Kind:      string(item.Kind),
		CreatedAt: item.CreatedAt.UTC(),
	}
	if strings.TrimSpace(item.ClaimID) != "" {
		claimID := strings.TrimSpace(item.ClaimID)
		row.ClaimID = &claimID
	}
	return row
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

var _ ports.ClaimRepository = (*Repository)(nil)
var _ ports.UserDirectory = (*Repository)(nil)
var _ ports.OutboxWriter = (*Repository)(nil)

package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"validnews/contexts/fact-check/voting-engine/domain/entities"
	domainerrors "validnews/contexts/fact-check/voting-engine/domain/errors"
	"validnews/contexts/fact-check/voting-engine/ports"
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

func (r *Repository) GetClaim(ctx context.Context, claimID string) (ports.ClaimProjection, error) {
	var row claimTallyModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(claimID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.ClaimProjection{}, domainerrors.ErrClaimNotFound
		}
		return ports.ClaimProjection{}, r.logError("vote_repo_get_claim_failed", err,
			"claim_id", strings.TrimSpace(claimID),
		)
	}
	return row.toProjection(), nil
}

// RecordVote inserts the vote row and increments the claim tallies inside one
// transaction. The tally update is compare-and-swap on total_votes and gated
// on the voting status, so a concurrent vote, a cap race, or a settlement
// transition rolls the insert back.
func (r *Repository) RecordVote(ctx context.Context, vote entities.Vote, expectedTotal int) error {
	row := voteModelFromEntity(vote)
	tallyColumn := "votes_false"
	if vote.Decision {
		tallyColumn = "votes_true"
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&row).Error; err != nil {
			return err
		}
		res := tx.Model(&claimTallyModel{}).
			Where("id = ? AND status = ? AND total_votes = ?", row.ClaimID, "voting", expectedTotal).
			Updates(map[string]any{
				tallyColumn:   gorm.Expr(tallyColumn+" + 1"),
				"total_votes": gorm.Expr("total_votes + 1"),
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return domainerrors.ErrVoteConflict
		}
		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrAlreadyVoted
		}
		if errors.Is(err, domainerrors.ErrVoteConflict) {
			return domainerrors.ErrVoteConflict
		}
		return r.logError("vote_repo_record_vote_failed", err,
			"claim_id", row.ClaimID,
			"user_id", row.UserID,
		)
	}
	return nil
}

func (r *Repository) GetVoteByVoter(ctx context.Context, claimID string, userID string) (entities.Vote, bool, error) {
	var row voteModel
	err := r.db.WithContext(ctx).
		Where("claim_id = ? AND user_id = ?", strings.TrimSpace(claimID), strings.TrimSpace(userID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Vote{}, false, nil
		}
		return entities.Vote{}, false, r.logError("vote_repo_get_vote_failed", err,
			"claim_id", strings.TrimSpace(claimID),
			"user_id", strings.TrimSpace(userID),
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) ListVotesByClaim(ctx context.Context, claimID string) ([]entities.Vote, error) {
	var rows []voteModel
	err := r.db.WithContext(ctx).
		Where("claim_id = ?", strings.TrimSpace(claimID)).
		Order("created_at ASC").
		Find(&rows).
		Error
	if err != nil {
		return nil, r.logError("vote_repo_list_votes_failed", err,
			"claim_id", strings.TrimSpace(claimID),
		)
	}
	items := make([]entities.Vote, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) GetVoterByWallet(ctx context.Context, walletAddress string) (ports.Voter, bool, error) {
	var row voterModel
	err := r.db.WithContext(ctx).
		Where("wallet_address = ?", normalizeWallet(walletAddress)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ports.Voter{}, false, nil
		}
		return ports.Voter{}, false, r.logError("vote_repo_get_voter_failed", err,
			"wallet_address", normalizeWallet(walletAddress),
		)
	}
	return row.toProjection(), true, nil
}

func (r *Repository) CreateVoter(ctx context.Context, voter ports.Voter) error {
	row := voterModel{
		ID:            strings.TrimSpace(voter.UserID),
		WalletAddress: normalizeWallet(voter.WalletAddress),
		CreatedAt:     voter.CreatedAt.UTC(),
	}
	if err := r.db.WithContext(ctx).Create(&row).Error; err != nil {
		if isUniqueViolation(err) {
			return domainerrors.ErrVoteConflict
		}
		return r.logError("vote_repo_create_voter_failed", err,
			"user_id", row.ID,
			"wallet_address", row.WalletAddress,
		)
	}
	return nil
}

func (r *Repository) AppendOutbox(ctx context.Context, envelope events.Envelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return r.logError("vote_repo_append_outbox_marshal_failed", err,
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
		return r.logError("vote_repo_append_outbox_failed", err,
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
		"module", "fact-check/voting-engine",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	r.logger.Error("vote repository operation failed", fields...)
	return err
}

type claimTallyModel struct {
	ID           string    `gorm:"column:id;primaryKey"`
	Status       string    `gorm:"column:status"`
	VotingEndsAt time.Time `gorm:"column:voting_ends_at"`
	VotesTrue    int       `gorm:"column:votes_true"`
	VotesFalse   int       `gorm:"column:votes_false"`
	TotalVotes   int       `gorm:"column:total_votes"`
}

func (claimTallyModel) TableName() string {
	return "claims"
}

func (m claimTallyModel) toProjection() ports.ClaimProjection {
	return ports.ClaimProjection{
		ClaimID:      m.ID,
		Status:       m.Status,
		VotingEndsAt: m.VotingEndsAt.UTC(),
		VotesTrue:    m.VotesTrue,
		VotesFalse:   m.VotesFalse,
		TotalVotes:   m.TotalVotes,
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

func voteModelFromEntity(vote entities.Vote) voteModel {
	return voteModel{
		ID:        strings.TrimSpace(vote.VoteID),
		ClaimID:   strings.TrimSpace(vote.ClaimID),
		UserID:    strings.TrimSpace(vote.UserID),
		Decision:  vote.Decision,
		CreatedAt: vote.CreatedAt.UTC(),
	}
}

func (m voteModel) toEntity() entities.Vote {
	return entities.Vote{
		VoteID:    m.ID,
		ClaimID:   m.ClaimID,
		UserID:    m.UserID,
		Decision:  m.Decision,
		CreatedAt: m.CreatedAt.UTC(),
	}
}

type voterModel struct {
	ID            string    `gorm:"column:id;primaryKey"`
	WalletAddress string    `gorm:"column:wallet_address"`
	CreatedAt     time.Time `gorm:"column:created_at"`
}

func (voterModel) TableName() string {
	return "users"
}

func (m voterModel) toProjection() ports.Voter {
	return ports.Voter{
		UserID:        m.ID,
		WalletAddress: m.WalletAddress,
		CreatedAt:     m.CreatedAt.UTC(),
	}
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

var _ ports.VoteRepository = (*Repository)(nil)
var _ ports.VoterDirectory = (*Repository)(nil)
var _ ports.OutboxWriter = (*Repository)(nil)

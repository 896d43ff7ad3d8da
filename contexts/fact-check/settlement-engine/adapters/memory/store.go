package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"validnews/contexts/fact-check/settlement-engine/domain/entities"
	domainerrors "validnews/contexts/fact-check/settlement-engine/domain/errors"
	"validnews/contexts/fact-check/settlement-engine/ports"
	"validnews/internal/shared/events"
	"validnews/internal/shared/outbox"

	"github.com/google/uuid"
)

type ledgerRecord struct {
	Entry     ports.LedgerEntry
	CreatedAt time.Time
}

type Store struct {
	mu sync.RWMutex

	claims           map[string]ports.Claim
	votes            map[string][]ports.VoteRecord
	accounts         map[string]ports.Account
	accountsByWallet map[string]string
	ledger           []ledgerRecord
	outbox           []outbox.Message
}

func NewStore() *Store {
	return &Store{
		claims:           make(map[string]ports.Claim),
		votes:            make(map[string][]ports.VoteRecord),
		accounts:         make(map[string]ports.Account),
		accountsByWallet: make(map[string]string),
	}
}

func (s *Store) SetClaim(claim ports.Claim) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.claims[strings.TrimSpace(claim.ClaimID)] = claim
}

func (s *Store) SetAccount(account ports.Account) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.accounts[strings.TrimSpace(account.UserID)] = account
	s.accountsByWallet[strings.ToLower(strings.TrimSpace(account.WalletAddress))] = strings.TrimSpace(account.UserID)
}

func (s *Store) AddVote(claimID string, vote ports.VoteRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	claimID = strings.TrimSpace(claimID)
	s.votes[claimID] = append(s.votes[claimID], vote)
}

func (s *Store) Claim(claimID string) (ports.Claim, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	claim, ok := s.claims[strings.TrimSpace(claimID)]
	return claim, ok
}

func (s *Store) Account(userID string) (ports.Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	account, ok := s.accounts[strings.TrimSpace(userID)]
	return account, ok
}

func (s *Store) AccountByWallet(wallet string) (ports.Account, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID, ok := s.accountsByWallet[strings.ToLower(strings.TrimSpace(wallet))]
	if !ok {
		return ports.Account{}, false
	}
	return s.accounts[userID], true
}

func (s *Store) LedgerEntries() []ports.LedgerEntry {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]ports.LedgerEntry, 0, len(s.ledger))
	for _, record := range s.ledger {
		items = append(items, record.Entry)
	}
	return items
}

func (s *Store) OutboxMessages() []outbox.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]outbox.Message(nil), s.outbox...)
}

func (s *Store) GetClaim(_ context.Context, claimID string) (ports.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	claim, ok := s.claims[strings.TrimSpace(claimID)]
	if !ok {
		return ports.Claim{}, domainerrors.ErrClaimNotFound
	}
	return claim, nil
}

func (s *Store) MarkTallied(_ context.Context, claimID string, verdict string, talliedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	claimID = strings.TrimSpace(claimID)
	claim, ok := s.claims[claimID]
	if !ok {
		return domainerrors.ErrClaimNotFound
	}
	if claim.Status != entities.ClaimStatusVoting {
		return domainerrors.ErrSettlementConflict
	}
	claim.Status = entities.ClaimStatusTallied
	claim.FinalResult = verdict
	s.claims[claimID] = claim
	return nil
}

func (s *Store) ListVotes(_ context.Context, claimID string) ([]ports.VoteRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := append([]ports.VoteRecord(nil), s.votes[strings.TrimSpace(claimID)]...)
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) GetAccountByWallet(_ context.Context, walletAddress string) (ports.Account, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID, ok := s.accountsByWallet[strings.ToLower(strings.TrimSpace(walletAddress))]
	if !ok {
		return ports.Account{}, false, nil
	}
	return s.accounts[userID], true, nil
}

func (s *Store) CreateAccount(_ context.Context, account ports.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	wallet := strings.ToLower(strings.TrimSpace(account.WalletAddress))
	if _, exists := s.accountsByWallet[wallet]; exists {
		return domainerrors.ErrSettlementConflict
	}
	s.accounts[strings.TrimSpace(account.UserID)] = account
	s.accountsByWallet[wallet] = strings.TrimSpace(account.UserID)
	return nil
}

func (s *Store) ApplyDistribution(_ context.Context, plan ports.DistributionPlan) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	claimID := strings.TrimSpace(plan.ClaimID)
	claim, ok := s.claims[claimID]
	if !ok {
		return domainerrors.ErrClaimNotFound
	}
	if claim.Status != entities.ClaimStatusTallied {
		return domainerrors.ErrSettlementConflict
	}
	claim.Status = entities.ClaimStatusDistributed
	s.claims[claimID] = claim
	for _, entry := range plan.Ledger {
		s.ledger = append(s.ledger, ledgerRecord{Entry: entry, CreatedAt: plan.DistributedAt})
	}
	for _, credit := range plan.Earnings {
		account := s.accounts[strings.TrimSpace(credit.UserID)]
		account.Earnings += credit.Amount
		s.accounts[strings.TrimSpace(credit.UserID)] = account
	}
	for _, change := range plan.Reputation {
		userID := strings.TrimSpace(change.UserID)
		account := s.accounts[userID]
		if change.Delta < 0 && account.ReputationPoints < change.MinCurrent {
			continue
		}
		account.ReputationPoints += change.Delta
		s.accounts[userID] = account
	}
	return nil
}

func (s *Store) ListSettleableClaims(_ context.Context, asOf time.Time, limit int) ([]ports.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]ports.Claim, 0)
	for _, claim := range s.claims {
		expired := claim.Status == entities.ClaimStatusVoting && !asOf.Before(claim.VotingEndsAt)
		if expired || claim.Status == entities.ClaimStatusTallied {
			items = append(items, claim)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].VotingEndsAt.Before(items[j].VotingEndsAt)
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) AppendOutbox(_ context.Context, envelope events.Envelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	payload, err := json.Marshal(envelope)
	if err != nil {
		return err
	}
	s.outbox = append(s.outbox, outbox.Message{
		OutboxID:     envelope.EventID,
		EventType:    envelope.EventType,
		PartitionKey: envelope.PartitionKey,
		Payload:      payload,
		Status:       outbox.StatusPending,
		CreatedAt:    envelope.OccurredAt,
	})
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]outbox.Message, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]outbox.Message, 0)
	for _, message := range s.outbox {
		if message.Status != outbox.StatusPending {
			continue
		}
		items = append(items, message)
		if limit > 0 && len(items) == limit {
			break
		}
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxIDs []string, publishedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make(map[string]struct{}, len(outboxIDs))
	for _, id := range outboxIDs {
		ids[id] = struct{}{}
	}
	for i := range s.outbox {
		if _, ok := ids[s.outbox[i].OutboxID]; ok {
			s.outbox[i].Status = outbox.StatusPublished
			at := publishedAt
			s.outbox[i].PublishedAt = &at
		}
	}
	return nil
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

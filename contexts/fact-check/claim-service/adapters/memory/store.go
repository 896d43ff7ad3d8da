package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"validnews/contexts/fact-check/claim-service/domain/entities"
	domainerrors "validnews/contexts/fact-check/claim-service/domain/errors"
	"validnews/internal/shared/events"
	"validnews/internal/shared/outbox"

	"github.com/google/uuid"
)

type Store struct {
	mu sync.RWMutex

	claims        map[string]entities.Claim
	users         map[string]entities.User
	usersByWallet map[string]string
	transactions  []entities.Transaction
	outbox        []outbox.Message
}

func NewStore() *Store {
	return &Store{
		claims:        make(map[string]entities.Claim),
		users:         make(map[string]entities.User),
		usersByWallet: make(map[string]string),
	}
}

func (s *Store) SetClaim(claim entities.Claim) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.claims[strings.TrimSpace(claim.ClaimID)] = claim
}

func (s *Store) SetUser(user entities.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[strings.TrimSpace(user.UserID)] = user
	s.usersByWallet[strings.ToLower(strings.TrimSpace(user.WalletAddress))] = strings.TrimSpace(user.UserID)
}

func (s *Store) Transactions() []entities.Transaction {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]entities.Transaction(nil), s.transactions...)
}

func (s *Store) User(userID string) (entities.User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	user, ok := s.users[strings.TrimSpace(userID)]
	return user, ok
}

func (s *Store) CreateClaimWithFee(
	_ context.Context,
	claim entities.Claim,
	feeCharge entities.Transaction,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := strings.TrimSpace(claim.ClaimID)
	if _, exists := s.claims[id]; exists {
		return domainerrors.ErrConflict
	}
	s.claims[id] = claim
	s.transactions = append(s.transactions, feeCharge)
	return nil
}

func (s *Store) GetClaim(_ context.Context, claimID string) (entities.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	claim, ok := s.claims[strings.TrimSpace(claimID)]
	if !ok {
		return entities.Claim{}, domainerrors.ErrClaimNotFound
	}
	return claim, nil
}

func (s *Store) ListClaims(_ context.Context, status string, limit int) ([]entities.Claim, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Claim, 0, len(s.claims))
	for _, claim := range s.claims {
		if status != "" && string(claim.Status) != status {
			continue
		}
		items = append(items, claim)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) GetUserByWallet(_ context.Context, walletAddress string) (entities.User, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	userID, ok := s.usersByWallet[strings.ToLower(strings.TrimSpace(walletAddress))]
	if !ok {
		return entities.User{}, false, nil
	}
	return s.users[userID], true, nil
}

func (s *Store) CreateUser(_ context.Context, user entities.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	wallet := strings.ToLower(strings.TrimSpace(user.WalletAddress))
	if _, exists := s.usersByWallet[wallet]; exists {
		return domainerrors.ErrConflict
	}
	s.users[strings.TrimSpace(user.UserID)] = user
	s.usersByWallet[wallet] = strings.TrimSpace(user.UserID)
	return nil
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

func (s *Store) OutboxMessages() []outbox.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]outbox.Message(nil), s.outbox...)
}

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

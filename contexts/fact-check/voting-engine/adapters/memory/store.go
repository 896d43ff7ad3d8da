package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"validnews/contexts/fact-check/voting-engine/domain/entities"
	domainerrors "validnews/contexts/fact-check/voting-engine/domain/errors"
	"validnews/contexts/fact-check/voting-engine/ports"
	"validnews/internal/shared/events"
	"validnews/internal/shared/outbox"

	"github.com/google/uuid"
)

type voteKey struct {
	claimID string
	userID  string
}

type Store struct {
	mu sync.RWMutex

	claims         map[string]ports.ClaimProjection
	voters         map[string]ports.Voter
	votersByWallet map[string]string
	votes          map[voteKey]entities.Vote
	outbox         []outbox.Message
}

func NewStore() *Store {
	return &Store{
		claims:         make(map[string]ports.ClaimProjection),
		voters:         make(map[string]ports.Voter),
		votersByWallet: make(map[string]string),
		votes:          make(map[voteKey]entities.Vote),
	}
}

func (s *Store) SetClaim(claim ports.ClaimProjection) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.claims[strings.TrimSpace(claim.ClaimID)] = claim
}

func (s *Store) SetVoter(voter ports.Voter) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.voters[strings.TrimSpace(voter.UserID)] = voter
	s.votersByWallet[strings.ToLower(strings.TrimSpace(voter.WalletAddress))] = strings.TrimSpace(voter.UserID)
}

func (s *Store) Claim(claimID string) (ports.ClaimProjection, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	claim, ok := s.claims[strings.TrimSpace(claimID)]
	return claim, ok
}

func (s *Store) OutboxMessages() []outbox.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]outbox.Message(nil), s.outbox...)
}

func (s *Store) GetClaim(_ context.Context, claimID string) (ports.ClaimProjection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	claim, ok := s.claims[strings.TrimSpace(claimID)]
	if !ok {
		return ports.ClaimProjection{}, domainerrors.ErrClaimNotFound
	}
	return claim, nil
}

func (s *Store) RecordVote(_ context.Context, vote entities.Vote, expectedTotal int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	claimID := strings.TrimSpace(vote.ClaimID)
	claim, ok := s.claims[claimID]
	if !ok {
		return domainerrors.ErrClaimNotFound
	}
	key := voteKey{claimID: claimID, userID: strings.TrimSpace(vote.UserID)}
	if _, exists := s.votes[key]; exists {
		return domainerrors.ErrAlreadyVoted
	}
	if claim.Status != "voting" || claim.TotalVotes != expectedTotal {
		return domainerrors.ErrVoteConflict
	}
	s.votes[key] = vote
	if vote.Decision {
		claim.VotesTrue++
	} else {
		claim.VotesFalse++
	}
	claim.TotalVotes++
	s.claims[claimID] = claim
	return nil
}

func (s *Store) GetVoteByVoter(_ context.Context, claimID string, userID string) (entities.Vote, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	vote, ok := s.votes[voteKey{claimID: strings.TrimSpace(claimID), userID: strings.TrimSpace(userID)}]
	return vote, ok, nil
}

func (s *Store) ListVotesByClaim(_ context.Context, claimID string) ([]entities.Vote, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	claimID = strings.TrimSpace(claimID)
	items := make([]entities.Vote, 0)
	for key, vote := range s.votes {
		if key.claimID == claimID {
			items = append(items, vote)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) GetVoterByWallet(_ context.Context, walletAddress string) (ports.Voter, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	voterID, ok := s.votersByWallet[strings.ToLower(strings.TrimSpace(walletAddress))]
	if !ok {
		return ports.Voter{}, false, nil
	}
	return s.voters[voterID], true, nil
}

func (s *Store) CreateVoter(_ context.Context, voter ports.Voter) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	wallet := strings.ToLower(strings.TrimSpace(voter.WalletAddress))
	if _, exists := s.votersByWallet[wallet]; exists {
		return domainerrors.ErrVoteConflict
	}
	s.voters[strings.TrimSpace(voter.UserID)] = voter
	s.votersByWallet[wallet] = strings.TrimSpace(voter.UserID)
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

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

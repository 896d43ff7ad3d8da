package entities

import "time"

// Vote is one user's immutable true/false call on a claim. Revotes are
// rejected, not overwritten.
type Vote struct {
	VoteID    string
	ClaimID   string
	UserID    string
	Decision  bool
	CreatedAt time.Time
}

package errors

import "errors"

var (
	ErrInvalidVoteInput = errors.New("invalid vote input")
	ErrClaimNotFound    = errors.New("claim not found")
	ErrVotingClosed     = errors.New("voting is closed for this claim")
	ErrVoteCapReached   = errors.New("vote cap reached for this claim")
	ErrAlreadyVoted     = errors.New("user already voted on this claim")
	ErrVoteConflict     = errors.New("vote conflict")
	ErrVoteNotFound     = errors.New("vote not found")
)

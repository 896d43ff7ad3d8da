package errors

import "errors"

var (
	ErrInvalidSettlementInput = errors.New("invalid settlement input")
	ErrClaimNotFound          = errors.New("claim not found")
	ErrVotingStillOpen        = errors.New("voting window is still open")
	ErrAlreadyTallied         = errors.New("claim already tallied")
	ErrNotTallied             = errors.New("claim has not been tallied")
	ErrAlreadyDistributed     = errors.New("claim rewards already distributed")
	ErrSettlementConflict     = errors.New("settlement conflict")
)

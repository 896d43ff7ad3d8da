package httpserver

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	votingerrors "validnews/contexts/fact-check/voting-engine/domain/errors"
	votinghttp "validnews/contexts/fact-check/voting-engine/transport/http"
)

func (s *Server) handleRecordVote(w http.ResponseWriter, r *http.Request) {
	wallet := strings.TrimSpace(r.Header.Get("X-Wallet-Address"))
	if wallet == "" {
		writeVotingError(w, http.StatusUnauthorized, "missing_wallet", "X-Wallet-Address header is required")
		return
	}

	var req votinghttp.RecordVoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeVotingError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	claimID := r.PathValue("claim_id")
	resp, err := s.voting.Handler.RecordVoteHandler(r.Context(), wallet, claimID, req)
	if err != nil {
		writeVotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleListClaimVotes(w http.ResponseWriter, r *http.Request) {
	claimID := r.PathValue("claim_id")
	resp, err := s.voting.Handler.ListClaimVotesHandler(r.Context(), claimID)
	if err != nil {
		writeVotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGetUserVote(w http.ResponseWriter, r *http.Request) {
	wallet := strings.TrimSpace(r.Header.Get("X-Wallet-Address"))
	if wallet == "" {
		writeVotingError(w, http.StatusUnauthorized, "missing_wallet", "X-Wallet-Address header is required")
		return
	}

	claimID := r.PathValue("claim_id")
	resp, err := s.voting.Handler.GetUserVoteHandler(r.Context(), wallet, claimID)
	if err != nil {
		writeVotingDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeVotingDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, votingerrors.ErrInvalidVoteInput):
		writeVotingError(w, http.StatusBadRequest, "invalid_vote_input", err.Error())
	case errors.Is(err, votingerrors.ErrClaimNotFound):
		writeVotingError(w, http.StatusNotFound, "claim_not_found", err.Error())
	case errors.Is(err, votingerrors.ErrVotingClosed):
		writeVotingError(w, http.StatusConflict, "voting_closed", err.Error())
	case errors.Is(err, votingerrors.ErrVoteCapReached):
		writeVotingError(w, http.StatusConflict, "vote_cap_reached", err.Error())
	case errors.Is(err, votingerrors.ErrAlreadyVoted):
		writeVotingError(w, http.StatusConflict, "already_voted", err.Error())
	case errors.Is(err, votingerrors.ErrVoteConflict):
		writeVotingError(w, http.StatusConflict, "vote_conflict", err.Error())
	case errors.Is(err, votingerrors.ErrVoteNotFound):
		writeVotingError(w, http.StatusNotFound, "vote_not_found", err.Error())
	default:
		writeVotingError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeVotingError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, votinghttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

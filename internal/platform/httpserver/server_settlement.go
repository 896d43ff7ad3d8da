package httpserver

import (
	"errors"
	"net/http"

	settlementerrors "validnews/contexts/fact-check/settlement-engine/domain/errors"
	settlementhttp "validnews/contexts/fact-check/settlement-engine/transport/http"
)

func (s *Server) handleTallyClaim(w http.ResponseWriter, r *http.Request) {
	claimID := r.PathValue("claim_id")
	resp, err := s.settlement.Handler.TallyClaimHandler(r.Context(), claimID)
	if err != nil {
		writeSettlementDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDistribute(w http.ResponseWriter, r *http.Request) {
	claimID := r.PathValue("claim_id")
	resp, err := s.settlement.Handler.DistributeHandler(r.Context(), claimID)
	if err != nil {
		writeSettlementDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSettle(w http.ResponseWriter, r *http.Request) {
	claimID := r.PathValue("claim_id")
	resp, err := s.settlement.Handler.SettleHandler(r.Context(), claimID)
	if err != nil {
		writeSettlementDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeSettlementDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, settlementerrors.ErrInvalidSettlementInput):
		writeSettlementError(w, http.StatusBadRequest, "invalid_settlement_input", err.Error())
	case errors.Is(err, settlementerrors.ErrClaimNotFound):
		writeSettlementError(w, http.StatusNotFound, "claim_not_found", err.Error())
	case errors.Is(err, settlementerrors.ErrVotingStillOpen):
		writeSettlementError(w, http.StatusConflict, "voting_still_open", err.Error())
	case errors.Is(err, settlementerrors.ErrAlreadyTallied):
		writeSettlementError(w, http.StatusConflict, "already_tallied", err.Error())
	case errors.Is(err, settlementerrors.ErrNotTallied):
		writeSettlementError(w, http.StatusConflict, "not_tallied", err.Error())
	case errors.Is(err, settlementerrors.ErrAlreadyDistributed):
		writeSettlementError(w, http.StatusConflict, "already_distributed", err.Error())
	case errors.Is(err, settlementerrors.ErrSettlementConflict):
		writeSettlementError(w, http.StatusConflict, "settlement_conflict", err.Error())
	default:
		writeSettlementError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeSettlementError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, settlementhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

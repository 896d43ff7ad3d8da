package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	claimservice "validnews/contexts/fact-check/claim-service"
	claimerrors "validnews/contexts/fact-check/claim-service/domain/errors"
	claimhttp "validnews/contexts/fact-check/claim-service/transport/http"
	settlementengine "validnews/contexts/fact-check/settlement-engine"
	votingengine "validnews/contexts/fact-check/voting-engine"

	httpSwagger "github.com/swaggo/http-swagger"
)

type Server struct {
	mux        *http.ServeMux
	logger     *slog.Logger
	addr       string
	claims     claimservice.Module
	voting     votingengine.Module
	settlement settlementengine.Module
}

func New(
	claims claimservice.Module,
	voting votingengine.Module,
	settlement settlementengine.Module,
	logger *slog.Logger,
	addr string,
) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	if addr == "" {
		addr = ":8080"
	}

	s := &Server{
		mux:        http.NewServeMux(),
		logger:     logger,
		addr:       addr,
		claims:     claims,
		voting:     voting,
		settlement: settlement,
	}
	s.registerRoutes()
	return s
}

func (s *Server) Start() error {
	s.logger.Info("http server starting",
		"event", "http_server_starting",
		"module", "internal/platform/httpserver",
		"layer", "platform",
		"addr", s.addr,
	)
	return http.ListenAndServe(s.addr, s.mux)
}

// Handler exposes the mux for tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) registerRoutes() {
	s.mux.Handle("/swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	s.mux.HandleFunc("POST /v1/claims", s.handleSubmitClaim)
	s.mux.HandleFunc("GET /v1/claims", s.handleListClaims)
	s.mux.HandleFunc("GET /v1/claims/{claim_id}", s.handleGetClaim)

	s.mux.HandleFunc("POST /v1/claims/{claim_id}/votes", s.handleRecordVote)
	s.mux.HandleFunc("GET /v1/claims/{claim_id}/votes", s.handleListClaimVotes)
	s.mux.HandleFunc("GET /v1/claims/{claim_id}/votes/me", s.handleGetUserVote)

	s.mux.HandleFunc("POST /v1/claims/{claim_id}/tally", s.handleTallyClaim)
	s.mux.HandleFunc("POST /v1/claims/{claim_id}/distribute", s.handleDistribute)
	s.mux.HandleFunc("POST /v1/claims/{claim_id}/settle", s.handleSettle)
}

func (s *Server) handleSubmitClaim(w http.ResponseWriter, r *http.Request) {
	wallet := strings.TrimSpace(r.Header.Get("X-Wallet-Address"))
	if wallet == "" {
		writeClaimError(w, http.StatusUnauthorized, "missing_wallet", "X-Wallet-Address header is required")
		return
	}

	var req claimhttp.SubmitClaimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeClaimError(w, http.StatusBadRequest, "invalid_json", "request body must be valid JSON")
		return
	}

	resp, err := s.claims.Handler.SubmitClaimHandler(r.Context(), wallet, req)
	if err != nil {
		writeClaimDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetClaim(w http.ResponseWriter, r *http.Request) {
	claimID := r.PathValue("claim_id")
	resp, err := s.claims.Handler.GetClaimHandler(r.Context(), claimID)
	if err != nil {
		writeClaimDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListClaims(w http.ResponseWriter, r *http.Request) {
	req := claimhttp.ListClaimsRequest{
		Status: r.URL.Query().Get("status"),
	}
	if limitRaw := r.URL.Query().Get("limit"); limitRaw != "" {
		limit, err := strconv.Atoi(limitRaw)
		if err != nil {
			writeClaimError(w, http.StatusBadRequest, "invalid_limit", "limit must be an integer")
			return
		}
		req.Limit = limit
	}

	resp, err := s.claims.Handler.ListClaimsHandler(r.Context(), req)
	if err != nil {
		writeClaimDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func writeClaimDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, claimerrors.ErrInvalidClaimInput):
		writeClaimError(w, http.StatusBadRequest, "invalid_claim_input", err.Error())
	case errors.Is(err, claimerrors.ErrClaimNotFound):
		writeClaimError(w, http.StatusNotFound, "claim_not_found", err.Error())
	case errors.Is(err, claimerrors.ErrUserNotFound):
		writeClaimError(w, http.StatusNotFound, "user_not_found", err.Error())
	case errors.Is(err, claimerrors.ErrConflict):
		writeClaimError(w, http.StatusConflict, "conflict", err.Error())
	default:
		writeClaimError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeClaimError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, claimhttp.ErrorResponse{
		Code:    code,
		Message: message,
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

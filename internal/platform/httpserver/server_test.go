package httpserver

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	claimservice "validnews/contexts/fact-check/claim-service"
	settlementengine "validnews/contexts/fact-check/settlement-engine"
	settlementports "validnews/contexts/fact-check/settlement-engine/ports"
	votingengine "validnews/contexts/fact-check/voting-engine"
	votingports "validnews/contexts/fact-check/voting-engine/ports"
)

func newTestServer() (*Server, claimservice.Module, votingengine.Module, settlementengine.Module) {
	claims := claimservice.NewInMemoryModule(nil)
	voting := votingengine.NewInMemoryModule(nil)
	settlement := settlementengine.NewInMemoryModule(nil, nil)
	server := New(claims, voting, settlement, nil, ":0")
	return server, claims, voting, settlement
}

func doRequest(t *testing.T, server *Server, method, path, wallet, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if wallet != "" {
		req.Header.Set("X-Wallet-Address", wallet)
	}
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	return rec
}

func TestSubmitClaimEndpoint(t *testing.T) {
	server, _, _, _ := newTestServer()

	rec := doRequest(t, server, http.MethodPost, "/v1/claims", "0xWallet",
		`{"title":"Bridge closure announced for next week"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status %d, want 201: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data struct {
			ClaimID string `json:"claim_id"`
			Status  string `json:"status"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Data.ClaimID == "" || resp.Data.Status != "voting" {
		t.Fatalf("unexpected response: %+v", resp.Data)
	}
}

func TestSubmitClaimRequiresWalletHeader(t *testing.T) {
	server, _, _, _ := newTestServer()

	rec := doRequest(t, server, http.MethodPost, "/v1/claims", "", `{"title":"No wallet"}`)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status %d, want 401", rec.Code)
	}
}

func TestGetClaimNotFoundMapsTo404(t *testing.T) {
	server, _, _, _ := newTestServer()

	rec := doRequest(t, server, http.MethodGet, "/v1/claims/missing", "", "")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status %d, want 404", rec.Code)
	}
	var resp struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if resp.Code != "claim_not_found" {
		t.Fatalf("error code %q, want claim_not_found", resp.Code)
	}
}

func TestRecordVoteEndpoint(t *testing.T) {
	server, _, voting, _ := newTestServer()
	voting.Store.SetClaim(votingports.ClaimProjection{
		ClaimID:      "claim-1",
		Status:       "voting",
		VotingEndsAt: time.Now().UTC().Add(time.Hour),
	})

	rec := doRequest(t, server, http.MethodPost, "/v1/claims/claim-1/votes", "0xVoter", `{"decision":true}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status %d, want 201: %s", rec.Code, rec.Body.String())
	}

	again := doRequest(t, server, http.MethodPost, "/v1/claims/claim-1/votes", "0xVoter", `{"decision":false}`)
	if again.Code != http.StatusConflict {
		t.Fatalf("revote status %d, want 409", again.Code)
	}
	var resp struct {
		Code string `json:"code"`
	}
	if err := json.Unmarshal(again.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode error body: %v", err)
	}
	if resp.Code != "already_voted" {
		t.Fatalf("error code %q, want already_voted", resp.Code)
	}
}

func TestTallyOpenWindowMapsTo409(t *testing.T) {
	server, _, _, settlement := newTestServer()
	settlement.Store.SetClaim(settlementports.Claim{
		ClaimID:       "claim-1",
		SubmissionFee: 1.00,
		VotingEndsAt:  time.Now().UTC().Add(time.Hour),
		Status:        "voting",
	})

	rec := doRequest(t, server, http.MethodPost, "/v1/claims/claim-1/tally", "", "")
	if rec.Code != http.StatusConflict {
		t.Fatalf("status %d, want 409: %s", rec.Code, rec.Body.String())
	}
}

func TestSettleEndpoint(t *testing.T) {
	server, _, _, settlement := newTestServer()
	settlement.Store.SetClaim(settlementports.Claim{
		ClaimID:       "claim-1",
		SubmissionFee: 1.00,
		VotingEndsAt:  time.Now().UTC().Add(-time.Hour),
		Status:        "voting",
		VotesTrue:     2,
		VotesFalse:    1,
		TotalVotes:    3,
	})
	settlement.Store.AddVote("claim-1", settlementports.VoteRecord{UserID: "a", Decision: true, CreatedAt: time.Now().UTC().Add(-2 * time.Hour)})
	settlement.Store.AddVote("claim-1", settlementports.VoteRecord{UserID: "b", Decision: true, CreatedAt: time.Now().UTC().Add(-2 * time.Hour)})
	settlement.Store.AddVote("claim-1", settlementports.VoteRecord{UserID: "c", Decision: false, CreatedAt: time.Now().UTC().Add(-2 * time.Hour)})

	rec := doRequest(t, server, http.MethodPost, "/v1/claims/claim-1/settle", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status %d, want 200: %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		Data struct {
			Verdict     string `json:"verdict"`
			Tallied     bool   `json:"tallied"`
			Distributed bool   `json:"distributed"`
		} `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if !resp.Data.Tallied || !resp.Data.Distributed || resp.Data.Verdict != "true" {
		t.Fatalf("unexpected settle outcome: %+v", resp.Data)
	}
}

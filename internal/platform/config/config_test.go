package config

import (
	"strings"
	"testing"
	"time"
)

func validConfig() Config {
	return Config{
		ServiceName:                "validnews",
		HTTPPort:                   "8080",
		SubmissionFee:              1.00,
		VotingWindow:               24 * time.Hour,
		MaxVotesPerClaim:           20,
		VotersPoolRate:             0.60,
		PlatformFeeRate:            0.40,
		CorrectVoteReputationAward: 2,
		ReputationPenalty:          1,
		ReputationPenaltyFloor:     5,
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	if err := validConfig().Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}
}

func TestValidateRejectsSplitNotSummingToOne(t *testing.T) {
	cfg := validConfig()
	cfg.VotersPoolRate = 0.70
	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for 0.70 + 0.40 split")
	}
	if !strings.Contains(err.Error(), "must equal 1.0") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRejectsNonPositiveFee(t *testing.T) {
	cfg := validConfig()
	cfg.SubmissionFee = 0
	if cfg.Validate() == nil {
		t.Fatal("expected error for zero submission fee")
	}
}

func TestValidateRejectsNonPositiveWindow(t *testing.T) {
	cfg := validConfig()
	cfg.VotingWindow = 0
	if cfg.Validate() == nil {
		t.Fatal("expected error for zero voting window")
	}
}

func TestValidateRejectsNegativeReputationConstants(t *testing.T) {
	cfg := validConfig()
	cfg.ReputationPenalty = -1
	if cfg.Validate() == nil {
		t.Fatal("expected error for negative reputation penalty")
	}
}

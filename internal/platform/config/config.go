package config

import (
	"fmt"
	"math"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config is centralized process configuration. Keep infra values and
// settlement tunables here and pass typed config into builders.
type Config struct {
	ServiceName string `envconfig:"SERVICE_NAME" default:"validnews"`
	HTTPPort    string `envconfig:"HTTP_PORT" default:"8080"`
	PostgresDSN string `envconfig:"POSTGRES_DSN"`

	// Claim lifecycle.
	SubmissionFee    float64       `envconfig:"SUBMISSION_FEE" default:"1.00"`
	VotingWindow     time.Duration `envconfig:"VOTING_WINDOW" default:"24h"`
	MaxVotesPerClaim int           `envconfig:"MAX_VOTES_PER_CLAIM" default:"20"`

	// Fee split. The two rates must sum to 1.0 exactly.
	VotersPoolRate  float64 `envconfig:"VOTERS_POOL_RATE" default:"0.60"`
	PlatformFeeRate float64 `envconfig:"PLATFORM_FEE_RATE" default:"0.40"`

	// Reputation rules.
	CorrectVoteReputationAward int `envconfig:"CORRECT_VOTE_REPUTATION_AWARD" default:"2"`
	ReputationPenalty          int `envconfig:"REPUTATION_PENALTY" default:"1"`
	ReputationPenaltyFloor     int `envconfig:"REPUTATION_PENALTY_FLOOR" default:"5"`

	// Platform account credited with the admin fee.
	PlatformAccountWallet string `envconfig:"PLATFORM_ACCOUNT_WALLET" default:"0x0000000000000000000000000000000000000000"`

	// Worker schedules.
	SettlementSweepSpec string        `envconfig:"SETTLEMENT_SWEEP_SPEC" default:"@every 1m"`
	SweepBatchSize      int           `envconfig:"SWEEP_BATCH_SIZE" default:"50"`
	OutboxBatchSize     int           `envconfig:"OUTBOX_BATCH_SIZE" default:"100"`
	OutboxPollInterval  time.Duration `envconfig:"OUTBOX_POLL_INTERVAL" default:"2s"`
}

func Load() (Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return Config{}, fmt.Errorf("process env config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) Validate() error {
	if c.SubmissionFee <= 0 {
		return fmt.Errorf("SUBMISSION_FEE must be positive, got %v", c.SubmissionFee)
	}
	if c.VotingWindow <= 0 {
		return fmt.Errorf("VOTING_WINDOW must be positive, got %v", c.VotingWindow)
	}
	if c.MaxVotesPerClaim <= 0 {
		return fmt.Errorf("MAX_VOTES_PER_CLAIM must be positive, got %d", c.MaxVotesPerClaim)
	}
	if c.VotersPoolRate < 0 || c.PlatformFeeRate < 0 {
		return fmt.Errorf("fee split rates must be non-negative")
	}
	if math.Abs(c.VotersPoolRate+c.PlatformFeeRate-1.0) > 1e-9 {
		return fmt.Errorf("VOTERS_POOL_RATE + PLATFORM_FEE_RATE must equal 1.0, got %v",
			c.VotersPoolRate+c.PlatformFeeRate)
	}
	if c.CorrectVoteReputationAward < 0 || c.ReputationPenalty < 0 || c.ReputationPenaltyFloor < 0 {
		return fmt.Errorf("reputation constants must be non-negative")
	}
	return nil
}

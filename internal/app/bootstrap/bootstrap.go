package bootstrap

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	claimservice "validnews/contexts/fact-check/claim-service"
	claimpostgres "validnews/contexts/fact-check/claim-service/adapters/postgres"
	settlementengine "validnews/contexts/fact-check/settlement-engine"
	settlementpostgres "validnews/contexts/fact-check/settlement-engine/adapters/postgres"
	settlementworkers "validnews/contexts/fact-check/settlement-engine/application/workers"
	votingengine "validnews/contexts/fact-check/voting-engine"
	votingpostgres "validnews/contexts/fact-check/voting-engine/adapters/postgres"
	"validnews/internal/platform/config"
	"validnews/internal/platform/db"
	"validnews/internal/platform/httpserver"
	"validnews/internal/platform/messaging"
	"validnews/internal/shared/events"

	"github.com/robfig/cron/v3"
)

// Package bootstrap is the composition root.
// Keep construction/wiring here so module code stays framework-agnostic.

type APIApp struct {
	server   *httpserver.Server
	postgres *db.Postgres
	logger   *slog.Logger
}

type WorkerApp struct {
	postgres     *db.Postgres
	bus          *messaging.Bus
	sweep        settlementworkers.SettlementSweep
	outboxRelay  settlementworkers.OutboxRelay
	sweepSpec    string
	pollInterval time.Duration
	logger       *slog.Logger
}

func BuildAPI() (*APIApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "api")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	claimRepo := claimpostgres.NewRepository(pg.DB, logger)
	claimModule := claimservice.NewModule(claimservice.Dependencies{
		Claims:        claimRepo,
		Users:         claimRepo,
		Outbox:        claimRepo,
		Clock:         claimpostgres.SystemClock{},
		IDGen:         claimpostgres.UUIDGenerator{},
		SubmissionFee: cfg.SubmissionFee,
		VotingWindow:  cfg.VotingWindow,
		Logger:        logger,
	})

	votingRepo := votingpostgres.NewRepository(pg.DB, logger)
	votingModule := votingengine.NewModule(votingengine.Dependencies{
		Votes:            votingRepo,
		Voters:           votingRepo,
		Outbox:           votingRepo,
		Clock:            votingpostgres.SystemClock{},
		IDGen:            votingpostgres.UUIDGenerator{},
		MaxVotesPerClaim: cfg.MaxVotesPerClaim,
		Logger:           logger,
	})

	settlementRepo := settlementpostgres.NewRepository(pg.DB, logger)
	settlementModule := settlementengine.NewModule(settlementengine.Dependencies{
		Repo:              settlementRepo,
		Outbox:            settlementRepo,
		Clock:             settlementpostgres.SystemClock{},
		IDGen:             settlementpostgres.UUIDGenerator{},
		VotersPoolRate:    cfg.VotersPoolRate,
		ReputationAward:   cfg.CorrectVoteReputationAward,
		ReputationPenalty: cfg.ReputationPenalty,
		ReputationFloor:   cfg.ReputationPenaltyFloor,
		PlatformWallet:    cfg.PlatformAccountWallet,
		SweepBatchSize:    cfg.SweepBatchSize,
		OutboxBatchSize:   cfg.OutboxBatchSize,
		Logger:            logger,
	})

	server := httpserver.New(claimModule, votingModule, settlementModule, logger, normalizeAddr(cfg.HTTPPort))
	return &APIApp{
		server:   server,
		postgres: pg,
		logger:   logger,
	}, nil
}

func BuildWorker() (*WorkerApp, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	logger := slog.Default().With("service", cfg.ServiceName, "process", "worker")
	if strings.TrimSpace(cfg.PostgresDSN) == "" {
		return nil, errors.New("POSTGRES_DSN is required")
	}

	pg, err := db.Connect(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}

	bus := messaging.NewBus(logger)
	settlementRepo := settlementpostgres.NewRepository(pg.DB, logger)
	settlementModule := settlementengine.NewModule(settlementengine.Dependencies{
		Repo:              settlementRepo,
		Outbox:            settlementRepo,
		Publisher:         bus,
		Clock:             settlementpostgres.SystemClock{},
		IDGen:             settlementpostgres.UUIDGenerator{},
		VotersPoolRate:    cfg.VotersPoolRate,
		ReputationAward:   cfg.CorrectVoteReputationAward,
		ReputationPenalty: cfg.ReputationPenalty,
		ReputationFloor:   cfg.ReputationPenaltyFloor,
		PlatformWallet:    cfg.PlatformAccountWallet,
		SweepBatchSize:    cfg.SweepBatchSize,
		OutboxBatchSize:   cfg.OutboxBatchSize,
		Logger:            logger,
	})

	return &WorkerApp{
		postgres:     pg,
		bus:          bus,
		sweep:        settlementModule.Sweep,
		outboxRelay:  settlementModule.Relay,
		sweepSpec:    cfg.SettlementSweepSpec,
		pollInterval: cfg.OutboxPollInterval,
		logger:       logger,
	}, nil
}

func (a *APIApp) Run(_ context.Context) error {
	if a.logger != nil {
		a.logger.Info("api app started",
			"event", "bootstrap_api_started",
			"module", "internal/app/bootstrap",
			"layer", "platform",
		)
	}
	return a.server.Start()
}

func (a *APIApp) Close() error {
	if a.postgres != nil {
		return a.postgres.Close()
	}
	return nil
}

func (w *WorkerApp) Run(ctx context.Context) error {
	// Settlement events land on the bus for downstream consumers; log them so
	// settlements stay auditable even with no external subscriber attached.
	for _, topic := range []string{"claim.tallied", "claim.distributed"} {
		topic := topic
		err := w.bus.Subscribe(ctx, topic, "settlement-audit-cg", func(_ context.Context, event events.Envelope) error {
			w.logger.Info("settlement event observed",
				"event", "settlement_event_observed",
				"module", "internal/app/bootstrap",
				"layer", "platform",
				"topic", topic,
				"event_id", event.EventID,
				"partition_key", event.PartitionKey,
			)
			return nil
		})
		if err != nil {
			return err
		}
	}

	scheduler := cron.New()
	_, err := scheduler.AddFunc(w.sweepSpec, func() {
		if _, err := w.sweep.RunOnce(ctx); err != nil {
			w.logger.Error("settlement sweep run failed",
				"event", "settlement_sweep_run_failed",
				"module", "internal/app/bootstrap",
				"layer", "platform",
				"error", err.Error(),
			)
		}
	})
	if err != nil {
		return err
	}
	scheduler.Start()
	defer scheduler.Stop()

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.logger.Info("worker app started",
		"event", "bootstrap_worker_started",
		"module", "internal/app/bootstrap",
		"layer", "platform",
		"sweep_spec", w.sweepSpec,
		"poll_interval", w.pollInterval.String(),
	)

	for {
		if _, err := w.outboxRelay.RunOnce(ctx); err != nil {
			return err
		}
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

func (w *WorkerApp) Close() error {
	if w.postgres != nil {
		return w.postgres.Close()
	}
	return nil
}

func normalizeAddr(port string) string {
	value := strings.TrimSpace(port)
	if value == "" {
		return ":8080"
	}
	if strings.HasPrefix(value, ":") {
		return value
	}
	return ":" + value
}

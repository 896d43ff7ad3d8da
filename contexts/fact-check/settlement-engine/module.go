package settlementengine

import (
	"log/slog"

	httpadapter "validnews/contexts/fact-check/settlement-engine/adapters/http"
	"validnews/contexts/fact-check/settlement-engine/adapters/memory"
	"validnews/contexts/fact-check/settlement-engine/application/commands"
	"validnews/contexts/fact-check/settlement-engine/application/workers"
	"validnews/contexts/fact-check/settlement-engine/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Settle  commands.SettleClaimUseCase
	Sweep   workers.SettlementSweep
	Relay   workers.OutboxRelay
	Store   *memory.Store
}

type Dependencies struct {
	Repo              ports.SettlementRepository
	Outbox            ports.OutboxRepository
	Publisher         ports.EventPublisher
	Clock             ports.Clock
	IDGen             ports.IDGenerator
	VotersPoolRate    float64
	ReputationAward   int
	ReputationPenalty int
	ReputationFloor   int
	PlatformWallet    string
	SweepBatchSize    int
	OutboxBatchSize   int
	Logger            *slog.Logger
}

func NewModule(deps Dependencies) Module {
	tally := commands.TallyClaimUseCase{
		Repo:   deps.Repo,
		Outbox: deps.Outbox,
		Clock:  deps.Clock,
		IDGen:  deps.IDGen,
		Logger: deps.Logger,
	}
	distribute := commands.DistributeRewardsUseCase{
		Repo:              deps.Repo,
		Outbox:            deps.Outbox,
		Clock:             deps.Clock,
		IDGen:             deps.IDGen,
		VotersPoolRate:    deps.VotersPoolRate,
		ReputationAward:   deps.ReputationAward,
		ReputationPenalty: deps.ReputationPenalty,
		ReputationFloor:   deps.ReputationFloor,
		PlatformWallet:    deps.PlatformWallet,
		Logger:            deps.Logger,
	}
	settle := commands.SettleClaimUseCase{
		Tally:      tally,
		Distribute: distribute,
		Logger:     deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Tally:      tally,
			Distribute: distribute,
			Settle:     settle,
			Logger:     deps.Logger,
		},
		Settle: settle,
		Sweep: workers.SettlementSweep{
			Repo:      deps.Repo,
			Settle:    settle,
			Clock:     deps.Clock,
			BatchSize: deps.SweepBatchSize,
			Logger:    deps.Logger,
		},
		Relay: workers.OutboxRelay{
			Outbox:    deps.Outbox,
			Publisher: deps.Publisher,
			Clock:     deps.Clock,
			BatchSize: deps.OutboxBatchSize,
			Logger:    deps.Logger,
		},
	}
}

func NewInMemoryModule(logger *slog.Logger, publisher ports.EventPublisher) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Repo:              store,
		Outbox:            store,
		Publisher:         publisher,
		Clock:             store,
		IDGen:             store,
		VotersPoolRate:    0.60,
		ReputationAward:   2,
		ReputationPenalty: 1,
		ReputationFloor:   5,
		PlatformWallet:    "platform",
		SweepBatchSize:    50,
		OutboxBatchSize:   100,
		Logger:            logger,
	})
	module.Store = store
	return module
}

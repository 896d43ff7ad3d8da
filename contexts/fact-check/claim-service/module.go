package claimservice

import (
	"log/slog"
	"time"

	httpadapter "validnews/contexts/fact-check/claim-service/adapters/http"
	"validnews/contexts/fact-check/claim-service/adapters/memory"
	"validnews/contexts/fact-check/claim-service/application/commands"
	"validnews/contexts/fact-check/claim-service/application/queries"
	"validnews/contexts/fact-check/claim-service/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	Claims        ports.ClaimRepository
	Users         ports.UserDirectory
	Outbox        ports.OutboxWriter
	Clock         ports.Clock
	IDGen         ports.IDGenerator
	SubmissionFee float64
	VotingWindow  time.Duration
	Logger        *slog.Logger
}

func NewModule(deps Dependencies) Module {
	submitUseCase := commands.SubmitClaimUseCase{
		Claims:        deps.Claims,
		Users:         deps.Users,
		Outbox:        deps.Outbox,
		Clock:         deps.Clock,
		IDGen:         deps.IDGen,
		SubmissionFee: deps.SubmissionFee,
		VotingWindow:  deps.VotingWindow,
		Logger:        deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Submit:     submitUseCase,
			GetClaim:   queries.GetClaimUseCase{Claims: deps.Claims},
			ListClaims: queries.ListClaimsUseCase{Claims: deps.Claims},
			Logger:     deps.Logger,
		},
	}
}

func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Claims:        store,
		Users:         store,
		Outbox:        store,
		Clock:         store,
		IDGen:         store,
		SubmissionFee: 1.00,
		VotingWindow:  24 * time.Hour,
		Logger:        logger,
	})
	module.Store = store
	return module
}

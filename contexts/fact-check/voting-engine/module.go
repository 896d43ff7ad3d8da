package votingengine

import (
	"log/slog"

	httpadapter "validnews/contexts/fact-check/voting-engine/adapters/http"
	"validnews/contexts/fact-check/voting-engine/adapters/memory"
	"validnews/contexts/fact-check/voting-engine/application/commands"
	"validnews/contexts/fact-check/voting-engine/application/queries"
	"validnews/contexts/fact-check/voting-engine/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Store   *memory.Store
}

type Dependencies struct {
	Votes            ports.VoteRepository
	Voters           ports.VoterDirectory
	Outbox           ports.OutboxWriter
	Clock            ports.Clock
	IDGen            ports.IDGenerator
	MaxVotesPerClaim int
	Logger           *slog.Logger
}

func NewModule(deps Dependencies) Module {
	recordUseCase := commands.RecordVoteUseCase{
		Votes:            deps.Votes,
		Voters:           deps.Voters,
		Outbox:           deps.Outbox,
		Clock:            deps.Clock,
		IDGen:            deps.IDGen,
		MaxVotesPerClaim: deps.MaxVotesPerClaim,
		Logger:           deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Record:      recordUseCase,
			ListVotes:   queries.ListClaimVotesUseCase{Votes: deps.Votes},
			GetTally:    queries.GetTallyUseCase{Votes: deps.Votes},
			GetUserVote: queries.GetUserVoteUseCase{Votes: deps.Votes, Voters: deps.Voters},
			Logger:      deps.Logger,
		},
	}
}

func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Votes:            store,
		Voters:           store,
		Outbox:           store,
		Clock:            store,
		IDGen:            store,
		MaxVotesPerClaim: 20,
		Logger:           logger,
	})
	module.Store = store
	return module
}

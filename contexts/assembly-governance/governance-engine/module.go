package governanceengine

import (
	"log/slog"

	httpadapter "plenum/contexts/assembly-governance/governance-engine/adapters/http"
	"plenum/contexts/assembly-governance/governance-engine/adapters/memory"
	"plenum/contexts/assembly-governance/governance-engine/application/commands"
	"plenum/contexts/assembly-governance/governance-engine/application/queries"
	"plenum/contexts/assembly-governance/governance-engine/application/workers"
	"plenum/contexts/assembly-governance/governance-engine/ports"
)

type Module struct {
	Handler httpadapter.Handler
	Relay   workers.OutboxRelay
	Store   *memory.Store
}

type Dependencies struct {
	Meetings   ports.MeetingRepository
	Motions    ports.MotionRepository
	Members    ports.MemberRepository
	Attendance ports.AttendanceRepository
	Proxies    ports.ProxyRepository
	Ballots    ports.BallotRepository
	UnitOfWork ports.BallotUnitOfWork
	Policies   ports.PolicyRepository
	Audit      ports.AuditSink
	Broadcast  ports.Broadcaster
	Outbox     ports.OutboxRepository
	Publisher  ports.EventPublisher
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	BatchSize  int
	Logger     *slog.Logger
}

func NewModule(deps Dependencies) Module {
	lifecycleUseCase := queries.LifecycleUseCase{
		Meetings:   deps.Meetings,
		Motions:    deps.Motions,
		Attendance: deps.Attendance,
		Logger:     deps.Logger,
	}
	attendanceQueries := queries.AttendanceUseCase{
		Attendance: deps.Attendance,
	}
	ballotUseCase := commands.BallotUseCase{
		Motions:    deps.Motions,
		Members:    deps.Members,
		Attendance: deps.Attendance,
		Proxies:    deps.Proxies,
		Ballots:    deps.Ballots,
		UnitOfWork: deps.UnitOfWork,
		Audit:      deps.Audit,
		Broadcast:  deps.Broadcast,
		Clock:      deps.Clock,
		IDGen:      deps.IDGen,
		Logger:     deps.Logger,
	}
	attendanceUseCase := commands.AttendanceUseCase{
		Meetings:   deps.Meetings,
		Members:    deps.Members,
		Attendance: deps.Attendance,
		Audit:      deps.Audit,
		Broadcast:  deps.Broadcast,
		Clock:      deps.Clock,
		IDGen:      deps.IDGen,
		Logger:     deps.Logger,
	}
	transitionUseCase := commands.TransitionUseCase{
		Meetings:  deps.Meetings,
		Readiness: lifecycleUseCase,
		Audit:     deps.Audit,
		Clock:     deps.Clock,
		IDGen:     deps.IDGen,
		Logger:    deps.Logger,
	}
	tallyUseCase := commands.TallyUseCase{
		Motions:    deps.Motions,
		Members:    deps.Members,
		Attendance: deps.Attendance,
		Ballots:    deps.Ballots,
		Policies:   deps.Policies,
		Audit:      deps.Audit,
		Clock:      deps.Clock,
		IDGen:      deps.IDGen,
		Logger:     deps.Logger,
	}
	return Module{
		Handler: httpadapter.Handler{
			Ballots:           ballotUseCase,
			Attendance:        attendanceUseCase,
			Transitions:       transitionUseCase,
			Tallies:           tallyUseCase,
			Lifecycle:         lifecycleUseCase,
			AttendanceQueries: attendanceQueries,
			Logger:            deps.Logger,
		},
		Relay: workers.OutboxRelay{
			Outbox:    deps.Outbox,
			Publisher: deps.Publisher,
			Clock:     deps.Clock,
			BatchSize: deps.BatchSize,
			Logger:    deps.Logger,
		},
	}
}

func NewInMemoryModule(logger *slog.Logger) Module {
	store := memory.NewStore()
	module := NewModule(Dependencies{
		Meetings:   store,
		Motions:    store,
		Members:    store,
		Attendance: store,
		Proxies:    store,
		Ballots:    store,
		UnitOfWork: store,
		Policies:   store,
		Audit:      store,
		Outbox:     store,
		Clock:      store,
		IDGen:      store,
		Logger:     logger,
	})
	module.Store = store
	return module
}

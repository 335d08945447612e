package ports

import (
	"context"
	"time"

	"plenum/contexts/assembly-governance/governance-engine/domain/entities"
)

type MeetingRepository interface {
	FindByIDForTenant(ctx context.Context, meetingID string, tenantID string) (entities.Meeting, bool, error)
	UpdateStatus(ctx context.Context, meetingID string, tenantID string, status entities.MeetingStatus, validatedAt *time.Time) error
	HasPresident(ctx context.Context, meetingID string, tenantID string) (bool, error)
}

// BallotContext is the combined read the casting engine validates against.
type BallotContext struct {
	Motion  entities.Motion
	Meeting entities.Meeting
}

// OfficialContext is the combined read the tally engine computes from.
type OfficialContext struct {
	Motion  entities.Motion
	Meeting entities.Meeting
}

type MotionRepository interface {
	FindWithBallotContext(ctx context.Context, motionID string) (BallotContext, bool, error)
	FindWithOfficialContext(ctx context.Context, motionID string) (OfficialContext, bool, error)
	CountForMeeting(ctx context.Context, meetingID string, tenantID string) (int, error)
	CountOpenForMeeting(ctx context.Context, meetingID string, tenantID string) (int, error)
	CountClosedForMeeting(ctx context.Context, meetingID string, tenantID string) (int, error)
	CountBadClosedMotions(ctx context.Context, meetingID string, tenantID string) (int, error)
	CountConsolidatedMotions(ctx context.Context, meetingID string, tenantID string) (int, error)
	ListClosedForMeeting(ctx context.Context, meetingID string, tenantID string) ([]entities.Motion, error)
	UpdateOfficialResults(ctx context.Context, motionID string, tenantID string, result entities.OfficialResult) error
}

type MemberRepository interface {
	FindMemberByIDForTenant(ctx context.Context, memberID string, tenantID string) (entities.Member, bool, error)
	CountActive(ctx context.Context, tenantID string) (int, error)
	SumActiveWeight(ctx context.Context, tenantID string) (float64, error)
}

type AttendanceRepository interface {
	IsPresent(ctx context.Context, meetingID string, memberID string, tenantID string) (bool, error)
	IsPresentDirect(ctx context.Context, meetingID string, memberID string, tenantID string) (bool, error)
	Upsert(ctx context.Context, attendance entities.Attendance) (entities.Attendance, bool, error)
	DeleteByMeetingAndMember(ctx context.Context, meetingID string, memberID string) (bool, error)
	ListForMeeting(ctx context.Context, meetingID string) ([]entities.Attendance, error)
	CountPresentOrRemote(ctx context.Context, meetingID string) (int, error)
	SumPresentWeight(ctx context.Context, meetingID string) (float64, error)
	StatsByMode(ctx context.Context, meetingID string) (entities.AttendanceSummary, error)
}

type ProxyRepository interface {
	HasActiveProxy(ctx context.Context, meetingID string, giverID string, receiverID string) (bool, error)
}

type BallotRepository interface {
	FindByMotionAndMember(ctx context.Context, motionID string, memberID string) (entities.Ballot, bool, error)
	Tally(ctx context.Context, motionID string) (entities.VoteTotals, error)
}

// BallotTx is the transactional slice of storage the casting engine uses for
// the lock-then-write step. LockMeeting blocks on the single meeting row.
type BallotTx interface {
	LockMeeting(ctx context.Context, meetingID string, tenantID string) (entities.Meeting, bool, error)
	FindBallot(ctx context.Context, motionID string, memberID string) (entities.Ballot, bool, error)
	UpsertBallot(ctx context.Context, ballot entities.Ballot) error
}

type BallotUnitOfWork interface {
	InTransaction(ctx context.Context, fn func(ctx context.Context, tx BallotTx) error) error
}

type PolicyRepository interface {
	FindVotePolicy(ctx context.Context, policyID string, tenantID string) (entities.VotePolicy, bool, error)
	FindQuorumPolicy(ctx context.Context, policyID string, tenantID string) (entities.QuorumPolicy, bool, error)
}

// EventEnvelope is the canonical event shape for audit and broadcast.
type EventEnvelope struct {
	EventID       string          `json:"event_id"`
	EventType     string          `json:"event_type"`
	OccurredAt    time.Time       `json:"occurred_at"`
	SourceService string          `json:"source_service"`
	TenantID      string          `json:"tenant_id"`
	SchemaVersion int             `json:"schema_version"`
	PartitionKey  string          `json:"partition_key"`
	Data          []byte          `json:"data"`
}

// AuditSink appends tenant-scoped structured events. Callers treat the append
// as fire-and-forget: failures are logged and discarded.
type AuditSink interface {
	Append(ctx context.Context, event EventEnvelope) error
}

// Broadcaster is the best-effort realtime channel. Failures must never reach
// a caller of the primary operation.
type Broadcaster interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type OutboxMessage struct {
	OutboxID     string
	EventType    string
	PartitionKey string
	Payload      []byte
	CreatedAt    time.Time
}

type OutboxRepository interface {
	ListPendingOutbox(ctx context.Context, limit int) ([]OutboxMessage, error)
	MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error
}

type EventPublisher interface {
	Publish(ctx context.Context, topic string, event EventEnvelope) error
}

type Clock interface {
	Now() time.Time
}

type IDGenerator interface {
	NewID(ctx context.Context) (string, error)
}

package memory

import (
	"context"
	"encoding/json"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"plenum/contexts/assembly-governance/governance-engine/domain/entities"
	"plenum/contexts/assembly-governance/governance-engine/ports"
)

type outboxRecord struct {
	message   ports.OutboxMessage
	published bool
}

// Store is the in-memory implementation of every governance port. It backs
// tests and local wiring.
type Store struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	meetings       map[string]entities.Meeting
	motions        map[string]entities.Motion
	members        map[string]entities.Member
	attendance     map[string]entities.Attendance
	proxies        map[string]entities.ProxyDelegation
	ballots        map[string]entities.Ballot
	votePolicies   map[string]entities.VotePolicy
	quorumPolicies map[string]entities.QuorumPolicy
	outbox         map[string]outboxRecord
}

func NewStore() *Store {
	return &Store{
		meetings:       make(map[string]entities.Meeting),
		motions:        make(map[string]entities.Motion),
		members:        make(map[string]entities.Member),
		attendance:     make(map[string]entities.Attendance),
		proxies:        make(map[string]entities.ProxyDelegation),
		ballots:        make(map[string]entities.Ballot),
		votePolicies:   make(map[string]entities.VotePolicy),
		quorumPolicies: make(map[string]entities.QuorumPolicy),
		outbox:         make(map[string]outboxRecord),
	}
}

func attendanceKey(meetingID string, memberID string) string {
	return strings.TrimSpace(meetingID) + "/" + strings.TrimSpace(memberID)
}

func ballotKey(motionID string, memberID string) string {
	return strings.TrimSpace(motionID) + "/" + strings.TrimSpace(memberID)
}

func (s *Store) SetMeeting(meeting entities.Meeting) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.meetings[strings.TrimSpace(meeting.MeetingID)] = meeting
}

func (s *Store) SetMotion(motion entities.Motion) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.motions[strings.TrimSpace(motion.MotionID)] = motion
}

func (s *Store) SetMember(member entities.Member) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.members[strings.TrimSpace(member.MemberID)] = member
}

func (s *Store) SetProxyDelegation(delegation entities.ProxyDelegation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.proxies[strings.TrimSpace(delegation.DelegationID)] = delegation
}

func (s *Store) SetVotePolicy(policy entities.VotePolicy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.votePolicies[strings.TrimSpace(policy.PolicyID)] = policy
}

func (s *Store) SetQuorumPolicy(policy entities.QuorumPolicy) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.quorumPolicies[strings.TrimSpace(policy.PolicyID)] = policy
}

func (s *Store) GetMeeting(meetingID string) (entities.Meeting, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	meeting, ok := s.meetings[strings.TrimSpace(meetingID)]
	return meeting, ok
}

func (s *Store) GetMotion(motionID string) (entities.Motion, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	motion, ok := s.motions[strings.TrimSpace(motionID)]
	return motion, ok
}

func (s *Store) GetBallot(motionID string, memberID string) (entities.Ballot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ballot, ok := s.ballots[ballotKey(motionID, memberID)]
	return ballot, ok
}

// --- ports.MeetingRepository ---

func (s *Store) FindByIDForTenant(_ context.Context, meetingID string, tenantID string) (entities.Meeting, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	meeting, ok := s.meetings[strings.TrimSpace(meetingID)]
	if !ok || meeting.TenantID != strings.TrimSpace(tenantID) {
		return entities.Meeting{}, false, nil
	}
	return meeting, true, nil
}

func (s *Store) UpdateStatus(
	_ context.Context,
	meetingID string,
	tenantID string,
	status entities.MeetingStatus,
	validatedAt *time.Time,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	meeting, ok := s.meetings[strings.TrimSpace(meetingID)]
	if !ok || meeting.TenantID != strings.TrimSpace(tenantID) {
		return nil
	}
	meeting.Status = status
	if validatedAt != nil {
		stamp := validatedAt.UTC()
		meeting.ValidatedAt = &stamp
	}
	meeting.UpdatedAt = time.Now().UTC()
	s.meetings[strings.TrimSpace(meetingID)] = meeting
	return nil
}

func (s *Store) HasPresident(_ context.Context, meetingID string, tenantID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	meeting, ok := s.meetings[strings.TrimSpace(meetingID)]
	if !ok || meeting.TenantID != strings.TrimSpace(tenantID) {
		return false, nil
	}
	return strings.TrimSpace(meeting.PresidentID) != "", nil
}

// --- ports.MotionRepository ---

func (s *Store) FindWithBallotContext(_ context.Context, motionID string) (ports.BallotContext, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	motion, ok := s.motions[strings.TrimSpace(motionID)]
	if !ok {
		return ports.BallotContext{}, false, nil
	}
	meeting, ok := s.meetings[motion.MeetingID]
	if !ok {
		return ports.BallotContext{}, false, nil
	}
	return ports.BallotContext{Motion: motion, Meeting: meeting}, true, nil
}

func (s *Store) FindWithOfficialContext(_ context.Context, motionID string) (ports.OfficialContext, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	motion, ok := s.motions[strings.TrimSpace(motionID)]
	if !ok {
		return ports.OfficialContext{}, false, nil
	}
	meeting, ok := s.meetings[motion.MeetingID]
	if !ok {
		return ports.OfficialContext{}, false, nil
	}
	return ports.OfficialContext{Motion: motion, Meeting: meeting}, true, nil
}

func (s *Store) CountForMeeting(_ context.Context, meetingID string, tenantID string) (int, error) {
	return s.countMotions(meetingID, tenantID, func(entities.Motion) bool { return true }), nil
}

func (s *Store) CountOpenForMeeting(_ context.Context, meetingID string, tenantID string) (int, error) {
	return s.countMotions(meetingID, tenantID, entities.Motion.IsOpen), nil
}

func (s *Store) CountClosedForMeeting(_ context.Context, meetingID string, tenantID string) (int, error) {
	return s.countMotions(meetingID, tenantID, entities.Motion.IsClosed), nil
}

func (s *Store) CountBadClosedMotions(_ context.Context, meetingID string, tenantID string) (int, error) {
	return s.countMotions(meetingID, tenantID, entities.Motion.HasDisqualifyingResult), nil
}

func (s *Store) CountConsolidatedMotions(_ context.Context, meetingID string, tenantID string) (int, error) {
	return s.countMotions(meetingID, tenantID, func(m entities.Motion) bool {
		return m.IsClosed() && m.Official.Computed()
	}), nil
}

func (s *Store) ListClosedForMeeting(_ context.Context, meetingID string, tenantID string) ([]entities.Motion, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Motion, 0)
	for _, motion := range s.motions {
		if motion.MeetingID == strings.TrimSpace(meetingID) &&
			motion.TenantID == strings.TrimSpace(tenantID) &&
			motion.IsClosed() {
			items = append(items, motion)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	return items, nil
}

func (s *Store) UpdateOfficialResults(
	_ context.Context,
	motionID string,
	tenantID string,
	result entities.OfficialResult,
) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	motion, ok := s.motions[strings.TrimSpace(motionID)]
	if !ok || motion.TenantID != strings.TrimSpace(tenantID) {
		return nil
	}
	motion.Official = result
	motion.UpdatedAt = time.Now().UTC()
	s.motions[strings.TrimSpace(motionID)] = motion
	return nil
}

func (s *Store) countMotions(meetingID string, tenantID string, match func(entities.Motion) bool) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, motion := range s.motions {
		if motion.MeetingID != strings.TrimSpace(meetingID) || motion.TenantID != strings.TrimSpace(tenantID) {
			continue
		}
		if match(motion) {
			count++
		}
	}
	return count
}

// --- ports.MemberRepository ---

func (s *Store) FindMemberByIDForTenant(_ context.Context, memberID string, tenantID string) (entities.Member, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	member, ok := s.members[strings.TrimSpace(memberID)]
	if !ok || member.TenantID != strings.TrimSpace(tenantID) {
		return entities.Member{}, false, nil
	}
	return member, true, nil
}

func (s *Store) CountActive(_ context.Context, tenantID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, member := range s.members {
		if member.TenantID == strings.TrimSpace(tenantID) && member.Active {
			count++
		}
	}
	return count, nil
}

func (s *Store) SumActiveWeight(_ context.Context, tenantID string) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sum := 0.0
	for _, member := range s.members {
		if member.TenantID == strings.TrimSpace(tenantID) && member.Active {
			sum += member.EffectivePower()
		}
	}
	return sum, nil
}

// --- ports.AttendanceRepository ---

func (s *Store) IsPresent(_ context.Context, meetingID string, memberID string, tenantID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.attendance[attendanceKey(meetingID, memberID)]
	return ok && row.TenantID == strings.TrimSpace(tenantID) && row.Mode.Attending(), nil
}

func (s *Store) IsPresentDirect(_ context.Context, meetingID string, memberID string, tenantID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	row, ok := s.attendance[attendanceKey(meetingID, memberID)]
	return ok && row.TenantID == strings.TrimSpace(tenantID) && row.Mode.Direct(), nil
}

func (s *Store) Upsert(_ context.Context, attendance entities.Attendance) (entities.Attendance, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := attendanceKey(attendance.MeetingID, attendance.MemberID)
	if existing, ok := s.attendance[key]; ok {
		attendance.CreatedAt = existing.CreatedAt
	}
	s.attendance[key] = attendance
	return attendance, true, nil
}

func (s *Store) DeleteByMeetingAndMember(_ context.Context, meetingID string, memberID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := attendanceKey(meetingID, memberID)
	_, ok := s.attendance[key]
	delete(s.attendance, key)
	return ok, nil
}

func (s *Store) ListForMeeting(_ context.Context, meetingID string) ([]entities.Attendance, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	items := make([]entities.Attendance, 0)
	for _, row := range s.attendance {
		if row.MeetingID == strings.TrimSpace(meetingID) {
			items = append(items, row)
		}
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].MemberID < items[j].MemberID
	})
	return items, nil
}

func (s *Store) CountPresentOrRemote(_ context.Context, meetingID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	count := 0
	for _, row := range s.attendance {
		if row.MeetingID == strings.TrimSpace(meetingID) && row.Mode.Direct() {
			count++
		}
	}
	return count, nil
}

func (s *Store) SumPresentWeight(_ context.Context, meetingID string) (float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sum := 0.0
	for _, row := range s.attendance {
		if row.MeetingID == strings.TrimSpace(meetingID) && row.Mode.Attending() {
			sum += row.EffectivePower
		}
	}
	return sum, nil
}

func (s *Store) StatsByMode(_ context.Context, meetingID string) (entities.AttendanceSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[entities.AttendanceMode]int)
	weights := make(map[entities.AttendanceMode]float64)
	summary := entities.AttendanceSummary{MeetingID: strings.TrimSpace(meetingID)}
	for _, row := range s.attendance {
		if row.MeetingID != strings.TrimSpace(meetingID) {
			continue
		}
		counts[row.Mode]++
		weights[row.Mode] += row.EffectivePower
		summary.TotalCount++
		if row.Mode.Attending() {
			summary.PresentWeight += row.EffectivePower
		}
	}
	for _, mode := range []entities.AttendanceMode{
		entities.AttendanceModePresent,
		entities.AttendanceModeRemote,
		entities.AttendanceModeProxy,
		entities.AttendanceModeExcused,
	} {
		if counts[mode] == 0 {
			continue
		}
		summary.Modes = append(summary.Modes, entities.AttendanceModeStats{
			Mode:   mode,
			Count:  counts[mode],
			Weight: weights[mode],
		})
	}
	return summary, nil
}

// --- ports.ProxyRepository ---

func (s *Store) HasActiveProxy(_ context.Context, meetingID string, giverID string, receiverID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, delegation := range s.proxies {
		if delegation.MeetingID == strings.TrimSpace(meetingID) &&
			delegation.GiverID == strings.TrimSpace(giverID) &&
			delegation.ReceiverID == strings.TrimSpace(receiverID) &&
			delegation.Active {
			return true, nil
		}
	}
	return false, nil
}

// --- ports.BallotRepository ---

func (s *Store) FindByMotionAndMember(_ context.Context, motionID string, memberID string) (entities.Ballot, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ballot, ok := s.ballots[ballotKey(motionID, memberID)]
	return ballot, ok, nil
}

func (s *Store) Tally(_ context.Context, motionID string) (entities.VoteTotals, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	totals := entities.VoteTotals{}
	for _, ballot := range s.ballots {
		if ballot.MotionID != strings.TrimSpace(motionID) {
			continue
		}
		totals.Total += ballot.Weight
		switch ballot.Value {
		case entities.BallotValueFor:
			totals.For += ballot.Weight
		case entities.BallotValueAgainst:
			totals.Against += ballot.Weight
		case entities.BallotValueAbstain:
			totals.Abstain += ballot.Weight
		}
	}
	return totals, nil
}

// --- ports.BallotUnitOfWork ---

// InTransaction serializes transactional work under a dedicated mutex,
// mirroring the single-row lock semantics of the SQL adapter.
func (s *Store) InTransaction(ctx context.Context, fn func(ctx context.Context, tx ports.BallotTx) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	return fn(ctx, ballotTx{store: s})
}

type ballotTx struct {
	store *Store
}

func (tx ballotTx) LockMeeting(ctx context.Context, meetingID string, tenantID string) (entities.Meeting, bool, error) {
	return tx.store.FindByIDForTenant(ctx, meetingID, tenantID)
}

func (tx ballotTx) FindBallot(ctx context.Context, motionID string, memberID string) (entities.Ballot, bool, error) {
	return tx.store.FindByMotionAndMember(ctx, motionID, memberID)
}

func (tx ballotTx) UpsertBallot(_ context.Context, ballot entities.Ballot) error {
	tx.store.mu.Lock()
	defer tx.store.mu.Unlock()
	tx.store.ballots[ballotKey(ballot.MotionID, ballot.MemberID)] = ballot
	return nil
}

// --- ports.PolicyRepository ---

func (s *Store) FindVotePolicy(_ context.Context, policyID string, tenantID string) (entities.VotePolicy, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	policy, ok := s.votePolicies[strings.TrimSpace(policyID)]
	if !ok || policy.TenantID != strings.TrimSpace(tenantID) {
		return entities.VotePolicy{}, false, nil
	}
	return policy, true, nil
}

func (s *Store) FindQuorumPolicy(_ context.Context, policyID string, tenantID string) (entities.QuorumPolicy, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	policy, ok := s.quorumPolicies[strings.TrimSpace(policyID)]
	if !ok || policy.TenantID != strings.TrimSpace(tenantID) {
		return entities.QuorumPolicy{}, false, nil
	}
	return policy, true, nil
}

// --- ports.AuditSink / ports.OutboxRepository ---

func (s *Store) Append(_ context.Context, event ports.EventEnvelope) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	outboxID := strings.TrimSpace(event.EventID)
	if outboxID == "" {
		outboxID = uuid.NewString()
	}
	createdAt := event.OccurredAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	event.EventID = outboxID
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	s.outbox[outboxID] = outboxRecord{
		message: ports.OutboxMessage{
			OutboxID:     outboxID,
			EventType:    strings.TrimSpace(event.EventType),
			PartitionKey: strings.TrimSpace(event.PartitionKey),
			Payload:      payload,
			CreatedAt:    createdAt,
		},
	}
	return nil
}

func (s *Store) ListPendingOutbox(_ context.Context, limit int) ([]ports.OutboxMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if limit <= 0 {
		limit = 100
	}
	items := make([]ports.OutboxMessage, 0, len(s.outbox))
	for _, row := range s.outbox {
		if row.published {
			continue
		}
		items = append(items, row.message)
	}
	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.Before(items[j].CreatedAt)
	})
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}

func (s *Store) MarkOutboxPublished(_ context.Context, outboxID string, _ time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	row, ok := s.outbox[strings.TrimSpace(outboxID)]
	if !ok {
		return nil
	}
	row.published = true
	s.outbox[strings.TrimSpace(outboxID)] = row
	return nil
}

// --- ports.Clock / ports.IDGenerator ---

func (s *Store) Now() time.Time {
	return time.Now().UTC()
}

func (s *Store) NewID(_ context.Context) (string, error) {
	return uuid.NewString(), nil
}

var _ ports.MeetingRepository = (*Store)(nil)
var _ ports.MotionRepository = (*Store)(nil)
var _ ports.MemberRepository = (*Store)(nil)
var _ ports.AttendanceRepository = (*Store)(nil)
var _ ports.ProxyRepository = (*Store)(nil)
var _ ports.BallotRepository = (*Store)(nil)
var _ ports.BallotUnitOfWork = (*Store)(nil)
var _ ports.PolicyRepository = (*Store)(nil)
var _ ports.AuditSink = (*Store)(nil)
var _ ports.OutboxRepository = (*Store)(nil)
var _ ports.Clock = (*Store)(nil)
var _ ports.IDGenerator = (*Store)(nil)
var _ ports.BallotTx = ballotTx{}

package commands

import (
	"context"
	"log/slog"
	"strings"
	"time"

	application "plenum/contexts/assembly-governance/governance-engine/application"
	"plenum/contexts/assembly-governance/governance-engine/domain/entities"
	domainerrors "plenum/contexts/assembly-governance/governance-engine/domain/errors"
	"plenum/contexts/assembly-governance/governance-engine/ports"
)

// TallyUseCase turns raw ballots or manual counts into the official,
// policy-evaluated result of a motion, and consolidates whole meetings.
type TallyUseCase struct {
	Motions    ports.MotionRepository
	Members    ports.MemberRepository
	Attendance ports.AttendanceRepository
	Ballots    ports.BallotRepository
	Policies   ports.PolicyRepository
	Audit      ports.AuditSink
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

// ComputeOfficialTallies evaluates a motion without persisting anything.
// Manual counts win when internally consistent; the electronic aggregate is
// the fallback.
func (uc TallyUseCase) ComputeOfficialTallies(
	ctx context.Context,
	tenant entities.TenantContext,
	motionID string,
) (entities.OfficialResult, error) {
	motionID = strings.TrimSpace(motionID)
	if motionID == "" {
		return entities.OfficialResult{}, domainerrors.ErrMotionIDRequired
	}

	octx, found, err := uc.Motions.FindWithOfficialContext(ctx, motionID)
	if err != nil {
		return entities.OfficialResult{}, err
	}
	if !found || octx.Meeting.TenantID != strings.TrimSpace(tenant.TenantID) {
		return entities.OfficialResult{}, domainerrors.ErrMotionNotFound
	}
	motion := octx.Motion
	meeting := octx.Meeting

	electronic, err := uc.Ballots.Tally(ctx, motionID)
	if err != nil {
		return entities.OfficialResult{}, err
	}
	source := entities.SelectTallySource(motion, electronic)

	votePolicy, err := uc.resolveVotePolicy(ctx, motion, meeting)
	if err != nil {
		return entities.OfficialResult{}, err
	}
	quorumPolicy, err := uc.resolveQuorumPolicy(ctx, motion, meeting)
	if err != nil {
		return entities.OfficialResult{}, err
	}

	eligible, err := uc.Members.CountActive(ctx, meeting.TenantID)
	if err != nil {
		return entities.OfficialResult{}, err
	}
	presentWeight, err := uc.Attendance.SumPresentWeight(ctx, meeting.MeetingID)
	if err != nil {
		return entities.OfficialResult{}, err
	}

	outcome := entities.EvaluateDecision(source.Totals, quorumPolicy, votePolicy, entities.DecisionContext{
		EligibleMembers: float64(eligible),
		PresentWeight:   presentWeight,
	})

	now := uc.now()
	return entities.OfficialResult{
		Source:     source.Kind,
		For:        source.Totals.For,
		Against:    source.Totals.Against,
		Abstain:    source.Totals.Abstain,
		Total:      source.Totals.Total,
		Decision:   outcome.Decision,
		Reason:     outcome.Reason,
		ComputedAt: &now,
	}, nil
}

// ComputeAndPersistMotion computes the official result and writes it back to
// the motion record. Safe to call repeatedly.
func (uc TallyUseCase) ComputeAndPersistMotion(
	ctx context.Context,
	tenant entities.TenantContext,
	motionID string,
) (entities.OfficialResult, error) {
	logger := application.ResolveLogger(uc.Logger)
	result, err := uc.ComputeOfficialTallies(ctx, tenant, motionID)
	if err != nil {
		return entities.OfficialResult{}, err
	}
	motionID = strings.TrimSpace(motionID)
	if err := uc.Motions.UpdateOfficialResults(ctx, motionID, tenant.TenantID, result); err != nil {
		return entities.OfficialResult{}, err
	}

	now := uc.now()
	appendAuditEvent(ctx, logger, uc.Audit, uc.IDGen, "governance.official_result_computed", tenant.TenantID, motionID, now, map[string]any{
		"motion_id": motionID,
		"source":    string(result.Source),
		"decision":  string(result.Decision),
		"for":       result.For,
		"against":   result.Against,
		"abstain":   result.Abstain,
		"total":     result.Total,
	})
	logger.Info("official result persisted",
		"event", "governance_official_result_persisted",
		"module", "assembly-governance/governance-engine",
		"layer", "application",
		"motion_id", motionID,
		"source", string(result.Source),
		"decision", string(result.Decision),
	)
	return result, nil
}

// ConsolidateMeeting recomputes and persists the official result of every
// closed motion of the meeting. Returns the number of motions updated; zero
// when none are closed.
func (uc TallyUseCase) ConsolidateMeeting(
	ctx context.Context,
	tenant entities.TenantContext,
	meetingID string,
) (int, error) {
	logger := application.ResolveLogger(uc.Logger)
	meetingID = strings.TrimSpace(meetingID)
	if meetingID == "" {
		return 0, domainerrors.ErrMeetingIDRequired
	}

	closed, err := uc.Motions.ListClosedForMeeting(ctx, meetingID, tenant.TenantID)
	if err != nil {
		return 0, err
	}
	updated := 0
	for _, motion := range closed {
		if _, err := uc.ComputeAndPersistMotion(ctx, tenant, motion.MotionID); err != nil {
			return updated, err
		}
		updated++
	}

	now := uc.now()
	appendAuditEvent(ctx, logger, uc.Audit, uc.IDGen, "governance.meeting_consolidated", tenant.TenantID, meetingID, now, map[string]any{
		"meeting_id": meetingID,
		"updated":    updated,
	})
	logger.Info("meeting consolidated",
		"event", "governance_meeting_consolidated",
		"module", "assembly-governance/governance-engine",
		"layer", "application",
		"meeting_id", meetingID,
		"updated", updated,
	)
	return updated, nil
}

// resolveVotePolicy walks the explicit fallback chain: motion-level policy,
// then meeting-level, then the implicit default.
func (uc TallyUseCase) resolveVotePolicy(
	ctx context.Context,
	motion entities.Motion,
	meeting entities.Meeting,
) (entities.VotePolicy, error) {
	for _, policyID := range []string{motion.VotePolicyID, meeting.VotePolicyID} {
		if strings.TrimSpace(policyID) == "" {
			continue
		}
		policy, found, err := uc.Policies.FindVotePolicy(ctx, policyID, meeting.TenantID)
		if err != nil {
			return entities.VotePolicy{}, err
		}
		if found {
			return policy, nil
		}
	}
	return entities.DefaultVotePolicy(), nil
}

// resolveQuorumPolicy walks motion-level then meeting-level; nil means no
// quorum requirement applies.
func (uc TallyUseCase) resolveQuorumPolicy(
	ctx context.Context,
	motion entities.Motion,
	meeting entities.Meeting,
) (*entities.QuorumPolicy, error) {
	for _, policyID := range []string{motion.QuorumPolicyID, meeting.QuorumPolicyID} {
		if strings.TrimSpace(policyID) == "" {
			continue
		}
		policy, found, err := uc.Policies.FindQuorumPolicy(ctx, policyID, meeting.TenantID)
		if err != nil {
			return nil, err
		}
		if found {
			return &policy, nil
		}
	}
	return nil, nil
}

func (uc TallyUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	application "plenum/contexts/assembly-governance/governance-engine/application"
	"plenum/contexts/assembly-governance/governance-engine/application/queries"
	"plenum/contexts/assembly-governance/governance-engine/domain/entities"
	domainerrors "plenum/contexts/assembly-governance/governance-engine/domain/errors"
	"plenum/contexts/assembly-governance/governance-engine/ports"
)

// TransitionUseCase commits sanctioned lifecycle transitions. Evaluation is
// delegated to the readiness query; a blocked transition never mutates the
// meeting.
type TransitionUseCase struct {
	Meetings  ports.MeetingRepository
	Readiness queries.LifecycleUseCase
	Audit     ports.AuditSink
	Clock     ports.Clock
	IDGen     ports.IDGenerator
	Logger    *slog.Logger
}

type ApplyTransitionResult struct {
	From  entities.MeetingStatus
	To    entities.MeetingStatus
	Check queries.TransitionCheck
}

func (uc TransitionUseCase) ApplyTransition(
	ctx context.Context,
	tenant entities.TenantContext,
	meetingID string,
	targetRaw string,
) (ApplyTransitionResult, error) {
	logger := application.ResolveLogger(uc.Logger)

	meetingID = strings.TrimSpace(meetingID)
	if meetingID == "" {
		return ApplyTransitionResult{}, domainerrors.ErrMeetingIDRequired
	}
	target, ok := entities.ParseMeetingStatus(targetRaw)
	if !ok {
		return ApplyTransitionResult{}, domainerrors.ErrInvalidTargetStatus
	}

	meeting, found, err := uc.Meetings.FindByIDForTenant(ctx, meetingID, tenant.TenantID)
	if err != nil {
		return ApplyTransitionResult{}, err
	}
	if !found {
		return ApplyTransitionResult{}, domainerrors.ErrMeetingNotFound
	}

	check, err := uc.Readiness.IssuesBeforeTransition(ctx, tenant, meetingID, target, nil)
	if err != nil {
		return ApplyTransitionResult{}, err
	}
	result := ApplyTransitionResult{From: meeting.Status, To: target, Check: check}
	if !check.CanProceed {
		code := ""
		if len(check.Issues) > 0 {
			code = check.Issues[0].Code
		}
		return result, fmt.Errorf("%w (%s)", domainerrors.ErrTransitionBlocked, code)
	}

	now := uc.now()
	var validatedAt *time.Time
	if target == entities.MeetingStatusValidated {
		validatedAt = &now
	}
	if err := uc.Meetings.UpdateStatus(ctx, meetingID, tenant.TenantID, target, validatedAt); err != nil {
		return result, err
	}

	appendAuditEvent(ctx, logger, uc.Audit, uc.IDGen, "governance.meeting_status_changed", tenant.TenantID, meetingID, now, map[string]any{
		"meeting_id":  meetingID,
		"from_status": string(meeting.Status),
		"to_status":   string(target),
	})
	logger.Info("meeting status changed",
		"event", "governance_meeting_status_changed",
		"module", "assembly-governance/governance-engine",
		"layer", "application",
		"meeting_id", meetingID,
		"from_status", string(meeting.Status),
		"to_status", string(target),
	)
	return result, nil
}

func (uc TransitionUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}

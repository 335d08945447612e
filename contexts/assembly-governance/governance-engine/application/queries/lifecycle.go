package queries

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"plenum/contexts/assembly-governance/governance-engine/domain/entities"
	domainerrors "plenum/contexts/assembly-governance/governance-engine/domain/errors"
	"plenum/contexts/assembly-governance/governance-engine/ports"
)

const (
	IssueArchivedImmutable = "archived_immutable"
	IssueNoMotions         = "no_motions"
	IssueNoAttendance      = "no_attendance"
	IssueMotionOpen        = "motion_open"
	IssueBadResults        = "bad_results"
	WarningNoPresident     = "no_president"
	WarningNotConsolidated = "not_consolidated"
)

type TransitionIssue struct {
	Code    string
	Message string
}

type TransitionCheck struct {
	CanProceed bool
	Issues     []TransitionIssue
	Warnings   []TransitionIssue
}

type TransitionReadiness struct {
	CurrentStatus entities.MeetingStatus
	Transitions   map[entities.MeetingStatus]TransitionCheck
}

// LifecycleUseCase evaluates whether a meeting may move between lifecycle
// states. It never mutates anything; all helper queries are read-only
// projections.
type LifecycleUseCase struct {
	Meetings   ports.MeetingRepository
	Motions    ports.MotionRepository
	Attendance ports.AttendanceRepository
	Logger     *slog.Logger
}

// IssuesBeforeTransition returns the blocking issues and non-blocking
// warnings for moving the meeting to target. fromOverride, when non-nil,
// replaces the stored status for rule selection.
func (uc LifecycleUseCase) IssuesBeforeTransition(
	ctx context.Context,
	tenant entities.TenantContext,
	meetingID string,
	target entities.MeetingStatus,
	fromOverride *entities.MeetingStatus,
) (TransitionCheck, error) {
	meeting, found, err := uc.Meetings.FindByIDForTenant(ctx, strings.TrimSpace(meetingID), tenant.TenantID)
	if err != nil {
		return TransitionCheck{}, err
	}
	if !found {
		return TransitionCheck{}, domainerrors.ErrMeetingNotFound
	}

	effective := meeting.Status
	if fromOverride != nil {
		effective = *fromOverride
	}
	if effective.IsTerminal() {
		return TransitionCheck{
			Issues: []TransitionIssue{{
				Code:    IssueArchivedImmutable,
				Message: "La séance est archivée et ne peut plus changer de statut",
			}},
		}, nil
	}

	check := TransitionCheck{CanProceed: true}
	switch {
	case effective == entities.MeetingStatusDraft && target == entities.MeetingStatusScheduled:
		hasMotions, err := uc.hasMotions(ctx, meeting)
		if err != nil {
			return TransitionCheck{}, err
		}
		if !hasMotions {
			check.block(IssueNoMotions, "Aucune motion n'est associée à la séance")
		}

	case effective == entities.MeetingStatusScheduled && target == entities.MeetingStatusFrozen:
		hasAttendance, err := uc.hasAttendance(ctx, meeting)
		if err != nil {
			return TransitionCheck{}, err
		}
		if !hasAttendance {
			check.block(IssueNoAttendance, "Aucune présence enregistrée (présent ou à distance)")
			break
		}
		hasPresident, err := uc.hasPresident(ctx, meeting)
		if err != nil {
			return TransitionCheck{}, err
		}
		if !hasPresident {
			check.warn(WarningNoPresident, "Aucun président de séance désigné")
		}

	case effective == entities.MeetingStatusLive && target == entities.MeetingStatusPaused:
		open, err := uc.countOpenMotions(ctx, meeting)
		if err != nil {
			return TransitionCheck{}, err
		}
		if open > 0 {
			check.block(IssueMotionOpen, fmt.Sprintf(
				"Impossible de mettre en pause : %d motion(s) encore ouverte(s) au vote", open))
		}

	case (effective == entities.MeetingStatusLive || effective == entities.MeetingStatusPaused) &&
		target == entities.MeetingStatusClosed:
		open, err := uc.countOpenMotions(ctx, meeting)
		if err != nil {
			return TransitionCheck{}, err
		}
		if open > 0 {
			check.block(IssueMotionOpen, fmt.Sprintf("%d motion(s) encore ouverte(s) au vote", open))
		}

	case effective == entities.MeetingStatusClosed && target == entities.MeetingStatusValidated:
		bad, err := uc.Motions.CountBadClosedMotions(ctx, meeting.MeetingID, meeting.TenantID)
		if err != nil {
			return TransitionCheck{}, err
		}
		if bad > 0 {
			check.block(IssueBadResults, fmt.Sprintf(
				"%d motion(s) clôturée(s) avec un résultat invalide", bad))
			break
		}
		closed, err := uc.Motions.CountClosedForMeeting(ctx, meeting.MeetingID, meeting.TenantID)
		if err != nil {
			return TransitionCheck{}, err
		}
		consolidated, err := uc.Motions.CountConsolidatedMotions(ctx, meeting.MeetingID, meeting.TenantID)
		if err != nil {
			return TransitionCheck{}, err
		}
		if consolidated < closed {
			check.warn(WarningNotConsolidated, fmt.Sprintf(
				"Résultats officiels consolidés pour %d motion(s) sur %d clôturée(s)", consolidated, closed))
		}
	}
	return check, nil
}

// TransitionReadiness enumerates every status reachable from the current one
// and evaluates each. Archived meetings map to an empty transition set.
func (uc LifecycleUseCase) TransitionReadiness(
	ctx context.Context,
	tenant entities.TenantContext,
	meetingID string,
) (TransitionReadiness, error) {
	meeting, found, err := uc.Meetings.FindByIDForTenant(ctx, strings.TrimSpace(meetingID), tenant.TenantID)
	if err != nil {
		return TransitionReadiness{}, err
	}
	if !found {
		return TransitionReadiness{}, domainerrors.ErrMeetingNotFound
	}

	readiness := TransitionReadiness{
		CurrentStatus: meeting.Status,
		Transitions:   make(map[entities.MeetingStatus]TransitionCheck),
	}
	for _, target := range meeting.Status.ReachableTargets() {
		check, err := uc.IssuesBeforeTransition(ctx, tenant, meetingID, target, nil)
		if err != nil {
			return TransitionReadiness{}, err
		}
		readiness.Transitions[target] = check
	}
	return readiness, nil
}

func (uc LifecycleUseCase) hasMotions(ctx context.Context, meeting entities.Meeting) (bool, error) {
	count, err := uc.Motions.CountForMeeting(ctx, meeting.MeetingID, meeting.TenantID)
	return count > 0, err
}

func (uc LifecycleUseCase) hasAttendance(ctx context.Context, meeting entities.Meeting) (bool, error) {
	count, err := uc.Attendance.CountPresentOrRemote(ctx, meeting.MeetingID)
	return count > 0, err
}

func (uc LifecycleUseCase) hasPresident(ctx context.Context, meeting entities.Meeting) (bool, error) {
	// Empty tenant short-circuits without touching storage.
	if strings.TrimSpace(meeting.TenantID) == "" {
		return false, nil
	}
	return uc.Meetings.HasPresident(ctx, meeting.MeetingID, meeting.TenantID)
}

func (uc LifecycleUseCase) countOpenMotions(ctx context.Context, meeting entities.Meeting) (int, error) {
	return uc.Motions.CountOpenForMeeting(ctx, meeting.MeetingID, meeting.TenantID)
}

func (c *TransitionCheck) block(code string, message string) {
	c.CanProceed = false
	c.Issues = append(c.Issues, TransitionIssue{Code: code, Message: message})
}

func (c *TransitionCheck) warn(code string, message string) {
	c.Warnings = append(c.Warnings, TransitionIssue{Code: code, Message: message})
}

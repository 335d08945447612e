package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	application "plenum/contexts/assembly-governance/governance-engine/application"
	"plenum/contexts/assembly-governance/governance-engine/domain/entities"
	domainerrors "plenum/contexts/assembly-governance/governance-engine/domain/errors"
	"plenum/contexts/assembly-governance/governance-engine/ports"
)

type UpsertAttendanceCommand struct {
	MeetingID string
	MemberID  string
	Mode      string
	Notes     string
}

// UpsertAttendanceResult is either the stored row or a deletion
// acknowledgement when the requested mode was absent.
type UpsertAttendanceResult struct {
	Attendance entities.Attendance
	Deleted    bool
	MeetingID  string
	MemberID   string
}

type AttendanceUseCase struct {
	Meetings   ports.MeetingRepository
	Members    ports.MemberRepository
	Attendance ports.AttendanceRepository
	Audit      ports.AuditSink
	Broadcast  ports.Broadcaster
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

// Upsert records a member's attendance mode for a meeting. Mode absent
// deletes the row; other modes write it with an effective-power snapshot.
func (uc AttendanceUseCase) Upsert(
	ctx context.Context,
	tenant entities.TenantContext,
	cmd UpsertAttendanceCommand,
) (UpsertAttendanceResult, error) {
	logger := application.ResolveLogger(uc.Logger)

	meetingID := strings.TrimSpace(cmd.MeetingID)
	memberID := strings.TrimSpace(cmd.MemberID)
	if meetingID == "" {
		return UpsertAttendanceResult{}, domainerrors.ErrMeetingIDRequired
	}
	if memberID == "" {
		return UpsertAttendanceResult{}, domainerrors.ErrMemberIDRequired
	}
	mode, ok := entities.ParseAttendanceMode(cmd.Mode)
	if !ok {
		logger.Warn("attendance upsert validation failed",
			"event", "governance_attendance_validation_failed",
			"module", "assembly-governance/governance-engine",
			"layer", "application",
			"meeting_id", meetingID,
			"member_id", memberID,
			"mode", strings.TrimSpace(cmd.Mode),
		)
		return UpsertAttendanceResult{}, domainerrors.ErrInvalidAttendanceMode
	}

	meeting, found, err := uc.Meetings.FindByIDForTenant(ctx, meetingID, tenant.TenantID)
	if err != nil {
		return UpsertAttendanceResult{}, err
	}
	if !found {
		return UpsertAttendanceResult{}, domainerrors.ErrMeetingNotFound
	}
	if meeting.Status.IsTerminal() {
		return UpsertAttendanceResult{}, fmt.Errorf("%w: %w", domainerrors.ErrMeetingNotFound, domainerrors.ErrMeetingArchived)
	}

	member, found, err := uc.Members.FindMemberByIDForTenant(ctx, memberID, meeting.TenantID)
	if err != nil {
		return UpsertAttendanceResult{}, err
	}
	if !found {
		return UpsertAttendanceResult{}, domainerrors.ErrMemberOutsideTenant
	}

	now := uc.now()

	if mode == entities.AttendanceModeAbsent {
		if _, err := uc.Attendance.DeleteByMeetingAndMember(ctx, meetingID, memberID); err != nil {
			return UpsertAttendanceResult{}, err
		}
		uc.afterWrite(ctx, logger, tenant.TenantID, meetingID, memberID, string(mode), now)
		logger.Info("attendance deleted",
			"event", "governance_attendance_deleted",
			"module", "assembly-governance/governance-engine",
			"layer", "application",
			"meeting_id", meetingID,
			"member_id", memberID,
		)
		return UpsertAttendanceResult{
			Deleted:   true,
			MeetingID: meetingID,
			MemberID:  memberID,
		}, nil
	}

	row := entities.Attendance{
		MeetingID:      meetingID,
		MemberID:       memberID,
		TenantID:       meeting.TenantID,
		Mode:           mode,
		EffectivePower: member.EffectivePower(),
		Notes:          strings.TrimSpace(cmd.Notes),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	stored, readBack, err := uc.Attendance.Upsert(ctx, row)
	if err != nil {
		return UpsertAttendanceResult{}, err
	}
	if !readBack {
		// Best-effort fallback when storage cannot return the canonical row.
		stored = row
	}

	uc.afterWrite(ctx, logger, tenant.TenantID, meetingID, memberID, string(mode), now)
	logger.Info("attendance upserted",
		"event", "governance_attendance_upserted",
		"module", "assembly-governance/governance-engine",
		"layer", "application",
		"meeting_id", meetingID,
		"member_id", memberID,
		"mode", string(stored.Mode),
		"effective_power", stored.EffectivePower,
	)
	return UpsertAttendanceResult{
		Attendance: stored,
		MeetingID:  meetingID,
		MemberID:   memberID,
	}, nil
}

// afterWrite emits the audit event and the refreshed per-mode statistics.
// Both channels are best-effort; failures never surface to the caller.
func (uc AttendanceUseCase) afterWrite(
	ctx context.Context,
	logger *slog.Logger,
	tenantID string,
	meetingID string,
	memberID string,
	mode string,
	now time.Time,
) {
	appendAuditEvent(ctx, logger, uc.Audit, uc.IDGen, "governance.attendance_updated", tenantID, meetingID, now, map[string]any{
		"meeting_id": meetingID,
		"member_id":  memberID,
		"mode":       mode,
	})
	if uc.Broadcast == nil {
		return
	}
	summary, err := uc.Attendance.StatsByMode(ctx, meetingID)
	if err != nil {
		logger.Warn("attendance stats broadcast skipped",
			"event", "governance_attendance_stats_skipped",
			"module", "assembly-governance/governance-engine",
			"layer", "application",
			"meeting_id", meetingID,
			"error", err.Error(),
		)
		return
	}
	modes := make(map[string]map[string]any, len(summary.Modes))
	for _, stats := range summary.Modes {
		modes[string(stats.Mode)] = map[string]any{
			"count":  stats.Count,
			"weight": stats.Weight,
		}
	}
	publishBestEffort(ctx, logger, uc.Broadcast, uc.IDGen, "attendance.stats", tenantID, meetingID, now, map[string]any{
		"meeting_id":     meetingID,
		"modes":          modes,
		"total_count":    summary.TotalCount,
		"present_weight": summary.PresentWeight,
	})
}

func (uc AttendanceUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}

package queries

import (
	"context"
	"strings"

	"plenum/contexts/assembly-governance/governance-engine/domain/entities"
	domainerrors "plenum/contexts/assembly-governance/governance-engine/domain/errors"
	"plenum/contexts/assembly-governance/governance-engine/ports"
)

// AttendanceUseCase serves presence queries and read-through projections.
type AttendanceUseCase struct {
	Attendance ports.AttendanceRepository
}

// IsPresent reports whether the member attends the meeting in any attending
// mode, directly or through an active proxy. Blank identifiers answer false
// without touching storage.
func (uc AttendanceUseCase) IsPresent(
	ctx context.Context,
	tenant entities.TenantContext,
	meetingID string,
	memberID string,
) (bool, error) {
	if strings.TrimSpace(meetingID) == "" || strings.TrimSpace(memberID) == "" || strings.TrimSpace(tenant.TenantID) == "" {
		return false, nil
	}
	return uc.Attendance.IsPresent(ctx, strings.TrimSpace(meetingID), strings.TrimSpace(memberID), strings.TrimSpace(tenant.TenantID))
}

// IsPresentDirect reports physical or remote presence only.
func (uc AttendanceUseCase) IsPresentDirect(
	ctx context.Context,
	tenant entities.TenantContext,
	meetingID string,
	memberID string,
) (bool, error) {
	if strings.TrimSpace(meetingID) == "" || strings.TrimSpace(memberID) == "" || strings.TrimSpace(tenant.TenantID) == "" {
		return false, nil
	}
	return uc.Attendance.IsPresentDirect(ctx, strings.TrimSpace(meetingID), strings.TrimSpace(memberID), strings.TrimSpace(tenant.TenantID))
}

func (uc AttendanceUseCase) ListForMeeting(ctx context.Context, meetingID string) ([]entities.Attendance, error) {
	if strings.TrimSpace(meetingID) == "" {
		return nil, domainerrors.ErrMeetingIDRequired
	}
	return uc.Attendance.ListForMeeting(ctx, strings.TrimSpace(meetingID))
}

func (uc AttendanceUseCase) SummaryForMeeting(ctx context.Context, meetingID string) (entities.AttendanceSummary, error) {
	if strings.TrimSpace(meetingID) == "" {
		return entities.AttendanceSummary{}, domainerrors.ErrMeetingIDRequired
	}
	return uc.Attendance.StatsByMode(ctx, strings.TrimSpace(meetingID))
}

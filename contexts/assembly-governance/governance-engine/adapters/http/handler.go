package httpadapter

import (
	"context"
	"log/slog"

	"plenum/contexts/assembly-governance/governance-engine/application/commands"
	"plenum/contexts/assembly-governance/governance-engine/application/queries"
	"plenum/contexts/assembly-governance/governance-engine/domain/entities"
	domainerrors "plenum/contexts/assembly-governance/governance-engine/domain/errors"
	httptransport "plenum/contexts/assembly-governance/governance-engine/transport/http"
)

type Handler struct {
	Ballots           commands.BallotUseCase
	Attendance        commands.AttendanceUseCase
	Transitions       commands.TransitionUseCase
	Tallies           commands.TallyUseCase
	Lifecycle         queries.LifecycleUseCase
	AttendanceQueries queries.AttendanceUseCase
	Logger            *slog.Logger
}

// CastBallotHandler godoc
// @Summary Cast a ballot on a motion
// @Description Records one member's weighted vote; a re-cast on the same motion overwrites the previous ballot.
// @Tags governance-engine
// @Accept json
// @Produce json
// @Param X-Tenant-Id header string true "Tenant id"
// @Param motion_id path string true "Motion id"
// @Param request body httptransport.CastBallotRequest true "Ballot"
// @Success 200 {object} httptransport.BallotResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /api/v1/motions/{motion_id}/ballots [post]
func (h Handler) CastBallotHandler(
	ctx context.Context,
	tenant entities.TenantContext,
	motionID string,
	req httptransport.CastBallotRequest,
) (httptransport.BallotResponse, error) {
	ballot, err := h.Ballots.CastBallot(ctx, tenant, commands.CastBallotCommand{
		MotionID:            motionID,
		MemberID:            req.MemberID,
		Value:               req.Value,
		IsProxyVote:         req.IsProxyVote,
		ProxySourceMemberID: req.ProxySourceMemberID,
	})
	if err != nil {
		return httptransport.BallotResponse{}, err
	}
	return httptransport.BallotResponse{
		BallotID:            ballot.BallotID,
		MotionID:            ballot.MotionID,
		MeetingID:           ballot.MeetingID,
		MemberID:            ballot.MemberID,
		Value:               string(ballot.Value),
		Weight:              ballot.Weight,
		ViaProxy:            ballot.ViaProxy,
		ProxySourceMemberID: ballot.ProxySourceMemberID,
		CastAt:              ballot.CastAt,
		UpdatedAt:           ballot.UpdatedAt,
	}, nil
}

// UpsertAttendanceHandler godoc
// @Summary Record attendance for a meeting
// @Description Upserts the member's attendance mode; mode absent removes the record.
// @Tags governance-engine
// @Accept json
// @Produce json
// @Param X-Tenant-Id header string true "Tenant id"
// @Param meeting_id path string true "Meeting id"
// @Param request body httptransport.UpsertAttendanceRequest true "Attendance"
// @Success 200 {object} httptransport.AttendanceResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /api/v1/meetings/{meeting_id}/attendance [post]
func (h Handler) UpsertAttendanceHandler(
	ctx context.Context,
	tenant entities.TenantContext,
	meetingID string,
	req httptransport.UpsertAttendanceRequest,
) (httptransport.AttendanceResponse, error) {
	result, err := h.Attendance.Upsert(ctx, tenant, commands.UpsertAttendanceCommand{
		MeetingID: meetingID,
		MemberID:  req.MemberID,
		Mode:      req.Mode,
		Notes:     req.Notes,
	})
	if err != nil {
		return httptransport.AttendanceResponse{}, err
	}
	if result.Deleted {
		return httptransport.AttendanceResponse{
			MeetingID: result.MeetingID,
			MemberID:  result.MemberID,
			Deleted:   true,
		}, nil
	}
	return httptransport.AttendanceResponse{
		MeetingID:      result.Attendance.MeetingID,
		MemberID:       result.Attendance.MemberID,
		Mode:           string(result.Attendance.Mode),
		EffectivePower: result.Attendance.EffectivePower,
		Notes:          result.Attendance.Notes,
	}, nil
}

// ListAttendanceHandler godoc
// @Summary List attendance records
// @Tags governance-engine
// @Produce json
// @Param X-Tenant-Id header string true "Tenant id"
// @Param meeting_id path string true "Meeting id"
// @Success 200 {object} httptransport.AttendanceListResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Router /api/v1/meetings/{meeting_id}/attendance [get]
func (h Handler) ListAttendanceHandler(ctx context.Context, meetingID string) (httptransport.AttendanceListResponse, error) {
	rows, err := h.AttendanceQueries.ListForMeeting(ctx, meetingID)
	if err != nil {
		return httptransport.AttendanceListResponse{}, err
	}
	items := make([]httptransport.AttendanceItem, 0, len(rows))
	for _, row := range rows {
		items = append(items, httptransport.AttendanceItem{
			MemberID:       row.MemberID,
			Mode:           string(row.Mode),
			EffectivePower: row.EffectivePower,
			Notes:          row.Notes,
		})
	}
	return httptransport.AttendanceListResponse{
		MeetingID: meetingID,
		Items:     items,
	}, nil
}

// AttendanceSummaryHandler godoc
// @Summary Attendance statistics by mode
// @Tags governance-engine
// @Produce json
// @Param X-Tenant-Id header string true "Tenant id"
// @Param meeting_id path string true "Meeting id"
// @Success 200 {object} httptransport.AttendanceSummaryResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Router /api/v1/meetings/{meeting_id}/attendance/summary [get]
func (h Handler) AttendanceSummaryHandler(ctx context.Context, meetingID string) (httptransport.AttendanceSummaryResponse, error) {
	summary, err := h.AttendanceQueries.SummaryForMeeting(ctx, meetingID)
	if err != nil {
		return httptransport.AttendanceSummaryResponse{}, err
	}
	modes := make([]httptransport.AttendanceModeStats, 0, len(summary.Modes))
	for _, stats := range summary.Modes {
		modes = append(modes, httptransport.AttendanceModeStats{
			Mode:   string(stats.Mode),
			Count:  stats.Count,
			Weight: stats.Weight,
		})
	}
	return httptransport.AttendanceSummaryResponse{
		MeetingID:     summary.MeetingID,
		Modes:         modes,
		TotalCount:    summary.TotalCount,
		PresentWeight: summary.PresentWeight,
	}, nil
}

// TransitionReadinessHandler godoc
// @Summary Evaluate every reachable lifecycle transition
// @Tags governance-engine
// @Produce json
// @Param X-Tenant-Id header string true "Tenant id"
// @Param meeting_id path string true "Meeting id"
// @Success 200 {object} httptransport.TransitionReadinessResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /api/v1/meetings/{meeting_id}/transition-readiness [get]
func (h Handler) TransitionReadinessHandler(
	ctx context.Context,
	tenant entities.TenantContext,
	meetingID string,
) (httptransport.TransitionReadinessResponse, error) {
	readiness, err := h.Lifecycle.TransitionReadiness(ctx, tenant, meetingID)
	if err != nil {
		return httptransport.TransitionReadinessResponse{}, err
	}
	transitions := make(map[string]httptransport.TransitionCheckResponse, len(readiness.Transitions))
	for target, check := range readiness.Transitions {
		transitions[string(target)] = mapTransitionCheck(check)
	}
	return httptransport.TransitionReadinessResponse{
		MeetingID:     meetingID,
		CurrentStatus: string(readiness.CurrentStatus),
		Transitions:   transitions,
	}, nil
}

// TransitionCheckHandler godoc
// @Summary Evaluate a single lifecycle transition
// @Tags governance-engine
// @Produce json
// @Param X-Tenant-Id header string true "Tenant id"
// @Param meeting_id path string true "Meeting id"
// @Param target query string true "Target status"
// @Success 200 {object} httptransport.TransitionCheckResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /api/v1/meetings/{meeting_id}/transition-check [get]
func (h Handler) TransitionCheckHandler(
	ctx context.Context,
	tenant entities.TenantContext,
	meetingID string,
	targetRaw string,
) (httptransport.TransitionCheckResponse, error) {
	target, ok := entities.ParseMeetingStatus(targetRaw)
	if !ok {
		return httptransport.TransitionCheckResponse{}, domainerrors.ErrInvalidTargetStatus
	}
	check, err := h.Lifecycle.IssuesBeforeTransition(ctx, tenant, meetingID, target, nil)
	if err != nil {
		return httptransport.TransitionCheckResponse{}, err
	}
	return mapTransitionCheck(check), nil
}

// ApplyTransitionHandler godoc
// @Summary Apply a lifecycle transition
// @Description Moves the meeting to the target status when every blocking check passes.
// @Tags governance-engine
// @Accept json
// @Produce json
// @Param X-Tenant-Id header string true "Tenant id"
// @Param meeting_id path string true "Meeting id"
// @Param request body httptransport.ApplyTransitionRequest true "Target"
// @Success 200 {object} httptransport.ApplyTransitionResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Failure 409 {object} httptransport.ErrorResponse
// @Router /api/v1/meetings/{meeting_id}/transition [post]
func (h Handler) ApplyTransitionHandler(
	ctx context.Context,
	tenant entities.TenantContext,
	meetingID string,
	req httptransport.ApplyTransitionRequest,
) (httptransport.ApplyTransitionResponse, error) {
	result, err := h.Transitions.ApplyTransition(ctx, tenant, meetingID, req.TargetStatus)
	if err != nil {
		return httptransport.ApplyTransitionResponse{}, err
	}
	return httptransport.ApplyTransitionResponse{
		MeetingID:  meetingID,
		FromStatus: string(result.From),
		ToStatus:   string(result.To),
		Warnings:   mapTransitionIssues(result.Check.Warnings),
	}, nil
}

// ComputeOfficialResultHandler godoc
// @Summary Compute and persist the official result of a motion
// @Tags governance-engine
// @Produce json
// @Param X-Tenant-Id header string true "Tenant id"
// @Param motion_id path string true "Motion id"
// @Success 200 {object} httptransport.OfficialResultResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /api/v1/motions/{motion_id}/official-result [post]
func (h Handler) ComputeOfficialResultHandler(
	ctx context.Context,
	tenant entities.TenantContext,
	motionID string,
) (httptransport.OfficialResultResponse, error) {
	result, err := h.Tallies.ComputeAndPersistMotion(ctx, tenant, motionID)
	if err != nil {
		return httptransport.OfficialResultResponse{}, err
	}
	return mapOfficialResult(motionID, result), nil
}

// PreviewOfficialResultHandler godoc
// @Summary Preview the official result of a motion without persisting
// @Tags governance-engine
// @Produce json
// @Param X-Tenant-Id header string true "Tenant id"
// @Param motion_id path string true "Motion id"
// @Success 200 {object} httptransport.OfficialResultResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Failure 404 {object} httptransport.ErrorResponse
// @Router /api/v1/motions/{motion_id}/official-result/preview [get]
func (h Handler) PreviewOfficialResultHandler(
	ctx context.Context,
	tenant entities.TenantContext,
	motionID string,
) (httptransport.OfficialResultResponse, error) {
	result, err := h.Tallies.ComputeOfficialTallies(ctx, tenant, motionID)
	if err != nil {
		return httptransport.OfficialResultResponse{}, err
	}
	return mapOfficialResult(motionID, result), nil
}

// ConsolidateMeetingHandler godoc
// @Summary Consolidate official results for all closed motions of a meeting
// @Tags governance-engine
// @Produce json
// @Param X-Tenant-Id header string true "Tenant id"
// @Param meeting_id path string true "Meeting id"
// @Success 200 {object} httptransport.ConsolidateMeetingResponse
// @Failure 400 {object} httptransport.ErrorResponse
// @Router /api/v1/meetings/{meeting_id}/consolidate [post]
func (h Handler) ConsolidateMeetingHandler(
	ctx context.Context,
	tenant entities.TenantContext,
	meetingID string,
) (httptransport.ConsolidateMeetingResponse, error) {
	updated, err := h.Tallies.ConsolidateMeeting(ctx, tenant, meetingID)
	if err != nil {
		return httptransport.ConsolidateMeetingResponse{}, err
	}
	return httptransport.ConsolidateMeetingResponse{
		MeetingID: meetingID,
		Updated:   updated,
	}, nil
}

func mapTransitionCheck(check queries.TransitionCheck) httptransport.TransitionCheckResponse {
	return httptransport.TransitionCheckResponse{
		CanProceed: check.CanProceed,
		Issues:     mapTransitionIssues(check.Issues),
		Warnings:   mapTransitionIssues(check.Warnings),
	}
}

func mapTransitionIssues(issues []queries.TransitionIssue) []httptransport.TransitionIssue {
	items := make([]httptransport.TransitionIssue, 0, len(issues))
	for _, issue := range issues {
		items = append(items, httptransport.TransitionIssue{
			Code:    issue.Code,
			Message: issue.Message,
		})
	}
	return items
}

func mapOfficialResult(motionID string, result entities.OfficialResult) httptransport.OfficialResultResponse {
	return httptransport.OfficialResultResponse{
		MotionID:   motionID,
		Source:     string(result.Source),
		For:        result.For,
		Against:    result.Against,
		Abstain:    result.Abstain,
		Total:      result.Total,
		Decision:   string(result.Decision),
		Reason:     result.Reason,
		ComputedAt: result.ComputedAt,
	}
}

package http

import "time"

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type CastBallotRequest struct {
	MemberID            string `json:"member_id"`
	Value               string `json:"value"`
	IsProxyVote         bool   `json:"is_proxy_vote,omitempty"`
	ProxySourceMemberID string `json:"proxy_source_member_id,omitempty"`
}

type BallotResponse struct {
	BallotID            string    `json:"ballot_id"`
	MotionID            string    `json:"motion_id"`
	MeetingID           string    `json:"meeting_id"`
	MemberID            string    `json:"member_id"`
	Value               string    `json:"value"`
	Weight              float64   `json:"weight"`
	ViaProxy            bool      `json:"via_proxy"`
	ProxySourceMemberID string    `json:"proxy_source_member_id,omitempty"`
	CastAt              time.Time `json:"cast_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

type UpsertAttendanceRequest struct {
	MemberID string `json:"member_id"`
	Mode     string `json:"mode"`
	Notes    string `json:"notes,omitempty"`
}

type AttendanceResponse struct {
	MeetingID      string  `json:"meeting_id"`
	MemberID       string  `json:"member_id"`
	Mode           string  `json:"mode,omitempty"`
	EffectivePower float64 `json:"effective_power,omitempty"`
	Notes          string  `json:"notes,omitempty"`
	Deleted        bool    `json:"deleted,omitempty"`
}

type AttendanceItem struct {
	MemberID       string  `json:"member_id"`
	Mode           string  `json:"mode"`
	EffectivePower float64 `json:"effective_power"`
	Notes          string  `json:"notes,omitempty"`
}

type AttendanceListResponse struct {
	MeetingID string           `json:"meeting_id"`
	Items     []AttendanceItem `json:"items"`
}

type AttendanceModeStats struct {
	Mode   string  `json:"mode"`
	Count  int     `json:"count"`
	Weight float64 `json:"weight"`
}

type AttendanceSummaryResponse struct {
	MeetingID     string                `json:"meeting_id"`
	Modes         []AttendanceModeStats `json:"modes"`
	TotalCount    int                   `json:"total_count"`
	PresentWeight float64               `json:"present_weight"`
}

type TransitionIssue struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type TransitionCheckResponse struct {
	CanProceed bool              `json:"can_proceed"`
	Issues     []TransitionIssue `json:"issues"`
	Warnings   []TransitionIssue `json:"warnings"`
}

type TransitionReadinessResponse struct {
	MeetingID     string                             `json:"meeting_id"`
	CurrentStatus string                             `json:"current_status"`
	Transitions   map[string]TransitionCheckResponse `json:"transitions"`
}

type ApplyTransitionRequest struct {
	TargetStatus string `json:"target_status"`
}

type ApplyTransitionResponse struct {
	MeetingID  string            `json:"meeting_id"`
	FromStatus string            `json:"from_status"`
	ToStatus   string            `json:"to_status"`
	Warnings   []TransitionIssue `json:"warnings,omitempty"`
}

type OfficialResultResponse struct {
	MotionID   string     `json:"motion_id"`
	Source     string     `json:"source"`
	For        float64    `json:"for"`
	Against    float64    `json:"against"`
	Abstain    float64    `json:"abstain"`
	Total      float64    `json:"total"`
	Decision   string     `json:"decision"`
	Reason     string     `json:"reason"`
	ComputedAt *time.Time `json:"computed_at,omitempty"`
}

type ConsolidateMeetingResponse struct {
	MeetingID string `json:"meeting_id"`
	Updated   int    `json:"updated"`
}

package entities

import (
	"strings"
	"time"
)

type AttendanceMode string

const (
	AttendanceModePresent AttendanceMode = "present"
	AttendanceModeRemote  AttendanceMode = "remote"
	AttendanceModeProxy   AttendanceMode = "proxy"
	AttendanceModeExcused AttendanceMode = "excused"
	// AttendanceModeAbsent is a recognized input that deletes the row; it is
	// never stored.
	AttendanceModeAbsent AttendanceMode = "absent"
)

func ParseAttendanceMode(raw string) (AttendanceMode, bool) {
	mode := AttendanceMode(strings.ToLower(strings.TrimSpace(raw)))
	switch mode {
	case AttendanceModePresent,
		AttendanceModeRemote,
		AttendanceModeProxy,
		AttendanceModeExcused,
		AttendanceModeAbsent:
		return mode, true
	default:
		return "", false
	}
}

// Attending reports whether the mode counts for presence queries. Excused
// members are recorded but not attending.
func (m AttendanceMode) Attending() bool {
	switch m {
	case AttendanceModePresent, AttendanceModeRemote, AttendanceModeProxy:
		return true
	default:
		return false
	}
}

// Direct reports physical or remote presence, excluding proxy representation.
func (m AttendanceMode) Direct() bool {
	return m == AttendanceModePresent || m == AttendanceModeRemote
}

// Attendance is keyed by (meeting, member); absence is the absence of a row.
type Attendance struct {
	MeetingID      string
	MemberID       string
	TenantID       string
	Mode           AttendanceMode
	EffectivePower float64
	Notes          string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

type AttendanceModeStats struct {
	Mode   AttendanceMode
	Count  int
	Weight float64
}

type AttendanceSummary struct {
	MeetingID     string
	Modes         []AttendanceModeStats
	TotalCount    int
	PresentWeight float64
}

type ProxyDelegation struct {
	DelegationID string
	MeetingID    string
	TenantID     string
	GiverID      string
	ReceiverID   string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

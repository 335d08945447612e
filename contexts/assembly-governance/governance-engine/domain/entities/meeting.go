package entities

import (
	"strings"
	"time"
)

type MeetingStatus string

const (
	MeetingStatusDraft     MeetingStatus = "draft"
	MeetingStatusScheduled MeetingStatus = "scheduled"
	MeetingStatusFrozen    MeetingStatus = "frozen"
	MeetingStatusLive      MeetingStatus = "live"
	MeetingStatusPaused    MeetingStatus = "paused"
	MeetingStatusClosed    MeetingStatus = "closed"
	MeetingStatusValidated MeetingStatus = "validated"
	MeetingStatusArchived  MeetingStatus = "archived"
)

func ParseMeetingStatus(raw string) (MeetingStatus, bool) {
	status := MeetingStatus(strings.ToLower(strings.TrimSpace(raw)))
	switch status {
	case MeetingStatusDraft,
		MeetingStatusScheduled,
		MeetingStatusFrozen,
		MeetingStatusLive,
		MeetingStatusPaused,
		MeetingStatusClosed,
		MeetingStatusValidated,
		MeetingStatusArchived:
		return status, true
	default:
		return "", false
	}
}

// IsTerminal reports whether no further status change is legal.
func (s MeetingStatus) IsTerminal() bool {
	return s == MeetingStatusArchived
}

// meetingTransitions is the fixed adjacency table for the lifecycle state
// machine. Archived maps to an empty set.
var meetingTransitions = map[MeetingStatus][]MeetingStatus{
	MeetingStatusDraft:     {MeetingStatusScheduled},
	MeetingStatusScheduled: {MeetingStatusFrozen, MeetingStatusDraft},
	MeetingStatusFrozen:    {MeetingStatusLive, MeetingStatusScheduled},
	MeetingStatusLive:      {MeetingStatusPaused, MeetingStatusClosed},
	MeetingStatusPaused:    {MeetingStatusLive, MeetingStatusClosed},
	MeetingStatusClosed:    {MeetingStatusValidated},
	MeetingStatusValidated: {MeetingStatusArchived},
	MeetingStatusArchived:  {},
}

// ReachableTargets returns the statuses reachable from s, in table order.
func (s MeetingStatus) ReachableTargets() []MeetingStatus {
	targets := meetingTransitions[s]
	return append([]MeetingStatus(nil), targets...)
}

type Meeting struct {
	MeetingID      string
	TenantID       string
	Title          string
	Status         MeetingStatus
	PresidentID    string
	VotePolicyID   string
	QuorumPolicyID string
	ValidatedAt    *time.Time
	ScheduledAt    *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (m Meeting) IsValidated() bool {
	return m.ValidatedAt != nil || m.Status == MeetingStatusValidated
}

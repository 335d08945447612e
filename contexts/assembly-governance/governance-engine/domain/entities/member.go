package entities

import "time"

type Member struct {
	MemberID    string
	TenantID    string
	FullName    string
	VotingPower *float64
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// EffectivePower is the member's configured voting power, 1.0 when unset.
// Negative configured values are surfaced as-is; rejecting them is the ballot
// layer's call.
func (m Member) EffectivePower() float64 {
	if m.VotingPower == nil {
		return 1.0
	}
	return *m.VotingPower
}

type TenantContext struct {
	TenantID string
	ActorID  string
}

package entities

import "time"

type QuorumDenominator string

const (
	QuorumDenominatorEligibleMembers QuorumDenominator = "eligible_members"
	QuorumDenominatorPresent         QuorumDenominator = "present"
)

type VoteBase string

const (
	VoteBaseExpressed VoteBase = "expressed"
	VoteBasePresent   VoteBase = "present"
)

type QuorumPolicy struct {
	PolicyID    string
	TenantID    string
	Name        string
	Denominator QuorumDenominator
	Threshold   float64
	// Second-call parameters apply to reconvened sessions; resolution of
	// which call a session is on belongs to the scheduling collaborator.
	SecondCallDenominator QuorumDenominator
	SecondCallThreshold   *float64
	IncludeProxies        bool
	CountRemote           bool
	CreatedAt             time.Time
	UpdatedAt             time.Time
}

type VotePolicy struct {
	PolicyID            string
	TenantID            string
	Name                string
	Base                VoteBase
	Threshold           float64
	AbstentionAsAgainst bool
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// DefaultVotePolicy is the implicit fallback when neither the motion nor the
// meeting designates one: simple majority of expressed votes, abstentions
// excluded from the denominator.
func DefaultVotePolicy() VotePolicy {
	return VotePolicy{
		Base:      VoteBaseExpressed,
		Threshold: 0.5,
	}
}

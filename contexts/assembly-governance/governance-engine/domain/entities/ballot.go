package entities

import (
	"strings"
	"time"
)

type BallotValue string

const (
	BallotValueFor     BallotValue = "for"
	BallotValueAgainst BallotValue = "against"
	BallotValueAbstain BallotValue = "abstain"
	BallotValueNSP     BallotValue = "nsp"
)

// ParseBallotValue accepts the four canonical values only. Legacy yes/no
// inputs are deliberately rejected.
func ParseBallotValue(raw string) (BallotValue, bool) {
	value := BallotValue(strings.ToLower(strings.TrimSpace(raw)))
	switch value {
	case BallotValueFor, BallotValueAgainst, BallotValueAbstain, BallotValueNSP:
		return value, true
	default:
		return "", false
	}
}

// Ballot is keyed by (motion, member); a re-cast overwrites the stored row.
type Ballot struct {
	BallotID            string
	TenantID            string
	MeetingID           string
	MotionID            string
	MemberID            string
	Value               BallotValue
	Weight              float64
	ViaProxy            bool
	ProxySourceMemberID string
	CastAt              time.Time
	UpdatedAt           time.Time
}

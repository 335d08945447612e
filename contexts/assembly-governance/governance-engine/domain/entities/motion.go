package entities

import (
	"math"
	"time"
)

type Decision string

const (
	DecisionAdopted  Decision = "adopted"
	DecisionRejected Decision = "rejected"
	DecisionNoQuorum Decision = "no_quorum"
)

type TallySourceKind string

const (
	TallySourceManual     TallySourceKind = "manual"
	TallySourceElectronic TallySourceKind = "evote"
)

// manualConsistencyEpsilon bounds the accepted drift between the manual total
// and the sum of its parts.
const manualConsistencyEpsilon = 1e-6

// VoteTotals is a weighted aggregate of ballots. Total carries nsp weight as
// well; For/Against/Abstain only carry expressed positions.
type VoteTotals struct {
	For     float64
	Against float64
	Abstain float64
	Total   float64
}

// Expressed is the participation weight used by the quorum check.
func (t VoteTotals) Expressed() float64 {
	return t.For + t.Against + t.Abstain
}

type OfficialResult struct {
	Source     TallySourceKind
	For        float64
	Against    float64
	Abstain    float64
	Total      float64
	Decision   Decision
	Reason     string
	ComputedAt *time.Time
}

// Computed reports whether an official result has ever been persisted.
func (r OfficialResult) Computed() bool {
	return r.Source != "" && r.Decision != ""
}

type Motion struct {
	MotionID       string
	MeetingID      string
	TenantID       string
	Title          string
	OpenedAt       *time.Time
	ClosedAt       *time.Time
	VotePolicyID   string
	QuorumPolicyID string
	ManualTotal    float64
	ManualFor      float64
	ManualAgainst  float64
	ManualAbstain  float64
	Official       OfficialResult
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

func (m Motion) IsOpen() bool {
	return m.OpenedAt != nil && m.ClosedAt == nil
}

func (m Motion) IsClosed() bool {
	return m.ClosedAt != nil
}

// ManualTally returns the manually entered counts when they are usable: a
// positive total whose parts sum back to it within the consistency epsilon.
func (m Motion) ManualTally() (VoteTotals, bool) {
	if m.ManualTotal <= 0 {
		return VoteTotals{}, false
	}
	sum := m.ManualFor + m.ManualAgainst + m.ManualAbstain
	if math.Abs(sum-m.ManualTotal) > manualConsistencyEpsilon {
		return VoteTotals{}, false
	}
	return VoteTotals{
		For:     m.ManualFor,
		Against: m.ManualAgainst,
		Abstain: m.ManualAbstain,
		Total:   m.ManualTotal,
	}, true
}

// HasDisqualifyingResult reports a closed motion whose result blocks meeting
// validation: a computed no-quorum outcome, or manual counts that do not add
// up to their stated total.
func (m Motion) HasDisqualifyingResult() bool {
	if !m.IsClosed() {
		return false
	}
	if m.Official.Computed() && m.Official.Decision == DecisionNoQuorum {
		return true
	}
	if m.ManualTotal > 0 {
		if _, ok := m.ManualTally(); !ok {
			return true
		}
	}
	return false
}

// TallySource is the selected origin of official numbers: the manual override
// when consistent, the electronic aggregate otherwise.
type TallySource struct {
	Kind   TallySourceKind
	Totals VoteTotals
}

func SelectTallySource(motion Motion, electronic VoteTotals) TallySource {
	if manual, ok := motion.ManualTally(); ok {
		return TallySource{Kind: TallySourceManual, Totals: manual}
	}
	return TallySource{Kind: TallySourceElectronic, Totals: electronic}
}

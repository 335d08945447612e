package entities

import (
	"testing"
	"time"
)

func TestManualTallyConsistency(t *testing.T) {
	motion := Motion{ManualTotal: 100, ManualFor: 60, ManualAgainst: 30, ManualAbstain: 10}
	totals, ok := motion.ManualTally()
	if !ok {
		t.Fatalf("expected consistent manual tally")
	}
	if totals.For != 60 || totals.Against != 30 || totals.Abstain != 10 || totals.Total != 100 {
		t.Fatalf("unexpected totals: %+v", totals)
	}

	motion.ManualFor = 50
	if _, ok := motion.ManualTally(); ok {
		t.Fatalf("expected inconsistent manual tally to be rejected")
	}

	motion = Motion{ManualTotal: 0}
	if _, ok := motion.ManualTally(); ok {
		t.Fatalf("expected empty manual tally to be unusable")
	}
}

func TestSelectTallySourcePrefersConsistentManual(t *testing.T) {
	electronic := VoteTotals{For: 3, Against: 1, Total: 4}

	motion := Motion{ManualTotal: 10, ManualFor: 7, ManualAgainst: 3}
	source := SelectTallySource(motion, electronic)
	if source.Kind != TallySourceManual {
		t.Fatalf("expected manual source, got %s", source.Kind)
	}
	if source.Totals.For != 7 {
		t.Fatalf("expected manual figures, got %+v", source.Totals)
	}

	motion.ManualFor = 5 // drifts from the stated total
	source = SelectTallySource(motion, electronic)
	if source.Kind != TallySourceElectronic {
		t.Fatalf("expected electronic fallback, got %s", source.Kind)
	}
	if source.Totals.For != 3 {
		t.Fatalf("expected electronic figures, got %+v", source.Totals)
	}
}

func TestHasDisqualifyingResult(t *testing.T) {
	closedAt := time.Now().UTC()
	now := time.Now().UTC()

	open := Motion{OpenedAt: &closedAt}
	if open.HasDisqualifyingResult() {
		t.Fatalf("open motion can never disqualify")
	}

	noQuorum := Motion{
		ClosedAt: &closedAt,
		Official: OfficialResult{
			Source:     TallySourceElectronic,
			Decision:   DecisionNoQuorum,
			ComputedAt: &now,
		},
	}
	if !noQuorum.HasDisqualifyingResult() {
		t.Fatalf("no_quorum result must disqualify")
	}

	badManual := Motion{ClosedAt: &closedAt, ManualTotal: 100, ManualFor: 10}
	if !badManual.HasDisqualifyingResult() {
		t.Fatalf("inconsistent manual counts must disqualify")
	}

	clean := Motion{
		ClosedAt:    &closedAt,
		ManualTotal: 100, ManualFor: 60, ManualAgainst: 40,
		Official: OfficialResult{
			Source:     TallySourceManual,
			Decision:   DecisionAdopted,
			ComputedAt: &now,
		},
	}
	if clean.HasDisqualifyingResult() {
		t.Fatalf("clean result must not disqualify")
	}
}

func TestMeetingReachableTargets(t *testing.T) {
	targets := MeetingStatusLive.ReachableTargets()
	if len(targets) != 2 || targets[0] != MeetingStatusPaused || targets[1] != MeetingStatusClosed {
		t.Fatalf("unexpected live targets: %v", targets)
	}
	if len(MeetingStatusArchived.ReachableTargets()) != 0 {
		t.Fatalf("archived must have no targets")
	}
	if !MeetingStatusArchived.IsTerminal() {
		t.Fatalf("archived must be terminal")
	}
}

func TestParseBallotValueRejectsLegacyInputs(t *testing.T) {
	for _, raw := range []string{"yes", "no", "maybe", ""} {
		if _, ok := ParseBallotValue(raw); ok {
			t.Fatalf("expected %q to be rejected", raw)
		}
	}
	value, ok := ParseBallotValue("  FOR ")
	if !ok || value != BallotValueFor {
		t.Fatalf("expected trimmed lowercase parse, got %s ok=%v", value, ok)
	}
}

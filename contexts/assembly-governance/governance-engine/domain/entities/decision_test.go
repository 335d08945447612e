package entities

import (
	"strings"
	"testing"
)

func TestEvaluateDecisionSimpleMajority(t *testing.T) {
	outcome := EvaluateDecision(
		VoteTotals{For: 60, Against: 30, Abstain: 10, Total: 100},
		nil,
		DefaultVotePolicy(),
		DecisionContext{EligibleMembers: 100},
	)
	if outcome.Decision != DecisionAdopted {
		t.Fatalf("expected adopted, got %s (%s)", outcome.Decision, outcome.Reason)
	}
	if !strings.Contains(outcome.Reason, "60 pour") {
		t.Fatalf("unexpected reason: %s", outcome.Reason)
	}
}

func TestEvaluateDecisionEqualityRejects(t *testing.T) {
	outcome := EvaluateDecision(
		VoteTotals{For: 40, Against: 40, Total: 80},
		nil,
		DefaultVotePolicy(),
		DecisionContext{EligibleMembers: 100},
	)
	if outcome.Decision != DecisionRejected {
		t.Fatalf("expected rejected on equality, got %s", outcome.Decision)
	}
	if !strings.Contains(outcome.Reason, "Égalité") {
		t.Fatalf("expected equality reason, got %s", outcome.Reason)
	}
}

func TestEvaluateDecisionQuorumNotReached(t *testing.T) {
	quorum := &QuorumPolicy{
		Denominator: QuorumDenominatorEligibleMembers,
		Threshold:   0.5,
	}
	outcome := EvaluateDecision(
		VoteTotals{For: 8, Against: 2, Total: 10},
		quorum,
		DefaultVotePolicy(),
		DecisionContext{EligibleMembers: 100},
	)
	if outcome.Decision != DecisionNoQuorum {
		t.Fatalf("expected no_quorum, got %s", outcome.Decision)
	}
	if !strings.Contains(outcome.Reason, "Quorum non atteint") {
		t.Fatalf("expected quorum reason, got %s", outcome.Reason)
	}
}

func TestEvaluateDecisionQuorumOnPresentWeight(t *testing.T) {
	quorum := &QuorumPolicy{
		Denominator: QuorumDenominatorPresent,
		Threshold:   0.5,
	}
	// 30 expressed out of 40 present passes the quorum bar of 20.
	outcome := EvaluateDecision(
		VoteTotals{For: 20, Against: 10, Total: 30},
		quorum,
		DefaultVotePolicy(),
		DecisionContext{EligibleMembers: 100, PresentWeight: 40},
	)
	if outcome.Decision != DecisionAdopted {
		t.Fatalf("expected adopted, got %s (%s)", outcome.Decision, outcome.Reason)
	}
}

func TestEvaluateDecisionAbstentionAsAgainst(t *testing.T) {
	vote := VotePolicy{Base: VoteBaseExpressed, Threshold: 0.5, AbstentionAsAgainst: true}
	// 45 for vs 30+20 against once abstentions fold in.
	outcome := EvaluateDecision(
		VoteTotals{For: 45, Against: 30, Abstain: 20, Total: 95},
		nil,
		vote,
		DecisionContext{},
	)
	if outcome.Decision != DecisionRejected {
		t.Fatalf("expected rejected with abstentions folded, got %s", outcome.Decision)
	}

	// Same figures adopted when abstentions stay out of the denominator.
	outcome = EvaluateDecision(
		VoteTotals{For: 45, Against: 30, Abstain: 20, Total: 95},
		nil,
		DefaultVotePolicy(),
		DecisionContext{},
	)
	if outcome.Decision != DecisionAdopted {
		t.Fatalf("expected adopted without folding, got %s", outcome.Decision)
	}
}

func TestEvaluateDecisionPresentBase(t *testing.T) {
	vote := VotePolicy{Base: VoteBasePresent, Threshold: 0.5}
	// 30 for out of 100 present fails a present-based majority.
	outcome := EvaluateDecision(
		VoteTotals{For: 30, Against: 10, Total: 40},
		nil,
		vote,
		DecisionContext{PresentWeight: 100},
	)
	if outcome.Decision != DecisionRejected {
		t.Fatalf("expected rejected on present base, got %s", outcome.Decision)
	}
}

func TestEvaluateDecisionThresholdIsStrict(t *testing.T) {
	vote := VotePolicy{Base: VoteBasePresent, Threshold: 0.5}
	// Exactly half of the present weight is not enough.
	outcome := EvaluateDecision(
		VoteTotals{For: 50, Against: 10, Total: 60},
		nil,
		vote,
		DecisionContext{PresentWeight: 100},
	)
	if outcome.Decision != DecisionRejected {
		t.Fatalf("expected rejected at exact threshold, got %s", outcome.Decision)
	}

	// One more unit of weight clears the bar.
	outcome = EvaluateDecision(
		VoteTotals{For: 51, Against: 10, Total: 61},
		nil,
		vote,
		DecisionContext{PresentWeight: 100},
	)
	if outcome.Decision != DecisionAdopted {
		t.Fatalf("expected adopted above threshold, got %s", outcome.Decision)
	}
}

package entities

import (
	"fmt"
	"strconv"
)

// DecisionContext carries the denominators the policies may reference.
type DecisionContext struct {
	EligibleMembers float64
	PresentWeight   float64
}

type DecisionOutcome struct {
	Decision Decision
	Reason   string
}

// EvaluateDecision is the pure decision procedure over an already-selected
// tally. The quorum policy is optional; the vote policy is not (callers
// resolve the fallback chain before calling).
func EvaluateDecision(
	totals VoteTotals,
	quorum *QuorumPolicy,
	vote VotePolicy,
	dctx DecisionContext,
) DecisionOutcome {
	if quorum != nil {
		denominator := dctx.EligibleMembers
		if quorum.Denominator == QuorumDenominatorPresent {
			denominator = dctx.PresentWeight
		}
		required := quorum.Threshold * denominator
		expressed := totals.Expressed()
		if expressed < required {
			return DecisionOutcome{
				Decision: DecisionNoQuorum,
				Reason: fmt.Sprintf(
					"Quorum non atteint : %s exprimés pour un minimum requis de %s",
					formatWeight(expressed), formatWeight(required),
				),
			}
		}
	}

	against := totals.Against
	if vote.AbstentionAsAgainst {
		against += totals.Abstain
	}

	denominator := totals.For + against
	if vote.Base == VoteBasePresent {
		denominator = dctx.PresentWeight
	}

	votesFor := formatWeight(totals.For)
	votesAgainst := formatWeight(against)

	if totals.For == against {
		return DecisionOutcome{
			Decision: DecisionRejected,
			Reason:   fmt.Sprintf("Égalité des voix (%s pour / %s contre)", votesFor, votesAgainst),
		}
	}
	// Adoption requires strictly more than the threshold share.
	if totals.For > vote.Threshold*denominator {
		return DecisionOutcome{
			Decision: DecisionAdopted,
			Reason:   fmt.Sprintf("Motion adoptée (%s pour / %s contre)", votesFor, votesAgainst),
		}
	}
	return DecisionOutcome{
		Decision: DecisionRejected,
		Reason:   fmt.Sprintf("Motion rejetée (%s pour / %s contre)", votesFor, votesAgainst),
	}
}

func formatWeight(value float64) string {
	return strconv.FormatFloat(value, 'f', -1, 64)
}

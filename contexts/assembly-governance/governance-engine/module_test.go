package governanceengine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	governanceengine "plenum/contexts/assembly-governance/governance-engine"
	"plenum/contexts/assembly-governance/governance-engine/adapters/memory"
	"plenum/contexts/assembly-governance/governance-engine/domain/entities"
	domainerrors "plenum/contexts/assembly-governance/governance-engine/domain/errors"
	"plenum/contexts/assembly-governance/governance-engine/ports"
	httptransport "plenum/contexts/assembly-governance/governance-engine/transport/http"
)

const (
	testTenant    = "tenant-1"
	memberAliceID = "0b9fa652-1b34-4c2b-8a5d-111111111111"
	memberBrunoID = "1c8eb763-2c45-4d3c-9b6e-222222222222"
	memberChloeID = "2d9fc874-3d56-4e4d-ac7f-333333333333"
)

func tenantCtx() entities.TenantContext {
	return entities.TenantContext{TenantID: testTenant, ActorID: memberAliceID}
}

func floatPtr(v float64) *float64 { return &v }

func openedNow() *time.Time {
	now := time.Now().UTC().Add(-time.Minute)
	return &now
}

func seedVotingMeeting(t *testing.T, module governanceengine.Module) {
	t.Helper()
	module.Store.SetMeeting(entities.Meeting{
		MeetingID: "meeting-1",
		TenantID:  testTenant,
		Title:     "Assemblée générale ordinaire",
		Status:    entities.MeetingStatusLive,
	})
	module.Store.SetMotion(entities.Motion{
		MotionID:  "motion-1",
		MeetingID: "meeting-1",
		TenantID:  testTenant,
		Title:     "Approbation des comptes",
		OpenedAt:  openedNow(),
	})
	module.Store.SetMember(entities.Member{
		MemberID: memberAliceID,
		TenantID: testTenant,
		FullName: "Alice Martin",
		Active:   true,
	})
	module.Store.SetMember(entities.Member{
		MemberID:    memberBrunoID,
		TenantID:    testTenant,
		FullName:    "Bruno Caron",
		VotingPower: floatPtr(3.5),
		Active:      true,
	})
}

func markPresent(t *testing.T, module governanceengine.Module, meetingID string, memberID string, mode string) {
	t.Helper()
	_, err := module.Handler.UpsertAttendanceHandler(context.Background(), tenantCtx(), meetingID, httptransport.UpsertAttendanceRequest{
		MemberID: memberID,
		Mode:     mode,
	})
	if err != nil {
		t.Fatalf("attendance upsert failed: %v", err)
	}
}

func TestCastBallotRecordsWeightedVote(t *testing.T) {
	module := governanceengine.NewInMemoryModule(nil)
	seedVotingMeeting(t, module)
	markPresent(t, module, "meeting-1", memberBrunoID, "present")

	resp, err := module.Handler.CastBallotHandler(context.Background(), tenantCtx(), "motion-1", httptransport.CastBallotRequest{
		MemberID: memberBrunoID,
		Value:    "for",
	})
	if err != nil {
		t.Fatalf("cast ballot failed: %v", err)
	}
	if resp.BallotID == "" {
		t.Fatalf("expected a generated ballot id")
	}
	if resp.Value != "for" || resp.Weight != 3.5 {
		t.Fatalf("unexpected ballot: value=%s weight=%v", resp.Value, resp.Weight)
	}
	if resp.ViaProxy {
		t.Fatalf("direct vote must not be flagged as proxy")
	}

	stored, ok := module.Store.GetBallot("motion-1", memberBrunoID)
	if !ok {
		t.Fatalf("ballot not persisted")
	}
	if stored.MeetingID != "meeting-1" || stored.TenantID != testTenant {
		t.Fatalf("unexpected stored ballot: %+v", stored)
	}
}

func TestCastBallotRejectsInvalidValue(t *testing.T) {
	module := governanceengine.NewInMemoryModule(nil)
	seedVotingMeeting(t, module)
	markPresent(t, module, "meeting-1", memberAliceID, "present")

	_, err := module.Handler.CastBallotHandler(context.Background(), tenantCtx(), "motion-1", httptransport.CastBallotRequest{
		MemberID: memberAliceID,
		Value:    "maybe",
	})
	if !errors.Is(err, domainerrors.ErrInvalidBallotValue) {
		t.Fatalf("expected invalid ballot value, got %v", err)
	}
	if domainerrors.KindOf(err) != domainerrors.KindInvalidArgument {
		t.Fatalf("expected invalid_argument kind, got %s", domainerrors.KindOf(err))
	}
}

func TestCastBallotRequiresDirectPresence(t *testing.T) {
	module := governanceengine.NewInMemoryModule(nil)
	seedVotingMeeting(t, module)

	_, err := module.Handler.CastBallotHandler(context.Background(), tenantCtx(), "motion-1", httptransport.CastBallotRequest{
		MemberID: memberAliceID,
		Value:    "against",
	})
	if !errors.Is(err, domainerrors.ErrMemberNotPresent) {
		t.Fatalf("expected member not present, got %v", err)
	}

	// A proxy-mode record is attendance, not direct presence.
	markPresent(t, module, "meeting-1", memberAliceID, "proxy")
	_, err = module.Handler.CastBallotHandler(context.Background(), tenantCtx(), "motion-1", httptransport.CastBallotRequest{
		MemberID: memberAliceID,
		Value:    "against",
	})
	if !errors.Is(err, domainerrors.ErrMemberNotPresent) {
		t.Fatalf("expected member not present for proxy mode, got %v", err)
	}
}

func TestCastBallotRejectsMeetingNotLive(t *testing.T) {
	module := governanceengine.NewInMemoryModule(nil)
	seedVotingMeeting(t, module)
	markPresent(t, module, "meeting-1", memberAliceID, "present")

	module.Store.SetMeeting(entities.Meeting{
		MeetingID: "meeting-1",
		TenantID:  testTenant,
		Status:    entities.MeetingStatusPaused,
	})

	_, err := module.Handler.CastBallotHandler(context.Background(), tenantCtx(), "motion-1", httptransport.CastBallotRequest{
		MemberID: memberAliceID,
		Value:    "for",
	})
	if !errors.Is(err, domainerrors.ErrMeetingNotLive) {
		t.Fatalf("expected meeting not live, got %v", err)
	}
	if domainerrors.KindOf(err) != domainerrors.KindConflict {
		t.Fatalf("expected conflict kind, got %s", domainerrors.KindOf(err))
	}
}

func TestCastBallotProxyFlow(t *testing.T) {
	module := governanceengine.NewInMemoryModule(nil)
	seedVotingMeeting(t, module)
	// Bruno attends and holds Alice's proxy; Alice's seat carries her weight.
	markPresent(t, module, "meeting-1", memberBrunoID, "present")

	request := httptransport.CastBallotRequest{
		MemberID:            memberAliceID,
		Value:               "for",
		IsProxyVote:         true,
		ProxySourceMemberID: memberBrunoID,
	}

	_, err := module.Handler.CastBallotHandler(context.Background(), tenantCtx(), "motion-1", request)
	if !errors.Is(err, domainerrors.ErrNoActiveProxy) {
		t.Fatalf("expected no active proxy before delegation, got %v", err)
	}

	module.Store.SetProxyDelegation(entities.ProxyDelegation{
		DelegationID: "delegation-1",
		MeetingID:    "meeting-1",
		TenantID:     testTenant,
		GiverID:      memberAliceID,
		ReceiverID:   memberBrunoID,
		Active:       true,
	})

	resp, err := module.Handler.CastBallotHandler(context.Background(), tenantCtx(), "motion-1", request)
	if err != nil {
		t.Fatalf("proxy cast failed: %v", err)
	}
	if !resp.ViaProxy || resp.ProxySourceMemberID != memberBrunoID {
		t.Fatalf("unexpected proxy ballot: %+v", resp)
	}
	if resp.MemberID != memberAliceID || resp.Weight != 1.0 {
		t.Fatalf("ballot must count for the represented seat at its own weight: %+v", resp)
	}
}

func TestCastBallotProxySourceValidation(t *testing.T) {
	module := governanceengine.NewInMemoryModule(nil)
	seedVotingMeeting(t, module)

	_, err := module.Handler.CastBallotHandler(context.Background(), tenantCtx(), "motion-1", httptransport.CastBallotRequest{
		MemberID:    memberAliceID,
		Value:       "for",
		IsProxyVote: true,
	})
	if !errors.Is(err, domainerrors.ErrProxySourceRequired) {
		t.Fatalf("expected proxy source required, got %v", err)
	}

	_, err = module.Handler.CastBallotHandler(context.Background(), tenantCtx(), "motion-1", httptransport.CastBallotRequest{
		MemberID:            memberAliceID,
		Value:               "for",
		IsProxyVote:         true,
		ProxySourceMemberID: "not-a-uuid",
	})
	if !errors.Is(err, domainerrors.ErrProxySourceInvalid) {
		t.Fatalf("expected proxy source invalid, got %v", err)
	}

	// Bruno exists but never checked in.
	_, err = module.Handler.CastBallotHandler(context.Background(), tenantCtx(), "motion-1", httptransport.CastBallotRequest{
		MemberID:            memberAliceID,
		Value:               "for",
		IsProxyVote:         true,
		ProxySourceMemberID: memberBrunoID,
	})
	if !errors.Is(err, domainerrors.ErrProxyMemberNotPresent) {
		t.Fatalf("expected proxy member not present, got %v", err)
	}
}

func TestCastBallotRecastOverwrites(t *testing.T) {
	module := governanceengine.NewInMemoryModule(nil)
	seedVotingMeeting(t, module)
	markPresent(t, module, "meeting-1", memberAliceID, "remote")

	first, err := module.Handler.CastBallotHandler(context.Background(), tenantCtx(), "motion-1", httptransport.CastBallotRequest{
		MemberID: memberAliceID,
		Value:    "for",
	})
	if err != nil {
		t.Fatalf("first cast failed: %v", err)
	}

	second, err := module.Handler.CastBallotHandler(context.Background(), tenantCtx(), "motion-1", httptransport.CastBallotRequest{
		MemberID: memberAliceID,
		Value:    "against",
	})
	if err != nil {
		t.Fatalf("re-cast failed: %v", err)
	}
	if second.BallotID != first.BallotID {
		t.Fatalf("re-cast must keep the ballot id: %s vs %s", second.BallotID, first.BallotID)
	}
	if second.Value != "against" {
		t.Fatalf("re-cast must overwrite the value, got %s", second.Value)
	}
	if !second.CastAt.Equal(first.CastAt) {
		t.Fatalf("re-cast must preserve the original cast time")
	}

	stored, _ := module.Store.GetBallot("motion-1", memberAliceID)
	if stored.Value != entities.BallotValueAgainst {
		t.Fatalf("stored ballot not overwritten: %s", stored.Value)
	}
}

func TestAttendanceAbsentDeletesRecord(t *testing.T) {
	module := governanceengine.NewInMemoryModule(nil)
	seedVotingMeeting(t, module)
	markPresent(t, module, "meeting-1", memberAliceID, "present")

	present, err := module.Handler.AttendanceQueries.IsPresent(context.Background(), tenantCtx(), "meeting-1", memberAliceID)
	if err != nil {
		t.Fatalf("presence query failed: %v", err)
	}
	if !present {
		t.Fatalf("expected member to be present after upsert")
	}

	resp, err := module.Handler.UpsertAttendanceHandler(context.Background(), tenantCtx(), "meeting-1", httptransport.UpsertAttendanceRequest{
		MemberID: memberAliceID,
		Mode:     "absent",
	})
	if err != nil {
		t.Fatalf("absent upsert failed: %v", err)
	}
	if !resp.Deleted {
		t.Fatalf("expected deletion acknowledgement")
	}

	present, err = module.Handler.AttendanceQueries.IsPresent(context.Background(), tenantCtx(), "meeting-1", memberAliceID)
	if err != nil {
		t.Fatalf("presence query failed: %v", err)
	}
	if present {
		t.Fatalf("member must not read as present after the absent round trip")
	}

	list, err := module.Handler.ListAttendanceHandler(context.Background(), "meeting-1")
	if err != nil {
		t.Fatalf("list attendance failed: %v", err)
	}
	if len(list.Items) != 0 {
		t.Fatalf("expected empty attendance list, got %d rows", len(list.Items))
	}
}

func TestAttendanceSummaryGroupsByMode(t *testing.T) {
	module := governanceengine.NewInMemoryModule(nil)
	seedVotingMeeting(t, module)
	module.Store.SetMember(entities.Member{
		MemberID: memberChloeID,
		TenantID: testTenant,
		FullName: "Chloé Dubois",
		Active:   true,
	})

	markPresent(t, module, "meeting-1", memberAliceID, "present")
	markPresent(t, module, "meeting-1", memberBrunoID, "remote")
	markPresent(t, module, "meeting-1", memberChloeID, "excused")

	summary, err := module.Handler.AttendanceSummaryHandler(context.Background(), "meeting-1")
	if err != nil {
		t.Fatalf("summary failed: %v", err)
	}
	if summary.TotalCount != 3 {
		t.Fatalf("expected 3 attendance rows, got %d", summary.TotalCount)
	}
	// Bruno weighs 3.5, Alice 1.0; the excused row carries no presence weight.
	if summary.PresentWeight != 4.5 {
		t.Fatalf("expected present weight 4.5, got %v", summary.PresentWeight)
	}
	byMode := make(map[string]httptransport.AttendanceModeStats, len(summary.Modes))
	for _, stats := range summary.Modes {
		byMode[stats.Mode] = stats
	}
	if byMode["present"].Count != 1 || byMode["remote"].Weight != 3.5 || byMode["excused"].Count != 1 {
		t.Fatalf("unexpected per-mode stats: %+v", summary.Modes)
	}
}

func TestAttendanceRejectsArchivedMeeting(t *testing.T) {
	module := governanceengine.NewInMemoryModule(nil)
	seedVotingMeeting(t, module)
	module.Store.SetMeeting(entities.Meeting{
		MeetingID: "meeting-1",
		TenantID:  testTenant,
		Status:    entities.MeetingStatusArchived,
	})

	_, err := module.Handler.UpsertAttendanceHandler(context.Background(), tenantCtx(), "meeting-1", httptransport.UpsertAttendanceRequest{
		MemberID: memberAliceID,
		Mode:     "present",
	})
	if !errors.Is(err, domainerrors.ErrMeetingNotFound) {
		t.Fatalf("expected archived meeting to read as not found, got %v", err)
	}
}

func TestTransitionReadinessDraftNeedsMotions(t *testing.T) {
	module := governanceengine.NewInMemoryModule(nil)
	module.Store.SetMeeting(entities.Meeting{
		MeetingID: "meeting-1",
		TenantID:  testTenant,
		Status:    entities.MeetingStatusDraft,
	})

	readiness, err := module.Handler.TransitionReadinessHandler(context.Background(), tenantCtx(), "meeting-1")
	if err != nil {
		t.Fatalf("readiness failed: %v", err)
	}
	if readiness.CurrentStatus != "draft" {
		t.Fatalf("unexpected current status %s", readiness.CurrentStatus)
	}
	check, ok := readiness.Transitions["scheduled"]
	if !ok {
		t.Fatalf("scheduled must be reachable from draft: %+v", readiness.Transitions)
	}
	if check.CanProceed || len(check.Issues) != 1 || check.Issues[0].Code != "no_motions" {
		t.Fatalf("expected a single no_motions block, got %+v", check)
	}

	module.Store.SetMotion(entities.Motion{
		MotionID:  "motion-1",
		MeetingID: "meeting-1",
		TenantID:  testTenant,
	})
	readiness, err = module.Handler.TransitionReadinessHandler(context.Background(), tenantCtx(), "meeting-1")
	if err != nil {
		t.Fatalf("readiness failed after adding a motion: %v", err)
	}
	if !readiness.Transitions["scheduled"].CanProceed {
		t.Fatalf("expected scheduled to be reachable once a motion exists")
	}
}

func TestTransitionFreezeWarnsWithoutPresident(t *testing.T) {
	module := governanceengine.NewInMemoryModule(nil)
	module.Store.SetMeeting(entities.Meeting{
		MeetingID: "meeting-1",
		TenantID:  testTenant,
		Status:    entities.MeetingStatusScheduled,
	})
	module.Store.SetMember(entities.Member{MemberID: memberAliceID, TenantID: testTenant, Active: true})
	markPresent(t, module, "meeting-1", memberAliceID, "present")

	check, err := module.Handler.TransitionCheckHandler(context.Background(), tenantCtx(), "meeting-1", "frozen")
	if err != nil {
		t.Fatalf("transition check failed: %v", err)
	}
	if !check.CanProceed {
		t.Fatalf("a missing president must warn, not block: %+v", check)
	}
	if len(check.Warnings) != 1 || check.Warnings[0].Code != "no_president" {
		t.Fatalf("expected a no_president warning, got %+v", check.Warnings)
	}
}

func TestApplyTransitionBlockedThenApplied(t *testing.T) {
	module := governanceengine.NewInMemoryModule(nil)
	seedVotingMeeting(t, module)

	_, err := module.Handler.ApplyTransitionHandler(context.Background(), tenantCtx(), "meeting-1", httptransport.ApplyTransitionRequest{
		TargetStatus: "closed",
	})
	if !errors.Is(err, domainerrors.ErrTransitionBlocked) {
		t.Fatalf("expected block while a motion is open, got %v", err)
	}
	if meeting, _ := module.Store.GetMeeting("meeting-1"); meeting.Status != entities.MeetingStatusLive {
		t.Fatalf("blocked transition must not mutate the meeting, got %s", meeting.Status)
	}

	closedAt := time.Now().UTC()
	motion, _ := module.Store.GetMotion("motion-1")
	motion.ClosedAt = &closedAt
	module.Store.SetMotion(motion)

	resp, err := module.Handler.ApplyTransitionHandler(context.Background(), tenantCtx(), "meeting-1", httptransport.ApplyTransitionRequest{
		TargetStatus: "closed",
	})
	if err != nil {
		t.Fatalf("close transition failed: %v", err)
	}
	if resp.FromStatus != "live" || resp.ToStatus != "closed" {
		t.Fatalf("unexpected transition response: %+v", resp)
	}
}

func TestApplyTransitionValidatedStampsMeeting(t *testing.T) {
	module := governanceengine.NewInMemoryModule(nil)
	module.Store.SetMeeting(entities.Meeting{
		MeetingID: "meeting-1",
		TenantID:  testTenant,
		Status:    entities.MeetingStatusClosed,
	})
	closedAt := time.Now().UTC()
	now := time.Now().UTC()
	module.Store.SetMotion(entities.Motion{
		MotionID:  "motion-1",
		MeetingID: "meeting-1",
		TenantID:  testTenant,
		ClosedAt:  &closedAt,
		Official: entities.OfficialResult{
			Source:     entities.TallySourceElectronic,
			Decision:   entities.DecisionAdopted,
			ComputedAt: &now,
		},
	})

	_, err := module.Handler.ApplyTransitionHandler(context.Background(), tenantCtx(), "meeting-1", httptransport.ApplyTransitionRequest{
		TargetStatus: "validated",
	})
	if err != nil {
		t.Fatalf("validate transition failed: %v", err)
	}
	meeting, _ := module.Store.GetMeeting("meeting-1")
	if meeting.Status != entities.MeetingStatusValidated {
		t.Fatalf("expected validated status, got %s", meeting.Status)
	}
	if meeting.ValidatedAt == nil {
		t.Fatalf("validation must stamp validated_at")
	}
}

func TestApplyTransitionArchivedIsImmutable(t *testing.T) {
	module := governanceengine.NewInMemoryModule(nil)
	module.Store.SetMeeting(entities.Meeting{
		MeetingID: "meeting-1",
		TenantID:  testTenant,
		Status:    entities.MeetingStatusArchived,
	})

	check, err := module.Handler.TransitionCheckHandler(context.Background(), tenantCtx(), "meeting-1", "draft")
	if err != nil {
		t.Fatalf("transition check failed: %v", err)
	}
	if check.CanProceed || len(check.Issues) != 1 || check.Issues[0].Code != "archived_immutable" {
		t.Fatalf("archived meeting must report the single immutability issue, got %+v", check)
	}

	readiness, err := module.Handler.TransitionReadinessHandler(context.Background(), tenantCtx(), "meeting-1")
	if err != nil {
		t.Fatalf("readiness failed: %v", err)
	}
	if len(readiness.Transitions) != 0 {
		t.Fatalf("archived meeting must expose no transitions, got %+v", readiness.Transitions)
	}
}

func TestOfficialResultPrefersConsistentManualCounts(t *testing.T) {
	module := governanceengine.NewInMemoryModule(nil)
	seedVotingMeeting(t, module)

	closedAt := time.Now().UTC()
	motion, _ := module.Store.GetMotion("motion-1")
	motion.ClosedAt = &closedAt
	motion.ManualTotal = 100
	motion.ManualFor = 60
	motion.ManualAgainst = 30
	motion.ManualAbstain = 10
	module.Store.SetMotion(motion)

	resp, err := module.Handler.ComputeOfficialResultHandler(context.Background(), tenantCtx(), "motion-1")
	if err != nil {
		t.Fatalf("compute failed: %v", err)
	}
	if resp.Source != "manual" || resp.Decision != "adopted" {
		t.Fatalf("expected adopted manual result, got %+v", resp)
	}
	if resp.For != 60 || resp.Total != 100 {
		t.Fatalf("manual figures must flow through: %+v", resp)
	}

	stored, _ := module.Store.GetMotion("motion-1")
	if !stored.Official.Computed() || stored.Official.Source != entities.TallySourceManual {
		t.Fatalf("official result not persisted: %+v", stored.Official)
	}
}

func TestOfficialResultFallsBackToElectronicTally(t *testing.T) {
	module := governanceengine.NewInMemoryModule(nil)
	seedVotingMeeting(t, module)
	markPresent(t, module, "meeting-1", memberAliceID, "present")
	markPresent(t, module, "meeting-1", memberBrunoID, "present")

	for _, cast := range []struct {
		member string
		value  string
	}{
		{memberBrunoID, "for"},
		{memberAliceID, "against"},
	} {
		if _, err := module.Handler.CastBallotHandler(context.Background(), tenantCtx(), "motion-1", httptransport.CastBallotRequest{
			MemberID: cast.member,
			Value:    cast.value,
		}); err != nil {
			t.Fatalf("cast failed: %v", err)
		}
	}

	// Manual counts drift from their stated total, so they are unusable.
	motion, _ := module.Store.GetMotion("motion-1")
	motion.ManualTotal = 100
	motion.ManualFor = 10
	module.Store.SetMotion(motion)

	resp, err := module.Handler.PreviewOfficialResultHandler(context.Background(), tenantCtx(), "motion-1")
	if err != nil {
		t.Fatalf("preview failed: %v", err)
	}
	if resp.Source != "evote" {
		t.Fatalf("expected electronic fallback, got %s", resp.Source)
	}
	if resp.For != 3.5 || resp.Against != 1.0 {
		t.Fatalf("expected weighted electronic figures, got %+v", resp)
	}
	if resp.Decision != "adopted" {
		t.Fatalf("expected adopted, got %s (%s)", resp.Decision, resp.Reason)
	}

	// Preview never persists.
	stored, _ := module.Store.GetMotion("motion-1")
	if stored.Official.Computed() {
		t.Fatalf("preview must not write the official result")
	}
}

func TestOfficialResultReportsNoQuorum(t *testing.T) {
	module := governanceengine.NewInMemoryModule(nil)
	seedVotingMeeting(t, module)
	markPresent(t, module, "meeting-1", memberAliceID, "present")

	module.Store.SetQuorumPolicy(entities.QuorumPolicy{
		PolicyID:    "quorum-strict",
		TenantID:    testTenant,
		Name:        "Quorum moitié des membres",
		Denominator: entities.QuorumDenominatorEligibleMembers,
		Threshold:   0.5,
	})
	meeting, _ := module.Store.GetMeeting("meeting-1")
	meeting.QuorumPolicyID = "quorum-strict"
	module.Store.SetMeeting(meeting)

	// Three eligible members put the quorum bar at 1.5 expressed weight.
	module.Store.SetMember(entities.Member{MemberID: memberChloeID, TenantID: testTenant, Active: true})

	if _, err := module.Handler.CastBallotHandler(context.Background(), tenantCtx(), "motion-1", httptransport.CastBallotRequest{
		MemberID: memberAliceID,
		Value:    "for",
	}); err != nil {
		t.Fatalf("cast failed: %v", err)
	}

	resp, err := module.Handler.PreviewOfficialResultHandler(context.Background(), tenantCtx(), "motion-1")
	if err != nil {
		t.Fatalf("preview failed: %v", err)
	}
	if resp.Decision != "no_quorum" {
		t.Fatalf("expected no_quorum, got %s (%s)", resp.Decision, resp.Reason)
	}
}

func TestConsolidateMeetingUpdatesClosedMotions(t *testing.T) {
	module := governanceengine.NewInMemoryModule(nil)
	seedVotingMeeting(t, module)

	closedAt := time.Now().UTC()
	for _, motionID := range []string{"motion-1", "motion-2"} {
		module.Store.SetMotion(entities.Motion{
			MotionID:      motionID,
			MeetingID:     "meeting-1",
			TenantID:      testTenant,
			ClosedAt:      &closedAt,
			ManualTotal:   10,
			ManualFor:     6,
			ManualAgainst: 4,
		})
	}
	// Still open, must be skipped.
	module.Store.SetMotion(entities.Motion{
		MotionID:  "motion-3",
		MeetingID: "meeting-1",
		TenantID:  testTenant,
		OpenedAt:  openedNow(),
	})

	resp, err := module.Handler.ConsolidateMeetingHandler(context.Background(), tenantCtx(), "meeting-1")
	if err != nil {
		t.Fatalf("consolidate failed: %v", err)
	}
	if resp.Updated != 2 {
		t.Fatalf("expected 2 consolidated motions, got %d", resp.Updated)
	}

	// Idempotent on repeat.
	resp, err = module.Handler.ConsolidateMeetingHandler(context.Background(), tenantCtx(), "meeting-1")
	if err != nil {
		t.Fatalf("second consolidate failed: %v", err)
	}
	if resp.Updated != 2 {
		t.Fatalf("expected consolidation to stay at 2, got %d", resp.Updated)
	}

	stored, _ := module.Store.GetMotion("motion-1")
	if stored.Official.Decision != entities.DecisionAdopted {
		t.Fatalf("expected adopted official result, got %+v", stored.Official)
	}
	open, _ := module.Store.GetMotion("motion-3")
	if open.Official.Computed() {
		t.Fatalf("open motion must not be consolidated")
	}
}

// failingBus rejects every publish, standing in for an unreachable broker.
type failingBus struct{}

func (failingBus) Publish(context.Context, string, ports.EventEnvelope) error {
	return errors.New("bus indisponible")
}

func newModuleWithDeps(mutate func(*memory.Store, *governanceengine.Dependencies)) governanceengine.Module {
	store := memory.NewStore()
	deps := governanceengine.Dependencies{
		Meetings:   store,
		Motions:    store,
		Members:    store,
		Attendance: store,
		Proxies:    store,
		Ballots:    store,
		UnitOfWork: store,
		Policies:   store,
		Audit:      store,
		Outbox:     store,
		Clock:      store,
		IDGen:      store,
	}
	if mutate != nil {
		mutate(store, &deps)
	}
	module := governanceengine.NewModule(deps)
	module.Store = store
	return module
}

func TestBroadcastFailureNeverFailsWrites(t *testing.T) {
	module := newModuleWithDeps(func(_ *memory.Store, deps *governanceengine.Dependencies) {
		deps.Broadcast = failingBus{}
	})
	seedVotingMeeting(t, module)
	markPresent(t, module, "meeting-1", memberAliceID, "present")

	resp, err := module.Handler.CastBallotHandler(context.Background(), tenantCtx(), "motion-1", httptransport.CastBallotRequest{
		MemberID: memberAliceID,
		Value:    "for",
	})
	if err != nil {
		t.Fatalf("cast must survive a failing bus: %v", err)
	}
	if _, ok := module.Store.GetBallot("motion-1", memberAliceID); !ok || resp.BallotID == "" {
		t.Fatalf("ballot must be durable despite the failing bus")
	}

	attendance, err := module.Handler.UpsertAttendanceHandler(context.Background(), tenantCtx(), "meeting-1", httptransport.UpsertAttendanceRequest{
		MemberID: memberBrunoID,
		Mode:     "remote",
	})
	if err != nil {
		t.Fatalf("attendance upsert must survive a failing bus: %v", err)
	}
	if attendance.Mode != "remote" {
		t.Fatalf("unexpected attendance response: %+v", attendance)
	}
}

// statusChangingUnitOfWork flips the meeting status right before the
// transactional lock, reproducing a lifecycle change winning the race between
// validation and the write.
type statusChangingUnitOfWork struct {
	store     *memory.Store
	meetingID string
	to        entities.MeetingStatus
}

func (u statusChangingUnitOfWork) InTransaction(ctx context.Context, fn func(context.Context, ports.BallotTx) error) error {
	meeting, ok := u.store.GetMeeting(u.meetingID)
	if ok {
		meeting.Status = u.to
		u.store.SetMeeting(meeting)
	}
	return u.store.InTransaction(ctx, fn)
}

func TestCastBallotRejectsConcurrentStatusChange(t *testing.T) {
	module := newModuleWithDeps(func(store *memory.Store, deps *governanceengine.Dependencies) {
		deps.UnitOfWork = statusChangingUnitOfWork{
			store:     store,
			meetingID: "meeting-1",
			to:        entities.MeetingStatusPaused,
		}
	})
	seedVotingMeeting(t, module)
	markPresent(t, module, "meeting-1", memberAliceID, "present")

	_, err := module.Handler.CastBallotHandler(context.Background(), tenantCtx(), "motion-1", httptransport.CastBallotRequest{
		MemberID: memberAliceID,
		Value:    "for",
	})
	if !errors.Is(err, domainerrors.ErrMeetingUnavailable) {
		t.Fatalf("expected the locked re-read to fail the cast, got %v", err)
	}
	if domainerrors.KindOf(err) != domainerrors.KindConflict {
		t.Fatalf("expected conflict kind, got %s", domainerrors.KindOf(err))
	}
	if _, ok := module.Store.GetBallot("motion-1", memberAliceID); ok {
		t.Fatalf("no ballot may be stored when the lock re-check fails")
	}
}

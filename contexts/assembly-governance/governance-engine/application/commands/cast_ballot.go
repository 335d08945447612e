package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	application "plenum/contexts/assembly-governance/governance-engine/application"
	"plenum/contexts/assembly-governance/governance-engine/domain/entities"
	domainerrors "plenum/contexts/assembly-governance/governance-engine/domain/errors"
	"plenum/contexts/assembly-governance/governance-engine/ports"
)

// CastBallotCommand is the write-model input for ballot casting. MemberID is
// the seat the ballot counts for; on a proxy vote ProxySourceMemberID is the
// attending member physically casting it.
type CastBallotCommand struct {
	MotionID            string
	MemberID            string
	Value               string
	IsProxyVote         bool
	ProxySourceMemberID string
}

// BallotUseCase enforces the full casting sequence: input shape, meeting and
// motion state, member eligibility, presence or delegation, then the
// lock-guarded write.
type BallotUseCase struct {
	Motions    ports.MotionRepository
	Members    ports.MemberRepository
	Attendance ports.AttendanceRepository
	Proxies    ports.ProxyRepository
	Ballots    ports.BallotRepository
	UnitOfWork ports.BallotUnitOfWork
	Audit      ports.AuditSink
	Broadcast  ports.Broadcaster
	Clock      ports.Clock
	IDGen      ports.IDGenerator
	Logger     *slog.Logger
}

// CastBallot validates and records one member's vote on a motion. All
// pre-write validation is lock-free; the meeting row is re-read under a
// row lock immediately before the write so a racing status change cannot let
// a ballot through.
func (uc BallotUseCase) CastBallot(
	ctx context.Context,
	tenant entities.TenantContext,
	cmd CastBallotCommand,
) (entities.Ballot, error) {
	logger := application.ResolveLogger(uc.Logger)

	motionID := strings.TrimSpace(cmd.MotionID)
	memberID := strings.TrimSpace(cmd.MemberID)
	logger.Info("ballot cast processing started",
		"event", "governance_ballot_cast_started",
		"module", "assembly-governance/governance-engine",
		"layer", "application",
		"tenant_id", tenant.TenantID,
		"motion_id", motionID,
		"member_id", memberID,
	)

	if motionID == "" {
		return entities.Ballot{}, domainerrors.ErrMotionIDRequired
	}
	if memberID == "" {
		return entities.Ballot{}, domainerrors.ErrMemberIDRequired
	}
	value, ok := entities.ParseBallotValue(cmd.Value)
	if !ok {
		logger.Warn("ballot cast validation failed",
			"event", "governance_ballot_cast_validation_failed",
			"module", "assembly-governance/governance-engine",
			"layer", "application",
			"motion_id", motionID,
			"member_id", memberID,
			"value", strings.TrimSpace(cmd.Value),
		)
		return entities.Ballot{}, domainerrors.ErrInvalidBallotValue
	}

	bctx, found, err := uc.Motions.FindWithBallotContext(ctx, motionID)
	if err != nil {
		return entities.Ballot{}, err
	}
	if !found || bctx.Meeting.TenantID != strings.TrimSpace(tenant.TenantID) {
		return entities.Ballot{}, domainerrors.ErrMotionNotFound
	}
	meeting := bctx.Meeting
	motion := bctx.Motion

	if meeting.Status != entities.MeetingStatusLive {
		return entities.Ballot{}, fmt.Errorf("%w (statut %s)", domainerrors.ErrMeetingNotLive, meeting.Status)
	}
	if meeting.IsValidated() {
		return entities.Ballot{}, domainerrors.ErrMeetingValidated
	}
	if !motion.IsOpen() {
		return entities.Ballot{}, domainerrors.ErrMotionNotOpen
	}

	member, found, err := uc.Members.FindMemberByIDForTenant(ctx, memberID, tenant.TenantID)
	if err != nil {
		return entities.Ballot{}, err
	}
	if !found {
		return entities.Ballot{}, domainerrors.ErrMemberNotFound
	}
	if !member.Active {
		return entities.Ballot{}, domainerrors.ErrMemberInactive
	}
	weight := member.EffectivePower()
	if weight < 0 {
		return entities.Ballot{}, domainerrors.ErrInvalidVoteWeight
	}

	proxySourceID := ""
	if !cmd.IsProxyVote {
		direct, err := uc.Attendance.IsPresentDirect(ctx, meeting.MeetingID, memberID, meeting.TenantID)
		if err != nil {
			return entities.Ballot{}, err
		}
		if !direct {
			return entities.Ballot{}, domainerrors.ErrMemberNotPresent
		}
	} else {
		proxySourceID = strings.TrimSpace(cmd.ProxySourceMemberID)
		if proxySourceID == "" {
			return entities.Ballot{}, domainerrors.ErrProxySourceRequired
		}
		if _, err := uuid.Parse(proxySourceID); err != nil {
			return entities.Ballot{}, domainerrors.ErrProxySourceInvalid
		}
		holder, found, err := uc.Members.FindMemberByIDForTenant(ctx, proxySourceID, tenant.TenantID)
		if err != nil {
			return entities.Ballot{}, err
		}
		if !found {
			return entities.Ballot{}, domainerrors.ErrProxyMemberNotFound
		}
		if !holder.Active {
			return entities.Ballot{}, domainerrors.ErrProxyMemberInactive
		}
		direct, err := uc.Attendance.IsPresentDirect(ctx, meeting.MeetingID, proxySourceID, meeting.TenantID)
		if err != nil {
			return entities.Ballot{}, err
		}
		if !direct {
			return entities.Ballot{}, domainerrors.ErrProxyMemberNotPresent
		}
		active, err := uc.Proxies.HasActiveProxy(ctx, meeting.MeetingID, memberID, proxySourceID)
		if err != nil {
			return entities.Ballot{}, err
		}
		if !active {
			return entities.Ballot{}, domainerrors.ErrNoActiveProxy
		}
	}

	now := uc.now()
	var stored entities.Ballot
	err = uc.UnitOfWork.InTransaction(ctx, func(ctx context.Context, tx ports.BallotTx) error {
		locked, found, err := tx.LockMeeting(ctx, meeting.MeetingID, tenant.TenantID)
		if err != nil {
			return err
		}
		// Anything other than the status validated above means a concurrent
		// lifecycle change won the race.
		if !found || locked.Status != entities.MeetingStatusLive {
			return domainerrors.ErrMeetingUnavailable
		}

		ballot := entities.Ballot{
			TenantID:            tenant.TenantID,
			MeetingID:           meeting.MeetingID,
			MotionID:            motionID,
			MemberID:            memberID,
			Value:               value,
			Weight:              weight,
			ViaProxy:            cmd.IsProxyVote,
			ProxySourceMemberID: proxySourceID,
			CastAt:              now,
			UpdatedAt:           now,
		}
		if existing, found, err := tx.FindBallot(ctx, motionID, memberID); err != nil {
			return err
		} else if found {
			ballot.BallotID = existing.BallotID
			ballot.CastAt = existing.CastAt
		} else {
			ballotID, err := uc.IDGen.NewID(ctx)
			if err != nil {
				return err
			}
			ballot.BallotID = ballotID
		}
		if err := tx.UpsertBallot(ctx, ballot); err != nil {
			return err
		}
		if readBack, found, err := tx.FindBallot(ctx, motionID, memberID); err != nil {
			return err
		} else if found {
			stored = readBack
		} else {
			// Storage gave nothing back; the write itself succeeded, so
			// answer with what was sent.
			stored = ballot
		}
		return nil
	})
	if err != nil {
		return entities.Ballot{}, err
	}

	appendAuditEvent(ctx, logger, uc.Audit, uc.IDGen, "governance.ballot_cast", tenant.TenantID, meeting.MeetingID, now, map[string]any{
		"ballot_id": stored.BallotID,
		"motion_id": stored.MotionID,
		"member_id": stored.MemberID,
		"value":     string(stored.Value),
		"weight":    stored.Weight,
		"via_proxy": stored.ViaProxy,
		"cast_by":   stored.ProxySourceMemberID,
	})
	uc.broadcastTally(ctx, logger, tenant.TenantID, meeting.MeetingID, motionID, now)

	logger.Info("ballot cast",
		"event", "governance_ballot_cast",
		"module", "assembly-governance/governance-engine",
		"layer", "application",
		"ballot_id", stored.BallotID,
		"motion_id", stored.MotionID,
		"member_id", stored.MemberID,
		"value", string(stored.Value),
		"weight", stored.Weight,
		"via_proxy", stored.ViaProxy,
	)
	return stored, nil
}

// broadcastTally pushes the refreshed weighted tally to the realtime channel.
// The ballot is already durable; nothing here may fail the cast.
func (uc BallotUseCase) broadcastTally(
	ctx context.Context,
	logger *slog.Logger,
	tenantID string,
	meetingID string,
	motionID string,
	now time.Time,
) {
	if uc.Broadcast == nil {
		return
	}
	totals, err := uc.Ballots.Tally(ctx, motionID)
	if err != nil {
		logger.Warn("tally broadcast skipped",
			"event", "governance_tally_broadcast_skipped",
			"module", "assembly-governance/governance-engine",
			"layer", "application",
			"motion_id", motionID,
			"error", err.Error(),
		)
		return
	}
	publishBestEffort(ctx, logger, uc.Broadcast, uc.IDGen, "motion.tally", tenantID, meetingID, now, map[string]any{
		"motion_id": motionID,
		"for":       totals.For,
		"against":   totals.Against,
		"abstain":   totals.Abstain,
		"total":     totals.Total,
	})
}

func (uc BallotUseCase) now() time.Time {
	now := time.Now().UTC()
	if uc.Clock != nil {
		now = uc.Clock.Now().UTC()
	}
	return now
}

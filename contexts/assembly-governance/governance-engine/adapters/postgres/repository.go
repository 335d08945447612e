package postgresadapter

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"plenum/contexts/assembly-governance/governance-engine/domain/entities"
	domainerrors "plenum/contexts/assembly-governance/governance-engine/domain/errors"
	"plenum/contexts/assembly-governance/governance-engine/ports"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	outboxStatusPending   = "pending"
	outboxStatusPublished = "published"
)

type Repository struct {
	db     *gorm.DB
	logger *slog.Logger
}

func NewRepository(db *gorm.DB, logger *slog.Logger) *Repository {
	if logger == nil {
		logger = slog.Default()
	}
	return &Repository{
		db:     db,
		logger: logger,
	}
}

// --- meetings ---

func (r *Repository) FindByIDForTenant(ctx context.Context, meetingID string, tenantID string) (entities.Meeting, bool, error) {
	var row meetingModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(meetingID)).
		Where("tenant_id = ?", strings.TrimSpace(tenantID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Meeting{}, false, nil
		}
		return entities.Meeting{}, false, r.logError("governance_repo_find_meeting_failed", err,
			"meeting_id", strings.TrimSpace(meetingID),
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) UpdateStatus(
	ctx context.Context,
	meetingID string,
	tenantID string,
	status entities.MeetingStatus,
	validatedAt *time.Time,
) error {
	updates := map[string]any{
		"status":     string(status),
		"updated_at": time.Now().UTC(),
	}
	if validatedAt != nil {
		updates["validated_at"] = validatedAt.UTC()
	}
	result := r.db.WithContext(ctx).
		Model(&meetingModel{}).
		Where("id = ?", strings.TrimSpace(meetingID)).
		Where("tenant_id = ?", strings.TrimSpace(tenantID)).
		Updates(updates)
	if result.Error != nil {
		return r.logError("governance_repo_update_meeting_status_failed", result.Error,
			"meeting_id", strings.TrimSpace(meetingID),
			"status", string(status),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrMeetingNotFound
	}
	return nil
}

func (r *Repository) HasPresident(ctx context.Context, meetingID string, tenantID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&meetingModel{}).
		Where("id = ?", strings.TrimSpace(meetingID)).
		Where("tenant_id = ?", strings.TrimSpace(tenantID)).
		Where("president_id IS NOT NULL AND president_id <> ''").
		Count(&count).
		Error
	if err != nil {
		return false, r.logError("governance_repo_has_president_failed", err,
			"meeting_id", strings.TrimSpace(meetingID),
		)
	}
	return count > 0, nil
}

// --- motions ---

func (r *Repository) FindWithBallotContext(ctx context.Context, motionID string) (ports.BallotContext, bool, error) {
	motion, meeting, found, err := r.findMotionWithMeeting(ctx, motionID, "governance_repo_find_ballot_context_failed")
	if err != nil || !found {
		return ports.BallotContext{}, false, err
	}
	return ports.BallotContext{Motion: motion, Meeting: meeting}, true, nil
}

func (r *Repository) FindWithOfficialContext(ctx context.Context, motionID string) (ports.OfficialContext, bool, error) {
	motion, meeting, found, err := r.findMotionWithMeeting(ctx, motionID, "governance_repo_find_official_context_failed")
	if err != nil || !found {
		return ports.OfficialContext{}, false, err
	}
	return ports.OfficialContext{Motion: motion, Meeting: meeting}, true, nil
}

func (r *Repository) findMotionWithMeeting(
	ctx context.Context,
	motionID string,
	failureEvent string,
) (entities.Motion, entities.Meeting, bool, error) {
	var motionRow motionModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(motionID)).
		First(&motionRow).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Motion{}, entities.Meeting{}, false, nil
		}
		return entities.Motion{}, entities.Meeting{}, false, r.logError(failureEvent, err,
			"motion_id", strings.TrimSpace(motionID),
		)
	}

	var meetingRow meetingModel
	err = r.db.WithContext(ctx).
		Where("id = ?", motionRow.MeetingID).
		First(&meetingRow).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Motion{}, entities.Meeting{}, false, nil
		}
		return entities.Motion{}, entities.Meeting{}, false, r.logError(failureEvent, err,
			"motion_id", strings.TrimSpace(motionID),
			"meeting_id", motionRow.MeetingID,
		)
	}
	return motionRow.toEntity(), meetingRow.toEntity(), true, nil
}

func (r *Repository) CountForMeeting(ctx context.Context, meetingID string, tenantID string) (int, error) {
	return r.countMotions(ctx, meetingID, tenantID, nil)
}

func (r *Repository) CountOpenForMeeting(ctx context.Context, meetingID string, tenantID string) (int, error) {
	return r.countMotions(ctx, meetingID, tenantID, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("opened_at IS NOT NULL").Where("closed_at IS NULL")
	})
}

func (r *Repository) CountClosedForMeeting(ctx context.Context, meetingID string, tenantID string) (int, error) {
	return r.countMotions(ctx, meetingID, tenantID, func(tx *gorm.DB) *gorm.DB {
		return tx.Where("closed_at IS NOT NULL")
	})
}

// CountBadClosedMotions and CountConsolidatedMotions evaluate the disqualifying
// predicates in the domain layer so the manual-consistency epsilon lives in one
// place.
func (r *Repository) CountBadClosedMotions(ctx context.Context, meetingID string, tenantID string) (int, error) {
	motions, err := r.ListClosedForMeeting(ctx, meetingID, tenantID)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, motion := range motions {
		if motion.HasDisqualifyingResult() {
			count++
		}
	}
	return count, nil
}

func (r *Repository) CountConsolidatedMotions(ctx context.Context, meetingID string, tenantID string) (int, error) {
	motions, err := r.ListClosedForMeeting(ctx, meetingID, tenantID)
	if err != nil {
		return 0, err
	}
	count := 0
	for _, motion := range motions {
		if motion.Official.Computed() {
			count++
		}
	}
	return count, nil
}

func (r *Repository) ListClosedForMeeting(ctx context.Context, meetingID string, tenantID string) ([]entities.Motion, error) {
	var rows []motionModel
	if err := r.db.WithContext(ctx).
		Where("meeting_id = ?", strings.TrimSpace(meetingID)).
		Where("tenant_id = ?", strings.TrimSpace(tenantID)).
		Where("closed_at IS NOT NULL").
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("governance_repo_list_closed_motions_failed", err,
			"meeting_id", strings.TrimSpace(meetingID),
		)
	}
	items := make([]entities.Motion, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) UpdateOfficialResults(
	ctx context.Context,
	motionID string,
	tenantID string,
	result entities.OfficialResult,
) error {
	updates := map[string]any{
		"official_source":   string(result.Source),
		"official_for":      result.For,
		"official_against":  result.Against,
		"official_abstain":  result.Abstain,
		"official_total":    result.Total,
		"official_decision": string(result.Decision),
		"official_reason":   result.Reason,
		"updated_at":        time.Now().UTC(),
	}
	if result.ComputedAt != nil {
		updates["official_computed_at"] = result.ComputedAt.UTC()
	}
	update := r.db.WithContext(ctx).
		Model(&motionModel{}).
		Where("id = ?", strings.TrimSpace(motionID)).
		Where("tenant_id = ?", strings.TrimSpace(tenantID)).
		Updates(updates)
	if update.Error != nil {
		return r.logError("governance_repo_update_official_results_failed", update.Error,
			"motion_id", strings.TrimSpace(motionID),
		)
	}
	if update.RowsAffected == 0 {
		return domainerrors.ErrMotionNotFound
	}
	return nil
}

func (r *Repository) countMotions(
	ctx context.Context,
	meetingID string,
	tenantID string,
	scope func(*gorm.DB) *gorm.DB,
) (int, error) {
	tx := r.db.WithContext(ctx).Model(&motionModel{}).
		Where("meeting_id = ?", strings.TrimSpace(meetingID)).
		Where("tenant_id = ?", strings.TrimSpace(tenantID))
	if scope != nil {
		tx = scope(tx)
	}
	var count int64
	if err := tx.Count(&count).Error; err != nil {
		return 0, r.logError("governance_repo_count_motions_failed", err,
			"meeting_id", strings.TrimSpace(meetingID),
		)
	}
	return int(count), nil
}

// --- members ---

func (r *Repository) FindMemberByIDForTenant(ctx context.Context, memberID string, tenantID string) (entities.Member, bool, error) {
	var row memberModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(memberID)).
		Where("tenant_id = ?", strings.TrimSpace(tenantID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Member{}, false, nil
		}
		return entities.Member{}, false, r.logError("governance_repo_find_member_failed", err,
			"member_id", strings.TrimSpace(memberID),
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) CountActive(ctx context.Context, tenantID string) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&memberModel{}).
		Where("tenant_id = ?", strings.TrimSpace(tenantID)).
		Where("active = ?", true).
		Count(&count).
		Error
	if err != nil {
		return 0, r.logError("governance_repo_count_active_members_failed", err,
			"tenant_id", strings.TrimSpace(tenantID),
		)
	}
	return int(count), nil
}

func (r *Repository) SumActiveWeight(ctx context.Context, tenantID string) (float64, error) {
	var sum float64
	err := r.db.WithContext(ctx).
		Model(&memberModel{}).
		Select("COALESCE(SUM(COALESCE(voting_power, 1.0)), 0)").
		Where("tenant_id = ?", strings.TrimSpace(tenantID)).
		Where("active = ?", true).
		Scan(&sum).
		Error
	if err != nil {
		return 0, r.logError("governance_repo_sum_active_weight_failed", err,
			"tenant_id", strings.TrimSpace(tenantID),
		)
	}
	return sum, nil
}

// --- attendance ---

var attendingModes = []string{
	string(entities.AttendanceModePresent),
	string(entities.AttendanceModeRemote),
	string(entities.AttendanceModeProxy),
}

var directModes = []string{
	string(entities.AttendanceModePresent),
	string(entities.AttendanceModeRemote),
}

func (r *Repository) IsPresent(ctx context.Context, meetingID string, memberID string, tenantID string) (bool, error) {
	return r.hasAttendanceIn(ctx, meetingID, memberID, tenantID, attendingModes)
}

func (r *Repository) IsPresentDirect(ctx context.Context, meetingID string, memberID string, tenantID string) (bool, error) {
	return r.hasAttendanceIn(ctx, meetingID, memberID, tenantID, directModes)
}

func (r *Repository) hasAttendanceIn(ctx context.Context, meetingID string, memberID string, tenantID string, modes []string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&attendanceModel{}).
		Where("meeting_id = ?", strings.TrimSpace(meetingID)).
		Where("member_id = ?", strings.TrimSpace(memberID)).
		Where("tenant_id = ?", strings.TrimSpace(tenantID)).
		Where("mode IN ?", modes).
		Count(&count).
		Error
	if err != nil {
		return false, r.logError("governance_repo_is_present_failed", err,
			"meeting_id", strings.TrimSpace(meetingID),
			"member_id", strings.TrimSpace(memberID),
		)
	}
	return count > 0, nil
}

func (r *Repository) Upsert(ctx context.Context, attendance entities.Attendance) (entities.Attendance, bool, error) {
	row := attendanceModelFromEntity(attendance)
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "meeting_id"}, {Name: "member_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"tenant_id":       row.TenantID,
			"mode":            row.Mode,
			"effective_power": row.EffectivePower,
			"notes":           row.Notes,
			"updated_at":      row.UpdatedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		return entities.Attendance{}, false, r.logError("governance_repo_upsert_attendance_failed", create.Error,
			"meeting_id", row.MeetingID,
			"member_id", row.MemberID,
		)
	}

	var stored attendanceModel
	err := r.db.WithContext(ctx).
		Where("meeting_id = ?", row.MeetingID).
		Where("member_id = ?", row.MemberID).
		First(&stored).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return row.toEntity(), true, nil
		}
		return entities.Attendance{}, false, r.logError("governance_repo_reload_attendance_failed", err,
			"meeting_id", row.MeetingID,
			"member_id", row.MemberID,
		)
	}
	return stored.toEntity(), true, nil
}

func (r *Repository) DeleteByMeetingAndMember(ctx context.Context, meetingID string, memberID string) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("meeting_id = ?", strings.TrimSpace(meetingID)).
		Where("member_id = ?", strings.TrimSpace(memberID)).
		Delete(&attendanceModel{})
	if result.Error != nil {
		return false, r.logError("governance_repo_delete_attendance_failed", result.Error,
			"meeting_id", strings.TrimSpace(meetingID),
			"member_id", strings.TrimSpace(memberID),
		)
	}
	return result.RowsAffected > 0, nil
}

func (r *Repository) ListForMeeting(ctx context.Context, meetingID string) ([]entities.Attendance, error) {
	var rows []attendanceModel
	if err := r.db.WithContext(ctx).
		Where("meeting_id = ?", strings.TrimSpace(meetingID)).
		Order("member_id ASC").
		Find(&rows).Error; err != nil {
		return nil, r.logError("governance_repo_list_attendance_failed", err,
			"meeting_id", strings.TrimSpace(meetingID),
		)
	}
	items := make([]entities.Attendance, 0, len(rows))
	for _, row := range rows {
		items = append(items, row.toEntity())
	}
	return items, nil
}

func (r *Repository) CountPresentOrRemote(ctx context.Context, meetingID string) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&attendanceModel{}).
		Where("meeting_id = ?", strings.TrimSpace(meetingID)).
		Where("mode IN ?", directModes).
		Count(&count).
		Error
	if err != nil {
		return 0, r.logError("governance_repo_count_present_failed", err,
			"meeting_id", strings.TrimSpace(meetingID),
		)
	}
	return int(count), nil
}

func (r *Repository) SumPresentWeight(ctx context.Context, meetingID string) (float64, error) {
	var sum float64
	err := r.db.WithContext(ctx).
		Model(&attendanceModel{}).
		Select("COALESCE(SUM(effective_power), 0)").
		Where("meeting_id = ?", strings.TrimSpace(meetingID)).
		Where("mode IN ?", attendingModes).
		Scan(&sum).
		Error
	if err != nil {
		return 0, r.logError("governance_repo_sum_present_weight_failed", err,
			"meeting_id", strings.TrimSpace(meetingID),
		)
	}
	return sum, nil
}

func (r *Repository) StatsByMode(ctx context.Context, meetingID string) (entities.AttendanceSummary, error) {
	type modeRow struct {
		Mode   string
		Count  int
		Weight float64
	}
	var rows []modeRow
	err := r.db.WithContext(ctx).
		Model(&attendanceModel{}).
		Select("mode, COUNT(*) AS count, COALESCE(SUM(effective_power), 0) AS weight").
		Where("meeting_id = ?", strings.TrimSpace(meetingID)).
		Group("mode").
		Scan(&rows).
		Error
	if err != nil {
		return entities.AttendanceSummary{}, r.logError("governance_repo_attendance_stats_failed", err,
			"meeting_id", strings.TrimSpace(meetingID),
		)
	}

	byMode := make(map[entities.AttendanceMode]modeRow, len(rows))
	summary := entities.AttendanceSummary{MeetingID: strings.TrimSpace(meetingID)}
	for _, row := range rows {
		mode := entities.AttendanceMode(row.Mode)
		byMode[mode] = row
		summary.TotalCount += row.Count
		if mode.Attending() {
			summary.PresentWeight += row.Weight
		}
	}
	for _, mode := range []entities.AttendanceMode{
		entities.AttendanceModePresent,
		entities.AttendanceModeRemote,
		entities.AttendanceModeProxy,
		entities.AttendanceModeExcused,
	} {
		row, ok := byMode[mode]
		if !ok {
			continue
		}
		summary.Modes = append(summary.Modes, entities.AttendanceModeStats{
			Mode:   mode,
			Count:  row.Count,
			Weight: row.Weight,
		})
	}
	return summary, nil
}

// --- proxies ---

func (r *Repository) HasActiveProxy(ctx context.Context, meetingID string, giverID string, receiverID string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&proxyDelegationModel{}).
		Where("meeting_id = ?", strings.TrimSpace(meetingID)).
		Where("giver_member_id = ?", strings.TrimSpace(giverID)).
		Where("receiver_member_id = ?", strings.TrimSpace(receiverID)).
		Where("active = ?", true).
		Count(&count).
		Error
	if err != nil {
		return false, r.logError("governance_repo_has_active_proxy_failed", err,
			"meeting_id", strings.TrimSpace(meetingID),
			"giver_member_id", strings.TrimSpace(giverID),
			"receiver_member_id", strings.TrimSpace(receiverID),
		)
	}
	return count > 0, nil
}

// --- ballots ---

func (r *Repository) FindByMotionAndMember(ctx context.Context, motionID string, memberID string) (entities.Ballot, bool, error) {
	return findBallot(ctx, r.db, r.logger, motionID, memberID)
}

func (r *Repository) Tally(ctx context.Context, motionID string) (entities.VoteTotals, error) {
	var row struct {
		ForWeight     float64
		AgainstWeight float64
		AbstainWeight float64
		TotalWeight   float64
	}
	err := r.db.WithContext(ctx).
		Model(&ballotModel{}).
		Select(`
			COALESCE(SUM(CASE WHEN value = 'for' THEN weight ELSE 0 END), 0) AS for_weight,
			COALESCE(SUM(CASE WHEN value = 'against' THEN weight ELSE 0 END), 0) AS against_weight,
			COALESCE(SUM(CASE WHEN value = 'abstain' THEN weight ELSE 0 END), 0) AS abstain_weight,
			COALESCE(SUM(weight), 0) AS total_weight`).
		Where("motion_id = ?", strings.TrimSpace(motionID)).
		Scan(&row).
		Error
	if err != nil {
		return entities.VoteTotals{}, r.logError("governance_repo_tally_failed", err,
			"motion_id", strings.TrimSpace(motionID),
		)
	}
	return entities.VoteTotals{
		For:     row.ForWeight,
		Against: row.AgainstWeight,
		Abstain: row.AbstainWeight,
		Total:   row.TotalWeight,
	}, nil
}

// --- ballot unit of work ---

func (r *Repository) InTransaction(ctx context.Context, fn func(ctx context.Context, tx ports.BallotTx) error) error {
	return r.db.WithContext(ctx).Transaction(func(txDB *gorm.DB) error {
		return fn(ctx, &ballotTx{db: txDB, logger: r.logger})
	})
}

type ballotTx struct {
	db     *gorm.DB
	logger *slog.Logger
}

// LockMeeting takes a row lock on the meeting so concurrent casts against the
// same meeting serialize on the status check.
func (tx *ballotTx) LockMeeting(ctx context.Context, meetingID string, tenantID string) (entities.Meeting, bool, error) {
	var row meetingModel
	err := tx.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", strings.TrimSpace(meetingID)).
		Where("tenant_id = ?", strings.TrimSpace(tenantID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Meeting{}, false, nil
		}
		return entities.Meeting{}, false, logRepositoryError(tx.logger, "governance_repo_lock_meeting_failed", err,
			"meeting_id", strings.TrimSpace(meetingID),
		)
	}
	return row.toEntity(), true, nil
}

func (tx *ballotTx) FindBallot(ctx context.Context, motionID string, memberID string) (entities.Ballot, bool, error) {
	return findBallot(ctx, tx.db, tx.logger, motionID, memberID)
}

func (tx *ballotTx) UpsertBallot(ctx context.Context, ballot entities.Ballot) error {
	row := ballotModelFromEntity(ballot)
	create := tx.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "motion_id"}, {Name: "member_id"}},
		DoUpdates: clause.Assignments(map[string]any{
			"value":                  row.Value,
			"weight":                 row.Weight,
			"via_proxy":              row.ViaProxy,
			"proxy_source_member_id": row.ProxySourceMemberID,
			"updated_at":             row.UpdatedAt,
		}),
	}).Create(&row)
	if create.Error != nil {
		if isUniqueViolation(create.Error) {
			return domainerrors.ErrMeetingUnavailable
		}
		return logRepositoryError(tx.logger, "governance_repo_upsert_ballot_failed", create.Error,
			"ballot_id", row.ID,
			"motion_id", row.MotionID,
			"member_id", row.MemberID,
		)
	}
	return nil
}

func findBallot(ctx context.Context, db *gorm.DB, logger *slog.Logger, motionID string, memberID string) (entities.Ballot, bool, error) {
	var row ballotModel
	err := db.WithContext(ctx).
		Where("motion_id = ?", strings.TrimSpace(motionID)).
		Where("member_id = ?", strings.TrimSpace(memberID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.Ballot{}, false, nil
		}
		return entities.Ballot{}, false, logRepositoryError(logger, "governance_repo_find_ballot_failed", err,
			"motion_id", strings.TrimSpace(motionID),
			"member_id", strings.TrimSpace(memberID),
		)
	}
	return row.toEntity(), true, nil
}

// --- policies ---

func (r *Repository) FindVotePolicy(ctx context.Context, policyID string, tenantID string) (entities.VotePolicy, bool, error) {
	var row votePolicyModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(policyID)).
		Where("tenant_id = ?", strings.TrimSpace(tenantID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.VotePolicy{}, false, nil
		}
		return entities.VotePolicy{}, false, r.logError("governance_repo_find_vote_policy_failed", err,
			"policy_id", strings.TrimSpace(policyID),
		)
	}
	return row.toEntity(), true, nil
}

func (r *Repository) FindQuorumPolicy(ctx context.Context, policyID string, tenantID string) (entities.QuorumPolicy, bool, error) {
	var row quorumPolicyModel
	err := r.db.WithContext(ctx).
		Where("id = ?", strings.TrimSpace(policyID)).
		Where("tenant_id = ?", strings.TrimSpace(tenantID)).
		First(&row).
		Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return entities.QuorumPolicy{}, false, nil
		}
		return entities.QuorumPolicy{}, false, r.logError("governance_repo_find_quorum_policy_failed", err,
			"policy_id", strings.TrimSpace(policyID),
		)
	}
	return row.toEntity(), true, nil
}

// --- audit sink / outbox ---

func (r *Repository) Append(ctx context.Context, envelope ports.EventEnvelope) error {
	payload, err := json.Marshal(envelope)
	if err != nil {
		return r.logError("governance_repo_append_outbox_marshal_failed", err,
			"event_id", strings.TrimSpace(envelope.EventID),
			"event_type", strings.TrimSpace(envelope.EventType),
		)
	}
	row := outboxModel{
		OutboxID:     strings.TrimSpace(envelope.EventID),
		EventType:    strings.TrimSpace(envelope.EventType),
		PartitionKey: strings.TrimSpace(envelope.PartitionKey),
		Payload:      payload,
		Status:       outboxStatusPending,
		CreatedAt:    envelope.OccurredAt.UTC(),
	}
	if row.OutboxID == "" {
		row.OutboxID = uuid.NewString()
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	create := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "outbox_id"}},
		DoNothing: true,
	}).Create(&row)
	if create.Error != nil {
		// The audit schema is optional per deployment; a missing table is not
		// an append failure.
		if isUndefinedTable(create.Error) {
			r.logger.Debug("audit outbox table absent, append skipped",
				"event", "governance_repo_append_outbox_skipped",
				"module", "assembly-governance/governance-engine",
				"layer", "adapter",
				"outbox_id", row.OutboxID,
			)
			return nil
		}
		return r.logError("governance_repo_append_outbox_insert_failed", create.Error,
			"outbox_id", row.OutboxID,
		)
	}
	return nil
}

func (r *Repository) ListPendingOutbox(ctx context.Context, limit int) ([]ports.OutboxMessage, error) {
	if limit <= 0 {
		limit = 100
	}
	var rows []outboxModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", outboxStatusPending).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error; err != nil {
		return nil, r.logError("governance_repo_list_pending_outbox_failed", err, "limit", limit)
	}
	items := make([]ports.OutboxMessage, 0, len(rows))
	for _, row := range rows {
		items = append(items, ports.OutboxMessage{
			OutboxID:     row.OutboxID,
			EventType:    row.EventType,
			PartitionKey: row.PartitionKey,
			Payload:      append([]byte(nil), row.Payload...),
			CreatedAt:    row.CreatedAt.UTC(),
		})
	}
	return items, nil
}

func (r *Repository) MarkOutboxPublished(ctx context.Context, outboxID string, publishedAt time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&outboxModel{}).
		Where("outbox_id = ?", strings.TrimSpace(outboxID)).
		Updates(map[string]any{
			"status":       outboxStatusPublished,
			"published_at": publishedAt.UTC(),
		})
	if result.Error != nil {
		return r.logError("governance_repo_mark_outbox_published_failed", result.Error,
			"outbox_id", strings.TrimSpace(outboxID),
		)
	}
	if result.RowsAffected == 0 {
		return domainerrors.ErrStorageEmptyResult
	}
	return nil
}

func (r *Repository) logError(event string, err error, attrs ...any) error {
	return logRepositoryError(r.logger, event, err, attrs...)
}

func logRepositoryError(logger *slog.Logger, event string, err error, attrs ...any) error {
	fields := make([]any, 0, len(attrs)+8)
	fields = append(fields,
		"event", event,
		"module", "assembly-governance/governance-engine",
		"layer", "adapter",
		"error", err.Error(),
	)
	fields = append(fields, attrs...)
	logger.Error("governance repository operation failed", fields...)
	return err
}

type meetingModel struct {
	ID             string     `gorm:"column:id;primaryKey"`
	TenantID       string     `gorm:"column:tenant_id"`
	Title          string     `gorm:"column:title"`
	Status         string     `gorm:"column:status"`
	PresidentID    string     `gorm:"column:president_id"`
	VotePolicyID   string     `gorm:"column:vote_policy_id"`
	QuorumPolicyID string     `gorm:"column:quorum_policy_id"`
	ValidatedAt    *time.Time `gorm:"column:validated_at"`
	ScheduledAt    *time.Time `gorm:"column:scheduled_at"`
	CreatedAt      time.Time  `gorm:"column:created_at"`
	UpdatedAt      time.Time  `gorm:"column:updated_at"`
}

func (meetingModel) TableName() string {
	return "meetings"
}

func (m meetingModel) toEntity() entities.Meeting {
	return entities.Meeting{
		MeetingID:      m.ID,
		TenantID:       m.TenantID,
		Title:          m.Title,
		Status:         entities.MeetingStatus(m.Status),
		PresidentID:    m.PresidentID,
		VotePolicyID:   m.VotePolicyID,
		QuorumPolicyID: m.QuorumPolicyID,
		ValidatedAt:    normalizeOptionalTime(m.ValidatedAt),
		ScheduledAt:    normalizeOptionalTime(m.ScheduledAt),
		CreatedAt:      m.CreatedAt.UTC(),
		UpdatedAt:      m.UpdatedAt.UTC(),
	}
}

type motionModel struct {
	ID                 string     `gorm:"column:id;primaryKey"`
	MeetingID          string     `gorm:"column:meeting_id"`
	TenantID           string     `gorm:"column:tenant_id"`
	Title              string     `gorm:"column:title"`
	OpenedAt           *time.Time `gorm:"column:opened_at"`
	ClosedAt           *time.Time `gorm:"column:closed_at"`
	VotePolicyID       string     `gorm:"column:vote_policy_id"`
	QuorumPolicyID     string     `gorm:"column:quorum_policy_id"`
	ManualTotal        float64    `gorm:"column:manual_total"`
	ManualFor          float64    `gorm:"column:manual_for"`
	ManualAgainst      float64    `gorm:"column:manual_against"`
	ManualAbstain      float64    `gorm:"column:manual_abstain"`
	OfficialSource     string     `gorm:"column:official_source"`
	OfficialFor        float64    `gorm:"column:official_for"`
	OfficialAgainst    float64    `gorm:"column:official_against"`
	OfficialAbstain    float64    `gorm:"column:official_abstain"`
	OfficialTotal      float64    `gorm:"column:official_total"`
	OfficialDecision   string     `gorm:"column:official_decision"`
	OfficialReason     string     `gorm:"column:official_reason"`
	OfficialComputedAt *time.Time `gorm:"column:official_computed_at"`
	CreatedAt          time.Time  `gorm:"column:created_at"`
	UpdatedAt          time.Time  `gorm:"column:updated_at"`
}

func (motionModel) TableName() string {
	return "motions"
}

func (m motionModel) toEntity() entities.Motion {
	return entities.Motion{
		MotionID:       m.ID,
		MeetingID:      m.MeetingID,
		TenantID:       m.TenantID,
		Title:          m.Title,
		OpenedAt:       normalizeOptionalTime(m.OpenedAt),
		ClosedAt:       normalizeOptionalTime(m.ClosedAt),
		VotePolicyID:   m.VotePolicyID,
		QuorumPolicyID: m.QuorumPolicyID,
		ManualTotal:    m.ManualTotal,
		ManualFor:      m.ManualFor,
		ManualAgainst:  m.ManualAgainst,
		ManualAbstain:  m.ManualAbstain,
		Official: entities.OfficialResult{
			Source:     entities.TallySourceKind(m.OfficialSource),
			For:        m.OfficialFor,
			Against:    m.OfficialAgainst,
			Abstain:    m.OfficialAbstain,
			Total:      m.OfficialTotal,
			Decision:   entities.Decision(m.OfficialDecision),
			Reason:     m.OfficialReason,
			ComputedAt: normalizeOptionalTime(m.OfficialComputedAt),
		},
		CreatedAt: m.CreatedAt.UTC(),
		UpdatedAt: m.UpdatedAt.UTC(),
	}
}

type memberModel struct {
	ID          string    `gorm:"column:id;primaryKey"`
	TenantID    string    `gorm:"column:tenant_id"`
	FullName    string    `gorm:"column:full_name"`
	VotingPower *float64  `gorm:"column:voting_power"`
	Active      bool      `gorm:"column:active"`
	CreatedAt   time.Time `gorm:"column:created_at"`
	UpdatedAt   time.Time `gorm:"column:updated_at"`
}

func (memberModel) TableName() string {
	return "assembly_members"
}

func (m memberModel) toEntity() entities.Member {
	return entities.Member{
		MemberID:    m.ID,
		TenantID:    m.TenantID,
		FullName:    m.FullName,
		VotingPower: m.VotingPower,
		Active:      m.Active,
		CreatedAt:   m.CreatedAt.UTC(),
		UpdatedAt:   m.UpdatedAt.UTC(),
	}
}

type attendanceModel struct {
	MeetingID      string    `gorm:"column:meeting_id;primaryKey"`
	MemberID       string    `gorm:"column:member_id;primaryKey"`
	TenantID       string    `gorm:"column:tenant_id"`
	Mode           string    `gorm:"column:mode"`
	EffectivePower float64   `gorm:"column:effective_power"`
	Notes          string    `gorm:"column:notes"`
	CreatedAt      time.Time `gorm:"column:created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at"`
}

func (attendanceModel) TableName() string {
	return "meeting_attendance"
}

func attendanceModelFromEntity(attendance entities.Attendance) attendanceModel {
	row := attendanceModel{
		MeetingID:      strings.TrimSpace(attendance.MeetingID),
		MemberID:       strings.TrimSpace(attendance.MemberID),
		TenantID:       strings.TrimSpace(attendance.TenantID),
		Mode:           string(attendance.Mode),
		EffectivePower: attendance.EffectivePower,
		Notes:          strings.TrimSpace(attendance.Notes),
		CreatedAt:      attendance.CreatedAt.UTC(),
		UpdatedAt:      attendance.UpdatedAt.UTC(),
	}
	if row.CreatedAt.IsZero() {
		row.CreatedAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CreatedAt
	}
	return row
}

func (m attendanceModel) toEntity() entities.Attendance {
	return entities.Attendance{
		MeetingID:      m.MeetingID,
		MemberID:       m.MemberID,
		TenantID:       m.TenantID,
		Mode:           entities.AttendanceMode(m.Mode),
		EffectivePower: m.EffectivePower,
		Notes:          m.Notes,
		CreatedAt:      m.CreatedAt.UTC(),
		UpdatedAt:      m.UpdatedAt.UTC(),
	}
}

type proxyDelegationModel struct {
	ID               string    `gorm:"column:id;primaryKey"`
	MeetingID        string    `gorm:"column:meeting_id"`
	TenantID         string    `gorm:"column:tenant_id"`
	GiverMemberID    string    `gorm:"column:giver_member_id"`
	ReceiverMemberID string    `gorm:"column:receiver_member_id"`
	Active           bool      `gorm:"column:active"`
	CreatedAt        time.Time `gorm:"column:created_at"`
	UpdatedAt        time.Time `gorm:"column:updated_at"`
}

func (proxyDelegationModel) TableName() string {
	return "proxy_delegations"
}

type ballotModel struct {
	ID                  string    `gorm:"column:id;primaryKey"`
	TenantID            string    `gorm:"column:tenant_id"`
	MeetingID           string    `gorm:"column:meeting_id"`
	MotionID            string    `gorm:"column:motion_id"`
	MemberID            string    `gorm:"column:member_id"`
	Value               string    `gorm:"column:value"`
	Weight              float64   `gorm:"column:weight"`
	ViaProxy            bool      `gorm:"column:via_proxy"`
	ProxySourceMemberID *string   `gorm:"column:proxy_source_member_id"`
	CastAt              time.Time `gorm:"column:cast_at"`
	UpdatedAt           time.Time `gorm:"column:updated_at"`
}

func (ballotModel) TableName() string {
	return "ballots"
}

func ballotModelFromEntity(ballot entities.Ballot) ballotModel {
	row := ballotModel{
		ID:        strings.TrimSpace(ballot.BallotID),
		TenantID:  strings.TrimSpace(ballot.TenantID),
		MeetingID: strings.TrimSpace(ballot.MeetingID),
		MotionID:  strings.TrimSpace(ballot.MotionID),
		MemberID:  strings.TrimSpace(ballot.MemberID),
		Value:     string(ballot.Value),
		Weight:    ballot.Weight,
		ViaProxy:  ballot.ViaProxy,
		CastAt:    ballot.CastAt.UTC(),
		UpdatedAt: ballot.UpdatedAt.UTC(),
	}
	if strings.TrimSpace(ballot.ProxySourceMemberID) != "" {
		sourceID := strings.TrimSpace(ballot.ProxySourceMemberID)
		row.ProxySourceMemberID = &sourceID
	}
	if row.CastAt.IsZero() {
		row.CastAt = time.Now().UTC()
	}
	if row.UpdatedAt.IsZero() {
		row.UpdatedAt = row.CastAt
	}
	return row
}

func (m ballotModel) toEntity() entities.Ballot {
	sourceID := ""
	if m.ProxySourceMemberID != nil {
		sourceID = strings.TrimSpace(*m.ProxySourceMemberID)
	}
	return entities.Ballot{
		BallotID:            m.ID,
		TenantID:            m.TenantID,
		MeetingID:           m.MeetingID,
		MotionID:            m.MotionID,
		MemberID:            m.MemberID,
		Value:               entities.BallotValue(m.Value),
		Weight:              m.Weight,
		ViaProxy:            m.ViaProxy,
		ProxySourceMemberID: sourceID,
		CastAt:              m.CastAt.UTC(),
		UpdatedAt:           m.UpdatedAt.UTC(),
	}
}

type votePolicyModel struct {
	ID                  string    `gorm:"column:id;primaryKey"`
	TenantID            string    `gorm:"column:tenant_id"`
	Name                string    `gorm:"column:name"`
	Base                string    `gorm:"column:base"`
	Threshold           float64   `gorm:"column:threshold"`
	AbstentionAsAgainst bool      `gorm:"column:abstention_as_against"`
	CreatedAt           time.Time `gorm:"column:created_at"`
	UpdatedAt           time.Time `gorm:"column:updated_at"`
}

func (votePolicyModel) TableName() string {
	return "vote_policies"
}

func (m votePolicyModel) toEntity() entities.VotePolicy {
	return entities.VotePolicy{
		PolicyID:            m.ID,
		TenantID:            m.TenantID,
		Name:                m.Name,
		Base:                entities.VoteBase(m.Base),
		Threshold:           m.Threshold,
		AbstentionAsAgainst: m.AbstentionAsAgainst,
		CreatedAt:           m.CreatedAt.UTC(),
		UpdatedAt:           m.UpdatedAt.UTC(),
	}
}

type quorumPolicyModel struct {
	ID                    string    `gorm:"column:id;primaryKey"`
	TenantID              string    `gorm:"column:tenant_id"`
	Name                  string    `gorm:"column:name"`
	Denominator           string    `gorm:"column:denominator"`
	Threshold             float64   `gorm:"column:threshold"`
	SecondCallDenominator string    `gorm:"column:second_call_denominator"`
	SecondCallThreshold   *float64  `gorm:"column:second_call_threshold"`
	IncludeProxies        bool      `gorm:"column:include_proxies"`
	CountRemote           bool      `gorm:"column:count_remote"`
	CreatedAt             time.Time `gorm:"column:created_at"`
	UpdatedAt             time.Time `gorm:"column:updated_at"`
}

func (quorumPolicyModel) TableName() string {
	return "quorum_policies"
}

func (m quorumPolicyModel) toEntity() entities.QuorumPolicy {
	return entities.QuorumPolicy{
		PolicyID:              m.ID,
		TenantID:              m.TenantID,
		Name:                  m.Name,
		Denominator:           entities.QuorumDenominator(m.Denominator),
		Threshold:             m.Threshold,
		SecondCallDenominator: entities.QuorumDenominator(m.SecondCallDenominator),
		SecondCallThreshold:   m.SecondCallThreshold,
		IncludeProxies:        m.IncludeProxies,
		CountRemote:           m.CountRemote,
		CreatedAt:             m.CreatedAt.UTC(),
		UpdatedAt:             m.UpdatedAt.UTC(),
	}
}

type outboxModel struct {
	OutboxID     string     `gorm:"column:outbox_id;primaryKey"`
	EventType    string     `gorm:"column:event_type"`
	PartitionKey string     `gorm:"column:partition_key"`
	Payload      []byte     `gorm:"column:payload"`
	Status       string     `gorm:"column:status"`
	CreatedAt    time.Time  `gorm:"column:created_at"`
	PublishedAt  *time.Time `gorm:"column:published_at"`
}

func (outboxModel) TableName() string {
	return "governance_outbox"
}

func normalizeOptionalTime(value *time.Time) *time.Time {
	if value == nil {
		return nil
	}
	timestamp := value.UTC()
	return &timestamp
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "42P01"
}

var _ ports.MeetingRepository = (*Repository)(nil)
var _ ports.MotionRepository = (*Repository)(nil)
var _ ports.MemberRepository = (*Repository)(nil)
var _ ports.AttendanceRepository = (*Repository)(nil)
var _ ports.ProxyRepository = (*Repository)(nil)
var _ ports.BallotRepository = (*Repository)(nil)
var _ ports.BallotUnitOfWork = (*Repository)(nil)
var _ ports.PolicyRepository = (*Repository)(nil)
var _ ports.AuditSink = (*Repository)(nil)
var _ ports.OutboxRepository = (*Repository)(nil)
var _ ports.BallotTx = (*ballotTx)(nil)

package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"plenum/contexts/assembly-governance/governance-engine/ports"
)

// appendAuditEvent records a tenant-scoped audit event. The append is
// structurally fire-and-forget: any failure, including ID generation, is
// logged and discarded so the primary write is never rolled back or failed.
func appendAuditEvent(
	ctx context.Context,
	logger *slog.Logger,
	sink ports.AuditSink,
	idGen ports.IDGenerator,
	eventType string,
	tenantID string,
	meetingID string,
	occurredAt time.Time,
	data map[string]any,
) {
	if sink == nil {
		return
	}
	eventID, err := newEventID(ctx, idGen)
	if err != nil {
		logAuditDropped(logger, eventType, meetingID, err)
		return
	}
	envelope, err := newGovernanceEnvelope(eventID, eventType, tenantID, meetingID, occurredAt, data)
	if err != nil {
		logAuditDropped(logger, eventType, meetingID, err)
		return
	}
	if err := sink.Append(ctx, envelope); err != nil {
		logAuditDropped(logger, eventType, meetingID, err)
	}
}

// publishBestEffort is the "notify, ignore failure" wrapper around the
// realtime channel.
func publishBestEffort(
	ctx context.Context,
	logger *slog.Logger,
	broadcaster ports.Broadcaster,
	idGen ports.IDGenerator,
	topic string,
	tenantID string,
	meetingID string,
	occurredAt time.Time,
	data map[string]any,
) {
	if broadcaster == nil {
		return
	}
	eventID, err := newEventID(ctx, idGen)
	if err != nil {
		logBroadcastDropped(logger, topic, meetingID, err)
		return
	}
	envelope, err := newGovernanceEnvelope(eventID, topic, tenantID, meetingID, occurredAt, data)
	if err != nil {
		logBroadcastDropped(logger, topic, meetingID, err)
		return
	}
	if err := broadcaster.Publish(ctx, topic, envelope); err != nil {
		logBroadcastDropped(logger, topic, meetingID, err)
	}
}

func newEventID(ctx context.Context, idGen ports.IDGenerator) (string, error) {
	if idGen == nil {
		return "", errNoIDGenerator
	}
	return idGen.NewID(ctx)
}

var errNoIDGenerator = errors.New("id generator is not configured")

func logAuditDropped(logger *slog.Logger, eventType string, meetingID string, err error) {
	logger.Warn("audit event dropped",
		"event", "governance_audit_dropped",
		"module", "assembly-governance/governance-engine",
		"layer", "application",
		"event_type", eventType,
		"meeting_id", meetingID,
		"error", err.Error(),
	)
}

func logBroadcastDropped(logger *slog.Logger, topic string, meetingID string, err error) {
	logger.Warn("broadcast dropped",
		"event", "governance_broadcast_dropped",
		"module", "assembly-governance/governance-engine",
		"layer", "application",
		"topic", topic,
		"meeting_id", meetingID,
		"error", err.Error(),
	)
}

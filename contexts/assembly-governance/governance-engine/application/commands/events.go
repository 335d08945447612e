package commands

import (
	"encoding/json"
	"time"

	"plenum/contexts/assembly-governance/governance-engine/ports"
)

func newGovernanceEnvelope(
	eventID string,
	eventType string,
	tenantID string,
	partitionKey string,
	occurredAt time.Time,
	data map[string]any,
) (ports.EventEnvelope, error) {
	// Events are partitioned by meeting for stable ordering on meeting-scoped
	// consumers.
	payload, err := json.Marshal(data)
	if err != nil {
		return ports.EventEnvelope{}, err
	}
	return ports.EventEnvelope{
		EventID:       eventID,
		EventType:     eventType,
		OccurredAt:    occurredAt.UTC(),
		SourceService: "governance-engine",
		TenantID:      tenantID,
		SchemaVersion: 1,
		PartitionKey:  partitionKey,
		Data:          payload,
	}, nil
}

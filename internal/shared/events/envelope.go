package events

import "time"

// Envelope is the shared event shape used in Plenum.
// Align fields with repository canonical event contract.
type Envelope struct {
	EventID       string    `json:"event_id"`
	EventType     string    `json:"event_type"`
	SourceService string    `json:"source_service"`
	OccurredAt    time.Time `json:"occurred_at"`
	TenantID      string    `json:"tenant_id"`
	PartitionKey  string    `json:"partition_key"`
	SchemaVersion int       `json:"schema_version"`
	Data          []byte    `json:"data"`
}

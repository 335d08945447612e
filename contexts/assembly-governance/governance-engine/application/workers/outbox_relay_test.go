package workers_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"plenum/contexts/assembly-governance/governance-engine/adapters/memory"
	"plenum/contexts/assembly-governance/governance-engine/application/workers"
	"plenum/contexts/assembly-governance/governance-engine/ports"
)

type recordingPublisher struct {
	published []string
	failAfter int
}

func (p *recordingPublisher) Publish(_ context.Context, topic string, _ ports.EventEnvelope) error {
	if p.failAfter > 0 && len(p.published) >= p.failAfter {
		return errors.New("broker unavailable")
	}
	p.published = append(p.published, topic)
	return nil
}

func appendEvent(t *testing.T, store *memory.Store, eventType string, occurredAt time.Time) {
	t.Helper()
	err := store.Append(context.Background(), ports.EventEnvelope{
		EventType:    eventType,
		OccurredAt:   occurredAt,
		TenantID:     "tenant-1",
		PartitionKey: "meeting-1",
		Data:         []byte(`{"meeting_id":"meeting-1"}`),
	})
	if err != nil {
		t.Fatalf("append failed: %v", err)
	}
}

func TestOutboxRelayPublishesPendingRows(t *testing.T) {
	store := memory.NewStore()
	base := time.Now().UTC()
	appendEvent(t, store, "governance.ballot_cast", base)
	appendEvent(t, store, "governance.attendance_updated", base.Add(time.Second))

	publisher := &recordingPublisher{}
	relay := workers.OutboxRelay{
		Outbox:    store,
		Publisher: publisher,
		Clock:     store,
	}

	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("relay run failed: %v", err)
	}
	if len(publisher.published) != 2 {
		t.Fatalf("expected 2 published events, got %d", len(publisher.published))
	}
	if publisher.published[0] != "governance.ballot_cast" || publisher.published[1] != "governance.attendance_updated" {
		t.Fatalf("expected topics in creation order, got %v", publisher.published)
	}

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 0 {
		t.Fatalf("expected no pending rows after a successful cycle, got %d", len(pending))
	}
}

func TestOutboxRelayStopsOnPublishFailure(t *testing.T) {
	store := memory.NewStore()
	base := time.Now().UTC()
	appendEvent(t, store, "governance.ballot_cast", base)
	appendEvent(t, store, "governance.meeting_status_changed", base.Add(time.Second))

	publisher := &recordingPublisher{failAfter: 1}
	relay := workers.OutboxRelay{
		Outbox:    store,
		Publisher: publisher,
		Clock:     store,
	}

	if err := relay.RunOnce(context.Background()); err == nil {
		t.Fatalf("expected the broker failure to surface")
	}
	if len(publisher.published) != 1 {
		t.Fatalf("expected a single publish before the failure, got %d", len(publisher.published))
	}

	// The failed row stays pending for the next cycle.
	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 1 || pending[0].EventType != "governance.meeting_status_changed" {
		t.Fatalf("expected the unpublished row to remain pending, got %+v", pending)
	}
}

func TestOutboxRelayNoopWhenEmpty(t *testing.T) {
	store := memory.NewStore()
	publisher := &recordingPublisher{}
	relay := workers.OutboxRelay{
		Outbox:    store,
		Publisher: publisher,
		Clock:     store,
	}

	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("relay run failed: %v", err)
	}
	if len(publisher.published) != 0 {
		t.Fatalf("expected nothing published, got %v", publisher.published)
	}
}

func TestOutboxRelayHonorsBatchSize(t *testing.T) {
	store := memory.NewStore()
	base := time.Now().UTC()
	for i := 0; i < 5; i++ {
		appendEvent(t, store, "governance.ballot_cast", base.Add(time.Duration(i)*time.Second))
	}

	publisher := &recordingPublisher{}
	relay := workers.OutboxRelay{
		Outbox:    store,
		Publisher: publisher,
		Clock:     store,
		BatchSize: 3,
	}

	if err := relay.RunOnce(context.Background()); err != nil {
		t.Fatalf("relay run failed: %v", err)
	}
	if len(publisher.published) != 3 {
		t.Fatalf("expected a bounded batch of 3, got %d", len(publisher.published))
	}

	pending, err := store.ListPendingOutbox(context.Background(), 10)
	if err != nil {
		t.Fatalf("list pending failed: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 rows left for the next cycle, got %d", len(pending))
	}
}

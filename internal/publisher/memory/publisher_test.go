package memory

import (
	"context"
	"testing"
)

func TestPublishRecordsMessages(t *testing.T) {
	t.Parallel()

	p := New()
	id, err := p.Publish(context.Background(), "harvest-done", map[string]any{"run_id": "r1"})
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if id != "memory-1" {
		t.Fatalf("id = %q, want memory-1", id)
	}

	id, err = p.Publish(context.Background(), "harvest-done", map[string]any{"run_id": "r2"})
	if err != nil {
		t.Fatalf("Publish() error = %v", err)
	}
	if id != "memory-2" {
		t.Fatalf("id = %q, want memory-2", id)
	}

	msgs := p.Messages()
	if len(msgs) != 2 {
		t.Fatalf("Messages() len = %d, want 2", len(msgs))
	}
	if msgs[0].Topic != "harvest-done" {
		t.Fatalf("topic = %q", msgs[0].Topic)
	}
	payload, ok := msgs[1].Payload.(map[string]any)
	if !ok || payload["run_id"] != "r2" {
		t.Fatalf("payload = %+v", msgs[1].Payload)
	}
}

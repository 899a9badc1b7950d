package memory

import (
	"context"
	"testing"

	"live-poll-service/internal/domain"
)

func TestResultStoreNewestFirst(t *testing.T) {
	ctx := context.Background()
	store := NewResultStore(10)

	for _, id := range []string{"p1", "p2", "p3"} {
		if err := store.Save(ctx, domain.PollRecord{PollID: id}); err != nil {
			t.Fatalf("save %s: %v", id, err)
		}
	}

	records, err := store.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(records) != 2 || records[0].PollID != "p3" || records[1].PollID != "p2" {
		t.Fatalf("expected [p3 p2], got %+v", records)
	}

	all, _ := store.Recent(ctx, 0)
	if len(all) != 3 {
		t.Fatalf("limit 0 should return everything, got %d", len(all))
	}
}

func TestResultStoreDropsOldestOverCapacity(t *testing.T) {
	ctx := context.Background()
	store := NewResultStore(2)

	for _, id := range []string{"p1", "p2", "p3"} {
		_ = store.Save(ctx, domain.PollRecord{PollID: id})
	}

	records, _ := store.Recent(ctx, 10)
	if len(records) != 2 {
		t.Fatalf("expected capacity to cap at 2, got %d", len(records))
	}
	if records[1].PollID != "p2" {
		t.Fatalf("expected p1 evicted, got %+v", records)
	}
}

package catalog

import (
	"testing"
	"time"

	"foresight/internal/db"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	database, err := db.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { database.Close() })
	if err := db.Migrate(database); err != nil {
		t.Fatal(err)
	}
	return NewStore(database)
}

func TestStore_PutAndList(t *testing.T) {
	store := newTestStore(t)

	end := time.Date(2025, 12, 31, 0, 0, 0, 0, time.UTC)
	conds := []Condition{
		{ID: "c2", Question: "Will ETH flip BTC", EndTime: end.Add(48 * time.Hour)},
		{ID: "c1", Question: "Will BTC exceed 100k by end of 2025", ShortName: "btc-100k", EndTime: end},
	}
	for _, c := range conds {
		if err := store.Put(c); err != nil {
			t.Fatal(err)
		}
	}

	got, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 conditions, got %d", len(got))
	}
	// Ordered by end time.
	if got[0].ID != "c1" || got[1].ID != "c2" {
		t.Errorf("unexpected order: %s, %s", got[0].ID, got[1].ID)
	}
	if got[0].ShortName != "btc-100k" {
		t.Errorf("expected short name btc-100k, got %q", got[0].ShortName)
	}
	if !got[0].EndTime.Equal(end) {
		t.Errorf("expected end time %v, got %v", end, got[0].EndTime)
	}
}

func TestStore_PutIsUpsert(t *testing.T) {
	store := newTestStore(t)

	c := Condition{ID: "c1", Question: "v1", EndTime: time.Now()}
	if err := store.Put(c); err != nil {
		t.Fatal(err)
	}
	c.Question = "v2"
	if err := store.Put(c); err != nil {
		t.Fatal(err)
	}

	got, err := store.List()
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 condition after upsert, got %d", len(got))
	}
	if got[0].Question != "v2" {
		t.Errorf("expected updated question, got %q", got[0].Question)
	}
}

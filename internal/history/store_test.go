package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

// TestStore_RecordAndRecent verifies the round trip through migrations,
// insert, and newest-first retrieval.
func TestStore_RecordAndRecent(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	entries := []struct {
		name, handle, body string
		msgID              int
		at                 time.Time
	}{
		{"Rahul", "@rahul_k", "first message", 10, base},
		{"Priya", "@priya_designs", "second message", 11, base.Add(time.Minute)},
		{"Rahul", "@rahul_k", "third message", 12, base.Add(2 * time.Minute)},
	}
	for _, e := range entries {
		if err := s.Record(ctx, e.name, e.handle, e.body, e.msgID, e.at); err != nil {
			t.Fatalf("Record(%s): %v", e.body, err)
		}
	}

	got, err := s.Recent(ctx, 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 3 {
		t.Fatalf("len = %d, want 3", len(got))
	}
	if got[0].Body != "third message" || got[2].Body != "first message" {
		t.Errorf("order = [%s, %s, %s], want newest first", got[0].Body, got[1].Body, got[2].Body)
	}
	if got[0].TelegramMessageID != 12 {
		t.Errorf("TelegramMessageID = %d, want 12", got[0].TelegramMessageID)
	}
	if got[0].ID == "" {
		t.Error("entry ID is empty")
	}
}

// TestStore_RecentLimit verifies the limit parameter and its default.
func TestStore_RecentLimit(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer s.Close()

	ctx := context.Background()
	for i := 0; i < 5; i++ {
		at := time.Date(2026, 3, 1, 12, i, 0, 0, time.UTC)
		if err := s.Record(ctx, "Rahul", "@rahul_k", "msg", i, at); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	got, err := s.Recent(ctx, 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("len = %d, want 2", len(got))
	}

	got, err = s.Recent(ctx, 0)
	if err != nil {
		t.Fatalf("Recent(0): %v", err)
	}
	if len(got) != 5 {
		t.Errorf("len with default limit = %d, want 5", len(got))
	}
}

// TestStore_Reopen verifies migrations are idempotent and data survives.
func TestStore_Reopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := s.Record(context.Background(), "Rahul", "@rahul_k", "hello", 1, time.Now()); err != nil {
		t.Fatalf("Record: %v", err)
	}
	s.Close()

	s2, err := Open(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer s2.Close()

	got, err := s2.Recent(context.Background(), 10)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(got) != 1 || got[0].Body != "hello" {
		t.Errorf("entries after reopen = %+v, want one 'hello'", got)
	}
}

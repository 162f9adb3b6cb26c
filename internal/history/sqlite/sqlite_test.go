package sqlite

import (
	"context"
	"testing"
	"time"

	"github.com/lakowske/backdrop/internal/history"
	"github.com/lakowske/backdrop/internal/registry"
)

func TestSQLiteSink_File(t *testing.T) {
	dbPath := t.TempDir() + "/test.db"

	sink, err := New("sqlite://" + dbPath)
	if err != nil {
		t.Fatalf("Failed to create sink: %v", err)
	}
	defer func() {
		if err := sink.Close(); err != nil {
			t.Errorf("Failed to close sink: %v", err)
		}
	}()

	ctx := context.Background()

	rec := registry.Record{
		Name:      "web",
		Command:   "python server.py",
		PID:       12345,
		StartedAt: time.Now().Add(-time.Minute).UTC(),
	}

	if err := sink.Send(ctx, history.Event{
		Type:       history.EventStart,
		OccurredAt: time.Now().UTC(),
		Record:     rec,
	}); err != nil {
		t.Fatalf("Failed to send start event: %v", err)
	}

	if err := sink.Send(ctx, history.Event{
		Type:       history.EventStop,
		OccurredAt: time.Now().UTC(),
		Record:     rec,
	}); err != nil {
		t.Fatalf("Failed to send stop event: %v", err)
	}

	var count int
	row := sink.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM server_history WHERE name = ?`, "web")
	if err := row.Scan(&count); err != nil {
		t.Fatalf("Failed to count rows: %v", err)
	}
	if count != 2 {
		t.Fatalf("expected 2 history rows, got %d", count)
	}
}

func TestSQLiteSink_InMemory(t *testing.T) {
	sink, err := New(":memory:")
	if err != nil {
		t.Fatalf("Failed to create in-memory sink: %v", err)
	}
	defer func() {
		if err := sink.Close(); err != nil {
			t.Errorf("Failed to close sink: %v", err)
		}
	}()

	event := history.Event{
		Type:       history.EventCleanup,
		OccurredAt: time.Now().UTC(),
		Record: registry.Record{
			Name:      "stale",
			Command:   "sleep 1",
			PID:       54321,
			StartedAt: time.Now().UTC(),
		},
	}

	if err := sink.Send(context.Background(), event); err != nil {
		t.Fatalf("Failed to send event: %v", err)
	}
}

func TestSQLiteSink_EmptyDSN(t *testing.T) {
	if _, err := New(""); err == nil {
		t.Fatal("expected error for empty DSN")
	}
}

package core

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestMetrics(t *testing.T) (*StorageMetrics, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewStorageMetrics(client), mr
}

func TestStorageMetricsRecordAndSnapshot(t *testing.T) {
	m, mr := newTestMetrics(t)
	ctx := context.Background()

	steps := []struct {
		user  string
		op    string
		bytes int64
	}{
		{"alice", OpStore, 11},
		{"alice", OpStore, 5},
		{"alice", OpHash, 0},
		{"bob", OpStore, 100},
		{"bob", OpDelete, 0},
	}
	for _, s := range steps {
		if err := m.Record(ctx, s.user, s.op, s.bytes); err != nil {
			t.Fatalf("Record(%s, %s): %v", s.user, s.op, err)
		}
	}

	alice, global, err := m.Snapshot(ctx, "alice")
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if want := (OpCounters{Store: 2, Hash: 1, BytesStored: 16}); alice != want {
		t.Fatalf("alice = %+v, want %+v", alice, want)
	}
	if want := (OpCounters{Store: 3, Delete: 1, Hash: 1, BytesStored: 116}); global != want {
		t.Fatalf("global = %+v, want %+v", global, want)
	}
	if got, _ := mr.Get(userOpKey("bob", OpDelete)); got != "1" {
		t.Fatalf("bob delete counter = %q, want 1", got)
	}
}

func TestStorageMetricsSnapshotEmpty(t *testing.T) {
	m, _ := newTestMetrics(t)
	user, global, err := m.Snapshot(context.Background(), "nobody")
	if err != nil {
		t.Fatal(err)
	}
	if user != (OpCounters{}) || global != (OpCounters{}) {
		t.Fatalf("expected zero counters, got %+v %+v", user, global)
	}
}

func TestStorageMetricsNilIsNoop(t *testing.T) {
	var m *StorageMetrics
	if err := m.Record(context.Background(), "alice", OpStore, 1); err != nil {
		t.Fatalf("nil Record: %v", err)
	}
	if _, _, err := m.Snapshot(context.Background(), "alice"); err != nil {
		t.Fatalf("nil Snapshot: %v", err)
	}
}

func TestStorageMetricsRecordError(t *testing.T) {
	m, mr := newTestMetrics(t)
	mr.Close()
	if err := m.Record(context.Background(), "alice", OpStore, 1); err == nil {
		t.Fatalf("expected error once redis is gone")
	}
}

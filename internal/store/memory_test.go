package store

import (
	"context"
	"errors"
	"testing"
)

func TestMemoryCreateGetUpdate(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	run, err := m.CreateRun(ctx, Run{InstanceName: "demo/i1", Algorithm: AlgAnneal, Seed: 42})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if run.ID == "" || run.Status != StatusRunning {
		t.Fatalf("bad created run: %+v", run)
	}

	run.Status = StatusCompleted
	run.Cost = 123
	run.Feasible = true
	if err := m.UpdateRun(ctx, run); err != nil {
		t.Fatalf("update: %v", err)
	}

	got, err := m.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != StatusCompleted || got.Cost != 123 || !got.Feasible {
		t.Fatalf("update not applied: %+v", got)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.Before(got.CreatedAt) {
		t.Fatalf("bad timestamps: %+v", got)
	}
}

func TestMemoryNotFound(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	if _, err := m.GetRun(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	if err := m.UpdateRun(ctx, Run{ID: "missing"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestMemoryListPagination(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		if _, err := m.CreateRun(ctx, Run{InstanceName: "demo", Algorithm: AlgGreedy}); err != nil {
			t.Fatal(err)
		}
	}
	first, cursor, err := m.ListRuns(ctx, "", 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(first) != 3 || cursor == "" {
		t.Fatalf("want 3 + cursor, got %d %q", len(first), cursor)
	}
	rest, _, err := m.ListRuns(ctx, cursor, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(rest) != 2 {
		t.Fatalf("want 2 remaining, got %d", len(rest))
	}
	seen := map[string]bool{}
	for _, r := range append(first, rest...) {
		if seen[r.ID] {
			t.Fatalf("duplicate run %s across pages", r.ID)
		}
		seen[r.ID] = true
	}
}

package store

import (
	"context"
	"path/filepath"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestUpsertFragrance_InsertIfAbsent(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.UpsertFragrance(ctx, 42, "Original Name", "https://img.example/42.jpg", "images/42.jpg"); err != nil {
		t.Fatal(err)
	}
	// Re-ingesting the same id with a different name must be a no-op.
	if err := s.UpsertFragrance(ctx, 42, "Different Name", "", ""); err != nil {
		t.Fatal(err)
	}
	if err := s.Commit(ctx); err != nil {
		t.Fatal(err)
	}

	f, err := s.Fragrance(ctx, 42)
	if err != nil {
		t.Fatal(err)
	}
	if f == nil {
		t.Fatal("record not found")
	}
	if f.Name != "Original Name" {
		t.Errorf("name = %q, want original name preserved", f.Name)
	}
	if f.ImageURL != "https://img.example/42.jpg" {
		t.Errorf("image URL = %q, want original preserved", f.ImageURL)
	}
}

func TestUpsertFragrance_NullableColumns(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)

	if err := s.UpsertFragrance(ctx, 7, "No Image", "", ""); err != nil {
		t.Fatal(err)
	}
	if err := s.Commit(ctx); err != nil {
		t.Fatal(err)
	}

	f, err := s.Fragrance(ctx, 7)
	if err != nil {
		t.Fatal(err)
	}
	if f == nil {
		t.Fatal("record not found")
	}
	if f.ImageURL != "" || f.LocalImagePath != "" {
		t.Errorf("expected empty optional fields, got %+v", f)
	}
}

func TestCommit_NoOpWithoutWrites(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	if err := s.Commit(context.Background()); err != nil {
		t.Errorf("empty commit should succeed: %v", err)
	}
}

func TestClose_FlushesBufferedWrites(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "flush.db")

	s, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.UpsertFragrance(ctx, 1, "Buffered", "", ""); err != nil {
		t.Fatal(err)
	}
	// Close without an explicit Commit.
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	reopened, err := Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()

	f, err := reopened.Fragrance(ctx, 1)
	if err != nil {
		t.Fatal(err)
	}
	if f == nil || f.Name != "Buffered" {
		t.Errorf("buffered write lost on close: %+v", f)
	}
}

func TestRecordWin_Accumulates(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)

	for _, id := range []int{10, 10, 10, 11} {
		if err := s.RecordWin(ctx, id); err != nil {
			t.Fatal(err)
		}
	}

	top, err := s.TopWins(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(top) != 2 {
		t.Fatalf("expected 2 win rows, got %d", len(top))
	}
	if top[0].ID != 10 || top[0].Wins != 3 {
		t.Errorf("top entry = %+v, want id 10 with 3 wins", top[0])
	}
	if top[1].ID != 11 || top[1].Wins != 1 {
		t.Errorf("second entry = %+v, want id 11 with 1 win", top[1])
	}
}

func TestCount(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := newTestStore(t)

	for id := 1; id <= 3; id++ {
		if err := s.UpsertFragrance(ctx, id, "N", "", ""); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Commit(ctx); err != nil {
		t.Fatal(err)
	}

	n, err := s.Count(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Errorf("count = %d, want 3", n)
	}
}

func TestFragrance_AbsentIsNil(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	f, err := s.Fragrance(context.Background(), 12345)
	if err != nil {
		t.Fatal(err)
	}
	if f != nil {
		t.Errorf("expected nil for absent id, got %+v", f)
	}
}

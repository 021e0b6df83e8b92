package bookmark_test

import (
	"context"
	"testing"

	"github.com/studyvoice/advisor/internal/bookmark"
)

func TestMemStore(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	s := bookmark.NewMemStore()

	b := s.Add(ctx, bookmark.Bookmark{Page: 42, Name: "Machine Learning"})
	if b.ID == "" {
		t.Fatal("Add: expected a generated ID")
	}
	if b.Timestamp.IsZero() {
		t.Error("Add: expected a generated timestamp")
	}

	s.Add(ctx, bookmark.Bookmark{Page: 17, Name: "Thermodynamics"})

	got := s.List(ctx)
	if len(got) != 2 {
		t.Fatalf("List: %d bookmarks, want 2", len(got))
	}
	if got[0].Page != 42 || got[1].Page != 17 {
		t.Errorf("List order = %d, %d, want 42, 17", got[0].Page, got[1].Page)
	}

	if !s.Delete(ctx, b.ID) {
		t.Fatal("Delete: expected true for existing ID")
	}
	if s.Delete(ctx, b.ID) {
		t.Error("Delete: expected false for removed ID")
	}

	s.Clear(ctx)
	if got := s.List(ctx); len(got) != 0 {
		t.Errorf("List after Clear: %d bookmarks, want 0", len(got))
	}
}

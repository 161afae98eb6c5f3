package view_test

import (
	"testing"

	"github.com/kmenon/spendlens-go/internal/domain"
	"github.com/kmenon/spendlens-go/internal/view"
)

func TestSetQueryResetsPage(t *testing.T) {
	st := view.NewState()
	st.SetPage(5)
	st.SetQuery("food")
	if st.Page != 1 {
		t.Errorf("expected page reset to 1 after query change, got %d", st.Page)
	}

	// Re-setting the same query keeps the page.
	st.SetPage(3)
	st.SetQuery("food")
	if st.Page != 3 {
		t.Errorf("expected page kept for unchanged query, got %d", st.Page)
	}
}

func TestSetPageSizeResetsPage(t *testing.T) {
	st := view.NewState()
	st.SetPage(5)
	if err := st.SetPageSize(25); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Page != 1 {
		t.Errorf("expected page reset to 1 after page size change, got %d", st.Page)
	}

	st.SetPage(2)
	if err := st.SetPageSize(25); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Page != 2 {
		t.Errorf("expected page kept for unchanged page size, got %d", st.Page)
	}
}

func TestSetPageSizeRejectsNonPositive(t *testing.T) {
	st := view.NewState()
	if err := st.SetPageSize(0); err == nil {
		t.Error("expected error for page size 0")
	}
	if err := st.SetPageSize(-3); err == nil {
		t.Error("expected error for negative page size")
	}
	if st.PageSize != 10 {
		t.Errorf("expected page size unchanged, got %d", st.PageSize)
	}
}

func TestSetPageFloorsAtOne(t *testing.T) {
	st := view.NewState()
	st.SetPage(0)
	if st.Page != 1 {
		t.Errorf("expected page floored to 1, got %d", st.Page)
	}
}

func TestSortBySameKeyTogglesDirection(t *testing.T) {
	st := view.NewState() // date desc

	if err := st.SortBy(domain.SortByDate); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Sort.Direction != domain.SortAsc {
		t.Errorf("expected toggle to asc, got %s", st.Sort.Direction)
	}

	if err := st.SortBy(domain.SortByDate); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Sort.Direction != domain.SortDesc {
		t.Errorf("expected toggle back to desc, got %s", st.Sort.Direction)
	}
}

func TestSortByNewKeyAlwaysStartsAscending(t *testing.T) {
	st := view.NewState() // date desc

	if err := st.SortBy(domain.SortByAmount); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if st.Sort.Key != domain.SortByAmount || st.Sort.Direction != domain.SortAsc {
		t.Errorf("expected amount asc for a new key, got %+v", st.Sort)
	}

	// Flip to desc, then switch away and back: direction is not remembered.
	st.SortBy(domain.SortByAmount)
	st.SortBy(domain.SortByCategory)
	if st.Sort.Direction != domain.SortAsc {
		t.Errorf("expected category asc, got %s", st.Sort.Direction)
	}
	st.SortBy(domain.SortByAmount)
	if st.Sort.Direction != domain.SortAsc {
		t.Errorf("expected amount asc again, got %s", st.Sort.Direction)
	}
}

func TestSortByRejectsUnknownKey(t *testing.T) {
	st := view.NewState()
	if err := st.SortBy(domain.SortKey("color")); err == nil {
		t.Error("expected error for unknown sort key")
	}
	if st.Sort != domain.DefaultSort() {
		t.Errorf("expected sort unchanged, got %+v", st.Sort)
	}
}

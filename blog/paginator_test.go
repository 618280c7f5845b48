package blog

import (
	"testing"
)

func TestNewPageSplitsThirteenItemsOverTwoPages(t *testing.T) {
	first := NewPage(13, 1, 10)
	if first.TotalPages != 2 {
		t.Fatalf("expected 2 pages, got %d", first.TotalPages)
	}
	if first.Offset() != 0 {
		t.Fatalf("expected offset 0, got %d", first.Offset())
	}
	if !first.HasNext() || first.HasPrev() {
		t.Fatalf("page 1 of 2 should only have a next page")
	}

	second := NewPage(13, 2, 10)
	if second.Offset() != 10 {
		t.Fatalf("expected offset 10, got %d", second.Offset())
	}
	if second.HasNext() || !second.HasPrev() {
		t.Fatalf("page 2 of 2 should only have a previous page")
	}
}

func TestNewPageClampsOutOfRangeRequests(t *testing.T) {
	tests := []struct {
		name      string
		total     int
		requested int
		want      int
	}{
		{"below range", 25, 0, 1},
		{"negative", 25, -3, 1},
		{"above range", 25, 99, 3},
		{"exact last", 25, 3, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := NewPage(tt.total, tt.requested, 10)
			if page.Number != tt.want {
				t.Fatalf("NewPage(%d, %d, 10).Number = %d, want %d", tt.total, tt.requested, page.Number, tt.want)
			}
		})
	}
}

func TestNewPageEmptySetStillHasOnePage(t *testing.T) {
	page := NewPage(0, 5, 10)
	if page.Number != 1 || page.TotalPages != 1 {
		t.Fatalf("empty set should clamp to a single page, got %+v", page)
	}
	if page.HasNext() || page.HasPrev() {
		t.Fatalf("single page should have no neighbors")
	}
}

func TestPageNeighborNumbers(t *testing.T) {
	page := NewPage(30, 2, 10)
	if page.PrevNumber() != 1 || page.NextNumber() != 3 {
		t.Fatalf("expected neighbors 1 and 3, got %d and %d", page.PrevNumber(), page.NextNumber())
	}
}
